package compiler

import (
	"context"
	"sync"
)

// BuildFunc produces a compilation result.
type BuildFunc func(ctx context.Context) (*Result, error)

// Lazy builds a result on first use. Concurrent callers wait for the one
// build and then share its result or error.
type Lazy struct {
	once   sync.Once
	build  BuildFunc
	result *Result
	err    error
}

// NewLazy wraps build.
func NewLazy(build BuildFunc) *Lazy {
	return &Lazy{build: build}
}

// Get returns the result, building it with ctx if this is the first call.
func (l *Lazy) Get(ctx context.Context) (*Result, error) {
	l.once.Do(func() {
		l.result, l.err = l.build(ctx)
	})
	return l.result, l.err
}
