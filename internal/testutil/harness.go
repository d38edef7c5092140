package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/conceptc/internal/compiler"
	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/registry"
	"github.com/vk/conceptc/internal/source"
	"github.com/vk/conceptc/modules/common"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcome of a compilation run by the harness.
type HarnessResult struct {
	Result    *compiler.Result
	Err       error
	LogOutput string
}

// DebugContext returns a context whose logger writes debug output to buf.
func DebugContext(buf *SafeBuffer) context.Context {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger)
}

// NewRegistry returns a frozen registry with the standard concept types and
// the given extra modules.
func NewRegistry(t *testing.T, modules ...registry.Module) *registry.Registry {
	t.Helper()
	r := registry.New()
	r.Load(&common.Module{})
	r.Load(modules...)
	require.NoError(t, r.Freeze(context.Background()))
	return r
}

// Compile compiles one in-memory script against the standard concept types
// plus modules.
func Compile(t *testing.T, script string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return CompileWith(t, NewRegistry(t, modules...), compiler.Options{}, source.FromString("test.rhe", script))
}

// CompileWith compiles a source set with explicit options.
func CompileWith(t *testing.T, reg *registry.Registry, opts compiler.Options, set *source.Set) *HarnessResult {
	t.Helper()
	logs := &SafeBuffer{}
	result, err := compiler.Compile(DebugContext(logs), reg, set, opts)
	if os.Getenv("CONCEPTC_TEST_LOGS") == "true" {
		t.Logf("--- COMPILER LOGS ---\n%s", logs.String())
	}
	return &HarnessResult{Result: result, Err: err, LogOutput: logs.String()}
}

// WriteFiles writes files, keyed by slash-separated relative path, into a
// fresh temporary directory and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}
