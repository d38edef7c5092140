package macro

import (
	"maps"
	"slices"
	"sync"

	"github.com/vk/conceptc/internal/registry"
)

// Hints records the last productive iteration of each rule. They are a
// performance aid only.
type Hints struct {
	mu   sync.Mutex
	last map[string]int
}

// NewHints creates empty hints.
func NewHints() *Hints {
	return &Hints{last: make(map[string]int)}
}

// Record notes that rule created concepts in the given iteration.
func (h *Hints) Record(rule string, iteration int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[rule] = iteration
}

// Last returns the recorded iteration of a rule, or 0.
func (h *Hints) Last(rule string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last[rule]
}

// Export copies the hints, e.g. to persist them.
func (h *Hints) Export() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return maps.Clone(h.last)
}

// Import merges persisted hints.
func (h *Hints) Import(last map[string]int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	maps.Copy(h.last, last)
}

// Order returns the rules sorted by last productive iteration, earliest
// first. Rules without a hint keep their relative position at the front.
func (h *Hints) Order(rules []*registry.Rule) []*registry.Rule {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := slices.Clone(rules)
	slices.SortStableFunc(out, func(a, b *registry.Rule) int {
		return h.last[a.Name] - h.last[b.Name]
	})
	return out
}
