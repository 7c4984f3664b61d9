package daemon

import (
	"sync/atomic"

	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// RuleSetHolder is the publish-on-swap mechanism backing spec.md §4.4's
// invariant (a): exactly one rule set is active at any instant, and readers
// never observe a half-swapped set. A single atomic.Pointer store is the
// entire swap; Go's GC retires the previous *rules.RuleSet once the last
// reader holding it returns, so there is no explicit refcount to manage.
type RuleSetHolder struct {
	p atomic.Pointer[rules.RuleSet]
}

// NewRuleSetHolder seeds the holder with an initial rule set.
func NewRuleSetHolder(rs *rules.RuleSet) *RuleSetHolder {
	h := &RuleSetHolder{}
	h.p.Store(rs)
	return h
}

// Load returns the currently active rule set. Safe for concurrent callers;
// no locking is involved on this hot path.
func (h *RuleSetHolder) Load() *rules.RuleSet { return h.p.Load() }

// Swap publishes a new rule set, replacing whatever was active.
func (h *RuleSetHolder) Swap(rs *rules.RuleSet) { h.p.Store(rs) }
