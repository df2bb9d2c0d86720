package parkmerge

import (
	"sync"

	"github.com/agentstation/parkmerge/pkg/reconciler"
	"github.com/agentstation/parkmerge/pkg/records"
)

// Hook function types for merge events
type (
	// MatchedHook is called for each record built from a cross-source match
	MatchedHook func(record records.Merged)

	// UnmatchedHook is called for each record that came from one source alone
	UnmatchedHook func(record records.Merged)

	// ConflictHook is called for each matched record with at least one conflict
	ConflictHook func(record records.Merged, conflicts []records.Conflict)
)

// hooks manages event callbacks for merge runs
type hooks struct {
	mu          sync.RWMutex
	onMatched   []MatchedHook
	onUnmatched []UnmatchedHook
	onConflict  []ConflictHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnMatched registers a callback for matched records
func (h *hooks) OnMatched(fn MatchedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMatched = append(h.onMatched, fn)
}

// OnUnmatched registers a callback for single-source records
func (h *hooks) OnUnmatched(fn UnmatchedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onUnmatched = append(h.onUnmatched, fn)
}

// OnConflict registers a callback for records with conflicts
func (h *hooks) OnConflict(fn ConflictHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onConflict = append(h.onConflict, fn)
}

// trigger walks the result in output order and calls the matching hooks
func (h *hooks) trigger(result *reconciler.Result) {
	if result == nil {
		return
	}
	h.mu.RLock()
	onMatched := append([]MatchedHook(nil), h.onMatched...)
	onUnmatched := append([]UnmatchedHook(nil), h.onUnmatched...)
	onConflict := append([]ConflictHook(nil), h.onConflict...)
	h.mu.RUnlock()

	for _, rec := range result.Records {
		if !rec.Matched() {
			for _, hook := range onUnmatched {
				hook(rec)
			}
			continue
		}
		for _, hook := range onMatched {
			hook(rec)
		}
		if len(rec.Conflicts) > 0 {
			for _, hook := range onConflict {
				hook(rec, rec.Conflicts)
			}
		}
	}
}
