package session

import (
	"sort"

	"github.com/chromedp/cdproto/target"
	"golang.org/x/exp/slices"
)

// Registry is the Tab Registry (spec §4.4): every known target, keyed by
// TargetID, plus insertion order so MainTab can honor the "index 0 is the
// main tab by convention" rule from debug_session.rs's tabs.get(0).
type Registry struct {
	order []target.ID
	tabs  map[target.ID]*Tab
}

// NewRegistry builds an empty Tab Registry.
func NewRegistry() *Registry {
	return &Registry{tabs: make(map[target.ID]*Tab)}
}

// Insert adds a newly discovered target, ignoring a duplicate TargetID
// (Target.targetCreated firing twice for the same id is tolerated, not an
// error).
func (r *Registry) Insert(tab *Tab) {
	if _, exists := r.tabs[tab.TargetID]; exists {
		return
	}
	r.tabs[tab.TargetID] = tab
	r.order = append(r.order, tab.TargetID)
}

// Remove drops targetID from the registry, e.g. on Target.targetDestroyed.
func (r *Registry) Remove(targetID target.ID) {
	delete(r.tabs, targetID)
	if i := slices.Index(r.order, targetID); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// Get looks up a tab by TargetID. Callers that find none should surface
// ErrTabNotFound rather than treat the event as fatal (spec §7 category 4).
func (r *Registry) Get(targetID target.ID) (*Tab, bool) {
	t, ok := r.tabs[targetID]
	return t, ok
}

// BySession looks up the tab currently attached under sessionID, used to
// resolve a KindTargetMessage's SessionID back to its owning Tab.
func (r *Registry) BySession(sessionID target.SessionID) (*Tab, bool) {
	for _, t := range r.tabs {
		if t.attached && t.SessionID == sessionID {
			return t, true
		}
	}
	return nil, false
}

// MainTab returns the earliest-inserted tab still in the registry, the
// SPEC_FULL §4 rendition of debug_session.rs's tabs.get(0) convention:
// once the first tab is removed, the next one in insertion order becomes
// the main tab. Returns false only if the registry is empty.
func (r *Registry) MainTab() (*Tab, bool) {
	if len(r.order) == 0 {
		return nil, false
	}
	t, ok := r.tabs[r.order[0]]
	return t, ok
}

// All returns every tab in insertion order.
func (r *Registry) All() []*Tab {
	out := make([]*Tab, 0, len(r.order))
	for _, id := range r.order {
		if t, ok := r.tabs[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Len reports how many tabs are currently registered.
func (r *Registry) Len() int { return len(r.tabs) }

// BrowserContextIDs returns the de-duplicated, sorted set of
// BrowserContextIDs seen across every registered tab (SPEC_FULL §4's
// rendition of debug_session.rs's get_browser_context_ids).
func (r *Registry) BrowserContextIDs() []target.BrowserContextID {
	seen := make(map[target.BrowserContextID]bool)
	for _, t := range r.tabs {
		if t.BrowserContextID != "" {
			seen[t.BrowserContextID] = true
		}
	}
	out := make([]target.BrowserContextID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
