package session

import "sync"

// PendingRegistry correlates an outbound CallID with the TaskDescribe that
// produced it, so an inbound Response can be matched back to its Decoder
// and TaskID (spec §4.3). debug_session.rs keeps this as a bare HashMap
// because the original is single-threaded; here Register runs from
// Engine.Send on whichever goroutine the caller uses while Take runs from
// the poll loop, so the map needs a mutex.
type PendingRegistry struct {
	mu      sync.Mutex
	pending map[CallID]*TaskDescribe
}

// NewPendingRegistry builds an empty registry.
func NewPendingRegistry() *PendingRegistry {
	return &PendingRegistry{pending: make(map[CallID]*TaskDescribe)}
}

// Register records t under the CallID the Router already assigned to it.
// Must be called before the corresponding Response can possibly be
// processed, i.e. before or immediately after Router.Send returns.
func (p *PendingRegistry) Register(t *TaskDescribe) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[t.Fields.CallID] = t
}

// Take removes and returns the TaskDescribe registered under id, if any.
// Every CallID is consumed exactly once: a second Response for the same id
// (which should not happen on a conforming wire) finds nothing.
func (p *PendingRegistry) Take(id CallID) (*TaskDescribe, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	return t, ok
}

// Len reports the number of calls still awaiting a Response.
func (p *PendingRegistry) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// DrainOnShutdown empties the registry and returns everything that was
// still outstanding, so the engine can synthesize a failure PageResponse
// for each one instead of leaking callers waiting forever (spec §7,
// connection-closed handling).
func (p *PendingRegistry) DrainOnShutdown() []*TaskDescribe {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*TaskDescribe, 0, len(p.pending))
	for _, t := range p.pending {
		out = append(out, t)
	}
	p.pending = make(map[CallID]*TaskDescribe)
	return out
}
