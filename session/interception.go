package session

import "github.com/chromedp/cdproto/network"

// InterceptionState is a single interception's lifecycle stage (spec §4.4's
// request-interception state machine): nil (never seen) -> Intercepted ->
// exactly one of Continued/Aborted -> Completed/Failed.
type InterceptionState int

const (
	Intercepted InterceptionState = iota
	Continued
	Aborted
	Completed
	Failed
)

// Interception tracks one Network.requestIntercepted id end to end.
type Interception struct {
	ID        network.InterceptionID
	RequestID network.RequestID
	URL       string
	State     InterceptionState
}

// ApplyIntercepted registers a newly intercepted request, recording the
// underlying RequestID so a later loadingFinished/loadingFailed event -
// which carries only a RequestID, not the InterceptionID - can be matched
// back to it by SettleByRequestID. Calling it again for the same id
// refreshes the RequestID and URL and parks a Continued or Aborted record
// at Intercepted again; a record already Completed or Failed keeps its
// state.
func (t *Tab) ApplyIntercepted(id network.InterceptionID, requestID network.RequestID, url string) {
	ic, ok := t.interceptions[id]
	if !ok {
		ic = &Interception{ID: id}
		t.interceptions[id] = ic
	}
	ic.RequestID = requestID
	ic.URL = url
	if ic.State == Completed || ic.State == Failed {
		return
	}
	ic.State = Intercepted
}

// Continue marks id as resolved via continueInterceptedRequest without an
// error reason. Returns ErrNotIntercepted if id isn't currently parked in
// the Intercepted state - every Intercepted must be matched by exactly one
// continuation, never zero or two.
func (t *Tab) Continue(id network.InterceptionID) error {
	ic, ok := t.interceptions[id]
	if !ok || ic.State != Intercepted {
		return ErrNotIntercepted
	}
	ic.State = Continued
	return nil
}

// Abort marks id as resolved via continueInterceptedRequest with an error
// reason, failing the underlying request instead of letting it proceed.
func (t *Tab) Abort(id network.InterceptionID) error {
	ic, ok := t.interceptions[id]
	if !ok || ic.State != Intercepted {
		return ErrNotIntercepted
	}
	ic.State = Aborted
	return nil
}

// Settle marks a Continued/Aborted interception as having reached its final
// network outcome, driven by the matching loadingFinished/loadingFailed
// event.
func (t *Tab) Settle(id network.InterceptionID, ok bool) {
	ic, found := t.interceptions[id]
	if !found {
		return
	}
	if ok {
		ic.State = Completed
	} else {
		ic.State = Failed
	}
}

// SettleByRequestID is Settle keyed by the RequestID a loadingFinished or
// loadingFailed event actually carries (those events have no
// InterceptionID), resolved against the RequestID ApplyIntercepted
// recorded for this id.
func (t *Tab) SettleByRequestID(requestID network.RequestID, ok bool) {
	for id, ic := range t.interceptions {
		if ic.RequestID == requestID {
			t.Settle(id, ok)
			return
		}
	}
}

// Interception looks up the current state of id.
func (t *Tab) Interception(id network.InterceptionID) (*Interception, bool) {
	ic, ok := t.interceptions[id]
	return ic, ok
}
