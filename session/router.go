package session

import (
	"sync/atomic"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/target"
	"github.com/mailru/easyjson"
)

// Router owns outbound call-ID allocation and the double-wrapping required
// to address a method call at a specific tab's session, the Go rendition of
// debug_session.rs's `unique_call_id` counter plus its `send_message_to_target`
// helper. The counter is accessed from arbitrary caller goroutines (task
// construction is not confined to the poll loop the way it is in the
// single-threaded Rust original), so it is atomic rather than a bare field.
type Router struct {
	transport Transport
	nextCall  int64
}

// NewRouter builds a Router around an already-connected Transport.
func NewRouter(t Transport) *Router {
	return &Router{transport: t}
}

// nextCallID returns a strictly increasing CallID, starting at 1 so that 0
// is never mistaken for a valid id.
func (r *Router) nextCallID() CallID {
	return atomic.AddInt64(&r.nextCall, 1)
}

// Send assigns a CallID to t, wraps it in Target.sendMessageToTarget when t
// targets a specific tab session, and writes it to the wire. It returns the
// CallID so the caller can register it in the Pending-Call Registry before
// the corresponding Response can possibly arrive.
func (r *Router) Send(t *TaskDescribe) (CallID, error) {
	id := r.nextCallID()
	t.Fields.CallID = id

	inner := &cdproto.Message{
		ID:     id,
		Method: t.Method,
	}
	if t.Params != nil {
		raw, err := easyjson.Marshal(t.Params)
		if err != nil {
			return 0, err
		}
		inner.Params = raw
	}

	if t.Fields.SessionID == "" {
		return id, r.transport.Send(inner)
	}

	innerRaw, err := easyjson.Marshal(inner)
	if err != nil {
		return 0, err
	}
	outer := &cdproto.Message{
		ID:     r.nextCallID(),
		Method: cdproto.MethodType("Target.sendMessageToTarget"),
	}
	params := &target.SendMessageToTargetParams{
		Message:   string(innerRaw),
		SessionID: t.Fields.SessionID,
	}
	raw, err := easyjson.Marshal(params)
	if err != nil {
		return 0, err
	}
	outer.Params = raw
	// The outer Target.sendMessageToTarget call is itself fire-and-forget
	// from the caller's point of view: its own Response (an empty object)
	// carries no information the consumer needs, so it is not registered
	// in the Pending-Call Registry and is discarded when it arrives,
	// mirroring debug_session.rs's send_message_to_target.
	return id, r.transport.Send(outer)
}
