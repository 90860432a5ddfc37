package session

import (
	"testing"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/target"
	"github.com/mailru/easyjson"
)

// recordingTransport is a minimal Transport that records every message
// handed to Send, for assertions on what the Router actually wrote.
type recordingTransport struct {
	sent []*cdproto.Message
}

func (r *recordingTransport) Send(msg *cdproto.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}
func (r *recordingTransport) Inbound() <-chan *cdproto.Message { return nil }
func (r *recordingTransport) Err() error                       { return nil }
func (r *recordingTransport) Close() error                     { return nil }

func TestRouterSendUnscopedCall(t *testing.T) {
	rt := &recordingTransport{}
	r := NewRouter(rt)

	task := &TaskDescribe{Method: cdproto.MethodType("Target.setDiscoverTargets")}
	id, err := r.Send(task)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if id != 1 {
		t.Fatalf("first CallID = %d, want 1", id)
	}
	if len(rt.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(rt.sent))
	}
	if rt.sent[0].Method != task.Method {
		t.Fatalf("sent Method = %q, want %q", rt.sent[0].Method, task.Method)
	}
	if rt.sent[0].ID != id {
		t.Fatalf("sent ID = %d, want %d", rt.sent[0].ID, id)
	}
}

func TestRouterSendScopedCallDoubleWraps(t *testing.T) {
	rt := &recordingTransport{}
	r := NewRouter(rt)

	task := &TaskDescribe{
		Method: cdproto.MethodType("Page.navigate"),
		Fields: CommonFields{SessionID: "session-1"},
	}
	if _, err := r.Send(task); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(rt.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(rt.sent))
	}
	outer := rt.sent[0]
	if outer.Method != cdproto.MethodType("Target.sendMessageToTarget") {
		t.Fatalf("outer Method = %q, want Target.sendMessageToTarget", outer.Method)
	}

	var params target.SendMessageToTargetParams
	if err := easyjson.Unmarshal(outer.Params, &params); err != nil {
		t.Fatalf("unmarshal outer params: %v", err)
	}
	if params.SessionID != "session-1" {
		t.Fatalf("outer SessionID = %q, want session-1", params.SessionID)
	}

	var inner cdproto.Message
	if err := easyjson.Unmarshal([]byte(params.Message), &inner); err != nil {
		t.Fatalf("unmarshal inner message: %v", err)
	}
	if inner.Method != cdproto.MethodType("Page.navigate") {
		t.Fatalf("inner Method = %q, want Page.navigate", inner.Method)
	}
}

func TestRouterCallIDsStrictlyIncreasing(t *testing.T) {
	rt := &recordingTransport{}
	r := NewRouter(rt)

	var ids []CallID
	for i := 0; i < 3; i++ {
		id, err := r.Send(&TaskDescribe{Method: cdproto.MethodType("Page.enable")})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("CallIDs not strictly increasing: %v", ids)
		}
	}
}
