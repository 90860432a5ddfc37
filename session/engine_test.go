package session

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/target"
	"github.com/mailru/easyjson"
)

// chanTransport is an in-memory Transport for driving Engine.Poll without a
// real WebSocket, recording every outbound Send the way recordingTransport
// does in router_test.go.
type chanTransport struct {
	inbound chan *cdproto.Message
	sent    []*cdproto.Message
	err     error
}

func newChanTransport() *chanTransport {
	return &chanTransport{inbound: make(chan *cdproto.Message, 16)}
}

func (c *chanTransport) Send(msg *cdproto.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}
func (c *chanTransport) Inbound() <-chan *cdproto.Message { return c.inbound }
func (c *chanTransport) Err() error                       { return c.err }
func (c *chanTransport) Close() error                      { close(c.inbound); return nil }

func pollOrFatal(t *testing.T, e *Engine) PageResponse {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	w, err := e.Poll(ctx)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	return w.Response
}

func TestEngineFirstPollReportsConnected(t *testing.T) {
	ct := newChanTransport()
	e := NewEngine(ct)
	resp := pollOrFatal(t, e)
	if resp.Op != OpChromeConnected {
		t.Fatalf("Op = %v, want OpChromeConnected", resp.Op)
	}
	// Spec §6: ChromeConnected must be immediately followed by the engine
	// issuing Target.setDiscoverTargets(true) on its own, unprompted.
	if len(ct.sent) != 1 || ct.sent[0].Method != cdproto.MethodType("Target.setDiscoverTargets") {
		t.Fatalf("sent after connect = %+v, want a single Target.setDiscoverTargets call", ct.sent)
	}
}

func TestEngineDispatchesTargetCreatedAndAttached(t *testing.T) {
	ct := newChanTransport()
	e := NewEngine(ct)
	pollOrFatal(t, e) // consume the initial ChromeConnected signal

	info := &target.Info{TargetID: "target-1", Type: "page", URL: "about:blank"}
	createdParams, err := easyjson.Marshal(&target.EventTargetCreated{TargetInfo: info})
	if err != nil {
		t.Fatalf("marshal TargetCreated: %v", err)
	}
	ct.inbound <- &cdproto.Message{Method: cdproto.EventTargetTargetCreated, Params: createdParams}

	resp := pollOrFatal(t, e)
	if resp.Op != OpPageCreated || resp.TargetID != "target-1" {
		t.Fatalf("resp = %+v, want OpPageCreated for target-1", resp)
	}
	if _, ok := e.Registry().Get("target-1"); !ok {
		t.Fatal("tab not inserted into registry after TargetCreated")
	}

	attachedParams, err := easyjson.Marshal(&target.EventAttachedToTarget{
		SessionID:  "session-1",
		TargetInfo: info,
	})
	if err != nil {
		t.Fatalf("marshal AttachedToTarget: %v", err)
	}
	ct.inbound <- &cdproto.Message{Method: cdproto.EventTargetAttachedToTarget, Params: attachedParams}

	resp = pollOrFatal(t, e)
	if resp.Op != OpPageAttached || resp.SessionID != "session-1" {
		t.Fatalf("resp = %+v, want OpPageAttached on session-1", resp)
	}
	tab, ok := e.Registry().Get("target-1")
	if !ok || !tab.Attached() {
		t.Fatal("tab not marked attached")
	}
}

func TestEngineCorrelatesMethodResponse(t *testing.T) {
	ct := newChanTransport()
	e := NewEngine(ct)
	pollOrFatal(t, e)

	tab := NewTab("target-1", "")
	tab.Attach("session-1")
	e.registry.Insert(tab)

	ct.sent = nil // discard the initial setDiscoverTargets call

	task := tab.NavigateTo("https://example.com/", "task-1")
	if err := e.Send(task); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(ct.sent) != 1 {
		t.Fatalf("sent %d outbound messages, want 1", len(ct.sent))
	}

	// The Router double-wrapped the call since the tab has a SessionID;
	// synthesize the corresponding receivedMessageFromTarget reply.
	inner := &cdproto.Message{ID: task.Fields.CallID, Result: easyjson.RawMessage(`{"frameId":"frame-1"}`)}
	ct.inbound <- wrapAsTargetMessage(t, "session-1", inner)

	resp := pollOrFatal(t, e)
	if resp.TaskID != "task-1" || resp.Op != OpNavigateTo {
		t.Fatalf("resp = %+v, want task-1/OpNavigateTo", resp)
	}
	if resp.Err != nil {
		t.Fatalf("resp.Err = %v, want nil", resp.Err)
	}
}

func TestEngineSurfacesMethodError(t *testing.T) {
	ct := newChanTransport()
	e := NewEngine(ct)
	pollOrFatal(t, e)

	tab := NewTab("target-1", "")
	e.registry.Insert(tab)
	task := tab.RuntimeEnable("task-err")
	if err := e.Send(task); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	ct.inbound <- &cdproto.Message{
		ID:    task.Fields.CallID,
		Error: &cdproto.Error{Code: -32000, Message: "boom"},
	}

	resp := pollOrFatal(t, e)
	if resp.TaskID != "task-err" {
		t.Fatalf("resp.TaskID = %q, want task-err", resp.TaskID)
	}
	methodErr, ok := resp.Err.(*MethodError)
	if !ok {
		t.Fatalf("resp.Err = %T, want *MethodError", resp.Err)
	}
	if methodErr.Code != -32000 {
		t.Fatalf("methodErr.Code = %d, want -32000", methodErr.Code)
	}
}

func TestEngineEndsStreamOnTransportClose(t *testing.T) {
	ct := newChanTransport()
	e := NewEngine(ct)
	pollOrFatal(t, e)

	ct.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := e.Poll(ctx); err != ErrConnectionClosed {
		t.Fatalf("Poll() error = %v, want ErrConnectionClosed", err)
	}
	if _, err := e.Poll(ctx); err != ErrStreamEnded {
		t.Fatalf("second Poll() error = %v, want ErrStreamEnded", err)
	}
}

func wrapAsTargetMessage(t *testing.T, sessionID target.SessionID, inner *cdproto.Message) *cdproto.Message {
	t.Helper()
	innerRaw, err := easyjson.Marshal(inner)
	if err != nil {
		t.Fatalf("marshal inner: %v", err)
	}
	ev := &target.EventReceivedMessageFromTarget{SessionID: sessionID, Message: string(innerRaw)}
	params, err := easyjson.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return &cdproto.Message{Method: cdproto.EventTargetReceivedMessageFromTarget, Params: params}
}
