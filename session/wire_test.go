package session

import (
	"testing"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/target"
	"github.com/mailru/easyjson"
)

func TestClassifyResponse(t *testing.T) {
	msg := &cdproto.Message{ID: 42, Result: easyjson.RawMessage(`{}`)}
	in, err := Classify(msg)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if in.Kind != KindResponse {
		t.Fatalf("Kind = %v, want KindResponse", in.Kind)
	}
}

func TestClassifyEvent(t *testing.T) {
	msg := &cdproto.Message{Method: cdproto.MethodType("Page.loadEventFired"), Params: easyjson.RawMessage(`{}`)}
	in, err := Classify(msg)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if in.Kind != KindEvent {
		t.Fatalf("Kind = %v, want KindEvent", in.Kind)
	}
}

func TestClassifyTargetMessage(t *testing.T) {
	inner := &cdproto.Message{ID: 7, Result: easyjson.RawMessage(`{"ok":true}`)}
	innerRaw, err := easyjson.Marshal(inner)
	if err != nil {
		t.Fatalf("marshal inner: %v", err)
	}

	ev := &target.EventReceivedMessageFromTarget{
		SessionID: "session-1",
		Message:   string(innerRaw),
	}
	params, err := easyjson.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}

	outer := &cdproto.Message{Method: cdproto.EventTargetReceivedMessageFromTarget, Params: params}
	in, err := Classify(outer)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if in.Kind != KindTargetMessage {
		t.Fatalf("Kind = %v, want KindTargetMessage", in.Kind)
	}
	if in.SessionID != "session-1" {
		t.Fatalf("SessionID = %q, want session-1", in.SessionID)
	}
	if in.Inner.ID != 7 {
		t.Fatalf("Inner.ID = %d, want 7", in.Inner.ID)
	}
}

func TestClassifyMalformedTargetMessage(t *testing.T) {
	outer := &cdproto.Message{Method: cdproto.EventTargetReceivedMessageFromTarget, Params: easyjson.RawMessage(`not json`)}
	if _, err := Classify(outer); err != ErrProtocolParse {
		t.Fatalf("Classify() error = %v, want ErrProtocolParse", err)
	}
}
