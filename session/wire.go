package session

import (
	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/target"
	"github.com/mailru/easyjson"
)

// Kind classifies one inbound cdproto.Message, the Go rendition of the
// match over PageMessage variants in the original debug_session.rs dispatch
// loop (spec §4.1).
type Kind int

const (
	// KindResponse is a reply to an outbound method call, correlated by
	// CallID against the Pending-Call Registry.
	KindResponse Kind = iota
	// KindEvent is a top-level (browser-scoped) event: no CallID, Method
	// is set.
	KindEvent
	// KindTargetMessage is a Target.receivedMessageFromTarget envelope
	// wrapping a per-tab Response or Event; Unwrap splits it into the
	// inner Message plus the originating SessionID.
	KindTargetMessage
)

// Inbound is one classified wire frame.
type Inbound struct {
	Kind    Kind
	Message *cdproto.Message

	// Populated only when Kind == KindTargetMessage: the inner message
	// and the session it arrived on.
	SessionID target.SessionID
	Inner     *cdproto.Message
}

// Classify triages a raw cdproto.Message the way debug_session.rs's
// `parse_raw_message` distinguishes a direct reply, a direct event, and a
// double-wrapped per-target message.
func Classify(msg *cdproto.Message) (*Inbound, error) {
	if msg.Method == cdproto.EventTargetReceivedMessageFromTarget {
		var ev target.EventReceivedMessageFromTarget
		if err := easyjson.Unmarshal(msg.Params, &ev); err != nil {
			return nil, ErrProtocolParse
		}
		inner := new(cdproto.Message)
		if err := easyjson.Unmarshal([]byte(ev.Message), inner); err != nil {
			return nil, ErrProtocolParse
		}
		return &Inbound{
			Kind:      KindTargetMessage,
			Message:   msg,
			SessionID: ev.SessionID,
			Inner:     inner,
		}, nil
	}

	if msg.Method != "" {
		return &Inbound{Kind: KindEvent, Message: msg}, nil
	}

	return &Inbound{Kind: KindResponse, Message: msg}, nil
}
