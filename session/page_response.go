package session

import "github.com/chromedp/cdproto/target"

// PageResponse is one item handed to the consumer by Poll: either the
// typed result of a method call this process issued, a browser event, or a
// failure tied to a specific task. It is the Go rendition of the Ready
// payload in the original's `PageResponseWrapper` (spec §4.5) — Poll itself
// collapses Ready/NotReady/End/Err into a blocking call returning
// (PageResponseWrapper, error), so PageResponse only ever needs to model
// the success payload; terminal conditions are reported through Poll's
// error return instead (see DESIGN.md's Open Question resolution).
type PageResponse struct {
	// TargetID and SessionID identify which tab this response concerns;
	// empty for browser-scoped events that aren't tied to any tab.
	TargetID  target.ID
	SessionID target.SessionID

	// TaskID echoes the value the caller supplied (or NewTaskID minted)
	// when constructing the originating TaskDescribe. Zero-value for
	// inbound events, which were never requested.
	TaskID TaskID

	// Op identifies what kind of response this is, same enumeration as
	// the originating TaskDescribe.Op.
	Op Op

	// Result holds the decoded ReturnObject for a method call (produced
	// by the task's Decoder), the decoded event value for an event, or
	// the elapsed tick count (an int) for OpInterval - debug_session.rs's
	// SecondsElapsed(n). Nil for OpChromeConnected and OpFail.
	Result interface{}

	// Err is set when this response represents a non-fatal, per-task
	// failure (spec §7 categories 3-4): a MethodError, ErrTabNotFound, or
	// ErrProtocolParse when a method's result could not be decoded. Poll
	// still returns (resp, nil) in this case -
	// the failure is scoped to this one task, not the stream.
	Err error
}

// PageResponseWrapper is the full value returned by a successful Poll call.
// It is named distinctly from PageResponse to mirror the original's two
// nested types (PageResponse inside PageResponseWrapper) even though, in
// this blocking rendition, the wrapper carries nothing beyond the single
// response it wraps.
type PageResponseWrapper struct {
	Response PageResponse
}
