package session

import "fmt"

// Error is a session error, following the same string-const pattern as
// chromedp's top-level Error type.
type Error string

// Error satisfies the error interface.
func (err Error) Error() string {
	return string(err)
}

// Fatal taxonomy (spec §7, categories 1-2): these end the Poll stream.
const (
	// ErrConnectionClosed is returned when the underlying WebSocket ends
	// unexpectedly or is closed locally.
	ErrConnectionClosed Error = "cdp session: connection closed"

	// ErrProtocolParse is returned when an inbound frame could not be
	// decoded as a CDP envelope, or a ReceivedMessageFromTarget's inner
	// message was itself malformed.
	ErrProtocolParse Error = "cdp session: malformed CDP envelope"

	// ErrStreamEnded is returned by Poll once the stream has reached a
	// terminal state; repeated calls keep returning it.
	ErrStreamEnded Error = "cdp session: stream ended"
)

// Non-fatal taxonomy (spec §7, categories 3-4): never returned as a Poll
// error. ErrTabNotFound is reported in an OpFail PageResponse;
// ErrNotIntercepted is returned directly by the interception calls.
const (
	// ErrTabNotFound is raised when an inbound per-target event arrives on
	// a SessionID with no corresponding Tab, e.g. a race with
	// targetDestroyed.
	ErrTabNotFound Error = "cdp session: tab not found"

	// ErrBuilder reports invalid task parameters (a required field left
	// empty). The task constructors in this package do not validate their
	// parameters and never return it.
	ErrBuilder Error = "cdp session: invalid task parameters"

	// ErrNotIntercepted is raised when ContinueInterceptedRequest names an
	// interception id that isn't currently parked in Intercepted state.
	ErrNotIntercepted Error = "cdp session: interception id not pending"
)

// MethodError wraps a CDP response's error object (spec §7, category 3). It
// carries the TaskId of the originating call; the Engine reports it in the
// PageResponse.Err of that call's response, whose Op stays the call's Op.
type MethodError struct {
	TaskID  TaskID
	Code    int64
	Message string
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("cdp method error (task %s): %d %s", e.TaskID, e.Code, e.Message)
}
