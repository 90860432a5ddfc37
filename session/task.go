package session

import (
	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/target"
	"github.com/google/uuid"
	"github.com/mailru/easyjson"
)

// TaskID is a caller-assigned, opaque label propagated through to a task's
// completion response so user code can correlate it (spec §3). The core
// never interprets it.
type TaskID string

// NewTaskID mints a unique TaskID for callers that don't want to assign
// their own, backed by a real UUID generator rather than a hand-rolled
// counter.
func NewTaskID() TaskID {
	return TaskID(uuid.NewString())
}

// CallID is the wire-level identifier correlating an outbound method call
// with its Response. Allocated by the Router; strictly increasing.
type CallID = int64

// Op discriminates the operation carried by a TaskDescribe. It is the
// Go-idiomatic rendition of the tagged enum described in spec §3: cdproto's
// own wire Message is a single struct discriminated by Method, and
// TaskDescribe follows the same shape rather than declaring forty distinct
// Go struct types for forty enum variants.
type Op int

// Method-call operations (outbound; each expects a matching Response).
const (
	OpNavigateTo Op = iota
	OpQuerySelector
	OpDescribeNode
	OpGetDocument
	OpGetBoxModel
	OpCaptureScreenshot
	OpPrintToPDF
	OpPageEnable
	OpPageClose
	OpPageReload
	OpBringToFront
	OpGetLayoutMetrics
	OpRuntimeEnable
	OpRuntimeEvaluate
	OpRuntimeGetProperties
	OpRuntimeCallFunctionOn
	OpNetworkEnable
	OpSetRequestInterception
	OpContinueInterceptedRequest
	OpGetResponseBodyForInterception
	OpCreateTarget
	OpTargetSetDiscoverTargets
	OpDispatchKeyEvent
	OpDispatchMouseEvent

	// Event operations (inbound; no call correlation).
	OpPageCreated
	OpPageAttached
	OpTargetInfoChanged
	OpFrameAttached
	OpFrameStartedLoading
	OpFrameNavigated
	OpFrameStoppedLoading
	OpFrameDetached
	OpLoadEventFired
	OpSetChildNodes
	OpRuntimeExecutionContextCreated
	OpRuntimeExecutionContextDestroyed
	OpRuntimeConsoleAPICalled
	OpRequestWillBeSent
	OpRequestIntercepted
	OpResponseReceived
	OpLoadingFinished
	OpLoadingFailed

	// Internal operations.
	OpInterval
	OpChromeConnected
	OpFail
)

// methodCallOps is the set of Op values that expect a wire round-trip and a
// Response correlated by CallID; every other Op is either an inbound event
// or an internal signal that never touches the Pending-Call Registry.
var methodCallOps = map[Op]bool{
	OpNavigateTo:                      true,
	OpQuerySelector:                   true,
	OpDescribeNode:                    true,
	OpGetDocument:                     true,
	OpGetBoxModel:                     true,
	OpCaptureScreenshot:               true,
	OpPrintToPDF:                      true,
	OpPageEnable:                      true,
	OpPageClose:                       true,
	OpPageReload:                      true,
	OpBringToFront:                    true,
	OpGetLayoutMetrics:                true,
	OpRuntimeEnable:                   true,
	OpRuntimeEvaluate:                 true,
	OpRuntimeGetProperties:            true,
	OpRuntimeCallFunctionOn:           true,
	OpNetworkEnable:                   true,
	OpSetRequestInterception:          true,
	OpContinueInterceptedRequest:      true,
	OpGetResponseBodyForInterception:  true,
	OpCreateTarget:                    true,
	OpTargetSetDiscoverTargets:        true,
	OpDispatchKeyEvent:                true,
	OpDispatchMouseEvent:              true,
}

// IsMethodCall reports whether op expects a correlated Response.
func (op Op) IsMethodCall() bool { return methodCallOps[op] }

// CommonFields is carried by every TaskDescribe, mirroring
// task_describe.rs's CommonDescribeFields.
type CommonFields struct {
	TargetID  target.ID
	SessionID target.SessionID
	TaskID    TaskID
	CallID    CallID
}

// Decoder unmarshals a method call's raw Response.Result into the typed
// ReturnObject for that operation. Set by the constructor that built the
// TaskDescribe, closing over the right cdproto ReturnObject type - the Go
// equivalent of pairing a Rust TaskBuilder with its task_result field.
type Decoder func(result easyjson.RawMessage) (interface{}, error)

// TaskDescribe is a single logical operation flowing through the engine:
// either an outbound method call awaiting a Response, an inbound browser
// event, or one of the three internal signals (Interval, ChromeConnected,
// Fail). See Op for the full taxonomy.
type TaskDescribe struct {
	Op     Op
	Fields CommonFields

	// Outbound method calls only.
	Method  cdproto.MethodType
	Params  easyjson.Marshaler
	Decode  Decoder

	// Inbound events only: the typed event value produced by
	// cdproto.UnmarshalMessage.
	Event interface{}
}
