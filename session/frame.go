package session

import "github.com/chromedp/cdproto/page"

// FrameState is a frame's lifecycle stage, following the literal ordering
// debug_session.rs/tab.rs drive a frame through: Attached -> Navigated ->
// StoppedLoading, with StartedLoading folded in as an optional intermediate
// (Chrome does not always emit it for the initial frame of a new target).
type FrameState int

const (
	FrameAttached FrameState = iota
	FrameStartedLoading
	FrameNavigated
	FrameStoppedLoading
	FrameDetached
)

// ChangingFrame is a single frame's accumulated state (spec §4.4). Chrome's
// own event ordering is not strictly guaranteed across a target's lifetime
// - StoppedLoading can arrive before Attached has been recorded for a
// sub-frame created very early - so every transition method here tolerates
// being applied out of order rather than requiring its predecessor state.
type ChangingFrame struct {
	ID             string
	ParentID       string
	State          FrameState
	Frame          *page.Frame // populated once Navigated has been applied
	executionCtxID int64
	hasExecutionCtx bool
}

// NewChangingFrame starts a frame at Attached.
func NewChangingFrame(id, parentID string) *ChangingFrame {
	return &ChangingFrame{ID: id, ParentID: parentID, State: FrameAttached}
}

// ApplyStartedLoading advances the frame past Attached, tolerating a frame
// that was never explicitly seen as Attached.
func (f *ChangingFrame) ApplyStartedLoading() {
	if f.State < FrameStartedLoading {
		f.State = FrameStartedLoading
	}
}

// ApplyNavigated records the frame's navigated snapshot. Navigated can fire
// without a preceding StartedLoading (same-document navigations), so the
// state is simply forced forward rather than validated.
func (f *ChangingFrame) ApplyNavigated(fr *page.Frame) {
	f.Frame = fr
	if f.State < FrameNavigated {
		f.State = FrameNavigated
	}
}

// ApplyStoppedLoading marks the frame settled. Safe to call even if no
// Navigated was ever observed for this frame id.
func (f *ChangingFrame) ApplyStoppedLoading() {
	if f.State < FrameStoppedLoading {
		f.State = FrameStoppedLoading
	}
}

// ApplyDetached marks the frame gone. Idempotent.
func (f *ChangingFrame) ApplyDetached() {
	f.State = FrameDetached
}

// SetExecutionContext associates the frame's default execution context,
// populated once Runtime.executionContextCreated names this frame.
func (f *ChangingFrame) SetExecutionContext(id int64) {
	f.executionCtxID = id
	f.hasExecutionCtx = true
}

// ExecutionContext returns the frame's default execution context id, if one
// has been observed yet.
func (f *ChangingFrame) ExecutionContext() (int64, bool) {
	return f.executionCtxID, f.hasExecutionCtx
}

// ClearExecutionContext drops the association, e.g. on
// Runtime.executionContextDestroyed.
func (f *ChangingFrame) ClearExecutionContext() {
	f.executionCtxID = 0
	f.hasExecutionCtx = false
}
