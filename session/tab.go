package session

import (
	"encoding/json"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
)

// Tab is the per-target state projection described in spec §4.4: frames,
// execution contexts, a node cache, in-flight network requests and
// interception records, all keyed off a single attached target/session
// pair. Unlike tab.rs's Tab, this Tab never holds a back-reference to the
// engine or the transport - its command-building methods return a
// TaskDescribe for the caller (the Engine) to send, breaking the
// Tab<->Session cycle per spec §9's message-passing redesign note.
type Tab struct {
	TargetID  target.ID
	SessionID target.SessionID
	BrowserContextID target.BrowserContextID

	attached bool
	url      string
	title    string

	mainFrameID string
	frames      map[string]*ChangingFrame

	nodes map[dom.NodeID]*dom.Node

	requests      map[network.RequestID]*NetworkRequest
	interceptions map[network.InterceptionID]*Interception

	eventStats map[string]int

	queue *TaskQueue
}

// NetworkRequest tracks one in-flight request observed via
// Network.requestWillBeSent / responseReceived (spec §4.4).
type NetworkRequest struct {
	RequestID network.RequestID
	URL       string
	Method    string
	Completed bool
	Response  *network.Response
}

// NewTab creates a Tab rooted at targetID, not yet attached to a session.
func NewTab(targetID target.ID, browserContextID target.BrowserContextID) *Tab {
	return &Tab{
		TargetID:         targetID,
		BrowserContextID: browserContextID,
		frames:           make(map[string]*ChangingFrame),
		nodes:            make(map[dom.NodeID]*dom.Node),
		requests:         make(map[network.RequestID]*NetworkRequest),
		interceptions:    make(map[network.InterceptionID]*Interception),
		eventStats:       make(map[string]int),
		queue:            NewTaskQueue(),
	}
}

// Attach records the session id Target.attachedToTarget assigned this tab.
func (t *Tab) Attach(sessionID target.SessionID) {
	t.SessionID = sessionID
	t.attached = true
}

// Attached reports whether Target.attachedToTarget has fired for this tab.
func (t *Tab) Attached() bool { return t.attached }

// URL returns the tab's last known URL (updated on frame navigation).
func (t *Tab) URL() string { return t.url }

// Title returns the tab's last known title, as reported by Target.targetInfoChanged.
func (t *Tab) Title() string { return t.title }

// SetTargetInfo updates cached url/title from a TargetInfo snapshot.
func (t *Tab) SetTargetInfo(info *target.Info) {
	if info == nil {
		return
	}
	t.url = info.URL
	t.title = info.Title
}

// Queue returns the tab's deferred task queue (spec §9 / SPEC_FULL §4).
func (t *Tab) Queue() *TaskQueue { return t.queue }

// BumpEventStat increments the per-event-name counter, the Go rendition of
// tab.rs's EventStatistics (SPEC_FULL §4).
func (t *Tab) BumpEventStat(name string) {
	t.eventStats[name]++
}

// EventStats returns a snapshot copy of the per-event-name counters.
func (t *Tab) EventStats() map[string]int {
	out := make(map[string]int, len(t.eventStats))
	for k, v := range t.eventStats {
		out[k] = v
	}
	return out
}

// --- frame bookkeeping -----------------------------------------------------

func (t *Tab) frame(id string) *ChangingFrame {
	f, ok := t.frames[id]
	if !ok {
		f = NewChangingFrame(id, "")
		t.frames[id] = f
	}
	return f
}

// ApplyFrameAttached records a new (sub-)frame. Tolerates being called
// again for the same id (e.g. duplicate Attached events); it just resets
// the parent id.
func (t *Tab) ApplyFrameAttached(frameID, parentFrameID string) {
	f := t.frame(frameID)
	f.ParentID = parentFrameID
}

func (t *Tab) ApplyFrameStartedLoading(frameID string) {
	t.frame(frameID).ApplyStartedLoading()
}

// ApplyFrameNavigated records the navigated frame snapshot. When the
// navigated frame has no parent, it becomes the tab's main frame, mirroring
// tab.rs's treatment of the top-level frame id.
func (t *Tab) ApplyFrameNavigated(fr *page.Frame) {
	f := t.frame(string(fr.ID))
	f.ApplyNavigated(fr)
	if fr.ParentID == "" {
		t.mainFrameID = string(fr.ID)
		t.url = fr.URL
	}
}

func (t *Tab) ApplyFrameStoppedLoading(frameID string) {
	t.frame(frameID).ApplyStoppedLoading()
}

func (t *Tab) ApplyFrameDetached(frameID string) {
	if f, ok := t.frames[frameID]; ok {
		f.ApplyDetached()
	}
}

// MainFrame returns the tab's top-level frame, if one has navigated yet.
func (t *Tab) MainFrame() (*ChangingFrame, bool) {
	if t.mainFrameID == "" {
		return nil, false
	}
	f, ok := t.frames[t.mainFrameID]
	return f, ok
}

// --- execution contexts ----------------------------------------------------

// ApplyExecutionContextCreated associates a newly created execution context
// with its owning frame, when the context description names one.
func (t *Tab) ApplyExecutionContextCreated(ctx *runtime.ExecutionContextDescription) {
	if ctx == nil || ctx.AuxData == nil {
		return
	}
	var aux struct {
		FrameID string `json:"frameId"`
	}
	// AuxData decoding failure just means we can't associate this context
	// with a frame; non-fatal, the context is simply not indexable by
	// frame name until/unless a later event supplies it.
	if err := json.Unmarshal(ctx.AuxData, &aux); err != nil || aux.FrameID == "" {
		return
	}
	t.frame(aux.FrameID).SetExecutionContext(int64(ctx.ID))
}

// ApplyExecutionContextDestroyed clears the association for every frame
// whose execution context id matches id (spec §4.4), the Go rendition of
// tab.rs's execution-context removal on Runtime.executionContextDestroyed.
// Idempotent: a frame with no matching context, or no context at all, is
// left untouched.
func (t *Tab) ApplyExecutionContextDestroyed(id runtime.ExecutionContextID) {
	for _, f := range t.frames {
		if ctxID, ok := f.ExecutionContext(); ok && ctxID == int64(id) {
			f.ClearExecutionContext()
		}
	}
}

// ExecutionContextByFrameName finds the default execution context for the
// frame whose navigated frame name (page.Frame.Name) equals name, the Go
// rendition of tab.rs's
// find_execution_context_id_by_frame_name (SPEC_FULL §4).
func (t *Tab) ExecutionContextByFrameName(name string) (runtime.ExecutionContextID, bool) {
	for _, f := range t.frames {
		if f.Frame != nil && f.Frame.Name == name {
			if id, ok := f.ExecutionContext(); ok {
				return runtime.ExecutionContextID(id), true
			}
		}
	}
	return 0, false
}

// --- node cache -------------------------------------------------------------

// CacheNode stores a DOM node and its children so later QuerySelector
// results can be resolved without a round trip. The Engine calls it for
// the document returned by GetDocument and for nodes delivered by
// DOM.setChildNodes; DescribeNode results are not cached.
func (t *Tab) CacheNode(n *dom.Node) {
	if n == nil {
		return
	}
	t.nodes[n.NodeID] = n
	for _, c := range n.Children {
		t.CacheNode(c)
	}
}

// Node looks up a previously cached DOM node by id.
func (t *Tab) Node(id dom.NodeID) (*dom.Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// --- network bookkeeping ----------------------------------------------------

func (t *Tab) ApplyRequestWillBeSent(ev *network.EventRequestWillBeSent) {
	if ev == nil || ev.Request == nil {
		return
	}
	t.requests[ev.RequestID] = &NetworkRequest{
		RequestID: ev.RequestID,
		URL:       ev.Request.URL,
		Method:    ev.Request.Method,
	}
}

func (t *Tab) ApplyResponseReceived(ev *network.EventResponseReceived) {
	if ev == nil {
		return
	}
	r, ok := t.requests[ev.RequestID]
	if !ok {
		r = &NetworkRequest{RequestID: ev.RequestID}
		t.requests[ev.RequestID] = r
	}
	r.Completed = true
	r.Response = ev.Response
}

// Request looks up a tracked network request by id.
func (t *Tab) Request(id network.RequestID) (*NetworkRequest, bool) {
	r, ok := t.requests[id]
	return r, ok
}
