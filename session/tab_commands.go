package session

import (
	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/mailru/easyjson"

	"github.com/cdpflow/session/kb"
)

// command builds the CommonFields shared by every outbound TaskDescribe
// this tab produces, minting a TaskID when the caller doesn't supply one -
// the Go rendition of tab.rs's create_unique_prefixed_id (SPEC_FULL §4).
func (t *Tab) command(taskID TaskID) CommonFields {
	if taskID == "" {
		taskID = NewTaskID()
	}
	return CommonFields{
		TargetID:  t.TargetID,
		SessionID: t.SessionID,
		TaskID:    taskID,
	}
}

// decodeInto unmarshals result into dst, which must be a pointer to a
// cdproto *Returns type (all of which implement easyjson.Unmarshaler via
// generated code). Returns dst itself so each Decoder closure can end with
// a single call.
func decodeInto(result easyjson.RawMessage, dst easyjson.Unmarshaler) (interface{}, error) {
	if err := easyjson.Unmarshal(result, dst); err != nil {
		return nil, ErrProtocolParse
	}
	return dst, nil
}

// NavigateTo builds the TaskDescribe for Page.navigate.
func (t *Tab) NavigateTo(url string, taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpNavigateTo,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Page.navigate"),
		Params: page.Navigate(url),
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v page.NavigateReturns
			return decodeInto(result, &v)
		},
	}
}

// Reload builds the TaskDescribe for Page.reload.
func (t *Tab) Reload(taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpPageReload,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Page.reload"),
		Params: page.Reload(),
	}
}

// PageEnable builds the TaskDescribe for Page.enable, required before frame
// lifecycle events are dispatched for this target.
func (t *Tab) PageEnable(taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpPageEnable,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Page.enable"),
		Params: page.Enable(),
	}
}

// Close builds the TaskDescribe for Page.close.
func (t *Tab) Close(taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpPageClose,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Page.close"),
		Params: page.Close(),
	}
}

// BringToFront builds the TaskDescribe for Page.bringToFront.
func (t *Tab) BringToFront(taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpBringToFront,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Page.bringToFront"),
		Params: page.BringToFront(),
	}
}

// GetDocument builds the TaskDescribe for DOM.getDocument; its Response is
// cached into the tab's node cache by the Engine's dispatch path.
func (t *Tab) GetDocument(taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpGetDocument,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("DOM.getDocument"),
		Params: dom.GetDocument(),
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v dom.GetDocumentReturns
			return decodeInto(result, &v)
		},
	}
}

// QuerySelector builds the TaskDescribe for DOM.querySelector against nodeID
// (typically the document's root node, from a prior GetDocument).
func (t *Tab) QuerySelector(nodeID dom.NodeID, selector string, taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpQuerySelector,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("DOM.querySelector"),
		Params: dom.QuerySelector(nodeID, selector),
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v dom.QuerySelectorReturns
			return decodeInto(result, &v)
		},
	}
}

// DescribeNode builds the TaskDescribe for DOM.describeNode.
func (t *Tab) DescribeNode(nodeID dom.NodeID, taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpDescribeNode,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("DOM.describeNode"),
		Params: dom.DescribeNode().WithNodeID(nodeID),
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v dom.DescribeNodeReturns
			return decodeInto(result, &v)
		},
	}
}

// GetBoxModel builds the TaskDescribe for DOM.getBoxModel.
func (t *Tab) GetBoxModel(nodeID dom.NodeID, taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpGetBoxModel,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("DOM.getBoxModel"),
		Params: dom.GetBoxModel().WithNodeID(nodeID),
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v dom.GetBoxModelReturns
			return decodeInto(result, &v)
		},
	}
}

// GetLayoutMetrics builds the TaskDescribe for Page.getLayoutMetrics.
func (t *Tab) GetLayoutMetrics(taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpGetLayoutMetrics,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Page.getLayoutMetrics"),
		Params: page.GetLayoutMetrics(),
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v page.GetLayoutMetricsReturns
			return decodeInto(result, &v)
		},
	}
}

// CaptureScreenshot builds the TaskDescribe for Page.captureScreenshot.
func (t *Tab) CaptureScreenshot(format page.CaptureScreenshotFormat, quality int64, taskID TaskID) *TaskDescribe {
	p := page.CaptureScreenshot().WithFormat(format)
	if quality > 0 {
		p = p.WithQuality(quality)
	}
	return &TaskDescribe{
		Op:     OpCaptureScreenshot,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Page.captureScreenshot"),
		Params: p,
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v page.CaptureScreenshotReturns
			return decodeInto(result, &v)
		},
	}
}

// PrintToPDF builds the TaskDescribe for Page.printToPDF.
func (t *Tab) PrintToPDF(taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpPrintToPDF,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Page.printToPDF"),
		Params: page.PrintToPDF(),
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v page.PrintToPDFReturns
			return decodeInto(result, &v)
		},
	}
}

// RuntimeEnable builds the TaskDescribe for Runtime.enable.
func (t *Tab) RuntimeEnable(taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpRuntimeEnable,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Runtime.enable"),
		Params: runtime.Enable(),
	}
}

// Evaluate builds the TaskDescribe for Runtime.evaluate, optionally scoped
// to a specific execution context (e.g. via ExecutionContextByFrameName).
func (t *Tab) Evaluate(expr string, contextID runtime.ExecutionContextID, taskID TaskID) *TaskDescribe {
	p := runtime.Evaluate(expr).WithReturnByValue(true)
	if contextID != 0 {
		p = p.WithContextID(contextID)
	}
	return &TaskDescribe{
		Op:     OpRuntimeEvaluate,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Runtime.evaluate"),
		Params: p,
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v runtime.EvaluateReturns
			return decodeInto(result, &v)
		},
	}
}

// GetProperties builds the TaskDescribe for Runtime.getProperties.
func (t *Tab) GetProperties(objectID runtime.RemoteObjectID, taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpRuntimeGetProperties,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Runtime.getProperties"),
		Params: runtime.GetProperties(objectID),
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v runtime.GetPropertiesReturns
			return decodeInto(result, &v)
		},
	}
}

// CallFunctionOn builds the TaskDescribe for Runtime.callFunctionOn.
func (t *Tab) CallFunctionOn(declaration string, objectID runtime.RemoteObjectID, taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpRuntimeCallFunctionOn,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Runtime.callFunctionOn"),
		Params: runtime.CallFunctionOn(declaration).WithObjectID(objectID).WithReturnByValue(true),
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v runtime.CallFunctionOnReturns
			return decodeInto(result, &v)
		},
	}
}

// NetworkEnable builds the TaskDescribe for Network.enable.
func (t *Tab) NetworkEnable(taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpNetworkEnable,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Network.enable"),
		Params: network.Enable(),
	}
}

// SetRequestInterception builds the TaskDescribe for
// Network.setRequestInterception.
func (t *Tab) SetRequestInterception(patterns []*network.RequestPattern, taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpSetRequestInterception,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Network.setRequestInterception"),
		Params: network.SetRequestInterception(patterns),
	}
}

// ContinueInterceptedRequest builds the TaskDescribe for
// Network.continueInterceptedRequest, the only legal resolution for an
// interception currently in the Intercepted state (see interception.go). It
// transitions the interception's state to Continued itself rather than
// leaving that to the caller, so a spec-conforming consumer that only ever
// calls this command still keeps the state machine's
// |intercepted| = N - M invariant intact; it returns ErrNotIntercepted
// without building a TaskDescribe if id is not currently Intercepted.
func (t *Tab) ContinueInterceptedRequest(id network.InterceptionID, taskID TaskID) (*TaskDescribe, error) {
	if err := t.Continue(id); err != nil {
		return nil, err
	}
	return &TaskDescribe{
		Op:     OpContinueInterceptedRequest,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Network.continueInterceptedRequest"),
		Params: network.ContinueInterceptedRequest(id),
	}, nil
}

// AbortInterceptedRequest builds the TaskDescribe that fails interception id
// with the given reason instead of letting it proceed, transitioning its
// state to Aborted the same way ContinueInterceptedRequest transitions to
// Continued. Returns ErrNotIntercepted if id is not currently Intercepted.
func (t *Tab) AbortInterceptedRequest(id network.InterceptionID, reason network.ErrorReason, taskID TaskID) (*TaskDescribe, error) {
	if err := t.Abort(id); err != nil {
		return nil, err
	}
	return &TaskDescribe{
		Op:     OpContinueInterceptedRequest,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Network.continueInterceptedRequest"),
		Params: network.ContinueInterceptedRequest(id).WithErrorReason(reason),
	}, nil
}

// GetResponseBodyForInterception builds the TaskDescribe for
// Network.getResponseBodyForInterception.
func (t *Tab) GetResponseBodyForInterception(id network.InterceptionID, taskID TaskID) *TaskDescribe {
	return &TaskDescribe{
		Op:     OpGetResponseBodyForInterception,
		Fields: t.command(taskID),
		Method: cdproto.MethodType("Network.getResponseBodyForInterception"),
		Params: network.GetResponseBodyForInterception(id),
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v network.GetResponseBodyForInterceptionReturns
			return decodeInto(result, &v)
		},
	}
}

// keyEventParams builds the three Input.dispatchKeyEvent params (keyDown,
// optional char, keyUp) for one synthesized rune, mirroring chromedp's own
// KeyAction/kb.Encode pairing.
func keyEventParams(k kb.Key) []*input.DispatchKeyEventParams {
	down := input.DispatchKeyEvent(input.KeyDown).
		WithKey(k.Key).
		WithCode(k.Code).
		WithNativeVirtualKeyCode(k.Native).
		WithWindowsVirtualKeyCode(k.Windows)
	if k.Shift {
		down = down.WithModifiers(input.ModifierShift)
	}

	events := []*input.DispatchKeyEventParams{down}
	if k.Print {
		char := input.DispatchKeyEvent(input.KeyChar).
			WithKey(k.Key).
			WithText(k.Text).
			WithUnmodifiedText(k.Unmodified)
		if k.Shift {
			char = char.WithModifiers(input.ModifierShift)
		}
		events = append(events, char)
	}

	up := input.DispatchKeyEvent(input.KeyUp).
		WithKey(k.Key).
		WithCode(k.Code).
		WithNativeVirtualKeyCode(k.Native).
		WithWindowsVirtualKeyCode(k.Windows)
	if k.Shift {
		up = up.WithModifiers(input.ModifierShift)
	}
	events = append(events, up)

	return events
}

// TypeText builds the TaskDescribe sequence that synthesizes keystrokes for
// text, one DispatchKeyEvent task per keyDown/char/keyUp event in order.
// Every task shares the supplied taskID (or a freshly minted one) so a
// consumer can count the sequence's responses against len(result).
func (t *Tab) TypeText(text string, taskID TaskID) []*TaskDescribe {
	if taskID == "" {
		taskID = NewTaskID()
	}
	var out []*TaskDescribe
	for _, r := range text {
		for _, p := range keyEventParams(kb.Encode(r)) {
			out = append(out, &TaskDescribe{
				Op:     OpDispatchKeyEvent,
				Fields: t.command(taskID),
				Method: cdproto.MethodType("Input.dispatchKeyEvent"),
				Params: p,
			})
		}
	}
	return out
}

// ClickAt builds the TaskDescribe pair (mousePressed, mouseReleased) for a
// single left-button click at (x, y).
func (t *Tab) ClickAt(x, y float64, taskID TaskID) []*TaskDescribe {
	if taskID == "" {
		taskID = NewTaskID()
	}
	fields := t.command(taskID)
	press := input.DispatchMouseEvent(input.MousePressed, x, y).
		WithButton(input.Left).WithClickCount(1)
	release := input.DispatchMouseEvent(input.MouseReleased, x, y).
		WithButton(input.Left).WithClickCount(1)
	return []*TaskDescribe{
		{Op: OpDispatchMouseEvent, Fields: fields, Method: cdproto.MethodType("Input.dispatchMouseEvent"), Params: press},
		{Op: OpDispatchMouseEvent, Fields: fields, Method: cdproto.MethodType("Input.dispatchMouseEvent"), Params: release},
	}
}
