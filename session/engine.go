package session

import (
	"context"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
)

// Engine is the session engine (spec §4.5): it owns the Transport, Router,
// Pending-Call Registry and Tab Registry, and drives the pull-based event
// stream a consumer pumps by calling Poll in a loop.
//
// debug_session.rs's poll returns Poll<Option<Result<PageResponseWrapper,
// Error>>> and its caller distinguishes Ready/NotReady/End/Err. Go has no
// idiomatic equivalent of a non-blocking poll returning "try again" -
// channels and select already express that - so Poll here is a blocking
// call collapsing Ready/NotReady into "returns when there is something to
// report" and End/Err into its error return; see DESIGN.md for the full
// rationale.
type Engine struct {
	transport Transport
	router    *Router
	pending   *PendingRegistry
	registry  *Registry

	ticker   *time.Ticker
	interval time.Duration

	priority  bool // alternates which source is tried first each tick, for fairness
	connected bool
	ended     bool

	secondsFromStart int

	logf func(string, ...interface{})
	errf func(string, ...interface{})
}

// NewEngine builds an Engine around an already-dialed Transport.
func NewEngine(transport Transport, opts ...EngineOption) *Engine {
	e := &Engine{
		transport: transport,
		router:    NewRouter(transport),
		pending:   NewPendingRegistry(),
		registry:  NewRegistry(),
		interval:  1 * time.Second,
		logf:      func(string, ...interface{}) {},
		errf:      func(string, ...interface{}) {},
	}
	for _, o := range opts {
		o(e)
	}
	e.ticker = time.NewTicker(e.interval)
	return e
}

// Registry exposes the Tab Registry for read access by consumers (e.g. to
// resolve MainTab() before issuing a command).
func (e *Engine) Registry() *Registry { return e.registry }

// Send submits t: assigns its CallID, registers it in the Pending-Call
// Registry when it expects a Response, and writes it to the wire.
func (e *Engine) Send(t *TaskDescribe) error {
	id, err := e.router.Send(t)
	if err != nil {
		return err
	}
	t.Fields.CallID = id
	if t.Op.IsMethodCall() {
		e.pending.Register(t)
	}
	return nil
}

// Close shuts down the ticker and underlying transport.
func (e *Engine) Close() error {
	e.ticker.Stop()
	return e.transport.Close()
}

// Poll blocks until there is one PageResponse to report, the underlying
// stream has ended, or ctx is done. Once it has returned a terminal error
// (connection closed or a protocol parse failure), every subsequent call
// returns ErrStreamEnded immediately; returning ctx.Err() does not end the
// stream, and a later Poll continues where this one stopped.
func (e *Engine) Poll(ctx context.Context) (PageResponseWrapper, error) {
	if e.ended {
		return PageResponseWrapper{}, ErrStreamEnded
	}
	if !e.connected {
		e.connected = true
		// Spec §6: DebugSession::new() immediately issues
		// Target.setDiscoverTargets(true) after emitting ChromeConnected,
		// so Chrome starts reporting existing/future targets without the
		// consumer having to know to ask.
		if err := e.Send(e.SetDiscoverTargets(true, "")); err != nil {
			e.errf("issuing initial setDiscoverTargets failed: %s", err)
		}
		return PageResponseWrapper{Response: PageResponse{Op: OpChromeConnected}}, nil
	}

	for {
		e.priority = !e.priority

		if e.priority {
			if w, err, ok := e.tryWire(); ok {
				return w, err
			}
			if w, err, ok := e.tryTick(); ok {
				return w, err
			}
		} else {
			if w, err, ok := e.tryTick(); ok {
				return w, err
			}
			if w, err, ok := e.tryWire(); ok {
				return w, err
			}
		}

		select {
		case msg, chOk := <-e.transport.Inbound():
			w, err, ok := e.handleWire(msg, chOk)
			if ok {
				return w, err
			}
		case tm := <-e.ticker.C:
			w, err, ok := e.handleTick(tm)
			if ok {
				return w, err
			}
		case <-ctx.Done():
			return PageResponseWrapper{}, ctx.Err()
		}
	}
}

func (e *Engine) tryWire() (PageResponseWrapper, error, bool) {
	select {
	case msg, chOk := <-e.transport.Inbound():
		return e.handleWire(msg, chOk)
	default:
		return PageResponseWrapper{}, nil, false
	}
}

func (e *Engine) tryTick() (PageResponseWrapper, error, bool) {
	select {
	case tm := <-e.ticker.C:
		return e.handleTick(tm)
	default:
		return PageResponseWrapper{}, nil, false
	}
}

// handleTick drains every tab's deferred TaskQueue and sends whatever is
// ready, then reports the tick itself to the consumer as SecondsElapsed(n)
// (spec §4.5's once-per-second Interval signal, §5's "consumer implements
// deadlines by observing SecondsElapsed").
func (e *Engine) handleTick(now time.Time) (PageResponseWrapper, error, bool) {
	for _, tab := range e.registry.All() {
		for _, t := range tab.Queue().Poll(now) {
			if err := e.Send(t); err != nil {
				e.errf("interval dispatch of task %s failed: %s", t.Fields.TaskID, err)
			}
		}
	}
	e.secondsFromStart++
	return PageResponseWrapper{Response: PageResponse{Op: OpInterval, Result: e.secondsFromStart}}, nil, true
}

// handleWire classifies and dispatches one inbound frame. ok is false when
// nothing worth reporting came of it (e.g. an unmatched Response) and the
// poll loop should simply try again.
func (e *Engine) handleWire(msg *cdproto.Message, chOk bool) (PageResponseWrapper, error, bool) {
	if !chOk {
		e.ended = true
		err := e.transport.Err()
		if err == nil {
			err = ErrConnectionClosed
		}
		for _, t := range e.pending.DrainOnShutdown() {
			e.errf("dropping pending task %s: %s", t.Fields.TaskID, err)
		}
		return PageResponseWrapper{}, err, true
	}

	in, err := Classify(msg)
	if err != nil {
		e.ended = true
		return PageResponseWrapper{}, err, true
	}

	switch in.Kind {
	case KindResponse:
		return e.handleResponse(in.Message, "")
	case KindEvent:
		return e.handleEvent(in.Message, "")
	case KindTargetMessage:
		inner, ierr := Classify(in.Inner)
		if ierr != nil {
			e.ended = true
			return PageResponseWrapper{}, ierr, true
		}
		if inner.Kind == KindResponse {
			return e.handleResponse(inner.Message, in.SessionID)
		}
		return e.handleEvent(inner.Message, in.SessionID)
	}
	return PageResponseWrapper{}, nil, false
}

func (e *Engine) handleResponse(msg *cdproto.Message, sessionID target.SessionID) (PageResponseWrapper, error, bool) {
	t, found := e.pending.Take(msg.ID)
	if !found {
		// The outer ack for a Target.sendMessageToTarget call we sent,
		// or a stray Response we never registered: self-heal per spec
		// §7 category 5, nothing to report.
		return PageResponseWrapper{}, nil, false
	}

	resp := PageResponse{
		TargetID:  t.Fields.TargetID,
		SessionID: t.Fields.SessionID,
		TaskID:    t.Fields.TaskID,
		Op:        t.Op,
	}
	if sessionID != "" {
		resp.SessionID = sessionID
	}

	if msg.Error != nil {
		resp.Err = &MethodError{TaskID: t.Fields.TaskID, Code: msg.Error.Code, Message: msg.Error.Message}
		return PageResponseWrapper{Response: resp}, nil, true
	}

	if t.Decode != nil {
		v, derr := t.Decode(msg.Result)
		if derr != nil {
			resp.Err = derr
		} else {
			resp.Result = v
			e.observeResult(t, v)
		}
	}
	return PageResponseWrapper{Response: resp}, nil, true
}

// observeResult lets certain method-call results feed back into tab state,
// e.g. caching the document tree returned by DOM.getDocument.
func (e *Engine) observeResult(t *TaskDescribe, v interface{}) {
	tab, ok := e.registry.Get(t.Fields.TargetID)
	if !ok {
		return
	}
	switch r := v.(type) {
	case *dom.GetDocumentReturns:
		tab.CacheNode(r.Root)
	}
}

func (e *Engine) handleEvent(msg *cdproto.Message, sessionID target.SessionID) (PageResponseWrapper, error, bool) {
	ev, err := cdproto.UnmarshalMessage(msg)
	if err != nil {
		e.errf("discarding undecodable event %s: %s", msg.Method, err)
		return PageResponseWrapper{}, nil, false
	}

	var tab *Tab
	if sessionID != "" {
		var found bool
		tab, found = e.registry.BySession(sessionID)
		if !found {
			// Spec §7 category 4: a per-target event whose session names
			// no known Tab is a non-fatal, per-task failure, not a silent
			// no-op - surface it as Fail rather than dropping the event.
			return PageResponseWrapper{Response: PageResponse{
				SessionID: sessionID,
				Op:        OpFail,
				Err:       ErrTabNotFound,
			}}, nil, true
		}
	}

	resp := PageResponse{SessionID: sessionID, Result: ev}
	if tab != nil {
		resp.TargetID = tab.TargetID
		tab.BumpEventStat(string(msg.Method))
	}

	switch v := ev.(type) {
	case *target.EventTargetCreated:
		nt := NewTab(v.TargetInfo.TargetID, v.TargetInfo.BrowserContextID)
		nt.SetTargetInfo(v.TargetInfo)
		e.registry.Insert(nt)
		resp.Op = OpPageCreated
		resp.TargetID = nt.TargetID

	case *target.EventAttachedToTarget:
		if t, ok := e.registry.Get(v.TargetInfo.TargetID); ok {
			t.Attach(v.SessionID)
			t.SetTargetInfo(v.TargetInfo)
			resp.TargetID = t.TargetID
		}
		resp.Op = OpPageAttached
		resp.SessionID = v.SessionID

	case *target.EventTargetInfoChanged:
		if t, ok := e.registry.Get(v.TargetInfo.TargetID); ok {
			t.SetTargetInfo(v.TargetInfo)
		}
		resp.Op = OpTargetInfoChanged

	case *target.EventTargetDestroyed:
		e.registry.Remove(v.TargetID)
		resp.Op = OpTargetInfoChanged
		resp.TargetID = v.TargetID

	case *page.EventFrameAttached:
		resp.Op = OpFrameAttached
		if tab != nil {
			tab.ApplyFrameAttached(string(v.FrameID), string(v.ParentFrameID))
		}

	case *page.EventFrameStartedLoading:
		resp.Op = OpFrameStartedLoading
		if tab != nil {
			tab.ApplyFrameStartedLoading(string(v.FrameID))
		}

	case *page.EventFrameNavigated:
		resp.Op = OpFrameNavigated
		if tab != nil {
			tab.ApplyFrameNavigated(v.Frame)
		}

	case *page.EventFrameStoppedLoading:
		resp.Op = OpFrameStoppedLoading
		if tab != nil {
			tab.ApplyFrameStoppedLoading(string(v.FrameID))
		}

	case *page.EventFrameDetached:
		resp.Op = OpFrameDetached
		if tab != nil {
			tab.ApplyFrameDetached(string(v.FrameID))
		}

	case *page.EventLoadEventFired:
		resp.Op = OpLoadEventFired

	case *dom.EventSetChildNodes:
		resp.Op = OpSetChildNodes
		if tab != nil {
			for _, n := range v.Nodes {
				tab.CacheNode(n)
			}
		}

	case *runtime.EventExecutionContextCreated:
		resp.Op = OpRuntimeExecutionContextCreated
		if tab != nil {
			tab.ApplyExecutionContextCreated(v.Context)
		}

	case *runtime.EventExecutionContextDestroyed:
		resp.Op = OpRuntimeExecutionContextDestroyed
		if tab != nil {
			tab.ApplyExecutionContextDestroyed(v.ExecutionContextID)
		}

	case *runtime.EventConsoleAPICalled:
		resp.Op = OpRuntimeConsoleAPICalled

	case *network.EventRequestWillBeSent:
		resp.Op = OpRequestWillBeSent
		if tab != nil {
			tab.ApplyRequestWillBeSent(v)
		}

	case *network.EventRequestIntercepted:
		resp.Op = OpRequestIntercepted
		if tab != nil {
			tab.ApplyIntercepted(v.InterceptionID, v.RequestID, v.Request.URL)
		}

	case *network.EventResponseReceived:
		resp.Op = OpResponseReceived
		if tab != nil {
			tab.ApplyResponseReceived(v)
		}

	case *network.EventLoadingFinished:
		resp.Op = OpLoadingFinished
		if tab != nil {
			tab.SettleByRequestID(v.RequestID, true)
		}

	case *network.EventLoadingFailed:
		resp.Op = OpLoadingFailed
		if tab != nil {
			tab.SettleByRequestID(v.RequestID, false)
		}

	default:
		// An event this engine has no Op for yet; still report it with
		// the zero Op so a consumer inspecting Result by type switch
		// can act on it, rather than silently dropping it.
	}

	return PageResponseWrapper{Response: resp}, nil, true
}
