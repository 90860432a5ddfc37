package session

import (
	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/target"
	"github.com/mailru/easyjson"
)

// SetDiscoverTargets builds the TaskDescribe for Target.setDiscoverTargets,
// the browser-scoped command named in spec §6 ("the engine exposes command
// methods on Tabs, and on the engine itself for global methods like
// set_discover_targets"). It carries no TargetID/SessionID, so Router.Send
// writes it directly rather than double-wrapping it.
func (e *Engine) SetDiscoverTargets(enable bool, taskID TaskID) *TaskDescribe {
	if taskID == "" {
		taskID = NewTaskID()
	}
	return &TaskDescribe{
		Op:     OpTargetSetDiscoverTargets,
		Fields: CommonFields{TaskID: taskID},
		Method: cdproto.MethodType("Target.setDiscoverTargets"),
		Params: target.SetDiscoverTargets(enable),
	}
}

// CreateTarget builds the TaskDescribe for Target.createTarget, the
// browser-scoped counterpart to create_new_tab (debug_session.rs): it opens
// a new tab at url and lets the ensuing Target.targetCreated event (not
// this call's Response) be what actually inserts the Tab into the
// Registry, the same way Chrome's own auto-created initial tab arrives.
func (e *Engine) CreateTarget(url string, taskID TaskID) *TaskDescribe {
	if taskID == "" {
		taskID = NewTaskID()
	}
	return &TaskDescribe{
		Op:     OpCreateTarget,
		Fields: CommonFields{TaskID: taskID},
		Method: cdproto.MethodType("Target.createTarget"),
		Params: target.CreateTarget(url),
		Decode: func(result easyjson.RawMessage) (interface{}, error) {
			var v target.CreateTargetReturns
			return decodeInto(result, &v)
		},
	}
}
