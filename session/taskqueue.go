package session

import "time"

// scheduled is one deferred TaskDescribe parked until its Due time.
type scheduled struct {
	due  time.Time
	task *TaskDescribe
}

// TaskQueue is a tab's deferred task queue (tab.rs's run_task_queue,
// interval_one_page.rs, SPEC_FULL §4): callers can schedule a TaskDescribe
// to be sent on a future Interval tick instead of immediately, e.g. to
// stagger polling work across tabs. Drained once per Interval by the
// Engine, never touched by the wire-reader path, so it needs no locking of
// its own beyond what the engine's single poll loop already provides.
type TaskQueue struct {
	items []scheduled
}

// NewTaskQueue returns an empty queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// Schedule parks t until at least due.
func (q *TaskQueue) Schedule(t *TaskDescribe, due time.Time) {
	q.items = append(q.items, scheduled{due: due, task: t})
}

// ScheduleAfter parks t until d has elapsed from now.
func (q *TaskQueue) ScheduleAfter(t *TaskDescribe, now time.Time, d time.Duration) {
	q.Schedule(t, now.Add(d))
}

// Poll removes and returns every task whose due time is at or before now,
// preserving submission order, the Go rendition of run_task_queue's
// per-tick drain.
func (q *TaskQueue) Poll(now time.Time) []*TaskDescribe {
	if len(q.items) == 0 {
		return nil
	}
	var ready []*TaskDescribe
	remaining := q.items[:0]
	for _, s := range q.items {
		if !s.due.After(now) {
			ready = append(ready, s.task)
		} else {
			remaining = append(remaining, s)
		}
	}
	q.items = remaining
	return ready
}

// Len reports how many tasks are still parked.
func (q *TaskQueue) Len() int { return len(q.items) }
