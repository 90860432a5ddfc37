package session

import (
	"testing"
	"time"
)

func TestTaskQueuePollDrainsDueTasks(t *testing.T) {
	q := NewTaskQueue()
	now := time.Unix(1000, 0)

	due := &TaskDescribe{Fields: CommonFields{TaskID: "due"}}
	notYetDue := &TaskDescribe{Fields: CommonFields{TaskID: "future"}}

	q.Schedule(due, now)
	q.Schedule(notYetDue, now.Add(10*time.Second))

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}

	ready := q.Poll(now)
	if len(ready) != 1 || ready[0].Fields.TaskID != "due" {
		t.Fatalf("Poll(now) = %+v, want exactly [due]", ready)
	}
	if q.Len() != 1 {
		t.Fatalf("Len() after Poll = %d, want 1", q.Len())
	}

	ready = q.Poll(now.Add(10 * time.Second))
	if len(ready) != 1 || ready[0].Fields.TaskID != "future" {
		t.Fatalf("second Poll = %+v, want exactly [future]", ready)
	}
	if q.Len() != 0 {
		t.Fatalf("Len() after draining everything = %d, want 0", q.Len())
	}
}

func TestTaskQueuePollEmpty(t *testing.T) {
	q := NewTaskQueue()
	if ready := q.Poll(time.Now()); ready != nil {
		t.Fatalf("Poll on empty queue = %v, want nil", ready)
	}
}

func TestTaskQueueScheduleAfter(t *testing.T) {
	q := NewTaskQueue()
	now := time.Unix(2000, 0)
	task := &TaskDescribe{Fields: CommonFields{TaskID: "later"}}
	q.ScheduleAfter(task, now, 5*time.Second)

	if ready := q.Poll(now.Add(4 * time.Second)); len(ready) != 0 {
		t.Fatalf("task fired early: %v", ready)
	}
	if ready := q.Poll(now.Add(5 * time.Second)); len(ready) != 1 {
		t.Fatalf("task did not fire on schedule: %v", ready)
	}
}
