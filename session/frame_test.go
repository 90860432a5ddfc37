package session

import (
	"testing"

	"github.com/chromedp/cdproto/page"
)

func TestChangingFrameTolerantOrdering(t *testing.T) {
	// StoppedLoading arriving with no preceding Attached/Navigated must
	// not panic and must still advance the frame's state - frames can be
	// created very early in a target's life, before this tab's Tab has
	// recorded an Attached event for them.
	f := NewChangingFrame("frame-1", "")
	f.ApplyStoppedLoading()
	if f.State != FrameStoppedLoading {
		t.Fatalf("State = %v, want FrameStoppedLoading", f.State)
	}
}

func TestChangingFrameNavigatedSetsMainFrame(t *testing.T) {
	tab := NewTab("target-1", "")
	fr := &page.Frame{ID: "frame-1", URL: "https://example.com/"}
	tab.ApplyFrameNavigated(fr)

	main, ok := tab.MainFrame()
	if !ok {
		t.Fatal("MainFrame() not found after navigating a parentless frame")
	}
	if main.ID != "frame-1" {
		t.Fatalf("MainFrame().ID = %q, want frame-1", main.ID)
	}
	if tab.URL() != "https://example.com/" {
		t.Fatalf("URL() = %q, want https://example.com/", tab.URL())
	}
}

func TestChangingFrameStateNeverRegresses(t *testing.T) {
	f := NewChangingFrame("frame-1", "")
	f.ApplyNavigated(&page.Frame{ID: "frame-1"})
	f.ApplyStartedLoading() // a stale/duplicate event arriving out of order
	if f.State != FrameNavigated {
		t.Fatalf("State regressed to %v after a stale StartedLoading", f.State)
	}
}

func TestExecutionContextAssociation(t *testing.T) {
	f := NewChangingFrame("frame-1", "")
	if _, ok := f.ExecutionContext(); ok {
		t.Fatal("ExecutionContext() found one before any was set")
	}
	f.SetExecutionContext(7)
	id, ok := f.ExecutionContext()
	if !ok || id != 7 {
		t.Fatalf("ExecutionContext() = (%d, %v), want (7, true)", id, ok)
	}
	f.ClearExecutionContext()
	if _, ok := f.ExecutionContext(); ok {
		t.Fatal("ExecutionContext() still found one after Clear")
	}
}
