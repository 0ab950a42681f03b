package autosave

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marcus/memopad/internal/store"
)

// recordingWriter captures every UpdateMemo call.
type recordingWriter struct {
	mu     sync.Mutex
	writes []store.MemoFields
	err    error
}

func (w *recordingWriter) UpdateMemo(id int64, f store.MemoFields) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.writes = append(w.writes, f)
	return nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}

func (w *recordingWriter) last() store.MemoFields {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes[len(w.writes)-1]
}

func newTestCoordinator(w Writer, delay time.Duration) *Coordinator {
	return New(w, 1, Snapshot{Mode: store.ModeText}, delay, nil, nil)
}

func TestDebounce_BurstCoalescesToOneWrite(t *testing.T) {
	w := &recordingWriter{}
	c := newTestCoordinator(w, 30*time.Millisecond)

	c.SetContent("h")
	c.SetContent("he")
	c.SetContent("hel")
	c.SetContent("hello")

	if w.count() != 0 {
		t.Fatalf("write before debounce fired: %d writes", w.count())
	}

	time.Sleep(100 * time.Millisecond)

	if got := w.count(); got != 1 {
		t.Fatalf("got %d writes, want exactly 1", got)
	}
	last := w.last()
	if last.Content == nil || *last.Content != "hello" {
		t.Errorf("write should carry only the final value, got %+v", last.Content)
	}
	if last.Title != nil {
		t.Error("untouched fields must not be written")
	}
}

func TestFlush_CancelsTimerAndWritesImmediately(t *testing.T) {
	w := &recordingWriter{}
	c := newTestCoordinator(w, 50*time.Millisecond)

	c.SetTitle("note")
	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := w.count(); got != 1 {
		t.Fatalf("got %d writes, want 1", got)
	}
	if c.Pending() {
		t.Error("flush should cancel the pending timer")
	}

	// The canceled timer must not produce a second write.
	time.Sleep(100 * time.Millisecond)
	if got := w.count(); got != 1 {
		t.Errorf("stale timer fired: %d writes", got)
	}
}

func TestFlush_NoPendingEditsWritesFullSnapshot(t *testing.T) {
	w := &recordingWriter{}
	c := New(w, 1, Snapshot{Title: "t", Content: "c", Mode: store.ModeText}, time.Minute, nil, nil)

	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}

	if got := w.count(); got != 2 {
		t.Fatalf("got %d writes, want 2 (idempotent identical writes)", got)
	}
	for _, f := range w.writes {
		if f.Title == nil || *f.Title != "t" || f.Content == nil || *f.Content != "c" {
			t.Errorf("bare flush should write the full snapshot, got %+v", f)
		}
	}
}

func TestFlush_FailureRetainsDirtyState(t *testing.T) {
	w := &recordingWriter{err: errors.New("disk full")}
	c := newTestCoordinator(w, time.Minute)

	c.SetContent("precious")
	if err := c.Flush(); err == nil {
		t.Fatal("expected flush error")
	}

	// After the store recovers, the retained edit goes through.
	w.mu.Lock()
	w.err = nil
	w.mu.Unlock()

	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	last := w.last()
	if last.Content == nil || *last.Content != "precious" {
		t.Error("failed flush must not drop the edit")
	}
}

func TestDebouncePath_ErrorReachesHandler(t *testing.T) {
	w := &recordingWriter{err: errors.New("locked")}
	errCh := make(chan error, 1)
	c := New(w, 1, Snapshot{}, 20*time.Millisecond, nil, func(err error) { errCh <- err })

	c.SetContent("x")

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("handler received nil error")
		}
	case <-time.After(time.Second):
		t.Fatal("debounced write failure never surfaced")
	}
}

func TestRetarget_DiscardsPendingAndRebinds(t *testing.T) {
	w := &recordingWriter{}
	c := newTestCoordinator(w, 30*time.Millisecond)

	c.SetContent("old memo edit")
	c.Retarget(2, Snapshot{Content: "fresh"})

	time.Sleep(80 * time.Millisecond)
	if got := w.count(); got != 0 {
		t.Errorf("retarget must discard the previous memo's timer, got %d writes", got)
	}
	if c.MemoID() != 2 {
		t.Errorf("got memo %d, want 2", c.MemoID())
	}
	if c.Snapshot().Content != "fresh" {
		t.Error("snapshot should be replaced on retarget")
	}
}

func TestCancelPending_StopsScheduledWrite(t *testing.T) {
	w := &recordingWriter{}
	c := newTestCoordinator(w, 20*time.Millisecond)

	c.SetContent("x")
	c.CancelPending()

	time.Sleep(60 * time.Millisecond)
	if got := w.count(); got != 0 {
		t.Errorf("canceled timer still wrote: %d writes", got)
	}
}

func TestSnapshot_AlwaysLatestValue(t *testing.T) {
	w := &recordingWriter{}
	c := newTestCoordinator(w, time.Minute)

	c.SetTitle("a")
	c.SetTitle("ab")
	c.SetCanvas(`{"objects":[]}`)

	snap := c.Snapshot()
	if snap.Title != "ab" {
		t.Errorf("got title %q, want ab", snap.Title)
	}
	if snap.CanvasData != `{"objects":[]}` {
		t.Errorf("got canvas %q", snap.CanvasData)
	}
}
