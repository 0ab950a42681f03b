// Package autosave decouples rapid user input from store writes: every
// edit lands in an owned in-memory snapshot immediately, and a debounce
// timer writes the dirty fields through once input pauses. Flush forces
// the write out of band, for window teardown and mode switches.
package autosave

import (
	"log/slog"
	"sync"
	"time"

	"github.com/marcus/memopad/internal/store"
)

// DefaultDelay is the debounce interval between the last edit and the
// write it schedules.
const DefaultDelay = 500 * time.Millisecond

// Field identifies one writable memo field. Values combine as a bitmask.
type Field uint8

const (
	FieldTitle Field = 1 << iota
	FieldContent
	FieldCanvas
	FieldMode
)

// Writer is the slice of the record store the coordinator needs.
type Writer interface {
	UpdateMemo(id int64, f store.MemoFields) error
}

// Snapshot is the latest in-memory value of every writable field. The
// debounce callback reads it under the coordinator's lock, so it can
// never observe a value older than the most recent edit.
type Snapshot struct {
	Title      string
	Content    string
	CanvasData string
	Mode       store.Mode
}

// Coordinator owns the snapshot, the dirty mask, and the single
// debounce timer for one memo bound to one window.
type Coordinator struct {
	writer  Writer
	delay   time.Duration
	logger  *slog.Logger
	onError func(error) // timer-path write failures; Flush errors return directly

	mu     sync.Mutex
	memoID int64
	snap   Snapshot
	dirty  Field
	timer  *time.Timer
	gen    int // invalidates timer fires scheduled before a flush/cancel
}

// New creates a coordinator for memoID with the given starting snapshot.
// onError receives write failures from the debounce path; it may be nil,
// in which case failures are only logged (the dirty state is retained
// either way, so the next flush carries the edit forward).
func New(writer Writer, memoID int64, snap Snapshot, delay time.Duration, logger *slog.Logger, onError func(error)) *Coordinator {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Coordinator{
		writer:  writer,
		delay:   delay,
		logger:  logger,
		onError: onError,
		memoID:  memoID,
		snap:    snap,
	}
}

// MemoID returns the memo the coordinator currently writes to.
func (c *Coordinator) MemoID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memoID
}

// Snapshot returns a copy of the current in-memory state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Retarget points the coordinator at a different memo with a fresh
// snapshot. The caller must Flush the previous memo first; any timer
// still pending is discarded, not flushed.
func (c *Coordinator) Retarget(memoID int64, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.memoID = memoID
	c.snap = snap
	c.dirty = 0
}

// SetTitle records a title edit and restarts the debounce timer.
func (c *Coordinator) SetTitle(title string) {
	c.fieldChanged(func(s *Snapshot) { s.Title = title }, FieldTitle)
}

// SetContent records a content edit and restarts the debounce timer.
func (c *Coordinator) SetContent(content string) {
	c.fieldChanged(func(s *Snapshot) { s.Content = content }, FieldContent)
}

// SetCanvas records a canvas payload edit and restarts the debounce timer.
func (c *Coordinator) SetCanvas(data string) {
	c.fieldChanged(func(s *Snapshot) { s.CanvasData = data }, FieldCanvas)
}

// SetMode records a mode change and restarts the debounce timer.
func (c *Coordinator) SetMode(mode store.Mode) {
	c.fieldChanged(func(s *Snapshot) { s.Mode = mode }, FieldMode)
}

func (c *Coordinator) fieldChanged(apply func(*Snapshot), field Field) {
	c.mu.Lock()
	defer c.mu.Unlock()

	apply(&c.snap)
	c.dirty |= field

	// Restart the debounce window: only the last edit of a burst
	// schedules the write that actually fires.
	c.stopTimerLocked()
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.delay, func() { c.timerFired(gen) })
}

func (c *Coordinator) timerFired(gen int) {
	c.mu.Lock()
	if gen != c.gen {
		// A newer edit, flush, or cancel superseded this timer.
		c.mu.Unlock()
		return
	}
	c.timer = nil
	err := c.flushLocked(false)
	c.mu.Unlock()

	if err != nil {
		if c.logger != nil {
			c.logger.Error("autosave: debounced write failed", "memo", c.MemoID(), "error", err)
		}
		if c.onError != nil {
			c.onError(err)
		}
	}
}

// Flush cancels any pending timer and writes the latest snapshot
// immediately. With no dirty fields it still writes the full snapshot,
// so calling it twice in a row is a harmless identical write. On
// failure the snapshot and dirty mask are retained for the next flush.
func (c *Coordinator) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	return c.flushLocked(true)
}

// flushLocked writes the dirty fields (or everything, when force is set
// and nothing is dirty). Caller holds c.mu; the write happens under the
// lock so no edit can interleave between snapshot read and store write.
func (c *Coordinator) flushLocked(force bool) error {
	dirty := c.dirty
	if dirty == 0 {
		if !force {
			return nil
		}
		dirty = FieldTitle | FieldContent | FieldCanvas | FieldMode
	}

	fields := store.MemoFields{}
	if dirty&FieldTitle != 0 {
		fields.Title = store.Ptr(c.snap.Title)
	}
	if dirty&FieldContent != 0 {
		fields.Content = store.Ptr(c.snap.Content)
	}
	if dirty&FieldCanvas != 0 {
		fields.CanvasData = store.Ptr(c.snap.CanvasData)
	}
	if dirty&FieldMode != 0 {
		fields.Mode = store.Ptr(c.snap.Mode)
	}

	if err := c.writer.UpdateMemo(c.memoID, fields); err != nil {
		// Keep the dirty mask: the edit is not lost, the next
		// successful flush carries it forward.
		return err
	}
	c.dirty = 0
	return nil
}

// CancelPending stops any scheduled write without flushing. Teardown
// order is always Flush then CancelPending, never cancel alone.
func (c *Coordinator) CancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
}

// Pending reports whether a debounced write is scheduled.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}
