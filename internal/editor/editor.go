// Package editor is the per-window controller for one memo being
// edited. It composes the undo history and the autosave coordinator,
// and owns the mode-switch semantics: empty memos flip mode in place,
// memos with content fork into a new record so nothing is overwritten.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus/memopad/internal/autosave"
	"github.com/marcus/memopad/internal/canvas"
	"github.com/marcus/memopad/internal/history"
	"github.com/marcus/memopad/internal/store"
)

// State is the machine's lifecycle phase. Edits are only accepted in
// StateReady; anything arriving earlier is rejected, not queued.
type State int

const (
	StateLoading State = iota
	StateReady
)

var (
	// ErrNotReady is returned for edit operations before a memo is loaded.
	ErrNotReady = errors.New("editor: no memo loaded")
	// ErrInvalidMode is returned by ToggleMode for unknown mode values,
	// before any store interaction.
	ErrInvalidMode = errors.New("editor: invalid mode")
)

// Store is the slice of the record store the machine needs.
type Store interface {
	GetMemo(id int64) (*store.Memo, error)
	CreateMemo(f store.MemoFields) (*store.Memo, error)
	UpdateMemo(id int64, f store.MemoFields) error
}

// Document is the live editing buffer for one open memo. It is what
// the text history snapshots and what the autosave coordinator flushes.
type Document struct {
	Title      string
	Content    string
	CanvasData string
	Mode       store.Mode
}

// Machine is the authoritative editing state for one window.
type Machine struct {
	store  Store
	logger *slog.Logger
	delay  time.Duration

	state    State
	memoID   int64
	folderID *int64
	doc      Document

	hist       *history.Buffer[Document]
	canvasHist *history.Buffer[string]
	saver      *autosave.Coordinator

	onSaveError func(error)
	now         func() time.Time
}

// New creates a machine in StateLoading. historyLimit caps undo depth,
// 0 means unlimited. onSaveError receives failures from the debounced
// write path; explicit Flush errors return directly.
func New(st Store, delay time.Duration, historyLimit int, logger *slog.Logger, onSaveError func(error)) *Machine {
	newDocBuffer := func() *history.Buffer[Document] {
		if historyLimit > 0 {
			return history.NewLimited(Document{Mode: store.ModeText}, historyLimit)
		}
		return history.New(Document{Mode: store.ModeText})
	}
	newCanvasBuffer := func() *history.Buffer[string] {
		if historyLimit > 0 {
			return history.NewLimited("", historyLimit)
		}
		return history.New("")
	}
	return &Machine{
		store:       st,
		logger:      logger,
		delay:       delay,
		hist:        newDocBuffer(),
		canvasHist:  newCanvasBuffer(),
		onSaveError: onSaveError,
		now:         time.Now,
	}
}

// State returns the current lifecycle phase.
func (m *Machine) State() State { return m.state }

// MemoID returns the loaded memo's id, or 0 while loading.
func (m *Machine) MemoID() int64 { return m.memoID }

// Doc returns the current editing buffer.
func (m *Machine) Doc() Document { return m.doc }

// Load fetches a memo and re-targets the machine at it. Safe to call
// again on the same instance for window reuse: any pending autosave for
// the previous memo is flushed before the switch begins, so a fast
// re-target can never lose the last burst of edits. A missing id leaves
// the machine in StateLoading with nothing loaded.
func (m *Machine) Load(id int64) error {
	if m.state == StateReady && m.saver != nil {
		if err := m.saver.Flush(); err != nil {
			return fmt.Errorf("flush previous memo: %w", err)
		}
	}
	m.state = StateLoading

	memo, err := m.store.GetMemo(id)
	if err != nil {
		return fmt.Errorf("load memo: %w", err)
	}

	m.memoID = memo.ID
	m.folderID = memo.FolderID
	m.doc = Document{
		Title:      memo.Title,
		Content:    memo.Content,
		CanvasData: memo.CanvasData,
		Mode:       memo.Mode,
	}
	m.hist.Reset(m.doc)
	m.canvasHist.Reset(memo.CanvasData)

	snap := m.snapshot()
	if m.saver == nil {
		m.saver = autosave.New(m.store, memo.ID, snap, m.delay, m.logger, m.onSaveError)
	} else {
		m.saver.Retarget(memo.ID, snap)
	}

	m.state = StateReady
	return nil
}

// EditTitle records a title edit.
func (m *Machine) EditTitle(text string) error {
	if m.state != StateReady {
		return ErrNotReady
	}
	m.doc.Title = text
	m.hist.Set(m.doc)
	m.saver.SetTitle(text)
	return nil
}

// EditContent records a content edit.
func (m *Machine) EditContent(text string) error {
	if m.state != StateReady {
		return ErrNotReady
	}
	m.doc.Content = text
	m.hist.Set(m.doc)
	m.saver.SetContent(text)
	return nil
}

// EditCanvas records a new serialized canvas payload. The payload also
// feeds the independent canvas history, which tracks the drawing
// surface's own mutation events.
func (m *Machine) EditCanvas(payload string) error {
	if m.state != StateReady {
		return ErrNotReady
	}
	m.doc.CanvasData = payload
	m.hist.Set(m.doc)
	m.canvasHist.Set(payload)
	m.saver.SetCanvas(payload)
	return nil
}

// AppendRecognizedText appends a transcription line to content, so the
// recognized text is persisted even while the memo stays in canvas mode.
func (m *Machine) AppendRecognizedText(text string) error {
	if m.state != StateReady {
		return ErrNotReady
	}
	content := m.doc.Content
	if content != "" {
		content += "\n"
	}
	return m.EditContent(content + text)
}

// Undo steps the document history back and pushes every field that
// moved into the autosave snapshot.
func (m *Machine) Undo() error {
	if m.state != StateReady {
		return ErrNotReady
	}
	if !m.hist.CanUndo() {
		return nil
	}
	m.hist.Undo()
	m.applyHistory(m.hist.Present())
	return nil
}

// Redo steps the document history forward.
func (m *Machine) Redo() error {
	if m.state != StateReady {
		return ErrNotReady
	}
	if !m.hist.CanRedo() {
		return nil
	}
	m.hist.Redo()
	m.applyHistory(m.hist.Present())
	return nil
}

// CanUndo reports whether document history can step back.
func (m *Machine) CanUndo() bool { return m.hist.CanUndo() }

// CanRedo reports whether document history can step forward.
func (m *Machine) CanRedo() bool { return m.hist.CanRedo() }

// CanvasUndo steps only the canvas history, driven by the drawing
// surface's undo control.
func (m *Machine) CanvasUndo() error {
	if m.state != StateReady {
		return ErrNotReady
	}
	if !m.canvasHist.CanUndo() {
		return nil
	}
	m.canvasHist.Undo()
	payload := m.canvasHist.Present()
	m.doc.CanvasData = payload
	m.saver.SetCanvas(payload)
	return nil
}

// CanvasRedo steps the canvas history forward.
func (m *Machine) CanvasRedo() error {
	if m.state != StateReady {
		return ErrNotReady
	}
	if !m.canvasHist.CanRedo() {
		return nil
	}
	m.canvasHist.Redo()
	payload := m.canvasHist.Present()
	m.doc.CanvasData = payload
	m.saver.SetCanvas(payload)
	return nil
}

func (m *Machine) applyHistory(doc Document) {
	prev := m.doc
	m.doc = doc
	if doc.Title != prev.Title {
		m.saver.SetTitle(doc.Title)
	}
	if doc.Content != prev.Content {
		m.saver.SetContent(doc.Content)
	}
	if doc.CanvasData != prev.CanvasData {
		m.saver.SetCanvas(doc.CanvasData)
	}
	if doc.Mode != prev.Mode {
		m.saver.SetMode(doc.Mode)
	}
}

// ToggleMode switches the memo between text and canvas. The current
// state is always flushed first. An empty memo flips mode in place; a
// memo with content forks into a new record instead, and the returned
// id is non-zero so the session registry can redirect the window.
func (m *Machine) ToggleMode(target store.Mode) (forkedID int64, err error) {
	if !target.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, target)
	}
	if m.state != StateReady {
		return 0, ErrNotReady
	}
	if target == m.doc.Mode {
		return 0, nil
	}

	if err := m.saver.Flush(); err != nil {
		return 0, fmt.Errorf("flush before mode switch: %w", err)
	}

	empty := m.doc.Content == "" && canvas.IsEmptyPayload(m.doc.CanvasData)
	if empty {
		if err := m.store.UpdateMemo(m.memoID, store.MemoFields{Mode: store.Ptr(target)}); err != nil {
			return 0, fmt.Errorf("switch mode: %w", err)
		}
		m.doc.Mode = target
		m.hist.Reset(m.doc)
		m.canvasHist.Reset(m.doc.CanvasData)
		m.saver.Retarget(m.memoID, m.snapshot())
		return 0, nil
	}

	fields := store.MemoFields{
		Title:    store.Ptr(deriveForkTitle(m.doc.Title, target, m.now())),
		Mode:     store.Ptr(target),
		FolderID: m.folderID,
	}
	switch target {
	case store.ModeText:
		fields.Content = store.Ptr(m.doc.Content)
	case store.ModeCanvas:
		fields.CanvasData = store.Ptr(m.doc.CanvasData)
	}

	forked, err := m.store.CreateMemo(fields)
	if err != nil {
		return 0, fmt.Errorf("fork memo: %w", err)
	}
	return forked.ID, nil
}

// Flush writes the latest snapshot immediately.
func (m *Machine) Flush() error {
	if m.saver == nil {
		return nil
	}
	return m.saver.Flush()
}

// Teardown flushes and then cancels the debounce timer, in that order.
// Called before the window closes; the machine is discarded afterwards.
func (m *Machine) Teardown() error {
	if m.saver == nil {
		return nil
	}
	err := m.saver.Flush()
	m.saver.CancelPending()
	return err
}

func (m *Machine) snapshot() autosave.Snapshot {
	return autosave.Snapshot{
		Title:      m.doc.Title,
		Content:    m.doc.Content,
		CanvasData: m.doc.CanvasData,
		Mode:       m.doc.Mode,
	}
}
