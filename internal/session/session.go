// Package session tracks which memo each open window is editing. The
// registry is the only component that talks to the host windowing
// system; everything else addresses windows through it.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marcus/memopad/internal/store"
)

// EventMemoLoad tells a window's content to load a memo. The payload
// is the memo id.
const EventMemoLoad = "memo:load"

// Bounds is a window's position and size in host coordinates.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowState is the persisted per-memo window placement, stored as a
// JSON blob on the memo record.
type WindowState struct {
	Bounds
	AlwaysOnTop bool `json:"alwaysOnTop"`
}

// Window is one host window. Implementations are not required to be
// goroutine safe; the registry serializes access.
type Window interface {
	ID() int64
	SetBounds(b Bounds)
	SetAlwaysOnTop(pinned bool)
	Minimize()
	Close()
	SendToContent(event string, payload any)
}

// Host creates windows. Closure events come back to the registry via
// HandleClosed, not through this interface.
type Host interface {
	CreateWindow() (Window, error)
}

// Store is the slice of the record store the registry needs.
type Store interface {
	CreateMemo(f store.MemoFields) (*store.Memo, error)
	GetMemo(id int64) (*store.Memo, error)
	UpdateMemo(id int64, f store.MemoFields) error
}

// Registry owns the window-to-memo association maps. Constructed once
// at startup and injected where needed.
type Registry struct {
	host   Host
	store  Store
	logger *slog.Logger

	mu       sync.Mutex
	windows  map[int64]Window
	memoFor  map[int64]int64   // window id -> memo id
	winsFor  map[int64][]int64 // memo id -> window ids
}

// NewRegistry creates an empty registry.
func NewRegistry(host Host, st Store, logger *slog.Logger) *Registry {
	return &Registry{
		host:    host,
		store:   st,
		logger:  logger,
		windows: map[int64]Window{},
		memoFor: map[int64]int64{},
		winsFor: map[int64][]int64{},
	}
}

// CreateWindow opens a window for memoID. A zero memoID creates a new
// empty memo first. If the memo is already open in a window, that
// window is returned instead of opening a duplicate.
func (r *Registry) CreateWindow(memoID int64) (Window, error) {
	if memoID == 0 {
		memo, err := r.store.CreateMemo(store.MemoFields{})
		if err != nil {
			return nil, fmt.Errorf("create memo for window: %w", err)
		}
		memoID = memo.ID
	} else if w, ok := r.WindowForMemo(memoID); ok {
		return w, nil
	}

	memo, err := r.store.GetMemo(memoID)
	if err != nil {
		return nil, fmt.Errorf("open window: %w", err)
	}

	w, err := r.host.CreateWindow()
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}

	r.mu.Lock()
	r.windows[w.ID()] = w
	r.bindLocked(w.ID(), memoID)
	r.mu.Unlock()

	r.applyWindowState(w, memo.WindowState)
	w.SendToContent(EventMemoLoad, memoID)
	return w, nil
}

// applyWindowState decodes a persisted placement blob and re-applies
// it. An absent or unreadable blob leaves host default placement.
func (r *Registry) applyWindowState(w Window, blob string) {
	if blob == "" {
		return
	}
	var ws WindowState
	if err := json.Unmarshal([]byte(blob), &ws); err != nil {
		if r.logger != nil {
			r.logger.Warn("session: unreadable window state", "window", w.ID(), "error", err)
		}
		return
	}
	w.SetBounds(ws.Bounds)
	w.SetAlwaysOnTop(ws.AlwaysOnTop)
}

// RedirectWindow re-points an open window at a different memo, used
// after a mode-switch fork. The window's content is told to load the
// new memo; the caller is responsible for having flushed the old one.
func (r *Registry) RedirectWindow(windowID, memoID int64) error {
	r.mu.Lock()
	w, ok := r.windows[windowID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("redirect window %d: unknown window", windowID)
	}
	r.unbindLocked(windowID)
	r.bindLocked(windowID, memoID)
	r.mu.Unlock()

	w.SendToContent(EventMemoLoad, memoID)
	return nil
}

// WindowForMemo returns a window editing memoID, if any is open.
func (r *Registry) WindowForMemo(memoID int64) (Window, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.winsFor[memoID]
	if len(ids) == 0 {
		return nil, false
	}
	return r.windows[ids[0]], true
}

// MemoForWindow returns the memo a window is editing.
func (r *Registry) MemoForWindow(windowID int64) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.memoFor[windowID]
	return id, ok
}

// GeometryChanged persists a window's placement on its memo. This path
// is deliberately not debounced; hosts already coalesce move events,
// and placement writes never race the autosave coordinator because
// window_state is not a field the coordinator owns.
func (r *Registry) GeometryChanged(windowID int64, b Bounds, pinned bool) error {
	memoID, ok := r.MemoForWindow(windowID)
	if !ok {
		return fmt.Errorf("geometry for window %d: unknown window", windowID)
	}
	blob, err := json.Marshal(WindowState{Bounds: b, AlwaysOnTop: pinned})
	if err != nil {
		return fmt.Errorf("encode window state: %w", err)
	}
	if err := r.store.UpdateMemo(memoID, store.MemoFields{WindowState: store.Ptr(string(blob))}); err != nil {
		return fmt.Errorf("persist window state: %w", err)
	}
	return nil
}

// SetPinned flips a window's always-on-top flag and persists it with
// the window's current bounds.
func (r *Registry) SetPinned(windowID int64, b Bounds, pinned bool) error {
	r.mu.Lock()
	w, ok := r.windows[windowID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("pin window %d: unknown window", windowID)
	}
	w.SetAlwaysOnTop(pinned)
	return r.GeometryChanged(windowID, b, pinned)
}

// CloseWindow asks the host to close a window. The registry cleans up
// when the host reports the closure through HandleClosed.
func (r *Registry) CloseWindow(windowID int64) error {
	r.mu.Lock()
	w, ok := r.windows[windowID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("close window %d: unknown window", windowID)
	}
	w.Close()
	return nil
}

// HandleClosed drops a window from the maps after the host reports it
// gone. Unknown ids are ignored; hosts may report closure twice.
func (r *Registry) HandleClosed(windowID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.windows, windowID)
	r.unbindLocked(windowID)
}

// WindowIDs returns the ids of all open windows.
func (r *Registry) WindowIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.windows))
	for id := range r.windows {
		ids = append(ids, id)
	}
	return ids
}

// bindLocked and unbindLocked keep the two maps consistent. Caller
// holds r.mu.
func (r *Registry) bindLocked(windowID, memoID int64) {
	r.memoFor[windowID] = memoID
	r.winsFor[memoID] = append(r.winsFor[memoID], windowID)
}

func (r *Registry) unbindLocked(windowID int64) {
	memoID, ok := r.memoFor[windowID]
	if !ok {
		return
	}
	delete(r.memoFor, windowID)
	ids := r.winsFor[memoID]
	for i, id := range ids {
		if id == windowID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(r.winsFor, memoID)
	} else {
		r.winsFor[memoID] = ids
	}
}
