package session

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/marcus/memopad/internal/store"
)

type fakeWindow struct {
	id       int64
	bounds   Bounds
	pinned   bool
	closed   bool
	events   []string
	payloads []any
}

func (w *fakeWindow) ID() int64                  { return w.id }
func (w *fakeWindow) SetBounds(b Bounds)         { w.bounds = b }
func (w *fakeWindow) SetAlwaysOnTop(pinned bool) { w.pinned = pinned }
func (w *fakeWindow) Minimize()                  {}
func (w *fakeWindow) Close()                     { w.closed = true }

func (w *fakeWindow) SendToContent(event string, payload any) {
	w.events = append(w.events, event)
	w.payloads = append(w.payloads, payload)
}

type fakeHost struct {
	nextID  int64
	windows []*fakeWindow
}

func (h *fakeHost) CreateWindow() (Window, error) {
	h.nextID++
	w := &fakeWindow{id: h.nextID}
	h.windows = append(h.windows, w)
	return w, nil
}

type fakeStore struct {
	memos  map[int64]*store.Memo
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{memos: map[int64]*store.Memo{}}
}

func (s *fakeStore) add(m store.Memo) int64 {
	s.nextID++
	m.ID = s.nextID
	s.memos[s.nextID] = &m
	return s.nextID
}

func (s *fakeStore) CreateMemo(f store.MemoFields) (*store.Memo, error) {
	m := store.Memo{Mode: store.ModeText}
	if f.Content != nil {
		m.Content = *f.Content
	}
	id := s.add(m)
	return s.memos[id], nil
}

func (s *fakeStore) GetMemo(id int64) (*store.Memo, error) {
	m, ok := s.memos[id]
	if !ok {
		return nil, fmt.Errorf("get memo %d: %w", id, store.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (s *fakeStore) UpdateMemo(id int64, f store.MemoFields) error {
	m, ok := s.memos[id]
	if !ok {
		return fmt.Errorf("update memo %d: %w", id, store.ErrNotFound)
	}
	if f.WindowState != nil {
		m.WindowState = *f.WindowState
	}
	return nil
}

func newTestRegistry() (*Registry, *fakeHost, *fakeStore) {
	h := &fakeHost{}
	st := newFakeStore()
	return NewRegistry(h, st, nil), h, st
}

func TestCreateWindow_ZeroCreatesEmptyMemo(t *testing.T) {
	r, h, st := newTestRegistry()

	w, err := r.CreateWindow(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.memos) != 1 {
		t.Fatalf("got %d memos, want 1", len(st.memos))
	}

	memoID, ok := r.MemoForWindow(w.ID())
	if !ok || memoID != 1 {
		t.Errorf("window should be bound to the new memo, got %d", memoID)
	}
	fw := h.windows[0]
	if len(fw.events) != 1 || fw.events[0] != EventMemoLoad {
		t.Errorf("window content should be told to load, got %v", fw.events)
	}
	if fw.payloads[0] != int64(1) {
		t.Errorf("load payload should be the memo id, got %v", fw.payloads[0])
	}
}

func TestCreateWindow_ExistingMemoNoDuplicate(t *testing.T) {
	r, h, st := newTestRegistry()
	id := st.add(store.Memo{Title: "open me"})

	w1, err := r.CreateWindow(id)
	if err != nil {
		t.Fatal(err)
	}
	w2, err := r.CreateWindow(id)
	if err != nil {
		t.Fatal(err)
	}
	if w1.ID() != w2.ID() {
		t.Error("second open of the same memo should return the existing window")
	}
	if len(h.windows) != 1 {
		t.Errorf("got %d host windows, want 1", len(h.windows))
	}
}

func TestCreateWindow_AppliesPersistedState(t *testing.T) {
	r, h, st := newTestRegistry()
	id := st.add(store.Memo{
		WindowState: `{"x":10,"y":20,"width":300,"height":400,"alwaysOnTop":true}`,
	})

	if _, err := r.CreateWindow(id); err != nil {
		t.Fatal(err)
	}
	fw := h.windows[0]
	if fw.bounds != (Bounds{X: 10, Y: 20, Width: 300, Height: 400}) {
		t.Errorf("got bounds %+v", fw.bounds)
	}
	if !fw.pinned {
		t.Error("alwaysOnTop should be re-applied")
	}
}

func TestCreateWindow_UnreadableStateFallsBackToDefault(t *testing.T) {
	r, h, st := newTestRegistry()
	id := st.add(store.Memo{WindowState: `{broken`})

	if _, err := r.CreateWindow(id); err != nil {
		t.Fatal(err)
	}
	if h.windows[0].bounds != (Bounds{}) {
		t.Error("unreadable state must leave default placement")
	}
}

func TestCreateWindow_MissingMemo(t *testing.T) {
	r, h, _ := newTestRegistry()
	if _, err := r.CreateWindow(42); err == nil {
		t.Fatal("expected error for missing memo")
	}
	if len(h.windows) != 0 {
		t.Error("no window should open for a missing memo")
	}
}

func TestGeometryChanged_PersistsBlob(t *testing.T) {
	r, _, st := newTestRegistry()
	id := st.add(store.Memo{})
	w, err := r.CreateWindow(id)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.GeometryChanged(w.ID(), Bounds{X: 5, Y: 6, Width: 250, Height: 250}, true); err != nil {
		t.Fatal(err)
	}

	var ws WindowState
	if err := json.Unmarshal([]byte(st.memos[id].WindowState), &ws); err != nil {
		t.Fatalf("persisted blob unreadable: %v", err)
	}
	if ws.X != 5 || ws.Width != 250 || !ws.AlwaysOnTop {
		t.Errorf("got %+v", ws)
	}
}

func TestRedirectWindow_RebindsAndNotifies(t *testing.T) {
	r, h, st := newTestRegistry()
	a := st.add(store.Memo{})
	b := st.add(store.Memo{})
	w, err := r.CreateWindow(a)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.RedirectWindow(w.ID(), b); err != nil {
		t.Fatal(err)
	}

	memoID, _ := r.MemoForWindow(w.ID())
	if memoID != b {
		t.Errorf("window bound to %d, want %d", memoID, b)
	}
	if _, open := r.WindowForMemo(a); open {
		t.Error("old memo should no longer map to the window")
	}
	fw := h.windows[0]
	if got := fw.payloads[len(fw.payloads)-1]; got != b {
		t.Errorf("content should be told to load %d, got %v", b, got)
	}
}

func TestHandleClosed_CleansMaps(t *testing.T) {
	r, _, st := newTestRegistry()
	id := st.add(store.Memo{})
	w, err := r.CreateWindow(id)
	if err != nil {
		t.Fatal(err)
	}

	r.HandleClosed(w.ID())
	r.HandleClosed(w.ID()) // double report is harmless

	if _, ok := r.MemoForWindow(w.ID()); ok {
		t.Error("closed window should be forgotten")
	}
	if _, ok := r.WindowForMemo(id); ok {
		t.Error("memo should no longer map to the closed window")
	}
	if len(r.WindowIDs()) != 0 {
		t.Error("no windows should remain")
	}
}

func TestCloseWindow_AsksHost(t *testing.T) {
	r, h, st := newTestRegistry()
	id := st.add(store.Memo{})
	w, err := r.CreateWindow(id)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.CloseWindow(w.ID()); err != nil {
		t.Fatal(err)
	}
	if !h.windows[0].closed {
		t.Error("host window should be asked to close")
	}
}
