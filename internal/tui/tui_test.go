package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/marcus/memopad/internal/canvas"
	"github.com/marcus/memopad/internal/config"
	"github.com/marcus/memopad/internal/recognize"
	"github.com/marcus/memopad/internal/store"
)

type fakeStore struct {
	memos    map[int64]*store.Memo
	settings map[string]string
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{memos: map[int64]*store.Memo{}, settings: map[string]string{}}
}

func (s *fakeStore) CreateMemo(f store.MemoFields) (*store.Memo, error) {
	s.nextID++
	m := &store.Memo{ID: s.nextID, Mode: store.ModeText}
	if f.Title != nil {
		m.Title = *f.Title
	}
	if f.Content != nil {
		m.Content = *f.Content
	}
	if f.CanvasData != nil {
		m.CanvasData = *f.CanvasData
	}
	if f.Mode != nil {
		m.Mode = *f.Mode
	}
	m.FolderID = f.FolderID
	s.memos[m.ID] = m
	cp := *m
	return &cp, nil
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
	if f.Title != nil {
		m.Title = *f.Title
	}
	if f.Content != nil {
		m.Content = *f.Content
	}
	if f.CanvasData != nil {
		m.CanvasData = *f.CanvasData
	}
	if f.Mode != nil {
		m.Mode = *f.Mode
	}
	if f.WindowState != nil {
		m.WindowState = *f.WindowState
	}
	return nil
}

func (s *fakeStore) DeleteMemo(id int64) error {
	if _, ok := s.memos[id]; !ok {
		return fmt.Errorf("delete memo %d: %w", id, store.ErrNotFound)
	}
	delete(s.memos, id)
	return nil
}

func (s *fakeStore) ListMemos() ([]store.Memo, error) {
	var out []store.Memo
	for _, m := range s.memos {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) SearchMemos(query string) ([]store.Memo, error) { return s.ListMemos() }
func (s *fakeStore) ListFolders() ([]store.Folder, error)           { return nil, nil }

func (s *fakeStore) GetSetting(key string) (string, error) {
	v, ok := s.settings[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *fakeStore) SetSetting(key, value string) error {
	s.settings[key] = value
	return nil
}

type stubBackend struct {
	res recognize.Result
}

func (b *stubBackend) Name() string    { return "stub" }
func (b *stubBackend) Available() bool { return true }

func (b *stubBackend) Recognize(ctx context.Context, strokes [][]canvas.Point) (recognize.Result, error) {
	return b.res, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestModel(t *testing.T) (*Model, *fakeStore) {
	t.Helper()
	st := newFakeStore()
	cfg := config.Default()
	cfg.Save.AutosaveDelay = time.Hour // keep debounce timers out of tests
	chain := recognize.NewChain(nil, 0, &stubBackend{res: recognize.Result{Text: "hello", Confidence: 0.9}})
	chain.Probe()
	return New(cfg, st, chain, discardLogger()), st
}

func TestOpenWindow_NewMemo(t *testing.T) {
	m, st := newTestModel(t)

	if _, cmd := m.openWindow(0); cmd == nil {
		t.Error("opening a window should schedule a list reload")
	}

	if len(st.memos) != 1 {
		t.Fatalf("got %d memos, want 1", len(st.memos))
	}
	w := m.activeWindow()
	if w == nil || w.ed == nil {
		t.Fatal("active window should have a live editor")
	}
	if w.ed.MemoID() != 1 {
		t.Errorf("editor bound to memo %d, want 1", w.ed.MemoID())
	}
	if m.focus != focusContent {
		t.Error("new window should take content focus")
	}
}

func TestOpenWindow_ExistingMemoFocusesWindow(t *testing.T) {
	m, st := newTestModel(t)
	memo, _ := st.CreateMemo(store.MemoFields{Title: store.Ptr("a")})

	m.openWindow(memo.ID)
	m.openWindow(0)
	if len(m.windows) != 2 {
		t.Fatalf("got %d windows", len(m.windows))
	}

	m.openWindow(memo.ID)
	if got := m.activeWindow().ed.MemoID(); got != memo.ID {
		t.Errorf("reopening should focus the original window, active editor on memo %d", got)
	}
	if len(m.windows) != 2 {
		t.Error("reopening must not create a duplicate window")
	}
}

func TestToggleMode_ForkRedirectsWindow(t *testing.T) {
	m, st := newTestModel(t)
	memo, _ := st.CreateMemo(store.MemoFields{Title: store.Ptr("list"), Content: store.Ptr("milk")})

	m.openWindow(memo.ID)
	w := m.activeWindow()

	m.toggleMode(w)

	if len(st.memos) != 2 {
		t.Fatalf("got %d memos, want fork to add one", len(st.memos))
	}
	if got := w.ed.MemoID(); got == memo.ID {
		t.Error("window should be redirected to the forked memo")
	}
	if st.memos[memo.ID].Mode != store.ModeText {
		t.Error("original memo must keep its mode")
	}
	if w.ed.Doc().Mode != store.ModeCanvas {
		t.Errorf("redirected editor should be in canvas mode, got %q", w.ed.Doc().Mode)
	}
}

func TestToggleMode_EmptyMemoStaysInWindow(t *testing.T) {
	m, st := newTestModel(t)

	m.openWindow(0)
	w := m.activeWindow()
	before := w.ed.MemoID()

	m.toggleMode(w)

	if len(st.memos) != 1 {
		t.Fatalf("empty memo must not fork, got %d memos", len(st.memos))
	}
	if w.ed.MemoID() != before {
		t.Error("window should stay on the same memo")
	}
	if st.memos[before].Mode != store.ModeCanvas {
		t.Errorf("got mode %q, want canvas", st.memos[before].Mode)
	}
}

func TestDeleteSelected_ClosesOpenWindow(t *testing.T) {
	m, st := newTestModel(t)
	memo, _ := st.CreateMemo(store.MemoFields{Title: store.Ptr("doomed")})
	m.openWindow(memo.ID)
	m.memos, _ = st.ListMemos()
	m.cursor = 0

	m.deleteSelected()

	if len(st.memos) != 0 {
		t.Error("memo should be deleted")
	}
	if len(m.windows) != 0 {
		t.Error("the memo's window should be closed")
	}
	if _, open := m.registry.WindowForMemo(memo.ID); open {
		t.Error("registry should no longer track the window")
	}
}

func TestRecognized_AppendsToContent(t *testing.T) {
	m, st := newTestModel(t)
	memo, _ := st.CreateMemo(store.MemoFields{
		Mode:       store.Ptr(store.ModeCanvas),
		CanvasData: store.Ptr(`{"objects":[{"type":"path","points":[{"x":1,"y":1}]}]}`),
	})
	m.openWindow(memo.ID)
	w := m.activeWindow()

	m.handleRecognized(recognizedMsg{
		windowID: w.id,
		result:   recognize.Result{Text: "hello", Confidence: 0.9},
	})

	if got := w.ed.Doc().Content; got != "hello" {
		t.Errorf("got content %q, want recognized text", got)
	}
}

func TestRecognized_BelowThresholdIgnored(t *testing.T) {
	m, st := newTestModel(t)
	memo, _ := st.CreateMemo(store.MemoFields{Mode: store.Ptr(store.ModeCanvas)})
	m.openWindow(memo.ID)
	w := m.activeWindow()

	m.handleRecognized(recognizedMsg{
		windowID: w.id,
		result:   recognize.Result{Text: "maybe", Confidence: 0.3},
	})

	if got := w.ed.Doc().Content; got != "" {
		t.Errorf("low-confidence result must not be applied, got %q", got)
	}
}

func TestOrderedWindows_PinnedFirst(t *testing.T) {
	m, st := newTestModel(t)
	a, _ := st.CreateMemo(store.MemoFields{})
	b, _ := st.CreateMemo(store.MemoFields{})
	c, _ := st.CreateMemo(store.MemoFields{})
	m.openWindow(a.ID)
	m.openWindow(b.ID)
	m.openWindow(c.ID)

	m.windows[2].pinned = true

	order := m.orderedWindows()
	if order[0] != 2 {
		t.Errorf("pinned window should sort first, got order %v", order)
	}
	if order[1] != 0 || order[2] != 1 {
		t.Errorf("unpinned windows should keep creation order, got %v", order)
	}
}

func TestPersistedPrefs_RoundTrip(t *testing.T) {
	m, st := newTestModel(t)
	m.wrap = false
	m.persistPref(settingWrap, "false")
	m.listWidth = 48
	m.persistPref(settingListWidth, "48")

	cfg := config.Default()
	cfg.Save.AutosaveDelay = time.Hour
	fresh := New(cfg, st, m.chain, discardLogger())
	if fresh.listWidth != 48 {
		t.Errorf("got list width %d, want persisted 48", fresh.listWidth)
	}
	if fresh.wrap {
		t.Error("wrap preference should persist")
	}
}

func TestQuit_FlushesOpenEditors(t *testing.T) {
	m, st := newTestModel(t)
	memo, _ := st.CreateMemo(store.MemoFields{})
	m.openWindow(memo.ID)
	w := m.activeWindow()

	if err := w.ed.EditContent("unsaved burst"); err != nil {
		t.Fatal(err)
	}
	m.quit()

	if got := st.memos[memo.ID].Content; got != "unsaved burst" {
		t.Errorf("quit must flush pending edits, got %q", got)
	}
}
