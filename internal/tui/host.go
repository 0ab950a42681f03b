package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/memopad/internal/editor"
	"github.com/marcus/memopad/internal/session"
	"github.com/marcus/memopad/internal/styles"
)

// termWindow is one terminal "window": a tab with synthetic bounds.
// It satisfies session.Window so the registry treats terminal tabs and
// real desktop windows the same way.
type termWindow struct {
	id        int64
	bounds    session.Bounds
	pinned    bool
	minimized bool
	closed    bool

	ed      *editor.Machine
	title   textinput.Model
	content textarea.Model

	onLoad func(w *termWindow, memoID int64)
}

func (w *termWindow) ID() int64                  { return w.id }
func (w *termWindow) SetBounds(b session.Bounds) { w.bounds = b }
func (w *termWindow) SetAlwaysOnTop(pinned bool) { w.pinned = pinned }
func (w *termWindow) Minimize()                  { w.minimized = true }
func (w *termWindow) Close()                     { w.closed = true }

// SendToContent delivers host events to the window's editor.
func (w *termWindow) SendToContent(event string, payload any) {
	if event == session.EventMemoLoad && w.onLoad != nil {
		if memoID, ok := payload.(int64); ok {
			w.onLoad(w, memoID)
		}
	}
}

// syncFromEditor refreshes the input widgets from the editor's document
// after a load, undo, or redirect.
func (w *termWindow) syncFromEditor() {
	if w.ed == nil {
		return
	}
	doc := w.ed.Doc()
	w.title.SetValue(doc.Title)
	w.content.SetValue(doc.Content)
}

// host implements session.Host for the terminal. New windows cascade
// from the top-left so persisted bounds stay distinguishable from the
// defaults in tests.
type host struct {
	nextID   int64
	onCreate func(*termWindow)
	onLoad   func(*termWindow, int64)
}

func (h *host) CreateWindow() (session.Window, error) {
	h.nextID++
	w := &termWindow{
		id:     h.nextID,
		onLoad: h.onLoad,
		bounds: session.Bounds{
			X:      int(h.nextID-1) * 2,
			Y:      int(h.nextID-1) * 2,
			Width:  defaultWindowWidth,
			Height: defaultWindowHeight,
		},
	}
	w.title = newTitleInput()
	w.content = newContentArea()
	if h.onCreate != nil {
		h.onCreate(w)
	}
	return w, nil
}

const (
	defaultWindowWidth  = 80
	defaultWindowHeight = 24
)

func newTitleInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Untitled"
	ti.Prompt = ""
	ti.CharLimit = 0
	return ti
}

func newContentArea() textarea.Model {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Prompt = ""
	ta.FocusedStyle = textarea.Style{
		Base:        lipgloss.NewStyle(),
		CursorLine:  lipgloss.NewStyle(),
		EndOfBuffer: styles.Muted,
		Placeholder: styles.Muted,
		Prompt:      lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
	}
	ta.BlurredStyle = ta.FocusedStyle
	ta.Blur()
	return ta
}
