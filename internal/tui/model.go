// Package tui is the terminal host: a bubbletea front end over the
// session registry, with a memo list pane on the left and per-window
// editors on the right.
package tui

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/memopad/internal/config"
	"github.com/marcus/memopad/internal/recognize"
	"github.com/marcus/memopad/internal/session"
	"github.com/marcus/memopad/internal/store"
)

// Store is everything the terminal host needs from the record store.
type Store interface {
	CreateMemo(f store.MemoFields) (*store.Memo, error)
	GetMemo(id int64) (*store.Memo, error)
	UpdateMemo(id int64, f store.MemoFields) error
	DeleteMemo(id int64) error
	ListMemos() ([]store.Memo, error)
	SearchMemos(query string) ([]store.Memo, error)
	ListFolders() ([]store.Folder, error)
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// focusArea identifies which pane receives key input.
type focusArea int

const (
	focusList focusArea = iota
	focusTitle
	focusContent
)

// Settings keys for persisted UI preferences.
const (
	settingListWidth = "ui.listWidth"
	settingWrap      = "ui.wrapContent"
)

// Model is the root Bubble Tea model for the memopad terminal host.
type Model struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    Store
	registry *session.Registry
	chain    *recognize.Chain
	host     *host

	// Memo list pane
	memos     []store.Memo
	folders   map[int64]string
	cursor    int
	searching bool
	search    textinput.Model

	// Open windows, in creation order; the view sorts pinned first.
	windows []*termWindow
	active  int

	// UI state
	width, height int
	ready         bool
	focus         focusArea
	preview       bool
	wrap          bool
	listWidth     int
	confirmDelete bool

	// Toast
	toast    string
	toastErr bool
	toastSeq int

	// Autosave failures cross goroutines through this channel.
	saveErrs chan error
}

// New wires the terminal host together. The registry is created here
// because the host and the model are the same process.
func New(cfg *config.Config, st Store, chain *recognize.Chain, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		chain:     chain,
		folders:   map[int64]string{},
		wrap:      cfg.UI.WrapContent,
		listWidth: cfg.UI.ListWidth,
		saveErrs:  make(chan error, 8),
	}

	m.host = &host{
		onCreate: func(w *termWindow) { m.attachWindow(w) },
		onLoad:   func(w *termWindow, memoID int64) { m.loadIntoWindow(w, memoID) },
	}
	m.registry = session.NewRegistry(m.host, st, logger)

	m.search = textinput.New()
	m.search.Placeholder = "search"
	m.search.Prompt = "/"
	m.search.CharLimit = 0

	m.applyPersistedPrefs()
	return m
}

// Registry exposes the session registry, for launch-time file imports.
func (m *Model) Registry() *session.Registry { return m.registry }

// applyPersistedPrefs overlays UI preferences stored in the settings
// collection on top of the config defaults.
func (m *Model) applyPersistedPrefs() {
	if v, err := m.store.GetSetting(settingListWidth); err == nil {
		if n, err := strconv.Atoi(v); err == nil && n >= 16 {
			m.listWidth = n
		}
	}
	if v, err := m.store.GetSetting(settingWrap); err == nil {
		m.wrap = v == "true"
	}
}

func (m *Model) attachWindow(w *termWindow) {
	m.windows = append(m.windows, w)
	m.active = len(m.windows) - 1
	m.focus = focusContent
}

func (m *Model) loadIntoWindow(w *termWindow, memoID int64) {
	if w.ed == nil {
		w.ed = newEditorForWindow(m, w)
	}
	if err := w.ed.Load(memoID); err != nil {
		m.logger.Error("tui: load memo", "memo", memoID, "error", err)
		return
	}
	w.syncFromEditor()
}

func (m *Model) activeWindow() *termWindow {
	if len(m.windows) == 0 || m.active < 0 || m.active >= len(m.windows) {
		return nil
	}
	return m.windows[m.active]
}

// orderedWindows returns window indexes with pinned windows first,
// preserving creation order within each group.
func (m *Model) orderedWindows() []int {
	var pinned, rest []int
	for i, w := range m.windows {
		if w.pinned {
			pinned = append(pinned, i)
		} else {
			rest = append(rest, i)
		}
	}
	return append(pinned, rest...)
}

// Init loads the memo list and starts the autosave error listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadMemosCmd(""), m.loadFoldersCmd(), waitForSaveError(m.saveErrs))
}

// selectedMemo returns the memo under the list cursor.
func (m *Model) selectedMemo() *store.Memo {
	if m.cursor < 0 || m.cursor >= len(m.memos) {
		return nil
	}
	return &m.memos[m.cursor]
}

func (m *Model) showToast(text string, isErr bool) tea.Cmd {
	m.toast = text
	m.toastErr = isErr
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}
