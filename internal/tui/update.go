package tui

import (
	"fmt"
	"strconv"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/memopad/internal/store"
)

// Update routes messages to the focused pane.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeWindows()
		return m, nil

	case memosLoadedMsg:
		if msg.err != nil {
			return m, m.showToast(fmt.Sprintf("load memos: %v", msg.err), true)
		}
		m.memos = msg.memos
		if m.cursor >= len(m.memos) {
			m.cursor = len(m.memos) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case foldersLoadedMsg:
		if msg.err == nil {
			m.folders = map[int64]string{}
			for _, f := range msg.folders {
				m.folders[f.ID] = f.Name
			}
		}
		return m, nil

	case saveErrorMsg:
		cmd := m.showToast(fmt.Sprintf("autosave failed: %v", msg.err), true)
		return m, tea.Batch(cmd, waitForSaveError(m.saveErrs))

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case recognizedMsg:
		return m.handleRecognized(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) resizeWindows() {
	contentWidth := m.width - m.listWidth - 6
	if contentWidth < 20 {
		contentWidth = 20
	}
	contentHeight := m.height - 8
	if contentHeight < 4 {
		contentHeight = 4
	}
	for _, w := range m.windows {
		w.content.SetWidth(contentWidth)
		w.content.SetHeight(contentHeight)
		w.title.Width = contentWidth
	}
}

func (m *Model) handleRecognized(msg recognizedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.showToast(fmt.Sprintf("recognition: %v", msg.err), true)
	}
	if !m.chain.ShouldConvert(msg.result) {
		return m, m.showToast(fmt.Sprintf("recognition below threshold (%.2f)", msg.result.Confidence), false)
	}
	for _, w := range m.windows {
		if w.id != msg.windowID || w.ed == nil {
			continue
		}
		if err := w.ed.AppendRecognizedText(msg.result.Text); err != nil {
			return m, m.showToast(fmt.Sprintf("apply recognition: %v", err), true)
		}
		w.syncFromEditor()
		return m, m.showToast("recognized: "+msg.result.Text, false)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}

	if m.confirmDelete {
		return m.handleConfirmDeleteKey(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch m.focus {
	case focusList:
		return m.handleListKey(msg)
	default:
		return m.handleEditorKey(msg)
	}
}

// quit flushes every open editor before exiting. Flush failures are
// logged but do not block the exit.
func (m *Model) quit() tea.Cmd {
	for _, w := range m.windows {
		if w.ed == nil {
			continue
		}
		if err := w.ed.Teardown(); err != nil {
			m.logger.Error("tui: teardown flush failed", "window", w.id, "error", err)
		}
	}
	return tea.Quit
}

func (m *Model) handleConfirmDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.confirmDelete = false
		return m.deleteSelected()
	case "n", "esc":
		m.confirmDelete = false
		return m, nil
	}
	return m, nil
}

func (m *Model) deleteSelected() (tea.Model, tea.Cmd) {
	memo := m.selectedMemo()
	if memo == nil {
		return m, nil
	}
	if w, open := m.registry.WindowForMemo(memo.ID); open {
		m.closeWindowByID(w.ID())
	}
	if err := m.store.DeleteMemo(memo.ID); err != nil {
		return m, m.showToast(fmt.Sprintf("delete: %v", err), true)
	}
	return m, tea.Batch(m.loadMemosCmd(m.search.Value()), m.showToast("deleted", false))
}

// closeWindowByID tears down a window's editor and drops the window
// from both the registry and the tab list.
func (m *Model) closeWindowByID(windowID int64) {
	for i, w := range m.windows {
		if w.id != windowID {
			continue
		}
		if w.ed != nil {
			if err := w.ed.Teardown(); err != nil {
				m.logger.Error("tui: teardown flush failed", "window", w.id, "error", err)
			}
		}
		w.closed = true
		m.registry.HandleClosed(w.id)
		m.windows = append(m.windows[:i], m.windows[i+1:]...)
		if m.active >= len(m.windows) {
			m.active = len(m.windows) - 1
		}
		if len(m.windows) == 0 {
			m.focus = focusList
		}
		return
	}
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.SetValue("")
		m.search.Blur()
		return m, m.loadMemosCmd("")
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, tea.Batch(cmd, m.loadMemosCmd(m.search.Value()))
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.memos)-1 {
			m.cursor++
		}
	case "enter":
		return m.openSelected()
	case "n":
		return m.openWindow(0)
	case "/":
		m.searching = true
		m.search.Focus()
	case "X":
		if m.selectedMemo() != nil {
			m.confirmDelete = true
		}
	case "p":
		return m.togglePinSelected()
	case "y":
		if memo := m.selectedMemo(); memo != nil {
			if err := clipboard.WriteAll(memo.Content); err != nil {
				return m, m.showToast(fmt.Sprintf("clipboard: %v", err), true)
			}
			return m, m.showToast("content copied", false)
		}
	case "Y":
		if memo := m.selectedMemo(); memo != nil {
			if err := clipboard.WriteAll(memo.Title); err != nil {
				return m, m.showToast(fmt.Sprintf("clipboard: %v", err), true)
			}
			return m, m.showToast("title copied", false)
		}
	case "w":
		m.wrap = !m.wrap
		m.persistPref(settingWrap, strconv.FormatBool(m.wrap))
	case "[":
		if m.listWidth > 20 {
			m.listWidth -= 4
			m.persistPref(settingListWidth, strconv.Itoa(m.listWidth))
			m.resizeWindows()
		}
	case "]":
		if m.listWidth < m.width/2 {
			m.listWidth += 4
			m.persistPref(settingListWidth, strconv.Itoa(m.listWidth))
			m.resizeWindows()
		}
	case "m":
		m.preview = !m.preview
	case "tab":
		if m.activeWindow() != nil {
			m.focus = focusContent
			m.activeWindow().content.Focus()
		}
	}
	return m, nil
}

// persistPref stores a UI preference in the settings collection. A
// failed write only costs the preference, so it is logged and ignored.
func (m *Model) persistPref(key, value string) {
	if err := m.store.SetSetting(key, value); err != nil {
		m.logger.Warn("tui: persist preference", "key", key, "error", err)
	}
}

func (m *Model) openSelected() (tea.Model, tea.Cmd) {
	memo := m.selectedMemo()
	if memo == nil {
		return m, nil
	}
	return m.openWindow(memo.ID)
}

func (m *Model) openWindow(memoID int64) (tea.Model, tea.Cmd) {
	w, err := m.registry.CreateWindow(memoID)
	if err != nil {
		return m, m.showToast(fmt.Sprintf("open: %v", err), true)
	}
	// Opening an already-open memo focuses its window.
	for i, tw := range m.windows {
		if tw.id == w.ID() {
			m.active = i
			m.focus = focusContent
			tw.content.Focus()
			break
		}
	}
	m.resizeWindows()
	return m, m.loadMemosCmd(m.search.Value())
}

func (m *Model) togglePinSelected() (tea.Model, tea.Cmd) {
	memo := m.selectedMemo()
	if memo == nil {
		return m, nil
	}
	w, open := m.registry.WindowForMemo(memo.ID)
	if !open {
		return m, m.showToast("memo is not open in a window", false)
	}
	tw := w.(*termWindow)
	if err := m.registry.SetPinned(tw.id, tw.bounds, !tw.pinned); err != nil {
		return m, m.showToast(fmt.Sprintf("pin: %v", err), true)
	}
	return m, nil
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w := m.activeWindow()
	if w == nil || w.ed == nil {
		m.focus = focusList
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.focus = focusList
		w.title.Blur()
		w.content.Blur()
		return m, m.loadMemosCmd(m.search.Value())
	case "tab":
		if m.focus == focusTitle {
			m.focus = focusContent
			w.title.Blur()
			w.content.Focus()
		} else {
			m.focus = focusTitle
			w.content.Blur()
			w.title.Focus()
		}
		return m, nil
	case "ctrl+t":
		return m.toggleMode(w)
	case "ctrl+z":
		if err := w.ed.Undo(); err != nil {
			return m, m.showToast(fmt.Sprintf("undo: %v", err), true)
		}
		w.syncFromEditor()
		return m, nil
	case "ctrl+y":
		if err := w.ed.Redo(); err != nil {
			return m, m.showToast(fmt.Sprintf("redo: %v", err), true)
		}
		w.syncFromEditor()
		return m, nil
	case "ctrl+s":
		if err := w.ed.Flush(); err != nil {
			return m, m.showToast(fmt.Sprintf("save: %v", err), true)
		}
		return m, tea.Batch(m.loadMemosCmd(m.search.Value()), m.showToast("saved", false))
	case "ctrl+r":
		if w.ed.Doc().Mode != store.ModeCanvas {
			return m, m.showToast("recognition runs on canvas memos", false)
		}
		if !m.chain.Enabled() {
			return m, m.showToast("no recognition backend available", true)
		}
		return m, m.recognizeCmd(w)
	case "ctrl+w":
		m.closeWindowByID(w.id)
		return m, m.loadMemosCmd(m.search.Value())
	case "ctrl+n":
		if len(m.windows) > 1 {
			m.active = (m.active + 1) % len(m.windows)
			m.activeWindow().syncFromEditor()
		}
		return m, nil
	}

	return m.handleEditorInput(w, msg)
}

// handleEditorInput feeds keystrokes to the focused widget and mirrors
// the resulting value into the editing state machine.
func (m *Model) handleEditorInput(w *termWindow, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusTitle:
		before := w.title.Value()
		w.title, cmd = w.title.Update(msg)
		if after := w.title.Value(); after != before {
			if err := w.ed.EditTitle(after); err != nil {
				return m, m.showToast(fmt.Sprintf("edit: %v", err), true)
			}
		}
	case focusContent:
		if w.ed.Doc().Mode == store.ModeCanvas {
			// Canvas memos are not typed into from the terminal.
			return m, nil
		}
		before := w.content.Value()
		w.content, cmd = w.content.Update(msg)
		if after := w.content.Value(); after != before {
			if err := w.ed.EditContent(after); err != nil {
				return m, m.showToast(fmt.Sprintf("edit: %v", err), true)
			}
		}
	}
	return m, cmd
}

// toggleMode flips the active window's memo between text and canvas.
// When the memo has content the editor forks a new record, and the
// window is redirected to it.
func (m *Model) toggleMode(w *termWindow) (tea.Model, tea.Cmd) {
	target := store.ModeCanvas
	if w.ed.Doc().Mode == store.ModeCanvas {
		target = store.ModeText
	}

	forkedID, err := w.ed.ToggleMode(target)
	if err != nil {
		return m, m.showToast(fmt.Sprintf("mode switch: %v", err), true)
	}
	if forkedID == 0 {
		w.syncFromEditor()
		return m, tea.Batch(m.loadMemosCmd(m.search.Value()),
			m.showToast("mode: "+string(target), false))
	}

	if err := m.registry.RedirectWindow(w.id, forkedID); err != nil {
		return m, m.showToast(fmt.Sprintf("redirect: %v", err), true)
	}
	return m, tea.Batch(m.loadMemosCmd(m.search.Value()),
		m.showToast(fmt.Sprintf("forked to %s memo", target), false))
}
