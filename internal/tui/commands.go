package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/memopad/internal/canvas"
	"github.com/marcus/memopad/internal/editor"
	"github.com/marcus/memopad/internal/recognize"
	"github.com/marcus/memopad/internal/store"
)

type memosLoadedMsg struct {
	memos []store.Memo
	err   error
}

type foldersLoadedMsg struct {
	folders []store.Folder
	err     error
}

type saveErrorMsg struct{ err error }

type toastExpiredMsg struct{ seq int }

type recognizedMsg struct {
	windowID int64
	result   recognize.Result
	err      error
}

func newEditorForWindow(m *Model, w *termWindow) *editor.Machine {
	return editor.New(m.store, m.cfg.Save.AutosaveDelay, m.cfg.Save.HistoryLimit, m.logger, func(err error) {
		select {
		case m.saveErrs <- err:
		default:
		}
	})
}

func (m *Model) loadMemosCmd(query string) tea.Cmd {
	return func() tea.Msg {
		var (
			memos []store.Memo
			err   error
		)
		if query == "" {
			memos, err = m.store.ListMemos()
		} else {
			memos, err = m.store.SearchMemos(query)
		}
		return memosLoadedMsg{memos: memos, err: err}
	}
}

func (m *Model) loadFoldersCmd() tea.Cmd {
	return func() tea.Msg {
		folders, err := m.store.ListFolders()
		return foldersLoadedMsg{folders: folders, err: err}
	}
}

// waitForSaveError bridges the autosave goroutine back into the
// bubbletea event loop. Re-issued after every receive.
func waitForSaveError(ch chan error) tea.Cmd {
	return func() tea.Msg {
		return saveErrorMsg{err: <-ch}
	}
}

// recognizeCmd runs the chain over the window's current strokes.
func (m *Model) recognizeCmd(w *termWindow) tea.Cmd {
	payload := w.ed.Doc().CanvasData
	windowID := w.id
	chain := m.chain
	return func() tea.Msg {
		doc, err := canvas.Parse(payload)
		if err != nil {
			return recognizedMsg{windowID: windowID, err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		res, err := chain.Recognize(ctx, doc.Strokes())
		return recognizedMsg{windowID: windowID, result: res, err: err}
	}
}
