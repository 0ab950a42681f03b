package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/marcus/memopad/internal/canvas"
	"github.com/marcus/memopad/internal/store"
	"github.com/marcus/memopad/internal/styles"
)

const (
	minWidth  = 60
	minHeight = 16
)

// View renders the list pane, the active window, and the footer.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.width < minWidth || m.height < minHeight {
		msg := fmt.Sprintf("Terminal too small (%dx%d)\nMinimum: %dx%d",
			m.width, m.height, minWidth, minHeight)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styles.Muted.Render(msg))
	}

	contentHeight := m.height - 2
	if m.cfg.UI.ShowFooter {
		contentHeight--
	}

	left := m.renderList(m.listWidth, contentHeight)
	right := m.renderEditor(m.width-m.listWidth-2, contentHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	var b strings.Builder
	b.WriteString(body)
	if m.cfg.UI.ShowFooter {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}
	if m.toast != "" {
		b.WriteString("\n")
		style := styles.ToastSuccess
		if m.toastErr {
			style = styles.ToastError
		}
		b.WriteString(style.Render(m.toast))
	}
	return b.String()
}

func (m *Model) renderList(width, height int) string {
	var b strings.Builder

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(styles.PanelHeader.Render("memos"))
	}
	b.WriteString("\n")

	if len(m.memos) == 0 {
		b.WriteString(styles.Muted.Render("no memos - press n"))
	}

	inner := width - 4
	for i, memo := range m.memos {
		b.WriteString(m.renderListItem(memo, i == m.cursor, inner))
		b.WriteString("\n")
	}

	if m.confirmDelete {
		b.WriteString("\n")
		b.WriteString(styles.ToastError.Render("delete? y/n"))
	}

	style := styles.PanelInactive
	if m.focus == focusList {
		style = styles.PanelActive
	}
	return style.Width(width).Height(height).Render(b.String())
}

func (m *Model) renderListItem(memo store.Memo, selected bool, width int) string {
	title := memo.Title
	if title == "" {
		title = "Untitled"
	}

	marker := "  "
	if w, open := m.registry.WindowForMemo(memo.ID); open {
		marker = "· "
		if w.(*termWindow).pinned {
			marker = styles.ListPinned.Render("* ")
		}
	}

	badge := styles.BadgeText.Render("[t]")
	if memo.Mode == store.ModeCanvas {
		badge = styles.BadgeCanvas.Render("[c]")
	}

	line := marker + badge + " " + runewidth.Truncate(title, width-8, "…")
	if name, ok := m.folders[deref(memo.FolderID)]; ok && memo.FolderID != nil {
		line += " " + styles.ListFolder.Render(name)
	}

	if selected {
		return styles.ListSelected.Render(line)
	}
	return styles.ListNormal.Render(line)
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func (m *Model) renderEditor(width, height int) string {
	w := m.activeWindow()
	style := styles.PanelInactive
	if m.focus != focusList {
		style = styles.PanelActive
	}

	if w == nil || w.ed == nil {
		return style.Width(width).Height(height).Render(
			styles.Muted.Render("no window open\n\nenter: open selected  n: new memo"))
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(styles.Title.Render(w.title.View()))
	b.WriteString("\n")
	b.WriteString(m.renderModeLine(w))
	b.WriteString("\n\n")

	doc := w.ed.Doc()
	switch {
	case doc.Mode == store.ModeCanvas:
		b.WriteString(m.renderCanvasSummary(doc.CanvasData, doc.Content))
	case m.preview:
		b.WriteString(m.renderPreview(doc.Content, width-4))
	default:
		b.WriteString(w.content.View())
	}

	return style.Width(width).Height(height).Render(b.String())
}

// renderTabs draws one tab per open window, pinned windows first.
func (m *Model) renderTabs() string {
	var tabs []string
	for _, i := range m.orderedWindows() {
		w := m.windows[i]
		label := fmt.Sprintf("%d", w.id)
		if w.pinned {
			label = "*" + label
		}
		if i == m.active {
			tabs = append(tabs, styles.ListSelected.Render(" "+label+" "))
		} else {
			tabs = append(tabs, styles.ListNormal.Render(" "+label+" "))
		}
	}
	return strings.Join(tabs, " ")
}

func (m *Model) renderModeLine(w *termWindow) string {
	doc := w.ed.Doc()
	badge := styles.BadgeText.Render("text")
	if doc.Mode == store.ModeCanvas {
		badge = styles.BadgeCanvas.Render("canvas")
	}

	var hist []string
	if w.ed.CanUndo() {
		hist = append(hist, "undo")
	}
	if w.ed.CanRedo() {
		hist = append(hist, "redo")
	}
	histPart := ""
	if len(hist) > 0 {
		histPart = "  " + styles.Muted.Render(strings.Join(hist, "/"))
	}
	return badge + histPart
}

func (m *Model) renderCanvasSummary(payload, content string) string {
	var b strings.Builder
	doc, err := canvas.Parse(payload)
	if err != nil {
		b.WriteString(styles.ToastError.Render("unreadable canvas payload"))
	} else {
		points := 0
		for _, s := range doc.Strokes() {
			points += len(s)
		}
		b.WriteString(fmt.Sprintf("canvas: %d strokes, %d points\n", len(doc.Strokes()), points))
		if m.chain.Enabled() {
			b.WriteString(styles.Muted.Render("ctrl+r: recognize handwriting"))
		}
	}
	if content != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.PanelHeader.Render("recognized text"))
		b.WriteString("\n")
		b.WriteString(content)
	}
	return b.String()
}

func (m *Model) renderPreview(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return styles.Muted.Render("nothing to preview")
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}

func (m *Model) renderFooter() string {
	var hints []string
	switch m.focus {
	case focusList:
		hints = []string{"n new", "enter open", "/ search", "p pin", "X delete", "y/Y yank", "m preview", "q quit"}
	default:
		hints = []string{"tab title/content", "ctrl+t mode", "ctrl+z/y undo/redo", "ctrl+s save", "ctrl+w close", "esc list"}
	}
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = styles.KeyHint.Render(h)
	}
	return strings.Join(parts, " ")
}
