package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"lawcode-cli/internal/articles"
	"lawcode-cli/internal/dnd"
	"lawcode-cli/internal/model"
)

// footerLines is the status line plus the key hint line.
const footerLines = 2

func (m appModel) View() string {
	w, h := m.width, m.height
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}
	bodyH := h - headerLines - footerLines
	if bodyH < 1 {
		bodyH = 1
	}

	var body string
	switch {
	case !m.ed.Loaded() && m.loadErr != nil && !m.loading:
		body = m.viewLoadError(w)
	case !m.ed.Loaded():
		body = styleMuted().Render("Loading the legal code structure" + glyphEllipsis())
	default:
		body = m.viewBody(w)
	}

	switch m.mode {
	case modeForm:
		if m.form != nil {
			body = lipgloss.Place(w, bodyH, lipgloss.Center, lipgloss.Center, m.form.view(w))
		}
	case modeConfirm:
		body = lipgloss.Place(w, bodyH, lipgloss.Center, lipgloss.Center, m.viewConfirm(w))
	case modeHelp:
		body = lipgloss.Place(w, bodyH, lipgloss.Center, lipgloss.Center, m.viewHelp(w))
	}

	return strings.Join([]string{
		m.viewHeader(w),
		normalizePane(body, w, bodyH),
		m.viewFooter(w),
	}, "\n")
}

func (m appModel) viewHeader(w int) string {
	left := styleHeader().Render("Legal code structure")
	right := m.nav.locale
	if at := m.ed.SyncedAt(); m.ed.Loaded() && !at.IsZero() {
		right = "synced " + at.Format("15:04") + "  " + right
	}
	switch {
	case m.nav.busy():
		right = m.nav.locale + " → " + m.nav.target + glyphEllipsis()
	case m.ed.Saving():
		right = "saving" + glyphEllipsis() + "  " + m.nav.locale
	}
	right = styleMuted().Render(right)
	gap := w - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return truncate(left+strings.Repeat(" ", gap)+right, w)
}

func (m appModel) viewFooter(w int) string {
	status := m.status
	if m.statusErr {
		status = styleError().Render(status)
	}
	var hints string
	switch m.mode {
	case modeDrag:
		hints = "↑/↓ target   enter drop   esc cancel"
	case modeForm, modeConfirm:
		hints = ""
	default:
		hints = renderBindings(m.keys.shortHelp(), "  ")
	}
	return truncate(status, w) + "\n" + truncate(styleMuted().Render(hints), w)
}

func renderBindings(bs []key.Binding, sep string) string {
	parts := make([]string, 0, len(bs))
	for _, b := range bs {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, sep)
}

// viewLoadError offers a retry only for failures a retry can fix (network, 5xx, 429).
func (m appModel) viewLoadError(w int) string {
	hint := "r: retry   q: quit"
	if !m.retryable {
		hint = "check the API URL, token and locale, then restart   q: quit"
	}
	lines := []string{
		styleError().Render("Could not load the legal code structure."),
		"",
		lipgloss.NewStyle().Width(w).Render(m.loadErr.Error()),
		"",
		styleMuted().Render(hint),
	}
	return strings.Join(lines, "\n")
}

func (m appModel) viewBody(w int) string {
	treeH, previewH := m.paneHeights()
	tree := m.viewTree(w, treeH)
	if previewH == 0 {
		return tree
	}
	sep := styleMuted().Render(strings.Repeat("─", w))
	return tree + "\n" + sep + "\n" + m.viewPreview(w, previewH)
}

func (m appModel) viewTree(w, h int) string {
	nodes := m.ed.Nodes()
	if len(nodes) == 0 {
		return styleMuted().Render("No sections yet. Press N to create one.")
	}
	intent, dragging := m.ed.Session().Intent()
	end := m.top + h
	if end > len(nodes) {
		end = len(nodes)
	}
	lines := make([]string, 0, end-m.top)
	for i := m.top; i < end; i++ {
		lines = append(lines, m.renderRow(i, nodes[i], intent, dragging, w))
	}
	return normalizePane(strings.Join(lines, "\n"), w, h)
}

func (m appModel) renderRow(i int, n model.Node, in dnd.Intent, dragging bool, w int) string {
	var line string
	hovered := false
	switch n.Kind {
	case model.KindSection:
		s := n.Section
		line = styleSection().Render(fmt.Sprintf("%s %d  %s", glyphSection(), s.Order, s.Title))
		line += styleMuted().Render(fmt.Sprintf("  (%d)", len(s.Chapters)))
		if dragging && in.HoveredTargetID == dnd.SectionContainerID(s.ID) {
			line += "  " + styleDropTarget().Render(glyphDropHere()+" append")
			hovered = true
		}
	case model.KindChapter:
		c := n.Chapter
		glyph := glyphCollapsed()
		if m.ed.IsExpanded(c.ID) {
			glyph = glyphExpanded()
		}
		prefix := "  "
		if dragging && in.HoveredTargetID == dnd.ChapterSlotID(c.SectionID, c.ID) {
			prefix = styleDropTarget().Render(glyphDropHere()) + " "
			hovered = true
		}
		body := fmt.Sprintf("%s %d. %s", glyph, c.Order, c.Title)
		if dragging && in.ActiveChapterID == c.ID {
			body = styleMuted().Render(glyphLifted() + " " + body)
		}
		line = prefix + body + m.articleHint(c.ID)
	case model.KindArticle:
		a := n.Article
		line = fmt.Sprintf("      Art. %s  %s", a.Number, a.Title)
	}
	line = truncate(line, w)
	if i == m.cursor && !hovered && m.mode != modeDrag {
		return styleSelected().Render(padRight(line, w))
	}
	return line
}

func (m appModel) articleHint(chapterID string) string {
	if !m.ed.IsExpanded(chapterID) {
		return ""
	}
	st := m.ed.ArticleState(chapterID)
	switch st.Status {
	case articles.StatusLoading, articles.StatusNotLoaded:
		return styleMuted().Render("  loading" + glyphEllipsis())
	case articles.StatusError:
		return styleError().Render("  articles unavailable")
	case articles.StatusLoaded:
		if len(st.Items) == 0 {
			return styleMuted().Render("  no articles")
		}
	}
	return ""
}

func padRight(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func (m appModel) viewPreview(w, h int) string {
	n, ok := m.selected()
	if !ok {
		return ""
	}
	var desc string
	switch n.Kind {
	case model.KindSection:
		desc = n.Section.Description
	case model.KindChapter:
		desc = n.Chapter.Description
	}
	if strings.TrimSpace(desc) == "" {
		return normalizePane(styleMuted().Render("No description."), w, h)
	}
	return normalizePane(renderMarkdown(desc, w-2), w, h)
}

func (m appModel) viewConfirm(w int) string {
	req := m.confirm.req
	var title, body string
	switch req.Kind {
	case model.KindSection:
		title = "Delete section"
		body = fmt.Sprintf("Delete section %q?", req.Title)
		if req.Chapters > 0 {
			body += fmt.Sprintf(" Its %d chapter(s) are deleted with it.", req.Chapters)
		}
	default:
		title = "Delete chapter"
		body = fmt.Sprintf("Delete chapter %q?", req.Title)
	}
	return renderConfirmModal(w, title, body, "Delete", "Cancel", m.confirm.focus)
}

func (m appModel) viewHelp(w int) string {
	lines := make([]string, 0, len(m.keys.fullHelp())+2)
	for _, b := range m.keys.fullHelp() {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("%-10s %s", h.Key, h.Desc))
	}
	lines = append(lines, "", styleMuted().Render("Mouse: press a chapter and drag it onto another chapter or section."))
	lines = append(lines, styleMuted().Render("Press any key to close."))
	return renderModalBox(w, "Keys", strings.Join(lines, "\n"))
}
