package tui

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"lawcode-cli/internal/api"
	"lawcode-cli/internal/dnd"
	"lawcode-cli/internal/editor"
	"lawcode-cli/internal/model"
	"lawcode-cli/internal/reconcile"
)

func (m appModel) Init() tea.Cmd {
	return m.loadCmd(m.ed, m.nav.locale, false)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.syncCursor()
		return m, nil
	case loadedMsg:
		return m.onLoaded(msg)
	case expandedMsg:
		if msg.ed != m.ed {
			return m, nil
		}
		if msg.err != nil && !errors.Is(msg.err, editor.ErrNotFound) {
			m.setError(fmt.Errorf("articles: %w", msg.err))
		}
		m.syncCursor()
		return m, nil
	case savedMsg:
		return m.onSaved(msg)
	case exportedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus("exported " + msg.path)
		}
		return m, nil
	case tea.MouseMsg:
		return m.onMouse(msg)
	case tea.KeyMsg:
		return m.onKey(msg)
	}
	if m.mode == modeForm && m.form != nil {
		return m, m.form.update(msg)
	}
	return m, nil
}

func (m appModel) loadCmd(ed *editor.Editor, locale string, switching bool) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return loadedMsg{ed: ed, locale: locale, switching: switching, err: ed.Load(ctx)}
	}
}

func (m appModel) expandCmd(chapterID string) tea.Cmd {
	ed, ctx := m.ed, m.ctx
	return func() tea.Msg {
		_, err := ed.Expand(ctx, chapterID)
		return expandedMsg{ed: ed, chapterID: chapterID, err: err}
	}
}

func (m appModel) expandAll(ids []string) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, m.expandCmd(id))
	}
	return tea.Batch(cmds...)
}

func (m appModel) onLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	if msg.switching {
		if msg.err != nil {
			msg.ed.Close()
			m.nav.complete(false)
			m.setError(fmt.Errorf("switch to %s: %w", msg.locale, msg.err))
			return m, nil
		}
		expanded := m.ed.ExpandedIDs()
		m.ed.Session().Cancel()
		m.ed.Close()
		m.ed = msg.ed
		m.nav.complete(true)
		m.mode = modeBrowse
		m.form = nil
		m.pressed = false
		m.setStatus("locale: " + msg.locale)
		m.syncCursor()
		return m, m.expandAll(expanded)
	}
	if msg.ed != m.ed {
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		m.loadErr = msg.err
		m.retryable = api.IsTransient(msg.err)
		m.setError(msg.err)
		return m, nil
	}
	m.loadErr = nil
	m.retryable = false
	var cmd tea.Cmd
	if !m.restored {
		m.restored = true
		if st := m.opts.State; st != nil {
			m.restoreKey = st.SelectedID
			cmd = m.expandAll(st.Expanded)
		}
	}
	if m.statusErr {
		m.setStatus("")
	}
	m.syncCursor()
	return m, cmd
}

func (m appModel) onSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.ed != m.ed {
		return m, nil
	}
	if msg.err != nil {
		if m.mode == modeForm && m.form != nil {
			m.form.submitting = false
			m.form.err = msg.err.Error()
			return m, nil
		}
		var pe *reconcile.PersistError
		if errors.As(msg.err, &pe) {
			m.setError(fmt.Errorf("move not saved, tree reloaded from server: %w", pe.Err))
		} else {
			m.setError(msg.err)
		}
		m.syncCursor()
		return m, nil
	}
	if m.mode == modeForm {
		m.mode = modeBrowse
		m.form = nil
	}
	if msg.selectKey != "" {
		m.selectKey = msg.selectKey
	}
	if msg.noop {
		m.setStatus("no change")
	} else {
		m.setStatus(msg.op + ": saved")
	}
	m.syncCursor()
	return m, nil
}

func (m appModel) quit() (tea.Model, tea.Cmd) {
	m.ed.Session().Cancel()
	if m.opts.SaveState != nil && m.ed.Loaded() {
		if err := m.opts.SaveState(m.snapshotState()); err != nil {
			m.log.Warn("save tui state failed", "error", err)
		}
	}
	return m, tea.Quit
}

func (m appModel) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirm:
		return m.updateConfirm(msg)
	case modeDrag:
		return m.updateDrag(msg)
	case modeHelp:
		m.mode = modeBrowse
		return m, nil
	}

	if !m.ed.Loaded() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		case key.Matches(msg, m.keys.Reload) && !m.loading && m.retryable:
			m.loading = true
			m.setStatus("loading" + glyphEllipsis())
			return m, m.loadCmd(m.ed, m.nav.locale, false)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Expand):
		return m.expandSelected(msg.String() == "enter")
	case key.Matches(msg, m.keys.Collapse):
		m.collapseSelected()
	case key.Matches(msg, m.keys.Help):
		m.mode = modeHelp
	case key.Matches(msg, m.keys.Preview):
		m.preview = !m.preview
		m.syncCursor()
	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()
	case key.Matches(msg, m.keys.Locale):
		return m.switchLocale()
	case key.Matches(msg, m.keys.Reload):
		if reason := m.blocked(); reason != "" {
			m.setStatus(reason)
			return m, nil
		}
		m.setStatus("reloading" + glyphEllipsis())
		return m, m.loadCmd(m.ed, m.nav.locale, false)
	case key.Matches(msg, m.keys.Lift), key.Matches(msg, m.keys.NewChap), key.Matches(msg, m.keys.NewSec),
		key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Delete):
		if reason := m.blocked(); reason != "" {
			m.setStatus(reason)
			return m, nil
		}
		return m.mutate(msg)
	}
	return m, nil
}

func (m appModel) expandSelected(toggle bool) (tea.Model, tea.Cmd) {
	n, ok := m.selected()
	if !ok || n.Kind != model.KindChapter {
		return m, nil
	}
	if m.ed.IsExpanded(n.Chapter.ID) {
		if toggle {
			m.ed.Collapse(n.Chapter.ID)
			m.syncCursor()
		}
		return m, nil
	}
	return m, m.expandCmd(n.Chapter.ID)
}

func (m *appModel) collapseSelected() {
	nodes := m.ed.Nodes()
	n, ok := m.selected()
	if !ok {
		return
	}
	switch n.Kind {
	case model.KindChapter:
		m.ed.Collapse(n.Chapter.ID)
	case model.KindArticle:
		for i := m.cursor; i >= 0; i-- {
			if nodes[i].Kind == model.KindChapter {
				m.ed.Collapse(nodes[i].Chapter.ID)
				m.selectKey = nodeKey(nodes[i])
				break
			}
		}
	}
	m.syncCursor()
}

func (m appModel) mutate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n, ok := m.selected()
	switch {
	case key.Matches(msg, m.keys.NewSec):
		m.form = newEntityForm(formNewSection, "", "", "", "", m.ed.NextSectionOrder())
		m.mode = modeForm
		return m, textinput.Blink
	case key.Matches(msg, m.keys.NewChap):
		secID := m.selectedSectionID()
		if secID == "" {
			m.setStatus("create a section first")
			return m, nil
		}
		m.form = newEntityForm(formNewChapter, "", secID, "", "", m.ed.NextChapterOrder(secID))
		m.mode = modeForm
		return m, textinput.Blink
	}
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Lift):
		if n.Kind != model.KindChapter {
			m.setStatus("only chapters can be moved")
			return m, nil
		}
		if err := m.ed.Session().Lift(n.Chapter.SectionID, n.Chapter.ID); err != nil {
			m.setError(err)
			return m, nil
		}
		m.mode = modeDrag
		m.setStatus(fmt.Sprintf("moving %q: up/down choose a target, enter drops, esc cancels", n.Chapter.Title))
	case key.Matches(msg, m.keys.Edit):
		switch n.Kind {
		case model.KindSection:
			s := n.Section
			m.form = newEntityForm(formEditSection, s.ID, "", s.Title, s.Description, s.Order)
		case model.KindChapter:
			c := n.Chapter
			m.form = newEntityForm(formEditChapter, c.ID, c.SectionID, c.Title, c.Description, c.Order)
		default:
			m.setStatus("articles are read-only")
			return m, nil
		}
		m.mode = modeForm
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Delete):
		if n.Kind == model.KindArticle {
			m.setStatus("articles are read-only")
			return m, nil
		}
		req, err := m.ed.RequestDelete(n.Kind, n.ID())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.confirm = confirmState{req: req, focus: confirmFocusCancel}
		m.mode = modeConfirm
	}
	return m, nil
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil {
		m.mode = modeBrowse
		return m, nil
	}
	switch msg.String() {
	case "esc", "ctrl+g":
		m.mode = modeBrowse
		m.form = nil
		m.setStatus("cancelled")
		return m, nil
	case "tab", "down":
		return m, f.focusField(f.focus + 1)
	case "shift+tab", "up":
		return m, f.focusField(f.focus - 1)
	case "enter", "ctrl+s":
		if f.submitting {
			return m, nil
		}
		return m.submitForm()
	}
	return m, f.update(msg)
}

func (m appModel) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	title, desc, order, err := f.values()
	if err != nil {
		f.err = err.Error()
		return m, nil
	}
	if reason := m.blocked(); reason != "" {
		f.err = reason
		return m, nil
	}
	f.err = ""
	f.submitting = true
	ed, ctx := m.ed, m.ctx
	switch f.kind {
	case formNewSection:
		in := model.SectionInput{Order: order, Title: title, Description: desc}
		return m, func() tea.Msg {
			sec, err := ed.CreateSection(ctx, in)
			return savedMsg{ed: ed, op: "create section", selectKey: sectionKey(sec.ID), err: err}
		}
	case formEditSection:
		id := f.id
		in := model.SectionInput{Order: order, Title: title, Description: desc}
		return m, func() tea.Msg {
			_, err := ed.UpdateSection(ctx, id, in)
			return savedMsg{ed: ed, op: "update section", selectKey: sectionKey(id), err: err}
		}
	case formNewChapter:
		in := model.ChapterInput{SectionID: f.sectionID, Order: order, Title: title, Description: desc}
		return m, func() tea.Msg {
			ch, err := ed.CreateChapter(ctx, in)
			return savedMsg{ed: ed, op: "create chapter", selectKey: chapterKey(ch.ID), err: err}
		}
	default:
		id := f.id
		patch := model.ChapterPatch{Title: &title, Description: &desc, Order: &order}
		return m, func() tea.Msg {
			_, err := ed.UpdateChapter(ctx, id, patch)
			return savedMsg{ed: ed, op: "update chapter", selectKey: chapterKey(id), err: err}
		}
	}
}

func sectionKey(id string) string {
	if id == "" {
		return ""
	}
	return string(model.KindSection) + ":" + id
}

func chapterKey(id string) string {
	if id == "" {
		return ""
	}
	return string(model.KindChapter) + ":" + id
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirm.focus == confirmFocusCancel {
			m.confirm.focus = confirmFocusConfirm
		} else {
			m.confirm.focus = confirmFocusCancel
		}
	case "esc", "ctrl+g", "n":
		return m.cancelDelete()
	case "y":
		return m.confirmDelete()
	case "enter":
		if m.confirm.focus == confirmFocusConfirm {
			return m.confirmDelete()
		}
		return m.cancelDelete()
	}
	return m, nil
}

func (m appModel) cancelDelete() (tea.Model, tea.Cmd) {
	m.ed.CancelDelete(m.confirm.req.Token)
	m.confirm = confirmState{}
	m.mode = modeBrowse
	m.setStatus("delete cancelled")
	return m, nil
}

func (m appModel) confirmDelete() (tea.Model, tea.Cmd) {
	req := m.confirm.req
	m.confirm = confirmState{}
	m.mode = modeBrowse
	m.setStatus("deleting " + req.Title + glyphEllipsis())
	ed, ctx := m.ed, m.ctx
	return m, func() tea.Msg {
		err := ed.ConfirmDelete(ctx, req.Token)
		return savedMsg{ed: ed, op: "delete " + string(req.Kind), err: err}
	}
}

func (m appModel) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d, res := m.ed.Session().HandleKey(msg.String())
	switch res {
	case dnd.KeyDropped:
		m.mode = modeBrowse
		m.selectKey = chapterKey(d.ActiveChapterID)
		m.setStatus("saving" + glyphEllipsis())
		return m, m.dropCmd(d)
	case dnd.KeyCancelled:
		m.mode = modeBrowse
		m.setStatus("move cancelled")
	case dnd.KeyMoved:
		m.followHover()
	}
	return m, nil
}

// followHover scrolls so the hovered drop target stays visible.
func (m *appModel) followHover() {
	in, ok := m.ed.Session().Intent()
	if !ok {
		return
	}
	secID, chID, err := dnd.ParseTarget(in.HoveredTargetID)
	if err != nil {
		return
	}
	nodes := m.ed.Nodes()
	row := -1
	for i, n := range nodes {
		if chID != "" && n.Kind == model.KindChapter && n.Chapter.ID == chID {
			row = i
			break
		}
		if chID == "" && n.Kind == model.KindSection && n.Section.ID == secID {
			row = i
			break
		}
	}
	if row < 0 {
		return
	}
	treeH, _ := m.paneHeights()
	m.top = scrollWindow(m.top, row, treeH, len(nodes))
}

func (m appModel) dropCmd(d dnd.Drop) tea.Cmd {
	ed, ctx := m.ed, m.ctx
	return func() tea.Msg {
		plan, err := ed.Drop(ctx, d)
		return savedMsg{
			ed:        ed,
			op:        "move chapter",
			selectKey: chapterKey(d.ActiveChapterID),
			noop:      err == nil && plan.Kind == reconcile.PlanNoop,
			err:       err,
		}
	}
}

func (m appModel) onMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeBrowse || !m.ed.Loaded() {
		return m, nil
	}
	row := msg.Y - headerLines + m.top
	p := editor.RowPoint(row, m.column(msg.X))
	sess := m.ed.Session()

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.moveCursor(-1)
			return m, nil
		case tea.MouseButtonWheelDown:
			m.moveCursor(1)
			return m, nil
		case tea.MouseButtonLeft:
		default:
			return m, nil
		}
		nodes := m.ed.Nodes()
		if row < 0 || row >= len(nodes) {
			return m, nil
		}
		m.cursor = row
		m.selectKey = nodeKey(nodes[row])
		m.syncCursor()
		if nodes[row].Kind != model.KindChapter || m.blocked() != "" {
			return m, nil
		}
		if err := sess.OnPointerDown(nodes[row].Chapter.ID, p); err != nil {
			m.setError(err)
			return m, nil
		}
		m.pressed = true
	case tea.MouseActionMotion:
		if m.pressed {
			sess.OnPointerMove(p)
		}
	case tea.MouseActionRelease:
		if !m.pressed {
			return m, nil
		}
		m.pressed = false
		d, ok := sess.OnPointerUp(p)
		if !ok {
			return m, nil
		}
		m.selectKey = chapterKey(d.ActiveChapterID)
		m.setStatus("saving" + glyphEllipsis())
		return m, m.dropCmd(d)
	}
	return m, nil
}

// column maps a terminal column to a 0..1 position across the row.
func (m appModel) column(x int) float64 {
	if m.width <= 0 {
		return 0
	}
	f := (float64(x) + 0.5) / float64(m.width)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func (m appModel) switchLocale() (tea.Model, tea.Cmd) {
	if m.opts.Open == nil || len(m.opts.Locales) < 2 {
		m.setStatus("no other locale configured")
		return m, nil
	}
	if m.ed.Saving() {
		m.setStatus("saving" + glyphEllipsis())
		return m, nil
	}
	target := m.nav.next(m.opts.Locales)
	started, err := m.nav.begin(target)
	if err != nil {
		m.setStatus(err.Error())
		return m, nil
	}
	if !started {
		return m, nil
	}
	m.ed.Session().Cancel()
	m.pressed = false
	m.setStatus("switching to " + target + glyphEllipsis())
	return m, m.loadCmd(m.opts.Open(target), target, true)
}

func (m appModel) exportCmd() tea.Cmd {
	ed, dir, format := m.ed, m.opts.ExportDir, m.opts.ExportFormat
	return func() tea.Msg {
		var buf bytes.Buffer
		name, err := ed.Export(&buf, format)
		if err != nil {
			return exportedMsg{err: err}
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return exportedMsg{err: fmt.Errorf("write export: %w", err)}
		}
		return exportedMsg{path: path}
	}
}
