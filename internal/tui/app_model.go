package tui

import (
	"context"
	"log/slog"
	"strings"

	"lawcode-cli/internal/config"
	"lawcode-cli/internal/editor"
	"lawcode-cli/internal/model"
)

type Options struct {
	// Open builds an editor bound to a locale. It is called once at start and again on every
	// locale switch; the returned editor is loaded by the model.
	Open    func(locale string) *editor.Editor
	Locale  string
	Locales []string

	ExportDir    string
	ExportFormat string

	// State is restored after the first successful load; SaveState persists it on quit.
	State     *config.TUIState
	SaveState func(*config.TUIState) error
	Logger    *slog.Logger
}

type appModel struct {
	ctx  context.Context
	opts Options
	log  *slog.Logger
	ed   *editor.Editor
	keys keyMap
	nav  *navigator

	width  int
	height int

	cursor    int
	top       int
	selectKey string
	// restoreKey is a saved selection waiting for its row to appear (articles load async).
	restoreKey string

	mode    mode
	form    *entityForm
	confirm confirmState
	pressed bool

	loading   bool
	loadErr   error
	retryable bool
	restored  bool
	preview   bool
	status    string
	statusErr bool
}

type confirmState struct {
	req   editor.DeleteRequest
	focus confirmFocus
}

func newAppModel(ctx context.Context, opts Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if strings.TrimSpace(opts.ExportFormat) == "" {
		opts.ExportFormat = "json"
	}
	if strings.TrimSpace(opts.ExportDir) == "" {
		opts.ExportDir = "."
	}
	locale := strings.TrimSpace(opts.Locale)
	if locale == "" && len(opts.Locales) > 0 {
		locale = opts.Locales[0]
	}
	return appModel{
		ctx:     ctx,
		opts:    opts,
		log:     opts.Logger,
		ed:      opts.Open(locale),
		keys:    defaultKeyMap(),
		nav:     newNavigator(locale),
		width:   80,
		height:  24,
		loading: true,
	}
}

func nodeKey(n model.Node) string {
	return string(n.Kind) + ":" + n.ID()
}

func (m appModel) selected() (model.Node, bool) {
	nodes := m.ed.Nodes()
	if m.cursor < 0 || m.cursor >= len(nodes) {
		return model.Node{}, false
	}
	return nodes[m.cursor], true
}

// selectedSectionID is the section of the selected row (the section itself, or the section a
// chapter or article belongs to).
func (m appModel) selectedSectionID() string {
	nodes := m.ed.Nodes()
	for i := m.cursor; i >= 0 && i < len(nodes); i-- {
		switch nodes[i].Kind {
		case model.KindSection:
			return nodes[i].Section.ID
		case model.KindChapter:
			return nodes[i].Chapter.SectionID
		}
	}
	return ""
}

// syncCursor re-finds the selected row after the tree changed, clamping when it disappeared.
func (m *appModel) syncCursor() {
	nodes := m.ed.Nodes()
	if m.restoreKey != "" {
		for _, n := range nodes {
			if nodeKey(n) == m.restoreKey {
				m.selectKey, m.restoreKey = m.restoreKey, ""
				break
			}
		}
	}
	if m.selectKey != "" {
		for i, n := range nodes {
			if nodeKey(n) == m.selectKey {
				m.cursor = i
				break
			}
		}
	}
	if m.cursor >= len(nodes) {
		m.cursor = len(nodes) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if len(nodes) > 0 {
		m.selectKey = nodeKey(nodes[m.cursor])
	}
	treeH, _ := m.paneHeights()
	m.top = scrollWindow(m.top, m.cursor, treeH, len(nodes))
}

func (m *appModel) moveCursor(delta int) {
	n := len(m.ed.Nodes())
	if n == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	m.selectKey = ""
	m.restoreKey = ""
	m.syncCursor()
}

func (m *appModel) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *appModel) setError(err error) {
	if err == nil {
		return
	}
	m.status = err.Error()
	m.statusErr = true
}

// blocked explains why mutating input is ignored right now, or returns "".
func (m appModel) blocked() string {
	switch {
	case m.nav.busy():
		return "switching locale" + glyphEllipsis()
	case m.ed.Saving():
		return "saving" + glyphEllipsis()
	case !m.ed.Loaded():
		return "tree not loaded"
	}
	return ""
}

func (m appModel) snapshotState() *config.TUIState {
	return &config.TUIState{
		Version:    1,
		SelectedID: m.selectKey,
		Expanded:   m.ed.ExpandedIDs(),
		Locale:     m.nav.locale,
	}
}

// paneHeights splits the body between the tree and the description preview.
func (m appModel) paneHeights() (treeH, previewH int) {
	body := m.height - headerLines - footerLines
	if body < 1 {
		body = 1
	}
	if !m.preview {
		return body, 0
	}
	previewH = body / 3
	if previewH < 3 {
		return body, 0
	}
	return body - previewH - 1, previewH
}
