package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"lawcode-cli/internal/api"
	"lawcode-cli/internal/config"
	"lawcode-cli/internal/editor"
	"lawcode-cli/internal/model"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

type fakeService struct {
	mu       sync.Mutex
	sections []model.Section
	next     int

	listFails int
	listErr   error
	calls     map[string]int

	// When set, UpdateChapter signals entered (buffered) and waits for release.
	entered chan struct{}
	release chan struct{}
}

func newFakeService(sectionTitle string) *fakeService {
	return &fakeService{
		calls: map[string]int{},
		sections: []model.Section{
			{ID: "a", Order: 1, Title: sectionTitle + " A", Chapters: []model.Chapter{
				{ID: "c1", Order: 1, Title: "One", SectionID: "a", Description: "First **chapter**"},
				{ID: "c2", Order: 2, Title: "Two", SectionID: "a"},
				{ID: "c3", Order: 3, Title: "Three", SectionID: "a"},
			}},
			{ID: "b", Order: 2, Title: sectionTitle + " B", Chapters: []model.Chapter{
				{ID: "c4", Order: 1, Title: "Four", SectionID: "b"},
			}},
		},
	}
}

func (f *fakeService) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeService) ListSections(ctx context.Context, withArticles bool) ([]model.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListSections"]++
	if f.listFails > 0 {
		f.listFails--
		if f.listErr != nil {
			return nil, f.listErr
		}
		return nil, &api.TransportError{Method: "GET", Path: "/sections", Err: errors.New("connection refused")}
	}
	out := make([]model.Section, len(f.sections))
	for i, s := range f.sections {
		s.Chapters = append([]model.Chapter(nil), s.Chapters...)
		sort.SliceStable(s.Chapters, func(x, y int) bool { return s.Chapters[x].Order < s.Chapters[y].Order })
		out[i] = s
	}
	sort.SliceStable(out, func(x, y int) bool { return out[x].Order < out[y].Order })
	return out, nil
}

func (f *fakeService) ListArticles(ctx context.Context, chapterID string) ([]model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListArticles"]++
	if chapterID == "c1" {
		return []model.Article{{ID: "a1", Number: "1", Title: "Scope"}}, nil
	}
	return []model.Article{}, nil
}

func (f *fakeService) CreateSection(ctx context.Context, in model.SectionInput) (model.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateSection"]++
	f.next++
	s := model.Section{ID: "s" + strconv.Itoa(f.next), Order: in.Order, Title: in.Title, Description: in.Description}
	f.sections = append(f.sections, s)
	return s, nil
}

func (f *fakeService) UpdateSection(ctx context.Context, id string, in model.SectionInput) (model.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["UpdateSection"]++
	for i := range f.sections {
		if f.sections[i].ID == id {
			f.sections[i].Order, f.sections[i].Title, f.sections[i].Description = in.Order, in.Title, in.Description
			return f.sections[i], nil
		}
	}
	return model.Section{}, errors.New("not found")
}

func (f *fakeService) DeleteSection(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteSection"]++
	for i := range f.sections {
		if f.sections[i].ID == id {
			f.sections = append(f.sections[:i], f.sections[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeService) CreateChapter(ctx context.Context, in model.ChapterInput) (model.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateChapter"]++
	f.next++
	ch := model.Chapter{ID: "n" + strconv.Itoa(f.next), Order: in.Order, Title: in.Title, SectionID: in.SectionID}
	for i := range f.sections {
		if f.sections[i].ID == in.SectionID {
			f.sections[i].Chapters = append(f.sections[i].Chapters, ch)
			return ch, nil
		}
	}
	return model.Chapter{}, errors.New("section not found")
}

func (f *fakeService) UpdateChapter(ctx context.Context, id string, p model.ChapterPatch) (model.Chapter, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["UpdateChapter"]++
	for si := range f.sections {
		for ci, ch := range f.sections[si].Chapters {
			if ch.ID != id {
				continue
			}
			if p.Order != nil {
				ch.Order = *p.Order
			}
			if p.Title != nil {
				ch.Title = *p.Title
			}
			if p.SectionID != nil && *p.SectionID != ch.SectionID {
				ch.SectionID = *p.SectionID
				f.sections[si].Chapters = append(f.sections[si].Chapters[:ci], f.sections[si].Chapters[ci+1:]...)
				for ti := range f.sections {
					if f.sections[ti].ID == ch.SectionID {
						f.sections[ti].Chapters = append(f.sections[ti].Chapters, ch)
					}
				}
				return ch, nil
			}
			f.sections[si].Chapters[ci] = ch
			return ch, nil
		}
	}
	return model.Chapter{}, errors.New("not found")
}

func (f *fakeService) DeleteChapter(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteChapter"]++
	for si := range f.sections {
		for ci := range f.sections[si].Chapters {
			if f.sections[si].Chapters[ci].ID == id {
				f.sections[si].Chapters = append(f.sections[si].Chapters[:ci], f.sections[si].Chapters[ci+1:]...)
				return nil
			}
		}
	}
	return errors.New("not found")
}

func (f *fakeService) chapterIDs(sectionID string) []string {
	secs, _ := f.ListSections(context.Background(), false)
	for _, s := range secs {
		if s.ID == sectionID {
			var ids []string
			for _, c := range s.Chapters {
				ids = append(ids, c.ID)
			}
			return ids
		}
	}
	return nil
}

func openerFor(svcs map[string]*fakeService) func(string) *editor.Editor {
	return func(locale string) *editor.Editor {
		return editor.New(svcs[locale], editor.Options{})
	}
}

// run executes cmd and feeds every resulting message back into the model. Batches are
// expanded; quit and blink messages are dropped.
func run(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil, tea.QuitMsg:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = run(t, m, c)
		}
		return m
	case loadedMsg, expandedMsg, savedMsg, exportedMsg:
		next, cmd := m.Update(msg)
		return run(t, next.(appModel), cmd)
	}
	return m
}

func press(t *testing.T, m appModel, keys ...tea.KeyMsg) (appModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(appModel)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
)

func newLoadedModel(t *testing.T, opts Options) appModel {
	t.Helper()
	m := newAppModel(context.Background(), opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = run(t, next.(appModel), m.Init())
	if !m.ed.Loaded() {
		t.Fatalf("expected tree loaded, status=%q", m.status)
	}
	return m
}

func TestApp_LoadAndRender(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	out := m.View()
	for _, want := range []string{"§ 1  Part A", "§ 2  Part B", "1. One", "3. Three", "1. Four", "synced "} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
}

func TestApp_LoadFailure_ShowsRetryAndRecovers(t *testing.T) {
	svc := newFakeService("Part")
	svc.listFails = 1
	m := newAppModel(context.Background(), Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})
	m = run(t, m, m.Init())
	if m.ed.Loaded() || m.loadErr == nil {
		t.Fatalf("expected load error")
	}
	if out := m.View(); !strings.Contains(out, "r: retry") {
		t.Fatalf("expected retry hint, got:\n%s", out)
	}

	m, cmd := press(t, m, runes("r"))
	m = run(t, m, cmd)
	if !m.ed.Loaded() || m.loadErr != nil {
		t.Fatalf("expected loaded after retry, err=%v", m.loadErr)
	}
}

func TestApp_LoadFailure_NotRetryableOnAuthError(t *testing.T) {
	svc := newFakeService("Part")
	svc.listFails = 1
	svc.listErr = &api.StatusError{Method: "GET", Path: "/sections", Code: 401, Body: "unauthorized"}
	m := newAppModel(context.Background(), Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})
	m = run(t, m, m.Init())
	if m.loadErr == nil || m.retryable {
		t.Fatalf("expected a non-retryable load error, got err=%v retryable=%v", m.loadErr, m.retryable)
	}
	out := m.View()
	if strings.Contains(out, "r: retry") || !strings.Contains(out, "status 401") {
		t.Fatalf("expected plain error without retry hint, got:\n%s", out)
	}

	m, cmd := press(t, m, runes("r"))
	if cmd != nil {
		t.Fatalf("r must not reload after an auth failure")
	}
	if got := svc.count("ListSections"); got != 1 {
		t.Fatalf("expected a single list call, got %d", got)
	}
}

func TestApp_ExpandShowsArticles(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	m, cmd := press(t, m, keyDown, runes("l"))
	m = run(t, m, cmd)
	if out := m.View(); !strings.Contains(out, "Art. 1  Scope") {
		t.Fatalf("expected article row, got:\n%s", out)
	}

	// Collapse and expand again: served from cache.
	m, _ = press(t, m, runes("h"))
	m, cmd = press(t, m, runes("l"))
	m = run(t, m, cmd)
	if got := svc.count("ListArticles"); got != 1 {
		t.Fatalf("expected one article fetch, got %d", got)
	}
}

func TestApp_KeyboardMove_ReordersWithinSection(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	m, _ = press(t, m, keyDown, keySpace)
	if m.mode != modeDrag {
		t.Fatalf("expected drag mode, got %v", m.mode)
	}
	m, _ = press(t, m, keyDown)
	if out := m.View(); !strings.Contains(out, glyphDropHere()+" "+glyphCollapsed()+" 2. Two") {
		t.Fatalf("expected drop marker on Two, got:\n%s", out)
	}
	m, cmd := press(t, m, keyEnter)
	m = run(t, m, cmd)

	if got := svc.chapterIDs("a"); strings.Join(got, ",") != "c2,c1,c3" {
		t.Fatalf("server order = %v", got)
	}
	if m.mode != modeBrowse || m.selectKey != "chapter:c1" {
		t.Fatalf("mode=%v select=%q", m.mode, m.selectKey)
	}
	if got := svc.count("UpdateChapter"); got != 3 {
		t.Fatalf("expected 3 order writes, got %d", got)
	}
}

func TestApp_KeyboardMove_EscCancels(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	m, _ = press(t, m, keyDown, keySpace, keyDown, keyEsc)
	if m.mode != modeBrowse {
		t.Fatalf("expected browse mode")
	}
	if got := svc.count("UpdateChapter"); got != 0 {
		t.Fatalf("expected no writes, got %d", got)
	}
}

func TestApp_MouseDrag_AppendsToOtherSection(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	// Rows: 0 Part A, 1 One, 2 Two, 3 Three, 4 Part B, 5 Four. Screen y = row + header.
	mouse := func(y int, a tea.MouseAction) tea.MouseMsg {
		return tea.MouseMsg{X: 10, Y: y + headerLines, Action: a, Button: tea.MouseButtonLeft}
	}
	next, _ := m.Update(mouse(1, tea.MouseActionPress))
	m = next.(appModel)
	next, _ = m.Update(mouse(3, tea.MouseActionMotion))
	m = next.(appModel)
	next, _ = m.Update(mouse(4, tea.MouseActionMotion))
	m = next.(appModel)
	if out := m.View(); !strings.Contains(out, glyphDropHere()+" append") {
		t.Fatalf("expected section B highlighted, got:\n%s", out)
	}
	next, cmd := m.Update(mouse(4, tea.MouseActionRelease))
	m = run(t, next.(appModel), cmd)

	if got := svc.chapterIDs("b"); strings.Join(got, ",") != "c4,c1" {
		t.Fatalf("section b = %v", got)
	}
	if got := svc.count("UpdateChapter"); got != 1 {
		t.Fatalf("expected a single write, got %d", got)
	}
}

func TestApp_MouseClick_SelectsWithoutMoving(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	next, _ := m.Update(tea.MouseMsg{X: 10, Y: 3 + headerLines, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = next.(appModel)
	next, cmd := m.Update(tea.MouseMsg{X: 10, Y: 3 + headerLines, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	m = next.(appModel)
	if cmd != nil {
		t.Fatalf("click should not persist anything")
	}
	if m.selectKey != "chapter:c3" {
		t.Fatalf("select = %q", m.selectKey)
	}
}

func TestApp_MutationsIgnoredWhileSaving(t *testing.T) {
	svc := newFakeService("Part")
	svc.entered = make(chan struct{}, 8)
	svc.release = make(chan struct{})
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	m, _ = press(t, m, keyDown, keySpace, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := press(t, m, keyEnter)

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	<-svc.entered

	m, _ = press(t, m, runes("N"))
	if m.mode == modeForm {
		t.Fatalf("form opened while saving")
	}
	if !strings.Contains(m.status, "saving") {
		t.Fatalf("status = %q", m.status)
	}

	// Let the three writes through.
	close(svc.release)
	next, _ := m.Update(<-done)
	m = next.(appModel)
	if m.statusErr {
		t.Fatalf("unexpected error: %s", m.status)
	}
}

func TestApp_NewSection_ValidationKeepsFormOpen(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	m, _ = press(t, m, runes("N"))
	if m.mode != modeForm || m.form.kind != formNewSection {
		t.Fatalf("expected new section form")
	}
	if got := m.form.inputs[fieldOrder].Value(); got != "3" {
		t.Fatalf("default order = %q", got)
	}
	m, cmd := press(t, m, keyEnter)
	m = run(t, m, cmd)
	if m.mode != modeForm || !strings.Contains(m.form.err, "title") {
		t.Fatalf("expected inline title error, mode=%v err=%q", m.mode, m.form.err)
	}
	if got := svc.count("CreateSection"); got != 0 {
		t.Fatalf("expected no create call, got %d", got)
	}

	// Non-numeric order is rejected without a command.
	m, _ = press(t, m, runes("Part C"), keyTab, keyTab)
	m.form.inputs[fieldOrder].SetValue("x")
	m, cmd = press(t, m, keyEnter)
	if cmd != nil || !strings.Contains(m.form.err, "order_number") {
		t.Fatalf("expected order error, err=%q", m.form.err)
	}
}

func TestApp_NewChapter_CreatesInSelectedSection(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	// Select section B, open the chapter form and type a title.
	m, _ = press(t, m, keyDown, keyDown, keyDown, keyDown)
	m, _ = press(t, m, runes("n"))
	if m.mode != modeForm || m.form.sectionID != "b" {
		t.Fatalf("expected chapter form for b, got %+v", m.form)
	}
	m, _ = press(t, m, runes("Five"))
	m, cmd := press(t, m, keyEnter)
	m = run(t, m, cmd)

	if m.mode != modeBrowse {
		t.Fatalf("form still open: %q", m.form.err)
	}
	if got := svc.chapterIDs("b"); len(got) != 2 {
		t.Fatalf("section b = %v", got)
	}
	if n, ok := m.selected(); !ok || n.Kind != model.KindChapter || n.Chapter.Title != "Five" {
		t.Fatalf("expected new chapter selected, got %+v", n)
	}
}

func TestApp_EditChapter_UpdatesTitle(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	m, _ = press(t, m, keyDown, runes("e"))
	if m.mode != modeForm || m.form.kind != formEditChapter {
		t.Fatalf("expected edit chapter form")
	}
	m.form.inputs[fieldTitle].SetValue("Uno")
	m, cmd := press(t, m, keyEnter)
	m = run(t, m, cmd)
	if out := m.View(); !strings.Contains(out, "1. Uno") {
		t.Fatalf("expected renamed chapter, got:\n%s", out)
	}
}

func TestApp_EditKeepsExpandedArticles(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	m, cmd := press(t, m, keyDown, runes("l"))
	m = run(t, m, cmd)
	m, _ = press(t, m, runes("e"))
	m.form.inputs[fieldTitle].SetValue("Uno")
	m, cmd = press(t, m, keyEnter)
	m = run(t, m, cmd)

	out := m.View()
	if !strings.Contains(out, "1. Uno") || !strings.Contains(out, "Art. 1  Scope") {
		t.Fatalf("expected renamed chapter with its articles, got:\n%s", out)
	}
	if strings.Contains(out, "loading") {
		t.Fatalf("expanded chapter must not fall back to loading:\n%s", out)
	}
	if got := svc.count("ListArticles"); got != 1 {
		t.Fatalf("expected one article fetch, got %d", got)
	}
}

func TestApp_DeleteSection_ConfirmThenRefetch(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	m, _ = press(t, m, runes("d"))
	if m.mode != modeConfirm || m.confirm.req.Chapters != 3 {
		t.Fatalf("expected confirm for section a, got %+v", m.confirm.req)
	}
	if out := m.View(); !strings.Contains(out, "3 chapter(s)") {
		t.Fatalf("expected chapter count in modal:\n%s", out)
	}
	if got := svc.count("DeleteSection"); got != 0 {
		t.Fatalf("deleted before confirmation")
	}
	m, cmd := press(t, m, runes("y"))
	m = run(t, m, cmd)
	if got := svc.count("DeleteSection"); got != 1 {
		t.Fatalf("expected one delete, got %d", got)
	}
	if out := m.View(); strings.Contains(out, "Part A") {
		t.Fatalf("section A still shown:\n%s", out)
	}
}

func TestApp_DeleteChapter_Cancel(t *testing.T) {
	svc := newFakeService("Part")
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en"})

	m, _ = press(t, m, keyDown, runes("d"), keyEnter)
	if m.mode != modeBrowse {
		t.Fatalf("enter on cancel should close the modal")
	}
	m, _ = press(t, m, runes("d"), keyEsc)
	if got := svc.count("DeleteChapter"); got != 0 {
		t.Fatalf("expected no delete, got %d", got)
	}
}

func TestApp_LocaleSwitch_BlocksMutationsUntilLoaded(t *testing.T) {
	en, de := newFakeService("Part"), newFakeService("Teil")
	m := newLoadedModel(t, Options{
		Open:    openerFor(map[string]*fakeService{"en": en, "de": de}),
		Locale:  "en",
		Locales: []string{"en", "de"},
	})

	m, cmd := press(t, m, runes("L"))
	if !m.nav.busy() {
		t.Fatalf("expected transitioning navigator")
	}
	m, _ = press(t, m, runes("N"))
	if m.mode == modeForm {
		t.Fatalf("form opened during locale switch")
	}
	m, second := press(t, m, runes("L"))
	if second != nil {
		t.Fatalf("second switch should be rejected")
	}

	m = run(t, m, cmd)
	if m.nav.busy() || m.nav.locale != "de" {
		t.Fatalf("nav = %+v", m.nav)
	}
	if out := m.View(); !strings.Contains(out, "Teil A") {
		t.Fatalf("expected german tree:\n%s", out)
	}
}

func TestApp_Export_WritesFile(t *testing.T) {
	svc := newFakeService("Part")
	dir := t.TempDir()
	m := newLoadedModel(t, Options{Open: openerFor(map[string]*fakeService{"en": svc}), Locale: "en", ExportDir: dir})

	m, cmd := press(t, m, runes("x"))
	m = run(t, m, cmd)
	if m.statusErr || !strings.HasPrefix(m.status, "exported ") {
		t.Fatalf("status = %q", m.status)
	}
	path := strings.TrimPrefix(m.status, "exported ")
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "legal-code-structure-") {
		t.Fatalf("path = %q", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(b), `"Part A"`) {
		t.Fatalf("export missing section: %s", b)
	}
}

func TestApp_QuitSavesAndRestoresState(t *testing.T) {
	svc := newFakeService("Part")
	var saved *config.TUIState
	opts := Options{
		Open:      openerFor(map[string]*fakeService{"en": svc}),
		Locale:    "en",
		SaveState: func(st *config.TUIState) error { saved = st; return nil },
	}
	m := newLoadedModel(t, opts)
	m, cmd := press(t, m, keyDown, runes("l"))
	m = run(t, m, cmd)
	m, _ = press(t, m, keyDown, keyDown, keyUp, runes("q"))
	if saved == nil {
		t.Fatalf("state not saved")
	}
	if saved.SelectedID != "article:a1" || len(saved.Expanded) != 1 || saved.Expanded[0] != "c1" {
		t.Fatalf("saved = %+v", saved)
	}

	opts.State = saved
	m = newLoadedModel(t, opts)
	if !m.ed.IsExpanded("c1") || m.selectKey != "article:a1" {
		t.Fatalf("state not restored: expanded=%v select=%q", m.ed.ExpandedIDs(), m.selectKey)
	}
}
