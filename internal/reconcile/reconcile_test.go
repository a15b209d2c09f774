package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"lawcode-cli/internal/dnd"
	"lawcode-cli/internal/model"
	"lawcode-cli/internal/tree"
)

type updateCall struct {
	ID    string
	Patch model.ChapterPatch
}

// fakeBackend keeps a server-side copy of the tree and applies successful patches to it.
type fakeBackend struct {
	mu       sync.Mutex
	sections []model.Section
	chapters map[string]model.Chapter
	calls    []updateCall
	failOn   int // 1-based call number that fails; 0 never fails
	lists    int
}

func newFakeBackend(secs []model.Section) *fakeBackend {
	b := &fakeBackend{chapters: map[string]model.Chapter{}}
	for _, s := range secs {
		for _, ch := range s.Chapters {
			ch.SectionID = s.ID
			b.chapters[ch.ID] = ch
		}
		s.Chapters = nil
		b.sections = append(b.sections, s)
	}
	return b
}

func (b *fakeBackend) UpdateChapter(_ context.Context, id string, patch model.ChapterPatch) (model.Chapter, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, updateCall{ID: id, Patch: patch})
	if b.failOn > 0 && len(b.calls) == b.failOn {
		return model.Chapter{}, errors.New("boom")
	}
	ch := b.chapters[id]
	if patch.SectionID != nil {
		ch.SectionID = *patch.SectionID
	}
	if patch.Order != nil {
		ch.Order = *patch.Order
	}
	b.chapters[id] = ch
	return ch, nil
}

func (b *fakeBackend) ListSections(context.Context, bool) ([]model.Section, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	out := make([]model.Section, 0, len(b.sections))
	for _, s := range b.sections {
		s.Chapters = []model.Chapter{}
		for _, ch := range b.chapters {
			if ch.SectionID == s.ID {
				s.Chapters = append(s.Chapters, ch)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func (b *fakeBackend) callsSnapshot() []updateCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]updateCall(nil), b.calls...)
}

func ch(id string, order int) model.Chapter {
	return model.Chapter{ID: id, Order: order, Title: id}
}

func newHarness(t *testing.T, secs []model.Section, opts Options) (*Reconciler, *tree.Store, *fakeBackend) {
	t.Helper()
	b := newFakeBackend(secs)
	initial, _ := b.ListSections(context.Background(), false)
	b.lists = 0
	st := tree.NewStore(tree.NewSnapshot(initial, time.Unix(0, 0)))
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := New(b, st, opts)
	t.Cleanup(r.Close)
	return r, st, b
}

func chapterOrders(t *testing.T, st *tree.Store, sectionID string) map[string]int {
	t.Helper()
	sec, ok := st.Section(sectionID)
	if !ok {
		t.Fatalf("section %s missing", sectionID)
	}
	out := map[string]int{}
	for _, c := range sec.Chapters {
		out[c.ID] = c.Order
	}
	return out
}

func TestApply_SameSectionReorder_RenumbersAndWritesEveryChapter(t *testing.T) {
	r, st, b := newHarness(t, []model.Section{
		{ID: "a", Order: 1, Title: "A", Chapters: []model.Chapter{ch("c1", 1), ch("c2", 2), ch("c3", 3)}},
	}, Options{})

	plan, err := r.Apply(context.Background(), "c2", dnd.Resolution{Kind: dnd.KindReorder, SectionID: "a", BeforeChapterID: "c1"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if plan.Kind != PlanSameSection {
		t.Fatalf("expected same-section plan, got %s", plan.Kind)
	}
	if got := st.ChapterIDs("a"); !equalIDs(got, []string{"c2", "c1", "c3"}) {
		t.Fatalf("unexpected order: %v", got)
	}
	orders := chapterOrders(t, st, "a")
	if orders["c2"] != 1 || orders["c1"] != 2 || orders["c3"] != 3 {
		t.Fatalf("unexpected order values: %v", orders)
	}

	calls := b.callsSnapshot()
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
	wantIDs := []string{"c2", "c1", "c3"}
	for i, c := range calls {
		if c.ID != wantIDs[i] {
			t.Fatalf("call %d: expected %s, got %s", i, wantIDs[i], c.ID)
		}
		if c.Patch.SectionID != nil || c.Patch.Title != nil || c.Patch.Description != nil {
			t.Fatalf("call %d: expected order-only patch, got %+v", i, c.Patch)
		}
		if c.Patch.Order == nil || *c.Patch.Order != i+1 {
			t.Fatalf("call %d: expected order %d", i, i+1)
		}
	}
}

func TestApply_CrossSectionAppend_SingleWrite(t *testing.T) {
	r, st, b := newHarness(t, []model.Section{
		{ID: "a", Order: 1, Chapters: []model.Chapter{ch("c1", 1)}},
		{ID: "b", Order: 2, Chapters: []model.Chapter{ch("c2", 1), ch("c3", 2)}},
	}, Options{})

	if _, err := r.Apply(context.Background(), "c1", dnd.Resolution{Kind: dnd.KindAppend, SectionID: "b", CrossSection: true}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	calls := b.callsSnapshot()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	p := calls[0].Patch
	if calls[0].ID != "c1" || p.SectionID == nil || *p.SectionID != "b" || p.Order == nil || *p.Order != 3 {
		t.Fatalf("unexpected call: %+v", calls[0])
	}
	if p.Title != nil || p.Description != nil {
		t.Fatalf("cross-section write must not carry title/description")
	}

	orders := chapterOrders(t, st, "b")
	if orders["c2"] != 1 || orders["c3"] != 2 || orders["c1"] != 3 {
		t.Fatalf("unexpected orders in b: %v", orders)
	}
	if ids := st.ChapterIDs("a"); len(ids) != 0 {
		t.Fatalf("expected a to be empty, got %v", ids)
	}
	moved, loc, _ := st.Chapter("c1")
	if moved.SectionID != "b" || loc.SectionID != "b" {
		t.Fatalf("chapter should belong to b, got %+v %+v", moved, loc)
	}
}

func TestApply_CrossSectionBeforeChapter_LeavesSiblingOrders(t *testing.T) {
	r, st, b := newHarness(t, []model.Section{
		{ID: "a", Order: 1, Chapters: []model.Chapter{ch("c1", 1), ch("c4", 2)}},
		{ID: "b", Order: 2, Chapters: []model.Chapter{ch("c2", 1), ch("c3", 2)}},
	}, Options{})

	if _, err := r.Apply(context.Background(), "c1", dnd.Resolution{Kind: dnd.KindReorder, SectionID: "b", BeforeChapterID: "c2", CrossSection: true}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if n := len(b.callsSnapshot()); n != 1 {
		t.Fatalf("expected one call, got %d", n)
	}
	if got := st.ChapterIDs("b"); !equalIDs(got, []string{"c1", "c2", "c3"}) {
		t.Fatalf("unexpected b order: %v", got)
	}
	// Siblings keep their values in both sections, producing a duplicate order 1 in b and a gap in a.
	orders := chapterOrders(t, st, "b")
	if orders["c1"] != 1 || orders["c2"] != 1 || orders["c3"] != 2 {
		t.Fatalf("unexpected orders in b: %v", orders)
	}
	if got := chapterOrders(t, st, "a"); got["c4"] != 2 {
		t.Fatalf("source sibling should keep its order, got %v", got)
	}
}

func TestApply_NoopDrop_MakesNoCalls(t *testing.T) {
	r, st, b := newHarness(t, []model.Section{
		{ID: "a", Order: 1, Chapters: []model.Chapter{ch("c1", 1), ch("c2", 2)}},
	}, Options{})
	before := st.Version()

	cases := []dnd.Resolution{
		{Kind: dnd.KindReorder, SectionID: "a", BeforeChapterID: "c2"},
		{Kind: dnd.KindAppend, SectionID: "a"},
	}
	for _, res := range cases {
		plan, err := r.Apply(context.Background(), "c2", res)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if plan.Kind != PlanNoop {
			t.Fatalf("expected noop, got %s", plan.Kind)
		}
	}
	if n := len(b.callsSnapshot()); n != 0 {
		t.Fatalf("expected no calls, got %d", n)
	}
	if st.Version() != before {
		t.Fatalf("noop must not mutate the store")
	}
}

func TestApply_FailureAbortsAndReloads(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	var reloaded *tree.Snapshot
	r, st, b := newHarness(t, []model.Section{
		{ID: "a", Order: 1, Chapters: []model.Chapter{ch("c1", 1), ch("c2", 2), ch("c3", 3)}},
	}, Options{Metrics: m, OnReload: func(s *tree.Snapshot) { reloaded = s }})
	b.failOn = 2

	_, err := r.Apply(context.Background(), "c2", dnd.Resolution{Kind: dnd.KindReorder, SectionID: "a", BeforeChapterID: "c1"})
	var pe *PersistError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistError, got %v", err)
	}
	if pe.Call != 2 || pe.Total != 3 || pe.ChapterID != "c1" || pe.ReloadErr != nil {
		t.Fatalf("unexpected persist error: %+v", pe)
	}
	if n := len(b.callsSnapshot()); n != 2 {
		t.Fatalf("remaining writes must be skipped, got %d calls", n)
	}
	if b.lists != 1 || reloaded == nil {
		t.Fatalf("expected exactly one reload, lists=%d", b.lists)
	}

	server, _ := b.ListSections(context.Background(), false)
	want := tree.NewSnapshot(server, time.Unix(0, 0)).Sections()
	got := st.Sections()
	if len(got) != 1 || len(got[0].Chapters) != len(want[0].Chapters) {
		t.Fatalf("unexpected reloaded tree: %+v", got)
	}
	for i := range want[0].Chapters {
		w, g := want[0].Chapters[i], got[0].Chapters[i]
		if w.ID != g.ID || w.Order != g.Order {
			t.Fatalf("chapter %d: store %s/%d, server %s/%d", i, g.ID, g.Order, w.ID, w.Order)
		}
	}

	if v := testutil.ToFloat64(m.reloads); v != 1 {
		t.Fatalf("expected one reload counted, got %v", v)
	}
	if v := testutil.ToFloat64(m.writes.WithLabelValues("error")); v != 1 {
		t.Fatalf("expected one failed write, got %v", v)
	}
	if v := testutil.ToFloat64(m.writes.WithLabelValues("ok")); v != 1 {
		t.Fatalf("expected one successful write, got %v", v)
	}
}

func TestApply_UnknownChapter(t *testing.T) {
	r, _, b := newHarness(t, []model.Section{{ID: "a", Order: 1}}, Options{})
	_, err := r.Apply(context.Background(), "ghost", dnd.Resolution{Kind: dnd.KindAppend, SectionID: "a"})
	if !errors.Is(err, tree.ErrChapterNotFound) {
		t.Fatalf("expected ErrChapterNotFound, got %v", err)
	}
	if len(b.callsSnapshot()) != 0 {
		t.Fatalf("expected no calls")
	}
}

func TestQueue_RunsInSubmissionOrder(t *testing.T) {
	q := NewQueue(4)
	defer q.Close()

	release := make(chan struct{})
	var mu sync.Mutex
	var order []string
	record := func(name string) Command {
		return Command{Name: name, Run: func(context.Context) error {
			if name == "first" {
				<-release
			}
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}}
	}

	ctx := context.Background()
	d1 := q.Enqueue(ctx, record("first"))
	d2 := q.Enqueue(ctx, record("second"))
	d3 := q.Enqueue(ctx, record("third"))
	close(release)
	for _, d := range []<-chan error{d1, d2, d3} {
		if err := <-d; err != nil {
			t.Fatalf("command failed: %v", err)
		}
	}
	if !equalIDs(order, []string{"first", "second", "third"}) {
		t.Fatalf("unexpected execution order: %v", order)
	}
}

func TestQueue_ClosedRejects(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	q.Close()
	err := q.Do(context.Background(), Command{Name: "late", Run: func(context.Context) error { return nil }})
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestQueue_CancelledContextSkipsRun(t *testing.T) {
	q := NewQueue(1)
	defer q.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	err := q.Do(ctx, Command{Name: "x", Run: func(context.Context) error { ran = true; return nil }})
	if err == nil || ran {
		t.Fatalf("expected cancelled command to be skipped, err=%v ran=%v", err, ran)
	}
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
