package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"lawcode-cli/internal/articles"
	"lawcode-cli/internal/dnd"
	"lawcode-cli/internal/format"
	"lawcode-cli/internal/model"
	"lawcode-cli/internal/reconcile"
	"lawcode-cli/internal/tree"
)

// Service is the CRUD collaborator. *api.Client satisfies it.
type Service interface {
	ListSections(ctx context.Context, withArticles bool) ([]model.Section, error)
	ListArticles(ctx context.Context, chapterID string) ([]model.Article, error)
	CreateSection(ctx context.Context, in model.SectionInput) (model.Section, error)
	UpdateSection(ctx context.Context, id string, in model.SectionInput) (model.Section, error)
	DeleteSection(ctx context.Context, id string) error
	CreateChapter(ctx context.Context, in model.ChapterInput) (model.Chapter, error)
	UpdateChapter(ctx context.Context, id string, patch model.ChapterPatch) (model.Chapter, error)
	DeleteChapter(ctx context.Context, id string) error
}

type Options struct {
	Logger  *slog.Logger
	Metrics *reconcile.Metrics
	Now     func() time.Time
	// WithArticles asks the full-tree fetch to nest articles, seeding the cache up front.
	WithArticles bool
}

// Editor owns the structure editing session: the optimistic tree, the article cache,
// the drag session and the persistence pipeline.
type Editor struct {
	svc          Service
	log          *slog.Logger
	now          func() time.Time
	withArticles bool

	store   *tree.Store
	loader  *articles.Loader
	rec     *reconcile.Reconciler
	session *dnd.Session
	saving  atomic.Bool

	mu       sync.Mutex
	loaded   bool
	expanded map[string]bool
	pending  map[string]DeleteRequest
}

func New(svc Service, opts Options) *Editor {
	e := &Editor{
		svc:          svc,
		log:          opts.Logger,
		now:          opts.Now,
		withArticles: opts.WithArticles,
		expanded:     map[string]bool{},
		pending:      map[string]DeleteRequest{},
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.store = tree.NewStore(tree.NewSnapshot(nil, time.Time{}))
	e.loader = articles.NewLoader(svc, e.log)
	e.rec = reconcile.New(svc, e.store, reconcile.Options{
		Logger:   e.log,
		Metrics:  opts.Metrics,
		Now:      e.now,
		OnReload: e.afterReload,
	})
	e.session = dnd.NewSession(&rowLayout{e: e})
	return e
}

// Close stops the write queue and releases the service's idle connections when it has any.
func (e *Editor) Close() {
	e.rec.Close()
	if c, ok := e.svc.(interface{ Close() }); ok {
		c.Close()
	}
}

// Load fetches the full tree and replaces everything held locally. On failure the previous
// tree (empty on first load) is kept; callers offer a retry.
func (e *Editor) Load(ctx context.Context) error {
	secs, err := e.svc.ListSections(ctx, e.withArticles)
	if err != nil {
		return fmt.Errorf("load tree: %w", err)
	}
	snap := tree.NewSnapshot(secs, e.now())
	e.store.Replace(snap)
	e.afterReload(snap)
	e.mu.Lock()
	e.loaded = true
	e.mu.Unlock()
	return nil
}

// afterReload reconciles the article cache and the expanded set with a fresh snapshot. Cached
// articles of chapters that still exist are put back on the new tree; nothing is refetched.
func (e *Editor) afterReload(snap *tree.Snapshot) {
	present := map[string]bool{}
	for _, sec := range snap.Sections() {
		for _, ch := range sec.Chapters {
			present[ch.ID] = true
			if ch.Articles != nil {
				e.loader.Seed(ch.ID, ch.Articles)
			}
		}
	}
	e.loader.Retain(func(id string) bool { return present[id] })
	for id := range present {
		if st := e.loader.State(id); st.Status == articles.StatusLoaded {
			e.store.SetArticles(id, st.Items)
		}
	}
	e.mu.Lock()
	for id := range e.expanded {
		if !present[id] {
			delete(e.expanded, id)
		}
	}
	e.mu.Unlock()
}

func (e *Editor) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *Editor) Store() *tree.Store        { return e.store }
func (e *Editor) Session() *dnd.Session     { return e.session }
func (e *Editor) Sections() []model.Section { return e.store.Sections() }
func (e *Editor) Version() uint64           { return e.store.Version() }
func (e *Editor) Saving() bool              { return e.saving.Load() }

// SyncedAt is when the tree was last replaced by the server's state (zero before the first load).
func (e *Editor) SyncedAt() time.Time { return e.store.Base().FetchedAt() }

// Nodes returns the visible rows in document order.
func (e *Editor) Nodes() []model.Node {
	return e.store.Nodes(e.expandedSet())
}

func (e *Editor) expandedSet() map[string]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]bool, len(e.expanded))
	for id := range e.expanded {
		out[id] = true
	}
	return out
}

func (e *Editor) IsExpanded(chapterID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded[strings.TrimSpace(chapterID)]
}

// ExpandedIDs returns the expanded chapter ids, sorted.
func (e *Editor) ExpandedIDs() []string {
	set := e.expandedSet()
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Expand shows a chapter's articles, fetching them on first use. A failed fetch leaves the
// chapter expanded with no articles and returns the error for display.
func (e *Editor) Expand(ctx context.Context, chapterID string) ([]model.Article, error) {
	chapterID = strings.TrimSpace(chapterID)
	if _, _, ok := e.store.Chapter(chapterID); !ok {
		return nil, fmt.Errorf("chapter %s: %w", chapterID, ErrNotFound)
	}
	e.mu.Lock()
	e.expanded[chapterID] = true
	e.mu.Unlock()
	items, err := e.loader.Load(ctx, chapterID)
	if err != nil && ctx.Err() != nil {
		// The fetch continues for other callers; its result lands on the next Expand or reload.
		return items, err
	}
	e.store.SetArticles(chapterID, items)
	return items, err
}

func (e *Editor) Collapse(chapterID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.expanded, strings.TrimSpace(chapterID))
}

// ArticleState exposes the cache state of a chapter (rendering "loading" or "no articles").
func (e *Editor) ArticleState(chapterID string) articles.Entry {
	return e.loader.State(chapterID)
}

// Drop persists a completed drag. Drops without a target are ignored.
func (e *Editor) Drop(ctx context.Context, d dnd.Drop) (reconcile.Plan, error) {
	if strings.TrimSpace(d.TargetID) == "" {
		return reconcile.Plan{Kind: reconcile.PlanNoop, ChapterID: d.ActiveChapterID}, nil
	}
	return e.Move(ctx, d.ActiveChapterID, d.TargetID)
}

// Move resolves targetID (a chapter slot or section container id) and applies the move.
func (e *Editor) Move(ctx context.Context, chapterID, targetID string) (reconcile.Plan, error) {
	if !e.saving.CompareAndSwap(false, true) {
		return reconcile.Plan{}, ErrSaving
	}
	defer e.saving.Store(false)

	res, err := dnd.Resolve(e.sectionOf, chapterID, targetID)
	if err != nil {
		return reconcile.Plan{}, err
	}
	return e.rec.Apply(ctx, chapterID, res)
}

func (e *Editor) sectionOf(chapterID string) (string, bool) {
	_, loc, ok := e.store.Chapter(chapterID)
	return loc.SectionID, ok
}

// Export writes the current in-memory tree and returns the file name it should be saved as.
func (e *Editor) Export(w io.Writer, formatName string) (string, error) {
	now := e.now()
	name, err := format.ExportFileName(now, formatName)
	if err != nil {
		return "", err
	}
	if err := format.WriteExport(w, e.store.Sections(), now, formatName); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return name, nil
}

// refetch replaces the tree after a successful create/update/delete.
func (e *Editor) refetch(ctx context.Context) error {
	if err := e.Load(ctx); err != nil {
		e.log.Warn("refetch after write failed", "error", err)
		return err
	}
	return nil
}
