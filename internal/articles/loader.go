package articles

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"lawcode-cli/internal/model"

	"golang.org/x/sync/singleflight"
)

type Status string

const (
	StatusNotLoaded Status = "not-loaded"
	StatusLoading   Status = "loading"
	StatusLoaded    Status = "loaded"
	StatusError     Status = "error"
)

// Fetcher is the subset of the CRUD client the loader needs.
type Fetcher interface {
	ListArticles(ctx context.Context, chapterID string) ([]model.Article, error)
}

// Entry is the per-chapter cache state.
type Entry struct {
	Status Status
	Items  []model.Article
	Err    error
}

// Loader fetches a chapter's articles on first expansion and caches them.
// Concurrent loads of the same chapter share one request; different chapters load independently.
type Loader struct {
	fetch Fetcher
	log   *slog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
	group   singleflight.Group
}

func NewLoader(f Fetcher, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{fetch: f, log: log, entries: map[string]*Entry{}}
}

// Load returns the chapter's articles, fetching them only if they are not cached yet or the
// previous attempt failed. A failed fetch is logged and reported as an empty list plus the error;
// callers render "no articles" rather than blocking the tree.
func (l *Loader) Load(ctx context.Context, chapterID string) ([]model.Article, error) {
	chapterID = strings.TrimSpace(chapterID)

	l.mu.Lock()
	e := l.entry(chapterID)
	if e.Status == StatusLoaded {
		items := append([]model.Article{}, e.Items...)
		l.mu.Unlock()
		return items, nil
	}
	e.Status = StatusLoading
	e.Err = nil
	l.mu.Unlock()

	// The shared fetch outlives any single caller; a caller that gives up only stops waiting.
	fetchCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(chapterID, func() (any, error) {
		// A concurrent caller may have completed the fetch between our status check and here.
		l.mu.Lock()
		if cur := l.entry(chapterID); cur.Status == StatusLoaded {
			items := cur.Items
			l.mu.Unlock()
			return items, nil
		}
		l.mu.Unlock()

		items, err := l.fetch.ListArticles(fetchCtx, chapterID)

		l.mu.Lock()
		defer l.mu.Unlock()
		cur := l.entry(chapterID)
		if err != nil {
			cur.Status = StatusError
			cur.Items = nil
			cur.Err = err
			l.log.Warn("load articles failed", "chapter_id", chapterID, "error", err)
			return nil, err
		}
		if items == nil {
			items = []model.Article{}
		}
		cur.Status = StatusLoaded
		cur.Items = items
		return items, nil
	})

	select {
	case <-ctx.Done():
		return []model.Article{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return []model.Article{}, res.Err
		}
		return append([]model.Article{}, res.Val.([]model.Article)...), nil
	}
}

// Seed marks a chapter as loaded with articles that arrived through another path
// (e.g. nested in the full-tree payload).
func (l *Loader) Seed(chapterID string, items []model.Article) {
	if items == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(strings.TrimSpace(chapterID))
	e.Status = StatusLoaded
	e.Items = append([]model.Article{}, items...)
	e.Err = nil
}

func (l *Loader) State(chapterID string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[strings.TrimSpace(chapterID)]
	if !ok {
		return Entry{Status: StatusNotLoaded}
	}
	return Entry{Status: e.Status, Items: append([]model.Article{}, e.Items...), Err: e.Err}
}

// Retain drops the cache entries of chapters for which keep returns false. Articles are
// read-only here, so a tree reload only forgets chapters that no longer exist.
func (l *Loader) Retain(keep func(chapterID string) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id := range l.entries {
		if !keep(id) {
			delete(l.entries, id)
		}
	}
}

func (l *Loader) entry(id string) *Entry {
	e, ok := l.entries[id]
	if !ok {
		e = &Entry{Status: StatusNotLoaded}
		l.entries[id] = e
	}
	return e
}
