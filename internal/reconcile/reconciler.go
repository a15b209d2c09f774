package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lawcode-cli/internal/dnd"
	"lawcode-cli/internal/model"
	"lawcode-cli/internal/tree"
)

// Backend is the part of the CRUD service the reconciler writes to and reloads from.
type Backend interface {
	UpdateChapter(ctx context.Context, id string, patch model.ChapterPatch) (model.Chapter, error)
	ListSections(ctx context.Context, withArticles bool) ([]model.Section, error)
}

// PersistError reports the write that failed. The store has already been reloaded from the
// server (unless ReloadErr is set) when this is returned.
type PersistError struct {
	ChapterID string
	Call      int // 1-based index of the failing call
	Total     int
	Err       error
	ReloadErr error
}

func (e *PersistError) Error() string {
	msg := fmt.Sprintf("persist chapter %s (call %d of %d): %v", e.ChapterID, e.Call, e.Total, e.Err)
	if e.ReloadErr != nil {
		msg += fmt.Sprintf("; reload failed: %v", e.ReloadErr)
	}
	return msg
}

func (e *PersistError) Unwrap() error { return e.Err }

type Options struct {
	Logger  *slog.Logger
	Metrics *Metrics
	Queue   *Queue
	Now     func() time.Time
	// OnReload runs after the store was replaced by a fresh server snapshot.
	OnReload func(*tree.Snapshot)
}

// Reconciler applies drops optimistically to a tree.Store and persists them sequentially.
// Any failed write aborts the rest and replaces the store with the server's state.
type Reconciler struct {
	backend  Backend
	store    *tree.Store
	queue    *Queue
	ownQueue bool
	log      *slog.Logger
	metrics  *Metrics
	now      func() time.Time
	onReload func(*tree.Snapshot)
}

func New(b Backend, st *tree.Store, opts Options) *Reconciler {
	r := &Reconciler{
		backend:  b,
		store:    st,
		queue:    opts.Queue,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Now,
		onReload: opts.OnReload,
	}
	if r.queue == nil {
		r.queue = NewQueue(0)
		r.ownQueue = true
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Close stops the queue if the reconciler created it.
func (r *Reconciler) Close() {
	if r.ownQueue {
		r.queue.Close()
	}
}

// Apply resolves, mutates and persists one drop. No-op plans return immediately without
// touching the network.
func (r *Reconciler) Apply(ctx context.Context, chapterID string, res dnd.Resolution) (Plan, error) {
	plan, err := PlanMove(r.store, chapterID, res)
	if err != nil {
		return Plan{}, err
	}
	r.metrics.operation(plan.Kind)
	switch plan.Kind {
	case PlanNoop:
		return plan, nil
	case PlanSameSection:
		if _, _, err := r.store.MoveWithinSection(plan.SectionID, plan.ChapterID, plan.ToIndex); err != nil {
			return plan, err
		}
	case PlanCrossSection:
		if err := r.store.MoveAcrossSections(plan.ChapterID, plan.SectionID, plan.ToIndex, plan.Order); err != nil {
			return plan, err
		}
	default:
		return plan, fmt.Errorf("unknown plan kind %q", plan.Kind)
	}

	err = r.queue.Do(ctx, Command{
		Name: string(plan.Kind) + ":" + plan.ChapterID,
		Run:  func(ctx context.Context) error { return r.persist(ctx, plan) },
	})
	if err == nil {
		return plan, nil
	}

	var pe *PersistError
	if !errors.As(err, &pe) {
		pe = &PersistError{ChapterID: plan.ChapterID, Total: len(plan.Writes), Err: err}
	}
	r.log.Error("reorder persistence failed; reloading tree",
		"chapter_id", plan.ChapterID,
		"kind", string(plan.Kind),
		"call", pe.Call,
		"total", pe.Total,
		"error", pe.Err,
	)
	r.metrics.reload()
	pe.ReloadErr = r.Reload(ctx)
	return plan, pe
}

func (r *Reconciler) persist(ctx context.Context, plan Plan) error {
	for i, w := range plan.Writes {
		if _, err := r.backend.UpdateChapter(ctx, w.ChapterID, w.Patch); err != nil {
			r.metrics.write(false)
			return &PersistError{ChapterID: w.ChapterID, Call: i + 1, Total: len(plan.Writes), Err: err}
		}
		r.metrics.write(true)
	}
	return nil
}

// Reload refetches the full tree and replaces the store wholesale.
func (r *Reconciler) Reload(ctx context.Context) error {
	secs, err := r.backend.ListSections(ctx, false)
	if err != nil {
		r.log.Error("tree reload failed", "error", err)
		return fmt.Errorf("reload tree: %w", err)
	}
	snap := tree.NewSnapshot(secs, r.now())
	r.store.Replace(snap)
	if r.onReload != nil {
		r.onReload(snap)
	}
	return nil
}
