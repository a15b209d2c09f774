package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"lawcode-cli/internal/model"
)

// DeleteRequest is an armed, not yet confirmed delete.
type DeleteRequest struct {
	Token string
	Kind  model.Kind
	ID    string
	Title string
	// Chapters is the number of chapters removed along with a section.
	Chapters int
}

func (e *Editor) begin() error {
	if !e.saving.CompareAndSwap(false, true) {
		return ErrSaving
	}
	return nil
}

func (e *Editor) end() { e.saving.Store(false) }

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "required")
	}
	return nil
}

func validateOrder(order int) error {
	if order < 1 {
		return invalid("order_number", "must be at least 1")
	}
	return nil
}

func normalizeSection(in model.SectionInput) (model.SectionInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateTitle(in.Title); err != nil {
		return in, err
	}
	if err := validateOrder(in.Order); err != nil {
		return in, err
	}
	return in, nil
}

// NextSectionOrder is the order value a new section appended at the end would get.
func (e *Editor) NextSectionOrder() int {
	top := 0
	for _, s := range e.store.Sections() {
		if s.Order > top {
			top = s.Order
		}
	}
	return top + 1
}

// NextChapterOrder is the order value for a chapter appended to sectionID.
func (e *Editor) NextChapterOrder(sectionID string) int {
	sec, ok := e.store.Section(sectionID)
	if !ok {
		return 1
	}
	top := 0
	for _, ch := range sec.Chapters {
		if ch.Order > top {
			top = ch.Order
		}
	}
	return top + 1
}

func (e *Editor) CreateSection(ctx context.Context, in model.SectionInput) (model.Section, error) {
	in, err := normalizeSection(in)
	if err != nil {
		return model.Section{}, err
	}
	if err := e.begin(); err != nil {
		return model.Section{}, err
	}
	defer e.end()
	sec, err := e.svc.CreateSection(ctx, in)
	if err != nil {
		return model.Section{}, fmt.Errorf("create section: %w", err)
	}
	return sec, e.refetch(ctx)
}

func (e *Editor) UpdateSection(ctx context.Context, id string, in model.SectionInput) (model.Section, error) {
	id = strings.TrimSpace(id)
	if _, ok := e.store.Section(id); !ok {
		return model.Section{}, fmt.Errorf("section %s: %w", id, ErrNotFound)
	}
	in, err := normalizeSection(in)
	if err != nil {
		return model.Section{}, err
	}
	if err := e.begin(); err != nil {
		return model.Section{}, err
	}
	defer e.end()
	sec, err := e.svc.UpdateSection(ctx, id, in)
	if err != nil {
		return model.Section{}, fmt.Errorf("update section: %w", err)
	}
	return sec, e.refetch(ctx)
}

func (e *Editor) CreateChapter(ctx context.Context, in model.ChapterInput) (model.Chapter, error) {
	in.SectionID = strings.TrimSpace(in.SectionID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.SectionID == "" {
		return model.Chapter{}, invalid("section_id", "required")
	}
	if _, ok := e.store.Section(in.SectionID); !ok {
		return model.Chapter{}, invalid("section_id", "unknown section "+in.SectionID)
	}
	if err := validateTitle(in.Title); err != nil {
		return model.Chapter{}, err
	}
	if err := validateOrder(in.Order); err != nil {
		return model.Chapter{}, err
	}
	if err := e.begin(); err != nil {
		return model.Chapter{}, err
	}
	defer e.end()
	ch, err := e.svc.CreateChapter(ctx, in)
	if err != nil {
		return model.Chapter{}, fmt.Errorf("create chapter: %w", err)
	}
	return ch, e.refetch(ctx)
}

// UpdateChapter sends only the fields set in patch.
func (e *Editor) UpdateChapter(ctx context.Context, id string, patch model.ChapterPatch) (model.Chapter, error) {
	id = strings.TrimSpace(id)
	if _, _, ok := e.store.Chapter(id); !ok {
		return model.Chapter{}, fmt.Errorf("chapter %s: %w", id, ErrNotFound)
	}
	if patch.Empty() {
		return model.Chapter{}, invalid("patch", "nothing to update")
	}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if err := validateTitle(t); err != nil {
			return model.Chapter{}, err
		}
		patch.Title = &t
	}
	if patch.Description != nil {
		d := strings.TrimSpace(*patch.Description)
		patch.Description = &d
	}
	if patch.Order != nil {
		if err := validateOrder(*patch.Order); err != nil {
			return model.Chapter{}, err
		}
	}
	if patch.SectionID != nil {
		sid := strings.TrimSpace(*patch.SectionID)
		if _, ok := e.store.Section(sid); !ok {
			return model.Chapter{}, invalid("section_id", "unknown section "+sid)
		}
		patch.SectionID = &sid
	}
	if err := e.begin(); err != nil {
		return model.Chapter{}, err
	}
	defer e.end()
	ch, err := e.svc.UpdateChapter(ctx, id, patch)
	if err != nil {
		return model.Chapter{}, fmt.Errorf("update chapter: %w", err)
	}
	return ch, e.refetch(ctx)
}

// RequestDelete arms a delete of a section or chapter. Nothing is sent until ConfirmDelete is
// called with the returned token.
func (e *Editor) RequestDelete(kind model.Kind, id string) (DeleteRequest, error) {
	id = strings.TrimSpace(id)
	req := DeleteRequest{Token: uuid.NewString(), Kind: kind, ID: id}
	switch kind {
	case model.KindSection:
		sec, ok := e.store.Section(id)
		if !ok {
			return DeleteRequest{}, fmt.Errorf("section %s: %w", id, ErrNotFound)
		}
		req.Title = sec.Title
		req.Chapters = len(sec.Chapters)
	case model.KindChapter:
		ch, _, ok := e.store.Chapter(id)
		if !ok {
			return DeleteRequest{}, fmt.Errorf("chapter %s: %w", id, ErrNotFound)
		}
		req.Title = ch.Title
	default:
		return DeleteRequest{}, fmt.Errorf("cannot delete %s", kind)
	}
	e.mu.Lock()
	e.pending[req.Token] = req
	e.mu.Unlock()
	return req, nil
}

// CancelDelete forgets an armed delete.
func (e *Editor) CancelDelete(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, strings.TrimSpace(token))
}

// ConfirmDelete performs an armed delete and refetches the tree. Remaining siblings keep the
// order values the server reports.
func (e *Editor) ConfirmDelete(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	e.mu.Lock()
	req, ok := e.pending[token]
	e.mu.Unlock()
	if !ok {
		return ErrNotConfirmed
	}
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	e.mu.Lock()
	delete(e.pending, token)
	e.mu.Unlock()

	var err error
	switch req.Kind {
	case model.KindSection:
		err = e.svc.DeleteSection(ctx, req.ID)
	case model.KindChapter:
		err = e.svc.DeleteChapter(ctx, req.ID)
	}
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", req.Kind, req.ID, err)
	}
	return e.refetch(ctx)
}
