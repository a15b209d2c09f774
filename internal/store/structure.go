package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lawcode-cli/internal/model"
)

// ListSections returns every section ordered by order_number, each with its chapters nested.
// Articles are nested only when withArticles is set.
func (s *DB) ListSections(ctx context.Context, withArticles bool) ([]model.Section, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, order_number, title, description FROM sections ORDER BY order_number, id`)
	if err != nil {
		return nil, err
	}
	out := []model.Section{}
	index := map[string]int{}
	for rows.Next() {
		var sec model.Section
		if err := rows.Scan(&sec.ID, &sec.Order, &sec.Title, &sec.Description); err != nil {
			rows.Close()
			return nil, err
		}
		sec.Chapters = []model.Chapter{}
		index[sec.ID] = len(out)
		out = append(out, sec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	chapters, err := s.listChapters(ctx, "")
	if err != nil {
		return nil, err
	}
	var byChapter map[string][]model.Article
	if withArticles {
		if byChapter, err = s.articlesByChapter(ctx); err != nil {
			return nil, err
		}
	}
	for _, ch := range chapters {
		i, ok := index[ch.SectionID]
		if !ok {
			continue
		}
		if withArticles {
			ch.Articles = byChapter[ch.ID]
			if ch.Articles == nil {
				ch.Articles = []model.Article{}
			}
		}
		out[i].Chapters = append(out[i].Chapters, ch)
	}
	return out, nil
}

func (s *DB) listChapters(ctx context.Context, sectionID string) ([]model.Chapter, error) {
	q := `SELECT id, section_id, order_number, title, description FROM chapters`
	var args []any
	if sectionID != "" {
		q += ` WHERE section_id = ?`
		args = append(args, sectionID)
	}
	q += ` ORDER BY section_id, order_number, id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Chapter
	for rows.Next() {
		var ch model.Chapter
		if err := rows.Scan(&ch.ID, &ch.SectionID, &ch.Order, &ch.Title, &ch.Description); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (s *DB) articlesByChapter(ctx context.Context) (map[string][]model.Article, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chapter_id, id, number, title FROM articles ORDER BY chapter_id, position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]model.Article{}
	for rows.Next() {
		var chapterID string
		var a model.Article
		if err := rows.Scan(&chapterID, &a.ID, &a.Number, &a.Title); err != nil {
			return nil, err
		}
		out[chapterID] = append(out[chapterID], a)
	}
	return out, rows.Err()
}

// ListArticles returns a chapter's articles in position order.
func (s *DB) ListArticles(ctx context.Context, chapterID string) ([]model.Article, error) {
	chapterID = strings.TrimSpace(chapterID)
	if ok, err := s.exists(ctx, "chapters", chapterID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("chapter %s: %w", chapterID, ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, number, title FROM articles WHERE chapter_id = ? ORDER BY position, id`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Article{}
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ID, &a.Number, &a.Title); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *DB) exists(ctx context.Context, table, id string) (bool, error) {
	var n int
	// table is always a package constant.
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+table+` WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func checkSectionInput(in model.SectionInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if in.Order < 1 {
		return fmt.Errorf("%w: order_number must be at least 1", ErrInvalid)
	}
	return nil
}

func (s *DB) CreateSection(ctx context.Context, in model.SectionInput) (model.Section, error) {
	if err := checkSectionInput(in); err != nil {
		return model.Section{}, err
	}
	sec := model.Section{
		ID:          newID("sec"),
		Order:       in.Order,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Chapters:    []model.Chapter{},
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO sections(id, order_number, title, description, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		sec.ID, sec.Order, sec.Title, sec.Description, s.stamp())
	if err != nil {
		return model.Section{}, err
	}
	return sec, nil
}

func (s *DB) UpdateSection(ctx context.Context, id string, in model.SectionInput) (model.Section, error) {
	id = strings.TrimSpace(id)
	if err := checkSectionInput(in); err != nil {
		return model.Section{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sections SET order_number = ?, title = ?, description = ?, updated_at_unixms = ? WHERE id = ?`,
		in.Order, strings.TrimSpace(in.Title), strings.TrimSpace(in.Description), s.stamp(), id)
	if err != nil {
		return model.Section{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Section{}, fmt.Errorf("section %s: %w", id, ErrNotFound)
	}
	return s.section(ctx, id)
}

func (s *DB) section(ctx context.Context, id string) (model.Section, error) {
	var sec model.Section
	err := s.db.QueryRowContext(ctx, `SELECT id, order_number, title, description FROM sections WHERE id = ?`, id).
		Scan(&sec.ID, &sec.Order, &sec.Title, &sec.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Section{}, fmt.Errorf("section %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Section{}, err
	}
	chs, err := s.listChapters(ctx, id)
	if err != nil {
		return model.Section{}, err
	}
	if chs == nil {
		chs = []model.Chapter{}
	}
	sec.Chapters = chs
	return sec, nil
}

// DeleteSection removes a section with its chapters and articles. Remaining sections keep
// their order values.
func (s *DB) DeleteSection(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	res, err := s.db.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("section %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *DB) CreateChapter(ctx context.Context, in model.ChapterInput) (model.Chapter, error) {
	in.SectionID = strings.TrimSpace(in.SectionID)
	if strings.TrimSpace(in.Title) == "" {
		return model.Chapter{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if in.Order < 1 {
		return model.Chapter{}, fmt.Errorf("%w: order_number must be at least 1", ErrInvalid)
	}
	ok, err := s.exists(ctx, "sections", in.SectionID)
	if err != nil {
		return model.Chapter{}, err
	}
	if !ok {
		return model.Chapter{}, fmt.Errorf("%w: unknown section %q", ErrInvalid, in.SectionID)
	}
	ch := model.Chapter{
		ID:          newID("ch"),
		SectionID:   in.SectionID,
		Order:       in.Order,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO chapters(id, section_id, order_number, title, description, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
		ch.ID, ch.SectionID, ch.Order, ch.Title, ch.Description, s.stamp())
	if err != nil {
		return model.Chapter{}, err
	}
	return ch, nil
}

func (s *DB) chapter(ctx context.Context, id string) (model.Chapter, error) {
	var ch model.Chapter
	err := s.db.QueryRowContext(ctx, `SELECT id, section_id, order_number, title, description FROM chapters WHERE id = ?`, id).
		Scan(&ch.ID, &ch.SectionID, &ch.Order, &ch.Title, &ch.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Chapter{}, fmt.Errorf("chapter %s: %w", id, ErrNotFound)
	}
	return ch, err
}

// UpdateChapter applies the fields present in patch. Sibling order values are never touched.
func (s *DB) UpdateChapter(ctx context.Context, id string, patch model.ChapterPatch) (model.Chapter, error) {
	id = strings.TrimSpace(id)
	if patch.Empty() {
		return model.Chapter{}, fmt.Errorf("%w: empty update", ErrInvalid)
	}
	ch, err := s.chapter(ctx, id)
	if err != nil {
		return model.Chapter{}, err
	}
	if patch.SectionID != nil {
		sid := strings.TrimSpace(*patch.SectionID)
		ok, err := s.exists(ctx, "sections", sid)
		if err != nil {
			return model.Chapter{}, err
		}
		if !ok {
			return model.Chapter{}, fmt.Errorf("%w: unknown section %q", ErrInvalid, sid)
		}
		ch.SectionID = sid
	}
	if patch.Order != nil {
		if *patch.Order < 1 {
			return model.Chapter{}, fmt.Errorf("%w: order_number must be at least 1", ErrInvalid)
		}
		ch.Order = *patch.Order
	}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return model.Chapter{}, fmt.Errorf("%w: title is required", ErrInvalid)
		}
		ch.Title = t
	}
	if patch.Description != nil {
		ch.Description = strings.TrimSpace(*patch.Description)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE chapters SET section_id = ?, order_number = ?, title = ?, description = ?, updated_at_unixms = ? WHERE id = ?`,
		ch.SectionID, ch.Order, ch.Title, ch.Description, s.stamp(), id)
	if err != nil {
		return model.Chapter{}, err
	}
	return ch, nil
}

// DeleteChapter removes a chapter and its articles without renumbering siblings.
func (s *DB) DeleteChapter(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	res, err := s.db.ExecContext(ctx, `DELETE FROM chapters WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("chapter %s: %w", id, ErrNotFound)
	}
	return nil
}
