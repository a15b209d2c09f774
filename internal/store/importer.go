package store

import (
	"context"
	"fmt"
	"strings"

	"lawcode-cli/internal/model"
)

// Import replaces the whole database with sections (e.g. a previous export). Missing ids are
// generated; chapters take the id of the section they are nested in.
func (s *DB) Import(ctx context.Context, sections []model.Section) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{`DELETE FROM articles`, `DELETE FROM chapters`, `DELETE FROM sections`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	now := s.stamp()
	for _, sec := range sections {
		sid := strings.TrimSpace(sec.ID)
		if sid == "" {
			sid = newID("sec")
		}
		if strings.Contains(sid, ":") {
			return fmt.Errorf("%w: section id %q must not contain ':'", ErrInvalid, sid)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO sections(id, order_number, title, description, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
			sid, sec.Order, sec.Title, sec.Description, now); err != nil {
			return fmt.Errorf("import section %s: %w", sid, err)
		}
		for _, ch := range sec.Chapters {
			cid := strings.TrimSpace(ch.ID)
			if cid == "" {
				cid = newID("ch")
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO chapters(id, section_id, order_number, title, description, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
				cid, sid, ch.Order, ch.Title, ch.Description, now); err != nil {
				return fmt.Errorf("import chapter %s: %w", cid, err)
			}
			for i, a := range ch.Articles {
				aid := strings.TrimSpace(a.ID)
				if aid == "" {
					aid = newID("art")
				}
				if _, err := tx.ExecContext(ctx, `INSERT INTO articles(id, chapter_id, position, number, title) VALUES(?, ?, ?, ?, ?)`,
					aid, cid, i+1, a.Number, a.Title); err != nil {
					return fmt.Errorf("import article %s: %w", aid, err)
				}
			}
		}
	}
	return tx.Commit()
}

// AddArticle appends an article to a chapter. Articles are read-only through the API; this
// exists for seeding.
func (s *DB) AddArticle(ctx context.Context, chapterID, number, title string) (model.Article, error) {
	chapterID = strings.TrimSpace(chapterID)
	ok, err := s.exists(ctx, "chapters", chapterID)
	if err != nil {
		return model.Article{}, err
	}
	if !ok {
		return model.Article{}, fmt.Errorf("chapter %s: %w", chapterID, ErrNotFound)
	}
	var pos int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM articles WHERE chapter_id = ?`, chapterID).Scan(&pos); err != nil {
		return model.Article{}, err
	}
	a := model.Article{ID: newID("art"), Number: strings.TrimSpace(number), Title: strings.TrimSpace(title)}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO articles(id, chapter_id, position, number, title) VALUES(?, ?, ?, ?, ?)`,
		a.ID, chapterID, pos, a.Number, a.Title); err != nil {
		return model.Article{}, err
	}
	return a, nil
}
