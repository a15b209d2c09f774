package reconcile

import (
	"fmt"
	"strings"

	"lawcode-cli/internal/dnd"
	"lawcode-cli/internal/model"
	"lawcode-cli/internal/tree"
)

type PlanKind string

const (
	PlanNoop         PlanKind = "noop"
	PlanSameSection  PlanKind = "same-section"
	PlanCrossSection PlanKind = "cross-section"
)

// Write is one persistence call.
type Write struct {
	ChapterID string
	Patch     model.ChapterPatch
}

// Plan describes how a resolved drop changes the tree and which writes persist it.
type Plan struct {
	Kind      PlanKind
	ChapterID string
	// FromSectionID is the dragged chapter's section before the move.
	FromSectionID string
	SectionID     string
	// ToIndex is the chapter's index in SectionID after the move.
	ToIndex int
	// Order is the order value the moved chapter ends up with.
	Order int
	// IDs is the new chapter order of SectionID (same-section plans only).
	IDs    []string
	Writes []Write
}

// PlanMove computes the effect of dropping chapterID per res against the current store state.
//
// Same-section: the chapter takes the hovered chapter's index (append = last) and every chapter
// in the section is rewritten as 1..N. Cross-section: one write sets section_id and an order of
// target index + 1; no sibling in either section is renumbered.
func PlanMove(st *tree.Store, chapterID string, res dnd.Resolution) (Plan, error) {
	chapterID = strings.TrimSpace(chapterID)
	_, loc, ok := st.Chapter(chapterID)
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", tree.ErrChapterNotFound, chapterID)
	}
	if _, ok := st.Section(res.SectionID); !ok {
		return Plan{}, fmt.Errorf("%w: %s", tree.ErrSectionNotFound, res.SectionID)
	}
	p := Plan{ChapterID: chapterID, FromSectionID: loc.SectionID, SectionID: res.SectionID}

	if loc.SectionID == res.SectionID {
		cur := st.ChapterIDs(res.SectionID)
		from := loc.Index
		to := len(cur) - 1
		if res.Kind == dnd.KindReorder {
			if i := indexOf(cur, res.BeforeChapterID); i >= 0 {
				to = i
			}
		}
		if to == from {
			p.Kind = PlanNoop
			p.ToIndex = from
			return p, nil
		}
		p.Kind = PlanSameSection
		p.IDs = tree.ArrayMove(cur, from, to)
		p.ToIndex = to
		p.Order = to + 1
		p.Writes = make([]Write, 0, len(p.IDs))
		for i, id := range p.IDs {
			p.Writes = append(p.Writes, Write{ChapterID: id, Patch: model.OrderOnly(i + 1)})
		}
		return p, nil
	}

	dest := st.ChapterIDs(res.SectionID)
	to := len(dest)
	if res.Kind == dnd.KindReorder {
		if i := indexOf(dest, res.BeforeChapterID); i >= 0 {
			to = i
		}
	}
	p.Kind = PlanCrossSection
	p.ToIndex = to
	p.Order = to + 1
	p.Writes = []Write{{ChapterID: chapterID, Patch: model.MoveTo(res.SectionID, p.Order)}}
	return p, nil
}

func indexOf(ids []string, id string) int {
	id = strings.TrimSpace(id)
	for i := range ids {
		if ids[i] == id {
			return i
		}
	}
	return -1
}
