package editor

import (
	"lawcode-cli/internal/dnd"
	"lawcode-cli/internal/model"
)

// Row geometry used to map the terminal tree onto drag coordinates.
const (
	RowHeight = 10.0
	RowWidth  = 800.0
)

// RowRect is the rectangle of the visible row at index i.
func RowRect(i int) dnd.Rect {
	return dnd.Rect{X: 0, Y: float64(i) * RowHeight, W: RowWidth, H: RowHeight}
}

// RowPoint is the centre of column col (0..1 of RowWidth) on row i.
func RowPoint(i int, col float64) dnd.Point {
	return dnd.Point{X: col * RowWidth, Y: float64(i)*RowHeight + RowHeight/2}
}

// rowLayout lays the visible nodes out one per row. Each chapter row is a slot; each section
// spans its header and all rows below it up to the next section, forming its container.
// Droppables are listed section by section: the chapter slots, then the container (append).
type rowLayout struct {
	e *Editor
}

func (l *rowLayout) Droppables() []dnd.Candidate {
	nodes := l.e.Nodes()
	var out []dnd.Candidate
	start, secID := -1, ""
	closeSection := func(end int) {
		if start < 0 {
			return
		}
		r := RowRect(start)
		r.H = float64(end-start) * RowHeight
		out = append(out, dnd.Candidate{ID: dnd.SectionContainerID(secID), Rect: r})
	}
	for i, n := range nodes {
		switch n.Kind {
		case model.KindSection:
			closeSection(i)
			start, secID = i, n.Section.ID
		case model.KindChapter:
			out = append(out, dnd.Candidate{ID: dnd.ChapterSlotID(n.Chapter.SectionID, n.Chapter.ID), Rect: RowRect(i)})
		}
	}
	closeSection(len(nodes))
	return out
}

func (l *rowLayout) ChapterRect(chapterID string) (dnd.Rect, bool) {
	for i, n := range l.e.Nodes() {
		if n.Kind == model.KindChapter && n.Chapter.ID == chapterID {
			return RowRect(i), true
		}
	}
	return dnd.Rect{}, false
}
