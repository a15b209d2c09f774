package tree

import (
	"time"

	"lawcode-cli/internal/model"
)

// Snapshot is the Section -> Chapter -> Article hierarchy as last fetched from the backend.
// It is never mutated after construction; accessors return copies.
type Snapshot struct {
	sections  []model.Section
	fetchedAt time.Time
}

func NewSnapshot(sections []model.Section, fetchedAt time.Time) *Snapshot {
	cp := cloneSections(sections)
	SortSections(cp)
	for i := range cp {
		for j := range cp[i].Chapters {
			// The wire format nests chapters under their section; trust the nesting.
			if cp[i].Chapters[j].SectionID == "" {
				cp[i].Chapters[j].SectionID = cp[i].ID
			}
		}
		SortChapters(cp[i].Chapters)
	}
	return &Snapshot{sections: cp, fetchedAt: fetchedAt}
}

func (s *Snapshot) Sections() []model.Section {
	if s == nil {
		return nil
	}
	return cloneSections(s.sections)
}

// FetchedAt is when the backend returned this tree.
func (s *Snapshot) FetchedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.fetchedAt
}

func cloneSections(in []model.Section) []model.Section {
	if in == nil {
		return nil
	}
	out := make([]model.Section, len(in))
	for i := range in {
		out[i] = in[i]
		out[i].Chapters = cloneChapters(in[i].Chapters)
	}
	return out
}

func cloneChapters(in []model.Chapter) []model.Chapter {
	if in == nil {
		return []model.Chapter{}
	}
	out := make([]model.Chapter, len(in))
	for i := range in {
		out[i] = in[i]
		if in[i].Articles != nil {
			out[i].Articles = append([]model.Article{}, in[i].Articles...)
		}
	}
	return out
}
