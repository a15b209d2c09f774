package tree

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"lawcode-cli/internal/model"
)

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrChapterNotFound = errors.New("chapter not found")
)

// Location identifies where a chapter currently lives.
type Location struct {
	SectionID string
	Index     int
}

// Store is the optimistic in-memory mirror of a Snapshot. Drag operations mutate it immediately;
// a reload replaces it wholesale.
type Store struct {
	mu       sync.RWMutex
	sections []model.Section
	base     *Snapshot
	version  uint64
}

func NewStore(snap *Snapshot) *Store {
	s := &Store{}
	s.Replace(snap)
	return s
}

// Replace discards all optimistic state and mirrors snap.
func (s *Store) Replace(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = snap
	s.sections = snap.Sections()
	if s.sections == nil {
		s.sections = []model.Section{}
	}
	s.version++
}

// Base returns the snapshot the store was last replaced with.
func (s *Store) Base() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

// Version increases on every mutation; views use it to detect changes.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) Sections() []model.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSections(s.sections)
}

func (s *Store) Section(id string) (model.Section, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.sectionIndex(id)
	if i < 0 {
		return model.Section{}, false
	}
	sec := s.sections[i]
	sec.Chapters = cloneChapters(sec.Chapters)
	return sec, true
}

func (s *Store) Chapter(id string) (model.Chapter, Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	si, ci := s.chapterIndex(id)
	if si < 0 {
		return model.Chapter{}, Location{}, false
	}
	ch := s.sections[si].Chapters[ci]
	if ch.Articles != nil {
		ch.Articles = append([]model.Article{}, ch.Articles...)
	}
	return ch, Location{SectionID: s.sections[si].ID, Index: ci}, true
}

// ChapterIDs returns the chapter ids of a section in display order.
func (s *Store) ChapterIDs(sectionID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.sectionIndex(sectionID)
	if i < 0 {
		return nil
	}
	out := make([]string, 0, len(s.sections[i].Chapters))
	for _, ch := range s.sections[i].Chapters {
		out = append(out, ch.ID)
	}
	return out
}

// Nodes flattens the tree into document order. Articles are included only for chapters
// whose ids are in expanded and whose articles are known.
func (s *Store) Nodes(expanded map[string]bool) []model.Node {
	secs := s.Sections()
	var out []model.Node
	for i := range secs {
		out = append(out, model.SectionNode(&secs[i]))
		for j := range secs[i].Chapters {
			ch := &secs[i].Chapters[j]
			out = append(out, model.ChapterNode(ch))
			if !expanded[ch.ID] {
				continue
			}
			for k := range ch.Articles {
				out = append(out, model.ArticleNode(&ch.Articles[k]))
			}
		}
	}
	return out
}

// MoveWithinSection moves a chapter to toIndex inside its own section and renumbers every
// chapter of that section as 1..N. It returns the new id order; changed is false for no-op moves.
func (s *Store) MoveWithinSection(sectionID, chapterID string, toIndex int) (ids []string, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	si := s.sectionIndex(sectionID)
	if si < 0 {
		return nil, false, fmt.Errorf("%w: %s", ErrSectionNotFound, sectionID)
	}
	chs := s.sections[si].Chapters
	cur := make([]string, 0, len(chs))
	for _, ch := range chs {
		cur = append(cur, ch.ID)
	}
	from := indexOf(cur, chapterID)
	if from < 0 {
		return nil, false, fmt.Errorf("%w: %s in section %s", ErrChapterNotFound, chapterID, sectionID)
	}
	next := ArrayMove(cur, from, toIndex)
	if indexOf(next, chapterID) == from {
		return next, false, nil
	}

	byID := make(map[string]model.Chapter, len(chs))
	for _, ch := range chs {
		byID[ch.ID] = ch
	}
	out := make([]model.Chapter, 0, len(next))
	for i, id := range next {
		ch := byID[id]
		ch.Order = i + 1
		out = append(out, ch)
	}
	s.sections[si].Chapters = out
	s.version++
	return next, true, nil
}

// MoveAcrossSections detaches a chapter from its section and inserts it into toSectionID at
// toIndex with the given order value. Order values of the remaining chapters in either section
// are left as they are.
func (s *Store) MoveAcrossSections(chapterID, toSectionID string, toIndex, order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	si, ci := s.chapterIndex(chapterID)
	if si < 0 {
		return fmt.Errorf("%w: %s", ErrChapterNotFound, chapterID)
	}
	di := s.sectionIndex(toSectionID)
	if di < 0 {
		return fmt.Errorf("%w: %s", ErrSectionNotFound, toSectionID)
	}
	if si == di {
		return errors.New("chapter already belongs to the target section")
	}
	ch := s.sections[si].Chapters[ci]
	src := s.sections[si].Chapters
	s.sections[si].Chapters = append(append([]model.Chapter{}, src[:ci]...), src[ci+1:]...)

	ch.SectionID = s.sections[di].ID
	ch.Order = order
	dst := s.sections[di].Chapters
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(dst) {
		toIndex = len(dst)
	}
	next := make([]model.Chapter, 0, len(dst)+1)
	next = append(next, dst[:toIndex]...)
	next = append(next, ch)
	next = append(next, dst[toIndex:]...)
	s.sections[di].Chapters = next
	s.version++
	return nil
}

// SetArticles records the lazily loaded articles of a chapter. Unknown chapters are ignored.
func (s *Store) SetArticles(chapterID string, arts []model.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	si, ci := s.chapterIndex(chapterID)
	if si < 0 {
		return
	}
	if arts == nil {
		arts = []model.Article{}
	}
	s.sections[si].Chapters[ci].Articles = append([]model.Article{}, arts...)
	s.version++
}

func (s *Store) sectionIndex(id string) int {
	id = strings.TrimSpace(id)
	for i := range s.sections {
		if s.sections[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) chapterIndex(id string) (int, int) {
	id = strings.TrimSpace(id)
	for i := range s.sections {
		for j := range s.sections[i].Chapters {
			if s.sections[i].Chapters[j].ID == id {
				return i, j
			}
		}
	}
	return -1, -1
}
