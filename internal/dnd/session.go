package dnd

import (
	"errors"
	"strings"
	"sync"
)

// ActivationDistance is how far the pointer must travel from the press point before a press
// becomes a drag. Shorter movements are treated as clicks.
const ActivationDistance = 8.0

type State int

const (
	StateIdle State = iota
	StatePressed
	StateDragging
)

func (s State) String() string {
	switch s {
	case StatePressed:
		return "pressed"
	case StateDragging:
		return "dragging"
	default:
		return "idle"
	}
}

var ErrSessionActive = errors.New("a drag is already in progress")

// Layout supplies the current geometry of the editor. Droppables must be returned in document
// order; keyboard navigation walks them in that order.
type Layout interface {
	Droppables() []Candidate
	ChapterRect(chapterID string) (Rect, bool)
}

// Backend is the event surface a host (terminal UI, test harness) drives.
type Backend interface {
	OnPointerDown(chapterID string, p Point) error
	OnPointerMove(p Point)
	OnPointerUp(p Point) (Drop, bool)
	ResolveCollision(candidates []Candidate) string
}

// Intent is the ephemeral state of an active drag.
type Intent struct {
	ActiveChapterID string
	HoveredTargetID string
}

// Drop is the outcome of a completed drag. TargetID is empty for drops outside any target.
type Drop struct {
	ActiveChapterID string
	TargetID        string
}

// Session tracks at most one pointer- or keyboard-driven drag.
type Session struct {
	mu     sync.Mutex
	layout Layout

	state      State
	activeID   string
	origin     Point
	pointer    Point
	activeRect Rect
	hoverID    string
	keyboard   bool
}

var _ Backend = (*Session)(nil)

func NewSession(layout Layout) *Session {
	return &Session{layout: layout}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Intent returns the current drag intent; ok is false unless a drag is active.
func (s *Session) Intent() (Intent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDragging {
		return Intent{}, false
	}
	return Intent{ActiveChapterID: s.activeID, HoveredTargetID: s.hoverID}, true
}

// OnPointerDown arms the session for chapterID. The drag itself starts once the pointer has
// moved past ActivationDistance.
func (s *Session) OnPointerDown(chapterID string, p Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrSessionActive
	}
	chapterID = strings.TrimSpace(chapterID)
	if chapterID == "" {
		return errors.New("missing chapter id")
	}
	s.state = StatePressed
	s.activeID = chapterID
	s.origin = p
	s.pointer = p
	s.keyboard = false
	if r, ok := s.layout.ChapterRect(chapterID); ok {
		s.activeRect = r
	} else {
		s.activeRect = Rect{X: p.X, Y: p.Y}
	}
	return nil
}

func (s *Session) OnPointerMove(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StatePressed:
		if p.Distance(s.origin) <= ActivationDistance {
			s.pointer = p
			return
		}
		s.state = StateDragging
	case StateDragging:
		if s.keyboard {
			return
		}
	default:
		return
	}
	s.activeRect = s.activeRect.Translate(p.X-s.pointer.X, p.Y-s.pointer.Y)
	s.pointer = p
	s.hoverID = s.resolveLocked(s.layout.Droppables())
}

// OnPointerUp ends the gesture. ok is false for clicks (no drag started) and for drops outside
// any target; in both cases the session simply returns to idle.
func (s *Session) OnPointerUp(p Point) (Drop, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StatePressed:
		s.resetLocked()
		return Drop{}, false
	case StateDragging:
		if s.keyboard {
			return Drop{}, false
		}
	default:
		return Drop{}, false
	}
	s.activeRect = s.activeRect.Translate(p.X-s.pointer.X, p.Y-s.pointer.Y)
	s.pointer = p
	target := s.resolveLocked(s.layout.Droppables())
	d := Drop{ActiveChapterID: s.activeID, TargetID: target}
	s.resetLocked()
	if target == "" {
		return Drop{}, false
	}
	return d, true
}

// ResolveCollision picks the hovered droppable for the current pointer and dragged rectangle.
func (s *Session) ResolveCollision(candidates []Candidate) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(candidates)
}

func (s *Session) resolveLocked(candidates []Candidate) string {
	return DetectCollision(s.pointer, s.activeRect, candidates)
}

// Lift starts a keyboard drag of chapterID with the chapter's own slot hovered.
func (s *Session) Lift(sectionID, chapterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrSessionActive
	}
	chapterID = strings.TrimSpace(chapterID)
	if chapterID == "" {
		return errors.New("missing chapter id")
	}
	s.state = StateDragging
	s.keyboard = true
	s.activeID = chapterID
	s.hoverID = ChapterSlotID(sectionID, chapterID)
	return nil
}

// MoveHover moves the keyboard hover by delta droppables in document order, clamped at the ends.
func (s *Session) MoveHover(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDragging || !s.keyboard {
		return
	}
	cands := s.layout.Droppables()
	if len(cands) == 0 {
		s.hoverID = ""
		return
	}
	idx := -1
	for i, c := range cands {
		if c.ID == s.hoverID {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = 0
		if delta > 0 {
			delta--
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(cands) {
		idx = len(cands) - 1
	}
	s.hoverID = cands[idx].ID
}

// Drop completes a keyboard drag onto the hovered target.
func (s *Session) Drop() (Drop, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDragging {
		return Drop{}, false
	}
	d := Drop{ActiveChapterID: s.activeID, TargetID: s.hoverID}
	s.resetLocked()
	if d.TargetID == "" {
		return Drop{}, false
	}
	return d, true
}

// Cancel abandons any press or drag without side effects.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.state = StateIdle
	s.activeID = ""
	s.hoverID = ""
	s.keyboard = false
	s.activeRect = Rect{}
}
