package dnd

// KeyResult reports what a key did to an active keyboard drag.
type KeyResult int

const (
	KeyIgnored KeyResult = iota
	KeyMoved
	KeyDropped
	KeyCancelled
)

// HandleKey applies a key (bubbletea key names) to an active keyboard drag.
// Arrow keys move the hover, enter/space drop, esc cancels.
func (s *Session) HandleKey(key string) (Drop, KeyResult) {
	if s.State() != StateDragging {
		return Drop{}, KeyIgnored
	}
	switch key {
	case "up", "k", "shift+tab":
		s.MoveHover(-1)
		return Drop{}, KeyMoved
	case "down", "j", "tab":
		s.MoveHover(1)
		return Drop{}, KeyMoved
	case "enter", " ":
		d, ok := s.Drop()
		if !ok {
			return Drop{}, KeyCancelled
		}
		return d, KeyDropped
	case "esc", "ctrl+g":
		s.Cancel()
		return Drop{}, KeyCancelled
	}
	return Drop{}, KeyIgnored
}
