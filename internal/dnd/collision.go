package dnd

// Candidate is a droppable zone and its current on-screen rectangle.
type Candidate struct {
	ID   string
	Rect Rect
}

// PointerWithin returns the droppable that contains p. When zones overlap the smallest one wins:
// every chapter slot lies inside its section's container, and the slot is the more specific
// target, so a pointer over a chapter reorders rather than appends.
func PointerWithin(p Point, cands []Candidate) string {
	best := ""
	bestArea := 0.0
	for _, c := range cands {
		if c.ID == "" || !c.Rect.Contains(p) {
			continue
		}
		a := c.Rect.Area()
		if best == "" || a < bestArea {
			best = c.ID
			bestArea = a
		}
	}
	return best
}

// RectIntersection returns the droppable with the largest overlap with active.
// Ties go to the candidate whose centre is closest to active's centre.
func RectIntersection(active Rect, cands []Candidate) string {
	best := ""
	bestArea := 0.0
	bestDist := 0.0
	ac := active.Center()
	for _, c := range cands {
		if c.ID == "" {
			continue
		}
		a := active.IntersectionArea(c.Rect)
		if a <= 0 {
			continue
		}
		d := ac.Distance(c.Rect.Center())
		if best == "" || a > bestArea || (a == bestArea && d < bestDist) {
			best = c.ID
			bestArea = a
			bestDist = d
		}
	}
	return best
}

// DetectCollision resolves the hovered droppable in two phases: exact pointer containment first,
// then rectangle intersection. Returns "" when nothing qualifies.
func DetectCollision(p Point, active Rect, cands []Candidate) string {
	if id := PointerWithin(p, cands); id != "" {
		return id
	}
	return RectIntersection(active, cands)
}
