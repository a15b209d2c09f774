package dnd

import "math"

type Point struct {
	X float64
	Y float64
}

func (p Point) Add(dx, dy float64) Point { return Point{X: p.X + dx, Y: p.Y + dy} }

func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle; (X, Y) is the top-left corner.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

func (r Rect) Area() float64 {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// IntersectionArea returns the overlapping area of r and o (0 when disjoint).
func (r Rect) IntersectionArea(o Rect) float64 {
	left := math.Max(r.X, o.X)
	right := math.Min(r.X+r.W, o.X+o.W)
	top := math.Max(r.Y, o.Y)
	bottom := math.Min(r.Y+r.H, o.Y+o.H)
	if right <= left || bottom <= top {
		return 0
	}
	return (right - left) * (bottom - top)
}
