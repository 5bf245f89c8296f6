package atlas

import "math"

// PackingMode selects the free-rectangle scoring heuristic.
type PackingMode int

const (
	// BestShortSideFit places a rectangle where the shorter leftover side is smallest.
	BestShortSideFit PackingMode = iota

	// BestLongSideFit places a rectangle where the longer leftover side is smallest.
	BestLongSideFit

	// BestAreaFit places a rectangle into the smallest free rectangle that holds it.
	BestAreaFit

	// BottomLeft places a rectangle as high up and then as far left as possible.
	BottomLeft

	// ContactPoint places a rectangle where it touches the most used edges.
	ContactPoint
)

// String returns the heuristic name.
func (m PackingMode) String() string {
	switch m {
	case BestShortSideFit:
		return "BestShortSideFit"
	case BestLongSideFit:
		return "BestLongSideFit"
	case BestAreaFit:
		return "BestAreaFit"
	case BottomLeft:
		return "BottomLeft"
	case ContactPoint:
		return "ContactPoint"
	default:
		return "Unknown"
	}
}

// maxRects is a MaxRects bin packer over a fixed bounding area.
//
// free holds maximal free rectangles, which may overlap each other but never
// overlap a used rectangle. Their union is bounds minus the union of used.
type maxRects struct {
	bounds Rect
	free   []Rect
	used   []Rect
}

func newMaxRects(bounds Rect) maxRects {
	m := maxRects{bounds: bounds}
	if !bounds.Empty() {
		m.free = append(m.free, bounds)
	}
	return m
}

// find returns the best position for a w×h rectangle without placing it.
func (m *maxRects) find(w, h int, mode PackingMode) (Rect, bool) {
	best := Rect{}
	best1, best2 := math.MaxInt, math.MaxInt
	found := false

	for _, f := range m.free {
		if f.Width < w || f.Height < h {
			continue
		}
		s1, s2 := m.score(f, w, h, mode)
		if s1 < best1 || (s1 == best1 && s2 < best2) {
			best = Rect{X: f.X, Y: f.Y, Width: w, Height: h}
			best1, best2 = s1, s2
			found = true
		}
	}
	return best, found
}

func (m *maxRects) score(f Rect, w, h int, mode PackingMode) (int, int) {
	leftoverH := f.Width - w
	leftoverV := f.Height - h
	short, long := min(leftoverH, leftoverV), max(leftoverH, leftoverV)

	switch mode {
	case BestLongSideFit:
		return long, short
	case BestAreaFit:
		return f.Area() - w*h, short
	case BottomLeft:
		return f.Y + h, f.X
	case ContactPoint:
		// Higher contact is better; negate so lower still wins.
		return -m.contact(Rect{X: f.X, Y: f.Y, Width: w, Height: h}), 0
	default:
		return short, long
	}
}

func (m *maxRects) contact(r Rect) int {
	score := 0
	if r.X == m.bounds.X || r.Right() == m.bounds.Right() {
		score += r.Height
	}
	if r.Y == m.bounds.Y || r.Bottom() == m.bounds.Bottom() {
		score += r.Width
	}
	for _, u := range m.used {
		if u.X == r.Right() || u.Right() == r.X {
			score += overlap(u.Y, u.Bottom(), r.Y, r.Bottom())
		}
		if u.Y == r.Bottom() || u.Bottom() == r.Y {
			score += overlap(u.X, u.Right(), r.X, r.Right())
		}
	}
	return score
}

// overlap returns the length shared by the half-open intervals [a0, a1) and
// [b0, b1). Intervals that only touch share nothing.
func overlap(a0, a1, b0, b1 int) int {
	if a1 <= b0 || b1 <= a0 {
		return 0
	}
	return min(a1, b1) - max(a0, b0)
}

// place marks r as used and splits every free rectangle it touches.
func (m *maxRects) place(r Rect) {
	var pieces []Rect
	kept := m.free[:0]
	for _, f := range m.free {
		if !f.Intersects(r) {
			kept = append(kept, f)
			continue
		}
		pieces = split(pieces, f, r)
	}
	m.free = append(kept, pieces...)
	m.prune()
	m.used = append(m.used, r)
}

// split appends the maximal pieces of f that lie outside r.
func split(dst []Rect, f, r Rect) []Rect {
	if r.X > f.X {
		dst = append(dst, Rect{X: f.X, Y: f.Y, Width: r.X - f.X, Height: f.Height})
	}
	if r.Right() < f.Right() {
		dst = append(dst, Rect{X: r.Right(), Y: f.Y, Width: f.Right() - r.Right(), Height: f.Height})
	}
	if r.Y > f.Y {
		dst = append(dst, Rect{X: f.X, Y: f.Y, Width: f.Width, Height: r.Y - f.Y})
	}
	if r.Bottom() < f.Bottom() {
		dst = append(dst, Rect{X: f.X, Y: r.Bottom(), Width: f.Width, Height: f.Bottom() - r.Bottom()})
	}
	return dst
}

// prune drops free rectangles contained in another free rectangle.
func (m *maxRects) prune() {
	for i := 0; i < len(m.free); i++ {
		for j := i + 1; j < len(m.free); {
			switch {
			case m.free[j].Contains(m.free[i]):
				m.free = append(m.free[:i], m.free[i+1:]...)
				i--
				j = len(m.free)
			case m.free[i].Contains(m.free[j]):
				m.free = append(m.free[:j], m.free[j+1:]...)
			default:
				j++
			}
		}
	}
}

// reset restores the initial state: one free rectangle covering bounds.
func (m *maxRects) reset() {
	m.free = m.free[:0]
	m.used = m.used[:0]
	if !m.bounds.Empty() {
		m.free = append(m.free, m.bounds)
	}
}

// occupancy returns the used area over the packable area (0.0 to 1.0).
func (m *maxRects) occupancy() float64 {
	total := m.bounds.Area()
	if total == 0 {
		return 0
	}
	usedArea := 0
	for _, u := range m.used {
		usedArea += u.Area()
	}
	return float64(usedArea) / float64(total)
}
