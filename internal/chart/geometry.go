package chart

import "math"

// FullTurn is one complete revolution in radians.
const FullTurn = 2 * math.Pi

// Point is a position in chart coordinates, y growing downward.
type Point struct {
	X, Y float64
}

// Circle is a filled disc.
type Circle struct {
	Center Point
	Radius float64
}

// Contains reports whether p lies inside the circle.
func (c Circle) Contains(p Point) bool {
	return math.Hypot(p.X-c.Center.X, p.Y-c.Center.Y) < c.Radius
}

// polar converts an angle measured clockwise from 12 o'clock and a radius
// into a point around center.
func polar(center Point, angle, radius float64) Point {
	return Point{
		X: center.X + radius*math.Sin(angle),
		Y: center.Y - radius*math.Cos(angle),
	}
}

// angleOf is the inverse of polar: the clockwise angle from 12 o'clock in
// [0, 2π) and the distance from center.
func angleOf(center, p Point) (angle, radius float64) {
	dx := p.X - center.X
	dy := p.Y - center.Y
	angle = math.Atan2(dx, -dy)
	if angle < 0 {
		angle += FullTurn
	}
	return angle, math.Hypot(dx, dy)
}

// SegmentKind identifies one part of a sector outline.
type SegmentKind int

const (
	SegmentArc SegmentKind = iota
	SegmentLine
	SegmentClose
)

// Segment is one drawing step of a sector outline.
type Segment struct {
	Kind      SegmentKind
	From, To  Point
	Radius    float64 // arcs only
	LargeArc  bool    // arcs only: span exceeds π
	Clockwise bool    // arcs only
}

// Sector is the annular wedge drawn for one slice.
type Sector struct {
	Center      Point
	StartAngle  float64
	EndAngle    float64
	OuterRadius float64
	InnerRadius float64
}

// Span returns the angular width of the sector.
func (s Sector) Span() float64 {
	return s.EndAngle - s.StartAngle
}

// LargeArc reports whether the span exceeds π.
func (s Sector) LargeArc() bool {
	return s.Span() > math.Pi
}

// Full reports whether the sector covers the whole ring.
func (s Sector) Full() bool {
	return s.Span() >= FullTurn-1e-9
}

// Segments returns the closed outline: outer arc from start to end, line
// inward, inner arc back to start, and the closing line.
func (s Sector) Segments() []Segment {
	outerStart := polar(s.Center, s.StartAngle, s.OuterRadius)
	outerEnd := polar(s.Center, s.EndAngle, s.OuterRadius)
	innerEnd := polar(s.Center, s.EndAngle, s.InnerRadius)
	innerStart := polar(s.Center, s.StartAngle, s.InnerRadius)
	large := s.LargeArc()

	return []Segment{
		{Kind: SegmentArc, From: outerStart, To: outerEnd, Radius: s.OuterRadius, LargeArc: large, Clockwise: true},
		{Kind: SegmentLine, From: outerEnd, To: innerEnd},
		{Kind: SegmentArc, From: innerEnd, To: innerStart, Radius: s.InnerRadius, LargeArc: large, Clockwise: false},
		{Kind: SegmentClose, From: innerStart, To: outerStart},
	}
}

// Contains reports whether p falls inside the sector.
func (s Sector) Contains(p Point) bool {
	angle, r := angleOf(s.Center, p)
	if r < s.InnerRadius || r > s.OuterRadius {
		return false
	}
	if s.Full() {
		return true
	}
	return angle >= s.StartAngle && angle < s.EndAngle
}
