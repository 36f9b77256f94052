// Package chart computes donut chart geometry: slice angles, radii, sector
// outlines, label placement, hit testing, and the active-slice toggle.
//
// Angles are radians measured clockwise from 12 o'clock. Coordinates use
// a y axis that grows downward, matching SVG and terminal cells.
package chart

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/dolla/internal/model"
)

// Config sizes the donut.
type Config struct {
	Center       Point
	BaseRadius   float64
	InnerRatio   float64
	ExpandFactor float64
	LineHeight   float64 // vertical distance between the two lines of an active label
}

// DefaultConfig returns a donut of radius 100 centered so the expanded
// slice fits a 240x240 box.
func DefaultConfig() Config {
	return Config{
		Center:       Point{X: 120, Y: 120},
		BaseRadius:   100,
		InnerRatio:   0.6,
		ExpandFactor: 1.15,
		LineHeight:   14,
	}
}

// Slice is one category's wedge.
type Slice struct {
	Index      int
	Category   string
	Icon       string
	Amount     decimal.Decimal
	Percentage float64
	Color      string
	StartAngle float64
	EndAngle   float64
	Active     bool
}

// Span returns the slice's angular width.
func (s Slice) Span() float64 {
	return s.EndAngle - s.StartAngle
}

// Label is the text placed on a slice.
type Label struct {
	Anchor Point
	Lines  []string
}

// LinePositions returns where each line is drawn, centered vertically on
// the anchor.
func (l Label) LinePositions(lineHeight float64) []Point {
	out := make([]Point, len(l.Lines))
	top := l.Anchor.Y - lineHeight*float64(len(l.Lines)-1)/2
	for i := range l.Lines {
		out[i] = Point{X: l.Anchor.X, Y: top + lineHeight*float64(i)}
	}
	return out
}

// Donut holds the slices derived from one aggregation pass plus the active
// selection. The zero value is not usable; call New.
type Donut struct {
	cfg    Config
	slices []Slice
	active int
	total  decimal.Decimal
}

// New creates an empty donut. Zero fields in cfg take DefaultConfig values.
func New(cfg Config) *Donut {
	def := DefaultConfig()
	if cfg.BaseRadius <= 0 {
		cfg.BaseRadius = def.BaseRadius
	}
	if cfg.InnerRatio <= 0 || cfg.InnerRatio >= 1 {
		cfg.InnerRatio = def.InnerRatio
	}
	if cfg.ExpandFactor < 1 {
		cfg.ExpandFactor = def.ExpandFactor
	}
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = def.LineHeight
	}
	return &Donut{cfg: cfg, active: -1}
}

// Config returns the effective configuration.
func (d *Donut) Config() Config {
	return d.cfg
}

// Build replaces the slices with ones derived from data. Spans are the
// slice percentages of a full turn; the last slice always ends at exactly
// 2π. The active slice survives when its category is still present.
func (d *Donut) Build(data []model.AggregatedSlice) {
	prev := ""
	if s, ok := d.Active(); ok {
		prev = s.Category
	}

	d.slices = make([]Slice, 0, len(data))
	d.total = decimal.Zero
	d.active = -1

	cum := 0.0
	for i, a := range data {
		pct := a.Percentage
		if math.IsNaN(pct) || pct < 0 {
			pct = 0
		}
		start := cum
		end := start + pct*FullTurn
		if i == len(data)-1 {
			end = FullTurn
		}
		cum = end

		d.slices = append(d.slices, Slice{
			Index:      i,
			Category:   a.Category,
			Icon:       a.Icon,
			Amount:     a.Amount,
			Percentage: pct,
			Color:      a.Color,
			StartAngle: start,
			EndAngle:   end,
		})
		d.total = d.total.Add(a.Amount)

		if prev != "" && a.Category == prev && d.active < 0 {
			d.active = i
		}
	}
}

// Len returns the number of slices.
func (d *Donut) Len() int {
	return len(d.slices)
}

// Slices returns a copy of the slices with Active set.
func (d *Donut) Slices() []Slice {
	out := make([]Slice, len(d.slices))
	copy(out, d.slices)
	if d.active >= 0 {
		out[d.active].Active = true
	}
	return out
}

// Total returns the sum of slice amounts.
func (d *Donut) Total() decimal.Decimal {
	return d.total
}

// ActiveIndex returns the active slice index, if any.
func (d *Donut) ActiveIndex() (int, bool) {
	return d.active, d.active >= 0
}

// Active returns the active slice, if any.
func (d *Donut) Active() (Slice, bool) {
	if d.active < 0 || d.active >= len(d.slices) {
		return Slice{}, false
	}
	s := d.slices[d.active]
	s.Active = true
	return s, true
}

// Select toggles slice i: selecting the active slice clears the
// selection, selecting another slice makes it the only active one, and an
// out-of-range index clears the selection.
func (d *Donut) Select(i int) {
	switch {
	case i < 0 || i >= len(d.slices):
		d.active = -1
	case i == d.active:
		d.active = -1
	default:
		d.active = i
	}
}

// ClearSelection deactivates any active slice.
func (d *Donut) ClearSelection() {
	d.active = -1
}

// Next moves the selection by step slices, wrapping around. With nothing
// selected it starts from the first (step > 0) or last slice.
func (d *Donut) Next(step int) {
	n := len(d.slices)
	if n == 0 {
		return
	}
	if d.active < 0 {
		if step >= 0 {
			d.active = 0
		} else {
			d.active = n - 1
		}
		return
	}
	d.active = ((d.active+step)%n + n) % n
}

// InnerRadius is the radius of the hole, shared by every slice.
func (d *Donut) InnerRadius() float64 {
	return d.cfg.BaseRadius * d.cfg.InnerRatio
}

// OuterRadius returns slice i's outer radius, expanded when it is active.
func (d *Donut) OuterRadius(i int) float64 {
	if i == d.active && i >= 0 {
		return d.cfg.BaseRadius * d.cfg.ExpandFactor
	}
	return d.cfg.BaseRadius
}

// Sector returns the wedge for slice i.
func (d *Donut) Sector(i int) (Sector, bool) {
	if i < 0 || i >= len(d.slices) {
		return Sector{}, false
	}
	s := d.slices[i]
	return Sector{
		Center:      d.cfg.Center,
		StartAngle:  s.StartAngle,
		EndAngle:    s.EndAngle,
		OuterRadius: d.OuterRadius(i),
		InnerRadius: d.InnerRadius(),
	}, true
}

// Label returns the label for slice i: anchored at the mid angle, halfway
// between the inner and base radius, pushed out by the expansion factor
// when active. Active labels carry the percentage on a second line.
func (d *Donut) Label(i int) (Label, bool) {
	if i < 0 || i >= len(d.slices) {
		return Label{}, false
	}
	s := d.slices[i]
	mid := (s.StartAngle + s.EndAngle) / 2
	r := (d.InnerRadius() + d.cfg.BaseRadius) / 2

	lines := []string{s.Category}
	if i == d.active {
		r *= d.cfg.ExpandFactor
		lines = append(lines, FormatPercent(s.Percentage))
	}
	return Label{Anchor: polar(d.cfg.Center, mid, r), Lines: lines}, true
}

// CenterMask is the disc drawn over the middle of the chart.
func (d *Donut) CenterMask() Circle {
	return Circle{Center: d.cfg.Center, Radius: d.InnerRadius()}
}

// CenterLabel returns the text drawn inside the mask: the grand total
// rounded to whole units, and its caption.
func (d *Donut) CenterLabel(symbol string) (value, caption string) {
	return symbol + d.total.Round(0).String(), "Total"
}

// HitTest returns the slice under p. Points inside the center mask or
// outside every slice miss.
func (d *Donut) HitTest(p Point) (int, bool) {
	if len(d.slices) == 0 || d.CenterMask().Contains(p) {
		return -1, false
	}
	angle, r := angleOf(d.cfg.Center, p)
	for i, s := range d.slices {
		if s.Span() <= 0 {
			continue
		}
		last := i == len(d.slices)-1
		if angle < s.StartAngle || (angle >= s.EndAngle && !last) {
			continue
		}
		if r > d.OuterRadius(i) {
			return -1, false
		}
		return i, true
	}
	return -1, false
}

// SelectAt applies a click at p: a hit toggles that slice, a miss clears
// the selection. It returns the active index afterwards.
func (d *Donut) SelectAt(p Point) (int, bool) {
	i, ok := d.HitTest(p)
	if !ok {
		d.ClearSelection()
		return -1, false
	}
	d.Select(i)
	return d.ActiveIndex()
}

// FormatPercent renders a 0..1 share as a whole percentage, e.g. "45%".
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}
