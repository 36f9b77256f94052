package chart

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// PathData renders the sector as SVG path data. A sector covering the
// whole ring is drawn as two half arcs per edge, since an SVG arc whose
// endpoints coincide draws nothing.
func (s Sector) PathData() string {
	var b strings.Builder
	if s.Full() {
		top := polar(s.Center, 0, s.OuterRadius)
		bottom := polar(s.Center, FullTurn/2, s.OuterRadius)
		innerTop := polar(s.Center, 0, s.InnerRadius)
		innerBottom := polar(s.Center, FullTurn/2, s.InnerRadius)
		r, ri := num(s.OuterRadius), num(s.InnerRadius)

		fmt.Fprintf(&b, "M %s %s ", num(top.X), num(top.Y))
		fmt.Fprintf(&b, "A %s %s 0 1 1 %s %s ", r, r, num(bottom.X), num(bottom.Y))
		fmt.Fprintf(&b, "A %s %s 0 1 1 %s %s ", r, r, num(top.X), num(top.Y))
		fmt.Fprintf(&b, "L %s %s ", num(innerTop.X), num(innerTop.Y))
		fmt.Fprintf(&b, "A %s %s 0 1 0 %s %s ", ri, ri, num(innerBottom.X), num(innerBottom.Y))
		fmt.Fprintf(&b, "A %s %s 0 1 0 %s %s Z", ri, ri, num(innerTop.X), num(innerTop.Y))
		return b.String()
	}

	segs := s.Segments()
	fmt.Fprintf(&b, "M %s %s", num(segs[0].From.X), num(segs[0].From.Y))
	for _, seg := range segs {
		switch seg.Kind {
		case SegmentArc:
			fmt.Fprintf(&b, " A %s %s 0 %s %s %s %s",
				num(seg.Radius), num(seg.Radius), flag(seg.LargeArc), flag(seg.Clockwise),
				num(seg.To.X), num(seg.To.Y))
		case SegmentLine:
			fmt.Fprintf(&b, " L %s %s", num(seg.To.X), num(seg.To.Y))
		case SegmentClose:
			b.WriteString(" Z")
		}
	}
	return b.String()
}

// SVGOptions controls document rendering.
type SVGOptions struct {
	Width, Height int
	Background    string
	MaskColor     string
	TextColor     string
	TotalText     string
	TotalCaption  string
}

// SVG renders the whole chart: sectors, center mask, slice labels, and the
// total label over the mask.
func (d *Donut) SVG(opts SVGOptions) string {
	if opts.Width <= 0 {
		opts.Width = int(d.cfg.Center.X * 2)
	}
	if opts.Height <= 0 {
		opts.Height = int(d.cfg.Center.Y * 2)
	}
	if opts.MaskColor == "" {
		opts.MaskColor = "#FFFFFF"
	}
	if opts.TextColor == "" {
		opts.TextColor = "#081C15"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		opts.Width, opts.Height, opts.Width, opts.Height)
	if opts.Background != "" {
		fmt.Fprintf(&b, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", html.EscapeString(opts.Background))
	}

	for i, s := range d.Slices() {
		sec, _ := d.Sector(i)
		color := s.Color
		if color == "" {
			color = "#2D6A4F"
		}
		fmt.Fprintf(&b, `  <path d="%s" fill="%s" data-category="%s"/>`+"\n",
			sec.PathData(), html.EscapeString(color), html.EscapeString(s.Category))
	}

	mask := d.CenterMask()
	fmt.Fprintf(&b, `  <circle cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n",
		num(mask.Center.X), num(mask.Center.Y), num(mask.Radius), html.EscapeString(opts.MaskColor))

	for i := range d.slices {
		lbl, _ := d.Label(i)
		for j, pos := range lbl.LinePositions(d.cfg.LineHeight) {
			fmt.Fprintf(&b, `  <text x="%s" y="%s" fill="%s" font-size="12" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
				num(pos.X), num(pos.Y), html.EscapeString(opts.TextColor), html.EscapeString(lbl.Lines[j]))
		}
	}

	if opts.TotalText != "" {
		c := d.cfg.Center
		fmt.Fprintf(&b, `  <text x="%s" y="%s" fill="%s" font-size="20" font-weight="bold" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			num(c.X), num(c.Y-6), html.EscapeString(opts.TextColor), html.EscapeString(opts.TotalText))
		if opts.TotalCaption != "" {
			fmt.Fprintf(&b, `  <text x="%s" y="%s" fill="%s" font-size="11" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
				num(c.X), num(c.Y+14), html.EscapeString(opts.TextColor), html.EscapeString(opts.TotalCaption))
		}
	}

	b.WriteString("</svg>\n")
	return b.String()
}
