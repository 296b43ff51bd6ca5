package carto

import (
	"fmt"
	"strings"

	"github.com/benoitkugler/okmap/geom"
	"golang.org/x/image/math/fixed"
)

// This file defines the screen path structure

// Operation groups the different path commands
type Operation interface {
	// add itself on the drawer `d`
	drawTo(d Drawer)
}

type MoveTo fixed.Point26_6

type LineTo fixed.Point26_6

type Close struct{}

// starts a new path at the given point.
func (op MoveTo) drawTo(d Drawer) {
	d.Stop(false) // implicit close if currently in path.
	d.Start(fixed.Point26_6(op))
}

// draw a line
func (op LineTo) drawTo(d Drawer) {
	d.Line(fixed.Point26_6(op))
}

func (op Close) drawTo(d Drawer) {
	d.Stop(true)
}

// Path describes a sequence of basic operations in screen coordinates.
type Path []Operation

// String returns a readable representation of the path, using the SVG syntax.
func (p Path) String() string {
	chunks := make([]string, len(p))
	for i, op := range p {
		switch op := op.(type) {
		case MoveTo:
			chunks[i] = fmt.Sprintf("M%4.3f,%4.3f", float32(op.X)/64, float32(op.Y)/64)
		case LineTo:
			chunks[i] = fmt.Sprintf("L%4.3f,%4.3f", float32(op.X)/64, float32(op.Y)/64)
		case Close:
			chunks[i] = "Z"
		}
	}
	return strings.Join(chunks, " ")
}

// Start starts a new curve at the given point.
func (p *Path) Start(a fixed.Point26_6) {
	*p = append(*p, MoveTo{a.X, a.Y})
}

// Line adds a linear segment to the current curve.
func (p *Path) Line(b fixed.Point26_6) {
	*p = append(*p, LineTo{b.X, b.Y})
}

// Stop joins the ends of the path
func (p *Path) Stop(closeLoop bool) {
	if closeLoop {
		*p = append(*p, Close{})
	}
}

// drawOn replays the path on d.
func (p Path) drawOn(d Drawer) {
	for _, op := range p {
		op.drawTo(d)
	}
	d.Stop(false)
}

// pathOf converts a geometry to screen coordinates. Polygon
// rings are closed; points yield an empty path.
func pathOf(g geom.Geometry, m Matrix2D) Path {
	var p Path
	if g.Type() == geom.PointType {
		return p
	}
	for _, ring := range g.Rings() {
		if len(ring) < 2 {
			continue
		}
		p.Start(m.TFixed(ring[0]))
		for _, pt := range ring[1:] {
			p.Line(m.TFixed(pt))
		}
		p.Stop(g.Type() == geom.PolygonType)
	}
	return p
}
