// Provides the basic geometric vocabulary shared by
// datasources, filters and renderers: points, bounding
// envelopes, geometries and features, on top of paulmach/orb.
package geom

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Point is a position in map coordinates, x first.
type Point = orb.Point

// Envelope is an axis-aligned bounding rectangle in map coordinates.
// Use Nil for an empty envelope.
type Envelope struct {
	orb.Bound
}

// Nil returns the empty envelope, which contains nothing and
// is the neutral element of ExpandToInclude.
func Nil() Envelope {
	return Envelope{orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{-1, -1}}}
}

// NewEnvelope returns the envelope spanned by the two corners,
// in any order.
func NewEnvelope(x0, y0, x1, y1 float64) Envelope {
	return Envelope{orb.MultiPoint{{x0, y0}, {x1, y1}}.Bound()}
}

// IsNil reports whether e is empty.
func (e Envelope) IsNil() bool { return e.IsEmpty() }

func (e Envelope) MinX() float64 { return e.Min[0] }
func (e Envelope) MinY() float64 { return e.Min[1] }
func (e Envelope) MaxX() float64 { return e.Max[0] }
func (e Envelope) MaxY() float64 { return e.Max[1] }

func (e Envelope) Width() float64  { return e.Max[0] - e.Min[0] }
func (e Envelope) Height() float64 { return e.Max[1] - e.Min[1] }

// WithWidth returns e resized horizontally around its center.
func (e Envelope) WithWidth(w float64) Envelope {
	c := e.Center()
	e.Min[0], e.Max[0] = c[0]-w/2, c[0]+w/2
	return e
}

// WithHeight returns e resized vertically around its center.
func (e Envelope) WithHeight(h float64) Envelope {
	c := e.Center()
	e.Min[1], e.Max[1] = c[1]-h/2, c[1]+h/2
	return e
}

// Scaled returns e with both sides multiplied by factor, keeping the center.
func (e Envelope) Scaled(factor float64) Envelope {
	return e.WithWidth(e.Width() * factor).WithHeight(e.Height() * factor)
}

// Buffered returns e grown by d on every side.
func (e Envelope) Buffered(d float64) Envelope {
	if e.IsNil() {
		return e
	}
	return Envelope{e.Pad(d)}
}

// ExpandToInclude returns the smallest envelope containing e and o.
// A nil envelope contributes nothing: orb's Union would keep
// the corners of an empty receiver.
func (e Envelope) ExpandToInclude(o Envelope) Envelope {
	if o.IsNil() {
		return e
	}
	if e.IsNil() {
		return o
	}
	return Envelope{e.Union(o.Bound)}
}

// ExpandToIncludePoint returns the smallest envelope containing e and p.
func (e Envelope) ExpandToIncludePoint(p Point) Envelope {
	if e.IsNil() {
		return Envelope{p.Bound()}
	}
	return Envelope{e.Extend(p)}
}

// Intersects reports whether e and o share at least one point.
func (e Envelope) Intersects(o Envelope) bool {
	if e.IsNil() || o.IsNil() {
		return false
	}
	return e.Bound.Intersects(o.Bound)
}

func (e Envelope) String() string {
	if e.IsNil() {
		return "Envelope(nil)"
	}
	return fmt.Sprintf("Envelope(%g,%g,%g,%g)", e.Min[0], e.Min[1], e.Max[0], e.Max[1])
}
