package carto

import (
	"image"
	"image/color"
	"math"

	"github.com/benoitkugler/okmap/filter"
	"github.com/benoitkugler/okmap/geom"
)

// Symbolizer is a rendering rule mapping feature geometry to visual style.
// It is one of *PolygonSymbolizer, *LineSymbolizer,
// *PointSymbolizer or *TextSymbolizer.
type Symbolizer interface {
	// setParam reads one style parameter, given
	// as an attribute or a CssParameter element.
	setParam(c *mapCursor, k, v string) error
}

// PolygonSymbolizer fills polygons.
type PolygonSymbolizer struct {
	Fill    color.Color
	Opacity float64
}

// NewPolygonSymbolizer returns an opaque fill with c.
func NewPolygonSymbolizer(c color.Color) *PolygonSymbolizer {
	return &PolygonSymbolizer{Fill: c, Opacity: 1}
}

// Stroke describes how lines are drawn.
type Stroke struct {
	Color      color.Color
	Width      float64
	Opacity    float64
	Join       JoinMode
	Cap        CapMode
	Dashes     []float64 // alternating dash and gap lengths
	DashOffset float64
}

// NewStroke returns a plain opaque stroke.
func NewStroke(c color.Color, width float64) Stroke {
	return Stroke{Color: c, Width: width, Opacity: 1, Join: MiterJoin, Cap: ButtCap}
}

// AddDash appends a dash of length `dash` followed by a gap of length `gap`.
func (s *Stroke) AddDash(dash, gap float64) {
	s.Dashes = append(s.Dashes, dash, gap)
}

// LineSymbolizer strokes lines and polygon outlines.
type LineSymbolizer struct {
	Stroke Stroke
}

// NewLineSymbolizer returns a symbolizer drawing with s.
func NewLineSymbolizer(s Stroke) *LineSymbolizer {
	return &LineSymbolizer{Stroke: s}
}

// PointSymbolizer draws an image, or a small square when
// no image is set, at each point of the geometries.
type PointSymbolizer struct {
	File          string      // source of Image, informative
	Image         image.Image // nil for the default marker
	Width, Height float64     // 0 means the image size
	Opacity       float64
	AllowOverlap  bool
}

// NewPointSymbolizer returns a symbolizer drawing the default marker.
func NewPointSymbolizer() *PointSymbolizer {
	return &PointSymbolizer{Opacity: 1}
}

const defaultMarkerSize = 4

// size returns the drawn size in pixels.
func (s *PointSymbolizer) size() (float64, float64) {
	if s.Image == nil {
		return defaultMarkerSize, defaultMarkerSize
	}
	w, h := s.Width, s.Height
	b := s.Image.Bounds()
	if w == 0 {
		w = float64(b.Dx())
	}
	if h == 0 {
		h = float64(b.Dy())
	}
	return w, h
}

// TextSymbolizer labels features with the value of one attribute.
type TextSymbolizer struct {
	Name         string // attribute holding the label
	FaceName     string
	Size         float64
	Fill         color.Color
	HaloFill     color.Color
	HaloRadius   float64
	Dx, Dy       float64 // displacement in pixels, y pointing down
	AllowOverlap bool
}

// NewTextSymbolizer returns labels of size points showing
// the attribute name, with a white halo of radius 0.
func NewTextSymbolizer(name, faceName string, size float64, fill color.Color) *TextSymbolizer {
	return &TextSymbolizer{
		Name:     name,
		FaceName: faceName,
		Size:     size,
		Fill:     fill,
		HaloFill: color.White,
	}
}

// Rule binds symbolizers to the features selected by its filter.
type Rule struct {
	Name, Title string
	// Filter selects the features; nil selects all of them.
	Filter filter.Filter
	// Else rules only apply to features no other rule of the style matched.
	Else bool
	// Scale denominators range, [MinScale, MaxScale).
	MinScale, MaxScale float64
	Symbolizers        []Symbolizer
}

// NewRule returns a rule applying to every scale.
func NewRule() *Rule {
	return &Rule{MaxScale: math.Inf(1)}
}

// Append adds a symbolizer to the rule.
func (r *Rule) Append(s Symbolizer) { r.Symbolizers = append(r.Symbolizers, s) }

// SetFilter restricts the rule to the features passing f.
func (r *Rule) SetFilter(f filter.Filter) { r.Filter = f }

// Active reports whether the rule applies at the scale denominator.
func (r *Rule) Active(scaleDenominator float64) bool {
	return scaleDenominator >= r.MinScale && scaleDenominator < r.MaxScale
}

func (r *Rule) pass(f *geom.Feature) bool {
	return r.Filter == nil || r.Filter.Pass(f)
}

// FeatureTypeStyle is an ordered list of rules.
type FeatureTypeStyle struct {
	Rules []*Rule
}

// AddRule appends a rule to the style.
func (s *FeatureTypeStyle) AddRule(r *Rule) { s.Rules = append(s.Rules, r) }

// matchingRules returns the rules to apply to f: every regular rule passing,
// or the else rules when there is none.
func matchingRules(rules []*Rule, f *geom.Feature) []*Rule {
	var out, elses []*Rule
	for _, r := range rules {
		if r.Else {
			elses = append(elses, r)
		} else if r.pass(f) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return elses
	}
	return out
}
