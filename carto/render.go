package carto

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/benoitkugler/okmap/datasource"
	"github.com/benoitkugler/okmap/geom"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var errEmptyExtent = errors.New("carto: map extent is empty, zoom to a box before rendering")

// renderer holds the state of one rendering pass.
type renderer struct {
	m      *Map
	d      Driver
	view   Matrix2D
	labels *labelCollector
}

// Render draws the layers of the map, bottom first, into the driver.
// The background is left to the driver.
func (m *Map) Render(d Driver) error {
	if m.extent.IsNil() || m.extent.Width() <= 0 || m.extent.Height() <= 0 {
		return errEmptyExtent
	}
	m.warned = nil
	r := renderer{
		m:      m,
		d:      d,
		view:   viewTransform(m.extent, m.Width, m.Height),
		labels: newLabelCollector(m.Width, m.Height),
	}
	scale := m.Scale()
	Logger().Debug("rendering map", "extent", m.extent.String(), "scale", scale, "scale_denominator", m.ScaleDenominator())
	for _, l := range m.layers {
		if !l.Visible(scale) {
			Logger().Debug("layer not visible", "layer", l.Name)
			continue
		}
		if err := r.renderLayer(l); err != nil {
			return fmt.Errorf("carto: rendering layer %s: %w", l.Name, err)
		}
	}
	return nil
}

func (r *renderer) renderLayer(l *Layer) error {
	if l.Datasource == nil {
		r.m.warnOnce("layer without datasource", "layer", l.Name)
		return nil
	}
	scale := r.m.Scale()
	denominator := r.m.ScaleDenominator()
	bbox := r.m.extent.Buffered(float64(r.m.BufferSize) * scale)
	for _, name := range l.Styles {
		style, ok := r.m.styles[name]
		if !ok {
			r.m.warnOnce("style not found", "style", name, "layer", l.Name)
			continue
		}
		var rules []*Rule
		for _, rule := range style.Rules {
			if rule.Active(denominator) {
				rules = append(rules, rule)
			}
		}
		if len(rules) == 0 {
			continue
		}

		fs, err := l.Datasource.Features(datasource.NewQuery(bbox, scale))
		if err != nil {
			return err
		}
		count := 0
		for fs.Next() {
			f := fs.Feature()
			count++
			for _, rule := range matchingRules(rules, f) {
				for _, sym := range rule.Symbolizers {
					r.apply(sym, f)
				}
			}
		}
		err = fs.Err()
		fs.Close()
		if err != nil {
			return err
		}
		Logger().Debug("style rendered", "layer", l.Name, "style", name, "features", count)
	}
	return nil
}

func (r *renderer) apply(sym Symbolizer, f *geom.Feature) {
	switch sym := sym.(type) {
	case *PolygonSymbolizer:
		for _, g := range f.Geometries {
			if g.Type() == geom.PolygonType {
				r.fill(pathOf(g, r.view), sym.Fill, sym.Opacity, false)
			}
		}
	case *LineSymbolizer:
		for _, g := range f.Geometries {
			if g.Type() != geom.PointType {
				r.stroke(pathOf(g, r.view), sym.Stroke)
			}
		}
	case *PointSymbolizer:
		r.drawPoints(sym, f)
	case *TextSymbolizer:
		r.drawLabels(sym, f)
	}
}

func (r *renderer) fill(p Path, c color.Color, opacity float64, useNonZeroWinding bool) {
	if len(p) == 0 || c == nil {
		return
	}
	filler, _ := r.d.SetupDrawers(true, false)
	filler.Clear()
	filler.SetWinding(useNonZeroWinding)
	p.drawOn(filler)
	filler.SetColor(c, opacity)
	filler.Draw()
	filler.SetWinding(true) // default is true
}

func (r *renderer) stroke(p Path, s Stroke) {
	if len(p) == 0 || s.Color == nil || s.Width <= 0 {
		return
	}
	_, stroker := r.d.SetupDrawers(false, true)
	stroker.Clear()
	stroker.SetStrokeOptions(StrokeOptions{
		LineWidth:  fToFixed(s.Width),
		MiterLimit: fToFixed(4),
		Join:       s.Join,
		Cap:        s.Cap,
		Dash:       DashOptions{Dash: s.Dashes, DashOffset: s.DashOffset},
	})
	p.drawOn(stroker)
	stroker.SetColor(s.Color, s.Opacity)
	stroker.Draw()
}

// anchors returns the screen points a marker or label is placed on.
func (r *renderer) anchors(g geom.Geometry) []fixed.Point26_6 {
	if g.Type() == geom.PointType {
		out := make([]fixed.Point26_6, 0, g.NumPoints())
		for _, ring := range g.Rings() {
			for _, p := range ring {
				out = append(out, r.view.TFixed(p))
			}
		}
		return out
	}
	if p, ok := g.LabelPosition(); ok {
		return []fixed.Point26_6{r.view.TFixed(p)}
	}
	return nil
}

func (r *renderer) drawPoints(sym *PointSymbolizer, f *geom.Feature) {
	w, h := sym.size()
	size := fixed.Point26_6{X: fToFixed(w), Y: fToFixed(h)}
	for _, g := range f.Geometries {
		for _, at := range r.anchors(g) {
			topLeft := fixed.Point26_6{X: at.X - size.X/2, Y: at.Y - size.Y/2}
			box := fixed.Rectangle26_6{Min: topLeft, Max: topLeft.Add(size)}
			if !r.labels.place(box, sym.AllowOverlap) {
				continue
			}
			if sym.Image != nil {
				r.d.DrawImage(sym.Image, topLeft, size, sym.Opacity)
				continue
			}
			var square Path
			square.Start(box.Min)
			square.Line(fixed.Point26_6{X: box.Max.X, Y: box.Min.Y})
			square.Line(box.Max)
			square.Line(fixed.Point26_6{X: box.Min.X, Y: box.Max.Y})
			square.Stop(true)
			r.fill(square, color.Black, sym.Opacity, true)
		}
	}
}

// labelText formats an attribute value for display.
func labelText(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// face resolves the face of a text symbolizer, falling back to
// a fixed size bitmap font.
func (r *renderer) face(sym *TextSymbolizer) font.Face {
	face, err := r.m.fonts().Face(sym.FaceName, sym.Size)
	if err != nil {
		r.m.warnOnce("font face not available, using fallback", "face", sym.FaceName, "err", err)
		return basicfont.Face7x13
	}
	return face
}

func (r *renderer) drawLabels(sym *TextSymbolizer, f *geom.Feature) {
	v, _ := f.Get(sym.Name)
	text := labelText(v)
	if text == "" {
		return
	}
	face := r.face(sym)
	width := font.MeasureString(face, text)
	metrics := face.Metrics()
	halo := fToFixed(sym.HaloRadius)
	displacement := fixed.Point26_6{X: fToFixed(sym.Dx), Y: fToFixed(sym.Dy)}
	for _, g := range f.Geometries {
		for _, at := range r.anchors(g) {
			at = at.Add(displacement)
			origin := fixed.Point26_6{
				X: at.X - width/2,
				Y: at.Y + (metrics.Ascent-metrics.Descent)/2,
			}
			box := fixed.Rectangle26_6{
				Min: fixed.Point26_6{X: origin.X - halo, Y: origin.Y - metrics.Ascent - halo},
				Max: fixed.Point26_6{X: origin.X + width + halo, Y: origin.Y + metrics.Descent + halo},
			}
			if !r.labels.place(box, sym.AllowOverlap) {
				continue
			}
			label := Label{
				Text:     text,
				FaceName: sym.FaceName,
				Face:     face,
				Size:     sym.Size,
				Origin:   origin,
				Fill:     sym.Fill,
			}
			if label.Fill == nil {
				label.Fill = color.Black
			}
			if sym.HaloRadius > 0 {
				label.Halo, label.HaloSize = sym.HaloFill, sym.HaloRadius
			}
			r.d.DrawText(label)
		}
	}
}
