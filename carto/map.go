// Provides the map model (layers, styles, rules and symbolizers),
// its loading from XML style documents, and its rendering.
// Rendering is expressed against a Driver, so that the same
// map may be painted by different backends.
// See for example okmap/cartoraster or okmap/cartopdf.
package carto

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/benoitkugler/okmap/datasource"
	"github.com/benoitkugler/okmap/filter"
	"github.com/benoitkugler/okmap/fontengine"
	"github.com/benoitkugler/okmap/geom"
)

// ConfigError reports an invalid map configuration:
// malformed style document, unknown datasource,
// invalid filter or missing resource.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(err error, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// CreateDatasource instantiates a datasource from its parameters,
// reporting failures as ConfigError.
func CreateDatasource(p datasource.Params) (datasource.Datasource, error) {
	ds, err := datasource.Create(p)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return ds, nil
}

// CreateFilter compiles a filter expression, reporting failures as ConfigError.
func CreateFilter(expr string) (filter.Filter, error) {
	f, err := filter.Parse(expr)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return f, nil
}

// Layer binds a datasource to the styles used to draw it.
type Layer struct {
	Name       string
	SRS        string
	Styles     []string
	Datasource datasource.Datasource
	Active     bool
	// Scale range (map units per pixel) the layer is visible in, [MinZoom, MaxZoom).
	MinZoom, MaxZoom float64
}

// NewLayer returns an active layer visible at every scale.
func NewLayer(name string) *Layer {
	return &Layer{Name: name, Active: true, MaxZoom: math.Inf(1)}
}

// AddStyle appends a style name.
func (l *Layer) AddStyle(name string) { l.Styles = append(l.Styles, name) }

// SetDatasource attaches the datasource, which the layer now owns.
func (l *Layer) SetDatasource(ds datasource.Datasource) { l.Datasource = ds }

// Envelope returns the extent of the layer datasource.
func (l *Layer) Envelope() geom.Envelope {
	if l.Datasource == nil {
		return geom.Nil()
	}
	return l.Datasource.Envelope()
}

// Visible reports whether the layer is drawn at the given scale.
func (l *Layer) Visible(scale float64) bool {
	return l.Active && scale >= l.MinZoom && scale < l.MaxZoom
}

// FilteredEnvelope returns the extent of the features of the
// layer passing f. The attributes needed by f must be listed in
// props when the datasource only loads requested attributes.
// The result is nil when no feature passes.
func (l *Layer) FilteredEnvelope(f filter.Filter, props ...string) (geom.Envelope, error) {
	extent := geom.Nil()
	if l.Datasource == nil {
		return extent, fmt.Errorf("carto: layer %s has no datasource", l.Name)
	}
	q := datasource.NewQuery(l.Envelope(), 1.0)
	for _, p := range props {
		q.AddPropertyName(p)
	}
	fs, err := l.Datasource.Features(q)
	if err != nil {
		return extent, err
	}
	defer fs.Close()
	for fs.Next() {
		feat := fs.Feature()
		if f != nil && !f.Pass(feat) {
			continue
		}
		for _, g := range feat.Geometries {
			extent = extent.ExpandToInclude(g.Envelope())
		}
	}
	return extent, fs.Err()
}

// Map is a set of layers drawn with named styles over a viewport.
type Map struct {
	Width, Height int
	Background    color.Color // nil for a transparent background
	SRS           string
	// BufferSize is the margin, in pixels, added around the viewport
	// when querying features, so that labels and strokes crossing the border are drawn.
	BufferSize int
	// Fonts resolves the faces of text symbolizers; nil means fontengine.Default.
	Fonts *fontengine.Engine

	styles map[string]*FeatureTypeStyle
	layers []*Layer
	extent geom.Envelope
	warned map[string]bool
}

// DefaultSRS is the geographic lon/lat reference system.
const DefaultSRS = "+proj=latlong +datum=WGS84"

// NewMap returns an empty map of width x height pixels.
func NewMap(width, height int) *Map {
	return &Map{
		Width:  width,
		Height: height,
		SRS:    DefaultSRS,
		styles: make(map[string]*FeatureTypeStyle),
		extent: geom.Nil(),
	}
}

// SetBackground sets the background color.
func (m *Map) SetBackground(c color.Color) { m.Background = c }

// InsertStyle registers the style under name, replacing any previous one.
func (m *Map) InsertStyle(name string, s *FeatureTypeStyle) { m.styles[name] = s }

// Style returns the style registered under name.
func (m *Map) Style(name string) (*FeatureTypeStyle, bool) {
	s, ok := m.styles[name]
	return s, ok
}

// StyleNames returns the registered style names, sorted.
func (m *Map) StyleNames() []string {
	out := make([]string, 0, len(m.styles))
	for name := range m.styles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AddLayer appends a layer, drawn above the previous ones.
func (m *Map) AddLayer(l *Layer) { m.layers = append(m.layers, l) }

// Layer returns the i-th layer.
func (m *Map) Layer(i int) *Layer { return m.layers[i] }

// Layers returns the layers, bottom first.
func (m *Map) Layers() []*Layer { return m.layers }

// LayerCount returns the number of layers.
func (m *Map) LayerCount() int { return len(m.layers) }

// Extent returns the current viewport.
func (m *Map) Extent() geom.Envelope { return m.extent }

// ZoomToBox sets the viewport to box, grown to match the map aspect ratio.
func (m *Map) ZoomToBox(box geom.Envelope) {
	m.extent = box
	m.fixAspectRatio()
}

// Zoom scales the viewport by factor around its center:
// a factor greater than 1 zooms out.
func (m *Map) Zoom(factor float64) {
	m.extent = m.extent.Scaled(factor)
	m.fixAspectRatio()
}

// ZoomAll sets the viewport to the union of the layers extents.
func (m *Map) ZoomAll() {
	ext := geom.Nil()
	for _, l := range m.layers {
		ext = ext.ExpandToInclude(l.Envelope())
	}
	m.ZoomToBox(ext)
}

func (m *Map) fixAspectRatio() {
	if m.extent.IsNil() || m.Width <= 0 || m.Height <= 0 {
		return
	}
	ratio1 := float64(m.Width) / float64(m.Height)
	if m.extent.Height() == 0 {
		m.extent = m.extent.WithHeight(m.extent.Width() / ratio1)
		return
	}
	ratio2 := m.extent.Width() / m.extent.Height()
	if ratio2 > ratio1 {
		m.extent = m.extent.WithHeight(m.extent.Width() / ratio1)
	} else if ratio2 < ratio1 {
		m.extent = m.extent.WithWidth(m.extent.Height() * ratio1)
	}
}

// Scale returns the map units per pixel.
func (m *Map) Scale() float64 {
	if m.Width <= 0 {
		return 0
	}
	return m.extent.Width() / float64(m.Width)
}

const (
	pixelSize    = 0.00028 // meters, standard rendering pixel
	metersPerDeg = 6378137 * 2 * math.Pi / 360
)

// isGeographic reports whether the SRS is expressed in degrees.
func (m *Map) isGeographic() bool {
	srs := strings.ToLower(m.SRS)
	return srs == "" || strings.Contains(srs, "latlong") || strings.Contains(srs, "longlat") || strings.Contains(srs, "epsg:4326")
}

// ScaleDenominator returns N in the 1:N map scale.
func (m *Map) ScaleDenominator() float64 {
	s := m.Scale()
	if m.isGeographic() {
		s *= metersPerDeg
	}
	return s / pixelSize
}

func (m *Map) fonts() *fontengine.Engine {
	if m.Fonts == nil {
		return fontengine.Default
	}
	return m.Fonts
}

// warnOnce logs msg with its arguments the first time the pair
// is seen during a rendering.
func (m *Map) warnOnce(msg string, args ...interface{}) {
	key := msg + fmt.Sprint(args...)
	if m.warned[key] {
		return
	}
	if m.warned == nil {
		m.warned = make(map[string]bool)
	}
	m.warned[key] = true
	Logger().Warn(msg, args...)
}
