// Package calimap assembles the map of California shared by the
// commands: the states and mountains layers, the styles declared
// in code, and the extent of the state.
package calimap

import (
	"fmt"

	"github.com/benoitkugler/okmap/carto"
	"github.com/benoitkugler/okmap/datasource"
	"github.com/benoitkugler/okmap/geom"
)

// Style names, as referenced by the layers.
const (
	StatesStyle    = "cali"      // California polygon, usually from style.xml
	ElsewhereStyle = "elsewhere" // the other states
	MountainsStyle = "mtn"       // peaks, usually from style.xml
)

// Layer names.
const (
	StatesLayerName    = "Cali"
	MountainsLayerName = "Mountains"
)

// Filters selecting California, and the rest.
const (
	CaliforniaFilter = "[STATE] = 'California'"
	ElsewhereFilter  = "[STATE] <> 'California'"
)

// Background is the color of the sea.
var Background = carto.NewColor(220, 226, 240)

// Peak is a labelled mountain.
type Peak struct {
	Name     string
	Lon, Lat float64
}

// Peaks are some of the California fourteeners.
var Peaks = []Peak{
	{"mount Whitney", -118.29, 36.58},
	{"mount Williamson", -118.31, 36.65},
	{"White mountain", -118.25, 37.63},
	{"mount Shasta", -122.19, 41.41},
	{"mount Langley", -118.24, 37.52},
}

// PeaksDatasource returns a point datasource holding Peaks,
// with their name under the "name" attribute.
func PeaksDatasource() *datasource.Points {
	pds := datasource.NewPoints()
	for _, p := range Peaks {
		pds.AddPoint(p.Lon, p.Lat, "name", p.Name)
	}
	return pds
}

// NewElsewhereStyle returns the style of the states other than
// California: cornsilk, with a dashed gray outline.
func NewElsewhereStyle() (*carto.FeatureTypeStyle, error) {
	stroke := carto.NewStroke(carto.NewColor(127, 127, 127), 0.75)
	stroke.AddDash(10, 6)

	rule := carto.NewRule()
	rule.Append(carto.NewPolygonSymbolizer(carto.MustParseColor("cornsilk")))
	rule.Append(carto.NewLineSymbolizer(stroke))
	f, err := carto.CreateFilter(ElsewhereFilter)
	if err != nil {
		return nil, err
	}
	rule.SetFilter(f)

	var style carto.FeatureTypeStyle
	style.AddRule(rule)
	return &style, nil
}

// NewStatesStyle returns the style of California, for maps
// not loading it from a style document.
func NewStatesStyle() (*carto.FeatureTypeStyle, error) {
	stroke := carto.NewStroke(carto.NewColor(80, 80, 80), 1)
	stroke.Join = carto.RoundJoin

	rule := carto.NewRule()
	rule.Append(carto.NewPolygonSymbolizer(carto.NewColor(242, 239, 249)))
	rule.Append(carto.NewLineSymbolizer(stroke))
	f, err := carto.CreateFilter(CaliforniaFilter)
	if err != nil {
		return nil, err
	}
	rule.SetFilter(f)

	var style carto.FeatureTypeStyle
	style.AddRule(rule)
	return &style, nil
}

// NewMountainsStyle returns the style of the peaks, for maps
// not loading it from a style document: a square marker and
// the name of the peak above it.
func NewMountainsStyle(faceName string) *carto.FeatureTypeStyle {
	text := carto.NewTextSymbolizer("name", faceName, 10, carto.NewColor(0, 0, 0))
	text.HaloRadius = 1
	text.Dy = -10

	rule := carto.NewRule()
	rule.Append(carto.NewPointSymbolizer())
	rule.Append(text)

	var style carto.FeatureTypeStyle
	style.AddRule(rule)
	return &style
}

// NewStatesLayer returns the layer of the states boundaries read from
// the shapefile data (without extension), drawn with the "cali" then
// "elsewhere" styles.
func NewStatesLayer(data string) (*carto.Layer, error) {
	ds, err := carto.CreateDatasource(datasource.Params{"type": "shape", "file": data})
	if err != nil {
		return nil, err
	}
	l := carto.NewLayer(StatesLayerName)
	l.SetDatasource(ds)
	l.AddStyle(StatesStyle)
	l.AddStyle(ElsewhereStyle)
	return l, nil
}

// NewMountainsLayer returns the layer of the Peaks.
func NewMountainsLayer() *carto.Layer {
	l := carto.NewLayer(MountainsLayerName)
	l.SetDatasource(PeaksDatasource())
	l.AddStyle(MountainsStyle)
	return l
}

// CaliforniaExtent returns the union of the envelopes of the
// California features of the states layer.
func CaliforniaExtent(states *carto.Layer) (geom.Envelope, error) {
	f, err := carto.CreateFilter(CaliforniaFilter)
	if err != nil {
		return geom.Nil(), err
	}
	carto.Logger().Debug("computing extent", "layer", states.Name, "filter", f.String())
	extent, err := states.FilteredEnvelope(f, "STATE")
	if err != nil {
		return extent, fmt.Errorf("calimap: querying layer %s: %w", states.Name, err)
	}
	if extent.IsNil() {
		return extent, fmt.Errorf("calimap: no feature matches %s in layer %s", CaliforniaFilter, states.Name)
	}
	return extent, nil
}

// Setup adds the "elsewhere" style, the states layer read from data and
// the mountains layer to m, then zooms on California, enlarged by zoom.
// The "cali" and "mtn" styles are expected to be already defined.
func Setup(m *carto.Map, data string, zoom float64) error {
	elsewhere, err := NewElsewhereStyle()
	if err != nil {
		return err
	}
	m.InsertStyle(ElsewhereStyle, elsewhere)

	states, err := NewStatesLayer(data)
	if err != nil {
		return err
	}
	m.AddLayer(states)
	m.AddLayer(NewMountainsLayer())

	carto.Logger().Debug("map styles", "styles", m.StyleNames())
	for _, name := range []string{StatesStyle, MountainsStyle} {
		if _, ok := m.Style(name); !ok {
			carto.Logger().Warn("style not defined, its features will not be drawn", "style", name)
		}
	}

	extent, err := CaliforniaExtent(states)
	if err != nil {
		return err
	}
	m.ZoomToBox(extent)
	m.Zoom(zoom)
	return nil
}

// InlineStyles inserts the "cali" and "mtn" styles declared in code,
// labelling peaks with faceName.
func InlineStyles(m *carto.Map, faceName string) error {
	states, err := NewStatesStyle()
	if err != nil {
		return err
	}
	m.InsertStyle(StatesStyle, states)
	m.InsertStyle(MountainsStyle, NewMountainsStyle(faceName))
	return nil
}
