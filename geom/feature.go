package geom

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// GeomType identifies the kind of a Geometry.
type GeomType uint8

const (
	UnknownType GeomType = iota
	PointType
	LineStringType
	PolygonType
)

func (t GeomType) String() string {
	switch t {
	case PointType:
		return "Point"
	case LineStringType:
		return "LineString"
	case PolygonType:
		return "Polygon"
	default:
		return "<unknown GeomType>"
	}
}

// Geometry is an orb.Point, orb.LineString or orb.Polygon.
// Polygons store their outer ring first, followed by holes.
type Geometry struct {
	geometry orb.Geometry
}

// NewPoint returns a point geometry.
func NewPoint(x, y float64) Geometry {
	return Geometry{orb.Point{x, y}}
}

// NewLineString returns a line geometry through pts.
func NewLineString(pts []Point) Geometry {
	return Geometry{orb.LineString(pts)}
}

// NewPolygon returns a polygon geometry; rings[0] is the outer ring.
func NewPolygon(rings ...[]Point) Geometry {
	poly := make(orb.Polygon, len(rings))
	for i, r := range rings {
		poly[i] = orb.Ring(r)
	}
	return Geometry{poly}
}

// Orb returns the underlying geometry, nil for the zero Geometry.
func (g Geometry) Orb() orb.Geometry { return g.geometry }

// Type returns the kind of g.
func (g Geometry) Type() GeomType {
	switch g.geometry.(type) {
	case orb.Point:
		return PointType
	case orb.LineString:
		return LineStringType
	case orb.Polygon:
		return PolygonType
	default:
		return UnknownType
	}
}

// Rings returns the vertex sequences of g: one ring holding
// the point, the line itself, or the polygon rings.
func (g Geometry) Rings() [][]Point {
	switch geo := g.geometry.(type) {
	case orb.Point:
		return [][]Point{{geo}}
	case orb.LineString:
		return [][]Point{geo}
	case orb.Polygon:
		out := make([][]Point, len(geo))
		for i, r := range geo {
			out[i] = r
		}
		return out
	}
	return nil
}

// NumPoints returns the total vertex count.
func (g Geometry) NumPoints() int {
	n := 0
	for _, r := range g.Rings() {
		n += len(r)
	}
	return n
}

// Envelope returns the bounding envelope of all vertices.
func (g Geometry) Envelope() Envelope {
	if g.geometry == nil {
		return Nil()
	}
	b := g.geometry.Bound()
	if b.IsEmpty() {
		return Nil()
	}
	return Envelope{b}
}

// LabelPosition returns where a label for g should be anchored:
// the point itself, the middle vertex of a line, or the
// centroid of a polygon.
func (g Geometry) LabelPosition() (Point, bool) {
	switch geo := g.geometry.(type) {
	case orb.Point:
		return geo, true
	case orb.LineString:
		if len(geo) == 0 {
			return Point{}, false
		}
		return geo[len(geo)/2], true
	case orb.Polygon:
		if len(geo) == 0 || len(geo[0]) == 0 {
			return Point{}, false
		}
		c, area := planar.CentroidArea(geo)
		if area == 0 {
			return g.Envelope().Center(), true
		}
		return c, true
	}
	return Point{}, false
}

// Feature is a set of geometries sharing one identifier
// and one set of attributes.
type Feature struct {
	ID         int64
	Geometries []Geometry
	Props      geojson.Properties
}

// NewFeature returns an empty feature with the given id.
func NewFeature(id int64) *Feature {
	return &Feature{ID: id, Props: make(geojson.Properties)}
}

// FromGeoJSON returns the feature holding the geometry and properties of gf.
// Multi geometries and collections are flattened into their parts.
func FromGeoJSON(id int64, gf *geojson.Feature) *Feature {
	f := NewFeature(id)
	f.addOrb(gf.Geometry)
	for k, v := range gf.Properties {
		f.Props[k] = v
	}
	return f
}

func (f *Feature) addOrb(g orb.Geometry) {
	switch g := g.(type) {
	case orb.Point, orb.LineString, orb.Polygon:
		f.AddGeometry(Geometry{g})
	case orb.Ring:
		f.AddGeometry(Geometry{orb.Polygon{g}})
	case orb.Bound:
		f.AddGeometry(Geometry{g.ToPolygon()})
	case orb.MultiPoint:
		for _, p := range g {
			f.AddGeometry(Geometry{p})
		}
	case orb.MultiLineString:
		for _, ls := range g {
			f.AddGeometry(Geometry{ls})
		}
	case orb.MultiPolygon:
		for _, p := range g {
			f.AddGeometry(Geometry{p})
		}
	case orb.Collection:
		for _, sub := range g {
			f.addOrb(sub)
		}
	}
}

// AddGeometry appends g to the feature.
func (f *Feature) AddGeometry(g Geometry) { f.Geometries = append(f.Geometries, g) }

// Set stores an attribute value.
func (f *Feature) Set(key string, value interface{}) { f.Props[key] = value }

// Get returns the attribute stored under key.
func (f *Feature) Get(key string) (interface{}, bool) {
	v, ok := f.Props[key]
	return v, ok
}

// NumGeometries returns the number of geometries of the feature.
func (f *Feature) NumGeometries() int { return len(f.Geometries) }

// Envelope returns the union of the geometries envelopes.
func (f *Feature) Envelope() Envelope {
	e := Nil()
	for _, g := range f.Geometries {
		e = e.ExpandToInclude(g.Envelope())
	}
	return e
}

// Keys returns the sorted attribute names.
func (f *Feature) Keys() []string {
	keys := make([]string, 0, len(f.Props))
	for k := range f.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
