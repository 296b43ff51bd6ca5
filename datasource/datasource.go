// Implements the sources of features consumed by map layers:
// an in-memory store, a point store for hand-placed labels,
// an ESRI shapefile reader and a GeoJSON reader. Drivers are looked up by name
// in a registry, so that layers declared in a style document
// can be instantiated from their parameters.
package datasource

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/benoitkugler/okmap/geom"
)

// Type tells renderers how the features of a datasource are meant to be drawn.
type Type uint8

const (
	Vector Type = iota
	Raster
)

func (t Type) String() string {
	switch t {
	case Vector:
		return "Vector"
	case Raster:
		return "Raster"
	default:
		return "<unknown Type>"
	}
}

// Query selects the features intersecting BBox; a nil BBox
// (see geom.Nil) selects everything.
// Only the attributes listed in PropertyNames are loaded;
// an empty list loads all of them.
type Query struct {
	BBox          geom.Envelope
	Resolution    float64
	PropertyNames []string
}

// NewQuery returns a query on bbox at the given resolution.
func NewQuery(bbox geom.Envelope, resolution float64) Query {
	return Query{BBox: bbox, Resolution: resolution}
}

// AddPropertyName requests the attribute name.
func (q *Query) AddPropertyName(name string) {
	for _, n := range q.PropertyNames {
		if n == name {
			return
		}
	}
	q.PropertyNames = append(q.PropertyNames, name)
}

func (q Query) selects(e geom.Envelope) bool {
	return q.BBox.IsNil() || q.BBox.Intersects(e)
}

// wants reports whether the attribute name is requested.
func (q Query) wants(name string) bool {
	if len(q.PropertyNames) == 0 {
		return true
	}
	for _, n := range q.PropertyNames {
		if n == name {
			return true
		}
	}
	return false
}

// Featureset iterates over the result of a query, in the
// manner of sql.Rows:
//
//	for fs.Next() {
//		f := fs.Feature()
//	}
//	err := fs.Err()
type Featureset interface {
	Next() bool
	Feature() *geom.Feature
	Err() error
	Close() error
}

// Datasource provides features.
type Datasource interface {
	Type() Type
	// Envelope returns the extent of all the features.
	Envelope() geom.Envelope
	Features(q Query) (Featureset, error)
}

// Params configures the creation of a datasource. The "type" key
// selects the driver.
type Params map[string]string

// Get returns the parameter value, or def if it is missing.
func (p Params) Get(key, def string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return def
}

// Factory builds a datasource from its parameters.
type Factory func(p Params) (Datasource, error)

var (
	ErrMissingType = errors.New("datasource: missing 'type' parameter")

	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	Register("shape", NewShape)
	Register("geojson", NewGeoJSON)
}

// Register makes a driver available under name.
// Registering the same name twice replaces the previous driver.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Names returns the sorted list of registered drivers.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Create instantiates the driver named by p["type"].
func Create(p Params) (Datasource, error) {
	name := p["type"]
	if name == "" {
		return nil, ErrMissingType
	}
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("datasource: could not create datasource, no driver for type '%s' (registered: %v)", name, Names())
	}
	return f(p)
}
