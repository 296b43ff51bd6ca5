package datasource

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/benoitkugler/okmap/geom"
	"github.com/paulmach/orb/geojson"
)

// NewGeoJSON is the Factory of the "geojson" driver: the feature collection
// of the file is loaded in memory once. Recognized parameters are
//   - file: path to the GeoJSON document
//   - base: directory "file" is relative to
//
// Features are numbered from 0 in document order.
func NewGeoJSON(p Params) (Datasource, error) {
	file := p["file"]
	if file == "" {
		return nil, fmt.Errorf("datasource: missing 'file' parameter for geojson driver")
	}
	if base := p["base"]; base != "" && !filepath.IsAbs(file) {
		file = filepath.Join(base, file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("datasource: reading geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("datasource: invalid geojson '%s': %w", file, err)
	}
	m := NewMemory()
	for i, f := range fc.Features {
		m.Push(geom.FromGeoJSON(int64(i), f))
	}
	return m, nil
}
