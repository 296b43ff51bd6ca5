// Package shptest writes small shapefiles for tests.
package shptest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
)

// Rect is a rectangular polygon with its attribute values,
// in the order of the fields.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
	Attrs                  []interface{}
}

// StateFields is the attribute table of WriteStates.
var StateFields = []shp.Field{shp.StringField("STATE", 25)}

// Write writes the polygons rects with the attribute table fields
// to dir/name.shp (with its .shx and .dbf), and returns the path
// without extension.
func Write(t testing.TB, dir, name string, fields []shp.Field, rects []Rect) string {
	t.Helper()
	base := filepath.Join(dir, name)
	w, err := shp.Create(base+".shp", shp.POLYGON)
	if err != nil {
		t.Fatalf("can't create shapefile: %s", err)
	}
	if err := w.SetFields(fields); err != nil {
		t.Fatal(err)
	}
	for i, r := range rects {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{
			{X: r.MinX, Y: r.MinY}, {X: r.MinX, Y: r.MaxY}, {X: r.MaxX, Y: r.MaxY}, {X: r.MaxX, Y: r.MinY}, {X: r.MinX, Y: r.MinY},
		}}))
		w.Write(&poly)
		for j, v := range r.Attrs {
			if err := w.WriteAttribute(i, j, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	w.Close()

	// go-shp names the attribute file "<base>dbf"
	if _, err := os.Stat(base + "dbf"); err == nil {
		if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(base + ".dbf"); err != nil {
		t.Fatalf("attribute file not written: %s", err)
	}
	return base
}

// WriteStates writes one rectangle per state, spanning
// [x0, x0+4] x [32, 42], with the STATE attribute.
func WriteStates(t testing.TB, dir string, names []string, x0s []float64) string {
	t.Helper()
	rects := make([]Rect, len(names))
	for i, name := range names {
		rects[i] = Rect{MinX: x0s[i], MinY: 32, MaxX: x0s[i] + 4, MaxY: 42, Attrs: []interface{}{name}}
	}
	return Write(t, dir, "states", StateFields, rects)
}
