package datasource

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benoitkugler/okmap/geom"
	"github.com/benoitkugler/okmap/internal/shptest"
	"github.com/jonas-p/go-shp"
)

func collect(t *testing.T, ds Datasource, q Query) []*geom.Feature {
	t.Helper()
	fs, err := ds.Features(q)
	if err != nil {
		t.Fatalf("can't query datasource: %s", err)
	}
	defer fs.Close()
	var out []*geom.Feature
	for fs.Next() {
		out = append(out, fs.Feature())
	}
	if err := fs.Err(); err != nil {
		t.Fatalf("featureset error: %s", err)
	}
	return out
}

func TestPointsSequentialIDs(t *testing.T) {
	pds := NewPoints()
	names := []string{"mount Whitney", "mount Williamson", "White mountain", "mount Shasta", "mount Langley"}
	coords := [][2]float64{{-118.29, 36.58}, {-118.31, 36.65}, {-118.25, 37.63}, {-122.19, 41.41}, {-118.24, 37.52}}
	for i, name := range names {
		pds.AddPoint(coords[i][0], coords[i][1], "name", name)
	}
	if pds.Size() != len(names) {
		t.Fatalf("expected %d features, got %d", len(names), pds.Size())
	}

	features := collect(t, pds, NewQuery(geom.Nil(), 1))
	for i, f := range features {
		if f.ID != int64(i) {
			t.Errorf("feature %d has id %d", i, f.ID)
		}
		if f.NumGeometries() != 1 || f.Geometries[0].Type() != geom.PointType {
			t.Errorf("feature %d should hold exactly one point", i)
		}
		if len(f.Props) != 1 || f.Props["name"] != names[i] {
			t.Errorf("feature %d has attributes %v", i, f.Props)
		}
	}

	want := geom.NewEnvelope(-122.19, 36.58, -118.24, 41.41)
	if got := pds.Envelope(); got != want {
		t.Errorf("expected extent %s, got %s", want, got)
	}
}

func TestMemoryBBoxAndProperties(t *testing.T) {
	m := NewMemory()
	for i := 0; i < 10; i++ {
		f := geom.NewFeature(int64(i))
		f.AddGeometry(geom.NewPoint(float64(i), float64(i)))
		f.Set("name", "p")
		f.Set("rank", int64(i))
		m.Push(f)
	}

	q := NewQuery(geom.NewEnvelope(2, 2, 4.5, 4.5), 1)
	q.AddPropertyName("rank")
	q.AddPropertyName("rank")
	features := collect(t, m, q)
	if len(features) != 3 {
		t.Fatalf("expected 3 features in bbox, got %d", len(features))
	}
	for i, f := range features {
		if f.ID != int64(i+2) {
			t.Errorf("unexpected order: %d", f.ID)
		}
		if _, ok := f.Get("name"); ok {
			t.Error("unrequested attribute should be dropped")
		}
		if f.Props["rank"] != int64(i+2) {
			t.Errorf("unexpected rank %v", f.Props["rank"])
		}
	}
}

func TestRegistry(t *testing.T) {
	if _, err := Create(Params{}); err != ErrMissingType {
		t.Errorf("expected ErrMissingType, got %v", err)
	}
	if _, err := Create(Params{"type": "postgis"}); err == nil {
		t.Error("expected error for unknown driver")
	}
	if _, err := Create(Params{"type": "shape", "file": "does/not/exist"}); err == nil {
		t.Error("expected error for missing file")
	}

	Register("memory", func(Params) (Datasource, error) { return NewMemory(), nil })
	ds, err := Create(Params{"type": "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Type() != Vector {
		t.Errorf("unexpected type %s", ds.Type())
	}
}

// writeStates writes a tiny states shapefile: two rectangles side by side.
func writeStates(t *testing.T, dir string) string {
	t.Helper()
	fields := []shp.Field{shp.StringField("STATE", 25), shp.NumberField("RANK", 4)}
	return shptest.Write(t, dir, "states", fields, []shptest.Rect{
		{MinX: -124, MinY: 32, MaxX: -120, MaxY: 42, Attrs: []interface{}{"California", 1}},
		{MinX: -120, MinY: 32, MaxX: -116, MaxY: 42, Attrs: []interface{}{"Nevada", 2}},
	})
}

func TestShape(t *testing.T) {
	dir := t.TempDir()
	writeStates(t, dir)

	ds, err := Create(Params{"type": "shape", "file": "states", "base": dir})
	if err != nil {
		t.Fatalf("can't open shapefile: %s", err)
	}
	want := geom.NewEnvelope(-124, 32, -116, 42)
	if got := ds.Envelope(); got != want {
		t.Errorf("expected extent %s, got %s", want, got)
	}

	features := collect(t, ds, NewQuery(ds.Envelope(), 1))
	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(features))
	}
	if features[0].Props["STATE"] != "California" || features[1].Props["STATE"] != "Nevada" {
		t.Errorf("unexpected attributes %v %v", features[0].Props, features[1].Props)
	}
	if features[1].Props["RANK"] != int64(2) {
		t.Errorf("numeric field should be decoded, got %#v", features[1].Props["RANK"])
	}
	g := features[0].Geometries[0]
	if g.Type() != geom.PolygonType || len(g.Rings()) != 1 || len(g.Rings()[0]) != 5 {
		t.Errorf("unexpected geometry %+v", g)
	}

	// the second query only sees Nevada
	q := NewQuery(geom.NewEnvelope(-117, 35, -116.5, 36), 1)
	q.AddPropertyName("STATE")
	features = collect(t, ds, q)
	if len(features) != 1 || features[0].Props["STATE"] != "Nevada" {
		t.Fatalf("bbox query returned %d features", len(features))
	}
	if _, ok := features[0].Get("RANK"); ok {
		t.Error("unrequested attribute should not be loaded")
	}

	if names := ds.(*Shape).FieldNames(); len(names) != 2 || names[0] != "STATE" {
		t.Errorf("unexpected field names %v", names)
	}
}

func TestShapeMissingAttributes(t *testing.T) {
	dir := t.TempDir()
	base := writeStates(t, dir)
	if err := os.Remove(base + ".dbf"); err != nil {
		t.Fatal(err)
	}
	_, err := Create(Params{"type": "shape", "file": base + ".shp"})
	if err == nil || !strings.Contains(err.Error(), "attribute file") {
		t.Errorf("expected a missing attribute file error, got %v", err)
	}
}

func TestShapeEncoding(t *testing.T) {
	dir := t.TempDir()
	shptest.Write(t, dir, "towns", []shp.Field{shp.StringField("NAME", 20)}, []shptest.Rect{
		{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1, Attrs: []interface{}{"Mont\xe9"}},
	})

	ds, err := Create(Params{"type": "shape", "file": "towns", "base": dir, "encoding": "latin1"})
	if err != nil {
		t.Fatal(err)
	}
	features := collect(t, ds, NewQuery(ds.Envelope(), 1))
	if len(features) != 1 || features[0].Props["NAME"] != "Monté" {
		t.Errorf("expected latin1 decoding, got %v", features)
	}

	if _, err := Create(Params{"type": "shape", "file": "towns", "base": dir, "encoding": "klingon"}); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestPointsInvalidUTF8(t *testing.T) {
	pds := NewPoints()
	f := pds.AddPoint(1, 2, "name", "bad\xffutf8")
	if v := f.Props["name"]; v != "bad�utf8" {
		t.Errorf("expected invalid bytes to be replaced, got %q", v)
	}
	if pds.Type() != Vector || pds.Envelope() != geom.NewEnvelope(1, 2, 1, 2) {
		t.Errorf("unexpected datasource %s %s", pds.Type(), pds.Envelope())
	}
}

func TestGeoJSON(t *testing.T) {
	dir := t.TempDir()
	doc := `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [-118.29, 36.58]}, "properties": {"name": "mount Whitney"}},
		{"type": "Feature", "geometry": {"type": "MultiPolygon", "coordinates": [
			[[[-124, 32], [-120, 32], [-120, 42], [-124, 32]]],
			[[[-119, 33], [-118, 33], [-118, 34], [-119, 33]]]
		]}, "properties": {"STATE": "California"}}
	]}`
	if err := os.WriteFile(filepath.Join(dir, "cali.geojson"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := Create(Params{"type": "geojson", "file": "cali.geojson", "base": dir})
	if err != nil {
		t.Fatal(err)
	}
	if want := geom.NewEnvelope(-124, 32, -118, 42); ds.Envelope() != want {
		t.Errorf("expected extent %s, got %s", want, ds.Envelope())
	}
	features := collect(t, ds, NewQuery(geom.Nil(), 1))
	if len(features) != 2 || features[0].ID != 0 || features[1].ID != 1 {
		t.Fatalf("unexpected features %v", features)
	}
	if features[0].Props["name"] != "mount Whitney" || features[1].NumGeometries() != 2 {
		t.Errorf("unexpected content %v %v", features[0].Props, features[1].Geometries)
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.geojson"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Create(Params{"type": "geojson", "file": filepath.Join(dir, "broken.geojson")}); err == nil {
		t.Error("expected error for invalid document")
	}
}
