package carto

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/benoitkugler/okmap/datasource"
	"github.com/benoitkugler/okmap/filter"
	"github.com/benoitkugler/okmap/geom"
)

func TestParseColor(t *testing.T) {
	for _, test := range []struct {
		in   string
		want color.NRGBA
	}{
		{"cornsilk", color.NRGBA{255, 248, 220, 255}},
		{" Black ", color.NRGBA{0, 0, 0, 255}},
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#7f7f7f", color.NRGBA{127, 127, 127, 255}},
		{"#11223344", color.NRGBA{0x11, 0x22, 0x33, 0x44}},
		{"rgb(220,226,240)", color.NRGBA{220, 226, 240, 255}},
		{"rgba(0, 0, 0, 0.5)", color.NRGBA{0, 0, 0, 128}},
		{"rgb(100%,0%,50%)", color.NRGBA{255, 0, 128, 255}},
		{"transparent", color.NRGBA{}},
	} {
		got, err := ParseColor(test.in)
		if err != nil {
			t.Errorf("%q: %s", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("%q: expected %v, got %v", test.in, test.want, got)
		}
	}

	for _, bad := range []string{"#12", "#ggg", "notacolor", "rgb(1,2)", "rgb(a,b,c)"} {
		if _, err := ParseColor(bad); !errors.Is(err, errColorFormat) {
			t.Errorf("%q: expected a color format error, got %v", bad, err)
		}
	}
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestZoomToBoxFixesAspect(t *testing.T) {
	m := NewMap(200, 100)

	// too tall: the width grows
	m.ZoomToBox(geom.NewEnvelope(0, 0, 10, 10))
	ext := m.Extent()
	if !almostEqual(ext.Width(), 20) || !almostEqual(ext.Height(), 10) {
		t.Fatalf("unexpected extent %s", ext)
	}
	if c := ext.Center(); !almostEqual(c.X(), 5) || !almostEqual(c.Y(), 5) {
		t.Fatalf("center moved: %v", c)
	}

	// too wide: the height grows
	m.ZoomToBox(geom.NewEnvelope(0, 0, 40, 10))
	ext = m.Extent()
	if !almostEqual(ext.Width(), 40) || !almostEqual(ext.Height(), 20) {
		t.Fatalf("unexpected extent %s", ext)
	}

	m.Zoom(1.5)
	ext = m.Extent()
	if !almostEqual(ext.Width(), 60) || !almostEqual(ext.Height(), 30) {
		t.Fatalf("unexpected extent after zoom %s", ext)
	}
	if !almostEqual(m.Scale(), 0.3) {
		t.Fatalf("unexpected scale %f", m.Scale())
	}
}

func TestZoomNilExtent(t *testing.T) {
	m := NewMap(100, 100)
	m.ZoomToBox(geom.Nil())
	m.Zoom(2)
	if !m.Extent().IsNil() {
		t.Fatalf("expected nil extent, got %s", m.Extent())
	}
	if err := m.Render(nil); err != errEmptyExtent {
		t.Fatalf("expected empty extent error, got %v", err)
	}
}

func TestScaleDenominator(t *testing.T) {
	m := NewMap(1000, 1000)
	m.SRS = "+proj=merc"
	m.ZoomToBox(geom.NewEnvelope(0, 0, 280, 280))
	if d := m.ScaleDenominator(); !almostEqual(d, 1000) {
		t.Fatalf("expected 1:1000, got %f", d)
	}
	m.SRS = DefaultSRS
	if d := m.ScaleDenominator(); math.Abs(d/(1000*metersPerDeg)-1) > 1e-9 {
		t.Fatalf("unexpected geographic denominator %f", d)
	}
}

func statesLayer() *Layer {
	ds := datasource.NewMemory()
	for i, state := range []string{"California", "Nevada", "California"} {
		f := geom.NewFeature(int64(i))
		x := float64(4 * i)
		f.AddGeometry(geom.NewPolygon([]geom.Point{{x, 0}, {x + 2, 0}, {x + 2, 3}, {x, 3}}))
		f.Set("STATE", state)
		ds.Push(f)
	}
	l := NewLayer("states")
	l.SetDatasource(ds)
	return l
}

func TestFilteredEnvelope(t *testing.T) {
	l := statesLayer()
	ext, err := l.FilteredEnvelope(filter.MustParse("[STATE] = 'California'"), "STATE")
	if err != nil {
		t.Fatal(err)
	}
	if want := geom.NewEnvelope(0, 0, 10, 3); ext != want {
		t.Fatalf("expected %s, got %s", want, ext)
	}

	ext, err = l.FilteredEnvelope(filter.MustParse("[STATE] = 'Oregon'"), "STATE")
	if err != nil {
		t.Fatal(err)
	}
	if !ext.IsNil() {
		t.Fatalf("expected nil extent, got %s", ext)
	}

	if _, err := NewLayer("empty").FilteredEnvelope(filter.All); err == nil {
		t.Fatal("expected error for layer without datasource")
	}
}

func TestZoomAll(t *testing.T) {
	m := NewMap(100, 100)
	m.AddLayer(statesLayer())
	m.ZoomAll()
	if ext := m.Extent(); !almostEqual(ext.Width(), 10) || !almostEqual(ext.Height(), 10) {
		t.Fatalf("unexpected extent %s", ext)
	}
}

func TestLayerVisible(t *testing.T) {
	l := NewLayer("l")
	l.MinZoom, l.MaxZoom = 1, 10
	if l.Visible(0.5) || !l.Visible(1) || l.Visible(10) {
		t.Fatal("unexpected zoom range handling")
	}
	l.Active = false
	if l.Visible(5) {
		t.Fatal("inactive layer should not be visible")
	}
}

func TestConfigError(t *testing.T) {
	_, err := CreateDatasource(datasource.Params{"type": "nope"})
	if !IsConfigError(err) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
	_, err = CreateFilter("[STATE = 'x'")
	if !IsConfigError(err) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
	if IsConfigError(errors.New("other")) {
		t.Fatal("plain error reported as configuration error")
	}
}
