package shptest

import (
	"os"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
)

func TestWriteStates(t *testing.T) {
	dir := t.TempDir()
	base := WriteStates(t, dir, []string{"California", "Nevada"}, []float64{-124, -120})
	if _, err := os.Stat(base + "dbf"); err == nil {
		t.Error("misnamed attribute file left behind")
	}

	r, err := shp.Open(base + ".shp")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if fields := r.Fields(); len(fields) != 1 || fields[0].String() != "STATE" {
		t.Fatalf("expected the STATE field, got %v", fields)
	}
	var states []string
	for r.Next() {
		n, _ := r.Shape()
		states = append(states, strings.Trim(r.ReadAttribute(n, 0), "\x00 "))
	}
	if len(states) != 2 || states[0] != "California" || states[1] != "Nevada" {
		t.Errorf("unexpected attributes %v", states)
	}
	if box := r.BBox(); box.MinX != -124 || box.MaxX != -116 || box.MinY != 32 || box.MaxY != 42 {
		t.Errorf("unexpected bounding box %v", box)
	}
}
