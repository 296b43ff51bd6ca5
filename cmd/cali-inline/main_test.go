package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benoitkugler/okmap/internal/shptest"
)

func TestUsage(t *testing.T) {
	// settings are checked once an installation directory is given
	t.Setenv("CALI_ZOOM", "close")
	var stdout, stderr bytes.Buffer
	if code := run([]string{}, &stdout, &stderr); code != 0 {
		t.Errorf("expected exit status 0, got %d", code)
	}
	if strings.TrimSpace(stdout.String()) != "usage: cali-inline <install_dir>" {
		t.Errorf("unexpected usage %q", stdout.String())
	}
}

func TestRunPDF(t *testing.T) {
	for _, key := range []string{"CALI_FORMAT", "CALI_WIDTH", "CALI_HEIGHT", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	base := shptest.Write(t, dir, "states", shptest.StateFields, []shptest.Rect{
		{MinX: -124, MinY: 32, MaxX: -114, MaxY: 42, Attrs: []interface{}{"California"}},
	})

	output := filepath.Join(dir, "cali.pdf")
	var stdout, stderr bytes.Buffer
	// no font in the installation directory: labels use the core font
	args := []string{"-data", base, "-o", output, "-zoom", "1.5", dir}
	if code := run(args, &stdout, &stderr); code != 0 {
		t.Fatalf("expected success, got %d: %s", code, stderr.String())
	}
	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		t.Error("expected a pdf document")
	}
	if !strings.Contains(stderr.String(), "default font not registered") {
		t.Errorf("expected a font warning, got %q", stderr.String())
	}
}
