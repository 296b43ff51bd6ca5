package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benoitkugler/okmap/internal/shptest"
	"golang.org/x/image/font/gofont/goregular"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"CALI_STYLE", "CALI_DATA", "CALI_OUTPUT", "CALI_FORMAT", "CALI_WIDTH", "CALI_HEIGHT", "CALI_ZOOM", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
}

// writeStates writes California and Nevada as rectangles,
// and returns the shapefile path without extension.
func writeStates(t *testing.T, dir string) string {
	return shptest.WriteStates(t, dir, []string{"California", "Nevada"}, []float64{-124, -120})
}

// writeInstall lays out an installation directory holding one font.
func writeInstall(t *testing.T, dir string) string {
	t.Helper()
	install := filepath.Join(dir, "install")
	fontDir := filepath.Join(install, "fonts", "dejavu-ttf-2.14")
	if err := os.MkdirAll(fontDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(fontDir, "DejaVuSans.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	return install
}

func TestUsage(t *testing.T) {
	clearEnv(t)
	for _, args := range [][]string{nil, {"a", "b"}} {
		var stdout, stderr bytes.Buffer
		if code := run(args, &stdout, &stderr); code != 0 {
			t.Errorf("%v: expected exit status 0, got %d", args, code)
		}
		if !strings.HasPrefix(stdout.String(), "usage: cali") {
			t.Errorf("%v: expected usage, got %q", args, stdout.String())
		}
	}
}

func TestUsageBeforeEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("CALI_WIDTH", "wide")

	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 0 {
		t.Errorf("expected exit status 0, got %d: %s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "usage: cali") {
		t.Errorf("expected usage, got %q", stdout.String())
	}

	stdout.Reset()
	if code := run([]string{t.TempDir()}, &stdout, &stderr); code != 1 {
		t.Errorf("expected exit status 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "### error: config: invalid CALI_WIDTH") {
		t.Errorf("expected the invalid setting to be reported, got %q", stderr.String())
	}
}

func TestRun(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	data := writeStates(t, dir)
	install := writeInstall(t, dir)
	output := filepath.Join(dir, "cali.png")

	var stdout, stderr bytes.Buffer
	args := []string{"-data", data, "-o", output, "-width", "540", "-height", "340", install}
	if code := run(args, &stdout, &stderr); code != 0 {
		t.Fatalf("expected success, got %d: %s", code, stderr.String())
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 540 || b.Dy() != 340 {
		t.Errorf("unexpected image size %v", b)
	}
}

func TestRunErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	data := writeStates(t, dir)
	install := writeInstall(t, dir)

	var stdout, stderr bytes.Buffer
	args := []string{"-style", filepath.Join(dir, "missing.xml"), "-data", data, "-o", filepath.Join(dir, "out.png"), install}
	if code := run(args, &stdout, &stderr); code != 1 {
		t.Errorf("expected exit status 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "### Configuration error: ") {
		t.Errorf("expected a configuration error, got %q", stderr.String())
	}

	stderr.Reset()
	args = []string{"-data", data, "-o", filepath.Join(dir, "out.gif"), "-format", "gif", install}
	if code := run(args, &stdout, &stderr); code != 1 {
		t.Errorf("expected exit status 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "### error: ") {
		t.Errorf("expected an error, got %q", stderr.String())
	}
}
