package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

// unsetenv removes the variables for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"CALI_STYLE", "CALI_DATA", "CALI_OUTPUT", "CALI_FORMAT", "CALI_WIDTH", "CALI_HEIGHT", "CALI_ZOOM"} {
		t.Setenv(key, "")
	}
	c, err := Load(Defaults, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if c != Defaults {
		t.Fatalf("expected defaults, got %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	unsetenv(t, "CALI_WIDTH", "CALI_ZOOM")
	t.Setenv("CALI_OUTPUT", "from-env.png")
	path := filepath.Join(t.TempDir(), ".env")
	content := "CALI_WIDTH=500\nCALI_OUTPUT=from-file.png\nCALI_ZOOM=2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(Defaults, path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Width != 500 || c.Zoom != 2 {
		t.Errorf("expected values from the file, got %+v", c)
	}
	if c.Output != "from-env.png" {
		t.Errorf("environment should win over the file, got %s", c.Output)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("CALI_HEIGHT", "tall")
	if _, err := Load(Defaults, filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestFlagsOverride(t *testing.T) {
	c := Defaults
	fs := flag.NewFlagSet("cali", flag.ContinueOnError)
	c.RegisterFlags(fs)
	if err := fs.Parse([]string{"-o", "out.pdf", "-width", "300", "-zoom", "0", "install"}); err != nil {
		t.Fatal(err)
	}
	if c.Output != "out.pdf" || c.Width != 300 || c.Height != Defaults.Height {
		t.Errorf("unexpected config %+v", c)
	}
	if fs.NArg() != 1 || fs.Arg(0) != "install" {
		t.Errorf("unexpected arguments %v", fs.Args())
	}
	if err := c.Validate(); err == nil {
		t.Error("expected invalid zoom")
	}
}
