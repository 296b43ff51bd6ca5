package fontengine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

func TestRegisterFonts(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "go")
	if err := os.MkdirAll(sub, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "Go-Regular.ttf"), goregular.TTF, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Go-Bold.ttf"), gobold.TTF, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.ttf"), []byte("not a font"), os.ModePerm); err != nil {
		t.Fatal(err)
	}

	e := New()
	n, err := e.RegisterFonts(dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 fonts registered, got %d", n)
	}

	for _, name := range []string{"Go Regular", "Go Bold", "Go"} {
		if _, ok := e.Path(name); !ok {
			t.Errorf("face %s not registered (have %v)", name, e.Names())
		}
	}
	if p, _ := e.Path("Go Bold"); filepath.Base(p) != "Go-Bold.ttf" {
		t.Errorf("unexpected path %s", p)
	}
}

func TestFace(t *testing.T) {
	e := New()
	if err := e.RegisterFontData("goregular", goregular.TTF); err != nil {
		t.Fatal(err)
	}
	face, err := e.Face("Go Regular", 12)
	if err != nil {
		t.Fatal(err)
	}
	if w := font.MeasureString(face, "mount Whitney"); w <= 0 {
		t.Errorf("expected positive advance, got %v", w)
	}
	again, _ := e.Face("Go Regular", 12)
	if again != face {
		t.Error("faces should be cached")
	}

	if _, err := e.Face("DejaVu Sans Book", 10); !errors.Is(err, ErrFaceNotFound) {
		t.Errorf("expected ErrFaceNotFound, got %v", err)
	}
	if err := e.RegisterFont(filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Error("expected error for missing file")
	}
}
