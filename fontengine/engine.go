// Keeps track of the font files available to the renderers.
// Fonts are registered from files, looked up by face name
// ("DejaVu Sans Book") or family name ("DejaVu Sans"), and
// instantiated at a given size.
package fontengine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// ErrFaceNotFound is returned when no registered font matches the requested face name.
var ErrFaceNotFound = errors.New("fontengine: face not found")

type entry struct {
	path string
	data []byte
	font *opentype.Font
}

type faceKey struct {
	name string
	size float64
}

// Engine is a font registry, safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	byName map[string]entry
	faces  map[faceKey]font.Face
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{byName: make(map[string]entry), faces: make(map[faceKey]font.Face)}
}

// Default is the engine used by the package-level functions.
var Default = New()

// RegisterFont registers the font file with the Default engine.
func RegisterFont(path string) error { return Default.RegisterFont(path) }

// RegisterFonts registers a font directory with the Default engine.
func RegisterFonts(dir string) (int, error) { return Default.RegisterFonts(dir) }

// RegisterFont parses the font file at path and makes it available
// under its full face name and its family name. A face already known
// keeps its first registration.
func (e *Engine) RegisterFont(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fontengine: reading font: %w", err)
	}
	return e.register(path, data)
}

// RegisterFontData is like RegisterFont for an in-memory font file;
// origin is reported by Path.
func (e *Engine) RegisterFontData(origin string, data []byte) error {
	return e.register(origin, data)
}

func (e *Engine) register(origin string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("fontengine: failed to parse font %s: %w", origin, err)
	}
	family, _ := f.Name(nil, sfnt.NameIDFamily)
	if family == "" {
		return fmt.Errorf("fontengine: font %s has no family name", origin)
	}
	style, _ := f.Name(nil, sfnt.NameIDSubfamily)

	e.mu.Lock()
	defer e.mu.Unlock()
	ent := entry{path: origin, data: data, font: f}
	names := []string{family}
	if style != "" {
		names = append(names, family+" "+style)
	}
	for _, name := range names {
		if _, ok := e.byName[name]; !ok {
			e.byName[name] = ent
		}
	}
	return nil
}

// RegisterFonts walks dir and registers every .ttf and .otf file
// it contains. Files failing to parse are skipped; the number of
// fonts registered is returned.
func (e *Engine) RegisterFonts(dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ttf", ".otf":
			if e.RegisterFont(path) == nil {
				n++
			}
		}
		return nil
	})
	return n, err
}

// Names returns the sorted face names.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.byName))
	for name := range e.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Path returns the file the face was loaded from.
func (e *Engine) Path(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.byName[name]
	return ent.path, ok
}

// Data returns the content of the font file of the face,
// for backends embedding fonts.
func (e *Engine) Data(name string) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.byName[name]
	return ent.data, ok
}

// Face returns the face name at size points (72 DPI, that is pixels).
// Faces are cached.
func (e *Engine) Face(name string, size float64) (font.Face, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := faceKey{name: name, size: size}
	if face, ok := e.faces[key]; ok {
		return face, nil
	}
	ent, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrFaceNotFound, name)
	}
	face, err := opentype.NewFace(ent.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("fontengine: creating face '%s': %w", name, err)
	}
	e.faces[key] = face
	return face, nil
}
