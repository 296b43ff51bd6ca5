package calimap

import (
	"path/filepath"
	"strings"

	"github.com/benoitkugler/okmap/carto"
	"github.com/benoitkugler/okmap/cartopdf"
	"github.com/benoitkugler/okmap/cartoraster"
	"github.com/benoitkugler/okmap/fontengine"
)

// DefaultFont is the font file registered from the installation directory.
const DefaultFont = "fonts/dejavu-ttf-2.14/DejaVuSans.ttf"

// LoadFonts registers DefaultFont, then every font found under
// the fonts directory of installDir. Missing fonts are only reported
// as warnings: labels fall back to a builtin face.
func LoadFonts(fonts *fontengine.Engine, installDir string) {
	log := carto.Logger()
	if err := fonts.RegisterFont(filepath.Join(installDir, DefaultFont)); err != nil {
		log.Warn("default font not registered", "err", err)
	}
	n, err := fonts.RegisterFonts(filepath.Join(installDir, "fonts"))
	if err != nil {
		log.Warn("font directory not registered", "err", err)
	}
	log.Debug("fonts registered", "count", n, "faces", fonts.Names())
}

// Save renders m to path. format is "pdf" for a vector document,
// or one of the image formats of cartoraster.Encode; when empty
// it is deduced from the extension of path.
func Save(m *carto.Map, path, format string) error {
	if format == "" {
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			format = "pdf"
		} else {
			format = cartoraster.FormatOf(path)
		}
	}
	carto.Logger().Debug("rendering map", "output", path, "format", format, "extent", m.Extent().String())
	if strings.EqualFold(format, "pdf") {
		return cartopdf.SaveToFile(m, path)
	}
	img, err := cartoraster.RenderToImage(m)
	if err != nil {
		return err
	}
	return cartoraster.SaveToFile(img, path, format)
}
