// Implements a PDF backend to render maps,
// by wrapping github.com/jung-kurt/gofpdf.
package cartopdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/benoitkugler/okmap/carto"
	"github.com/benoitkugler/okmap/fontengine"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/math/fixed"
)

// assert interface conformance
var (
	_ carto.Driver  = (*Renderer)(nil)
	_ carto.Filler  = (*filler)(nil)
	_ carto.Stroker = (*stroker)(nil)
)

// fallbackFont is the core font used for faces not embeddable.
const fallbackFont = "Helvetica"

type Renderer struct {
	pdf   *gofpdf.Fpdf
	fonts *fontengine.Engine

	filler  filler
	stroker stroker

	embedded  map[string]bool // face name -> embedded, false for the fallback
	translate func(string) string
	images    int
}

// implements the common path commands,
// shared by the filler and the stroker
type pather struct {
	pdf *gofpdf.Fpdf
}

// implements the filling operation
type filler struct {
	pather
	useNonZeroWinding bool
}

// implements the stroking operation
type stroker struct {
	pather
}

// NewRenderer return a renderer which will
// write to the current page of `pdf`, using the
// font files of `fonts` for labels.
func NewRenderer(pdf *gofpdf.Fpdf, fonts *fontengine.Engine) *Renderer {
	if fonts == nil {
		fonts = fontengine.Default
	}
	return &Renderer{
		pdf:       pdf,
		fonts:     fonts,
		filler:    filler{pather: pather{pdf}, useNonZeroWinding: true},
		stroker:   stroker{pather{pdf}},
		embedded:  make(map[string]bool),
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func fixedTof(a fixed.Point26_6) (float64, float64) {
	return float64(a.X) / 64, float64(a.Y) / 64
}

func (p *pather) Clear() {}

func (p *pather) Start(a fixed.Point26_6) {
	p.pdf.MoveTo(fixedTof(a))
}

func (p *pather) Line(b fixed.Point26_6) {
	p.pdf.LineTo(fixedTof(b))
}

func (p *pather) Stop(closeLoop bool) {
	if closeLoop {
		p.pdf.ClosePath()
	}
}

// rgba returns the 8 bits components of c and its alpha in [0, 1].
func rgba(c color.Color) (r, g, b int, alpha float64) {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return int(nc.R), int(nc.G), int(nc.B), float64(nc.A) / 0xff
}

func (f *filler) SetColor(c color.Color, opacity float64) {
	r, g, b, alpha := rgba(c)
	f.pdf.SetFillColor(r, g, b)
	f.pdf.SetAlpha(opacity*alpha, "Normal")
}

func (f *filler) Draw() {
	styleStr := "f*"
	if f.useNonZeroWinding {
		styleStr = "f"
	}
	f.pdf.DrawPath(styleStr)
}

func (f *filler) SetWinding(useNonZeroWinding bool) {
	f.useNonZeroWinding = useNonZeroWinding
}

func (s *stroker) SetColor(c color.Color, opacity float64) {
	r, g, b, alpha := rgba(c)
	s.pdf.SetDrawColor(r, g, b)
	s.pdf.SetAlpha(opacity*alpha, "Normal")
}

func (s *stroker) Draw() {
	s.pdf.DrawPath("D")
}

var (
	joinToStyle = [...]string{
		carto.MiterJoin:       "miter",
		carto.MiterRevertJoin: "miter",
		carto.RoundJoin:       "round",
		carto.BevelJoin:       "bevel",
	}

	capToStyle = [...]string{
		carto.ButtCap:   "butt",
		carto.SquareCap: "square",
		carto.RoundCap:  "round",
	}
)

func (s *stroker) SetStrokeOptions(options carto.StrokeOptions) {
	s.pdf.SetLineWidth(float64(options.LineWidth) / 64)
	s.pdf.SetLineJoinStyle(joinToStyle[options.Join])
	s.pdf.SetLineCapStyle(capToStyle[options.Cap])
	dashes := options.Dash.Dash
	if dashes == nil {
		dashes = []float64{}
	}
	s.pdf.SetDashPattern(dashes, options.Dash.DashOffset)
}

func (rd *Renderer) SetupDrawers(willFill, willStroke bool) (f carto.Filler, s carto.Stroker) {
	if willFill {
		f = &rd.filler
	}
	if willStroke {
		s = &rd.stroker
	}
	return f, s
}

func (rd *Renderer) DrawImage(img image.Image, at fixed.Point26_6, size fixed.Point26_6, opacity float64) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		rd.pdf.SetError(err)
		return
	}
	rd.images++
	name := fmt.Sprintf("symbol%d", rd.images)
	options := gofpdf.ImageOptions{ImageType: "PNG"}
	rd.pdf.RegisterImageOptionsReader(name, options, &buf)
	x, y := fixedTof(at)
	w, h := fixedTof(size)
	rd.pdf.SetAlpha(opacity, "Normal")
	rd.pdf.ImageOptions(name, x, y, w, h, false, options, 0, "")
	rd.pdf.SetAlpha(1, "Normal")
}

// setFont selects the face for the label, embedding the
// font file the first time it is used. It returns false
// when the core fallback font is used.
func (rd *Renderer) setFont(faceName string, size float64) bool {
	embedded, seen := rd.embedded[faceName]
	if !seen {
		embedded = rd.embed(faceName)
		rd.embedded[faceName] = embedded
		if !embedded {
			carto.Logger().Warn("font face not embeddable in pdf, using core font", "face", faceName, "font", fallbackFont)
		}
	}
	if embedded {
		rd.pdf.SetFont(faceName, "", size)
	} else {
		rd.pdf.SetFont(fallbackFont, "", size)
	}
	return embedded
}

func (rd *Renderer) embed(faceName string) bool {
	data, ok := rd.fonts.Data(faceName)
	if !ok || faceName == "" {
		return false
	}
	rd.pdf.AddUTF8FontFromBytes(faceName, "", data)
	if !rd.pdf.Ok() {
		rd.pdf.ClearError()
		return false
	}
	return true
}

func (rd *Renderer) DrawText(label carto.Label) {
	text := label.Text
	if !rd.setFont(label.FaceName, label.Size) {
		text = rd.translate(text)
	}
	x, y := fixedTof(label.Origin)
	if offsets := label.HaloOffsets(); len(offsets) != 0 {
		r, g, b, alpha := rgba(label.Halo)
		rd.pdf.SetTextColor(r, g, b)
		rd.pdf.SetAlpha(alpha, "Normal")
		for _, off := range offsets {
			dx, dy := fixedTof(off)
			rd.pdf.Text(x+dx, y+dy, text)
		}
	}
	r, g, b, alpha := rgba(label.Fill)
	rd.pdf.SetTextColor(r, g, b)
	rd.pdf.SetAlpha(alpha, "Normal")
	rd.pdf.Text(x, y, text)
	rd.pdf.SetAlpha(1, "Normal")
}

// NewDocument returns a one page document the size of the map,
// one point per pixel, painted with the map background.
func NewDocument(m *carto.Map) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(m.Width), Ht: float64(m.Height)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	if m.Background != nil {
		r, g, b, alpha := rgba(m.Background)
		pdf.SetFillColor(r, g, b)
		pdf.SetAlpha(alpha, "Normal")
		pdf.Rect(0, 0, float64(m.Width), float64(m.Height), "F")
		pdf.SetAlpha(1, "Normal")
	}
	return pdf
}

// Render draws the map as a PDF document written to w.
func Render(m *carto.Map, w io.Writer) error {
	pdf := NewDocument(m)
	if err := m.Render(NewRenderer(pdf, m.Fonts)); err != nil {
		return err
	}
	return pdf.Output(w)
}

// SaveToFile draws the map as a PDF document stored at path.
func SaveToFile(m *carto.Map, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = Render(m, f)
	if errC := f.Close(); err == nil {
		err = errC
	}
	return err
}
