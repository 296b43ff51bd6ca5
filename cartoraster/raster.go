// Implements a raster backend to render maps,
// by wrapping rasterx.
package cartoraster

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/benoitkugler/okmap/carto"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var _ carto.Driver = (*Renderer)(nil) // assert interface conformance

type Renderer struct {
	dst    draw.Image
	dasher *rasterx.Dasher // to avoid shared state
	filler *rasterx.Filler // we use separated instance
}

// NewRenderer returns a renderer painting into dst.
// If scanner is nil, a default scanner rasterx.ScannerGV is used.
func NewRenderer(dst draw.Image, scanner rasterx.Scanner) *Renderer {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	if scanner == nil {
		scanner = rasterx.NewScannerGV(w, h, dst, b)
	}
	return &Renderer{
		dst:    dst,
		dasher: rasterx.NewDasher(w, h, scanner),
		filler: rasterx.NewFiller(w, h, scanner),
	}
}

// RenderToImage uses a ScannerGV instance to render the
// map into a new image, painted with the map background first.
func RenderToImage(m *carto.Map) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	if m.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(m.Background), image.Point{}, draw.Src)
	}
	if err := m.Render(NewRenderer(img, nil)); err != nil {
		return nil, err
	}
	return img, nil
}

type filler struct {
	*rasterx.Filler
}

func (f filler) SetColor(c color.Color, opacity float64) {
	f.Filler.SetColor(rasterx.ApplyOpacity(c, opacity))
}

type stroker struct {
	*rasterx.Dasher
}

func (s stroker) SetColor(c color.Color, opacity float64) {
	s.Dasher.SetColor(rasterx.ApplyOpacity(c, opacity))
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		carto.MiterJoin:       rasterx.Miter,
		carto.MiterRevertJoin: rasterx.MiterClip,
		carto.RoundJoin:       rasterx.Round,
		carto.BevelJoin:       rasterx.Bevel,
	}

	capToFunc = [...]rasterx.CapFunc{
		carto.ButtCap:   rasterx.ButtCap,
		carto.SquareCap: rasterx.SquareCap,
		carto.RoundCap:  rasterx.RoundCap,
	}
)

func (s stroker) SetStrokeOptions(options carto.StrokeOptions) {
	s.Dasher.SetStroke(
		options.LineWidth, options.MiterLimit, capToFunc[options.Cap],
		capToFunc[options.Cap], rasterx.FlatGap,
		joinToJoin[options.Join], options.Dash.Dash, options.Dash.DashOffset,
	)
}

func (rd *Renderer) SetupDrawers(willFill, willStroke bool) (f carto.Filler, s carto.Stroker) {
	if willFill {
		f = filler{rd.filler}
	}
	if willStroke {
		s = stroker{rd.dasher}
	}
	return f, s
}

func (rd *Renderer) DrawImage(img image.Image, at fixed.Point26_6, size fixed.Point26_6, opacity float64) {
	rect := image.Rect(at.X.Round(), at.Y.Round(), (at.X + size.X).Round(), (at.Y + size.Y).Round())
	var opts *xdraw.Options
	if opacity < 1 {
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(opacity*0xff + 0.5)})}
	}
	xdraw.CatmullRom.Scale(rd.dst, rect, img, img.Bounds(), xdraw.Over, opts)
}

func (rd *Renderer) DrawText(label carto.Label) {
	d := font.Drawer{Dst: rd.dst, Face: label.Face}
	if offsets := label.HaloOffsets(); len(offsets) != 0 {
		d.Src = image.NewUniform(label.Halo)
		for _, off := range offsets {
			d.Dot = label.Origin.Add(off)
			d.DrawString(label.Text)
		}
	}
	d.Src = image.NewUniform(label.Fill)
	d.Dot = label.Origin
	d.DrawString(label.Text)
}
