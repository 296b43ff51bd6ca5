package carto

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Given a map definition, rendering walks its layers and
// sends screen-space drawing operations to a driver, such as
// a rasterizer to output .png images or a pdf writer.

// Drawer knows how to do the actual draw operations
// but doesn't need any cartographic knowledge.
// In particular, the view transform is already applied to the points
// before sending them to the Drawer.
type Drawer interface {
	// Clear must reset the internal state (used before starting a new path painting)
	Clear()

	// Start starts a new path at the given point.
	Start(a fixed.Point26_6)

	// Line adds a line from the current point to `b`
	Line(b fixed.Point26_6)

	// Stop closes the path to the start point if `closeLoop` is true
	Stop(closeLoop bool)

	// SetColor sets the color for the current path
	SetColor(c color.Color, opacity float64)

	// Draw fills or strokes the accumulated path using the current settings
	Draw()
}

type Filler interface {
	Drawer

	// SetWinding decides to use or not the NonZeroWinding rule for the current path
	SetWinding(useNonZeroWinding bool)
}

type Stroker interface {
	Drawer

	// SetStrokeOptions parametrizes the stroking style for the current path
	SetStrokeOptions(options StrokeOptions)
}

// Label is a piece of text to draw, already placed on screen.
type Label struct {
	Text     string
	FaceName string
	Face     font.Face // resolved face, used for metrics
	Size     float64
	Origin   fixed.Point26_6 // left end of the baseline
	Fill     color.Color
	Halo     color.Color // nil for no halo
	HaloSize float64
}

// HaloOffsets returns the integer offsets, inside a disk of radius
// HaloSize, at which the halo color is painted below the text.
func (l Label) HaloOffsets() []fixed.Point26_6 {
	if l.Halo == nil {
		return nil
	}
	r := l.HaloSize
	n := int(r + 0.5)
	var out []fixed.Point26_6
	for dy := -n; dy <= n; dy++ {
		for dx := -n; dx <= n; dx++ {
			if (dx != 0 || dy != 0) && float64(dx*dx+dy*dy) <= r*r+0.5 {
				out = append(out, fixed.P(dx, dy))
			}
		}
	}
	return out
}

type Driver interface {
	// SetupDrawers returns the backend painters, and
	// will be called at the beginning of every path.
	// If the `willXXX` boolean is false, the returned drawer should be nil
	// to avoid useless operations.
	SetupDrawers(willFill, willStroke bool) (Filler, Stroker)

	// DrawImage paints img with its top left corner at `at`,
	// scaled to size (in pixels).
	DrawImage(img image.Image, at fixed.Point26_6, size fixed.Point26_6, opacity float64)

	// DrawText paints a label.
	DrawText(label Label)
}

type DashOptions struct {
	Dash       []float64 // values for the dash pattern (nil or an empty slice for no dashes)
	DashOffset float64   // starting offset into the dash array
}

// JoinMode type to specify how segments join.
type JoinMode uint8

const (
	MiterJoin JoinMode = iota
	MiterRevertJoin
	RoundJoin
	BevelJoin
)

func (s JoinMode) String() string {
	switch s {
	case MiterJoin:
		return "miter"
	case MiterRevertJoin:
		return "miter_revert"
	case RoundJoin:
		return "round"
	case BevelJoin:
		return "bevel"
	default:
		return "<unknown JoinMode>"
	}
}

// CapMode defines how to draw caps on the ends of lines
type CapMode uint8

const (
	ButtCap CapMode = iota
	SquareCap
	RoundCap
)

func (c CapMode) String() string {
	switch c {
	case ButtCap:
		return "butt"
	case SquareCap:
		return "square"
	case RoundCap:
		return "round"
	default:
		return "<unknown CapMode>"
	}
}

type StrokeOptions struct {
	LineWidth  fixed.Int26_6 // width of the line
	MiterLimit fixed.Int26_6
	Join       JoinMode
	Cap        CapMode
	Dash       DashOptions
}
