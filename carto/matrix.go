package carto

import (
	"github.com/benoitkugler/okmap/geom"
	"golang.org/x/image/math/fixed"
)

// Matrix2D is an affine transform:
//
//	x' = A*x + C*y + E
//	y' = B*x + D*y + F
type Matrix2D struct{ A, B, C, D, E, F float64 }

// Identity is the identity transform.
var Identity = Matrix2D{1, 0, 0, 1, 0, 0}

// Mult returns the transform applying b, then a.
func (a Matrix2D) Mult(b Matrix2D) Matrix2D {
	return Matrix2D{
		A: a.A*b.A + a.C*b.B,
		B: a.B*b.A + a.D*b.B,
		C: a.A*b.C + a.C*b.D,
		D: a.B*b.C + a.D*b.D,
		E: a.A*b.E + a.C*b.F + a.E,
		F: a.B*b.E + a.D*b.F + a.F,
	}
}

// Translate returns a translated by (x, y), applied before a.
func (a Matrix2D) Translate(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{1, 0, 0, 1, x, y})
}

// Scale returns a scaled by (x, y), applied before a.
func (a Matrix2D) Scale(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{x, 0, 0, y, 0, 0})
}

// Transform applies the matrix to (x, y).
func (a Matrix2D) Transform(x, y float64) (float64, float64) {
	return a.A*x + a.C*y + a.E, a.B*x + a.D*y + a.F
}

// TFixed transforms a map point to a fixed screen point.
func (a Matrix2D) TFixed(p geom.Point) fixed.Point26_6 {
	x, y := a.Transform(p.X(), p.Y())
	return fixed.Point26_6{X: fToFixed(x), Y: fToFixed(y)}
}

func fToFixed(f float64) fixed.Int26_6 {
	return fixed.Int26_6(f * 64)
}

// viewTransform maps the extent onto a width x height canvas,
// flipping the y axis.
func viewTransform(extent geom.Envelope, width, height int) Matrix2D {
	sx := float64(width) / extent.Width()
	sy := float64(height) / extent.Height()
	return Identity.Translate(0, float64(height)).Scale(sx, -sy).Translate(-extent.MinX(), -extent.MinY())
}
