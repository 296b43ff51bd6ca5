package carto

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var errColorFormat = errors.New("bad color format")

// NewColor returns the opaque color (r, g, b).
func NewColor(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

// ParseColor reads a CSS color: a name ("cornsilk"), #rgb, #rrggbb,
// #rrggbbaa, rgb(r,g,b), rgba(r,g,b,a) where components may be given
// in percent, or "transparent".
func ParseColor(v string) (color.NRGBA, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case v == "transparent":
		return color.NRGBA{}, nil
	case strings.HasPrefix(v, "#"):
		return parseHexColor(v[1:])
	case strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba("):
		return parseFuncColor(v)
	}
	c, ok := colornames.Map[v]
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w: unknown color name '%s'", errColorFormat, v)
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
}

// MustParseColor is like ParseColor but panics on error.
func MustParseColor(v string) color.NRGBA {
	c, err := ParseColor(v)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHexColor(h string) (color.NRGBA, error) {
	switch len(h) {
	case 3, 4:
		var expanded strings.Builder
		for _, r := range h {
			expanded.WriteRune(r)
			expanded.WriteRune(r)
		}
		h = expanded.String()
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("%w: '#%s'", errColorFormat, h)
	}
	if len(h) == 6 {
		h += "ff"
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: '#%s'", errColorFormat, h)
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

func parseFuncColor(v string) (color.NRGBA, error) {
	open, end := strings.IndexByte(v, '('), strings.LastIndexByte(v, ')')
	if end < open {
		return color.NRGBA{}, fmt.Errorf("%w: '%s'", errColorFormat, v)
	}
	parts := strings.Split(v[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, fmt.Errorf("%w: '%s'", errColorFormat, v)
	}
	var comps [4]uint8
	comps[3] = 0xff
	for i, p := range parts {
		p = strings.TrimSpace(p)
		var (
			f   float64
			err error
		)
		switch {
		case strings.HasSuffix(p, "%"):
			f, err = strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
			f = f * 255 / 100
		case i == 3:
			f, err = strconv.ParseFloat(p, 64)
			f *= 255
		default:
			f, err = strconv.ParseFloat(p, 64)
		}
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: '%s'", errColorFormat, v)
		}
		comps[i] = clamp8(f)
	}
	return color.NRGBA{R: comps[0], G: comps[1], B: comps[2], A: comps[3]}, nil
}

func clamp8(f float64) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 255:
		return 255
	default:
		return uint8(f + 0.5)
	}
}
