package carto

import "golang.org/x/image/math/fixed"

// labelCollector remembers the screen boxes taken by labels and markers.
type labelCollector struct {
	canvas fixed.Rectangle26_6
	boxes  []fixed.Rectangle26_6
}

func newLabelCollector(width, height int) *labelCollector {
	return &labelCollector{canvas: fixed.Rectangle26_6{Max: fixed.Point26_6{X: fixed.I(width), Y: fixed.I(height)}}}
}

func inside(r, s fixed.Rectangle26_6) bool {
	return r.Min.X >= s.Min.X && r.Min.Y >= s.Min.Y && r.Max.X <= s.Max.X && r.Max.Y <= s.Max.Y
}

func overlaps(r, s fixed.Rectangle26_6) bool {
	return r.Min.X < s.Max.X && s.Min.X < r.Max.X && r.Min.Y < s.Max.Y && s.Min.Y < r.Max.Y
}

// place reserves box and returns true, unless box leaves the canvas
// or, when allowOverlap is false, collides with a reserved box.
func (lc *labelCollector) place(box fixed.Rectangle26_6, allowOverlap bool) bool {
	if !inside(box, lc.canvas) {
		return false
	}
	if !allowOverlap {
		for _, other := range lc.boxes {
			if overlaps(other, box) {
				return false
			}
		}
	}
	lc.boxes = append(lc.boxes, box)
	return true
}
