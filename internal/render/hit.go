package render

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"DesignStudio/internal/state"
)

// TextMeasurer reports the laid out size of a text object's box.
type TextMeasurer interface {
	MeasureText(t *state.TextAttrs) (w, h float64)
}

// Hits finds the topmost object under a point. Thin strokes are hittable
// within Tolerance canvas units. With Text set, text boxes are measured
// with the fonts they are drawn with instead of estimated.
type Hits struct {
	Tolerance float64
	Text      TextMeasurer
}

func (h Hits) HitTest(objects []state.Object, p state.Point) (string, bool) {
	for i := len(objects) - 1; i >= 0; i-- {
		if h.contains(objects[i], p) {
			return objects[i].ID, true
		}
	}
	return "", false
}

func (h Hits) contains(o state.Object, p state.Point) bool {
	if o.Kind != state.KindText || o.Text == nil || h.Text == nil {
		return o.Contains(p, h.Tolerance)
	}
	w, ht := h.Text.MeasureText(o.Text)
	return o.WithinBox(p, state.Rect{X: o.X, Y: o.Y, W: w, H: ht})
}

// Fit scales img down to fit within maxW x maxH, keeping its aspect ratio.
// Images already small enough are returned as they are.
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if maxW <= 0 {
		maxW = b.Dx()
	}
	if maxH <= 0 {
		maxH = b.Dy()
	}
	if b.Dx() == 0 || b.Dy() == 0 || (b.Dx() <= maxW && b.Dy() <= maxH) {
		return img
	}
	scale := min(float64(maxW)/float64(b.Dx()), float64(maxH)/float64(b.Dy()))
	w := max(int(float64(b.Dx())*scale), 1)
	h := max(int(float64(b.Dy())*scale), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
