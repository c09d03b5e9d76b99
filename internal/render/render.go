// Package render rasterises document snapshots with gg.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/gogpu/gg"

	"DesignStudio/internal/logging"
	"DesignStudio/internal/state"
)

// Assets looks up decoded pixels for an image object's Src.
// *state.Document satisfies it.
type Assets interface {
	Asset(src string) (image.Image, bool)
}

var ErrEmptyCanvas = errors.New("canvas has no area")

var (
	white       = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	placeholder = color.NRGBA{R: 220, G: 220, B: 220, A: 255}
	outline     = color.NRGBA{R: 150, G: 150, B: 150, A: 255}
)

// Renderer draws snapshots. It caches fonts and converted image buffers
// and is safe for concurrent use.
type Renderer struct {
	fonts *fontSet

	mu     sync.Mutex
	images map[string]*gg.ImageBuf
}

func New() (*Renderer, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	return &Renderer{fonts: fonts, images: make(map[string]*gg.ImageBuf)}, nil
}

// Render draws s at multiplier times its canvas size. Images whose pixels
// are missing from assets draw as a placeholder box.
func (r *Renderer) Render(s state.Snapshot, assets Assets, multiplier float64) (*image.RGBA, error) {
	if multiplier <= 0 {
		multiplier = 1
	}
	w := int(math.Ceil(s.Width * multiplier))
	h := int(math.Ceil(s.Height * multiplier))
	if w < 1 || h < 1 {
		return nil, ErrEmptyCanvas
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()

	dc.SetColor(state.ColorOr(s.Background, white))
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	dc.Scale(multiplier, multiplier)

	for _, o := range s.Objects {
		if err := r.draw(dc, o, assets, multiplier); err != nil {
			return nil, fmt.Errorf("draw %s: %w", o.ID, err)
		}
	}
	logging.For("render").Debug("rendered", "objects", len(s.Objects), "width", w, "height", h)
	return toRGBA(dc.Image()), nil
}

func (r *Renderer) draw(dc *gg.Context, o state.Object, assets Assets, m float64) error {
	if o.Opacity <= 0 {
		return nil
	}
	dc.Push()
	defer dc.Pop()
	if o.Rotation != 0 {
		c := r.bounds(o).Center()
		dc.RotateAbout(o.Rotation*math.Pi/180, c.X, c.Y)
	}

	switch o.Kind {
	case state.KindRectangle:
		dc.DrawRectangle(o.X, o.Y, o.Width, o.Height)
		return paint(dc, o)
	case state.KindCircle:
		dc.DrawCircle(o.X+o.Radius, o.Y+o.Radius, o.Radius)
		return paint(dc, o)
	case state.KindTriangle, state.KindPolygon:
		trace(dc, o.Outline(), true)
		return paint(dc, o)
	case state.KindLine, state.KindPath:
		return strokeLine(dc, o)
	case state.KindText:
		return r.drawText(dc, o, m)
	case state.KindImage:
		return r.drawImage(dc, o, assets)
	}
	return fmt.Errorf("unknown kind %q", o.Kind)
}

// bounds is o.Bounds with text measured in the fonts it is drawn with, so
// rotation turns text about the same center hit testing uses.
func (r *Renderer) bounds(o state.Object) state.Rect {
	if o.Kind == state.KindText && o.Text != nil {
		w, h := r.MeasureText(o.Text)
		return state.Rect{X: o.X, Y: o.Y, W: w, H: h}
	}
	return o.Bounds()
}

func trace(dc *gg.Context, pts []state.Point, closed bool) {
	for i, p := range pts {
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
		} else {
			dc.LineTo(p.X, p.Y)
		}
	}
	if closed && len(pts) > 0 {
		dc.ClosePath()
	}
}

// paint fills and strokes the current path with o's style.
func paint(dc *gg.Context, o state.Object) error {
	defer dc.ClearPath()
	if o.Fill != "" {
		if c, err := state.ParseColor(o.Fill); err == nil {
			dc.SetColor(fade(c, o.Opacity))
			if err := dc.FillPreserve(); err != nil {
				return err
			}
		}
	}
	if o.Stroke != "" && o.StrokeWidth > 0 {
		if c, err := state.ParseColor(o.Stroke); err == nil {
			dc.SetColor(fade(c, o.Opacity))
			dc.SetLineWidth(o.StrokeWidth)
			if err := dc.StrokePreserve(); err != nil {
				return err
			}
		}
	}
	return nil
}

func strokeLine(dc *gg.Context, o state.Object) error {
	c, err := state.ParseColor(o.Stroke)
	if err != nil || o.StrokeWidth <= 0 {
		return nil
	}
	dc.SetColor(fade(c, o.Opacity))
	pts := o.Polyline()
	if len(pts) == 1 {
		dc.DrawCircle(pts[0].X, pts[0].Y, o.StrokeWidth/2)
		return dc.Fill()
	}
	dc.SetLineWidth(o.StrokeWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	trace(dc, pts, false)
	return dc.Stroke()
}

func (r *Renderer) drawImage(dc *gg.Context, o state.Object, assets Assets) error {
	im := o.Image
	w := float64(im.NaturalWidth) * im.ScaleX
	h := float64(im.NaturalHeight) * im.ScaleY
	if w <= 0 || h <= 0 {
		return nil
	}
	var src image.Image
	ok := false
	if assets != nil {
		src, ok = assets.Asset(im.Src)
	}
	if !ok {
		dc.DrawRectangle(o.X, o.Y, w, h)
		dc.SetColor(fade(placeholder, o.Opacity))
		if err := dc.FillPreserve(); err != nil {
			return err
		}
		dc.SetColor(fade(outline, o.Opacity))
		dc.SetLineWidth(1)
		if err := dc.Stroke(); err != nil {
			return err
		}
		dc.DrawLine(o.X, o.Y, o.X+w, o.Y+h)
		dc.DrawLine(o.X+w, o.Y, o.X, o.Y+h)
		return dc.Stroke()
	}
	dc.DrawImageEx(r.buffer(im.Src, src), gg.DrawImageOptions{
		X: o.X, Y: o.Y, DstWidth: w, DstHeight: h,
		Opacity: o.Opacity,
	})
	return nil
}

func (r *Renderer) buffer(src string, img image.Image) *gg.ImageBuf {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.images[src]; ok {
		return b
	}
	b := gg.ImageBufFromImage(img)
	r.images[src] = b
	return b
}

// fade scales c's alpha by opacity.
func fade(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * min(max(opacity, 0), 1)))
	return c
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
