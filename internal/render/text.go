package render

import (
	"math"
	"strings"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"DesignStudio/internal/state"
)

type fontKey struct {
	mono, bold, italic bool
}

type fontSet struct {
	sources map[fontKey]*text.FontSource
}

func loadFonts() (*fontSet, error) {
	ttf := []struct {
		key  fontKey
		data []byte
	}{
		{fontKey{}, goregular.TTF},
		{fontKey{bold: true}, gobold.TTF},
		{fontKey{italic: true}, goitalic.TTF},
		{fontKey{bold: true, italic: true}, gobolditalic.TTF},
		{fontKey{mono: true}, gomono.TTF},
		{fontKey{mono: true, bold: true}, gomonobold.TTF},
		{fontKey{mono: true, italic: true}, gomonoitalic.TTF},
		{fontKey{mono: true, bold: true, italic: true}, gomonobolditalic.TTF},
	}
	fs := &fontSet{sources: make(map[fontKey]*text.FontSource, len(ttf))}
	for _, f := range ttf {
		src, err := text.NewFontSource(f.data)
		if err != nil {
			return nil, err
		}
		fs.sources[f.key] = src
	}
	return fs, nil
}

// monospaced reports whether a CSS-ish family name asks for a fixed pitch face.
func monospaced(family string) bool {
	f := strings.ToLower(family)
	for _, m := range []string{"mono", "courier", "consolas", "menlo"} {
		if strings.Contains(f, m) {
			return true
		}
	}
	return false
}

func (fs *fontSet) face(t *state.TextAttrs, size float64) text.Face {
	k := fontKey{mono: monospaced(t.FontFamily), bold: t.Bold, italic: t.Italic}
	return fs.sources[k].Face(size)
}

func surfaceSize(advance, height float64) (w, h int) {
	return int(math.Ceil(advance)) + 1, int(math.Ceil(height)) + 1
}

// MeasureText is the unrotated size, in canvas units, of the box drawText
// fills for t.
func (r *Renderer) MeasureText(t *state.TextAttrs) (w, h float64) {
	if t == nil || t.Content == "" {
		return 0, 0
	}
	face := r.fonts.face(t, t.FontSize)
	met := face.Metrics()
	pw, ph := surfaceSize(face.Advance(t.Content), met.Ascent+met.Descent)
	return float64(pw), float64(ph)
}

// drawText rasterises the text at device resolution on its own surface and
// places that surface through the current transform, so rotation and
// opacity apply to text like any other object.
func (r *Renderer) drawText(dc *gg.Context, o state.Object, m float64) error {
	t := o.Text
	if t == nil || t.Content == "" {
		return nil
	}
	c, err := state.ParseColor(o.Fill)
	if err != nil {
		return nil
	}
	face := r.fonts.face(t, t.FontSize*m)
	met := face.Metrics()
	tw := face.Advance(t.Content)
	pw, ph := surfaceSize(tw, met.Ascent+met.Descent)

	sub := gg.NewContext(pw, ph)
	defer sub.Close()
	sub.SetColor(c)
	sub.SetFont(face)
	sub.DrawString(t.Content, 0, met.Ascent)
	if t.Underline {
		y := met.Ascent + max(met.Descent/3, 1)
		sub.SetLineWidth(max(t.FontSize*m/16, 1))
		sub.DrawLine(0, y, tw, y)
		if err := sub.Stroke(); err != nil {
			return err
		}
	}

	dc.DrawImageEx(gg.ImageBufFromImage(sub.Image()), gg.DrawImageOptions{
		X: o.X, Y: o.Y,
		DstWidth:  float64(pw) / m,
		DstHeight: float64(ph) / m,
		Opacity:   o.Opacity,
	})
	return nil
}
