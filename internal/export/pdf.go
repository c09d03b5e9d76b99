package export

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"DesignStudio/internal/render"
	"DesignStudio/internal/state"
)

// PDF writes s as a single vector page the size of the canvas, one point
// per canvas unit. Images are embedded as PNG; text uses the core PDF fonts
// closest to the object's family.
func PDF(w io.Writer, s state.Snapshot, assets render.Assets) error {
	p := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: s.Width, Ht: s.Height},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()

	pw := &pdfWriter{pdf: p, assets: assets, tr: p.UnicodeTranslatorFromDescriptor("")}
	if r, g, b, ok := rgb(s.Background); ok {
		p.SetFillColor(r, g, b)
		p.Rect(0, 0, s.Width, s.Height, "F")
	}
	for _, o := range s.Objects {
		pw.object(o)
	}
	if err := p.Output(w); err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}
	return nil
}

type pdfWriter struct {
	pdf    *gofpdf.Fpdf
	assets render.Assets
	tr     func(string) string
	images int
}

func rgb(c string) (int, int, int, bool) {
	col, err := state.ParseColor(c)
	if err != nil || c == "" {
		return 0, 0, 0, false
	}
	return int(col.R), int(col.G), int(col.B), true
}

// style sets fill and draw colours for o and returns the gofpdf style string,
// or "" when there is nothing to paint.
func (w *pdfWriter) style(o state.Object, fill bool) string {
	var st string
	if r, g, b, ok := rgb(o.Fill); fill && ok {
		w.pdf.SetFillColor(r, g, b)
		st += "F"
	}
	if r, g, b, ok := rgb(o.Stroke); ok && o.StrokeWidth > 0 {
		w.pdf.SetDrawColor(r, g, b)
		w.pdf.SetLineWidth(o.StrokeWidth)
		st += "D"
	}
	return st
}

func (w *pdfWriter) object(o state.Object) {
	if o.Opacity <= 0 {
		return
	}
	p := w.pdf
	p.SetAlpha(o.Opacity, "Normal")
	defer p.SetAlpha(1, "Normal")
	if o.Rotation != 0 {
		c := o.Bounds().Center()
		p.TransformBegin()
		// gofpdf rotates counter-clockwise; canvas rotation is clockwise.
		p.TransformRotate(-o.Rotation, c.X, c.Y)
		defer p.TransformEnd()
	}

	switch o.Kind {
	case state.KindRectangle:
		if st := w.style(o, true); st != "" {
			p.Rect(o.X, o.Y, o.Width, o.Height, st)
		}
	case state.KindCircle:
		if st := w.style(o, true); st != "" {
			p.Circle(o.X+o.Radius, o.Y+o.Radius, o.Radius, st)
		}
	case state.KindTriangle, state.KindPolygon:
		if st := w.style(o, true); st != "" {
			p.Polygon(points(o.Outline()), st)
		}
	case state.KindLine, state.KindPath:
		w.polyline(o)
	case state.KindText:
		w.text(o)
	case state.KindImage:
		w.image(o)
	}
}

func points(pts []state.Point) []gofpdf.PointType {
	out := make([]gofpdf.PointType, len(pts))
	for i, pt := range pts {
		out[i] = gofpdf.PointType{X: pt.X, Y: pt.Y}
	}
	return out
}

func (w *pdfWriter) polyline(o state.Object) {
	pts := o.Polyline()
	if len(pts) == 0 || w.style(o, false) == "" {
		return
	}
	p := w.pdf
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")
	if len(pts) == 1 {
		r, g, b, _ := rgb(o.Stroke)
		p.SetFillColor(r, g, b)
		p.Circle(pts[0].X, pts[0].Y, o.StrokeWidth/2, "F")
		return
	}
	p.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.LineTo(pt.X, pt.Y)
	}
	p.DrawPath("D")
}

func pdfFamily(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "courier"), strings.Contains(f, "mono"):
		return "Courier"
	case strings.Contains(f, "times"), strings.Contains(f, "serif") && !strings.Contains(f, "sans"):
		return "Times"
	}
	return "Helvetica"
}

func (w *pdfWriter) text(o state.Object) {
	t := o.Text
	r, g, b, ok := rgb(o.Fill)
	if t == nil || t.Content == "" || !ok {
		return
	}
	var st string
	if t.Bold {
		st += "B"
	}
	if t.Italic {
		st += "I"
	}
	if t.Underline {
		st += "U"
	}
	p := w.pdf
	p.SetTextColor(r, g, b)
	p.SetFont(pdfFamily(t.FontFamily), st, t.FontSize)
	// Text places the baseline; canvas text is positioned by its top edge.
	p.Text(o.X, o.Y+t.FontSize*0.8, w.tr(t.Content))
}

func (w *pdfWriter) image(o state.Object) {
	b := o.Bounds()
	if b.W <= 0 || b.H <= 0 {
		return
	}
	p := w.pdf
	if w.assets != nil {
		if a, ok := w.assets.Asset(o.Image.Src); ok {
			var buf bytes.Buffer
			if err := png.Encode(&buf, a); err == nil {
				w.images++
				name := fmt.Sprintf("img%d", w.images)
				opts := gofpdf.ImageOptions{ImageType: "PNG"}
				p.RegisterImageOptionsReader(name, opts, &buf)
				p.ImageOptions(name, b.X, b.Y, b.W, b.H, false, opts, 0, "")
				return
			}
		}
	}
	p.SetFillColor(220, 220, 220)
	p.SetDrawColor(150, 150, 150)
	p.SetLineWidth(1)
	p.Rect(b.X, b.Y, b.W, b.H, "FD")
}
