// Package panel keeps the property panel's fields in step with the selected
// object and writes edits back to it.
package panel

import (
	"fmt"
	"math"
	"strings"

	"DesignStudio/internal/errs"
	"DesignStudio/internal/state"
)

// Fields is what the property panel displays. Opacity is on the 0-100
// scale. Font fields are only filled for text objects.
type Fields struct {
	Enabled     bool
	ID          string
	Kind        state.Kind
	Opacity     float64
	StrokeWidth float64
	StrokeColor string
	FillColor   string
	Rotation    float64

	IsText     bool
	Content    string
	FontFamily string
	FontSize   float64
	Bold       bool
	Italic     bool
	Underline  bool
}

// FieldsOf reads the panel fields from o.
func FieldsOf(o state.Object) Fields {
	f := Fields{
		Enabled:     true,
		ID:          o.ID,
		Kind:        o.Kind,
		Opacity:     math.Round(o.OpacityPercent()*100) / 100,
		StrokeWidth: o.StrokeWidth,
		StrokeColor: o.Stroke,
		FillColor:   o.Fill,
		Rotation:    o.Rotation,
	}
	if o.Kind == state.KindText && o.Text != nil {
		f.IsText = true
		f.Content = o.Text.Content
		f.FontFamily = o.Text.FontFamily
		f.FontSize = o.Text.FontSize
		f.Bold = o.Text.Bold
		f.Italic = o.Text.Italic
		f.Underline = o.Text.Underline
	}
	return f
}

// slide is an interactive edit in progress: previews go to the document,
// and one committed update is made when it ends.
type slide struct {
	id     string
	rewind state.Patch
	final  state.Patch
}

// Panel syncs fields with the document's active object. Direct setters
// commit at once; Slide setters preview until EndSlide commits them, so a
// dragged slider records one snapshot. Edits that change nothing record
// nothing.
type Panel struct {
	doc    *state.Document
	fields Fields
	slide  *slide
	cancel func()

	// OnRefresh is called whenever the displayed fields change.
	OnRefresh func(Fields)
}

func New(doc *state.Document) *Panel {
	p := &Panel{doc: doc}
	p.cancel = doc.Subscribe(p.observe)
	p.refresh()
	return p
}

// Detach stops following the document.
func (p *Panel) Detach() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Fields returns the currently displayed values.
func (p *Panel) Fields() Fields { return p.fields }

func (p *Panel) observe(e state.Event) {
	switch e.Kind {
	case state.EventSelected:
		if p.slide != nil && p.slide.id != e.ID {
			p.endSlide()
		}
		p.refresh()
	case state.EventRestored, state.EventCleared:
		p.slide = nil
		p.refresh()
	case state.EventRemoved:
		if p.slide != nil && p.slide.id == e.ID {
			p.slide = nil
		}
		p.refresh()
	case state.EventUpdated, state.EventPreviewed:
		if e.ID == p.doc.ActiveID() {
			p.refresh()
		}
	}
}

func (p *Panel) refresh() {
	if o, ok := p.doc.Active(); ok {
		p.fields = FieldsOf(o)
	} else {
		p.fields = Fields{}
	}
	if p.OnRefresh != nil {
		p.OnRefresh(p.fields)
	}
}

func (p *Panel) target(op string, textOnly bool) (state.Object, error) {
	o, ok := p.doc.Active()
	if !ok {
		return state.Object{}, errs.Validation(op, "no object selected")
	}
	if textOnly && o.Kind != state.KindText {
		return state.Object{}, errs.Validation(op, "selected object is not text")
	}
	return o, nil
}

func (p *Panel) commit(op string, textOnly bool, patch state.Patch) error {
	o, err := p.target(op, textOnly)
	if err != nil {
		return err
	}
	if p.slide != nil {
		p.endSlide()
	}
	p.doc.Update(o.ID, patch)
	return nil
}

func (p *Panel) preview(op string, textOnly bool, patch state.Patch) error {
	o, err := p.target(op, textOnly)
	if err != nil {
		return err
	}
	if p.slide != nil && p.slide.id != o.ID {
		p.endSlide()
	}
	if p.slide == nil {
		p.slide = &slide{id: o.ID}
	}
	p.slide.rewind = merge(rewindOf(o, patch), p.slide.rewind)
	p.slide.final = merge(p.slide.final, patch)
	p.doc.Preview(o.ID, patch)
	return nil
}

// EndSlide commits the slide in progress, if any.
func (p *Panel) EndSlide() error {
	if p.slide == nil {
		return nil
	}
	p.endSlide()
	return nil
}

func (p *Panel) endSlide() {
	s := p.slide
	p.slide = nil
	if _, ok := p.doc.Object(s.id); !ok {
		return
	}
	p.doc.Preview(s.id, s.rewind)
	p.doc.Update(s.id, s.final)
}

func clampPercent(v float64) float64 {
	return min(max(v, 0), 100)
}

func checkNumber(op string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errs.Validation(op, fmt.Sprintf("%v is not a usable value", v))
	}
	return nil
}

func checkColor(op, c string) error {
	if _, err := state.ParseColor(c); err != nil {
		return errs.Validation(op, err.Error())
	}
	return nil
}

// SetOpacity sets the opacity from a 0-100 value; out of range values clamp.
func (p *Panel) SetOpacity(pct float64) error {
	if err := checkNumber("set opacity", pct); err != nil {
		return err
	}
	return p.commit("set opacity", false, state.Patch{Opacity: state.Ptr(clampPercent(pct) / 100)})
}

func (p *Panel) SlideOpacity(pct float64) error {
	if err := checkNumber("set opacity", pct); err != nil {
		return err
	}
	return p.preview("set opacity", false, state.Patch{Opacity: state.Ptr(clampPercent(pct) / 100)})
}

func (p *Panel) SetStrokeWidth(w float64) error {
	if err := checkNumber("set stroke width", w); err != nil {
		return err
	}
	if w < 0 {
		return errs.Validation("set stroke width", "stroke width must not be negative")
	}
	return p.commit("set stroke width", false, state.Patch{StrokeWidth: &w})
}

func (p *Panel) SlideStrokeWidth(w float64) error {
	if err := checkNumber("set stroke width", w); err != nil {
		return err
	}
	return p.preview("set stroke width", false, state.Patch{StrokeWidth: state.Ptr(max(w, 0))})
}

func (p *Panel) SetRotation(deg float64) error {
	if err := checkNumber("set rotation", deg); err != nil {
		return err
	}
	return p.commit("set rotation", false, state.Patch{Rotation: state.Ptr(math.Mod(deg, 360))})
}

func (p *Panel) SlideRotation(deg float64) error {
	if err := checkNumber("set rotation", deg); err != nil {
		return err
	}
	return p.preview("set rotation", false, state.Patch{Rotation: state.Ptr(math.Mod(deg, 360))})
}

func (p *Panel) SetStrokeColor(c string) error {
	if err := checkColor("set stroke color", c); err != nil {
		return err
	}
	return p.commit("set stroke color", false, state.Patch{Stroke: &c})
}

func (p *Panel) SetFillColor(c string) error {
	if err := checkColor("set fill color", c); err != nil {
		return err
	}
	return p.commit("set fill color", false, state.Patch{Fill: &c})
}

func (p *Panel) SetContent(s string) error {
	return p.commit("set text", true, state.Patch{Content: &s})
}

func (p *Panel) SetFontFamily(f string) error {
	f = strings.TrimSpace(f)
	if f == "" {
		return errs.Validation("set font family", "font family must not be empty")
	}
	return p.commit("set font family", true, state.Patch{FontFamily: &f})
}

func (p *Panel) SetFontSize(s float64) error {
	if err := checkNumber("set font size", s); err != nil {
		return err
	}
	if s < 1 {
		return errs.Validation("set font size", "font size must be at least 1")
	}
	return p.commit("set font size", true, state.Patch{FontSize: &s})
}

func (p *Panel) SlideFontSize(s float64) error {
	if err := checkNumber("set font size", s); err != nil {
		return err
	}
	return p.preview("set font size", true, state.Patch{FontSize: state.Ptr(max(s, 1))})
}

func (p *Panel) SetBold(on bool) error {
	return p.commit("set bold", true, state.Patch{Bold: &on})
}

func (p *Panel) SetItalic(on bool) error {
	return p.commit("set italic", true, state.Patch{Italic: &on})
}

func (p *Panel) SetUnderline(on bool) error {
	return p.commit("set underline", true, state.Patch{Underline: &on})
}

// rewindOf captures o's current value for each slider field p sets.
func rewindOf(o state.Object, p state.Patch) state.Patch {
	var r state.Patch
	if p.Opacity != nil {
		r.Opacity = state.Ptr(o.Opacity)
	}
	if p.StrokeWidth != nil {
		r.StrokeWidth = state.Ptr(o.StrokeWidth)
	}
	if p.Rotation != nil {
		r.Rotation = state.Ptr(o.Rotation)
	}
	if p.FontSize != nil && o.Text != nil {
		r.FontSize = state.Ptr(o.Text.FontSize)
	}
	return r
}

// merge overlays the slider fields set in b onto a.
func merge(a, b state.Patch) state.Patch {
	if b.Opacity != nil {
		a.Opacity = b.Opacity
	}
	if b.StrokeWidth != nil {
		a.StrokeWidth = b.StrokeWidth
	}
	if b.Rotation != nil {
		a.Rotation = b.Rotation
	}
	if b.FontSize != nil {
		a.FontSize = b.FontSize
	}
	return a
}
