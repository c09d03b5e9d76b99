package tools

import (
	"math"

	"DesignStudio/internal/config"
	"DesignStudio/internal/errs"
	"DesignStudio/internal/logging"
	"DesignStudio/internal/state"
)

// HitTester resolves which object, if any, is under a canvas point.
type HitTester interface {
	HitTest(objects []state.Object, p state.Point) (string, bool)
}

type drag struct {
	id     string
	start  state.Point
	origin state.Point
	moved  bool
}

// Controller is the tool state machine. It starts in Select.
//
// In Select, a pointer press picks the topmost object under it and a drag
// moves it, committing once on release. Creation tools add their default
// object on Trigger and fall back to Select. Freehand stays active across
// strokes until another tool is chosen.
type Controller struct {
	doc      *state.Document
	defaults config.Defaults
	hit      HitTester

	tool  Tool
	style Style

	stroke *state.Object
	drag   *drag
}

func NewController(doc *state.Document, defaults config.Defaults, hit HitTester) *Controller {
	return &Controller{
		doc:      doc,
		defaults: defaults,
		hit:      hit,
		tool:     Select,
		style:    Style{Fill: defaults.Fill, Stroke: defaults.Stroke, StrokeWidth: defaults.StrokeWidth},
	}
}

func (c *Controller) Tool() Tool   { return c.tool }
func (c *Controller) Style() Style { return c.style }

// SetStyle replaces the active style. A stroke in progress keeps the style
// it started with.
func (c *Controller) SetStyle(s Style) error {
	if _, err := state.ParseColor(s.Fill); s.Fill != "" && err != nil {
		return errs.Validation("set style", err.Error())
	}
	if _, err := state.ParseColor(s.Stroke); s.Stroke != "" && err != nil {
		return errs.Validation("set style", err.Error())
	}
	if math.IsNaN(s.StrokeWidth) || math.IsInf(s.StrokeWidth, 0) {
		return errs.Validation("set style", "stroke width must be a finite number")
	}
	if s.StrokeWidth < 0 {
		return errs.Validation("set style", "stroke width must not be negative")
	}
	c.style = s
	return nil
}

// Choose switches tools. Leaving freehand finishes any stroke in progress.
func (c *Controller) Choose(t Tool) error {
	if t.Mode == ModeCreate {
		if _, ok := factories[t.Kind]; !ok {
			return errs.Validation("choose tool", "no creation tool for "+string(t.Kind))
		}
	}
	if c.tool.Mode == ModeFreehand && t.Mode != ModeFreehand {
		c.finishStroke()
	}
	c.drag = nil
	c.tool = t
	logging.For("tools").Debug("tool chosen", "tool", t.String())
	return nil
}

// Trigger creates the current tool's object at the default anchor, makes it
// the selection and returns to Select.
func (c *Controller) Trigger() (string, error) {
	if c.tool.Mode != ModeCreate {
		return "", errs.Validation("create", "no shape tool chosen")
	}
	obj := factories[c.tool.Kind](c.defaults, c.style, c.tool.Variant)
	id, err := c.doc.Add(obj)
	if err != nil {
		return "", errs.Validation("create", err.Error())
	}
	c.doc.SetActive(id)
	c.tool = Select
	return id, nil
}

// Use chooses t and, for creation tools, triggers it at once, as a palette
// click does.
func (c *Controller) Use(t Tool) (string, error) {
	if err := c.Choose(t); err != nil {
		return "", err
	}
	if t.Mode != ModeCreate {
		return "", nil
	}
	return c.Trigger()
}

func (c *Controller) PointerDown(p state.Point) {
	switch c.tool.Mode {
	case ModeSelect:
		id, ok := "", false
		if c.hit != nil {
			id, ok = c.hit.HitTest(c.doc.Objects(), p)
		}
		c.doc.SetActive(id)
		if !ok {
			c.drag = nil
			return
		}
		o, _ := c.doc.Object(id)
		c.drag = &drag{id: id, start: p, origin: state.Point{X: o.X, Y: o.Y}}
	case ModeFreehand:
		c.stroke = &state.Object{
			Kind:        state.KindPath,
			X:           p.X,
			Y:           p.Y,
			Stroke:      c.style.Stroke,
			StrokeWidth: max(c.style.StrokeWidth, 1),
			Opacity:     1,
			Points:      []state.Point{{}},
		}
	}
}

func (c *Controller) PointerMove(p state.Point) {
	switch {
	case c.tool.Mode == ModeSelect && c.drag != nil:
		x := c.drag.origin.X + p.X - c.drag.start.X
		y := c.drag.origin.Y + p.Y - c.drag.start.Y
		if c.doc.Preview(c.drag.id, state.Patch{X: &x, Y: &y}) {
			c.drag.moved = true
		}
	case c.tool.Mode == ModeFreehand && c.stroke != nil:
		c.stroke.Points = append(c.stroke.Points, state.Point{X: p.X - c.stroke.X, Y: p.Y - c.stroke.Y})
	}
}

func (c *Controller) PointerUp(p state.Point) {
	switch {
	case c.tool.Mode == ModeSelect && c.drag != nil:
		c.PointerMove(p)
		d := c.drag
		c.drag = nil
		if !d.moved {
			return
		}
		o, ok := c.doc.Object(d.id)
		if !ok {
			return
		}
		// rewind the preview so the commit is measured against the origin
		c.doc.Preview(d.id, state.Patch{X: &d.origin.X, Y: &d.origin.Y})
		c.doc.Update(d.id, state.Patch{X: &o.X, Y: &o.Y})
	case c.tool.Mode == ModeFreehand && c.stroke != nil:
		c.PointerMove(p)
		c.finishStroke()
	}
}

func (c *Controller) finishStroke() {
	s := c.stroke
	c.stroke = nil
	if s == nil || len(s.Points) < 2 {
		return
	}
	if _, err := c.doc.Add(*s); err != nil {
		logging.For("tools").Warn("stroke dropped", "err", err)
	}
}

// InProgress returns the stroke being drawn, for live preview.
func (c *Controller) InProgress() (state.Object, bool) {
	if c.stroke == nil {
		return state.Object{}, false
	}
	return c.stroke.Clone(), true
}
