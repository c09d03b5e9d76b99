package state

import (
	"math"

	"github.com/jinzhu/copier"
)

// Kind is the closed set of drawable object kinds.
type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindTriangle  Kind = "triangle"
	KindPolygon   Kind = "polygon"
	KindLine      Kind = "line"
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindPath      Kind = "path"
)

// Polygon variants.
const (
	VariantStar    = "star"
	VariantHexagon = "hexagon"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LineEnds are the start and end of a line, relative to the object position.
type LineEnds struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type TextAttrs struct {
	Content    string  `json:"content"`
	FontFamily string  `json:"font_family"`
	FontSize   float64 `json:"font_size"`
	Bold       bool    `json:"bold,omitempty"`
	Italic     bool    `json:"italic,omitempty"`
	Underline  bool    `json:"underline,omitempty"`
}

// ImageAttrs references decoded pixels through Src, the key under which the
// pixels are registered with the document (a data URL or a remote URL).
type ImageAttrs struct {
	Src           string  `json:"src"`
	ScaleX        float64 `json:"scale_x"`
	ScaleY        float64 `json:"scale_y"`
	NaturalWidth  int     `json:"natural_width"`
	NaturalHeight int     `json:"natural_height"`
}

// Object is one drawable on the canvas.
//
// X and Y are the top-left corner for rectangles, circles, triangles, text
// and images. For polygons, lines and paths they are the local origin the
// vertices are relative to.
type Object struct {
	ID          string  `json:"id"`
	Kind        Kind    `json:"kind"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width"`
	Opacity     float64 `json:"opacity"`
	Rotation    float64 `json:"rotation"`

	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Radius float64 `json:"radius,omitempty"`

	Variant string  `json:"variant,omitempty"`
	Points  []Point `json:"points,omitempty"`

	Line  *LineEnds   `json:"line,omitempty"`
	Text  *TextAttrs  `json:"text,omitempty"`
	Image *ImageAttrs `json:"image,omitempty"`
}

// Clone returns a deep copy of o.
func (o Object) Clone() Object {
	var c Object
	if err := copier.CopyWithOption(&c, &o, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched types; Object to Object never does.
		panic(err)
	}
	// keep absent attributes absent; copier may allocate empty values
	if o.Points == nil {
		c.Points = nil
	}
	if o.Line == nil {
		c.Line = nil
	}
	if o.Text == nil {
		c.Text = nil
	}
	if o.Image == nil {
		c.Image = nil
	}
	return c
}

// OpacityPercent returns the opacity on the 0-100 scale used by the panel.
func (o Object) OpacityPercent() float64 {
	return o.Opacity * 100
}

// Bounds returns the unrotated bounding box of o in canvas coordinates.
func (o Object) Bounds() Rect {
	return traitsOf(o.Kind).bounds(&o)
}

// Supports reports whether the kind of o carries the given attribute.
func (o Object) Supports(f Field) bool {
	return traitsOf(o.Kind).fields&f != 0
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T { return &v }

// Patch is a partial set of attributes merged by Document.Update.
// Nil fields are left untouched; fields the object's kind does not carry
// are ignored.
type Patch struct {
	X, Y        *float64
	Fill        *string
	Stroke      *string
	StrokeWidth *float64
	// Opacity is a fraction in [0,1].
	Opacity  *float64
	Rotation *float64

	Width, Height *float64
	Radius        *float64

	Content    *string
	FontFamily *string
	FontSize   *float64
	Bold       *bool
	Italic     *bool
	Underline  *bool

	ScaleX, ScaleY *float64
}

// Empty reports whether p sets nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// Finite reports whether every number p sets is a finite value.
func (p Patch) Finite() bool {
	for _, v := range []*float64{p.X, p.Y, p.StrokeWidth, p.Opacity, p.Rotation, p.Width, p.Height, p.Radius, p.FontSize, p.ScaleX, p.ScaleY} {
		if v != nil && !finite(*v) {
			return false
		}
	}
	return true
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// numbers lists every float attribute of o.
func (o *Object) numbers() []float64 {
	ns := []float64{o.X, o.Y, o.StrokeWidth, o.Opacity, o.Rotation, o.Width, o.Height, o.Radius}
	for _, p := range o.Points {
		ns = append(ns, p.X, p.Y)
	}
	if o.Line != nil {
		ns = append(ns, o.Line.X1, o.Line.Y1, o.Line.X2, o.Line.Y2)
	}
	if o.Text != nil {
		ns = append(ns, o.Text.FontSize)
	}
	if o.Image != nil {
		ns = append(ns, o.Image.ScaleX, o.Image.ScaleY)
	}
	return ns
}

// apply merges p into o and reports whether anything changed.
func (o *Object) apply(p Patch) bool {
	changed := false
	setF := func(f Field, dst *float64, src *float64) {
		if src != nil && o.Supports(f) && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	setS := func(f Field, dst *string, src *string) {
		if src != nil && o.Supports(f) && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	setB := func(f Field, dst *bool, src *bool) {
		if src != nil && o.Supports(f) && *dst != *src {
			*dst = *src
			changed = true
		}
	}

	setF(FieldPosition, &o.X, p.X)
	setF(FieldPosition, &o.Y, p.Y)
	setS(FieldFill, &o.Fill, p.Fill)
	setS(FieldStroke, &o.Stroke, p.Stroke)
	setF(FieldStrokeWidth, &o.StrokeWidth, clampMin(p.StrokeWidth, 0))
	setF(FieldOpacity, &o.Opacity, clampFraction(p.Opacity))
	setF(FieldRotation, &o.Rotation, p.Rotation)
	setF(FieldSize, &o.Width, clampMin(p.Width, 0))
	setF(FieldSize, &o.Height, clampMin(p.Height, 0))
	setF(FieldRadius, &o.Radius, clampMin(p.Radius, 0))

	if o.Text != nil {
		setS(FieldText, &o.Text.Content, p.Content)
		setS(FieldFont, &o.Text.FontFamily, p.FontFamily)
		setF(FieldFont, &o.Text.FontSize, clampMin(p.FontSize, 1))
		setB(FieldFont, &o.Text.Bold, p.Bold)
		setB(FieldFont, &o.Text.Italic, p.Italic)
		setB(FieldFont, &o.Text.Underline, p.Underline)
	}
	if o.Image != nil {
		setF(FieldScale, &o.Image.ScaleX, clampMin(p.ScaleX, 0))
		setF(FieldScale, &o.Image.ScaleY, clampMin(p.ScaleY, 0))
	}
	return changed
}

func clampFraction(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Ptr(min(max(*v, 0), 1))
}

func clampMin(v *float64, lo float64) *float64 {
	if v == nil {
		return nil
	}
	return Ptr(max(*v, lo))
}
