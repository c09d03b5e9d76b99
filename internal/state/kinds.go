package state

import (
	"fmt"
	"unicode/utf8"
)

// Field names an attribute group a patch can touch.
type Field uint16

const (
	FieldPosition Field = 1 << iota
	FieldFill
	FieldStroke
	FieldStrokeWidth
	FieldOpacity
	FieldRotation
	FieldSize
	FieldRadius
	FieldText
	FieldFont
	FieldScale
)

const fieldsCommon = FieldPosition | FieldFill | FieldStroke | FieldStrokeWidth | FieldOpacity | FieldRotation

type kindTraits struct {
	fields   Field
	bounds   func(o *Object) Rect
	validate func(o *Object) error
}

// kinds is the per-kind dispatch table. Every Kind constant has an entry;
// TestEveryKindHasTraits keeps it that way.
var kinds = map[Kind]kindTraits{
	KindRectangle: {
		fields: fieldsCommon | FieldSize,
		bounds: boxBounds,
	},
	KindTriangle: {
		fields: fieldsCommon | FieldSize,
		bounds: boxBounds,
	},
	KindCircle: {
		fields: fieldsCommon | FieldRadius,
		bounds: func(o *Object) Rect { return Rect{X: o.X, Y: o.Y, W: 2 * o.Radius, H: 2 * o.Radius} },
	},
	KindPolygon: {
		fields: fieldsCommon,
		bounds: pointsBounds,
		validate: func(o *Object) error {
			if len(o.Points) < 3 {
				return fmt.Errorf("polygon needs at least 3 vertices, got %d", len(o.Points))
			}
			return nil
		},
	},
	KindPath: {
		fields: FieldPosition | FieldStroke | FieldStrokeWidth | FieldOpacity | FieldRotation,
		bounds: pointsBounds,
		validate: func(o *Object) error {
			if len(o.Points) == 0 {
				return fmt.Errorf("path has no points")
			}
			return nil
		},
	},
	KindLine: {
		fields: FieldPosition | FieldStroke | FieldStrokeWidth | FieldOpacity | FieldRotation,
		bounds: func(o *Object) Rect {
			if o.Line == nil {
				return Rect{X: o.X, Y: o.Y}
			}
			return boundsOf(o.X, o.Y, []Point{{o.Line.X1, o.Line.Y1}, {o.Line.X2, o.Line.Y2}})
		},
		validate: func(o *Object) error {
			if o.Line == nil {
				return fmt.Errorf("line has no end points")
			}
			return nil
		},
	},
	KindText: {
		fields: fieldsCommon | FieldText | FieldFont,
		bounds: func(o *Object) Rect {
			if o.Text == nil {
				return Rect{X: o.X, Y: o.Y}
			}
			w, h := EstimateText(o.Text.Content, o.Text.FontSize)
			return Rect{X: o.X, Y: o.Y, W: w, H: h}
		},
		validate: func(o *Object) error {
			if o.Text == nil {
				return fmt.Errorf("text object has no text attributes")
			}
			return nil
		},
	},
	KindImage: {
		fields: FieldPosition | FieldStroke | FieldStrokeWidth | FieldOpacity | FieldRotation | FieldScale,
		bounds: func(o *Object) Rect {
			if o.Image == nil {
				return Rect{X: o.X, Y: o.Y}
			}
			return Rect{
				X: o.X, Y: o.Y,
				W: float64(o.Image.NaturalWidth) * o.Image.ScaleX,
				H: float64(o.Image.NaturalHeight) * o.Image.ScaleY,
			}
		},
		validate: func(o *Object) error {
			if o.Image == nil || o.Image.Src == "" {
				return fmt.Errorf("image object has no source")
			}
			return nil
		},
	},
}

// Kinds lists every object kind in palette order.
func Kinds() []Kind {
	return []Kind{KindRectangle, KindCircle, KindTriangle, KindPolygon, KindLine, KindText, KindImage, KindPath}
}

// Known reports whether k is one of the supported kinds.
func Known(k Kind) bool {
	_, ok := kinds[k]
	return ok
}

func traitsOf(k Kind) kindTraits {
	if s, ok := kinds[k]; ok {
		return s
	}
	return kindTraits{bounds: func(o *Object) Rect { return Rect{X: o.X, Y: o.Y} }}
}

// Validate checks that o is a well-formed object of a known kind.
func Validate(o Object) error {
	s, ok := kinds[o.Kind]
	if !ok {
		return fmt.Errorf("unknown object kind %q", o.Kind)
	}
	if !finite(o.numbers()...) {
		return fmt.Errorf("%s object has a non-finite number", o.Kind)
	}
	if o.Opacity < 0 || o.Opacity > 1 {
		return fmt.Errorf("opacity %v outside [0,1]", o.Opacity)
	}
	if s.validate != nil {
		return s.validate(&o)
	}
	return nil
}

// EstimateText approximates the rendered size of a single line of text.
func EstimateText(s string, size float64) (w, h float64) {
	return float64(utf8.RuneCountInString(s)) * size * 0.55, size * 1.2
}

func boxBounds(o *Object) Rect {
	return Rect{X: o.X, Y: o.Y, W: o.Width, H: o.Height}
}

func pointsBounds(o *Object) Rect {
	return boundsOf(o.X, o.Y, o.Points)
}
