package tools

import (
	"DesignStudio/internal/config"
	"DesignStudio/internal/state"
)

type factory func(d config.Defaults, s Style, variant string) state.Object

// factories builds the default object of each creatable kind. Every object
// of a kind spawns at the same anchor and geometry.
var factories = map[state.Kind]factory{
	state.KindRectangle: func(d config.Defaults, s Style, _ string) state.Object {
		o := base(state.KindRectangle, d, s)
		o.Width, o.Height = d.RectWidth, d.RectHeight
		return o
	},
	state.KindCircle: func(d config.Defaults, s Style, _ string) state.Object {
		o := base(state.KindCircle, d, s)
		o.Radius = d.CircleRadius
		return o
	},
	state.KindTriangle: func(d config.Defaults, s Style, _ string) state.Object {
		o := base(state.KindTriangle, d, s)
		o.Width, o.Height = d.TriangleWidth, d.TriangleHeight
		return o
	},
	state.KindPolygon: func(d config.Defaults, s Style, variant string) state.Object {
		o := base(state.KindPolygon, d, s)
		o.Variant = variant
		if variant == state.VariantHexagon {
			o.Points = state.HexagonVertices(d.HexagonSize)
		} else {
			o.Variant = state.VariantStar
			o.Points = state.StarVertices(d.StarSpikes, d.StarOuter, d.StarInner)
		}
		return o
	},
	state.KindLine: func(d config.Defaults, s Style, _ string) state.Object {
		o := base(state.KindLine, d, s)
		o.Fill = ""
		o.StrokeWidth = max(s.StrokeWidth, 1)
		o.Line = &state.LineEnds{X2: d.LineLength}
		return o
	},
	state.KindText: func(d config.Defaults, s Style, _ string) state.Object {
		o := base(state.KindText, d, s)
		o.Stroke, o.StrokeWidth = "", 0
		o.Text = &state.TextAttrs{Content: d.Text, FontFamily: d.FontFamily, FontSize: d.FontSize}
		return o
	},
}

func base(k state.Kind, d config.Defaults, s Style) state.Object {
	return state.Object{
		Kind:        k,
		X:           d.AnchorX,
		Y:           d.AnchorY,
		Fill:        s.Fill,
		Stroke:      s.Stroke,
		StrokeWidth: s.StrokeWidth,
		Opacity:     1,
	}
}

// NewImage builds an image object at the default anchor and scale.
func NewImage(d config.Defaults, src string, width, height int) state.Object {
	return state.Object{
		Kind:    state.KindImage,
		X:       d.AnchorX,
		Y:       d.AnchorY,
		Opacity: 1,
		Image: &state.ImageAttrs{
			Src:           src,
			ScaleX:        d.ImageScale,
			ScaleY:        d.ImageScale,
			NaturalWidth:  width,
			NaturalHeight: height,
		},
	}
}
