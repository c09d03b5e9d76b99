// Package tools turns palette choices and pointer input into document
// changes.
package tools

import (
	"DesignStudio/internal/state"
)

// Mode is the controller state.
type Mode int

const (
	ModeSelect Mode = iota
	ModeCreate
	ModeFreehand
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeFreehand:
		return "freehand"
	default:
		return "select"
	}
}

// Tool is one palette entry. Kind and Variant are set for ModeCreate only.
type Tool struct {
	Mode    Mode
	Kind    state.Kind
	Variant string
}

var (
	Select    = Tool{Mode: ModeSelect}
	Freehand  = Tool{Mode: ModeFreehand}
	Rectangle = Tool{Mode: ModeCreate, Kind: state.KindRectangle}
	Circle    = Tool{Mode: ModeCreate, Kind: state.KindCircle}
	Triangle  = Tool{Mode: ModeCreate, Kind: state.KindTriangle}
	Star      = Tool{Mode: ModeCreate, Kind: state.KindPolygon, Variant: state.VariantStar}
	Hexagon   = Tool{Mode: ModeCreate, Kind: state.KindPolygon, Variant: state.VariantHexagon}
	Line      = Tool{Mode: ModeCreate, Kind: state.KindLine}
	Text      = Tool{Mode: ModeCreate, Kind: state.KindText}
)

// Palette lists the tools in toolbar order.
func Palette() []Tool {
	return []Tool{Select, Rectangle, Circle, Triangle, Star, Hexagon, Line, Text, Freehand}
}

func (t Tool) String() string {
	switch {
	case t.Mode != ModeCreate:
		return t.Mode.String()
	case t.Variant != "":
		return t.Variant
	default:
		return string(t.Kind)
	}
}

// Style is the active fill, stroke color and stroke width new objects take.
type Style struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
}
