package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"DesignStudio/internal/editor"
	"DesignStudio/internal/state"
	"DesignStudio/internal/tools"
)

var swatches = []string{"#000000", "#ffffff", "#ff0000", "#00aa00", "#0000ff", "#ffcc00", "#ff66cc", "#8844ff"}

type colorSwatch struct {
	widget.BaseWidget
	Hex      string
	OnTapped func(string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Hex: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(state.ColorOr(s.Hex, color.NRGBA{A: 255}))
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(*fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Hex)
	}
}

// NewToolbar builds the tool palette, the active colour swatches, the
// brush width slider and the history and arrangement actions.
func NewToolbar(s *editor.Session, report func(error)) fyne.CanvasObject {
	actions := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { _, _ = s.Undo() }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { _, _ = s.Redo() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.MoveUpIcon(), func() { _ = s.BringToFront() }),
		widget.NewToolbarAction(theme.MoveDownIcon(), func() { _ = s.SendToBack() }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { _ = s.DeleteActive() }),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() { _ = s.Clear() }),
	)

	palette := container.NewHBox()
	for _, t := range tools.Palette() {
		palette.Add(widget.NewButton(t.String(), func() {
			if _, err := s.UseTool(t); err != nil && report != nil {
				report(err)
			}
		}))
	}

	onColor := func(hex string) {
		st := s.Style()
		st.Fill, st.Stroke = hex, hex
		_ = s.SetStyle(st)
	}
	colors := container.NewHBox()
	for _, hex := range swatches {
		colors.Add(newColorSwatch(hex, onColor))
	}

	width := widget.NewSlider(1, 50)
	width.SetValue(s.Style().StrokeWidth)
	width.OnChanged = func(v float64) {
		st := s.Style()
		st.StrokeWidth = v
		_ = s.SetStyle(st)
	}
	sized := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), width)

	return container.NewHBox(
		palette,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colors,
		widget.NewSeparator(),
		widget.NewLabel("Brush:"),
		sized,
		widget.NewSeparator(),
		actions,
		layout.NewSpacer(),
	)
}
