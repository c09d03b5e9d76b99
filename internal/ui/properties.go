package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"DesignStudio/internal/editor"
	"DesignStudio/internal/panel"
)

var fontFamilies = []string{"Arial", "Helvetica", "Times New Roman", "Courier New", "Georgia", "Verdana"}

// properties is the side panel editing the selected object. Sliders
// preview while dragged and commit when released.
type properties struct {
	s       *editor.Session
	syncing bool

	title       *widget.Label
	opacity     *widget.Slider
	strokeWidth *widget.Slider
	rotation    *widget.Slider
	stroke      *widget.Entry
	fill        *widget.Entry

	textBox   *fyne.Container
	content   *widget.Entry
	family    *widget.Select
	fontSize  *widget.Slider
	bold      *widget.Check
	italic    *widget.Check
	underline *widget.Check

	root *fyne.Container
}

func newProperties(s *editor.Session) *properties {
	p := &properties{s: s, title: widget.NewLabel("Nothing selected")}
	edit := func(fn func(*panel.Panel) error) {
		if p.syncing {
			return
		}
		_ = s.Edit(fn)
	}
	slider := func(lo, hi float64, slide func(*panel.Panel, float64) error) *widget.Slider {
		sl := widget.NewSlider(lo, hi)
		sl.OnChanged = func(v float64) { edit(func(pp *panel.Panel) error { return slide(pp, v) }) }
		sl.OnChangeEnded = func(float64) { edit((*panel.Panel).EndSlide) }
		return sl
	}

	p.opacity = slider(0, 100, (*panel.Panel).SlideOpacity)
	p.strokeWidth = slider(0, 50, (*panel.Panel).SlideStrokeWidth)
	p.rotation = slider(0, 359, (*panel.Panel).SlideRotation)
	p.fontSize = slider(8, 200, (*panel.Panel).SlideFontSize)

	p.stroke = widget.NewEntry()
	p.stroke.SetPlaceHolder("#000000")
	p.stroke.OnSubmitted = func(v string) { edit(func(pp *panel.Panel) error { return pp.SetStrokeColor(v) }) }
	p.fill = widget.NewEntry()
	p.fill.SetPlaceHolder("#000000")
	p.fill.OnSubmitted = func(v string) { edit(func(pp *panel.Panel) error { return pp.SetFillColor(v) }) }

	p.content = widget.NewEntry()
	p.content.OnSubmitted = func(v string) { edit(func(pp *panel.Panel) error { return pp.SetContent(v) }) }
	p.family = widget.NewSelect(fontFamilies, func(v string) {
		edit(func(pp *panel.Panel) error { return pp.SetFontFamily(v) })
	})
	p.bold = widget.NewCheck("Bold", func(on bool) { edit(func(pp *panel.Panel) error { return pp.SetBold(on) }) })
	p.italic = widget.NewCheck("Italic", func(on bool) { edit(func(pp *panel.Panel) error { return pp.SetItalic(on) }) })
	p.underline = widget.NewCheck("Underline", func(on bool) { edit(func(pp *panel.Panel) error { return pp.SetUnderline(on) }) })

	p.textBox = container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Text", p.content),
			widget.NewFormItem("Font", p.family),
			widget.NewFormItem("Size", p.fontSize),
		),
		container.NewHBox(p.bold, p.italic, p.underline),
	)
	p.root = container.NewVBox(
		p.title,
		widget.NewForm(
			widget.NewFormItem("Opacity", p.opacity),
			widget.NewFormItem("Stroke width", p.strokeWidth),
			widget.NewFormItem("Rotation", p.rotation),
			widget.NewFormItem("Stroke", p.stroke),
			widget.NewFormItem("Fill", p.fill),
		),
		p.textBox,
	)
	p.update(s.Fields())
	return p
}

// update shows f without writing anything back to the session.
func (p *properties) update(f panel.Fields) {
	p.syncing = true
	defer func() { p.syncing = false }()

	if f.Enabled {
		p.title.SetText(fmt.Sprintf("%s (%s)", f.Kind, f.ID))
	} else {
		p.title.SetText("Nothing selected")
	}
	p.opacity.SetValue(f.Opacity)
	p.strokeWidth.SetValue(f.StrokeWidth)
	p.rotation.SetValue(f.Rotation)
	p.stroke.SetText(f.StrokeColor)
	p.fill.SetText(f.FillColor)
	for _, w := range []fyne.Disableable{p.opacity, p.strokeWidth, p.rotation, p.stroke, p.fill} {
		enable(w, f.Enabled)
	}

	if f.IsText {
		p.content.SetText(f.Content)
		p.family.SetSelected(f.FontFamily)
		p.fontSize.SetValue(f.FontSize)
		p.bold.SetChecked(f.Bold)
		p.italic.SetChecked(f.Italic)
		p.underline.SetChecked(f.Underline)
		p.textBox.Show()
	} else {
		p.textBox.Hide()
	}
}

func enable(w fyne.Disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}
