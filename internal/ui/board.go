package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"DesignStudio/internal/editor"
	"DesignStudio/internal/logging"
	"DesignStudio/internal/state"
)

// Board shows the rendered canvas and turns mouse input into session
// pointer events in canvas coordinates.
type Board struct {
	widget.BaseWidget
	session *editor.Session
	width   float32
	height  float32

	img  *canvas.Image
	down bool
	last fyne.Position
}

var _ fyne.Widget = (*Board)(nil)
var _ fyne.Draggable = (*Board)(nil)
var _ desktop.Mouseable = (*Board)(nil)

func NewBoard(s *editor.Session) *Board {
	snap := s.Snapshot()
	b := &Board{session: s, width: float32(snap.Width), height: float32(snap.Height)}
	b.img = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, int(snap.Width), int(snap.Height))))
	b.img.FillMode = canvas.ImageFillStretch
	b.img.ScaleMode = canvas.ImageScaleSmooth
	b.ExtendBaseWidget(b)
	b.Redraw()
	return b
}

// Redraw renders the session again. Call it on the UI goroutine.
func (b *Board) Redraw() {
	img, err := b.session.Render(1)
	if err != nil {
		logging.For("ui").Error("render failed", "err", err)
		return
	}
	if w, h := float32(img.Bounds().Dx()), float32(img.Bounds().Dy()); w != b.width || h != b.height {
		b.width, b.height = w, h
		b.Refresh()
	}
	b.img.Image = img
	b.img.Refresh()
}

// toCanvas maps a widget position to canvas coordinates when the canvas is
// stretched over a widget of the given size.
func toCanvas(pos fyne.Position, size fyne.Size, width, height float32) state.Point {
	sx, sy := float32(1), float32(1)
	if size.Width > 0 {
		sx = width / size.Width
	}
	if size.Height > 0 {
		sy = height / size.Height
	}
	return state.Point{X: float64(pos.X * sx), Y: float64(pos.Y * sy)}
}

func (b *Board) point(pos fyne.Position) state.Point {
	return toCanvas(pos, b.Size(), b.width, b.height)
}

func (b *Board) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.down = true
	b.last = e.Position
	b.session.PointerDown(b.point(e.Position))
}

func (b *Board) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || !b.down {
		return
	}
	b.down = false
	b.session.PointerUp(b.point(e.Position))
}

func (b *Board) Dragged(e *fyne.DragEvent) {
	if !b.down {
		return
	}
	b.last = e.Position
	b.session.PointerMove(b.point(e.Position))
}

func (b *Board) DragEnd() {
	if !b.down {
		return
	}
	b.down = false
	b.session.PointerUp(b.point(b.last))
}

func (b *Board) CreateRenderer() fyne.WidgetRenderer {
	return &boardRenderer{board: b}
}

type boardRenderer struct {
	board *Board
}

func (r *boardRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.board.img} }
func (r *boardRenderer) Layout(size fyne.Size)        { r.board.img.Resize(size) }
func (r *boardRenderer) MinSize() fyne.Size           { return fyne.NewSize(r.board.width, r.board.height) }
func (r *boardRenderer) Refresh()                     { r.board.img.Refresh() }
func (r *boardRenderer) Destroy()                     {}
