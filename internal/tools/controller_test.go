package tools

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DesignStudio/internal/config"
	"DesignStudio/internal/errs"
	"DesignStudio/internal/history"
	"DesignStudio/internal/state"
)

// boxHits picks the topmost object whose bounds contain the point.
type boxHits struct{}

func (boxHits) HitTest(objs []state.Object, p state.Point) (string, bool) {
	for i := len(objs) - 1; i >= 0; i-- {
		if objs[i].Contains(p, 4) {
			return objs[i].ID, true
		}
	}
	return "", false
}

func setup() (*Controller, *state.Document, *history.Manager) {
	d := state.New(800, 600, "#ffffff")
	h := history.New(d, 0)
	return NewController(d, config.Default().Defaults, boxHits{}), d, h
}

func TestStartsInSelect(t *testing.T) {
	c, _, _ := setup()
	assert.Equal(t, Select, c.Tool())
}

func TestTriggerCreatesAtAnchorAndReturnsToSelect(t *testing.T) {
	c, d, h := setup()
	for _, tool := range []Tool{Rectangle, Circle, Triangle, Star, Hexagon, Line, Text} {
		require.NoError(t, c.Choose(tool))
		assert.Equal(t, ModeCreate, c.Tool().Mode)

		id, err := c.Trigger()
		require.NoError(t, err, tool.String())
		assert.Equal(t, Select, c.Tool())
		assert.Equal(t, id, d.ActiveID(), "new object is selected")
		assert.Equal(t, id, d.IDs()[d.Len()-1], "new object is on top")

		o, _ := d.Object(id)
		assert.Equal(t, 100.0, o.X)
		assert.Equal(t, 100.0, o.Y)
	}
	assert.Equal(t, 7, h.Len())
}

func TestSameKindSpawnsIdenticalGeometry(t *testing.T) {
	c, d, _ := setup()
	a, _ := c.Use(Star)
	b, _ := c.Use(Star)
	oa, _ := d.Object(a)
	ob, _ := d.Object(b)
	oa.ID, ob.ID = "", ""
	assert.Equal(t, oa, ob)
	assert.Len(t, oa.Points, 10)
	assert.Equal(t, state.VariantStar, oa.Variant)
}

func TestDefaultGeometry(t *testing.T) {
	c, d, _ := setup()
	id, _ := c.Use(Rectangle)
	o, _ := d.Object(id)
	assert.Equal(t, 200.0, o.Width)
	assert.Equal(t, 100.0, o.Height)
	assert.Equal(t, "#000000", o.Fill)

	id, _ = c.Use(Circle)
	o, _ = d.Object(id)
	assert.Equal(t, 50.0, o.Radius)

	id, _ = c.Use(Text)
	o, _ = d.Object(id)
	require.NotNil(t, o.Text)
	assert.Equal(t, "Click to edit", o.Text.Content)
	assert.Equal(t, "Arial", o.Text.FontFamily)
	assert.Equal(t, 40.0, o.Text.FontSize)

	id, _ = c.Use(Hexagon)
	o, _ = d.Object(id)
	assert.Len(t, o.Points, 6)
}

func TestCreationUsesActiveStyle(t *testing.T) {
	c, d, _ := setup()
	require.NoError(t, c.SetStyle(Style{Fill: "#ff0000", Stroke: "#00ff00", StrokeWidth: 5}))
	id, _ := c.Use(Triangle)
	o, _ := d.Object(id)
	assert.Equal(t, "#ff0000", o.Fill)
	assert.Equal(t, "#00ff00", o.Stroke)
	assert.Equal(t, 5.0, o.StrokeWidth)

	err := c.SetStyle(Style{Fill: "not a color"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	err = c.SetStyle(Style{Fill: "#000000", StrokeWidth: math.NaN()})
	assert.ErrorIs(t, err, errs.ErrValidation)
	err = c.SetStyle(Style{Fill: "#000000", StrokeWidth: math.Inf(1)})
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, 5.0, c.Style().StrokeWidth)
}

func TestTriggerOutsideCreateMode(t *testing.T) {
	c, d, _ := setup()
	_, err := c.Trigger()
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Zero(t, d.Len())

	assert.ErrorIs(t, c.Choose(Tool{Mode: ModeCreate, Kind: state.KindImage}), errs.ErrValidation)
}

func TestFreehandStrokes(t *testing.T) {
	c, d, h := setup()
	require.NoError(t, c.Choose(Freehand))
	require.NoError(t, c.SetStyle(Style{Fill: "#000000", Stroke: "#0000ff", StrokeWidth: 3}))

	c.PointerDown(state.Point{X: 10, Y: 10})
	// style changes mid-stroke do not affect the stroke
	require.NoError(t, c.SetStyle(Style{Fill: "#000000", Stroke: "#ff0000", StrokeWidth: 9}))
	c.PointerMove(state.Point{X: 20, Y: 15})
	live, ok := c.InProgress()
	require.True(t, ok)
	assert.Len(t, live.Points, 2)
	c.PointerUp(state.Point{X: 30, Y: 30})

	c.PointerDown(state.Point{X: 50, Y: 50})
	c.PointerMove(state.Point{X: 60, Y: 60})
	c.PointerUp(state.Point{X: 70, Y: 70})

	assert.Equal(t, Freehand, c.Tool(), "freehand stays active across strokes")
	require.Equal(t, 2, d.Len())
	assert.Equal(t, 2, h.Len())

	objs := d.Objects()
	assert.Equal(t, state.KindPath, objs[0].Kind)
	assert.Equal(t, "#0000ff", objs[0].Stroke)
	assert.Equal(t, 3.0, objs[0].StrokeWidth)
	assert.Equal(t, []state.Point{{X: 0, Y: 0}, {X: 10, Y: 5}, {X: 20, Y: 20}}, objs[0].Points)
	assert.Equal(t, "#ff0000", objs[1].Stroke)
	assert.Equal(t, 9.0, objs[1].StrokeWidth)
}

func TestSwitchingToolsFinishesStroke(t *testing.T) {
	c, d, _ := setup()
	require.NoError(t, c.Choose(Freehand))
	c.PointerDown(state.Point{X: 0, Y: 0})
	c.PointerMove(state.Point{X: 5, Y: 5})
	require.NoError(t, c.Choose(Select))
	assert.Equal(t, 1, d.Len())
	_, ok := c.InProgress()
	assert.False(t, ok)
}

func TestSelectPicksTopmostAndClears(t *testing.T) {
	c, d, _ := setup()
	under, _ := c.Use(Rectangle)
	over, _ := c.Use(Rectangle)

	c.PointerDown(state.Point{X: 150, Y: 150})
	c.PointerUp(state.Point{X: 150, Y: 150})
	assert.Equal(t, over, d.ActiveID())
	assert.NotEqual(t, under, d.ActiveID())

	c.PointerDown(state.Point{X: 700, Y: 500})
	c.PointerUp(state.Point{X: 700, Y: 500})
	assert.Empty(t, d.ActiveID())
}

func TestDragMovesWithOneSnapshot(t *testing.T) {
	c, d, h := setup()
	id, _ := c.Use(Rectangle)
	require.Equal(t, 1, h.Len())

	c.PointerDown(state.Point{X: 150, Y: 150})
	c.PointerMove(state.Point{X: 160, Y: 155})
	c.PointerMove(state.Point{X: 170, Y: 160})
	c.PointerUp(state.Point{X: 180, Y: 170})

	o, _ := d.Object(id)
	assert.Equal(t, 130.0, o.X)
	assert.Equal(t, 120.0, o.Y)
	assert.Equal(t, 2, h.Len())

	// a drag that ends where it started records nothing
	c.PointerDown(state.Point{X: 150, Y: 150})
	c.PointerMove(state.Point{X: 190, Y: 190})
	c.PointerUp(state.Point{X: 150, Y: 150})
	assert.Equal(t, 2, h.Len())
	o, _ = d.Object(id)
	assert.Equal(t, 130.0, o.X)
}

func TestAddDuringDragRecordsOriginalPosition(t *testing.T) {
	c, d, h := setup()
	id, _ := c.Use(Rectangle)

	c.PointerDown(state.Point{X: 150, Y: 150})
	c.PointerMove(state.Point{X: 250, Y: 150})
	_, err := d.Add(state.Object{Kind: state.KindCircle, X: 0, Y: 0, Radius: 10, Opacity: 1})
	require.NoError(t, err)
	c.PointerUp(state.Point{X: 250, Y: 150})
	assert.Equal(t, []string{"add rectangle", "add circle", "edit rectangle"}, h.Labels())

	_, err = h.Undo()
	require.NoError(t, err)
	o, ok := d.Object(id)
	require.True(t, ok)
	assert.Equal(t, 100.0, o.X)
	assert.Equal(t, 2, d.Len())
}
