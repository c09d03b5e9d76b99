package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarVertices(t *testing.T) {
	pts := StarVertices(5, 50, 25)
	require.Len(t, pts, 10)
	for i, p := range pts {
		wantR := 50.0
		if i%2 == 1 {
			wantR = 25
		}
		assert.InDelta(t, wantR, math.Hypot(p.X, p.Y), 1e-9, "vertex %d radius", i)

		want := float64(i)*36 - 90
		got := math.Atan2(p.Y, p.X) * 180 / math.Pi
		diff := math.Mod(got-want+540, 360) - 180
		assert.InDelta(t, 0, diff, 1e-9, "vertex %d angle", i)
	}
	assert.Nil(t, StarVertices(1, 50, 25))
}

func TestHexagonVertices(t *testing.T) {
	pts := HexagonVertices(10)
	require.Len(t, pts, 6)
	assert.InDelta(t, 10*math.Cos(-math.Pi/6), pts[0].X, 1e-9)
	assert.InDelta(t, -5, pts[0].Y, 1e-9)
	assert.InDelta(t, 5, pts[1].Y, 1e-9)
	assert.InDelta(t, 0, pts[2].X, 1e-9)
	assert.InDelta(t, 10, pts[2].Y, 1e-9)
}

func TestContainsByKind(t *testing.T) {
	circle := Object{Kind: KindCircle, X: 0, Y: 0, Radius: 10}
	assert.True(t, circle.Contains(Point{10, 10}, 0))
	assert.False(t, circle.Contains(Point{1, 1}, 0), "box corner lies outside the circle")

	tri := Object{Kind: KindTriangle, X: 0, Y: 0, Width: 10, Height: 10}
	assert.True(t, tri.Contains(Point{5, 8}, 0))
	assert.False(t, tri.Contains(Point{0.5, 0.5}, 0))

	line := Object{Kind: KindLine, X: 10, Y: 10, StrokeWidth: 2, Line: &LineEnds{X2: 100}}
	assert.True(t, line.Contains(Point{50, 12}, 3))
	assert.False(t, line.Contains(Point{50, 20}, 3))

	star := Object{Kind: KindPolygon, X: 100, Y: 100, Points: StarVertices(5, 50, 25)}
	assert.True(t, star.Contains(Point{100, 100}, 0))
	assert.False(t, star.Contains(Point{140, 140}, 0))
}

func TestContainsHonoursRotation(t *testing.T) {
	bar := Object{Kind: KindRectangle, X: 0, Y: 45, Width: 100, Height: 10}
	assert.False(t, bar.Contains(Point{50, 10}, 0))
	bar.Rotation = 90
	assert.True(t, bar.Contains(Point{50, 10}, 0))
}

func TestRectOps(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 5, Y: 5, W: 10, H: 10}
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(Rect{X: 20, Y: 20, W: 1, H: 1}))
	assert.Equal(t, Rect{X: 0, Y: 0, W: 15, H: 15}, a.Union(b))
	assert.Equal(t, Rect{X: -1, Y: -1, W: 12, H: 12}, a.Inset(1))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#f0a")
	require.NoError(t, err)
	assert.Equal(t, "#ff00aa", HexColor(c))

	c, err = ParseColor("#11223380")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x80), c.A)
	assert.Equal(t, "#11223380", HexColor(c))

	_, err = ParseColor("chartreuse-ish")
	assert.Error(t, err)
	assert.Equal(t, uint8(255), ColorOr("nope", namedColors["white"]).R)
}

func TestEveryKindHasTraits(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, Known(k), "kind %s", k)
	}
	assert.Len(t, kinds, len(Kinds()))
}
