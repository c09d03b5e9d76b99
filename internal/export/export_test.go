package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DesignStudio/internal/render"
	"DesignStudio/internal/state"
)

func sample() state.Snapshot {
	return state.Snapshot{
		Width: 800, Height: 600, Background: "#ffffff",
		Objects: []state.Object{
			{ID: "r", Kind: state.KindRectangle, X: 100, Y: 100, Width: 200, Height: 100, Fill: "#ff0000", Opacity: 1, Rotation: 15},
			{ID: "c", Kind: state.KindCircle, X: 300, Y: 100, Radius: 50, Fill: "#00ff00", Stroke: "#000000", StrokeWidth: 2, Opacity: 0.5},
			{ID: "s", Kind: state.KindPolygon, X: 400, Y: 300, Fill: "#0000ff", Opacity: 1, Points: state.StarVertices(5, 50, 25)},
			{ID: "l", Kind: state.KindLine, X: 100, Y: 400, Stroke: "#000000", StrokeWidth: 2, Opacity: 1, Line: &state.LineEnds{X2: 200}},
			{ID: "p", Kind: state.KindPath, X: 50, Y: 50, Stroke: "#333333", StrokeWidth: 3, Opacity: 1, Points: []state.Point{{}, {X: 10, Y: 5}, {X: 20, Y: 20}}},
			{ID: "t", Kind: state.KindText, X: 100, Y: 500, Fill: "#000000", Opacity: 1,
				Text: &state.TextAttrs{Content: "Click to edit", FontFamily: "Arial", FontSize: 40, Bold: true, Underline: true}},
			{ID: "i", Kind: state.KindImage, X: 500, Y: 400, Opacity: 1,
				Image: &state.ImageAttrs{Src: "pic", ScaleX: 0.5, ScaleY: 0.5, NaturalWidth: 40, NaturalHeight: 20}},
		},
	}
}

type assetMap map[string]image.Image

func (m assetMap) Asset(src string) (image.Image, bool) {
	img, ok := m[src]
	return img, ok
}

func TestPNGAtMultiplier(t *testing.T) {
	r, err := render.New()
	require.NoError(t, err)

	data, err := PNGBytes(r, sample(), nil, 2)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1600, img.Bounds().Dx())
	assert.Equal(t, 1200, img.Bounds().Dy())
}

func TestPDF(t *testing.T) {
	pic := image.NewRGBA(image.Rect(0, 0, 40, 20))
	pic.Set(1, 1, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, sample(), assetMap{"pic": pic}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	buf.Reset()
	require.NoError(t, PDF(&buf, sample(), nil))
	assert.NotZero(t, buf.Len())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "My Design.png", FileName("My Design", "png"))
	assert.Equal(t, "a_b.pdf", FileName("a/b", ".pdf"))
	assert.Equal(t, "design.png", FileName("  ..  ", "png"))
	assert.Equal(t, "tab.json", FileName("t\tab", "json"))
}
