package editor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DesignStudio/internal/config"
	"DesignStudio/internal/errs"
	"DesignStudio/internal/panel"
	"DesignStudio/internal/render"
	"DesignStudio/internal/state"
	"DesignStudio/internal/storage"
	"DesignStudio/internal/tools"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// gatedGen returns url for every prompt, waiting on the prompt's gate when
// one is registered.
type gatedGen struct {
	url   string
	err   error
	mu    sync.Mutex
	gates map[string]chan struct{}
	seen  []string
}

func (g *gatedGen) gate(prompt string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates == nil {
		g.gates = map[string]chan struct{}{}
	}
	ch := make(chan struct{})
	g.gates[prompt] = ch
	return ch
}

func (g *gatedGen) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.seen = append(g.seen, prompt)
	gate := g.gates[prompt]
	g.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", errs.Service("generate image", ctx.Err())
		}
	}
	return g.url, g.err
}

type fixture struct {
	s       *Session
	gen     *gatedGen
	srv     *httptest.Server
	mu      sync.Mutex
	notices []Notice
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	data := pngBytes(t, 40, 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)

	r, err := render.New()
	require.NoError(t, err)
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	f := &fixture{gen: &gatedGen{url: srv.URL + "/ai.png"}, srv: srv}
	f.s = New(Options{
		Config:    config.Default(),
		Renderer:  r,
		Generator: f.gen,
		Store:     store,
		Client:    srv.Client(),
	})
	f.s.OnNotice(func(n Notice) {
		f.mu.Lock()
		f.notices = append(f.notices, n)
		f.mu.Unlock()
	})
	t.Cleanup(f.s.Close)
	return f
}

func (f *fixture) lastNotice() Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.notices) == 0 {
		return Notice{}
	}
	return f.notices[len(f.notices)-1]
}

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("async operation did not finish")
		return nil
	}
}

func TestRectangleCircleScenario(t *testing.T) {
	s := newFixture(t).s

	_, err := s.UseTool(tools.Rectangle)
	require.NoError(t, err)
	n, c := s.HistoryState()
	assert.Equal(t, 1, len(s.Snapshot().Objects))
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, c)

	_, err = s.UseTool(tools.Circle)
	require.NoError(t, err)
	both := s.Snapshot().Objects
	n, c = s.HistoryState()
	assert.Len(t, both, 2)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, c)

	moved, err := s.Undo()
	require.NoError(t, err)
	assert.True(t, moved)
	objs := s.Snapshot().Objects
	require.Len(t, objs, 1)
	assert.Equal(t, state.KindRectangle, objs[0].Kind)
	_, c = s.HistoryState()
	assert.Equal(t, 0, c)

	moved, err = s.Undo()
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = s.Redo()
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, both, s.Snapshot().Objects)
	moved, _ = s.Redo()
	assert.False(t, moved)
}

func TestWatchersSeeChanges(t *testing.T) {
	s := newFixture(t).s
	calls := 0
	var seen int
	s.Watch(func() {
		calls++
		seen = len(s.Snapshot().Objects)
	})
	_, err := s.UseTool(tools.Star)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, seen)
}

func TestDeleteAndReorder(t *testing.T) {
	f := newFixture(t)
	s := f.s

	err := s.DeleteActive()
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, LevelError, f.lastNotice().Level)
	assert.ErrorIs(t, s.BringToFront(), errs.ErrValidation)

	rect, _ := s.UseTool(tools.Rectangle)
	circle, _ := s.UseTool(tools.Circle)
	require.NoError(t, s.Select(rect))
	require.NoError(t, s.BringToFront())
	objs := s.Snapshot().Objects
	assert.Equal(t, []string{circle, rect}, []string{objs[0].ID, objs[1].ID})

	require.NoError(t, s.SendToBack())
	assert.Equal(t, rect, s.Snapshot().Objects[0].ID)

	require.NoError(t, s.DeleteActive())
	assert.Len(t, s.Snapshot().Objects, 1)
	assert.Empty(t, s.ActiveID())

	assert.ErrorIs(t, s.Select("nope"), errs.ErrValidation)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	s := f.s
	require.NoError(t, s.Clear())
	n, _ := s.HistoryState()
	assert.Equal(t, 0, n)
	assert.Equal(t, Notice{}, f.lastNotice())

	s.UseTool(tools.Rectangle)
	s.UseTool(tools.Text)
	require.NoError(t, s.Clear())
	assert.Empty(t, s.Snapshot().Objects)
	n, _ = s.HistoryState()
	assert.Equal(t, 3, n)
	assert.Equal(t, Notice{Level: LevelInfo, Title: "Canvas cleared", Message: "All objects removed"}, f.lastNotice())

	_, err := s.Undo()
	require.NoError(t, err)
	assert.Len(t, s.Snapshot().Objects, 2)
}

func TestOpacityEdit(t *testing.T) {
	s := newFixture(t).s
	id, _ := s.UseTool(tools.Rectangle)
	before, _ := s.HistoryState()

	require.NoError(t, s.Edit(func(p *panel.Panel) error { return p.SetOpacity(40) }))
	after, _ := s.HistoryState()
	assert.Equal(t, before+1, after)
	assert.Equal(t, 40.0, s.Fields().Opacity)
	for _, o := range s.Snapshot().Objects {
		if o.ID == id {
			assert.InDelta(t, 0.4, o.Opacity, 1e-9)
		}
	}

	require.NoError(t, s.Edit(func(p *panel.Panel) error { return p.SetOpacity(40) }))
	again, _ := s.HistoryState()
	assert.Equal(t, after, again)
}

func TestFreehandThroughSession(t *testing.T) {
	s := newFixture(t).s
	require.NoError(t, s.ChooseTool(tools.Freehand))
	s.PointerDown(state.Point{X: 10, Y: 10})
	s.PointerMove(state.Point{X: 20, Y: 20})

	img, err := s.Render(1)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Empty(t, s.Snapshot().Objects)

	s.PointerUp(state.Point{X: 30, Y: 10})
	objs := s.Snapshot().Objects
	require.Len(t, objs, 1)
	assert.Equal(t, state.KindPath, objs[0].Kind)
	assert.Equal(t, tools.Freehand, s.Tool())
}

func TestImportFile(t *testing.T) {
	f := newFixture(t)
	s := f.s
	s.UseTool(tools.Rectangle)
	n0, _ := s.HistoryState()

	require.NoError(t, wait(t, s.ImportFile(context.Background(), pngBytes(t, 64, 32))))
	objs := s.Snapshot().Objects
	require.Len(t, objs, 2)
	img := objs[1]
	assert.Equal(t, state.KindImage, img.Kind)
	assert.Equal(t, 100.0, img.X)
	assert.Equal(t, 100.0, img.Y)
	assert.Equal(t, 0.5, img.Image.ScaleX)
	assert.Equal(t, 64, img.Image.NaturalWidth)
	assert.Equal(t, img.ID, s.ActiveID())
	n1, _ := s.HistoryState()
	assert.Equal(t, n0+1, n1)
	assert.Equal(t, "Image added to canvas", f.lastNotice().Message)
	assert.False(t, s.Busy())
}

func TestImportRejectsNonImage(t *testing.T) {
	f := newFixture(t)
	s := f.s
	err := wait(t, s.ImportFile(context.Background(), []byte("plain text")))
	assert.ErrorIs(t, err, errs.ErrImport)
	assert.Empty(t, s.Snapshot().Objects)
	n, _ := s.HistoryState()
	assert.Equal(t, 0, n)
	assert.Equal(t, "Import failed", f.lastNotice().Title)
}

func TestImportURL(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, wait(t, f.s.ImportURL(context.Background(), f.srv.URL+"/x.png")))
	objs := f.s.Snapshot().Objects
	require.Len(t, objs, 1)
	assert.Equal(t, f.srv.URL+"/x.png", objs[0].Image.Src)
}

func TestGenerateImage(t *testing.T) {
	f := newFixture(t)
	s := f.s

	err := wait(t, s.GenerateImage(context.Background(), "   "))
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, f.gen.seen)

	require.NoError(t, wait(t, s.GenerateImage(context.Background(), "  a red fox ")))
	assert.Equal(t, []string{"a red fox"}, f.gen.seen)
	objs := s.Snapshot().Objects
	require.Len(t, objs, 1)
	assert.Equal(t, 40, objs[0].Image.NaturalWidth)
	assert.Equal(t, "AI image added to canvas", f.lastNotice().Message)
	assert.Empty(t, s.Prompt())
}

func TestGenerateFailureLeavesDocument(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errs.Service("generate image", assert.AnError)
	s := f.s
	s.SetPrompt("fox")

	err := wait(t, s.GenerateImage(context.Background(), "fox"))
	assert.ErrorIs(t, err, errs.ErrService)
	assert.Empty(t, s.Snapshot().Objects)
	assert.Empty(t, s.Prompt())
}

func TestStaleGenerationDropped(t *testing.T) {
	f := newFixture(t)
	s := f.s
	slow := f.gen.gate("slow")
	quick := f.gen.gate("quick")

	older := s.GenerateImage(context.Background(), "slow")
	newer := s.GenerateImage(context.Background(), "quick")
	assert.True(t, s.Busy())
	close(quick)
	require.NoError(t, wait(t, newer))
	close(slow)
	err := wait(t, older)
	assert.ErrorIs(t, err, errs.ErrStale)

	assert.Len(t, s.Snapshot().Objects, 1)
	n, _ := s.HistoryState()
	assert.Equal(t, 1, n)
	assert.False(t, s.Busy())
}

func TestCloseDropsInFlight(t *testing.T) {
	f := newFixture(t)
	f.gen.gate("late")
	pending := f.s.GenerateImage(context.Background(), "late")
	f.s.Close()
	err := wait(t, pending)
	assert.ErrorIs(t, err, errs.ErrStale)
	assert.Empty(t, f.s.Snapshot().Objects)

	_, err = f.s.UseTool(tools.Rectangle)
	assert.ErrorIs(t, err, errs.ErrPrecondition)
}

func TestLoadDropsInFlight(t *testing.T) {
	f := newFixture(t)
	release := f.gen.gate("before load")
	pending := f.s.GenerateImage(context.Background(), "before load")

	other := newFixture(t).s
	other.UseTool(tools.Triangle)
	data, err := other.ExportJSON()
	require.NoError(t, err)

	require.NoError(t, f.s.LoadJSON(context.Background(), data))
	close(release)
	assert.ErrorIs(t, wait(t, pending), errs.ErrStale)

	objs := f.s.Snapshot().Objects
	require.Len(t, objs, 1)
	assert.Equal(t, state.KindTriangle, objs[0].Kind)
	n, c := f.s.HistoryState()
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, c)
}

func TestSaveAndRequireSavedDesign(t *testing.T) {
	f := newFixture(t)
	s := f.s
	s.UseTool(tools.Hexagon)
	require.NoError(t, wait(t, s.ImportFile(context.Background(), pngBytes(t, 8, 8))))

	_, err := s.RequireSavedDesign("user-1")
	assert.ErrorIs(t, err, errs.ErrPrecondition)
	_, err = s.Save(context.Background(), "")
	assert.ErrorIs(t, err, errs.ErrPrecondition)
	assert.Empty(t, s.DesignID())

	id, err := s.Save(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, id, s.DesignID())
	assert.Equal(t, "Design saved", f.lastNotice().Message)

	got, err := s.RequireSavedDesign("user-1")
	require.NoError(t, err)
	assert.Equal(t, id, got)
	_, err = s.RequireSavedDesign("")
	assert.ErrorIs(t, err, errs.ErrPrecondition)

	again, err := s.Save(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	designs, err := s.Designs(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, designs, 1)
	assert.Equal(t, storage.DefaultName, designs[0].Name)
	assert.Contains(t, designs[0].Thumbnail, "data:image/png;base64,")

	before := s.Snapshot().Objects
	s.UseTool(tools.Rectangle)
	require.NoError(t, s.Load(context.Background(), id))
	after := s.Snapshot().Objects
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Kind, after[i].Kind)
		assert.Equal(t, before[i].X, after[i].X)
	}
	n, _ := s.HistoryState()
	assert.Equal(t, 1, n)
	assert.Equal(t, id, s.DesignID())
}

func TestDownload(t *testing.T) {
	s := newFixture(t).s
	s.UseTool(tools.Rectangle)
	dir := t.TempDir()

	path, err := s.Download(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "My Design.png"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1600, cfg.Width)
	assert.Equal(t, 1200, cfg.Height)

	require.NoError(t, s.Rename("Poster"))
	path, err = s.DownloadPDF(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Poster.pdf"), path)
}

func TestSessionsAreIndependent(t *testing.T) {
	a := newFixture(t).s
	b := newFixture(t).s
	a.UseTool(tools.Rectangle)
	assert.Len(t, a.Snapshot().Objects, 1)
	assert.Empty(t, b.Snapshot().Objects)
}

func TestImportDuringSlideKeepsEditUndoable(t *testing.T) {
	s := newFixture(t).s
	id, _ := s.UseTool(tools.Rectangle)

	require.NoError(t, s.Edit(func(p *panel.Panel) error { return p.SlideOpacity(40) }))
	require.NoError(t, wait(t, s.ImportFile(context.Background(), pngBytes(t, 8, 8))))
	require.NoError(t, s.Select(id))
	require.NoError(t, s.Edit((*panel.Panel).EndSlide))
	n, _ := s.HistoryState()
	assert.Equal(t, 3, n)

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	objs := s.Snapshot().Objects
	require.Len(t, objs, 2)
	assert.Equal(t, 1.0, objs[0].Opacity)

	ok, err = s.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.4, s.Snapshot().Objects[0].Opacity, 1e-9)
}

func TestDragAcrossImportKeepsMoveUndoable(t *testing.T) {
	s := newFixture(t).s
	id, _ := s.UseTool(tools.Rectangle)

	s.PointerDown(state.Point{X: 150, Y: 150})
	s.PointerMove(state.Point{X: 250, Y: 150})
	require.NoError(t, wait(t, s.ImportFile(context.Background(), pngBytes(t, 8, 8))))
	s.PointerUp(state.Point{X: 250, Y: 150})

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	objs := s.Snapshot().Objects
	require.Len(t, objs, 2)
	assert.Equal(t, id, objs[0].ID)
	assert.Equal(t, 100.0, objs[0].X)
}

func TestNonFiniteEditsAreRejected(t *testing.T) {
	s := newFixture(t).s
	s.UseTool(tools.Rectangle)
	before, _ := s.HistoryState()

	err := s.Edit(func(p *panel.Panel) error { return p.SetOpacity(math.NaN()) })
	assert.ErrorIs(t, err, errs.ErrValidation)
	err = s.SetStyle(tools.Style{Fill: "#000000", StrokeWidth: math.Inf(1)})
	assert.ErrorIs(t, err, errs.ErrValidation)

	after, _ := s.HistoryState()
	assert.Equal(t, before, after)
	assert.Equal(t, 1.0, s.Snapshot().Objects[0].Opacity)
	_, err = s.ExportJSON()
	require.NoError(t, err)
}
