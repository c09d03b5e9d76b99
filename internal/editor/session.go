// Package editor ties the document, history, tools and property panel into
// one editing session that the window and the stream hub drive.
package editor

import (
	"context"
	"errors"
	"image"
	"net/http"
	"sync"

	"DesignStudio/internal/assets"
	"DesignStudio/internal/config"
	"DesignStudio/internal/errs"
	"DesignStudio/internal/export"
	"DesignStudio/internal/history"
	"DesignStudio/internal/logging"
	"DesignStudio/internal/panel"
	"DesignStudio/internal/render"
	"DesignStudio/internal/state"
	"DesignStudio/internal/storage"
	"DesignStudio/internal/tools"
)

var ErrClosed = errors.New("session closed")

// Options are the collaborators a session talks to. Renderer is required;
// a nil Generator or Store makes those features report a service error.
type Options struct {
	Config    config.Config
	Name      string
	Renderer  export.Rasterizer
	Generator assets.Generator
	Store     storage.Store
	Client    *http.Client
}

// lane orders completions of one kind of async request.
type lane struct {
	issued, applied uint64
}

type ticket struct {
	lane  *lane
	n     uint64
	epoch uint64
}

// Session is safe for concurrent use. Every operation runs under one
// mutex; watchers and notice handlers are called after it is released.
type Session struct {
	mu    sync.Mutex
	cfg   config.Config
	doc   *state.Document
	hist  *history.Manager
	tools *tools.Controller
	panel *panel.Panel

	renderer export.Rasterizer
	gen      assets.Generator
	store    storage.Store
	client   *http.Client

	name     string
	designID string
	prompt   string
	pending  int

	epoch   uint64
	imports lane
	gens    lane
	closed  bool
	changed bool

	ctx    context.Context
	cancel context.CancelFunc

	hooks    sync.Mutex
	watchers map[int]func()
	notices  map[int]func(Notice)
	nextHook int
}

func New(opts Options) *Session {
	cfg := opts.Config
	doc := state.New(cfg.Canvas.Width, cfg.Canvas.Height, cfg.Canvas.Background)
	name := opts.Name
	if name == "" {
		name = storage.DefaultName
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	s := &Session{
		cfg:      cfg,
		doc:      doc,
		hist:     history.New(doc, cfg.History.Limit),
		tools:    tools.NewController(doc, cfg.Defaults, hitsFor(opts.Renderer)),
		panel:    panel.New(doc),
		renderer: opts.Renderer,
		gen:      opts.Generator,
		store:    opts.Store,
		client:   client,
		name:     name,
		watchers: make(map[int]func()),
		notices:  make(map[int]func(Notice)),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	doc.Subscribe(func(state.Event) { s.changed = true })
	logging.For("editor").Info("session started", "name", name, "width", cfg.Canvas.Width, "height", cfg.Canvas.Height)
	return s
}

// hitsFor measures text with the renderer's fonts when it can.
func hitsFor(r export.Rasterizer) render.Hits {
	h := render.Hits{Tolerance: 4}
	if m, ok := r.(render.TextMeasurer); ok {
		h.Text = m
	}
	return h
}

// Watch registers fn to run after every operation that changed what the
// canvas or panel shows. The returned func unregisters it.
func (s *Session) Watch(fn func()) (cancel func()) {
	s.hooks.Lock()
	defer s.hooks.Unlock()
	id := s.nextHook
	s.nextHook++
	s.watchers[id] = fn
	return func() {
		s.hooks.Lock()
		delete(s.watchers, id)
		s.hooks.Unlock()
	}
}

// OnNotice registers fn for user-facing messages.
func (s *Session) OnNotice(fn func(Notice)) (cancel func()) {
	s.hooks.Lock()
	defer s.hooks.Unlock()
	id := s.nextHook
	s.nextHook++
	s.notices[id] = fn
	return func() {
		s.hooks.Lock()
		delete(s.notices, id)
		s.hooks.Unlock()
	}
}

func (s *Session) fire(changed bool, notes []Notice) {
	s.hooks.Lock()
	var ws []func()
	if changed {
		for _, w := range s.watchers {
			ws = append(ws, w)
		}
	}
	var ns []func(Notice)
	if len(notes) > 0 {
		for _, n := range s.notices {
			ns = append(ns, n)
		}
	}
	s.hooks.Unlock()
	for _, n := range notes {
		for _, fn := range ns {
			fn(n)
		}
	}
	for _, fn := range ws {
		fn()
	}
}

// do runs fn under the session lock. A failure is also sent as a notice,
// except for stale completions which are only logged.
func (s *Session) do(op string, fn func() (*Notice, error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errs.Precondition(op, ErrClosed.Error())
	}
	s.changed = false
	note, err := fn()
	changed := s.changed
	s.mu.Unlock()

	var notes []Notice
	switch {
	case errors.Is(err, errs.ErrStale):
		logging.For("editor").Debug("stale completion dropped", "op", op)
	case err != nil:
		logging.For("editor").Warn("operation failed", "op", op, "err", err)
		notes = append(notes, failure(err))
	case note != nil:
		notes = append(notes, *note)
	}
	s.fire(changed, notes)
	return err
}

func (s *Session) touch() { s.changed = true }

// Close ends the session. In-flight requests are cancelled and their
// completions dropped.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.epoch++
	s.hist.Detach()
	s.panel.Detach()
	s.mu.Unlock()
	s.cancel()
	logging.For("editor").Info("session closed", "name", s.name)
}

// Tools

func (s *Session) Tool() tools.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tools.Tool()
}

func (s *Session) Style() tools.Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tools.Style()
}

func (s *Session) SetStyle(st tools.Style) error {
	return s.do("set style", func() (*Notice, error) {
		s.touch()
		return nil, s.tools.SetStyle(st)
	})
}

// ChooseTool makes t current without creating anything.
func (s *Session) ChooseTool(t tools.Tool) error {
	return s.do("choose tool", func() (*Notice, error) {
		s.touch()
		return nil, s.tools.Choose(t)
	})
}

// UseTool is a palette click: shape tools create their object at once and
// return its id.
func (s *Session) UseTool(t tools.Tool) (string, error) {
	var id string
	err := s.do("use tool", func() (*Notice, error) {
		s.touch()
		var err error
		id, err = s.tools.Use(t)
		return nil, err
	})
	return id, err
}

func (s *Session) PointerDown(p state.Point) {
	_ = s.do("pointer down", func() (*Notice, error) {
		s.tools.PointerDown(p)
		if _, ok := s.tools.InProgress(); ok {
			s.touch()
		}
		return nil, nil
	})
}

func (s *Session) PointerMove(p state.Point) {
	_ = s.do("pointer move", func() (*Notice, error) {
		s.tools.PointerMove(p)
		if _, ok := s.tools.InProgress(); ok {
			s.touch()
		}
		return nil, nil
	})
}

func (s *Session) PointerUp(p state.Point) {
	_ = s.do("pointer up", func() (*Notice, error) {
		s.tools.PointerUp(p)
		s.touch()
		return nil, nil
	})
}

// History

func (s *Session) Undo() (bool, error) {
	var moved bool
	err := s.do("undo", func() (*Notice, error) {
		var err error
		moved, err = s.hist.Undo()
		return nil, err
	})
	return moved, err
}

func (s *Session) Redo() (bool, error) {
	var moved bool
	err := s.do("redo", func() (*Notice, error) {
		var err error
		moved, err = s.hist.Redo()
		return nil, err
	})
	return moved, err
}

// HistoryState reports the snapshot count and the cursor.
func (s *Session) HistoryState() (length, cursor int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Len(), s.hist.Cursor()
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}

// Objects and selection

func (s *Session) Select(id string) error {
	return s.do("select", func() (*Notice, error) {
		if !s.doc.SetActive(id) {
			return nil, errs.Validation("select", "no such object")
		}
		return nil, nil
	})
}

func (s *Session) activeID(op string) (string, error) {
	id := s.doc.ActiveID()
	if id == "" {
		return "", errs.Validation(op, "no object selected")
	}
	return id, nil
}

// DeleteActive removes the selected object.
func (s *Session) DeleteActive() error {
	return s.do("delete", func() (*Notice, error) {
		id, err := s.activeID("delete")
		if err != nil {
			return nil, err
		}
		s.doc.Remove(id)
		return nil, nil
	})
}

// Clear removes every object. Clearing an empty canvas records nothing.
func (s *Session) Clear() error {
	return s.do("clear", func() (*Notice, error) {
		if !s.doc.Clear() {
			return nil, nil
		}
		n := info("Canvas cleared", "All objects removed")
		return &n, nil
	})
}

func (s *Session) reorder(op string, to state.Placement) error {
	return s.do(op, func() (*Notice, error) {
		id, err := s.activeID(op)
		if err != nil {
			return nil, err
		}
		s.doc.Reorder(id, to)
		return nil, nil
	})
}

func (s *Session) BringToFront() error { return s.reorder("bring to front", state.ToFront) }
func (s *Session) SendToBack() error   { return s.reorder("send to back", state.ToBack) }

func (s *Session) SetBackground(c string) error {
	return s.do("set background", func() (*Notice, error) {
		if _, err := state.ParseColor(c); err != nil {
			return nil, errs.Validation("set background", err.Error())
		}
		s.doc.SetBackground(c)
		return nil, nil
	})
}

// Edit runs fn against the property panel, e.g.
// s.Edit(func(p *panel.Panel) error { return p.SetOpacity(40) }).
func (s *Session) Edit(fn func(p *panel.Panel) error) error {
	return s.do("edit", func() (*Notice, error) {
		return nil, fn(s.panel)
	})
}

func (s *Session) Fields() panel.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel.Fields()
}

func (s *Session) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.ActiveID()
}

func (s *Session) Snapshot() state.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Snapshot()
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) Rename(name string) error {
	return s.do("rename", func() (*Notice, error) {
		if name == "" {
			name = storage.DefaultName
		}
		s.name = name
		s.touch()
		return nil, nil
	})
}

// Busy reports whether an import or generation is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// frame captures what a render needs: the snapshot with any stroke in
// progress on top, and the pixels of every image it shows.
type frame struct {
	snap   state.Snapshot
	assets assetMap
}

type assetMap map[string]image.Image

func (m assetMap) Asset(src string) (image.Image, bool) {
	img, ok := m[src]
	return img, ok
}

func (s *Session) frame(live bool) frame {
	snap := s.doc.Snapshot()
	if live {
		if o, ok := s.tools.InProgress(); ok {
			snap.Objects = append(snap.Objects, o)
		}
	}
	am := assetMap{}
	for _, o := range snap.Objects {
		if o.Image == nil {
			continue
		}
		if img, ok := s.doc.Asset(o.Image.Src); ok {
			am[o.Image.Src] = img
		}
	}
	return frame{snap: snap, assets: am}
}

// Render rasterises the canvas as the board shows it, including a
// freehand stroke still being drawn.
func (s *Session) Render(multiplier float64) (*image.RGBA, error) {
	s.mu.Lock()
	f := s.frame(true)
	s.mu.Unlock()
	return s.renderer.Render(f.snap, f.assets, multiplier)
}
