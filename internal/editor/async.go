package editor

import (
	"context"
	"fmt"

	"DesignStudio/internal/assets"
	"DesignStudio/internal/errs"
	"DesignStudio/internal/logging"
	"DesignStudio/internal/tools"
)

// issue hands out the next ticket of l. Callers hold s.mu.
func (s *Session) issue(l *lane) ticket {
	l.issued++
	s.pending++
	return ticket{lane: l, n: l.issued, epoch: s.epoch}
}

// fresh reports whether t may still change the document, and marks it
// applied if so. Callers hold s.mu.
func (s *Session) fresh(t ticket) bool {
	if s.closed || t.epoch != s.epoch || t.n <= t.lane.applied {
		return false
	}
	t.lane.applied = t.n
	return true
}

// scope derives a context that also ends when the session closes.
func (s *Session) scope(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *Session) start(op string, l *lane) (ticket, error) {
	var t ticket
	err := s.do(op, func() (*Notice, error) {
		t = s.issue(l)
		s.touch()
		return nil, nil
	})
	return t, err
}

// place adds a decoded asset as a new selected image object, unless t went
// stale while it was being decoded.
func (s *Session) place(op string, t ticket, a assets.Asset, success string, after func()) error {
	return s.doStale(op, func() (*Notice, error) {
		s.settle(after)
		if !s.fresh(t) {
			return nil, fmt.Errorf("%s: %w", op, errs.ErrStale)
		}
		s.doc.RegisterAsset(a.Src, a.Image)
		id, err := s.doc.Add(tools.NewImage(s.cfg.Defaults, a.Src, a.Width, a.Height))
		if err != nil {
			return nil, errs.Import(op, err)
		}
		s.doc.SetActive(id)
		logging.For("editor").Info("image placed", "id", id, "width", a.Width, "height", a.Height)
		n := info("Success", success)
		return &n, nil
	})
}

// fail reports a failed request. Failures of stale requests are dropped.
func (s *Session) fail(op string, t ticket, cause error, after func()) error {
	return s.doStale(op, func() (*Notice, error) {
		s.settle(after)
		if s.closed || t.epoch != s.epoch || t.n < t.lane.applied {
			return nil, fmt.Errorf("%s: %w", op, errs.ErrStale)
		}
		return nil, cause
	})
}

// settle marks one request finished. Callers hold s.mu.
func (s *Session) settle(after func()) {
	s.pending--
	s.touch()
	if after != nil {
		after()
	}
}

// doStale is do for completions, which may land after Close.
func (s *Session) doStale(op string, fn func() (*Notice, error)) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		logging.For("editor").Debug("completion after close dropped", "op", op)
		return fmt.Errorf("%s: %w", op, errs.ErrStale)
	}
	return s.do(op, fn)
}

func finish(ch chan<- error, err error) {
	ch <- err
	close(ch)
}

// ImportFile decodes an uploaded file in the background and places it on
// the canvas. The channel yields the outcome once.
func (s *Session) ImportFile(ctx context.Context, data []byte) <-chan error {
	const op = "import image"
	ch := make(chan error, 1)
	t, err := s.start(op, &s.imports)
	if err != nil {
		finish(ch, err)
		return ch
	}
	ctx, cancel := s.scope(ctx)
	go func() {
		defer cancel()
		if err := ctx.Err(); err != nil {
			finish(ch, s.fail(op, t, errs.Import(op, err), nil))
			return
		}
		a, err := assets.Decode(data)
		if err != nil {
			finish(ch, s.fail(op, t, err, nil))
			return
		}
		finish(ch, s.place(op, t, a, "Image added to canvas", nil))
	}()
	return ch
}

// ImportURL fetches and places a remote image.
func (s *Session) ImportURL(ctx context.Context, url string) <-chan error {
	const op = "import image"
	ch := make(chan error, 1)
	t, err := s.start(op, &s.imports)
	if err != nil {
		finish(ch, err)
		return ch
	}
	ctx, cancel := s.scope(ctx)
	go func() {
		defer cancel()
		a, err := assets.Fetch(ctx, s.client, url)
		if err != nil {
			finish(ch, s.fail(op, t, err, nil))
			return
		}
		finish(ch, s.place(op, t, a, "Image added to canvas", nil))
	}()
	return ch
}

// Prompt is the text in the AI prompt box.
func (s *Session) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

func (s *Session) SetPrompt(p string) {
	_ = s.do("set prompt", func() (*Notice, error) {
		s.prompt = p
		return nil, nil
	})
}

// GenerateImage asks the generator for an image from prompt and places it.
// An empty prompt fails at once. The prompt box is cleared when the
// request finishes, whatever the outcome.
func (s *Session) GenerateImage(ctx context.Context, prompt string) <-chan error {
	const op = "generate image"
	ch := make(chan error, 1)
	var (
		t     ticket
		clean string
	)
	err := s.do(op, func() (*Notice, error) {
		p, err := assets.CleanPrompt(prompt)
		if err != nil {
			return nil, err
		}
		if s.gen == nil {
			return nil, errs.Service(op, fmt.Errorf("no image generator configured"))
		}
		s.prompt, clean = p, p
		t = s.issue(&s.gens)
		s.touch()
		return nil, nil
	})
	if err != nil {
		finish(ch, err)
		return ch
	}
	reset := func() {
		if t.epoch == s.epoch && t.n == s.gens.issued {
			s.prompt = ""
		}
	}
	ctx, cancel := s.scope(ctx)
	go func() {
		defer cancel()
		url, err := s.gen.Generate(ctx, clean)
		if err != nil {
			finish(ch, s.fail(op, t, err, reset))
			return
		}
		a, err := assets.Fetch(ctx, s.client, url)
		if err != nil {
			finish(ch, s.fail(op, t, err, reset))
			return
		}
		finish(ch, s.place(op, t, a, "AI image added to canvas", reset))
	}()
	return ch
}
