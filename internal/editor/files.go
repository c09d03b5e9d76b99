package editor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"DesignStudio/internal/assets"
	"DesignStudio/internal/errs"
	"DesignStudio/internal/export"
	"DesignStudio/internal/logging"
	"DesignStudio/internal/state"
	"DesignStudio/internal/storage"
)

// ExportJSON returns the document in its persisted form.
func (s *Session) ExportJSON() ([]byte, error) {
	s.mu.Lock()
	snap := s.doc.Snapshot()
	s.mu.Unlock()
	return export.EncodeIndent(snap)
}

// ExportBitmap renders the committed document as PNG at multiplier times
// the canvas size.
func (s *Session) ExportBitmap(multiplier float64) ([]byte, error) {
	s.mu.Lock()
	f := s.frame(false)
	s.mu.Unlock()
	return export.PNGBytes(s.renderer, f.snap, f.assets, multiplier)
}

// ExportPDF writes the committed document as a vector PDF.
func (s *Session) ExportPDF(w io.Writer) error {
	s.mu.Lock()
	f := s.frame(false)
	s.mu.Unlock()
	return export.PDF(w, f.snap, f.assets)
}

// Download writes the download-quality PNG into dir as "<design name>.png"
// and returns its path.
func (s *Session) Download(dir string) (string, error) {
	var path string
	err := s.do("download", func() (*Notice, error) {
		path = filepath.Join(dir, export.FileName(s.name, "png"))
		f := s.frame(false)
		data, err := export.PNGBytes(s.renderer, f.snap, f.assets, s.cfg.Export.DownloadMultiplier)
		if err != nil {
			return nil, errs.Service("download", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, errs.Service("download", err)
		}
		n := info("Downloaded", "Saved "+filepath.Base(path))
		return &n, nil
	})
	return path, err
}

// DownloadPDF is Download as a vector PDF.
func (s *Session) DownloadPDF(dir string) (string, error) {
	var path string
	err := s.do("download pdf", func() (*Notice, error) {
		path = filepath.Join(dir, export.FileName(s.name, "pdf"))
		var buf bytes.Buffer
		f := s.frame(false)
		if err := export.PDF(&buf, f.snap, f.assets); err != nil {
			return nil, errs.Service("download pdf", err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, errs.Service("download pdf", err)
		}
		n := info("Downloaded", "Saved "+filepath.Base(path))
		return &n, nil
	})
	return path, err
}

// Save stores the document with a thumbnail under the session's name and
// remembers the returned id. Saving again updates the same design.
func (s *Session) Save(ctx context.Context, ownerID string) (string, error) {
	const op = "save design"
	var (
		f    frame
		d    storage.Design
		prev string
	)
	err := s.do(op, func() (*Notice, error) {
		if strings.TrimSpace(ownerID) == "" {
			return nil, errs.Precondition(op, "sign in to save designs")
		}
		if s.store == nil {
			return nil, errs.Service(op, fmt.Errorf("no design store configured"))
		}
		f = s.frame(false)
		prev = s.designID
		d = storage.Design{ID: prev, OwnerID: ownerID, Name: s.name, IsPublic: false}
		return nil, nil
	})
	if err != nil {
		return "", err
	}

	data, err := export.Encode(f.snap)
	if err == nil {
		d.Document = data
		var thumb []byte
		thumb, err = export.PNGBytes(s.renderer, f.snap, f.assets, s.cfg.Export.ThumbnailMultiplier)
		d.Thumbnail = assets.DataURL("image/png", thumb)
	}
	var id string
	if err == nil {
		id, err = s.store.Save(ctx, d)
	}

	err = s.do(op, func() (*Notice, error) {
		if err != nil {
			if errs.KindOf(err) == nil {
				err = errs.Service(op, err)
			}
			return nil, err
		}
		if s.designID == prev {
			s.designID = id
		}
		s.touch()
		n := info("Saved", "Design saved")
		return &n, nil
	})
	if err != nil {
		return "", err
	}
	logging.For("editor").Info("design saved", "id", id, "name", d.Name)
	return id, nil
}

// DesignID is the id of the last save, or "".
func (s *Session) DesignID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.designID
}

// RequireSavedDesign returns the saved design id for flows that hand the
// design on, such as adding it to an order.
func (s *Session) RequireSavedDesign(ownerID string) (string, error) {
	const op = "use design"
	var id string
	err := s.do(op, func() (*Notice, error) {
		if strings.TrimSpace(ownerID) == "" {
			return nil, errs.Precondition(op, "sign in first")
		}
		if s.designID == "" {
			return nil, errs.Precondition(op, "save your design first")
		}
		id = s.designID
		return nil, nil
	})
	return id, err
}

// Designs lists the owner's saved designs.
func (s *Session) Designs(ctx context.Context, ownerID string) ([]storage.Design, error) {
	if s.store == nil {
		return nil, errs.Service("list designs", fmt.Errorf("no design store configured"))
	}
	return s.store.List(ctx, ownerID)
}

// Load replaces the document with a saved design and starts its history
// afresh. Requests still in flight are dropped.
func (s *Session) Load(ctx context.Context, id string) error {
	const op = "load design"
	if s.store == nil {
		return s.do(op, func() (*Notice, error) {
			return nil, errs.Service(op, fmt.Errorf("no design store configured"))
		})
	}
	d, err := s.store.Load(ctx, id)
	if err != nil {
		return s.do(op, func() (*Notice, error) { return nil, err })
	}
	return s.replace(ctx, op, d.Document, d.Name, d.ID)
}

// LoadJSON opens a document previously written by ExportJSON. The session
// keeps its name and forgets any saved id.
func (s *Session) LoadJSON(ctx context.Context, data []byte) error {
	return s.replace(ctx, "open document", data, "", "")
}

func (s *Session) replace(ctx context.Context, op string, data []byte, name, id string) error {
	snap, err := export.Decode(data)
	if err != nil {
		return s.do(op, func() (*Notice, error) { return nil, errs.Import(op, err) })
	}
	pixels := s.resolve(ctx, snap)

	return s.do(op, func() (*Notice, error) {
		s.epoch++
		for src, a := range pixels {
			s.doc.RegisterAsset(src, a.Image)
		}
		s.doc.SetActive("")
		s.doc.Restore(snap)
		if err := s.hist.Reset(op); err != nil {
			return nil, errs.Import(op, err)
		}
		if name != "" {
			s.name = name
		}
		s.designID = id
		s.touch()
		logging.For("editor").Info("document loaded", "objects", len(snap.Objects), "id", id)
		return nil, nil
	})
}

// resolve decodes the pixels of every image object the document does not
// already hold. Failures leave the image drawing as a placeholder.
func (s *Session) resolve(ctx context.Context, snap state.Snapshot) map[string]assets.Asset {
	out := make(map[string]assets.Asset)
	for _, o := range snap.Objects {
		if o.Image == nil {
			continue
		}
		src := o.Image.Src
		if _, done := out[src]; done {
			continue
		}
		s.mu.Lock()
		_, have := s.doc.Asset(src)
		s.mu.Unlock()
		if have {
			continue
		}
		a, err := assets.Resolve(ctx, s.client, src)
		if err != nil {
			logging.For("editor").Warn("image unavailable", "src", truncate(src, 64), "err", err)
			continue
		}
		out[src] = a
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
