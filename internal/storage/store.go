// Package storage persists saved designs.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"DesignStudio/internal/errs"
	"DesignStudio/internal/logging"
)

// DefaultName is used when a design is saved without a name.
const DefaultName = "My Design"

var ErrNotFound = errors.New("design not found")

// Design is one saved document. Document holds the exported JSON and
// Thumbnail a PNG data URL.
type Design struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"user_id"`
	Name      string          `json:"name"`
	Document  json.RawMessage `json:"design_data"`
	Thumbnail string          `json:"thumbnail_url"`
	IsPublic  bool            `json:"is_public"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store is the save/load boundary the editor talks to.
type Store interface {
	Save(ctx context.Context, d Design) (string, error)
	Load(ctx context.Context, id string) (Design, error)
	List(ctx context.Context, ownerID string) ([]Design, error)
}

// FileStore keeps each design as an indented JSON file named by its id.
type FileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: bad id %q", ErrNotFound, id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Save writes d and returns its id. A design without an id gets a new one;
// saving an existing id replaces it and keeps its creation time.
func (s *FileStore) Save(ctx context.Context, d Design) (string, error) {
	const op = "save design"
	if strings.TrimSpace(d.OwnerID) == "" {
		return "", errs.Precondition(op, "sign in to save designs")
	}
	if len(d.Document) == 0 {
		return "", errs.Validation(op, "design has no document")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Service(op, err)
	}
	if strings.TrimSpace(d.Name) == "" {
		d.Name = DefaultName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if d.ID == "" {
		d.ID = uuid.NewString()
		d.CreatedAt = now
	} else if prev, err := s.read(d.ID); err == nil {
		if prev.OwnerID != d.OwnerID {
			return "", errs.Precondition(op, "design belongs to another user")
		}
		d.CreatedAt = prev.CreatedAt
	} else if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	p, err := s.path(d.ID)
	if err != nil {
		return "", errs.Service(op, err)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", errs.Service(op, err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", errs.Service(op, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return "", errs.Service(op, err)
	}
	logging.For("storage").Info("design saved", "id", d.ID, "name", d.Name, "bytes", len(data))
	return d.ID, nil
}

func (s *FileStore) read(id string) (Design, error) {
	p, err := s.path(id)
	if err != nil {
		return Design{}, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return Design{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Design{}, err
	}
	var d Design
	if err := json.Unmarshal(data, &d); err != nil {
		return Design{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return d, nil
}

func (s *FileStore) Load(ctx context.Context, id string) (Design, error) {
	if err := ctx.Err(); err != nil {
		return Design{}, errs.Service("load design", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.read(id)
	if err != nil {
		return Design{}, errs.Service("load design", err)
	}
	return d, nil
}

// List returns the owner's designs, newest first. An empty owner lists
// public designs.
func (s *FileStore) List(ctx context.Context, ownerID string) ([]Design, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Service("list designs", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, errs.Service("list designs", err)
	}
	var out []Design
	for _, m := range matches {
		d, err := s.read(strings.TrimSuffix(filepath.Base(m), ".json"))
		if err != nil {
			logging.For("storage").Warn("skipping unreadable design", "file", m, "err", err)
			continue
		}
		if (ownerID == "" && d.IsPublic) || (ownerID != "" && d.OwnerID == ownerID) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b Design) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}
