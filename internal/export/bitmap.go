package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
	"unicode"

	"DesignStudio/internal/render"
	"DesignStudio/internal/state"
)

// Rasterizer renders a snapshot to pixels. *render.Renderer implements it.
type Rasterizer interface {
	Render(s state.Snapshot, assets render.Assets, multiplier float64) (*image.RGBA, error)
}

// PNG renders s at multiplier times its canvas size and writes it as PNG.
func PNG(w io.Writer, r Rasterizer, s state.Snapshot, assets render.Assets, multiplier float64) error {
	img, err := r.Render(s, assets, multiplier)
	if err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	return nil
}

// PNGBytes is PNG into memory.
func PNGBytes(r Rasterizer, s state.Snapshot, assets render.Assets, multiplier float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := PNG(&buf, r, s, assets, multiplier); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName derives a download file name from a design name, e.g.
// "My Design" becomes "My Design.png". Path separators and control
// characters are dropped.
func FileName(design, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(design))
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "design"
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}
