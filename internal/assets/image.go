// Package assets decodes image payloads into canvas assets and talks to
// the AI image generator.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"DesignStudio/internal/errs"
	"DesignStudio/internal/logging"
)

// MaxSize bounds the bytes read from a file or a remote image.
const MaxSize = 32 << 20

var (
	ErrNotImage   = errors.New("not an image")
	ErrBadDataURL = errors.New("malformed data URL")
)

// Asset is a decoded image and the source string an image object refers to
// it by.
type Asset struct {
	Src    string
	MIME   string
	Image  image.Image
	Width  int
	Height int
}

func decode(op string, data []byte) (Asset, error) {
	if len(data) == 0 {
		return Asset{}, errs.Import(op, ErrNotImage)
	}
	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return Asset{}, errs.Import(op, ErrNotImage)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Asset{}, errs.Import(op, fmt.Errorf("decode %s: %w", kind.Extension, err))
	}
	b := img.Bounds()
	logging.For("assets").Debug("image decoded", "format", format, "mime", kind.MIME.Value, "width", b.Dx(), "height", b.Dy())
	return Asset{MIME: kind.MIME.Value, Image: img, Width: b.Dx(), Height: b.Dy()}, nil
}

// Decode reads an uploaded file's bytes. The asset's Src is a data URL
// carrying the same bytes, so a saved design stays self-contained.
func Decode(data []byte) (Asset, error) {
	a, err := decode("import image", data)
	if err != nil {
		return Asset{}, err
	}
	a.Src = DataURL(a.MIME, data)
	return a, nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL is the inverse of DataURL followed by Decode.
func DecodeDataURL(src string) (Asset, error) {
	const op = "decode data url"
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return Asset{}, errs.Import(op, ErrBadDataURL)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return Asset{}, errs.Import(op, ErrBadDataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Asset{}, errs.Import(op, fmt.Errorf("%w: %v", ErrBadDataURL, err))
	}
	a, err := decode(op, data)
	if err != nil {
		return Asset{}, err
	}
	a.Src = src
	return a, nil
}

// Fetch downloads and decodes the image at url. The asset keeps url as its Src.
func Fetch(ctx context.Context, client *http.Client, url string) (Asset, error) {
	const op = "fetch image"
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Asset{}, errs.Import(op, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Asset{}, errs.Service(op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Asset{}, errs.Service(op, fmt.Errorf("unexpected status %s", resp.Status))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSize))
	if err != nil {
		return Asset{}, errs.Service(op, err)
	}
	a, err := decode(op, data)
	if err != nil {
		return Asset{}, err
	}
	a.Src = url
	return a, nil
}

// Resolve turns an image object's Src back into pixels, whether it is a
// data URL or a remote address.
func Resolve(ctx context.Context, client *http.Client, src string) (Asset, error) {
	if strings.HasPrefix(src, "data:") {
		return DecodeDataURL(src)
	}
	return Fetch(ctx, client, src)
}
