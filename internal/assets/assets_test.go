package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DesignStudio/internal/errs"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	data := pngBytes(t, 12, 8)
	a, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "image/png", a.MIME)
	assert.Equal(t, 12, a.Width)
	assert.Equal(t, 8, a.Height)
	assert.True(t, strings.HasPrefix(a.Src, "data:image/png;base64,"))

	back, err := DecodeDataURL(a.Src)
	require.NoError(t, err)
	assert.Equal(t, a.Src, back.Src)
	assert.Equal(t, 12, back.Width)
}

func TestDecodeRejectsNonImage(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty": nil,
		"text":  []byte("hello, this is not a picture"),
		"pdf":   []byte("%PDF-1.4\n%âãÏÓ\n"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data)
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrImport)
		})
	}
}

func TestDecodeTruncatedPNG(t *testing.T) {
	data := pngBytes(t, 4, 4)
	_, err := Decode(data[:len(data)/2])
	assert.ErrorIs(t, err, errs.ErrImport)
}

func TestDecodeDataURLMalformed(t *testing.T) {
	for _, src := range []string{"http://x/y.png", "data:image/png,abc", "data:image/png;base64,@@@"} {
		_, err := DecodeDataURL(src)
		assert.ErrorIs(t, err, errs.ErrImport, src)
	}
}

func TestFetch(t *testing.T) {
	data := pngBytes(t, 5, 6)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	a, err := Resolve(context.Background(), srv.Client(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/ok.png", a.Src)
	assert.Equal(t, 6, a.Height)

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, errs.ErrService)
}

func TestCleanPrompt(t *testing.T) {
	p, err := CleanPrompt("  a red fox  ")
	require.NoError(t, err)
	assert.Equal(t, "a red fox", p)

	_, err = CleanPrompt(" \t\n")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestHTTPGenerator(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		switch got.Prompt {
		case "fail":
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(generateResponse{Error: "model overloaded"})
		case "empty":
			_ = json.NewEncoder(w).Encode(generateResponse{})
		default:
			_ = json.NewEncoder(w).Encode(generateResponse{ImageURL: "https://img.example/fox.png"})
		}
	}))
	defer srv.Close()

	g := NewHTTPGenerator(srv.URL, time.Second)
	url, err := g.Generate(context.Background(), "  fox ")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/fox.png", url)
	assert.Equal(t, "fox", got.Prompt)

	_, err = g.Generate(context.Background(), "fail")
	require.ErrorIs(t, err, errs.ErrService)
	assert.Contains(t, err.Error(), "model overloaded")

	_, err = g.Generate(context.Background(), "empty")
	assert.ErrorIs(t, err, errs.ErrService)

	_, err = g.Generate(context.Background(), "   ")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestHTTPGeneratorTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g := NewHTTPGenerator(srv.URL, 50*time.Millisecond)
	_, err := g.Generate(context.Background(), "slow")
	assert.ErrorIs(t, err, errs.ErrService)
}

func TestHTTPGeneratorNoEndpoint(t *testing.T) {
	_, err := NewHTTPGenerator("", 0).Generate(context.Background(), "fox")
	assert.ErrorIs(t, err, errs.ErrService)
}
