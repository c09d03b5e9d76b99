package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"DesignStudio/internal/errs"
	"DesignStudio/internal/logging"
)

// Generator turns a text prompt into the address of a generated image.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CleanPrompt trims prompt and rejects an empty one.
func CleanPrompt(prompt string) (string, error) {
	p := strings.TrimSpace(prompt)
	if p == "" {
		return "", errs.Validation("generate image", "please enter a prompt")
	}
	return p, nil
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	ImageURL string `json:"imageUrl"`
	Error    string `json:"error"`
}

// HTTPGenerator posts {"prompt": ...} to Endpoint and expects
// {"imageUrl": ...} or {"error": ...} back.
type HTTPGenerator struct {
	Endpoint string
	Timeout  time.Duration
	Client   *http.Client
}

func NewHTTPGenerator(endpoint string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{Endpoint: endpoint, Timeout: timeout, Client: &http.Client{}}
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "generate image"
	p, err := CleanPrompt(prompt)
	if err != nil {
		return "", err
	}
	if g.Endpoint == "" {
		return "", errs.Service(op, errors.New("no generator endpoint configured"))
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(generateRequest{Prompt: p})
	if err != nil {
		return "", errs.Service(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errs.Service(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return "", errs.Service(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errs.Service(op, err)
	}
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil && resp.StatusCode == http.StatusOK {
		return "", errs.Service(op, fmt.Errorf("bad response: %w", err))
	}
	switch {
	case out.Error != "":
		return "", errs.Service(op, errors.New(out.Error))
	case resp.StatusCode != http.StatusOK:
		return "", errs.Service(op, fmt.Errorf("unexpected status %s", resp.Status))
	case out.ImageURL == "":
		return "", errs.Service(op, errors.New("response carried no image"))
	}
	logging.For("assets").Info("image generated", "elapsed", time.Since(start).Round(time.Millisecond))
	return out.ImageURL, nil
}
