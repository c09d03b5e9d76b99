// Package config loads editor settings from a TOML or YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the full set of editor settings.
type Config struct {
	Canvas    Canvas    `toml:"canvas" yaml:"canvas"`
	Defaults  Defaults  `toml:"defaults" yaml:"defaults"`
	History   History   `toml:"history" yaml:"history"`
	Generator Generator `toml:"generator" yaml:"generator"`
	Storage   Storage   `toml:"storage" yaml:"storage"`
	Stream    Stream    `toml:"stream" yaml:"stream"`
	Export    Export    `toml:"export" yaml:"export"`
	Log       Log       `toml:"log" yaml:"log"`
}

type Canvas struct {
	Width      float64 `toml:"width" yaml:"width"`
	Height     float64 `toml:"height" yaml:"height"`
	Background string  `toml:"background" yaml:"background"`
}

// Defaults is the geometry and style every new object spawns with.
type Defaults struct {
	AnchorX        float64 `toml:"anchor_x" yaml:"anchor_x"`
	AnchorY        float64 `toml:"anchor_y" yaml:"anchor_y"`
	Fill           string  `toml:"fill" yaml:"fill"`
	Stroke         string  `toml:"stroke" yaml:"stroke"`
	StrokeWidth    float64 `toml:"stroke_width" yaml:"stroke_width"`
	RectWidth      float64 `toml:"rect_width" yaml:"rect_width"`
	RectHeight     float64 `toml:"rect_height" yaml:"rect_height"`
	CircleRadius   float64 `toml:"circle_radius" yaml:"circle_radius"`
	TriangleWidth  float64 `toml:"triangle_width" yaml:"triangle_width"`
	TriangleHeight float64 `toml:"triangle_height" yaml:"triangle_height"`
	LineLength     float64 `toml:"line_length" yaml:"line_length"`
	StarSpikes     int     `toml:"star_spikes" yaml:"star_spikes"`
	StarOuter      float64 `toml:"star_outer" yaml:"star_outer"`
	StarInner      float64 `toml:"star_inner" yaml:"star_inner"`
	HexagonSize    float64 `toml:"hexagon_size" yaml:"hexagon_size"`
	Text           string  `toml:"text" yaml:"text"`
	FontFamily     string  `toml:"font_family" yaml:"font_family"`
	FontSize       float64 `toml:"font_size" yaml:"font_size"`
	ImageScale     float64 `toml:"image_scale" yaml:"image_scale"`
}

type History struct {
	// Limit caps the number of snapshots kept. Zero keeps everything.
	Limit int `toml:"limit" yaml:"limit"`
}

type Generator struct {
	Endpoint string        `toml:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `toml:"timeout" yaml:"timeout"`
}

type Storage struct {
	Dir string `toml:"dir" yaml:"dir"`
}

type Stream struct {
	Addr      string `toml:"addr" yaml:"addr"`
	Advertise bool   `toml:"advertise" yaml:"advertise"`
}

type Export struct {
	ThumbnailMultiplier float64 `toml:"thumbnail_multiplier" yaml:"thumbnail_multiplier"`
	DownloadMultiplier  float64 `toml:"download_multiplier" yaml:"download_multiplier"`
	Dir                 string  `toml:"dir" yaml:"dir"`
}

type Log struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the settings of a fresh install.
func Default() Config {
	return Config{
		Canvas: Canvas{Width: 800, Height: 600, Background: "#ffffff"},
		Defaults: Defaults{
			AnchorX:        100,
			AnchorY:        100,
			Fill:           "#000000",
			Stroke:         "#000000",
			StrokeWidth:    2,
			RectWidth:      200,
			RectHeight:     100,
			CircleRadius:   50,
			TriangleWidth:  100,
			TriangleHeight: 100,
			LineLength:     200,
			StarSpikes:     5,
			StarOuter:      50,
			StarInner:      25,
			HexagonSize:    50,
			Text:           "Click to edit",
			FontFamily:     "Arial",
			FontSize:       40,
			ImageScale:     0.5,
		},
		Generator: Generator{Timeout: 60 * time.Second},
		Storage:   Storage{Dir: "designs"},
		Stream:    Stream{Addr: ":8888"},
		Export:    Export{ThumbnailMultiplier: 1, DownloadMultiplier: 2, Dir: "."},
		Log:       Log{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = toml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the editor cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return fmt.Errorf("config: canvas size must be positive, got %vx%v", c.Canvas.Width, c.Canvas.Height)
	case c.Export.ThumbnailMultiplier <= 0 || c.Export.DownloadMultiplier <= 0:
		return errors.New("config: export multipliers must be positive")
	case c.Defaults.StarSpikes < 2:
		return fmt.Errorf("config: star needs at least 2 spikes, got %d", c.Defaults.StarSpikes)
	case c.History.Limit < 0:
		return errors.New("config: history limit must not be negative")
	}
	return nil
}
