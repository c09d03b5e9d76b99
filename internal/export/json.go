// Package export turns a document into its persisted JSON form, a
// rasterized bitmap, or a vector PDF.
package export

import (
	"encoding/json"
	"fmt"

	"DesignStudio/internal/state"
)

// FormatVersion is written into every exported document.
const FormatVersion = 1

type documentJSON struct {
	Version    int            `json:"version"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Background string         `json:"background_color"`
	Objects    []state.Object `json:"objects"`
}

func toJSON(s state.Snapshot) documentJSON {
	objs := s.Objects
	if objs == nil {
		objs = []state.Object{}
	}
	return documentJSON{
		Version:    FormatVersion,
		Width:      s.Width,
		Height:     s.Height,
		Background: s.Background,
		Objects:    objs,
	}
}

// Encode serializes s compactly. History snapshots use this form.
func Encode(s state.Snapshot) ([]byte, error) {
	data, err := json.Marshal(toJSON(s))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// EncodeIndent serializes s for saving or download.
func EncodeIndent(s state.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(toJSON(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Decode parses a document produced by Encode or EncodeIndent and checks
// every object.
func Decode(data []byte) (state.Snapshot, error) {
	var doc documentJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return state.Snapshot{}, fmt.Errorf("decode document: %w", err)
	}
	if doc.Version > FormatVersion {
		return state.Snapshot{}, fmt.Errorf("decode document: format version %d is newer than %d", doc.Version, FormatVersion)
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return state.Snapshot{}, fmt.Errorf("decode document: invalid canvas size %vx%v", doc.Width, doc.Height)
	}
	for i, o := range doc.Objects {
		if err := state.Validate(o); err != nil {
			return state.Snapshot{}, fmt.Errorf("decode document: object %d: %w", i, err)
		}
	}
	return state.Snapshot{
		Width:      doc.Width,
		Height:     doc.Height,
		Background: doc.Background,
		Objects:    doc.Objects,
	}, nil
}
