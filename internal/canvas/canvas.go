// Package canvas models the serialized drawing document a canvas-mode
// memo carries. The store treats the payload as an opaque string; the
// core only needs to flatten strokes for recognition, detect emptiness,
// and fingerprint payloads for cheap change detection.
package canvas

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Point is a single sampled pen position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Object is one drawn element. Only path objects feed recognition;
// other types round-trip untouched.
type Object struct {
	Type   string  `json:"type"`
	Points []Point `json:"points,omitempty"`
}

// Document is the drawing surface payload.
type Document struct {
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Objects []Object `json:"objects"`
}

// Parse decodes a serialized payload. An empty string is a valid,
// empty document (a memo that has never been drawn on).
func Parse(data string) (*Document, error) {
	if data == "" {
		return &Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("parse canvas payload: %w", err)
	}
	return &doc, nil
}

// Marshal serializes the document.
func (d *Document) Marshal() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal canvas payload: %w", err)
	}
	return string(b), nil
}

// Empty reports whether the document has no drawn objects.
func (d *Document) Empty() bool {
	return len(d.Objects) == 0
}

// Strokes flattens all path objects into point sequences for the
// recognition backends.
func (d *Document) Strokes() [][]Point {
	var strokes [][]Point
	for _, obj := range d.Objects {
		if obj.Type != "path" || len(obj.Points) == 0 {
			continue
		}
		strokes = append(strokes, obj.Points)
	}
	return strokes
}

// IsEmptyPayload reports whether a serialized payload holds no drawn
// content, without requiring a full parse round-trip by callers.
func IsEmptyPayload(data string) bool {
	doc, err := Parse(data)
	if err != nil {
		// Unparseable payloads count as content; never treat user
		// data as discardable because we failed to read it.
		return false
	}
	return doc.Empty()
}

// Fingerprint hashes a serialized payload. Two payloads with the same
// fingerprint are treated as structurally equal by change detection.
func Fingerprint(data string) uint64 {
	return xxhash.Sum64String(data)
}
