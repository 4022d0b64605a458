// Package session persists whiteboard scenes as versioned JSON documents.
// It owns the on-disk schema, the migration chain for older format versions,
// atomic file writes, debounced auto-save, and discovery of session files in
// a workspace.
package session

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// FormatVersion is the file format written by this codec. The chain is:
//
//	"1.0"  notes + connections + canvas_state (zoom and view center)
//	"1.1"  adds the image list
//	"1.2"  array-form coordinates, pan-offset view state, groups, modified_at
//
// Documents at older versions migrate forward on load; versions beyond the
// current one are rejected.
const FormatVersion = "1.2"

// versions lists the known format versions in migration order.
var versions = []string{"1.0", "1.1", "1.2"}

// Document is the typed form of a session file at the current version.
type Document struct {
	Version    string             `json:"version"`
	CreatedAt  time.Time          `json:"created_at"`
	ModifiedAt time.Time          `json:"modified_at"`
	Scene      SceneRecord        `json:"scene"`
	Canvas     CanvasStateRecord  `json:"canvas_state"`
	Notes      []NoteRecord       `json:"notes"`
	Images     []ImageRecord      `json:"images"`
	Conns      []ConnectionRecord `json:"connections"`
	Groups     []GroupRecord      `json:"groups"`
	Metadata   MetadataRecord     `json:"metadata"`
}

// SceneRecord persists the authoritative scene bounds.
type SceneRecord struct {
	Rect [4]float64 `json:"rect"` // x, y, width, height
}

// CanvasStateRecord persists the viewport.
type CanvasStateRecord struct {
	ZoomFactor float64    `json:"zoom_factor"`
	PanOffset  [2]float64 `json:"pan_offset"`
}

// NoteRecord persists one note.
type NoteRecord struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Position   [2]float64     `json:"position"`
	Size       [2]float64     `json:"size"`
	Style      map[string]any `json:"style,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	ModifiedAt time.Time      `json:"modified_at"`
}

// ImageRecord persists one image. Data is a self-describing data URI
// (data:<mime>;base64,<payload>) so a session file stays portable as a
// single artifact.
type ImageRecord struct {
	ID         string         `json:"id"`
	Data       string         `json:"data"`
	Filename   string         `json:"filename,omitempty"`
	MIMEType   string         `json:"mime_type"`
	Position   [2]float64     `json:"position"`
	Size       [2]float64     `json:"size"`
	Rotation   float64        `json:"rotation"`
	Opacity    float64        `json:"opacity"`
	Style      map[string]any `json:"style,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	ModifiedAt time.Time      `json:"modified_at"`
}

// ConnectionRecord persists one connection by its endpoint identifiers. The
// path is derived geometry and is recomputed on load, never persisted.
type ConnectionRecord struct {
	ID        string         `json:"id"`
	StartID   string         `json:"start_id"`
	EndID     string         `json:"end_id"`
	Style     map[string]any `json:"style,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// GroupRecord persists one group by its member identifiers. The bounding
// rectangle is derived and recomputed on load.
type GroupRecord struct {
	ID        string         `json:"id"`
	MemberIDs []string       `json:"member_ids"`
	Style     map[string]any `json:"style,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// MetadataRecord carries summary counts for quick inspection without
// decoding the full document.
type MetadataRecord struct {
	NoteCount       int `json:"note_count"`
	ImageCount      int `json:"image_count"`
	ConnectionCount int `json:"connection_count"`
	GroupCount      int `json:"group_count"`
}

// encodeDataURI wraps raw image bytes in a data URI tagged with their MIME
// type.
func encodeDataURI(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// decodeDataURI unwraps a data URI into its MIME type and raw bytes.
func decodeDataURI(uri string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("image data is not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("image data URI has no payload")
	}
	mimeType, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return "", nil, fmt.Errorf("image data URI is not base64 encoded")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("image payload: %w", err)
	}
	return mimeType, data, nil
}

// versionIndex returns the migration-chain index of a version string, or -1
// for an unknown version.
func versionIndex(v string) int {
	for i, known := range versions {
		if known == v {
			return i
		}
	}
	return -1
}
