package session

import "time"

// Migrations upgrade parsed session documents one version step at a time.
// Each step is a pure function from one document shape to the next: the input
// map is never mutated, and no information is dropped — superseded fields are
// carried along so a migrated document still contains everything the old one
// did.

// migration upgrades a document from one version to the next.
type migration struct {
	from, to string
	apply    func(doc map[string]any) map[string]any
}

// migrations[i] upgrades versions[i] to versions[i+1].
var migrations = []migration{
	{from: "1.0", to: "1.1", apply: migrate10to11},
	{from: "1.1", to: "1.2", apply: migrate11to12},
}

// Migrate upgrades a parsed session document to the current format version.
// A document already at the current version passes through unchanged. It
// fails with SchemaError when the version field is missing and with
// UnknownVersionError for versions this codec does not know.
func Migrate(doc map[string]any) (map[string]any, error) {
	version, ok := doc["version"].(string)
	if !ok {
		return nil, &SchemaError{Field: "version"}
	}
	idx := versionIndex(version)
	if idx < 0 {
		return nil, &UnknownVersionError{Version: version}
	}
	for _, m := range migrations[idx:] {
		doc = m.apply(doc)
	}
	return doc, nil
}

// migrate10to11 introduces the image list.
func migrate10to11(doc map[string]any) map[string]any {
	next := cloneDoc(doc)
	next["version"] = "1.1"
	if _, ok := next["images"]; !ok {
		next["images"] = []any{}
	}
	return next
}

// migrate11to12 moves to the current schema: array-form coordinates, a
// pan-offset view state, a group list, endpoint ids that are no longer
// note-specific, and a modification timestamp. Legacy fields are kept
// alongside their replacements.
func migrate11to12(doc map[string]any) map[string]any {
	next := cloneDoc(doc)
	next["version"] = "1.2"

	if notes, ok := next["notes"].([]any); ok {
		converted := make([]any, len(notes))
		for i, v := range notes {
			note := cloneDoc(asMap(v))
			convertPointField(note, "position")
			converted[i] = note
		}
		next["notes"] = converted
	}

	if images, ok := next["images"].([]any); ok {
		converted := make([]any, len(images))
		for i, v := range images {
			img := cloneDoc(asMap(v))
			convertPointField(img, "position")
			// 1.1 stored width/height separately and a bare base64 payload.
			if w, okW := toFloat(img["width"]); okW {
				if h, okH := toFloat(img["height"]); okH {
					if _, has := img["size"]; !has {
						img["size"] = []any{w, h}
					}
				}
			}
			if data, ok := img["data"].(string); ok && !isDataURI(data) {
				if mime, ok := img["mime_type"].(string); ok {
					img["data"] = "data:" + mime + ";base64," + data
				}
			}
			converted[i] = img
		}
		next["images"] = converted
	}

	if conns, ok := next["connections"].([]any); ok {
		converted := make([]any, len(conns))
		for i, v := range conns {
			conn := cloneDoc(asMap(v))
			renameField(conn, "start_note_id", "start_id")
			renameField(conn, "end_note_id", "end_id")
			converted[i] = conn
		}
		next["connections"] = converted
	}

	if _, ok := next["groups"]; !ok {
		next["groups"] = []any{}
	}

	if canvas, ok := next["canvas_state"].(map[string]any); ok {
		cs := cloneDoc(canvas)
		if _, has := cs["pan_offset"]; !has {
			cx, okX := toFloat(cs["center_x"])
			cy, okY := toFloat(cs["center_y"])
			if okX && okY {
				cs["pan_offset"] = []any{cx, cy}
			}
		}
		next["canvas_state"] = cs
	}

	if scene, ok := next["scene"].(map[string]any); ok {
		sc := cloneDoc(scene)
		if rect, ok := sc["rect"].(map[string]any); ok {
			x, _ := toFloat(rect["x"])
			y, _ := toFloat(rect["y"])
			w, _ := toFloat(rect["width"])
			h, _ := toFloat(rect["height"])
			sc["rect"] = []any{x, y, w, h}
		}
		next["scene"] = sc
	}

	// Old files carry zone-less local ISO stamps; the current schema wants
	// RFC 3339.
	canonicalizeTime(next, "created_at")
	if _, ok := next["modified_at"]; !ok {
		if created, ok := next["created_at"]; ok {
			next["modified_at"] = created
		}
	}
	canonicalizeTime(next, "modified_at")
	return next
}

// legacyTimeLayouts are the timestamp shapes older documents carry. Stamps
// without a zone are read as UTC.
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// canonicalizeTime rewrites a timestamp field to RFC 3339 UTC. Values that
// do not parse are dropped; the field was write-only in old documents, so
// nothing downstream depends on a garbled one.
func canonicalizeTime(m map[string]any, key string) {
	s, ok := m[key].(string)
	if !ok {
		delete(m, key)
		return
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			m[key] = t.UTC().Format(time.RFC3339Nano)
			return
		}
	}
	delete(m, key)
}

// cloneDoc shallow-copies a document map so a migration never mutates its
// input. Nested values that a step rewrites are cloned by the step itself.
func cloneDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// convertPointField rewrites a {"x":..,"y":..} object into a two-element
// array, leaving array-form values untouched.
func convertPointField(m map[string]any, key string) {
	obj, ok := m[key].(map[string]any)
	if !ok {
		return
	}
	x, okX := toFloat(obj["x"])
	y, okY := toFloat(obj["y"])
	if okX && okY {
		m[key] = []any{x, y}
	}
}

// renameField copies a legacy key to its replacement, keeping the original.
func renameField(m map[string]any, old, new string) {
	if _, has := m[new]; has {
		return
	}
	if v, ok := m[old]; ok {
		m[new] = v
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func isDataURI(s string) bool {
	return len(s) > 5 && s[:5] == "data:"
}
