package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/geom"
	"github.com/namuan/whiteboard/pkg/imaging"
)

// testSceneConfig returns a deterministic scene configuration: a fixed
// clock stepping one second per call and sequential entity ids.
func testSceneConfig() core.SceneConfig {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	ticks := 0
	ids := 0
	return core.SceneConfig{
		Now: func() time.Time {
			ticks++
			return base.Add(time.Duration(ticks) * time.Second)
		},
		NewID: func() core.EntityID {
			ids++
			return core.EntityID(fmt.Sprintf("s-%03d", ids))
		},
	}
}

func newTestCodec() *Codec {
	return NewCodec(testSceneConfig())
}

// pngBytes encodes a small solid PNG for image fixtures.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// buildTestScene populates a scene with two connected notes, one image, and
// a group, then moves the viewport off its defaults.
func buildTestScene(t *testing.T) *core.Scene {
	t.Helper()
	scene := core.NewScene(testSceneConfig())

	a := scene.CreateNote(geom.Pt(100, 50), "alpha")
	b := scene.CreateNote(geom.Pt(300, 50), "beta")
	if _, err := scene.Connect(a.ID, b.ID); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	im, err := scene.CreateImage(pngBytes(t), "image/png", "pic.png", geom.Pt(400, 200))
	if err != nil {
		t.Fatalf("CreateImage failed: %v", err)
	}
	if _, err := scene.CreateGroup([]core.EntityID{a.ID, im.ID}); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	scene.Viewport().SetState(1.5, geom.Pt(120, -40))
	return scene
}

func TestCodecRoundTrip(t *testing.T) {
	codec := newTestCodec()
	scene := buildTestScene(t)
	createdAt := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	modifiedAt := createdAt.Add(time.Hour)

	data, err := codec.Encode(scene.Snapshot(), createdAt, modifiedAt)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	restored, doc, err := codec.DecodeDocument(context.Background(), data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	t.Run("Document Metadata", func(t *testing.T) {
		if doc.Version != FormatVersion {
			t.Errorf("version = %q, want %q", doc.Version, FormatVersion)
		}
		if !doc.CreatedAt.Equal(createdAt) {
			t.Errorf("created_at = %v, want %v", doc.CreatedAt, createdAt)
		}
		if doc.Metadata.NoteCount != 2 || doc.Metadata.ImageCount != 1 ||
			doc.Metadata.ConnectionCount != 1 || doc.Metadata.GroupCount != 1 {
			t.Errorf("metadata counts = %+v", doc.Metadata)
		}
	})

	t.Run("Notes Survive", func(t *testing.T) {
		want := scene.Snapshot().Notes
		got := restored.Snapshot().Notes
		if len(got) != len(want) {
			t.Fatalf("restored %d notes, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].ID != want[i].ID || got[i].Text != want[i].Text {
				t.Errorf("note %d = %s/%q, want %s/%q",
					i, got[i].ID, got[i].Text, want[i].ID, want[i].Text)
			}
			if got[i].Position != want[i].Position || got[i].Size != want[i].Size {
				t.Errorf("note %d geometry changed: %v/%v", i, got[i].Position, got[i].Size)
			}
			if !got[i].CreatedAt.Equal(want[i].CreatedAt) {
				t.Errorf("note %d created_at = %v, want %v", i, got[i].CreatedAt, want[i].CreatedAt)
			}
		}
	})

	t.Run("Image Survives With Bytes", func(t *testing.T) {
		got := restored.Snapshot().Images
		if len(got) != 1 {
			t.Fatalf("restored %d images, want 1", len(got))
		}
		im := got[0]
		if !bytes.Equal(im.Data, pngBytes(t)) {
			t.Error("image bytes changed in round trip")
		}
		if im.MIMEType != "image/png" || im.Filename != "pic.png" {
			t.Errorf("image identity = %s/%s", im.MIMEType, im.Filename)
		}
		if im.NaturalSize != geom.Sz(4, 4) {
			t.Errorf("natural size = %v, want 4x4", im.NaturalSize)
		}
		if im.Opacity != 1.0 {
			t.Errorf("opacity = %v, want 1", im.Opacity)
		}
	})

	t.Run("Connection Path Recomputed", func(t *testing.T) {
		conns := restored.Snapshot().Connections
		if len(conns) != 1 {
			t.Fatalf("restored %d connections, want 1", len(conns))
		}
		want := scene.Snapshot().Connections[0]
		got := conns[0]
		if got.Start != want.Start || got.End != want.End {
			t.Errorf("endpoints = %s->%s, want %s->%s", got.Start, got.End, want.Start, want.End)
		}
		if len(got.Path) != len(want.Path) {
			t.Fatalf("path has %d points, want %d", len(got.Path), len(want.Path))
		}
		for i := range want.Path {
			if got.Path[i] != want.Path[i] {
				t.Errorf("path[%d] = %v, want %v", i, got.Path[i], want.Path[i])
			}
		}
	})

	t.Run("Group Survives", func(t *testing.T) {
		groups := restored.Snapshot().Groups
		if len(groups) != 1 {
			t.Fatalf("restored %d groups, want 1", len(groups))
		}
		want := scene.Snapshot().Groups[0]
		if len(groups[0].Members) != len(want.Members) {
			t.Fatalf("group has %d members, want %d", len(groups[0].Members), len(want.Members))
		}
		if groups[0].Bounds != want.Bounds {
			t.Errorf("group bounds = %v, want %v", groups[0].Bounds, want.Bounds)
		}
	})

	t.Run("View State And Bounds Survive", func(t *testing.T) {
		if z := restored.Viewport().Zoom(); z != 1.5 {
			t.Errorf("zoom = %v, want 1.5", z)
		}
		if p := restored.Viewport().Pan(); p != geom.Pt(120, -40) {
			t.Errorf("pan = %v, want (120, -40)", p)
		}
		if restored.Bounds() != scene.Bounds() {
			t.Errorf("bounds = %v, want %v", restored.Bounds(), scene.Bounds())
		}
	})
}

func TestEncodeDeterministic(t *testing.T) {
	codec := newTestCodec()
	snap := buildTestScene(t).Snapshot()
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	first, err := codec.Encode(snap, at, at)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	second, err := codec.Encode(snap, at, at)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("encoding the same snapshot twice produced different bytes")
	}

	var doc map[string]any
	if err := json.Unmarshal(first, &doc); err != nil {
		t.Fatalf("encoded document does not parse: %v", err)
	}
	if doc["version"] != FormatVersion {
		t.Errorf("version = %v, want %s", doc["version"], FormatVersion)
	}
	img := doc["images"].([]any)[0].(map[string]any)
	if data, _ := img["data"].(string); !strings.HasPrefix(data, "data:image/png;base64,") {
		t.Error("image data is not a png data URI")
	}
}

func TestDecodeLegacyDocument(t *testing.T) {
	codec := newTestCodec()
	scene, doc, err := codec.DecodeDocument(context.Background(), []byte(legacy10))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if doc.Version != FormatVersion {
		t.Errorf("version = %q, want %q after migration", doc.Version, FormatVersion)
	}

	snap := scene.Snapshot()
	if len(snap.Notes) != 2 || len(snap.Connections) != 1 {
		t.Fatalf("restored %d notes / %d connections, want 2 / 1",
			len(snap.Notes), len(snap.Connections))
	}
	if snap.Notes[0].Position != geom.Pt(100, 50) {
		t.Errorf("note position = %v, want (100, 50)", snap.Notes[0].Position)
	}
	// 1.0 notes carry no size; the restore applies the style minimum.
	if snap.Notes[0].Size != geom.Sz(100, 60) {
		t.Errorf("note size = %v, want style minimum 100x60", snap.Notes[0].Size)
	}
	conn := snap.Connections[0]
	if conn.Start != "n1" || conn.End != "n2" {
		t.Errorf("endpoints = %s->%s, want n1->n2", conn.Start, conn.End)
	}
	if len(conn.Path) < 2 {
		t.Error("connection path was not recomputed on load")
	}
	if z := scene.Viewport().Zoom(); z != 1.5 {
		t.Errorf("zoom = %v, want 1.5", z)
	}
	if p := scene.Viewport().Pan(); p != geom.Pt(120, -40) {
		t.Errorf("pan = %v, want view center carried as (120, -40)", p)
	}
	// Notes without timestamps inherit the document creation time.
	wantCreated := time.Date(2024, 3, 1, 12, 0, 0, 500000000, time.UTC)
	if !snap.Notes[0].CreatedAt.Equal(wantCreated) {
		t.Errorf("note created_at = %v, want %v", snap.Notes[0].CreatedAt, wantCreated)
	}
}

func TestDecodeRejects(t *testing.T) {
	codec := newTestCodec()
	ctx := context.Background()

	decode := func(t *testing.T, raw string) error {
		t.Helper()
		scene, err := codec.Decode(ctx, []byte(raw))
		if err == nil {
			t.Fatal("Decode succeeded, want error")
		}
		if scene != nil {
			t.Fatal("Decode returned a scene alongside an error")
		}
		return err
	}

	t.Run("Corrupt JSON", func(t *testing.T) {
		err := decode(t, `{not json`)
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Errorf("err = %v, want SchemaError", err)
		}
	})

	t.Run("Missing Notes List", func(t *testing.T) {
		err := decode(t, `{"version": "1.2", "connections": []}`)
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) || schemaErr.Field != "notes" {
			t.Errorf("err = %v, want SchemaError on notes", err)
		}
	})

	t.Run("Notes Not A List", func(t *testing.T) {
		err := decode(t, `{"version": "1.2", "notes": {}, "connections": []}`)
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) || schemaErr.Field != "notes" {
			t.Errorf("err = %v, want SchemaError on notes", err)
		}
	})

	t.Run("Forward Incompatible Version", func(t *testing.T) {
		err := decode(t, `{"version": "9.7", "notes": [], "connections": []}`)
		var verErr *UnknownVersionError
		if !errors.As(err, &verErr) {
			t.Errorf("err = %v, want UnknownVersionError", err)
		}
	})

	t.Run("Dangling Connection Endpoint", func(t *testing.T) {
		err := decode(t, `{
			"version": "1.2",
			"notes": [{"id": "n1", "text": "solo", "position": [0, 0], "size": [100, 60]}],
			"images": [],
			"connections": [{"id": "c1", "start_id": "n1", "end_id": "ghost"}],
			"groups": []
		}`)
		var refErr *ReferenceError
		if !errors.As(err, &refErr) {
			t.Fatalf("err = %v, want ReferenceError", err)
		}
		if refErr.Ref != "ghost" {
			t.Errorf("ref = %q, want ghost", refErr.Ref)
		}
	})

	t.Run("Dangling Group Member", func(t *testing.T) {
		err := decode(t, `{
			"version": "1.2",
			"notes": [{"id": "n1", "text": "solo", "position": [0, 0], "size": [100, 60]}],
			"images": [],
			"connections": [],
			"groups": [{"id": "g1", "member_ids": ["n1", "ghost"]}]
		}`)
		var refErr *ReferenceError
		if !errors.As(err, &refErr) {
			t.Fatalf("err = %v, want ReferenceError", err)
		}
		if refErr.Ref != "ghost" {
			t.Errorf("ref = %q, want ghost", refErr.Ref)
		}
	})

	t.Run("Duplicate Entity Id", func(t *testing.T) {
		err := decode(t, `{
			"version": "1.2",
			"notes": [
				{"id": "n1", "text": "a", "position": [0, 0], "size": [100, 60]},
				{"id": "n1", "text": "b", "position": [200, 0], "size": [100, 60]}
			],
			"images": [],
			"connections": [],
			"groups": []
		}`)
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Errorf("err = %v, want SchemaError", err)
		}
	})

	t.Run("Corrupt Image Payload", func(t *testing.T) {
		err := decode(t, `{
			"version": "1.2",
			"notes": [],
			"images": [{"id": "i1", "data": "data:image/png;base64,bm90IGEgcG5n", "mime_type": "image/png", "position": [0, 0], "size": [4, 4]}],
			"connections": [],
			"groups": []
		}`)
		var corruptErr *imaging.CorruptDataError
		if !errors.As(err, &corruptErr) {
			t.Errorf("err = %v, want CorruptDataError", err)
		}
	})

	t.Run("Image Data Not A Data URI", func(t *testing.T) {
		err := decode(t, `{
			"version": "1.2",
			"notes": [],
			"images": [{"id": "i1", "data": "plainly not encoded", "mime_type": "image/png", "position": [0, 0], "size": [4, 4]}],
			"connections": [],
			"groups": []
		}`)
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Errorf("err = %v, want SchemaError", err)
		}
	})
}
