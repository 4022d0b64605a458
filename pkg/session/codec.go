package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/geom"
	"github.com/namuan/whiteboard/pkg/imaging"
)

// decodeConcurrency bounds the number of image payloads validated in
// parallel during a load.
const decodeConcurrency = 4

// Codec translates between scenes and versioned session documents.
type Codec struct {
	// SceneCfg configures scenes built by Decode (styles, group minimum,
	// logger, clock).
	SceneCfg core.SceneConfig

	Logger *slog.Logger
}

// NewCodec returns a codec building scenes with the given configuration.
func NewCodec(cfg core.SceneConfig) *Codec {
	return &Codec{SceneCfg: cfg, Logger: cfg.Logger}
}

// Encode serializes a scene snapshot into a session document at the current
// format version.
func (c *Codec) Encode(snap *core.Snapshot, createdAt, modifiedAt time.Time) ([]byte, error) {
	doc := Document{
		Version:    FormatVersion,
		CreatedAt:  createdAt,
		ModifiedAt: modifiedAt,
		Scene: SceneRecord{
			Rect: [4]float64{snap.Bounds.X, snap.Bounds.Y, snap.Bounds.Width, snap.Bounds.Height},
		},
		Canvas: CanvasStateRecord{
			ZoomFactor: snap.Zoom,
			PanOffset:  [2]float64{snap.Pan.X, snap.Pan.Y},
		},
		Notes:  make([]NoteRecord, 0, len(snap.Notes)),
		Images: make([]ImageRecord, 0, len(snap.Images)),
		Conns:  make([]ConnectionRecord, 0, len(snap.Connections)),
		Groups: make([]GroupRecord, 0, len(snap.Groups)),
		Metadata: MetadataRecord{
			NoteCount:       len(snap.Notes),
			ImageCount:      len(snap.Images),
			ConnectionCount: len(snap.Connections),
			GroupCount:      len(snap.Groups),
		},
	}

	for _, n := range snap.Notes {
		doc.Notes = append(doc.Notes, NoteRecord{
			ID:         string(n.ID),
			Text:       n.Text,
			Position:   [2]float64{n.Position.X, n.Position.Y},
			Size:       [2]float64{n.Size.Width, n.Size.Height},
			Style:      n.Style,
			CreatedAt:  n.CreatedAt,
			ModifiedAt: n.ModifiedAt,
		})
	}
	for _, im := range snap.Images {
		doc.Images = append(doc.Images, ImageRecord{
			ID:         string(im.ID),
			Data:       encodeDataURI(im.Data, im.MIMEType),
			Filename:   im.Filename,
			MIMEType:   im.MIMEType,
			Position:   [2]float64{im.Position.X, im.Position.Y},
			Size:       [2]float64{im.Size.Width, im.Size.Height},
			Rotation:   im.Rotation,
			Opacity:    im.Opacity,
			Style:      im.Style,
			CreatedAt:  im.CreatedAt,
			ModifiedAt: im.ModifiedAt,
		})
	}
	for _, conn := range snap.Connections {
		doc.Conns = append(doc.Conns, ConnectionRecord{
			ID:        string(conn.ID),
			StartID:   string(conn.Start),
			EndID:     string(conn.End),
			Style:     conn.Style,
			CreatedAt: conn.CreatedAt,
		})
	}
	for _, g := range snap.Groups {
		members := make([]string, len(g.Members))
		for i, m := range g.Members {
			members[i] = string(m)
		}
		doc.Groups = append(doc.Groups, GroupRecord{
			ID:        string(g.ID),
			MemberIDs: members,
			Style:     g.Style,
			CreatedAt: g.CreatedAt,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// Decode parses, migrates, validates, and rebuilds a scene from session
// bytes. A corrupt document is rejected wholesale; on any error no scene is
// returned. Image payloads are re-validated concurrently, bounded by
// decodeConcurrency; ctx cancels the validation.
func (c *Codec) Decode(ctx context.Context, data []byte) (*core.Scene, error) {
	scene, _, err := c.DecodeDocument(ctx, data)
	return scene, err
}

// DecodeDocument is Decode plus the migrated document itself, for callers
// that need file-level metadata such as the creation timestamp.
func (c *Codec) DecodeDocument(ctx context.Context, data []byte) (*core.Scene, *Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &SchemaError{Field: "document", Err: err}
	}
	if err := validateRequired(raw); err != nil {
		return nil, nil, err
	}

	migrated, err := Migrate(raw)
	if err != nil {
		return nil, nil, err
	}

	// Round-trip the migrated map through JSON into the typed document.
	buf, err := json.Marshal(migrated)
	if err != nil {
		return nil, nil, &SchemaError{Field: "document", Err: err}
	}
	var doc Document
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, nil, &SchemaError{Field: "document", Err: err}
	}

	scene, err := c.build(ctx, &doc)
	if err != nil {
		return nil, nil, err
	}
	return scene, &doc, nil
}

// validateRequired checks the top-level fields every known version carries.
func validateRequired(raw map[string]any) error {
	if _, ok := raw["version"].(string); !ok {
		return &SchemaError{Field: "version"}
	}
	for _, field := range []string{"notes", "connections"} {
		if v, ok := raw[field]; ok {
			if _, isList := v.([]any); !isList {
				return &SchemaError{Field: field, Err: fmt.Errorf("not a list")}
			}
		} else {
			return &SchemaError{Field: field}
		}
	}
	return nil
}

// build assembles a fresh scene from a current-version document.
func (c *Codec) build(ctx context.Context, doc *Document) (*core.Scene, error) {
	scene := core.NewScene(c.SceneCfg)

	live := make(map[string]bool, len(doc.Notes)+len(doc.Images))

	for i, rec := range doc.Notes {
		if rec.ID == "" {
			return nil, &SchemaError{Field: fmt.Sprintf("notes[%d].id", i)}
		}
		n := &core.Note{
			ID:         core.EntityID(rec.ID),
			Text:       rec.Text,
			Position:   geom.Pt(rec.Position[0], rec.Position[1]),
			Size:       geom.Sz(rec.Size[0], rec.Size[1]),
			Style:      core.Style(rec.Style),
			CreatedAt:  orTime(rec.CreatedAt, doc.CreatedAt),
			ModifiedAt: orTime(rec.ModifiedAt, doc.CreatedAt),
		}
		if n.Style == nil {
			n.Style = core.DefaultNoteStyle()
		}
		if err := scene.AddNote(n); err != nil {
			return nil, &SchemaError{Field: fmt.Sprintf("notes[%d]", i), Err: err}
		}
		live[rec.ID] = true
	}

	images, err := c.decodeImages(ctx, doc)
	if err != nil {
		return nil, err
	}
	for i, im := range images {
		if err := scene.AddImage(im); err != nil {
			return nil, &SchemaError{Field: fmt.Sprintf("images[%d]", i), Err: err}
		}
		live[string(im.ID)] = true
	}

	for i, rec := range doc.Conns {
		if rec.ID == "" {
			return nil, &SchemaError{Field: fmt.Sprintf("connections[%d].id", i)}
		}
		if !live[rec.StartID] {
			return nil, &ReferenceError{Referrer: "connection " + rec.ID, Ref: rec.StartID}
		}
		if !live[rec.EndID] {
			return nil, &ReferenceError{Referrer: "connection " + rec.ID, Ref: rec.EndID}
		}
		conn := &core.Connection{
			ID:         core.EntityID(rec.ID),
			Start:      core.EntityID(rec.StartID),
			End:        core.EntityID(rec.EndID),
			Style:      core.Style(rec.Style),
			CreatedAt:  orTime(rec.CreatedAt, doc.CreatedAt),
			ModifiedAt: orTime(rec.CreatedAt, doc.CreatedAt),
		}
		if conn.Style == nil {
			conn.Style = core.DefaultConnectionStyle()
		}
		if err := scene.AddConnection(conn); err != nil {
			return nil, &SchemaError{Field: fmt.Sprintf("connections[%d]", i), Err: err}
		}
	}

	for i, rec := range doc.Groups {
		if rec.ID == "" {
			return nil, &SchemaError{Field: fmt.Sprintf("groups[%d].id", i)}
		}
		members := make([]core.EntityID, len(rec.MemberIDs))
		for j, m := range rec.MemberIDs {
			if !live[m] {
				return nil, &ReferenceError{Referrer: "group " + rec.ID, Ref: m}
			}
			members[j] = core.EntityID(m)
		}
		g := &core.Group{
			ID:         core.EntityID(rec.ID),
			Members:    members,
			Style:      core.Style(rec.Style),
			CreatedAt:  orTime(rec.CreatedAt, doc.CreatedAt),
			ModifiedAt: orTime(rec.CreatedAt, doc.CreatedAt),
		}
		if g.Style == nil {
			g.Style = core.DefaultGroupStyle()
		}
		if err := scene.AddGroup(g); err != nil {
			return nil, &SchemaError{Field: fmt.Sprintf("groups[%d]", i), Err: err}
		}
	}

	if r := doc.Scene.Rect; r[2] > 0 && r[3] > 0 {
		scene.SetBounds(geom.R(r[0], r[1], r[2], r[3]))
	}
	zoom := doc.Canvas.ZoomFactor
	if zoom == 0 {
		zoom = 1.0
	}
	scene.Viewport().SetState(zoom, geom.Pt(doc.Canvas.PanOffset[0], doc.Canvas.PanOffset[1]))

	// Connection paths are derived state; rebuild them from the restored
	// geometry.
	scene.RerouteAll()

	if c.Logger != nil {
		c.Logger.Debug("session decoded",
			"notes", len(doc.Notes), "images", len(doc.Images),
			"connections", len(doc.Conns), "groups", len(doc.Groups))
	}
	return scene, nil
}

// decodeImages validates every image payload against its declared MIME type,
// in parallel. Order of the result matches the document.
func (c *Codec) decodeImages(ctx context.Context, doc *Document) ([]*core.Image, error) {
	images := make([]*core.Image, len(doc.Images))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(decodeConcurrency)

	for i, rec := range doc.Images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if rec.ID == "" {
				return &SchemaError{Field: fmt.Sprintf("images[%d].id", i)}
			}
			mime, payload, err := decodeDataURI(rec.Data)
			if err != nil {
				return &SchemaError{Field: fmt.Sprintf("images[%d].data", i), Err: err}
			}
			if rec.MIMEType != "" {
				mime = rec.MIMEType
			}
			info, err := imaging.Decode(payload, mime)
			if err != nil {
				return fmt.Errorf("images[%d]: %w", i, err)
			}
			size := geom.Sz(rec.Size[0], rec.Size[1])
			if size.IsEmpty() {
				size = geom.Sz(float64(info.Width), float64(info.Height))
			}
			opacity := rec.Opacity
			if opacity == 0 {
				opacity = 1.0
			}
			images[i] = &core.Image{
				ID:          core.EntityID(rec.ID),
				Data:        payload,
				MIMEType:    mime,
				Filename:    rec.Filename,
				Position:    geom.Pt(rec.Position[0], rec.Position[1]),
				Size:        size,
				NaturalSize: geom.Sz(float64(info.Width), float64(info.Height)),
				Rotation:    rec.Rotation,
				Opacity:     opacity,
				Style:       core.Style(rec.Style),
				CreatedAt:   orTime(rec.CreatedAt, doc.CreatedAt),
				ModifiedAt:  orTime(rec.ModifiedAt, doc.CreatedAt),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func orTime(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}

// LoadFile reads, migrates, and decodes the session file at path into a
// fresh scene. The returned document carries file-level metadata such as
// the creation timestamp, preserved across subsequent saves.
func LoadFile(ctx context.Context, codec *Codec, path string) (*core.Scene, *Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read session: %w", err)
	}
	scene, doc, err := codec.DecodeDocument(ctx, data)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	return scene, doc, nil
}
