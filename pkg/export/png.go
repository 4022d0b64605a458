// Package export renders scene snapshots to PNG images. Rendering works
// from a Snapshot, never the live scene, so it can run off the mutation
// goroutine.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/geom"
	"github.com/namuan/whiteboard/pkg/imaging"
)

const (
	// DefaultScale is the number of output pixels per scene unit.
	DefaultScale = 1.0

	// DefaultPadding is the margin kept around the content, in scene units.
	DefaultPadding = 40.0

	// maxOutputDimension caps either axis of the output image. Renders that
	// would exceed it are scaled down to fit.
	maxOutputDimension = 8192

	lineSpacing = 1.3
)

// ErrEmptyScene reports an export of a snapshot with no entities.
var ErrEmptyScene = errors.New("export: scene has no entities")

// Options control one render.
type Options struct {
	// Scale is the number of output pixels per scene unit. Zero or negative
	// selects DefaultScale.
	Scale float64

	// Padding is the margin around the content in scene units. Zero or
	// negative selects DefaultPadding.
	Padding float64
}

// ExporterConfig configures an Exporter.
type ExporterConfig struct {
	Logger *slog.Logger
}

// Exporter renders snapshots to images. The parsed fonts are shared across
// renders; faces are built per render because they cache glyphs without
// locking. An Exporter is safe for concurrent use.
type Exporter struct {
	logger *slog.Logger

	mu    sync.Mutex
	fonts [4]*truetype.Font
}

type faceKey struct {
	size   float64
	bold   bool
	italic bool
}

// NewExporter creates an exporter with an empty font cache.
func NewExporter(config ExporterConfig) *Exporter {
	return &Exporter{logger: config.Logger}
}

// Render draws the snapshot onto a white canvas sized to the content plus
// padding. Groups are drawn behind connections, connections behind images,
// images behind notes.
func (e *Exporter) Render(snap *core.Snapshot, opts Options) (image.Image, error) {
	if snap.EntityCount() == 0 {
		return nil, ErrEmptyScene
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}

	content := renderBounds(snap)
	w := content.Width + 2*padding
	h := content.Height + 2*padding
	if m := math.Max(w, h) * scale; m > maxOutputDimension {
		scale *= maxOutputDimension / m
	}
	pxW := int(math.Ceil(w * scale))
	pxH := int(math.Ceil(h * scale))
	if pxW < 1 {
		pxW = 1
	}
	if pxH < 1 {
		pxH = 1
	}

	dc := gg.NewContext(pxW, pxH)
	dc.SetColor(color.White)
	dc.Clear()

	r := &renderer{
		exp:    e,
		dc:     dc,
		scale:  scale,
		origin: geom.Pt(content.X-padding, content.Y-padding),
		faces:  make(map[faceKey]font.Face),
	}
	for _, g := range snap.Groups {
		r.drawGroup(g)
	}
	for _, c := range snap.Connections {
		r.drawConnection(c)
	}
	for _, im := range snap.Images {
		if err := r.drawImage(im); err != nil {
			return nil, err
		}
	}
	for _, n := range snap.Notes {
		if err := r.drawNote(n); err != nil {
			return nil, err
		}
	}
	if e.logger != nil {
		e.logger.Debug("snapshot rendered",
			"width", pxW, "height", pxH, "entities", snap.EntityCount())
	}
	return dc.Image(), nil
}

// EncodePNG renders the snapshot and writes it as PNG.
func (e *Exporter) EncodePNG(w io.Writer, snap *core.Snapshot, opts Options) error {
	img, err := e.Render(snap, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// WriteFile renders the snapshot into a PNG file.
func (e *Exporter) WriteFile(path string, snap *core.Snapshot, opts Options) error {
	var buf bytes.Buffer
	if err := e.EncodePNG(&buf, snap, opts); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// renderBounds is the content extent plus rotated image overhang and
// connection paths.
func renderBounds(snap *core.Snapshot) geom.Rect {
	b := snap.ContentBounds()
	for _, im := range snap.Images {
		b = b.Union(geom.RotatedBounds(im.Bounds(), im.Rotation))
	}
	minX, minY := b.X, b.Y
	maxX, maxY := b.Right(), b.Bottom()
	for _, c := range snap.Connections {
		for _, p := range c.Path {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	return geom.R(minX, minY, maxX-minX, maxY-minY)
}

type renderer struct {
	exp    *Exporter
	dc     *gg.Context
	scale  float64
	origin geom.Point
	faces  map[faceKey]font.Face
}

func (r *renderer) at(p geom.Point) (float64, float64) {
	return (p.X - r.origin.X) * r.scale, (p.Y - r.origin.Y) * r.scale
}

func (r *renderer) drawGroup(g *core.Group) {
	x, y := r.at(geom.Pt(g.Bounds.X, g.Bounds.Y))
	w := g.Bounds.Width * r.scale
	h := g.Bounds.Height * r.scale

	dc := r.dc
	dc.DrawRectangle(x, y, w, h)
	dc.SetHexColor(g.Style.String("fill_color", "#6496C814"))
	dc.FillPreserve()
	dc.SetHexColor(g.Style.String("border_color", "#6496C8"))
	dc.SetLineWidth(g.Style.Float("border_width", 1) * r.scale)
	dc.SetDash(6*r.scale, 4*r.scale)
	dc.Stroke()
	dc.SetDash()
}

func (r *renderer) drawConnection(c *core.Connection) {
	if len(c.Path) < 2 {
		return
	}
	dc := r.dc
	dc.SetHexColor(c.Style.String("line_color", "#646464"))
	dc.SetLineWidth(c.Style.Float("line_width", 2) * r.scale)
	x0, y0 := r.at(c.Path[0])
	dc.MoveTo(x0, y0)
	for _, p := range c.Path[1:] {
		x, y := r.at(p)
		dc.LineTo(x, y)
	}
	dc.Stroke()

	if c.Style.Bool("show_arrow", true) {
		r.drawArrowhead(c)
	}
}

// drawArrowhead fills a triangle at the end of the path, oriented along the
// final segment.
func (r *renderer) drawArrowhead(c *core.Connection) {
	tip := c.Path[len(c.Path)-1]
	prev := c.Path[len(c.Path)-2]
	dx := tip.X - prev.X
	dy := tip.Y - prev.Y
	if dx == 0 && dy == 0 {
		return
	}
	angle := math.Atan2(dy, dx)
	size := c.Style.Float("arrow_size", 12) * r.scale
	half := gg.Radians(c.Style.Float("arrow_angle", 30))

	tx, ty := r.at(tip)
	dc := r.dc
	dc.MoveTo(tx, ty)
	dc.LineTo(tx-size*math.Cos(angle-half), ty-size*math.Sin(angle-half))
	dc.LineTo(tx-size*math.Cos(angle+half), ty-size*math.Sin(angle+half))
	dc.ClosePath()
	dc.SetHexColor(c.Style.String("line_color", "#646464"))
	dc.Fill()
}

func (r *renderer) drawNote(n *core.Note) error {
	x, y := r.at(n.Position)
	w := n.Size.Width * r.scale
	h := n.Size.Height * r.scale
	radius := n.Style.Float("corner_radius", 8) * r.scale

	dc := r.dc
	dc.DrawRoundedRectangle(x, y, w, h, radius)
	dc.SetHexColor(n.Style.String("background_color", "#FFFFC8"))
	dc.FillPreserve()
	dc.SetHexColor(n.Style.String("border_color", "#C8C896"))
	dc.SetLineWidth(n.Style.Float("border_width", 2) * r.scale)
	dc.Stroke()

	if n.Text == "" {
		return nil
	}
	face, err := r.face(
		n.Style.Float("font_size", 12)*r.scale,
		n.Style.Bool("font_bold", false),
		n.Style.Bool("font_italic", false),
	)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetHexColor(n.Style.String("text_color", "#000000"))
	pad := n.Style.Float("padding", 10) * r.scale
	dc.DrawRoundedRectangle(x, y, w, h, radius)
	dc.Clip()
	dc.DrawStringWrapped(n.Text, x+pad, y+pad, 0, 0, w-2*pad, lineSpacing, gg.AlignLeft)
	dc.ResetClip()
	return nil
}

func (r *renderer) drawImage(im *core.Image) error {
	src, err := imaging.Rasterize(im.Data, im.MIMEType)
	if err != nil {
		if r.exp.logger != nil {
			r.exp.logger.Warn("image not renderable, drawing placeholder",
				"id", im.ID, "error", err)
		}
		return r.drawPlaceholder(im)
	}
	if im.Opacity < 1 {
		src = withOpacity(src, im.Opacity)
	}
	b := src.Bounds()
	natW := float64(b.Dx())
	natH := float64(b.Dy())
	if natW == 0 || natH == 0 {
		return nil
	}

	x, y := r.at(im.Position)
	w := im.Size.Width * r.scale
	h := im.Size.Height * r.scale

	dc := r.dc
	dc.Push()
	if im.Rotation != 0 {
		dc.RotateAbout(gg.Radians(im.Rotation), x+w/2, y+h/2)
	}
	dc.Translate(x, y)
	dc.Scale(w/natW, h/natH)
	dc.DrawImage(src, 0, 0)
	dc.Pop()
	return nil
}

// drawPlaceholder stands in for an image whose bytes cannot be rasterized.
func (r *renderer) drawPlaceholder(im *core.Image) error {
	x, y := r.at(im.Position)
	w := im.Size.Width * r.scale
	h := im.Size.Height * r.scale

	dc := r.dc
	dc.DrawRectangle(x, y, w, h)
	dc.SetHexColor("#EEEEEE")
	dc.FillPreserve()
	dc.SetHexColor("#999999")
	dc.SetLineWidth(r.scale)
	dc.Stroke()

	if im.Filename == "" {
		return nil
	}
	face, err := r.face(11*r.scale, false, false)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetHexColor("#666666")
	dc.DrawStringAnchored(im.Filename, x+w/2, y+h/2, 0.5, 0.5)
	return nil
}

// withOpacity multiplies the image's alpha channel by opacity.
func withOpacity(src image.Image, opacity float64) image.Image {
	b := src.Bounds()
	out := image.NewRGBA(b)
	a := uint8(math.Round(geom.Clamp(opacity, 0, 1) * 255))
	mask := image.NewUniform(color.Alpha{A: a})
	draw.DrawMask(out, b, src, b.Min, mask, image.Point{}, draw.Over)
	return out
}

func (r *renderer) face(size float64, bold, italic bool) (font.Face, error) {
	key := faceKey{size: size, bold: bold, italic: italic}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	ttf, err := r.exp.variant(bold, italic)
	if err != nil {
		return nil, err
	}
	f := truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	r.faces[key] = f
	return f, nil
}

// variant parses and caches one of the four embedded Go font variants.
func (e *Exporter) variant(bold, italic bool) (*truetype.Font, error) {
	idx := 0
	var data []byte
	switch {
	case bold && italic:
		idx, data = 3, gobolditalic.TTF
	case bold:
		idx, data = 1, gobold.TTF
	case italic:
		idx, data = 2, goitalic.TTF
	default:
		data = goregular.TTF
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fonts[idx] != nil {
		return e.fonts[idx], nil
	}
	ttf, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	e.fonts[idx] = ttf
	return ttf, nil
}
