package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/geom"
)

func newTestScene() *core.Scene {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	step := 0
	ids := 0
	return core.NewScene(core.SceneConfig{
		Now: func() time.Time {
			step++
			return base.Add(time.Duration(step) * time.Second)
		},
		NewID: func() core.EntityID {
			ids++
			return core.EntityID(fmt.Sprintf("e-%03d", ids))
		},
	})
}

func redPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
		img.Pix[i+3] = 0xFF
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func rgbaAt(img image.Image, x, y int) (uint8, uint8, uint8, uint8) {
	r, g, b, a := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)
}

func TestRenderDimensionsAndColors(t *testing.T) {
	scene := newTestScene()
	n := scene.CreateNote(geom.Pt(0, 0), "hello")

	exp := NewExporter(ExporterConfig{})
	img, err := exp.Render(scene.Snapshot(), Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	wantW := int(math.Ceil(n.Size.Width + 2*DefaultPadding))
	wantH := int(math.Ceil(n.Size.Height + 2*DefaultPadding))
	if img.Bounds().Dx() != wantW || img.Bounds().Dy() != wantH {
		t.Fatalf("canvas = %dx%d, want %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), wantW, wantH)
	}

	if r, g, b, _ := rgbaAt(img, 1, 1); r != 255 || g != 255 || b != 255 {
		t.Fatalf("corner pixel = (%d,%d,%d), want white", r, g, b)
	}

	// Sample below the text block, inside the border.
	cx := int(DefaultPadding + n.Size.Width/2)
	cy := int(DefaultPadding + n.Size.Height - 15)
	if r, g, b, _ := rgbaAt(img, cx, cy); r != 255 || g != 255 || b != 200 {
		t.Fatalf("note fill = (%d,%d,%d), want (255,255,200)", r, g, b)
	}
}

func TestRenderDrawsConnection(t *testing.T) {
	scene := newTestScene()
	a := scene.CreateNote(geom.Pt(0, 0), "a")
	b := scene.CreateNote(geom.Pt(400, 0), "b")
	if _, err := scene.Connect(a.ID, b.ID); err != nil {
		t.Fatalf("connect: %v", err)
	}

	exp := NewExporter(ExporterConfig{})
	img, err := exp.Render(scene.Snapshot(), Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	// The corridor between the notes must contain ink from the line or its
	// arrowhead.
	left := int(DefaultPadding + a.Size.Width + 2)
	right := int(DefaultPadding + 400 - 2)
	found := false
	for x := left; x < right && !found; x++ {
		for y := 0; y < img.Bounds().Dy(); y++ {
			if r, g, bl, _ := rgbaAt(img, x, y); r != 255 || g != 255 || bl != 255 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatal("no connection pixels between the notes")
	}
}

func TestRenderScaleOption(t *testing.T) {
	scene := newTestScene()
	n := scene.CreateNote(geom.Pt(0, 0), "scaled")

	exp := NewExporter(ExporterConfig{})
	img, err := exp.Render(scene.Snapshot(), Options{Scale: 2})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	wantW := int(math.Ceil((n.Size.Width + 2*DefaultPadding) * 2))
	if img.Bounds().Dx() != wantW {
		t.Fatalf("width = %d, want %d", img.Bounds().Dx(), wantW)
	}
}

func TestRenderClampsOversizedCanvas(t *testing.T) {
	scene := newTestScene()
	scene.CreateNote(geom.Pt(0, 0), "west")
	b := scene.CreateNote(geom.Pt(100, 0), "east")
	// Content plus padding spans exactly 16384 units, twice the cap.
	bx := 16384 - 2*DefaultPadding - b.Size.Width
	if err := scene.MoveEntity(b.ID, geom.Pt(bx, 0)); err != nil {
		t.Fatalf("move: %v", err)
	}

	exp := NewExporter(ExporterConfig{})
	img, err := exp.Render(scene.Snapshot(), Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if img.Bounds().Dx() != maxOutputDimension {
		t.Fatalf("width = %d, want %d", img.Bounds().Dx(), maxOutputDimension)
	}
	wantH := int(math.Ceil((b.Size.Height + 2*DefaultPadding) * 0.5))
	if img.Bounds().Dy() != wantH {
		t.Fatalf("height = %d, want %d", img.Bounds().Dy(), wantH)
	}
}

func TestRenderImage(t *testing.T) {
	scene := newTestScene()
	scene.CreateNote(geom.Pt(0, 0), "anchor")
	im, err := scene.CreateImage(redPNG(t), "image/png", "red.png", geom.Pt(300, 0))
	if err != nil {
		t.Fatalf("create image: %v", err)
	}

	exp := NewExporter(ExporterConfig{})
	img, renderErr := exp.Render(scene.Snapshot(), Options{})
	if renderErr != nil {
		t.Fatalf("render: %v", renderErr)
	}

	cx := int(DefaultPadding + 300 + im.Size.Width/2)
	cy := int(DefaultPadding + im.Size.Height/2)
	r, g, b, _ := rgbaAt(img, cx, cy)
	if r != 255 || g != 0 || b != 0 {
		t.Fatalf("image pixel = (%d,%d,%d), want (255,0,0)", r, g, b)
	}
}

func TestRenderPlaceholderForCorruptImage(t *testing.T) {
	snap := &core.Snapshot{
		Images: []*core.Image{{
			ID:       "im-broken",
			Data:     []byte("not an image"),
			MIMEType: "image/png",
			Position: geom.Pt(0, 0),
			Size:     geom.Sz(100, 80),
			Opacity:  1.0,
		}},
	}

	exp := NewExporter(ExporterConfig{})
	img, err := exp.Render(snap, Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	cx := int(DefaultPadding + 50)
	cy := int(DefaultPadding + 40)
	if r, g, b, _ := rgbaAt(img, cx, cy); r != 238 || g != 238 || b != 238 {
		t.Fatalf("placeholder fill = (%d,%d,%d), want (238,238,238)", r, g, b)
	}
}

func TestRenderEmptySceneFails(t *testing.T) {
	exp := NewExporter(ExporterConfig{})
	if _, err := exp.Render(&core.Snapshot{}, Options{}); !errors.Is(err, ErrEmptyScene) {
		t.Fatalf("err = %v, want ErrEmptyScene", err)
	}
}

func TestEncodePNG(t *testing.T) {
	scene := newTestScene()
	scene.CreateNote(geom.Pt(0, 0), "encode me")

	exp := NewExporter(ExporterConfig{})
	var buf bytes.Buffer
	if err := exp.EncodePNG(&buf, scene.Snapshot(), Options{}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds().Dx() == 0 || decoded.Bounds().Dy() == 0 {
		t.Fatal("decoded image is empty")
	}
}
