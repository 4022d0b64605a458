package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

// encode renders a w x h test raster in the given format.
func encode(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	default:
		t.Fatalf("unknown format %q", format)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 32">
  <rect x="4" y="4" width="56" height="24" fill="#ffc" stroke="#cc9"/>
</svg>`

func TestDecodeSupportedFormats(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		data     []byte
		w, h     int
	}{
		{"png", "image/png", encode(t, "png", 12, 8), 12, 8},
		{"jpeg", "image/jpeg", encode(t, "jpeg", 20, 10), 20, 10},
		{"jpeg alias", "image/jpg", encode(t, "jpeg", 20, 10), 20, 10},
		{"gif", "image/gif", encode(t, "gif", 5, 7), 5, 7},
		{"bmp", "image/bmp", encode(t, "bmp", 9, 3), 9, 3},
		{"svg", "image/svg+xml", []byte(testSVG), 64, 32},
		{"mime with parameters", "image/svg+xml; charset=utf-8", []byte(testSVG), 64, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Decode(tt.data, tt.mimeType)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if info.Width != tt.w || info.Height != tt.h {
				t.Errorf("dimensions = %dx%d, want %dx%d", info.Width, info.Height, tt.w, tt.h)
			}
		})
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	_, err := Decode([]byte("%PDF-1.4"), "application/pdf")
	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("Decode = %v, want UnsupportedFormatError", err)
	}
	if ufe.MIMEType != "application/pdf" {
		t.Errorf("MIMEType = %q, want application/pdf", ufe.MIMEType)
	}
}

func TestDecodeCorruptData(t *testing.T) {
	_, err := Decode([]byte("definitely not a png"), "image/png")
	var cde *CorruptDataError
	if !errors.As(err, &cde) {
		t.Fatalf("Decode = %v, want CorruptDataError", err)
	}
}

func TestDecodeMismatchedDeclaredType(t *testing.T) {
	// Valid GIF bytes declared as PNG must be rejected, not silently accepted.
	data := encode(t, "gif", 4, 4)
	_, err := Decode(data, "image/png")
	var cde *CorruptDataError
	if !errors.As(err, &cde) {
		t.Fatalf("Decode = %v, want CorruptDataError", err)
	}
}

func TestDecodeOversizedDimensions(t *testing.T) {
	data := encode(t, "png", MaxDimension+1, 1)
	_, err := Decode(data, "image/png")
	var ose *OversizedError
	if !errors.As(err, &ose) {
		t.Fatalf("Decode = %v, want OversizedError", err)
	}
	if ose.Width != MaxDimension+1 {
		t.Errorf("Width = %d, want %d", ose.Width, MaxDimension+1)
	}
}

func TestDecodeOversizedPayload(t *testing.T) {
	// The byte limit applies before any decoding happens.
	blob := make([]byte, MaxEncodedBytes+1)
	_, err := Decode(blob, "image/png")
	var ose *OversizedError
	if !errors.As(err, &ose) {
		t.Fatalf("Decode = %v, want OversizedError", err)
	}
	if ose.Bytes != MaxEncodedBytes+1 {
		t.Errorf("Bytes = %d, want %d", ose.Bytes, MaxEncodedBytes+1)
	}
}

func TestDecodeSVGWithoutViewBox(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><circle cx="5" cy="5" r="3"/></svg>`)
	info, err := Decode(svg, "image/svg+xml")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.Width != defaultSVGSize || info.Height != defaultSVGSize {
		t.Errorf("fallback size = %dx%d, want %dx%d",
			info.Width, info.Height, defaultSVGSize, defaultSVGSize)
	}
}

func TestRasterize(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		data     []byte
		w, h     int
	}{
		{"png", "image/png", encode(t, "png", 16, 16), 16, 16},
		{"svg", "image/svg+xml", []byte(testSVG), 64, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Rasterize(tt.data, tt.mimeType)
			if err != nil {
				t.Fatalf("Rasterize: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tt.w || b.Dy() != tt.h {
				t.Errorf("raster = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.w, tt.h)
			}
		})
	}
}

func TestMIMETypeForFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"diagram.png", "image/png"},
		{"photo.JPG", "image/jpeg"},
		{"anim.gif", "image/gif"},
		{"scan.bmp", "image/bmp"},
		{"icon.svg", "image/svg+xml"},
		{"doc.pdf", ""},
		{"noextension", ""},
	}
	for _, tt := range tests {
		if got := MIMETypeForFilename(tt.name); got != tt.want {
			t.Errorf("MIMETypeForFilename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
