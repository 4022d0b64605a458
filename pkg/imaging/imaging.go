// Package imaging validates and decodes the image payloads placed on the
// whiteboard. It enforces the supported-format set and the dimension and
// byte-size limits at creation time, so the scene never holds an image it
// cannot render.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Raster decoders register themselves with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// Hard limits applied at decode time.
const (
	// MaxDimension is the largest width or height, in pixels, accepted for a
	// decoded image.
	MaxDimension = 4096

	// MaxEncodedBytes is the largest encoded payload accepted.
	MaxEncodedBytes = 10 << 20 // 10 MiB
)

// Info describes a successfully validated image.
type Info struct {
	Width  int
	Height int
	Format string // normalized format name: png, jpeg, gif, bmp, svg
}

// UnsupportedFormatError reports a declared MIME type outside the supported
// set.
type UnsupportedFormatError struct {
	MIMEType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported image format %q", e.MIMEType)
}

// OversizedError reports an image exceeding the dimension or byte limits.
type OversizedError struct {
	Width  int
	Height int
	Bytes  int
}

func (e *OversizedError) Error() string {
	if e.Bytes > 0 {
		return fmt.Sprintf("image payload of %d bytes exceeds the %d byte limit", e.Bytes, MaxEncodedBytes)
	}
	return fmt.Sprintf("image dimensions %dx%d exceed the %dx%d limit", e.Width, e.Height, MaxDimension, MaxDimension)
}

// CorruptDataError reports bytes that fail to decode as their declared type.
type CorruptDataError struct {
	MIMEType string
	Err      error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt %s data: %v", e.MIMEType, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }

// formats maps normalized MIME types to the format name the std decoder
// reports. SVG is handled separately.
var formats = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpeg",
	"image/jpg":     "jpeg",
	"image/gif":     "gif",
	"image/bmp":     "bmp",
	"image/x-bmp":   "bmp",
	"image/svg+xml": "svg",
}

// extensions maps lowercase file extensions to MIME types, for callers that
// only have a filename.
var extensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
}

// NormalizeMIMEType lowercases a declared MIME type and strips any
// parameters.
func NormalizeMIMEType(mimeType string) string {
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

// MIMETypeForFilename returns the MIME type implied by a filename's
// extension, or "" when the extension is not a supported image type.
func MIMETypeForFilename(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return extensions[strings.ToLower(name[i:])]
}

// Supported reports whether the declared MIME type is in the supported set.
func Supported(mimeType string) bool {
	_, ok := formats[NormalizeMIMEType(mimeType)]
	return ok
}

// Decode validates an encoded image against its declared MIME type and
// returns its dimensions. It fails with UnsupportedFormatError for a type
// outside the supported set, OversizedError when the payload or the decoded
// dimensions exceed the limits, and CorruptDataError when the bytes do not
// decode as the declared type. For animated GIFs only the first frame is
// considered.
func Decode(data []byte, mimeType string) (Info, error) {
	mt := NormalizeMIMEType(mimeType)
	want, ok := formats[mt]
	if !ok {
		return Info{}, &UnsupportedFormatError{MIMEType: mimeType}
	}
	if len(data) > MaxEncodedBytes {
		return Info{}, &OversizedError{Bytes: len(data)}
	}

	if want == "svg" {
		return decodeSVGInfo(data, mt)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, &CorruptDataError{MIMEType: mt, Err: err}
	}
	if format != want {
		return Info{}, &CorruptDataError{
			MIMEType: mt,
			Err:      fmt.Errorf("payload decodes as %s", format),
		}
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return Info{}, &OversizedError{Width: cfg.Width, Height: cfg.Height}
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Rasterize fully decodes an image for rendering. SVG payloads are rasterized
// at their intrinsic size; animated GIFs yield their first frame.
func Rasterize(data []byte, mimeType string) (image.Image, error) {
	mt := NormalizeMIMEType(mimeType)
	want, ok := formats[mt]
	if !ok {
		return nil, &UnsupportedFormatError{MIMEType: mimeType}
	}
	if want == "svg" {
		return rasterizeSVG(data, mt)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &CorruptDataError{MIMEType: mt, Err: err}
	}
	if format != want {
		return nil, &CorruptDataError{
			MIMEType: mt,
			Err:      fmt.Errorf("payload decodes as %s", format),
		}
	}
	return img, nil
}
