package imaging

import (
	"bytes"
	"image"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// defaultSVGSize is the raster size used when an SVG declares no usable
// viewBox. The choice is fixed rather than density-dependent so rasterization
// is reproducible.
const defaultSVGSize = 512

// svgSize returns the raster dimensions for an icon, falling back to the
// default square when the intrinsic size is missing or out of range.
func svgSize(icon *oksvg.SvgIcon) (int, int) {
	w := int(icon.ViewBox.W)
	h := int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		return defaultSVGSize, defaultSVGSize
	}
	return w, h
}

// decodeSVGInfo parses an SVG document and reports its raster dimensions
// without rendering it.
func decodeSVGInfo(data []byte, mimeType string) (Info, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return Info{}, &CorruptDataError{MIMEType: mimeType, Err: err}
	}
	w, h := svgSize(icon)
	if w > MaxDimension || h > MaxDimension {
		return Info{}, &OversizedError{Width: w, Height: h}
	}
	return Info{Width: w, Height: h, Format: "svg"}, nil
}

// rasterizeSVG renders an SVG document into an RGBA raster at its intrinsic
// size.
func rasterizeSVG(data []byte, mimeType string) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, &CorruptDataError{MIMEType: mimeType, Err: err}
	}
	w, h := svgSize(icon)
	if w > MaxDimension || h > MaxDimension {
		return nil, &OversizedError{Width: w, Height: h}
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return rgba, nil
}
