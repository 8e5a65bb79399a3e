package imageprocessing

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUndecodable is returned when uploaded bytes are not an image this service can read.
var ErrUndecodable = errors.New("unsupported image data")

const jpegQuality = 95

// Decoder turns uploaded bytes into an image. Raster formats are handled by the
// registered image decoders, SVG documents are rasterized.
type Decoder struct {
	svgFallbackWidth  int
	svgFallbackHeight int
}

// NewDecoder creates a decoder. The fallback size is used for SVG documents
// without explicit width and height.
func NewDecoder(svgFallbackWidth, svgFallbackHeight int) *Decoder {
	return &Decoder{
		svgFallbackWidth:  svgFallbackWidth,
		svgFallbackHeight: svgFallbackHeight,
	}
}

// Decode returns the decoded image and the detected format name.
func (d *Decoder) Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", ErrUndecodable)
	}

	if isSVGData(data) {
		img, err := d.decodeSVG(data)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		return img, "svg", nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Decoder: failed to decode raster image", "error", err, "input_size_bytes", len(data))
		return nil, "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	slog.Debug("Decoder: decoded raster image",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())
	return img, format, nil
}

func (d *Decoder) decodeSVG(data []byte) (image.Image, error) {
	if w, h, ok := parseSvgExplicitSize(data); ok {
		slog.Debug("Decoder: SVG has explicit size", "width", w, "height", h)
		return renderSVG(data, w, h)
	}
	if d.svgFallbackWidth <= 0 || d.svgFallbackHeight <= 0 {
		return nil, fmt.Errorf("SVG fallback size not set; cannot render SVG without explicit size")
	}
	slog.Debug("Decoder: SVG lacks explicit size; using fallback",
		"width", d.svgFallbackWidth, "height", d.svgFallbackHeight)
	return renderSVG(data, d.svgFallbackWidth, d.svgFallbackHeight)
}

// Encode writes img in the format implied by the extension of filename.
// Unknown extensions are written as PNG.
func Encode(w io.Writer, img image.Image, filename string) error {
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case ".gif":
		err = gif.Encode(w, img, nil)
	case ".bmp":
		err = bmp.Encode(w, img)
	case ".tif", ".tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(w, img)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(filename), err)
	}
	return nil
}
