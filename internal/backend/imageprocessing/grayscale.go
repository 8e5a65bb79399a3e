package imageprocessing

import (
	"image"
	"log/slog"
)

// BT.601 luma weights in 14-bit fixed point.
const (
	lumaShift = 14
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaRound = 1 << (lumaShift - 1)
)

// Grayscale converts img to 8-bit luma. The result is anchored at the origin.
func Grayscale(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok && gray.Bounds().Min == (image.Point{}) {
		return gray
	}
	src := toNRGBA(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	slog.Debug("Grayscale: converting image", "width", w, "height", h)

	parallelFor(h, func(y int) {
		si := y * src.Stride
		di := y * dst.Stride
		for x := 0; x < w; x++ {
			o := si + 4*x
			luma := (uint32(src.Pix[o])*lumaR + uint32(src.Pix[o+1])*lumaG + uint32(src.Pix[o+2])*lumaB + lumaRound) >> lumaShift
			dst.Pix[di+x] = uint8(luma)
		}
	})
	return dst
}

// GrayToRGB expands a gray image into an opaque RGBA image with equal channels.
func GrayToRGB(gray *image.Gray) *image.RGBA {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	parallelFor(h, func(y int) {
		si := y * gray.Stride
		di := y * dst.Stride
		for x := 0; x < w; x++ {
			v := gray.Pix[si+x]
			o := di + 4*x
			dst.Pix[o] = v
			dst.Pix[o+1] = v
			dst.Pix[o+2] = v
			dst.Pix[o+3] = 0xff
		}
	})
	return dst
}
