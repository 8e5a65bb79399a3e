package imageprocessing

import (
	"fmt"
	"image"
)

// MaskAnd keeps the pixels of img where mask is non-zero and paints the rest opaque black.
func MaskAnd(img *image.RGBA, mask *image.Gray) (*image.RGBA, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if mask.Bounds().Dx() != w || mask.Bounds().Dy() != h {
		return nil, fmt.Errorf("mask size %dx%d does not match image size %dx%d",
			mask.Bounds().Dx(), mask.Bounds().Dy(), w, h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	parallelFor(h, func(y int) {
		si := y * img.Stride
		mi := y * mask.Stride
		di := y * dst.Stride
		for x := 0; x < w; x++ {
			o := di + 4*x
			dst.Pix[o+3] = 0xff
			if mask.Pix[mi+x] == 0 {
				continue
			}
			copy(dst.Pix[o:o+3], img.Pix[si+4*x:si+4*x+3])
		}
	})
	return dst, nil
}
