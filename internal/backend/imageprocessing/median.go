package imageprocessing

import (
	"image"
	"log/slog"
	"slices"
)

// MedianBlur replaces every pixel with the median of its kernel x kernel neighbourhood.
// Borders are replicated. Kernel sizes below 3 are raised to 3 and even sizes rounded up.
func MedianBlur(src *image.Gray, kernel int) *image.Gray {
	if kernel < 3 {
		kernel = 3
	}
	if kernel%2 == 0 {
		kernel++
	}
	radius := kernel / 2
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	slog.Debug("MedianBlur: filtering", "width", w, "height", h, "kernel", kernel)

	parallelFor(h, func(y int) {
		window := make([]uint8, 0, kernel*kernel)
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -radius; dy <= radius; dy++ {
				row := replicate(y+dy, h) * src.Stride
				for dx := -radius; dx <= radius; dx++ {
					window = append(window, src.Pix[row+replicate(x+dx, w)])
				}
			}
			slices.Sort(window)
			dst.Pix[y*dst.Stride+x] = window[len(window)/2]
		}
	})
	return dst
}
