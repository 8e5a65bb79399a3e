package imageprocessing

import (
	"fmt"
	"image"
	"log/slog"
)

// AdaptiveThresholdMean binarizes src by comparing each pixel with the mean of its
// blockSize x blockSize neighbourhood (replicated borders) minus offset. Pixels above
// that local threshold become maxValue, all others 0.
func AdaptiveThresholdMean(src *image.Gray, maxValue uint8, blockSize, offset int) (*image.Gray, error) {
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("block size must be odd and at least 3, got %d", blockSize)
	}
	radius := blockSize / 2
	area := int32(blockSize * blockSize)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	slog.Debug("AdaptiveThresholdMean: thresholding",
		"width", w, "height", h, "block_size", blockSize, "offset", offset)

	// Separable box sum: horizontal pass first, vertical pass reads from it.
	rowSums := make([]int32, w*h)
	parallelFor(h, func(y int) {
		row := y * src.Stride
		for x := 0; x < w; x++ {
			var sum int32
			for dx := -radius; dx <= radius; dx++ {
				sum += int32(src.Pix[row+replicate(x+dx, w)])
			}
			rowSums[y*w+x] = sum
		}
	})

	parallelFor(h, func(y int) {
		for x := 0; x < w; x++ {
			var sum int32
			for dy := -radius; dy <= radius; dy++ {
				sum += rowSums[replicate(y+dy, h)*w+x]
			}
			mean := (sum + area/2) / area
			value := int32(src.Pix[y*src.Stride+x])
			if value-mean > int32(-offset) {
				dst.Pix[y*dst.Stride+x] = maxValue
			}
		}
	})
	return dst, nil
}
