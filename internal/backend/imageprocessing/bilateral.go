package imageprocessing

import (
	"fmt"
	"image"
	"log/slog"
	"math"
)

type spaceOffset struct {
	dx, dy int
	weight float64
}

// BilateralFilter smooths img while keeping strong edges. diameter defines the
// neighbourhood (radius diameter/2, circular), sigmaColor the tolerated color distance
// and sigmaSpace the spatial falloff. Borders are mirrored without repeating the edge.
func BilateralFilter(img image.Image, diameter int, sigmaColor, sigmaSpace float64) (*image.RGBA, error) {
	if diameter <= 0 {
		return nil, fmt.Errorf("diameter must be positive, got %d", diameter)
	}
	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := max(diameter/2, 1)

	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)

	// Color distance is the sum of absolute channel differences.
	colorWeights := make([]float64, 3*255+1)
	for i := range colorWeights {
		colorWeights[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	offsets := make([]spaceOffset, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r2 := float64(dx*dx + dy*dy)
			if math.Sqrt(r2) > float64(radius) {
				continue
			}
			offsets = append(offsets, spaceOffset{dx: dx, dy: dy, weight: math.Exp(r2 * spaceCoeff)})
		}
	}

	src := toNRGBA(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	slog.Debug("BilateralFilter: smoothing",
		"width", w, "height", h, "radius", radius, "neighbours", len(offsets))

	parallelFor(h, func(y int) {
		for x := 0; x < w; x++ {
			c := y*src.Stride + 4*x
			r0, g0, b0 := int(src.Pix[c]), int(src.Pix[c+1]), int(src.Pix[c+2])

			var sumR, sumG, sumB, sumW float64
			for _, off := range offsets {
				n := reflect101(y+off.dy, h)*src.Stride + 4*reflect101(x+off.dx, w)
				r, g, b := int(src.Pix[n]), int(src.Pix[n+1]), int(src.Pix[n+2])
				weight := off.weight * colorWeights[absInt(r-r0)+absInt(g-g0)+absInt(b-b0)]
				sumR += float64(r) * weight
				sumG += float64(g) * weight
				sumB += float64(b) * weight
				sumW += weight
			}

			o := y*dst.Stride + 4*x
			dst.Pix[o] = clampUint8(sumR / sumW)
			dst.Pix[o+1] = clampUint8(sumG / sumW)
			dst.Pix[o+2] = clampUint8(sumB / sumW)
			dst.Pix[o+3] = 0xff
		}
	})
	return dst, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
