package imageprocessing

import (
	"image"
	"image/color"
	"math"
	"sync"
)

// ColorMap is a 256 entry lookup table from gray level to color.
type ColorMap struct {
	Name  string
	table [256]color.RGBA
}

// At returns the color for gray level v.
func (m *ColorMap) At(v uint8) color.RGBA {
	return m.table[v]
}

// Jet returns the blue-cyan-yellow-red ramp.
var Jet = sync.OnceValue(func() *ColorMap {
	m := &ColorMap{Name: "jet"}
	for i := range m.table {
		x := float64(i) / 255
		m.table[i] = color.RGBA{
			R: jetChannel(x, 3),
			G: jetChannel(x, 2),
			B: jetChannel(x, 1),
			A: 0xff,
		}
	}
	return m
})

// jetChannel is a trapezoid of height 1 centred at center/4.
func jetChannel(x, center float64) uint8 {
	v := 1.5 - math.Abs(4*x-center)
	return clampUint8(v * 255)
}

// ApplyColorMap treats gray as a scalar field and paints it through m.
func ApplyColorMap(gray *image.Gray, m *ColorMap) *image.RGBA {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	parallelFor(h, func(y int) {
		si := y * gray.Stride
		di := y * dst.Stride
		for x := 0; x < w; x++ {
			c := m.table[gray.Pix[si+x]]
			o := di + 4*x
			dst.Pix[o] = c.R
			dst.Pix[o+1] = c.G
			dst.Pix[o+2] = c.B
			dst.Pix[o+3] = c.A
		}
	})
	return dst
}
