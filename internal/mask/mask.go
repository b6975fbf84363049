// Package mask provides binary pixel masks: rasterization of ROI polygons,
// perimeter (ring) derivation, and morphological ROI enlargement.
package mask

import (
	"fmt"

	"pbody-enrich/pkg/geometry"
)

// Mask is a 0/1 raster. Pix is row-major, one byte per pixel.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// New creates an all-zero mask of the given size.
func New(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// FromFunc builds a mask by evaluating f at every pixel.
func FromFunc(width, height int, f func(x, y int) bool) *Mask {
	m := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if f(x, y) {
				m.Pix[y*width+x] = 1
			}
		}
	}
	return m
}

// At reports whether the pixel at (x, y) is set. Out-of-bounds is false.
func (m *Mask) At(x, y int) bool {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] != 0
}

// Set marks the pixel at (x, y). Out-of-bounds is ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = 1
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Empty reports whether no pixel is set.
func (m *Mask) Empty() bool {
	return m.Count() == 0
}

// Points returns the coordinates of all set pixels in row-major order.
func (m *Mask) Points() []geometry.PointInt {
	pts := make([]geometry.PointInt, 0, 64)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] != 0 {
				pts = append(pts, geometry.PointInt{X: x, Y: y})
			}
		}
	}
	return pts
}

// Perimeter builds the ring mask from a particle mask and its dilated
// counterpart as the pixel-wise absolute difference of the two rasters.
// When the dilated mask is a strict superset this is exactly dilated minus
// particle; for non-superset inputs it degrades to the symmetric
// difference.
func Perimeter(particle, dilated *Mask) (*Mask, error) {
	if particle.Width != dilated.Width || particle.Height != dilated.Height {
		return nil, fmt.Errorf("mask shape mismatch: %dx%d vs %dx%d",
			particle.Width, particle.Height, dilated.Width, dilated.Height)
	}

	ring := New(particle.Width, particle.Height)
	for i := range ring.Pix {
		if particle.Pix[i] != dilated.Pix[i] {
			ring.Pix[i] = 1
		}
	}
	return ring, nil
}
