// Package intensity loads microscopy images into float64 sample grids and
// extracts per-mask intensity arrays.
package intensity

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"

	"pbody-enrich/internal/mask"
)

// Grid holds one intensity channel as row-major float64 samples.
type Grid struct {
	Width  int
	Height int
	Pix    []float64
}

// NewGrid creates an all-zero grid of the given size.
func NewGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// At returns the sample at (x, y). Out-of-bounds returns 0.
func (g *Grid) At(x, y int) float64 {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return 0
	}
	return g.Pix[y*g.Width+x]
}

// Max returns the maximum sample value, or 0 for an empty grid.
func (g *Grid) Max() float64 {
	maxV := 0.0
	for _, v := range g.Pix {
		if v > maxV {
			maxV = v
		}
	}
	return maxV
}

// Sample extracts the intensity values of all pixels under the mask, in
// row-major order. The mask must have the grid's shape.
func (g *Grid) Sample(m *mask.Mask) []float64 {
	out := make([]float64, 0, 256)
	for y := 0; y < g.Height && y < m.Height; y++ {
		for x := 0; x < g.Width && x < m.Width; x++ {
			if m.At(x, y) {
				out = append(out, g.Pix[y*g.Width+x])
			}
		}
	}
	return out
}

// Load reads an image file (TIFF, PNG or JPEG) into a Grid. 8- and 16-bit
// grayscale images keep their native sample values; color images are
// reduced to 8-bit luminance.
func Load(path string) (*Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// FromImage converts a decoded image into a Grid.
func FromImage(img image.Image) *Grid {
	bounds := img.Bounds()
	g := NewGrid(bounds.Dx(), bounds.Dy())

	switch im := img.(type) {
	case *image.Gray:
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				g.Pix[y*g.Width+x] = float64(im.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				g.Pix[y*g.Width+x] = float64(im.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	default:
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				r, gr, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				// 16-bit channel values averaged down to 8-bit luminance.
				g.Pix[y*g.Width+x] = float64((r>>8)+(gr>>8)+(b>>8)) / 3
			}
		}
	}
	return g
}

// ChannelName derives the channel label from an intensity image filename:
// the token immediately before "intensity", e.g. "A549 Cap Intensity.tif"
// yields "Cap". Returns "" when the filename has no such token.
func ChannelName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	fields := strings.FieldsFunc(base, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	})
	for i, f := range fields {
		if strings.EqualFold(f, "intensity") && i > 0 {
			return fields[i-1]
		}
	}
	return ""
}
