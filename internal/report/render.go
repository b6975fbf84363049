package report

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"pbody-enrich/internal/intensity"
	"pbody-enrich/internal/mask"
)

// intensityGrid adapts an intensity.Grid to the plotter heat-map
// interface. Rows are flipped so the image reads top-down like the
// source micrograph.
type intensityGrid struct {
	g *intensity.Grid
}

func (ig intensityGrid) Dims() (int, int)   { return ig.g.Width, ig.g.Height }
func (ig intensityGrid) X(c int) float64    { return float64(c) }
func (ig intensityGrid) Y(r int) float64    { return float64(r) }
func (ig intensityGrid) Z(c, r int) float64 { return ig.g.At(c, ig.g.Height-1-r) }

// RenderGrid writes an intensity heat map PNG for a whole channel image.
func RenderGrid(g *intensity.Grid, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"

	hm := plotter.NewHeatMap(intensityGrid{g: g}, palette.Heat(12, 1))
	p.Add(hm)

	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}

// RenderMasked writes a heat map in which only pixels under the mask keep
// their intensity; everything else renders as zero. Used for the
// perimeter-only diagnostic views.
func RenderMasked(g *intensity.Grid, m *mask.Mask, title, path string) error {
	masked := intensity.NewGrid(g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if m.At(x, y) {
				masked.Pix[y*g.Width+x] = g.At(x, y)
			}
		}
	}
	return RenderGrid(masked, title, path)
}
