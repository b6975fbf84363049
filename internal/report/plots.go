// Package report renders diagnostic output: per-particle perimeter
// histogram panels and intensity heat maps.
package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"pbody-enrich/internal/enrich"
)

// Colors for the panel elements, matching the analysis notebook the lab
// reads these against: raw histogram gray, smoothed curve red, peak
// markers green, chosen background blue.
var (
	histColor   = color.RGBA{R: 110, G: 110, B: 110, A: 255}
	smoothColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	peakColor   = color.RGBA{R: 30, G: 140, B: 30, A: 255}
	bgColor     = color.RGBA{R: 30, G: 60, B: 200, A: 255}
)

// WriteParticlePanels writes one histogram panel PNG per analyzed
// particle, up to maxPlots, and returns the file paths written. Records
// without peak diagnostics (minimum method) are skipped.
func WriteParticlePanels(dir, dataset, channel string, records []enrich.ParticleRecord, maxPlots int) ([]string, error) {
	var written []string
	for _, rec := range records {
		if len(written) >= maxPlots {
			break
		}
		if rec.Peaks == nil {
			continue
		}

		name := fmt.Sprintf("%s_%s_particle_%02d_hist.png", dataset, channel, rec.ID)
		path := filepath.Join(dir, name)
		if err := writePanel(path, rec); err != nil {
			return written, fmt.Errorf("particle %d: %w", rec.ID, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func writePanel(path string, rec enrich.ParticleRecord) error {
	pk := rec.Peaks

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Particle %d: %d peak(s), %d px",
		rec.ID, len(pk.Peaks), rec.NPerimeterPixels)
	p.X.Label.Text = "Intensity"
	p.Y.Label.Text = "Count"

	yMax := 0.0
	for _, c := range pk.Counts {
		if c > yMax {
			yMax = c
		}
	}

	raw, err := plotter.NewLine(binXYs(pk.BinCenters, pk.Counts))
	if err != nil {
		return err
	}
	raw.Color = histColor
	p.Add(raw)
	p.Legend.Add("histogram", raw)

	smooth, err := plotter.NewLine(binXYs(pk.BinCenters, pk.Smoothed))
	if err != nil {
		return err
	}
	smooth.Color = smoothColor
	smooth.Width = vg.Points(1.5)
	p.Add(smooth)
	p.Legend.Add("smoothed", smooth)

	for _, peak := range pk.TopPeaks(2) {
		mark, err := verticalLine(peak.Position, yMax)
		if err != nil {
			return err
		}
		mark.Color = peakColor
		mark.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(mark)
	}

	bgLine, err := verticalLine(rec.Background, yMax)
	if err != nil {
		return err
	}
	bgLine.Color = bgColor
	bgLine.Width = vg.Points(1.5)
	p.Add(bgLine)
	p.Legend.Add(fmt.Sprintf("BG=%.1f (%s)", rec.Background, rec.BackgroundSource), bgLine)

	p.Legend.Top = true

	return p.Save(5*vg.Inch, 4*vg.Inch, path)
}

func binXYs(centers, values []float64) plotter.XYs {
	xys := make(plotter.XYs, len(centers))
	for i := range centers {
		xys[i] = plotter.XY{X: centers[i], Y: values[i]}
	}
	return xys
}

func verticalLine(x, yMax float64) (*plotter.Line, error) {
	return plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: yMax}})
}
