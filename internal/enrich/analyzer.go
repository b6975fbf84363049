package enrich

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"pbody-enrich/internal/background"
	"pbody-enrich/internal/imagej"
	"pbody-enrich/internal/intensity"
	"pbody-enrich/internal/mask"
	"pbody-enrich/internal/peaks"
)

// ParticleMasks pairs one particle's mask with its perimeter ring. ID is
// 1-based and matches the ROI decode order.
type ParticleMasks struct {
	ID       int
	Name     string
	Particle *mask.Mask
	Ring     *mask.Mask
}

// BuildMasks rasterizes paired particle and perimeter ROI collections and
// derives the ring mask for each pair. Index i of one collection
// corresponds to index i of the other; surplus entries on either side are
// ignored. A non-zero enlarge amount morphologically grows or shrinks the
// perimeter ROI polygon before rasterization.
func BuildMasks(particles, perimeters []imagej.ROI, width, height, enlarge int) ([]ParticleMasks, error) {
	n := len(particles)
	if len(perimeters) < n {
		n = len(perimeters)
	}

	out := make([]ParticleMasks, 0, n)
	for i := 0; i < n; i++ {
		pm := mask.Rasterize(particles[i].Coords, width, height)

		poly := perimeters[i].Coords
		if enlarge != 0 {
			poly = mask.EnlargePolygon(poly, width, height, enlarge)
		}
		dm := mask.Rasterize(poly, width, height)

		ring, err := mask.Perimeter(pm, dm)
		if err != nil {
			return nil, err
		}
		out = append(out, ParticleMasks{
			ID:       i + 1,
			Name:     particles[i].Name,
			Particle: pm,
			Ring:     ring,
		})
	}
	return out, nil
}

// ParticleRecord is the per-particle analysis result for one channel.
type ParticleRecord struct {
	ID               int
	ROIName          string
	NPixels          int
	NPerimeterPixels int

	MeanRaw   float64
	MedianRaw float64

	Background       float64 // selected value after scaling
	BackgroundSource background.Source

	MeanBgSub   float64
	MedianBgSub float64

	PerimeterMean float64
	PerimeterStd  float64

	// Peaks holds the histogram diagnostics when the gaussian_peaks
	// method ran; nil for the minimum method.
	Peaks *peaks.Result
}

// AnalyzeChannel runs background estimation and subtraction for every
// particle on one intensity channel. Particles whose particle or ring
// mask covers zero pixels are dropped, not errored.
func AnalyzeChannel(grid *intensity.Grid, particles []ParticleMasks, p Params) []ParticleRecord {
	records := make([]ParticleRecord, 0, len(particles))

	for _, pm := range particles {
		particleSamples := grid.Sample(pm.Particle)
		ringSamples := grid.Sample(pm.Ring)
		if len(particleSamples) == 0 || len(ringSamples) == 0 {
			continue
		}

		var sel background.Selection
		var pk *peaks.Result
		switch p.Method {
		case MethodMinimum:
			sel = background.Minimum(ringSamples)
		default:
			pk = peaks.Detect(ringSamples, p.HistogramBins, p.SmoothingSigma)
			if pk == nil {
				sel = background.Mean(ringSamples)
			} else {
				sel = background.SelectFromPeaks(pk, p.MaxBackground)
			}
		}
		bg := sel.Value * p.BackgroundScale

		meanRaw := stat.Mean(particleSamples, nil)
		medianRaw := median(particleSamples)

		records = append(records, ParticleRecord{
			ID:               pm.ID,
			ROIName:          pm.Name,
			NPixels:          len(particleSamples),
			NPerimeterPixels: len(ringSamples),
			MeanRaw:          meanRaw,
			MedianRaw:        medianRaw,
			Background:       bg,
			BackgroundSource: sel.Source,
			MeanBgSub:        meanRaw - bg,
			MedianBgSub:      medianRaw - bg,
			PerimeterMean:    stat.Mean(ringSamples, nil),
			PerimeterStd:     stat.PopStdDev(ringSamples, nil),
			Peaks:            pk,
		})
	}
	return records
}

// Summary aggregates one channel's records. Pure reduction; the records
// themselves are never modified.
type Summary struct {
	Particles   int
	MeanBgSub   float64
	MedianBgSub float64
	Positive    int // particles with positive net signal
}

// Summarize computes dataset-level statistics over per-particle
// background-subtracted means.
func Summarize(records []ParticleRecord) Summary {
	s := Summary{Particles: len(records)}
	if len(records) == 0 {
		return s
	}

	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.MeanBgSub
		if r.MeanBgSub > 0 {
			s.Positive++
		}
	}
	s.MeanBgSub = stat.Mean(values, nil)
	s.MedianBgSub = median(values)
	return s
}

// median returns the midpoint median: the middle sample for odd counts,
// the mean of the two middle samples for even counts.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
