// Package peaks builds smoothed intensity histograms and detects their
// local maxima with prominence scores. It is the basis of per-particle
// background estimation: the perimeter ring of a particle typically shows
// one low-intensity mode (local background) and sometimes a second,
// higher mode from signal spillover.
package peaks

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Defaults for histogram construction. Fixed per run.
const (
	DefaultBins  = 50
	DefaultSigma = 2.0
)

// Fraction of the maximum smoothed count a peak must rise above its
// surroundings to be kept on the first detection pass.
const relativeProminence = 0.05

// Peak is one detected histogram maximum.
type Peak struct {
	Position   float64 // bin-center intensity value
	Prominence float64 // height above the higher of the flanking valleys
	Bin        int
}

// Result holds the histogram and its detected peaks. Peaks is the full
// list in ascending bin order; selection logic must use it rather than the
// display-truncated TopPeaks view.
type Result struct {
	BinCenters []float64
	Counts     []float64
	Smoothed   []float64
	BinWidth   float64
	Peaks      []Peak
}

// Detect histograms the samples over the closed range [0, max(samples)]
// with the given bin count, smooths the counts with a Gaussian kernel of
// width sigma, and finds local maxima. The lower bound is pinned at 0
// rather than the sample minimum so that modes clustering near zero land
// mid-histogram instead of piling into the first bin.
//
// The detection ladder guarantees at least one peak for non-empty input:
// prominence >= 5% of the smoothed maximum, then an absolute prominence of
// 1 count, then the single bin with the highest smoothed count. An empty
// sample array yields nil; callers guard for emptiness upstream.
func Detect(samples []float64, bins int, sigma float64) *Result {
	if len(samples) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	maxV := floats.Max(samples)
	if maxV <= 0 {
		// All-zero input would give a zero-width range; widen to unit so
		// binning stays defined. Everything lands in bin 0.
		maxV = 1
	}
	width := maxV / float64(bins)

	counts := make([]float64, bins)
	for _, v := range samples {
		idx := int(v / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			// The last bin edge is closed, matching the histogram range.
			idx = bins - 1
		}
		counts[idx]++
	}

	centers := make([]float64, bins)
	for i := range centers {
		centers[i] = (float64(i) + 0.5) * width
	}

	smoothed := Smooth(counts, sigma)

	r := &Result{
		BinCenters: centers,
		Counts:     counts,
		Smoothed:   smoothed,
		BinWidth:   width,
	}

	maxima := localMaxima(smoothed)
	proms := prominences(smoothed, maxima)

	r.Peaks = keepProminent(centers, maxima, proms, relativeProminence*floats.Max(smoothed))
	if len(r.Peaks) == 0 {
		r.Peaks = keepProminent(centers, maxima, proms, 1)
	}
	if len(r.Peaks) == 0 {
		// Degenerate histogram (e.g. monotone counts): treat the busiest
		// bin as the single peak. There is no flanking valley to measure
		// against, so its smoothed count stands in for prominence.
		best := floats.MaxIdx(smoothed)
		r.Peaks = []Peak{{Position: centers[best], Prominence: smoothed[best], Bin: best}}
	}
	return r
}

// TopPeaks returns up to n peaks sorted by descending prominence, lower
// position first on ties. This view exists for display; selection uses
// the full Peaks list.
func (r *Result) TopPeaks(n int) []Peak {
	sorted := make([]Peak, len(r.Peaks))
	copy(sorted, r.Peaks)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Prominence > sorted[i].Prominence ||
				(sorted[j].Prominence == sorted[i].Prominence && sorted[j].Position < sorted[i].Position) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func keepProminent(centers []float64, maxima []int, proms []float64, minProm float64) []Peak {
	var out []Peak
	for i, bin := range maxima {
		if proms[i] >= minProm {
			out = append(out, Peak{Position: centers[bin], Prominence: proms[i], Bin: bin})
		}
	}
	return out
}

// Smooth convolves the counts with a normalized Gaussian kernel truncated
// at 4 sigma, using reflected boundaries.
func Smooth(counts []float64, sigma float64) []float64 {
	n := len(counts)
	if n == 0 || sigma <= 0 {
		out := make([]float64, n)
		copy(out, counts)
		return out
	}

	radius := int(4*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		k := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = k
		sum += k
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		acc := 0.0
		for j := -radius; j <= radius; j++ {
			acc += kernel[j+radius] * counts[reflect(i+j, n)]
		}
		out[i] = acc
	}
	return out
}

// reflect maps an index outside [0, n) back inside by mirroring about the
// array edges (d c b a | a b c d | d c b a).
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

// localMaxima finds indices of local maxima, reporting the midpoint of
// flat-topped plateaus. The first and last samples can never qualify.
func localMaxima(x []float64) []int {
	var out []int
	n := len(x)
	if n < 3 {
		return out
	}

	i := 1
	iMax := n - 1
	for i < iMax {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < iMax && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				out = append(out, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}
	return out
}

// prominences measures each peak's height above the higher of the two
// valley minima that separate it from taller terrain (or the signal
// border) on either side.
func prominences(x []float64, maxima []int) []float64 {
	out := make([]float64, len(maxima))
	for k, p := range maxima {
		leftMin := x[p]
		for i := p - 1; i >= 0 && x[i] <= x[p]; i-- {
			if x[i] < leftMin {
				leftMin = x[i]
			}
		}
		rightMin := x[p]
		for i := p + 1; i < len(x) && x[i] <= x[p]; i++ {
			if x[i] < rightMin {
				rightMin = x[i]
			}
		}
		out[k] = x[p] - math.Max(leftMin, rightMin)
	}
	return out
}
