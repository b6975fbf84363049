// Package background selects a single local-background intensity for a
// particle from its perimeter histogram peaks.
//
// The policy is asymmetric on purpose: without a ceiling the lowest-
// position peak is taken, on the reasoning that the lowest mode in the
// ring is unenriched background while a higher mode is spillover from the
// particle itself. Once an operator supplies a ceiling, prominence is
// treated as the better discriminator among the peaks that qualify.
package background

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pbody-enrich/internal/peaks"
)

// Source identifies which selection tier produced the background value.
type Source int

const (
	// SourceLowestPeak is the unconstrained tier: lowest-position peak.
	SourceLowestPeak Source = iota
	// SourceProminentBelowCeiling is the constrained tier: most prominent
	// peak strictly below the ceiling.
	SourceProminentBelowCeiling
	// SourceBinBelowCeiling is the constrained fallback: busiest smoothed
	// bin below the ceiling when no detected peak qualifies.
	SourceBinBelowCeiling
	// SourceCeilingIgnored means no bin centers fell below the ceiling
	// either; the lowest-position peak was used regardless.
	SourceCeilingIgnored
	// SourceMinimum is the direct perimeter-minimum method.
	SourceMinimum
	// SourceMean is the degenerate fallback when peak detection never ran.
	SourceMean
)

func (s Source) String() string {
	switch s {
	case SourceLowestPeak:
		return "lowest-peak"
	case SourceProminentBelowCeiling:
		return "prominent-below-ceiling"
	case SourceBinBelowCeiling:
		return "bin-below-ceiling"
	case SourceCeilingIgnored:
		return "ceiling-ignored"
	case SourceMinimum:
		return "minimum"
	case SourceMean:
		return "mean-fallback"
	default:
		return "unknown"
	}
}

// Selection is one selected background value and the tier that chose it.
type Selection struct {
	Value  float64
	Source Source
}

// SelectFromPeaks picks exactly one background value from a detection
// result. A NaN ceiling means unconstrained selection. The tiers run in
// order; each either decides or passes to the next:
//
//  1. no ceiling: lowest-position peak among all peaks
//  2. ceiling: most prominent peak with position strictly below it
//  3. ceiling: busiest smoothed bin with center below it
//  4. ceiling excludes everything: lowest-position peak, ceiling ignored
func SelectFromPeaks(r *peaks.Result, ceiling float64) Selection {
	if math.IsNaN(ceiling) {
		return lowestPeak(r, SourceLowestPeak)
	}
	if sel, ok := prominentBelow(r, ceiling); ok {
		return sel
	}
	if sel, ok := busiestBinBelow(r, ceiling); ok {
		return sel
	}
	return lowestPeak(r, SourceCeilingIgnored)
}

// Minimum is the direct "minimum" method: the smallest perimeter sample.
func Minimum(samples []float64) Selection {
	return Selection{Value: floats.Min(samples), Source: SourceMinimum}
}

// Mean is the degenerate fallback used when peak detection could not run.
// Callers are expected to surface the Source so the fallback stays visible.
func Mean(samples []float64) Selection {
	return Selection{Value: stat.Mean(samples, nil), Source: SourceMean}
}

func lowestPeak(r *peaks.Result, src Source) Selection {
	best := r.Peaks[0]
	for _, p := range r.Peaks[1:] {
		if p.Position < best.Position {
			best = p
		}
	}
	return Selection{Value: best.Position, Source: src}
}

func prominentBelow(r *peaks.Result, ceiling float64) (Selection, bool) {
	found := false
	var best peaks.Peak
	for _, p := range r.Peaks {
		if p.Position >= ceiling {
			continue
		}
		// Ties go to the lower position, which keeps selection monotonic
		// in the ceiling.
		if !found || p.Prominence > best.Prominence ||
			(p.Prominence == best.Prominence && p.Position < best.Position) {
			best = p
			found = true
		}
	}
	if !found {
		return Selection{}, false
	}
	return Selection{Value: best.Position, Source: SourceProminentBelowCeiling}, true
}

func busiestBinBelow(r *peaks.Result, ceiling float64) (Selection, bool) {
	best := -1
	for i, c := range r.BinCenters {
		if c >= ceiling {
			break
		}
		if best < 0 || r.Smoothed[i] > r.Smoothed[best] {
			best = i
		}
	}
	if best < 0 {
		return Selection{}, false
	}
	return Selection{Value: r.BinCenters[best], Source: SourceBinBelowCeiling}, true
}
