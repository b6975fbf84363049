// Package enrich runs per-particle background-subtracted enrichment
// analysis over datasets of intensity images and ROI collections.
package enrich

import (
	"fmt"
	"math"

	"pbody-enrich/internal/peaks"
)

// Method names a background estimation strategy.
type Method string

const (
	// MethodMinimum takes the minimum perimeter sample as background.
	MethodMinimum Method = "minimum"
	// MethodGaussianPeaks estimates background from smoothed perimeter
	// histogram peaks.
	MethodGaussianPeaks Method = "gaussian_peaks"
)

// Params configures one analysis run.
type Params struct {
	Method          Method
	BackgroundScale float64 // multiplies the estimated background, unclamped
	MaxBackground   float64 // peak-selection ceiling; NaN disables it
	EnlargePixels   int     // perimeter ROI dilation (+) / erosion (-), 0 = off
	HistogramBins   int
	SmoothingSigma  float64
	MaxPlots        int // diagnostic panels per dataset
}

// DefaultParams returns the standard analysis configuration.
func DefaultParams() Params {
	return Params{
		Method:          MethodGaussianPeaks,
		BackgroundScale: 1.0,
		MaxBackground:   math.NaN(),
		EnlargePixels:   0,
		HistogramBins:   peaks.DefaultBins,
		SmoothingSigma:  peaks.DefaultSigma,
		MaxPlots:        9,
	}
}

// WithMethod returns a copy of params using the named method. Validity is
// checked by Validate.
func (p Params) WithMethod(name string) Params {
	p.Method = Method(name)
	return p
}

// WithCeiling returns a copy of params with the max-background ceiling set.
func (p Params) WithCeiling(ceiling float64) Params {
	p.MaxBackground = ceiling
	return p
}

// Validate reports configuration errors. An unrecognized method is fatal
// for the whole run.
func (p Params) Validate() error {
	switch p.Method {
	case MethodMinimum, MethodGaussianPeaks:
	default:
		return fmt.Errorf("unknown background method %q (want %q or %q)",
			p.Method, MethodMinimum, MethodGaussianPeaks)
	}
	if p.HistogramBins <= 0 {
		return fmt.Errorf("histogram bins must be positive, got %d", p.HistogramBins)
	}
	if p.SmoothingSigma < 0 {
		return fmt.Errorf("smoothing sigma must be non-negative, got %g", p.SmoothingSigma)
	}
	return nil
}

// HasCeiling reports whether a max-background ceiling is configured.
func (p Params) HasCeiling() bool {
	return !math.IsNaN(p.MaxBackground)
}
