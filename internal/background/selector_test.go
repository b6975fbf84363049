package background

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"pbody-enrich/internal/peaks"
)

// twoModeResult builds a detection result with a weak low peak and a
// strong high one, over a 50-bin histogram of unit width.
func twoModeResult() *peaks.Result {
	centers := make([]float64, 50)
	smoothed := make([]float64, 50)
	for i := range centers {
		centers[i] = float64(i) + 0.5
	}
	smoothed[3] = 2  // busiest bin in the low tail
	smoothed[10] = 4 // low mode
	smoothed[30] = 9 // high mode
	return &peaks.Result{
		BinCenters: centers,
		Smoothed:   smoothed,
		BinWidth:   1,
		Peaks: []peaks.Peak{
			{Position: 10.5, Prominence: 4, Bin: 10},
			{Position: 30.5, Prominence: 9, Bin: 30},
		},
	}
}

func TestSelectFromPeaks(t *testing.T) {
	cases := []struct {
		name    string
		ceiling float64
		value   float64
		source  Source
	}{
		{"no ceiling takes lowest peak", math.NaN(), 10.5, SourceLowestPeak},
		{"ceiling above both takes most prominent", 50, 30.5, SourceProminentBelowCeiling},
		{"ceiling between modes takes low peak", 20, 10.5, SourceProminentBelowCeiling},
		{"ceiling at peak position excludes it", 30.5, 10.5, SourceProminentBelowCeiling},
		{"ceiling below all peaks takes busiest bin", 5, 3.5, SourceBinBelowCeiling},
		{"ceiling below all bins is ignored", 0.2, 10.5, SourceCeilingIgnored},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel := SelectFromPeaks(twoModeResult(), tc.ceiling)
			assert.InDelta(t, tc.value, sel.Value, 1e-12)
			assert.Equal(t, tc.source, sel.Source)
		})
	}
}

func TestSelectProminenceTieGoesToLowerPosition(t *testing.T) {
	r := twoModeResult()
	r.Peaks = []peaks.Peak{
		{Position: 10.5, Prominence: 7, Bin: 10},
		{Position: 30.5, Prominence: 7, Bin: 30},
	}
	sel := SelectFromPeaks(r, 50)
	assert.Equal(t, 10.5, sel.Value)
	assert.Equal(t, SourceProminentBelowCeiling, sel.Source)
}

func TestSelectMonotoneInCeiling(t *testing.T) {
	// Lowering the ceiling must never raise the selected background.
	r := twoModeResult()
	prev := math.Inf(1)
	for _, ceiling := range []float64{60, 40, 31, 20, 11, 8, 5, 2} {
		sel := SelectFromPeaks(r, ceiling)
		assert.LessOrEqual(t, sel.Value, prev, "ceiling %g", ceiling)
		prev = sel.Value
	}
}

func TestMinimum(t *testing.T) {
	sel := Minimum([]float64{7, 3, 9, 4})
	assert.Equal(t, 3.0, sel.Value)
	assert.Equal(t, SourceMinimum, sel.Source)
}

func TestMean(t *testing.T) {
	sel := Mean([]float64{2, 4, 6})
	assert.InDelta(t, 4.0, sel.Value, 1e-12)
	assert.Equal(t, SourceMean, sel.Source)
}

func TestSourceStrings(t *testing.T) {
	cases := map[Source]string{
		SourceLowestPeak:            "lowest-peak",
		SourceProminentBelowCeiling: "prominent-below-ceiling",
		SourceBinBelowCeiling:       "bin-below-ceiling",
		SourceCeilingIgnored:        "ceiling-ignored",
		SourceMinimum:               "minimum",
		SourceMean:                  "mean-fallback",
		Source(99):                  "unknown",
	}
	for src, want := range cases {
		assert.Equal(t, want, src.String())
	}
}
