package enrich

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WriteCSV writes one row per kept particle with per-channel statistic
// columns. Channels must be given in the desired column order and each
// channel's records must be aligned by particle (they are, because the
// drop decision depends only on the shared masks).
//
// Negative numeric values are rendered as empty fields: negative net
// signal is informative but a negative number in the table usually marks
// a modeling failure worth flagging, so the cell is blanked instead.
func WriteCSV(path string, channels []Channel, records map[string][]ParticleRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"particle_id", "roi_name", "n_pixels", "n_perimeter_pixels"}
	for _, ch := range channels {
		prefix := strings.ToLower(ch.Name)
		header = append(header,
			prefix+"_mean_raw",
			prefix+"_median_raw",
			prefix+"_background",
			prefix+"_mean_bg_subtracted",
			prefix+"_median_bg_subtracted",
			prefix+"_perimeter_mean",
			prefix+"_perimeter_std",
		)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	if len(channels) == 0 {
		return w.Error()
	}

	first := records[channels[0].Name]
	for i, rec := range first {
		row := []string{
			strconv.Itoa(rec.ID),
			rec.ROIName,
			strconv.Itoa(rec.NPixels),
			strconv.Itoa(rec.NPerimeterPixels),
		}
		for _, ch := range channels {
			r := records[ch.Name][i]
			row = append(row,
				formatValue(r.MeanRaw),
				formatValue(r.MedianRaw),
				formatValue(r.Background),
				formatValue(r.MeanBgSub),
				formatValue(r.MedianBgSub),
				formatValue(r.PerimeterMean),
				formatValue(r.PerimeterStd),
			)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// formatValue renders a statistic for CSV output; negatives become empty
// fields.
func formatValue(v float64) string {
	if v < 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
