// Command enrich quantifies Cap enrichment at P-body peripheries using
// per-particle local background subtraction. It scans a base directory
// for dataset subdirectories, analyzes each independently, and writes a
// CSV of per-particle statistics plus diagnostic histogram panels next to
// the inputs.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"pbody-enrich/internal/background"
	"pbody-enrich/internal/enrich"
	"pbody-enrich/internal/intensity"
	"pbody-enrich/internal/report"
	"pbody-enrich/internal/version"
)

func main() {
	baseDir := flag.String("dir", "", "Base directory containing dataset subdirectories")
	method := flag.String("method", string(enrich.MethodGaussianPeaks), "Background method: minimum or gaussian_peaks")
	scale := flag.Float64("scale", 1.0, "Background scale factor applied before subtraction")
	maxBG := flag.Float64("max-background", math.NaN(), "Only select peaks below this intensity (NaN = unconstrained)")
	enlarge := flag.Int("enlarge", 0, "Enlarge (+) or shrink (-) perimeter ROIs by this many pixels")
	bins := flag.Int("bins", enrich.DefaultParams().HistogramBins, "Histogram bin count")
	sigma := flag.Float64("sigma", enrich.DefaultParams().SmoothingSigma, "Histogram smoothing sigma")
	maxPlots := flag.Int("plots", enrich.DefaultParams().MaxPlots, "Diagnostic panels per dataset and channel")
	noPlots := flag.Bool("no-plots", false, "Skip diagnostic panel output")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *baseDir == "" {
		fmt.Println("Usage: enrich -dir <path> [-method gaussian_peaks] [-scale 1.0] [-max-background N] [-enlarge N]")
		os.Exit(1)
	}

	params := enrich.DefaultParams().WithMethod(*method).WithCeiling(*maxBG)
	params.BackgroundScale = *scale
	params.EnlargePixels = *enlarge
	params.HistogramBins = *bins
	params.SmoothingSigma = *sigma
	params.MaxPlots = *maxPlots
	if err := params.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dirs, err := enrich.Discover(*baseDir)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", *baseDir, err)
	}
	if len(dirs) == 0 {
		log.Fatalf("No dataset subdirectories found in %s", *baseDir)
	}
	fmt.Printf("Found %d dataset directories to analyze\n\n", len(dirs))

	analyzed := 0
	for _, dir := range dirs {
		if runDataset(dir, params, !*noPlots) {
			analyzed++
		}
	}
	fmt.Printf("Done: %d of %d datasets analyzed\n", analyzed, len(dirs))
}

// runDataset analyzes one dataset directory. Missing inputs or analysis
// failures skip the dataset without aborting the run.
func runDataset(dir string, params enrich.Params, plots bool) bool {
	banner := strings.Repeat("=", 60)
	fmt.Println(banner)
	fmt.Printf("Analyzing %s (method: %s)\n", filepath.Base(dir), params.Method)
	fmt.Println(banner)

	ds, err := enrich.FindInputs(dir)
	if err != nil {
		log.Printf("Skipping dataset: %v", err)
		fmt.Println()
		return false
	}

	for _, ch := range ds.Channels {
		line := fmt.Sprintf("  Channel %s: %s", ch.Name, filepath.Base(ch.Path))
		if dpi, err := intensity.Resolution(ch.Path); err == nil {
			line += fmt.Sprintf(" (%.0f dpi)", dpi)
		}
		fmt.Println(line)
	}
	fmt.Printf("  Particle ROIs:  %s\n", filepath.Base(ds.ParticleZip))
	fmt.Printf("  Perimeter ROIs: %s\n", filepath.Base(ds.PerimeterZip))

	res, err := ds.Analyze(params)
	if err != nil {
		log.Printf("Skipping dataset %s: %v", ds.Name, err)
		fmt.Println()
		return false
	}
	fmt.Printf("  Found %d particles from ROI files\n", len(res.Masks))

	for _, ch := range ds.Channels {
		records := res.Records[ch.Name]
		summary := enrich.Summarize(records)

		fmt.Printf("\n  Summary statistics (%s):\n", ch.Name)
		fmt.Printf("    Particles kept: %d\n", summary.Particles)
		if summary.Particles > 0 {
			fmt.Printf("    Mean bg-subtracted:   %.2f\n", summary.MeanBgSub)
			fmt.Printf("    Median bg-subtracted: %.2f\n", summary.MedianBgSub)
			fmt.Printf("    Particles with enrichment (>0): %d/%d\n", summary.Positive, summary.Particles)
		}
		for _, rec := range records {
			if rec.BackgroundSource == background.SourceMean {
				log.Printf("%s %s particle %d: peak detection unavailable, mean fallback used",
					ds.Name, ch.Name, rec.ID)
			}
		}
	}

	csvPath := filepath.Join(ds.Dir, ds.Name+"_enrichment_analysis.csv")
	if err := enrich.WriteCSV(csvPath, ds.Channels, res.Records); err != nil {
		log.Printf("Failed to write %s: %v", csvPath, err)
		fmt.Println()
		return false
	}
	fmt.Printf("\n  Saved: %s\n", filepath.Base(csvPath))

	if plots {
		for _, ch := range ds.Channels {
			written, err := report.WriteParticlePanels(ds.Dir, ds.Name, ch.Name, res.Records[ch.Name], params.MaxPlots)
			if err != nil {
				log.Printf("Panel output for %s/%s failed: %v", ds.Name, ch.Name, err)
			}
			if len(written) > 0 {
				fmt.Printf("  Saved %d histogram panels for %s\n", len(written), ch.Name)
			}
		}
	}

	fmt.Println()
	return true
}
