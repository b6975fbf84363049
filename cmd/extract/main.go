// Command extract derives perimeter ring masks from exported mask images.
// Given a dataset directory holding a particle mask TIFF, a dilated mask
// TIFF and intensity images, it binarizes both masks, takes their
// pixel-wise absolute difference to obtain the ring, saves the ring as an
// 8-bit TIFF, and renders full and perimeter-only intensity views.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"pbody-enrich/internal/enrich"
	"pbody-enrich/internal/intensity"
	"pbody-enrich/internal/mask"
	"pbody-enrich/internal/report"
	"pbody-enrich/internal/version"
)

func main() {
	dir := flag.String("dir", "", "Dataset directory with mask and intensity TIFFs")
	noRender := flag.Bool("no-render", false, "Skip intensity view rendering")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *dir == "" {
		fmt.Println("Usage: extract -dir <path> [-no-render]")
		os.Exit(1)
	}

	if err := run(*dir, !*noRender); err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}
}

func run(dir string, render bool) error {
	maskPath, dilatedPath, channels, err := findFiles(dir)
	if err != nil {
		return err
	}

	fmt.Printf("Loading files from %s:\n", dir)
	fmt.Printf("  Mask:         %s\n", filepath.Base(maskPath))
	fmt.Printf("  Dilated mask: %s\n", filepath.Base(dilatedPath))
	for _, ch := range channels {
		fmt.Printf("  %s intensity: %s\n", ch.Name, filepath.Base(ch.Path))
	}

	maskGrid, err := intensity.Load(maskPath)
	if err != nil {
		return err
	}
	dilatedGrid, err := intensity.Load(dilatedPath)
	if err != nil {
		return err
	}

	particle := binarize(maskGrid)
	dilated := binarize(dilatedGrid)
	ring, err := mask.Perimeter(particle, dilated)
	if err != nil {
		return err
	}

	outPath := perimeterPath(dir, maskPath)
	if err := writeMaskTIFF(outPath, ring); err != nil {
		return fmt.Errorf("failed to save perimeter mask: %w", err)
	}
	fmt.Printf("  Saved perimeter mask: %s\n", filepath.Base(outPath))

	fmt.Println("\nExtracted data summary:")
	fmt.Printf("  Mask pixels:      %d\n", particle.Count())
	fmt.Printf("  Perimeter pixels: %d\n", ring.Count())

	datasetName := filepath.Base(dir)
	for _, ch := range channels {
		grid, err := intensity.Load(ch.Path)
		if err != nil {
			return fmt.Errorf("channel %s: %w", ch.Name, err)
		}
		fmt.Printf("  %s perimeter samples: %d\n", ch.Name, len(grid.Sample(ring)))

		if !render {
			continue
		}
		full := filepath.Join(dir, fmt.Sprintf("%s_%s_Full.png", datasetName, ch.Name))
		if err := report.RenderGrid(grid, ch.Name+" Intensity - Full Image", full); err != nil {
			return err
		}
		fmt.Printf("  Saved: %s\n", filepath.Base(full))

		perim := filepath.Join(dir, fmt.Sprintf("%s_%s_Perimeter.png", datasetName, ch.Name))
		if err := report.RenderMasked(grid, ring, ch.Name+" Intensity - Perimeter Only", perim); err != nil {
			return err
		}
		fmt.Printf("  Saved: %s\n", filepath.Base(perim))
	}
	return nil
}

// findFiles locates the particle mask (name contains "mask" but not
// "dilated" or "perimeter"), the dilated mask, and the intensity channels
// in a dataset directory.
func findFiles(dir string) (maskPath, dilatedPath string, channels []enrich.Channel, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to read directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		ext := filepath.Ext(name)
		if ext != ".tif" && ext != ".tiff" {
			continue
		}
		path := filepath.Join(dir, e.Name())

		switch {
		case strings.Contains(name, "intensity"):
			ch := intensity.ChannelName(path)
			if ch == "" {
				ch = strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			}
			channels = append(channels, enrich.Channel{Name: ch, Path: path})
		case strings.Contains(name, "dilated") && strings.Contains(name, "mask"):
			dilatedPath = path
		case strings.Contains(name, "mask") && !strings.Contains(name, "perimeter"):
			maskPath = path
		}
	}

	switch {
	case maskPath == "":
		err = fmt.Errorf("no mask image found in %s", dir)
	case dilatedPath == "":
		err = fmt.Errorf("no dilated mask image found in %s", dir)
	case len(channels) == 0:
		err = fmt.Errorf("no intensity images found in %s", dir)
	}
	return maskPath, dilatedPath, channels, err
}

// binarize thresholds an image grid at zero: any positive sample is set.
func binarize(g *intensity.Grid) *mask.Mask {
	return mask.FromFunc(g.Width, g.Height, func(x, y int) bool {
		return g.At(x, y) > 0
	})
}

// perimeterPath derives the output filename from the source mask name,
// e.g. "A549 Mask.tif" becomes "A549 Perimeter Mask.tif".
func perimeterPath(dir, maskPath string) string {
	stem := strings.TrimSuffix(filepath.Base(maskPath), filepath.Ext(maskPath))
	if strings.Contains(stem, "Mask") {
		stem = strings.Replace(stem, "Mask", "Perimeter Mask", 1)
	} else {
		stem += " Perimeter Mask"
	}
	return filepath.Join(dir, stem+".tif")
}

// writeMaskTIFF saves a 0/255 grayscale TIFF of the mask.
func writeMaskTIFF(path string, m *mask.Mask) error {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Uncompressed})
}
