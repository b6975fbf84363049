package enrich

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pbody-enrich/internal/imagej"
	"pbody-enrich/internal/intensity"
)

// Channel is one intensity image of a dataset.
type Channel struct {
	Name string
	Path string
}

// Dataset names the inputs found in one dataset directory: one or more
// intensity channels, a particle-mask ROI zip, and a perimeter (or
// dilated-mask) ROI zip.
type Dataset struct {
	Dir          string
	Name         string
	Channels     []Channel
	ParticleZip  string
	PerimeterZip string
}

// Result holds the analysis output of one dataset: per-channel particle
// records in channel discovery order.
type Result struct {
	Dataset *Dataset
	Width   int
	Height  int
	Masks   []ParticleMasks
	Records map[string][]ParticleRecord
}

// Discover lists the dataset subdirectories of a base directory.
func Discover(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read base directory: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(baseDir, e.Name()))
		}
	}
	return dirs, nil
}

// FindInputs locates the expected files inside one dataset directory.
// Intensity channels are files whose name contains "intensity"; the
// particle zip contains "mask" but neither "dilated" nor "perimeter"; the
// perimeter zip contains "perimeter", falling back to "dilated". A
// missing image or ROI collection is an error and the caller skips the
// dataset.
func FindInputs(dir string) (*Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	d := &Dataset{Dir: dir, Name: filepath.Base(dir)}
	var dilatedZip string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		path := filepath.Join(dir, e.Name())

		switch filepath.Ext(name) {
		case ".tif", ".tiff":
			if strings.Contains(name, "intensity") {
				ch := intensity.ChannelName(path)
				if ch == "" {
					ch = strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
				}
				d.Channels = append(d.Channels, Channel{Name: ch, Path: path})
			}
		case ".zip":
			switch {
			case strings.Contains(name, "perimeter"):
				d.PerimeterZip = path
			case strings.Contains(name, "dilated"):
				dilatedZip = path
			case strings.Contains(name, "mask"):
				d.ParticleZip = path
			}
		}
	}

	if d.PerimeterZip == "" {
		d.PerimeterZip = dilatedZip
	}

	if len(d.Channels) == 0 {
		return nil, fmt.Errorf("%s: no intensity images found", d.Name)
	}
	if d.ParticleZip == "" {
		return nil, fmt.Errorf("%s: no particle mask ROI zip found", d.Name)
	}
	if d.PerimeterZip == "" {
		return nil, fmt.Errorf("%s: no perimeter or dilated mask ROI zip found", d.Name)
	}
	return d, nil
}

// Analyze runs the full per-particle pipeline for every channel of the
// dataset. All channels share the particle and perimeter masks; each is
// background-estimated independently.
func (d *Dataset) Analyze(p Params) (*Result, error) {
	particleROIs, err := imagej.ReadZip(d.ParticleZip)
	if err != nil {
		return nil, err
	}
	perimeterROIs, err := imagej.ReadZip(d.PerimeterZip)
	if err != nil {
		return nil, err
	}

	grids := make([]*intensity.Grid, len(d.Channels))
	for i, ch := range d.Channels {
		g, err := intensity.Load(ch.Path)
		if err != nil {
			return nil, fmt.Errorf("%s channel %s: %w", d.Name, ch.Name, err)
		}
		if i > 0 && (g.Width != grids[0].Width || g.Height != grids[0].Height) {
			return nil, fmt.Errorf("%s channel %s: size %dx%d does not match %dx%d",
				d.Name, ch.Name, g.Width, g.Height, grids[0].Width, grids[0].Height)
		}
		grids[i] = g
	}

	masks, err := BuildMasks(particleROIs, perimeterROIs, grids[0].Width, grids[0].Height, p.EnlargePixels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}

	res := &Result{
		Dataset: d,
		Width:   grids[0].Width,
		Height:  grids[0].Height,
		Masks:   masks,
		Records: make(map[string][]ParticleRecord, len(d.Channels)),
	}
	for i, ch := range d.Channels {
		res.Records[ch.Name] = AnalyzeChannel(grids[i], masks, p)
	}
	return res, nil
}
