// Package imagej decodes ImageJ ROI files and ROI zip collections into
// ordered polygon vertex lists. Only the boundary coordinates are exposed;
// none of the binary layout leaks to callers.
package imagej

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"pbody-enrich/pkg/geometry"
)

// ROI is one decoded region of interest: the entry name it was stored
// under and its boundary polygon in image coordinates.
type ROI struct {
	Name   string
	Coords []geometry.Point2D
}

// ROI type codes from the ImageJ file format.
const (
	typePolygon  = 0
	typeRect     = 1
	typeOval     = 2
	typeLine     = 3
	typeFreeline = 4
	typePolyline = 5
	typeNoROI    = 6
	typeFreehand = 7
	typeTraced   = 8
)

const (
	headerSize = 64
	// Options flag: coordinates stored with sub-pixel float precision.
	optSubPixelResolution = 128
	// Sub-pixel coordinates appear in files written by ImageJ >= 1.50 (version 222+).
	subPixelMinVersion = 222
	// Segments used to approximate an oval ROI boundary.
	ovalSegments = 72
)

// DecodeROI decodes a single ImageJ ".roi" byte blob into an ordered
// polygon vertex list. Rectangle and oval ROIs are converted to boundary
// polygons; polygon, freehand and traced ROIs are returned as stored.
func DecodeROI(data []byte) ([]geometry.Point2D, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("roi data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "Iout" {
		return nil, fmt.Errorf("not an ImageJ ROI (bad magic %q)", data[0:4])
	}

	be := binary.BigEndian
	version := int(be.Uint16(data[4:6]))
	roiType := int(data[6])
	top := int(int16(be.Uint16(data[8:10])))
	left := int(int16(be.Uint16(data[10:12])))
	bottom := int(int16(be.Uint16(data[12:14])))
	right := int(int16(be.Uint16(data[14:16])))
	n := int(be.Uint16(data[16:18]))
	options := int(be.Uint16(data[50:52]))

	switch roiType {
	case typeRect:
		return rectPolygon(left, top, right, bottom), nil
	case typeOval:
		return ovalPolygon(left, top, right, bottom), nil
	case typePolygon, typeFreehand, typeTraced, typeFreeline, typePolyline:
		// Fall through to the coordinate block below.
	case typeNoROI:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported roi type %d", roiType)
	}

	if n == 0 {
		return nil, nil
	}

	subPixel := version >= subPixelMinVersion && options&optSubPixelResolution != 0
	if subPixel {
		// Float coordinates follow the int16 block and are absolute.
		base := headerSize + 4*n
		if len(data) < base+8*n {
			return nil, fmt.Errorf("roi truncated: need %d float coord bytes", 8*n)
		}
		coords := make([]geometry.Point2D, n)
		for i := 0; i < n; i++ {
			x := math.Float32frombits(be.Uint32(data[base+4*i:]))
			y := math.Float32frombits(be.Uint32(data[base+4*n+4*i:]))
			coords[i] = geometry.Point2D{X: float64(x), Y: float64(y)}
		}
		return coords, nil
	}

	// Integer coordinates are stored as x[n] then y[n], relative to (left, top).
	if len(data) < headerSize+4*n {
		return nil, fmt.Errorf("roi truncated: need %d coord bytes", 4*n)
	}
	coords := make([]geometry.Point2D, n)
	for i := 0; i < n; i++ {
		x := int(int16(be.Uint16(data[headerSize+2*i:])))
		y := int(int16(be.Uint16(data[headerSize+2*n+2*i:])))
		coords[i] = geometry.Point2D{X: float64(left + x), Y: float64(top + y)}
	}
	return coords, nil
}

// ReadZip decodes every ".roi" entry of an ImageJ ROI zip. Entries are
// decoded in sorted-name order so that index i is stable across runs and
// matches the companion collection loaded the same way.
func ReadZip(path string) ([]ROI, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roi zip: %w", err)
	}
	defer zr.Close()

	byName := make(map[string]*zip.File, len(zr.File))
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".roi") {
			continue
		}
		byName[f.Name] = f
		names = append(names, f.Name)
	}
	sort.Strings(names)

	rois := make([]ROI, 0, len(names))
	for _, name := range names {
		rc, err := byName[name].Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open roi entry %s: %w", name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read roi entry %s: %w", name, err)
		}
		coords, err := DecodeROI(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode roi %s: %w", name, err)
		}
		rois = append(rois, ROI{Name: name, Coords: coords})
	}
	return rois, nil
}

func rectPolygon(left, top, right, bottom int) []geometry.Point2D {
	return []geometry.Point2D{
		{X: float64(left), Y: float64(top)},
		{X: float64(right), Y: float64(top)},
		{X: float64(right), Y: float64(bottom)},
		{X: float64(left), Y: float64(bottom)},
	}
}

func ovalPolygon(left, top, right, bottom int) []geometry.Point2D {
	cx := float64(left+right) / 2
	cy := float64(top+bottom) / 2
	rx := float64(right-left) / 2
	ry := float64(bottom-top) / 2

	pts := make([]geometry.Point2D, ovalSegments)
	for i := 0; i < ovalSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(ovalSegments)
		pts[i] = geometry.Point2D{
			X: cx + rx*math.Cos(angle),
			Y: cy + ry*math.Sin(angle),
		}
	}
	return pts
}
