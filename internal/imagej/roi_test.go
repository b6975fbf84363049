package imagej

import (
	"archive/zip"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbody-enrich/pkg/geometry"
)

// roiBlob assembles a minimal ImageJ ROI file: 64-byte header followed
// by the coordinate payload.
func roiBlob(version, roiType, top, left, bottom, right, n, options int, payload []byte) []byte {
	be := binary.BigEndian
	data := make([]byte, headerSize, headerSize+len(payload))
	copy(data, "Iout")
	be.PutUint16(data[4:], uint16(version))
	data[6] = byte(roiType)
	be.PutUint16(data[8:], uint16(top))
	be.PutUint16(data[10:], uint16(left))
	be.PutUint16(data[12:], uint16(bottom))
	be.PutUint16(data[14:], uint16(right))
	be.PutUint16(data[16:], uint16(n))
	be.PutUint16(data[50:], uint16(options))
	return append(data, payload...)
}

func int16Coords(xs, ys []int16) []byte {
	be := binary.BigEndian
	out := make([]byte, 2*len(xs)+2*len(ys))
	for i, x := range xs {
		be.PutUint16(out[2*i:], uint16(x))
	}
	off := 2 * len(xs)
	for i, y := range ys {
		be.PutUint16(out[off+2*i:], uint16(y))
	}
	return out
}

func TestDecodePolygon(t *testing.T) {
	payload := int16Coords([]int16{0, 4, 4}, []int16{0, 0, 3})
	data := roiBlob(218, typePolygon, 20, 10, 23, 14, 3, 0, payload)

	coords, err := DecodeROI(data)
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point2D{
		{X: 10, Y: 20},
		{X: 14, Y: 20},
		{X: 14, Y: 23},
	}, coords)
}

func TestDecodeRect(t *testing.T) {
	data := roiBlob(218, typeRect, 3, 2, 9, 8, 0, 0, nil)

	coords, err := DecodeROI(data)
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point2D{
		{X: 2, Y: 3},
		{X: 8, Y: 3},
		{X: 8, Y: 9},
		{X: 2, Y: 9},
	}, coords)
}

func TestDecodeOval(t *testing.T) {
	data := roiBlob(218, typeOval, 0, 0, 6, 10, 0, 0, nil)

	coords, err := DecodeROI(data)
	require.NoError(t, err)
	require.Len(t, coords, ovalSegments)

	// First point sits at angle 0: the rightmost point of the ellipse.
	assert.InDelta(t, 10.0, coords[0].X, 1e-9)
	assert.InDelta(t, 3.0, coords[0].Y, 1e-9)

	// Every boundary point stays within the bounding box.
	for _, p := range coords {
		assert.GreaterOrEqual(t, p.X, -1e-9)
		assert.LessOrEqual(t, p.X, 10.0+1e-9)
		assert.GreaterOrEqual(t, p.Y, -1e-9)
		assert.LessOrEqual(t, p.Y, 6.0+1e-9)
	}
}

func TestDecodeSubPixel(t *testing.T) {
	be := binary.BigEndian
	n := 2
	payload := int16Coords([]int16{1, 2}, []int16{3, 4})
	floats := make([]byte, 8*n)
	for i, x := range []float32{1.5, 2.5} {
		be.PutUint32(floats[4*i:], math.Float32bits(x))
	}
	for i, y := range []float32{3.25, 4.75} {
		be.PutUint32(floats[4*n+4*i:], math.Float32bits(y))
	}
	data := roiBlob(227, typeFreehand, 3, 1, 5, 3, n, optSubPixelResolution, append(payload, floats...))

	coords, err := DecodeROI(data)
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point2D{
		{X: 1.5, Y: 3.25},
		{X: 2.5, Y: 4.75},
	}, coords)
}

func TestDecodeSubPixelIgnoredOnOldVersion(t *testing.T) {
	// Versions before the sub-pixel format must read the int16 block even
	// when the option bit happens to be set.
	payload := int16Coords([]int16{0, 1}, []int16{0, 1})
	data := roiBlob(200, typePolygon, 10, 10, 11, 11, 2, optSubPixelResolution, payload)

	coords, err := DecodeROI(data)
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point2D{
		{X: 10, Y: 10},
		{X: 11, Y: 11},
	}, coords)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"too short", []byte("Iout")},
		{"bad magic", roiBlob(218, typePolygon, 0, 0, 1, 1, 0, 0, nil)[4:]},
		{"unsupported type", roiBlob(218, 10, 0, 0, 1, 1, 0, 0, nil)},
		{"truncated coords", roiBlob(218, typePolygon, 0, 0, 1, 1, 100, 0, nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeROI(tc.data)
			assert.Error(t, err)
		})
	}

	bad := roiBlob(218, typePolygon, 0, 0, 1, 1, 0, 0, nil)
	copy(bad, "Xout")
	_, err := DecodeROI(bad)
	assert.Error(t, err)
}

func TestDecodeNoROI(t *testing.T) {
	coords, err := DecodeROI(roiBlob(218, typeNoROI, 0, 0, 0, 0, 0, 0, nil))
	require.NoError(t, err)
	assert.Nil(t, coords)
}

func TestReadZipSortedOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rois.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	// Written out of order on purpose; decode order must be by name.
	entries := map[string][]byte{
		"0002.roi":  roiBlob(218, typeRect, 0, 0, 2, 2, 0, 0, nil),
		"0001.roi":  roiBlob(218, typePolygon, 0, 0, 1, 1, 3, 0, int16Coords([]int16{0, 1, 0}, []int16{0, 0, 1})),
		"notes.txt": []byte("ignored"),
	}
	for _, name := range []string{"0002.roi", "notes.txt", "0001.roi"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	rois, err := ReadZip(path)
	require.NoError(t, err)
	require.Len(t, rois, 2)
	assert.Equal(t, "0001.roi", rois[0].Name)
	assert.Equal(t, "0002.roi", rois[1].Name)
	assert.Len(t, rois[0].Coords, 3)
	assert.Len(t, rois[1].Coords, 4)
}
