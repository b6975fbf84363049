package intensity

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeResolutionTIFF assembles a little-endian TIFF header and one IFD
// carrying XResolution (num/denom) and ResolutionUnit tags.
func writeResolutionTIFF(t *testing.T, num, denom uint32, unit uint16) string {
	t.Helper()
	le := binary.LittleEndian

	// Header (8) + entry count (2) + 2 entries (24) + next-IFD (4) = 38.
	const rationalOffset = 38
	buf := make([]byte, rationalOffset+8)
	copy(buf, "II")
	le.PutUint16(buf[2:], 42)
	le.PutUint32(buf[4:], 8) // IFD directly after the header

	le.PutUint16(buf[8:], 2) // two entries

	entry := buf[10:]
	le.PutUint16(entry[0:], tagXResolution)
	le.PutUint16(entry[2:], 5) // RATIONAL
	le.PutUint32(entry[4:], 1)
	le.PutUint32(entry[8:], rationalOffset)

	entry = buf[22:]
	le.PutUint16(entry[0:], tagResolutionUnit)
	le.PutUint16(entry[2:], 3) // SHORT
	le.PutUint32(entry[4:], 1)
	le.PutUint32(entry[8:], uint32(unit))

	le.PutUint32(buf[rationalOffset:], num)
	le.PutUint32(buf[rationalOffset+4:], denom)

	path := filepath.Join(t.TempDir(), "res.tif")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestResolutionInches(t *testing.T) {
	path := writeResolutionTIFF(t, 3000, 10, 2)
	dpi, err := Resolution(path)
	require.NoError(t, err)
	assert.InDelta(t, 300.0, dpi, 1e-9)
}

func TestResolutionCentimeters(t *testing.T) {
	path := writeResolutionTIFF(t, 100, 1, 3)
	dpi, err := Resolution(path)
	require.NoError(t, err)
	assert.InDelta(t, 254.0, dpi, 1e-9)
}

func TestResolutionNotTIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.tif")
	require.NoError(t, os.WriteFile(path, []byte("PNGnotreally"), 0o644))
	_, err := Resolution(path)
	assert.Error(t, err)
}
