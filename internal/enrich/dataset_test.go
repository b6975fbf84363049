package enrich

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
}

func TestDiscover(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "A549_rep1"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(base, "A549_rep2"), 0o755))
	touch(t, base, "notes.txt")

	dirs, err := Discover(base)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(base, "A549_rep1"),
		filepath.Join(base, "A549_rep2"),
	}, dirs)
}

func TestFindInputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"A549 Cap Intensity.tif",
		"A549 G3BP1 Intensity.tif",
		"A549 Mask.zip",
		"A549 Perimeter Mask.zip",
		"readme.txt",
	)

	ds, err := FindInputs(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(dir), ds.Name)
	require.Len(t, ds.Channels, 2)
	assert.Equal(t, "Cap", ds.Channels[0].Name)
	assert.Equal(t, "G3BP1", ds.Channels[1].Name)
	assert.Equal(t, filepath.Join(dir, "A549 Mask.zip"), ds.ParticleZip)
	assert.Equal(t, filepath.Join(dir, "A549 Perimeter Mask.zip"), ds.PerimeterZip)
}

func TestFindInputsDilatedFallback(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"Cap Intensity.tif",
		"Mask.zip",
		"Dilated Mask.zip",
	)

	ds, err := FindInputs(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Dilated Mask.zip"), ds.PerimeterZip)
	assert.Equal(t, filepath.Join(dir, "Mask.zip"), ds.ParticleZip)
}

func TestFindInputsMissingPieces(t *testing.T) {
	cases := []struct {
		name  string
		files []string
	}{
		{"no intensity", []string{"Mask.zip", "Perimeter Mask.zip"}},
		{"no particle zip", []string{"Cap Intensity.tif", "Perimeter Mask.zip"}},
		{"no perimeter zip", []string{"Cap Intensity.tif", "Mask.zip"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, tc.files...)
			_, err := FindInputs(dir)
			assert.Error(t, err)
		})
	}
}
