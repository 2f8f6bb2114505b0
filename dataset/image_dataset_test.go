package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

// fakeDecoder satisfies media.ImageDecoder with constant pixels.
type fakeDecoder struct {
	srcW, srcH int
}

func (d *fakeDecoder) Decode(path string, outW, outH int) (*tensor.Dense, error) {
	data := make([]float32, 3*outH*outW)
	for i := range data {
		data[i] = 127.5
	}
	return tensor.New(tensor.WithShape(1, 3, outH, outW), tensor.WithBacking(data)), nil
}

func (d *fakeDecoder) Size(path string) (int, int, error) {
	return d.srcW, d.srcH, nil
}

func writeImageDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "notes.txt", "c.gif"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	return dir
}

func TestImageDatasetListing(t *testing.T) {
	dir := writeImageDir(t)
	d := NewImageDataset(ImageConfig{ImageDir: dir}, &fakeDecoder{}, &fakeEncoder{}, &mockLogger{})

	// Only supported extensions, sorted by filename.
	require.Equal(t, 2, d.Len())
	assert.Equal(t, filepath.Join(dir, "a.jpg"), d.files[0])
	assert.Equal(t, filepath.Join(dir, "b.png"), d.files[1])
}

func TestImageDatasetMissingDirIsEmpty(t *testing.T) {
	d := NewImageDataset(ImageConfig{ImageDir: "no/such/dir"}, &fakeDecoder{}, &fakeEncoder{}, &mockLogger{})
	assert.Equal(t, 0, d.Len())
}

func TestImageDatasetItem(t *testing.T) {
	dir := writeImageDir(t)
	sidecar := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(sidecar, []byte("a red bicycle"), 0o644))

	cfg := ImageConfig{
		Width:          64,
		Height:         48,
		ImageDir:       dir,
		FallbackPrompt: "an image",
	}
	d := NewImageDataset(cfg, &fakeDecoder{}, &fakeEncoder{}, &mockLogger{})

	ex, err := d.Item(0)
	require.NoError(t, err)
	assert.Equal(t, "image", ex.Dataset)
	assert.Equal(t, []int{1, 3, 48, 64}, []int(ex.PixelValues.Shape()))
	assert.Equal(t, "a red bicycle", ex.TextPrompt, "sidecar caption should be used")

	// Raw value 127.5 rescales to exactly 0.
	data := ex.PixelValues.Data().([]float32)
	assert.InDelta(t, 0.0, data[0], 1e-6)

	// b.png has no sidecar: fallback applies.
	ex, err = d.Item(1)
	require.NoError(t, err)
	assert.Equal(t, "an image", ex.TextPrompt)
}

func TestImageDatasetExplicitPrompt(t *testing.T) {
	dir := writeImageDir(t)
	cfg := ImageConfig{
		Width:    64,
		Height:   48,
		ImageDir: dir,
		Prompt:   "studio portrait",
	}
	d := NewImageDataset(cfg, &fakeDecoder{}, &fakeEncoder{}, &mockLogger{})

	ex, err := d.Item(1)
	require.NoError(t, err)
	assert.Equal(t, "studio portrait", ex.TextPrompt)
}
