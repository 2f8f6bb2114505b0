package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	idA = strings.Repeat("a", 11)
	idB = strings.Repeat("b", 11)
	idC = strings.Repeat("c", 11)
	idD = strings.Repeat("d", 11)
)

func writeCatalog(t *testing.T, dir string) string {
	t.Helper()
	csv := "ytid,set,class\n" +
		idA + ",train,dog\n" +
		idB + ",train,dog\n" +
		idC + ",test,dog\n" +
		idD + ",train,cat\n"
	path := filepath.Join(dir, "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	return path
}

// writeMedia creates <root>/video/<id>.mp4 and <root>/audio/<id>.wav stubs.
func writeMedia(t *testing.T, root string, ids ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "video"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "audio"), 0o755))
	for _, id := range ids {
		require.NoError(t, os.WriteFile(filepath.Join(root, "video", id+".mp4"), nil, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "audio", id+".wav"), nil, 0o644))
	}
}

func TestCatalogIDs(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCatalog(t, dir)

	t.Run("split filter", func(t *testing.T) {
		ids, err := CatalogIDs(csvPath, "train", nil, "", 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{idA, idB, idD}, ids)
	})

	t.Run("label filter", func(t *testing.T) {
		ids, err := CatalogIDs(csvPath, "train", []string{"dog"}, "", 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{idA, idB}, ids)
	})

	t.Run("blocklist", func(t *testing.T) {
		blockPath := filepath.Join(dir, "block.json")
		require.NoError(t, os.WriteFile(blockPath, []byte(`["`+idA+`"]`), 0o644))

		ids, err := CatalogIDs(csvPath, "train", []string{"dog"}, blockPath, 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{idB}, ids)
	})

	t.Run("min class count", func(t *testing.T) {
		// dog has two train rows, cat only one.
		ids, err := CatalogIDs(csvPath, "train", nil, "", 2)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{idA, idB}, ids)
	})

	t.Run("missing catalog", func(t *testing.T) {
		_, err := CatalogIDs(filepath.Join(dir, "nope.csv"), "train", nil, "", 0)
		assert.Error(t, err)
	})
}

func TestFolderDatasetJoin(t *testing.T) {
	root := t.TempDir()
	csvPath := writeCatalog(t, root)
	writeMedia(t, root, idA, idB)
	// idD exists only as video: must be excluded from the join.
	require.NoError(t, os.WriteFile(filepath.Join(root, "video", idD+".mp4"), nil, 0o644))

	cfg := FolderConfig{
		Width: 8, Height: 6, NSampleFrames: 24, FPS: 24,
		Root: root, CSVPath: csvPath, Split: "train",
		Repeat: 3,
	}
	opener := &fakeOpener{fallback: &fakeReader{frames: 100, fps: 30, w: 640, h: 480}}
	d := NewFolderDataset(cfg, opener, &fakeAudio{wave: rampWave(16000, 16000)}, &fakeEncoder{}, &mockLogger{})

	assert.Equal(t, 6, d.Len(), "two joined ids replicated 3 times")
}

func TestFolderDatasetMissingCatalogIsEmpty(t *testing.T) {
	d := NewFolderDataset(FolderConfig{CSVPath: "nope.csv", Root: t.TempDir()},
		&fakeOpener{}, &fakeAudio{wave: rampWave(16000, 16000)}, &fakeEncoder{}, &mockLogger{})
	assert.Equal(t, 0, d.Len())
}

func newTestFolderDataset(t *testing.T, opener *fakeOpener) *FolderDataset {
	t.Helper()
	root := t.TempDir()
	csvPath := writeCatalog(t, root)
	writeMedia(t, root, idA, idB)

	caption := filepath.Join(root, "video", idA+".txt")
	require.NoError(t, os.WriteFile(caption, []byte("a dog barking"), 0o644))

	cfg := FolderConfig{
		Width: 8, Height: 6, NSampleFrames: 24, FPS: 24,
		Root: root, CSVPath: csvPath, Split: "train",
		Repeat: 1, FallbackPrompt: "a video of <*>", Seed: 7,
	}
	d := NewFolderDataset(cfg, opener, &fakeAudio{wave: rampWave(16000, 16000)}, &fakeEncoder{}, &mockLogger{})
	require.Equal(t, 2, d.Len())
	return d
}

func TestFolderDatasetItem(t *testing.T) {
	opener := &fakeOpener{fallback: &fakeReader{frames: 100, fps: 30, w: 640, h: 480}}
	d := newTestFolderDataset(t, opener)

	// Files sort by path, so index 0 is idA.
	ex, err := d.Item(0)
	require.NoError(t, err)
	assert.Equal(t, "folder", ex.Dataset)
	assert.Equal(t, idA, ex.YTID)
	assert.Equal(t, "a dog barking", ex.TextPrompt)
	assert.Equal(t, []int{24, 3, 6, 8}, []int(ex.PixelValues.Shape()))
	assert.Equal(t, []int{1, 16000}, []int(ex.AudioValues.Shape()))
	assert.Len(t, ex.PromptIDs, 77)

	ex, err = d.Item(1)
	require.NoError(t, err)
	assert.Equal(t, idB, ex.YTID)
	assert.Equal(t, "a video of <*>", ex.TextPrompt, "id without sidecar uses the fallback")
}

func TestFolderDatasetRetrySubstitutesKnownGood(t *testing.T) {
	good := &fakeReader{frames: 100, fps: 30, w: 640, h: 480}
	opener := &fakeOpener{fallback: good, readers: map[string]*fakeReader{}}
	d := newTestFolderDataset(t, opener)

	// idB's video always fails to decode.
	opener.readers[d.files[1]] = &fakeReader{frames: 100, fps: 30, fail: true}

	// Mark index 0 known-good first.
	ex, err := d.Item(0)
	require.NoError(t, err)
	require.Equal(t, idA, ex.YTID)

	// Index 1 fails and must be substituted by the only known-good index.
	ex, err = d.Item(1)
	require.NoError(t, err)
	assert.Equal(t, idA, ex.YTID)
}

func TestFolderDatasetNoKnownGoodFailsFast(t *testing.T) {
	opener := &fakeOpener{fallback: &fakeReader{frames: 100, fps: 30, fail: true}}
	d := newTestFolderDataset(t, opener)

	_, err := d.Item(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no known-good substitute")
}

func TestFolderDatasetShortSourceFailsDecode(t *testing.T) {
	// 10 frames cannot host a 24-frame window; the selector's fallback
	// start lands out of range and the decode step must reject it.
	opener := &fakeOpener{fallback: &fakeReader{frames: 10, fps: 30, w: 640, h: 480}}
	d := newTestFolderDataset(t, opener)

	_, err := d.Item(0)
	assert.Error(t, err)
}

func TestAudioPath(t *testing.T) {
	got := audioPath(filepath.Join("data", "video", "abc.mp4"))
	assert.Equal(t, filepath.Join("data", "audio", "abc.wav"), got)
}
