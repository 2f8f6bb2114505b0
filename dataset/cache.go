package dataset

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorgonia.org/tensor"

	"github.com/deepdaiv-multimodal/bubblelatte/logger"
	"github.com/deepdaiv-multimodal/bubblelatte/types"
)

const cacheExt = ".gob"

// exampleBlob is the serialized form of an example: raw float32 backing
// plus shape, which survives gob without depending on tensor internals.
type exampleBlob struct {
	PixelShape []int
	Pixel      []float32
	AudioShape []int
	Audio      []float32
	PromptIDs  []int64
	TextPrompt string
	Dataset    string
	YTID       string
}

// CachedDataset replays examples previously serialized to a directory, in
// filename sort order, with no transformation applied.
type CachedDataset struct {
	dir   string
	files []string
	log   logger.Logger
}

// NewCachedDataset lists the cache directory. A missing directory leaves
// the dataset empty.
func NewCachedDataset(dir string, log logger.Logger) *CachedDataset {
	d := &CachedDataset{dir: dir, log: log}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warnf("listing cache dir %s: %v; dataset will be empty", dir, err)
		return d
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), cacheExt) {
			continue
		}
		d.files = append(d.files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(d.files)
	return d
}

func (d *CachedDataset) Name() string { return "cached" }

func (d *CachedDataset) Len() int { return len(d.files) }

func (d *CachedDataset) Item(index int) (*types.Example, error) {
	if index < 0 || index >= len(d.files) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(d.files))
	}

	f, err := os.Open(d.files[index])
	if err != nil {
		return nil, fmt.Errorf("opening cached example: %w", err)
	}
	defer f.Close()

	var blob exampleBlob
	if err := gob.NewDecoder(f).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decoding cached example %s: %w", d.files[index], err)
	}

	ex := &types.Example{
		PromptIDs:  blob.PromptIDs,
		TextPrompt: blob.TextPrompt,
		Dataset:    blob.Dataset,
		YTID:       blob.YTID,
	}
	if len(blob.Pixel) > 0 {
		ex.PixelValues = tensor.New(tensor.WithShape(blob.PixelShape...), tensor.WithBacking(blob.Pixel))
	}
	if len(blob.Audio) > 0 {
		ex.AudioValues = tensor.New(tensor.WithShape(blob.AudioShape...), tensor.WithBacking(blob.Audio))
	}
	return ex, nil
}

// WriteExample serializes one example into dir as a zero-padded, sortable
// filename. Used by the precache flow.
func WriteExample(dir string, index int, ex *types.Example) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	blob := exampleBlob{
		PromptIDs:  ex.PromptIDs,
		TextPrompt: ex.TextPrompt,
		Dataset:    ex.Dataset,
		YTID:       ex.YTID,
	}
	if ex.PixelValues != nil {
		blob.PixelShape = []int(ex.PixelValues.Shape())
		blob.Pixel = ex.PixelValues.Data().([]float32)
	}
	if ex.AudioValues != nil {
		blob.AudioShape = []int(ex.AudioValues.Shape())
		blob.Audio = ex.AudioValues.Data().([]float32)
	}

	path := filepath.Join(dir, fmt.Sprintf("%08d%s", index, cacheExt))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(&blob); err != nil {
		return fmt.Errorf("encoding example %d: %w", index, err)
	}
	return nil
}
