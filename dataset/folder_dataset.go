package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deepdaiv-multimodal/bubblelatte/logger"
	"github.com/deepdaiv-multimodal/bubblelatte/media"
	"github.com/deepdaiv-multimodal/bubblelatte/types"
)

// ytidLen is the length of a YouTube video id; catalog rows are matched
// against file stems by this prefix.
const ytidLen = 11

// DefaultMaxRetries caps how many substitute indices are tried after a
// decode or shape failure before the item is failed outright.
const DefaultMaxRetries = 10

// FolderConfig configures the filtered-catalog video+audio variant. The
// layout is <Root>/video/<id>.mp4 and <Root>/audio/<id>.wav with an optional
// <Root>/video/<id>.txt caption sidecar.
type FolderConfig struct {
	Width         int
	Height        int
	NSampleFrames int
	FPS           int
	Root          string
	CSVPath       string
	// Split selects rows by the catalog's "set" column, e.g. "train".
	Split string
	// Labels restricts rows to these class labels; nil keeps all classes.
	Labels []string
	// BlocklistPath is an optional JSON array of ids to exclude.
	BlocklistPath string
	// MinClassCount drops classes with fewer remaining rows; 0 disables.
	MinClassCount int
	// Repeat replicates the file list to lengthen an epoch; minimum 1.
	Repeat         int
	FallbackPrompt string
	// MaxRetries caps failure substitution; 0 selects DefaultMaxRetries.
	MaxRetries int
	Seed       int64
}

// FolderDataset joins a CSV catalog against the media actually on disk and
// serves video windows with aligned audio. Decode failures are retried
// against previously successful indices, so repeated reads of the same
// logical index are intentionally non-deterministic.
type FolderDataset struct {
	cfg        FolderConfig
	files      []string
	opener     media.Opener
	audio      media.AudioLoader
	enc        PromptEncoder
	log        logger.Logger
	rng        *rand.Rand
	maxRetries int

	// valid tracks indices that have decoded successfully; it is the pool
	// of substitutes used after a failure. Per-instance, never shared.
	valid map[int]struct{}
}

// NewFolderDataset loads and filters the catalog and joins it against the
// video/ and audio/ subdirectories. A missing catalog or directory leaves
// the dataset empty.
func NewFolderDataset(cfg FolderConfig, opener media.Opener, audio media.AudioLoader, enc PromptEncoder, log logger.Logger) *FolderDataset {
	if cfg.Repeat < 1 {
		cfg.Repeat = 1
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	d := &FolderDataset{
		cfg:        cfg,
		opener:     opener,
		audio:      audio,
		enc:        enc,
		log:        log,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		maxRetries: maxRetries,
		valid:      make(map[int]struct{}),
	}

	ids, err := CatalogIDs(cfg.CSVPath, cfg.Split, cfg.Labels, cfg.BlocklistPath, cfg.MinClassCount)
	if err != nil {
		log.Warnf("loading catalog: %v; dataset will be empty", err)
		return d
	}

	files, err := joinMediaDirs(cfg.Root, ids)
	if err != nil {
		log.Warnf("listing media under %s: %v; dataset will be empty", cfg.Root, err)
		return d
	}

	for i := 0; i < cfg.Repeat; i++ {
		d.files = append(d.files, files...)
	}
	return d
}

type catalogRow struct {
	ID    string
	Split string
	Class string
}

// CatalogIDs returns the retained catalog ids after split, label, block-list
// and per-class minimum-count filtering. Shared with the storage mirror so
// fetch and load agree on the id set.
func CatalogIDs(csvPath, split string, labels []string, blocklistPath string, minClassCount int) ([]string, error) {
	rows, err := loadCatalog(csvPath)
	if err != nil {
		return nil, err
	}

	labelSet := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		labelSet[l] = struct{}{}
	}

	var blocked map[string]struct{}
	if blocklistPath != "" {
		blocked, err = loadBlocklist(blocklistPath)
		if err != nil {
			return nil, err
		}
	}

	var kept []catalogRow
	for _, row := range rows {
		if row.Split != split {
			continue
		}
		if len(labelSet) > 0 {
			if _, ok := labelSet[row.Class]; !ok {
				continue
			}
		}
		if _, ok := blocked[row.ID]; ok {
			continue
		}
		kept = append(kept, row)
	}

	if minClassCount > 0 {
		counts := make(map[string]int)
		for _, row := range kept {
			counts[row.Class]++
		}
		filtered := kept[:0]
		for _, row := range kept {
			if counts[row.Class] >= minClassCount {
				filtered = append(filtered, row)
			}
		}
		kept = filtered
	}

	ids := make([]string, 0, len(kept))
	for _, row := range kept {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// loadCatalog parses the CSV catalog. Column positions are resolved from the
// header row; "ytid", "set" and "class" are required.
func loadCatalog(path string) ([]catalogRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("catalog %s is empty", path)
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"ytid", "set", "class"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("catalog %s is missing column %q", path, name)
		}
	}

	rows := make([]catalogRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, catalogRow{
			ID:    rec[col["ytid"]],
			Split: rec[col["set"]],
			Class: rec[col["class"]],
		})
	}
	return rows, nil
}

// loadBlocklist reads a JSON array of ids to exclude.
func loadBlocklist(path string) (map[string]struct{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading block-list %s: %w", path, err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("parsing block-list %s: %w", path, err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// joinMediaDirs keeps ids that exist as both video/<id>.mp4 and
// audio/<id>.wav and whose stem matches a catalog id by ytid prefix. The
// result is sorted for a stable base ordering.
func joinMediaDirs(root string, catalogIDs []string) ([]string, error) {
	videos, err := listStems(filepath.Join(root, "video"), ".mp4")
	if err != nil {
		return nil, err
	}
	audios, err := listStems(filepath.Join(root, "audio"), ".wav")
	if err != nil {
		return nil, err
	}

	idSet := make(map[string]struct{}, len(catalogIDs))
	for _, id := range catalogIDs {
		idSet[id] = struct{}{}
	}

	var files []string
	for stem := range videos {
		if _, ok := audios[stem]; !ok {
			continue
		}
		key := stem
		if len(key) > ytidLen {
			key = key[:ytidLen]
		}
		if _, ok := idSet[key]; !ok {
			continue
		}
		files = append(files, filepath.Join(root, "video", stem+".mp4"))
	}
	sort.Strings(files)
	return files, nil
}

func listStems(dir, ext string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	stems := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		stems[strings.TrimSuffix(e.Name(), ext)] = struct{}{}
	}
	return stems, nil
}

func (d *FolderDataset) Name() string { return "folder" }

func (d *FolderDataset) Len() int { return len(d.files) }

// VideoShape is the pixel shape every served example must match.
func (d *FolderDataset) VideoShape() []int {
	return []int{d.cfg.NSampleFrames, 3, d.cfg.Height, d.cfg.Width}
}

// AudioShape is the waveform shape every served example must match.
func (d *FolderDataset) AudioShape() []int {
	return []int{1, ExpectedAudioLen(d.cfg.NSampleFrames, d.cfg.FPS)}
}

// Item loads the example at index. On a decode or shape failure it
// substitutes a random previously successful index, up to MaxRetries
// attempts; with no prior success the failure is returned immediately.
func (d *FolderDataset) Item(index int) (*types.Example, error) {
	if index < 0 || index >= len(d.files) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(d.files))
	}

	for attempt := 0; ; attempt++ {
		ex, err := d.load(index)
		if err == nil {
			d.valid[index] = struct{}{}
			return ex, nil
		}

		if len(d.valid) == 0 {
			return nil, fmt.Errorf("item %d failed with no known-good substitute: %w", index, err)
		}
		if attempt >= d.maxRetries {
			return nil, fmt.Errorf("item failed after %d substitute attempts: %w", attempt, err)
		}

		substitute := d.randomValid()
		d.log.Warnf("item %d failed (%v); substituting %d", index, err, substitute)
		index = substitute
	}
}

func (d *FolderDataset) randomValid() int {
	idxs := make([]int, 0, len(d.valid))
	for i := range d.valid {
		idxs = append(idxs, i)
	}
	return idxs[d.rng.Intn(len(idxs))]
}

func (d *FolderDataset) load(index int) (*types.Example, error) {
	vidPath := d.files[index]

	r, err := d.opener.Open(vidPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", vidPath, err)
	}

	idxs := RateWindow(r.FrameCount(), r.FPS(), d.cfg.FPS, d.cfg.NSampleFrames, d.rng)
	if len(idxs) == 0 {
		return nil, fmt.Errorf("no frames selectable from %s", vidPath)
	}

	pixels, err := r.ReadFrames(idxs, d.cfg.Width, d.cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("reading frames from %s: %w", vidPath, err)
	}
	if !shapeEq(pixels.Shape(), d.VideoShape()) {
		return nil, fmt.Errorf("video shape %v from %s, want %v", pixels.Shape(), vidPath, d.VideoShape())
	}

	audPath := audioPath(vidPath)
	wave, err := d.audio.LoadWaveform(audPath)
	if err != nil {
		return nil, fmt.Errorf("loading audio %s: %w", audPath, err)
	}
	aligned, err := AlignAudio(wave, idxs)
	if err != nil {
		return nil, fmt.Errorf("aligning audio %s: %w", audPath, err)
	}
	wantAudio := ExpectedAudioLen(d.cfg.NSampleFrames, d.cfg.FPS)
	if len(aligned.Samples) != wantAudio {
		return nil, fmt.Errorf("audio length %d from %s, want %d", len(aligned.Samples), audPath, wantAudio)
	}

	Rescale(pixels)

	prompt := ResolvePrompt(d.log, "", d.cfg.FallbackPrompt, vidPath, []string{".mp4"}, true)
	ids, err := d.enc.PromptIDs(prompt)
	if err != nil {
		return nil, fmt.Errorf("tokenizing prompt: %w", err)
	}

	return &types.Example{
		PixelValues: pixels,
		PromptIDs:   ids,
		TextPrompt:  prompt,
		Dataset:     d.Name(),
		AudioValues: audioTensor(aligned),
		YTID:        stem(vidPath),
	}, nil
}

// audioPath maps <root>/video/<id>.mp4 to <root>/audio/<id>.wav.
func audioPath(vidPath string) string {
	dir, name := filepath.Split(vidPath)
	dir = filepath.Join(filepath.Dir(filepath.Clean(dir)), "audio")
	return filepath.Join(dir, strings.TrimSuffix(name, ".mp4")+".wav")
}

func stem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
