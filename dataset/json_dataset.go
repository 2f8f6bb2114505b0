package dataset

import (
	"fmt"

	"github.com/deepdaiv-multimodal/bubblelatte/logger"
	"github.com/deepdaiv-multimodal/bubblelatte/media"
	"github.com/deepdaiv-multimodal/bubblelatte/types"
)

// JSONConfig configures the manifest-driven variant.
type JSONConfig struct {
	Width          int
	Height         int
	NSampleFrames  int
	SampleStartIdx int
	FrameStep      int
	JSONPath       string
	UseBucketing   bool
}

// JSONDataset serves clips listed in a nested JSON manifest. A clip with its
// own pre-cut file is read from frame SampleStartIdx; otherwise the parent
// video is read from the clip's recorded frame offset.
type JSONDataset struct {
	cfg    JSONConfig
	clips  []types.Clip
	opener media.Opener
	enc    PromptEncoder
	log    logger.Logger
}

// NewJSONDataset loads and flattens the manifest. A missing or malformed
// manifest leaves the dataset empty rather than failing construction.
func NewJSONDataset(cfg JSONConfig, opener media.Opener, enc PromptEncoder, log logger.Logger) *JSONDataset {
	clips, err := LoadManifest(cfg.JSONPath)
	if err != nil {
		log.Warnf("loading manifest: %v; dataset will be empty", err)
		clips = nil
	}
	return &JSONDataset{
		cfg:    cfg,
		clips:  clips,
		opener: opener,
		enc:    enc,
		log:    log,
	}
}

func (d *JSONDataset) Name() string { return "json" }

func (d *JSONDataset) Len() int { return len(d.clips) }

func (d *JSONDataset) Item(index int) (*types.Example, error) {
	if index < 0 || index >= len(d.clips) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(d.clips))
	}
	clip := d.clips[index]

	path := clip.VideoPath
	start := clip.FrameIndex
	if clip.ClipPath != "" {
		path = clip.ClipPath
		start = d.cfg.SampleStartIdx
	}

	r, err := d.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	idxs := FrameRange(r.FrameCount(), start, d.cfg.FrameStep, d.cfg.NSampleFrames)
	if len(idxs) == 0 {
		return nil, fmt.Errorf("no frames selectable from %s (start %d)", path, start)
	}

	srcW, srcH := r.Size()
	w, h := outputSize(d.cfg.UseBucketing, d.cfg.Width, d.cfg.Height, srcW, srcH)

	pixels, err := r.ReadFrames(idxs, w, h)
	if err != nil {
		return nil, fmt.Errorf("reading frames from %s: %w", path, err)
	}
	Rescale(pixels)

	ids, err := d.enc.PromptIDs(clip.Prompt)
	if err != nil {
		return nil, fmt.Errorf("tokenizing prompt: %w", err)
	}

	return &types.Example{
		PixelValues: pixels,
		PromptIDs:   ids,
		TextPrompt:  clip.Prompt,
		Dataset:     d.Name(),
	}, nil
}
