package dataset

import (
	"fmt"
	"strings"

	"github.com/deepdaiv-multimodal/bubblelatte/logger"
	"github.com/deepdaiv-multimodal/bubblelatte/media"
	"github.com/deepdaiv-multimodal/bubblelatte/types"
)

// VidTypes are the video container extensions the datasets accept.
var VidTypes = []string{".mp4", ".avi", ".mov", ".webm", ".flv", ".mjpeg"}

// SingleVideoConfig configures the single-source chunking variant.
type SingleVideoConfig struct {
	Width         int
	Height        int
	NSampleFrames int
	FrameStep     int
	VideoPath     string
	Prompt        string
	UseBucketing  bool
}

// SingleVideoDataset partitions one video into consecutive non-overlapping
// windows of NSampleFrames; each window is one dataset index.
type SingleVideoDataset struct {
	cfg    SingleVideoConfig
	chunks [][]int
	opener media.Opener
	enc    PromptEncoder
	log    logger.Logger
}

// NewSingleVideoDataset probes the video once and precomputes its chunk
// table. An unreadable video or a non-video extension leaves the dataset
// empty.
func NewSingleVideoDataset(cfg SingleVideoConfig, opener media.Opener, enc PromptEncoder, log logger.Logger) *SingleVideoDataset {
	d := &SingleVideoDataset{
		cfg:    cfg,
		opener: opener,
		enc:    enc,
		log:    log,
	}

	if !hasExt(cfg.VideoPath, VidTypes) {
		log.Warnf("%s is not a video type %v; dataset will be empty", cfg.VideoPath, VidTypes)
		return d
	}

	r, err := opener.Open(cfg.VideoPath)
	if err != nil {
		log.Warnf("opening %s: %v; dataset will be empty", cfg.VideoPath, err)
		return d
	}

	d.chunks = Chunks(r.FrameCount(), cfg.FrameStep, cfg.NSampleFrames)
	return d
}

func (d *SingleVideoDataset) Name() string { return "single_video" }

func (d *SingleVideoDataset) Len() int { return len(d.chunks) }

func (d *SingleVideoDataset) Item(index int) (*types.Example, error) {
	if index < 0 || index >= len(d.chunks) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(d.chunks))
	}

	r, err := d.opener.Open(d.cfg.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", d.cfg.VideoPath, err)
	}

	srcW, srcH := r.Size()
	w, h := outputSize(d.cfg.UseBucketing, d.cfg.Width, d.cfg.Height, srcW, srcH)

	pixels, err := r.ReadFrames(d.chunks[index], w, h)
	if err != nil {
		return nil, fmt.Errorf("reading chunk %d from %s: %w", index, d.cfg.VideoPath, err)
	}
	Rescale(pixels)

	ids, err := d.enc.PromptIDs(d.cfg.Prompt)
	if err != nil {
		return nil, fmt.Errorf("tokenizing prompt: %w", err)
	}

	return &types.Example{
		PixelValues: pixels,
		PromptIDs:   ids,
		TextPrompt:  d.cfg.Prompt,
		Dataset:     d.Name(),
	}, nil
}

func hasExt(path string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
