package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/deepdaiv-multimodal/bubblelatte/logger"
	"github.com/deepdaiv-multimodal/bubblelatte/media"
	"github.com/deepdaiv-multimodal/bubblelatte/types"
)

// ImgTypes are the image extensions the flat-directory variant accepts.
var ImgTypes = []string{".png", ".jpg", ".jpeg", ".bmp"}

// ImageConfig configures the flat image-directory variant.
type ImageConfig struct {
	Width          int
	Height         int
	ImageDir       string
	Prompt         string
	FallbackPrompt string
	UseBucketing   bool
}

// ImageDataset serves single images as one-frame examples. Captions resolve
// through the shared policy: the configured prompt, a sidecar .txt file, or
// the fallback.
type ImageDataset struct {
	cfg     ImageConfig
	files   []string
	decoder media.ImageDecoder
	enc     PromptEncoder
	log     logger.Logger
}

// NewImageDataset lists the directory once, sorted by filename. A missing
// directory leaves the dataset empty.
func NewImageDataset(cfg ImageConfig, decoder media.ImageDecoder, enc PromptEncoder, log logger.Logger) *ImageDataset {
	files, err := listImages(cfg.ImageDir)
	if err != nil {
		log.Warnf("listing images in %s: %v; dataset will be empty", cfg.ImageDir, err)
		files = nil
	}
	return &ImageDataset{
		cfg:     cfg,
		files:   files,
		decoder: decoder,
		enc:     enc,
		log:     log,
	}
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !hasExt(e.Name(), ImgTypes) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (d *ImageDataset) Name() string { return "image" }

func (d *ImageDataset) Len() int { return len(d.files) }

func (d *ImageDataset) Item(index int) (*types.Example, error) {
	if index < 0 || index >= len(d.files) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(d.files))
	}
	path := d.files[index]

	w, h := d.cfg.Width, d.cfg.Height
	if d.cfg.UseBucketing {
		srcW, srcH, err := d.decoder.Size(path)
		if err != nil {
			return nil, fmt.Errorf("probing %s: %w", path, err)
		}
		w, h = media.BucketResolution(w, h, srcW, srcH)
	}

	pixels, err := d.decoder.Decode(path, w, h)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	Rescale(pixels)

	prompt := ResolvePrompt(d.log, d.cfg.Prompt, d.cfg.FallbackPrompt, path, ImgTypes, true)
	ids, err := d.enc.PromptIDs(prompt)
	if err != nil {
		return nil, fmt.Errorf("tokenizing prompt: %w", err)
	}

	return &types.Example{
		PixelValues: pixels,
		PromptIDs:   ids,
		TextPrompt:  prompt,
		Dataset:     d.Name(),
	}, nil
}
