package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/deepdaiv-multimodal/bubblelatte/dataset"
	"github.com/deepdaiv-multimodal/bubblelatte/logger"
	"github.com/deepdaiv-multimodal/bubblelatte/media"
	"github.com/deepdaiv-multimodal/bubblelatte/storage"
	"github.com/deepdaiv-multimodal/bubblelatte/tokenize"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := loadConfig()
	logr := logger.New(cfg.LogLevel)

	switch os.Args[1] {
	case "precache":
		runPrecache(cfg, logr)
	case "inspect":
		runInspect(cfg, logr)
	case "fetch":
		runFetch(cfg, logr)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: bubblelatte <precache|inspect|fetch>")
	fmt.Fprintln(os.Stderr, "  precache  serialize every example of the configured dataset to CACHE_DIR")
	fmt.Fprintln(os.Stderr, "  inspect   print item count and first-example shapes")
	fmt.Fprintln(os.Stderr, "  fetch     download catalog media missing locally from the S3 mirror")
	fmt.Fprintln(os.Stderr, "configuration is environment-driven; see config.go for variables")
}

// buildDataset wires the configured variant with the ffmpeg backend and the
// tokenizer. The cached variant needs neither.
func buildDataset(cfg appConfig, logr logger.Logger) (dataset.Dataset, error) {
	if cfg.Kind == "cached" {
		return dataset.NewCachedDataset(cfg.CacheDir, logr), nil
	}

	backend := media.NewFFmpeg(logr)
	enc, err := tokenize.NewEncoder(cfg.TokenizerPath, 0)
	if err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case "json":
		return dataset.NewJSONDataset(dataset.JSONConfig{
			Width:          cfg.Width,
			Height:         cfg.Height,
			NSampleFrames:  cfg.NFrames,
			SampleStartIdx: cfg.SampleStartIdx,
			FrameStep:      cfg.FrameStep,
			JSONPath:       cfg.JSONPath,
			UseBucketing:   cfg.UseBucketing,
		}, backend, enc, logr), nil
	case "single_video":
		return dataset.NewSingleVideoDataset(dataset.SingleVideoConfig{
			Width:         cfg.Width,
			Height:        cfg.Height,
			NSampleFrames: cfg.NFrames,
			FrameStep:     cfg.FrameStep,
			VideoPath:     cfg.VideoPath,
			Prompt:        cfg.Prompt,
			UseBucketing:  cfg.UseBucketing,
		}, backend, enc, logr), nil
	case "image":
		return dataset.NewImageDataset(dataset.ImageConfig{
			Width:          cfg.Width,
			Height:         cfg.Height,
			ImageDir:       cfg.ImageDir,
			Prompt:         cfg.Prompt,
			FallbackPrompt: cfg.FallbackPrompt,
			UseBucketing:   cfg.UseBucketing,
		}, backend, enc, logr), nil
	case "folder":
		return dataset.NewFolderDataset(dataset.FolderConfig{
			Width:          cfg.Width,
			Height:         cfg.Height,
			NSampleFrames:  cfg.NFrames,
			FPS:            cfg.FPS,
			Root:           cfg.Root,
			CSVPath:        cfg.CSVPath,
			Split:          cfg.Split,
			Labels:         cfg.Labels,
			BlocklistPath:  cfg.BlocklistPath,
			MinClassCount:  cfg.MinClassCount,
			Repeat:         cfg.Repeat,
			FallbackPrompt: cfg.FallbackPrompt,
			MaxRetries:     cfg.MaxRetries,
			Seed:           cfg.Seed,
		}, backend, backend, enc, logr), nil
	default:
		return nil, fmt.Errorf("unknown dataset kind %q", cfg.Kind)
	}
}

func runPrecache(cfg appConfig, logr logger.Logger) {
	ds, err := buildDataset(cfg, logr)
	if err != nil {
		log.Fatalf("building dataset: %v", err)
	}

	n := ds.Len()
	log.Printf("precaching %d items from %q dataset into %s", n, ds.Name(), cfg.CacheDir)

	written := 0
	for i := 0; i < n; i++ {
		ex, err := ds.Item(i)
		if err != nil {
			logr.Warnf("skipping item %d: %v", i, err)
			continue
		}
		if err := dataset.WriteExample(cfg.CacheDir, i, ex); err != nil {
			log.Fatalf("writing item %d: %v", i, err)
		}
		written++
	}
	log.Printf("precache complete: %d/%d items written", written, n)
}

func runInspect(cfg appConfig, logr logger.Logger) {
	ds, err := buildDataset(cfg, logr)
	if err != nil {
		log.Fatalf("building dataset: %v", err)
	}

	n := ds.Len()
	log.Printf("dataset %q: %d items", ds.Name(), n)
	if n == 0 {
		return
	}

	ex, err := ds.Item(0)
	if err != nil {
		log.Fatalf("loading first item: %v", err)
	}
	log.Printf("pixel shape: %v", ex.PixelValues.Shape())
	if ex.AudioValues != nil {
		log.Printf("audio shape: %v", ex.AudioValues.Shape())
	}
	log.Printf("prompt ids: %d, prompt: %q", len(ex.PromptIDs), ex.TextPrompt)
}

func runFetch(cfg appConfig, logr logger.Logger) {
	if cfg.S3Bucket == "" {
		log.Fatal("fetch requires S3_BUCKET")
	}

	ids, err := dataset.CatalogIDs(cfg.CSVPath, cfg.Split, cfg.Labels, cfg.BlocklistPath, cfg.MinClassCount)
	if err != nil {
		log.Fatalf("loading catalog: %v", err)
	}

	ctx := context.Background()
	mirror, err := storage.NewMirror(ctx, storage.Config{
		Region:       cfg.S3Region,
		Profile:      cfg.S3Profile,
		UsePathStyle: cfg.S3UsePathStyle,
	}, cfg.S3Bucket, cfg.S3Prefix, logr)
	if err != nil {
		log.Fatalf("initializing mirror: %v", err)
	}

	n, err := mirror.SyncCatalog(ctx, ids, cfg.Root)
	if err != nil {
		log.Fatalf("syncing catalog media: %v", err)
	}
	log.Printf("fetch complete: %d file(s) downloaded for %d catalog id(s)", n, len(ids))
}
