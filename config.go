package main

import (
	"os"
	"strconv"
	"strings"
)

// Default sampling geometry. Width/height match the folder variant's fixed
// expected shape; 24 frames at 24 fps keeps the aligned audio window equal
// to the expected audio length.
const (
	DefaultWidth  = 384
	DefaultHeight = 256
	DefaultFrames = 24
	DefaultFPS    = 24

	DefaultFallbackPrompt = "a video of <*>"
	DefaultSplit          = "train"
	DefaultRepeat         = 5
)

type appConfig struct {
	Kind     string
	LogLevel string

	Width   int
	Height  int
	NFrames int
	FPS     int

	TokenizerPath  string
	CacheDir       string
	FallbackPrompt string
	UseBucketing   bool

	// json variant
	JSONPath       string
	FrameStep      int
	SampleStartIdx int

	// single_video variant
	VideoPath string
	Prompt    string

	// image variant
	ImageDir string

	// folder variant
	Root          string
	CSVPath       string
	Split         string
	Labels        []string
	BlocklistPath string
	MinClassCount int
	Repeat        int
	MaxRetries    int
	Seed          int64

	// fetch subcommand
	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3Profile      string
	S3UsePathStyle bool
}

// loadConfig reads all settings from the environment, applying defaults.
func loadConfig() appConfig {
	return appConfig{
		Kind:     envStr("DATASET_KIND", "folder"),
		LogLevel: envStr("LOG_LEVEL", "info"),

		Width:   envInt("WIDTH", DefaultWidth),
		Height:  envInt("HEIGHT", DefaultHeight),
		NFrames: envInt("N_SAMPLE_FRAMES", DefaultFrames),
		FPS:     envInt("FPS", DefaultFPS),

		TokenizerPath:  envStr("TOKENIZER_PATH", "tokenizer.json"),
		CacheDir:       envStr("CACHE_DIR", "cache"),
		FallbackPrompt: envStr("FALLBACK_PROMPT", DefaultFallbackPrompt),
		UseBucketing:   envBool("USE_BUCKETING", false),

		JSONPath:       envStr("JSON_PATH", ""),
		FrameStep:      envInt("FRAME_STEP", 1),
		SampleStartIdx: envInt("SAMPLE_START_IDX", 1),

		VideoPath: envStr("VIDEO_PATH", ""),
		Prompt:    envStr("PROMPT", ""),

		ImageDir: envStr("IMAGE_DIR", ""),

		Root:          envStr("DATA_ROOT", "./data"),
		CSVPath:       envStr("CSV_PATH", ""),
		Split:         envStr("SPLIT", DefaultSplit),
		Labels:        envList("LABELS"),
		BlocklistPath: envStr("BLOCKLIST_PATH", ""),
		MinClassCount: envInt("MIN_CLASS_COUNT", 0),
		Repeat:        envInt("REPEAT", DefaultRepeat),
		MaxRetries:    envInt("MAX_RETRIES", 0),
		Seed:          int64(envInt("SEED", 0)),

		S3Bucket:       envStr("S3_BUCKET", ""),
		S3Prefix:       envStr("S3_PREFIX", ""),
		S3Region:       envStr("S3_REGION", ""),
		S3Profile:      envStr("S3_PROFILE", ""),
		S3UsePathStyle: envBool("S3_USE_PATH_STYLE", false),
	}
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

// envList splits a comma-separated env var into trimmed entries.
func envList(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
