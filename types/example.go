package types

import "gorgonia.org/tensor"

// Example is one training record produced by a dataset. PixelValues is an
// (f, c, h, w) float32 tensor rescaled to [-1, 1]. AudioValues and YTID are
// only set by the folder (video+audio) variant.
type Example struct {
	PixelValues *tensor.Dense
	PromptIDs   []int64
	TextPrompt  string
	Dataset     string
	AudioValues *tensor.Dense
	YTID        string
}

// Clip is one flattened manifest entry: a video on disk, the frame offset to
// sample from, and the caption for that window. ClipPath, when set, points at
// a pre-cut clip file that replaces the parent video.
type Clip struct {
	VideoPath  string
	FrameIndex int
	Prompt     string
	ClipPath   string
}
