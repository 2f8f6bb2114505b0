package dataset

import (
	"gorgonia.org/tensor"

	"github.com/deepdaiv-multimodal/bubblelatte/media"
	"github.com/deepdaiv-multimodal/bubblelatte/types"
)

// Dataset is the interface consumed by the training harness. Item is called
// synchronously per index; implementations keep no shared mutable state, so
// separate instances can serve parallel workers without locking.
type Dataset interface {
	Len() int
	Item(index int) (*types.Example, error)
	Name() string
}

// PromptEncoder tokenizes caption text into fixed-length id sequences.
// Satisfied by tokenize.Encoder.
type PromptEncoder interface {
	PromptIDs(prompt string) ([]int64, error)
}

// Rescale maps pixel values from [0, 255] to [-1, 1] in place.
func Rescale(t *tensor.Dense) {
	data := t.Data().([]float32)
	for i := range data {
		data[i] = data[i]/127.5 - 1.0
	}
}

// outputSize resolves the decode resolution for one source, applying aspect
// bucketing against the native size when enabled.
func outputSize(useBucketing bool, targetW, targetH, srcW, srcH int) (int, int) {
	if !useBucketing {
		return targetW, targetH
	}
	return media.BucketResolution(targetW, targetH, srcW, srcH)
}

func shapeEq(got tensor.Shape, want []int) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// audioTensor wraps a waveform as a (1, n) tensor, keeping the channel
// dimension the training harness expects.
func audioTensor(w *media.Waveform) *tensor.Dense {
	return tensor.New(
		tensor.WithShape(1, len(w.Samples)),
		tensor.WithBacking(w.Samples),
	)
}
