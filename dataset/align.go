package dataset

import (
	"fmt"

	"github.com/deepdaiv-multimodal/bubblelatte/media"
)

const (
	// audioTileFactor repeats short clips so the sliced window never runs
	// off the end of a source shorter than the video window.
	audioTileFactor = 10
	// referenceFPS and referenceFrames fix the video-to-audio conversion:
	// frame indices are interpreted against a 30 fps clock and window
	// length against a 24-frame unit.
	referenceFPS    = 30
	referenceFrames = 24
)

// AlignAudio slices the waveform window matching a frame window. The source
// is tiled audioTileFactor times and capped at audioTileFactor seconds, then
// sliced at start = rate*idxs[0]/referenceFPS for
// len(idxs)/referenceFrames*rate samples. The result may be shorter than
// requested near the end of the tiled signal; callers compare it against
// ExpectedAudioLen.
func AlignAudio(w *media.Waveform, idxs []int) (*media.Waveform, error) {
	if len(idxs) == 0 {
		return nil, fmt.Errorf("empty frame window")
	}
	if len(w.Samples) == 0 {
		return nil, fmt.Errorf("empty waveform")
	}

	rate := w.SampleRate
	tiled := w.Tile(audioTileFactor).Truncate(rate * audioTileFactor)

	start := rate * idxs[0] / referenceFPS
	length := int(float64(len(idxs)) / referenceFrames * float64(rate))

	return &media.Waveform{
		Samples:    tiled.Slice(start, length),
		SampleRate: rate,
	}, nil
}

// ExpectedAudioLen is the sample count a well-formed example must carry for
// an nFrames window at the given output frame rate, assuming 16 kHz audio.
func ExpectedAudioLen(nFrames, fps int) int {
	return int(16000 * float64(nFrames) / float64(fps))
}
