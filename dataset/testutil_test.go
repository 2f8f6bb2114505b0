package dataset

import (
	"errors"
	"fmt"

	"gorgonia.org/tensor"

	"github.com/deepdaiv-multimodal/bubblelatte/media"
)

// mockLogger is a no-op logger for tests.
type mockLogger struct{}

func (m *mockLogger) Debugf(format string, v ...interface{}) {}
func (m *mockLogger) Infof(format string, v ...interface{})  {}
func (m *mockLogger) Warnf(format string, v ...interface{})  {}
func (m *mockLogger) Errorf(format string, v ...interface{}) {}

// fakeReader serves synthetic frames; every pixel of frame i carries the
// value float32(i) so tests can identify which frames were read.
type fakeReader struct {
	frames int
	fps    float64
	w, h   int
	fail   bool
}

func (r *fakeReader) FrameCount() int  { return r.frames }
func (r *fakeReader) FPS() float64     { return r.fps }
func (r *fakeReader) Size() (int, int) { return r.w, r.h }

func (r *fakeReader) ReadFrames(idxs []int, outW, outH int) (*tensor.Dense, error) {
	if r.fail {
		return nil, errors.New("simulated decode failure")
	}
	for _, i := range idxs {
		if i < 0 || i >= r.frames {
			return nil, fmt.Errorf("frame index %d out of range [0, %d)", i, r.frames)
		}
	}

	frameSize := 3 * outH * outW
	data := make([]float32, len(idxs)*frameSize)
	for fi, idx := range idxs {
		for j := 0; j < frameSize; j++ {
			data[fi*frameSize+j] = float32(idx)
		}
	}
	return tensor.New(
		tensor.WithShape(len(idxs), 3, outH, outW),
		tensor.WithBacking(data),
	), nil
}

// fakeOpener returns per-path readers and records which paths were opened.
type fakeOpener struct {
	readers map[string]*fakeReader
	// fallback serves any path not in readers; nil means open fails.
	fallback *fakeReader
	opened   []string
}

func (o *fakeOpener) Open(path string) (media.Reader, error) {
	o.opened = append(o.opened, path)
	if r, ok := o.readers[path]; ok {
		return r, nil
	}
	if o.fallback != nil {
		return o.fallback, nil
	}
	return nil, fmt.Errorf("no such video %s", path)
}

// fakeAudio serves the same waveform for every path.
type fakeAudio struct {
	wave *media.Waveform
	err  error
}

func (a *fakeAudio) LoadWaveform(path string) (*media.Waveform, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &media.Waveform{Samples: a.wave.Samples, SampleRate: a.wave.SampleRate}, nil
}

// fakeEncoder returns a fixed-length id sequence; the first id is the
// prompt's byte length so tests can tell prompts apart.
type fakeEncoder struct {
	length int
}

func (e *fakeEncoder) PromptIDs(prompt string) ([]int64, error) {
	n := e.length
	if n == 0 {
		n = 77
	}
	ids := make([]int64, n)
	ids[0] = int64(len(prompt))
	return ids, nil
}

// rampWave builds a waveform whose sample i has value i, for slice checks.
func rampWave(n, rate int) *media.Waveform {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(i)
	}
	return &media.Waveform{Samples: samples, SampleRate: rate}
}
