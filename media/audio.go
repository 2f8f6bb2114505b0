package media

import (
	"bytes"
	"encoding/binary"
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Waveform is a mono audio signal as float32 samples in [-1, 1].
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// AudioLoader reads audio files into waveforms.
type AudioLoader interface {
	LoadWaveform(path string) (*Waveform, error)
}

// LoadWaveform decodes the file to mono signed 16-bit PCM at its native
// sample rate and converts it to float32.
func (f *FFmpeg) LoadWaveform(path string) (*Waveform, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}
	rate, err := audioStreamInfo(raw)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	buf := &bytes.Buffer{}
	err = ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{
			"format": "s16le",
			"acodec": "pcm_s16le",
			"ac":     1,
		}).
		WithOutput(buf).
		Silent(true).
		Run()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return &Waveform{
		Samples:    pcm16ToFloat32(buf.Bytes()),
		SampleRate: rate,
	}, nil
}

// pcm16ToFloat32 converts little-endian signed 16-bit PCM to float32.
func pcm16ToFloat32(raw []byte) []float32 {
	n := len(raw) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// Tile repeats the waveform end to end the given number of times.
func (w *Waveform) Tile(times int) *Waveform {
	if times < 1 {
		times = 1
	}
	out := make([]float32, 0, len(w.Samples)*times)
	for i := 0; i < times; i++ {
		out = append(out, w.Samples...)
	}
	return &Waveform{Samples: out, SampleRate: w.SampleRate}
}

// Slice returns length samples starting at start, clamped to the available
// range. Callers validate the returned length against their expected shape.
func (w *Waveform) Slice(start, length int) []float32 {
	if start < 0 {
		start = 0
	}
	if start > len(w.Samples) {
		start = len(w.Samples)
	}
	end := start + length
	if end > len(w.Samples) {
		end = len(w.Samples)
	}
	return w.Samples[start:end]
}

// Truncate caps the waveform at n samples.
func (w *Waveform) Truncate(n int) *Waveform {
	if n < 0 {
		n = 0
	}
	if n > len(w.Samples) {
		n = len(w.Samples)
	}
	return &Waveform{Samples: w.Samples[:n], SampleRate: w.SampleRate}
}
