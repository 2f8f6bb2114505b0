package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPCM16ToFloat32(t *testing.T) {
	// 0, 16384 (0.5), -32768 (-1.0) little endian.
	raw := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x80}
	got := pcm16ToFloat32(raw)

	assert.Len(t, got, 3)
	assert.InDelta(t, 0.0, got[0], 1e-6)
	assert.InDelta(t, 0.5, got[1], 1e-6)
	assert.InDelta(t, -1.0, got[2], 1e-6)
}

func TestPCM16ToFloat32OddLength(t *testing.T) {
	assert.Len(t, pcm16ToFloat32([]byte{0x01, 0x02, 0x03}), 1, "trailing byte is dropped")
}

func TestWaveformTile(t *testing.T) {
	w := &Waveform{Samples: []float32{1, 2}, SampleRate: 8}

	tiled := w.Tile(3)
	assert.Equal(t, []float32{1, 2, 1, 2, 1, 2}, tiled.Samples)
	assert.Equal(t, 8, tiled.SampleRate)

	assert.Equal(t, []float32{1, 2}, w.Tile(0).Samples, "times below 1 keeps one copy")
}

func TestWaveformSlice(t *testing.T) {
	w := &Waveform{Samples: []float32{0, 1, 2, 3, 4}, SampleRate: 8}

	assert.Equal(t, []float32{1, 2, 3}, w.Slice(1, 3))
	assert.Equal(t, []float32{3, 4}, w.Slice(3, 10), "end clamps to the data")
	assert.Equal(t, []float32{0, 1}, w.Slice(-2, 2), "negative start clamps to zero")
	assert.Empty(t, w.Slice(99, 2), "start past the end yields nothing")
}

func TestWaveformTruncate(t *testing.T) {
	w := &Waveform{Samples: []float32{0, 1, 2, 3}, SampleRate: 8}

	assert.Equal(t, []float32{0, 1}, w.Truncate(2).Samples)
	assert.Len(t, w.Truncate(99).Samples, 4)
	assert.Empty(t, w.Truncate(-1).Samples)
}
