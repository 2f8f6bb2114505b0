package media

import (
	"bytes"
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"gorgonia.org/tensor"
)

// ImageDecoder decodes still images into pixel tensors.
type ImageDecoder interface {
	// Decode reads the image scaled to outW x outH and returns a
	// (1, c, h, w) float32 tensor with values in [0, 255].
	Decode(path string, outW, outH int) (*tensor.Dense, error)
	// Size returns the native width and height without decoding pixels.
	Size(path string) (w, h int, err error)
}

// Decode implements ImageDecoder through the same raw-RGB pipe used for
// video frames. ffmpeg treats a still image as a single-frame stream.
func (f *FFmpeg) Decode(path string, outW, outH int) (*tensor.Dense, error) {
	buf := &bytes.Buffer{}
	err := ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{
			"format":   "rawvideo",
			"pix_fmt":  "rgb24",
			"vf":       fmt.Sprintf("scale=%d:%d", outW, outH),
			"frames:v": 1,
		}).
		WithOutput(buf).
		Silent(true).
		Run()
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}

	frameSize := outW * outH * 3
	if buf.Len() != frameSize {
		return nil, fmt.Errorf("decoded %d bytes from %s, want %d", buf.Len(), path, frameSize)
	}

	data := make([]float32, frameSize)
	copyFrameCHW(data, buf.Bytes(), outW, outH)

	return tensor.New(
		tensor.WithShape(1, 3, outH, outW),
		tensor.WithBacking(data),
	), nil
}

// Size probes the image dimensions.
func (f *FFmpeg) Size(path string) (int, int, error) {
	info, err := Probe(path)
	if err != nil {
		return 0, 0, err
	}
	return info.Width, info.Height, nil
}
