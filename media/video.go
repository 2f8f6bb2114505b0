package media

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"gorgonia.org/tensor"

	"github.com/deepdaiv-multimodal/bubblelatte/logger"
)

// Reader provides frame-accurate random access into one video file.
type Reader interface {
	FrameCount() int
	FPS() float64
	// Size returns the native width and height.
	Size() (w, h int)
	// ReadFrames decodes the frames at idxs, scaled to outW x outH, and
	// returns them as an (f, c, h, w) float32 tensor with values in
	// [0, 255]. Indices may repeat; output order follows idxs.
	ReadFrames(idxs []int, outW, outH int) (*tensor.Dense, error)
}

// Opener opens video files for reading.
type Opener interface {
	Open(path string) (Reader, error)
}

// FFmpeg is the production decode backend. It shells out to ffmpeg/ffprobe
// for every operation and keeps no per-file state beyond probe metadata.
type FFmpeg struct {
	log logger.Logger
}

func NewFFmpeg(log logger.Logger) *FFmpeg {
	return &FFmpeg{log: log}
}

// Open probes the file and returns a Reader over it.
func (f *FFmpeg) Open(path string) (Reader, error) {
	info, err := Probe(path)
	if err != nil {
		return nil, err
	}
	return &videoFile{path: path, info: *info}, nil
}

type videoFile struct {
	path string
	info Info
}

func (v *videoFile) FrameCount() int { return v.info.FrameCount }
func (v *videoFile) FPS() float64    { return v.info.FPS }
func (v *videoFile) Size() (int, int) {
	return v.info.Width, v.info.Height
}

func (v *videoFile) ReadFrames(idxs []int, outW, outH int) (*tensor.Dense, error) {
	if len(idxs) == 0 {
		return nil, fmt.Errorf("no frame indices requested")
	}
	for _, i := range idxs {
		if i < 0 || i >= v.info.FrameCount {
			return nil, fmt.Errorf("frame index %d out of range [0, %d)", i, v.info.FrameCount)
		}
	}

	// Decode each distinct frame once; duplicates are filled in afterwards.
	unique := uniqueSorted(idxs)

	buf := &bytes.Buffer{}
	vf := fmt.Sprintf("select='%s',scale=%d:%d", selectExpr(unique), outW, outH)
	err := ffmpeg.Input(v.path).
		Output("pipe:", ffmpeg.KwArgs{
			"format":  "rawvideo",
			"pix_fmt": "rgb24",
			"vf":      vf,
			"vsync":   "0",
		}).
		WithOutput(buf).
		Silent(true).
		Run()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", v.path, err)
	}

	frameSize := outW * outH * 3
	if buf.Len() != len(unique)*frameSize {
		return nil, fmt.Errorf("decoded %d bytes from %s, want %d (%d frames)",
			buf.Len(), v.path, len(unique)*frameSize, len(unique))
	}

	pos := make(map[int]int, len(unique))
	for i, idx := range unique {
		pos[idx] = i
	}

	data := make([]float32, len(idxs)*frameSize)
	raw := buf.Bytes()
	for fi, idx := range idxs {
		src := raw[pos[idx]*frameSize : (pos[idx]+1)*frameSize]
		copyFrameCHW(data[fi*frameSize:(fi+1)*frameSize], src, outW, outH)
	}

	return tensor.New(
		tensor.WithShape(len(idxs), 3, outH, outW),
		tensor.WithBacking(data),
	), nil
}

// copyFrameCHW converts one interleaved RGB frame (h, w, c) into planar
// (c, h, w) float32.
func copyFrameCHW(dst []float32, src []byte, w, h int) {
	plane := w * h
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			p := (row + x) * 3
			dst[row+x] = float32(src[p])
			dst[plane+row+x] = float32(src[p+1])
			dst[2*plane+row+x] = float32(src[p+2])
		}
	}
}

// selectExpr builds the ffmpeg select expression matching exactly the given
// frame numbers, e.g. "eq(n,3)+eq(n,9)".
func selectExpr(idxs []int) string {
	terms := make([]string, len(idxs))
	for i, idx := range idxs {
		terms[i] = fmt.Sprintf("eq(n,%d)", idx)
	}
	return strings.Join(terms, "+")
}

func uniqueSorted(idxs []int) []int {
	seen := make(map[int]struct{}, len(idxs))
	out := make([]int, 0, len(idxs))
	for _, i := range idxs {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
