package media

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Info describes the primary video stream of a media file.
type Info struct {
	Width      int
	Height     int
	FrameCount int
	FPS        float64
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	NbFrames     string `json:"nb_frames"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	Duration     string `json:"duration"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe runs ffprobe on the file and returns metadata for its first video
// stream. FrameCount falls back to duration*fps for containers that do not
// record nb_frames.
func Probe(path string) (*Info, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}
	return parseProbe(raw)
}

func parseProbe(raw string) (*Info, error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parsing probe output: %w", err)
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}

		fps := parseRate(s.AvgFrameRate)
		if fps == 0 {
			fps = parseRate(s.RFrameRate)
		}

		count, _ := strconv.Atoi(s.NbFrames)
		if count == 0 {
			dur := parseFloat(s.Duration)
			if dur == 0 {
				dur = parseFloat(out.Format.Duration)
			}
			count = int(dur * fps)
		}

		return &Info{
			Width:      s.Width,
			Height:     s.Height,
			FrameCount: count,
			FPS:        fps,
		}, nil
	}

	return nil, fmt.Errorf("no video stream found")
}

// parseRate parses an ffprobe rational such as "30000/1001" or "25".
func parseRate(r string) float64 {
	if r == "" || r == "0/0" {
		return 0
	}
	num, den, ok := strings.Cut(r, "/")
	if !ok {
		return parseFloat(r)
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// audioStreamInfo returns the sample rate of the first audio stream.
func audioStreamInfo(raw string) (sampleRate int, err error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return 0, fmt.Errorf("parsing probe output: %w", err)
	}
	for _, s := range out.Streams {
		if s.CodecType != "audio" {
			continue
		}
		rate, err := strconv.Atoi(s.SampleRate)
		if err != nil {
			return 0, fmt.Errorf("parsing sample rate %q: %w", s.SampleRate, err)
		}
		return rate, nil
	}
	return 0, fmt.Errorf("no audio stream found")
}
