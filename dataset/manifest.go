package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/deepdaiv-multimodal/bubblelatte/types"
)

type manifestClip struct {
	FrameIndex int    `json:"frame_index"`
	Prompt     string `json:"prompt"`
	ClipPath   string `json:"clip_path"`
}

type manifestGroup struct {
	VideoPath string         `json:"video_path"`
	Data      []manifestClip `json:"data"`
}

type manifestFile struct {
	Data []manifestGroup `json:"data"`
}

// LoadManifest reads a nested clip manifest and flattens its groups into a
// single clip list. Each group contributes one entry per clip descriptor,
// carrying the group's video path alongside the clip's own offset, prompt
// and optional pre-cut file.
func LoadManifest(path string) ([]types.Clip, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var mf manifestFile
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	var clips []types.Clip
	for _, group := range mf.Data {
		for _, clip := range group.Data {
			clips = append(clips, types.Clip{
				VideoPath:  group.VideoPath,
				FrameIndex: clip.FrameIndex,
				Prompt:     clip.Prompt,
				ClipPath:   clip.ClipPath,
			})
		}
	}
	return clips, nil
}
