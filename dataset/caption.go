package dataset

import (
	"os"
	"strings"

	"github.com/deepdaiv-multimodal/bubblelatte/logger"
)

// ResolvePrompt applies the caption policy shared by all variants:
// explicit prompt first, then a sidecar .txt file next to the media file,
// then the fallback string. Read failures other than a missing file are
// logged and fall back; this function never fails an item.
func ResolvePrompt(log logger.Logger, textPrompt, fallback, filePath string, extTypes []string, useCaption bool) string {
	if !useCaption {
		return textPrompt
	}
	if textPrompt != "" {
		return textPrompt
	}

	for _, ext := range extTypes {
		if !strings.HasSuffix(filePath, ext) {
			continue
		}
		sidecar := strings.TrimSuffix(filePath, ext) + ".txt"
		data, err := os.ReadFile(sidecar)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			log.Warnf("couldn't read caption %s: %v; using fallback", sidecar, err)
			return fallback
		}
		return string(data)
	}

	return fallback
}
