package dataset

import (
	"math"
	"math/rand"
)

// FrameRange selects up to maxFrames indices starting at startIdx with the
// given step, strictly within [0, frameCount). startIdx is clamped into
// range; a step below 1 is treated as 1.
func FrameRange(frameCount, startIdx, step, maxFrames int) []int {
	if frameCount <= 0 || maxFrames <= 0 {
		return nil
	}
	if step < 1 {
		step = 1
	}
	start := startIdx
	if start < 0 {
		start = 0
	}
	if start > frameCount {
		start = frameCount
	}

	idxs := make([]int, 0, maxFrames)
	for i := start; i < frameCount && len(idxs) < maxFrames; i += step {
		idxs = append(idxs, i)
	}
	return idxs
}

// RateWindow selects a window of nFrames indices resampling the source from
// nativeFPS to targetFPS. The stride is round(native/target) clamped to
// [1, frameCount]; the window start is drawn uniformly from the range where
// the full window fits. When no valid start exists the start falls back to
// int(nativeFPS), which may put the window out of range; the decode step
// reports that as a recoverable error. A window shrunk by a short source is
// cyclically tiled back to exactly nFrames.
func RateWindow(frameCount int, nativeFPS float64, targetFPS, nFrames int, rng *rand.Rand) []int {
	if frameCount <= 0 || nFrames <= 0 || targetFPS <= 0 {
		return nil
	}

	everyNth := int(math.Round(nativeFPS/float64(targetFPS) + 1e-5))
	if everyNth < 1 {
		everyNth = 1
	}
	if everyNth > frameCount {
		everyNth = frameCount
	}

	usable := frameCount / everyNth
	n := nFrames
	if usable < n {
		n = usable
	}

	var start int
	if hi := usable - n*everyNth - 5; hi >= 0 {
		start = rng.Intn(hi + 1)
	} else {
		start = int(nativeFPS)
	}

	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = everyNth * (start + i)
	}

	if len(idxs) != nFrames {
		idxs = tileTo(idxs, nFrames)
	}
	return idxs
}

// tileTo repeats idxs cyclically until it has exactly n entries.
func tileTo(idxs []int, n int) []int {
	if len(idxs) == 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = idxs[i%len(idxs)]
	}
	return out
}

// Chunks partitions the frame range [1, frameCount) stepped by step into
// consecutive groups of size. Any chunk containing an index beyond
// frameCount is dropped whole rather than truncated.
func Chunks(frameCount, step, size int) [][]int {
	if frameCount <= 1 || size <= 0 {
		return nil
	}
	if step < 1 {
		step = 1
	}

	var seq []int
	for i := 1; i < frameCount; i += step {
		seq = append(seq, i)
	}

	var chunks [][]int
	for start := 0; start < len(seq); start += size {
		end := start + size
		if end > len(seq) {
			end = len(seq)
		}
		chunks = append(chunks, seq[start:end])
	}
	return pruneChunks(chunks, frameCount)
}

// pruneChunks drops every chunk containing an index beyond frameCount.
func pruneChunks(chunks [][]int, frameCount int) [][]int {
	out := chunks[:0]
	for _, chunk := range chunks {
		keep := true
		for _, idx := range chunk {
			if idx > frameCount {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, chunk)
		}
	}
	return out
}
