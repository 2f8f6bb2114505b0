package media

// BucketResolution snaps the target resolution to the source aspect ratio.
// The source is fit inside the targetW x targetH box preserving aspect, and
// both dimensions are rounded down to a multiple of 64 (minimum 64), which
// keeps them valid for the downstream model's latent strides.
func BucketResolution(targetW, targetH, srcW, srcH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || targetW <= 0 || targetH <= 0 {
		return targetW, targetH
	}

	scale := float64(targetW) / float64(srcW)
	if s := float64(targetH) / float64(srcH); s < scale {
		scale = s
	}

	w := snap64(float64(srcW) * scale)
	h := snap64(float64(srcH) * scale)
	return w, h
}

func snap64(v float64) int {
	n := (int(v) / 64) * 64
	if n < 64 {
		n = 64
	}
	return n
}
