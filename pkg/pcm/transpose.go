package pcm

// Interleave copies frames rows out of channel-major planes into the
// frame-major interleaved buffer dst, starting at frame offset.
//
// planes[c][i] is sample i of channel c; the interleaved layout places
// it at dst[(offset+i)*len(planes)+c].
func Interleave(dst []float32, offset int, planes [][]float32, frames int) {
	channels := len(planes)
	for c, plane := range planes {
		for i := 0; i < frames; i++ {
			dst[(offset+i)*channels+c] = plane[i]
		}
	}
}

// Deinterleave copies frames rows out of the frame-major interleaved
// buffer src, starting at frame offset, into channel-major planes.
func Deinterleave(planes [][]float32, src []float32, offset int, frames int) {
	channels := len(planes)
	for c, plane := range planes {
		for i := 0; i < frames; i++ {
			plane[i] = src[(offset+i)*channels+c]
		}
	}
}

// Planes allocates a channel-major buffer of the given shape.
func Planes(channels, frames int) [][]float32 {
	planes := make([][]float32, channels)
	for c := range planes {
		planes[c] = make([]float32, frames)
	}
	return planes
}
