package pcm

import "github.com/oov/audio/resampler"

const resampleQuality = 10

// Resampler converts interleaved float32 audio between two sample rates,
// one block at a time. It keeps per-channel filter state across calls,
// so one Resampler must only be fed one continuous stream.
type Resampler struct {
	channels int
	inner    *resampler.Resampler

	// scratch planes reused across Process calls
	src [][]float32
	dst [][]float32
}

// NewResampler creates a resampler for interleaved audio with the given
// channel count. blockFrames bounds the number of frames per Process
// call on the input side.
func NewResampler(channels, srcRate, dstRate, blockFrames int) *Resampler {
	// Leave generous headroom for upsampling ratios.
	outFrames := blockFrames*dstRate/srcRate + 16
	return &Resampler{
		channels: channels,
		inner:    resampler.New(channels, srcRate, dstRate, resampleQuality),
		src:      Planes(channels, blockFrames),
		dst:      Planes(channels, outFrames),
	}
}

// Process resamples the interleaved src block into dst and returns the
// number of frames consumed and produced. dst must be large enough for
// the rate ratio applied to len(src).
func (r *Resampler) Process(dst, src []float32) (read, written int) {
	srcFrames := len(src) / r.channels
	if srcFrames > len(r.src[0]) {
		srcFrames = len(r.src[0])
	}
	Deinterleave(r.src, src, 0, srcFrames)

	for c := 0; c < r.channels; c++ {
		read, written = r.inner.ProcessFloat32(c, r.src[c][:srcFrames], r.dst[c])
	}

	if written > len(dst)/r.channels {
		written = len(dst) / r.channels
	}
	Interleave(dst, 0, r.dst, written)
	return read * r.channels, written * r.channels
}
