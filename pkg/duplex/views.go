package duplex

import (
	"errors"
	"fmt"
	"io"

	"github.com/soundspan/duplex/pkg/pcm"
)

// Source is the read-capable view of a session: a thin handle that
// delegates to the session's capture endpoint. It implements io.Reader
// over the session's configured sample format, little-endian for the
// multi-byte formats.
type Source struct {
	s       *Session
	scratch []float32
}

// Source returns the read-capable view of the session.
func (s *Session) Source() *Source { return &Source{s: s} }

// Channels returns the capture channel count.
func (v *Source) Channels() int { return v.s.inChannels }

// SampleRate returns the stream's sample rate in Hz.
func (v *Source) SampleRate() float64 { return v.s.sampleRate }

// ReadFrames delegates to Session.ReadFrames.
func (v *Source) ReadFrames(buf []float32) (int, error) {
	return v.s.ReadFrames(buf)
}

// Read fills p with captured samples encoded in the session format and
// returns the byte count. Only whole frames are served; trailing bytes
// of p that do not fit one are left untouched.
func (v *Source) Read(p []byte) (int, error) {
	samples := wholeFrameSamples(len(p)/v.s.format.Bytes(), v.s.inChannels)
	if samples == 0 {
		return 0, nil
	}
	v.scratch = growScratch(v.scratch, samples)
	frames, err := v.s.ReadFrames(v.scratch[:samples])
	served := frames * v.s.inChannels
	pcm.EncodeSamples(v.s.format, p, v.scratch[:served])
	return served * v.s.format.Bytes(), err
}

// Sink is the write-capable view of a session: a thin handle that
// delegates to the session's playback endpoint. It implements io.Writer
// over the session's configured sample format.
type Sink struct {
	s       *Session
	scratch []float32
}

// Sink returns the write-capable view of the session.
func (s *Session) Sink() *Sink { return &Sink{s: s} }

// Channels returns the playback channel count.
func (v *Sink) Channels() int { return v.s.outChannels }

// SampleRate returns the stream's sample rate in Hz.
func (v *Sink) SampleRate() float64 { return v.s.sampleRate }

// WriteFrames delegates to Session.WriteFrames.
func (v *Sink) WriteFrames(buf []float32) (int, error) {
	return v.s.WriteFrames(buf)
}

// Write plays the session-format samples in p and returns the byte
// count accepted. Only whole frames are served.
func (v *Sink) Write(p []byte) (int, error) {
	samples := wholeFrameSamples(len(p)/v.s.format.Bytes(), v.s.outChannels)
	if samples == 0 {
		return 0, nil
	}
	v.scratch = growScratch(v.scratch, samples)
	pcm.DecodeSamples(v.s.format, v.scratch[:samples], p)
	frames, err := v.s.WriteFrames(v.scratch[:samples])
	return frames * v.s.outChannels * v.s.format.Bytes(), err
}

// SampleSource is a stream of interleaved float32 samples at a known
// rate and channel layout. The decoders in pkg/media satisfy it.
type SampleSource interface {
	SampleRate() int
	Channels() int
	// ReadSamples fills dst and returns the number of samples written;
	// a finished stream returns 0 with io.EOF.
	ReadSamples(dst []float32) (int, error)
}

const playBlockFrames = 4096

// PlayFrom drains src into the playback side, adapting its channel
// layout to the session's and resampling when the rates differ. It
// returns nil once src is exhausted or the session closes mid-play, and
// the decode or playback error otherwise.
func (v *Sink) PlayFrom(src SampleSource) error {
	channels := v.s.outChannels
	if channels == 0 {
		return nil
	}
	deviceRate := int(v.s.sampleRate)

	var rs *pcm.Resampler
	if src.SampleRate() != deviceRate {
		rs = pcm.NewResampler(channels, src.SampleRate(), deviceRate, playBlockFrames)
	}

	in := make([]float32, playBlockFrames*src.Channels())
	mixed := make([]float32, playBlockFrames*channels)
	out := make([]float32, (playBlockFrames*deviceRate/src.SampleRate()+16)*channels)
	for {
		n, err := src.ReadSamples(in)
		if n == 0 {
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("decoding source: %w", err)
			}
			return nil
		}

		block := remixChannels(mixed, in[:n], src.Channels(), channels)
		if rs != nil {
			_, written := rs.Process(out, block)
			block = out[:written]
		}
		frames, err := v.s.WriteFrames(block)
		if err != nil {
			return err
		}
		// A short write means the session closed.
		if frames < len(block)/channels {
			return nil
		}
	}
}

// remixChannels adapts the source channel count to the session's,
// averaging down to mono and duplicating the last channel up.
func remixChannels(dst, src []float32, srcChannels, dstChannels int) []float32 {
	if srcChannels == dstChannels {
		return src
	}
	frames := len(src) / srcChannels
	for i := 0; i < frames; i++ {
		for c := 0; c < dstChannels; c++ {
			if c < srcChannels {
				dst[i*dstChannels+c] = src[i*srcChannels+c]
			} else {
				dst[i*dstChannels+c] = src[i*srcChannels+srcChannels-1]
			}
		}
		if dstChannels == 1 && srcChannels > 1 {
			sum := float32(0)
			for c := 0; c < srcChannels; c++ {
				sum += src[i*srcChannels+c]
			}
			dst[i] = sum / float32(srcChannels)
		}
	}
	return dst[:frames*dstChannels]
}

func wholeFrameSamples(samples, channels int) int {
	if channels <= 0 {
		return 0
	}
	return samples - samples%channels
}

func growScratch(scratch []float32, n int) []float32 {
	if cap(scratch) < n {
		return make([]float32, n)
	}
	return scratch[:n]
}
