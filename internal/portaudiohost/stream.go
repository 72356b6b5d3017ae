package portaudiohost

import (
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/soundspan/duplex/pkg/hostapi"
)

// stream wraps one PortAudio blocking stream. The binding transfers
// whole bound buffers per call, so short chunks are served by reslicing
// the bound planes before each native call.
//
// in/out hold the full-size backing planes; inBound/outBound are the
// slices registered with the binding and resliced per call.
type stream struct {
	inner *portaudio.Stream

	in, out           [][]float32
	inBound, outBound [][]float32

	mu      sync.Mutex
	started bool
	closed  bool
}

func (s *stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return hostapi.ErrBadStream
	}
	if err := s.inner.Start(); err != nil {
		return translate(err)
	}
	s.started = true
	return nil
}

func (s *stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return hostapi.ErrBadStream
	}
	if err := s.inner.Stop(); err != nil {
		return translate(err)
	}
	s.started = false
	return nil
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return hostapi.ErrBadStream
	}
	s.closed = true
	if err := s.inner.Close(); err != nil {
		return translate(err)
	}
	return nil
}

func (s *stream) Stopped() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, hostapi.ErrBadStream
	}
	return !s.started, nil
}

func (s *stream) ReadChunk(dst [][]float32, frames int) error {
	for c := range s.inBound {
		s.inBound[c] = s.in[c][:frames]
	}
	err := translate(s.inner.Read())
	if err != nil && !hostapi.IsSoft(err) {
		return err
	}
	for c := range dst {
		copy(dst[c][:frames], s.in[c][:frames])
	}
	return err
}

func (s *stream) WriteChunk(src [][]float32, frames int) error {
	for c := range s.outBound {
		s.outBound[c] = s.out[c][:frames]
		copy(s.out[c][:frames], src[c][:frames])
	}
	return translate(s.inner.Write())
}
