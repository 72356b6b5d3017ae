// Package hostmock provides an in-process hostapi implementation for
// tests: a scriptable device catalog and streams with a write-to-read
// loopback, per-call error injection, call counting, and an optional
// gate for holding native calls open.
package hostmock

import (
	"errors"
	"sync"

	"github.com/soundspan/duplex/pkg/hostapi"
)

// ErrTerminatedTooOften reports a Terminate without a matching
// Initialize.
var ErrTerminatedTooOften = errors.New("terminate without matching initialize")

// OpenCall records the parameters of one OpenDuplex invocation.
type OpenCall struct {
	In, Out     *hostapi.DirectionConfig
	SampleRate  float64
	ChunkFrames int
}

// Host is a mock native audio subsystem.
type Host struct {
	mu        sync.Mutex
	initCount int
	devices   []hostapi.Device
	opened    []*Stream
	lastOpen  OpenCall

	// OpenErr, when set, makes every OpenDuplex fail.
	OpenErr error

	// StartErr, when set, is returned by Start on every stream this
	// host hands out.
	StartErr error
}

// NewHost creates a mock host exposing the given devices.
func NewHost(devices ...hostapi.Device) *Host {
	return &Host{devices: devices}
}

func (h *Host) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.initCount++
	return nil
}

func (h *Host) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.initCount == 0 {
		return ErrTerminatedTooOften
	}
	h.initCount--
	return nil
}

// InitCount returns the current initialize/terminate balance.
func (h *Host) InitCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initCount
}

func (h *Host) Devices() ([]hostapi.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]hostapi.Device, len(h.devices))
	copy(out, h.devices)
	return out, nil
}

func (h *Host) OpenDuplex(in, out *hostapi.DirectionConfig, sampleRate float64, chunkFrames int) (hostapi.Stream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastOpen = OpenCall{In: in, Out: out, SampleRate: sampleRate, ChunkFrames: chunkFrames}
	if h.OpenErr != nil {
		return nil, h.OpenErr
	}
	s := NewStream()
	s.startErr = h.StartErr
	if in != nil {
		s.inChannels = in.Channels
	}
	if out != nil {
		s.outChannels = out.Channels
	}
	h.opened = append(h.opened, s)
	return s, nil
}

// LastOpen returns the parameters of the most recent OpenDuplex call.
func (h *Host) LastOpen() OpenCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastOpen
}

// Opened returns every stream this host has handed out.
func (h *Host) Opened() []*Stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Stream(nil), h.opened...)
}

// Stream is a mock native stream. Samples written through WriteChunk
// are queued per channel and served back by ReadChunk; when the queue
// runs dry, reads are filled by Fill (zeros when unset).
type Stream struct {
	mu      sync.Mutex
	started bool
	closed  bool

	inChannels  int
	outChannels int
	startErr    error

	reads, writes int
	framesWritten int
	lateCalls     int
	inFlight      int
	maxInFlight   int

	loop [][]float32

	// ReadErr and WriteErr, when set, are consulted with the 1-based
	// call number and their result returned from that native call. Soft
	// errors still service the buffer, matching the native contract.
	ReadErr  func(call int) error
	WriteErr func(call int) error

	// Fill produces read data not covered by loopback.
	Fill func(call int, dst [][]float32, frames int)

	// Gate, when set, holds every native call until a value is sent or
	// the stream is closed.
	Gate chan struct{}

	closeCh chan struct{}
}

// NewStream creates a stand-alone mock stream, for tests that drive the
// transfer layer without a Host.
func NewStream() *Stream {
	return &Stream{closeCh: make(chan struct{})}
}

func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return hostapi.ErrBadStream
	}
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return hostapi.ErrBadStream
	}
	s.started = false
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return hostapi.ErrBadStream
	}
	s.closed = true
	close(s.closeCh)
	return nil
}

func (s *Stream) Stopped() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, hostapi.ErrBadStream
	}
	return !s.started, nil
}

// Reads returns the number of native read calls issued so far.
func (s *Stream) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Writes returns the number of native write calls issued so far.
func (s *Stream) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// FramesWritten returns the total frames accepted across all write
// calls before close.
func (s *Stream) FramesWritten() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.framesWritten
}

// CallsAfterClose returns the number of native calls that arrived on
// the handle after Close.
func (s *Stream) CallsAfterClose() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lateCalls
}

// MaxConcurrent returns the highest number of native calls ever in
// flight at once.
func (s *Stream) MaxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Stream) enter() {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()
}

func (s *Stream) exit() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *Stream) wait() error {
	if s.Gate == nil {
		return nil
	}
	select {
	case <-s.Gate:
		return nil
	case <-s.closeCh:
		return &hostapi.HostError{Code: -9988, Text: "stream closed"}
	}
}

func (s *Stream) ReadChunk(dst [][]float32, frames int) error {
	s.enter()
	defer s.exit()
	if err := s.wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.reads++
	call := s.reads
	if s.closed {
		s.lateCalls++
		s.mu.Unlock()
		return &hostapi.HostError{Code: -9988, Text: "stream closed"}
	}

	filled := false
	if len(s.loop) > 0 && len(s.loop[0]) >= frames {
		for c := range dst {
			if c < len(s.loop) {
				copy(dst[c][:frames], s.loop[c][:frames])
				s.loop[c] = s.loop[c][frames:]
			}
		}
		filled = true
	}
	fill := s.Fill
	err := error(nil)
	if s.ReadErr != nil {
		err = s.ReadErr(call)
	}
	s.mu.Unlock()

	if !filled {
		if fill != nil {
			fill(call, dst, frames)
		} else {
			for c := range dst {
				for i := 0; i < frames; i++ {
					dst[c][i] = 0
				}
			}
		}
	}
	return err
}

func (s *Stream) WriteChunk(src [][]float32, frames int) error {
	s.enter()
	defer s.exit()
	if err := s.wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	call := s.writes
	if s.closed {
		s.lateCalls++
		return &hostapi.HostError{Code: -9988, Text: "stream closed"}
	}
	s.framesWritten += frames

	if len(s.loop) < len(src) {
		grown := make([][]float32, len(src))
		copy(grown, s.loop)
		s.loop = grown
	}
	for c := range src {
		s.loop[c] = append(s.loop[c], src[c][:frames]...)
	}

	if s.WriteErr != nil {
		return s.WriteErr(call)
	}
	return nil
}
