// Package duplex opens duplex audio sessions against a hostapi host and
// exposes blocking frame-oriented reads and writes over them.
//
// A Session owns one native stream handle and one transfer endpoint per
// active direction. Reads and writes accept arbitrarily sized
// interleaved float32 buffers; the transfer layer moves them through
// the native stream in fixed-size chunks. Sessions start streaming
// immediately on Open and are single-shot: once closed they must be
// discarded and a new one opened.
package duplex

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/soundspan/duplex/internal/transfer"
	"github.com/soundspan/duplex/pkg/hostapi"
	"github.com/soundspan/duplex/pkg/pcm"
)

// Session is one open, started duplex stream. All methods are safe for
// concurrent use; concurrent reads (or writes) on the same direction
// queue behind each other one request at a time.
type Session struct {
	logger *slog.Logger

	stream hostapi.Stream
	ioMu   *sync.Mutex
	in     *transfer.Endpoint
	out    *transfer.Endpoint

	inChannels  int
	outChannels int
	sampleRate  float64
	format      pcm.Format

	closeOnce sync.Once
	closeErr  error
}

// Open validates cfg, opens and starts the native stream, and spins up
// a transfer worker per active direction. Construction is atomic: on
// any failure no partially opened session survives.
func Open(host hostapi.Host, cfg Config) (*Session, error) {
	in, out, rate, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	chunkFrames := cfg.ChunkFrames
	if chunkFrames <= 0 {
		chunkFrames = transfer.DefaultChunkFrames
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session uuid", uuid.New())

	stream, err := host.OpenDuplex(in, out, rate, chunkFrames)
	if err != nil {
		logger.Error("failed to open duplex stream", "err", err)
		return nil, fmt.Errorf("opening duplex stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		logger.Error("failed to start stream", "err", err)
		return nil, fmt.Errorf("starting stream: %w", err)
	}

	s := &Session{
		logger:     logger,
		stream:     stream,
		sampleRate: rate,
		format:     cfg.Format,
	}

	// One lock serializes the native read/write calls of both workers,
	// and Close takes it before releasing the handle.
	ioMu := &sync.Mutex{}
	s.ioMu = ioMu
	warn := !cfg.SuppressXRunWarnings
	if in != nil {
		s.inChannels = in.Channels
		s.in = transfer.NewEndpoint(stream, transfer.Capture, in.Channels, chunkFrames, ioMu, warn, logger)
	}
	if out != nil {
		s.outChannels = out.Channels
		s.out = transfer.NewEndpoint(stream, transfer.Playback, out.Channels, chunkFrames, ioMu, warn, logger)
	}

	logger.Info("session started",
		"sampleRate", rate,
		"inputChannels", s.inChannels,
		"outputChannels", s.outChannels,
		"chunkFrames", chunkFrames,
	)
	return s, nil
}

// SampleRate returns the stream's sample rate in Hz.
func (s *Session) SampleRate() float64 { return s.sampleRate }

// InputChannels returns the capture channel count, zero when capture is
// disabled.
func (s *Session) InputChannels() int { return s.inChannels }

// OutputChannels returns the playback channel count, zero when playback
// is disabled.
func (s *Session) OutputChannels() int { return s.outChannels }

// Format returns the configured facade sample format.
func (s *Session) Format() pcm.Format { return s.format }

// ReadFrames fills buf with interleaved captured samples, blocking
// until len(buf)/InputChannels frames arrived, and returns the frame
// count actually served. A capture-less session or a session that was
// closed mid-read returns a short (possibly zero) count with a nil
// error.
func (s *Session) ReadFrames(buf []float32) (int, error) {
	if s.in == nil {
		return 0, nil
	}
	return s.in.Exchange(buf, 0, len(buf)/s.inChannels)
}

// WriteFrames plays the interleaved samples in buf, blocking until the
// native layer accepted all of them, and returns the frame count
// actually served. Semantics mirror ReadFrames.
func (s *Session) WriteFrames(buf []float32) (int, error) {
	if s.out == nil {
		return 0, nil
	}
	return s.out.Exchange(buf, 0, len(buf)/s.outChannels)
}

// IsOpen reports whether the native stream is running. A closed or
// otherwise unusable handle reads as false rather than an error, so the
// query is safe after Close.
func (s *Session) IsOpen() bool {
	stopped, err := s.stream.Stopped()
	if err != nil {
		return false
	}
	return !stopped
}

// Close tears down both endpoints, stops the native stream, and
// releases the handle, waiting for any native call in flight first.
// Transfers racing with Close observe the closed endpoints and return
// short counts. Close is idempotent; every call returns the error of
// the underlying handle release.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.in != nil {
			s.in.Close()
		}
		if s.out != nil {
			s.out.Close()
		}
		// Holding ioMu here waits out any native call in flight and,
		// with the workers re-checking their done channels under the
		// same lock, keeps late calls off the released handle.
		s.ioMu.Lock()
		if err := s.stream.Stop(); err != nil && !errors.Is(err, hostapi.ErrBadStream) {
			s.logger.Error("error stopping stream", "err", err)
		}
		s.closeErr = s.stream.Close()
		s.ioMu.Unlock()
		s.logger.Info("session closed")
	})
	return s.closeErr
}
