// Package transfer implements the chunked handoff between caller
// goroutines exchanging arbitrarily sized buffers and the fixed-size
// blocking I/O of a native audio stream.
//
// One Endpoint serves one direction of a duplex stream. Its worker
// goroutine owns the channel-major chunk buffer and is the only place
// native reads or writes happen; caller data crosses the thread
// boundary through the transpose step, never by sharing buffer
// pointers. Request and result channels are unbuffered, so at most one
// transfer is in flight per direction and a second caller blocks until
// the first result has been consumed.
package transfer

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/soundspan/duplex/pkg/hostapi"
	"github.com/soundspan/duplex/pkg/pcm"
)

// DefaultChunkFrames is the granularity of native blocking I/O. Smaller
// chunks reduce latency jitter at the cost of more native calls.
const DefaultChunkFrames = 128

// Direction selects which side of a duplex stream an Endpoint serves.
type Direction int

const (
	Capture Direction = iota
	Playback
)

func (d Direction) String() string {
	if d == Capture {
		return "capture"
	}
	return "playback"
}

type request struct {
	buf    []float32
	offset int // frame offset into buf
	frames int
}

type result struct {
	frames int
	err    error
}

// Endpoint bridges caller transfers and the native stream for one
// direction. Create with NewEndpoint; the worker goroutine runs until
// Close.
type Endpoint struct {
	logger *slog.Logger

	stream   hostapi.Stream
	dir      Direction
	channels int

	// chunk is the channel-major native buffer, exclusively owned by
	// the worker goroutine.
	chunk       [][]float32
	chunkFrames int

	// ioMu serializes native read/write calls across both directions of
	// the owning session; the native layer requires it.
	ioMu *sync.Mutex

	requests chan request
	results  chan result
	done     chan struct{}

	warnXRuns bool
	closeOnce sync.Once
}

// NewEndpoint creates the endpoint and starts its worker. ioMu is
// shared with the sibling direction, when there is one.
func NewEndpoint(stream hostapi.Stream, dir Direction, channels, chunkFrames int, ioMu *sync.Mutex, warnXRuns bool, logger *slog.Logger) *Endpoint {
	if chunkFrames <= 0 {
		chunkFrames = DefaultChunkFrames
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Endpoint{
		logger: logger.With(
			"transfer worker uuid", uuid.New(),
			"direction", dir.String(),
		),
		stream:      stream,
		dir:         dir,
		channels:    channels,
		chunk:       pcm.Planes(channels, chunkFrames),
		chunkFrames: chunkFrames,
		ioMu:        ioMu,
		requests:    make(chan request),
		results:     make(chan result),
		done:        make(chan struct{}),
		warnXRuns:   warnXRuns,
	}
	go e.run()
	e.logger.Debug("transfer worker started", "channels", channels, "chunkFrames", chunkFrames)
	return e
}

// ChunkFrames returns the native I/O granularity of this endpoint.
func (e *Endpoint) ChunkFrames() int { return e.chunkFrames }

// Exchange posts one transfer covering frames rows of the interleaved
// buffer buf starting at the given frame offset, then blocks until the
// worker posts the served count. A closed endpoint yields (0, nil)
// immediately, as does a close racing with a pending exchange.
func (e *Endpoint) Exchange(buf []float32, offset, frames int) (int, error) {
	select {
	case <-e.done:
		return 0, nil
	case e.requests <- request{buf: buf, offset: offset, frames: frames}:
	}

	select {
	case <-e.done:
		return 0, nil
	case res := <-e.results:
		return res.frames, res.err
	}
}

// Close stops the worker and wakes any blocked caller. Safe to call
// more than once and concurrently with exchanges in flight.
func (e *Endpoint) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
		e.logger.Debug("transfer worker closed")
	})
}

func (e *Endpoint) run() {
	for {
		var req request
		select {
		case <-e.done:
			return
		case req = <-e.requests:
		}

		served, err := e.serve(req)

		// The caller may have been released by a concurrent close; in
		// that case the result is dropped rather than blocking forever.
		select {
		case <-e.done:
			return
		case e.results <- result{frames: served, err: err}:
		}
	}
}

// serve moves one request through the native stream in chunks of at
// most chunkFrames. It returns the frames actually served; on a hard
// native failure it stops early and returns the error alongside the
// partial count. Soft under/overruns are logged and do not stop the
// loop: the native layer still services the buffer on those calls.
func (e *Endpoint) serve(req request) (int, error) {
	served := 0
	for served < req.frames {
		select {
		case <-e.done:
			return served, nil
		default:
		}

		n := min(e.chunkFrames, req.frames-served)

		if e.dir == Playback {
			pcm.Deinterleave(e.chunk, req.buf, req.offset+served, n)
		}

		e.ioMu.Lock()
		// The session releases the native handle under ioMu, so done
		// must be re-checked once the lock is held.
		select {
		case <-e.done:
			e.ioMu.Unlock()
			return served, nil
		default:
		}
		var err error
		if e.dir == Capture {
			err = e.stream.ReadChunk(e.chunk, n)
		} else {
			err = e.stream.WriteChunk(e.chunk, n)
		}
		e.ioMu.Unlock()

		if err != nil {
			if !hostapi.IsSoft(err) {
				e.logger.Error("native transfer failed",
					"err", err,
					"served", served,
					"requested", req.frames,
				)
				return served, err
			}
			if e.warnXRuns {
				e.logger.Warn("transient stream condition", "err", err)
			}
		}

		if e.dir == Capture {
			pcm.Interleave(req.buf, req.offset+served, e.chunk, n)
		}
		served += n
	}
	return served, nil
}
