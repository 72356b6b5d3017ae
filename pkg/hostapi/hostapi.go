package hostapi

import "time"

// Device is an immutable snapshot of one hardware endpoint, taken at
// enumeration time. Index is the native device index and is only valid
// until the next enumeration.
type Device struct {
	Index   int
	Name    string
	HostAPI string

	MaxInputChannels  int
	MaxOutputChannels int

	DefaultSampleRate float64

	DefaultLowInputLatency   time.Duration
	DefaultLowOutputLatency  time.Duration
	DefaultHighInputLatency  time.Duration
	DefaultHighOutputLatency time.Duration
}

// MaxChannels returns the channel bound of the device for one direction.
func (d Device) MaxChannels(input bool) int {
	if input {
		return d.MaxInputChannels
	}
	return d.MaxOutputChannels
}

// DefaultHighLatency returns the device's default high latency for one
// direction. High latency is the safe choice for blocking I/O.
func (d Device) DefaultHighLatency(input bool) time.Duration {
	if input {
		return d.DefaultHighInputLatency
	}
	return d.DefaultHighOutputLatency
}

// DirectionConfig describes one direction of a duplex open request.
type DirectionConfig struct {
	DeviceIndex int
	Channels    int
	Latency     time.Duration
}

// Host is the native audio subsystem.
//
// Initialize and Terminate are process-wide and refcounted: each
// successful Initialize must be paired with a Terminate, and the
// subsystem may be re-initialized after its last Terminate.
type Host interface {
	Initialize() error
	Terminate() error

	// Devices enumerates all visible hardware endpoints.
	Devices() ([]Device, error)

	// OpenDuplex opens (but does not start) a native duplex stream.
	// in or out may be nil when that direction carries no channels.
	// chunkFrames is a hint for the native buffer granularity.
	OpenDuplex(in, out *DirectionConfig, sampleRate float64, chunkFrames int) (Stream, error)
}

// Stream is one open native stream handle.
//
// ReadChunk and WriteChunk are blocking calls and must only be issued
// from one goroutine at a time per stream; the transfer layer serializes
// them behind a single mutex. Buffers are channel-major: buf[c][i] is
// sample i of channel c. Both calls may return ErrInputOverflowed or
// ErrOutputUnderflowed; the transferred data is still valid up to the
// native layer's contract and streaming may continue.
type Stream interface {
	Start() error
	Stop() error
	Close() error

	// Stopped reports whether the stream is not running. A closed or
	// otherwise unusable handle yields ErrBadStream.
	Stopped() (bool, error)

	ReadChunk(dst [][]float32, frames int) error
	WriteChunk(src [][]float32, frames int) error
}
