package duplex

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/soundspan/duplex/pkg/hostapi"
	"github.com/soundspan/duplex/pkg/pcm"
)

// MaxChannels requests the device's maximum channel count for a
// direction.
const MaxChannels = -1

// Config describes a session open request. The zero value of every
// optional field means "use the default": device default sample rate
// and high latency, float32 facade format, the package chunk size, and
// the process default logger.
type Config struct {
	// InputDevice and OutputDevice may point at the same descriptor for
	// duplex on a single device. A direction with zero channels needs
	// no device.
	InputDevice  *hostapi.Device
	OutputDevice *hostapi.Device

	// Channel counts per direction. MaxChannels clamps to the device
	// maximum; zero disables the direction.
	InputChannels  int
	OutputChannels int

	// SampleRate in Hz. Zero uses the device default; with both
	// directions active the two defaults must agree.
	SampleRate float64

	// Format is the sample element type of the byte-oriented facade
	// views. The transfer core always runs float32.
	Format pcm.Format

	// Latency is the suggested stream latency. Zero uses each device's
	// default high latency, the safe choice for blocking transfers.
	Latency time.Duration

	// ChunkFrames sets the native I/O granularity. Zero uses the
	// package default of 128 frames.
	ChunkFrames int

	// SuppressXRunWarnings silences the per-chunk log lines emitted on
	// transient overflow/underflow conditions.
	SuppressXRunWarnings bool

	Logger *slog.Logger
}

// ConfigError reports caller-supplied parameters that contradict each
// other or the device capabilities. It is raised before any native call
// is attempted.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// resolve validates the config and produces the per-direction native
// open parameters and the effective sample rate.
func (cfg Config) resolve() (in, out *hostapi.DirectionConfig, rate float64, err error) {
	inChannels, err := resolveChannels(cfg.InputChannels, cfg.InputDevice, true)
	if err != nil {
		return nil, nil, 0, err
	}
	outChannels, err := resolveChannels(cfg.OutputChannels, cfg.OutputDevice, false)
	if err != nil {
		return nil, nil, 0, err
	}
	if inChannels == 0 && outChannels == 0 {
		return nil, nil, 0, configErrorf("zero total channels requested")
	}

	rate = cfg.SampleRate
	if rate == 0 {
		switch {
		case inChannels > 0 && outChannels > 0:
			inRate := cfg.InputDevice.DefaultSampleRate
			outRate := cfg.OutputDevice.DefaultSampleRate
			if inRate != outRate {
				return nil, nil, 0, configErrorf(
					"no sample rate given and device defaults disagree: input %g Hz, output %g Hz",
					inRate, outRate)
			}
			rate = inRate
		case inChannels > 0:
			rate = cfg.InputDevice.DefaultSampleRate
		default:
			rate = cfg.OutputDevice.DefaultSampleRate
		}
	}

	if inChannels > 0 {
		in = &hostapi.DirectionConfig{
			DeviceIndex: cfg.InputDevice.Index,
			Channels:    inChannels,
			Latency:     directionLatency(cfg.Latency, cfg.InputDevice, true),
		}
	}
	if outChannels > 0 {
		out = &hostapi.DirectionConfig{
			DeviceIndex: cfg.OutputDevice.Index,
			Channels:    outChannels,
			Latency:     directionLatency(cfg.Latency, cfg.OutputDevice, false),
		}
	}
	return in, out, rate, nil
}

func resolveChannels(requested int, device *hostapi.Device, input bool) (int, error) {
	dir := "output"
	if input {
		dir = "input"
	}
	if requested == 0 {
		return 0, nil
	}
	if device == nil {
		return 0, configErrorf("%d %s channels requested but no %s device given", requested, dir, dir)
	}
	max := device.MaxChannels(input)
	if requested == MaxChannels {
		return max, nil
	}
	if requested < 0 {
		return 0, configErrorf("negative %s channel count %d", dir, requested)
	}
	if requested > max {
		return 0, configErrorf("%d %s channels requested but device %q supports at most %d",
			requested, dir, device.Name, max)
	}
	return requested, nil
}

func directionLatency(requested time.Duration, device *hostapi.Device, input bool) time.Duration {
	if requested > 0 {
		return requested
	}
	return device.DefaultHighLatency(input)
}
