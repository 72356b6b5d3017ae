// Package portaudiohost implements the hostapi boundary on top of the
// PortAudio bindings. It is the production host: cmd binaries and
// examples reach the sound hardware through it, while tests substitute
// the hostmock package.
package portaudiohost

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/soundspan/duplex/pkg/hostapi"
)

// Host adapts PortAudio to hostapi.Host. The zero value is ready to
// use; Initialize and Terminate are refcounted by the binding, so
// paired calls nest safely.
type Host struct{}

// New returns the PortAudio-backed host.
func New() *Host { return &Host{} }

func (h *Host) Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return translate(err)
	}
	return nil
}

func (h *Host) Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return translate(err)
	}
	return nil
}

func (h *Host) Devices() ([]hostapi.Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, translate(err)
	}
	devices := make([]hostapi.Device, len(infos))
	for i, info := range infos {
		devices[i] = snapshot(i, info)
	}
	return devices, nil
}

func (h *Host) OpenDuplex(in, out *hostapi.DirectionConfig, sampleRate float64, chunkFrames int) (hostapi.Stream, error) {
	// Device indices are only valid against the current enumeration, so
	// resolve them against a fresh one.
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, translate(err)
	}

	params := portaudio.StreamParameters{
		SampleRate:      sampleRate,
		FramesPerBuffer: chunkFrames,
	}
	s := &stream{}

	var args []any
	if in != nil {
		info, err := deviceAt(infos, in.DeviceIndex)
		if err != nil {
			return nil, err
		}
		params.Input = portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: in.Channels,
			Latency:  in.Latency,
		}
		s.in = planes(in.Channels, chunkFrames)
		s.inBound = clone(s.in)
		args = append(args, &s.inBound)
	}
	if out != nil {
		info, err := deviceAt(infos, out.DeviceIndex)
		if err != nil {
			return nil, err
		}
		params.Output = portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: out.Channels,
			Latency:  out.Latency,
		}
		s.out = planes(out.Channels, chunkFrames)
		s.outBound = clone(s.out)
		args = append(args, &s.outBound)
	}

	inner, err := portaudio.OpenStream(params, args...)
	if err != nil {
		return nil, translate(err)
	}
	s.inner = inner
	return s, nil
}

func deviceAt(infos []*portaudio.DeviceInfo, index int) (*portaudio.DeviceInfo, error) {
	if index < 0 || index >= len(infos) {
		return nil, &hostapi.HostError{
			Code: int(portaudio.InvalidDevice),
			Text: fmt.Sprintf("device index %d out of range (%d devices)", index, len(infos)),
		}
	}
	return infos[index], nil
}

func snapshot(index int, info *portaudio.DeviceInfo) hostapi.Device {
	hostAPI := ""
	if info.HostApi != nil {
		hostAPI = info.HostApi.Name
	}
	return hostapi.Device{
		Index:                    index,
		Name:                     info.Name,
		HostAPI:                  hostAPI,
		MaxInputChannels:         info.MaxInputChannels,
		MaxOutputChannels:        info.MaxOutputChannels,
		DefaultSampleRate:        info.DefaultSampleRate,
		DefaultLowInputLatency:   info.DefaultLowInputLatency,
		DefaultLowOutputLatency:  info.DefaultLowOutputLatency,
		DefaultHighInputLatency:  info.DefaultHighInputLatency,
		DefaultHighOutputLatency: info.DefaultHighOutputLatency,
	}
}

// translate maps binding errors into the hostapi taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var paErr portaudio.Error
	if errors.As(err, &paErr) {
		switch paErr {
		case portaudio.InputOverflowed:
			return hostapi.ErrInputOverflowed
		case portaudio.OutputUnderflowed:
			return hostapi.ErrOutputUnderflowed
		case portaudio.BadStreamPtr:
			return hostapi.ErrBadStream
		}
		return &hostapi.HostError{Code: int(paErr), Text: paErr.Error()}
	}
	return &hostapi.HostError{Text: err.Error()}
}

func planes(channels, frames int) [][]float32 {
	p := make([][]float32, channels)
	for c := range p {
		p[c] = make([]float32, frames)
	}
	return p
}

func clone(p [][]float32) [][]float32 {
	return append([][]float32(nil), p...)
}
