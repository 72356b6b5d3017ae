// Package catalog enumerates the hardware endpoints visible through a
// host and resolves devices by name.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soundspan/duplex/pkg/hostapi"
)

// NotFoundError reports a device name that matched nothing, listing
// every device that was visible at lookup time.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no device matching %q, available devices: %s",
		e.Name, strings.Join(e.Available, ", "))
}

// Catalog is a snapshot of the devices visible at Load time. Device
// indices go stale on the next native enumeration, so a Catalog should
// be used promptly and reloaded rather than cached.
type Catalog struct {
	devices []hostapi.Device
}

// Load enumerates all devices visible through the host.
func Load(host hostapi.Host) (*Catalog, error) {
	devices, err := host.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	return &Catalog{devices: devices}, nil
}

// Devices returns every device in the snapshot.
func (c *Catalog) Devices() []hostapi.Device {
	return append([]hostapi.Device(nil), c.devices...)
}

// Inputs returns the devices with at least one input channel.
func (c *Catalog) Inputs() []hostapi.Device {
	return c.filter(func(d hostapi.Device) bool { return d.MaxInputChannels > 0 })
}

// Outputs returns the devices with at least one output channel.
func (c *Catalog) Outputs() []hostapi.Device {
	return c.filter(func(d hostapi.Device) bool { return d.MaxOutputChannels > 0 })
}

// DefaultInput returns the catalog's default capture device: the first
// device with input channels, matching native enumeration order.
func (c *Catalog) DefaultInput() (hostapi.Device, error) {
	for _, d := range c.devices {
		if d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return hostapi.Device{}, errors.New("no input devices available")
}

// DefaultOutput returns the catalog's default playback device: the
// first device with output channels, matching native enumeration order.
func (c *Catalog) DefaultOutput() (hostapi.Device, error) {
	for _, d := range c.devices {
		if d.MaxOutputChannels > 0 {
			return d, nil
		}
	}
	return hostapi.Device{}, errors.New("no output devices available")
}

// ByName resolves a device by exact name match. A miss yields a
// *NotFoundError carrying the names of every visible device.
func (c *Catalog) ByName(name string) (hostapi.Device, error) {
	for _, d := range c.devices {
		if d.Name == name {
			return d, nil
		}
	}
	names := make([]string, len(c.devices))
	for i, d := range c.devices {
		names[i] = d.Name
	}
	return hostapi.Device{}, &NotFoundError{Name: name, Available: names}
}

func (c *Catalog) filter(keep func(hostapi.Device) bool) []hostapi.Device {
	var out []hostapi.Device
	for _, d := range c.devices {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
