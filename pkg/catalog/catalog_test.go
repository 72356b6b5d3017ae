package catalog_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/soundspan/duplex/internal/hostmock"
	"github.com/soundspan/duplex/pkg/catalog"
	"github.com/soundspan/duplex/pkg/hostapi"
)

func testHost() *hostmock.Host {
	return hostmock.NewHost(
		hostapi.Device{Index: 0, Name: "Built-in Microphone", MaxInputChannels: 2, DefaultSampleRate: 44100},
		hostapi.Device{Index: 1, Name: "Built-in Output", MaxOutputChannels: 2, DefaultSampleRate: 44100},
		hostapi.Device{Index: 2, Name: "USB Headset", MaxInputChannels: 1, MaxOutputChannels: 2, DefaultSampleRate: 48000},
	)
}

func TestByName(t *testing.T) {
	cat, err := catalog.Load(testHost())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	device, err := cat.ByName("USB Headset")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if device.Index != 2 || device.MaxInputChannels != 1 {
		t.Errorf("resolved wrong device: %+v", device)
	}
}

func TestByNameMissListsDevices(t *testing.T) {
	cat, err := catalog.Load(testHost())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	_, err = cat.ByName("Bluetooth Speaker")
	var notFound *catalog.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want *catalog.NotFoundError", err)
	}
	if notFound.Name != "Bluetooth Speaker" {
		t.Errorf("Name = %q, want the requested name", notFound.Name)
	}
	msg := err.Error()
	for _, name := range []string{"Built-in Microphone", "Built-in Output", "USB Headset"} {
		if !strings.Contains(msg, name) {
			t.Errorf("error %q does not list %q", msg, name)
		}
	}
}

func TestDefaultDevices(t *testing.T) {
	cat, err := catalog.Load(testHost())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	in, err := cat.DefaultInput()
	if err != nil || in.Name != "Built-in Microphone" {
		t.Errorf("DefaultInput() = (%q, %v), want the first input device", in.Name, err)
	}
	out, err := cat.DefaultOutput()
	if err != nil || out.Name != "Built-in Output" {
		t.Errorf("DefaultOutput() = (%q, %v), want the first output device", out.Name, err)
	}

	empty, err := catalog.Load(hostmock.NewHost())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := empty.DefaultInput(); err == nil {
		t.Error("DefaultInput() on an empty catalog succeeded")
	}
	if _, err := empty.DefaultOutput(); err == nil {
		t.Error("DefaultOutput() on an empty catalog succeeded")
	}
}

func TestDirectionFilters(t *testing.T) {
	cat, err := catalog.Load(testHost())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	inputs := cat.Inputs()
	if len(inputs) != 2 || inputs[0].Name != "Built-in Microphone" || inputs[1].Name != "USB Headset" {
		t.Errorf("Inputs() = %+v", inputs)
	}
	outputs := cat.Outputs()
	if len(outputs) != 2 || outputs[0].Name != "Built-in Output" || outputs[1].Name != "USB Headset" {
		t.Errorf("Outputs() = %+v", outputs)
	}
	if got := len(cat.Devices()); got != 3 {
		t.Errorf("Devices() returned %d devices, want 3", got)
	}
}
