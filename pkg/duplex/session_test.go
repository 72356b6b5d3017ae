package duplex_test

import (
	"errors"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soundspan/duplex/internal/hostmock"
	"github.com/soundspan/duplex/pkg/duplex"
	"github.com/soundspan/duplex/pkg/hostapi"
	"github.com/soundspan/duplex/pkg/pcm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mockMicrophone() hostapi.Device {
	return hostapi.Device{
		Index:                   0,
		Name:                    "Mock Microphone",
		HostAPI:                 "mock",
		MaxInputChannels:        2,
		DefaultSampleRate:       44100,
		DefaultLowInputLatency:  time.Millisecond,
		DefaultHighInputLatency: 40 * time.Millisecond,
	}
}

func mockSpeakers() hostapi.Device {
	return hostapi.Device{
		Index:                    1,
		Name:                     "Mock Speakers",
		HostAPI:                  "mock",
		MaxOutputChannels:        2,
		DefaultSampleRate:        48000,
		DefaultLowOutputLatency:  time.Millisecond,
		DefaultHighOutputLatency: 40 * time.Millisecond,
	}
}

// mockDuplexDevice carries both directions at one default rate.
func mockDuplexDevice() hostapi.Device {
	return hostapi.Device{
		Index:                    0,
		Name:                     "Mock Duplex",
		HostAPI:                  "mock",
		MaxInputChannels:         2,
		MaxOutputChannels:        2,
		DefaultSampleRate:        44100,
		DefaultHighInputLatency:  40 * time.Millisecond,
		DefaultHighOutputLatency: 40 * time.Millisecond,
	}
}

func TestCaptureOnlyScenario(t *testing.T) {
	// 2 in / 0 out at the device default rate, 5000 frames in chunks
	// of 128: exactly ceil(5000/128) = 40 native reads, no writes.
	device := mockMicrophone()
	host := hostmock.NewHost(device)

	session, err := duplex.Open(host, duplex.Config{
		InputDevice:   &device,
		InputChannels: 2,
		ChunkFrames:   128,
		Logger:        quietLogger(),
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer session.Close()

	if got := session.SampleRate(); got != 44100 {
		t.Errorf("sample rate = %g, want 44100", got)
	}

	buf := make([]float32, 5000*2)
	n, err := session.ReadFrames(buf)
	if err != nil || n != 5000 {
		t.Fatalf("read: got (%d, %v), want (5000, nil)", n, err)
	}

	stream := host.Opened()[0]
	if got := stream.Reads(); got != 40 {
		t.Errorf("native read calls = %d, want 40", got)
	}
	if got := stream.Writes(); got != 0 {
		t.Errorf("native write calls = %d, want 0", got)
	}
}

func TestZeroChannelDirectionIsNoOp(t *testing.T) {
	device := mockSpeakers()
	host := hostmock.NewHost(device)

	session, err := duplex.Open(host, duplex.Config{
		OutputDevice:   &device,
		OutputChannels: 2,
		Logger:         quietLogger(),
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer session.Close()

	n, err := session.ReadFrames(make([]float32, 1024))
	if n != 0 || err != nil {
		t.Errorf("capture-less read: got (%d, %v), want (0, nil)", n, err)
	}
	if got := host.Opened()[0].Reads(); got != 0 {
		t.Errorf("native read calls = %d, want 0", got)
	}
	if got := host.LastOpen().In; got != nil {
		t.Errorf("input direction was opened: %+v", got)
	}
}

func TestMismatchedDefaultRates(t *testing.T) {
	in, out := mockMicrophone(), mockSpeakers()
	host := hostmock.NewHost(in, out)

	_, err := duplex.Open(host, duplex.Config{
		InputDevice:    &in,
		OutputDevice:   &out,
		InputChannels:  1,
		OutputChannels: 1,
		Logger:         quietLogger(),
	})
	var cfgErr *duplex.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *duplex.ConfigError", err)
	}
	for _, rate := range []string{"44100", "48000"} {
		if !strings.Contains(cfgErr.Error(), rate) {
			t.Errorf("error %q does not name rate %s", cfgErr.Error(), rate)
		}
	}
	if len(host.Opened()) != 0 {
		t.Error("native open was attempted despite config error")
	}
}

func TestConfigValidation(t *testing.T) {
	device := mockDuplexDevice()

	testCases := []struct {
		name string
		cfg  duplex.Config
	}{
		{
			name: "zero total channels",
			cfg:  duplex.Config{InputDevice: &device, OutputDevice: &device},
		},
		{
			name: "channels over device maximum",
			cfg:  duplex.Config{InputDevice: &device, InputChannels: 3},
		},
		{
			name: "negative channel count",
			cfg:  duplex.Config{OutputDevice: &device, OutputChannels: -2},
		},
		{
			name: "channels without device",
			cfg:  duplex.Config{InputChannels: 2},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			host := hostmock.NewHost(device)
			tc.cfg.Logger = quietLogger()
			_, err := duplex.Open(host, tc.cfg)
			var cfgErr *duplex.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error = %v, want *duplex.ConfigError", err)
			}
			if len(host.Opened()) != 0 {
				t.Error("native open was attempted despite config error")
			}
		})
	}
}

func TestMaxChannelsClampsToDevice(t *testing.T) {
	device := mockDuplexDevice()
	host := hostmock.NewHost(device)

	session, err := duplex.Open(host, duplex.Config{
		InputDevice:    &device,
		OutputDevice:   &device,
		InputChannels:  duplex.MaxChannels,
		OutputChannels: duplex.MaxChannels,
		Logger:         quietLogger(),
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer session.Close()

	open := host.LastOpen()
	if open.In.Channels != 2 || open.Out.Channels != 2 {
		t.Errorf("opened %d/%d channels, want 2/2", open.In.Channels, open.Out.Channels)
	}
	if session.InputChannels() != 2 || session.OutputChannels() != 2 {
		t.Errorf("session reports %d/%d channels, want 2/2",
			session.InputChannels(), session.OutputChannels())
	}
}

func TestDefaultLatencyAndChunkPropagation(t *testing.T) {
	device := mockDuplexDevice()
	host := hostmock.NewHost(device)

	session, err := duplex.Open(host, duplex.Config{
		OutputDevice:   &device,
		OutputChannels: 1,
		ChunkFrames:    256,
		Logger:         quietLogger(),
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer session.Close()

	open := host.LastOpen()
	if open.ChunkFrames != 256 {
		t.Errorf("chunk frames = %d, want 256", open.ChunkFrames)
	}
	if open.Out.Latency != device.DefaultHighOutputLatency {
		t.Errorf("latency = %v, want device default high %v",
			open.Out.Latency, device.DefaultHighOutputLatency)
	}
}

func TestOpenFailsAtomically(t *testing.T) {
	device := mockDuplexDevice()

	t.Run("native open error", func(t *testing.T) {
		host := hostmock.NewHost(device)
		host.OpenErr = &hostapi.HostError{Code: -10000, Text: "device unavailable"}

		_, err := duplex.Open(host, duplex.Config{
			OutputDevice:   &device,
			OutputChannels: 1,
			Logger:         quietLogger(),
		})
		var hostErr *hostapi.HostError
		if !errors.As(err, &hostErr) {
			t.Fatalf("error = %v, want *hostapi.HostError", err)
		}
	})

	t.Run("native start error", func(t *testing.T) {
		host := hostmock.NewHost(device)
		host.StartErr = &hostapi.HostError{Code: -10001, Text: "cannot start"}

		_, err := duplex.Open(host, duplex.Config{
			OutputDevice:   &device,
			OutputChannels: 1,
			Logger:         quietLogger(),
		})
		if err == nil {
			t.Fatal("open succeeded despite start failure")
		}
		// The handle must not leak half-open.
		if !host.Opened()[0].Closed() {
			t.Error("stream left open after failed start")
		}
	})
}

func TestCloseWakesPendingRead(t *testing.T) {
	device := mockMicrophone()
	host := hostmock.NewHost(device)

	session, err := duplex.Open(host, duplex.Config{
		InputDevice:   &device,
		InputChannels: 1,
		Logger:        quietLogger(),
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	stream := host.Opened()[0]
	stream.Gate = make(chan struct{}) // hold native reads open

	results := make(chan int, 1)
	go func() {
		n, _ := session.ReadFrames(make([]float32, 4096))
		results <- n
	}()

	time.Sleep(20 * time.Millisecond)
	closed := make(chan struct{})
	go func() {
		session.Close()
		close(closed)
	}()

	select {
	case n := <-results:
		if n != 0 {
			t.Errorf("read racing close returned %d frames, want 0", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("read did not return after close")
	}

	// Close itself waits for the parked native call; release it.
	stream.Gate <- struct{}{}
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not return after the native call was released")
	}
}

func TestCloseSemantics(t *testing.T) {
	device := mockDuplexDevice()
	host := hostmock.NewHost(device)

	session, err := duplex.Open(host, duplex.Config{
		InputDevice:    &device,
		OutputDevice:   &device,
		InputChannels:  2,
		OutputChannels: 2,
		Logger:         quietLogger(),
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if !session.IsOpen() {
		t.Error("IsOpen = false on a started session")
	}

	if err := session.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}

	// A bad handle reads as not open, without error.
	if session.IsOpen() {
		t.Error("IsOpen = true after close")
	}

	n, err := session.ReadFrames(make([]float32, 256))
	if n != 0 || err != nil {
		t.Errorf("read after close: got (%d, %v), want (0, nil)", n, err)
	}
	n, err = session.WriteFrames(make([]float32, 256))
	if n != 0 || err != nil {
		t.Errorf("write after close: got (%d, %v), want (0, nil)", n, err)
	}
}

func TestCloseNeverTouchesReleasedHandle(t *testing.T) {
	device := mockDuplexDevice()

	// Hammer the window between a worker's liveness check and its
	// native call: transfers in both directions race Close on every
	// iteration, and no call may land on the handle once it is
	// released.
	for i := 0; i < 300; i++ {
		host := hostmock.NewHost(device)
		session, err := duplex.Open(host, duplex.Config{
			InputDevice:    &device,
			OutputDevice:   &device,
			InputChannels:  1,
			OutputChannels: 1,
			ChunkFrames:    16,
			Logger:         quietLogger(),
		})
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			buf := make([]float32, 64)
			for {
				if n, _ := session.ReadFrames(buf); n == 0 {
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			buf := make([]float32, 64)
			for {
				if n, _ := session.WriteFrames(buf); n == 0 {
					return
				}
			}
		}()

		runtime.Gosched()
		session.Close()
		wg.Wait()

		if got := host.Opened()[0].CallsAfterClose(); got != 0 {
			t.Fatalf("iteration %d: %d native calls landed after close", i, got)
		}
	}
}

func TestViewByteRoundTrip(t *testing.T) {
	device := mockDuplexDevice()
	host := hostmock.NewHost(device)

	session, err := duplex.Open(host, duplex.Config{
		InputDevice:    &device,
		OutputDevice:   &device,
		InputChannels:  2,
		OutputChannels: 2,
		Format:         pcm.Int16,
		ChunkFrames:    64,
		Logger:         quietLogger(),
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer session.Close()

	const frames = 128
	src := make([]byte, frames*2*2)
	for i := 0; i < frames*2; i++ {
		v := uint16(i * 131)
		src[2*i] = byte(v)
		src[2*i+1] = byte(v >> 8)
	}

	sink, source := session.Sink(), session.Source()
	n, err := sink.Write(src)
	if err != nil || n != len(src) {
		t.Fatalf("write: got (%d, %v), want (%d, nil)", n, err, len(src))
	}

	dst := make([]byte, len(src))
	n, err = source.Read(dst)
	if err != nil || n != len(dst) {
		t.Fatalf("read: got (%d, %v), want (%d, nil)", n, err, len(dst))
	}

	// Int16 round trips through the float32 core within one LSB.
	for i := 0; i < frames*2; i++ {
		want := int16(uint16(src[2*i]) | uint16(src[2*i+1])<<8)
		got := int16(uint16(dst[2*i]) | uint16(dst[2*i+1])<<8)
		diff := int(want) - int(got)
		if diff < -1 || diff > 1 {
			t.Fatalf("sample %d: got %d, want %d", i, got, want)
		}
	}
}
