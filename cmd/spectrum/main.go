// Command spectrum captures from the default input device and prints a
// live magnitude spectrum of the incoming audio as terminal bars.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"
	"os"
	"os/signal"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"github.com/spf13/viper"

	"github.com/soundspan/duplex/cmd/config"
	"github.com/soundspan/duplex/internal/portaudiohost"
	"github.com/soundspan/duplex/pkg/catalog"
	"github.com/soundspan/duplex/pkg/duplex"
	"github.com/soundspan/duplex/pkg/hostapi"
)

const (
	fftSize = 2048
	bars    = 48
)

func main() {
	configFilePath := flag.String("configFilePath", "config.yaml", "Set the file path to the config file.")
	deviceName := flag.String("device", "", "Exact input device name; empty picks the first input device.")
	flag.Parse()

	config.LoadConfig(*configFilePath)
	logFilePointer := config.ConfigureLogger()
	if logFilePointer != nil {
		defer logFilePointer.Close()
	}

	host := portaudiohost.New()
	if err := host.Initialize(); err != nil {
		slog.Error("could not initialize audio host", "err", err)
		panic(err)
	}
	defer host.Terminate()

	cat, err := catalog.Load(host)
	if err != nil {
		slog.Error("could not enumerate devices", "err", err)
		panic(err)
	}
	device, err := pickInput(cat, *deviceName)
	if err != nil {
		slog.Error("could not resolve input device", "err", err)
		panic(err)
	}

	session, err := duplex.Open(host, duplex.Config{
		InputDevice:          &device,
		InputChannels:        1,
		SampleRate:           viper.GetFloat64("samplerate"),
		ChunkFrames:          viper.GetInt("chunkframes"),
		SuppressXRunWarnings: viper.GetBool("suppressxrunwarnings"),
	})
	if err != nil {
		slog.Error("could not open capture session", "err", err)
		panic(err)
	}
	defer session.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	window := blackmanWindow(fftSize)
	buf := make([]float32, fftSize)
	samples := make([]float64, fftSize)
	for {
		select {
		case <-interrupt:
			return
		default:
		}

		n, err := session.ReadFrames(buf)
		if err != nil {
			slog.Error("capture failed", "err", err)
			return
		}
		if n == 0 {
			return
		}
		for i, s := range buf[:n] {
			samples[i] = float64(s) * window[i]
		}
		printBars(fft.FFTReal(samples))
	}
}

func pickInput(cat *catalog.Catalog, name string) (hostapi.Device, error) {
	if name != "" {
		return cat.ByName(name)
	}
	return cat.DefaultInput()
}

func printBars(spectrum []complex128) {
	// One bar per frequency band, averaged over the band's bins.
	binsPerBar := len(spectrum) / 2 / bars
	var line strings.Builder
	for b := 0; b < bars; b++ {
		sum := 0.0
		for i := 0; i < binsPerBar; i++ {
			sum += cmplx.Abs(spectrum[b*binsPerBar+i])
		}
		db := 20 * math.Log10(sum/float64(binsPerBar)+1e-12)
		switch {
		case db > 0:
			line.WriteByte('#')
		case db > -30:
			line.WriteByte('+')
		case db > -60:
			line.WriteByte('-')
		default:
			line.WriteByte(' ')
		}
	}
	fmt.Printf("\r%s", line.String())
}

func blackmanWindow(size int) []float64 {
	const a0, a1, a2 = 0.42, 0.5, 0.08
	window := make([]float64, size)
	for i := range window {
		t := float64(i) / float64(size-1)
		window[i] = a0 - a1*math.Cos(2*math.Pi*t) + a2*math.Cos(4*math.Pi*t)
	}
	return window
}
