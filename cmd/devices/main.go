// Command devices lists every audio endpoint visible through the host,
// with channel bounds, default sample rates, and default latencies.
package main

import (
	"flag"
	"fmt"
	"log/slog"

	"github.com/soundspan/duplex/cmd/config"
	"github.com/soundspan/duplex/internal/portaudiohost"
	"github.com/soundspan/duplex/pkg/catalog"
)

func main() {
	configFilePath := flag.String("configFilePath", "config.yaml", "Set the file path to the config file.")
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

	for _, d := range cat.Devices() {
		fmt.Printf("[%d] %s (%s)\n", d.Index, d.Name, d.HostAPI)
		fmt.Printf("    in %d / out %d channels, default %g Hz\n",
			d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
		fmt.Printf("    input latency %v-%v, output latency %v-%v\n",
			d.DefaultLowInputLatency, d.DefaultHighInputLatency,
			d.DefaultLowOutputLatency, d.DefaultHighOutputLatency)
	}
}
