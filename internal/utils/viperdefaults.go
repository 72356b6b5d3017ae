package utils

import "github.com/spf13/viper"

// Set the viper defaults shared by the duplex command line tools.
func SetViperDefaults() {
	viper.SetDefault("loglevel", "info")
	viper.SetDefault("logfile", "")
	viper.SetDefault("samplerate", 0) // 0 = device default
	viper.SetDefault("channels", 2)
	viper.SetDefault("chunkframes", 128)
	viper.SetDefault("suppressxrunwarnings", false)
}
