package config

import (
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/soundspan/duplex/internal/utils"
)

// LoadConfig reads the tool config file into viper, applying the shared
// defaults first. A missing config file is fine; a malformed one is
// fatal.
func LoadConfig(configFilePath string) {
	utils.SetViperDefaults()

	viper.SetConfigFile(configFilePath)
	if err := viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			slog.Info("no config file found", "configFilePath", configFilePath)
		} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("no config file found", "configFilePath", configFilePath)
		} else {
			slog.Error("error during config read", "err", err)
			panic(err)
		}
	}
}

// ConfigureLogger installs the default slog logger per the loaded
// config and returns the log file handle, if any, for the caller to
// close on exit.
func ConfigureLogger() *os.File {
	logFilePointer, err := utils.ConfigureDefaultLogger(
		viper.GetString("loglevel"),
		viper.GetString("logfile"),
		slog.HandlerOptions{},
	)
	if err != nil {
		slog.Error("could not configure logger", "err", err)
		panic(err)
	}
	return logFilePointer
}
