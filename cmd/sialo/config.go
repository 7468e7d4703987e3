package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.path", "")
}

// readConfig binds the logging flags and their environment variables
// (LOG_LEVEL, LOG_PATH). Indexer settings are resolved separately through
// profiles; see buildConfig.
func readConfig(cmd *cobra.Command) {
	flags := cmd.Flags()
	if err := viper.BindPFlag("log.level", flags.Lookup("log-level")); err != nil {
		slog.Warn("failed to bind flag", "flag", "log-level", "err", err)
	}
	if err := viper.BindPFlag("log.path", flags.Lookup("log-path")); err != nil {
		slog.Warn("failed to bind flag", "flag", "log-path", "err", err)
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}
