// Command kernel runs the SciELO content store: the HTTP API server
// plus the administrative tasks that prepare its MongoDB database.
package main

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/scieloorg/documentstore/internal/config"
)

// Sentinel errors marking a run ended by a shutdown signal; main maps
// them to the conventional 128+signal exit codes.
var (
	errInterrupted = errors.New("interrupted")
	errTerminated  = errors.New("terminated")
)

func main() {
	root := &cobra.Command{
		Use:           "kernel",
		Short:         "Document store for the SciELO publishing framework",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), createIndexesCmd(), createCollectionsCmd())

	if err := root.Execute(); err != nil {
		code := exitCode(err)
		if code == 1 {
			log.Error().Err(err).Msg("command failed")
		}
		os.Exit(code)
	}
}

// exitCode maps an execution error to the process exit code: 130 after
// SIGINT, 143 after SIGTERM, 1 for everything else.
func exitCode(err error) int {
	switch {
	case errors.Is(err, errInterrupted):
		return 130
	case errors.Is(err, errTerminated):
		return 143
	default:
		return 1
	}
}

// setupLogging configures the global zerolog logger from the settings:
// level, service tag and an optional rotating file sink.
func setupLogging(settings config.Settings) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(strings.ToLower(settings.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if settings.LogFile != "" {
		log.Logger = log.Output(&lumberjack.Logger{
			Filename:   settings.LogFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		})
	}
	log.Logger = log.With().Str("service", "kernel").Logger()
}
