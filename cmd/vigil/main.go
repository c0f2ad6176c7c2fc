package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vigil",
		Short: "Watchdog for remotely-hosted autonomous coding sessions",
		Long: "vigil mirrors remote coding sessions into a local store, detects sessions\n" +
			"stuck waiting for feedback, and dispatches at-most-once automated replies.",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// A missing .env file is fine; the environment may already be set.
			_ = godotenv.Load()
			setupLogging()
		},
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newReconcileCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// setupLogging initializes global structured logging from the environment.
func setupLogging() {
	level, err := zerolog.ParseLevel(os.Getenv("VIGIL_LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("VIGIL_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
