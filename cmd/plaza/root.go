package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "plaza",
		Short:         "Plaza admin backend with live audit-log streaming",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogger(cmd.ErrOrStderr(), os.Getenv("PLAZA_LOG_LEVEL"), os.Getenv("PLAZA_LOG_FORMAT"))
		},
	}

	serve := newServeCommand()
	root.AddCommand(serve, newTokenCommand())

	// Running the bare binary starts the server.
	root.RunE = serve.RunE

	return root
}

// setupLogger configures the global zerolog logger. Unknown levels fall back
// to info; format "text" selects the console writer.
func setupLogger(out io.Writer, level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
