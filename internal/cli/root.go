// Package cli implements the ytrag command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"jamesfarrell.me/youtube-rag/internal/config"
	"jamesfarrell.me/youtube-rag/internal/logging"
)

// errReported marks a failure whose message was already printed.
var errReported = errors.New("reported")

var failure = color.New(color.FgRed, color.Bold).SprintFunc()

// app holds the state shared by all commands of one invocation.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "ytrag",
		Short:         "Ask questions about a YouTube video using its transcript",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg

			newLogger := logging.New
			if cmd.Name() == "tui" {
				newLogger = logging.NewForTUI
			}
			logger, err := newLogger(cfg.Debug, cfg.LogFile)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.Bool("debug", false, "enable debug logging")
	flags.String("log-file", "", "write logs to this file instead of stderr")
	flags.StringSlice("lang", nil, "caption languages in order of preference (default en)")
	flags.Int("top-k", 0, "number of transcript chunks used as context (default 2)")
	flags.String("database", "", "use DATABASE_URL_<ID> for pgvector chunk storage")
	flags.Bool("audio-fallback", false, "transcribe the audio (yt-dlp + LEMONFOX_API_KEY) when a video has no captions")
	for key, flag := range map[string]string{
		config.KeyDebug:         "debug",
		config.KeyLogFile:       "log-file",
		config.KeyLanguages:     "lang",
		config.KeyTopK:          "top-k",
		config.KeyDatabaseID:    "database",
		config.KeyAudioFallback: "audio-fallback",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newAskCmd(a),
		newTranscriptCmd(a),
		newServeCmd(a),
		newTUICmd(a),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	return run(ctx, NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stderr, failure("Error:"), err)
		}
		return 1
	}
	return 0
}

func printFailure(w io.Writer, msg string) error {
	fmt.Fprintln(w, failure(msg))
	return errReported
}
