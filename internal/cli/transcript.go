package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jamesfarrell.me/youtube-rag/internal/transcript"
)

func newTranscriptCmd(a *app) *cobra.Command {
	var (
		timestamps bool
		vttPath    string
	)
	cmd := &cobra.Command{
		Use:   "transcript <video>",
		Short: "Print the transcript of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := transcript.ExtractVideoID(args[0])
			if err != nil {
				return err
			}
			source, err := newTranscriptSource(a.cfg, vttPath, a.logger)
			if err != nil {
				return err
			}

			segments, err := source.Segments(cmd.Context(), videoID, a.cfg.Languages)
			if err != nil {
				return printFailure(cmd.ErrOrStderr(), transcript.AsFetchError(videoID, err).Message())
			}

			out := cmd.OutOrStdout()
			if !timestamps {
				fmt.Fprintln(out, transcript.Join(segments))
				return nil
			}
			for _, s := range segments {
				fmt.Fprintf(out, "[%s] %s\n", formatOffset(s.Start), s.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&timestamps, "timestamps", false, "prefix each caption line with its start time")
	cmd.Flags().StringVar(&vttPath, "vtt", "", "read the transcript from a WebVTT file instead of YouTube")
	return cmd
}

// formatOffset renders d as HH:MM:SS.
func formatOffset(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}
