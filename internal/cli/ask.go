package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"jamesfarrell.me/youtube-rag/internal/transcript"
)

var heading = color.New(color.FgCyan, color.Bold).SprintFunc()

func newAskCmd(a *app) *cobra.Command {
	var (
		showTranscript bool
		showSources    bool
		vttPath        string
	)
	cmd := &cobra.Command{
		Use:   "ask <video> [question]",
		Short: "Answer a question from a video's transcript",
		Long: `Fetches the transcript of a video, indexes it and answers the question from the
most relevant parts. Without a question the transcript is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := transcript.ExtractVideoID(args[0])
			if err != nil {
				return err
			}
			question := strings.TrimSpace(strings.Join(args[1:], " "))

			p, cleanup, err := buildPipeline(cmd.Context(), a.cfg, vttPath, a.logger)
			if err != nil {
				return err
			}
			defer cleanup()

			res := p.Run(cmd.Context(), videoID, question)
			if res.Failed() {
				return printFailure(cmd.ErrOrStderr(), res.Message())
			}

			out := cmd.OutOrStdout()
			if question == "" {
				fmt.Fprintln(out, res.Transcript)
				return nil
			}
			if showTranscript {
				fmt.Fprintln(out, heading("Transcript"))
				fmt.Fprintln(out, res.Transcript)
				fmt.Fprintln(out)
			}
			if showSources {
				fmt.Fprintln(out, heading("Context"))
				for _, c := range res.Chunks {
					fmt.Fprintf(out, "[%d] (%.3f) %s\n", c.Position, c.Similarity, c.Text)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, res.Answer)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showTranscript, "show-transcript", false, "print the transcript before the answer")
	cmd.Flags().BoolVar(&showSources, "sources", false, "print the retrieved chunks before the answer")
	cmd.Flags().StringVar(&vttPath, "vtt", "", "read the transcript from a WebVTT file instead of YouTube")
	return cmd
}
