package cli

import (
	"github.com/spf13/cobra"

	"jamesfarrell.me/youtube-rag/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal UI: load a video and ask questions about it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, cleanup, err := buildPipeline(cmd.Context(), a.cfg, "", a.logger)
			if err != nil {
				return err
			}
			defer cleanup()
			return tui.Run(cmd.Context(), p.NewSession())
		},
	}
}
