package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jamesfarrell.me/youtube-rag/internal/api"
	"jamesfarrell.me/youtube-rag/internal/api/handlers"
	"jamesfarrell.me/youtube-rag/internal/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question answering HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, cleanup, err := buildPipeline(ctx, a.cfg, "", a.logger)
			if err != nil {
				return err
			}
			defer cleanup()

			runners := func(languages []string) handlers.Runner {
				return p.ForLanguages(languages...)
			}
			srv := &http.Server{
				Addr:              a.cfg.ListenAddr,
				Handler:           api.NewRouter(runners, a.cfg.ServiceAPIKey, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting server",
					zap.String("addr", srv.Addr),
					zap.Bool("auth", a.cfg.ServiceAPIKey != ""))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("listen", "", "listen address (default :8080)")
	cmd.Flags().String("api-key", "", "require this X-API-Key on API routes")
	_ = a.v.BindPFlag(config.KeyListenAddr, cmd.Flags().Lookup("listen"))
	_ = a.v.BindPFlag(config.KeyServiceAPIKey, cmd.Flags().Lookup("api-key"))
	return cmd
}
