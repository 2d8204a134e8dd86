package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/queuectl/queuectl/internal/api/handler"
	"github.com/queuectl/queuectl/internal/api/router"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config.App.Environment == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			r := router.SetupRouter(&handler.Dependencies{
				Logger: app.Logger.Logger,
				Queue:  app.Queue,
			})

			addr := fmt.Sprintf(":%d", app.Config.Server.Port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      r,
				ReadTimeout:  app.Config.Server.ReadTimeout,
				WriteTimeout: app.Config.Server.WriteTimeout,
				IdleTimeout:  app.Config.Server.IdleTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errChan := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
			}()

			app.Logger.Info("HTTP server listening",
				slog.String("address", addr),
			)

			select {
			case err := <-errChan:
				return err
			case <-ctx.Done():
			}

			app.Logger.Info("Shutting down HTTP server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}

			app.Logger.Info("HTTP server stopped")
			return nil
		},
	}
}
