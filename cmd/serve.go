package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/routine-advisor/advisor/internal/handlers"
	"github.com/routine-advisor/advisor/internal/render"
	"github.com/routine-advisor/advisor/internal/session"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the product advisor",
		Long: `Starts the Advisor web interface on the specified address.

Visitors filter the catalog, pick products and chat with the assistant. When
assistant.enabled is set the server also answers the chat endpoint contract on
POST /api/assistant.`,
		Example: `  # Start server on default address :8888
  advisor serve

  # Serve a remote parquet catalog on a custom port
  advisor serve --addr :3000 --catalog https://cdn.example.org/products.parquet

  # Use a deployed chat endpoint instead of the in-process assistant
  advisor serve --endpoint https://worker.example.org/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			a, err := wireApp(cfg)
			if err != nil {
				return err
			}

			// Fail fast on an unreadable catalog; visitor sessions reuse the cached load.
			catalog, err := a.loader.Load(cmd.Context())
			if err != nil {
				return err
			}

			renderer, err := render.New()
			if err != nil {
				return err
			}

			sessions := session.NewManager(session.Options{
				Loader:        a.loader,
				Store:         a.store,
				Renderer:      renderer,
				Transport:     a.transport,
				HistoryWindow: cfg.Chat.HistoryWindow,
				IdleTimeout:   cfg.Session.IdleTimeout,
			})
			go sessions.Run(cmd.Context())

			hopts := handlers.Options{
				Sessions:   sessions,
				Cookie:     cfg.Session.Cookie,
				Transcript: a.transcript,
			}
			if cfg.Assistant.Enabled {
				hopts.Assistant = a.assistant
			}
			handler := handlers.New(hopts)

			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Advisor interface available",
					"addr", cfg.Server.Addr,
					"catalog", a.loader.Source(),
					"products", catalog.Len(),
					"store", cfg.Store.Path,
					"endpoint", cfg.Chat.Endpoint,
					"assistant", cfg.Assistant.Enabled,
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().String("addr", ":8888", "Address to listen on")
	addChatFlags(cmd)

	return cmd
}
