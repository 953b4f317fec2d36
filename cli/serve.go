package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hdb-resale/api"
	"hdb-resale/loader"
	"hdb-resale/services"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve filter results over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ld, closer, err := newLoader(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer closer.Close()

			cached := loader.NewCached(ld, a.logger)
			if _, err := cached.Load(ctx); err != nil {
				a.logger.Error("Initial load failed, requests will retry it: %v", err)
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(cached, services.NewPipeline(a.logger), a.logger).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      2 * time.Minute,
				IdleTimeout:       time.Minute,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("Listening on %s", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $HTTP_ADDR)")
	return cmd
}
