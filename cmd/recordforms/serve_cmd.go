package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-recordforms/pkg/metrics"
	"github.com/goliatone/go-recordforms/pkg/render"
	"github.com/goliatone/go-recordforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-recordforms/pkg/session"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr          string
		secureCookies bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve record forms over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			store, err := session.OpenSQLite(ctx, a.cfg.SessionDB)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer store.Close()

			html, err := vanilla.New(vanilla.WithStylesheet("/assets/" + vanilla.StylesheetName))
			if err != nil {
				return err
			}
			renderers, err := render.NewRegistry(html)
			if err != nil {
				return err
			}
			eng, err := a.newEngine(renderers, store, metrics.Default())
			if err != nil {
				return err
			}

			srv := &server{
				engine:         eng,
				store:          store,
				logger:         a.logger,
				metricsPath:    a.cfg.MetricsPath,
				metricsHandler: promhttp.Handler(),
				secureCookies:  secureCookies,
			}
			return listen(ctx, &http.Server{
				Addr:              addr,
				Handler:           srv.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default RECORDFORMS_LISTEN_ADDR)")
	cmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "Mark the session cookie Secure")
	return cmd
}

// listen runs httpServer until ctx is cancelled, then drains in-flight
// requests.
func listen(ctx context.Context, httpServer *http.Server, a *app) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", httpServer.Addr).Info("serving record forms")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
