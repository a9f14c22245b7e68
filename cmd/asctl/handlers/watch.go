package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/imamik/asctl/internal/metrics"
	"github.com/imamik/asctl/internal/ui/tui"
)

// runDashboard runs the watch dashboard.
var runDashboard = tui.Watch

// Watch handles the watch command. With metricsAddr set, Prometheus
// metrics are served there while the dashboard runs.
func Watch(ctx context.Context, configPath, metricsAddr string) error {
	rt, err := connect(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	if metricsAddr == "" {
		metricsAddr = rt.cfg.Metrics.Addr
	}
	if metricsAddr != "" {
		stop, err := serveMetrics(metricsAddr)
		if err != nil {
			return err
		}
		defer stop()
		rt.log.Info("serving metrics", "addr", metricsAddr)
	}

	err = runDashboard(ctx, rt.coord, rt.cfg.Server.URL)
	switch {
	case errors.Is(err, tui.ErrSessionExpired):
		return ErrSessionExpired
	case errors.Is(err, context.Canceled):
		return nil
	}
	return err
}

// serveMetrics starts the metrics endpoint and returns its shutdown func.
func serveMetrics(addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
