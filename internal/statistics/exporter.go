package statistics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/markusressel/fanhold/internal/engine"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "fanhold"
)

// SnapshotProvider returns the latest engine snapshot, nil before the first tick.
type SnapshotProvider interface {
	Snapshot() *engine.Snapshot
}

// RegisterEngine registers all collectors reading from the given provider.
func RegisterEngine(registerer prometheus.Registerer, provider SnapshotProvider) {
	registerer.MustRegister(
		NewSensorCollector(provider),
		NewGroupCollector(provider),
		NewFanCollector(provider),
	)
}

// Serve exposes /metrics of the given gatherer on the given port until ctx is done.
func Serve(ctx context.Context, port int, gatherer prometheus.Gatherer) error {
	if port <= 0 || port >= 65535 {
		port = 9000
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	errs := make(chan error, 1)
	go func() {
		ui.Info("Serving metrics on :%d/metrics", port)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("cannot start prometheus metrics endpoint: %w", err)
	case <-ctx.Done():
		ui.Info("Stopping statistics server...")
		timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		err := server.Shutdown(timeoutCtx)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
