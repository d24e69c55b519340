package observability

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	metricsPath       = "/metrics"
	readHeaderTimeout = 5 * time.Second
)

// newPrometheusReader creates a Prometheus exporter on a private registry and
// the handler serving it. A private registry keeps repeated Init calls from
// colliding on the default one.
func newPrometheusReader() (sdkmetric.Reader, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// MetricsServer serves a Prometheus scrape handler on /metrics.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
}

// ListenMetrics binds addr and starts serving handler in the background.
func ListenMetrics(addr string, handler http.Handler) (*MetricsServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, handler)

	srv := &MetricsServer{
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout},
		listener: listener,
	}

	go func() {
		// Serve only returns ErrServerClosed after Shutdown.
		_ = srv.server.Serve(listener) //nolint:errcheck // see above.
	}()

	return srv, nil
}

// Addr returns the bound address, useful when addr had port 0.
func (ms *MetricsServer) Addr() string {
	return ms.listener.Addr().String()
}

// Shutdown stops the server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	err := ms.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}

	return nil
}
