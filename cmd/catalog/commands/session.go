package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Sumatoshi-tech/catalog/pkg/catalog"
	"github.com/Sumatoshi-tech/catalog/pkg/config"
	"github.com/Sumatoshi-tech/catalog/pkg/ingest"
	"github.com/Sumatoshi-tech/catalog/pkg/observability"
	"github.com/Sumatoshi-tech/catalog/pkg/version"
)

// session is the per-command runtime: configuration, telemetry and an empty
// catalog.
type session struct {
	cfg        *config.Config
	providers  observability.Providers
	logger     *slog.Logger
	metrics    *observability.CatalogMetrics
	metricsSrv *observability.MetricsServer
	catalog    *catalog.Catalog
}

// openSession loads .env and the configuration, starts telemetry and creates
// the catalog. source, when set, replaces source.path. Logs go to logOut.
func openSession(opts *GlobalOptions, mode observability.AppMode, source string, logOut io.Writer) (*session, error) {
	err := loadDotEnv()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if source != "" {
		cfg.Source.Path = source
	}

	providers, err := observability.Init(observabilityConfig(cfg, opts, mode, logOut))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	sess := &session{cfg: cfg, providers: providers, logger: providers.Logger}

	sess.metrics, err = observability.NewCatalogMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, sess.close(context.Background()))
	}

	if cfg.Telemetry.MetricsAddr != "" {
		sess.metricsSrv, err = observability.ListenMetrics(cfg.Telemetry.MetricsAddr, providers.MetricsHandler)
		if err != nil {
			return nil, errors.Join(err, sess.close(context.Background()))
		}

		sess.logger.Info("serving metrics", "addr", sess.metricsSrv.Addr())
	}

	sess.catalog = catalog.New(catalog.WithMetrics(sess.metrics), catalog.WithLogger(sess.logger))

	return sess, nil
}

func observabilityConfig(
	cfg *config.Config, opts *GlobalOptions, mode observability.AppMode, logOut io.Writer,
) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Info()
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.Prometheus = cfg.Telemetry.MetricsAddr != ""
	obsCfg.LogJSON = strings.EqualFold(cfg.Logging.Format, config.LogFormatJSON)
	obsCfg.LogOutput = logOut

	// Validated by config.LoadConfig.
	obsCfg.LogLevel, _ = observability.ParseLevel(cfg.Logging.Level)
	if opts.Verbose {
		obsCfg.LogLevel = slog.LevelDebug
	}

	return obsCfg
}

// ingest loads the configured source into the session catalog.
func (s *session) ingest(ctx context.Context) (ingest.Result, error) {
	maxSize, err := s.cfg.Source.MaxSizeBytes()
	if err != nil {
		return ingest.Result{}, err
	}

	loader := ingest.NewLoader(s.catalog,
		ingest.Options{
			Separator:     s.cfg.Source.SeparatorRune(),
			SkipHeader:    s.cfg.Source.Header,
			MaxSourceSize: maxSize,
		},
		ingest.WithLogger(s.logger),
		ingest.WithMetrics(s.metrics),
	)

	result, err := loader.LoadFile(ctx, s.cfg.Source.Path)
	if err != nil {
		return result, fmt.Errorf("load products: %w", err)
	}

	return result, nil
}

// close stops the metrics server and flushes telemetry.
func (s *session) close(ctx context.Context) error {
	var errs []error

	if s.metricsSrv != nil {
		errs = append(errs, s.metricsSrv.Shutdown(ctx))
	}

	errs = append(errs, s.providers.Shutdown(ctx))

	return errors.Join(errs...)
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
