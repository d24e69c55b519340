// Package ingest loads products from delimited text into a catalog.
//
// The first line is a header. Each following line is split with SplitRow
// and must carry at least four fields: product ID, name, category and price.
// Shorter rows are skipped and reported; extra fields are ignored. Prices are
// normalized with NormalizePrice. Rows whose product ID is already present
// are reported as duplicates and do not stop the load.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/catalog/pkg/observability"
	"github.com/Sumatoshi-tech/catalog/pkg/product"
	"github.com/Sumatoshi-tech/catalog/pkg/rbtree"
)

const (
	tracerName = "github.com/Sumatoshi-tech/catalog/pkg/ingest"

	// ContextCheckInterval is how many rows are read between cancellation checks.
	ContextCheckInterval = 100

	// minFields is the number of fields a row needs to become a product.
	minFields = 4

	// DefaultMaxLineSize bounds a single line when Options.MaxLineSize is zero.
	DefaultMaxLineSize = 1 << 20

	// initialLineBuffer is the read buffer size.
	initialLineBuffer = 64 << 10

	reasonLineTooLong = "line too long"
)

// Inserter receives the parsed products. *catalog.Catalog implements it.
type Inserter interface {
	Insert(ctx context.Context, p product.Product) error
}

// Options control how a source is read.
type Options struct {
	// Separator splits fields. Zero means ','.
	Separator rune

	// SkipHeader drops the first line.
	SkipHeader bool

	// MaxSourceSize rejects files larger than this many bytes. Zero disables
	// the check.
	MaxSourceSize uint64

	// MaxLineSize is the longest line, in bytes, that is parsed. Longer lines
	// are skipped. Zero means DefaultMaxLineSize.
	MaxLineSize int
}

// DefaultOptions returns comma separated input with a header and no size limit.
func DefaultOptions() Options {
	return Options{Separator: ',', SkipHeader: true}
}

// SkippedRow describes a line that did not produce a product.
type SkippedRow struct {
	Line   int      `json:"line"`
	Reason string   `json:"reason"`
	Fields []string `json:"fields,omitempty"`
}

// Result summarizes one load.
type Result struct {
	// RunID tags every log line of this load.
	RunID string `json:"run_id"`
	// Source is the path or name the rows came from.
	Source string `json:"source"`
	// Rows counts data lines read, header excluded.
	Rows int `json:"rows"`
	// Inserted counts products added to the catalog.
	Inserted int `json:"inserted"`
	// Skipped lists malformed rows.
	Skipped []SkippedRow `json:"skipped,omitempty"`
	// Duplicates lists product IDs that were already present.
	Duplicates []string `json:"duplicates,omitempty"`
	// Duration is the wall time of the load.
	Duration time.Duration `json:"duration"`
}

// Loader feeds products into an Inserter.
type Loader struct {
	sink    Inserter
	opts    Options
	logger  *slog.Logger
	metrics *observability.CatalogMetrics
	tracer  trace.Tracer
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithMetrics records row outcomes and run duration.
func WithMetrics(metrics *observability.CatalogMetrics) LoaderOption {
	return func(l *Loader) {
		l.metrics = metrics
	}
}

// NewLoader creates a loader writing into sink.
func NewLoader(sink Inserter, opts Options, loaderOpts ...LoaderOption) *Loader {
	if opts.Separator == 0 {
		opts.Separator = ','
	}

	if opts.MaxLineSize <= 0 {
		opts.MaxLineSize = DefaultMaxLineSize
	}

	l := &Loader{
		sink:   sink,
		opts:   opts,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range loaderOpts {
		opt(l)
	}

	return l
}

// LoadFile reads the file at path. Files ending in .lz4 are decompressed.
// A missing file yields ErrSourceNotFound and an oversized one
// ErrSourceTooLarge; in both cases nothing is inserted.
func (l *Loader) LoadFile(ctx context.Context, path string) (Result, error) {
	src, err := openSource(path, l.opts.MaxSourceSize)
	if err != nil {
		return Result{Source: path}, err
	}
	defer src.Close()

	return l.Load(ctx, src, path)
}

// Load reads rows from r. name identifies the source in the result and logs.
func (l *Loader) Load(ctx context.Context, r io.Reader, name string) (Result, error) {
	start := time.Now()
	result := Result{RunID: uuid.NewString(), Source: name}

	ctx, span := l.tracer.Start(ctx, "ingest.load",
		trace.WithAttributes(attribute.String("ingest.source", filepath.Base(name))))
	defer span.End()

	logger := l.logger.With("run_id", result.RunID, "source", name)
	logger.DebugContext(ctx, "ingest started")

	err := l.scan(ctx, r, logger, &result)

	result.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("ingest.rows", result.Rows),
		attribute.Int("ingest.inserted", result.Inserted),
		attribute.Int("ingest.skipped", len(result.Skipped)),
		attribute.Int("ingest.duplicates", len(result.Duplicates)),
	)

	l.metrics.RecordIngest(ctx, name, result.Inserted, len(result.Skipped), len(result.Duplicates), result.Duration)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return result, err
	}

	logger.InfoContext(ctx, "ingest finished",
		"rows", result.Rows,
		"inserted", result.Inserted,
		"skipped", len(result.Skipped),
		"duplicates", len(result.Duplicates),
		"duration", result.Duration,
	)

	return result, nil
}

func (l *Loader) scan(ctx context.Context, r io.Reader, logger *slog.Logger, result *Result) error {
	lines := newLineReader(r, l.opts.MaxLineSize)
	lineNum := 0

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ingest cancelled before start: %w", err)
	}

	for {
		line, tooLong, err := lines.next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read %s: %w", result.Source, err)
		}

		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, utf8BOM)

			if l.opts.SkipHeader {
				continue
			}
		}

		result.Rows++

		if result.Rows%ContextCheckInterval == 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("ingest cancelled at line %d: %w", lineNum, ctxErr)
			}
		}

		if tooLong {
			l.skip(ctx, logger, result, SkippedRow{Line: lineNum, Reason: reasonLineTooLong},
				"limit", l.opts.MaxLineSize)

			continue
		}

		err = l.ingestRow(ctx, logger, lineNum, line, result)
		if err != nil {
			return err
		}
	}
}

func (l *Loader) skip(ctx context.Context, logger *slog.Logger, result *Result, row SkippedRow, attrs ...any) {
	result.Skipped = append(result.Skipped, row)

	logger.WarnContext(ctx, "skipping malformed row",
		append([]any{"line", row.Line, "reason", row.Reason}, attrs...)...)
}

func (l *Loader) ingestRow(ctx context.Context, logger *slog.Logger, lineNum int, line string, result *Result) error {
	fields := SplitRow(line, l.opts.Separator)

	if len(fields) < minFields {
		reason := fmt.Sprintf("expected %d fields, got %d", minFields, len(fields))
		l.skip(ctx, logger, result, SkippedRow{Line: lineNum, Reason: reason, Fields: fields})

		return nil
	}

	p := product.New(fields[0], fields[1], fields[2], NormalizePrice(fields[3]))

	err := l.sink.Insert(ctx, p)

	switch {
	case err == nil:
		result.Inserted++
	case errors.Is(err, rbtree.ErrDuplicateKey):
		result.Duplicates = append(result.Duplicates, p.ID)

		logger.WarnContext(ctx, "duplicate product ID", "line", lineNum, "product_id", p.ID)
	default:
		return fmt.Errorf("insert line %d: %w", lineNum, err)
	}

	return nil
}
