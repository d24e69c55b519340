package observability

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricInsertsTotal   = "catalog.inserts.total"
	metricSearchesTotal  = "catalog.searches.total"
	metricRecords        = "catalog.records"
	metricIngestRows     = "catalog.ingest.rows.total"
	metricIngestDuration = "catalog.ingest.duration.seconds"

	attrResult  = "result"
	attrOutcome = "outcome"
	attrSource  = "source"
)

// Insert and search results recorded on the catalog counters.
const (
	ResultOK        = "ok"
	ResultDuplicate = "duplicate"
	ResultHit       = "hit"
	ResultMiss      = "miss"
)

// Ingestion row outcomes.
const (
	OutcomeInserted  = "inserted"
	OutcomeSkipped   = "skipped"
	OutcomeDuplicate = "duplicate"
)

// ingestBucketBoundaries covers small fixtures up to multi-minute loads.
var ingestBucketBoundaries = []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}

// CatalogMetrics holds the instruments for catalog operations and ingestion
// runs. A nil *CatalogMetrics records nothing.
type CatalogMetrics struct {
	inserts        metric.Int64Counter
	searches       metric.Int64Counter
	records        metric.Int64UpDownCounter
	ingestRows     metric.Int64Counter
	ingestDuration metric.Float64Histogram
}

// NewCatalogMetrics creates the catalog instruments from mt.
func NewCatalogMetrics(mt metric.Meter) (*CatalogMetrics, error) {
	inserts, err := mt.Int64Counter(metricInsertsTotal,
		metric.WithDescription("Insert attempts by result"),
		metric.WithUnit("{insert}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInsertsTotal, err)
	}

	searches, err := mt.Int64Counter(metricSearchesTotal,
		metric.WithDescription("Lookups by result"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSearchesTotal, err)
	}

	records, err := mt.Int64UpDownCounter(metricRecords,
		metric.WithDescription("Records held by the catalog"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRecords, err)
	}

	ingestRows, err := mt.Int64Counter(metricIngestRows,
		metric.WithDescription("Ingested data rows by outcome"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricIngestRows, err)
	}

	ingestDuration, err := mt.Float64Histogram(metricIngestDuration,
		metric.WithDescription("Ingestion run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(ingestBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricIngestDuration, err)
	}

	return &CatalogMetrics{
		inserts:        inserts,
		searches:       searches,
		records:        records,
		ingestRows:     ingestRows,
		ingestDuration: ingestDuration,
	}, nil
}

// RecordInsert counts one insert attempt. An ok insert also grows the
// record gauge.
func (cm *CatalogMetrics) RecordInsert(ctx context.Context, result string) {
	if cm == nil {
		return
	}

	cm.inserts.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))

	if result == ResultOK {
		cm.records.Add(ctx, 1)
	}
}

// RecordSearch counts one lookup.
func (cm *CatalogMetrics) RecordSearch(ctx context.Context, found bool) {
	if cm == nil {
		return
	}

	result := ResultMiss
	if found {
		result = ResultHit
	}

	cm.searches.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordIngest records the row outcomes and duration of one ingestion run.
// The duration is labelled with the base name of source.
func (cm *CatalogMetrics) RecordIngest(
	ctx context.Context, source string, inserted, skipped, duplicates int, duration time.Duration,
) {
	if cm == nil {
		return
	}

	for outcome, count := range map[string]int{
		OutcomeInserted:  inserted,
		OutcomeSkipped:   skipped,
		OutcomeDuplicate: duplicates,
	} {
		if count == 0 {
			continue
		}

		cm.ingestRows.Add(ctx, int64(count), metric.WithAttributes(attribute.String(attrOutcome, outcome)))
	}

	cm.ingestDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String(attrSource, filepath.Base(source))))
}
