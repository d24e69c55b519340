package ingest_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/catalog/pkg/catalog"
	"github.com/Sumatoshi-tech/catalog/pkg/ingest"
	"github.com/Sumatoshi-tech/catalog/pkg/product"
)

const sampleCSV = `product_id,product_name,category,discounted_price
B07JW9H4J1,"Wayona Nylon Braided USB to Lightning Cable, 3ft",Computers&Accessories,"$1,099.00"
B098NS6PVG,Ambrane Unbreakable 60W Cable,Computers&Accessories,199
broken,row
B07JW9H4J1,Duplicate entry,Computers&Accessories,$5.00
B08HDJ86NZ,boAt Deuce USB 300,Computers&Accessories,$329.00
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLoader(sink ingest.Inserter, opts ingest.Options) *ingest.Loader {
	return ingest.NewLoader(sink, opts, ingest.WithLogger(quietLogger()))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cat := catalog.New()

	result, err := newLoader(cat, ingest.DefaultOptions()).Load(ctx, strings.NewReader(sampleCSV), "sample.csv")
	require.NoError(t, err)

	assert.Equal(t, "sample.csv", result.Source)
	assert.Equal(t, 5, result.Rows)
	assert.Equal(t, 3, result.Inserted)
	assert.Equal(t, []string{"B07JW9H4J1"}, result.Duplicates)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 4, result.Skipped[0].Line)
	assert.Equal(t, []string{"broken", "row"}, result.Skipped[0].Fields)
	assert.Positive(t, result.Duration)

	_, err = uuid.Parse(result.RunID)
	require.NoError(t, err)

	got, found := cat.Search(ctx, "B07JW9H4J1")
	require.True(t, found)
	assert.Equal(t, product.New("B07JW9H4J1", "Wayona Nylon Braided USB to Lightning Cable, 3ft",
		"Computers&Accessories", "$1099.00"), got)

	got, found = cat.Search(ctx, "B098NS6PVG")
	require.True(t, found)
	assert.Equal(t, "$199", got.Price)

	assert.Equal(t, 3, cat.Len())
	require.NoError(t, cat.Verify())
}

func TestLoad_LogsDiagnostics(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&logs, nil))
	loader := ingest.NewLoader(catalog.New(), ingest.DefaultOptions(), ingest.WithLogger(logger))

	result, err := loader.Load(context.Background(), strings.NewReader(sampleCSV), "sample.csv")
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, "skipping malformed row")
	assert.Contains(t, out, "duplicate product ID")
	assert.Contains(t, out, "run_id="+result.RunID)
	assert.Contains(t, out, "ingest finished")
}

func TestLoad_HeaderOptional(t *testing.T) {
	t.Parallel()

	cat := catalog.New()
	opts := ingest.DefaultOptions()
	opts.SkipHeader = false

	input := "\ufeffP1,Name,Cat,1\nP2,Name,Cat,2\n"

	result, err := newLoader(cat, opts).Load(context.Background(), strings.NewReader(input), "x")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Inserted)

	_, found := cat.Search(context.Background(), "P1")
	assert.True(t, found, "BOM must not become part of the first key")
}

func TestLoad_BOMBeforeHeader(t *testing.T) {
	t.Parallel()

	cat := catalog.New()

	result, err := newLoader(cat, ingest.DefaultOptions()).
		Load(context.Background(), strings.NewReader("\ufeffid,name,cat,price\r\nP1,n,c,$3\r\n"), "x")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Rows)

	got, found := cat.Search(context.Background(), "P1")
	require.True(t, found)
	assert.Equal(t, "$3", got.Price)
}

func TestLoad_Separator(t *testing.T) {
	t.Parallel()

	cat := catalog.New()
	opts := ingest.DefaultOptions()
	opts.Separator = ';'

	_, err := newLoader(cat, opts).
		Load(context.Background(), strings.NewReader("h\nP1;Mouse, wireless;Acc;1,5\n"), "x")
	require.NoError(t, err)

	got, found := cat.Search(context.Background(), "P1")
	require.True(t, found)
	assert.Equal(t, "Mouse, wireless", got.Name)
	assert.Equal(t, "$15", got.Price)
}

func TestLoad_Cancelled(t *testing.T) {
	t.Parallel()

	var input strings.Builder

	input.WriteString("header\n")

	for i := range 250 {
		fmt.Fprintf(&input, "P%04d,n,c,1\n", i)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cat := catalog.New()

	result, err := newLoader(cat, ingest.DefaultOptions()).Load(ctx, strings.NewReader(input.String()), "x")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Inserted)
	assert.Zero(t, cat.Len())
}

type failingSink struct{}

var errSinkDown = errors.New("sink down")

func (failingSink) Insert(context.Context, product.Product) error {
	return errSinkDown
}

func TestLoad_SinkErrorAborts(t *testing.T) {
	t.Parallel()

	_, err := newLoader(failingSink{}, ingest.DefaultOptions()).
		Load(context.Background(), strings.NewReader(sampleCSV), "x")
	require.ErrorIs(t, err, errSinkDown)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoad_LineTooLongIsSkipped(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	cat := catalog.New()
	loader := ingest.NewLoader(cat, ingest.DefaultOptions(),
		ingest.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	input := "h\nA,n,c,1\nB," + strings.Repeat("x", 2<<20) + ",c,2\nC,n,c,3\n"

	result, err := loader.Load(context.Background(), strings.NewReader(input), "x")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 2, result.Inserted)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ingest.SkippedRow{Line: 3, Reason: "line too long"}, result.Skipped[0])
	assert.Contains(t, logs.String(), "reason=\"line too long\"")

	for _, id := range []string{"A", "C"} {
		_, found := cat.Search(context.Background(), id)
		assert.True(t, found, id)
	}

	_, found := cat.Search(context.Background(), "B")
	assert.False(t, found)
}

func TestLoad_MaxLineSize(t *testing.T) {
	t.Parallel()

	cat := catalog.New()
	opts := ingest.DefaultOptions()
	opts.MaxLineSize = 10

	// "P1,n,c,1" fits; the second row is 11 bytes; CRLF does not count.
	input := "h\r\nP1,n,c,1\r\nP2,nn,cc,12\r\nP3,n,c,3"

	result, err := newLoader(cat, opts).Load(context.Background(), strings.NewReader(input), "x")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 2, result.Inserted)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 3, result.Skipped[0].Line)

	got, found := cat.Search(context.Background(), "P3")
	require.True(t, found, "final line without a newline is still read")
	assert.Equal(t, "$3", got.Price)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "products.csv", sampleCSV)
	cat := catalog.New()

	result, err := newLoader(cat, ingest.DefaultOptions()).LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, result.Source)
	assert.Equal(t, 3, result.Inserted)
}

func TestLoadFile_NotFound(t *testing.T) {
	t.Parallel()

	cat := catalog.New()

	_, err := newLoader(cat, ingest.DefaultOptions()).
		LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, ingest.ErrSourceNotFound)
	assert.Zero(t, cat.Len())
}

func TestLoadFile_Directory(t *testing.T) {
	t.Parallel()

	_, err := newLoader(catalog.New(), ingest.DefaultOptions()).LoadFile(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ingest.ErrSourceNotFound)
}

func TestLoadFile_TooLarge(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "products.csv", sampleCSV)
	cat := catalog.New()
	opts := ingest.DefaultOptions()
	opts.MaxSourceSize = 16

	_, err := newLoader(cat, opts).LoadFile(context.Background(), path)
	require.ErrorIs(t, err, ingest.ErrSourceTooLarge)
	assert.Zero(t, cat.Len())
}

func TestLoadFile_LZ4(t *testing.T) {
	t.Parallel()

	var compressed bytes.Buffer

	writer := lz4.NewWriter(&compressed)
	_, err := io.WriteString(writer, sampleCSV)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	path := writeFile(t, "products.csv.lz4", compressed.String())
	cat := catalog.New()

	result, err := newLoader(cat, ingest.DefaultOptions()).LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Inserted)

	_, found := cat.Search(context.Background(), "B08HDJ86NZ")
	assert.True(t, found)
}
