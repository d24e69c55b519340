package shell_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/catalog/pkg/catalog"
	"github.com/Sumatoshi-tech/catalog/pkg/product"
	"github.com/Sumatoshi-tech/catalog/pkg/shell"
)

const menu = "\n1. Insert a new product\n2. Search for a product\n3. Exit\nChoose an option: "

func run(t *testing.T, cat shell.Catalog, input string) (stdout, stderr string) {
	t.Helper()

	var out, errOut bytes.Buffer

	sh := shell.New(cat, strings.NewReader(input), &out,
		shell.WithErrorOutput(&errOut),
		shell.WithColor(false),
		shell.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	require.NoError(t, sh.Run(context.Background()))

	return out.String(), errOut.String()
}

func TestExit(t *testing.T) {
	t.Parallel()

	stdout, stderr := run(t, catalog.New(), "3\n")

	assert.Equal(t, menu+"Exiting...\n", stdout)
	assert.Empty(t, stderr)
}

func TestInsertThenSearch(t *testing.T) {
	t.Parallel()

	cat := catalog.New()
	input := "1\nP1\nMouse\nAccessories\n$49.00\n2\nP1\n3\n"

	stdout, stderr := run(t, cat, input)

	want := menu +
		"Enter Product ID: Enter Product Name: Enter Product Category: Enter Product Price (e.g., $49.00): " +
		"Product inserted successfully!\n" +
		menu +
		"Enter product ID to search: " +
		"Product ID: P1, Name: Mouse, Category: Accessories, Price: $49.00\n" +
		menu +
		"Exiting...\n"

	assert.Equal(t, want, stdout)
	assert.Empty(t, stderr)

	got, found := cat.Search(context.Background(), "P1")
	require.True(t, found)
	assert.Equal(t, product.New("P1", "Mouse", "Accessories", "$49.00"), got)
}

func TestInsertKeepsInputVerbatim(t *testing.T) {
	t.Parallel()

	cat := catalog.New()

	run(t, cat, "1\n P2 \nName\nCat\n1,000\n3\n")

	got, found := cat.Search(context.Background(), " P2 ")
	require.True(t, found)
	assert.Equal(t, "1,000", got.Price)
}

func TestInsertDuplicate(t *testing.T) {
	t.Parallel()

	cat := catalog.New()
	require.NoError(t, cat.Insert(context.Background(), product.New("P1", "Original", "C", "$1")))

	stdout, stderr := run(t, cat, "1\nP1\nOther\nC\n$2\n3\n")

	assert.Equal(t, "Error: Product with ID P1 already exists.\n", stderr)
	assert.NotContains(t, stdout, "Product inserted successfully!")

	got, _ := cat.Search(context.Background(), "P1")
	assert.Equal(t, "Original", got.Name)
}

func TestSearchMissing(t *testing.T) {
	t.Parallel()

	stdout, _ := run(t, catalog.New(), "2\nnope\n3\n")

	assert.Contains(t, stdout, "Enter product ID to search: Product not found.\n")
}

func TestInvalidChoices(t *testing.T) {
	t.Parallel()

	stdout, _ := run(t, catalog.New(), "7\nabc\n\n 3 \n")

	assert.Equal(t, 3, strings.Count(stdout, "Invalid choice. Please choose again.\n"))
	assert.True(t, strings.HasSuffix(stdout, "Exiting...\n"))
}

func TestEndOfInputExits(t *testing.T) {
	t.Parallel()

	stdout, _ := run(t, catalog.New(), "2\nP1\n")
	assert.True(t, strings.HasSuffix(stdout, menu))

	// Input ending in the middle of an insert.
	cat := catalog.New()
	run(t, cat, "1\nP1\nName\n")
	assert.Zero(t, cat.Len())
}

func TestReadErrorIsReturned(t *testing.T) {
	t.Parallel()

	errRead := errors.New("tty gone")
	sh := shell.New(catalog.New(), iotest.ErrReader(errRead), io.Discard)

	err := sh.Run(context.Background())
	require.ErrorIs(t, err, errRead)
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sh := shell.New(catalog.New(), strings.NewReader("3\n"), io.Discard)

	require.ErrorIs(t, sh.Run(ctx), context.Canceled)
}

func TestErrorsDefaultToMainOutput(t *testing.T) {
	t.Parallel()

	cat := catalog.New()
	require.NoError(t, cat.Insert(context.Background(), product.New("P1", "n", "c", "$1")))

	var out bytes.Buffer

	sh := shell.New(cat, strings.NewReader("1\nP1\nn\nc\n$1\n3\n"), &out, shell.WithColor(false))
	require.NoError(t, sh.Run(context.Background()))

	assert.Contains(t, out.String(), "Error: Product with ID P1 already exists.")
}

func TestLongInputLine(t *testing.T) {
	t.Parallel()

	cat := catalog.New()
	name := strings.Repeat("n", 200<<10)

	stdout, stderr := run(t, cat, "1\nP1\n"+name+"\nc\n$1\n"+strings.Repeat("9", 100<<10)+"\n3\n")

	assert.Contains(t, stdout, "Product inserted successfully!\n")
	assert.Contains(t, stdout, "Invalid choice. Please choose again.\n")
	assert.True(t, strings.HasSuffix(stdout, "Exiting...\n"))
	assert.Empty(t, stderr)

	got, found := cat.Search(context.Background(), "P1")
	require.True(t, found)
	assert.Equal(t, name, got.Name)
}

func TestLastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	cat := catalog.New()

	stdout, _ := run(t, cat, "1\r\nP1\r\nn\r\nc\r\n$1\r\n3")

	assert.True(t, strings.HasSuffix(stdout, "Exiting...\n"))

	_, found := cat.Search(context.Background(), "P1")
	assert.True(t, found, "CRLF must not leak into the ID")
}
