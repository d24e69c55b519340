package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pierrec/lz4/v4"
)

// lz4Ext marks sources stored as LZ4 frames.
const lz4Ext = ".lz4"

// utf8BOM is stripped from the start of a source.
const utf8BOM = "\ufeff"

var (
	// ErrSourceNotFound is returned when the source file does not exist.
	ErrSourceNotFound = errors.New("source not found")

	// ErrSourceTooLarge is returned when the source exceeds Options.MaxSourceSize.
	ErrSourceTooLarge = errors.New("source too large")
)

type source struct {
	io.Reader

	file *os.File
}

func (s *source) Close() error {
	return s.file.Close()
}

// openSource opens path for reading, decompressing .lz4 files. The size limit
// applies to the file on disk.
func openSource(path string, maxSize uint64) (*source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}

		return nil, fmt.Errorf("stat source: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, path)
	}

	if maxSize > 0 && uint64(info.Size()) > maxSize { //nolint:gosec // file sizes are non-negative.
		return nil, fmt.Errorf("%w: %s is %s, limit %s", ErrSourceTooLarge, path,
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(maxSize)) //nolint:gosec // same as above.
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	src := &source{Reader: file, file: file}

	if strings.EqualFold(filepath.Ext(path), lz4Ext) {
		src.Reader = lz4.NewReader(bufio.NewReader(file))
	}

	return src, nil
}
