package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// lineReader returns lines without their "\n" or "\r\n" terminator. A line
// longer than limit bytes is read to its end and reported as too long so the
// next line starts cleanly.
type lineReader struct {
	reader *bufio.Reader
	limit  int
	buf    []byte
}

func newLineReader(r io.Reader, limit int) *lineReader {
	return &lineReader{reader: bufio.NewReaderSize(r, initialLineBuffer), limit: limit}
}

// next returns io.EOF once the input is exhausted.
func (lr *lineReader) next() (line string, tooLong bool, err error) {
	lr.buf = lr.buf[:0]
	size := 0

	for {
		chunk, readErr := lr.reader.ReadSlice('\n')
		size += len(chunk)

		if !tooLong {
			if size > lr.limit+len("\r\n") {
				tooLong = true
				lr.buf = lr.buf[:0]
			} else {
				lr.buf = append(lr.buf, chunk...)
			}
		}

		if errors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}

		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return "", false, fmt.Errorf("read line: %w", readErr)
		}

		if readErr != nil && size == 0 {
			return "", false, io.EOF
		}

		break
	}

	if tooLong {
		return "", true, nil
	}

	line = strings.TrimSuffix(string(lr.buf), "\n")
	line = strings.TrimSuffix(line, "\r")

	if len(line) > lr.limit {
		return "", true, nil
	}

	return line, false, nil
}
