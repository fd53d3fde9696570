package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"iter"
	"log/slog"

	"github.com/poiesic/corpus/core"
)

// maxLineBytes bounds a single input line; enriched article bodies can be
// large but anything past this is malformed input. An overlong line is
// drained and counted, never buffered whole.
const maxLineBytes = 4 * 1024 * 1024

// Reader turns a byte stream of newline-delimited JSON objects into a
// finite, non-restartable sequence of raw articles. Blank lines are
// dropped; lines that are not valid JSON objects, or that exceed
// maxLineBytes, are counted, logged and skipped without affecting
// subsequent lines.
type Reader struct {
	reader    *bufio.Reader
	logger    *slog.Logger
	malformed int
	consumed  bool
	readErr   error
}

// NewReader wraps an input stream.
func NewReader(r io.Reader, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		reader: bufio.NewReaderSize(r, 64*1024),
		logger: logger,
	}
}

// readLine reads up to the next newline. A line longer than maxLineBytes
// is drained to its end and reported as tooLong with no content. The
// returned error is io.EOF at end of stream or a stream-level failure.
func (r *Reader) readLine() (line []byte, tooLong bool, err error) {
	for {
		chunk, cerr := r.reader.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(line) > maxLineBytes {
				tooLong = true
				line = nil
			}
		}
		if cerr == bufio.ErrBufferFull {
			continue
		}
		return line, tooLong, cerr
	}
}

// Records returns an iterator over the parseable raw articles in input
// order. It may be consumed once.
func (r *Reader) Records() iter.Seq[core.RawArticle] {
	return func(yield func(core.RawArticle) bool) {
		if r.consumed {
			return
		}
		r.consumed = true

		lineNo := 0
		for {
			line, tooLong, err := r.readLine()
			if err != nil && err != io.EOF {
				r.readErr = err
				return
			}
			atEOF := err == io.EOF

			if tooLong {
				lineNo++
				r.malformed++
				r.logger.Warn("skipping overlong input line", "line", lineNo, "max_bytes", maxLineBytes)
			} else if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				lineNo++

				// A JSON value that is not an object is malformed input even
				// when it parses ("null", arrays, bare strings).
				if trimmed[0] != '{' {
					r.malformed++
					r.logger.Warn("skipping non-object input line", "line", lineNo)
				} else {
					var raw core.RawArticle
					if err := json.Unmarshal(trimmed, &raw); err != nil {
						r.malformed++
						r.logger.Warn("skipping malformed input line", "line", lineNo, "err", err)
					} else if !yield(raw) {
						return
					}
				}
			}

			if atEOF {
				return
			}
		}
	}
}

// Malformed reports how many lines were skipped as unparseable.
func (r *Reader) Malformed() int {
	return r.malformed
}

// Err reports a stream-level read failure, if any.
func (r *Reader) Err() error {
	return r.readErr
}
