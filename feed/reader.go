// Package feed downloads and incrementally decodes the compressed
// catalog feed: an LZMA-compressed CSV streamed over HTTP.
package feed

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz"
)

// DecompressionError reports corrupt or truncated compressed input. It
// aborts the surrounding sync pipeline.
type DecompressionError struct {
	Err error
}

func (e *DecompressionError) Error() string {
	return "decompress feed: " + e.Err.Error()
}

func (e *DecompressionError) Unwrap() error {
	return e.Err
}

// The exporter writes CSV with CRLF terminators.
var lineTerminator = []byte("\r\n")

const readChunkSize = 64 * 1024

// LineReader turns a compressed byte stream into complete text lines,
// terminator included. Decompressor state persists across arbitrary
// chunk boundaries of the underlying source.
//
// When the source is exhausted and the buffer holds no terminator, any
// trailing partial bytes are discarded: the exporter terminates every
// row, so an unterminated tail is a truncated feed, not a last line.
type LineReader struct {
	src   io.Reader
	buf   bytes.Buffer
	out   []byte
	chunk []byte
}

// NewLineReader wraps an xz-compressed stream. The compressed header is
// read immediately, so a stream corrupt from the first byte fails here.
func NewLineReader(r io.Reader) (*LineReader, error) {
	src, err := xz.NewReader(r)
	if err != nil {
		return nil, &DecompressionError{Err: err}
	}

	return &LineReader{
		src:   src,
		chunk: make([]byte, readChunkSize),
	}, nil
}

// ReadLine returns the next complete line including its terminator, or
// io.EOF once the source is exhausted.
func (l *LineReader) ReadLine() ([]byte, error) {
	for {
		if idx := bytes.Index(l.buf.Bytes(), lineTerminator); idx >= 0 {
			line := make([]byte, idx+len(lineTerminator))
			_, _ = l.buf.Read(line)

			return line, nil
		}

		n, err := l.src.Read(l.chunk)
		if n > 0 {
			l.buf.Write(l.chunk[:n])

			continue
		}

		if err == io.EOF {
			return nil, io.EOF
		}

		if err != nil {
			return nil, &DecompressionError{Err: err}
		}
	}
}

// Read implements io.Reader over complete lines only, so a CSV parser
// reading through it inherits the partial-tail contract of ReadLine.
func (l *LineReader) Read(p []byte) (int, error) {
	if len(l.out) == 0 {
		line, err := l.ReadLine()
		if err != nil {
			return 0, err
		}

		l.out = line
	}

	n := copy(p, l.out)
	l.out = l.out[n:]

	return n, nil
}

// CountingReader counts bytes read from the underlying source. Sync
// progress is computed from the compressed position because the row
// count is unknown ahead of time.
type CountingReader struct {
	r io.Reader
	n int64
}

func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)

	return n, err
}

// BytesRead returns the number of compressed bytes consumed so far.
func (c *CountingReader) BytesRead() int64 {
	return c.n
}
