package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// MinSize is the default plausibility threshold for the reported feed
// size in bytes.
const MinSize = 1000

// StatusError reports a non-success HTTP status from the feed host.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed returned status %d", e.Code)
}

// ErrNoContentLength rejects a response without a total length: progress
// cannot be computed without one.
var ErrNoContentLength = errors.New("feed response carries no Content-Length")

// Result is an open feed download. Body is positioned at the first
// compressed byte and reports the bytes consumed so far.
type Result struct {
	Body         *CountingReader
	Size         int64
	LastModified string // informational only

	closeBody func() error
}

func (r *Result) Close() error {
	return r.closeBody()
}

// BelowMinSize reports whether the feed host announced an implausibly
// small payload. Whether that aborts the sync is the caller's policy.
func (r *Result) BelowMinSize(minSize int64) bool {
	return r.Size < minSize
}

// Fetch opens the compressed catalog feed and validates the response
// preconditions: a success status and a known total length.
func Fetch(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()

		return nil, &StatusError{Code: resp.StatusCode}
	}

	if resp.ContentLength < 0 {
		_ = resp.Body.Close()

		return nil, ErrNoContentLength
	}

	return &Result{
		Body:         NewCountingReader(resp.Body),
		Size:         resp.ContentLength,
		LastModified: resp.Header.Get("Last-Modified"),
		closeBody:    resp.Body.Close,
	}, nil
}
