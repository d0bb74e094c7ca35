package feed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	t.Parallel()

	payload := []byte("compressed bytes go here")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	res, err := Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	defer func() { _ = res.Close() }()

	require.Equal(t, int64(len(payload)), res.Size)
	require.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", res.LastModified)
	require.False(t, res.BelowMinSize(int64(len(payload))))
	require.True(t, res.BelowMinSize(MinSize))

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, payload, data)
	require.Equal(t, int64(len(payload)), res.Body.BytesRead())
}

func TestFetchStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := Fetch(context.Background(), server.URL)

	var statusErr *StatusError

	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}

func TestFetchNoContentLength(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Force chunked transfer so no Content-Length is sent.
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte("some data"))
	}))
	defer server.Close()

	_, err := Fetch(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrNoContentLength)
}
