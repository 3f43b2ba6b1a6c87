package remote

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveContent(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		http.ServeContent(w, r, "archive.zip", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSourceReadAt(t *testing.T) {
	t.Parallel()

	data := []byte("hello world")
	server := serveContent(t, data)

	src, err := Open(server.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), src.Size())

	buf := make([]byte, 5)
	n, err := src.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	edge := make([]byte, 10)
	n, err = src.ReadAt(edge, int64(len(data)-3))
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "rld", string(edge[:n]))

	n, err = src.ReadAt(buf, int64(len(data)))
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	_, err = src.ReadAt(buf, -1)
	assert.Error(t, err)
}

func TestSourceSectionReader(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("0123456789"), 1000)
	src, err := Open(serveContent(t, data).URL)
	require.NoError(t, err)

	got, err := io.ReadAll(io.NewSectionReader(src, 5, 9000))
	require.NoError(t, err)
	assert.Equal(t, data[5:9005], got)
}

func TestSourceHeaders(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		http.ServeContent(w, r, "x", time.Time{}, bytes.NewReader([]byte("abc")))
	}))
	t.Cleanup(server.Close)

	src, err := Open(server.URL, WithHeader("Authorization", "Bearer token"), WithClient(server.Client()))
	require.NoError(t, err)
	_, err = src.ReadAt(make([]byte, 2), 0)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer token", "Bearer token"}, seen)
}

func TestSourceETagPinning(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		etag        string
		wantIfMatch string
	}{
		{name: "strong", etag: `"v1"`, wantIfMatch: `"v1"`},
		{name: "weak", etag: `W/"v1"`, wantIfMatch: ""},
		{name: "none", etag: "", wantIfMatch: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				mu      sync.Mutex
				ifMatch []string
			)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				ifMatch = append(ifMatch, r.Header.Get("If-Match"))
				mu.Unlock()
				if tt.etag != "" {
					w.Header().Set("ETag", tt.etag)
				}
				http.ServeContent(w, r, "x", time.Time{}, bytes.NewReader([]byte("hello world")))
			}))
			t.Cleanup(server.Close)

			src, err := Open(server.URL)
			require.NoError(t, err)

			buf := make([]byte, 5)
			_, err = src.ReadAt(buf, 6)
			require.NoError(t, err)
			assert.Equal(t, "world", string(buf))

			mu.Lock()
			defer mu.Unlock()
			require.Len(t, ifMatch, 2)
			assert.Empty(t, ifMatch[0], "probe is not pinned")
			assert.Equal(t, tt.wantIfMatch, ifMatch[1])
		})
	}
}

func TestSourceChangedFileFails(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		etag = `"v1"`
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		w.Header().Set("ETag", etag)
		mu.Unlock()
		http.ServeContent(w, r, "x", time.Time{}, bytes.NewReader([]byte("hello world")))
	}))
	t.Cleanup(server.Close)

	src, err := Open(server.URL)
	require.NoError(t, err)

	mu.Lock()
	etag = `"v2"`
	mu.Unlock()

	_, err = src.ReadAt(make([]byte, 5), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "412")
}

func TestOpenRangeUnsupported(t *testing.T) {
	t.Parallel()

	data := []byte("range unsupported")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)

	_, err := Open(server.URL)
	assert.ErrorIs(t, err, ErrRangeUnsupported)

	body, err := Fetch(server.URL)
	require.NoError(t, err)
	defer body.Close()
	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestOpenNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	_, err := Open(server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = Fetch(server.URL)
	assert.Error(t, err)
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	assert.True(t, IsURL("https://example.com/a.zip"))
	assert.True(t, IsURL("http://localhost/a.zip"))
	assert.False(t, IsURL("a.zip"))
	assert.False(t, IsURL("-"))
	assert.False(t, IsURL("ftp://host/a.zip"))
}

func TestParseContentRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "bytes 0-0/11", want: 11},
		{in: " bytes 0-9/100 ", want: 100},
		{in: "bytes 0-0/*", wantErr: true},
		{in: "items 0-0/11", wantErr: true},
		{in: "bytes 0-0", wantErr: true},
		{in: "bytes 0-0/-4", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseContentRange(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
