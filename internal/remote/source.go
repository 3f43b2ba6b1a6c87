// Package remote reads archives over HTTP using range requests.
package remote

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// ErrRangeUnsupported is returned when the server ignores Range headers.
var ErrRangeUnsupported = errors.New("remote: range requests not supported")

// Source implements io.ReaderAt over a remote file using HTTP range requests.
// Requests after the first are pinned to the probed strong ETag so a file
// replaced mid-read fails instead of mixing versions. Weak ETags are not
// pinned.
type Source struct {
	url     string
	client  *http.Client
	headers http.Header
	size    int64
	etag    string
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *http.Client) Option {
	return func(s *Source) {
		if client != nil {
			s.client = client
		}
	}
}

// WithHeader sets a header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		s.headers.Set(key, value)
	}
}

// IsURL reports whether name is an http or https URL.
func IsURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

// Open probes url with a one-byte range request to learn its size.
// It returns ErrRangeUnsupported if the server answers with the whole body.
func Open(url string, opts ...Option) (*Source, error) {
	s := newSource(url, opts)

	req, err := s.newRequest()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", "bytes=0-0")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		return nil, ErrRangeUnsupported
	default:
		return nil, fmt.Errorf("probe %s: %s", url, resp.Status)
	}

	size, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}
	s.size = size
	// If-Match uses strong comparison, which never matches a weak ETag.
	if etag := resp.Header.Get("ETag"); !strings.HasPrefix(etag, "W/") {
		s.etag = etag
	}
	return s, nil
}

// Fetch issues a plain GET for url. The caller closes the body.
func Fetch(url string, opts ...Option) (io.ReadCloser, error) {
	s := newSource(url, opts)
	req, err := s.newRequest()
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		drain(resp)
		return nil, fmt.Errorf("get %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}

func newSource(url string, opts []Option) *Source {
	s := &Source{
		url:     url,
		client:  http.DefaultClient,
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Size returns the total size of the remote file.
func (s *Source) Size() int64 {
	return s.size
}

// ReadAt reads len(p) bytes at off with a single range request.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	expected := len(p)
	if remaining := s.size - off; remaining < int64(expected) {
		expected = int(remaining)
	}

	req, err := s.newRequest()
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, off+int64(expected)-1))
	if s.etag != "" {
		req.Header.Set("If-Match", s.etag)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	case http.StatusOK:
		return 0, ErrRangeUnsupported
	default:
		return 0, fmt.Errorf("read %s at %d: %s", s.url, off, resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p[:expected])
	if err != nil {
		return n, err
	}
	if expected < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *Source) newRequest() (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	return req, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// parseContentRange extracts the complete length from "bytes a-b/size".
func parseContentRange(value string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(value), "bytes ")
	if !ok {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	_, total, ok := strings.Cut(rest, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
