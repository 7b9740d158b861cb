package envsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var (
	// ErrUnavailable means the resource could not be reached or read.
	ErrUnavailable = errors.New("envsource: configuration unavailable")
	// ErrMalformed means the resource was read but is not a JSON object.
	ErrMalformed = errors.New("envsource: configuration malformed")
)

const maxBodyBytes = 1 << 20

// Source yields the key/value pairs of the configuration resource.
type Source interface {
	Fetch(ctx context.Context) (map[string]string, error)
}

// HTTPSource fetches the resource from a URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource builds a source for url with the given request timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// URL returns the resource location.
func (s *HTTPSource) URL() string {
	return s.url
}

func (s *HTTPSource) Fetch(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return Decode(body)
}

// FileSource reads the resource from disk.
type FileSource struct {
	path string
}

// NewFileSource builds a source for the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context) (map[string]string, error) {
	body, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return Decode(body)
}

// Decode parses a JSON object into string values. Strings are taken
// verbatim; numbers, booleans and nested values keep their JSON text.
// Null values are skipped.
func Decode(body []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	values := make(map[string]string, len(raw))
	for key, msg := range raw {
		text := string(msg)
		switch {
		case text == "null":
			continue
		case len(text) > 0 && text[0] == '"':
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return nil, fmt.Errorf("%w: key %q: %v", ErrMalformed, key, err)
			}
			values[key] = s
		default:
			values[key] = text
		}
	}
	return values, nil
}
