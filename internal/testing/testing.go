// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/desertthunder/spotlink/internal/models"
)

// StaticAuthorizer returns a fixed header value or error.
type StaticAuthorizer struct {
	Header string
	Err    error
}

func (s StaticAuthorizer) Authorization() (string, error) {
	return s.Header, s.Err
}

// FakeCatalog is an in-memory catalog keyed by entity ID. It records calls so tests can
// assert that invalid input never reached it.
type FakeCatalog struct {
	Tracks    map[string]models.CatalogTrack
	Albums    map[string][]models.CatalogTrack
	Playlists map[string][]models.CatalogTrack
	Totals    map[string]int // overrides the reported playlist total
	Err       error

	mu    sync.Mutex
	Calls []string
	Pages []int // offsets requested from PlaylistTracks
}

func (f *FakeCatalog) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

// CallCount returns how many catalog calls were made.
func (f *FakeCatalog) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *FakeCatalog) Track(_ context.Context, id string) (*models.CatalogTrack, error) {
	f.record("track:" + id)
	if f.Err != nil {
		return nil, f.Err
	}
	t, ok := f.Tracks[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &t, nil
}

func (f *FakeCatalog) AlbumTracks(_ context.Context, id string) ([]models.CatalogTrack, error) {
	f.record("album:" + id)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Albums[id], nil
}

func (f *FakeCatalog) PlaylistTotal(_ context.Context, id string) (int, error) {
	f.record("playlist:" + id)
	if f.Err != nil {
		return 0, f.Err
	}
	if total, ok := f.Totals[id]; ok {
		return total, nil
	}
	return len(f.Playlists[id]), nil
}

func (f *FakeCatalog) PlaylistTracks(_ context.Context, id string, limit, offset int) ([]models.CatalogTrack, error) {
	f.record("playlist_tracks:" + id + ":" + strconv.Itoa(offset))
	f.mu.Lock()
	f.Pages = append(f.Pages, offset)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	all := f.Playlists[id]
	if offset >= len(all) {
		return nil, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

// FakeSearcher returns canned candidates per query, or calls Fn when set.
type FakeSearcher struct {
	Results map[string][]models.Candidate
	Err     error
	Fn      func(ctx context.Context, query string) ([]models.Candidate, error)

	mu      sync.Mutex
	Queries []string
}

func (f *FakeSearcher) Search(ctx context.Context, query string) ([]models.Candidate, error) {
	f.mu.Lock()
	f.Queries = append(f.Queries, query)
	f.mu.Unlock()
	if f.Fn != nil {
		return f.Fn(ctx, query)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Results[query], nil
}

// QueryCount returns how many searches were issued.
func (f *FakeSearcher) QueryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Queries)
}

// Track builds a catalog track with a single artist.
func Track(id, name, artist string, durationMS int) models.CatalogTrack {
	t := models.CatalogTrack{ID: id, Name: name, DurationMS: durationMS}
	if artist != "" {
		t.Artists = []models.CatalogArtist{{ID: "a-" + id, Name: artist}}
	}
	return t
}

// Candidate builds a node candidate.
func Candidate(identifier, title, author string, lengthMS int64) models.Candidate {
	return models.Candidate{
		Track: "enc-" + identifier,
		Info: models.CandidateInfo{
			Identifier: identifier,
			Title:      title,
			Author:     author,
			Length:     lengthMS,
			IsSeekable: true,
			URI:        "https://www.youtube.com/watch?v=" + identifier,
		},
	}
}

// MustHostPort splits an httptest server URL into host and port.
func MustHostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("failed to parse url %s: %v", rawURL, err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("failed to parse port in %s: %v", rawURL, err)
	}
	return u.Hostname(), port
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
