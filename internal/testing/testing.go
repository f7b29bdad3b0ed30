// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/featx/internal/models"
	"github.com/desertthunder/featx/internal/services"
)

// MockLibrary is a test double for [services.LibraryService].
type MockLibrary struct {
	Tracks   []models.LikedTrack
	AuthErr  error
	FetchErr error
}

func (m *MockLibrary) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.AuthErr
}

func (m *MockLibrary) LikedTracks(ctx context.Context) ([]models.LikedTrack, error) {
	if m.AuthErr != nil {
		return nil, m.AuthErr
	}
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Tracks, nil
}

func (m *MockLibrary) Name() string { return "mock-library" }

// MockPlaylists is a test double for [services.PlaylistService]. Created
// playlists get sequential ids; Added accumulates URIs per playlist id.
type MockPlaylists struct {
	MockLibrary
	UserID    string
	UserErr   error
	CreateErr error
	AddErr    error

	Created  map[string]string   // playlist id -> name
	Added    map[string][]string // playlist id -> uris
	AddCalls int
}

func NewMockPlaylists(userID string) *MockPlaylists {
	return &MockPlaylists{
		UserID:  userID,
		Created: map[string]string{},
		Added:   map[string][]string{},
	}
}

func (m *MockPlaylists) CurrentUserID(ctx context.Context) (string, error) {
	if m.UserErr != nil {
		return "", m.UserErr
	}
	return m.UserID, nil
}

func (m *MockPlaylists) CreatePlaylist(ctx context.Context, userID, name, description string) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	id := "pl-" + name
	m.Created[id] = name
	return id, nil
}

func (m *MockPlaylists) AddPlaylistTracks(ctx context.Context, playlistID string, uris []string) error {
	m.AddCalls++
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Added[playlistID] = append(m.Added[playlistID], uris...)
	return nil
}

// MockAnalysis is a test double for [services.AnalysisService]. Lookups and
// searches are driven by the maps; per-id errors come from Failures.
type MockAnalysis struct {
	Known     map[string]string                   // track id -> analysis id for LookupTracks
	Searches  map[string][]services.AnalysisTrack // query -> candidates
	Features  map[string]map[string]float64       // analysis id -> features
	Failures  map[string]error                    // track or analysis id -> error
	LookupErr error                               // whole-batch error

	LookupCalls  int
	SearchCalls  int
	FeatureCalls int
}

func (m *MockAnalysis) LookupTracks(ctx context.Context, trackIDs []string) (map[string]string, error) {
	m.LookupCalls++
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	found := map[string]string{}
	for _, id := range trackIDs {
		if analysisID, ok := m.Known[id]; ok {
			found[id] = analysisID
		}
	}
	return found, nil
}

func (m *MockAnalysis) SearchTrack(ctx context.Context, query string) ([]services.AnalysisTrack, error) {
	m.SearchCalls++
	if err, ok := m.Failures[query]; ok {
		return nil, err
	}
	return m.Searches[query], nil
}

func (m *MockAnalysis) AudioFeatures(ctx context.Context, analysisID string) (map[string]float64, error) {
	m.FeatureCalls++
	if err, ok := m.Failures[analysisID]; ok {
		return nil, err
	}
	if features, ok := m.Features[analysisID]; ok {
		return features, nil
	}
	return nil, errors.New("features not found")
}

func (m *MockAnalysis) Name() string { return "mock-analysis" }

// MemoryCache is an in-memory tasks.ResolveCacher for tests.
type MemoryCache struct {
	Entries  map[string]models.IdentifierMapping
	StoreErr error
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{Entries: map[string]models.IdentifierMapping{}}
}

func (c *MemoryCache) Lookup(trackID string) (models.IdentifierMapping, bool) {
	mapping, ok := c.Entries[trackID]
	return mapping, ok
}

func (c *MemoryCache) Store(mapping models.IdentifierMapping) error {
	if c.StoreErr != nil {
		return c.StoreErr
	}
	c.Entries[mapping.TrackID] = mapping
	return nil
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

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
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
