// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/services"
)

// MockService is a configurable test double for [services.Service].
//
// Zero value behaves as an authenticated service with no playlists and no
// search results. Tests override the function fields they care about and can
// inspect the recorded calls afterwards.
type MockService struct {
	PlaylistsFunc  func(ctx context.Context) ([]models.Playlist, error)
	ExportFunc     func(ctx context.Context, playlistID string) (*models.PlaylistExport, error)
	EnsureFunc     func(ctx context.Context, name string) (*models.Playlist, error)
	SearchFunc     func(ctx context.Context, title, artist string) ([]models.Track, error)
	URIsFunc       func(ctx context.Context, playlistID string) ([]string, error)
	ImagesFunc     func(ctx context.Context, trackID string) ([]services.Image, error)
	ClearErr       error
	AddErr         error
	SearchCalls    []string   // title|artist per SearchTrack call
	ClearedIDs     []string   // playlist IDs passed to Clear
	AddedURIs      [][]string // URI batches passed to AddTracks
	EnsuredNames   []string   // names passed to EnsurePlaylist
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.PlaylistsFunc != nil {
		return m.PlaylistsFunc(ctx)
	}
	return []models.Playlist{}, nil
}

func (m *MockService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	return &models.Playlist{ID: playlistID}, nil
}

func (m *MockService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, playlistID)
	}
	return &models.PlaylistExport{Playlist: models.Playlist{ID: playlistID}}, nil
}

func (m *MockService) EnsurePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	m.EnsuredNames = append(m.EnsuredNames, name)
	if m.EnsureFunc != nil {
		return m.EnsureFunc(ctx, name)
	}
	return &models.Playlist{ID: "mock-" + name, Name: name}, nil
}

func (m *MockService) Clear(ctx context.Context, playlistID string) error {
	m.ClearedIDs = append(m.ClearedIDs, playlistID)
	return m.ClearErr
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.AddedURIs = append(m.AddedURIs, uris)
	return nil
}

func (m *MockService) PlaylistURIs(ctx context.Context, playlistID string) ([]string, error) {
	if m.URIsFunc != nil {
		return m.URIsFunc(ctx, playlistID)
	}
	return nil, nil
}

func (m *MockService) SearchTrack(ctx context.Context, title, artist string) ([]models.Track, error) {
	m.SearchCalls = append(m.SearchCalls, title+"|"+artist)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, title, artist)
	}
	return nil, nil
}

func (m *MockService) TrackImages(ctx context.Context, trackID string) ([]services.Image, error) {
	if m.ImagesFunc != nil {
		return m.ImagesFunc(ctx, trackID)
	}
	return nil, nil
}

func (m *MockService) Name() string { return "mock" }

// MemCache is an in-memory tasks.SearchCache.
type MemCache struct {
	Entries map[string][]models.Track
	Puts    int
}

func NewMemCache() *MemCache {
	return &MemCache{Entries: make(map[string][]models.Track)}
}

func (c *MemCache) Get(query string) ([]models.Track, bool, error) {
	tracks, ok := c.Entries[query]
	return tracks, ok, nil
}

func (c *MemCache) Put(query string, tracks []models.Track) error {
	c.Puts++
	c.Entries[query] = tracks
	return nil
}

// MemMirror is an in-memory store.Mirror.
type MemMirror struct {
	Values map[string]*string
}

func NewMemMirror() *MemMirror {
	return &MemMirror{Values: make(map[string]*string)}
}

func (m *MemMirror) Lookup(key string) (*string, bool, error) {
	v, ok := m.Values[key]
	return v, ok, nil
}

func (m *MemMirror) Record(key string, uri *string) error {
	m.Values[key] = uri
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
