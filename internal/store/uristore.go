package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/soniclist/spotsync/internal/shared"
)

// SchemaVersion is the current URI store file schema.
const SchemaVersion = 1

// Entry is a store value: either a resolved Spotify URI or an explicit
// "not on Spotify" marker.
type Entry struct {
	URI *string
}

// NotOnSpotify reports whether the entry marks a track as absent from Spotify.
func (e Entry) NotOnSpotify() bool { return e.URI == nil }

// Edit records a manual change made to the on-disk store between runs.
type Edit struct {
	Key      string  `json:"key"`
	Previous *string `json:"previous"` // Value last written by the program
	Current  *string `json:"current"`  // Value found on disk
}

// Mirror provides the last program-written value per key, used to detect
// manual edits. Implemented by repositories.URIMirrorRepository.
type Mirror interface {
	Lookup(key string) (*string, bool, error)
	Record(key string, uri *string) error
}

// storeFile is the on-disk schema.
type storeFile struct {
	Version int                `json:"version"`
	URIs    map[string]*string `json:"uris"`
}

// URIStore is a persisted mapping from local track key to Spotify URI.
// All mutation happens in memory; Save rewrites the whole file atomically.
type URIStore struct {
	path string
	uris map[string]*string
}

// NewURIStore creates a store bound to the given file path. Call Load before use.
func NewURIStore(path string) *URIStore {
	return &URIStore{path: path, uris: make(map[string]*string)}
}

// Path returns the on-disk location of the store.
func (s *URIStore) Path() string { return s.path }

// UpdatedPath returns the companion report path for manually edited entries,
// the store file name with an _updated suffix.
func (s *URIStore) UpdatedPath() string {
	ext := filepath.Ext(s.path)
	return strings.TrimSuffix(s.path, ext) + "_updated" + ext
}

// Load reads the store from disk. A missing file yields an empty store.
// Loading never touches the network.
func (s *URIStore) Load() error {
	var file storeFile
	if err := shared.ReadJSONFile(s.path, &file); err != nil {
		if os.IsNotExist(err) {
			s.uris = make(map[string]*string)
			return nil
		}
		return err
	}

	if file.Version != SchemaVersion {
		return fmt.Errorf("%w: got %d, want %d", shared.ErrStoreVersion, file.Version, SchemaVersion)
	}

	if file.URIs == nil {
		file.URIs = make(map[string]*string)
	}
	s.uris = file.URIs
	return nil
}

// Get returns the entry for key. The second return reports whether the key
// is present at all; an explicit null is a present entry.
func (s *URIStore) Get(key string) (Entry, bool) {
	uri, ok := s.uris[key]
	return Entry{URI: uri}, ok
}

// Upsert sets or replaces the entry for key. A nil uri records an explicit
// "not on Spotify".
func (s *URIStore) Upsert(key string, uri *string) {
	s.uris[key] = uri
}

// Delete removes the entry for key, making the track eligible for search again.
func (s *URIStore) Delete(key string) {
	delete(s.uris, key)
}

// Len returns the number of entries.
func (s *URIStore) Len() int { return len(s.uris) }

// Keys returns all keys in sorted order.
func (s *URIStore) Keys() []string {
	keys := make([]string, 0, len(s.uris))
	for k := range s.uris {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the store back to disk atomically.
func (s *URIStore) Save() error {
	return shared.WriteJSONFile(s.path, storeFile{Version: SchemaVersion, URIs: s.uris})
}

// DetectEdits compares loaded entries against the mirror of values the
// program last wrote. Entries that differ were hand-edited; the disk value
// wins and the mirror is updated to match. New keys the program never wrote
// are mirrored silently.
func (s *URIStore) DetectEdits(m Mirror) ([]Edit, error) {
	var edits []Edit

	for _, key := range s.Keys() {
		current := s.uris[key]

		previous, found, err := m.Lookup(key)
		if err != nil {
			return nil, fmt.Errorf("mirror lookup failed for %s: %w", key, err)
		}

		if found && !uriEqual(previous, current) {
			edits = append(edits, Edit{Key: key, Previous: previous, Current: current})
		}

		if !found || !uriEqual(previous, current) {
			if err := m.Record(key, current); err != nil {
				return nil, fmt.Errorf("mirror record failed for %s: %w", key, err)
			}
		}
	}

	return edits, nil
}

func uriEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
