package models

import (
	"path/filepath"
	"strings"
)

// Track represents a single audio track, either a local file or a remote
// Spotify entry. Local tracks carry a Path; resolved tracks carry a URI.
type Track struct {
	Path        string `json:"path,omitempty"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	TrackNumber int    `json:"track_number,omitempty"`
	Duration    int    `json:"duration,omitempty"` // Duration in seconds
	URI         string `json:"uri,omitempty"`      // Spotify track URI once resolved
	HasImage    bool   `json:"has_image"`          // Embedded artwork present in the local tag container
}

// Key returns the stable store key for a local track: its path relative to
// root, slash-separated and lowercased. Paths outside root fall back to the
// absolute path in the same normalized form.
func (t Track) Key(root string) string {
	p := t.Path
	if root != "" {
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	return strings.ToLower(filepath.ToSlash(p))
}

// Playlist represents a named playlist from either side of the sync.
type Playlist struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// PlaylistExport represents a playlist with its full track listing.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// URISet returns the deduplicated set of resolved track URIs in the export.
// Unresolved tracks are excluded.
func (p *PlaylistExport) URISet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Tracks))
	for _, t := range p.Tracks {
		if t.URI != "" {
			set[t.URI] = struct{}{}
		}
	}
	return set
}
