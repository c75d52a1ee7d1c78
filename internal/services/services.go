// package services defines interface Service for interacting with the
// Spotify Web API.
package services

import (
	"context"
	"strings"

	"github.com/soniclist/spotsync/internal/models"
	"golang.org/x/oauth2"
)

// Service defines the remote music service operations the sync pipelines
// need: playlist listing and mutation, track search, and artwork lookup.
type Service interface {
	// Authenticate performs OAuth or token-based authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetPlaylists retrieves all playlists for the authenticated user.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist retrieves a specific playlist by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// ExportPlaylist retrieves a playlist with its full track listing.
	ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error)

	// EnsurePlaylist returns the authenticated user's playlist with the given
	// name, creating it when absent.
	EnsurePlaylist(ctx context.Context, name string) (*models.Playlist, error)

	// Clear removes every track from the playlist.
	Clear(ctx context.Context, playlistID string) error

	// AddTracks appends track URIs to the playlist, chunking as the API requires.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// PlaylistURIs lists the track URIs currently in the playlist, in order.
	PlaylistURIs(ctx context.Context, playlistID string) ([]string, error)

	// SearchTrack searches for candidates matching the given title and artist.
	// Candidates are returned in the service's relevance order. An empty
	// result is not an error.
	SearchTrack(ctx context.Context, title, artist string) ([]models.Track, error)

	// TrackImages returns the album images available for a track ID,
	// unordered; callers pick by pixel area.
	TrackImages(ctx context.Context, trackID string) ([]Image, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends Service for providers using OAuth2 authorization-code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the provider authorization URL for the given state token.
	GetAuthURL(state string) string

	// OAuthConfig exposes the underlying config for the callback exchange.
	OAuthConfig() *oauth2.Config
}

// Image represents a remote image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Area returns the pixel area used to pick the largest image.
func (i Image) Area() int { return i.Height * i.Width }

// LargestImage returns the image with the greatest pixel area, or nil for an
// empty slice.
func LargestImage(images []Image) *Image {
	var best *Image
	for idx := range images {
		if best == nil || images[idx].Area() > best.Area() {
			best = &images[idx]
		}
	}
	return best
}

// TrackIDFromURI extracts the bare ID from a spotify:track:<id> URI.
// Already-bare IDs pass through unchanged.
func TrackIDFromURI(uri string) string {
	if idx := strings.LastIndex(uri, ":"); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}

// TrackURI builds a spotify:track:<id> URI from a bare ID.
func TrackURI(id string) string {
	if strings.HasPrefix(id, "spotify:") {
		return id
	}
	return "spotify:track:" + id
}
