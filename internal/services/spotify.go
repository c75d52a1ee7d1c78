// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// defaultRateLimit keeps well under Spotify's rolling request window.
	defaultRateLimit = 3.0

	addTracksChunkSize = 100
	searchLimit        = 10
	pageLimit          = 50
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
	Images      []Image   `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []Image         `json:"images"`
	URI         string          `json:"uri"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type playlistTracks struct {
	Total int                    `json:"total"`
	Items []SpotifyPlaylistTrack `json:"items"`
	Next  *string                `json:"next"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       Owner          `json:"owner"`
	Public      bool           `json:"public"`
	Tracks      playlistTracks `json:"tracks"`
	Images      []Image        `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Owner       Owner                `json:"owner"`
	Public      bool                 `json:"public"`
	Tracks      simplePlaylistTracks `json:"tracks"`
	Images      []Image              `json:"images"`
	URI         string               `json:"uri"`
}

// SpotifyPaginatedTracks represents one page of a playlist's tracks.
type SpotifyPaginatedTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and [rate.Limiter] to stay inside the API's
// request window; every outgoing request waits on the limiter.
type SpotifyService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	limiter     *rate.Limiter
	credentials map[string]string
	baseURL     string
	userID      string
	retryAfter  time.Duration
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
// Persisted tokens in the credentials map ("access_token", "refresh_token",
// "token_expiry") are adopted so a previously authorized run needs no new login.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	s := &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		limiter:     rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		credentials: credentials,
		baseURL:     spotifyBaseURL,
	}

	if token := tokenFromCredentials(credentials); token != nil {
		s.adoptToken(context.Background(), token)
	}

	return s, nil
}

// SetRateLimit overrides the default requests-per-second budget.
func (s *SpotifyService) SetRateLimit(perSecond float64) {
	if perSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// tokenFromCredentials rebuilds a persisted [oauth2.Token], or nil when the
// map carries no usable token.
func tokenFromCredentials(credentials map[string]string) *oauth2.Token {
	access := credentials["access_token"]
	refresh := credentials["refresh_token"]
	if access == "" && refresh == "" {
		return nil
	}

	token := &oauth2.Token{AccessToken: access, RefreshToken: refresh}
	if expiry := credentials["token_expiry"]; expiry != "" {
		if t, err := time.Parse(time.RFC3339, expiry); err == nil {
			token.Expiry = t
		}
	}
	if access == "" {
		// Force an immediate refresh on first use
		token.Expiry = time.Now().Add(-time.Minute)
	}
	return token
}

// adoptToken installs a token and an auto-refreshing HTTP client for it.
func (s *SpotifyService) adoptToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an
// "access_token"/"refresh_token" pair or an "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if token := tokenFromCredentials(credentials); token != nil {
		s.adoptToken(ctx, token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		s.adoptToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrMissingCredentials)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the OAuth2 config for the callback exchange.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// Token returns the current token, including any refresh performed by the
// underlying transport, so callers can persist it.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

// doRequest performs a rate-limited, authenticated HTTP request against the
// Spotify API. A 429 waits out Retry-After once before retrying; a second 429
// surfaces as [shared.ErrRateLimited]. A 401 surfaces as [shared.ErrTokenExpired]
// so callers can reauthorize once and retry.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	retried := false
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter interrupted: %w", err)
		}

		status, err := s.send(ctx, method, endpoint, body, result)
		if err != nil {
			return err
		}

		switch {
		case status == http.StatusTooManyRequests && !retried:
			retried = true
			select {
			case <-time.After(s.retryAfter):
			case <-ctx.Done():
				return ctx.Err()
			}
		case status == http.StatusTooManyRequests:
			return fmt.Errorf("%w: still throttled after waiting", shared.ErrRateLimited)
		case status == http.StatusUnauthorized:
			return fmt.Errorf("%w: spotify returned 401", shared.ErrTokenExpired)
		case status < 200 || status >= 300:
			return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, status)
		default:
			return nil
		}
	}
}

// send issues a single HTTP request, returning the status code for doRequest
// to interpret. Decodes into result on 2xx.
func (s *SpotifyService) send(ctx context.Context, method, endpoint string, body any, result any) (int, error) {
	apiURL := s.baseURL + endpoint

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		s.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return resp.StatusCode, nil
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// parseRetryAfter converts a Retry-After header to a duration, defaulting to
// one second when absent or malformed.
func parseRetryAfter(value string) time.Duration {
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Second
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// currentUserID returns the authenticated user's ID, cached after first use.
func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}
	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	s.userID = user.ID
	return s.userID, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	var track SpotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", trackID)
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 || limit > pageLimit {
		limit = pageLimit
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, err
	}

	return &playlist, nil
}

// PlaylistTracks retrieves one page of a playlist's tracks.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPaginatedTracks, error) {
	if limit <= 0 || limit > addTracksChunkSize {
		limit = addTracksChunkSize
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Service interface implementation

// GetPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var allPlaylists []models.Playlist
	offset := 0

	for {
		response, err := s.UserPlaylists(ctx, pageLimit, offset)
		if err != nil {
			return nil, err
		}

		for _, sp := range response.Items {
			allPlaylists = append(allPlaylists, models.Playlist{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				TrackCount:  sp.Tracks.Total,
				Public:      sp.Public,
			})
		}

		if response.Next == nil {
			break
		}
		offset += pageLimit
	}

	return allPlaylists, nil
}

// GetPlaylist retrieves a specific playlist by ID.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	sp, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}, nil
}

// ExportPlaylist retrieves a playlist with its full track listing, following
// pagination until every track is loaded.
func (s *SpotifyService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	sp, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	playlist := models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}

	var tracks []models.Track
	for _, item := range sp.Tracks.Items {
		tracks = append(tracks, trackToModel(item.Track))
	}

	offset := len(tracks)
	for offset < sp.Tracks.Total {
		page, err := s.PlaylistTracks(ctx, playlistID, addTracksChunkSize, offset)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		for _, item := range page.Items {
			tracks = append(tracks, trackToModel(item.Track))
		}
		offset += len(page.Items)
		if page.Next == nil {
			break
		}
	}

	return &models.PlaylistExport{Playlist: playlist, Tracks: tracks}, nil
}

// EnsurePlaylist returns the user's playlist with the given name, creating a
// private playlist when none matches. Name comparison is case-insensitive.
func (s *SpotifyService) EnsurePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	playlists, err := s.GetPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	for _, pl := range playlists {
		if strings.EqualFold(pl.Name, name) {
			found := pl
			return &found, nil
		}
	}

	userID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"name":   name,
		"public": false,
	}

	var created SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:     created.ID,
		Name:   created.Name,
		Public: created.Public,
	}, nil
}

// Clear removes every track from the playlist by replacing its contents with
// an empty URI list.
func (s *SpotifyService) Clear(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	body := map[string]any{"uris": []string{}}
	return s.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

// AddTracks appends track URIs to the playlist in chunks of 100.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)

	for start := 0; start < len(uris); start += addTracksChunkSize {
		end := start + addTracksChunkSize
		if end > len(uris) {
			end = len(uris)
		}

		body := map[string]any{"uris": uris[start:end]}
		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}

	return nil
}

// PlaylistURIs lists the track URIs currently in the playlist, in order.
func (s *SpotifyService) PlaylistURIs(ctx context.Context, playlistID string) ([]string, error) {
	var uris []string
	offset := 0

	for {
		page, err := s.PlaylistTracks(ctx, playlistID, addTracksChunkSize, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.URI != "" {
				uris = append(uris, item.Track.URI)
			} else if item.Track.ID != "" {
				uris = append(uris, TrackURI(item.Track.ID))
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return uris, nil
}

// SearchTrack searches the track index for candidates matching title and artist.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) ([]models.Track, error) {
	query := strings.TrimSpace(title + " " + artist)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidArgument)
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), searchLimit)

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	candidates := make([]models.Track, 0, len(response.Tracks.Items))
	for _, st := range response.Tracks.Items {
		candidates = append(candidates, trackToModel(st))
	}

	return candidates, nil
}

// TrackImages returns the album images attached to a track.
func (s *SpotifyService) TrackImages(ctx context.Context, trackID string) ([]Image, error) {
	track, err := s.Track(ctx, trackID)
	if err != nil {
		return nil, err
	}
	return track.Album.Images, nil
}

// trackToModel converts a Spotify track into the shared model form.
func trackToModel(st SpotifyTrack) models.Track {
	track := models.Track{
		Title:    st.Name,
		Album:    st.Album.Name,
		Duration: st.DurationMS / 1000,
		URI:      st.URI,
	}
	if track.URI == "" && st.ID != "" {
		track.URI = TrackURI(st.ID)
	}
	if len(st.Artists) > 0 {
		track.Artist = st.Artists[0].Name
	}
	return track
}
