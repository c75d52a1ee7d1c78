// package tasks implements the sync pipelines between local m3u playlists
// and Spotify.
//
// The core abstraction is SyncEngine, which orchestrates library scans, track
// resolution, playlist pushes, diffs, and artwork maintenance. Operations emit
// progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/soniclist/spotsync/internal/library"
	"github.com/soniclist/spotsync/internal/matcher"
	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/services"
	"github.com/soniclist/spotsync/internal/shared"
	"github.com/soniclist/spotsync/internal/store"
)

// SyncMode selects how playlists are pushed to Spotify.
type SyncMode int

const (
	// ModeUpdate appends only URIs not already present remotely.
	ModeUpdate SyncMode = iota
	// ModeRefresh clears each remote playlist before appending.
	ModeRefresh
)

func (m SyncMode) String() string {
	if m == ModeRefresh {
		return "refresh"
	}
	return "update"
}

// SearchCache stores search responses between runs so re-runs skip API calls.
// Implemented by repositories.SearchCacheRepository.
type SearchCache interface {
	Get(query string) ([]models.Track, bool, error)
	Put(query string, tracks []models.Track) error
}

// PlaylistSyncResult summarizes one playlist's pass through the sync pipeline.
type PlaylistSyncResult struct {
	Name         string `json:"name"`
	Total        int    `json:"total"`          // Tracks read from the m3u
	Resolved     int    `json:"resolved"`       // Tracks with a known URI after resolution
	NotOnSpotify int    `json:"not_on_spotify"` // Tracks marked as explicit null
	Unmatched    int    `json:"unmatched"`      // Searched this run, no confident match
	AddedRemote  int    `json:"added_remote"`   // URIs appended to the Spotify playlist
}

// SyncResult contains all data from a full update or refresh run.
type SyncResult struct {
	Mode      SyncMode             `json:"-"`
	Playlists []PlaylistSyncResult `json:"playlists"`
	Edits     []store.Edit         `json:"edits,omitempty"` // Manual store edits found at load
	Searched  int                  `json:"searched"`        // API search calls made this run
}

// SyncEngine orchestrates the pipelines. All dependencies are injected so
// tests can substitute a mock service and in-memory cache.
type SyncEngine struct {
	service services.Service
	scanner *library.Scanner
	store   *store.URIStore
	mirror  store.Mirror
	cache   SearchCache
	matcher *matcher.Matcher
	reports *store.Reports
	logger  *log.Logger
}

// NewSyncEngine creates a SyncEngine with the provided dependencies.
func NewSyncEngine(
	service services.Service,
	scanner *library.Scanner,
	uriStore *store.URIStore,
	mirror store.Mirror,
	cache SearchCache,
	m *matcher.Matcher,
	reports *store.Reports,
	logger *log.Logger,
) *SyncEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if m == nil {
		m = matcher.New(0)
	}
	return &SyncEngine{
		service: service,
		scanner: scanner,
		store:   uriStore,
		mirror:  mirror,
		cache:   cache,
		matcher: m,
		reports: reports,
		logger:  logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Updates are dropped if the channel is full or nil.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Sync runs the full pipeline: scan, detect manual edits, resolve tracks,
// write reports, and push each playlist to Spotify in the given mode.
func (e *SyncEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, mode SyncMode) (*SyncResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	scan, err := e.loadLibrary(progress)
	if err != nil {
		return nil, err
	}

	result, err := e.resolve(ctx, progress, scan)
	if err != nil {
		return nil, err
	}
	result.Mode = mode

	for i := range result.Playlists {
		pr := &result.Playlists[i]
		e.sendProgress(progress, pushPlaylistUpdate(i+1, len(result.Playlists), pr.Name))

		added, err := e.push(ctx, mode, pr.Name, scan.Playlists[pr.Name])
		if err != nil {
			return nil, fmt.Errorf("failed to push playlist %s: %w", pr.Name, err)
		}
		pr.AddedRemote = added
	}

	return result, nil
}

// loadLibrary scans local playlists and writes the snapshot and missing-file
// reports.
func (e *SyncEngine) loadLibrary(progress chan<- ProgressUpdate) (*library.ScanResult, error) {
	e.sendProgress(progress, scanLibraryUpdate(1, 1))

	scan, err := e.scanner.Scan()
	if err != nil {
		return nil, err
	}

	if err := e.reports.WriteTrackGroups(store.MetadataFile, scan.Playlists); err != nil {
		return nil, fmt.Errorf("failed to write metadata report: %w", err)
	}
	if err := e.reports.Write(store.MissingFilesFile, scan.Missing); err != nil {
		return nil, fmt.Errorf("failed to write missing files report: %w", err)
	}

	return scan, nil
}

// resolve loads the store, reports manual edits, searches unresolved tracks,
// saves the store, and writes the search reports. Tracks already present in
// the store, including explicit nulls, are never searched again.
func (e *SyncEngine) resolve(ctx context.Context, progress chan<- ProgressUpdate, scan *library.ScanResult) (*SyncResult, error) {
	if err := e.store.Load(); err != nil {
		return nil, err
	}

	edits, err := e.store.DetectEdits(e.mirror)
	if err != nil {
		return nil, err
	}
	if len(edits) > 0 {
		e.logger.Warn("store entries were edited by hand, keeping disk values", "count", len(edits))
		if err := shared.WriteJSONFile(e.store.UpdatedPath(), edits); err != nil {
			return nil, fmt.Errorf("failed to write edited entries report: %w", err)
		}
		e.sendProgress(progress, detectEditsUpdate(len(edits)))
	}

	result := &SyncResult{Edits: edits}

	found := make(map[string][]models.Track)
	notFound := make(map[string][]models.Track)
	added := make(map[string][]models.Track)

	root := e.scanner.LibraryFolder()
	total := 0
	for _, name := range scan.Names {
		total += len(scan.Playlists[name])
	}

	step := 0
	for _, name := range scan.Names {
		pr := PlaylistSyncResult{Name: name, Total: len(scan.Playlists[name])}

		for i := range scan.Playlists[name] {
			step++
			track := &scan.Playlists[name][i]
			key := track.Key(root)

			if entry, ok := e.store.Get(key); ok {
				if entry.NotOnSpotify() {
					pr.NotOnSpotify++
				} else {
					track.URI = *entry.URI
					pr.Resolved++
				}
				continue
			}

			e.sendProgress(progress, searchTrackUpdate(step, total, track))

			match, searched, err := e.search(ctx, *track)
			if err != nil {
				return nil, err
			}
			if searched {
				result.Searched++
			}

			if match == nil {
				e.logger.Info("no confident match", "title", track.Title, "artist", track.Artist)
				e.setURI(key, nil)
				pr.Unmatched++
				notFound[name] = append(notFound[name], *track)
				continue
			}

			track.URI = match.URI
			e.setURI(key, &match.URI)
			pr.Resolved++
			found[name] = append(found[name], *track)
			added[name] = append(added[name], *track)
		}

		result.Playlists = append(result.Playlists, pr)
	}

	if err := e.store.Save(); err != nil {
		return nil, err
	}

	if err := e.reports.WriteTrackGroups(store.SearchFoundFile, found); err != nil {
		return nil, fmt.Errorf("failed to write found report: %w", err)
	}
	if err := e.reports.WriteTrackGroups(store.SearchNotFoundFile, notFound); err != nil {
		return nil, fmt.Errorf("failed to write not-found report: %w", err)
	}
	if err := e.reports.WriteTrackGroups(store.SearchAddedFile, added); err != nil {
		return nil, fmt.Errorf("failed to write added report: %w", err)
	}

	return result, nil
}

// setURI writes a value into the store and mirrors it so the next run can
// tell program writes from manual edits.
func (e *SyncEngine) setURI(key string, uri *string) {
	e.store.Upsert(key, uri)
	if e.mirror != nil {
		if err := e.mirror.Record(key, uri); err != nil {
			e.logger.Warn("failed to mirror store write", "key", key, "error", err)
		}
	}
}

// search finds the best candidate for a track, consulting the response cache
// before calling the API. The second return reports whether an API call was made.
func (e *SyncEngine) search(ctx context.Context, track models.Track) (*models.Track, bool, error) {
	query := matcher.NormalizeKey(track.Title, track.Artist)

	if e.cache != nil {
		candidates, hit, err := e.cache.Get(query)
		if err != nil {
			e.logger.Warn("search cache read failed", "query", query, "error", err)
		} else if hit {
			match, _ := e.matcher.Best(track, candidates)
			return match, false, nil
		}
	}

	candidates, err := e.service.SearchTrack(ctx, track.Title, track.Artist)
	if err != nil {
		return nil, true, fmt.Errorf("search failed for %s - %s: %w", track.Artist, track.Title, err)
	}

	if e.cache != nil {
		if err := e.cache.Put(query, candidates); err != nil {
			e.logger.Warn("search cache write failed", "query", query, "error", err)
		}
	}

	match, _ := e.matcher.Best(track, candidates)
	return match, true, nil
}

// push sends a playlist's resolved URIs to Spotify. Refresh clears first and
// appends everything; update appends only URIs not already present.
func (e *SyncEngine) push(ctx context.Context, mode SyncMode, name string, tracks []models.Track) (int, error) {
	uris := resolvedURIs(tracks)
	if len(uris) == 0 {
		e.logger.Info("skipping playlist with no resolved tracks", "playlist", name)
		return 0, nil
	}

	playlist, err := e.service.EnsurePlaylist(ctx, name)
	if err != nil {
		return 0, err
	}

	toAdd := uris
	if mode == ModeRefresh {
		if err := e.service.Clear(ctx, playlist.ID); err != nil {
			return 0, err
		}
	} else {
		existing, err := e.service.PlaylistURIs(ctx, playlist.ID)
		if err != nil {
			return 0, err
		}

		present := make(map[string]struct{}, len(existing))
		for _, uri := range existing {
			present[uri] = struct{}{}
		}

		toAdd = toAdd[:0:0]
		for _, uri := range uris {
			if _, ok := present[uri]; !ok {
				toAdd = append(toAdd, uri)
			}
		}
	}

	if len(toAdd) == 0 {
		return 0, nil
	}
	if err := e.service.AddTracks(ctx, playlist.ID, toAdd); err != nil {
		return 0, err
	}
	return len(toAdd), nil
}

// resolvedURIs returns the playlist's resolved URIs in order, first
// occurrence kept for duplicates.
func resolvedURIs(tracks []models.Track) []string {
	seen := make(map[string]struct{}, len(tracks))
	var uris []string
	for _, t := range tracks {
		if t.URI == "" {
			continue
		}
		if _, ok := seen[t.URI]; ok {
			continue
		}
		seen[t.URI] = struct{}{}
		uris = append(uris, t.URI)
	}
	return uris
}
