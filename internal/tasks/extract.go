package tasks

import (
	"context"
	"fmt"

	"github.com/soniclist/spotsync/internal/library"
	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/shared"
	"github.com/soniclist/spotsync/internal/store"
)

// ExtractLocal scans the local library and writes the m3u snapshot and
// missing-file reports. Returns the scan for further rendering.
func (e *SyncEngine) ExtractLocal(progress chan<- ProgressUpdate) (*library.ScanResult, error) {
	return e.loadLibrary(progress)
}

// ExtractSpotify dumps every remote playlist with its full track listing and
// writes the consolidated spotify_metadata.json report.
func (e *SyncEngine) ExtractSpotify(ctx context.Context, progress chan<- ProgressUpdate) (map[string][]models.Track, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	playlists, err := e.service.GetPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	dump := make(map[string][]models.Track, len(playlists))
	for i, pl := range playlists {
		e.sendProgress(progress, exportDataUpdate(i+1, len(playlists), pl.Name))

		export, err := e.service.ExportPlaylist(ctx, pl.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export playlist %s: %w", pl.Name, err)
		}
		dump[pl.Name] = export.Tracks
	}

	if err := e.reports.WriteTrackGroups(store.SpotifyMetadataFile, dump); err != nil {
		return nil, fmt.Errorf("failed to write spotify metadata report: %w", err)
	}

	return dump, nil
}

// PlaylistCheck summarizes the resolution state of one playlist without
// touching the network.
type PlaylistCheck struct {
	Name         string         `json:"name"`
	Total        int            `json:"total"`
	Resolved     int            `json:"resolved"`
	NotOnSpotify int            `json:"not_on_spotify"`
	Unresolved   []models.Track `json:"unresolved,omitempty"` // Never searched, or cleared by hand
}

// Check reports per-playlist resolution state from the store alone. Used by
// the simplecheck command and as input for the interactive review.
func (e *SyncEngine) Check(progress chan<- ProgressUpdate) ([]PlaylistCheck, error) {
	scan, err := e.loadLibrary(progress)
	if err != nil {
		return nil, err
	}

	if err := e.store.Load(); err != nil {
		return nil, err
	}

	root := e.scanner.LibraryFolder()
	checks := make([]PlaylistCheck, 0, len(scan.Names))

	for _, name := range scan.Names {
		check := PlaylistCheck{Name: name, Total: len(scan.Playlists[name])}

		for _, track := range scan.Playlists[name] {
			entry, ok := e.store.Get(track.Key(root))
			switch {
			case !ok:
				check.Unresolved = append(check.Unresolved, track)
			case entry.NotOnSpotify():
				check.NotOnSpotify++
			default:
				check.Resolved++
			}
		}

		checks = append(checks, check)
	}

	return checks, nil
}
