package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/soniclist/spotsync/internal/shared"
	"github.com/soniclist/spotsync/internal/store"
)

// DiffResult contains the per-playlist membership differences between the
// local library view and Spotify. URIs are compared as sets: duplicates
// collapse and order is irrelevant.
type DiffResult struct {
	// Extra maps playlist name to URIs present remotely but not locally.
	Extra map[string][]string `json:"extra"`
	// Missing maps playlist name to URIs present locally but not remotely.
	Missing map[string][]string `json:"missing"`
}

// Differences compares every playlist present in both views by resolved URI
// and writes the consolidated extra/missing reports. Playlists with an empty
// diff are omitted.
func (e *SyncEngine) Differences(ctx context.Context, progress chan<- ProgressUpdate) (*DiffResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	scan, err := e.loadLibrary(progress)
	if err != nil {
		return nil, err
	}

	if err := e.store.Load(); err != nil {
		return nil, err
	}

	remote, err := e.service.GetPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	remoteByName := make(map[string]string, len(remote))
	for _, pl := range remote {
		remoteByName[strings.ToLower(pl.Name)] = pl.ID
	}

	result := &DiffResult{
		Extra:   make(map[string][]string),
		Missing: make(map[string][]string),
	}

	root := e.scanner.LibraryFolder()
	for i, name := range scan.Names {
		playlistID, ok := remoteByName[strings.ToLower(name)]
		if !ok {
			e.logger.Info("playlist has no remote counterpart", "playlist", name)
			continue
		}

		e.sendProgress(progress, fetchRemoteUpdate(i+1, len(scan.Names), name))

		remoteURIs, err := e.service.PlaylistURIs(ctx, playlistID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch remote playlist %s: %w", name, err)
		}

		local := make(map[string]struct{})
		for _, track := range scan.Playlists[name] {
			if entry, ok := e.store.Get(track.Key(root)); ok && !entry.NotOnSpotify() {
				local[*entry.URI] = struct{}{}
			}
		}

		remoteSet := make(map[string]struct{}, len(remoteURIs))
		for _, uri := range remoteURIs {
			remoteSet[uri] = struct{}{}
		}

		e.sendProgress(progress, compareUpdate(i+1, len(scan.Names)))

		if extra := setDifference(remoteSet, local); len(extra) > 0 {
			result.Extra[name] = extra
		}
		if missing := setDifference(local, remoteSet); len(missing) > 0 {
			result.Missing[name] = missing
		}
	}

	if err := e.reports.WriteURISets(store.ExtraFile, result.Extra); err != nil {
		return nil, fmt.Errorf("failed to write extra report: %w", err)
	}
	if err := e.reports.WriteURISets(store.MissingFile, result.Missing); err != nil {
		return nil, fmt.Errorf("failed to write missing report: %w", err)
	}

	return result, nil
}

// setDifference returns a − b as a sorted slice.
func setDifference(a, b map[string]struct{}) []string {
	var diff []string
	for uri := range a {
		if _, ok := b[uri]; !ok {
			diff = append(diff, uri)
		}
	}
	sort.Strings(diff)
	return diff
}
