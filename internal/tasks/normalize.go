package tasks

import (
	"fmt"

	"github.com/soniclist/spotsync/internal/library"
)

// Normalize rewrites every local m3u in place with remapped library paths,
// dropping entries whose files no longer exist. Returns the per-playlist
// membership changes relative to the previous file contents.
func (e *SyncEngine) Normalize(progress chan<- ProgressUpdate) (map[string]*library.M3UUpdateResult, error) {
	e.sendProgress(progress, scanLibraryUpdate(1, 1))

	scan, err := e.scanner.Scan()
	if err != nil {
		return nil, err
	}

	results := make(map[string]*library.M3UUpdateResult, len(scan.Names))
	for _, name := range scan.Names {
		result, err := library.WriteM3UFile(e.scanner.PlaylistPath(name), scan.Playlists[name])
		if err != nil {
			return nil, fmt.Errorf("failed to rewrite playlist %s: %w", name, err)
		}
		results[name] = result
	}

	return results, nil
}
