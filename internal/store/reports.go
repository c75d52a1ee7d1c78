package store

import (
	"path/filepath"

	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/shared"
)

// Report file names written into the data folder.
const (
	MetadataFile        = "m3u_metadata.json"
	SpotifyMetadataFile = "spotify_metadata.json"
	SearchFoundFile     = "search_found.json"
	SearchNotFoundFile  = "search_not_found.json"
	SearchAddedFile     = "search_added.json"
	ExtraFile           = "spotify_extra.json"
	MissingFile         = "spotify_missing.json"
	NoImagesFile        = "no_images.json"
	MissingFilesFile    = "missing_files.json"
)

// Reports writes per-run JSON report files into the data folder.
// Reports are regenerated fully each run, never merged incrementally.
type Reports struct {
	folder string
}

// NewReports creates a report writer rooted at folder.
func NewReports(folder string) *Reports {
	return &Reports{folder: folder}
}

// Path returns the full path of a named report file.
func (r *Reports) Path(name string) string {
	return filepath.Join(r.folder, name)
}

// Write persists a report under the given file name.
func (r *Reports) Write(name string, data any) error {
	return shared.WriteJSONFile(r.Path(name), data)
}

// Read loads a previously written report into target.
func (r *Reports) Read(name string, target any) error {
	return shared.ReadJSONFile(r.Path(name), target)
}

// WriteTrackGroups writes a report mapping group name (playlist or album)
// to track records, the shape shared by most report files.
func (r *Reports) WriteTrackGroups(name string, groups map[string][]models.Track) error {
	return r.Write(name, groups)
}

// WriteURISets writes a report mapping playlist name to URI lists, used by
// the diff reports.
func (r *Reports) WriteURISets(name string, sets map[string][]string) error {
	return r.Write(name, sets)
}
