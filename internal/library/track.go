package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/shared"
)

var supportedExtensions = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".m4a":  {},
	".ogg":  {},
}

// SupportedFile reports whether the path has a readable audio extension.
func SupportedFile(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ReadTrack reads embedded metadata from the audio file at path.
//
// Untagged but readable files fall back to a filename-derived title so a
// playlist entry is never silently lost. A missing file returns
// [shared.ErrFileMissing].
func ReadTrack(path string) (models.Track, error) {
	track := models.Track{Path: path}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return track, fmt.Errorf("%w: %s", shared.ErrFileMissing, path)
		}
		return track, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		track.Title = titleFromFilename(path)
		return track, nil
	}

	track.Title = strings.TrimSpace(m.Title())
	if track.Title == "" {
		track.Title = titleFromFilename(path)
	}
	track.Artist = strings.TrimSpace(m.Artist())
	track.Album = strings.TrimSpace(m.Album())
	track.TrackNumber, _ = m.Track()
	track.HasImage = m.Picture() != nil

	return track, nil
}

// titleFromFilename derives a display title from the file basename.
func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
