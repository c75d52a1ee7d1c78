package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/shared"
)

// Scanner loads .m3u playlists and their tracks from the local filesystem.
type Scanner struct {
	playlistFolder string
	libraryFolder  string
	otherFolders   []string
	logger         *log.Logger
}

// ScanResult holds everything a library scan produced.
type ScanResult struct {
	// Playlists maps playlist name to its ordered tracks.
	Playlists map[string][]models.Track
	// Missing maps playlist name to referenced paths that do not exist locally.
	Missing map[string][]string
	// Names lists playlist names in sorted order for deterministic output.
	Names []string
}

// NewScanner creates a Scanner rooted at the configured folders.
func NewScanner(cfg shared.PathsConfig, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scanner{
		playlistFolder: cfg.PlaylistFolder,
		libraryFolder:  cfg.LibraryFolder,
		otherFolders:   cfg.OtherFolders,
		logger:         logger,
	}
}

// LibraryFolder returns the configured local library root.
func (s *Scanner) LibraryFolder() string { return s.libraryFolder }

// PlaylistPath returns the m3u path for a playlist name.
func (s *Scanner) PlaylistPath(name string) string {
	return filepath.Join(s.playlistFolder, name+".m3u")
}

// Scan parses every .m3u in the playlist folder and reads tags from each
// referenced file. Missing files are logged, excluded, and reported in the
// result; a playlist with unreadable contents fails the scan.
func (s *Scanner) Scan() (*ScanResult, error) {
	if s.playlistFolder == "" {
		return nil, fmt.Errorf("%w: playlist_folder not set", shared.ErrInvalidConfig)
	}

	entries, err := os.ReadDir(s.playlistFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist folder: %w", err)
	}

	result := &ScanResult{
		Playlists: make(map[string][]models.Track),
		Missing:   make(map[string][]string),
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".m3u") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		path := filepath.Join(s.playlistFolder, entry.Name())

		tracks, missing, err := s.loadPlaylist(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load playlist %s: %w", name, err)
		}

		result.Playlists[name] = tracks
		if len(missing) > 0 {
			result.Missing[name] = missing
		}
		result.Names = append(result.Names, name)
	}

	sort.Strings(result.Names)
	return result, nil
}

// loadPlaylist reads one m3u and resolves each entry to a tagged track.
func (s *Scanner) loadPlaylist(path string) ([]models.Track, []string, error) {
	paths, err := ReadM3UFile(path)
	if err != nil {
		return nil, nil, err
	}

	var tracks []models.Track
	var missing []string

	for _, p := range paths {
		local := shared.RemapPath(p, s.libraryFolder, s.otherFolders)

		track, err := ReadTrack(local)
		if err != nil {
			if errors.Is(err, shared.ErrFileMissing) {
				s.logger.Warn("playlist references missing file", "playlist", filepath.Base(path), "path", local)
				missing = append(missing, local)
				continue
			}
			return nil, nil, err
		}

		tracks = append(tracks, track)
	}

	return tracks, missing, nil
}

// ScanFiles walks the whole library folder and reads every supported audio
// file, independent of playlist membership. Used for the artwork reports.
func (s *Scanner) ScanFiles() ([]models.Track, error) {
	if s.libraryFolder == "" {
		return nil, fmt.Errorf("%w: library_folder not set", shared.ErrInvalidConfig)
	}

	var tracks []models.Track
	err := filepath.WalkDir(s.libraryFolder, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !SupportedFile(path) {
			return nil
		}

		track, err := ReadTrack(path)
		if err != nil {
			if errors.Is(err, shared.ErrFileMissing) {
				return nil
			}
			s.logger.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}

		tracks = append(tracks, track)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk library folder: %w", err)
	}

	return tracks, nil
}
