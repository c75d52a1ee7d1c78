package tasks

import (
	"fmt"

	"github.com/soniclist/spotsync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ScanLibrary Phase = iota
	DetectEdits
	SearchTracks
	PushPlaylist
	FetchRemote
	Compare
	EmbedArtwork
	ExportData
)

func (p Phase) String() string {
	switch p {
	case ScanLibrary:
		return "scan_library"
	case DetectEdits:
		return "detect_edits"
	case SearchTracks:
		return "search_tracks"
	case PushPlaylist:
		return "push_playlist"
	case FetchRemote:
		return "fetch_remote"
	case Compare:
		return "compare"
	case EmbedArtwork:
		return "embed_artwork"
	case ExportData:
		return "export_data"
	default:
		return ""
	}
}

func scanLibraryUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanLibrary,
		Step:    step,
		Total:   total,
		Message: "Scanning local playlists...",
	}
}

func detectEditsUpdate(edits int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DetectEdits,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d manually edited store entries", edits),
	}
}

func searchTrackUpdate(step, total int, track *models.Track) ProgressUpdate {
	message := "Searching Spotify for unresolved tracks..."
	if track != nil {
		message = fmt.Sprintf("Searching: %s - %s", track.Artist, track.Title)
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: message,
		Data:    track,
	}
}

func pushPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PushPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Pushing playlist (%s)...", name),
	}
}

func fetchRemoteUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching remote playlist (%s)...", name),
	}
}

func compareUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: "Comparing local and remote track sets...",
	}
}

func embedArtworkUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EmbedArtwork,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Embedding artwork: %s", path),
	}
}

func exportDataUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportData,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Exporting %s...", name),
	}
}
