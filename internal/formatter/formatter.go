// package formatter renders playlist track listings to CSV, Markdown, and
// plain text for the extract commands.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/shared"
)

// Format enumerates the supported output formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ValidFormat reports whether the format name is supported.
func ValidFormat(format string) bool {
	switch format {
	case FormatJSON, FormatCSV, FormatMarkdown, FormatText:
		return true
	}
	return false
}

// GroupsToCSV flattens playlist groups into one CSV with a leading Playlist column.
func GroupsToCSV(groups map[string][]models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Playlist", "Title", "Artist", "Album", "Duration", "URI", "Path"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, name := range sortedNames(groups) {
		for _, track := range groups[name] {
			record := []string{
				name,
				track.Title,
				track.Artist,
				track.Album,
				strconv.Itoa(track.Duration),
				track.URI,
				track.Path,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// GroupsToMarkdown renders playlist groups as one Markdown document, a
// section per playlist.
func GroupsToMarkdown(title string, groups map[string][]models.Track) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n", title))

	for _, name := range sortedNames(groups) {
		tracks := groups[name]
		buf.WriteString(fmt.Sprintf("\n## %s\n\n**Tracks**: %d\n\n", name, len(tracks)))

		for i, track := range tracks {
			albumPart := ""
			if track.Album != "" {
				albumPart = fmt.Sprintf(" (%s)", track.Album)
			}
			durationPart := ""
			if track.Duration > 0 {
				durationPart = fmt.Sprintf(" [%s]", shared.FormatDuration(track.Duration))
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s%s%s\n", i+1, track.Artist, track.Title, albumPart, durationPart))
		}
	}

	return buf.Bytes()
}

// GroupsToText renders playlist groups as plain text.
func GroupsToText(groups map[string][]models.Track) []byte {
	var buf bytes.Buffer

	for _, name := range sortedNames(groups) {
		tracks := groups[name]
		buf.WriteString(fmt.Sprintf("Playlist: %s\nTracks: %d\n\n", name, len(tracks)))
		for i, track := range tracks {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Title))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// RenderGroups renders playlist groups in the named format.
func RenderGroups(format, title string, groups map[string][]models.Track) ([]byte, error) {
	switch format {
	case FormatJSON:
		return shared.MarshalJSON(groups, true)
	case FormatCSV:
		return GroupsToCSV(groups)
	case FormatMarkdown:
		return GroupsToMarkdown(title, groups), nil
	case FormatText:
		return GroupsToText(groups), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

func sortedNames(groups map[string][]models.Track) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
