package library

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/soniclist/spotsync/internal/models"
)

// M3UUpdateResult summarizes an m3u write against the previous file contents.
type M3UUpdateResult struct {
	Start      int `json:"start"`
	Added      int `json:"added"`
	Removed    int `json:"removed"`
	Unchanged  int `json:"unchanged"`
	Difference int `json:"difference"`
	Final      int `json:"final"`
}

// ParseM3U reads an m3u document and returns the referenced paths in order.
// Blank lines and #EXTM3U / #EXTINF directive lines are skipped.
func ParseM3U(r io.Reader) ([]string, error) {
	var paths []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	return paths, nil
}

// ReadM3UFile parses the m3u file at path.
func ReadM3UFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist: %w", err)
	}
	defer f.Close()

	return ParseM3U(f)
}

// WriteM3UFile writes the track paths to an m3u file, replacing previous
// contents, and reports how membership changed relative to the old file.
func WriteM3UFile(path string, tracks []models.Track) (*M3UUpdateResult, error) {
	startPaths := make(map[string]struct{})
	if existing, err := ReadM3UFile(path); err == nil {
		for _, p := range existing {
			startPaths[strings.ToLower(p)] = struct{}{}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	finalPaths := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		if _, err := w.WriteString(t.Path + "\n"); err != nil {
			return nil, fmt.Errorf("failed to write playlist: %w", err)
		}
		finalPaths[strings.ToLower(t.Path)] = struct{}{}
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush playlist: %w", err)
	}

	result := &M3UUpdateResult{Start: len(startPaths), Final: len(finalPaths)}
	for p := range finalPaths {
		if _, ok := startPaths[p]; ok {
			result.Unchanged++
		} else {
			result.Added++
		}
	}
	for p := range startPaths {
		if _, ok := finalPaths[p]; !ok {
			result.Removed++
		}
	}
	result.Difference = result.Final - result.Start

	return result, nil
}
