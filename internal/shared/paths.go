package shared

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// DefaultDataDir returns the platform data directory for spotsync state
// (e.g. ~/.local/share/spotsync on Linux).
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, "spotsync")
}

// DefaultConfigPath returns the platform config file location used when no
// --config flag is given and ./config.toml does not exist.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "spotsync", "config.toml")
}

// RemapPath rewrites a path rooted in one of otherRoots to be rooted in
// root instead. Playlists written on another machine reference that
// machine's library folder; remapping lets them resolve locally.
// Returns the input unchanged when no root matches.
func RemapPath(path, root string, otherRoots []string) string {
	if root == "" {
		return path
	}
	norm := filepath.ToSlash(path)
	for _, other := range otherRoots {
		prefix := strings.TrimSuffix(filepath.ToSlash(other), "/")
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(norm), strings.ToLower(prefix)+"/") {
			rest := norm[len(prefix)+1:]
			return filepath.Join(root, filepath.FromSlash(rest))
		}
	}
	return path
}

// FormatDuration renders a second count as M:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// VisibilityString renders playlist visibility for display.
func VisibilityString(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}
