package library

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/soniclist/spotsync/internal/models"
)

func TestParseM3U(t *testing.T) {
	t.Run("Skips Directives And Blanks", func(t *testing.T) {
		input := strings.Join([]string{
			"#EXTM3U",
			"",
			"#EXTINF:123,Artist - Title",
			"/music/a.mp3",
			"   ",
			"/music/b.flac",
		}, "\n")

		paths, err := ParseM3U(strings.NewReader(input))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(paths) != 2 {
			t.Fatalf("expected 2 paths, got %d", len(paths))
		}
		if paths[0] != "/music/a.mp3" || paths[1] != "/music/b.flac" {
			t.Errorf("unexpected paths: %v", paths)
		}
	})

	t.Run("Preserves Order", func(t *testing.T) {
		input := "/z.mp3\n/a.mp3\n/m.mp3\n"
		paths, err := ParseM3U(strings.NewReader(input))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []string{"/z.mp3", "/a.mp3", "/m.mp3"}
		for i, p := range want {
			if paths[i] != p {
				t.Errorf("position %d: expected %s, got %s", i, p, paths[i])
			}
		}
	})

	t.Run("Empty Input", func(t *testing.T) {
		paths, err := ParseM3U(strings.NewReader(""))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(paths) != 0 {
			t.Errorf("expected no paths, got %v", paths)
		}
	})
}

func TestWriteM3UFile(t *testing.T) {
	tracks := func(paths ...string) []models.Track {
		out := make([]models.Track, len(paths))
		for i, p := range paths {
			out[i] = models.Track{Path: p}
		}
		return out
	}

	t.Run("Fresh File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mix.m3u")

		result, err := WriteM3UFile(path, tracks("/music/a.mp3", "/music/b.mp3"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Start != 0 || result.Added != 2 || result.Final != 2 {
			t.Errorf("unexpected result: %+v", result)
		}

		got, err := ReadM3UFile(path)
		if err != nil {
			t.Fatalf("failed to read written playlist: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 entries, got %d", len(got))
		}
	})

	t.Run("Rewrite Reports Membership Change", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mix.m3u")

		if _, err := WriteM3UFile(path, tracks("/a.mp3", "/b.mp3")); err != nil {
			t.Fatalf("first write failed: %v", err)
		}

		result, err := WriteM3UFile(path, tracks("/b.mp3", "/c.mp3"))
		if err != nil {
			t.Fatalf("second write failed: %v", err)
		}

		if result.Start != 2 {
			t.Errorf("expected start 2, got %d", result.Start)
		}
		if result.Added != 1 || result.Removed != 1 || result.Unchanged != 1 {
			t.Errorf("unexpected counts: %+v", result)
		}
		if result.Difference != 0 {
			t.Errorf("expected difference 0, got %d", result.Difference)
		}
	})
}
