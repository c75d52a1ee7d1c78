package artwork

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/soniclist/spotsync/internal/shared"
)

var (
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	pngHeader  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
)

func TestDetectMIME(t *testing.T) {
	tc := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", jpegHeader, "image/jpeg"},
		{"png", pngHeader, "image/png"},
		{"unknown defaults to jpeg", []byte{0x00, 0x01, 0x02, 0x03}, "image/jpeg"},
		{"short payload", []byte{0x89}, "image/jpeg"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMIME(tt.data); got != tt.want {
				t.Errorf("DetectMIME() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEmbed(t *testing.T) {
	t.Run("Unsupported Format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "track.ogg")
		if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		err := Embed(path, jpegHeader)
		if !errors.Is(err, shared.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("Empty Payload", func(t *testing.T) {
		err := Embed(filepath.Join(t.TempDir(), "track.mp3"), nil)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestHasEmbeddedImage(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		_, err := HasEmbeddedImage(filepath.Join(t.TempDir(), "absent.mp3"))
		if !errors.Is(err, shared.ErrFileMissing) {
			t.Errorf("expected ErrFileMissing, got %v", err)
		}
	})

	t.Run("Unreadable Tags Count As No Image", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "garbage.mp3")
		if err := os.WriteFile(path, []byte("tagless junk bytes"), 0644); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		has, err := HasEmbeddedImage(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if has {
			t.Error("expected no embedded image")
		}
	})
}

func TestExtract(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		_, _, err := Extract(filepath.Join(t.TempDir(), "absent.flac"))
		if !errors.Is(err, shared.ErrFileMissing) {
			t.Errorf("expected ErrFileMissing, got %v", err)
		}
	})

	t.Run("No Embedded Image", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "garbage.mp3")
		if err := os.WriteFile(path, []byte("tagless junk bytes"), 0644); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		_, _, err := Extract(path)
		if !errors.Is(err, shared.ErrNoEmbeddedImage) {
			t.Errorf("expected ErrNoEmbeddedImage, got %v", err)
		}
	})
}

func TestExtractToFile(t *testing.T) {
	t.Run("No Embedded Image Writes Nothing", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "garbage.mp3")
		if err := os.WriteFile(path, []byte("tagless junk bytes"), 0644); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		_, err := ExtractToFile(path)
		if !errors.Is(err, shared.ErrNoEmbeddedImage) {
			t.Errorf("expected ErrNoEmbeddedImage, got %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("failed to read dir: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the audio file in %s, found %d entries", dir, len(entries))
		}
	})
}
