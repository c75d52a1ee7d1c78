package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteJSONFile(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "report.json")

		in := map[string][]string{"Playlist A": {"spotify:track:1", "spotify:track:2"}}
		if err := WriteJSONFile(path, in); err != nil {
			t.Fatalf("failed to write JSON file: %v", err)
		}

		var out map[string][]string
		if err := ReadJSONFile(path, &out); err != nil {
			t.Fatalf("failed to read JSON file: %v", err)
		}

		if len(out["Playlist A"]) != 2 {
			t.Errorf("expected 2 entries, got %d", len(out["Playlist A"]))
		}
	})

	t.Run("Overwrites Existing", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "report.json")

		if err := WriteJSONFile(path, map[string]int{"a": 1}); err != nil {
			t.Fatalf("first write failed: %v", err)
		}
		if err := WriteJSONFile(path, map[string]int{"b": 2}); err != nil {
			t.Fatalf("second write failed: %v", err)
		}

		var out map[string]int
		if err := ReadJSONFile(path, &out); err != nil {
			t.Fatalf("failed to read JSON file: %v", err)
		}
		if _, ok := out["a"]; ok {
			t.Error("expected old contents to be replaced")
		}
		if out["b"] != 2 {
			t.Errorf("expected b=2, got %d", out["b"])
		}
	})

	t.Run("No Temp Files Left Behind", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "report.json")

		if err := WriteJSONFile(path, []string{"x"}); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		entries, err := os.ReadDir(tmpDir)
		if err != nil {
			t.Fatalf("failed to list dir: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the target file, found %d entries", len(entries))
		}
	})

	t.Run("Missing File Read", func(t *testing.T) {
		var out map[string]int
		err := ReadJSONFile(filepath.Join(t.TempDir(), "absent.json"), &out)
		if !os.IsNotExist(err) {
			t.Errorf("expected os.IsNotExist error, got %v", err)
		}
	})
}
