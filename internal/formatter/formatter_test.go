package formatter

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soniclist/spotsync/internal/models"
)

var sampleGroups = map[string][]models.Track{
	"roadtrip": {
		{Title: "Take On Me", Artist: "a-ha", Album: "Hunting High and Low", Duration: 225, URI: "spotify:track:1"},
		{Title: "Africa", Artist: "Toto", Duration: 295},
	},
	"quiet": {
		{Title: "Holocene", Artist: "Bon Iver", Album: "Bon Iver"},
	},
}

func TestValidFormat(t *testing.T) {
	for _, format := range []string{"json", "csv", "markdown", "txt"} {
		if !ValidFormat(format) {
			t.Errorf("expected %s to be valid", format)
		}
	}
	if ValidFormat("yaml") {
		t.Error("expected yaml to be invalid")
	}
}

func TestGroupsToCSV(t *testing.T) {
	data, err := GroupsToCSV(sampleGroups)
	if err != nil {
		t.Fatalf("failed to render CSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse rendered CSV: %v", err)
	}

	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	if records[0][0] != "Playlist" {
		t.Errorf("expected Playlist column first, got %s", records[0][0])
	}
	// Groups render in sorted playlist order
	if records[1][0] != "quiet" || records[2][0] != "roadtrip" {
		t.Errorf("expected sorted playlist order, got %s then %s", records[1][0], records[2][0])
	}
	if records[2][1] != "Take On Me" || records[2][5] != "spotify:track:1" {
		t.Errorf("unexpected track row: %v", records[2])
	}
}

func TestGroupsToMarkdown(t *testing.T) {
	out := string(GroupsToMarkdown("Local Library", sampleGroups))

	for _, want := range []string{
		"# Local Library",
		"## roadtrip",
		"**Tracks**: 2",
		"1. a-ha - Take On Me (Hunting High and Low) [3:45]",
		"2. Toto - Africa [4:55]",
		"1. Bon Iver - Holocene (Bon Iver)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q in:\n%s", want, out)
		}
	}
}

func TestGroupsToText(t *testing.T) {
	out := string(GroupsToText(sampleGroups))

	if !strings.Contains(out, "Playlist: roadtrip\nTracks: 2") {
		t.Errorf("text missing playlist header in:\n%s", out)
	}
	if !strings.Contains(out, "2. Toto - Africa") {
		t.Errorf("text missing numbered track in:\n%s", out)
	}
}

func TestRenderGroups(t *testing.T) {
	t.Run("JSON Round Trips", func(t *testing.T) {
		data, err := RenderGroups(FormatJSON, "x", sampleGroups)
		if err != nil {
			t.Fatalf("failed to render JSON: %v", err)
		}
		if !strings.Contains(string(data), "spotify:track:1") {
			t.Error("expected URI in JSON output")
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		if _, err := RenderGroups("yaml", "x", sampleGroups); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("Empty URL", func(t *testing.T) {
		if _, err := DownloadImage(""); err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
	})

	t.Run("Downloads Bytes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "image-bytes")
		}))
		defer srv.Close()

		data, err := DownloadImage(srv.URL)
		if err != nil {
			t.Fatalf("failed to download: %v", err)
		}
		if string(data) != "image-bytes" {
			t.Errorf("unexpected payload %q", data)
		}
	})

	t.Run("Non-200 Status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		if _, err := DownloadImage(srv.URL); err == nil {
			t.Error("expected error for 404 response")
		}
	})
}
