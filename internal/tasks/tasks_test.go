package tasks

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soniclist/spotsync/internal/library"
	"github.com/soniclist/spotsync/internal/matcher"
	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/shared"
	"github.com/soniclist/spotsync/internal/store"
	itesting "github.com/soniclist/spotsync/internal/testing"
)

// fixture bundles a temp library with an engine wired to in-memory doubles.
type fixture struct {
	engine  *SyncEngine
	service *itesting.MockService
	cache   *itesting.MemCache
	mirror  *itesting.MemMirror
	store   *store.URIStore
	lib     string
	plDir   string
	data    string
}

// newFixture builds a library with one playlist per entry in playlists, each
// value a list of audio file names to create and reference.
func newFixture(t *testing.T, playlists map[string][]string) *fixture {
	t.Helper()

	root := t.TempDir()
	lib := filepath.Join(root, "library")
	plDir := filepath.Join(root, "playlists")
	data := filepath.Join(root, "data")
	for _, dir := range []string{lib, plDir, data} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	for name, files := range playlists {
		var lines []string
		for _, file := range files {
			path := filepath.Join(lib, file)
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				t.Fatalf("failed to create track dir: %v", err)
			}
			if err := os.WriteFile(path, []byte("tagless junk bytes"), 0644); err != nil {
				t.Fatalf("failed to write audio stub: %v", err)
			}
			lines = append(lines, path)
		}
		m3u := filepath.Join(plDir, name+".m3u")
		if err := os.WriteFile(m3u, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
			t.Fatalf("failed to write m3u: %v", err)
		}
	}

	logger := shared.NewLogger(io.Discard)
	scanner := library.NewScanner(shared.PathsConfig{PlaylistFolder: plDir, LibraryFolder: lib}, logger)

	f := &fixture{
		service: &itesting.MockService{},
		cache:   itesting.NewMemCache(),
		mirror:  itesting.NewMemMirror(),
		store:   store.NewURIStore(filepath.Join(data, "uris.json")),
		lib:     lib,
		plDir:   plDir,
		data:    data,
	}

	// Untagged stubs carry only a filename title, so title similarity is
	// the whole score and the default threshold is too strict.
	f.engine = NewSyncEngine(
		f.service, scanner, f.store, f.mirror, f.cache,
		matcher.New(0.5), store.NewReports(data), logger,
	)

	return f
}

// echoSearch answers every query with a single exact-title candidate.
func echoSearch(ctx context.Context, title, artist string) ([]models.Track, error) {
	uri := "spotify:track:" + strings.ReplaceAll(strings.ToLower(title), " ", "-")
	return []models.Track{{Title: title, Artist: artist, URI: uri}}, nil
}

func TestSync(t *testing.T) {
	t.Run("Resolves And Pushes New Tracks", func(t *testing.T) {
		f := newFixture(t, map[string][]string{"roadtrip": {"take on me.mp3", "hunting high.mp3"}})
		f.service.SearchFunc = echoSearch

		result, err := f.engine.Sync(context.Background(), nil, ModeUpdate)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if len(result.Playlists) != 1 {
			t.Fatalf("expected 1 playlist result, got %d", len(result.Playlists))
		}
		pr := result.Playlists[0]
		if pr.Resolved != 2 || pr.Unmatched != 0 {
			t.Errorf("expected 2 resolved, got %+v", pr)
		}
		if pr.AddedRemote != 2 {
			t.Errorf("expected 2 tracks added remotely, got %d", pr.AddedRemote)
		}
		if len(f.service.EnsuredNames) != 1 || f.service.EnsuredNames[0] != "roadtrip" {
			t.Errorf("expected playlist ensured by name, got %v", f.service.EnsuredNames)
		}

		// Store persisted with relative lowercase keys
		loaded := store.NewURIStore(f.store.Path())
		if err := loaded.Load(); err != nil {
			t.Fatalf("failed to reload store: %v", err)
		}
		if entry, ok := loaded.Get("take on me.mp3"); !ok || entry.NotOnSpotify() {
			t.Errorf("expected resolved store entry, got %+v (present=%v)", entry, ok)
		}
	})

	t.Run("Null Entries Never Searched", func(t *testing.T) {
		f := newFixture(t, map[string][]string{"roadtrip": {"obscure demo.mp3"}})
		f.service.SearchFunc = echoSearch

		f.store.Upsert("obscure demo.mp3", nil)
		if err := f.store.Save(); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
		f.mirror.Values["obscure demo.mp3"] = nil

		result, err := f.engine.Sync(context.Background(), nil, ModeUpdate)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if len(f.service.SearchCalls) != 0 {
			t.Errorf("expected no search calls, got %v", f.service.SearchCalls)
		}
		if result.Playlists[0].NotOnSpotify != 1 {
			t.Errorf("expected null entry counted, got %+v", result.Playlists[0])
		}
	})

	t.Run("No Match Recorded As Null And Reported", func(t *testing.T) {
		f := newFixture(t, map[string][]string{"roadtrip": {"unfindable.mp3"}})
		// Default mock returns no candidates

		result, err := f.engine.Sync(context.Background(), nil, ModeUpdate)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if result.Playlists[0].Unmatched != 1 {
			t.Errorf("expected 1 unmatched, got %+v", result.Playlists[0])
		}

		var notFound map[string][]models.Track
		if err := shared.ReadJSONFile(filepath.Join(f.data, store.SearchNotFoundFile), &notFound); err != nil {
			t.Fatalf("failed to read not-found report: %v", err)
		}
		if len(notFound["roadtrip"]) != 1 {
			t.Errorf("expected unmatched track in report, got %v", notFound)
		}

		// Next run skips the search entirely
		f.service.SearchCalls = nil
		if _, err := f.engine.Sync(context.Background(), nil, ModeUpdate); err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if len(f.service.SearchCalls) != 0 {
			t.Errorf("expected no retry for recorded null, got %v", f.service.SearchCalls)
		}
	})

	t.Run("Second Update Adds Nothing To Added Report", func(t *testing.T) {
		f := newFixture(t, map[string][]string{"roadtrip": {"take on me.mp3"}})
		f.service.SearchFunc = echoSearch

		if _, err := f.engine.Sync(context.Background(), nil, ModeUpdate); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}

		var added map[string][]models.Track
		if err := shared.ReadJSONFile(filepath.Join(f.data, store.SearchAddedFile), &added); err != nil {
			t.Fatalf("failed to read added report: %v", err)
		}
		if len(added["roadtrip"]) != 1 {
			t.Fatalf("expected 1 added entry after first run, got %v", added)
		}

		if _, err := f.engine.Sync(context.Background(), nil, ModeUpdate); err != nil {
			t.Fatalf("second sync failed: %v", err)
		}

		added = nil
		if err := shared.ReadJSONFile(filepath.Join(f.data, store.SearchAddedFile), &added); err != nil {
			t.Fatalf("failed to read added report: %v", err)
		}
		if len(added) != 0 {
			t.Errorf("expected empty added report on unchanged rerun, got %v", added)
		}
	})

	t.Run("Refresh Then Update Is Remote Noop", func(t *testing.T) {
		f := newFixture(t, map[string][]string{"roadtrip": {"take on me.mp3", "hunting high.mp3"}})
		f.service.SearchFunc = echoSearch

		refresh, err := f.engine.Sync(context.Background(), nil, ModeRefresh)
		if err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		if len(f.service.ClearedIDs) != 1 {
			t.Errorf("expected refresh to clear the playlist, got %v", f.service.ClearedIDs)
		}
		if refresh.Playlists[0].AddedRemote != 2 {
			t.Errorf("expected refresh to re-add everything, got %+v", refresh.Playlists[0])
		}

		// Remote now reports exactly what refresh pushed
		pushed := f.service.AddedURIs[len(f.service.AddedURIs)-1]
		f.service.URIsFunc = func(ctx context.Context, playlistID string) ([]string, error) {
			return pushed, nil
		}

		update, err := f.engine.Sync(context.Background(), nil, ModeUpdate)
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if update.Playlists[0].AddedRemote != 0 {
			t.Errorf("expected update after refresh to add nothing, got %d", update.Playlists[0].AddedRemote)
		}
	})

	t.Run("Update Appends Only Missing URIs", func(t *testing.T) {
		f := newFixture(t, map[string][]string{"roadtrip": {"one.mp3", "two.mp3"}})
		f.service.SearchFunc = echoSearch
		f.service.URIsFunc = func(ctx context.Context, playlistID string) ([]string, error) {
			return []string{"spotify:track:one"}, nil
		}

		result, err := f.engine.Sync(context.Background(), nil, ModeUpdate)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if result.Playlists[0].AddedRemote != 1 {
			t.Errorf("expected 1 appended URI, got %d", result.Playlists[0].AddedRemote)
		}
		last := f.service.AddedURIs[len(f.service.AddedURIs)-1]
		if len(last) != 1 || last[0] != "spotify:track:two" {
			t.Errorf("expected only the missing URI, got %v", last)
		}
	})

	t.Run("Search Cache Skips Second API Call", func(t *testing.T) {
		f := newFixture(t, map[string][]string{
			"first":  {"take on me.mp3"},
			"second": {"copy/take on me.mp3"},
		})
		f.service.SearchFunc = echoSearch

		if _, err := f.engine.Sync(context.Background(), nil, ModeUpdate); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		// Same title from two store keys resolves with one API search
		if len(f.service.SearchCalls) != 1 {
			t.Errorf("expected 1 API search for identical queries, got %v", f.service.SearchCalls)
		}
	})

	t.Run("Manual Edit Reported And Disk Wins", func(t *testing.T) {
		f := newFixture(t, map[string][]string{"roadtrip": {"take on me.mp3"}})
		f.service.SearchFunc = echoSearch

		corrected := "spotify:track:hand-picked"
		f.store.Upsert("take on me.mp3", &corrected)
		if err := f.store.Save(); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
		original := "spotify:track:take-on-me"
		f.mirror.Values["take on me.mp3"] = &original

		result, err := f.engine.Sync(context.Background(), nil, ModeUpdate)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if len(result.Edits) != 1 {
			t.Fatalf("expected 1 edit, got %v", result.Edits)
		}

		var edits []store.Edit
		if err := shared.ReadJSONFile(f.store.UpdatedPath(), &edits); err != nil {
			t.Fatalf("failed to read updated report: %v", err)
		}
		if len(edits) != 1 || *edits[0].Current != corrected {
			t.Errorf("unexpected updated report: %+v", edits)
		}

		// Disk value pushed, not the mirrored one
		last := f.service.AddedURIs[len(f.service.AddedURIs)-1]
		if len(last) != 1 || last[0] != corrected {
			t.Errorf("expected hand-picked URI pushed, got %v", last)
		}
	})
}

func TestDifferences(t *testing.T) {
	seed := func(f *fixture, keys map[string]string) {
		for key, uri := range keys {
			u := uri
			f.store.Upsert(key, &u)
			f.mirror.Values[key] = &u
		}
		if err := f.store.Save(); err != nil {
			panic(err)
		}
	}

	t.Run("Identical Sets Empty Diff", func(t *testing.T) {
		f := newFixture(t, map[string][]string{"roadtrip": {"one.mp3", "two.mp3"}})
		seed(f, map[string]string{"one.mp3": "spotify:track:1", "two.mp3": "spotify:track:2"})

		f.service.PlaylistsFunc = func(ctx context.Context) ([]models.Playlist, error) {
			return []models.Playlist{{ID: "r1", Name: "roadtrip"}}, nil
		}
		f.service.URIsFunc = func(ctx context.Context, playlistID string) ([]string, error) {
			return []string{"spotify:track:1", "spotify:track:2", "spotify:track:2"}, nil
		}

		result, err := f.engine.Differences(context.Background(), nil)
		if err != nil {
			t.Fatalf("differences failed: %v", err)
		}
		if len(result.Extra) != 0 || len(result.Missing) != 0 {
			t.Errorf("expected empty diff, got extra=%v missing=%v", result.Extra, result.Missing)
		}
	})

	t.Run("Asymmetric Sets", func(t *testing.T) {
		f := newFixture(t, map[string][]string{"roadtrip": {"one.mp3", "two.mp3", "three.mp3"}})
		seed(f, map[string]string{
			"one.mp3":   "spotify:track:1",
			"two.mp3":   "spotify:track:2",
			"three.mp3": "spotify:track:3",
		})

		f.service.PlaylistsFunc = func(ctx context.Context) ([]models.Playlist, error) {
			return []models.Playlist{{ID: "r1", Name: "Roadtrip"}}, nil
		}
		f.service.URIsFunc = func(ctx context.Context, playlistID string) ([]string, error) {
			return []string{"spotify:track:1", "spotify:track:2", "spotify:track:4"}, nil
		}

		result, err := f.engine.Differences(context.Background(), nil)
		if err != nil {
			t.Fatalf("differences failed: %v", err)
		}

		if got := result.Missing["roadtrip"]; len(got) != 1 || got[0] != "spotify:track:3" {
			t.Errorf("expected missing {3}, got %v", got)
		}
		if got := result.Extra["roadtrip"]; len(got) != 1 || got[0] != "spotify:track:4" {
			t.Errorf("expected extra {4}, got %v", got)
		}
	})

	t.Run("Playlist Only Local Skipped", func(t *testing.T) {
		f := newFixture(t, map[string][]string{"localonly": {"one.mp3"}})
		seed(f, map[string]string{"one.mp3": "spotify:track:1"})

		result, err := f.engine.Differences(context.Background(), nil)
		if err != nil {
			t.Fatalf("differences failed: %v", err)
		}
		if len(result.Extra) != 0 || len(result.Missing) != 0 {
			t.Errorf("expected local-only playlist omitted, got %+v", result)
		}
	})
}

func TestCheck(t *testing.T) {
	f := newFixture(t, map[string][]string{"roadtrip": {"resolved.mp3", "nullish.mp3", "fresh.mp3"}})

	uri := "spotify:track:1"
	f.store.Upsert("resolved.mp3", &uri)
	f.store.Upsert("nullish.mp3", nil)
	if err := f.store.Save(); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	checks, err := f.engine.Check(nil)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if len(checks) != 1 {
		t.Fatalf("expected 1 playlist check, got %d", len(checks))
	}

	c := checks[0]
	if c.Resolved != 1 || c.NotOnSpotify != 1 || len(c.Unresolved) != 1 {
		t.Errorf("unexpected check result: %+v", c)
	}
	if c.Unresolved[0].Title != "fresh" {
		t.Errorf("expected fresh track unresolved, got %s", c.Unresolved[0].Title)
	}
}

func TestExtractSpotify(t *testing.T) {
	f := newFixture(t, map[string][]string{})

	f.service.PlaylistsFunc = func(ctx context.Context) ([]models.Playlist, error) {
		return []models.Playlist{{ID: "r1", Name: "roadtrip", TrackCount: 1}}, nil
	}
	f.service.ExportFunc = func(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
		return &models.PlaylistExport{
			Playlist: models.Playlist{ID: playlistID, Name: "roadtrip"},
			Tracks:   []models.Track{{Title: "Take On Me", Artist: "a-ha", URI: "spotify:track:1"}},
		}, nil
	}

	dump, err := f.engine.ExtractSpotify(context.Background(), nil)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(dump["roadtrip"]) != 1 {
		t.Errorf("expected dumped tracks, got %v", dump)
	}

	var report map[string][]models.Track
	if err := shared.ReadJSONFile(filepath.Join(f.data, store.SpotifyMetadataFile), &report); err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if len(report["roadtrip"]) != 1 {
		t.Errorf("expected report written, got %v", report)
	}
}

func TestNoImages(t *testing.T) {
	f := newFixture(t, map[string][]string{"roadtrip": {"one.mp3", "two.mp3"}})

	groups, err := f.engine.NoImages(nil)
	if err != nil {
		t.Fatalf("no_images failed: %v", err)
	}

	// Untagged stubs have no album and no artwork
	if len(groups["unknown"]) != 2 {
		t.Errorf("expected both files grouped under unknown, got %v", groups)
	}

	var report map[string][]models.Track
	if err := shared.ReadJSONFile(filepath.Join(f.data, store.NoImagesFile), &report); err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if len(report["unknown"]) != 2 {
		t.Errorf("expected report written, got %v", report)
	}
}

func TestEmbedArtwork(t *testing.T) {
	f := newFixture(t, map[string][]string{"roadtrip": {"resolved.mp3", "unresolved.mp3"}})

	uri := "spotify:track:abc"
	f.store.Upsert("resolved.mp3", &uri)
	if err := f.store.Save(); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	var embedded []string
	result, err := f.engine.EmbedArtwork(context.Background(), nil, ArtworkOpts{
		RateLimit: 1000,
		FetchImage: func(ctx context.Context, trackID string) ([]byte, error) {
			if trackID != "abc" {
				t.Errorf("unexpected track ID %s", trackID)
			}
			return []byte{0xFF, 0xD8, 0xFF}, nil
		},
		Embed: func(path string, data []byte) error {
			embedded = append(embedded, filepath.Base(path))
			return nil
		},
	})
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}

	if result.Embedded != 1 || result.SkippedURI != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(embedded) != 1 || embedded[0] != "resolved.mp3" {
		t.Errorf("expected only resolved file embedded, got %v", embedded)
	}
}

func TestNormalize(t *testing.T) {
	f := newFixture(t, map[string][]string{"roadtrip": {"one.mp3", "two.mp3"}})

	// Append a reference to a file that no longer exists
	m3u := filepath.Join(f.plDir, "roadtrip.m3u")
	stale := filepath.Join(f.lib, "deleted.mp3")
	file, err := os.OpenFile(m3u, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("failed to open m3u: %v", err)
	}
	if _, err := file.WriteString(stale + "\n"); err != nil {
		t.Fatalf("failed to append stale entry: %v", err)
	}
	file.Close()

	results, err := f.engine.Normalize(nil)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	result, ok := results["roadtrip"]
	if !ok {
		t.Fatalf("expected roadtrip result, got %v", results)
	}
	if result.Start != 3 || result.Final != 2 || result.Removed != 1 {
		t.Errorf("expected stale entry dropped, got %+v", result)
	}

	paths, err := library.ReadM3UFile(m3u)
	if err != nil {
		t.Fatalf("failed to reread m3u: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("expected 2 paths after rewrite, got %v", paths)
	}
	for _, p := range paths {
		if p == stale {
			t.Errorf("stale entry still present: %s", p)
		}
	}
}
