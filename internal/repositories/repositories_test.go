package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func strPtr(s string) *string { return &s }

func TestSearchCacheRepository(t *testing.T) {
	tracks := []models.Track{
		{Title: "Take On Me", Artist: "a-ha", URI: "spotify:track:abc", Duration: 225},
		{Title: "Take On Me", Artist: "Karaoke All Stars", URI: "spotify:track:def", Duration: 224},
	}

	t.Run("Miss On Empty Cache", func(t *testing.T) {
		repo := NewSearchCacheRepository(setupTestDB(t))

		if _, hit, err := repo.Get("take on me a-ha"); err != nil || hit {
			t.Errorf("expected clean miss, got hit=%v err=%v", hit, err)
		}
	})

	t.Run("Put Then Get", func(t *testing.T) {
		repo := NewSearchCacheRepository(setupTestDB(t))

		if err := repo.Put("take on me a-ha", tracks); err != nil {
			t.Fatalf("failed to put: %v", err)
		}

		got, hit, err := repo.Get("take on me a-ha")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if !hit {
			t.Fatal("expected cache hit")
		}
		if len(got) != 2 || got[0].URI != "spotify:track:abc" {
			t.Errorf("unexpected cached candidates: %+v", got)
		}
	})

	t.Run("Put Replaces Existing Row", func(t *testing.T) {
		repo := NewSearchCacheRepository(setupTestDB(t))

		if err := repo.Put("query", tracks[:1]); err != nil {
			t.Fatalf("failed to put: %v", err)
		}
		if err := repo.Put("query", tracks); err != nil {
			t.Fatalf("failed to replace: %v", err)
		}

		got, hit, err := repo.Get("query")
		if err != nil || !hit {
			t.Fatalf("expected hit, got err=%v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected replaced row with 2 candidates, got %d", len(got))
		}
	})

	t.Run("Expired Row Is A Miss", func(t *testing.T) {
		repo := NewSearchCacheRepository(setupTestDB(t))
		repo.SetTTL(time.Nanosecond)

		if err := repo.Put("stale", tracks); err != nil {
			t.Fatalf("failed to put: %v", err)
		}
		time.Sleep(time.Millisecond)

		if _, hit, err := repo.Get("stale"); err != nil || hit {
			t.Errorf("expected expired row to miss, got hit=%v err=%v", hit, err)
		}
	})

	t.Run("Empty Result Cached", func(t *testing.T) {
		repo := NewSearchCacheRepository(setupTestDB(t))

		if err := repo.Put("nothing matched", nil); err != nil {
			t.Fatalf("failed to put: %v", err)
		}

		got, hit, err := repo.Get("nothing matched")
		if err != nil || !hit {
			t.Fatalf("expected hit for cached empty result, got err=%v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no candidates, got %d", len(got))
		}
	})

	t.Run("Prune Removes Expired Rows", func(t *testing.T) {
		repo := NewSearchCacheRepository(setupTestDB(t))

		repo.SetTTL(time.Nanosecond)
		if err := repo.Put("old", tracks); err != nil {
			t.Fatalf("failed to put: %v", err)
		}

		repo.SetTTL(time.Hour)
		if err := repo.Put("fresh", tracks); err != nil {
			t.Fatalf("failed to put: %v", err)
		}
		time.Sleep(time.Millisecond)

		removed, err := repo.Prune()
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 pruned row, got %d", removed)
		}

		if _, hit, _ := repo.Get("fresh"); !hit {
			t.Error("expected fresh row to survive prune")
		}
	})
}

func TestURIMirrorRepository(t *testing.T) {
	t.Run("Lookup Unseen Key", func(t *testing.T) {
		repo := NewURIMirrorRepository(setupTestDB(t))

		if _, seen, err := repo.Lookup("album/track.mp3"); err != nil || seen {
			t.Errorf("expected unseen key, got seen=%v err=%v", seen, err)
		}
	})

	t.Run("Record And Lookup URI", func(t *testing.T) {
		repo := NewURIMirrorRepository(setupTestDB(t))

		if err := repo.Record("album/track.mp3", strPtr("spotify:track:abc")); err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		uri, seen, err := repo.Lookup("album/track.mp3")
		if err != nil {
			t.Fatalf("failed to lookup: %v", err)
		}
		if !seen || uri == nil || *uri != "spotify:track:abc" {
			t.Errorf("unexpected lookup result: uri=%v seen=%v", uri, seen)
		}
	})

	t.Run("Null Distinct From Absent", func(t *testing.T) {
		repo := NewURIMirrorRepository(setupTestDB(t))

		if err := repo.Record("album/obscure.mp3", nil); err != nil {
			t.Fatalf("failed to record null: %v", err)
		}

		uri, seen, err := repo.Lookup("album/obscure.mp3")
		if err != nil {
			t.Fatalf("failed to lookup: %v", err)
		}
		if !seen {
			t.Fatal("expected recorded null to count as seen")
		}
		if uri != nil {
			t.Errorf("expected nil uri, got %v", *uri)
		}
	})

	t.Run("Record Overwrites", func(t *testing.T) {
		repo := NewURIMirrorRepository(setupTestDB(t))

		if err := repo.Record("a.mp3", nil); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		if err := repo.Record("a.mp3", strPtr("spotify:track:late")); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		uri, seen, err := repo.Lookup("a.mp3")
		if err != nil || !seen {
			t.Fatalf("expected seen key, got err=%v", err)
		}
		if uri == nil || *uri != "spotify:track:late" {
			t.Errorf("expected overwritten value, got %v", uri)
		}
	})

	t.Run("Forget Removes Row", func(t *testing.T) {
		repo := NewURIMirrorRepository(setupTestDB(t))

		if err := repo.Record("a.mp3", strPtr("spotify:track:x")); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		if err := repo.Forget("a.mp3"); err != nil {
			t.Fatalf("failed to forget: %v", err)
		}

		if _, seen, _ := repo.Lookup("a.mp3"); seen {
			t.Error("expected key to be unseen after forget")
		}
	})
}
