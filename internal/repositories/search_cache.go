package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/soniclist/spotsync/internal/models"
	"github.com/soniclist/spotsync/internal/shared"
)

// DefaultSearchTTL is how long a cached search response stays valid.
// Spotify's catalog changes slowly relative to how often a library is synced.
const DefaultSearchTTL = 7 * 24 * time.Hour

// SearchCacheRepository caches Spotify search responses keyed by normalized query.
//
// Rows are serialized candidate lists with an expiry timestamp. Expired rows
// are treated as misses and overwritten on the next Put.
type SearchCacheRepository struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSearchCacheRepository creates a SearchCacheRepository with the given
// database connection and [DefaultSearchTTL].
func NewSearchCacheRepository(db *sql.DB) *SearchCacheRepository {
	return &SearchCacheRepository{db: db, ttl: DefaultSearchTTL}
}

// SetTTL overrides the cache lifetime for subsequent Put calls.
func (r *SearchCacheRepository) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		r.ttl = ttl
	}
}

// Get returns the cached candidates for a query. The second return is false
// on a miss or when the row has expired.
func (r *SearchCacheRepository) Get(query string) ([]models.Track, bool, error) {
	row := r.db.QueryRow(
		"SELECT response, expires_at FROM search_cache WHERE query = ?",
		query,
	)

	var response string
	var expiresAt time.Time
	if err := row.Scan(&response, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read search cache: %w", err)
	}

	if time.Now().After(expiresAt) {
		return nil, false, nil
	}

	var tracks []models.Track
	if err := json.Unmarshal([]byte(response), &tracks); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached response: %w", err)
	}

	return tracks, true, nil
}

// Put stores the candidates for a query, replacing any existing row.
func (r *SearchCacheRepository) Put(query string, tracks []models.Track) error {
	payload, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("failed to encode search response: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(r.ttl)

	result, err := r.db.Exec(`
		UPDATE search_cache
		SET response = ?, expires_at = ?, updated_at = ?
		WHERE query = ?
	`, string(payload), expiresAt, now, query)
	if err != nil {
		return fmt.Errorf("failed to update search cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	_, err = r.db.Exec(`
		INSERT INTO search_cache (id, query, response, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, shared.GenerateID(), query, string(payload), expiresAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert search cache row: %w", err)
	}

	return nil
}

// Prune deletes expired rows and returns how many were removed.
func (r *SearchCacheRepository) Prune() (int, error) {
	result, err := r.db.Exec("DELETE FROM search_cache WHERE expires_at < ?", time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune search cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}
