package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/soniclist/spotsync/internal/shared"
)

// URIMirrorRepository implements store.Mirror over the uri_mirror table.
//
// Each row records the last URI value the program wrote for a track key. A
// NULL uri column mirrors an explicit "not on Spotify" store entry, which is
// distinct from the key having no row at all.
type URIMirrorRepository struct {
	db *sql.DB
}

// NewURIMirrorRepository creates a URIMirrorRepository with the given database connection
func NewURIMirrorRepository(db *sql.DB) *URIMirrorRepository {
	return &URIMirrorRepository{db: db}
}

// Lookup returns the mirrored URI for a track key. The second return is false
// when the key has never been recorded.
func (r *URIMirrorRepository) Lookup(key string) (*string, bool, error) {
	row := r.db.QueryRow("SELECT uri FROM uri_mirror WHERE track_key = ?", key)

	var uri sql.NullString
	if err := row.Scan(&uri); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read uri mirror: %w", err)
	}

	if !uri.Valid {
		return nil, true, nil
	}
	value := uri.String
	return &value, true, nil
}

// Record upserts the mirrored URI for a track key. A nil uri stores NULL.
func (r *URIMirrorRepository) Record(key string, uri *string) error {
	now := time.Now()

	var value sql.NullString
	if uri != nil {
		value = sql.NullString{String: *uri, Valid: true}
	}

	result, err := r.db.Exec(`
		UPDATE uri_mirror
		SET uri = ?, updated_at = ?
		WHERE track_key = ?
	`, value, now, key)
	if err != nil {
		return fmt.Errorf("failed to update uri mirror: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	_, err = r.db.Exec(`
		INSERT INTO uri_mirror (id, track_key, uri, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, shared.GenerateID(), key, value, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert uri mirror row: %w", err)
	}

	return nil
}

// Forget removes the mirror row for a track key. Used when a track leaves the
// library so a later reappearance is treated as new rather than edited.
func (r *URIMirrorRepository) Forget(key string) error {
	if _, err := r.db.Exec("DELETE FROM uri_mirror WHERE track_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete uri mirror row: %w", err)
	}
	return nil
}
