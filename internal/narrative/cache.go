package narrative

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Cache stores generated narratives keyed by property and prompt version.
type Cache struct {
	db *sqlx.DB
}

// NewCache wraps an open SQLite handle.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: sqlx.NewDb(db, "sqlite3")}
}

type cacheRow struct {
	PropertyID    int64     `db:"property_id"`
	PromptVersion string    `db:"prompt_version"`
	Narrative     string    `db:"narrative"`
	Synthetic     bool      `db:"synthetic"`
	CreatedAt     time.Time `db:"created_at"`
}

// Get returns the cached narrative, or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, propertyID int64, version string) (n Narrative, ok bool, err error) {
	var row cacheRow
	err = c.db.GetContext(ctx, &row,
		`SELECT property_id, prompt_version, narrative, synthetic, created_at
		FROM narratives WHERE property_id = ? AND prompt_version = ?`,
		propertyID, version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Narrative{}, false, nil
	}
	if err != nil {
		return Narrative{}, false, fmt.Errorf("reading cached narrative: %w", err)
	}

	return Narrative{
		Text:          row.Narrative,
		Synthetic:     row.Synthetic,
		PromptVersion: row.PromptVersion,
		Cached:        true,
		CreatedAt:     row.CreatedAt,
	}, true, nil
}

// Put stores a narrative, replacing any earlier one for the same key.
func (c *Cache) Put(ctx context.Context, propertyID int64, n Narrative) error {
	row := cacheRow{
		PropertyID:    propertyID,
		PromptVersion: n.PromptVersion,
		Narrative:     n.Text,
		Synthetic:     n.Synthetic,
	}
	_, err := c.db.NamedExecContext(ctx,
		`INSERT INTO narratives (property_id, prompt_version, narrative, synthetic)
		VALUES (:property_id, :prompt_version, :narrative, :synthetic)
		ON CONFLICT(property_id, prompt_version) DO UPDATE SET
			narrative = excluded.narrative,
			synthetic = excluded.synthetic,
			created_at = CURRENT_TIMESTAMP`,
		row,
	)
	if err != nil {
		return fmt.Errorf("caching narrative: %w", err)
	}
	return nil
}

// Purge drops every cached narrative for a property.
func (c *Cache) Purge(ctx context.Context, propertyID int64) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM narratives WHERE property_id = ?", propertyID); err != nil {
		return fmt.Errorf("purging narratives: %w", err)
	}
	return nil
}
