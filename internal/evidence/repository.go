package evidence

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a note does not exist.
	ErrNotFound = errors.New("evidence not found")
	// ErrEmpty is returned when a note has no text.
	ErrEmpty = errors.New("evidence text is required")
)

// Repository provides CRUD operations for evidence notes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an evidence repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add attaches a note to a property.
func (r *Repository) Add(propertyID int64, text, author string) (*Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmpty
	}

	result, err := r.db.Exec(
		"INSERT INTO evidence (property_id, text, author) VALUES (?, ?, ?)",
		propertyID, text, author,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting evidence: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	var n Note
	err = r.db.QueryRow(
		"SELECT id, property_id, text, author, created_at FROM evidence WHERE id = ?", id,
	).Scan(&n.ID, &n.PropertyID, &n.Text, &n.Author, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading back evidence: %w", err)
	}

	return &n, nil
}

// ListByPropertyID returns every note for a property in the order added.
func (r *Repository) ListByPropertyID(propertyID int64) ([]*Note, error) {
	rows, err := r.db.Query(
		"SELECT id, property_id, text, author, created_at FROM evidence WHERE property_id = ? ORDER BY id ASC",
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing evidence: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var notes []*Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.PropertyID, &n.Text, &n.Author, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning evidence: %w", err)
		}
		notes = append(notes, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating evidence: %w", err)
	}

	return notes, nil
}

// Delete removes a note by ID.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM evidence WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting evidence: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("evidence %d: %w", id, ErrNotFound)
	}

	return nil
}
