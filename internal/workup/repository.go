// Package workup persists each property's appeal session and applies edits
// to it.
package workup

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/evcraddock/tax-appeal/internal/valuation"
	"github.com/evcraddock/tax-appeal/internal/workflow"
)

// ErrNotStarted is returned when a property has no appeal session.
var ErrNotStarted = errors.New("appeal not started")

// Repository stores one workflow session per property.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a workup repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Get loads the session for a property.
func (r *Repository) Get(propertyID int64) (workflow.Session, error) {
	var (
		stage    string
		unlocked bool
		raw      string
	)
	err := r.db.QueryRow(
		"SELECT stage, unlocked, workup_json FROM workups WHERE property_id = ?", propertyID,
	).Scan(&stage, &unlocked, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.Session{}, fmt.Errorf("property %d: %w", propertyID, ErrNotStarted)
	}
	if err != nil {
		return workflow.Session{}, fmt.Errorf("querying workup %d: %w", propertyID, err)
	}

	st, err := workflow.ParseStage(stage)
	if err != nil {
		return workflow.Session{}, fmt.Errorf("stored workup %d: %w", propertyID, err)
	}

	var w valuation.ValuationWorkup
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return workflow.Session{}, fmt.Errorf("decoding workup %d: %w", propertyID, err)
	}

	return workflow.Session{
		Controller: workflow.Controller{Stage: st, Unlocked: unlocked, PropertyID: propertyID},
		Workup:     w,
	}, nil
}

// Save inserts or replaces the session for a property.
func (r *Repository) Save(propertyID int64, s workflow.Session) error {
	raw, err := json.Marshal(s.Workup)
	if err != nil {
		return fmt.Errorf("encoding workup: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO workups (property_id, stage, unlocked, workup_json) VALUES (?, ?, ?, ?)
		ON CONFLICT(property_id) DO UPDATE SET
			stage = excluded.stage,
			unlocked = excluded.unlocked,
			workup_json = excluded.workup_json,
			updated_at = CURRENT_TIMESTAMP`,
		propertyID, string(s.Controller.Stage), s.Controller.Unlocked, string(raw),
	)
	if err != nil {
		return fmt.Errorf("saving workup %d: %w", propertyID, err)
	}
	return nil
}

// Delete removes the session for a property.
func (r *Repository) Delete(propertyID int64) error {
	result, err := r.db.Exec("DELETE FROM workups WHERE property_id = ?", propertyID)
	if err != nil {
		return fmt.Errorf("deleting workup: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %d: %w", propertyID, ErrNotStarted)
	}
	return nil
}
