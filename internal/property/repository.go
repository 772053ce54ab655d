package property

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Repository provides CRUD operations for properties.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO properties
	(address, parcel_id, jurisdiction, sqft, lot_size, year_built, current_assessment, tax_rate)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, address, parcel_id, jurisdiction, sqft, lot_size, year_built, current_assessment, tax_rate, created_at, updated_at`

// Insert adds a new property and returns it with its generated ID.
func (r *Repository) Insert(p *Property) (*Property, error) {
	result, err := r.db.Exec(insertSQL,
		p.Address, p.ParcelID, p.Jurisdiction,
		p.SquareFootage, p.LotSize, p.YearBuilt,
		p.CurrentAssessment, p.TaxRate,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a property by its ID.
func (r *Repository) GetByID(id int64) (*Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties WHERE id = ?", selectColumns)
	row := r.db.QueryRow(query, id)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %d: %w", id, err)
	}

	return p, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	Jurisdiction string // empty = all
}

// List returns all properties, newest first, optionally filtered.
func (r *Repository) List(opts ListOptions) ([]*Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties", selectColumns)
	var args []interface{}
	var conditions []string

	if opts.Jurisdiction != "" {
		conditions = append(conditions, "jurisdiction = ?")
		args = append(args, opts.Jurisdiction)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var properties []*Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return properties, nil
}

// Update overwrites the editable fields of an existing property.
func (r *Repository) Update(p *Property) (*Property, error) {
	result, err := r.db.Exec(
		`UPDATE properties SET address = ?, parcel_id = ?, jurisdiction = ?, sqft = ?, lot_size = ?,
			year_built = ?, current_assessment = ?, tax_rate = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		p.Address, p.ParcelID, p.Jurisdiction, p.SquareFootage, p.LotSize,
		p.YearBuilt, p.CurrentAssessment, p.TaxRate, p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating property: %w", err)
	}
	if err := requireAffected(result, p.ID); err != nil {
		return nil, err
	}
	return r.GetByID(p.ID)
}

// Delete removes a property by ID. Workups, evidence and narratives cascade.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}
	return requireAffected(result, id)
}

func requireAffected(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	return nil
}
