// Package property provides the subject property model and data access.
package property

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/evcraddock/tax-appeal/internal/valuation"
)

var (
	// ErrNotFound is returned when a property does not exist.
	ErrNotFound = errors.New("property not found")
	// ErrInvalid wraps every validation failure from Service.Add and Update.
	ErrInvalid = errors.New("invalid property")
)

// Property is a parcel whose assessment is under review.
type Property struct {
	ID                int64     `json:"id"`
	Address           string    `json:"address"`
	ParcelID          string    `json:"parcel_id"`
	Jurisdiction      string    `json:"jurisdiction"`
	SquareFootage     float64   `json:"square_footage"`
	LotSize           float64   `json:"lot_size"`
	YearBuilt         int       `json:"year_built"`
	CurrentAssessment float64   `json:"current_assessment"`
	// TaxRate is dollars of tax per $1000 of assessed value.
	TaxRate   float64   `json:"tax_rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subject returns the valuation view of the property.
func (p *Property) Subject() valuation.SubjectProperty {
	return valuation.SubjectProperty{
		ID:                strconv.FormatInt(p.ID, 10),
		SquareFootage:     p.SquareFootage,
		LotSize:           p.LotSize,
		YearBuilt:         p.YearBuilt,
		CurrentAssessment: p.CurrentAssessment,
	}
}

// Validate checks the fields a caller supplies.
func (p *Property) Validate() error {
	for _, v := range []float64{p.SquareFootage, p.LotSize, p.CurrentAssessment, p.TaxRate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("numeric fields must be finite")
		}
	}
	switch {
	case p.Address == "":
		return errors.New("address is required")
	case p.SquareFootage < 0:
		return errors.New("square footage cannot be negative")
	case p.LotSize < 0:
		return errors.New("lot size cannot be negative")
	case p.CurrentAssessment < 0:
		return errors.New("current assessment cannot be negative")
	case p.TaxRate < 0:
		return errors.New("tax rate cannot be negative")
	}
	return nil
}

// scanProperty scans a property from a database row.
func scanProperty(row interface{ Scan(...interface{}) error }) (*Property, error) {
	var p Property
	err := row.Scan(
		&p.ID, &p.Address, &p.ParcelID, &p.Jurisdiction,
		&p.SquareFootage, &p.LotSize, &p.YearBuilt,
		&p.CurrentAssessment, &p.TaxRate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
