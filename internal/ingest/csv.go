package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/tax-appeal/internal/valuation"
)

// aliases maps each comparable field to the header spellings seen in
// assessor and MLS exports. Headers are compared after cleanKey.
var aliases = map[string][]string{
	"address":        {"address", "property_address", "street_address", "situs"},
	"sale_price":     {"sale_price", "price", "sold_price", "sales_price", "close_price"},
	"sale_date":      {"sale_date", "date_sold", "sold_date", "close_date", "closing_date"},
	"square_footage": {"square_footage", "sqft", "sq_ft", "living_area", "gla", "building_size"},
	"lot_size":       {"lot_size", "lot_acres", "acres"},
	"year_built":     {"year_built", "yr_built", "built"},
	"parking_spaces": {"parking_spaces", "parking", "garage_spaces"},
	"stories":        {"stories", "stories_count", "levels"},
	"construction":   {"construction_quality", "quality", "construction"},
	"condition":      {"condition", "condition_rating"},
	"weight":         {"weight", "comp_weight"},
	"adj_time":       {"time_adjustment", "adj_time", "time_adj"},
	"adj_location":   {"location_adjustment", "adj_location", "location_adj"},
	"adj_age":        {"age_adjustment", "adj_age", "age_adj"},
	"adj_quality":    {"quality_adjustment", "adj_quality", "quality_adj"},
	"adj_market":     {"market_conditions_adjustment", "adj_market", "market_adj"},
	"adj_financing":  {"financing_adjustment", "adj_financing", "financing_adj"},
	"adj_conditions": {"conditions_of_sale_adjustment", "adj_conditions_of_sale", "cos_adj"},
	"confidence":     {"confidence", "confidence_tier"},
}

// SourceCSV marks comparables read by ParseComparablesCSV.
const SourceCSV = "csv"

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006", "2006/01/02", time.RFC3339}

// RowError describes a CSV row that could not be converted.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ParseResult holds the comparables that parsed and the rows that did not.
type ParseResult struct {
	Comparables []valuation.Comparable
	Errors      []*RowError
}

// Err joins every row error, or returns nil.
func (r ParseResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// cleanKey lowercases a header and drops whitespace, underscores, dashes and
// percent signs.
func cleanKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '_', '-', '%':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

func headerIndex(header []string) map[string]int {
	lookup := make(map[string]string)
	for field, names := range aliases {
		for _, n := range names {
			lookup[cleanKey(n)] = field
		}
	}

	idx := make(map[string]int)
	for i, h := range header {
		if field, ok := lookup[cleanKey(h)]; ok {
			if _, seen := idx[field]; !seen {
				idx[field] = i
			}
		}
	}
	return idx
}

// ParseComparablesCSV reads comparable sales from CSV. The first row is the
// header; a sale price column is required. Every parsed comparable gets a new
// UUID. Rows with unparsable values are skipped and reported in the result.
func ParseComparablesCSV(r io.Reader) (ParseResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return ParseResult{}, fmt.Errorf("%w: csv has no header", ErrInvalidFile)
	}
	if err != nil {
		return ParseResult{}, fmt.Errorf("reading csv header: %w", err)
	}

	idx := headerIndex(header)
	if _, ok := idx["sale_price"]; !ok {
		return ParseResult{}, fmt.Errorf("%w: csv has no sale price column", ErrInvalidFile)
	}

	res := ParseResult{Comparables: []valuation.Comparable{}}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("reading csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(record) {
			continue
		}

		c, rowErr := parseRow(record, idx, line)
		if rowErr != nil {
			res.Errors = append(res.Errors, rowErr)
			continue
		}
		res.Comparables = append(res.Comparables, c)
	}

	return res, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

type rowReader struct {
	record []string
	idx    map[string]int
	line   int
	err    *RowError
}

func (rr *rowReader) raw(field string) string {
	i, ok := rr.idx[field]
	if !ok || i >= len(rr.record) {
		return ""
	}
	return strings.TrimSpace(rr.record[i])
}

func (rr *rowReader) fail(field string, err error) {
	if rr.err == nil {
		rr.err = &RowError{Line: rr.line, Column: field, Err: err}
	}
}

func (rr *rowReader) float(field string) float64 {
	s := rr.raw(field)
	if s == "" {
		return 0
	}
	s = strings.NewReplacer("$", "", ",", "", "%", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		rr.fail(field, fmt.Errorf("not a number: %q", rr.raw(field)))
		return 0
	}
	return v
}

func (rr *rowReader) int(field string) int {
	return int(rr.float(field))
}

func (rr *rowReader) date(field string) time.Time {
	s := rr.raw(field)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	rr.fail(field, fmt.Errorf("not a date: %q", s))
	return time.Time{}
}

func (rr *rowReader) quality(field string) valuation.Quality {
	s := strings.ToLower(rr.raw(field))
	if s == "" {
		return ""
	}
	if !valuation.ValidQuality(s) {
		rr.fail(field, fmt.Errorf("unknown quality: %q", s))
		return ""
	}
	return valuation.Quality(s)
}

func (rr *rowReader) confidence(field string) valuation.ConfidenceTier {
	s := strings.ToLower(rr.raw(field))
	if s == "" {
		return ""
	}
	if !valuation.ValidConfidenceTier(s) {
		rr.fail(field, fmt.Errorf("unknown confidence: %q", s))
		return ""
	}
	return valuation.ConfidenceTier(s)
}

func parseRow(record []string, idx map[string]int, line int) (valuation.Comparable, *RowError) {
	rr := &rowReader{record: record, idx: idx, line: line}

	c := valuation.Comparable{
		ID:                  uuid.NewString(),
		Source:              SourceCSV,
		Address:             rr.raw("address"),
		SalePrice:           rr.float("sale_price"),
		SaleDate:            rr.date("sale_date"),
		SquareFootage:       rr.float("square_footage"),
		LotSize:             rr.float("lot_size"),
		YearBuilt:           rr.int("year_built"),
		ParkingSpaces:       rr.int("parking_spaces"),
		StoriesCount:        rr.int("stories"),
		ConstructionQuality: rr.quality("construction"),
		ConditionRating:     rr.quality("condition"),
		Weight:              rr.float("weight"),
		Confidence:          rr.confidence("confidence"),
		Adjustments: valuation.Adjustments{
			Time:             rr.float("adj_time"),
			Location:         rr.float("adj_location"),
			Age:              rr.float("adj_age"),
			Quality:          rr.float("adj_quality"),
			MarketConditions: rr.float("adj_market"),
			Financing:        rr.float("adj_financing"),
			ConditionsOfSale: rr.float("adj_conditions"),
		},
	}

	if rr.err == nil && c.SalePrice <= 0 {
		rr.fail("sale_price", errors.New("sale price must be positive"))
	}
	if rr.err == nil && c.SquareFootage < 0 {
		rr.fail("square_footage", errors.New("square footage cannot be negative"))
	}
	if rr.err == nil && (c.Weight < 0 || c.Weight > valuation.TotalWeight) {
		rr.fail("weight", errors.New("weight must be between 0 and 100"))
	}
	if rr.err != nil {
		return valuation.Comparable{}, rr.err
	}
	return c, nil
}
