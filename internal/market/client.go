// Package market fetches comparable sales from a market data provider.
//
// Provider failures never reach the caller. FetchComparables substitutes a
// deterministic demo set, marked Synthetic, whenever the provider is
// unconfigured or its response cannot be used.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"

	"github.com/evcraddock/tax-appeal/internal/valuation"
)

const (
	// SourceProvider labels comparables returned by the provider.
	SourceProvider = "market"
	// SourceDemo labels synthetic comparables.
	SourceDemo = "demo"

	// DefaultLimit caps the number of comparables requested.
	DefaultLimit = 6

	salesPath      = "$.sales[*]"
	apiKeyHeader   = "X-API-Key"
	requestTimeout = 15 * time.Second
	maxBodyBytes   = 5 << 20
)

// Request describes the subject to find comparables for.
type Request struct {
	Address       string
	SquareFootage float64
	Limit         int
}

// Result is a set of comparables and where they came from.
type Result struct {
	Comparables []valuation.Comparable `json:"comparables"`
	Source      string                 `json:"source"`
	Synthetic   bool                   `json:"synthetic"`
	// Reason explains why demo data was used.
	Reason string `json:"reason,omitempty"`
}

// Client fetches comparable sales over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	now        func() time.Time
}

// NewClient creates a market data client. An empty baseURL disables the
// provider and every fetch returns demo data.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		now:        time.Now,
	}
}

// Configured reports whether a provider URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// FetchComparables returns recent sales near the subject. It always returns
// a usable result.
func (c *Client) FetchComparables(ctx context.Context, req Request) Result {
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}

	if !c.Configured() {
		return c.demo(req, "no market data provider configured")
	}

	comps, err := c.fetch(ctx, req)
	if err != nil {
		slog.Warn("market data unavailable, using demo comparables", "address", req.Address, "error", err)
		return c.demo(req, err.Error())
	}
	if len(comps) == 0 {
		slog.Warn("market data returned no sales, using demo comparables", "address", req.Address)
		return c.demo(req, "provider returned no sales")
	}

	return Result{Comparables: comps, Source: SourceProvider}
}

func (c *Client) demo(req Request, reason string) Result {
	return Result{
		Comparables: Synthetic(req, c.now()),
		Source:      SourceDemo,
		Synthetic:   true,
		Reason:      reason,
	}
}

// fetch calls the provider and maps each sale into a comparable.
func (c *Client) fetch(ctx context.Context, req Request) (comps []valuation.Comparable, err error) {
	params := url.Values{
		"address": {req.Address},
		"limit":   {strconv.Itoa(req.Limit)},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/comparables?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return parseSales(raw, req.Limit)
}

// parseSales extracts the sales array from a provider response.
func parseSales(raw []byte, limit int) ([]valuation.Comparable, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	found, err := jsonpath.Get(salesPath, doc)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", salesPath, err)
	}
	sales, ok := found.([]any)
	if !ok {
		return nil, errors.New("sales is not a list")
	}

	comps := make([]valuation.Comparable, 0, len(sales))
	for i, s := range sales {
		m, ok := s.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("sale %d is not an object", i)
		}
		c, err := saleToComparable(m)
		if err != nil {
			return nil, fmt.Errorf("sale %d: %w", i, err)
		}
		comps = append(comps, c)
		if len(comps) == limit {
			break
		}
	}
	return comps, nil
}

func saleToComparable(m map[string]any) (valuation.Comparable, error) {
	c := valuation.Comparable{
		ID:            stringField(m, "id"),
		Address:       stringField(m, "address"),
		SalePrice:     numberField(m, "sale_price", "price"),
		SquareFootage: numberField(m, "square_footage", "sqft"),
		LotSize:       numberField(m, "lot_size"),
		YearBuilt:     int(numberField(m, "year_built")),
		ParkingSpaces: int(numberField(m, "parking_spaces")),
		StoriesCount:  int(numberField(m, "stories")),
		Confidence:    valuation.ConfidenceMedium,
		Source:        SourceProvider,
	}
	if c.SalePrice <= 0 {
		return c, errors.New("missing sale price")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if d := stringField(m, "sale_date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return c, fmt.Errorf("sale date %q: %w", d, err)
		}
		c.SaleDate = t
	}
	if q := strings.ToLower(stringField(m, "quality")); q != "" && valuation.ValidQuality(q) {
		c.ConstructionQuality = valuation.Quality(q)
	}
	return c, nil
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func numberField(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}
