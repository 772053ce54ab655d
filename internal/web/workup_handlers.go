package web

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/evcraddock/tax-appeal/internal/ingest"
	"github.com/evcraddock/tax-appeal/internal/market"
	"github.com/evcraddock/tax-appeal/internal/valuation"
	"github.com/evcraddock/tax-appeal/internal/workflow"
)

// routeWorkup routes /api/properties/{id}/workup.
func (s *Server) routeWorkup(w http.ResponseWriter, r *http.Request, id int64, rest []string) {
	if len(rest) > 0 {
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		sess, err := s.workups.Get(r.Context(), id)
		if err != nil {
			apiFail(w, err)
			return
		}
		apiJSON(w, sess, http.StatusOK)
	case http.MethodPost:
		sess, err := s.workups.Start(r.Context(), id)
		if err != nil {
			apiFail(w, err)
			return
		}
		apiJSON(w, sess, http.StatusCreated)
	case http.MethodDelete:
		if err := s.workups.Reset(r.Context(), id); err != nil {
			apiFail(w, err)
			return
		}
		apiJSON(w, map[string]interface{}{"property_id": id, "reset": true}, http.StatusOK)
	default:
		methodNotAllowed(w)
	}
}

// routeComparables routes /api/properties/{id}/comparables[/...].
func (s *Server) routeComparables(w http.ResponseWriter, r *http.Request, id int64, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodPost:
		s.apiAddComparable(w, r, id)
	case len(rest) == 1 && rest[0] == "import" && r.Method == http.MethodPost:
		s.apiImportComparables(w, r, id)
	case len(rest) == 1 && rest[0] == "fetch" && r.Method == http.MethodPost:
		s.apiFetchComparables(w, r, id)
	case len(rest) == 1 && r.Method == http.MethodPut:
		s.apiUpdateComparable(w, r, id, rest[0])
	case len(rest) == 1 && r.Method == http.MethodDelete:
		sess, err := s.workups.RemoveComparable(r.Context(), id, rest[0])
		if err != nil {
			apiFail(w, err)
			return
		}
		apiJSON(w, sess, http.StatusOK)
	case len(rest) > 1:
		apiError(w, "not found", http.StatusNotFound)
	default:
		methodNotAllowed(w)
	}
}

// apiAddComparable adds one comparable sale.
func (s *Server) apiAddComparable(w http.ResponseWriter, r *http.Request, id int64) {
	var c valuation.Comparable
	if !decodeBody(w, r, &c) {
		return
	}

	sess, err := s.workups.AddComparable(r.Context(), id, c)
	if err != nil {
		apiFail(w, err)
		return
	}
	apiJSON(w, sess, http.StatusCreated)
}

// apiUpdateComparable replaces an existing comparable.
func (s *Server) apiUpdateComparable(w http.ResponseWriter, r *http.Request, id int64, cid string) {
	var c valuation.Comparable
	if !decodeBody(w, r, &c) {
		return
	}
	c.ID = cid

	sess, err := s.workups.UpdateComparable(r.Context(), id, c)
	if err != nil {
		apiFail(w, err)
		return
	}
	apiJSON(w, sess, http.StatusOK)
}

// apiImportComparables bulk-loads comparables from an uploaded CSV file in
// the multipart field "file".
func (s *Server) apiImportComparables(w http.ResponseWriter, r *http.Request, id int64) {
	r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(ingest.MaxFileSize); err != nil {
		apiError(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apiError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if err := ingest.ValidateFile(header.Filename, header.Size, header.Header.Get("Content-Type")); err != nil {
		apiFail(w, err)
		return
	}
	if strings.ToLower(filepath.Ext(header.Filename)) != ".csv" {
		apiError(w, "only CSV files can be imported as comparables", http.StatusBadRequest)
		return
	}

	res, err := ingest.ParseComparablesCSV(file)
	if err != nil {
		apiFail(w, err)
		return
	}
	if rowErr := res.Err(); rowErr != nil {
		apiError(w, rowErr.Error(), http.StatusBadRequest)
		return
	}

	sess, err := s.workups.ImportComparables(r.Context(), id, res.Comparables)
	if err != nil {
		apiFail(w, err)
		return
	}

	type response struct {
		Imported int              `json:"imported"`
		Session  workflow.Session `json:"session"`
	}
	apiJSON(w, response{Imported: len(res.Comparables), Session: sess}, http.StatusCreated)
}

// apiFetchComparables pulls comparables from the market data provider, or
// demo data when it is unavailable, and imports them.
func (s *Server) apiFetchComparables(w http.ResponseWriter, r *http.Request, id int64) {
	var req struct {
		Limit int `json:"limit"`
	}
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	p, err := s.properties.Get(id)
	if err != nil {
		apiFail(w, err)
		return
	}

	res := s.market.FetchComparables(r.Context(), market.Request{
		Address:       p.Address,
		SquareFootage: p.SquareFootage,
		Limit:         req.Limit,
	})

	sess, err := s.workups.ImportComparables(r.Context(), id, res.Comparables)
	if err != nil {
		apiFail(w, err)
		return
	}

	type response struct {
		Source    string           `json:"source"`
		Synthetic bool             `json:"synthetic"`
		Reason    string           `json:"reason,omitempty"`
		Imported  int              `json:"imported"`
		Session   workflow.Session `json:"session"`
	}
	apiJSON(w, response{
		Source:    res.Source,
		Synthetic: res.Synthetic,
		Reason:    res.Reason,
		Imported:  len(res.Comparables),
		Session:   sess,
	}, http.StatusCreated)
}

// apiSetCost replaces the cost approach inputs.
func (s *Server) apiSetCost(w http.ResponseWriter, r *http.Request, id int64) {
	var d valuation.CostApproachData
	if !decodeBody(w, r, &d) {
		return
	}

	sess, err := s.workups.SetCost(r.Context(), id, d)
	if err != nil {
		apiFail(w, err)
		return
	}
	apiJSON(w, sess, http.StatusOK)
}

// apiSetIncome replaces the income approach inputs.
func (s *Server) apiSetIncome(w http.ResponseWriter, r *http.Request, id int64) {
	var d valuation.IncomeApproachData
	if !decodeBody(w, r, &d) {
		return
	}

	sess, err := s.workups.SetIncome(r.Context(), id, d)
	if err != nil {
		apiFail(w, err)
		return
	}
	apiJSON(w, sess, http.StatusOK)
}

// apiSetWeight sets one approach weight; the other two split the rest.
func (s *Server) apiSetWeight(w http.ResponseWriter, r *http.Request, id int64) {
	var req struct {
		Approach string   `json:"approach"`
		Value    *float64 `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Value == nil {
		apiError(w, "value is required", http.StatusBadRequest)
		return
	}

	a, err := valuation.ParseApproach(req.Approach)
	if err != nil {
		apiFail(w, err)
		return
	}

	sess, err := s.workups.SetWeight(r.Context(), id, a, *req.Value)
	if err != nil {
		apiFail(w, err)
		return
	}
	apiJSON(w, sess, http.StatusOK)
}

// apiSetStage moves the session to a named stage, or one step with "next"
// and "prev".
func (s *Server) apiSetStage(w http.ResponseWriter, r *http.Request, id int64) {
	var req struct {
		Stage string `json:"stage"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	stage, err := s.resolveStage(r, id, req.Stage)
	if err != nil {
		apiFail(w, err)
		return
	}

	sess, err := s.workups.SetStage(r.Context(), id, stage)
	if err != nil {
		apiFail(w, err)
		return
	}
	apiJSON(w, sess, http.StatusOK)
}

func (s *Server) resolveStage(r *http.Request, id int64, name string) (workflow.Stage, error) {
	if name != "next" && name != "prev" {
		return workflow.ParseStage(name)
	}

	sess, err := s.workups.Get(r.Context(), id)
	if err != nil {
		return "", err
	}
	move := sess.Controller.Next
	if name == "prev" {
		move = sess.Controller.Prev
	}
	c, err := move()
	if err != nil {
		return "", fmt.Errorf("moving %s: %w", name, err)
	}
	return c.Stage, nil
}
