package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evcraddock/tax-appeal/internal/evidence"
	"github.com/evcraddock/tax-appeal/internal/ingest"
	"github.com/evcraddock/tax-appeal/internal/packet"
	"github.com/evcraddock/tax-appeal/internal/property"
	"github.com/evcraddock/tax-appeal/internal/valuation"
	"github.com/evcraddock/tax-appeal/internal/workflow"
	"github.com/evcraddock/tax-appeal/internal/workup"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiFail writes err with the status its sentinel maps to.
func apiFail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	apiError(w, err.Error(), code)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, property.ErrNotFound),
		errors.Is(err, evidence.ErrNotFound),
		errors.Is(err, workup.ErrComparableNotFound):
		return http.StatusNotFound
	case errors.Is(err, workup.ErrNotStarted),
		errors.Is(err, workflow.ErrLocked),
		errors.Is(err, packet.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, property.ErrInvalid),
		errors.Is(err, evidence.ErrEmpty),
		errors.Is(err, workup.ErrInvalidInput),
		errors.Is(err, valuation.ErrUnknownApproach),
		errors.Is(err, valuation.ErrWeightOutOfRange),
		errors.Is(err, workflow.ErrUnknownStage),
		errors.Is(err, ingest.ErrInvalidFile):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func methodNotAllowed(w http.ResponseWriter) {
	apiError(w, "method not allowed", http.StatusMethodNotAllowed)
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		apiError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// apiListProperties returns all properties as JSON.
func (s *Server) apiListProperties(w http.ResponseWriter, r *http.Request) {
	opts := property.ListOptions{Jurisdiction: r.URL.Query().Get("jurisdiction")}

	props, err := s.properties.List(opts)
	if err != nil {
		apiFail(w, err)
		return
	}
	if props == nil {
		props = make([]*property.Property, 0)
	}

	apiJSON(w, props, http.StatusOK)
}

// apiAddProperty stores a new subject property.
func (s *Server) apiAddProperty(w http.ResponseWriter, r *http.Request) {
	var p property.Property
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = 0

	saved, err := s.properties.Add(&p)
	if err != nil {
		apiFail(w, err)
		return
	}

	apiJSON(w, saved, http.StatusCreated)
}

// apiUpdateProperty overwrites a property's editable fields.
func (s *Server) apiUpdateProperty(w http.ResponseWriter, r *http.Request, id int64) {
	var p property.Property
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = id

	saved, err := s.properties.Update(&p)
	if err != nil {
		apiFail(w, err)
		return
	}

	apiJSON(w, saved, http.StatusOK)
}

// apiGetProperty returns a property with its session and evidence.
func (s *Server) apiGetProperty(w http.ResponseWriter, r *http.Request, id int64) {
	p, err := s.properties.Get(id)
	if err != nil {
		apiFail(w, err)
		return
	}

	var session *workflow.Session
	sess, err := s.workups.Get(r.Context(), id)
	switch {
	case err == nil:
		session = &sess
	case !errors.Is(err, workup.ErrNotStarted):
		apiFail(w, err)
		return
	}

	notes, err := s.evidence.ListByPropertyID(id)
	if err != nil {
		apiFail(w, err)
		return
	}
	if notes == nil {
		notes = make([]*evidence.Note, 0)
	}

	type response struct {
		Property *property.Property `json:"property"`
		Session  *workflow.Session  `json:"session"`
		Evidence []*evidence.Note   `json:"evidence"`
	}

	apiJSON(w, response{Property: p, Session: session, Evidence: notes}, http.StatusOK)
}

// apiDeleteProperty removes a property and everything attached to it.
func (s *Server) apiDeleteProperty(w http.ResponseWriter, id int64) {
	if err := s.properties.Remove(id); err != nil {
		apiFail(w, err)
		return
	}
	apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

// routeEvidence routes /api/properties/{id}/evidence[/{noteID}].
func (s *Server) routeEvidence(w http.ResponseWriter, r *http.Request, id int64, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		s.apiListEvidence(w, id)
	case len(rest) == 0 && r.Method == http.MethodPost:
		s.apiAddEvidence(w, r, id)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		noteID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			apiError(w, "invalid evidence ID", http.StatusBadRequest)
			return
		}
		if err := s.evidence.Delete(noteID); err != nil {
			apiFail(w, err)
			return
		}
		apiJSON(w, map[string]interface{}{"id": noteID, "removed": true}, http.StatusOK)
	case len(rest) > 1:
		apiError(w, "not found", http.StatusNotFound)
	default:
		methodNotAllowed(w)
	}
}

// apiListEvidence returns the evidence notes for a property.
func (s *Server) apiListEvidence(w http.ResponseWriter, id int64) {
	if _, err := s.properties.Get(id); err != nil {
		apiFail(w, err)
		return
	}

	notes, err := s.evidence.ListByPropertyID(id)
	if err != nil {
		apiFail(w, err)
		return
	}
	if notes == nil {
		notes = make([]*evidence.Note, 0)
	}
	apiJSON(w, notes, http.StatusOK)
}

// apiAddEvidence attaches a note to a property.
func (s *Server) apiAddEvidence(w http.ResponseWriter, r *http.Request, id int64) {
	var req struct {
		Text   string `json:"text"`
		Author string `json:"author"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := s.properties.Get(id); err != nil {
		apiFail(w, err)
		return
	}

	n, err := s.evidence.Add(id, req.Text, req.Author)
	if err != nil {
		apiFail(w, err)
		return
	}

	apiJSON(w, n, http.StatusCreated)
}
