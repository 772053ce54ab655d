package web

import (
	"net/http"
	"strconv"

	"github.com/evcraddock/tax-appeal/internal/packet"
)

// apiSavings projects the tax effect of the appeal. Costs come from the
// query string: filing_fee, attorney_fee, other_costs, years and tax_rate.
func (s *Server) apiSavings(w http.ResponseWriter, r *http.Request, id int64) {
	q := r.URL.Query()
	var costs packet.Costs

	floats := []struct {
		name string
		dst  *float64
	}{
		{"filing_fee", &costs.FilingFee},
		{"attorney_fee", &costs.AttorneyFee},
		{"other_costs", &costs.OtherCosts},
		{"tax_rate", &costs.TaxRate},
	}
	for _, f := range floats {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			apiError(w, f.name+" must be a number", http.StatusBadRequest)
			return
		}
		*f.dst = n
	}
	if v := q.Get("years"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			apiError(w, "years must be an integer", http.StatusBadRequest)
			return
		}
		costs.Years = n
	}

	e, err := s.packets.Economics(r.Context(), id, costs)
	if err != nil {
		apiFail(w, err)
		return
	}
	apiJSON(w, e, http.StatusOK)
}

// apiPacket renders the appeal packet as HTML, or Markdown with
// ?format=markdown.
func (s *Server) apiPacket(w http.ResponseWriter, r *http.Request, id int64) {
	pkt, err := s.packets.Generate(r.Context(), id)
	if err != nil {
		apiFail(w, err)
		return
	}

	if pkt.Synthetic {
		w.Header().Set("X-Demo-Data", "true")
	}

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(pkt.Markdown))
		return
	}

	page, err := pkt.HTML()
	if err != nil {
		apiFail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
