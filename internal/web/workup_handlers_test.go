package web

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"

	"github.com/evcraddock/tax-appeal/internal/valuation"
	"github.com/evcraddock/tax-appeal/internal/workflow"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// startedProperty inserts a property and starts its appeal.
func startedProperty(t *testing.T, srv *Server, id int64) string {
	t.Helper()
	base := "/api/properties/" + itoa(id)
	w := apiRequest(t, srv, "POST", base+"/workup", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	return base
}

func TestAPIWorkupLifecycle(t *testing.T) {
	srv, d := testServerWithDB(t)
	id := insertTestProperty(t, d)
	base := "/api/properties/" + itoa(id)

	w := apiRequest(t, srv, "GET", base+"/workup", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("get before start status = %d, want %d", w.Code, http.StatusConflict)
	}

	startedProperty(t, srv, id)

	w = apiRequest(t, srv, "GET", base+"/workup", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", w.Code, http.StatusOK)
	}
	var sess workflow.Session
	decode(t, w, &sess)
	if sess.Controller.Stage != workflow.StageSales {
		t.Errorf("stage = %q, want sales", sess.Controller.Stage)
	}
	if sess.Workup.Weights != valuation.DefaultWeights {
		t.Errorf("weights = %+v", sess.Workup.Weights)
	}

	w = apiRequest(t, srv, "DELETE", base+"/workup", nil)
	if w.Code != http.StatusOK {
		t.Errorf("reset status = %d, want %d", w.Code, http.StatusOK)
	}
	w = apiRequest(t, srv, "GET", base+"/workup", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("get after reset status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestAPIEditsBeforeStart(t *testing.T) {
	srv, d := testServerWithDB(t)
	id := insertTestProperty(t, d)
	base := "/api/properties/" + itoa(id)

	w := apiRequest(t, srv, "PUT", base+"/cost", map[string]float64{"land_value": 1})
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestAPIComparables(t *testing.T) {
	srv, d := testServerWithDB(t)
	base := startedProperty(t, srv, insertTestProperty(t, d))

	w := apiRequest(t, srv, "POST", base+"/comparables", map[string]interface{}{
		"address":        "14 Elm St",
		"sale_price":     360000,
		"sale_date":      "2025-03-01T00:00:00Z",
		"square_footage": 1800,
		"adjustments":    map[string]float64{"location": 5},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", w.Code, w.Body.String())
	}
	var sess workflow.Session
	decode(t, w, &sess)

	comps := sess.Workup.Sales.Comparables
	if len(comps) != 1 {
		t.Fatalf("got %d comparables, want 1", len(comps))
	}
	c := comps[0]
	if c.ID == "" {
		t.Error("expected generated comparable id")
	}
	// 200/sqft adjusted by +5% over 1800 sqft
	if c.IndicatedValue != 378000 {
		t.Errorf("indicated value = %v, want 378000", c.IndicatedValue)
	}

	w = apiRequest(t, srv, "PUT", base+"/comparables/"+c.ID, map[string]interface{}{
		"address":        "14 Elm St",
		"sale_price":     360000,
		"square_footage": 1800,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &sess)
	if got := sess.Workup.Sales.AverageValue; got != 360000 {
		t.Errorf("average after update = %v, want 360000", got)
	}

	w = apiRequest(t, srv, "DELETE", base+"/comparables/"+c.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove status = %d", w.Code)
	}
	w = apiRequest(t, srv, "DELETE", base+"/comparables/"+c.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second remove status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAPIComparableValidation(t *testing.T) {
	srv, d := testServerWithDB(t)
	base := startedProperty(t, srv, insertTestProperty(t, d))

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"negative price", map[string]interface{}{"sale_price": -1}},
		{"bad quality", map[string]interface{}{"sale_price": 1, "construction_quality": "superb"}},
		{"bad confidence", map[string]interface{}{"sale_price": 1, "confidence": "certain"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, srv, "POST", base+"/comparables", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func csvUpload(t *testing.T, filename, contentType, body string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestAPIImportComparables(t *testing.T) {
	srv, d := testServerWithDB(t)
	base := startedProperty(t, srv, insertTestProperty(t, d))

	const data = "Address,Sold Price,Date Sold,Sq Ft\n" +
		"14 Elm St,\"$360,000\",2025-03-01,1800\n" +
		"16 Elm St,\"$378,000\",2025-01-15,1800\n"

	tests := []struct {
		name        string
		filename    string
		contentType string
		body        string
		code        int
	}{
		{"valid csv", "comps.csv", "text/csv", data, http.StatusCreated},
		{"executable", "comps.exe", "text/csv", data, http.StatusBadRequest},
		{"double extension", "comps.pdf.csv", "text/csv", data, http.StatusBadRequest},
		{"not csv", "notes.txt", "text/plain", data, http.StatusBadRequest},
		{"bad row", "comps.csv", "text/csv", "sale_price\nabc\n", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := csvUpload(t, tt.filename, tt.contentType, tt.body)
			r := httptest.NewRequest("POST", base+"/comparables/import", body)
			r.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, r)

			if w.Code != tt.code {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.code, w.Body.String())
			}
		})
	}

	w := apiRequest(t, srv, "GET", base+"/workup", nil)
	var sess workflow.Session
	decode(t, w, &sess)
	if len(sess.Workup.Sales.Comparables) != 2 {
		t.Errorf("got %d comparables, want 2", len(sess.Workup.Sales.Comparables))
	}
	if got := sess.Workup.Sales.AverageValue; got != 369000 {
		t.Errorf("average = %v, want 369000", got)
	}
}

func TestAPIFetchComparablesFallsBackToDemo(t *testing.T) {
	srv, d := testServerWithDB(t)
	base := startedProperty(t, srv, insertTestProperty(t, d))

	w := apiRequest(t, srv, "POST", base+"/comparables/fetch", map[string]int{"limit": 3})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Source    string           `json:"source"`
		Synthetic bool             `json:"synthetic"`
		Imported  int              `json:"imported"`
		Session   workflow.Session `json:"session"`
	}
	decode(t, w, &resp)
	if !resp.Synthetic || resp.Source != "demo" {
		t.Errorf("source = %q synthetic = %v", resp.Source, resp.Synthetic)
	}
	if resp.Imported != 3 || len(resp.Session.Workup.Sales.Comparables) != 3 {
		t.Errorf("imported = %d", resp.Imported)
	}
}

func TestAPICostAndIncome(t *testing.T) {
	srv, d := testServerWithDB(t)
	base := startedProperty(t, srv, insertTestProperty(t, d))

	w := apiRequest(t, srv, "PUT", base+"/cost", map[string]float64{
		"land_value":            100000,
		"replacement_cost_new":  350000,
		"physical_depreciation": 50000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("cost status = %d: %s", w.Code, w.Body.String())
	}
	var sess workflow.Session
	decode(t, w, &sess)
	if sess.Workup.Cost.DepreciatedValue != 400000 {
		t.Errorf("depreciated value = %v, want 400000", sess.Workup.Cost.DepreciatedValue)
	}

	w = apiRequest(t, srv, "PUT", base+"/income", map[string]float64{
		"gross_rental_income": 30000,
		"vacancy_rate":        0.05,
		"operating_expenses":  8500,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("income status = %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &sess)
	if sess.Workup.Income.CapitalizedValue != nil {
		t.Error("expected nil capitalized value with zero cap rate")
	}

	w = apiRequest(t, srv, "PUT", base+"/income", map[string]float64{"vacancy_rate": 1.5})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad vacancy status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPISetWeight(t *testing.T) {
	srv, d := testServerWithDB(t)
	base := startedProperty(t, srv, insertTestProperty(t, d))

	w := apiRequest(t, srv, "PUT", base+"/weights", map[string]interface{}{"approach": "sales", "value": 60})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var sess workflow.Session
	decode(t, w, &sess)
	want := valuation.Weights{Sales: 60, Cost: 20, Income: 20}
	if sess.Workup.Weights != want {
		t.Errorf("weights = %+v, want %+v", sess.Workup.Weights, want)
	}

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"unknown approach", map[string]interface{}{"approach": "replacement", "value": 10}},
		{"out of range", map[string]interface{}{"approach": "cost", "value": 150}},
		{"missing value", map[string]interface{}{"approach": "cost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, srv, "PUT", base+"/weights", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestAPISetStage(t *testing.T) {
	srv, d := testServerWithDB(t)
	base := startedProperty(t, srv, insertTestProperty(t, d))

	tests := []struct {
		stage string
		code  int
		want  workflow.Stage
	}{
		{"income", http.StatusOK, workflow.StageIncome},
		{"next", http.StatusOK, workflow.StageReconciliation},
		{"prev", http.StatusOK, workflow.StageIncome},
		{"review", http.StatusOK, workflow.StageReview},
		{"filed", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			w := apiRequest(t, srv, "PUT", base+"/stage", map[string]string{"stage": tt.stage})
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.code, w.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			var sess workflow.Session
			decode(t, w, &sess)
			if sess.Controller.Stage != tt.want {
				t.Errorf("stage = %q, want %q", sess.Controller.Stage, tt.want)
			}
		})
	}
}
