package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lendtrack/internal/core"
	"lendtrack/internal/services"
)

type memStore struct {
	doc *core.Document
}

func (m *memStore) Load(ctx context.Context) (*core.Document, error) {
	if m.doc == nil {
		return core.NewDocument(), nil
	}
	return m.doc, nil
}

func (m *memStore) Save(ctx context.Context, doc *core.Document) error {
	m.doc = doc.Clone()
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	tracker := services.NewTracker(context.Background(), &memStore{}, nil)
	s := NewServer(":0", tracker, 30*time.Second)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

type personResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Loans  []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Totals struct {
			TotalPrincipal float64 `json:"totalPrincipal"`
			TotalReturn    float64 `json:"totalReturn"`
			Remaining      float64 `json:"remaining"`
		} `json:"totals"`
	} `json:"loans"`
	Aggregate struct {
		TotalPrincipal float64 `json:"totalPrincipal"`
		TotalProfit    float64 `json:"totalProfit"`
	} `json:"aggregate"`
}

func createPerson(t *testing.T, s *Server, name string) personResponse {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/people", map[string]any{
		"name": name,
		"loan": map[string]any{
			"purpose":  "Business",
			"interest": 1000,
			"dueDate":  "2026-09-15",
			"duration": "3 months",
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create person: status %d body %s", rec.Code, rec.Body.String())
	}
	var p personResponse
	decodeBody(t, rec, &p)
	return p
}

func TestPersonLifecycle(t *testing.T) {
	s := newTestServer(t)

	p := createPerson(t, s, "Asha")
	if p.ID == "" || len(p.Loans) != 1 {
		t.Fatalf("created person: %+v", p)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/people", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list people: %d", rec.Code)
	}
	var people []personResponse
	decodeBody(t, rec, &people)
	if len(people) != 1 || people[0].Name != "Asha" {
		t.Fatalf("people: %+v", people)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/people/"+p.ID, map[string]string{"name": "Asha Sharma"})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit person: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/people/"+p.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete person: %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/people/"+p.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted person: %d", rec.Code)
	}
}

func TestLoanSettlementFlow(t *testing.T) {
	s := newTestServer(t)
	p := createPerson(t, s, "Asha")
	loanID := p.Loans[0].ID

	rec := doJSON(t, s, http.MethodPost, "/api/people/"+p.ID+"/loans/"+loanID+"/transactions", map[string]any{
		"date":   "2026-08-01",
		"amount": "8000",
		"mode":   "UPI",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add transaction: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/people/"+p.ID+"/loans/"+loanID+"/receive", map[string]any{
		"amount": 9000,
		"date":   "2026-08-20",
		"mode":   "Cash",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("mark received: %d %s", rec.Code, rec.Body.String())
	}
	var settled personResponse
	decodeBody(t, rec, &settled)
	if settled.Loans[0].Status != "Received" {
		t.Fatalf("loan status: %+v", settled.Loans[0])
	}
	if settled.Aggregate.TotalProfit != 1000 {
		t.Fatalf("profit: %+v", settled.Aggregate)
	}
}

func TestInvalidAmountRejected(t *testing.T) {
	s := newTestServer(t)
	p := createPerson(t, s, "Asha")

	rec := doJSON(t, s, http.MethodPost, "/api/people/"+p.ID+"/loans/"+p.Loans[0].ID+"/transactions", map[string]any{
		"date":   "2026-08-01",
		"amount": "12.3.4",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid amount: %d %s", rec.Code, rec.Body.String())
	}
}

func TestEmptyNameRejected(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/people", map[string]any{"name": "   "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty name: %d %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownLoanReturns404(t *testing.T) {
	s := newTestServer(t)
	p := createPerson(t, s, "Asha")

	rec := doJSON(t, s, http.MethodDelete, "/api/people/"+p.ID+"/loans/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown loan: %d", rec.Code)
	}
}

func TestPaymentModeRegistry(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/payment-modes", map[string]string{"label": "Bank Draft"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add mode: %d %s", rec.Code, rec.Body.String())
	}

	// Duplicate adds respond with the unchanged registry.
	rec = doJSON(t, s, http.MethodPost, "/api/payment-modes", map[string]string{"label": "Bank Draft"})
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate mode: %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/payment-modes/Bank%20Draft", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete mode: %d %s", rec.Code, rec.Body.String())
	}
	var modes map[string][]string
	decodeBody(t, rec, &modes)
	for _, m := range modes["paymentModes"] {
		if m == "Bank Draft" {
			t.Fatalf("mode not removed: %v", modes)
		}
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/payment-modes/Missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing mode: %d", rec.Code)
	}
}

func TestDashboardReflectsMutations(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: %d", rec.Code)
	}
	var before struct {
		PeopleCount int `json:"peopleCount"`
	}
	decodeBody(t, rec, &before)
	if before.PeopleCount != 0 {
		t.Fatalf("initial people count: %d", before.PeopleCount)
	}

	createPerson(t, s, "Asha")

	// The mutation purged the cached overview.
	rec = doJSON(t, s, http.MethodGet, "/api/dashboard", nil)
	var after struct {
		PeopleCount int `json:"peopleCount"`
		LoanCount   int `json:"loanCount"`
	}
	decodeBody(t, rec, &after)
	if after.PeopleCount != 1 || after.LoanCount != 1 {
		t.Fatalf("dashboard after mutation: %+v", after)
	}
}

func TestExportDownload(t *testing.T) {
	s := newTestServer(t)
	createPerson(t, s, "Asha")

	rec := doJSON(t, s, http.MethodGet, "/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type: %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "LendTrack_") || !strings.Contains(cd, ".csv") {
		t.Fatalf("content disposition: %q", cd)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "\uFEFF") {
		t.Fatalf("missing BOM")
	}
	if !strings.Contains(body, "MASTER SUMMARY") || !strings.Contains(body, "Asha") {
		t.Fatalf("export body: %q", body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, rec.Code)
		}
	}
}
