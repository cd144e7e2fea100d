package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartyoni/inaeFlexbook/internal/backend"
	"github.com/smartyoni/inaeFlexbook/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	res, err := backend.NewFactory(nil).Create(&config.Config{DataBackend: "memory"})
	if err != nil {
		t.Fatalf("create memory backend: %v", err)
	}
	s := NewServer(":0", res.Backend)
	t.Cleanup(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
	})
	return s
}

func (s *Server) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func (s *Server) createCategory(t *testing.T, name, kind string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/categories", taxonomyRequest{Name: name, Kind: kind, Color: "#ef4444"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category %s: status %d body %s", name, rec.Code, rec.Body.String())
	}
	return decodeBody[map[string]string](t, rec)["id"]
}

func (s *Server) createTransaction(t *testing.T, req transactionRequest) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/transactions", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: status %d body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[map[string]string](t, rec)["id"]
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)
	catID := s.createCategory(t, "식비", "expense")

	id := s.createTransaction(t, transactionRequest{
		Kind:        "expense",
		Amount:      "120.50",
		Description: "점심",
		CategoryID:  catID,
		OccurredAt:  "2026-03-10",
	})

	rec := s.do(t, http.MethodGet, "/api/transactions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	got := decodeBody[transactionDTO](t, rec)
	if got.AmountMinor != 12050 {
		t.Errorf("AmountMinor = %d, want 12050", got.AmountMinor)
	}
	if got.OccurredAt != "2026-03-10T00:00:00Z" {
		t.Errorf("OccurredAt = %q", got.OccurredAt)
	}

	rec = s.do(t, http.MethodPut, "/api/transactions/"+id, transactionRequest{
		Kind:        "expense",
		Amount:      "130",
		Description: "저녁",
		CategoryID:  catID,
		OccurredAt:  "2026-03-10",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/transactions/"+id, nil)
	if got := decodeBody[transactionDTO](t, rec); got.Description != "저녁" || got.AmountMinor != 13000 {
		t.Errorf("after update: %+v", got)
	}

	rec = s.do(t, http.MethodDelete, "/api/transactions/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if rec = s.do(t, http.MethodGet, "/api/transactions/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
}

func TestCreateTransactionRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	catID := s.createCategory(t, "식비", "expense")

	tests := []struct {
		name string
		req  transactionRequest
		want int
	}{
		{"zero amount", transactionRequest{Kind: "expense", Amount: "0", Description: "x", CategoryID: catID, OccurredAt: "2026-03-10"}, http.StatusBadRequest},
		{"negative amount", transactionRequest{Kind: "expense", Amount: "-5", Description: "x", CategoryID: catID, OccurredAt: "2026-03-10"}, http.StatusBadRequest},
		{"bad timestamp", transactionRequest{Kind: "expense", Amount: "10", Description: "x", CategoryID: catID, OccurredAt: "not-a-date"}, http.StatusBadRequest},
		{"bad kind", transactionRequest{Kind: "transfer", Amount: "10", Description: "x", CategoryID: catID, OccurredAt: "2026-03-10"}, http.StatusUnprocessableEntity},
		{"missing category", transactionRequest{Kind: "expense", Amount: "10", Description: "x", OccurredAt: "2026-03-10"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/transactions", tt.req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCategoryReport(t *testing.T) {
	s := newTestServer(t)
	food := s.createCategory(t, "식비", "expense")
	transport := s.createCategory(t, "교통", "expense")

	s.createTransaction(t, transactionRequest{Kind: "expense", Amount: "30", Description: "점심", CategoryID: food, OccurredAt: "2026-03-05"})
	s.createTransaction(t, transactionRequest{Kind: "expense", Amount: "10", Description: "버스", CategoryID: transport, OccurredAt: "2026-03-06"})

	rec := s.do(t, http.MethodGet, "/api/reports/category?mode=month&year=2026&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: status %d body %s", rec.Code, rec.Body.String())
	}
	bd := decodeBody[breakdownDTO](t, rec)
	if bd.TotalMinor != 4000 {
		t.Fatalf("TotalMinor = %d, want 4000", bd.TotalMinor)
	}
	if len(bd.Buckets) != 2 {
		t.Fatalf("bucket count = %d, want 2", len(bd.Buckets))
	}
	if bd.Buckets[0].Name != "식비" || bd.Buckets[0].AmountMinor != 3000 {
		t.Errorf("top bucket = %+v", bd.Buckets[0])
	}
	if bd.Buckets[0].Share != 75 || bd.Buckets[1].Share != 25 {
		t.Errorf("shares = %v, %v, want 75, 25", bd.Buckets[0].Share, bd.Buckets[1].Share)
	}
}

func TestReportCachePurgedOnWrite(t *testing.T) {
	s := newTestServer(t)
	food := s.createCategory(t, "식비", "expense")
	s.createTransaction(t, transactionRequest{Kind: "expense", Amount: "30", Description: "점심", CategoryID: food, OccurredAt: "2026-03-05"})

	path := "/api/reports/category?mode=month&year=2026&month=3"
	first := decodeBody[breakdownDTO](t, s.do(t, http.MethodGet, path, nil))
	if first.TotalMinor != 3000 {
		t.Fatalf("TotalMinor = %d, want 3000", first.TotalMinor)
	}

	// A write must invalidate the cached response.
	s.createTransaction(t, transactionRequest{Kind: "expense", Amount: "20", Description: "커피", CategoryID: food, OccurredAt: "2026-03-06"})
	second := decodeBody[breakdownDTO](t, s.do(t, http.MethodGet, path, nil))
	if second.TotalMinor != 5000 {
		t.Errorf("TotalMinor after write = %d, want 5000", second.TotalMinor)
	}
}

func TestCustomRangeEndBeforeStart(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/reports/category?mode=custom&start=2026-03-10&end=2026-03-01", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestSummary(t *testing.T) {
	s := newTestServer(t)
	salary := s.createCategory(t, "급여", "income")
	food := s.createCategory(t, "식비", "expense")

	s.createTransaction(t, transactionRequest{Kind: "income", Amount: "1000", Description: "월급", CategoryID: salary, OccurredAt: "2026-03-01"})
	s.createTransaction(t, transactionRequest{Kind: "expense", Amount: "400", Description: "장보기", CategoryID: food, OccurredAt: "2026-03-02"})

	rec := s.do(t, http.MethodGet, "/api/summary?mode=month&year=2026&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status %d", rec.Code)
	}
	sum := decodeBody[summaryDTO](t, rec)
	if sum.TotalIncomeMinor != 100000 || sum.TotalExpenseMinor != 40000 || sum.NetMinor != 60000 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestReorderCategoriesSwapsPositions(t *testing.T) {
	s := newTestServer(t)
	a := s.createCategory(t, "식비", "expense")
	b := s.createCategory(t, "교통", "expense")
	c := s.createCategory(t, "주거", "expense")

	rec := s.do(t, http.MethodPost, "/api/categories/reorder", reorderRequest{DraggedID: a, TargetID: c})
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder: status %d body %s", rec.Code, rec.Body.String())
	}
	refreshed := decodeBody[[]taxonomyDTO](t, rec)
	if len(refreshed) != 3 {
		t.Fatalf("refreshed count = %d, want 3", len(refreshed))
	}
	if refreshed[0].ID != c || refreshed[1].ID != b || refreshed[2].ID != a {
		t.Errorf("order after swap = %s, %s, %s", refreshed[0].ID, refreshed[1].ID, refreshed[2].ID)
	}
	for i, m := range refreshed {
		if m.Order != i {
			t.Errorf("position %d has order %d", i, m.Order)
		}
	}
}

func TestLockedProjectDeleteRefused(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/projects", projectRequest{Name: "제주 여행", Status: "active", Locked: true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: status %d body %s", rec.Code, rec.Body.String())
	}
	id := decodeBody[map[string]string](t, rec)["id"]

	if rec = s.do(t, http.MethodDelete, "/api/projects/"+id, nil); rec.Code != http.StatusConflict {
		t.Fatalf("delete locked: status %d, want 409", rec.Code)
	}

	// Unlock, then delete succeeds.
	rec = s.do(t, http.MethodPut, "/api/projects/"+id, projectRequest{Name: "제주 여행", Status: "active", Locked: false})
	if rec.Code != http.StatusOK {
		t.Fatalf("unlock: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec = s.do(t, http.MethodDelete, "/api/projects/"+id, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete unlocked: status %d, want 204", rec.Code)
	}
}

func TestProjectTransactionsDetachedOnDelete(t *testing.T) {
	s := newTestServer(t)
	cat := s.createCategory(t, "여행", "expense")

	rec := s.do(t, http.MethodPost, "/api/projects", projectRequest{Name: "제주 여행", Status: "active"})
	projID := decodeBody[map[string]string](t, rec)["id"]

	txID := s.createTransaction(t, transactionRequest{
		Kind: "expense", Amount: "80", Description: "숙소",
		CategoryID: cat, ProjectID: projID, OccurredAt: "2026-03-10",
	})

	rec = s.do(t, http.MethodGet, "/api/projects/"+projID+"/transactions", nil)
	if got := decodeBody[[]transactionDTO](t, rec); len(got) != 1 || got[0].ID != txID {
		t.Fatalf("project transactions = %+v", got)
	}

	if rec = s.do(t, http.MethodDelete, "/api/projects/"+projID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete project: status %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/transactions/"+txID, nil)
	if got := decodeBody[transactionDTO](t, rec); got.ProjectID != "" {
		t.Errorf("ProjectID after project delete = %q, want empty", got.ProjectID)
	}
}

func TestRecurringTemplateLifecycle(t *testing.T) {
	s := newTestServer(t)
	cat := s.createCategory(t, "주거", "expense")

	rec := s.do(t, http.MethodPost, "/api/recurring", recurringRequest{
		Name: "월세", Amount: "500000", CategoryID: cat, DayOfMonth: 25, Active: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	id := decodeBody[map[string]string](t, rec)["id"]

	rec = s.do(t, http.MethodGet, "/api/recurring/"+id, nil)
	got := decodeBody[recurringDTO](t, rec)
	if got.AmountMinor != 50000000 || got.DayOfMonth != 25 || !got.Active {
		t.Errorf("template = %+v", got)
	}

	rec = s.do(t, http.MethodPut, "/api/recurring/"+id, recurringRequest{
		Name: "월세", Amount: "500000", CategoryID: cat, DayOfMonth: 25, Active: false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodGet, "/api/recurring/"+id, nil)
	if got := decodeBody[recurringDTO](t, rec); got.Active {
		t.Error("template still active after update")
	}

	// Day 32 never exists.
	rec = s.do(t, http.MethodPost, "/api/recurring", recurringRequest{
		Name: "bad", Amount: "100", CategoryID: cat, DayOfMonth: 32, Active: true,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid day: status %d, want 422", rec.Code)
	}

	if rec = s.do(t, http.MethodDelete, "/api/recurring/"+id, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if rec = s.do(t, http.MethodGet, "/api/recurring/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := s.do(t, http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
		}
	}
}
