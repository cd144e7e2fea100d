package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/core"
	"github.com/smartyoni/inaeFlexbook/internal/report"
)

type bucketDTO struct {
	Name        string  `json:"name"`
	AmountMinor int64   `json:"amountMinor"`
	Color       string  `json:"color"`
	Share       float64 `json:"share"`
}

type breakdownDTO struct {
	Buckets    []bucketDTO `json:"buckets"`
	TotalMinor int64       `json:"totalMinor"`
}

type summaryDTO struct {
	TotalIncomeMinor  int64 `json:"totalIncomeMinor"`
	TotalExpenseMinor int64 `json:"totalExpenseMinor"`
	NetMinor          int64 `json:"netMinor"`
}

type trendPointDTO struct {
	Month        int   `json:"month"`
	IncomeMinor  int64 `json:"incomeMinor"`
	ExpenseMinor int64 `json:"expenseMinor"`
}

type trendDTO struct {
	Year   int             `json:"year"`
	Points []trendPointDTO `json:"points"`
}

func breakdownToDTO(bd report.Breakdown) breakdownDTO {
	out := breakdownDTO{
		Buckets:    make([]bucketDTO, len(bd.Buckets)),
		TotalMinor: bd.Total.Minor,
	}
	for i, b := range bd.Buckets {
		out.Buckets[i] = bucketDTO{
			Name:        b.Name,
			AmountMinor: b.Amount.Minor,
			Color:       b.Color,
			Share:       bd.Share(i),
		}
	}
	return out
}

// parseFilterOptions reads the optional kind and project query filters.
func parseFilterOptions(r *http.Request) (report.FilterOptions, error) {
	opts := report.FilterOptions{
		ProjectID: r.URL.Query().Get("project"),
	}
	if v := r.URL.Query().Get("kind"); v != "" {
		kind := core.Kind(v)
		if err := kind.Validate(); err != nil {
			return report.FilterOptions{}, err
		}
		opts.Kind = kind
	}
	return opts, nil
}

// cacheKey distinguishes report responses by full request line.
func cacheKey(r *http.Request) string {
	return r.URL.Path + "?" + r.URL.RawQuery
}

// serveBreakdown runs the shared fetch-filter-aggregate pipeline and
// writes the result, consulting the report cache first.
func (s *Server) serveBreakdown(w http.ResponseWriter, r *http.Request, dim report.Dimension) {
	key := cacheKey(r)
	if cached, ok := s.reportCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(cached)
		return
	}

	rng, err := parseReportRange(r)
	if errors.Is(err, report.ErrInvalidRange) {
		writeError(w, http.StatusUnprocessableEntity, "range end precedes start")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := parseFilterOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.backend.Store.TransactionsInRange(r.Context(), rng.Start, rng.End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	filtered := report.Filter(txs, rng, opts)

	var lookup report.Lookup
	switch dim {
	case report.ByCategory:
		categories, err := s.backend.Store.ListCategories(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load categories")
			return
		}
		lookup = report.CategoryLookup(categories)
	case report.ByPaymentMethod:
		methods, err := s.backend.Store.ListPaymentMethods(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load payment methods")
			return
		}
		lookup = report.PaymentMethodLookup(methods)
	}

	dto := breakdownToDTO(report.Aggregate(filtered, dim, lookup))
	s.writeCachedJSON(w, key, dto)
}

// writeCachedJSON stores the encoded payload in the report cache and
// sends it.
func (s *Server) writeCachedJSON(w http.ResponseWriter, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	payload = append(payload, '\n')
	s.reportCache.Set(key, payload)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(payload)
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	s.serveBreakdown(w, r, report.ByCategory)
}

func (s *Server) handlePaymentMethodReport(w http.ResponseWriter, r *http.Request) {
	s.serveBreakdown(w, r, report.ByPaymentMethod)
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	s.serveBreakdown(w, r, report.ByDay)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	key := cacheKey(r)
	if cached, ok := s.reportCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(cached)
		return
	}

	rng, err := parseReportRange(r)
	if errors.Is(err, report.ErrInvalidRange) {
		writeError(w, http.StatusUnprocessableEntity, "range end precedes start")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := parseFilterOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.backend.Store.TransactionsInRange(r.Context(), rng.Start, rng.End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	summary := report.Summarize(report.Filter(txs, rng, opts))

	s.writeCachedJSON(w, key, summaryDTO{
		TotalIncomeMinor:  summary.TotalIncome.Minor,
		TotalExpenseMinor: summary.TotalExpense.Minor,
		NetMinor:          summary.Net.Minor,
	})
}

func (s *Server) handleTrendReport(w http.ResponseWriter, r *http.Request) {
	key := cacheKey(r)
	if cached, ok := s.reportCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(cached)
		return
	}

	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := parseYear(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		year = y
	}

	rng := report.YearRange(year)
	txs, err := s.backend.Store.TransactionsInRange(r.Context(), rng.Start, rng.End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	points := report.MonthlyTrend(report.Filter(txs, rng, report.FilterOptions{}), year)
	dto := trendDTO{Year: year, Points: make([]trendPointDTO, len(points))}
	for i, p := range points {
		dto.Points[i] = trendPointDTO{
			Month:        int(p.Month),
			IncomeMinor:  p.Income.Minor,
			ExpenseMinor: p.Expense.Minor,
		}
	}
	s.writeCachedJSON(w, key, dto)
}
