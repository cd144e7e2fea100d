package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/report"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func parseYear(v string) (int, error) {
	y, err := strconv.Atoi(v)
	if err != nil || y < 1 || y > 9999 {
		return 0, fmt.Errorf("invalid year %q", v)
	}
	return y, nil
}

// parseReportRange builds the reporting window from query parameters.
//
//	mode=day    date=YYYY-MM-DD        (default: today)
//	mode=month  year=YYYY month=M      (default: current month)
//	mode=year   year=YYYY              (default: current year)
//	mode=custom start=YYYY-MM-DD end=YYYY-MM-DD
//
// A custom range whose end precedes its start fails with
// report.ErrInvalidRange.
func parseReportRange(r *http.Request) (report.Range, error) {
	q := r.URL.Query()
	now := time.Now()

	switch q.Get("mode") {
	case "day":
		d := now
		if v := q.Get("date"); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				return report.Range{}, fmt.Errorf("invalid date %q: %w", v, err)
			}
			d = parsed
		}
		return report.DayRange(d), nil

	case "", "month":
		year, month := now.Year(), int(now.Month())
		if v := q.Get("year"); v != "" {
			y, err := strconv.Atoi(v)
			if err != nil {
				return report.Range{}, fmt.Errorf("invalid year %q", v)
			}
			year = y
		}
		if v := q.Get("month"); v != "" {
			m, err := strconv.Atoi(v)
			if err != nil || m < 1 || m > 12 {
				return report.Range{}, fmt.Errorf("invalid month %q", v)
			}
			month = m
		}
		return report.MonthRange(year, time.Month(month)), nil

	case "year":
		year := now.Year()
		if v := q.Get("year"); v != "" {
			y, err := strconv.Atoi(v)
			if err != nil {
				return report.Range{}, fmt.Errorf("invalid year %q", v)
			}
			year = y
		}
		return report.YearRange(year), nil

	case "custom":
		start, err := time.Parse("2006-01-02", q.Get("start"))
		if err != nil {
			return report.Range{}, fmt.Errorf("invalid start %q: %w", q.Get("start"), err)
		}
		end, err := time.Parse("2006-01-02", q.Get("end"))
		if err != nil {
			return report.Range{}, fmt.Errorf("invalid end %q: %w", q.Get("end"), err)
		}
		return report.CustomRange(start, end)

	default:
		return report.Range{}, fmt.Errorf("invalid mode %q", q.Get("mode"))
	}
}
