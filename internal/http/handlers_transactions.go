package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/core"
	"github.com/smartyoni/inaeFlexbook/internal/storage"
)

type transactionRequest struct {
	Kind            string `json:"kind"`
	Amount          string `json:"amount"`
	Description     string `json:"description"`
	CategoryID      string `json:"categoryId"`
	PaymentMethodID string `json:"paymentMethodId"`
	ProjectID       string `json:"projectId"`
	OccurredAt      string `json:"occurredAt"`
	Memo            string `json:"memo"`
}

type transactionDTO struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	AmountMinor     int64  `json:"amountMinor"`
	Description     string `json:"description"`
	CategoryID      string `json:"categoryId"`
	PaymentMethodID string `json:"paymentMethodId,omitempty"`
	ProjectID       string `json:"projectId,omitempty"`
	OccurredAt      string `json:"occurredAt"`
	Memo            string `json:"memo,omitempty"`
	UpdatedAt       string `json:"updatedAt"`
}

func transactionToDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:              t.ID,
		Kind:            string(t.Kind),
		AmountMinor:     t.Amount.Minor,
		Description:     t.Description,
		CategoryID:      t.CategoryID,
		PaymentMethodID: t.PaymentMethodID,
		ProjectID:       t.ProjectID,
		OccurredAt:      t.OccurredAt.UTC().Format(time.RFC3339),
		Memo:            t.Memo,
		UpdatedAt:       t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// parseOccurredAt accepts either a full RFC3339 timestamp or a bare date.
func parseOccurredAt(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", v)
}

func (s *Server) decodeTransaction(r *http.Request) (core.Transaction, error) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.Transaction{}, fmt.Errorf("invalid request body: %w", err)
	}

	minor, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid amount %q: %w", req.Amount, err)
	}
	occurred, err := parseOccurredAt(req.OccurredAt)
	if err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		Kind:            core.Kind(req.Kind),
		Amount:          core.Money{Minor: minor},
		Description:     sanitizeInput(req.Description),
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		ProjectID:       req.ProjectID,
		OccurredAt:      occurred,
		Memo:            sanitizeInput(req.Memo),
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	rng, err := parseReportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.backend.Store.TransactionsInRange(r.Context(), rng.Start, rng.End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	out := make([]transactionDTO, len(txs))
	for i, t := range txs {
		out[i] = transactionToDTO(t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.decodeTransaction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.backend.Transactions.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.purgeReportCache()
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.backend.Transactions.GetTransaction(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load transaction")
		return
	}
	writeJSON(w, http.StatusOK, transactionToDTO(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.decodeTransaction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.ID = r.PathValue("id")

	if err := s.backend.Transactions.UpdateTransaction(r.Context(), t); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.purgeReportCache()
	writeJSON(w, http.StatusOK, map[string]string{"id": t.ID})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.backend.Transactions.DeleteTransaction(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	s.purgeReportCache()
	w.WriteHeader(http.StatusNoContent)
}
