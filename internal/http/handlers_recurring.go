package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/smartyoni/inaeFlexbook/internal/core"
	"github.com/smartyoni/inaeFlexbook/internal/storage"
)

type recurringRequest struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	CategoryID string `json:"categoryId"`
	DayOfMonth int    `json:"dayOfMonth"`
	Memo       string `json:"memo"`
	Active     bool   `json:"active"`
	Months     []int  `json:"months"`
}

type recurringDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AmountMinor int64  `json:"amountMinor"`
	CategoryID  string `json:"categoryId"`
	DayOfMonth  int    `json:"dayOfMonth"`
	Memo        string `json:"memo,omitempty"`
	Active      bool   `json:"active"`
	Months      []int  `json:"months,omitempty"`
}

func recurringToDTO(re core.RecurringExpense) recurringDTO {
	return recurringDTO{
		ID:          re.ID,
		Name:        re.Name,
		AmountMinor: re.Amount.Minor,
		CategoryID:  re.CategoryID,
		DayOfMonth:  re.DayOfMonth,
		Memo:        re.Memo,
		Active:      re.Active,
		Months:      re.Months,
	}
}

func decodeRecurring(r *http.Request) (core.RecurringExpense, error) {
	var req recurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.RecurringExpense{}, errors.New("invalid request body")
	}
	minor, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	return core.RecurringExpense{
		Name:       sanitizeInput(req.Name),
		Amount:     core.Money{Minor: minor},
		CategoryID: req.CategoryID,
		DayOfMonth: req.DayOfMonth,
		Memo:       sanitizeInput(req.Memo),
		Active:     req.Active,
		Months:     req.Months,
	}, nil
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	templates, err := s.backend.Recurring.ListTemplates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load recurring templates")
		return
	}
	out := make([]recurringDTO, len(templates))
	for i, re := range templates {
		out[i] = recurringToDTO(re)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	re, err := decodeRecurring(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.backend.Recurring.CreateTemplate(r.Context(), re)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	re, err := s.backend.Recurring.GetTemplate(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "recurring template not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load recurring template")
		return
	}
	writeJSON(w, http.StatusOK, recurringToDTO(re))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	re, err := decodeRecurring(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	re.ID = r.PathValue("id")

	current, err := s.backend.Recurring.GetTemplate(r.Context(), re.ID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "recurring template not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load recurring template")
		return
	}
	re.CreatedAt = current.CreatedAt

	if err := s.backend.Recurring.UpdateTemplate(r.Context(), re); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": re.ID})
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Recurring.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recurring template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete recurring template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
