package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/smartyoni/inaeFlexbook/internal/core"
	"github.com/smartyoni/inaeFlexbook/internal/storage"
)

type taxonomyRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

type taxonomyDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color,omitempty"`
	Order int    `json:"order"`
}

// reorderRequest names the dragged member and the member it was dropped
// onto. The two swap positions.
type reorderRequest struct {
	DraggedID string `json:"draggedId"`
	TargetID  string `json:"targetId"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.backend.Taxonomy.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}
	out := make([]taxonomyDTO, len(categories))
	for i, c := range categories {
		out[i] = taxonomyDTO{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Color: c.Color, Order: c.Order}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req taxonomyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.backend.Taxonomy.CreateCategory(r.Context(), core.Category{
		Name:  sanitizeInput(req.Name),
		Kind:  core.Kind(req.Kind),
		Color: req.Color,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.purgeReportCache()
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req taxonomyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.backend.Taxonomy.UpdateCategory(r.Context(), core.Category{
		ID:    r.PathValue("id"),
		Name:  sanitizeInput(req.Name),
		Kind:  core.Kind(req.Kind),
		Color: req.Color,
		Order: req.Order,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.purgeReportCache()
	writeJSON(w, http.StatusOK, map[string]string{"id": r.PathValue("id")})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Taxonomy.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}

	s.purgeReportCache()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	refreshed, err := s.backend.Taxonomy.ReorderCategories(r.Context(), req.DraggedID, req.TargetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reorder categories")
		return
	}

	out := make([]taxonomyDTO, len(refreshed))
	for i, c := range refreshed {
		out[i] = taxonomyDTO{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Color: c.Color, Order: c.Order}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.backend.Taxonomy.ListPaymentMethods(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load payment methods")
		return
	}
	out := make([]taxonomyDTO, len(methods))
	for i, m := range methods {
		out[i] = taxonomyDTO{ID: m.ID, Name: m.Name, Kind: string(m.Kind), Color: m.Color, Order: m.Order}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req taxonomyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.backend.Taxonomy.CreatePaymentMethod(r.Context(), core.PaymentMethod{
		Name:  sanitizeInput(req.Name),
		Kind:  core.Kind(req.Kind),
		Color: req.Color,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.purgeReportCache()
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req taxonomyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.backend.Taxonomy.UpdatePaymentMethod(r.Context(), core.PaymentMethod{
		ID:    r.PathValue("id"),
		Name:  sanitizeInput(req.Name),
		Kind:  core.Kind(req.Kind),
		Color: req.Color,
		Order: req.Order,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment method not found")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.purgeReportCache()
	writeJSON(w, http.StatusOK, map[string]string{"id": r.PathValue("id")})
}

func (s *Server) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Taxonomy.DeletePaymentMethod(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment method not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete payment method")
		return
	}

	s.purgeReportCache()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderPaymentMethods(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	refreshed, err := s.backend.Taxonomy.ReorderPaymentMethods(r.Context(), req.DraggedID, req.TargetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reorder payment methods")
		return
	}

	out := make([]taxonomyDTO, len(refreshed))
	for i, m := range refreshed {
		out[i] = taxonomyDTO{ID: m.ID, Name: m.Name, Kind: string(m.Kind), Color: m.Color, Order: m.Order}
	}
	writeJSON(w, http.StatusOK, out)
}
