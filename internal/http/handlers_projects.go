package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/core"
	"github.com/smartyoni/inaeFlexbook/internal/storage"
)

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Status      string `json:"status"`
	Locked      bool   `json:"locked"`
}

type projectDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Status      string `json:"status"`
	Locked      bool   `json:"locked"`
	CreatedAt   string `json:"createdAt"`
}

func projectToDTO(p core.Project) projectDTO {
	return projectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		Status:      string(p.Status),
		Locked:      p.Locked,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.backend.Projects.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load projects")
		return
	}
	out := make([]projectDTO, len(projects))
	for i, p := range projects {
		out[i] = projectToDTO(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.backend.Projects.CreateProject(r.Context(), core.Project{
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
		Color:       req.Color,
		Status:      core.ProjectStatus(req.Status),
		Locked:      req.Locked,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.backend.Projects.GetProject(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load project")
		return
	}
	writeJSON(w, http.StatusOK, projectToDTO(p))
}

// handleProjectTransactions lists every transaction attached to the
// project, outside any date range.
func (s *Server) handleProjectTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.backend.Store.TransactionsByProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load project transactions")
		return
	}
	out := make([]transactionDTO, len(txs))
	for i, t := range txs {
		out[i] = transactionToDTO(t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := s.backend.Projects.GetProject(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load project")
		return
	}

	p.Name = sanitizeInput(req.Name)
	p.Description = sanitizeInput(req.Description)
	p.Color = req.Color
	p.Status = core.ProjectStatus(req.Status)
	p.Locked = req.Locked

	if err := s.backend.Projects.UpdateProject(r.Context(), p); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": p.ID})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	err := s.backend.Projects.DeleteProject(r.Context(), r.PathValue("id"))
	if errors.Is(err, core.ErrProjectLocked) {
		writeError(w, http.StatusConflict, "project is locked")
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}

	s.purgeReportCache()
	w.WriteHeader(http.StatusNoContent)
}
