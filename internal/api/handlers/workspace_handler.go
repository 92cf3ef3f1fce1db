package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "cytogate/internal/api/context"
	httperrors "cytogate/internal/pkg/errors"
	"cytogate/internal/platform/models"
	"cytogate/internal/platform/repositories"
)

type WorkspaceHandler struct {
	wsRepo *repositories.WorkspaceRepository
}

func NewWorkspaceHandler(wsRepo *repositories.WorkspaceRepository) *WorkspaceHandler {
	return &WorkspaceHandler{wsRepo: wsRepo}
}

func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(apiContext.User).(*models.User)

	list, err := h.wsRepo.ListByOwner(user.ID)
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Workspaces []*models.Workspace `json:"workspaces"`
		Total      int                 `json:"total"`
	}{Workspaces: list, Total: len(list)})
}

type WorkspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(apiContext.User).(*models.User)

	var req WorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidInput, "Name is required", nil)
		return
	}

	ws := &models.Workspace{OwnerID: user.ID, Name: req.Name, Description: req.Description}
	if err := h.wsRepo.Create(ws); err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Failed to create workspace", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ws)
}

// getOwned loads a workspace by path id and checks ownership. Writes the
// error response itself when it returns nil.
func (h *WorkspaceHandler) getOwned(w http.ResponseWriter, r *http.Request) *models.Workspace {
	user := r.Context().Value(apiContext.User).(*models.User)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	ws, err := h.wsRepo.GetByID(params.ByName("workspace_id"))
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Database error", nil)
		return nil
	}
	if ws == nil {
		httperrors.WriteError(w, http.StatusNotFound, httperrors.ErrCodeNotFound, "Workspace not found", nil)
		return nil
	}
	if ws.OwnerID != user.ID {
		httperrors.WriteError(w, http.StatusForbidden, httperrors.ErrCodeForbidden, "Access denied to this workspace", nil)
		return nil
	}
	return ws
}

func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ws := h.getOwned(w, r)
	if ws == nil {
		return
	}

	if err := h.wsRepo.Delete(ws.ID); err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Failed to delete workspace", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateSettings is the admin-rung operation on a workspace.
func (h *WorkspaceHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ws := h.getOwned(w, r)
	if ws == nil {
		return
	}

	var req WorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name != "" {
		ws.Name = req.Name
	}
	ws.Description = req.Description

	if err := h.wsRepo.Update(ws); err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Failed to update workspace", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ws)
}
