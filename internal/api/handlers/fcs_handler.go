package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	apiContext "cytogate/internal/api/context"
	httperrors "cytogate/internal/pkg/errors"
	"cytogate/internal/platform/models"
	"cytogate/internal/platform/repositories"
)

// FCSHandler manages FCS file metadata rows. Actual file payloads are handled
// by a separate ingestion service; this API tracks and analyzes what was
// ingested.
type FCSHandler struct {
	fcsRepo *repositories.FCSRepository
	wsRepo  *repositories.WorkspaceRepository
}

func NewFCSHandler(fcsRepo *repositories.FCSRepository, wsRepo *repositories.WorkspaceRepository) *FCSHandler {
	return &FCSHandler{fcsRepo: fcsRepo, wsRepo: wsRepo}
}

type RegisterFCSRequest struct {
	WorkspaceID    string `json:"workspace_id"`
	Filename       string `json:"filename"`
	EventCount     int64  `json:"event_count"`
	ParameterCount int64  `json:"parameter_count"`
}

func (h *FCSHandler) Register(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(apiContext.User).(*models.User)

	var req RegisterFCSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.WorkspaceID == "" || req.Filename == "" {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidInput, "Workspace id and filename are required", nil)
		return
	}

	ws, err := h.wsRepo.GetByID(req.WorkspaceID)
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if ws == nil || ws.OwnerID != user.ID {
		httperrors.WriteError(w, http.StatusNotFound, httperrors.ErrCodeNotFound, "Workspace not found", nil)
		return
	}

	f := &models.FCSFile{
		WorkspaceID:    req.WorkspaceID,
		Filename:       req.Filename,
		EventCount:     req.EventCount,
		ParameterCount: req.ParameterCount,
	}
	if err := h.fcsRepo.Create(f); err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Failed to register file", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(f)
}

func (h *FCSHandler) ListByWorkspace(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(apiContext.User).(*models.User)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	ws, err := h.wsRepo.GetByID(params.ByName("workspace_id"))
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if ws == nil || ws.OwnerID != user.ID {
		httperrors.WriteError(w, http.StatusNotFound, httperrors.ErrCodeNotFound, "Workspace not found", nil)
		return
	}

	files, err := h.fcsRepo.ListByWorkspace(ws.ID)
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Files []*models.FCSFile `json:"files"`
		Total int               `json:"total"`
	}{Files: files, Total: len(files)})
}

// Analyze marks a file analyzed and returns summary statistics.
func (h *FCSHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(apiContext.User).(*models.User)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	f, err := h.fcsRepo.GetByID(params.ByName("file_id"))
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if f == nil {
		httperrors.WriteError(w, http.StatusNotFound, httperrors.ErrCodeNotFound, "File not found", nil)
		return
	}

	ws, err := h.wsRepo.GetByID(f.WorkspaceID)
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if ws == nil || ws.OwnerID != user.ID {
		httperrors.WriteError(w, http.StatusNotFound, httperrors.ErrCodeNotFound, "File not found", nil)
		return
	}

	now := time.Now().Unix()
	if err := h.fcsRepo.MarkAnalyzed(f.ID, now); err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Failed to record analysis", nil)
		return
	}
	f.AnalyzedAt = &now

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		File           *models.FCSFile `json:"file"`
		EventCount     int64           `json:"event_count"`
		ParameterCount int64           `json:"parameter_count"`
		AnalyzedAt     int64           `json:"analyzed_at"`
	}{File: f, EventCount: f.EventCount, ParameterCount: f.ParameterCount, AnalyzedAt: now})
}
