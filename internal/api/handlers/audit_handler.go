package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	apiContext "cytogate/internal/api/context"
	"cytogate/internal/engine/audit"
	httperrors "cytogate/internal/pkg/errors"
	"cytogate/internal/platform/models"
)

type AuditHandler struct {
	audit *audit.Store
}

func NewAuditHandler(auditStore *audit.Store) *AuditHandler {
	return &AuditHandler{audit: auditStore}
}

// List returns audit entries across all of the caller's tokens, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(apiContext.User).(*models.User)

	limit, offset := pagination(r)
	entries, total, err := h.audit.ListByUser(r.Context(), user.ID, limit, offset)
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Total int           `json:"total"`
		Logs  []audit.Entry `json:"logs"`
	}{Total: total, Logs: entries})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 100
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
