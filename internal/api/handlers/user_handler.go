package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	apiContext "cytogate/internal/api/context"
	httperrors "cytogate/internal/pkg/errors"
	"cytogate/internal/platform/models"
	"cytogate/internal/platform/repositories"
)

type UserHandler struct {
	userRepo *repositories.UserRepository
}

func NewUserHandler(userRepo *repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(apiContext.User).(*models.User)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

type UpdateMeRequest struct {
	Email string `json:"email"`
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(apiContext.User).(*models.User)

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidInput, "A valid email is required", nil)
		return
	}

	if err := h.userRepo.UpdateEmail(user.ID, req.Email); err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Failed to update user", nil)
		return
	}
	user.Email = req.Email

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
