package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "cytogate/internal/api/context"
	"cytogate/internal/engine/audit"
	"cytogate/internal/engine/scopes"
	"cytogate/internal/engine/tokens"
	httperrors "cytogate/internal/pkg/errors"
	"cytogate/internal/platform/metrics"
	"cytogate/internal/platform/models"
)

// TokenHandler manages PATs. All endpoints are session-authenticated:
// tokens cannot mint or revoke tokens.
type TokenHandler struct {
	issuer *tokens.Issuer
	repo   *tokens.Repository
	audit  *audit.Store
}

func NewTokenHandler(issuer *tokens.Issuer, repo *tokens.Repository, auditStore *audit.Store) *TokenHandler {
	return &TokenHandler{issuer: issuer, repo: repo, audit: auditStore}
}

type CreateTokenRequest struct {
	Name          string   `json:"name"`
	Scopes        []string `json:"scopes"`
	ExpiresInDays int      `json:"expires_in_days"`
}

type CreateTokenResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Token       string   `json:"token"` // plaintext, returned exactly once
	TokenPrefix string   `json:"token_prefix"`
	Scopes      []string `json:"scopes"`
	ExpiresAt   *int64   `json:"expires_at,omitempty"`
	CreatedAt   int64    `json:"created_at"`
}

func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(apiContext.User).(*models.User)

	var req CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" || len(req.Scopes) == 0 {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidInput, "Name and at least one scope are required", nil)
		return
	}

	token, secret, err := h.issuer.Issue(user.ID, req.Name, req.Scopes, req.ExpiresInDays)
	if err != nil {
		switch {
		case errors.Is(err, scopes.ErrInvalidScope),
			errors.Is(err, tokens.ErrInvalidTTL),
			errors.Is(err, tokens.ErrTTLTooLong):
			httperrors.WriteError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidInput, err.Error(), nil)
		default:
			httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Failed to create token", nil)
		}
		return
	}

	metrics.ObserveTokenIssued()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateTokenResponse{
		ID:          token.ID,
		Name:        token.Name,
		Token:       secret,
		TokenPrefix: token.TokenPrefix,
		Scopes:      token.Scopes,
		ExpiresAt:   token.ExpiresAt,
		CreatedAt:   token.CreatedAt,
	})
}

func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(apiContext.User).(*models.User)

	list, err := h.repo.ListByUser(user.ID)
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Tokens []*models.PersonalAccessToken `json:"tokens"`
		Total  int                           `json:"total"`
	}{Tokens: list, Total: len(list)})
}

// getOwned loads a token by path id and checks it belongs to the caller.
// Writes the error response itself when it returns nil.
func (h *TokenHandler) getOwned(w http.ResponseWriter, r *http.Request) *models.PersonalAccessToken {
	user := r.Context().Value(apiContext.User).(*models.User)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	token, err := h.repo.GetByID(params.ByName("token_id"))
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Database error", nil)
		return nil
	}
	if token == nil {
		httperrors.WriteError(w, http.StatusNotFound, httperrors.ErrCodeNotFound, "Token not found", nil)
		return nil
	}
	if token.UserID != user.ID {
		httperrors.WriteError(w, http.StatusForbidden, httperrors.ErrCodeForbidden, "Access denied to this token", nil)
		return nil
	}
	return token
}

func (h *TokenHandler) Get(w http.ResponseWriter, r *http.Request) {
	token := h.getOwned(w, r)
	if token == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(token)
}

func (h *TokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	token := h.getOwned(w, r)
	if token == nil {
		return
	}

	// Idempotent: revoking an already revoked token reports success.
	if err := h.repo.Revoke(token.ID); err != nil && !errors.Is(err, tokens.ErrNotFound) {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Failed to revoke token", nil)
		return
	}
	token.Revoked = true

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(token)
}

func (h *TokenHandler) Logs(w http.ResponseWriter, r *http.Request) {
	token := h.getOwned(w, r)
	if token == nil {
		return
	}

	limit, offset := pagination(r)
	entries, total, err := h.audit.ListByToken(r.Context(), token.ID, limit, offset)
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		TokenID   string        `json:"token_id"`
		TokenName string        `json:"token_name"`
		TotalLogs int           `json:"total_logs"`
		Logs      []audit.Entry `json:"logs"`
	}{TokenID: token.ID, TokenName: token.Name, TotalLogs: total, Logs: entries})
}
