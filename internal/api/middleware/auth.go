package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	apiContext "cytogate/internal/api/context"
	"cytogate/internal/engine/scopes"
	"cytogate/internal/engine/tokens"
	httperrors "cytogate/internal/pkg/errors"
	"cytogate/internal/platform/metrics"
)

type AuthMiddleware struct {
	validator *tokens.Validator
}

func NewAuthMiddleware(validator *tokens.Validator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireSession guards endpoints that only accept session credentials, such
// as PAT management. PATs presented here are rejected like any other bad
// credential.
func (m *AuthMiddleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credential, ok := bearerToken(r)
		if !ok || tokens.IsPAT(credential) {
			metrics.ObserveDecision("session", metrics.OutcomeUnauthorized)
			httperrors.WriteError(w, http.StatusUnauthorized, httperrors.ErrCodeUnauthorized, "Invalid or missing credentials", nil)
			return
		}

		user, err := m.validator.ValidateSession(r.Context(), credential, requestInfo(r))
		if err != nil {
			if errors.Is(err, tokens.ErrInvalidToken) || errors.Is(err, tokens.ErrTokenExpired) {
				metrics.ObserveDecision("session", metrics.OutcomeUnauthorized)
				httperrors.WriteError(w, http.StatusUnauthorized, httperrors.ErrCodeUnauthorized, "Invalid or missing credentials", nil)
				return
			}
			metrics.ObserveDecision("session", metrics.OutcomeError)
			httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Internal error", nil)
			return
		}

		metrics.ObserveDecision("session", metrics.OutcomeAllowed)
		ctx := context.WithValue(r.Context(), apiContext.User, user)
		next(w, r.WithContext(ctx))
	}
}

// RequireScope guards PAT-authenticated endpoints. The scope literal is
// parsed at router construction, so an unknown scope fails at startup rather
// than per request.
func (m *AuthMiddleware) RequireScope(scope string) func(http.HandlerFunc) http.HandlerFunc {
	required := scopes.MustParse(scope)

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			credential, ok := bearerToken(r)
			if !ok || !tokens.IsPAT(credential) {
				metrics.ObserveDecision("pat", metrics.OutcomeUnauthorized)
				httperrors.WriteError(w, http.StatusUnauthorized, httperrors.ErrCodeUnauthorized, "Invalid or missing credentials", nil)
				return
			}

			user, token, err := m.validator.ValidatePAT(r.Context(), credential, &required, requestInfo(r))
			if err != nil {
				switch {
				case errors.Is(err, tokens.ErrPermissionDenied):
					metrics.ObserveDecision("pat", metrics.OutcomeForbidden)
					httperrors.WriteError(w, http.StatusForbidden, httperrors.ErrCodeForbidden, "Insufficient permissions",
						map[string]string{"required_scope": required.String()})
				case errors.Is(err, tokens.ErrInvalidToken),
					errors.Is(err, tokens.ErrTokenRevoked),
					errors.Is(err, tokens.ErrTokenExpired):
					// All authentication failures collapse to one response;
					// the audit entry keeps the real reason.
					metrics.ObserveDecision("pat", metrics.OutcomeUnauthorized)
					httperrors.WriteError(w, http.StatusUnauthorized, httperrors.ErrCodeUnauthorized, "Invalid or missing credentials", nil)
				default:
					metrics.ObserveDecision("pat", metrics.OutcomeError)
					httperrors.WriteError(w, http.StatusInternalServerError, httperrors.ErrCodeInternal, "Internal error", nil)
				}
				return
			}

			metrics.ObserveDecision("pat", metrics.OutcomeAllowed)
			ctx := context.WithValue(r.Context(), apiContext.User, user)
			ctx = context.WithValue(ctx, apiContext.Token, token)
			next(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func requestInfo(r *http.Request) tokens.RequestInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return tokens.RequestInfo{
		IP:     ip,
		Method: r.Method,
		Path:   r.URL.Path,
	}
}
