package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "cytogate/internal/api/context"
	"cytogate/internal/api/handlers"
	"cytogate/internal/api/middleware"
	"cytogate/internal/platform/metrics"
)

type Dependencies struct {
	AuthHandler      *handlers.AuthHandler
	TokenHandler     *handlers.TokenHandler
	UserHandler      *handlers.UserHandler
	WorkspaceHandler *handlers.WorkspaceHandler
	FCSHandler       *handlers.FCSHandler
	AuditHandler     *handlers.AuditHandler
	HealthHandler    *handlers.HealthHandler
	AuthMiddleware   *middleware.AuthMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	// Public
	router.POST("/api/v1/auth/register", wrap(deps.AuthHandler.Register))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))
	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.Handler("GET", "/metrics", metrics.Handler())

	authMid := deps.AuthMiddleware

	// PAT management: session credentials only.
	router.POST("/api/v1/tokens",
		chain(deps.TokenHandler.Create, authMid.RequireSession))
	router.GET("/api/v1/tokens",
		chain(deps.TokenHandler.List, authMid.RequireSession))
	router.GET("/api/v1/tokens/:token_id",
		chain(deps.TokenHandler.Get, authMid.RequireSession))
	router.DELETE("/api/v1/tokens/:token_id",
		chain(deps.TokenHandler.Revoke, authMid.RequireSession))
	router.GET("/api/v1/tokens/:token_id/logs",
		chain(deps.TokenHandler.Logs, authMid.RequireSession))
	router.GET("/api/v1/audit",
		chain(deps.AuditHandler.List, authMid.RequireSession))

	// PAT-authenticated resource endpoints; scope literals are checked at
	// startup by RequireScope.
	router.GET("/api/v1/users/me",
		chain(deps.UserHandler.Me, authMid.RequireScope("users:read")))
	router.PUT("/api/v1/users/me",
		chain(deps.UserHandler.UpdateMe, authMid.RequireScope("users:write")))

	router.GET("/api/v1/workspaces",
		chain(deps.WorkspaceHandler.List, authMid.RequireScope("workspaces:read")))
	router.POST("/api/v1/workspaces",
		chain(deps.WorkspaceHandler.Create, authMid.RequireScope("workspaces:write")))
	router.DELETE("/api/v1/workspaces/:workspace_id",
		chain(deps.WorkspaceHandler.Delete, authMid.RequireScope("workspaces:delete")))
	router.PUT("/api/v1/workspaces/:workspace_id/settings",
		chain(deps.WorkspaceHandler.UpdateSettings, authMid.RequireScope("workspaces:admin")))

	router.POST("/api/v1/fcs",
		chain(deps.FCSHandler.Register, authMid.RequireScope("fcs:write")))
	router.GET("/api/v1/workspaces/:workspace_id/fcs",
		chain(deps.FCSHandler.ListByWorkspace, authMid.RequireScope("fcs:read")))
	router.POST("/api/v1/fcs/:file_id/analyze",
		chain(deps.FCSHandler.Analyze, authMid.RequireScope("fcs:analyze")))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
