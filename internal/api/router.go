// Package api wires the HTTP transport: Bearer-token auth in front of the
// streamable MCP endpoint and the SSE vault-event feed.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with the MCP handler mounted at /mcp and,
// if events is non-nil, the SSE feed at GET /events. Both sit behind the
// same auth middleware; authEnabled controls whether it is enforced.
func NewRouter(mcpHandler http.Handler, events http.Handler, authEnabled bool, token string) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Mount("/mcp", mcpHandler)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
