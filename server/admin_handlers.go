package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saptapadi/admin-gateway/apiclient"
	"github.com/saptapadi/admin-gateway/rbac"
)

// handleMasters serves one reference-data list, e.g. /masters/religion.
func (s *Server) handleMasters(w http.ResponseWriter, r *http.Request) {
	items, err := s.masters.ByType(r.Context(), chi.URLParam(r, "masterType"))
	if err != nil {
		s.logger.Error().Err(err).Msg("masters lookup failed")
		writeError(w, http.StatusBadGateway, "reference data unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": items})
}

// handleMenu returns the admin areas reachable by the current role, in the
// order the front end renders its menu.
func (s *Server) handleMenu(w http.ResponseWriter, _ *http.Request) {
	role := s.store.Role()
	if role == rbac.RoleNone {
		writeError(w, http.StatusUnauthorized, "admin session required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    rbac.AccessiblePaths(role),
	})
}

// handleProxy forwards a guarded admin request to the upstream API. The
// admin route namespace maps onto the upstream's /api prefix, e.g.
// /admin/users -> /api/admin/users. Statuses and bodies pass through
// untouched; this layer does not interpret business-level payloads.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	path := "/api" + r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	resp, err := s.api.SendRaw(r.Context(), r.Method, path, r.Header.Get("Content-Type"), body)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("upstream request failed")
		writeError(w, http.StatusBadGateway, "upstream unavailable")
		return
	}
	passThrough(w, resp)
}

func passThrough(w http.ResponseWriter, resp *apiclient.Response) {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
