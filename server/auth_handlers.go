package server

import (
	"encoding/json"
	"net/http"

	"github.com/saptapadi/admin-gateway/rbac"
	"github.com/saptapadi/admin-gateway/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginEnvelope is the upstream login response shape. Non-admin logins are
// rejected here: the gateway session only ever holds admin actors.
type loginEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
		IsAdmin      bool   `json:"isAdmin"`
		Admin        struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"admin"`
	} `json:"data"`
}

// handleLogin forwards credentials to the upstream login endpoint and, for
// an admin result, persists the token pair and identity. A new login always
// overwrites the previous session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds loginRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login request")
		return
	}

	resp, err := s.api.Post(r.Context(), s.config.GetLoginPath(), creds)
	if err != nil {
		s.logger.Error().Err(err).Msg("upstream login call failed")
		writeError(w, http.StatusBadGateway, "login service unavailable")
		return
	}
	if !resp.OK() {
		// Upstream rejections (wrong password etc.) pass through untouched.
		passThrough(w, resp)
		return
	}

	var parsed loginEnvelope
	if err := resp.DecodeJSON(&parsed); err != nil || !parsed.Success {
		writeError(w, http.StatusUnauthorized, "login rejected")
		return
	}
	if !parsed.Data.IsAdmin {
		writeError(w, http.StatusForbidden, "admin account required")
		return
	}

	role := rbac.ParseRole(parsed.Data.Admin.Role)
	if role == rbac.RoleNone {
		s.logger.Warn().Str("role", parsed.Data.Admin.Role).Msg("login carried unknown admin role")
		writeError(w, http.StatusForbidden, "unknown admin role")
		return
	}
	if parsed.Data.Token == "" || parsed.Data.RefreshToken == "" {
		writeError(w, http.StatusBadGateway, "login response missing token pair")
		return
	}

	if err := s.store.Clear(); err != nil {
		s.logger.Error().Err(err).Msg("clearing previous session")
		writeError(w, http.StatusInternalServerError, "session error")
		return
	}
	if err := s.store.Write(session.TokenPair{
		AccessToken:  parsed.Data.Token,
		RefreshToken: parsed.Data.RefreshToken,
	}); err != nil {
		s.logger.Error().Err(err).Msg("storing session tokens")
		writeError(w, http.StatusInternalServerError, "session error")
		return
	}
	if err := s.store.SetIdentity(session.Identity{
		Name:  parsed.Data.Admin.Name,
		Email: parsed.Data.Admin.Email,
		Role:  parsed.Data.Admin.Role,
	}); err != nil {
		s.logger.Error().Err(err).Msg("storing session identity")
		writeError(w, http.StatusInternalServerError, "session error")
		return
	}

	s.logger.Info().Str("email", parsed.Data.Admin.Email).Str("role", string(role)).Msg("admin logged in")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]string{"role": string(role)},
	})
}

// handleLogout clears the persisted session. It always succeeds locally —
// the upstream owns token invalidation.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	if err := s.store.Clear(); err != nil {
		s.logger.Error().Err(err).Msg("clearing session on logout")
		writeError(w, http.StatusInternalServerError, "session error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
