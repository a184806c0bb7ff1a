package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vannadii/rustygpt-go/internal/authsession"
	"github.com/vannadii/rustygpt-go/internal/middleware"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type userResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	DisplayName string   `json:"displayName"`
	Roles       []string `json:"roles"`
}

func toUserResponse(u authsession.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Username: u.Username, DisplayName: u.DisplayName, Roles: u.Roles}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "malformed request body")
		return
	}
	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "identifier and password are required")
		return
	}

	meta := authsession.RequestMetadata(r)
	user, bundle, err := s.authority.Authenticate(r.Context(), identifier, req.Password, meta)
	if err != nil {
		switch {
		case errors.Is(err, authsession.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
		case errors.Is(err, authsession.ErrDisabledUser):
			writeError(w, http.StatusLocked, ErrCodeForbidden, "account disabled")
		default:
			writeError(w, http.StatusInternalServerError, ErrCodeDatabase, "login failed")
		}
		return
	}

	authsession.SetSessionCookies(w, s.cfg.Cookie, bundle)
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token := authsession.SessionTokenFromRequest(r)
	meta := authsession.RequestMetadata(r)

	validation, err := s.authority.Refresh(r.Context(), token, meta)
	if err != nil {
		switch {
		case errors.Is(err, authsession.ErrSessionNotFound), errors.Is(err, authsession.ErrSessionExpired), errors.Is(err, authsession.ErrAbsoluteExpired):
			authsession.ClearSessionCookies(w, s.cfg.Cookie)
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "not authenticated")
		case errors.Is(err, authsession.ErrDisabledUser):
			writeError(w, http.StatusForbidden, ErrCodeForbidden, "account disabled")
		default:
			writeError(w, http.StatusInternalServerError, ErrCodeDatabase, "refresh failed")
		}
		return
	}

	if validation.Bundle != nil {
		authsession.SetSessionCookies(w, s.cfg.Cookie, *validation.Bundle)
		w.Header().Set("X-Session-Rotated", "1")
	}
	writeJSON(w, http.StatusOK, toUserResponse(validation.User))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := authsession.SessionTokenFromRequest(r)
	if err := s.authority.Logout(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeDatabase, "logout failed")
		return
	}
	authsession.ClearSessionCookies(w, s.cfg.Cookie)
	writeSuccess(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
