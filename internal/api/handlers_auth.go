package api

import (
	"net/http"
	"strconv"

	"github.com/audioai/aircheck/internal/auth"
	"github.com/audioai/aircheck/internal/httputil"
	"github.com/audioai/aircheck/internal/models"
	"github.com/audioai/aircheck/internal/version"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	broadcasts, _ := s.broadcastRepo.List()
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{
		"version":    version.Load().Version,
		"broadcasts": len(broadcasts),
		"consoles":   s.wsHub.ClientCount(),
	}})
}

// handleSetupCheck reports whether the first admin account still needs
// to be created.
func (s *Server) handleSetupCheck(w http.ResponseWriter, r *http.Request) {
	count, err := s.userRepo.Count()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to check users")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]bool{"setup_required": count == 0}})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	count, err := s.userRepo.Count()
	if err != nil || count > 0 {
		s.respondError(w, http.StatusConflict, "setup already completed")
		return
	}

	var req credentialsRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		s.respondError(w, http.StatusBadRequest, "username and a password of at least 8 characters are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	u := &models.User{Username: req.Username, PasswordHash: hash, IsAdmin: true}
	if err := s.userRepo.Create(u); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := s.auth.GenerateToken(u.ID, u.IsAdmin)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	s.respondJSON(w, http.StatusCreated, Response{Success: true, Data: map[string]interface{}{
		"token": token,
		"user":  u,
	}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.userRepo.GetByUsername(req.Username)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.GenerateToken(u.ID, u.IsAdmin)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{
		"token": token,
		"user":  u,
	}})
}

// handleLogout acknowledges a logout. Tokens are stateless; the console
// discards its copy and the short expiry bounds any leaked one.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, Response{Success: true})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "user not found")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: u})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userRepo.List()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: users})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		credentialsRequest
		IsAdmin bool `json:"is_admin"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		s.respondError(w, http.StatusBadRequest, "username and a password of at least 8 characters are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	u := &models.User{Username: req.Username, PasswordHash: hash, IsAdmin: req.IsAdmin}
	if err := s.userRepo.Create(u); err != nil {
		s.respondError(w, http.StatusConflict, "username already exists")
		return
	}
	s.respondJSON(w, http.StatusCreated, Response{Success: true, Data: u})
}
