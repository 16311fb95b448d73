package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nyashahama/burnout-detector-backend/internal/auth"
	"github.com/nyashahama/burnout-detector-backend/internal/store"
)

// ─── POST /api/login ──────────────────────────────────────────────────────────

type loginRequest struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Token      string `json:"token"`
	EmployeeID string `json:"employee_id"`
	IsAdmin    bool   `json:"is_admin"`
	Created    bool   `json:"created"`
}

const minPasswordLen = 6

// handleLogin finds or creates the employee and returns a bearer token. The
// first login of an unknown employee registers them.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if req.EmployeeID == "" {
		respondErr(w, http.StatusBadRequest, "employee_id is required")
		return
	}
	if len(req.Password) < minPasswordLen {
		respondErr(w, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
		return
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		respondErr(w, http.StatusBadRequest, fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
		return
	}

	res, err := s.store.LoginOrRegister(r.Context(), store.LoginParams{
		EmployeeID: req.EmployeeID,
		Password:   req.Password,
	})
	if errors.Is(err, store.ErrInvalidCredentials) {
		respondErr(w, http.StatusUnauthorized, "invalid employee_id or password")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("login: %w", err))
		return
	}

	token, err := s.tokens.Sign(res.User.EmployeeID, res.User.IsAdmin)
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}

	if res.Created {
		s.logger.Info("login: employee registered", "employee_id", res.User.EmployeeID, logField(r))
	}

	respond(w, http.StatusOK, loginResponse{
		Token:      token,
		EmployeeID: res.User.EmployeeID,
		IsAdmin:    res.User.IsAdmin,
		Created:    res.Created,
	})
}
