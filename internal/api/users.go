package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/stats"
	"github.com/nyashahama/burnout-detector-backend/internal/store"
)

// userResponse is the public view of a user row. The password hash and the
// Telegram chat ID are never exposed.
type userResponse struct {
	EmployeeID           string     `json:"employee_id"`
	FirstName            string     `json:"first_name,omitempty"`
	LastName             string     `json:"last_name,omitempty"`
	Email                string     `json:"email,omitempty"`
	Department           string     `json:"department,omitempty"`
	IsAdmin              bool       `json:"is_admin"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	TelegramLinked       bool       `json:"telegram_linked"`
	CreatedAt            time.Time  `json:"created_at"`
	LastLogin            *time.Time `json:"last_login"`
	LastTestDate         *time.Time `json:"last_test_date"`
	NextTestDate         *time.Time `json:"next_test_date"`
}

func toUserResponse(u db.User) userResponse {
	return userResponse{
		EmployeeID:           u.EmployeeID,
		FirstName:            u.FirstName.String,
		LastName:             u.LastName.String,
		Email:                u.Email.String,
		Department:           u.Department.String,
		IsAdmin:              u.IsAdmin,
		NotificationsEnabled: u.NotificationsEnabled,
		TelegramLinked:       u.TelegramChatID.Valid,
		CreatedAt:            u.CreatedAt,
		LastLogin:            timePtr(u.LastLogin),
		LastTestDate:         timePtr(u.LastTestDate),
		NextTestDate:         timePtr(u.NextTestDate),
	}
}

// ─── GET /api/users/:employeeID ───────────────────────────────────────────────

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.q.GetUserByEmployeeID(r.Context(), chi.URLParam(r, "employeeID"))
	if errors.Is(err, sql.ErrNoRows) {
		respondErr(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("get user: %w", err))
		return
	}
	respond(w, http.StatusOK, toUserResponse(user))
}

// ─── PUT /api/users/:employeeID/test-info ─────────────────────────────────────

type updateTestInfoRequest struct {
	// Pointer so an absent field is distinguishable from false.
	NotificationsEnabled *bool `json:"notifications_enabled"`
}

// handleUpdateTestInfo toggles reminders. Test dates are maintained by the
// server on submission and are not writable here.
func (s *Server) handleUpdateTestInfo(w http.ResponseWriter, r *http.Request) {
	var req updateTestInfoRequest
	if !decode(w, r, &req) {
		return
	}
	if req.NotificationsEnabled == nil {
		respondErr(w, http.StatusBadRequest, "no fields to update")
		return
	}

	user, err := s.store.SetNotifications(r.Context(), chi.URLParam(r, "employeeID"), *req.NotificationsEnabled)
	if errors.Is(err, store.ErrUserNotFound) {
		respondErr(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("update test info: %w", err))
		return
	}
	respond(w, http.StatusOK, toUserResponse(user))
}

// ─── POST /api/users ──────────────────────────────────────────────────────────

type saveProfileRequest struct {
	EmployeeID string `json:"employee_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

// handleSaveProfile lets HR create an employee or fill in their profile.
// Empty fields keep the stored value.
func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req saveProfileRequest
	if !decode(w, r, &req) {
		return
	}
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if req.EmployeeID == "" {
		respondErr(w, http.StatusBadRequest, "employee_id is required")
		return
	}

	user, err := s.store.SaveProfile(r.Context(), store.ProfileParams{
		EmployeeID: req.EmployeeID,
		FirstName:  nullString(req.FirstName),
		LastName:   nullString(req.LastName),
		Email:      nullString(req.Email),
		Department: nullString(req.Department),
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("save profile: %w", err))
		return
	}
	respond(w, http.StatusOK, toUserResponse(user))
}

// ─── GET /api/users/:employeeID/gamification ──────────────────────────────────

type gamificationResponse struct {
	Points         int      `json:"points"`
	Streak         int      `json:"streak"`
	LastStreakDate string   `json:"last_streak_date"`
	Badges         []string `json:"badges"`
}

// handleGamification derives points, streak and badges from the employee's
// test history. Nothing is stored.
func (s *Server) handleGamification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeID")
	if _, err := s.q.GetUserByEmployeeID(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondErr(w, http.StatusNotFound, "user not found")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("gamification: get user: %w", err))
		return
	}

	rows, err := s.q.ListTestResultsByEmployee(r.Context(), id)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("gamification: history: %w", err))
		return
	}

	// Rows are newest first; the achievements want insertion order.
	history := make([]stats.Entry, len(rows))
	for i, row := range rows {
		history[len(rows)-1-i] = store.EntryFromResult(row)
	}

	a := stats.ComputeAchievements(history, s.now())
	out := gamificationResponse{Points: a.Points, Streak: a.Streak, Badges: a.Badges}
	if !a.LastStreakDate.IsZero() {
		out.LastStreakDate = a.LastStreakDate.Format(time.DateOnly)
	}
	respond(w, http.StatusOK, out)
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

// nullString converts a Go string to sql.NullString. Empty string → NULL.
func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func fullName(u db.User) string {
	return strings.TrimSpace(u.FirstName.String + " " + u.LastName.String)
}
