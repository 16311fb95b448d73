package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/store"
)

const (
	maxChatMessageLen = 2000 // runes
	chatHistoryLimit  = 50
)

// ─── POST /api/chatbot/response ───────────────────────────────────────────────

type chatbotRequest struct {
	EmployeeID string `json:"employee_id"`
	Message    string `json:"message"`
}

type chatbotResponse struct {
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// handleChatbotResponse answers a chat message using the employee's latest
// scores and stores the exchange.
func (s *Server) handleChatbotResponse(w http.ResponseWriter, r *http.Request) {
	var req chatbotRequest
	if !decode(w, r, &req) {
		return
	}

	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.Message = strings.TrimSpace(req.Message)
	if req.EmployeeID == "" || req.Message == "" {
		respondErr(w, http.StatusBadRequest, "employee_id and message are required")
		return
	}
	if utf8.RuneCountInString(req.Message) > maxChatMessageLen {
		respondErr(w, http.StatusBadRequest, fmt.Sprintf("message is longer than %d characters", maxChatMessageLen))
		return
	}
	if !s.authorized(w, r, req.EmployeeID) {
		return
	}

	latest, err := s.store.LatestResult(r.Context(), req.EmployeeID)
	if errors.Is(err, store.ErrNoTestResults) {
		respondErr(w, http.StatusNotFound, "take the test before using the chat")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("chatbot: latest result: %w", err))
		return
	}

	reply, err := s.advisor.Reply(r.Context(), store.ResultFromRow(latest), req.Message)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("chatbot: advisor: %w", err))
		return
	}

	msg, err := s.q.InsertChatMessage(r.Context(), db.InsertChatMessageParams{
		EmployeeID: req.EmployeeID,
		Message:    req.Message,
		Response:   reply,
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("chatbot: save message: %w", err))
		return
	}

	respond(w, http.StatusOK, chatbotResponse{Response: reply, CreatedAt: msg.CreatedAt})
}

// ─── GET /api/chat-messages/:employeeID ───────────────────────────────────────

type chatMessageResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// handleChatMessages returns the latest chat exchanges, newest first.
func (s *Server) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	rows, err := s.q.ListChatMessages(r.Context(), db.ListChatMessagesParams{
		EmployeeID: chi.URLParam(r, "employeeID"),
		Limit:      chatHistoryLimit,
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("chat messages: %w", err))
		return
	}

	out := make([]chatMessageResponse, len(rows))
	for i, m := range rows {
		out[i] = chatMessageResponse{
			ID:        m.ID.String(),
			Message:   m.Message,
			Response:  m.Response,
			CreatedAt: m.CreatedAt,
		}
	}
	respond(w, http.StatusOK, out)
}
