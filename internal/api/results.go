package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/email"
	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
	"github.com/nyashahama/burnout-detector-backend/internal/store"
)

// testResultResponse is one persisted result. RiskLevel uses the component
// rule, as every individual view does.
type testResultResponse struct {
	ID                     string            `json:"id"`
	EmployeeID             string            `json:"employee_id"`
	CatalogVersion         string            `json:"catalog_version"`
	EmotionalExhaustion    int               `json:"emotional_exhaustion"`
	Depersonalization      int               `json:"depersonalization"`
	PersonalAccomplishment int               `json:"personal_accomplishment"`
	TotalScore             int               `json:"total_score"`
	RiskLevel              scoring.RiskLevel `json:"risk_level"`
	Answers                json.RawMessage   `json:"answers,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
}

func toTestResultResponse(r db.TestResult) testResultResponse {
	res := store.ResultFromRow(r)
	out := testResultResponse{
		ID:                     r.ID.String(),
		EmployeeID:             r.EmployeeID,
		CatalogVersion:         r.CatalogVersion,
		EmotionalExhaustion:    res.EmotionalExhaustion,
		Depersonalization:      res.Depersonalization,
		PersonalAccomplishment: res.PersonalAccomplishment,
		TotalScore:             res.TotalScore,
		RiskLevel:              res.RiskByComponents(),
		CreatedAt:              r.CreatedAt,
	}
	if r.Answers.Valid {
		out.Answers = r.Answers.RawMessage
	}
	return out
}

// resultWithAdvice is returned by submission and by the latest-result view.
type resultWithAdvice struct {
	Result          testResultResponse       `json:"result"`
	Recommendations []scoring.Recommendation `json:"recommendations"`
}

func withAdvice(r db.TestResult) resultWithAdvice {
	return resultWithAdvice{
		Result:          toTestResultResponse(r),
		Recommendations: scoring.Recommendations(store.ResultFromRow(r)),
	}
}

// ─── POST /api/test-results ───────────────────────────────────────────────────

// submitTestResultRequest carries exactly one of Answers (positional, in
// catalog order) or AnswersByID (keyed by question ID). Scores are always
// computed server-side.
type submitTestResultRequest struct {
	EmployeeID  string         `json:"employee_id"`
	Answers     []float64      `json:"answers"`
	AnswersByID map[string]int `json:"answers_by_id"`
}

func (s *Server) handleSubmitTestResult(w http.ResponseWriter, r *http.Request) {
	var req submitTestResultRequest
	if !decode(w, r, &req) {
		return
	}

	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if req.EmployeeID == "" {
		respondErr(w, http.StatusBadRequest, "employee_id is required")
		return
	}
	if !s.authorized(w, r, req.EmployeeID) {
		return
	}

	answers, err := req.positional()
	if err != nil {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}

	catalog := scoring.DefaultCatalog()
	result, err := catalog.Score(answers)
	if err != nil {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.store.SubmitTestResult(r.Context(), store.SubmitTestResultParams{
		EmployeeID:     req.EmployeeID,
		CatalogVersion: catalog.Version,
		Answers:        answers,
		Result:         result,
	})
	if errors.Is(err, store.ErrUserNotFound) {
		respondErr(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("submit test result: %w", err))
		return
	}

	s.logger.Info("test result saved",
		"employee_id", req.EmployeeID,
		"total_score", result.TotalScore,
		"risk_level", result.RiskByComponents(),
		logField(r),
	)

	if result.RiskByComponents() == scoring.RiskHigh {
		s.alertHR(r, saved)
	}

	respond(w, http.StatusCreated, withAdvice(saved))
}

func (req submitTestResultRequest) positional() ([]int, error) {
	switch {
	case req.Answers != nil && req.AnswersByID != nil:
		return nil, errors.New("send either answers or answers_by_id, not both")
	case req.AnswersByID != nil:
		return scoring.DefaultCatalog().Positional(req.AnswersByID)
	case req.Answers != nil:
		return scoring.AnswersFromFloats(req.Answers)
	default:
		return nil, errors.New("answers are required")
	}
}

// alertHR emails HR about a high-risk result. Best effort: failures are
// logged and never fail the submission.
func (s *Server) alertHR(r *http.Request, saved db.TestResult) {
	if s.cfg.HRAlertEmail == "" {
		return
	}

	name := ""
	if user, err := s.q.GetUserByEmployeeID(r.Context(), saved.EmployeeID); err == nil {
		name = fullName(user)
	}

	res := store.ResultFromRow(saved)
	err := s.mailer.SendRiskAlert(r.Context(), email.RiskAlertParams{
		To:                     s.cfg.HRAlertEmail,
		EmployeeID:             saved.EmployeeID,
		EmployeeName:           name,
		RiskLevel:              string(res.RiskByComponents()),
		EmotionalExhaustion:    res.EmotionalExhaustion,
		Depersonalization:      res.Depersonalization,
		PersonalAccomplishment: res.PersonalAccomplishment,
		TotalScore:             res.TotalScore,
	})
	s.logAndIgnoreEmailErr(r, err, "risk alert")
}

// ─── GET /api/test-results/:employeeID/latest ─────────────────────────────────

func (s *Server) handleLatestResult(w http.ResponseWriter, r *http.Request) {
	latest, err := s.store.LatestResult(r.Context(), chi.URLParam(r, "employeeID"))
	if errors.Is(err, store.ErrNoTestResults) {
		respondErr(w, http.StatusNotFound, "no test results")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("latest result: %w", err))
		return
	}
	respond(w, http.StatusOK, withAdvice(latest))
}

// ─── GET /api/test-results/:employeeID/history ────────────────────────────────

// handleHistory lists every result of the employee, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := s.q.ListTestResultsByEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("history: %w", err))
		return
	}

	out := make([]testResultResponse, len(rows))
	for i, row := range rows {
		out[i] = toTestResultResponse(row)
	}
	respond(w, http.StatusOK, out)
}

// ─── GET /api/questions ───────────────────────────────────────────────────────

// handleQuestions returns the catalog so clients render questions and the
// answer scale from one source.
func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, scoring.DefaultCatalog())
}
