package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/burnout-detector-backend/internal/api"
	"github.com/nyashahama/burnout-detector-backend/internal/auth"
	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/email"
	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
	"github.com/nyashahama/burnout-detector-backend/internal/stats"
	"github.com/nyashahama/burnout-detector-backend/internal/store"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

// stubQuerier satisfies db.Querier with in-memory state.
type stubQuerier struct {
	db.Querier // embedded to panic on unimplemented methods
	users      map[string]db.User
	history    map[string][]db.TestResult
	withStats  []db.ListUsersWithStatsRow
	messages   []db.ChatMessage
}

func newStubQuerier() *stubQuerier {
	return &stubQuerier{
		users:   make(map[string]db.User),
		history: make(map[string][]db.TestResult),
	}
}

func (q *stubQuerier) GetUserByEmployeeID(_ context.Context, id string) (db.User, error) {
	u, ok := q.users[id]
	if !ok {
		return db.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (q *stubQuerier) ListTestResultsByEmployee(_ context.Context, id string) ([]db.TestResult, error) {
	return q.history[id], nil
}

func (q *stubQuerier) ListUsersWithStats(context.Context) ([]db.ListUsersWithStatsRow, error) {
	return q.withStats, nil
}

func (q *stubQuerier) InsertChatMessage(_ context.Context, p db.InsertChatMessageParams) (db.ChatMessage, error) {
	m := db.ChatMessage{
		ID:         uuid.New(),
		EmployeeID: p.EmployeeID,
		Message:    p.Message,
		Response:   p.Response,
		CreatedAt:  time.Now(),
	}
	q.messages = append(q.messages, m)
	return m, nil
}

func (q *stubQuerier) ListChatMessages(_ context.Context, p db.ListChatMessagesParams) ([]db.ChatMessage, error) {
	var out []db.ChatMessage
	for _, m := range q.messages {
		if m.EmployeeID == p.EmployeeID {
			out = append(out, m)
		}
	}
	return out, nil
}

// stubStore satisfies api.Store.
type stubStore struct {
	loginErr   error
	created    bool
	latest     map[string]db.TestResult
	histories  []stats.EmployeeHistory
	histErr    error
	submitted  []store.SubmitTestResultParams
	submitErr  error
	notifyErr  error
	lastNotify *bool
}

func newStubStore() *stubStore {
	return &stubStore{latest: make(map[string]db.TestResult)}
}

func (s *stubStore) LoginOrRegister(_ context.Context, p store.LoginParams) (store.LoginResult, error) {
	if s.loginErr != nil {
		return store.LoginResult{}, s.loginErr
	}
	return store.LoginResult{
		User:    db.User{EmployeeID: p.EmployeeID, IsAdmin: p.EmployeeID == "2"},
		Created: s.created,
	}, nil
}

func (s *stubStore) SaveProfile(_ context.Context, p store.ProfileParams) (db.User, error) {
	return db.User{
		EmployeeID: p.EmployeeID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Department: p.Department,
	}, nil
}

func (s *stubStore) SetNotifications(_ context.Context, id string, enabled bool) (db.User, error) {
	if s.notifyErr != nil {
		return db.User{}, s.notifyErr
	}
	s.lastNotify = &enabled
	return db.User{EmployeeID: id, NotificationsEnabled: enabled}, nil
}

func (s *stubStore) SubmitTestResult(_ context.Context, p store.SubmitTestResultParams) (db.TestResult, error) {
	if s.submitErr != nil {
		return db.TestResult{}, s.submitErr
	}
	s.submitted = append(s.submitted, p)
	return resultRow(p.EmployeeID, p.Result, time.Now()), nil
}

func (s *stubStore) LatestResult(_ context.Context, id string) (db.TestResult, error) {
	r, ok := s.latest[id]
	if !ok {
		return db.TestResult{}, store.ErrNoTestResults
	}
	return r, nil
}

func (s *stubStore) EmployeeHistories(context.Context) ([]stats.EmployeeHistory, error) {
	return s.histories, s.histErr
}

// stubAdvisor returns a canned reply and records the scores it saw.
type stubAdvisor struct {
	reply string
	seen  scoring.Result
}

func (a *stubAdvisor) Reply(_ context.Context, scores scoring.Result, _ string) (string, error) {
	a.seen = scores
	return a.reply, nil
}

// stubMailer records risk alerts.
type stubMailer struct {
	alerts []email.RiskAlertParams
	err    error
}

func (m *stubMailer) SendRiskAlert(_ context.Context, p email.RiskAlertParams) error {
	m.alerts = append(m.alerts, p)
	return m.err
}

// ─── TEST HELPERS ─────────────────────────────────────────────────────────────

type testEnv struct {
	handler http.Handler
	q       *stubQuerier
	st      *stubStore
	adv     *stubAdvisor
	mailer  *stubMailer
	tokens  *auth.Issuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		q:      newStubQuerier(),
		st:     newStubStore(),
		adv:    &stubAdvisor{reply: "Сделайте перерыв."},
		mailer: &stubMailer{},
		tokens: auth.NewIssuer("test-secret", time.Hour),
	}
	env.handler = api.NewServer(env.q, env.st, env.tokens, env.adv, env.mailer, api.Config{
		Env:          "test",
		HRAlertEmail: "hr@example.com",
		RecentWindow: 7 * 24 * time.Hour,
	}, discardLogger())
	return env
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (e *testEnv) token(t *testing.T, employeeID string, admin bool) string {
	t.Helper()
	tok, err := e.tokens.Sign(employeeID, admin)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, w.Body.String())
	}
	return v
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status: got %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}

func resultRow(employeeID string, r scoring.Result, at time.Time) db.TestResult {
	return db.TestResult{
		ID:                     uuid.New(),
		EmployeeID:             employeeID,
		CatalogVersion:         scoring.CatalogVersion(),
		EmotionalExhaustion:    int32(r.EmotionalExhaustion),
		Depersonalization:      int32(r.Depersonalization),
		PersonalAccomplishment: int32(r.PersonalAccomplishment),
		TotalScore:             int32(r.TotalScore),
		CreatedAt:              at,
	}
}

// answersOf returns 14 answers with every item set to v.
func answersOf(v float64) []float64 {
	out := make([]float64, 14)
	for i := range out {
		out[i] = v
	}
	return out
}

// ─── HEALTH / SECURITY ────────────────────────────────────────────────────────

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	assertStatus(t, w, http.StatusOK)
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options: got %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options: got %q", got)
	}
}

func TestQuestions_ReturnsCatalog(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/questions", "", nil)
	assertStatus(t, w, http.StatusOK)

	body := decodeJSON[scoring.Catalog](t, w)
	if len(body.Questions) != 14 || len(body.Scale) != 7 {
		t.Errorf("got %d questions, %d scale labels", len(body.Questions), len(body.Scale))
	}
}

// ─── LOGIN ────────────────────────────────────────────────────────────────────

func TestLogin_ReturnsUsableToken(t *testing.T) {
	env := newTestEnv(t)
	env.st.created = true

	w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"employee_id": "e1", "password": "secret1",
	})
	assertStatus(t, w, http.StatusOK)

	body := decodeJSON[map[string]any](t, w)
	if body["created"] != true || body["is_admin"] != false {
		t.Errorf("unexpected body: %v", body)
	}
	claims, err := env.tokens.Parse(body["token"].(string))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.EmployeeID != "e1" {
		t.Errorf("claims employee: got %q", claims.EmployeeID)
	}
}

func TestLogin_ShortPassword(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"employee_id": "e1", "password": "123",
	})
	assertStatus(t, w, http.StatusBadRequest)
}

func TestLogin_PasswordTooLong(t *testing.T) {
	env := newTestEnv(t)
	env.st.loginErr = errors.New("store must not be reached")

	w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"employee_id": "e1", "password": strings.Repeat("a", auth.MaxPasswordBytes+1),
	})
	assertStatus(t, w, http.StatusBadRequest)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.st.loginErr = store.ErrInvalidCredentials

	w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"employee_id": "e1", "password": "wrong-one",
	})
	assertStatus(t, w, http.StatusUnauthorized)
}

func TestLogin_UnknownField(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"employee_id": "e1", "password": "secret1", "role": "admin",
	})
	assertStatus(t, w, http.StatusBadRequest)
}

// ─── AUTH ─────────────────────────────────────────────────────────────────────

func TestAuth_MissingToken(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/test-results/e1/latest", "", nil)
	assertStatus(t, w, http.StatusUnauthorized)
}

func TestAuth_InvalidToken(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/test-results/e1/latest", "not-a-jwt", nil)
	assertStatus(t, w, http.StatusUnauthorized)
}

func TestAuth_OtherEmployeeForbidden(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/test-results/e2/latest", env.token(t, "e1", false), nil)
	assertStatus(t, w, http.StatusForbidden)
}

func TestAuth_AdminReadsAnyEmployee(t *testing.T) {
	env := newTestEnv(t)
	env.st.latest["e2"] = resultRow("e2", scoring.Result{TotalScore: 10}, time.Now())

	w := env.do(t, http.MethodGet, "/api/test-results/e2/latest", env.token(t, "2", true), nil)
	assertStatus(t, w, http.StatusOK)
}

func TestAuth_HRRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{
		"/api/hr/employees",
		"/api/hr/statistics",
		"/api/hr/risk-distribution",
		"/api/hr/departments",
		"/api/hr/dashboard",
	} {
		w := env.do(t, http.MethodGet, path, env.token(t, "e1", false), nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s: got %d, want 403", path, w.Code)
		}
	}
}

// ─── USERS ────────────────────────────────────────────────────────────────────

func TestGetUser_HidesSecrets(t *testing.T) {
	env := newTestEnv(t)
	env.q.users["e1"] = db.User{
		EmployeeID:     "e1",
		PasswordHash:   sql.NullString{String: "$2a$hash", Valid: true},
		TelegramChatID: sql.NullInt64{Int64: 42, Valid: true},
	}

	w := env.do(t, http.MethodGet, "/api/users/e1/", env.token(t, "e1", false), nil)
	assertStatus(t, w, http.StatusOK)

	raw := w.Body.String()
	if strings.Contains(raw, "hash") || strings.Contains(raw, "42") {
		t.Errorf("response leaks secrets: %s", raw)
	}
	body := decodeJSON[map[string]any](t, w)
	if body["telegram_linked"] != true {
		t.Errorf("telegram_linked: got %v", body["telegram_linked"])
	}
}

func TestGetUser_NotFound(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/users/ghost/", env.token(t, "2", true), nil)
	assertStatus(t, w, http.StatusNotFound)
}

func TestUpdateTestInfo_TogglesNotifications(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPut, "/api/users/e1/test-info", env.token(t, "e1", false),
		map[string]bool{"notifications_enabled": false})
	assertStatus(t, w, http.StatusOK)

	if env.st.lastNotify == nil || *env.st.lastNotify {
		t.Errorf("store not called with false: %v", env.st.lastNotify)
	}
}

func TestUpdateTestInfo_EmptyBody(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPut, "/api/users/e1/test-info", env.token(t, "e1", false), map[string]any{})
	assertStatus(t, w, http.StatusBadRequest)
}

func TestUpdateTestInfo_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	env.st.notifyErr = store.ErrUserNotFound
	w := env.do(t, http.MethodPut, "/api/users/e1/test-info", env.token(t, "e1", false),
		map[string]bool{"notifications_enabled": true})
	assertStatus(t, w, http.StatusNotFound)
}

func TestSaveProfile_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]string{"employee_id": "e9", "first_name": "Анна", "department": "Sales"}

	w := env.do(t, http.MethodPost, "/api/users", env.token(t, "e1", false), body)
	assertStatus(t, w, http.StatusForbidden)

	w = env.do(t, http.MethodPost, "/api/users", env.token(t, "2", true), body)
	assertStatus(t, w, http.StatusOK)
	got := decodeJSON[map[string]any](t, w)
	if got["department"] != "Sales" || got["first_name"] != "Анна" {
		t.Errorf("unexpected body: %v", got)
	}
}

// ─── TEST RESULTS ─────────────────────────────────────────────────────────────

func TestSubmit_PositionalAnswers(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/test-results", env.token(t, "e1", false), map[string]any{
		"employee_id": "e1",
		"answers":     answersOf(0),
	})
	assertStatus(t, w, http.StatusCreated)

	if len(env.st.submitted) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(env.st.submitted))
	}
	got := env.st.submitted[0].Result
	// Accomplishment items are reverse scored: 5 items × 6.
	want := scoring.Result{PersonalAccomplishment: 30, TotalScore: 30}
	if got != want {
		t.Errorf("result: got %+v, want %+v", got, want)
	}
	if len(env.mailer.alerts) != 0 {
		t.Error("low result must not alert HR")
	}

	body := decodeJSON[map[string]any](t, w)
	result := body["result"].(map[string]any)
	if result["risk_level"] != "low" {
		t.Errorf("risk_level: got %v", result["risk_level"])
	}
}

func TestSubmit_AnswersByID(t *testing.T) {
	env := newTestEnv(t)
	byID := make(map[string]int)
	for _, q := range scoring.DefaultCatalog().Questions {
		byID[q.ID] = 3
	}

	w := env.do(t, http.MethodPost, "/api/test-results", env.token(t, "e1", false), map[string]any{
		"employee_id":   "e1",
		"answers_by_id": byID,
	})
	assertStatus(t, w, http.StatusCreated)

	got := env.st.submitted[0].Result
	want := scoring.Result{EmotionalExhaustion: 15, Depersonalization: 12, PersonalAccomplishment: 15, TotalScore: 42}
	if got != want {
		t.Errorf("result: got %+v, want %+v", got, want)
	}
}

func TestSubmit_InvalidAnswers(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"too few", map[string]any{"employee_id": "e1", "answers": []float64{1, 2, 3}}},
		{"out of range", map[string]any{"employee_id": "e1", "answers": append(answersOf(1)[:13], 7)}},
		{"fractional", map[string]any{"employee_id": "e1", "answers": append(answersOf(1)[:13], 2.5)}},
		{"missing", map[string]any{"employee_id": "e1"}},
		{"both forms", map[string]any{"employee_id": "e1", "answers": answersOf(1), "answers_by_id": map[string]int{}}},
		{"unknown id", map[string]any{"employee_id": "e1", "answers_by_id": map[string]int{"nope": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do(t, http.MethodPost, "/api/test-results", env.token(t, "e1", false), tt.body)
			assertStatus(t, w, http.StatusBadRequest)
			if len(env.st.submitted) != 0 {
				t.Error("invalid answers must not be persisted")
			}
		})
	}
}

func TestSubmit_ForOtherEmployeeForbidden(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/test-results", env.token(t, "e1", false), map[string]any{
		"employee_id": "e2",
		"answers":     answersOf(0),
	})
	assertStatus(t, w, http.StatusForbidden)
}

func TestSubmit_UnknownEmployee(t *testing.T) {
	env := newTestEnv(t)
	env.st.submitErr = store.ErrUserNotFound
	w := env.do(t, http.MethodPost, "/api/test-results", env.token(t, "2", true), map[string]any{
		"employee_id": "ghost",
		"answers":     answersOf(0),
	})
	assertStatus(t, w, http.StatusNotFound)
}

func TestSubmit_HighRiskAlertsHR(t *testing.T) {
	env := newTestEnv(t)
	env.q.users["e1"] = db.User{
		EmployeeID: "e1",
		FirstName:  sql.NullString{String: "Иван", Valid: true},
		LastName:   sql.NullString{String: "Петров", Valid: true},
	}

	w := env.do(t, http.MethodPost, "/api/test-results", env.token(t, "e1", false), map[string]any{
		"employee_id": "e1",
		"answers":     answersOf(6),
	})
	assertStatus(t, w, http.StatusCreated)

	if len(env.mailer.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(env.mailer.alerts))
	}
	a := env.mailer.alerts[0]
	if a.To != "hr@example.com" || a.EmployeeName != "Иван Петров" || a.RiskLevel != "high" {
		t.Errorf("unexpected alert: %+v", a)
	}
	if a.EmotionalExhaustion != 30 || a.Depersonalization != 24 || a.PersonalAccomplishment != 0 {
		t.Errorf("alert scores: %+v", a)
	}
}

func TestSubmit_AlertFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errors.New("resend down")

	w := env.do(t, http.MethodPost, "/api/test-results", env.token(t, "e1", false), map[string]any{
		"employee_id": "e1",
		"answers":     answersOf(6),
	})
	assertStatus(t, w, http.StatusCreated)
}

func TestLatest_NoResults(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/test-results/e1/latest", env.token(t, "e1", false), nil)
	assertStatus(t, w, http.StatusNotFound)
}

func TestLatest_UsesComponentRule(t *testing.T) {
	env := newTestEnv(t)
	// High by total, medium by components.
	env.st.latest["e1"] = resultRow("e1", scoring.Result{
		EmotionalExhaustion: 14, Depersonalization: 10, PersonalAccomplishment: 30, TotalScore: 54,
	}, time.Now())

	w := env.do(t, http.MethodGet, "/api/test-results/e1/latest", env.token(t, "e1", false), nil)
	assertStatus(t, w, http.StatusOK)

	body := decodeJSON[map[string]any](t, w)
	if got := body["result"].(map[string]any)["risk_level"]; got != "medium" {
		t.Errorf("risk_level: got %v, want medium", got)
	}
	if recs, _ := body["recommendations"].([]any); len(recs) == 0 {
		t.Error("expected recommendations")
	}
}

// ─── GAMIFICATION ─────────────────────────────────────────────────────────────

func TestGamification_WeekOfDailyTests(t *testing.T) {
	env := newTestEnv(t)
	env.q.users["e1"] = db.User{EmployeeID: "e1"}
	now := time.Now().UTC()
	// Newest first, as the query returns them; totals fall every day.
	for i := range 7 {
		r := scoring.Result{EmotionalExhaustion: 5, Depersonalization: 2, PersonalAccomplishment: 20 + i, TotalScore: 27 + i}
		env.q.history["e1"] = append(env.q.history["e1"], resultRow("e1", r, now.Add(-time.Duration(i)*24*time.Hour)))
	}

	w := env.do(t, http.MethodGet, "/api/users/e1/gamification", env.token(t, "e1", false), nil)
	assertStatus(t, w, http.StatusOK)

	type gamification struct {
		Points         int      `json:"points"`
		Streak         int      `json:"streak"`
		LastStreakDate string   `json:"last_streak_date"`
		Badges         []string `json:"badges"`
	}
	body := decodeJSON[gamification](t, w)

	wantBadges := []string{
		stats.BadgeTestTaker, stats.BadgeImprovementChamp,
		stats.BadgeSevenDayStreak, stats.BadgeLowBurnoutChampion,
	}
	if strings.Join(body.Badges, ",") != strings.Join(wantBadges, ",") {
		t.Errorf("badges: got %v, want %v", body.Badges, wantBadges)
	}
	if body.Points != 7*10+4*25 {
		t.Errorf("points: got %d, want %d", body.Points, 7*10+4*25)
	}
	if body.Streak != 7 {
		t.Errorf("streak: got %d, want 7", body.Streak)
	}
	if body.LastStreakDate != now.Format(time.DateOnly) {
		t.Errorf("last_streak_date: got %q, want %q", body.LastStreakDate, now.Format(time.DateOnly))
	}
}

func TestGamification_NoTests(t *testing.T) {
	env := newTestEnv(t)
	env.q.users["e1"] = db.User{EmployeeID: "e1"}

	w := env.do(t, http.MethodGet, "/api/users/e1/gamification", env.token(t, "e1", false), nil)
	assertStatus(t, w, http.StatusOK)

	body := decodeJSON[map[string]any](t, w)
	if body["points"] != float64(0) || body["streak"] != float64(0) || body["last_streak_date"] != "" {
		t.Errorf("unexpected body: %v", body)
	}
	if badges, ok := body["badges"].([]any); !ok || len(badges) != 0 {
		t.Errorf("badges: got %v, want empty array", body["badges"])
	}
}

func TestGamification_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/users/ghost/gamification", env.token(t, "ghost", false), nil)
	assertStatus(t, w, http.StatusNotFound)
}

func TestGamification_OtherEmployeeForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.q.users["e1"] = db.User{EmployeeID: "e1"}
	w := env.do(t, http.MethodGet, "/api/users/e1/gamification", env.token(t, "e9", false), nil)
	assertStatus(t, w, http.StatusForbidden)
}

func TestHistory_ListsRows(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.q.history["e1"] = []db.TestResult{
		resultRow("e1", scoring.Result{TotalScore: 40}, now),
		resultRow("e1", scoring.Result{TotalScore: 20}, now.Add(-time.Hour)),
	}

	w := env.do(t, http.MethodGet, "/api/test-results/e1/history", env.token(t, "e1", false), nil)
	assertStatus(t, w, http.StatusOK)
	if rows := decodeJSON[[]map[string]any](t, w); len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

// ─── CHAT ─────────────────────────────────────────────────────────────────────

func TestChatbot_RepliesAndStores(t *testing.T) {
	env := newTestEnv(t)
	scores := scoring.Result{EmotionalExhaustion: 20, Depersonalization: 5, PersonalAccomplishment: 10, TotalScore: 35}
	env.st.latest["e1"] = resultRow("e1", scores, time.Now())

	w := env.do(t, http.MethodPost, "/api/chatbot/response", env.token(t, "e1", false), map[string]string{
		"employee_id": "e1", "message": "Я устал",
	})
	assertStatus(t, w, http.StatusOK)

	body := decodeJSON[map[string]any](t, w)
	if body["response"] != "Сделайте перерыв." {
		t.Errorf("response: got %v", body["response"])
	}
	if env.adv.seen != scores {
		t.Errorf("advisor saw %+v, want %+v", env.adv.seen, scores)
	}
	if len(env.q.messages) != 1 || env.q.messages[0].Message != "Я устал" {
		t.Errorf("message not stored: %+v", env.q.messages)
	}

	w = env.do(t, http.MethodGet, "/api/chat-messages/e1", env.token(t, "e1", false), nil)
	assertStatus(t, w, http.StatusOK)
	if rows := decodeJSON[[]map[string]any](t, w); len(rows) != 1 {
		t.Errorf("got %d messages, want 1", len(rows))
	}
}

func TestChatbot_RequiresResult(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/chatbot/response", env.token(t, "e1", false), map[string]string{
		"employee_id": "e1", "message": "привет",
	})
	assertStatus(t, w, http.StatusNotFound)
}

func TestChatbot_EmptyAndLongMessages(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "e1", false)

	w := env.do(t, http.MethodPost, "/api/chatbot/response", tok, map[string]string{"employee_id": "e1", "message": "  "})
	assertStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodPost, "/api/chatbot/response", tok, map[string]string{
		"employee_id": "e1", "message": strings.Repeat("я", 2001),
	})
	assertStatus(t, w, http.StatusBadRequest)
}

// ─── HR ───────────────────────────────────────────────────────────────────────

// hrHistories: one high (by total), one medium, one untested.
func hrHistories(now time.Time) []stats.EmployeeHistory {
	return []stats.EmployeeHistory{
		{EmployeeID: "e1", Department: "Sales", Results: []stats.Entry{
			{TotalScore: 20, CreatedAt: now.Add(-40 * 24 * time.Hour)},
			{EmotionalExhaustion: 14, Depersonalization: 10, PersonalAccomplishment: 30, TotalScore: 54, CreatedAt: now.Add(-time.Hour)},
		}},
		{EmployeeID: "e2", Department: "Sales", Results: []stats.Entry{
			{TotalScore: 40, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		}},
		{EmployeeID: "e3", Department: "IT"},
	}
}

func TestStatistics(t *testing.T) {
	env := newTestEnv(t)
	env.st.histories = hrHistories(time.Now())

	w := env.do(t, http.MethodGet, "/api/hr/statistics", env.token(t, "2", true), nil)
	assertStatus(t, w, http.StatusOK)

	body := decodeJSON[map[string]any](t, w)
	checks := map[string]float64{
		"total_employees":     3,
		"tested_employees":    2,
		"recent_tests":        1,
		"recent_window_days":  7,
		"high_risk_count":     1,
		"medium_risk_count":   1,
		"low_risk_count":      0,
		"high_risk_percent":   50,
		"average_total_score": 47,
	}
	for k, want := range checks {
		if got := body[k]; got != want {
			t.Errorf("%s: got %v, want %v", k, got, want)
		}
	}
}

func TestStatistics_Empty(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/hr/statistics", env.token(t, "2", true), nil)
	assertStatus(t, w, http.StatusOK)

	body := decodeJSON[map[string]any](t, w)
	if body["total_employees"] != float64(0) || body["high_risk_percent"] != float64(0) {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestRiskDistribution(t *testing.T) {
	env := newTestEnv(t)
	env.st.histories = hrHistories(time.Now())

	w := env.do(t, http.MethodGet, "/api/hr/risk-distribution", env.token(t, "2", true), nil)
	assertStatus(t, w, http.StatusOK)

	body := decodeJSON[map[string]int](t, w)
	if body["high"] != 1 || body["medium"] != 1 || body["low"] != 0 {
		t.Errorf("unexpected distribution: %v", body)
	}
}

func TestDepartments(t *testing.T) {
	env := newTestEnv(t)
	env.st.histories = hrHistories(time.Now())

	w := env.do(t, http.MethodGet, "/api/hr/departments", env.token(t, "2", true), nil)
	assertStatus(t, w, http.StatusOK)

	rows := decodeJSON[[]map[string]any](t, w)
	if len(rows) != 2 {
		t.Fatalf("got %d departments, want 2", len(rows))
	}
	// Sorted by name.
	if rows[0]["name"] != "IT" || rows[1]["name"] != "Sales" {
		t.Errorf("order: %v, %v", rows[0]["name"], rows[1]["name"])
	}
	if rows[1]["tested"] != float64(2) || rows[1]["at_risk"] != float64(1) {
		t.Errorf("sales: %v", rows[1])
	}
}

func TestEmployees_IndividualRiskByComponents(t *testing.T) {
	env := newTestEnv(t)
	env.q.withStats = []db.ListUsersWithStatsRow{
		{
			EmployeeID:                 "e1",
			TestCount:                  2,
			LastEmotionalExhaustion:    sql.NullInt32{Int32: 14, Valid: true},
			LastDepersonalization:      sql.NullInt32{Int32: 10, Valid: true},
			LastPersonalAccomplishment: sql.NullInt32{Int32: 30, Valid: true},
			LastTotalScore:             sql.NullInt32{Int32: 54, Valid: true},
		},
		{EmployeeID: "e3"},
	}

	w := env.do(t, http.MethodGet, "/api/hr/employees", env.token(t, "2", true), nil)
	assertStatus(t, w, http.StatusOK)

	rows := decodeJSON[[]map[string]any](t, w)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	latest, _ := rows[0]["latest_result"].(map[string]any)
	if latest["risk_level"] != "medium" {
		t.Errorf("e1 risk_level: got %v, want medium", latest["risk_level"])
	}
	if rows[1]["latest_result"] != nil {
		t.Errorf("untested employee should have null latest_result: %v", rows[1]["latest_result"])
	}
}

func TestHR_StorageFailureIsOpaque(t *testing.T) {
	for _, path := range []string{
		"/api/hr/statistics",
		"/api/hr/risk-distribution",
		"/api/hr/departments",
		"/api/hr/dashboard",
	} {
		t.Run(path, func(t *testing.T) {
			env := newTestEnv(t)
			env.st.histErr = errors.New("pq: connection refused")

			w := env.do(t, http.MethodGet, path, env.token(t, "2", true), nil)
			assertStatus(t, w, http.StatusInternalServerError)
			if strings.Contains(w.Body.String(), "connection refused") {
				t.Errorf("storage error leaked: %s", w.Body.String())
			}
			body := decodeJSON[map[string]string](t, w)
			if body["error"] != "internal server error" {
				t.Errorf("error: got %q", body["error"])
			}
		})
	}
}

func TestDashboard_RendersHTML(t *testing.T) {
	env := newTestEnv(t)
	env.st.histories = hrHistories(time.Now())

	w := env.do(t, http.MethodGet, "/api/hr/dashboard", env.token(t, "2", true), nil)
	assertStatus(t, w, http.StatusOK)

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "echarts") {
		t.Error("expected an echarts page")
	}
}
