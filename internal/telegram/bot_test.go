package telegram

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
	"github.com/nyashahama/burnout-detector-backend/internal/stats"
	"github.com/nyashahama/burnout-detector-backend/internal/store"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// ─── STUBS ────────────────────────────────────────────────────────────────────

type stubSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	errs []error // returned in order, then nil
}

func (s *stubSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return tgbotapi.Message{}, err
		}
	}
	s.sent = append(s.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (s *stubSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	if len(s.sent) == 0 {
		t.Fatal("no message sent")
	}
	return s.sent[len(s.sent)-1]
}

type stubStore struct {
	Store
	registered []store.TelegramUserParams
	latest     map[string]db.TestResult
	histories  []stats.EmployeeHistory
	histErr    error
	notify     map[string]bool
	notifyErr  error
}

func (s *stubStore) RegisterTelegramUser(_ context.Context, p store.TelegramUserParams) (db.User, error) {
	s.registered = append(s.registered, p)
	return db.User{EmployeeID: employeeID(p.ChatID)}, nil
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

func (s *stubStore) SetNotifications(_ context.Context, id string, enabled bool) (db.User, error) {
	if s.notifyErr != nil {
		return db.User{}, s.notifyErr
	}
	if s.notify == nil {
		s.notify = map[string]bool{}
	}
	s.notify[id] = enabled
	return db.User{EmployeeID: id, NotificationsEnabled: enabled}, nil
}

type stubQuerier struct {
	admins []int64
	saved  []db.InsertChatMessageParams
}

func (q *stubQuerier) ListAdminChatIDs(context.Context) ([]int64, error) { return q.admins, nil }

func (q *stubQuerier) InsertChatMessage(_ context.Context, arg db.InsertChatMessageParams) (db.ChatMessage, error) {
	q.saved = append(q.saved, arg)
	return db.ChatMessage{EmployeeID: arg.EmployeeID, Message: arg.Message, Response: arg.Response}, nil
}

type stubAdvisor struct{ got scoring.Result }

func (a *stubAdvisor) Reply(_ context.Context, s scoring.Result, msg string) (string, error) {
	a.got = s
	return "ответ: " + msg, nil
}

func newTestBot() (*Bot, *stubSender, *stubStore, *stubQuerier, *stubAdvisor) {
	snd := &stubSender{}
	st := &stubStore{latest: map[string]db.TestResult{}}
	q := &stubQuerier{}
	adv := &stubAdvisor{}
	b := New(snd, st, q, adv, Config{WebAppURL: "https://app.example.com", BotUsername: "burnout_bot"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.now = func() time.Time { return now }
	return b, snd, st, q, adv
}

func command(chatID int64, chatType, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID, Type: chatType},
		From:     &tgbotapi.User{FirstName: "Анна", LastName: "Иванова"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func text(chatID int64, body string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: body,
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
	}}
}

func buttonURL(t *testing.T, m tgbotapi.MessageConfig) string {
	t.Helper()
	kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) == 0 || len(kb.InlineKeyboard[0]) == 0 {
		t.Fatalf("expected inline keyboard, got %#v", m.ReplyMarkup)
	}
	btn := kb.InlineKeyboard[0][0]
	if btn.URL == nil {
		t.Fatal("button has no URL")
	}
	return *btn.URL
}

// ─── /start ───────────────────────────────────────────────────────────────────

func TestStart_PrivateRegistersAndSendsButton(t *testing.T) {
	b, snd, st, _, _ := newTestBot()
	b.HandleUpdate(context.Background(), command(42, "private", "/start"))

	if len(st.registered) != 1 || st.registered[0].ChatID != 42 || st.registered[0].FirstName != "Анна" {
		t.Fatalf("registered: %+v", st.registered)
	}
	m := snd.last(t)
	if !strings.Contains(m.Text, "Привет, Анна!") {
		t.Errorf("welcome text: %q", m.Text)
	}
	if got := buttonURL(t, m); got != "https://app.example.com" {
		t.Errorf("button url: %q", got)
	}
}

func TestStart_GroupSendsDMHint(t *testing.T) {
	b, snd, st, _, _ := newTestBot()
	b.HandleUpdate(context.Background(), command(-100, "group", "/start"))

	if len(st.registered) != 0 {
		t.Errorf("group chat must not be registered as an employee: %+v", st.registered)
	}
	m := snd.last(t)
	if m.ReplyMarkup != nil {
		t.Error("group welcome must not carry a button")
	}
	if !strings.Contains(m.Text, "@burnout_bot") {
		t.Errorf("expected DM hint, got %q", m.Text)
	}
}

// ─── /result ──────────────────────────────────────────────────────────────────

func TestResult_NoTest(t *testing.T) {
	b, snd, _, _, _ := newTestBot()
	b.HandleUpdate(context.Background(), command(42, "private", "/result"))
	if snd.last(t).Text != noResultText {
		t.Errorf("got %q", snd.last(t).Text)
	}
}

func TestResult_UsesComponentRule(t *testing.T) {
	b, snd, st, _, _ := newTestBot()
	// Total 54 is High by total; EE 14 / DP 10 is Medium by components.
	st.latest["42"] = db.TestResult{
		EmotionalExhaustion: 14, Depersonalization: 10, PersonalAccomplishment: 30, TotalScore: 54,
		CreatedAt: now,
	}
	b.HandleUpdate(context.Background(), command(42, "private", "/result"))

	got := snd.last(t).Text
	if !strings.Contains(got, riskLabels[scoring.RiskMedium]) {
		t.Errorf("expected medium risk, got %q", got)
	}
	if !strings.Contains(got, "Признаки эмоциональной усталости") {
		t.Errorf("expected fatigue recommendation, got %q", got)
	}
}

// ─── /stats ───────────────────────────────────────────────────────────────────

func TestStats_NonAdminRejected(t *testing.T) {
	b, snd, _, _, _ := newTestBot()
	b.HandleUpdate(context.Background(), command(42, "private", "/stats"))
	if snd.last(t).Text != notAdminText {
		t.Errorf("got %q", snd.last(t).Text)
	}
}

func TestStats_AdminGetsRollup(t *testing.T) {
	b, snd, st, q, _ := newTestBot()
	q.admins = []int64{7}
	st.histories = []stats.EmployeeHistory{
		{EmployeeID: "a", Results: []stats.Entry{{TotalScore: 55, CreatedAt: now.Add(-time.Hour)}}},
		{EmployeeID: "b", Results: []stats.Entry{{TotalScore: 40, CreatedAt: now.Add(-40 * 24 * time.Hour)}}},
		{EmployeeID: "c"},
	}
	b.HandleUpdate(context.Background(), command(7, "private", "/stats"))

	got := snd.last(t).Text
	for _, want := range []string{
		"Всего пользователей: 3",
		"за последние 30 дн.: 1",
		"Высокий уровень выгорания: 1",
		"Средний уровень выгорания: 1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestStats_StorageFailure(t *testing.T) {
	b, snd, st, q, _ := newTestBot()
	q.admins = []int64{7}
	st.histErr = errors.New("connection refused")

	b.HandleUpdate(context.Background(), command(7, "private", "/stats"))
	if got := snd.last(t).Text; got != errorText {
		t.Errorf("got %q, want errorText", got)
	}
}

func TestStats_GroupGetsDMHint(t *testing.T) {
	b, snd, _, q, _ := newTestBot()
	q.admins = []int64{-100}
	b.HandleUpdate(context.Background(), command(-100, "supergroup", "/stats"))
	if !strings.Contains(snd.last(t).Text, "личные сообщения") {
		t.Errorf("got %q", snd.last(t).Text)
	}
}

// ─── /stop, /resume ───────────────────────────────────────────────────────────

func TestStopResume(t *testing.T) {
	b, snd, st, _, _ := newTestBot()

	b.HandleUpdate(context.Background(), command(42, "private", "/stop"))
	if st.notify["42"] || snd.last(t).Text != stoppedText {
		t.Errorf("stop: notify=%v text=%q", st.notify["42"], snd.last(t).Text)
	}

	b.HandleUpdate(context.Background(), command(42, "private", "/resume"))
	if !st.notify["42"] || snd.last(t).Text != resumedText {
		t.Errorf("resume: notify=%v text=%q", st.notify["42"], snd.last(t).Text)
	}
}

func TestStop_Unregistered(t *testing.T) {
	b, snd, st, _, _ := newTestBot()
	st.notifyErr = store.ErrUserNotFound
	b.HandleUpdate(context.Background(), command(42, "private", "/stop"))
	if snd.last(t).Text != notRegisteredText {
		t.Errorf("got %q", snd.last(t).Text)
	}
}

// ─── FREE TEXT ────────────────────────────────────────────────────────────────

func TestText_AdvisorReplyIsSaved(t *testing.T) {
	b, snd, st, q, adv := newTestBot()
	st.latest["42"] = db.TestResult{EmotionalExhaustion: 20, TotalScore: 40, CreatedAt: now}

	b.HandleUpdate(context.Background(), text(42, "как справиться со стрессом?"))

	if adv.got.EmotionalExhaustion != 20 {
		t.Errorf("advisor got scores %+v", adv.got)
	}
	if snd.last(t).Text != "ответ: как справиться со стрессом?" {
		t.Errorf("reply: %q", snd.last(t).Text)
	}
	if len(q.saved) != 1 || q.saved[0].EmployeeID != "42" {
		t.Errorf("saved: %+v", q.saved)
	}
}

func TestText_NoTestYet(t *testing.T) {
	b, snd, _, q, _ := newTestBot()
	b.HandleUpdate(context.Background(), text(42, "привет"))
	if snd.last(t).Text != noResultText || len(q.saved) != 0 {
		t.Errorf("got %q, saved=%d", snd.last(t).Text, len(q.saved))
	}
}

func TestText_NoTestYet_SendFailureLogged(t *testing.T) {
	b, snd, _, _, _ := newTestBot()
	var logs bytes.Buffer
	b.logger = slog.New(slog.NewTextHandler(&logs, nil))
	snd.errs = []error{&tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}}

	b.HandleUpdate(context.Background(), text(42, "привет"))

	if !strings.Contains(logs.String(), "send test button failed") {
		t.Errorf("send error not logged: %s", logs.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	b, snd, _, _, _ := newTestBot()
	b.HandleUpdate(context.Background(), command(42, "private", "/dance"))
	if snd.last(t).Text != unknownCommand {
		t.Errorf("got %q", snd.last(t).Text)
	}
}

// ─── NOTIFIER ─────────────────────────────────────────────────────────────────

func TestSendTestReminder_Button(t *testing.T) {
	b, snd, _, _, _ := newTestBot()
	if err := b.SendTestReminder(context.Background(), 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buttonURL(t, snd.last(t)) != "https://app.example.com" {
		t.Error("reminder should carry the web app button")
	}
}

func TestSendTestReminder_BadRequestFallsBackToPlain(t *testing.T) {
	b, snd, _, _, _ := newTestBot()
	snd.errs = []error{&tgbotapi.Error{Code: 400, Message: "Bad Request: BUTTON_URL_INVALID"}}

	if err := b.SendTestReminder(context.Background(), 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := snd.last(t)
	if m.Text != reminderPlainText || m.ReplyMarkup != nil {
		t.Errorf("expected plain fallback, got %q", m.Text)
	}
}

func TestSendTestReminder_OtherErrorReturned(t *testing.T) {
	b, snd, _, _, _ := newTestBot()
	snd.errs = []error{&tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}}

	err := b.SendTestReminder(context.Background(), 42)
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) || tgErr.Code != 403 {
		t.Errorf("got %v, want wrapped 403", err)
	}
	if len(snd.sent) != 0 {
		t.Error("no fallback expected for non-400 errors")
	}
}

func TestSendTip_Rotates(t *testing.T) {
	b, snd, _, _, _ := newTestBot()
	for range len(tips) + 1 {
		if err := b.SendTip(context.Background(), 42); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if snd.sent[0].Text != tips[0] || snd.sent[1].Text != tips[1] {
		t.Error("tips should rotate in order")
	}
	if snd.sent[len(tips)].Text != tips[0] {
		t.Error("rotation should wrap around")
	}
}
