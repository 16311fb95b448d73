package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type User struct {
	ID                   uuid.UUID      `json:"id"`
	EmployeeID           string         `json:"employee_id"`
	PasswordHash         sql.NullString `json:"-"`
	FirstName            sql.NullString `json:"first_name"`
	LastName             sql.NullString `json:"last_name"`
	Email                sql.NullString `json:"email"`
	Department           sql.NullString `json:"department"`
	TelegramChatID       sql.NullInt64  `json:"telegram_chat_id"`
	IsAdmin              bool           `json:"is_admin"`
	NotificationsEnabled bool           `json:"notifications_enabled"`
	CreatedAt            time.Time      `json:"created_at"`
	LastLogin            sql.NullTime   `json:"last_login"`
	LastTestDate         sql.NullTime   `json:"last_test_date"`
	NextTestDate         sql.NullTime   `json:"next_test_date"`
	NextTipDate          sql.NullTime   `json:"next_tip_date"`
}

type TestResult struct {
	ID                     uuid.UUID             `json:"id"`
	Seq                    int64                 `json:"seq"`
	EmployeeID             string                `json:"employee_id"`
	CatalogVersion         string                `json:"catalog_version"`
	EmotionalExhaustion    int32                 `json:"emotional_exhaustion"`
	Depersonalization      int32                 `json:"depersonalization"`
	PersonalAccomplishment int32                 `json:"personal_accomplishment"`
	TotalScore             int32                 `json:"total_score"`
	Answers                pqtype.NullRawMessage `json:"answers"`
	CreatedAt              time.Time             `json:"created_at"`
}

type ChatMessage struct {
	ID         uuid.UUID `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Message    string    `json:"message"`
	Response   string    `json:"response"`
	CreatedAt  time.Time `json:"created_at"`
}
