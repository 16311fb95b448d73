package db

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, employee_id, password_hash, first_name, last_name, email, department,
    telegram_chat_id, is_admin, notifications_enabled, created_at, last_login,
    last_test_date, next_test_date, next_tip_date`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.EmployeeID,
		&i.PasswordHash,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.Department,
		&i.TelegramChatID,
		&i.IsAdmin,
		&i.NotificationsEnabled,
		&i.CreatedAt,
		&i.LastLogin,
		&i.LastTestDate,
		&i.NextTestDate,
		&i.NextTipDate,
	)
	return i, err
}

func scanUsers(rows *sql.Rows) ([]User, error) {
	defer rows.Close()
	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (employee_id, password_hash, first_name, last_name, email, department, is_admin)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

type CreateUserParams struct {
	EmployeeID   string
	PasswordHash sql.NullString
	FirstName    sql.NullString
	LastName     sql.NullString
	Email        sql.NullString
	Department   sql.NullString
	IsAdmin      bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.EmployeeID,
		arg.PasswordHash,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.Department,
		arg.IsAdmin,
	)
	return scanUser(row)
}

const getUserByEmployeeID = `-- name: GetUserByEmployeeID :one
SELECT ` + userColumns + `
FROM users
WHERE employee_id = $1`

func (q *Queries) GetUserByEmployeeID(ctx context.Context, employeeID string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmployeeID, employeeID)
	return scanUser(row)
}

const getUserByTelegramChatID = `-- name: GetUserByTelegramChatID :one
SELECT ` + userColumns + `
FROM users
WHERE telegram_chat_id = $1`

func (q *Queries) GetUserByTelegramChatID(ctx context.Context, chatID int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByTelegramChatID, chatID)
	return scanUser(row)
}

const updateUserProfile = `-- name: UpdateUserProfile :one
UPDATE users
SET first_name = COALESCE($2, first_name),
    last_name  = COALESCE($3, last_name),
    email      = COALESCE($4, email),
    department = COALESCE($5, department)
WHERE employee_id = $1
RETURNING ` + userColumns

type UpdateUserProfileParams struct {
	EmployeeID string
	FirstName  sql.NullString
	LastName   sql.NullString
	Email      sql.NullString
	Department sql.NullString
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserProfile,
		arg.EmployeeID,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.Department,
	)
	return scanUser(row)
}

const upsertTelegramUser = `-- name: UpsertTelegramUser :one
INSERT INTO users (employee_id, telegram_chat_id, first_name, last_name, notifications_enabled, next_test_date, next_tip_date)
VALUES ($1, $2, $3, $4, TRUE, $5, $6)
ON CONFLICT (employee_id) DO UPDATE
SET telegram_chat_id      = EXCLUDED.telegram_chat_id,
    first_name            = COALESCE(users.first_name, EXCLUDED.first_name),
    last_name             = COALESCE(users.last_name, EXCLUDED.last_name),
    notifications_enabled = TRUE,
    next_test_date        = COALESCE(users.next_test_date, EXCLUDED.next_test_date),
    next_tip_date         = COALESCE(users.next_tip_date, EXCLUDED.next_tip_date)
RETURNING ` + userColumns

type UpsertTelegramUserParams struct {
	EmployeeID     string
	TelegramChatID int64
	FirstName      sql.NullString
	LastName       sql.NullString
	NextTestDate   time.Time
	NextTipDate    time.Time
}

func (q *Queries) UpsertTelegramUser(ctx context.Context, arg UpsertTelegramUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, upsertTelegramUser,
		arg.EmployeeID,
		arg.TelegramChatID,
		arg.FirstName,
		arg.LastName,
		arg.NextTestDate,
		arg.NextTipDate,
	)
	return scanUser(row)
}

const setUserPasswordHash = `-- name: SetUserPasswordHash :one
UPDATE users
SET password_hash = $2
WHERE employee_id = $1
  AND password_hash IS NULL
RETURNING ` + userColumns

type SetUserPasswordHashParams struct {
	EmployeeID   string
	PasswordHash string
}

// SetUserPasswordHash only succeeds on accounts without a password; it
// returns sql.ErrNoRows otherwise.
func (q *Queries) SetUserPasswordHash(ctx context.Context, arg SetUserPasswordHashParams) (User, error) {
	row := q.db.QueryRowContext(ctx, setUserPasswordHash, arg.EmployeeID, arg.PasswordHash)
	return scanUser(row)
}

const touchLastLogin = `-- name: TouchLastLogin :exec
UPDATE users SET last_login = now() WHERE employee_id = $1`

func (q *Queries) TouchLastLogin(ctx context.Context, employeeID string) error {
	_, err := q.db.ExecContext(ctx, touchLastLogin, employeeID)
	return err
}

const updateUserTestDates = `-- name: UpdateUserTestDates :exec
UPDATE users
SET last_test_date = $2,
    next_test_date = $3
WHERE employee_id = $1`

type UpdateUserTestDatesParams struct {
	EmployeeID   string
	LastTestDate time.Time
	NextTestDate time.Time
}

func (q *Queries) UpdateUserTestDates(ctx context.Context, arg UpdateUserTestDatesParams) error {
	_, err := q.db.ExecContext(ctx, updateUserTestDates, arg.EmployeeID, arg.LastTestDate, arg.NextTestDate)
	return err
}

const setNotificationsEnabled = `-- name: SetNotificationsEnabled :one
UPDATE users
SET notifications_enabled = $2
WHERE employee_id = $1
RETURNING ` + userColumns

type SetNotificationsEnabledParams struct {
	EmployeeID string
	Enabled    bool
}

func (q *Queries) SetNotificationsEnabled(ctx context.Context, arg SetNotificationsEnabledParams) (User, error) {
	row := q.db.QueryRowContext(ctx, setNotificationsEnabled, arg.EmployeeID, arg.Enabled)
	return scanUser(row)
}

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsers)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + `
FROM users
ORDER BY created_at, employee_id`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

const listAdminChatIDs = `-- name: ListAdminChatIDs :many
SELECT telegram_chat_id
FROM users
WHERE is_admin AND telegram_chat_id IS NOT NULL`

func (q *Queries) ListAdminChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listAdminChatIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listUsersWithStats = `-- name: ListUsersWithStats :many
SELECT u.employee_id, u.first_name, u.last_name, u.email, u.department, u.is_admin,
       u.created_at, u.last_login,
       COUNT(tr.id)                  AS test_count,
       latest.created_at             AS last_test_date,
       latest.emotional_exhaustion   AS last_emotional_exhaustion,
       latest.depersonalization      AS last_depersonalization,
       latest.personal_accomplishment AS last_personal_accomplishment,
       latest.total_score            AS last_total_score
FROM users u
LEFT JOIN test_results tr ON tr.employee_id = u.employee_id
LEFT JOIN LATERAL (
    SELECT created_at, emotional_exhaustion, depersonalization, personal_accomplishment, total_score
    FROM test_results
    WHERE employee_id = u.employee_id
    ORDER BY created_at DESC, seq DESC
    LIMIT 1
) latest ON TRUE
GROUP BY u.id, latest.created_at, latest.emotional_exhaustion, latest.depersonalization,
         latest.personal_accomplishment, latest.total_score
ORDER BY u.created_at DESC`

type ListUsersWithStatsRow struct {
	EmployeeID                 string
	FirstName                  sql.NullString
	LastName                   sql.NullString
	Email                      sql.NullString
	Department                 sql.NullString
	IsAdmin                    bool
	CreatedAt                  time.Time
	LastLogin                  sql.NullTime
	TestCount                  int64
	LastTestDate               sql.NullTime
	LastEmotionalExhaustion    sql.NullInt32
	LastDepersonalization      sql.NullInt32
	LastPersonalAccomplishment sql.NullInt32
	LastTotalScore             sql.NullInt32
}

func (q *Queries) ListUsersWithStats(ctx context.Context) ([]ListUsersWithStatsRow, error) {
	rows, err := q.db.QueryContext(ctx, listUsersWithStats)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListUsersWithStatsRow
	for rows.Next() {
		var i ListUsersWithStatsRow
		if err := rows.Scan(
			&i.EmployeeID,
			&i.FirstName,
			&i.LastName,
			&i.Email,
			&i.Department,
			&i.IsAdmin,
			&i.CreatedAt,
			&i.LastLogin,
			&i.TestCount,
			&i.LastTestDate,
			&i.LastEmotionalExhaustion,
			&i.LastDepersonalization,
			&i.LastPersonalAccomplishment,
			&i.LastTotalScore,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
