package db

import (
	"context"
	"time"
)

const listDueTestReminders = `-- name: ListDueTestReminders :many
SELECT ` + userColumns + `
FROM users
WHERE notifications_enabled
  AND telegram_chat_id IS NOT NULL
  AND next_test_date IS NOT NULL
  AND next_test_date <= $1
ORDER BY next_test_date
LIMIT $2`

type ListDueParams struct {
	Now   time.Time
	Limit int32
}

func (q *Queries) ListDueTestReminders(ctx context.Context, arg ListDueParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listDueTestReminders, arg.Now, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

const listDueTips = `-- name: ListDueTips :many
SELECT ` + userColumns + `
FROM users
WHERE notifications_enabled
  AND telegram_chat_id IS NOT NULL
  AND next_tip_date IS NOT NULL
  AND next_tip_date <= $1
ORDER BY next_tip_date
LIMIT $2`

func (q *Queries) ListDueTips(ctx context.Context, arg ListDueParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listDueTips, arg.Now, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

const setNextTestDate = `-- name: SetNextTestDate :exec
UPDATE users SET next_test_date = $2 WHERE employee_id = $1`

type SetNextDateParams struct {
	EmployeeID string
	Next       time.Time
}

func (q *Queries) SetNextTestDate(ctx context.Context, arg SetNextDateParams) error {
	_, err := q.db.ExecContext(ctx, setNextTestDate, arg.EmployeeID, arg.Next)
	return err
}

const setNextTipDate = `-- name: SetNextTipDate :exec
UPDATE users SET next_tip_date = $2 WHERE employee_id = $1`

func (q *Queries) SetNextTipDate(ctx context.Context, arg SetNextDateParams) error {
	_, err := q.db.ExecContext(ctx, setNextTipDate, arg.EmployeeID, arg.Next)
	return err
}
