package db

import (
	"context"
)

const insertChatMessage = `-- name: InsertChatMessage :one
INSERT INTO chat_messages (employee_id, message, response)
VALUES ($1, $2, $3)
RETURNING id, employee_id, message, response, created_at`

type InsertChatMessageParams struct {
	EmployeeID string
	Message    string
	Response   string
}

func (q *Queries) InsertChatMessage(ctx context.Context, arg InsertChatMessageParams) (ChatMessage, error) {
	row := q.db.QueryRowContext(ctx, insertChatMessage, arg.EmployeeID, arg.Message, arg.Response)
	var i ChatMessage
	err := row.Scan(
		&i.ID,
		&i.EmployeeID,
		&i.Message,
		&i.Response,
		&i.CreatedAt,
	)
	return i, err
}

const listChatMessages = `-- name: ListChatMessages :many
SELECT id, employee_id, message, response, created_at
FROM chat_messages
WHERE employee_id = $1
ORDER BY created_at DESC
LIMIT $2`

type ListChatMessagesParams struct {
	EmployeeID string
	Limit      int32
}

// ListChatMessages returns the most recent messages, newest first.
func (q *Queries) ListChatMessages(ctx context.Context, arg ListChatMessagesParams) ([]ChatMessage, error) {
	rows, err := q.db.QueryContext(ctx, listChatMessages, arg.EmployeeID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ChatMessage
	for rows.Next() {
		var i ChatMessage
		if err := rows.Scan(
			&i.ID,
			&i.EmployeeID,
			&i.Message,
			&i.Response,
			&i.CreatedAt,
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
