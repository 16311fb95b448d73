package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/sqlc-dev/pqtype"
)

const testResultColumns = `id, seq, employee_id, catalog_version, emotional_exhaustion, depersonalization,
    personal_accomplishment, total_score, answers, created_at`

func scanTestResult(row rowScanner) (TestResult, error) {
	var i TestResult
	err := row.Scan(
		&i.ID,
		&i.Seq,
		&i.EmployeeID,
		&i.CatalogVersion,
		&i.EmotionalExhaustion,
		&i.Depersonalization,
		&i.PersonalAccomplishment,
		&i.TotalScore,
		&i.Answers,
		&i.CreatedAt,
	)
	return i, err
}

func scanTestResults(rows *sql.Rows) ([]TestResult, error) {
	defer rows.Close()
	var items []TestResult
	for rows.Next() {
		i, err := scanTestResult(rows)
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

const insertTestResult = `-- name: InsertTestResult :one
INSERT INTO test_results (
    employee_id, catalog_version, emotional_exhaustion, depersonalization,
    personal_accomplishment, total_score, answers, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + testResultColumns

type InsertTestResultParams struct {
	EmployeeID             string
	CatalogVersion         string
	EmotionalExhaustion    int32
	Depersonalization      int32
	PersonalAccomplishment int32
	TotalScore             int32
	Answers                pqtype.NullRawMessage
	CreatedAt              time.Time
}

func (q *Queries) InsertTestResult(ctx context.Context, arg InsertTestResultParams) (TestResult, error) {
	row := q.db.QueryRowContext(ctx, insertTestResult,
		arg.EmployeeID,
		arg.CatalogVersion,
		arg.EmotionalExhaustion,
		arg.Depersonalization,
		arg.PersonalAccomplishment,
		arg.TotalScore,
		arg.Answers,
		arg.CreatedAt,
	)
	return scanTestResult(row)
}

const getLatestTestResult = `-- name: GetLatestTestResult :one
SELECT ` + testResultColumns + `
FROM test_results
WHERE employee_id = $1
ORDER BY created_at DESC, seq DESC
LIMIT 1`

func (q *Queries) GetLatestTestResult(ctx context.Context, employeeID string) (TestResult, error) {
	row := q.db.QueryRowContext(ctx, getLatestTestResult, employeeID)
	return scanTestResult(row)
}

const listTestResultsByEmployee = `-- name: ListTestResultsByEmployee :many
SELECT ` + testResultColumns + `
FROM test_results
WHERE employee_id = $1
ORDER BY created_at DESC, seq DESC`

// ListTestResultsByEmployee returns an employee's history, newest first.
func (q *Queries) ListTestResultsByEmployee(ctx context.Context, employeeID string) ([]TestResult, error) {
	rows, err := q.db.QueryContext(ctx, listTestResultsByEmployee, employeeID)
	if err != nil {
		return nil, err
	}
	return scanTestResults(rows)
}

const listAllTestResults = `-- name: ListAllTestResults :many
SELECT ` + testResultColumns + `
FROM test_results
ORDER BY created_at, seq`

// ListAllTestResults returns every result in insertion order for the rollup.
func (q *Queries) ListAllTestResults(ctx context.Context) ([]TestResult, error) {
	rows, err := q.db.QueryContext(ctx, listAllTestResults)
	if err != nil {
		return nil, err
	}
	return scanTestResults(rows)
}
