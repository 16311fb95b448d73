package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
	"github.com/nyashahama/burnout-detector-backend/internal/stats"
)

// ─── SubmitTestResult ─────────────────────────────────────────────────────────

// SubmitTestResultParams is a scored answer set ready to persist. Result must
// come from the scoring engine; the store never recomputes it.
type SubmitTestResultParams struct {
	EmployeeID     string
	CatalogVersion string
	Answers        []int
	Result         scoring.Result
}

// SubmitTestResult persists a result and moves the employee's test schedule
// in one serializable transaction:
//
//  1. Confirm the employee exists (ErrUserNotFound otherwise).
//  2. Insert the result with the answers as JSONB.
//  3. Set last_test_date to now and next_test_date to now + RetestInterval.
func (s *Store) SubmitTestResult(ctx context.Context, p SubmitTestResultParams) (db.TestResult, error) {
	answers, err := json.Marshal(p.Answers)
	if err != nil {
		return db.TestResult{}, fmt.Errorf("store: marshal answers: %w", err)
	}
	now := s.now()

	var saved db.TestResult
	err = s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		if _, err := q.GetUserByEmployeeID(ctx, p.EmployeeID); err != nil {
			return notFound(err, ErrUserNotFound, "get user")
		}

		saved, err = q.InsertTestResult(ctx, db.InsertTestResultParams{
			EmployeeID:             p.EmployeeID,
			CatalogVersion:         p.CatalogVersion,
			EmotionalExhaustion:    int32(p.Result.EmotionalExhaustion),
			Depersonalization:      int32(p.Result.Depersonalization),
			PersonalAccomplishment: int32(p.Result.PersonalAccomplishment),
			TotalScore:             int32(p.Result.TotalScore),
			Answers:                pqtype.NullRawMessage{RawMessage: answers, Valid: true},
			CreatedAt:              now,
		})
		if err != nil {
			return fmt.Errorf("store: insert test result: %w", err)
		}

		if err := q.UpdateUserTestDates(ctx, db.UpdateUserTestDatesParams{
			EmployeeID:   p.EmployeeID,
			LastTestDate: now,
			NextTestDate: now.Add(s.cfg.RetestInterval),
		}); err != nil {
			return fmt.Errorf("store: update test dates: %w", err)
		}
		return nil
	})
	if err != nil {
		return db.TestResult{}, err
	}
	return saved, nil
}

// LatestResult returns the employee's most recent result, or
// ErrNoTestResults.
func (s *Store) LatestResult(ctx context.Context, employeeID string) (db.TestResult, error) {
	r, err := s.q.GetLatestTestResult(ctx, employeeID)
	if err != nil {
		return db.TestResult{}, notFound(err, ErrNoTestResults, "get latest result")
	}
	return r, nil
}

// ─── EmployeeHistories ────────────────────────────────────────────────────────

// EmployeeHistories loads every employee with their full result history from
// one snapshot, grouped for stats.Compute. Employees without results are
// included with an empty history.
func (s *Store) EmployeeHistories(ctx context.Context) ([]stats.EmployeeHistory, error) {
	var out []stats.EmployeeHistory
	err := s.withReadTx(ctx, func(ctx context.Context, q db.Querier) error {
		users, err := q.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("store: list users: %w", err)
		}
		results, err := q.ListAllTestResults(ctx)
		if err != nil {
			return fmt.Errorf("store: list results: %w", err)
		}
		out = groupHistories(users, results)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// groupHistories attaches results to their employees. results must be in
// insertion order; that order is preserved per employee. Results for unknown
// employees are dropped.
func groupHistories(users []db.User, results []db.TestResult) []stats.EmployeeHistory {
	out := make([]stats.EmployeeHistory, len(users))
	byID := make(map[string]int, len(users))
	for i, u := range users {
		out[i] = stats.EmployeeHistory{EmployeeID: u.EmployeeID, Department: u.Department.String}
		byID[u.EmployeeID] = i
	}
	for _, r := range results {
		i, ok := byID[r.EmployeeID]
		if !ok {
			continue
		}
		out[i].Results = append(out[i].Results, EntryFromResult(r))
	}
	return out
}

// EntryFromResult converts a persisted row into a rollup entry.
func EntryFromResult(r db.TestResult) stats.Entry {
	return stats.Entry{
		TestResultID:           r.ID,
		EmotionalExhaustion:    int(r.EmotionalExhaustion),
		Depersonalization:      int(r.Depersonalization),
		PersonalAccomplishment: int(r.PersonalAccomplishment),
		TotalScore:             int(r.TotalScore),
		CreatedAt:              r.CreatedAt,
	}
}

// ResultFromRow converts a persisted row back into scoring terms.
func ResultFromRow(r db.TestResult) scoring.Result {
	return scoring.Result{
		EmotionalExhaustion:    int(r.EmotionalExhaustion),
		Depersonalization:      int(r.Depersonalization),
		PersonalAccomplishment: int(r.PersonalAccomplishment),
		TotalScore:             int(r.TotalScore),
	}
}
