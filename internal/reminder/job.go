package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/nyashahama/burnout-detector-backend/internal/db"
)

// Kind distinguishes the two scheduled notifications.
type Kind string

const (
	KindTestReminder Kind = "test_reminder"
	KindTip          Kind = "tip"
)

// Job is one due notification for one employee.
type Job struct {
	Kind       Kind
	EmployeeID string
	ChatID     int64
}

func (j Job) key() string { return string(j.Kind) + ":" + j.EmployeeID }

// Notifier delivers notifications to a Telegram chat. The concrete
// implementation is *telegram.Bot; the reminder package never imports it.
type Notifier interface {
	SendTestReminder(ctx context.Context, chatID int64) error
	SendTip(ctx context.Context, chatID int64) error
}

// Querier is the subset of db.Querier the runner needs.
type Querier interface {
	ListDueTestReminders(ctx context.Context, arg db.ListDueParams) ([]db.User, error)
	ListDueTips(ctx context.Context, arg db.ListDueParams) ([]db.User, error)
	SetNextTestDate(ctx context.Context, arg db.SetNextDateParams) error
	SetNextTipDate(ctx context.Context, arg db.SetNextDateParams) error
}

// run delivers one notification. It does not touch the schedule; the runner
// advances next_*_date once the job has either succeeded or exhausted its
// retries.
func (r *Runner) run(ctx context.Context, j Job) error {
	switch j.Kind {
	case KindTestReminder:
		if err := r.notifier.SendTestReminder(ctx, j.ChatID); err != nil {
			return fmt.Errorf("reminder: send test reminder: %w", err)
		}
	case KindTip:
		if err := r.notifier.SendTip(ctx, j.ChatID); err != nil {
			return fmt.Errorf("reminder: send tip: %w", err)
		}
	default:
		return fmt.Errorf("reminder: unknown job kind %q", j.Kind)
	}
	return nil
}

// advance moves the employee's next date for this kind forward by the
// configured interval, measured from now.
func (r *Runner) advance(ctx context.Context, j Job) error {
	now := r.now()
	switch j.Kind {
	case KindTestReminder:
		return r.q.SetNextTestDate(ctx, db.SetNextDateParams{
			EmployeeID: j.EmployeeID,
			Next:       now.Add(r.cfg.RetestInterval),
		})
	case KindTip:
		return r.q.SetNextTipDate(ctx, db.SetNextDateParams{
			EmployeeID: j.EmployeeID,
			Next:       now.Add(r.cfg.TipInterval),
		})
	}
	return nil
}

func jobsFromUsers(kind Kind, users []db.User) []Job {
	jobs := make([]Job, 0, len(users))
	for _, u := range users {
		if !u.TelegramChatID.Valid {
			continue
		}
		jobs = append(jobs, Job{Kind: kind, EmployeeID: u.EmployeeID, ChatID: u.TelegramChatID.Int64})
	}
	return jobs
}

func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

func dueParams(now time.Time, limit int) db.ListDueParams {
	return db.ListDueParams{Now: now, Limit: int32(limit)}
}
