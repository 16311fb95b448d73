package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/nyashahama/burnout-detector-backend/internal/auth"
	"github.com/nyashahama/burnout-detector-backend/internal/db"
)

// ─── LoginOrRegister ──────────────────────────────────────────────────────────

// LoginParams is the input to LoginOrRegister.
type LoginParams struct {
	EmployeeID string
	Password   string
}

// LoginResult reports the logged-in user and whether the account was created
// by this call.
type LoginResult struct {
	User    db.User
	Created bool
}

// LoginOrRegister finds or creates the employee and checks the password:
//
//  1. Unknown employee: create the account with the bcrypt hash of Password.
//  2. Known employee without a hash (seeded admin, Telegram registration):
//     the first password login claims the account.
//  3. Known employee with a hash: the password must match, otherwise
//     ErrInvalidCredentials.
//
// last_login is updated on success.
func (s *Store) LoginOrRegister(ctx context.Context, p LoginParams) (LoginResult, error) {
	var res LoginResult

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		user, err := q.GetUserByEmployeeID(ctx, p.EmployeeID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			hash, err := auth.HashPassword(p.Password)
			if err != nil {
				return err
			}
			user, err = q.CreateUser(ctx, db.CreateUserParams{
				EmployeeID:   p.EmployeeID,
				PasswordHash: sql.NullString{String: hash, Valid: true},
			})
			if err != nil {
				return fmt.Errorf("store: create user: %w", err)
			}
			res.Created = true

		case err != nil:
			return fmt.Errorf("store: get user: %w", err)

		case !user.PasswordHash.Valid:
			hash, err := auth.HashPassword(p.Password)
			if err != nil {
				return err
			}
			user, err = q.SetUserPasswordHash(ctx, db.SetUserPasswordHashParams{
				EmployeeID:   p.EmployeeID,
				PasswordHash: hash,
			})
			if err != nil {
				return fmt.Errorf("store: claim account: %w", err)
			}

		default:
			if err := auth.CheckPassword(user.PasswordHash.String, p.Password); err != nil {
				if errors.Is(err, auth.ErrPasswordMismatch) {
					return ErrInvalidCredentials
				}
				return err
			}
		}

		if err := q.TouchLastLogin(ctx, p.EmployeeID); err != nil {
			return fmt.Errorf("store: touch last login: %w", err)
		}
		res.User = user
		return nil
	})
	if err != nil {
		return LoginResult{}, err
	}
	return res, nil
}

// ─── SaveProfile ──────────────────────────────────────────────────────────────

// ProfileParams carries optional profile fields; invalid NullStrings leave the
// stored value unchanged.
type ProfileParams struct {
	EmployeeID string
	FirstName  sql.NullString
	LastName   sql.NullString
	Email      sql.NullString
	Department sql.NullString
}

// SaveProfile creates the employee when missing and then applies the profile
// fields. Accounts created here have no password until their first login.
func (s *Store) SaveProfile(ctx context.Context, p ProfileParams) (db.User, error) {
	var user db.User
	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		_, err := q.GetUserByEmployeeID(ctx, p.EmployeeID)
		if errors.Is(err, sql.ErrNoRows) {
			if _, err := q.CreateUser(ctx, db.CreateUserParams{EmployeeID: p.EmployeeID}); err != nil {
				return fmt.Errorf("store: create user: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("store: get user: %w", err)
		}

		user, err = q.UpdateUserProfile(ctx, db.UpdateUserProfileParams{
			EmployeeID: p.EmployeeID,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			Email:      p.Email,
			Department: p.Department,
		})
		if err != nil {
			return fmt.Errorf("store: update profile: %w", err)
		}
		return nil
	})
	return user, err
}

// ─── RegisterTelegramUser ─────────────────────────────────────────────────────

// TelegramUserParams identifies a Telegram chat registering via /start.
type TelegramUserParams struct {
	ChatID    int64
	FirstName string
	LastName  string
}

// RegisterTelegramUser links a chat to an employee account whose employee ID
// is the chat ID, enables notifications and schedules the first test
// reminder and tip if none is scheduled yet.
func (s *Store) RegisterTelegramUser(ctx context.Context, p TelegramUserParams) (db.User, error) {
	now := s.now()
	user, err := s.q.UpsertTelegramUser(ctx, db.UpsertTelegramUserParams{
		EmployeeID:     strconv.FormatInt(p.ChatID, 10),
		TelegramChatID: p.ChatID,
		FirstName:      nullString(p.FirstName),
		LastName:       nullString(p.LastName),
		NextTestDate:   now.Add(s.cfg.RetestInterval),
		NextTipDate:    now.Add(s.cfg.TipInterval),
	})
	if err != nil {
		return db.User{}, fmt.Errorf("store: register telegram user: %w", err)
	}
	return user, nil
}

// SetNotifications toggles reminders and tips for an employee.
func (s *Store) SetNotifications(ctx context.Context, employeeID string, enabled bool) (db.User, error) {
	user, err := s.q.SetNotificationsEnabled(ctx, db.SetNotificationsEnabledParams{
		EmployeeID: employeeID,
		Enabled:    enabled,
	})
	if err != nil {
		return db.User{}, notFound(err, ErrUserNotFound, "set notifications")
	}
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
