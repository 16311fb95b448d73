package db

import (
	"context"
)

type Querier interface {
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetLatestTestResult(ctx context.Context, employeeID string) (TestResult, error)
	GetUserByEmployeeID(ctx context.Context, employeeID string) (User, error)
	GetUserByTelegramChatID(ctx context.Context, chatID int64) (User, error)
	InsertChatMessage(ctx context.Context, arg InsertChatMessageParams) (ChatMessage, error)
	InsertTestResult(ctx context.Context, arg InsertTestResultParams) (TestResult, error)
	ListAdminChatIDs(ctx context.Context) ([]int64, error)
	ListAllTestResults(ctx context.Context) ([]TestResult, error)
	ListChatMessages(ctx context.Context, arg ListChatMessagesParams) ([]ChatMessage, error)
	ListDueTestReminders(ctx context.Context, arg ListDueParams) ([]User, error)
	ListDueTips(ctx context.Context, arg ListDueParams) ([]User, error)
	ListTestResultsByEmployee(ctx context.Context, employeeID string) ([]TestResult, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListUsersWithStats(ctx context.Context) ([]ListUsersWithStatsRow, error)
	SetNextTestDate(ctx context.Context, arg SetNextDateParams) error
	SetNextTipDate(ctx context.Context, arg SetNextDateParams) error
	SetNotificationsEnabled(ctx context.Context, arg SetNotificationsEnabledParams) (User, error)
	SetUserPasswordHash(ctx context.Context, arg SetUserPasswordHashParams) (User, error)
	TouchLastLogin(ctx context.Context, employeeID string) error
	UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error)
	UpdateUserTestDates(ctx context.Context, arg UpdateUserTestDatesParams) error
	UpsertTelegramUser(ctx context.Context, arg UpsertTelegramUserParams) (User, error)
}

var _ Querier = (*Queries)(nil)
