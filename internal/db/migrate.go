package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Admin is the account seeded by Migrate.
type Admin struct {
	EmployeeID string
	// PasswordHash is a bcrypt hash. Empty leaves the account without a
	// password until its first login claims it.
	PasswordHash string
}

// Migrate applies the schema and makes sure the configured admin account
// exists. A seeded hash only fills an empty password_hash, so a password
// changed later is never overwritten.
func Migrate(ctx context.Context, conn DBTX, admin Admin) error {
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("db: apply schema: %w", err)
	}
	if admin.EmployeeID == "" {
		return nil
	}
	const seedAdmin = `
INSERT INTO users (employee_id, password_hash, first_name, is_admin)
VALUES ($1, $2, 'Admin', TRUE)
ON CONFLICT (employee_id) DO UPDATE
SET is_admin = TRUE,
    password_hash = COALESCE(users.password_hash, EXCLUDED.password_hash)`
	hash := sql.NullString{String: admin.PasswordHash, Valid: admin.PasswordHash != ""}
	if _, err := conn.ExecContext(ctx, seedAdmin, admin.EmployeeID, hash); err != nil {
		return fmt.Errorf("db: seed admin: %w", err)
	}
	return nil
}
