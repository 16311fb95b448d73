package store

import (
	"fmt"

	"github.com/nyashahama/burnout-detector-backend/internal/auth"
	"github.com/nyashahama/burnout-detector-backend/internal/db"
)

// AdminAccount builds the account db.Migrate seeds. An empty password leaves
// the hash empty.
func AdminAccount(employeeID, password string) (db.Admin, error) {
	admin := db.Admin{EmployeeID: employeeID}
	if employeeID == "" || password == "" {
		return admin, nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return db.Admin{}, fmt.Errorf("store: admin password: %w", err)
	}
	admin.PasswordHash = hash
	return admin, nil
}
