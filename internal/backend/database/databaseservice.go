package database

import (
	"context"
	"database/sql"
)

type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// CreateUser inserts a new user row. A username that already exists yields ErrUsernameTaken
	// and leaves the table unchanged.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	// GetUserByUsername returns ErrUserNotFound when no row matches.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CountUsers(ctx context.Context) (int, error)
}
