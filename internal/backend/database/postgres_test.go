package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func newMockPostgres(t *testing.T) (*PostgresDatabase, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return newPostgresDatabase(db), mock
}

func TestPostgres_CreateDatabase(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := pg.CreateDatabase(); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgres_CreateUser(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectQuery(`INSERT INTO users \(username, password_hash\)`).
		WithArgs("alice", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	user, err := pg.CreateUser(context.Background(), "alice", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID != 7 || user.Username != "alice" || user.PasswordHash != "hash" {
		t.Errorf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgres_CreateUser_Duplicate(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectQuery(`INSERT INTO users \(username, password_hash\)`).
		WithArgs("alice", "hash").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := pg.CreateUser(context.Background(), "alice", "hash")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgres_CreateUser_OtherError(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "hash").
		WillReturnError(sql.ErrConnDone)

	_, err := pg.CreateUser(context.Background(), "alice", "hash")
	if err == nil || errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected generic insert error, got %v", err)
	}
}

func TestPostgres_GetUserByUsername(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}).AddRow(3, "bob", "h"))

	user, err := pg.GetUserByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user.ID != 3 || user.Username != "bob" || user.PasswordHash != "h" {
		t.Errorf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgres_GetUserByUsername_NotFound(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := pg.GetUserByUsername(context.Background(), "nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPostgres_CountUsers(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := pg.CountUsers(context.Background())
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2, got %d", count)
	}
}
