package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupAuthMock(t *testing.T) (*PostgresAuthRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	service := NewPostgresAuthRepository(db)
	cleanup := func() { db.Close() }
	return service, mock, cleanup
}

func TestUserExists_True(t *testing.T) {
	service, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	login := "user1"
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE login = $1)`)).
		WithArgs(login).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := service.UserExists(context.Background(), login)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Errorf("expected user to exist, got false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserExists_Error(t *testing.T) {
	service, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	login := "user3"
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE login = $1)`)).
		WithArgs(login).
		WillReturnError(errors.New("query failed"))

	_, err := service.UserExists(context.Background(), login)
	if err == nil {
		t.Errorf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRegisterUser_Success(t *testing.T) {
	service, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	hash := []byte("$2a$10$hash")
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (id, login, password_hash) VALUES ($1, $2, $3) ON CONFLICT (login) DO NOTHING`)).
		WithArgs(sqlmock.AnyArg(), "newuser", hash).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, created, err := service.RegisterUser(context.Background(), "newuser", hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || id == "" {
		t.Errorf("expected a new user id, got %q created=%v", id, created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRegisterUser_Conflict(t *testing.T) {
	service, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(sqlmock.AnyArg(), "dupuser", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	id, created, err := service.RegisterUser(context.Background(), "dupuser", []byte("h"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created || id != "" {
		t.Errorf("expected conflict to report created=false, got %q %v", id, created)
	}
}

func TestRegisterUser_Error(t *testing.T) {
	service, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(sqlmock.AnyArg(), "dupuser", sqlmock.AnyArg()).
		WillReturnError(errors.New("insert failed"))

	_, _, err := service.RegisterUser(context.Background(), "dupuser", []byte("h"))
	if err == nil {
		t.Errorf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetUserByLogin(t *testing.T) {
	service, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	query := regexp.QuoteMeta(`SELECT id, login, password_hash FROM users WHERE login = $1`)
	mock.ExpectQuery(query).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "login", "password_hash"}).AddRow("u1", "alice", []byte("hash")))
	mock.ExpectQuery(query).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "login", "password_hash"}))

	u, err := service.GetUserByLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u1" || string(u.PasswordHash) != "hash" {
		t.Errorf("unexpected user %+v", u)
	}

	_, err = service.GetUserByLogin(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
