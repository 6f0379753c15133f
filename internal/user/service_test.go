package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/hisab-app/hisab/pkg/auth"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	jwt := auth.NewJWTManager("test-secret", time.Hour)
	return NewService(NewRepository(db), jwt), mock
}

func TestRegister(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT id, username, email, password_hash, created_at").
		WithArgs("asha@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("asha", "asha@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
			AddRow(int64(1), "asha", "asha@example.com", "hash", time.Now()))

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "asha",
		Email:    "asha@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	if resp.User.ID != 1 || resp.User.Username != "asha" {
		t.Fatalf("unexpected user in response: %+v", resp.User)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "asha",
		Email:    "asha@example.com",
		Password: "short",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT id, username, email, password_hash, created_at").
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
			AddRow(int64(1), "asha", "asha@example.com", "hash", time.Now()))

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "asha",
		Email:    "asha@example.com",
		Password: "correct horse",
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid credentials", password: "correct horse"},
		{name: "wrong password", password: "battery staple", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t)
			mock.ExpectQuery("SELECT id, username, email, password_hash, created_at").
				WithArgs("asha@example.com").
				WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
					AddRow(int64(1), "asha", "asha@example.com", string(hash), time.Now()))

			resp, err := svc.Login(context.Background(), &LoginRequest{
				Email:    "asha@example.com",
				Password: tt.password,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if resp.Token == "" {
				t.Fatal("expected a session token")
			}
		})
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT id, username, email, password_hash, created_at").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
