package auth

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterCreatesUserAndStreak(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "rider@example.com", "rider", pgxmock.AnyArg(), "Rider One").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
	mock.ExpectExec(`INSERT INTO streaks`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("secret", mock)
	user, tokens, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "rider@example.com",
		Username: "rider",
		Password: "pass123",
		FullName: "Rider One",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || tokens.AccessToken == "" {
		t.Fatalf("expected user and tokens")
	}

	userID, err := svc.ValidateAccessToken(tokens.AccessToken)
	if err != nil || userID != user.ID {
		t.Fatalf("access token invalid: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterValidatesRequiredFields(t *testing.T) {
	svc := NewService("secret", nil)
	if _, _, err := svc.Register(context.Background(), RegisterRequest{Email: "a@b.c"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLogin(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("pass123"), bcrypt.DefaultCost)

	userRow := func() *pgxmock.Rows {
		return pgxmock.NewRows([]string{"id", "email", "username", "password_hash", "full_name", "created_at", "updated_at"}).
			AddRow("user-1", "rider@example.com", "rider", string(hash), "Rider One", time.Now(), time.Now())
	}

	mock.ExpectQuery(`SELECT id, email, username, password_hash`).
		WithArgs("rider@example.com").
		WillReturnRows(userRow())
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("secret", mock)
	user, tokens, err := svc.Login(context.Background(), LoginRequest{Email: "rider@example.com", Password: "pass123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != "user-1" || tokens.RefreshToken == "" {
		t.Fatalf("unexpected login result")
	}

	mock.ExpectQuery(`SELECT id, email, username, password_hash`).
		WithArgs("rider@example.com").
		WillReturnRows(userRow())
	if _, _, err := svc.Login(context.Background(), LoginRequest{Email: "rider@example.com", Password: "wrong"}); err == nil {
		t.Fatalf("expected invalid credentials")
	}
}

func TestValidateRefreshToken(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("secret", mock)
	tokens, err := svc.GenerateTokens(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(tokens.RefreshToken).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).
			AddRow("user-1", time.Now().Add(time.Hour)))

	userID, err := svc.ValidateRefreshToken(context.Background(), tokens.RefreshToken)
	if err != nil || userID != "user-1" {
		t.Fatalf("refresh validation failed: %v", err)
	}

	// An expired stored token is rejected even with a valid signature.
	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(tokens.RefreshToken).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).
			AddRow("user-1", time.Now().Add(-time.Hour)))
	if _, err := svc.ValidateRefreshToken(context.Background(), tokens.RefreshToken); err == nil {
		t.Fatalf("expected expired token rejection")
	}
}
