package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medeva/pharmapos-backend/pkg/config"
	"github.com/medeva/pharmapos-backend/pkg/db/models"
	"github.com/medeva/pharmapos-backend/pkg/enums"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
	"github.com/medeva/pharmapos-backend/pkg/security"
)

type stubUserReader struct {
	user *models.User
	err  error
}

func (s *stubUserReader) FindActiveByEmail(context.Context, string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	branchID := uuid.New()
	return &models.User{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		BranchID:     &branchID,
		Email:        "cashier@pharmacy.in",
		PasswordHash: hash,
		Role:         enums.UserRoleCashier,
		IsActive:     true,
	}
}

func jwtCfg() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "pharmapos", ExpirationMinutes: 60}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	user := testUser(t, "correct horse")
	svc, err := NewService(&stubUserReader{user: user}, jwtCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "Cashier@Pharmacy.in ",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if result.User.ID != user.ID {
		t.Fatalf("wrong user returned: %+v", result.User)
	}
	if !result.ExpiresAt.After(result.User.CreatedAt) {
		t.Fatalf("expiry not set: %v", result.ExpiresAt)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	user := testUser(t, "correct horse")
	svc, err := NewService(&stubUserReader{user: user}, jwtCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "cashier@pharmacy.in",
		Password: "battery staple",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubUserReader{err: gorm.ErrRecordNotFound}, jwtCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "nobody@pharmacy.in",
		Password: "whatever",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubUserReader{}, jwtCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
