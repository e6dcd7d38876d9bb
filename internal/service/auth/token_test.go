package auth

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/types"
)

const testSecret = "test-secret"

type discardLogger struct{}

func (discardLogger) Debug(context.Context, string, ...any)        {}
func (discardLogger) Info(context.Context, string, ...any)         {}
func (discardLogger) Warn(context.Context, string, ...any)         {}
func (discardLogger) Error(context.Context, string, error, ...any) {}
func (discardLogger) GetSlogLogger() *slog.Logger                  { return slog.New(slog.DiscardHandler) }

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims(userID uuid.UUID, role types.UserRole) jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role.String(),
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

func TestVerify(t *testing.T) {
	svc := NewTokenService(testSecret, discardLogger{})
	ctx := context.Background()
	userID := uuid.New()

	t.Run("rider", func(t *testing.T) {
		principal, err := svc.Verify(ctx, signToken(t, testSecret, validClaims(userID, types.RoleRider)))
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if principal.UserID != userID || principal.Role != types.RoleRider {
			t.Errorf("principal = %+v", principal)
		}
		if principal.DriverID != nil {
			t.Error("rider must not carry a driver id")
		}
	})

	t.Run("driver gets driver id", func(t *testing.T) {
		principal, err := svc.Verify(ctx, signToken(t, testSecret, validClaims(userID, types.RoleDriver)))
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if principal.DriverID == nil || *principal.DriverID != userID {
			t.Errorf("driver id = %v, want %s", principal.DriverID, userID)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := svc.Verify(ctx, signToken(t, "other-secret", validClaims(userID, types.RoleRider)))
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		claims := validClaims(userID, types.RoleRider)
		claims["exp"] = time.Now().Add(-time.Minute).Unix()

		_, err := svc.Verify(ctx, signToken(t, testSecret, claims))
		if !errors.Is(err, ErrInvalidToken) && !errors.Is(err, ErrExpToken) {
			t.Errorf("error = %v, want token rejection", err)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := validClaims(userID, types.RoleRider)
		claims["role"] = "SUPERUSER"

		if _, err := svc.Verify(ctx, signToken(t, testSecret, claims)); err == nil {
			t.Error("token with unknown role accepted")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := svc.Verify(ctx, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})
}
