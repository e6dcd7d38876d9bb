package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	"github.com/zhans-k/ride-dispatch/pkg/logger"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
)

// TokenService verifies access tokens issued by the identity
// collaborator. Registration, login and token minting live there; this
// system only checks the shared-secret signature and maps claims to a
// Principal.
type TokenService struct {
	secret string
	log    logger.Logger
}

func NewTokenService(secret string, log logger.Logger) *TokenService {
	return &TokenService{
		secret: secret,
		log:    log,
	}
}

// Verify validates the given JWT string and returns the principal it
// carries. Drivers get DriverID populated from the same subject id.
func (s *TokenService) Verify(ctx context.Context, token string) (*models.Principal, error) {
	ctx = wrap.WithAction(ctx, "verify_token")

	parsedToken, err := jwt.ParseWithClaims(token, jwt.MapClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return []byte(s.secret), nil
	})
	if err != nil || !parsedToken.Valid {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	mc, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	userIDStr, _ := mc["user_id"].(string)
	if userIDStr == "" {
		return nil, wrap.Error(ctx, fmt.Errorf("invalid or missing 'user_id' in token claims"))
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("invalid 'user_id' in token claims"))
	}

	roleStr, _ := mc["role"].(string)
	role := types.UserRole(roleStr)
	switch role {
	case types.RoleRider, types.RoleDriver, types.RoleAdmin:
	default:
		return nil, wrap.Error(ctx, fmt.Errorf("invalid or missing 'role' in token claims"))
	}

	expFloat, ok := mc["exp"].(float64)
	if !ok {
		return nil, wrap.Error(ctx, fmt.Errorf("invalid or missing 'exp' in token claims"))
	}
	if time.Now().UTC().After(time.Unix(int64(expFloat), 0)) {
		return nil, wrap.Error(ctx, ErrExpToken)
	}

	principal := &models.Principal{
		UserID: userID,
		Role:   role,
	}
	if role == types.RoleDriver {
		driverID := userID
		principal.DriverID = &driverID
	}

	return principal, nil
}
