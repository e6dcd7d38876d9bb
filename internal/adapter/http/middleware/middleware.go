package middleware

import (
	"context"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/pkg/logger"
)

type (
	TokenVerifier interface {
		Verify(ctx context.Context, token string) (*models.Principal, error)
	}

	Middleware struct {
		tokens TokenVerifier
		log    logger.Logger
	}
)

func NewMiddleware(tokens TokenVerifier, log logger.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		log:    log,
	}
}
