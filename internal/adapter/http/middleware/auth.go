package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
)

// Auth validates the bearer token and injects the principal into the
// context. Requests without a token proceed as anonymous; protected
// endpoints reject them via RequireRoles.
func (h *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		if header == "" {
			r = r.WithContext(models.WithPrincipal(ctx, models.AnonymousPrincipal()))
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}

		principal, err := h.tokens.Verify(ctx, token)
		if err != nil || principal == nil {
			h.log.Error(wrap.ErrorCtx(ctx, err), "failed to authenticate request", err)
			errorResponse(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		ctx = wrap.WithUserID(ctx, principal.UserID.String())

		next.ServeHTTP(w, r.WithContext(models.WithPrincipal(ctx, principal)))
	})
}

// RequireRoles wraps a handler and allows only principals with one of the
// given roles. With no roles listed, any authenticated principal passes.
func (h *Middleware) RequireRoles(next http.HandlerFunc, allowedRoles ...types.UserRole) http.Handler {
	allowed := make(map[types.UserRole]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := models.PrincipalFromContext(r.Context())
		if principal.IsAnonymous() {
			errorResponse(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[principal.Role]; !ok {
				errorResponse(w, http.StatusForbidden, "forbidden: insufficient role")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
