// Package actor resolves who is acting on a request. Every audited action
// needs an accountable role, so resolution never fails open to an arbitrary
// value: a bearer token's role claim wins, then the X-Actor-Role header from
// the dashboard, then the system default for unauthenticated traffic.
package actor

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dErrors "craneguard/pkg/domain-errors"
	"craneguard/pkg/platform/httputil"
	"craneguard/pkg/requestcontext"
)

const (
	RoleOwner           = "owner"
	RoleMaintenanceLead = "maintenance_lead"
	RoleTechnician      = "technician"
	RoleSystem          = requestcontext.DefaultActorRole

	headerName = "X-Actor-Role"
)

var knownRoles = map[string]struct{}{
	RoleOwner:           {},
	RoleMaintenanceLead: {},
	RoleTechnician:      {},
	RoleSystem:          {},
}

// Known reports whether role is one the system attributes actions to.
func Known(role string) bool {
	_, ok := knownRoles[role]
	return ok
}

// Middleware resolves the acting role and stores it in the request context.
// A malformed token or an unknown role is rejected rather than silently
// downgraded to the default.
func Middleware(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			role := requestcontext.DefaultActorRole
			if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				claimed, err := roleFromToken(token, signingKey)
				if err != nil {
					logger.WarnContext(ctx, "actor token rejected",
						"request_id", requestcontext.RequestID(ctx),
						"error", err,
					)
					httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired token"))
					return
				}
				role = claimed
			} else if header := r.Header.Get(headerName); header != "" {
				role = header
			}

			if !Known(role) {
				logger.WarnContext(ctx, "unknown actor role rejected",
					"request_id", requestcontext.RequestID(ctx),
					"role", role,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "unknown actor role"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActorRole(ctx, role)))
		})
	}
}

func roleFromToken(tokenString string, signingKey []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return "", jwt.ErrTokenRequiredClaimMissing
	}
	return role, nil
}
