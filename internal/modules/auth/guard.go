package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/ardentlabs/ardent-pos-backend/internal/modules/user"
	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

type contextKey string

const (
	actorIDKey contextKey = "actor_id"
	roleKey    contextKey = "role"
)

// Guard authenticates bearer tokens and enforces role rank at the boundary.
type Guard struct {
	jwtKey []byte
}

// NewGuard creates a guard verifying tokens with the given key.
func NewGuard(jwtKey []byte) *Guard { return &Guard{jwtKey: jwtKey} }

// Require returns middleware that rejects requests without a valid token or
// with a role below min.
func (g *Guard) Require(min user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return g.jwtKey, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			actorID, err := uuid.Parse(claims.Subject)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			role, err := user.ParseRole(claims.Role)
			if err != nil || !role.AtLeast(min) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), actorIDKey, actorID)
			ctx = context.WithValue(ctx, roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorID returns the authenticated user's id from the request context.
func ActorID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorIDKey).(uuid.UUID)
	return id, ok
}

// ActorRole returns the authenticated user's role from the request context.
func ActorRole(ctx context.Context) (user.Role, bool) {
	role, ok := ctx.Value(roleKey).(user.Role)
	return role, ok
}
