package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xelth-com/facilitymap/internal/utils"
)

type contextKey string

const actorContextKey contextKey = "actor"

// Actor is the authenticated caller
type Actor struct {
	ID    string
	Email string
	Role  string
}

// Privileged reports whether the actor may change the facility layout
func (a Actor) Privileged() bool { return a.Role == models.RoleAdmin }

// ActorFrom returns the actor placed in ctx by Authenticate
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorContextKey).(Actor)
	return a, ok
}

// WithActor stores a in ctx
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, a)
}

// Authenticator verifies bearer tokens signed with secret
type Authenticator struct {
	secret string
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: secret}
}

// Authenticate verifies the JWT access token and stores the actor.
// Browsers cannot set headers on websocket upgrades, so a "token" query
// parameter is accepted as well.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			// Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				deny(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header format")
				return
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			deny(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			return
		}

		claims, err := utils.ValidateToken(tokenString, a.secret)
		if err != nil {
			deny(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}
		if typ, _ := claims["type"].(string); typ != "access" {
			deny(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required")
			return
		}

		actor := Actor{}
		actor.ID, _ = claims["id"].(string)
		actor.Email, _ = claims["email"].(string)
		actor.Role, _ = claims["role"].(string)
		if actor.ID == "" {
			deny(w, http.StatusUnauthorized, "UNAUTHORIZED", "Token has no subject")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequirePrivileged rejects actors without the admin role
func RequirePrivileged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		if !actor.Privileged() {
			deny(w, http.StatusForbidden, "FORBIDDEN", "Administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
