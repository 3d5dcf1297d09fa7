package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bulkdrop/api/internal/auth"
	"github.com/bulkdrop/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

type contextKey string

const actorKey contextKey = "actor"

// ErrInvalidToken wraps every token validation failure.
var ErrInvalidToken = errors.New("invalid token")

// ProfileLoader resolves a token subject to its profile.
// Satisfied by *database.Queries; narrow interface for testability.
type ProfileLoader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (database.Profile, error)
}

// Authenticator validates access tokens and loads the caller's profile.
type Authenticator struct {
	secret   string
	cookie   string
	profiles ProfileLoader
	log      *logrus.Entry
}

// NewAuthenticator creates an Authenticator. cookie names the session cookie
// checked when no Authorization header is present; empty disables it.
func NewAuthenticator(secret, cookie string, profiles ProfileLoader, log *logrus.Entry) *Authenticator {
	return &Authenticator{secret: secret, cookie: cookie, profiles: profiles, log: log}
}

// TokenFromRequest extracts the bearer token from the Authorization header
// or, failing that, from the session cookie.
func (a *Authenticator) TokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", errors.New("invalid authorization format")
		}
		return parts[1], nil
	}
	if a.cookie != "" {
		if c, err := r.Cookie(a.cookie); err == nil && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", errors.New("missing authorization header")
}

// Resolve validates token and loads the matching profile.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*auth.Actor, error) {
	claims, err := auth.ValidateToken(a.secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	profile, err := a.profiles.GetProfile(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return auth.NewActor(profile), nil
}

// Middleware rejects unauthenticated requests and stores the Actor in the
// request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := a.TokenFromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}

		actor, err := a.Resolve(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidToken):
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			case errors.Is(err, pgx.ErrNoRows):
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "profile not found"})
			default:
				a.log.WithError(err).Error("load profile")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole allows only the listed roles through.
func RequireRole(roles ...database.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
				return
			}

			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		})
	}
}

// RequireSuperAdmin allows only admins with the super_admin admin role.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFromContext(r.Context())
		if actor == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}
		if !actor.IsSuperAdmin() {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "super admin only"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor returns ctx carrying actor.
func WithActor(ctx context.Context, actor *auth.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the authenticated caller or nil.
func ActorFromContext(ctx context.Context) *auth.Actor {
	actor, _ := ctx.Value(actorKey).(*auth.Actor)
	return actor
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
