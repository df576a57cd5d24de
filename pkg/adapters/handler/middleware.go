package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/config"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

const authCookieName = "auth_token"

type contextKey struct{}

var identityKey = contextKey{}

// Claims is the session token payload. Subject holds the user id.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// NewToken signs a session token for a user.
func NewToken(secret string, userID string, role domain.Role, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return token, expiresAt, err
}

// IdentityFromContext returns the caller set by AuthMiddleware.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}

func withIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

type Middleware struct {
	jwtSecret []byte
	users     ports.UserService
	logger    *slog.Logger
}

func NewMiddleware(cfg *config.Config, users ports.UserService, logger *slog.Logger) *Middleware {
	return &Middleware{
		jwtSecret: []byte(cfg.JWTSecret),
		users:     users,
		logger:    logger,
	}
}

// AuthMiddleware verifies the JWT from the auth cookie or a bearer header.
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			if cookie, err := r.Cookie(authCookieName); err == nil {
				tokenString = cookie.Value
			}
		}
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return m.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid || claims.Subject == "" {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid or expired session")
			return
		}

		role := claims.Role
		if role != domain.RoleAdmin {
			role = domain.RoleUser
		}
		ctx := withIdentity(r.Context(), domain.Identity{UserID: claims.Subject, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after AuthMiddleware. The role is read from the user
// record, so a demotion applies to tokens that are already issued.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
			return
		}

		user, err := m.users.GetUser(r.Context(), id.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid or expired session")
			return
		}
		if err != nil {
			writeServiceError(w, r, m.logger, err)
			return
		}
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, CodeForbidden, "admin access required")
			return
		}

		id.Role = user.Role
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
