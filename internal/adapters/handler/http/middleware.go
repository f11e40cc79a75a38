package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type contextKey string

const UserIDKey contextKey = "user_id"

const accessTokenCookie = "access_token"

// Authenticator verifies HS256 access tokens whose subject is the user id.
// Tokens come from the Authorization header or the access_token cookie.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

func (a *Authenticator) userID(r *http.Request) (uuid.UUID, error) {
	tokenString := ""
	if header := r.Header.Get("Authorization"); header != "" {
		tokenString = strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			return uuid.Nil, fmt.Errorf("invalid authorization header format")
		}
	} else if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		tokenString = cookie.Value
	}
	if tokenString == "" {
		return uuid.Nil, domain.ErrNotAuthenticated
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token subject: %w", err)
	}
	return id, nil
}

// RequireAuth rejects requests without a valid token.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.userID(r)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserIDKey, id)))
	})
}

// OptionalAuth attaches the user when a valid token is present and serves
// the request anonymously otherwise.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := a.userID(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), UserIDKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

func userFromContext(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(UserIDKey).(uuid.UUID)
	return id
}
