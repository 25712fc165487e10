// Package auth provides credential utilities and the request identity
// middleware for the need2reef API.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kidtango/need2reefbackend/internal/apierror"
)

// TokenCookie is the cookie consulted when no Authorization header is sent.
const TokenCookie = "token"

// Context keys for auth data
type contextKey string

const (
	contextKeyIdentity contextKey = "identity"
)

// Identity is the authentication state of one request. Token is empty when
// the caller sent no credential; Err is set when the credential was invalid.
type Identity struct {
	Token  string
	UserID string
	Err    error
}

// Verifier resolves a token to a user id.
type Verifier interface {
	Verify(token string) (string, error)
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, id)
}

// ForContext returns the identity attached to ctx, or an anonymous one.
func ForContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(contextKeyIdentity).(Identity); ok {
		return id
	}
	return Identity{}
}

// UserID returns the authenticated user id, failing with an auth error when
// the request carried no token or an invalid one. It does not check
// ownership.
func UserID(ctx context.Context) (string, error) {
	id := ForContext(ctx)
	if id.Token == "" {
		return "", apierror.Auth("not authenticated")
	}
	if id.Err != nil {
		return "", id.Err
	}
	if id.UserID == "" {
		return "", apierror.Auth("not authenticated")
	}
	return id.UserID, nil
}

// OptionalUserID returns the authenticated user id or "".
func OptionalUserID(ctx context.Context) string {
	userID, err := UserID(ctx)
	if err != nil {
		return ""
	}
	return userID
}

// Middleware verifies the bearer token (or token cookie) of each request and
// attaches the resulting Identity. Requests are never rejected here; public
// operations must stay reachable without credentials.
func Middleware(verifier Verifier, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			id := Identity{Token: token}
			if token != "" {
				userID, err := verifier.Verify(token)
				if err != nil {
					logger.WithError(err).Debug("rejected session token")
					id.Err = err
				} else {
					id.UserID = userID
				}
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return ""
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
