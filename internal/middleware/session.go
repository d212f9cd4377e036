package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	sessionKey contextKey = "session"
	visitorKey contextKey = "visitor"
)

// SessionConfig configures the signed browser session cookie
type SessionConfig struct {
	Secret     string
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// SessionClaims identify a browser session. CSRF is echoed by the portal UI
// on every mutating request.
type SessionClaims struct {
	SessionID string `json:"sid"`
	CSRF      string `json:"csrf"`
	jwt.RegisteredClaims
}

// SessionMiddleware attaches the browser session to the request context.
// A missing, expired or tampered cookie is replaced by a fresh session.
func SessionMiddleware(cfg SessionConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var claims *SessionClaims
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				claims, err = ParseSession(cookie.Value, cfg.Secret)
				if err != nil {
					logger.Debug("Discarding invalid session cookie", zap.Error(err))
				}
			}

			if claims == nil {
				token, issued, err := IssueSession(cfg.Secret, cfg.TTL, time.Now())
				if err != nil {
					logger.Error("Failed to issue session", zap.Error(err))
					RespondWithError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				claims = issued
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					Expires:  claims.ExpiresAt.Time,
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IssueSession signs a new session valid for ttl from now
func IssueSession(secret string, ttl time.Duration, now time.Time) (string, *SessionClaims, error) {
	claims := &SessionClaims{
		SessionID: uuid.NewString(),
		CSRF:      uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// ParseSession verifies a session token signed with secret
func ParseSession(tokenString, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.SessionID == "" || claims.CSRF == "" {
		return nil, errors.New("invalid session claims")
	}
	return claims, nil
}

// GetSession extracts the browser session from request context
func GetSession(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(sessionKey).(*SessionClaims)
	return claims, ok
}

// SessionID returns the browser session id, or "" outside SessionMiddleware
func SessionID(ctx context.Context) string {
	if claims, ok := GetSession(ctx); ok {
		return claims.SessionID
	}
	return ""
}
