// Package session gives every visitor a signed, anonymous session cookie so
// their playback state survives between requests.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/thomasarchive/archive/internal/httputil"
)

const CookieName = "archive_session"

type contextKey string

const sessionIDKey contextKey = "sessionID"

type Manager struct {
	secret        string
	secureCookies bool
	duration      time.Duration
}

func NewManager(secret string, secureCookies bool) *Manager {
	return &Manager{secret: secret, secureCookies: secureCookies, duration: TokenDuration}
}

// Middleware attaches the visitor's session id to the request context,
// issuing a fresh cookie when none is present or it fails validation.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(CookieName); err == nil {
			if claims, err := ValidateToken(m.secret, cookie.Value); err == nil {
				next.ServeHTTP(w, r.WithContext(ContextWithID(r.Context(), claims.SessionID)))
				return
			}
		}

		sessionID := httputil.RandomToken(18)
		if sessionID == "" {
			httputil.WriteError(w, http.StatusInternalServerError, "could not start session")
			return
		}
		token, err := GenerateToken(m.secret, sessionID, m.duration)
		if err != nil {
			slog.Error("session: failed to sign token", "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "could not start session")
			return
		}
		m.setCookie(w, token)
		next.ServeHTTP(w, r.WithContext(ContextWithID(r.Context(), sessionID)))
	})
}

func (m *Manager) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.duration / time.Second),
	})
}

func ContextWithID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}
