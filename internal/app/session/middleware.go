package session

import (
	"context"
	"net/http"

	"arzweb/internal/pkg/auth/jwt"
	"arzweb/internal/pkg/logx"
)

const (
	// SessionCookie carries the signed session id.
	SessionCookie = "arz_sid"

	// PendingCookie carries the signed email awaiting verification. It is a browser-session
	// cookie and ends with the browsing session.
	PendingCookie = "arz_pending"
)

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// Middleware attaches the browser's session to the request context, creating one
// (seeded from the pending cookie) when the browser has none.
func Middleware(m *Manager, opts jwt.CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var s *Session
			if payload := jwt.ReadCookie(r, SessionCookie, jwt.PurposeSession, opts); payload != nil {
				s, _ = m.Get(ctx, payload.SessionID)
			}

			if s == nil {
				pending := ""
				if payload := jwt.ReadCookie(r, PendingCookie, jwt.PurposePending, opts); payload != nil {
					pending = payload.PendingEmail
				}

				s = m.Create(ctx, pending)
				if err := jwt.WriteCookie(w, SessionCookie, &jwt.Payload{Purpose: jwt.PurposeSession, SessionID: s.ID}, opts, m.TTL()); err != nil {
					logx.FromContext(ctx).Error().Err(err).Msg("Failed to write session cookie")
				}
			}

			s.Touch()

			logger := logx.FromContext(ctx).With().Str("session_id", s.ID).Logger()
			ctx = logger.WithContext(WithSession(ctx, s))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WritePending stores email in the pending verification cookie.
func WritePending(w http.ResponseWriter, email string, opts jwt.CookieOptions) error {
	return jwt.WriteCookie(w, PendingCookie, &jwt.Payload{Purpose: jwt.PurposePending, PendingEmail: email}, opts, 0)
}

// ClearPending removes the pending verification cookie.
func ClearPending(w http.ResponseWriter, opts jwt.CookieOptions) {
	jwt.ClearCookie(w, PendingCookie, opts)
}
