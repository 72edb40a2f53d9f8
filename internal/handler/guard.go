package handler

import (
	"net/http"
	"net/url"
	"strings"

	"arzweb/internal/app/session"
	"arzweb/internal/pkg/resp"
	"arzweb/internal/ui"
)

// Guard decides whether a screen renders for the current session or the browser
// is sent elsewhere. While the session is still loading a placeholder is shown.
type Guard struct {
	Name     string
	Allow    func(snap session.Snapshot) bool
	Redirect func(snap session.Snapshot, r *http.Request) string
}

// PublicOnly keeps signed-in users away from the auth screens.
var PublicOnly = Guard{
	Name:  "public",
	Allow: func(snap session.Snapshot) bool { return !snap.Authenticated() },
	Redirect: func(session.Snapshot, *http.Request) string {
		return "/feed"
	},
}

// AuthenticatedOnly sends visitors to the login screen and remembers where they were going.
var AuthenticatedOnly = Guard{
	Name:  "authenticated",
	Allow: func(snap session.Snapshot) bool { return snap.Authenticated() },
	Redirect: func(_ session.Snapshot, r *http.Request) string {
		return "/auth?next=" + url.QueryEscape(r.URL.RequestURI())
	},
}

// PendingVerificationOnly renders only while a registration awaits its email code.
var PendingVerificationOnly = Guard{
	Name:  "pending",
	Allow: func(snap session.Snapshot) bool { return !snap.Authenticated() && snap.PendingVerificationEmail != "" },
	Redirect: func(snap session.Snapshot, _ *http.Request) string {
		if snap.Authenticated() {
			return "/feed"
		}
		return "/auth"
	},
}

// Middleware refreshes the session within the wait budget and applies the guard.
func (g Guard) Middleware(deps *AppDeps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := session.FromContext(r.Context())
			if s == nil {
				resp.Redirect(w, r, "/auth")
				return
			}

			snap := deps.Store.EnsureFresh(r.Context(), s)
			if snap.Status() == session.StatusLoading {
				deps.renderLoading(w, r)
				return
			}

			if !g.Allow(snap) {
				target := g.Redirect(snap, r)
				logger(r).Debug().Str("guard", g.Name).Str("status", snap.Status().String()).Str("redirect", target).Msg("Route guard redirected")
				resp.Redirect(w, r, target)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSnapshot(r.Context(), snap)))
		})
	}
}

func (deps *AppDeps) renderLoading(w http.ResponseWriter, r *http.Request) {
	if resp.WantsJSON(r) {
		resp.RespondJSON(w, r, http.StatusAccepted, resp.JSONResponse{Code: 0, Message: "loading"})
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	_, snap := current(r)
	deps.render(w, r, http.StatusOK, "loading", ui.Page{Title: "Loading", Path: r.URL.Path, Theme: snap.ThemeClass(), HideNav: true})
}

// safeNext accepts only local paths as the post-login destination.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return "/feed"
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return "/feed"
	}
	return next
}
