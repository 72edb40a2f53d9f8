package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"arzweb/internal/app/cooldown"
	"arzweb/internal/app/live"
	"arzweb/internal/app/session"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/resp"
)

// newUpgrader accepts same-origin pages, the configured origins, and anything in development.
func newUpgrader(deps *AppDeps) websocket.Upgrader {
	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" || strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://") == r.Host {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logger(r).Warn().Str("origin", origin).Msg("Live connection rejected: Origin not allowed.")
			return false
		},
	}
}

// sessionResolver exposes the cooldowns of s by action name.
func sessionResolver(s *session.Session) live.Resolver {
	return func(action string) (*cooldown.Limiter, bool) {
		a := session.Action(action)
		if a == session.ActionCreateListing {
			return s.ListingCooldown(), true
		}
		if _, ok := session.Cooldowns[a]; ok {
			return s.Cooldown(a), true
		}
		return nil, false
	}
}

// HandleLive upgrades the connection that streams cooldown countdowns to the page.
// The first action comes from the query, more can be watched over the socket.
func HandleLive(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)
		action := r.URL.Query().Get("action")

		if _, ok := sessionResolver(s)(action); !ok {
			logger(r).Warn().Str("action", action).Msg("Live request rejected: Unknown action")
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger(r).Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}

		client := live.NewClient(deps.Live, s.ID, conn, sessionResolver(s))
		if !deps.Live.Register(client) {
			conn.Close()
			return
		}

		go client.WritePump()

		if customErr := client.Watch(action); customErr != nil {
			client.Close()
		}
		logger(r).Debug().Str("action", action).Msg("Live connection established")

		client.ReadPump()
	}
}
