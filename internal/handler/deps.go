package handler

import (
	"net/http"

	"arzweb/internal/app/api"
	"arzweb/internal/app/live"
	"arzweb/internal/app/session"
	"arzweb/internal/app/storage"
	"arzweb/internal/configs"
	"arzweb/internal/pkg/auth/jwt"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/formtoken"
	"arzweb/internal/ui"
)

// AppDeps holds everything the handlers need.
type AppDeps struct {
	Config   *configs.AppConfig
	API      *api.Client
	Sessions *session.Manager
	Store    *session.Store
	Renderer *ui.Renderer
	Forms    *formtoken.Manager
	Previews storage.Service
	Live     *live.Hub
	Cookie   jwt.CookieOptions
}

// issueFormToken binds a fresh one-time token to the session. A failure leaves the
// form without a token, so its submission is rejected as expired.
func (deps *AppDeps) issueFormToken(r *http.Request, s *session.Session) string {
	token, err := deps.Forms.Issue(s.ID)
	if err != nil {
		logger(r).Error().Err(err).Msg("Failed to issue form token")
		return ""
	}
	return token
}

// consumeFormToken accepts a submission once per rendered form.
func (deps *AppDeps) consumeFormToken(r *http.Request, s *session.Session) *errs.CustomError {
	if !deps.Forms.Consume(s.ID, formtoken.FromRequest(r)) {
		return errs.NewError(errs.ErrFormExpired)
	}
	return nil
}
