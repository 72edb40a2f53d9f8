/*
Package handler provides the HTTP handlers and routing of the web client.

Every screen handler follows the same shape: read the session placed in the request
context by the session middleware, validate input before any remote call, drive the
marketplace API through the session store or client, then render a page or redirect.
*/
package handler

import (
	"context"
	"net/http"
	"strings"

	"arzweb/internal/app/api"
	"arzweb/internal/app/cooldown"
	"arzweb/internal/app/market"
	"arzweb/internal/app/session"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/req"
	"arzweb/internal/pkg/resp"
	"arzweb/internal/ui"
)

const maxAuthForm = 16 << 10

type loginView struct {
	Next     string
	Nickname string
	Cooldown int
}

type registerView struct {
	Nickname string
	Email    string
	Cooldown int
}

type verifyView struct {
	Email          string
	Code           string
	VerifyCooldown int
	ResendCooldown int
}

// submit runs fn as one submission of action: a second concurrent submission is
// refused, and actions with a configured cooldown are rate limited.
func submit(ctx context.Context, s *session.Session, action session.Action, fn func(context.Context) error) *errs.CustomError {
	done, ok := s.BeginSubmit(action)
	if !ok {
		return errs.NewError(errs.ErrAlreadySubmitting)
	}
	defer done()

	if _, limited := session.Cooldowns[action]; !limited {
		return api.AsCustomError(fn(ctx))
	}

	res := cooldown.Execute(ctx, s.Cooldown(action), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if res.RateLimited {
		return errs.NewError(errs.ErrCooldown, res.Remaining)
	}
	return api.AsCustomError(res.Err)
}

func (deps *AppDeps) authPage(r *http.Request, title string) (*session.Session, ui.Page) {
	s, _ := current(r)
	p := deps.page(r, title)
	p.HideNav = true
	p.Snow = true
	return s, p
}

// HandleLoginPage renders the sign-in form.
func HandleLoginPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, p := deps.authPage(r, "Sign in")
		p.Live = liveActions(session.ActionLogin)
		p.Data = loginView{
			Next:     r.URL.Query().Get("next"),
			Cooldown: s.Cooldown(session.ActionLogin).Remaining(),
		}
		deps.render(w, r, http.StatusOK, "auth", p)
	}
}

// HandleLogin signs the session in and returns to the remembered location.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, p := deps.authPage(r, "Sign in")
		p.Live = liveActions(session.ActionLogin)
		p.Data = loginView{Cooldown: s.Cooldown(session.ActionLogin).Remaining()}

		if customErr := req.SetupMultipart(w, r, maxAuthForm); customErr != nil {
			deps.fail(w, r, "auth", p, customErr)
			return
		}

		nickname := strings.TrimSpace(r.FormValue("nickname"))
		password := r.FormValue("password")
		next := r.FormValue("next")

		customErr := market.ValidateLogin(nickname, password)
		if customErr == nil {
			customErr = submit(r.Context(), s, session.ActionLogin, func(ctx context.Context) error {
				return deps.Store.Login(ctx, s, nickname, password)
			})
		}
		if customErr != nil {
			logger(r).Info().Int("code", customErr.Code).Msg("Login rejected")
			p.Data = loginView{Next: next, Nickname: nickname, Cooldown: s.Cooldown(session.ActionLogin).Remaining()}
			deps.fail(w, r, "auth", p, customErr)
			return
		}

		session.ClearPending(w, deps.Cookie)
		resp.Redirect(w, r, safeNext(next))
	}
}

// HandleRegisterPage renders the registration form.
func HandleRegisterPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, p := deps.authPage(r, "Register")
		p.Live = liveActions(session.ActionRegister)
		p.Data = registerView{Cooldown: s.Cooldown(session.ActionRegister).Remaining()}
		deps.render(w, r, http.StatusOK, "register", p)
	}
}

// HandleRegister creates the account. When the API asks for email verification the
// pending address is remembered for this browser session.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, p := deps.authPage(r, "Register")
		p.Live = liveActions(session.ActionRegister)
		p.Data = registerView{Cooldown: s.Cooldown(session.ActionRegister).Remaining()}

		if customErr := req.SetupMultipart(w, r, maxAuthForm); customErr != nil {
			deps.fail(w, r, "register", p, customErr)
			return
		}

		in := market.Registration{
			Nickname: strings.TrimSpace(r.FormValue("nickname")),
			Email:    strings.TrimSpace(r.FormValue("email")),
			Password: r.FormValue("password"),
			Confirm:  r.FormValue("confirm"),
		}

		var pending bool
		customErr := in.Validate()
		if customErr == nil {
			customErr = submit(r.Context(), s, session.ActionRegister, func(ctx context.Context) error {
				var err error
				pending, err = deps.Store.Register(ctx, s, in)
				return err
			})
		}
		if customErr != nil {
			p.Data = registerView{Nickname: in.Nickname, Email: in.Email, Cooldown: s.Cooldown(session.ActionRegister).Remaining()}
			deps.fail(w, r, "register", p, customErr)
			return
		}

		if pending {
			if err := session.WritePending(w, in.Email, deps.Cookie); err != nil {
				logger(r).Error().Err(err).Msg("Failed to write pending verification cookie")
			}
			redirectFlash(w, r, s, flashSuccess, "Check your inbox for the confirmation code.", "/verify-email")
			return
		}

		session.ClearPending(w, deps.Cookie)
		resp.Redirect(w, r, "/feed")
	}
}

func (deps *AppDeps) verifyView(s *session.Session, email, code string) verifyView {
	return verifyView{
		Email:          email,
		Code:           code,
		VerifyCooldown: s.Cooldown(session.ActionVerify).Remaining(),
		ResendCooldown: s.Cooldown(session.ActionResend).Remaining(),
	}
}

// HandleVerifyPage renders the code form for the pending email.
func HandleVerifyPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, p := deps.authPage(r, "Confirm email")
		_, snap := current(r)
		p.Live = liveActions(session.ActionVerify, session.ActionResend)
		p.Data = deps.verifyView(s, snap.PendingVerificationEmail, "")
		deps.render(w, r, http.StatusOK, "verify", p)
	}
}

// HandleVerify confirms the code and signs the new account in.
func HandleVerify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, p := deps.authPage(r, "Confirm email")
		_, snap := current(r)
		email := snap.PendingVerificationEmail
		p.Live = liveActions(session.ActionVerify, session.ActionResend)

		if customErr := req.SetupMultipart(w, r, maxAuthForm); customErr != nil {
			p.Data = deps.verifyView(s, email, "")
			deps.fail(w, r, "verify", p, customErr)
			return
		}

		code := strings.TrimSpace(r.FormValue("code"))
		_, customErr := market.ValidateVerifyCode(code)
		if customErr == nil {
			customErr = submit(r.Context(), s, session.ActionVerify, func(ctx context.Context) error {
				return deps.Store.Verify(ctx, s, email, code)
			})
		}
		if customErr != nil {
			p.Data = deps.verifyView(s, email, code)
			deps.fail(w, r, "verify", p, customErr)
			return
		}

		session.ClearPending(w, deps.Cookie)
		redirectFlash(w, r, s, flashSuccess, "Your email is confirmed.", "/feed")
	}
}

// HandleResendCode asks the API for a new verification email.
func HandleResendCode(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, snap := current(r)

		customErr := submit(r.Context(), s, session.ActionResend, func(ctx context.Context) error {
			return deps.Store.ResendCode(ctx, s, snap.PendingVerificationEmail)
		})
		if customErr != nil {
			failRedirect(w, r, s, customErr, "/verify-email")
			return
		}
		redirectFlash(w, r, s, flashSuccess, "A new code has been sent.", "/verify-email")
	}
}

// HandleLogout always ends anonymous, whatever the API answers.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)

		deps.Store.Logout(r.Context(), s)
		deps.discardPreviews(r, s)
		deps.Live.Kick(s.ID, "signed out")
		session.ClearPending(w, deps.Cookie)

		resp.Redirect(w, r, "/auth")
	}
}
