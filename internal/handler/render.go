package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"arzweb/internal/app/session"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/logx"
	"arzweb/internal/pkg/resp"
	"arzweb/internal/ui"
)

const (
	flashSuccess = "success"
	flashError   = "error"
)

type snapshotKey struct{}

func withSnapshot(ctx context.Context, snap session.Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey{}, snap)
}

// current returns the request's session and the snapshot the guard decided on.
func current(r *http.Request) (*session.Session, session.Snapshot) {
	s := session.FromContext(r.Context())
	if snap, ok := r.Context().Value(snapshotKey{}).(session.Snapshot); ok {
		return s, snap
	}
	if s == nil {
		return nil, session.Snapshot{}
	}
	return s, s.Snapshot()
}

func logger(r *http.Request) *zerolog.Logger {
	return logx.FromContext(r.Context())
}

// page prepares the common part of a rendered page and pops the pending flash.
func (deps *AppDeps) page(r *http.Request, title string) ui.Page {
	s, snap := current(r)
	p := ui.Page{
		Title: title,
		Path:  r.URL.Path,
		Theme: snap.ThemeClass(),
		User:  snap.User,
	}
	if s != nil {
		if f := s.TakeFlash(); f != nil {
			p.Toast = &ui.Toast{Kind: f.Kind, Message: f.Message}
		}
	}
	return p
}

func (deps *AppDeps) render(w http.ResponseWriter, r *http.Request, status int, name string, p ui.Page) {
	if err := deps.Renderer.Render(w, status, name, p); err != nil {
		logger(r).Error().Err(err).Str("page", name).Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type errorView struct {
	Status  int
	Message string
}

// renderError shows a full-page error, or the JSON envelope to script callers.
func (deps *AppDeps) renderError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if resp.WantsJSON(r) {
		resp.RespondError(w, r, customErr)
		return
	}

	status := errorStatus(customErr)
	if status == http.StatusOK {
		status = http.StatusBadGateway
	}
	p := deps.page(r, "Error")
	p.Data = errorView{Status: status, Message: customErr.Message}
	deps.render(w, r, status, "error", p)
}

// fail re-renders the form page with the error shown inline. The view model in p
// still carries the submitted values.
func (deps *AppDeps) fail(w http.ResponseWriter, r *http.Request, name string, p ui.Page, customErr *errs.CustomError) {
	if resp.WantsJSON(r) {
		resp.RespondError(w, r, customErr)
		return
	}
	p.Error = customErr.Message
	deps.render(w, r, errorStatus(customErr), name, p)
}

func errorStatus(customErr *errs.CustomError) int {
	if customErr == nil || customErr.Status < http.StatusBadRequest {
		return http.StatusOK
	}
	return customErr.Status
}

// redirectFlash stores a toast for the next page and redirects there.
func redirectFlash(w http.ResponseWriter, r *http.Request, s *session.Session, kind, message, location string) {
	s.SetFlash(kind, message)
	resp.Redirect(w, r, location)
}

// failRedirect reports the error on the page the browser returns to. It is used by
// small forms that have no page of their own.
func failRedirect(w http.ResponseWriter, r *http.Request, s *session.Session, customErr *errs.CustomError, location string) {
	if resp.WantsJSON(r) {
		resp.RespondError(w, r, customErr)
		return
	}
	redirectFlash(w, r, s, flashError, customErr.Message, location)
}

func liveActions(actions ...session.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}

// idParam parses a positive numeric route parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
