package handler

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"arzweb/internal/app/api"
	"arzweb/internal/app/market"
	"arzweb/internal/app/session"
	"arzweb/internal/app/storage"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/randx"
	"arzweb/internal/pkg/req"
)

const previewURLTTL = 15 * time.Minute

// stageUpload validates the image of field against rule and stages it in slot,
// replacing any earlier staged image. The profile shows it until it is committed.
func (deps *AppDeps) stageUpload(r *http.Request, s *session.Session, slot session.PreviewSlot, field string, rule market.ImageRule) *errs.CustomError {
	up, info, customErr := uploadedImage(r, field)
	if customErr != nil {
		return customErr
	}
	if up == nil {
		return errs.NewError(errs.ErrImageRequired)
	}
	if customErr := rule.Check(*info); customErr != nil {
		return customErr
	}

	key := randx.PreviewKey(s.ID, path.Ext(up.Filename))
	if err := deps.Previews.Put(r.Context(), key, info.ContentType, up.Data); err != nil {
		logger(r).Error().Err(err).Str("key", key).Msg("Failed to stage preview")
		return errs.NewError(errs.ErrPreviewStorageFailed)
	}

	if old := s.SetPreview(slot, key); old != "" {
		deps.deletePreview(r, old)
	}
	logger(r).Debug().Str("slot", string(slot)).Str("key", key).Msg("Preview staged")
	return nil
}

// commitPreview uploads the staged image of slot through upload. On failure the
// preview stays staged so the user can retry.
func (deps *AppDeps) commitPreview(r *http.Request, s *session.Session, slot session.PreviewSlot, action session.Action, upload func(context.Context, api.File) error) *errs.CustomError {
	key := s.TakePreview(slot)
	if key == "" {
		return errs.NewError(errs.ErrImageRequired)
	}

	obj, err := deps.Previews.Get(r.Context(), key)
	if err != nil {
		logger(r).Warn().Err(err).Str("key", key).Msg("Staged preview is gone")
		return errs.NewError(errs.ErrImageRequired)
	}

	customErr := submit(r.Context(), s, action, func(ctx context.Context) error {
		return upload(ctx, api.File{Name: path.Base(obj.Key), ContentType: obj.ContentType, Data: obj.Data})
	})
	if customErr != nil {
		s.SetPreview(slot, key)
		return customErr
	}

	deps.deletePreview(r, key)
	return nil
}

func (deps *AppDeps) cancelPreview(r *http.Request, s *session.Session, slot session.PreviewSlot) {
	if key := s.TakePreview(slot); key != "" {
		deps.deletePreview(r, key)
	}
}

// discardPreviews drops every staged image of the session.
func (deps *AppDeps) discardPreviews(r *http.Request, s *session.Session) {
	deps.cancelPreview(r, s, session.PreviewAvatar)
	deps.cancelPreview(r, s, session.PreviewBackground)
}

func (deps *AppDeps) deletePreview(r *http.Request, key string) {
	if err := deps.Previews.Delete(context.WithoutCancel(r.Context()), key); err != nil {
		logger(r).Warn().Err(err).Str("key", key).Msg("Failed to delete staged preview")
	}
}

// previewURL returns where the browser loads the staged image of slot, or "".
func (deps *AppDeps) previewURL(r *http.Request, s *session.Session, slot session.PreviewSlot) string {
	key := s.Preview(slot)
	if key == "" {
		return ""
	}
	u, err := deps.Previews.URL(r.Context(), key, previewURLTTL)
	if err != nil {
		logger(r).Warn().Err(err).Str("key", key).Msg("Failed to build preview url")
		return ""
	}
	return u
}

// HandlePreview serves staged images of the in-memory store. A session only sees its own.
func HandlePreview(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)
		key := chi.URLParam(r, "*")

		if s == nil || !strings.HasPrefix(key, "previews/"+s.ID+"/") {
			http.NotFound(w, r)
			return
		}

		obj, err := deps.Previews.Get(r.Context(), key)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				logger(r).Error().Err(err).Str("key", key).Msg("Failed to read preview")
			}
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", obj.ContentType)
		w.Header().Set("Cache-Control", "private, no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Write(obj.Data)
	}
}

// setupUpload parses a single-image form.
func setupUpload(w http.ResponseWriter, r *http.Request, rule market.ImageRule) *errs.CustomError {
	return req.SetupMultipart(w, r, int64(rule.MaxMB+1)<<20)
}
