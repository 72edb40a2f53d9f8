package handler

import (
	"context"
	"net/http"

	"arzweb/internal/app/api"
	"arzweb/internal/app/market"
	"arzweb/internal/app/session"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/req"
	"arzweb/internal/pkg/resp"
)

type profileView struct {
	User              market.User
	Background        string
	BackgroundPreview string
	ConfirmDelete     bool
	Tab               string
	TabError          string
	Listings          []market.Listing
	Reviews           []market.Feedback
	Viewed            []api.ViewedListing
}

const (
	tabListings = "listings"
	tabReviews  = "reviews"
	tabViewed   = "viewed"
)

func profileTab(raw string) string {
	switch raw {
	case tabReviews, tabViewed:
		return raw
	default:
		return tabListings
	}
}

// HandleProfile renders the viewer's profile with one of its three tabs loaded.
func HandleProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, snap := current(r)
		q := r.URL.Query()

		view := profileView{
			User:          *snap.User,
			Background:    snap.User.Background,
			ConfirmDelete: q.Get("background") == "confirm",
			Tab:           profileTab(q.Get("tab")),
		}
		if u := deps.previewURL(r, s, session.PreviewBackground); u != "" {
			view.Background = u
			view.BackgroundPreview = u
		}

		var err error
		switch view.Tab {
		case tabReviews:
			view.Reviews, err = deps.API.Feedback(r.Context(), s, snap.Nickname())
		case tabViewed:
			view.Viewed, err = deps.API.ViewedAds(r.Context(), s)
			for _, v := range view.Viewed {
				if v.Listing != nil {
					s.Remember(*v.Listing)
				}
			}
		default:
			view.Listings, err = deps.API.UserListings(r.Context(), s, snap.Nickname())
			s.Remember(view.Listings...)
		}
		if err != nil {
			logger(r).Warn().Err(err).Str("tab", view.Tab).Msg("Failed to load profile tab")
			view.TabError = api.AsCustomError(err).Message
		}

		p := deps.page(r, snap.Nickname())
		p.Data = view
		deps.render(w, r, http.StatusOK, "profile", p)
	}
}

// HandleBackgroundUpload stages a new background so the profile can preview it.
func HandleBackgroundUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)

		if customErr := setupUpload(w, r, market.BackgroundRule); customErr != nil {
			failRedirect(w, r, s, customErr, "/profile")
			return
		}
		if customErr := deps.stageUpload(r, s, session.PreviewBackground, "background", market.BackgroundRule); customErr != nil {
			failRedirect(w, r, s, customErr, "/profile")
			return
		}
		resp.Redirect(w, r, "/profile")
	}
}

// HandleBackgroundCommit uploads the staged background to the marketplace.
func HandleBackgroundCommit(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)

		customErr := deps.commitPreview(r, s, session.PreviewBackground, session.ActionBackground, func(ctx context.Context, f api.File) error {
			return deps.API.UpdateBackground(ctx, s, f)
		})
		if customErr != nil {
			failRedirect(w, r, s, customErr, "/profile")
			return
		}

		deps.Store.Reload(r.Context(), s)
		redirectFlash(w, r, s, flashSuccess, "Background updated.", "/profile")
	}
}

// HandleBackgroundCancel drops the staged background.
func HandleBackgroundCancel(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)
		deps.cancelPreview(r, s, session.PreviewBackground)
		resp.Redirect(w, r, "/profile")
	}
}

// HandleBackgroundDelete removes the current background after confirmation.
func HandleBackgroundDelete(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, snap := current(r)

		if customErr := req.SetupMultipart(w, r, maxReportForm); customErr != nil {
			failRedirect(w, r, s, customErr, "/profile")
			return
		}
		if !req.Checked(r, "confirm") {
			resp.Redirect(w, r, "/profile?background=confirm")
			return
		}
		if snap.User.Background == "" {
			failRedirect(w, r, s, errs.NewError(errs.ErrBackgroundMissing), "/profile")
			return
		}

		customErr := submit(r.Context(), s, session.ActionBackground, func(ctx context.Context) error {
			return deps.API.DeleteBackground(ctx, s)
		})
		if customErr != nil {
			failRedirect(w, r, s, customErr, "/profile")
			return
		}

		deps.Store.Reload(r.Context(), s)
		redirectFlash(w, r, s, flashSuccess, "Background removed.", "/profile")
	}
}
