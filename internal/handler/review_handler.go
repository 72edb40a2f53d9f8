package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"arzweb/internal/app/api"
	"arzweb/internal/app/market"
	"arzweb/internal/app/session"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/ui"
)

var ratingChoices = []int{1, 2, 3, 4, 5}

type reviewView struct {
	Viewed        []api.ViewedListing
	Selected      int64
	RatingChoices []int
	Rating        int
	Text          string
	Cooldown      int
}

// reviewable keeps the viewed entries whose listing is still known and not the viewer's own.
func reviewable(viewed []api.ViewedListing, nickname string) []api.ViewedListing {
	out := viewed[:0:0]
	for _, v := range viewed {
		if v.Listing != nil && !v.Listing.OwnedBy(nickname) {
			out = append(out, v)
		}
	}
	return out
}

func (deps *AppDeps) reviewPage(r *http.Request, viewed []api.ViewedListing, view reviewView) ui.Page {
	s, _ := current(r)
	p := deps.page(r, "Leave a review")
	p.Live = liveActions(session.ActionReview)
	p.FormToken = deps.issueFormToken(r, s)

	view.Viewed = viewed
	view.RatingChoices = ratingChoices
	view.Cooldown = s.Cooldown(session.ActionReview).Remaining()
	p.Data = view
	return p
}

// HandleReviewPage lists the listings the viewer may review.
func HandleReviewPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, snap := current(r)

		viewed, err := deps.API.ViewedAds(r.Context(), s)
		if err != nil {
			deps.renderError(w, r, api.AsCustomError(err))
			return
		}

		selected, _ := strconv.ParseInt(r.URL.Query().Get("ad"), 10, 64)
		view := reviewView{Selected: selected, Rating: 5}
		deps.render(w, r, http.StatusOK, "review", deps.reviewPage(r, reviewable(viewed, snap.Nickname()), view))
	}
}

// HandleSubmitReview sends a review with its proof screenshot for moderation.
func HandleSubmitReview(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, snap := current(r)

		viewed, err := deps.API.ViewedAds(r.Context(), s)
		if err != nil {
			deps.renderError(w, r, api.AsCustomError(err))
			return
		}
		viewed = reviewable(viewed, snap.Nickname())

		view := reviewView{}
		failWith := func(customErr *errs.CustomError) {
			deps.fail(w, r, "review", deps.reviewPage(r, viewed, view), customErr)
		}

		if customErr := setupUpload(w, r, market.ProofImageRule); customErr != nil {
			failWith(customErr)
			return
		}
		view.Selected, _ = strconv.ParseInt(strings.TrimSpace(r.FormValue("ad_id")), 10, 64)
		view.Rating, _ = strconv.Atoi(r.FormValue("rating"))
		view.Text = r.FormValue("text")

		if customErr := deps.consumeFormToken(r, s); customErr != nil {
			failWith(customErr)
			return
		}

		allowed := false
		for _, v := range viewed {
			if v.Listing.ID == view.Selected {
				allowed = true
				break
			}
		}
		if !allowed {
			failWith(errs.NewError(errs.ErrReviewNotAllowed))
			return
		}

		up, info, customErr := uploadedImage(r, "proof")
		if customErr != nil {
			failWith(customErr)
			return
		}

		in, customErr := market.ReviewDraft{
			AdID:   view.Selected,
			Text:   view.Text,
			Rating: r.FormValue("rating"),
			Proof:  info,
		}.Validate()
		if customErr != nil {
			failWith(customErr)
			return
		}

		customErr = submit(r.Context(), s, session.ActionReview, func(ctx context.Context) error {
			return deps.API.SubmitFeedback(ctx, s, in, apiFile(up, info))
		})
		if customErr != nil {
			failWith(customErr)
			return
		}

		logger(r).Info().Int64("ad_id", in.AdID).Int("rating", in.Rating).Msg("Review submitted")
		redirectFlash(w, r, s, flashSuccess, "Thank you. Your review was sent for moderation.", "/reviews/new")
	}
}
