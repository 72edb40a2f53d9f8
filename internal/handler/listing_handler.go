package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"arzweb/internal/app/api"
	"arzweb/internal/app/market"
	"arzweb/internal/app/session"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/req"
)

const (
	maxReportForm     = 16 << 10
	sideEffectTimeout = 10 * time.Second
)

type listingView struct {
	Listing       market.Listing
	Owner         bool
	ReportReasons []string
}

// findListing looks the listing up in the session cache, then in the viewer's
// viewed list and own listings. The API has no single-listing endpoint.
func (deps *AppDeps) findListing(ctx context.Context, s *session.Session, nickname string, id int64) (market.Listing, bool) {
	if l, ok := s.Listing(id); ok {
		return l, true
	}

	if viewed, err := deps.API.ViewedAds(ctx, s); err == nil {
		for _, v := range viewed {
			if v.Listing != nil && v.Listing.ID == id {
				s.Remember(*v.Listing)
				return *v.Listing, true
			}
		}
	}

	if own, err := deps.API.UserListings(ctx, s, nickname); err == nil {
		s.Remember(own...)
		for _, l := range own {
			if l.ID == id {
				return l, true
			}
		}
	}
	return market.Listing{}, false
}

// recordView bumps the view counter and the viewed list without delaying the page.
// Failures are only logged.
func (deps *AppDeps) recordView(r *http.Request, s *session.Session, id int64, authenticated bool) {
	log := logger(r).With().Int64("ad_id", id).Logger()
	ctx := context.WithoutCancel(r.Context())

	go func() {
		ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		defer cancel()

		if err := deps.API.ViewAd(ctx, s, id); err != nil {
			log.Warn().Err(err).Msg("Failed to record listing view")
		}
		if !authenticated {
			return
		}
		if err := deps.API.AddViewedAd(ctx, s, id); err != nil {
			log.Warn().Err(err).Msg("Failed to add listing to viewed list")
		}
	}()
}

// HandleListing renders the detail view of a listing.
func HandleListing(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			deps.renderError(w, r, errs.NewError(errs.ErrListingNotFound))
			return
		}
		s, snap := current(r)

		l, found := deps.findListing(r.Context(), s, snap.Nickname(), id)
		if !found {
			deps.renderError(w, r, errs.NewError(errs.ErrListingNotFound))
			return
		}

		deps.recordView(r, s, id, snap.Authenticated())

		p := deps.page(r, l.Title)
		p.FormToken = deps.issueFormToken(r, s)
		p.Data = listingView{
			Listing:       l,
			Owner:         l.OwnedBy(snap.Nickname()),
			ReportReasons: market.ReportReasons,
		}
		deps.render(w, r, http.StatusOK, "listing", p)
	}
}

// HandleReport forwards a report about a listing to the moderators.
func HandleReport(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			deps.renderError(w, r, errs.NewError(errs.ErrListingNotFound))
			return
		}
		s, _ := current(r)
		back := "/ads/" + strconv.FormatInt(id, 10)

		if customErr := req.SetupMultipart(w, r, maxReportForm); customErr != nil {
			failRedirect(w, r, s, customErr, back)
			return
		}
		if customErr := deps.consumeFormToken(r, s); customErr != nil {
			failRedirect(w, r, s, customErr, back)
			return
		}

		description, customErr := market.ValidateReport(strings.TrimSpace(r.FormValue("reason")), r.FormValue("description"))
		if customErr != nil {
			failRedirect(w, r, s, customErr, back)
			return
		}

		report := api.ReportRequest{AdID: id, Reason: strings.TrimSpace(r.FormValue("reason"))}
		if description != "" {
			report.Description = &description
		}

		customErr = submit(r.Context(), s, session.ActionReport, func(ctx context.Context) error {
			return deps.API.Report(ctx, s, report)
		})
		if customErr != nil {
			failRedirect(w, r, s, customErr, back)
			return
		}

		logger(r).Info().Int64("ad_id", id).Str("reason", report.Reason).Msg("Listing reported")
		redirectFlash(w, r, s, flashSuccess, "Thank you. The report was sent to the moderators.", back)
	}
}
