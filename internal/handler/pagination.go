package handler

import (
	"context"
	"net/http"

	"arzweb/internal/app/api"
	"arzweb/internal/app/market"
	"arzweb/internal/app/paging"
	"arzweb/internal/app/session"
	"arzweb/internal/pkg/resp"
)

// gridView feeds the "listing_grid" partial.
type gridView struct {
	MoreURL  string
	HasMore  bool
	Listings []market.Listing
}

// morePayload is the answer to a scroll-triggered page request.
type morePayload struct {
	HTML    string `json:"html"`
	HasMore bool   `json:"hasMore"`
}

type pageFetcher[F comparable] func(ctx context.Context, t paging.Ticket[F]) ([]market.Listing, error)

// loadPage runs fetch for t and records the outcome on the pager. A response that
// belongs to an older filter generation is dropped and yields nil without error.
func loadPage[F comparable](ctx context.Context, s *session.Session, p *paging.Pager[F], t paging.Ticket[F], fetch pageFetcher[F]) ([]market.Listing, error) {
	listings, err := fetch(ctx, t)
	if err != nil {
		p.Fail(t)
		return nil, err
	}
	if !p.Complete(t, len(listings)) {
		return nil, nil
	}
	s.Remember(listings...)
	return listings, nil
}

// respondMore serves the next page of p as rendered cards. Nothing is fetched while
// another page is in flight or after the end of the list was reached.
func respondMore[F comparable](deps *AppDeps, w http.ResponseWriter, r *http.Request, p *paging.Pager[F], fetch pageFetcher[F]) {
	s, _ := current(r)

	t, ok := p.Next()
	if !ok {
		resp.RespondSuccess(w, r, morePayload{HasMore: p.State().HasMore})
		return
	}

	listings, err := loadPage(r.Context(), s, p, t, fetch)
	if err != nil {
		logger(r).Warn().Err(err).Int("offset", t.Offset).Msg("Failed to load next page")
		resp.RespondError(w, r, api.AsCustomError(err))
		return
	}

	html := ""
	if len(listings) > 0 {
		if html, err = deps.Renderer.Fragment("listing_cards", listings); err != nil {
			logger(r).Error().Err(err).Msg("Failed to render listing cards")
		}
	}
	resp.RespondSuccess(w, r, morePayload{HTML: html, HasMore: p.State().HasMore})
}
