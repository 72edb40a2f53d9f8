package handler

import (
	"context"
	"net/http"

	"arzweb/internal/app/api"
	"arzweb/internal/app/market"
	"arzweb/internal/app/paging"
	"arzweb/internal/app/session"
)

type feedView struct {
	Categories []market.Category
	Grid       gridView
}

func (deps *AppDeps) feedFetcher(s *session.Session) pageFetcher[struct{}] {
	return func(ctx context.Context, t paging.Ticket[struct{}]) ([]market.Listing, error) {
		return deps.API.RandomAds(ctx, s, t.Offset, t.Limit)
	}
}

// HandleFeed renders the first page of random listings and the category tiles.
func HandleFeed(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)
		p := deps.page(r, "Feed")
		p.Snow = true

		pager := s.FeedPager()
		listings, err := loadPage(r.Context(), s, pager, pager.Reset(struct{}{}), deps.feedFetcher(s))
		if err != nil {
			logger(r).Warn().Err(err).Msg("Failed to load feed")
			p.Error = api.AsCustomError(err).Message
		}

		p.Data = feedView{
			Categories: market.Categories,
			Grid:       gridView{MoreURL: "/feed/more", HasMore: err == nil && pager.State().HasMore, Listings: listings},
		}
		deps.render(w, r, http.StatusOK, "feed", p)
	}
}

// HandleFeedMore appends the next page of the feed.
func HandleFeedMore(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := current(r)
		respondMore(deps, w, r, s.FeedPager(), deps.feedFetcher(s))
	}
}
