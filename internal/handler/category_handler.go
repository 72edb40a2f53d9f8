package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"arzweb/internal/app/api"
	"arzweb/internal/app/market"
	"arzweb/internal/app/paging"
	"arzweb/internal/app/session"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/req"
	"arzweb/internal/ui"
)

// maxListingForm leaves room for the form fields next to a 10 MB image.
const maxListingForm = 12 << 20

// listingForm holds the raw values of the create and edit forms so a rejected
// submission is shown again as typed.
type listingForm struct {
	Server      string
	Type        string
	Title       string
	Description string
	Currency    string
	Price       string
	HoursLimit  string
}

// editorView feeds the "listing_fields" partial.
type editorView struct {
	Form       listingForm
	Servers    []string
	Types      []market.ListingType
	Currencies []market.Currency
}

type categoryView struct {
	Category   market.Category
	Count      int
	Servers    []string
	Types      []market.ListingType
	Currencies []market.Currency
	SortKeys   []market.SortKey
	Filters    api.ListQuery
	PriceMin   string
	PriceMax   string
	Grid       gridView
	FormOpen   bool
	Editor     editorView
	Cooldown   int
}

func newEditor(c market.Category, form listingForm) editorView {
	if !market.IsServer(form.Server) {
		form.Server = market.DefaultServer
	}
	return editorView{
		Form:       form,
		Servers:    market.Servers,
		Types:      c.AllowedTypes(),
		Currencies: market.AvailableCurrencies(form.Server),
	}
}

func listingFormFrom(r *http.Request) listingForm {
	return listingForm{
		Server:      strings.TrimSpace(r.FormValue("server")),
		Type:        strings.TrimSpace(r.FormValue("type")),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Currency:    strings.TrimSpace(r.FormValue("currency")),
		Price:       strings.TrimSpace(r.FormValue("price")),
		HoursLimit:  strings.TrimSpace(r.FormValue("hours_limit")),
	}
}

// parseFilters reads the filter form. Unknown values fall back to "no filter".
func parseFilters(c market.Category, q url.Values) api.ListQuery {
	f := api.ListQuery{
		Category: c,
		Server:   q.Get("server"),
		Sort:     market.ParseSortKey(q.Get("sort")),
		PriceMin: parseAmount(q.Get("price_min")),
		PriceMax: parseAmount(q.Get("price_max")),
	}
	if !market.IsServer(f.Server) {
		f.Server = market.DefaultServer
	}
	if t, ok := market.ParseListingType(q.Get("type")); ok && c.Allows(t) {
		f.Type = t
	}
	if cur := market.Currency(q.Get("currency")); market.CurrencyAvailable(f.Server, cur) {
		f.Currency = cur
	}
	return f
}

// parseAmount reads a price bound. Anything but plain digits means no bound.
func parseAmount(raw string) int64 {
	raw = strings.TrimSpace(raw)
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func formatAmount(n int64) string {
	if n <= 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func (deps *AppDeps) categoryFetcher(s *session.Session) pageFetcher[api.ListQuery] {
	return func(ctx context.Context, t paging.Ticket[api.ListQuery]) ([]market.Listing, error) {
		return deps.API.ListAds(ctx, s, t.Filters, t.Offset, t.Limit)
	}
}

// categoryPage resets the category pager to filters and loads the first page and the
// total count side by side.
func (deps *AppDeps) categoryPage(r *http.Request, c market.Category, filters api.ListQuery, form listingForm) ui.Page {
	s, _ := current(r)
	p := deps.page(r, c.Title())
	p.Live = liveActions(session.ActionCreateListing)
	p.FormToken = deps.issueFormToken(r, s)

	pager := s.CategoryPager(c)
	ticket := pager.Reset(filters)

	var (
		listings []market.Listing
		count    int
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		listings, err = loadPage(ctx, s, pager, ticket, deps.categoryFetcher(s))
		return err
	})
	g.Go(func() error {
		n, err := deps.API.AdCount(ctx, s, c)
		if err != nil {
			logger(r).Warn().Err(err).Str("category", string(c)).Msg("Failed to load listing count")
			return nil
		}
		count = n
		return nil
	})
	if err := g.Wait(); err != nil {
		logger(r).Warn().Err(err).Str("category", string(c)).Msg("Failed to load listings")
		p.Error = api.AsCustomError(err).Message
	}

	if form.Server == "" {
		form.Server = filters.Server
	}

	p.Data = categoryView{
		Category:   c,
		Count:      count,
		Servers:    market.Servers,
		Types:      c.AllowedTypes(),
		Currencies: market.AvailableCurrencies(filters.Server),
		SortKeys:   market.SortKeys,
		Filters:    filters,
		PriceMin:   formatAmount(filters.PriceMin),
		PriceMax:   formatAmount(filters.PriceMax),
		Grid: gridView{
			MoreURL:  "/c/" + string(c) + "/more",
			HasMore:  p.Error == "" && pager.State().HasMore,
			Listings: listings,
		},
		Editor:   newEditor(c, form),
		Cooldown: s.ListingCooldown().Remaining(),
	}
	return p
}

func categoryParam(r *http.Request) (market.Category, bool) {
	return market.ParseCategory(chi.URLParam(r, "category"))
}

// HandleCategory renders a category with the filters of the query string.
// Every visit starts again at offset 0.
func HandleCategory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := categoryParam(r)
		if !ok {
			deps.renderError(w, r, errs.NewError(errs.ErrCategoryInvalid))
			return
		}

		p := deps.categoryPage(r, c, parseFilters(c, r.URL.Query()), listingForm{})
		deps.render(w, r, http.StatusOK, "category", p)
	}
}

// HandleCategoryMore appends the next page for the filters the category was opened with.
func HandleCategoryMore(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := categoryParam(r)
		if !ok {
			deps.renderError(w, r, errs.NewError(errs.ErrCategoryInvalid))
			return
		}
		s, _ := current(r)
		respondMore(deps, w, r, s.CategoryPager(c), deps.categoryFetcher(s))
	}
}

// uploadedImage reads an optional image field and inspects it for validation.
func uploadedImage(r *http.Request, field string) (*req.Upload, *market.ImageInfo, *errs.CustomError) {
	up, customErr := req.FormFile(r, field)
	if customErr != nil || up == nil {
		return nil, nil, customErr
	}
	info := market.InspectImage(up.Data, up.ContentType)
	return up, &info, nil
}

func apiFile(up *req.Upload, info *market.ImageInfo) api.File {
	return api.File{Name: up.Filename, ContentType: info.ContentType, Data: up.Data}
}

// HandleCreateListing validates and publishes a listing, then starts the creation cooldown.
func HandleCreateListing(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := categoryParam(r)
		if !ok {
			deps.renderError(w, r, errs.NewError(errs.ErrCategoryInvalid))
			return
		}
		s, snap := current(r)

		filters := s.CategoryPager(c).Filters()
		if filters.Category != c {
			filters = parseFilters(c, nil)
		}

		var form listingForm
		failWith := func(customErr *errs.CustomError) {
			p := deps.categoryPage(r, c, filters, form)
			view := p.Data.(categoryView)
			view.FormOpen = true
			p.Data = view
			deps.fail(w, r, "category", p, customErr)
		}

		if customErr := req.SetupMultipart(w, r, maxListingForm); customErr != nil {
			failWith(customErr)
			return
		}
		form = listingFormFrom(r)

		if customErr := deps.consumeFormToken(r, s); customErr != nil {
			failWith(customErr)
			return
		}

		if cd := s.ListingCooldown(); cd.OnCooldown() {
			failWith(errs.NewError(errs.ErrListingCooldown, cd.Remaining()))
			return
		}

		up, info, customErr := uploadedImage(r, "image")
		if customErr != nil {
			failWith(customErr)
			return
		}

		draft := market.ListingDraft{
			Category:    c,
			Server:      form.Server,
			Type:        form.Type,
			Title:       form.Title,
			Description: form.Description,
			Currency:    form.Currency,
			Price:       form.Price,
			HoursLimit:  form.HoursLimit,
			Image:       info,
		}
		in, customErr := draft.Validate(true)
		if customErr != nil {
			failWith(customErr)
			return
		}

		customErr = submit(r.Context(), s, session.ActionCreateListing, func(ctx context.Context) error {
			return deps.API.CreateAd(ctx, s, api.NewAd{
				ListingInput: in,
				Nickname:     snap.Nickname(),
				Image:        apiFile(up, info),
			})
		})
		if customErr != nil {
			logger(r).Warn().Int("code", customErr.Code).Str("category", string(c)).Msg("Listing creation failed")
			failWith(customErr)
			return
		}

		s.ListingCooldown().Start()
		logger(r).Info().Str("category", string(c)).Str("server", in.Server).Msg("Listing created")

		filters.Server = in.Server
		redirectFlash(w, r, s, flashSuccess, "Your listing is published.", "/c/"+string(c)+"?"+filterQuery(filters).Encode())
	}
}

// filterQuery is the inverse of parseFilters.
func filterQuery(f api.ListQuery) url.Values {
	v := url.Values{}
	v.Set("server", f.Server)
	v.Set("sort", string(f.Sort))
	if f.Type != "" {
		v.Set("type", string(f.Type))
	}
	if f.Currency != "" {
		v.Set("currency", string(f.Currency))
	}
	if f.PriceMin > 0 {
		v.Set("price_min", formatAmount(f.PriceMin))
	}
	if f.PriceMax > 0 {
		v.Set("price_max", formatAmount(f.PriceMax))
	}
	return v
}
