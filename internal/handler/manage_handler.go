package handler

import (
	"context"
	"net/http"
	"strconv"

	"arzweb/internal/app/api"
	"arzweb/internal/app/market"
	"arzweb/internal/app/session"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/req"
	"arzweb/internal/ui"
)

type manageView struct {
	Listing       market.Listing
	Editor        editorView
	ConfirmDelete bool
}

// ownListing loads the viewer's listings and picks id. When the API cannot be
// reached the cached copy is used if it belongs to the viewer.
func (deps *AppDeps) ownListing(ctx context.Context, s *session.Session, nickname string, id int64) (market.Listing, *errs.CustomError) {
	own, err := deps.API.UserListings(ctx, s, nickname)
	if err != nil {
		if l, ok := s.Listing(id); ok && l.OwnedBy(nickname) {
			return l, nil
		}
		return market.Listing{}, api.AsCustomError(err)
	}

	for _, l := range own {
		if l.ID == id {
			s.Remember(l)
			return l, nil
		}
	}
	if l, ok := s.Listing(id); ok && !l.OwnedBy(nickname) {
		return market.Listing{}, errs.NewError(errs.ErrNotOwner)
	}
	return market.Listing{}, errs.NewError(errs.ErrListingNotFound)
}

func formFromListing(l market.Listing) listingForm {
	form := listingForm{
		Server:      l.Server,
		Type:        string(l.Type),
		Title:       l.Title,
		Description: l.Description,
		Currency:    string(l.Currency),
	}
	if !l.Negotiable() && l.Price > 0 {
		form.Price = strconv.FormatInt(l.Price, 10)
	}
	if l.RentalHoursLimit > 0 {
		form.HoursLimit = strconv.Itoa(l.RentalHoursLimit)
	}
	return form
}

// applyInput returns l with the validated edit applied, as shown until the API's own copy is loaded.
func applyInput(l market.Listing, in market.ListingInput) market.Listing {
	l.Server = in.Server
	l.Type = in.Type
	l.Title = market.Unsanitize(in.Title)
	l.Description = market.Unsanitize(in.Description)
	l.Currency = in.Currency
	l.Price = in.Price
	l.PricePeriod = in.PricePeriod
	l.RentalHoursLimit = in.HoursLimit
	return l
}

func (deps *AppDeps) managePage(r *http.Request, s *session.Session, l market.Listing, form listingForm, confirmDelete bool) ui.Page {
	p := deps.page(r, "Manage listing")
	p.FormToken = deps.issueFormToken(r, s)
	p.Data = manageView{
		Listing:       l,
		Editor:        newEditor(l.Category, form),
		ConfirmDelete: confirmDelete,
	}
	return p
}

func manageURL(id int64) string {
	return "/manage-ads/" + strconv.FormatInt(id, 10)
}

// HandleManage renders the edit form of one of the viewer's listings.
func HandleManage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			deps.renderError(w, r, errs.NewError(errs.ErrListingNotFound))
			return
		}
		s, snap := current(r)

		l, customErr := deps.ownListing(r.Context(), s, snap.Nickname(), id)
		if customErr != nil {
			deps.renderError(w, r, customErr)
			return
		}

		confirm := r.URL.Query().Get("delete") == "confirm"
		deps.render(w, r, http.StatusOK, "manage", deps.managePage(r, s, l, formFromListing(l), confirm))
	}
}

// HandleUpdateListing re-validates every field and saves the listing. The image is optional.
func HandleUpdateListing(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			deps.renderError(w, r, errs.NewError(errs.ErrListingNotFound))
			return
		}
		s, snap := current(r)

		l, customErr := deps.ownListing(r.Context(), s, snap.Nickname(), id)
		if customErr != nil {
			deps.renderError(w, r, customErr)
			return
		}

		form := formFromListing(l)
		if customErr := req.SetupMultipart(w, r, maxListingForm); customErr != nil {
			deps.fail(w, r, "manage", deps.managePage(r, s, l, form, false), customErr)
			return
		}
		form = listingFormFrom(r)

		if customErr := deps.consumeFormToken(r, s); customErr != nil {
			deps.fail(w, r, "manage", deps.managePage(r, s, l, form, false), customErr)
			return
		}

		up, info, customErr := uploadedImage(r, "image")
		if customErr != nil {
			deps.fail(w, r, "manage", deps.managePage(r, s, l, form, false), customErr)
			return
		}

		in, customErr := market.ListingDraft{
			Category:    l.Category,
			Server:      form.Server,
			Type:        form.Type,
			Title:       form.Title,
			Description: form.Description,
			Currency:    form.Currency,
			Price:       form.Price,
			HoursLimit:  form.HoursLimit,
			Image:       info,
		}.Validate(false)
		if customErr != nil {
			deps.fail(w, r, "manage", deps.managePage(r, s, l, form, false), customErr)
			return
		}

		var image *api.File
		if up != nil {
			f := apiFile(up, info)
			image = &f
		}

		var saved *market.Listing
		customErr = submit(r.Context(), s, session.ActionUpdateListing, func(ctx context.Context) error {
			var err error
			saved, err = deps.API.UpdateAd(ctx, s, id, in, image)
			return err
		})
		if customErr != nil {
			deps.fail(w, r, "manage", deps.managePage(r, s, l, form, false), customErr)
			return
		}

		updated := applyInput(l, in)
		if saved != nil && saved.ID == id {
			updated = *saved
		}
		s.Remember(updated)

		logger(r).Info().Int64("ad_id", id).Msg("Listing updated")
		redirectFlash(w, r, s, flashSuccess, "Changes saved.", manageURL(id))
	}
}

// HandleDeleteListing deletes a listing after an explicit confirmation step.
func HandleDeleteListing(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			deps.renderError(w, r, errs.NewError(errs.ErrListingNotFound))
			return
		}
		s, snap := current(r)

		if customErr := req.SetupMultipart(w, r, maxReportForm); customErr != nil {
			failRedirect(w, r, s, customErr, manageURL(id))
			return
		}
		if customErr := deps.consumeFormToken(r, s); customErr != nil {
			failRedirect(w, r, s, customErr, manageURL(id))
			return
		}
		if !req.Checked(r, "confirm") {
			failRedirect(w, r, s, errs.NewError(errs.ErrConfirmRequired), manageURL(id)+"?delete=confirm")
			return
		}

		if _, customErr := deps.ownListing(r.Context(), s, snap.Nickname(), id); customErr != nil {
			deps.renderError(w, r, customErr)
			return
		}

		customErr := submit(r.Context(), s, session.ActionDeleteListing, func(ctx context.Context) error {
			return deps.API.DeleteAd(ctx, s, id)
		})
		if customErr != nil {
			failRedirect(w, r, s, customErr, manageURL(id))
			return
		}

		s.Forget(id)
		logger(r).Info().Int64("ad_id", id).Msg("Listing deleted")
		redirectFlash(w, r, s, flashSuccess, "The listing was deleted.", "/profile")
	}
}
