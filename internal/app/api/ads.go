package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"arzweb/internal/app/market"
)

var errMalformed = errors.New("malformed response body")

// ListQuery selects a page of listings of one category.
type ListQuery struct {
	Category market.Category
	Server   string
	Type     market.ListingType
	Currency market.Currency
	PriceMin int64
	PriceMax int64
	Sort     market.SortKey
}

// Values encodes the query for offset and limit. Equal inputs always encode to the
// same parameters; unset filters are omitted.
func (q ListQuery) Values(offset, limit int) url.Values {
	v := url.Values{}
	v.Set("category", string(q.Category))
	if q.Server != "" {
		v.Set("server", q.Server)
	}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("offset", strconv.Itoa(offset))
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if q.Currency != "" {
		v.Set("currency", string(q.Currency))
	}
	if q.PriceMin > 0 {
		v.Set("price_min", strconv.FormatInt(q.PriceMin, 10))
	}
	if q.PriceMax > 0 {
		v.Set("price_max", strconv.FormatInt(q.PriceMax, 10))
	}
	return v
}

func (c *Client) listings(ctx context.Context, creds Credentials, req request, keys ...string) ([]market.Listing, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, creds, req, &raw); err != nil {
		return nil, err
	}
	if items := decodeList(raw); items != nil {
		return toListings(items), nil
	}
	o, ok := decodeObject(raw)
	if !ok {
		return nil, &RequestError{Op: req.op, StatusCode: http.StatusOK, Err: errMalformed}
	}
	return toListings(o.list(keys...)), nil
}

// ListAds returns one page of a category.
func (c *Client) ListAds(ctx context.Context, creds Credentials, q ListQuery, offset, limit int) ([]market.Listing, error) {
	return c.listings(ctx, creds, request{
		op:     "list ads",
		method: http.MethodGet,
		path:   "/api/ads",
		query:  q.Values(offset, limit),
	}, "ads")
}

// RandomAds returns one page of the random feed.
func (c *Client) RandomAds(ctx context.Context, creds Credentials, offset, limit int) ([]market.Listing, error) {
	return c.listings(ctx, creds, request{
		op:     "list random ads",
		method: http.MethodGet,
		path:   "/api/ads/random",
		query:  url.Values{"limit": {strconv.Itoa(limit)}, "offset": {strconv.Itoa(offset)}},
	}, "ads")
}

// UserListings returns every listing owned by nickname.
func (c *Client) UserListings(ctx context.Context, creds Credentials, nickname string) ([]market.Listing, error) {
	return c.listings(ctx, creds, request{
		op:     "list user ads",
		method: http.MethodGet,
		path:   "/api/listings/user/" + url.PathEscape(nickname),
	}, "listings", "ads")
}

// AdCount returns the number of listings in a category.
func (c *Client) AdCount(ctx context.Context, creds Credentials, category market.Category) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := c.doJSON(ctx, creds, request{
		op:     "count ads",
		method: http.MethodGet,
		path:   "/api/getadcount",
		query:  url.Values{"CategoryName": {string(category)}},
	}, &out)
	return out.Count, err
}

// ViewAd increments the view counter of a listing.
func (c *Client) ViewAd(ctx context.Context, creds Credentials, id int64) error {
	return c.doJSON(ctx, creds, request{
		op:     "view ad",
		method: http.MethodPost,
		path:   fmt.Sprintf("/api/ads/%d/view", id),
	}, nil)
}

// AddViewedAd records id in the current user's viewed list.
func (c *Client) AddViewedAd(ctx context.Context, creds Credentials, id int64) error {
	req, err := multipartRequest("add viewed ad", http.MethodPost, "/api/viewed-ads",
		[]formField{{name: "ad_id", value: strconv.FormatInt(id, 10)}}, nil)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, req, nil)
}

// ViewedAds returns the current user's viewed list.
func (c *Client) ViewedAds(ctx context.Context, creds Credentials) ([]ViewedListing, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, creds, request{op: "list viewed ads", method: http.MethodGet, path: "/api/viewed-ads"}, &raw); err != nil {
		return nil, err
	}
	o, ok := decodeObject(raw)
	if !ok {
		return nil, &RequestError{Op: "list viewed ads", StatusCode: http.StatusOK, Err: errMalformed}
	}

	items := o.list("viewed_ads")
	out := make([]ViewedListing, 0, len(items))
	for _, item := range items {
		out = append(out, toViewed(item))
	}
	return out, nil
}

// NewAd is a validated listing plus its image.
type NewAd struct {
	market.ListingInput
	Nickname string
	Image    File
}

// ImagePath is the storage key the API expects for a new listing image.
func (a NewAd) ImagePath(now time.Time) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(a.Image.Name)), ".")
	if ext == "" {
		ext = "jpg"
	}
	nickname := a.Nickname
	if nickname == "" {
		nickname = "user"
	}
	return fmt.Sprintf("ads/%s/%d_%s.%s", a.Category, now.UnixMilli(), nickname, ext)
}

// CreateAd publishes a listing.
func (c *Client) CreateAd(ctx context.Context, creds Credentials, ad NewAd) error {
	fields := []formField{
		{name: "server", value: ad.Server},
		{name: "title", value: ad.Title},
		{name: "description", value: ad.Description},
		{name: "type", value: string(ad.Type)},
		{name: "currency", value: string(ad.Currency)},
		{name: "price", value: strconv.FormatInt(ad.Price, 10)},
	}
	if ad.PricePeriod != "" {
		fields = append(fields, formField{name: "pricePeriod", value: ad.PricePeriod})
	}
	fields = append(fields,
		formField{name: "imagePath", value: ad.ImagePath(time.Now())},
		formField{name: "category", value: string(ad.Category)},
		formField{name: "nickname", value: ad.Nickname},
	)
	if ad.HoursLimit > 0 {
		fields = append(fields, formField{name: "rentalHoursLimit", value: strconv.Itoa(ad.HoursLimit)})
	}

	req, err := multipartRequest("create ad", http.MethodPost, "/api/createnewads", fields, map[string]File{"image": ad.Image})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, req, nil)
}

// UpdateAd saves an edited listing. image may be nil to keep the current one.
// The returned listing is the API's stored copy when it sends one back.
func (c *Client) UpdateAd(ctx context.Context, creds Credentials, id int64, in market.ListingInput, image *File) (*market.Listing, error) {
	fields := []formField{
		{name: "title", value: in.Title},
		{name: "type", value: string(in.Type)},
		{name: "description", value: in.Description},
		{name: "price", value: strconv.FormatInt(in.Price, 10)},
		{name: "currency", value: string(in.Currency)},
		{name: "category", value: string(in.Category)},
		{name: "server_name", value: in.Server},
	}
	if in.HoursLimit > 0 {
		fields = append(fields, formField{name: "rental_hours_limit", value: strconv.Itoa(in.HoursLimit)})
	}

	var files map[string]File
	if image != nil {
		files = map[string]File{"image": *image}
	}

	op := "update ad"
	req, err := multipartRequest(op, http.MethodPut, fmt.Sprintf("/api/ads/%d", id), fields, files)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.doJSON(ctx, creds, req, &raw); err != nil {
		return nil, err
	}
	if o, ok := decodeObject(raw); ok {
		if ad, ok := o.object("ad"); ok {
			l := toListing(ad)
			return &l, nil
		}
	}
	return nil, nil
}

// DeleteAd removes a listing.
func (c *Client) DeleteAd(ctx context.Context, creds Credentials, id int64) error {
	return c.doJSON(ctx, creds, request{op: "delete ad", method: http.MethodDelete, path: fmt.Sprintf("/api/ads/%d", id)}, nil)
}

// ReportRequest is the body of POST /api/reports.
type ReportRequest struct {
	AdID        int64   `json:"ad_id"`
	Reason      string  `json:"reason"`
	Description *string `json:"description,omitempty"`
}

// Report flags a listing for moderators.
func (c *Client) Report(ctx context.Context, creds Credentials, in ReportRequest) error {
	req, err := jsonRequest("report ad", http.MethodPost, "/api/reports", in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, req, nil)
}
