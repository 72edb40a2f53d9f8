package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"arzweb/internal/app/market"
)

// object is a decoded JSON object whose keys are folded to one spelling, so that
// "server_name", "ServerName" and "serverName" all resolve to the same field.
type object map[string]json.RawMessage

func foldKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "_", ""))
}

func decodeObject(raw json.RawMessage) (object, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, false
	}
	o := make(object, len(m))
	for k, v := range m {
		o[foldKey(k)] = v
	}
	return o, true
}

func (o object) raw(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := o[foldKey(k)]
		if ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func (o object) str(keys ...string) string {
	v, ok := o.raw(keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.Trim(string(v), `"`)
}

func (o object) float(keys ...string) float64 {
	v, ok := o.raw(keys...)
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f
	}
	f, _ = strconv.ParseFloat(strings.TrimSpace(o.str(keys...)), 64)
	return f
}

func (o object) int(keys ...string) int64 {
	return int64(o.float(keys...))
}

func (o object) bool(keys ...string) bool {
	v, ok := o.raw(keys...)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	parsed, _ := strconv.ParseBool(o.str(keys...))
	return parsed
}

func (o object) time(keys ...string) time.Time {
	s := o.str(keys...)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (o object) object(keys ...string) (object, bool) {
	v, ok := o.raw(keys...)
	if !ok {
		return nil, false
	}
	return decodeObject(v)
}

func (o object) list(keys ...string) []object {
	v, ok := o.raw(keys...)
	if !ok {
		return nil
	}
	return decodeList(v)
}

func decodeList(raw json.RawMessage) []object {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]object, 0, len(items))
	for _, item := range items {
		if o, ok := decodeObject(item); ok {
			out = append(out, o)
		}
	}
	return out
}

func toUser(o object) market.User {
	theme, ok := market.ParseTheme(o.str("theme"))
	if !ok {
		theme = market.ThemeDark
	}
	return market.User{
		ID:           o.int("user_id", "id"),
		Nickname:     o.str("nickname"),
		Email:        o.str("email"),
		Telegram:     o.str("telegram"),
		Avatar:       o.str("avatar"),
		Background:   o.str("background_avatar_profile", "background"),
		Rating:       o.float("rating"),
		ReviewsCount: int(o.int("reviews_count")),
		Role:         market.Role(strings.ToLower(o.str("user_role", "role"))),
		Description:  market.Unsanitize(o.str("user_description", "description")),
		Theme:        theme,
		LastSeen:     o.time("last_seen_at", "last_seen"),
	}
}

func toListing(o object) market.Listing {
	return market.Listing{
		ID:               o.int("id"),
		Server:           o.str("server_name", "server"),
		Category:         market.Category(strings.ToLower(o.str("category"))),
		Type:             market.ListingType(o.str("type")),
		Title:            market.Unsanitize(o.str("title")),
		Description:      market.Unsanitize(o.str("description")),
		Price:            o.int("price"),
		Currency:         market.Currency(o.str("currency")),
		PricePeriod:      o.str("price_period"),
		RentalHoursLimit: int(o.int("rental_hours_limit")),
		Image:            o.str("image"),
		Views:            int(o.int("views")),
		Owner:            o.str("nickname", "owner"),
		OwnerAvatar:      o.str("author_avatar", "owner_avatar"),
		OwnerRating:      o.float("author_rating", "owner_rating"),
		OwnerTelegram:    o.str("owner_telegram", "telegram"),
		CreatedAt:        o.time("created_at"),
	}
}

func toListings(items []object) []market.Listing {
	out := make([]market.Listing, 0, len(items))
	for _, item := range items {
		out = append(out, toListing(item))
	}
	return out
}

func toFeedback(o object) market.Feedback {
	return market.Feedback{
		ID:             o.int("id"),
		AdID:           o.int("ad_id"),
		Reviewer:       o.str("reviewer_nickname"),
		ReviewerAvatar: o.str("reviewer_avatar"),
		ReviewerRating: o.float("reviewer_rating"),
		Owner:          o.str("ad_owner_nickname"),
		Rating:         int(o.int("rating")),
		Text:           market.Unsanitize(o.str("review_text")),
		ProofImage:     o.str("proof_image"),
		Confirmed:      o.bool("confirm_feedback"),
		CreatedAt:      o.time("created_at"),
	}
}

// ViewedListing is an entry of the viewed list together with the listing it points at.
type ViewedListing struct {
	market.ViewedAd
	Listing *market.Listing
}

func toViewed(o object) ViewedListing {
	v := ViewedListing{
		ViewedAd: market.ViewedAd{
			Nickname: o.str("user_nickname"),
			AdID:     o.int("ad_id"),
			ViewedAt: o.time("viewed_at"),
		},
	}
	if ad, ok := o.object("ad"); ok {
		l := toListing(ad)
		v.Listing = &l
	}
	return v
}
