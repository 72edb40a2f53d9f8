package market

import (
	"strings"
	"time"
)

// Listing is the canonical shape of a marketplace offer.
type Listing struct {
	ID               int64
	Server           string
	Category         Category
	Type             ListingType
	Title            string
	Description      string
	Price            int64
	Currency         Currency
	PricePeriod      string
	RentalHoursLimit int
	Image            string
	Views            int
	Owner            string
	OwnerAvatar      string
	OwnerRating      float64
	OwnerTelegram    string
	CreatedAt        time.Time
}

// Negotiable reports whether the price is agreed privately.
func (l Listing) Negotiable() bool {
	return l.Currency == CurrencyNegotiable || l.Currency == ""
}

// OwnedBy reports whether nickname owns the listing. Comparison ignores case.
func (l Listing) OwnedBy(nickname string) bool {
	return nickname != "" && strings.EqualFold(l.Owner, nickname)
}

// ContactURL is the owner's Telegram link, or "" when no handle is known.
func (l Listing) ContactURL() string {
	return TelegramURL(l.OwnerTelegram)
}

// Feedback is a review left against a listing owner.
type Feedback struct {
	ID             int64
	AdID           int64
	Reviewer       string
	ReviewerAvatar string
	ReviewerRating float64
	Owner          string
	Rating         int
	Text           string
	ProofImage     string
	Confirmed      bool
	CreatedAt      time.Time
}

// ViewedAd records that a user opened a listing.
type ViewedAd struct {
	Nickname string
	AdID     int64
	ViewedAt time.Time
}

func trimHandle(handle string) string {
	h := strings.TrimSpace(handle)
	h = strings.TrimPrefix(h, "https://t.me/")
	h = strings.TrimPrefix(h, "t.me/")
	return strings.TrimPrefix(h, "@")
}
