/*
Package market holds the marketplace vocabulary shared by every screen: categories,
listing types, game servers, currencies, the static price table, and the validation
rules applied to user input before anything is sent to the marketplace API.
*/
package market

import "strings"

// Category identifies a listing category as used in URLs and API queries.
type Category string

const (
	CategoryBusiness Category = "business"
	CategoryAccs     Category = "accs"
	CategoryHouse    Category = "house"
	CategorySecurity Category = "security"
	CategoryVehicle  Category = "vehicle"
	CategoryOthers   Category = "others"
)

// Categories lists every category in navigation order.
var Categories = []Category{
	CategoryBusiness,
	CategoryAccs,
	CategoryHouse,
	CategorySecurity,
	CategoryVehicle,
	CategoryOthers,
}

var categoryTitles = map[Category]string{
	CategoryBusiness: "Businesses",
	CategoryAccs:     "Accessories",
	CategoryHouse:    "Houses",
	CategorySecurity: "Security",
	CategoryVehicle:  "Vehicles",
	CategoryOthers:   "Other",
}

// ParseCategory returns the category for s and whether it is known.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	_, ok := categoryTitles[c]
	return c, ok
}

// Title is the display name of the category.
func (c Category) Title() string {
	if t, ok := categoryTitles[c]; ok {
		return t
	}
	return string(c)
}

// AllowedTypes returns the listing types that can be created in the category.
func (c Category) AllowedTypes() []ListingType {
	switch c {
	case CategoryBusiness:
		return []ListingType{TypeSell, TypeBuy, TypeFindSubstitute}
	case CategoryOthers:
		return []ListingType{TypeSell, TypeBuy, TypeService}
	default:
		return []ListingType{TypeSell, TypeBuy, TypeRentOut}
	}
}

// Allows reports whether listings of type t may be created in the category.
func (c Category) Allows(t ListingType) bool {
	for _, allowed := range c.AllowedTypes() {
		if allowed == t {
			return true
		}
	}
	return false
}

// ListingType is the kind of offer. Values are the wire strings used by the marketplace API.
type ListingType string

const (
	TypeSell           ListingType = "Продать"
	TypeBuy            ListingType = "Купить"
	TypeRentOut        ListingType = "Сдать в аренду"
	TypeService        ListingType = "Услуги"
	TypeFindSubstitute ListingType = "Поиск Заместителя"
)

var typeLabels = map[ListingType]string{
	TypeSell:           "Sell",
	TypeBuy:            "Buy",
	TypeRentOut:        "Rent out",
	TypeService:        "Services",
	TypeFindSubstitute: "Find a deputy",
}

// ParseListingType returns the listing type for s and whether it is known.
func ParseListingType(s string) (ListingType, bool) {
	t := ListingType(strings.TrimSpace(s))
	_, ok := typeLabels[t]
	return t, ok
}

// Label is the English display name of the type.
func (t ListingType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Rentable reports whether the type is billed per hour and needs an hour limit.
func (t ListingType) Rentable() bool {
	return t == TypeRentOut || t == TypeService
}

// ActionLabel is the call-to-action shown to a visitor who is not the owner.
// It inverts sell and buy since the visitor takes the opposite side of the deal.
func (t ListingType) ActionLabel() string {
	switch t {
	case TypeSell:
		return "Buy"
	case TypeBuy:
		return "Sell"
	case TypeRentOut, TypeService:
		return "Rent"
	default:
		return "Contact"
	}
}

// Currency of a listing price. Negotiable means the price is agreed privately.
type Currency string

const (
	CurrencyVC         Currency = "VC"
	CurrencyUSD        Currency = "$"
	CurrencyBTC        Currency = "BTC"
	CurrencyEuro       Currency = "EURO"
	CurrencyNegotiable Currency = "Договорная"
)

// Symbol is the short marker printed after amounts.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyVC:
		return "VC$"
	case CurrencyNegotiable:
		return "Negotiable"
	default:
		return string(c)
	}
}

// DefaultServer is preselected on every category screen.
const DefaultServer = "ViceCity"

// Servers lists the game servers a listing can belong to.
var Servers = []string{
	"ViceCity", "Phoenix", "Tucson", "Scottdale", "Winslow", "Brainburg", "BumbleBee",
	"CasaGrande", "Chandler", "Christmas", "Faraway", "Gilbert", "Glendale", "Holiday",
	"Kingman", "Mesa", "Page", "Payson", "Prescott", "QueenCreek", "RedRock", "SaintRose",
	"Sedona", "ShowLow", "SunCity", "Surprise", "Wednesday", "Yava", "Yuma", "Love",
	"Mirage", "Drake", "Space",
}

// IsServer reports whether name is a known game server.
func IsServer(name string) bool {
	for _, s := range Servers {
		if s == name {
			return true
		}
	}
	return false
}

// AvailableCurrencies returns the currencies offered on a server, negotiable last.
func AvailableCurrencies(server string) []Currency {
	if server == "ViceCity" {
		return []Currency{CurrencyVC, CurrencyBTC, CurrencyEuro, CurrencyNegotiable}
	}
	return []Currency{CurrencyUSD, CurrencyBTC, CurrencyEuro, CurrencyNegotiable}
}

// CurrencyAvailable reports whether c can be used on server.
func CurrencyAvailable(server string, c Currency) bool {
	for _, available := range AvailableCurrencies(server) {
		if available == c {
			return true
		}
	}
	return false
}

// PriceRange bounds a numeric price for one (type, currency) pair.
type PriceRange struct {
	Min    int64
	Max    int64
	Period string
}

// Contains reports whether price lies within the inclusive range.
func (r PriceRange) Contains(price int64) bool {
	return price >= r.Min && price <= r.Max
}

var (
	tradeRanges = map[Currency]PriceRange{
		CurrencyVC:   {Min: 1_000, Max: 50_000_000_000},
		CurrencyUSD:  {Min: 10_000, Max: 1_500_000_000_000},
		CurrencyBTC:  {Min: 1, Max: 15_000_000},
		CurrencyEuro: {Min: 100, Max: 650_000_000},
	}

	hourlyRanges = map[Currency]PriceRange{
		CurrencyVC:   {Min: 1_000, Max: 10_000_000, Period: "hour"},
		CurrencyUSD:  {Min: 10_000, Max: 1_000_000_000, Period: "hour"},
		CurrencyBTC:  {Min: 1, Max: 100_000, Period: "hour"},
		CurrencyEuro: {Min: 100, Max: 500_000, Period: "hour"},
	}
)

// PriceRangeFor returns the allowed price range for the pair.
// Hourly types share one table and every other type uses the trade table.
// The second result is false for negotiable or unknown currencies.
func PriceRangeFor(t ListingType, c Currency) (PriceRange, bool) {
	table := tradeRanges
	if t.Rentable() {
		table = hourlyRanges
	}
	r, ok := table[c]
	return r, ok
}

// SortKey orders listing pages; values are sent to the API verbatim.
type SortKey string

const (
	SortNewest     SortKey = "date_desc"
	SortOldest     SortKey = "date_asc"
	SortPriceDesc  SortKey = "price_desc"
	SortPriceAsc   SortKey = "price_asc"
	SortMostViewed SortKey = "views_desc"
)

// SortKeys lists the sort options in menu order.
var SortKeys = []SortKey{SortNewest, SortOldest, SortPriceDesc, SortPriceAsc, SortMostViewed}

var sortLabels = map[SortKey]string{
	SortNewest:     "Newest",
	SortOldest:     "Oldest",
	SortPriceDesc:  "Price: high to low",
	SortPriceAsc:   "Price: low to high",
	SortMostViewed: "Most viewed",
}

// ParseSortKey falls back to SortNewest for unknown input.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.TrimSpace(s))
	if _, ok := sortLabels[k]; ok {
		return k
	}
	return SortNewest
}

// Label is the display name of the sort key.
func (k SortKey) Label() string {
	return sortLabels[k]
}

// ReportReasons are offered when a listing is reported.
var ReportReasons = []string{
	"Fraud",
	"Spam",
	"Wrong category",
	"Offensive content",
	"Other",
}
