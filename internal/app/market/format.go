package market

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// Sanitize escapes markup characters in user text before it is kept in form state.
func Sanitize(s string) string {
	return htmlEscaper.Replace(s)
}

var htmlUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#x27;", "'",
	"&#x2F;", "/",
)

// Unsanitize reverses Sanitize. Templates escape on output, so stored text is
// unescaped once before rendering to avoid showing entities twice.
func Unsanitize(s string) string {
	return htmlUnescaper.Replace(s)
}

// FormatNumber groups thousands with dots: 1500000 becomes "1.500.000".
func FormatNumber(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatPrice renders a listing price with its currency and optional period.
func FormatPrice(l Listing) string {
	if l.Negotiable() || l.Price == 0 {
		return CurrencyNegotiable.Symbol()
	}

	s := FormatNumber(l.Price) + " " + l.Currency.Symbol()
	if l.PricePeriod != "" {
		s += " / " + l.PricePeriod
	}
	return s
}

// StarKind is one slot of a five-star rating widget.
type StarKind string

const (
	StarFull  StarKind = "full"
	StarHalf  StarKind = "half"
	StarEmpty StarKind = "empty"
)

// Stars splits a 0-5 rating into five slots. A remainder of .5 or more shows a half star.
func Stars(rating float64) []StarKind {
	rating = math.Max(0, math.Min(5, rating))
	full := int(math.Floor(rating))
	half := rating-float64(full) >= 0.5

	stars := make([]StarKind, 0, 5)
	for i := 0; i < 5; i++ {
		switch {
		case i < full:
			stars = append(stars, StarFull)
		case i == full && half:
			stars = append(stars, StarHalf)
		default:
			stars = append(stars, StarEmpty)
		}
	}
	return stars
}

// FormatRating prints a rating with one decimal.
func FormatRating(rating float64) string {
	return fmt.Sprintf("%.1f", rating)
}
