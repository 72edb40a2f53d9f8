package ui

import (
	"errors"
	"html/template"
	"math/rand"
	"time"

	"arzweb/internal/app/market"
)

// Snowflake is one decorative flake with its animation parameters.
type Snowflake struct {
	Left     float64
	Duration float64
	Delay    float64
	FontSize float64
	Opacity  float64
}

const snowflakeCount = 50

// Snowflakes generates the falling snow decoration.
func Snowflakes() []Snowflake {
	flakes := make([]Snowflake, snowflakeCount)
	for i := range flakes {
		flakes[i] = Snowflake{
			Left:     rand.Float64() * 100,
			Duration: rand.Float64()*3 + 5,
			Delay:    rand.Float64() * 5,
			FontSize: rand.Float64()*10 + 10,
			Opacity:  rand.Float64()*0.6 + 0.4,
		}
	}
	return flakes
}

// Funcs returns the template helpers.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"stars":      func(v any) []market.StarKind { return market.Stars(toFloat(v)) },
		"rating":     func(v any) string { return market.FormatRating(toFloat(v)) },
		"price":      market.FormatPrice,
		"number":     func(v any) string { return market.FormatNumber(toInt64(v)) },
		"telegram":   market.TelegramURL,
		"badge":      func(r market.Role) market.Badge { return r.Badge() },
		"online":     func(u market.User) bool { return u.IsOnline(time.Now()) },
		"date":       formatDate,
		"snowflakes": Snowflakes,
		"dict":       dict,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02.01.2006 15:04")
}

// dict builds a map from alternating keys and values so partials can take several arguments.
func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, errors.New("dict expects key/value pairs")
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, errors.New("dict keys must be strings")
		}
		m[key] = values[i+1]
	}
	return m, nil
}

// toFloat accepts the numeric kinds ratings arrive in: user ratings are fractional,
// review ratings are whole stars.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// toInt64 accepts counts, which arrive as int, and amounts, which arrive as int64.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	}
	return 0
}
