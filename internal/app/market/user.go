package market

import "time"

// OnlineWindow is how recently a user must have been seen to count as online.
const OnlineWindow = 5 * time.Minute

// Role is the marketplace role tag of a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleVIP       Role = "vip"
	RolePremium   Role = "premium"
	RoleModerator Role = "moderator"
	RoleDeveloper Role = "developer"
	RoleOwner     Role = "owner"
)

// Badge is how a role is displayed next to a nickname.
type Badge struct {
	Label string
	Color string
}

var roleBadges = map[Role]Badge{
	RoleUser:      {Label: "User", Color: "#888888"},
	RoleVIP:       {Label: "VIP", Color: "#FFD700"},
	RolePremium:   {Label: "PREMIUM", Color: "#FF69B4"},
	RoleModerator: {Label: "MODERATOR", Color: "#87CEEB"},
	RoleDeveloper: {Label: "DEVELOPER", Color: "#DF3535"},
	RoleOwner:     {Label: "FOUNDER", Color: "#DF3535"},
}

// Badge returns the display badge; unknown roles render as a plain user.
func (r Role) Badge() Badge {
	if b, ok := roleBadges[r]; ok {
		return b
	}
	return roleBadges[RoleUser]
}

// Theme is the colour scheme preference of a user.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme reports whether s names a supported theme.
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case ThemeDark, ThemeLight:
		return Theme(s), true
	}
	return "", false
}

// Class is the document-wide style class for the theme. Dark is the default.
func (t Theme) Class() string {
	if t == ThemeLight {
		return "light-theme"
	}
	return "dark-theme"
}

// User is the canonical shape of a marketplace account.
type User struct {
	ID           int64
	Nickname     string
	Email        string
	Telegram     string
	Avatar       string
	Background   string
	Rating       float64
	ReviewsCount int
	Role         Role
	Description  string
	Theme        Theme
	LastSeen     time.Time
}

// IsOnline reports whether the user was seen within OnlineWindow of now.
func (u User) IsOnline(now time.Time) bool {
	if u.LastSeen.IsZero() {
		return false
	}
	return now.Sub(u.LastSeen) < OnlineWindow
}

// TelegramURL turns a stored handle into a t.me link. Empty handles yield "".
func TelegramURL(handle string) string {
	h := trimHandle(handle)
	if h == "" {
		return ""
	}
	return "https://t.me/" + h
}
