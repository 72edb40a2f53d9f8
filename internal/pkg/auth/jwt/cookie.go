package jwt

import (
	"net/http"
	"time"
)

// CookieOptions controls how signed cookies are written.
type CookieOptions struct {
	Secret string
	Secure bool
}

// WriteCookie signs payload and sets it as cookie name. maxAge <= 0 makes a browser-session
// cookie that disappears when the tab session ends.
func WriteCookie(w http.ResponseWriter, name string, payload *Payload, opts CookieOptions, maxAge time.Duration) error {
	token, err := GenerateToken(payload, opts.Secret, maxAge)
	if err != nil {
		return err
	}

	c := &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge.Seconds())
	}

	http.SetCookie(w, c)
	return nil
}

// ReadCookie returns the verified payload of cookie name, or nil when it is missing or invalid.
func ReadCookie(r *http.Request, name, purpose string, opts CookieOptions) *Payload {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return nil
	}

	payload, err := ParseToken(c.Value, opts.Secret, purpose)
	if err != nil {
		return nil
	}
	return payload
}

// ClearCookie expires cookie name.
func ClearCookie(w http.ResponseWriter, name string, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
