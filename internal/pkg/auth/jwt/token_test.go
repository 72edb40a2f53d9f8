package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenRoundTripChecksPurpose(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken(&Payload{Purpose: PurposePending, PendingEmail: "a@b.cd"}, "secret", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	payload, err := ParseToken(token, "secret", PurposePending)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload.PendingEmail != "a@b.cd" {
		t.Fatalf("unexpected email: %q", payload.PendingEmail)
	}

	if _, err := ParseToken(token, "secret", PurposeSession); err != ErrWrongPurpose {
		t.Fatalf("expected purpose mismatch, got %v", err)
	}
	if _, err := ParseToken(token, "other", PurposePending); err == nil {
		t.Fatal("expected signature failure with another secret")
	}
}

func TestNonPositiveDurationOmitsExpiry(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken(&Payload{Purpose: PurposeSession, SessionID: "s1"}, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(token, "secret", PurposeSession); err != nil {
		t.Fatalf("expected token without expiry to parse: %v", err)
	}
}

func TestCookieHelpers(t *testing.T) {
	t.Parallel()

	opts := CookieOptions{Secret: "secret"}
	w := httptest.NewRecorder()
	if err := WriteCookie(w, "arz_sid", &Payload{Purpose: PurposeSession, SessionID: "abc"}, opts, time.Hour); err != nil {
		t.Fatalf("write cookie: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != 3600 || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	payload := ReadCookie(r, "arz_sid", PurposeSession, opts)
	if payload == nil || payload.SessionID != "abc" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	tampered := httptest.NewRequest(http.MethodGet, "/", nil)
	tampered.AddCookie(&http.Cookie{Name: "arz_sid", Value: cookies[0].Value + "x"})
	if ReadCookie(tampered, "arz_sid", PurposeSession, opts) != nil {
		t.Fatal("expected tampered cookie to be ignored")
	}

	cw := httptest.NewRecorder()
	ClearCookie(cw, "arz_sid", opts)
	if got := cw.Result().Cookies(); len(got) != 1 || got[0].MaxAge >= 0 {
		t.Fatalf("expected expiring cookie, got %+v", got)
	}
}
