package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arzweb/internal/pkg/errs"
)

type jar struct {
	cookies []*http.Cookie
}

func (j *jar) Cookies() []*http.Cookie { return j.cookies }

func (j *jar) SetCookies(cookies []*http.Cookie) {
	for _, c := range cookies {
		replaced := false
		for i, old := range j.cookies {
			if old.Name == c.Name {
				j.cookies[i] = c
				replaced = true
			}
		}
		if !replaced {
			j.cookies = append(j.cookies, c)
		}
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "localhost:8080", "/api"} {
		if _, err := NewClient(raw, time.Second); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestCookiesFlowThroughCredentials(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "t1"})
			w.Write([]byte(`{"nickname":"bob","user_id":7}`))
		case "/api/me":
			c, err := r.Cookie("access_token")
			if err != nil || c.Value != "t1" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Не авторизован"}`))
				return
			}
			w.Write([]byte(`{"user_id":7,"nickname":"bob","user_role":"VIP","theme":"light","rating":4.5}`))
		}
	})

	creds := &jar{}
	if err := client.Login(context.Background(), creds, LoginRequest{Nickname: "bob", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	user, err := client.Me(context.Background(), creds)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user.Nickname != "bob" || user.ID != 7 || user.Role != "vip" || user.Theme != "light" || user.Rating != 4.5 {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestServerErrorsCarryMessage(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Неверный пароль"}`))
	})

	err := client.Login(context.Background(), &jar{}, LoginRequest{Nickname: "bob", Password: "nope"})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.StatusCode != http.StatusBadRequest || reqErr.ServerMessage != "Неверный пароль" || reqErr.Transport {
		t.Fatalf("unexpected error: %+v", reqErr)
	}

	custom := AsCustomError(err)
	if custom.Code != errs.ErrRemote || custom.Message != "Неверный пароль" {
		t.Fatalf("unexpected custom error: %+v", custom)
	}
}

func TestAsCustomError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		code int
	}{
		{name: "transport", err: &RequestError{Op: "x", Transport: true, Err: errors.New("refused")}, code: errs.ErrConnection},
		{name: "unauthorized", err: &RequestError{Op: "x", StatusCode: 401}, code: errs.ErrUnauthorized},
		{name: "server without message", err: &RequestError{Op: "x", StatusCode: 500}, code: errs.ErrRemoteGeneric},
		{name: "validation passthrough", err: errs.NewError(errs.ErrTitleRequired), code: errs.ErrTitleRequired},
		{name: "other", err: errors.New("boom"), code: errs.ErrUnknown},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := AsCustomError(tc.err); got.Code != tc.code {
				t.Fatalf("expected code %d, got %+v", tc.code, got)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(url, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Me(context.Background(), &jar{})
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if AsCustomError(err).Message != "Connection error. Please try again." {
		t.Fatalf("unexpected message: %q", AsCustomError(err).Message)
	}
}
