package resp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"arzweb/internal/pkg/errs"
)

func TestRedirect(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		method   string
		fetch    bool
		status   int
		location string
	}{
		{name: "page get", method: http.MethodGet, status: http.StatusFound, location: "/auth"},
		{name: "form post", method: http.MethodPost, status: http.StatusSeeOther, location: "/auth"},
		{name: "fetch", method: http.MethodPost, fetch: true, status: http.StatusOK},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(tc.method, "/profile", nil)
			if tc.fetch {
				r.Header.Set("X-Requested-With", "fetch")
			}
			w := httptest.NewRecorder()
			Redirect(w, r, "/auth")

			if w.Code != tc.status {
				t.Fatalf("unexpected status: %d", w.Code)
			}
			if got := w.Header().Get("Location"); got != tc.location {
				t.Fatalf("unexpected location: %q", got)
			}
			if tc.fetch {
				var body struct {
					Data struct {
						Redirect string `json:"redirect"`
					} `json:"data"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if body.Data.Redirect != "/auth" {
					t.Fatalf("unexpected redirect payload: %q", body.Data.Redirect)
				}
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	RespondError(w, httptest.NewRequest(http.MethodGet, "/", nil), errs.NewError(errs.ErrCooldown, 2))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	var body JSONResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != errs.ErrCooldown || body.Message != "Please wait 2 seconds." {
		t.Fatalf("unexpected body: %+v", body)
	}
}
