package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"arzweb/internal/app/api"
	"arzweb/internal/app/live"
	"arzweb/internal/app/session"
	"arzweb/internal/app/storage"
	"arzweb/internal/configs"
	"arzweb/internal/pkg/auth/jwt"
	"arzweb/internal/pkg/formtoken"
	"arzweb/internal/ui"
)

// fakeMarket is an in-process marketplace API with a single account, alice.
type fakeMarket struct {
	mu    sync.Mutex
	calls map[string]int
	own   map[int64]map[string]any
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		calls: make(map[string]int),
		own: map[int64]map[string]any{
			7: {"id": 7, "category": "vehicle", "server_name": "ViceCity", "type": "Продать", "title": "Cheetah", "description": "Fast car", "currency": "Договорная", "nickname": "alice"},
		},
	}
}

func (f *fakeMarket) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func pageOf(category string, offset, n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		id := offset + i + 100
		out[i] = map[string]any{"id": id, "category": category, "server_name": "ViceCity", "type": "Продать", "title": "Ad " + strconv.Itoa(id), "currency": "VC", "price": 1000, "nickname": "bob"}
	}
	return out
}

func (f *fakeMarket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.Method+" "+r.URL.Path]++
	f.mu.Unlock()

	signedIn := false
	if c, err := r.Cookie("access_token"); err == nil && c.Value == "tok" {
		signedIn = true
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/login":
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "tok", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})

	case r.URL.Path == "/api/me":
		if !signedIn {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "nickname": "alice", "email": "alice@example.com", "theme": "dark"})

	case r.Method == http.MethodPost && r.URL.Path == "/api/refresh":
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "expired"})

	case r.URL.Path == "/api/ads":
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		n := 20
		if offset >= 20 {
			n = 5
		}
		writeJSON(w, http.StatusOK, map[string]any{"ads": pageOf(r.URL.Query().Get("category"), offset, n)})

	case r.URL.Path == "/api/ads/random":
		writeJSON(w, http.StatusOK, map[string]any{"ads": []any{}})

	case r.URL.Path == "/api/getadcount":
		writeJSON(w, http.StatusOK, map[string]int{"count": 25})

	case r.URL.Path == "/api/listings/user/alice":
		f.mu.Lock()
		list := make([]map[string]any, 0, len(f.own))
		for _, ad := range f.own {
			list = append(list, ad)
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"listings": list})

	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/ads/"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/ads/"), 10, 64)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad form"})
			return
		}
		f.mu.Lock()
		ad, ok := f.own[id]
		if ok {
			ad["title"] = r.FormValue("title")
			ad["description"] = r.FormValue("description")
			ad["currency"] = r.FormValue("currency")
		}
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ad": ad})

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/ads/"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/ads/"), 10, 64)
		f.mu.Lock()
		_, ok := f.own[id]
		delete(f.own, id)
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})

	case r.Method == http.MethodGet && r.URL.Path == "/api/viewed-ads":
		writeJSON(w, http.StatusOK, map[string]any{"viewed_ads": []any{
			map[string]any{"user_nickname": "alice", "ad_id": 300, "ad": map[string]any{
				"id": 300, "category": "house", "server_name": "ViceCity", "type": "Продать", "title": "Beach house", "currency": "VC", "price": 250000, "nickname": "bob",
			}},
		}})

	case r.URL.Path == "/api/feedback/alice":
		writeJSON(w, http.StatusOK, map[string]any{"feedbacks": []any{
			map[string]any{"id": 1, "ad_id": 7, "reviewer_nickname": "carol", "rating": 4, "review_text": "Smooth &lt;deal&gt;", "created_at": "2026-01-02T10:00:00Z"},
		}})

	case r.Method == http.MethodPost:
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

type testApp struct {
	server *httptest.Server
	client *http.Client
	market *fakeMarket
	deps   *AppDeps
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	market := newFakeMarket()
	remote := httptest.NewServer(market)
	t.Cleanup(remote.Close)

	client, err := api.NewClient(remote.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("api client: %v", err)
	}

	previews := storage.NewMemoryStore("/previews/")
	sessions := session.NewManager(session.NewMemoryBackend(), session.ManagerOptions{TTL: time.Hour, Previews: previews})
	renderer, err := ui.New()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	forms := formtoken.NewManager(time.Hour)
	hub := live.NewHub()

	deps := &AppDeps{
		Config:   &configs.AppConfig{Environment: "test", SessionSecret: "test-secret"},
		API:      client,
		Sessions: sessions,
		Store:    session.NewStore(client, nil, sessions, session.StoreOptions{RefreshInterval: time.Minute}),
		Renderer: renderer,
		Forms:    forms,
		Previews: previews,
		Live:     hub,
		Cookie:   jwt.CookieOptions{Secret: "test-secret"},
	}

	router, submitLimiter := Router(deps)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		hub.Shutdown()
		submitLimiter.Stop()
		forms.Stop()
		sessions.Shutdown()
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testApp{
		server: srv,
		market: market,
		deps:   deps,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (a *testApp) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()

	res, err := a.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, string(body)
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	return a.do(t, req)
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

func (a *testApp) postMultipart(t *testing.T, path string, fields map[string]string, image []byte) (*http.Response, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "ad.png")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		part.Write(image)
	}
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, a.server.URL+path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(t, req)
}

func (a *testApp) login(t *testing.T) {
	t.Helper()

	a.get(t, "/auth")
	res, body := a.postForm(t, "/auth", url.Values{"nickname": {"alice"}, "password": {"secret1"}})
	if res.StatusCode != http.StatusSeeOther {
		t.Fatalf("login: expected 303, got %d: %s", res.StatusCode, body)
	}
}

var formTokenPattern = regexp.MustCompile(`name="form_token" value="([^"]+)"`)

func formToken(t *testing.T, body string) string {
	t.Helper()
	m := formTokenPattern.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no form token in page")
	}
	return m[1]
}

// waitForCall polls until the fake market has seen key n times.
func (a *testApp) waitForCall(t *testing.T, key string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for a.market.count(key) < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d %q calls, got %d", n, key, a.market.count(key))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestGuardRedirects(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	tests := []struct {
		name     string
		path     string
		location string
	}{
		{"protected screen remembers target", "/profile", "/auth?next=%2Fprofile"},
		{"root goes to feed", "/", "/feed"},
		{"unknown path goes to auth", "/definitely/not/here", "/auth"},
		{"verify without pending registration", "/verify-email", "/auth"},
	}

	for _, tt := range tests {
		res, _ := app.get(t, tt.path)
		if res.StatusCode != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", tt.name, res.StatusCode)
		}
		if got := res.Header.Get("Location"); got != tt.location {
			t.Fatalf("%s: expected redirect to %q, got %q", tt.name, tt.location, got)
		}
	}
}

func TestSignedInUserLeavesAuthScreens(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	res, _ := app.get(t, "/auth")
	if res.StatusCode != http.StatusFound || res.Header.Get("Location") != "/feed" {
		t.Fatalf("expected redirect to /feed, got %d %q", res.StatusCode, res.Header.Get("Location"))
	}

	res, body := app.get(t, "/feed")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("feed: expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "alice") {
		t.Fatalf("feed should greet the signed-in user")
	}
}

func TestLoginNextIsFollowed(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.get(t, "/auth")

	res, _ := app.postForm(t, "/auth", url.Values{"nickname": {"alice"}, "password": {"secret1"}, "next": {"/settings"}})
	if got := res.Header.Get("Location"); got != "/settings" {
		t.Fatalf("expected redirect to /settings, got %q", got)
	}
}

func TestRegisterValidatesBeforeCallingAPI(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.get(t, "/register")

	res, body := app.postForm(t, "/register", url.Values{
		"nickname": {"abc"},
		"email":    {"abc@example.com"},
		"password": {"abc"},
		"confirm":  {"abc"},
	})
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "Password must be at least 6 characters.") {
		t.Fatalf("expected password error in page")
	}
	if !strings.Contains(body, `value="abc@example.com"`) {
		t.Fatalf("rejected form should keep the typed email")
	}
	if n := app.market.count("POST /api/register"); n != 0 {
		t.Fatalf("register must not reach the API, got %d calls", n)
	}
}

func TestServiceListingHoursAreValidated(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	_, page := app.get(t, "/c/others")
	token := formToken(t, page)

	res, body := app.postMultipart(t, "/c/others/ads", map[string]string{
		"form_token":  token,
		"server":      "ViceCity",
		"type":        "Услуги",
		"title":       "Taxi",
		"description": "Anywhere in the city",
		"currency":    "Договорная",
		"hours_limit": "200",
	}, testPNG(t, 400, 300))

	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "Hour limit must be between 1 and 180.") {
		t.Fatalf("expected hour limit error in page")
	}
	if n := app.market.count("POST /api/createnewads"); n != 0 {
		t.Fatalf("invalid listing must not reach the API, got %d calls", n)
	}
}

func TestCreateListingRequiresFreshFormToken(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)
	app.get(t, "/c/others")

	res, body := app.postMultipart(t, "/c/others/ads", map[string]string{"form_token": "stale", "server": "ViceCity"}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "This form has expired.") {
		t.Fatalf("expected expired form message")
	}
}

func TestCategoryPagination(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	res, body := app.get(t, "/c/vehicle")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("category: expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(body, `href="/ads/100"`) || !strings.Contains(body, `href="/ads/119"`) {
		t.Fatalf("first page should render 20 cards")
	}

	more := func() morePayload {
		req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/c/vehicle/more", nil)
		req.Header.Set("X-Requested-With", "fetch")
		res, body := app.do(t, req)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("more: expected 200, got %d: %s", res.StatusCode, body)
		}
		var envelope struct {
			Code int         `json:"code"`
			Data morePayload `json:"data"`
		}
		if err := json.Unmarshal([]byte(body), &envelope); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return envelope.Data
	}

	next := more()
	if next.HasMore {
		t.Fatalf("a short page must end the list")
	}
	if strings.Count(next.HTML, `class="ad-card"`) != 5 {
		t.Fatalf("expected 5 appended cards, got %q", next.HTML)
	}

	before := app.market.count("GET /api/ads")
	if end := more(); end.HasMore || end.HTML != "" {
		t.Fatalf("exhausted list should return nothing, got %+v", end)
	}
	if after := app.market.count("GET /api/ads"); after != before {
		t.Fatalf("exhausted list must not fetch again")
	}
}

func TestEditListingRoundTrip(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	res, page := app.get(t, "/manage-ads/7")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("manage: expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(page, `value="Cheetah"`) {
		t.Fatalf("edit form should be prefilled")
	}

	res, body := app.postMultipart(t, "/manage-ads/7", map[string]string{
		"form_token":  formToken(t, page),
		"server":      "ViceCity",
		"type":        "Продать",
		"title":       "Cheetah <v2>",
		"description": "Fast car",
		"currency":    "Договорная",
	}, nil)
	if res.StatusCode != http.StatusSeeOther {
		t.Fatalf("update: expected 303, got %d: %s", res.StatusCode, body)
	}
	if got := res.Header.Get("Location"); got != "/manage-ads/7" {
		t.Fatalf("expected redirect back to the editor, got %q", got)
	}
	if n := app.market.count("PUT /api/ads/7"); n != 1 {
		t.Fatalf("expected one update call, got %d", n)
	}

	_, page = app.get(t, "/manage-ads/7")
	if !strings.Contains(page, `value="Cheetah &lt;v2&gt;"`) {
		t.Fatalf("saved title should round-trip unescaped and be rendered safely")
	}
	if !strings.Contains(page, "Changes saved.") {
		t.Fatalf("expected success toast")
	}
}

func TestManageRejectsForeignListing(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	res, _ := app.get(t, "/manage-ads/999")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
}

func TestDeleteListingNeedsConfirmation(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	_, page := app.get(t, "/manage-ads/7")
	res, _ := app.postForm(t, "/manage-ads/7/delete", url.Values{"form_token": {formToken(t, page)}})
	if got := res.Header.Get("Location"); got != "/manage-ads/7?delete=confirm" {
		t.Fatalf("expected confirmation step, got %q", got)
	}
	if n := app.market.count("DELETE /api/ads/7"); n != 0 {
		t.Fatalf("unconfirmed delete reached the API")
	}

	_, page = app.get(t, "/manage-ads/7?delete=confirm")
	res, _ = app.postForm(t, "/manage-ads/7/delete", url.Values{"form_token": {formToken(t, page)}, "confirm": {"yes"}})
	if got := res.Header.Get("Location"); got != "/profile" {
		t.Fatalf("expected redirect to profile, got %q", got)
	}
	if n := app.market.count("DELETE /api/ads/7"); n != 1 {
		t.Fatalf("expected one delete call, got %d", n)
	}
}

func TestPreviewsAreScopedToSession(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	res, _ := app.get(t, fmt.Sprintf("/previews/previews/%s/1_abc.png", "someone-else"))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
}

func TestLogoutEndsAnonymous(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	res, _ := app.postForm(t, "/logout", nil)
	if got := res.Header.Get("Location"); got != "/auth" {
		t.Fatalf("expected redirect to /auth, got %q", got)
	}
	if n := app.market.count("POST /api/logout"); n != 1 {
		t.Fatalf("expected remote logout, got %d calls", n)
	}

	res, _ = app.get(t, "/feed")
	if got := res.Header.Get("Location"); got != "/auth?next=%2Ffeed" {
		t.Fatalf("expected guard redirect after logout, got %q", got)
	}
}

func TestSafeNext(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                  "/feed",
		"/settings":         "/settings",
		"/c/house?sort=new": "/c/house?sort=new",
		"//evil.example":    "/feed",
		"https://evil.test": "/feed",
		"/\\evil":           "/feed",
	}
	for in, want := range tests {
		if got := safeNext(in); got != want {
			t.Fatalf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInvalidLoginDoesNotStartCooldown(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.get(t, "/auth")

	res, body := app.postForm(t, "/auth", url.Values{"nickname": {"alice"}, "password": {""}})
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "Fill in all fields.") {
		t.Fatalf("expected required fields message")
	}

	res, body = app.postForm(t, "/auth", url.Values{"nickname": {"alice"}, "password": {"secret1"}})
	if res.StatusCode != http.StatusSeeOther {
		t.Fatalf("corrected login: expected 303, got %d: %s", res.StatusCode, body)
	}
	if n := app.market.count("POST /api/login"); n != 1 {
		t.Fatalf("expected one login call, got %d", n)
	}
}

func TestInvalidRegistrationDoesNotStartCooldown(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.get(t, "/register")

	form := url.Values{"nickname": {"alice"}, "email": {"alice@example.com"}, "password": {"abc"}, "confirm": {"abc"}}
	if res, _ := app.postForm(t, "/register", form); res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.StatusCode)
	}

	form.Set("password", "secret1")
	form.Set("confirm", "secret1")
	res, body := app.postForm(t, "/register", form)
	if res.StatusCode == http.StatusTooManyRequests || strings.Contains(body, "Please wait") {
		t.Fatalf("corrected registration must not be rate limited: %d", res.StatusCode)
	}
	if n := app.market.count("POST /api/register"); n != 1 {
		t.Fatalf("expected one register call, got %d", n)
	}
}

func TestCategoryPageRenders(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	for _, c := range []string{"business", "accs", "house", "security", "vehicle", "others"} {
		res, body := app.get(t, "/c/"+c)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", c, res.StatusCode)
		}
		if !strings.Contains(body, "25 listings") {
			t.Fatalf("%s: expected the listing count", c)
		}
		formToken(t, body)
	}
}

func vehicleListing(token string) map[string]string {
	return map[string]string{
		"form_token":  token,
		"server":      "ViceCity",
		"type":        "Продать",
		"title":       "Infernus",
		"description": "Mint condition",
		"currency":    "VC",
		"price":       "150000",
	}
}

func TestCreateListingStartsCooldown(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	_, page := app.get(t, "/c/vehicle")
	res, body := app.postMultipart(t, "/c/vehicle/ads", vehicleListing(formToken(t, page)), testPNG(t, 400, 300))
	if res.StatusCode != http.StatusSeeOther {
		t.Fatalf("create: expected 303, got %d: %s", res.StatusCode, body)
	}
	if got := res.Header.Get("Location"); !strings.HasPrefix(got, "/c/vehicle?") {
		t.Fatalf("expected redirect back to the category, got %q", got)
	}
	if n := app.market.count("POST /api/createnewads"); n != 1 {
		t.Fatalf("expected one create call, got %d", n)
	}

	countsBefore := app.market.count("GET /api/getadcount")
	_, page = app.get(t, res.Header.Get("Location"))
	if !strings.Contains(page, "Your listing is published.") {
		t.Fatalf("expected success toast")
	}
	if !strings.Contains(page, `data-cooldown="create_listing" disabled`) {
		t.Fatalf("publish button should be disabled during the cooldown")
	}
	if app.market.count("GET /api/getadcount") <= countsBefore {
		t.Fatalf("listing count should be refreshed")
	}

	res, body = app.postMultipart(t, "/c/vehicle/ads", vehicleListing(formToken(t, page)), testPNG(t, 400, 300))
	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second create: expected 429, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "You can create a new listing in") {
		t.Fatalf("expected cooldown message")
	}
	if n := app.market.count("POST /api/createnewads"); n != 1 {
		t.Fatalf("rate limited create reached the API")
	}
}

func TestListingPriceOutsideTableIsRejected(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	tests := map[string]string{
		"below range": "999",
		"negative":    "-150000",
		"fractional":  "1500.5",
	}
	for name, price := range tests {
		_, page := app.get(t, "/c/vehicle")
		fields := vehicleListing(formToken(t, page))
		fields["price"] = price

		res, body := app.postMultipart(t, "/c/vehicle/ads", fields, testPNG(t, 400, 300))
		if res.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", name, res.StatusCode)
		}
		if !strings.Contains(body, "Price must be between") {
			t.Fatalf("%s: expected price range message", name)
		}
		if !strings.Contains(body, `value="Infernus"`) {
			t.Fatalf("%s: rejected form should keep the typed title", name)
		}
	}
	if n := app.market.count("POST /api/createnewads"); n != 0 {
		t.Fatalf("invalid price must not reach the API, got %d calls", n)
	}
}

func TestListingDetailForOwner(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	res, body := app.get(t, "/ads/7")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(body, `href="/manage-ads/7"`) {
		t.Fatalf("owner should see the manage link")
	}
	if strings.Contains(body, "Report this listing") {
		t.Fatalf("owner cannot report their own listing")
	}
	app.waitForCall(t, "POST /api/ads/7/view", 1)
}

func TestListingDetailForVisitor(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)
	app.get(t, "/c/vehicle")

	res, body := app.get(t, "/ads/105")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if strings.Contains(body, `href="/manage-ads/105"`) {
		t.Fatalf("visitor must not see the manage link")
	}
	if !strings.Contains(body, ">Buy<") {
		t.Fatalf("a sell listing should offer the visitor to buy")
	}
	app.waitForCall(t, "POST /api/ads/105/view", 1)
	app.waitForCall(t, "POST /api/viewed-ads", 1)
}

func TestAnonymousViewSkipsViewedList(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	r := httptest.NewRequest(http.MethodGet, "/ads/105", nil)
	app.deps.recordView(r, session.New("anon", ""), 105, false)

	app.waitForCall(t, "POST /api/ads/105/view", 1)
	time.Sleep(50 * time.Millisecond)
	if n := app.market.count("POST /api/viewed-ads"); n != 0 {
		t.Fatalf("anonymous views must not touch the viewed list, got %d calls", n)
	}
}

func TestParseAmountIgnoresMalformedBounds(t *testing.T) {
	t.Parallel()

	tests := map[string]int64{
		"":        0,
		"15000":   15000,
		" 42 ":    42,
		"-5000":   0,
		"1.5":     0,
		"1e3":     0,
		"10 000":  0,
		"0000012": 12,
	}
	for in, want := range tests {
		if got := parseAmount(in); got != want {
			t.Fatalf("parseAmount(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestAccountScreensRender(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login(t)

	tests := []struct {
		path string
		want string
	}{
		{"/profile", `href="/ads/7"`},
		{"/profile?tab=reviews", "Smooth &lt;deal&gt;"},
		{"/profile?tab=viewed", `href="/ads/300"`},
		{"/settings", "alice@example.com"},
		{"/settings?edit=nickname", `name="value"`},
		{"/reviews/new?ad=300", `<option value="300" selected>`},
		{"/help", "Help"},
	}
	for _, tt := range tests {
		res, body := app.get(t, tt.path)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.path, res.StatusCode)
		}
		if !strings.Contains(body, tt.want) {
			t.Fatalf("%s: expected %q in page", tt.path, tt.want)
		}
	}
}
