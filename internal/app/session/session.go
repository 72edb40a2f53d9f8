/*
Package session holds the authentication state of each browser and the per-browser
screen state that outlives a single request: cooldowns, in-flight submissions,
pagination cursors, the cache of listings seen, and staged preview images.

State changes only go through Store operations; handlers read Snapshots.
*/
package session

import (
	"net/http"
	"sync"
	"time"

	"arzweb/internal/app/api"
	"arzweb/internal/app/cooldown"
	"arzweb/internal/app/market"
	"arzweb/internal/app/paging"
)

// Status is the authentication state of a session.
type Status int

const (
	StatusLoading Status = iota
	StatusAnonymous
	StatusPendingVerification
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAnonymous:
		return "anonymous"
	case StatusPendingVerification:
		return "pending-verification"
	case StatusAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Snapshot is a copy of the authentication state.
type Snapshot struct {
	User                     *market.User
	Loading                  bool
	PendingVerificationEmail string
}

// Status derives the state machine position from the snapshot.
func (s Snapshot) Status() Status {
	switch {
	case s.User != nil:
		return StatusAuthenticated
	case s.Loading:
		return StatusLoading
	case s.PendingVerificationEmail != "":
		return StatusPendingVerification
	default:
		return StatusAnonymous
	}
}

// Authenticated reports whether a user is signed in.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// Nickname returns the signed-in nickname or "".
func (s Snapshot) Nickname() string {
	if s.User == nil {
		return ""
	}
	return s.User.Nickname
}

// ThemeClass is the body class for the user's theme. Anonymous visitors get the dark theme.
func (s Snapshot) ThemeClass() string {
	if s.User == nil {
		return market.ThemeDark.Class()
	}
	return s.User.Theme.Class()
}

// Action names a user-triggered submission.
type Action string

const (
	ActionLogin         Action = "login"
	ActionRegister      Action = "register"
	ActionVerify        Action = "verify"
	ActionResend        Action = "resend"
	ActionReview        Action = "review"
	ActionReport        Action = "report"
	ActionCreateListing Action = "create_listing"
	ActionUpdateListing Action = "update_listing"
	ActionDeleteListing Action = "delete_listing"
	ActionSettings      Action = "settings"
	ActionBackground    Action = "background"
)

// Cooldowns are the per-action throttles of the auth and review screens.
var Cooldowns = map[Action]time.Duration{
	ActionLogin:    2 * time.Second,
	ActionRegister: 3 * time.Second,
	ActionVerify:   2 * time.Second,
	ActionResend:   5 * time.Second,
	ActionReview:   3 * time.Second,
}

// ListingCooldown separates two successful listing creations.
const ListingCooldown = 60 * time.Second

// PreviewSlot names a staged image awaiting commit.
type PreviewSlot string

const (
	PreviewAvatar     PreviewSlot = "avatar"
	PreviewBackground PreviewSlot = "background"
)

// Flash is a one-shot message shown after a redirect.
type Flash struct {
	Kind    string
	Message string
}

const maxCachedListings = 512

// Session is the server-side state of one browser.
type Session struct {
	ID string

	mu sync.Mutex

	user         *market.User
	loading      bool
	pendingEmail string
	remote       map[string]*http.Cookie

	refreshedAt time.Time
	lastSeen    time.Time

	// authGen changes on every credential mutation; refresh results from an older
	// generation are dropped.
	authGen uint64

	cooldowns       map[Action]*cooldown.Limiter
	listingCooldown *cooldown.Limiter
	submitting      map[Action]bool

	categoryPagers map[market.Category]*paging.Pager[api.ListQuery]
	feedPager      *paging.Pager[struct{}]

	listings     map[int64]market.Listing
	listingOrder []int64

	previews map[PreviewSlot]string
	flash    *Flash
}

// New creates a loading session seeded with a pending verification email, which may be "".
func New(id, pendingEmail string) *Session {
	return &Session{
		ID:              id,
		loading:         true,
		pendingEmail:    pendingEmail,
		remote:          make(map[string]*http.Cookie),
		lastSeen:        time.Now(),
		cooldowns:       make(map[Action]*cooldown.Limiter),
		listingCooldown: cooldown.New(ListingCooldown),
		submitting:      make(map[Action]bool),
		categoryPagers:  make(map[market.Category]*paging.Pager[api.ListQuery]),
		listings:        make(map[int64]market.Listing),
		previews:        make(map[PreviewSlot]string),
	}
}

// Snapshot returns a copy of the authentication state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{Loading: s.loading, PendingVerificationEmail: s.pendingEmail}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// generation returns the current credential generation.
func (s *Session) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authGen
}

// bump starts a new credential generation.
func (s *Session) bump() {
	s.mu.Lock()
	s.authGen++
	s.mu.Unlock()
}

// setUser authenticates the session and drops any pending verification. It is a no-op
// when gen is stale.
func (s *Session) setUser(gen uint64, u market.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.authGen {
		return false
	}
	if s.user != nil && s.user.Nickname != u.Nickname {
		s.resetScreensLocked()
	}
	s.user = &u
	s.pendingEmail = ""
	s.loading = false
	s.refreshedAt = time.Now()
	return true
}

// setAnonymous drops the user but keeps a pending verification. It is a no-op when gen is stale.
func (s *Session) setAnonymous(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.authGen {
		return false
	}
	if s.user != nil {
		s.resetScreensLocked()
	}
	s.user = nil
	s.loading = false
	s.refreshedAt = time.Now()
	return true
}

// markPending records an email awaiting verification. The user is cleared so both are never set.
func (s *Session) markPending(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authGen++
	s.user = nil
	s.pendingEmail = email
	s.loading = false
}

func (s *Session) clearPending() {
	s.mu.Lock()
	s.pendingEmail = ""
	s.mu.Unlock()
}

// reset returns the session to anonymous and forgets the remote credentials.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authGen++
	s.user = nil
	s.pendingEmail = ""
	s.loading = false
	s.remote = make(map[string]*http.Cookie)
	s.refreshedAt = time.Now()
	s.resetScreensLocked()
}

func (s *Session) resetScreensLocked() {
	s.categoryPagers = make(map[market.Category]*paging.Pager[api.ListQuery])
	s.feedPager = nil
	s.listings = make(map[int64]market.Listing)
	s.listingOrder = nil
}

// needsRefresh reports whether the state is unknown or older than every.
func (s *Session) needsRefresh(every time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading || every <= 0 || time.Since(s.refreshedAt) >= every
}

// Touch records activity.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// IdleSince returns the time of the last request.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Cookies implements api.Credentials.
func (s *Session) Cookies() []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	out := make([]*http.Cookie, 0, len(s.remote))
	for name, c := range s.remote {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			delete(s.remote, name)
			continue
		}
		out = append(out, c)
	}
	return out
}

// SetCookies implements api.Credentials. Deletions (MaxAge < 0 or empty value) remove the cookie.
func (s *Session) SetCookies(cookies []*http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cookies {
		if c.MaxAge < 0 || c.Value == "" {
			delete(s.remote, c.Name)
			continue
		}
		stored := &http.Cookie{Name: c.Name, Value: c.Value, Expires: c.Expires}
		if c.MaxAge > 0 {
			stored.Expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
		}
		s.remote[c.Name] = stored
	}
}

func (s *Session) hasRemoteCredentials() bool {
	return len(s.Cookies()) > 0
}

// Cooldown returns the throttle of action, creating it on first use.
// Actions without a configured cooldown get a zero-length one.
func (s *Session) Cooldown(action Action) *cooldown.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.cooldowns[action]
	if !ok {
		l = cooldown.New(Cooldowns[action])
		s.cooldowns[action] = l
	}
	return l
}

// ListingCooldown is armed after each successful listing creation.
func (s *Session) ListingCooldown() *cooldown.Limiter {
	return s.listingCooldown
}

// BeginSubmit marks action as in flight. It returns false when the action is already
// submitting; otherwise the returned func must be called when the submission ends.
func (s *Session) BeginSubmit(action Action) (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting[action] {
		return nil, false
	}
	s.submitting[action] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.submitting, action)
			s.mu.Unlock()
		})
	}, true
}

// Submitting reports whether action is in flight.
func (s *Session) Submitting(action Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting[action]
}

// CategoryPager returns the cursor of a category browser.
func (s *Session) CategoryPager(c market.Category) *paging.Pager[api.ListQuery] {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.categoryPagers[c]
	if !ok {
		p = paging.New[api.ListQuery](paging.PageSize)
		s.categoryPagers[c] = p
	}
	return p
}

// FeedPager returns the cursor of the random feed.
func (s *Session) FeedPager() *paging.Pager[struct{}] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.feedPager == nil {
		s.feedPager = paging.New[struct{}](paging.FeedPageSize)
	}
	return s.feedPager
}

// Remember caches listings so their detail view can be opened later.
func (s *Session) Remember(listings ...market.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range listings {
		if l.ID == 0 {
			continue
		}
		if _, ok := s.listings[l.ID]; !ok {
			s.listingOrder = append(s.listingOrder, l.ID)
		}
		s.listings[l.ID] = l
	}

	for len(s.listingOrder) > maxCachedListings {
		oldest := s.listingOrder[0]
		s.listingOrder = s.listingOrder[1:]
		delete(s.listings, oldest)
	}
}

// Forget drops a cached listing.
func (s *Session) Forget(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[id]; !ok {
		return
	}
	delete(s.listings, id)
	for i, v := range s.listingOrder {
		if v == id {
			s.listingOrder = append(s.listingOrder[:i], s.listingOrder[i+1:]...)
			break
		}
	}
}

// Listing returns a cached listing.
func (s *Session) Listing(id int64) (market.Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	return l, ok
}

// SetPreview stages key in slot and returns the key it replaced, if any.
func (s *Session) SetPreview(slot PreviewSlot, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.previews[slot]
	s.previews[slot] = key
	return old
}

// Preview returns the staged key of slot.
func (s *Session) Preview(slot PreviewSlot) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previews[slot]
}

// TakePreview removes and returns the staged key of slot.
func (s *Session) TakePreview(slot PreviewSlot) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.previews[slot]
	delete(s.previews, slot)
	return key
}

// Previews returns every staged key.
func (s *Session) Previews() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.previews))
	for _, key := range s.previews {
		out = append(out, key)
	}
	return out
}

// SetFlash stores a message for the next rendered page.
func (s *Session) SetFlash(kind, message string) {
	s.mu.Lock()
	s.flash = &Flash{Kind: kind, Message: message}
	s.mu.Unlock()
}

// TakeFlash returns and clears the pending flash.
func (s *Session) TakeFlash() *Flash {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.flash
	s.flash = nil
	return f
}

// Close releases the timers owned by the session.
func (s *Session) Close() {
	s.mu.Lock()
	limiters := make([]*cooldown.Limiter, 0, len(s.cooldowns)+1)
	for _, l := range s.cooldowns {
		limiters = append(limiters, l)
	}
	limiters = append(limiters, s.listingCooldown)
	s.mu.Unlock()

	for _, l := range limiters {
		l.Close()
	}
}

// record captures what is persisted across restarts.
func (s *Session) record() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &Record{ID: s.ID, PendingEmail: s.pendingEmail, UpdatedAt: time.Now().UTC()}
	for _, c := range s.remote {
		rec.Cookies = append(rec.Cookies, StoredCookie{Name: c.Name, Value: c.Value, Expires: c.Expires})
	}
	return rec
}

// fromRecord rebuilds a loading session from a persisted record.
func fromRecord(rec *Record) *Session {
	s := New(rec.ID, rec.PendingEmail)
	for _, c := range rec.Cookies {
		s.remote[c.Name] = &http.Cookie{Name: c.Name, Value: c.Value, Expires: c.Expires}
	}
	return s
}
