package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"arzweb/internal/app/api"
	"arzweb/internal/app/market"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/logx"
)

// DefaultWaitBudget bounds how long a page request waits for a refresh before
// rendering the loading placeholder.
const DefaultWaitBudget = 3 * time.Second

// Remote is the part of the marketplace API the store drives.
type Remote interface {
	Me(ctx context.Context, creds api.Credentials) (market.User, error)
	Refresh(ctx context.Context, creds api.Credentials) error
	Login(ctx context.Context, creds api.Credentials, in api.LoginRequest) error
	Register(ctx context.Context, creds api.Credentials, in api.RegisterRequest) (api.RegisterResult, error)
	VerifyEmail(ctx context.Context, creds api.Credentials, in api.VerifyEmailRequest) error
	ResendCode(ctx context.Context, creds api.Credentials, email string) error
	Logout(ctx context.Context, creds api.Credentials) error
}

// IPSource supplies the optional client address sent with login and verification.
type IPSource interface {
	IP(ctx context.Context) string
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// RefreshInterval is how old the "who am I" answer may get before a page refreshes it.
	RefreshInterval time.Duration

	// WaitBudget bounds how long EnsureFresh blocks.
	WaitBudget time.Duration
}

// Store owns every mutation of session authentication state.
type Store struct {
	remote  Remote
	ip      IPSource
	manager *Manager
	opts    StoreOptions

	refreshes singleflight.Group
}

// NewStore wires a Store. ip may be nil.
func NewStore(remote Remote, ip IPSource, manager *Manager, opts StoreOptions) *Store {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = time.Minute
	}
	if opts.WaitBudget <= 0 {
		opts.WaitBudget = DefaultWaitBudget
	}
	return &Store{remote: remote, ip: ip, manager: manager, opts: opts}
}

// Refresh queries "who am I" and moves the session to authenticated or anonymous.
// Concurrent refreshes of one session share a single remote call.
func (st *Store) Refresh(ctx context.Context, s *Session) Snapshot {
	gen := s.generation()
	key := fmt.Sprintf("%s/%d", s.ID, gen)

	ch := st.refreshes.DoChan(key, func() (any, error) {
		st.refresh(context.WithoutCancel(ctx), s, gen)
		return nil, nil
	})

	select {
	case <-ch:
	case <-ctx.Done():
	}
	return s.Snapshot()
}

// EnsureFresh refreshes a loading or stale session, waiting at most the wait budget.
// When the budget runs out the refresh continues in the background and the current,
// possibly loading, snapshot is returned.
func (st *Store) EnsureFresh(ctx context.Context, s *Session) Snapshot {
	if !s.needsRefresh(st.opts.RefreshInterval) {
		return s.Snapshot()
	}

	waitCtx, cancel := context.WithTimeout(ctx, st.opts.WaitBudget)
	defer cancel()
	return st.Refresh(waitCtx, s)
}

func (st *Store) refresh(ctx context.Context, s *Session, gen uint64) {
	log := logx.FromContext(ctx).With().Str("session_id", s.ID).Logger()

	if !s.hasRemoteCredentials() {
		s.setAnonymous(gen)
		return
	}

	user, err := st.remote.Me(ctx, s)
	if err != nil && api.StatusCode(err) == http.StatusUnauthorized {
		if refreshErr := st.remote.Refresh(ctx, s); refreshErr == nil {
			user, err = st.remote.Me(ctx, s)
		} else {
			log.Debug().Err(refreshErr).Msg("Token refresh rejected")
		}
	}

	if err != nil {
		log.Debug().Err(err).Msg("Session is anonymous after refresh")
		if s.setAnonymous(gen) {
			st.manager.Persist(ctx, s)
		}
		return
	}

	if s.setUser(gen, user) {
		st.manager.Persist(ctx, s)
	} else {
		log.Debug().Msg("Dropped refresh result of an older credential generation")
	}
}

func (st *Store) clientIP(ctx context.Context) string {
	if st.ip == nil {
		return ""
	}
	return st.ip.IP(ctx)
}

// Login signs in. On failure the state is unchanged and the error carries the server message.
func (st *Store) Login(ctx context.Context, s *Session, nickname, password string) error {
	if err := market.ValidateLogin(nickname, password); err != nil {
		return err
	}

	err := st.remote.Login(ctx, s, api.LoginRequest{
		Nickname: nickname,
		Password: password,
		ClientIP: st.clientIP(ctx),
	})
	if err != nil {
		return api.AsCustomError(err)
	}

	s.clearPending()
	s.bump()
	if snap := st.Refresh(ctx, s); !snap.Authenticated() {
		return errs.NewError(errs.ErrUnauthorized)
	}
	return nil
}

// Register creates an account. It reports whether the email must be verified first,
// in which case the session moves to pending verification.
func (st *Store) Register(ctx context.Context, s *Session, in market.Registration) (bool, error) {
	if err := in.Validate(); err != nil {
		return false, err
	}

	res, err := st.remote.Register(ctx, s, api.RegisterRequest{
		Nickname: in.Nickname,
		Password: in.Password,
		Email:    in.Email,
	})
	if err != nil {
		return false, api.AsCustomError(err)
	}

	if res.RequiresVerify {
		s.markPending(in.Email)
		st.manager.Persist(ctx, s)
		return true, nil
	}

	s.clearPending()
	s.bump()
	if snap := st.Refresh(ctx, s); !snap.Authenticated() {
		return false, errs.NewError(errs.ErrUnauthorized)
	}
	return false, nil
}

// Verify confirms the emailed code, clears the pending marker and signs the user in.
func (st *Store) Verify(ctx context.Context, s *Session, email, code string) error {
	if email == "" {
		return errs.NewError(errs.ErrNotPending)
	}
	digits, verr := market.ValidateVerifyCode(code)
	if verr != nil {
		return verr
	}

	err := st.remote.VerifyEmail(ctx, s, api.VerifyEmailRequest{
		Email:    email,
		Code:     digits,
		ClientIP: st.clientIP(ctx),
	})
	if err != nil {
		return api.AsCustomError(err)
	}

	s.clearPending()
	s.bump()
	st.Refresh(ctx, s)
	return nil
}

// ResendCode requests a new verification email.
func (st *Store) ResendCode(ctx context.Context, s *Session, email string) error {
	if email == "" {
		return errs.NewError(errs.ErrNotPending)
	}
	if err := st.remote.ResendCode(ctx, s, email); err != nil {
		return api.AsCustomError(err)
	}
	return nil
}

// Logout notifies the API best-effort and always ends anonymous.
func (st *Store) Logout(ctx context.Context, s *Session) {
	if s.hasRemoteCredentials() {
		if err := st.remote.Logout(ctx, s); err != nil {
			logx.FromContext(ctx).Warn().Err(err).Str("session_id", s.ID).Msg("Remote logout failed")
		}
	}
	s.reset()
	st.manager.Persist(ctx, s)
}

// Reload refreshes immediately, used after profile changes.
func (st *Store) Reload(ctx context.Context, s *Session) Snapshot {
	return st.Refresh(ctx, s)
}
