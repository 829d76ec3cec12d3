package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/semaphore"

	domainauth "github.com/target/authify-client/internal/domain/auth"
	apperrors "github.com/target/authify-client/internal/errors"
	"github.com/target/authify-client/internal/observability/metrics"
	"github.com/target/authify-client/internal/observability/statsd"
	"github.com/target/authify-client/internal/ports"
)

// Fallback messages shown when the auth service gives no reason.
const (
	MsgRegisterFailed = "Registration failed. Please try again."
	MsgLoginFailed    = "Login failed. Please check your credentials."
	MsgProfileFailed  = "Failed to load profile. Please try again."
	MsgNoSession      = "You are not logged in."
	MsgStoreFailed    = "Could not save your session. Please try again."
)

// SessionManagerConfig holds optional settings for SessionManager.
type SessionManagerConfig struct {
	Logger  *slog.Logger
	Metrics statsd.Sink
	// RejectExpiredOnRestore drops a persisted session whose token carries a past exp.
	RejectExpiredOnRestore bool
	Now                    func() time.Time
}

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Client ports.AuthClient     // Required: remote auth service
	Store  ports.SessionStore   // Required: persisted session
	Config SessionManagerConfig // Optional
}

// SessionManager owns the client-side session. It is the only writer to the
// session store; login, logout, identity updates and restore run one at a time.
type SessionManager struct {
	client        ports.AuthClient
	store         ports.SessionStore
	logger        *slog.Logger
	metrics       statsd.Sink
	rejectExpired bool
	now           func() time.Time

	// sem serializes session-mutating operations, including their remote calls.
	sem *semaphore.Weighted

	mu        sync.RWMutex
	state     domainauth.SessionState
	session   *domainauth.Session
	loading   bool
	observers map[int]ports.IdentityObserver
	nextObsID int
}

// NewSessionManager constructs a SessionManager. Restore should be called once
// before the manager is used.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	if opts.Client == nil {
		panic("AuthClient is required")
	}
	if opts.Store == nil {
		panic("SessionStore is required")
	}

	logger := opts.Config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Config.Now
	if now == nil {
		now = time.Now
	}

	return &SessionManager{
		client:        opts.Client,
		store:         opts.Store,
		logger:        logger.With("component", "session_manager"),
		metrics:       opts.Config.Metrics,
		rejectExpired: opts.Config.RejectExpiredOnRestore,
		now:           now,
		sem:           semaphore.NewWeighted(1),
		state:         domainauth.StateUnauthenticated,
		loading:       true,
		observers:     make(map[int]ports.IdentityObserver),
	}
}

// Subscribe registers obs for identity events and returns a function that
// removes it. Events are delivered synchronously after each transition.
func (m *SessionManager) Subscribe(obs ports.IdentityObserver) func() {
	m.mu.Lock()
	id := m.nextObsID
	m.nextObsID++
	m.observers[id] = obs
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}
}

// State returns the current lifecycle state.
func (m *SessionManager) State() domainauth.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Loading is true until the first Restore completes.
func (m *SessionManager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Current returns the identity of the active session.
func (m *SessionManager) Current() (domainauth.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return domainauth.Identity{}, false
	}
	return m.session.Identity, true
}

// IsAuthenticated reports whether a session is established.
func (m *SessionManager) IsAuthenticated() bool {
	_, ok := m.Current()
	return ok
}

// IsVerified reports whether the current identity has a verified email.
func (m *SessionManager) IsVerified() bool {
	id, ok := m.Current()
	return ok && id.IsVerified
}

// Token returns the bearer token of the active session.
func (m *SessionManager) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return "", apperrors.NoActiveSession(MsgNoSession)
	}
	return m.session.Token, nil
}

// Register creates an account. It never establishes a session.
func (m *SessionManager) Register(ctx context.Context, name, email, password string) (ack domainauth.RegistrationAck, err error) {
	start := m.now()
	defer func() { m.emit("register", start, err, false) }()

	form := registerForm{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: password}
	if err := validateForm(form); err != nil {
		return domainauth.RegistrationAck{}, err
	}

	prof, err := m.client.Register(ctx, ports.RegisterInput(form))
	if err != nil {
		m.logger.WarnContext(ctx, "registration rejected", "email", form.Email, "error", err)
		return domainauth.RegistrationAck{}, remoteFailure(err, MsgRegisterFailed)
	}

	m.logger.InfoContext(ctx, "account registered", "email", form.Email, "user_id", prof.UserID)
	return domainauth.RegistrationAck{
		UserID:     prof.UserID,
		Name:       prof.Name,
		Email:      prof.Email,
		IsVerified: prof.IsAccountVerified,
	}, nil
}

// Login authenticates and establishes a session. The token is persisted as soon
// as it is issued; a failed profile fetch leaves a session with a minimal
// identity holding only the email.
func (m *SessionManager) Login(ctx context.Context, email, password string) (id domainauth.Identity, err error) {
	start := m.now()
	defer func() { m.emit("login", start, err, false) }()

	form := loginForm{Email: strings.TrimSpace(email), Password: password}
	if err := validateForm(form); err != nil {
		return domainauth.Identity{}, err
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return domainauth.Identity{}, fmt.Errorf("acquire session lock: %w", err)
	}
	defer m.sem.Release(1)

	prevState := m.State()
	m.setState(domainauth.StateAuthenticating)

	res, err := m.client.Login(ctx, ports.LoginInput(form))
	if err == nil && res.Token == "" {
		err = apperrors.RemoteRejected(MsgLoginFailed, errors.New("login response carried no token"))
	}
	if err != nil {
		m.setState(prevState)
		m.logger.WarnContext(ctx, "login rejected", "email", form.Email, "error", err)
		return domainauth.Identity{}, remoteFailure(err, MsgLoginFailed)
	}

	loginEmail := res.Email
	if loginEmail == "" {
		loginEmail = form.Email
	}
	sess := domainauth.Session{
		Token:     res.Token,
		Identity:  domainauth.Identity{Email: loginEmail},
		ExpiresAt: tokenExpiry(res.Token),
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return domainauth.Identity{}, m.failPersist(ctx, err)
	}

	if prof, perr := m.client.GetProfile(ctx, res.Token); perr != nil {
		m.logger.WarnContext(ctx, "profile fetch failed after login, continuing with minimal identity",
			"email", loginEmail, "error", perr)
	} else {
		full := sess
		full.Identity = prof.Identity()
		if full.Identity.Email == "" {
			full.Identity.Email = loginEmail
		}
		if serr := m.store.Save(ctx, full); serr != nil {
			m.logger.WarnContext(ctx, "persist profile failed, keeping minimal identity",
				"email", loginEmail, "error", serr)
		} else {
			sess = full
		}
	}

	m.establish(sess)
	m.logger.InfoContext(ctx, "logged in", "email", sess.Identity.Email, "user_id", sess.Identity.UserID,
		"verified", sess.Identity.IsVerified)
	return sess.Identity, nil
}

// Logout clears the persisted and in-memory session. It never fails; a store
// error is logged and the in-memory session is cleared regardless.
func (m *SessionManager) Logout(ctx context.Context) {
	start := m.now()
	_ = m.sem.Acquire(context.WithoutCancel(ctx), 1)
	defer m.sem.Release(1)

	m.clearLocked(ctx, "logout")
	m.emit("logout", start, nil, false)
}

// UpdateIdentity replaces the identity of the active session and persists it.
func (m *SessionManager) UpdateIdentity(ctx context.Context, id domainauth.Identity) (err error) {
	start := m.now()
	defer func() { m.emit("update_identity", start, err, false) }()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	defer m.sem.Release(1)

	return m.updateIdentityLocked(ctx, "", id)
}

// Restore loads the persisted session without any remote call. Validity is
// only discovered when a later authenticated call is rejected, unless
// RejectExpiredOnRestore is set and the token's exp has passed.
func (m *SessionManager) Restore(ctx context.Context) (err error) {
	start := m.now()
	defer func() { m.emit("restore", start, err, false) }()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	defer m.sem.Release(1)
	defer m.setLoading(false)

	sess, ok, err := m.store.Load(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "load persisted session failed", "error", err)
		m.reset()
		return apperrors.Internal("Could not restore your session.", err)
	}
	if !ok || !sess.Valid() {
		m.reset()
		return nil
	}

	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = tokenExpiry(sess.Token)
	}
	if m.rejectExpired && sess.Expired(m.now()) {
		m.logger.InfoContext(ctx, "discarding expired session", "email", sess.Identity.Email)
		if cerr := m.store.Clear(ctx); cerr != nil {
			m.logger.WarnContext(ctx, "clear expired session failed", "error", cerr)
		}
		m.reset()
		return nil
	}

	m.establish(sess)
	m.logger.DebugContext(ctx, "session restored", "email", sess.Identity.Email)
	return nil
}

// RefreshProfile fetches the profile for the active session and applies it.
// A rejected token logs the session out.
func (m *SessionManager) RefreshProfile(ctx context.Context) (id domainauth.Identity, err error) {
	start := m.now()
	defer func() { m.emit("refresh_profile", start, err, false) }()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return domainauth.Identity{}, fmt.Errorf("acquire session lock: %w", err)
	}
	defer m.sem.Release(1)

	token, err := m.Token()
	if err != nil {
		return domainauth.Identity{}, err
	}

	prof, err := m.client.GetProfile(ctx, token)
	if err != nil {
		if apperrors.IsTokenRejected(err) {
			m.clearLocked(ctx, "token rejected")
		}
		return domainauth.Identity{}, remoteFailure(err, MsgProfileFailed)
	}

	next := prof.Identity()
	if next.Email == "" {
		cur, _ := m.Current()
		next.Email = cur.Email
	}
	if err := m.updateIdentityLocked(ctx, token, next); err != nil {
		return domainauth.Identity{}, err
	}
	return next, nil
}

// rejectToken performs the implicit logout that follows a token rejection seen
// by another component. A newer session with a different token is left alone.
func (m *SessionManager) rejectToken(ctx context.Context, token string) {
	_ = m.sem.Acquire(context.WithoutCancel(ctx), 1)
	defer m.sem.Release(1)

	if cur, err := m.Token(); err != nil || cur != token {
		return
	}
	m.clearLocked(ctx, "token rejected")
}

// markVerified flips IsVerified on the current identity when it belongs to email
// (any identity when email is empty).
func (m *SessionManager) markVerified(ctx context.Context, email string) error {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	defer m.sem.Release(1)

	cur, ok := m.Current()
	if !ok {
		return apperrors.NoActiveSession(MsgNoSession)
	}
	if email != "" && !strings.EqualFold(cur.Email, email) {
		return nil
	}
	cur.IsVerified = true
	return m.updateIdentityLocked(ctx, "", cur)
}

// updateIdentityLocked requires m.sem. A non-empty token must match the active session.
func (m *SessionManager) updateIdentityLocked(ctx context.Context, token string, id domainauth.Identity) error {
	m.mu.RLock()
	var sess domainauth.Session
	active := m.session != nil
	if active {
		sess = *m.session
	}
	m.mu.RUnlock()

	if !active || (token != "" && sess.Token != token) {
		return apperrors.NoActiveSession(MsgNoSession)
	}

	sess.Identity = id
	if err := m.store.Save(ctx, sess); err != nil {
		m.logger.WarnContext(ctx, "persist identity failed", "error", err)
		return apperrors.Internal(MsgStoreFailed, err)
	}
	m.establish(sess)
	return nil
}

// clearLocked requires m.sem.
func (m *SessionManager) clearLocked(ctx context.Context, reason string) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.ErrorContext(ctx, "clear persisted session failed", "reason", reason, "error", err)
	}
	cur, had := m.Current()
	m.reset()
	if had {
		m.logger.InfoContext(ctx, "logged out", "reason", reason, "email", cur.Email)
	}
}

// failPersist requires m.sem. It drops any session so store and memory agree.
func (m *SessionManager) failPersist(ctx context.Context, err error) error {
	m.logger.ErrorContext(ctx, "persist session failed", "error", err)
	if cerr := m.store.Clear(ctx); cerr != nil {
		err = errors.Join(err, fmt.Errorf("clear session: %w", cerr))
	}
	m.reset()
	return apperrors.Internal(MsgStoreFailed, err)
}

func (m *SessionManager) establish(sess domainauth.Session) {
	m.mu.Lock()
	m.session = &sess
	m.state = domainauth.StateAuthenticated
	m.mu.Unlock()
	m.notify()
}

func (m *SessionManager) reset() {
	m.mu.Lock()
	m.session = nil
	m.state = domainauth.StateUnauthenticated
	m.mu.Unlock()
	m.notify()
}

func (m *SessionManager) setState(s domainauth.SessionState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.notify()
}

func (m *SessionManager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *SessionManager) notify() {
	m.mu.RLock()
	ev := ports.IdentityEvent{State: m.state}
	if m.session != nil {
		id := m.session.Identity
		ev.Identity = &id
	}
	obs := make([]ports.IdentityObserver, 0, len(m.observers))
	for _, o := range m.observers {
		obs = append(obs, o)
	}
	m.mu.RUnlock()

	for _, o := range obs {
		o.OnIdentity(ev)
	}
}

func (m *SessionManager) emit(op string, start time.Time, err error, noop bool) {
	metrics.EmitSessionEvent(m.metrics, metrics.SessionEvent{
		Operation: op,
		Duration:  m.now().Sub(start),
		Err:       err,
		Noop:      noop,
	})
}

// tokenExpiry reads exp from a JWT without verifying it; the client holds no key.
// Opaque tokens yield the zero time.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
