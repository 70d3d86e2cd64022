package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLoginTimeout is the window a login call races against.
const DefaultLoginTimeout = 10 * time.Second

// LoginResult is the resolved pair returned by a successful login. Exactly
// one of {both present} or {no result} is possible; partial results are
// rejected at the gateway.
type LoginResult struct {
	User       *User
	Credential string
}

// Option customizes Manager construction.
type Option func(*Manager)

// WithLogger overrides the default logger.
func WithLogger(logger Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithLoginTimeout overrides the login race window.
func WithLoginTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.loginTimeout = timeout
		}
	}
}

// WithActivitySink sets the ActivitySink used to publish session events.
func WithActivitySink(sink ActivitySink) Option {
	return func(m *Manager) {
		m.sink = normalizeActivitySink(sink)
	}
}

// WithBroadcast shares an existing credential broadcast channel instead of
// the Manager creating its own.
func WithBroadcast(broadcast *Broadcast) Option {
	return func(m *Manager) {
		if broadcast != nil {
			m.broadcast = broadcast
		}
	}
}

// Manager is the session service: it owns the state machine, mirrors
// accepted sessions to the Store, adopts refreshed credentials from the
// Broadcast, and funnels every failure into LastError instead of returning
// errors across the public boundary.
//
// Construct one per process and inject it into whatever consumes the
// session; there is deliberately no package-level singleton.
type Manager struct {
	mu           sync.Mutex
	state        State
	loginGen     uint64
	watchers     map[string]func(State)
	closed       bool
	gateway      Gateway
	store        Store
	logger       Logger
	now          func() time.Time
	loginTimeout time.Duration
	sink         ActivitySink
	broadcast    *Broadcast
	unsubscribe  func()
	bootOnce     sync.Once
}

// New returns a Manager in the pre-bootstrap state: empty session, Loading
// set. Call Bootstrap to settle it.
func New(gateway Gateway, store Store, opts ...Option) *Manager {
	m := &Manager{
		state:        State{Loading: true},
		watchers:     map[string]func(State){},
		gateway:      gateway,
		store:        store,
		logger:       defLogger{},
		now:          time.Now,
		loginTimeout: DefaultLoginTimeout,
		sink:         noopActivitySink{},
	}

	if m.store == nil {
		m.store = NewMemoryStore()
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.broadcast == nil {
		m.broadcast = NewBroadcast()
	}

	newSynchronizer(m.store, m.logger).attach(m)

	// Lifetime subscription: torn down by Close.
	m.unsubscribe = m.broadcast.Subscribe(m.adoptCredential)

	return m
}

// State returns a copy of the current session state. The embedded user is
// cloned so consumers cannot mutate the session through it.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Notifier exposes the credential broadcast channel so out-of-band
// refreshers (e.g. an HTTP interceptor) can emit into this session.
func (m *Manager) Notifier() *Broadcast {
	return m.broadcast
}

// OnCredentialRefreshed registers an observer for credentials arriving over
// the broadcast channel. It returns an unsubscribe func.
func (m *Manager) OnCredentialRefreshed(fn func(credential string)) func() {
	return m.broadcast.Subscribe(fn)
}

// OnChange registers an observer invoked after every applied transition with
// a copy of the new state. It returns an unsubscribe func.
func (m *Manager) OnChange(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}

	id := uuid.NewString()

	m.mu.Lock()
	m.watchers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}
}

// Login resolves credentials against the remote authority, racing the call
// against the configured timeout. On success the session becomes
// authenticated and the resolved pair is returned. On any failure — local
// validation, timeout, transport, rejection, malformed envelope — it returns
// (nil, false) and the localized reason lands in LastError. It never
// panics and never returns an error.
//
// Overlapping calls are a caller error the Manager tolerates: each attempt
// invalidates the previous one, and only the attempt that still owns the
// current generation may apply its outcome.
func (m *Manager) Login(ctx context.Context, creds Credentials, elevated bool) (*LoginResult, bool) {
	gen := m.beginLoginAttempt()
	m.apply(StartLogin{})

	if err := creds.Validate(); err != nil {
		m.logger.Debug("login payload rejected locally: %v", err)
		m.failLogin(ctx, gen, MsgInvalidCredentials, ActivityEventLoginFailure, map[string]any{
			"reason": "validation",
		})
		return nil, false
	}

	type outcome struct {
		payload *AuthPayload
		err     error
	}

	resultCh := make(chan outcome, 1)
	go func() {
		endpoint := m.gateway.Login
		if elevated {
			endpoint = m.gateway.LoginElevated
		}
		payload, err := endpoint(ctx, creds.Email, creds.Password)
		resultCh <- outcome{payload: payload, err: err}
	}()

	timer := time.NewTimer(m.loginTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		// Timer wins: the late gateway settle, success or failure, must not
		// touch state. Consuming the generation here guarantees that.
		m.failLogin(ctx, gen, MsgLoginTimeout, ActivityEventLoginTimeout, map[string]any{
			"timeout": m.loginTimeout.String(),
		})
		return nil, false

	case res := <-resultCh:
		if res.err != nil {
			m.logger.Warn("login rejected: %v", res.err)
			m.failLogin(ctx, gen, LoginMessage(res.err), ActivityEventLoginFailure, map[string]any{
				"error": res.err.Error(),
			})
			return nil, false
		}

		if !m.settleLoginAttempt(gen) {
			m.logger.Debug("dropping login response that lost the race")
			return nil, false
		}

		user := res.payload.User
		m.apply(LoginSucceeded{User: user, Credential: res.payload.AccessToken})
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginSuccess,
			UserID:    user.ID,
			Role:      user.Role,
			Metadata:  map[string]any{"elevated": elevated},
		})

		return &LoginResult{User: user.Clone(), Credential: res.payload.AccessToken}, true
	}
}

// Logout purges the persisted keys and resets the session. It always
// succeeds locally; storage failures are logged and swallowed.
func (m *Manager) Logout(ctx context.Context) {
	st := m.State()

	if err := PurgeSessionKeys(ctx, m.store); err != nil {
		m.logger.Warn("logout failed to purge session keys: %v", err)
	}

	m.apply(Logout{})

	event := ActivityEvent{EventType: ActivityEventLogout}
	if st.User != nil {
		event.UserID = st.User.ID
		event.Role = st.User.Role
	}
	m.recordActivity(ctx, event)
}

// RefreshCredential rotates the credential through the remote authority. On
// success the new credential replaces the old one and is returned; a user
// payload, when the authority includes one, is re-normalized and persisted
// without touching the in-memory user. On failure the stored credential is
// purged (the user snapshot survives for a later refresh attempt) and
// ("", false) is returned.
func (m *Manager) RefreshCredential(ctx context.Context) (string, bool) {
	payload, err := m.gateway.Refresh(ctx)
	if err != nil {
		m.logger.Warn("credential refresh failed: %v", err)
		if delErr := m.store.Delete(ctx, KeyCredential); delErr != nil {
			m.logger.Warn("failed to purge stored credential: %v", delErr)
		}
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventRefreshFailure,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return "", false
	}

	m.apply(RefreshSucceeded{Credential: payload.AccessToken})

	// Persist after the transition so the synchronizer's mirror pass cannot
	// overwrite the fresher payload with the untouched in-memory user.
	if payload.User != nil {
		payload.User.Normalize()
		if err := writeUserSnapshot(ctx, m.store, payload.User); err != nil {
			m.logger.Warn("failed to persist refreshed user snapshot: %v", err)
		}
	}
	m.recordActivity(ctx, ActivityEvent{EventType: ActivityEventRefreshSuccess})

	return payload.AccessToken, true
}

// UpdateUser shallow-merges the patch into the current user without touching
// the credential or the authenticated flag. It is a no-op when no user is
// attached.
func (m *Manager) UpdateUser(patch UserPatch) {
	m.mu.Lock()
	if m.state.User == nil {
		m.mu.Unlock()
		return
	}

	user := m.state.User.Clone()
	patch.applyTo(user)
	m.state.User = user

	snapshot := m.snapshotLocked()
	watchers := m.watchersLocked()
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(snapshot)
	}
}

// ClearError drops the last login error.
func (m *Manager) ClearError() {
	m.apply(ClearError{})
}

// Bootstrap reconciles the in-memory session with the Store exactly once per
// Manager. Safe to call from multiple consumers; later calls are no-ops.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.bootOnce.Do(func() {
		m.bootstrap(ctx)
	})
}

// Close tears down the broadcast subscription. The Manager must not be used
// afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	unsubscribe := m.unsubscribe
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// adoptCredential is the Broadcast subscriber: an out-of-band refresh pushes
// a new credential in without re-entering the login flow. Duplicate emits
// are idempotent on observable state.
func (m *Manager) adoptCredential(credential string) {
	m.mu.Lock()
	if m.closed || credential == "" {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.apply(RefreshSucceeded{Credential: credential})
	m.recordActivity(context.Background(), ActivityEvent{
		EventType: ActivityEventRefreshAdopted,
	})
}

// beginLoginAttempt claims a new generation, invalidating any attempt still
// in flight.
func (m *Manager) beginLoginAttempt() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginGen++
	return m.loginGen
}

// settleLoginAttempt consumes the generation if the attempt still owns it.
// Exactly one settle (outcome or timeout) wins per attempt.
func (m *Manager) settleLoginAttempt(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loginGen != gen {
		return false
	}
	m.loginGen++
	return true
}

func (m *Manager) failLogin(ctx context.Context, gen uint64, message string, event ActivityEventType, metadata map[string]any) {
	if !m.settleLoginAttempt(gen) {
		m.logger.Debug("dropping login failure that lost the race")
		return
	}

	m.apply(LoginFailed{Message: message})
	m.recordActivity(ctx, ActivityEvent{
		EventType: event,
		Metadata:  metadata,
	})
}

// apply runs a command through the reducer and notifies observers with the
// resulting state. Observer callbacks run outside the lock.
func (m *Manager) apply(cmd Command) {
	m.mu.Lock()
	m.state = Apply(m.state, cmd)
	snapshot := m.snapshotLocked()
	watchers := m.watchersLocked()
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(snapshot)
	}
}

func (m *Manager) snapshotLocked() State {
	snapshot := m.state
	snapshot.User = m.state.User.Clone()
	return snapshot
}

func (m *Manager) watchersLocked() []func(State) {
	fns := make([]func(State), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	return fns
}

func (m *Manager) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.sink)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
