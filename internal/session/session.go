// Package session keeps track of which local user is signed in. Sign-in is a
// placeholder: any non-empty username and password are accepted and nothing
// is verified.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/errors"
	"github.com/readingnook/readingnook-server/internal/id"
	"github.com/readingnook/readingnook-server/internal/store"
)

const (
	// CurrentUserKey holds the active identity.
	CurrentUserKey = "reading-nook-user"
	// accountKeyPrefix maps a username to the identity it signed up with.
	accountKeyPrefix = "reading-nook-account-"
)

// Messages shown to the user on a failed sign-in or sign-up.
const (
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidData        = "Invalid data"
)

// EventKind names a session transition.
type EventKind string

const (
	SignedIn  EventKind = "session.signed_in"
	SignedOut EventKind = "session.signed_out"
)

// Event is delivered to subscribers after the session changes.
type Event struct {
	Kind EventKind
	User domain.User
}

// Manager owns the active session.
type Manager struct {
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *domain.User

	subMu sync.Mutex
	subs  []func(Event)
}

// New creates a signed-out manager. Call Restore to pick up a persisted session.
func New(kv store.KV, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{kv: kv, logger: logger, now: time.Now}
}

// Subscribe registers fn for sign-in and sign-out events, called synchronously
// in registration order.
func (m *Manager) Subscribe(fn func(Event)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subs = append(m.subs, fn)
}

// Current returns the signed-in user, or nil.
func (m *Manager) Current() *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	u := *m.current
	return &u
}

// Restore loads the persisted identity, if any. A missing or unreadable
// record leaves the session signed out.
func (m *Manager) Restore(ctx context.Context) (*domain.User, error) {
	var u domain.User
	err := store.GetJSON(ctx, m.kv, CurrentUserKey, &u)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case errors.Is(err, store.ErrCorrupt) || (err == nil && u.ID == ""):
		m.logger.Warn("discarding unreadable session record", "error", err)
		_ = m.kv.Delete(ctx, CurrentUserKey)
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, errors.CodeUnavailable, "restore session")
	}

	m.setCurrent(&u)
	m.logger.Info("session restored", "user_id", u.ID, "username", u.Username)
	m.notify(Event{Kind: SignedIn, User: u})
	return &u, nil
}

// Login signs in as username. The identity previously registered for the
// username is reused; otherwise a new one is created with a placeholder email.
func (m *Manager) Login(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.InvalidCredentials(msgInvalidCredentials)
	}

	u, err := m.account(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		if u, err = m.register(ctx, username, username+"@example.com"); err != nil {
			return nil, err
		}
	}

	if err := m.activate(ctx, u); err != nil {
		return nil, err
	}
	m.logger.Info("user signed in", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Signup creates a fresh identity for username and signs in as it. Any
// earlier identity for the same username is replaced; its library stays in
// storage under the old id.
func (m *Manager) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, errors.Validation(msgInvalidData)
	}

	u, err := m.register(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if err := m.activate(ctx, u); err != nil {
		return nil, err
	}
	m.logger.Info("user signed up", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Logout ends the session and forgets the persisted identity. Logging out
// while signed out is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.mu.Unlock()

	if err := m.kv.Delete(ctx, CurrentUserKey); err != nil {
		m.logger.Error("failed to remove session record", "error", err)
		return errors.Wrap(err, errors.CodeInternal, "logout")
	}
	if prev == nil {
		return nil
	}

	m.logger.Info("user signed out", "user_id", prev.ID)
	m.notify(Event{Kind: SignedOut, User: *prev})
	return nil
}

func (m *Manager) activate(ctx context.Context, u *domain.User) error {
	if err := store.SetJSON(ctx, m.kv, CurrentUserKey, u); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "persist session")
	}

	m.mu.Lock()
	prev := m.current
	uc := *u
	m.current = &uc
	m.mu.Unlock()

	if prev != nil && prev.ID != u.ID {
		m.notify(Event{Kind: SignedOut, User: *prev})
	}
	m.notify(Event{Kind: SignedIn, User: *u})
	return nil
}

func (m *Manager) setCurrent(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uc := *u
	m.current = &uc
}

// account returns the identity registered for username, or nil.
func (m *Manager) account(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := store.GetJSON(ctx, m.kv, accountKey(username), &u)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrCorrupt) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "look up account")
	}
	return &u, nil
}

func (m *Manager) register(ctx context.Context, username, email string) (*domain.User, error) {
	userID, err := id.User()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create user")
	}
	u := &domain.User{
		ID:        userID,
		Username:  username,
		Email:     email,
		CreatedAt: m.now().UTC(),
	}
	if err := store.SetJSON(ctx, m.kv, accountKey(username), u); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "persist account")
	}
	return u, nil
}

func (m *Manager) notify(e Event) {
	m.subMu.Lock()
	subs := make([]func(Event), len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}

func accountKey(username string) string {
	return accountKeyPrefix + strings.ToLower(username)
}
