package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/errors"
	"github.com/readingnook/readingnook-server/internal/store"
)

func setupTestManager(t *testing.T) (*Manager, *store.Memory, *[]Event) {
	t.Helper()
	kv := store.NewMemory()
	m := New(kv, nil)
	events := &[]Event{}
	m.Subscribe(func(e Event) { *events = append(*events, e) })
	return m, kv, events
}

func TestLogin(t *testing.T) {
	m, kv, events := setupTestManager(t)
	ctx := context.Background()

	u, err := m.Login(ctx, "reader", "anything")
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "reader", u.Username)
	assert.Equal(t, "reader@example.com", u.Email)
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, u, m.Current())

	var persisted domain.User
	require.NoError(t, store.GetJSON(ctx, kv, CurrentUserKey, &persisted))
	assert.Equal(t, u.ID, persisted.ID)

	require.Len(t, *events, 1)
	assert.Equal(t, SignedIn, (*events)[0].Kind)
}

func TestLogin_MissingFields(t *testing.T) {
	m, _, events := setupTestManager(t)

	for _, tc := range [][2]string{{"", "pw"}, {"reader", ""}, {"   ", "pw"}} {
		_, err := m.Login(context.Background(), tc[0], tc[1])
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
		assert.Equal(t, "Invalid credentials", err.Error())
	}
	assert.Nil(t, m.Current())
	assert.Empty(t, *events)
}

func TestLogin_ReusesIdentity(t *testing.T) {
	m, _, _ := setupTestManager(t)
	ctx := context.Background()

	first, err := m.Login(ctx, "reader", "pw")
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx))

	second, err := m.Login(ctx, "Reader", "different")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same username keeps the same library")
}

func TestSignup(t *testing.T) {
	m, _, _ := setupTestManager(t)
	ctx := context.Background()

	u, err := m.Signup(ctx, "reader", "reader@books.test", "pw")
	require.NoError(t, err)
	assert.Equal(t, "reader@books.test", u.Email)

	// Login afterwards finds the signed-up identity.
	require.NoError(t, m.Logout(ctx))
	again, err := m.Login(ctx, "reader", "pw")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "reader@books.test", again.Email)
}

func TestSignup_MissingFields(t *testing.T) {
	m, _, _ := setupTestManager(t)

	for _, tc := range [][3]string{{"", "e@x", "pw"}, {"u", "", "pw"}, {"u", "e@x", ""}} {
		_, err := m.Signup(context.Background(), tc[0], tc[1], tc[2])
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrValidation)
		assert.Equal(t, "Invalid data", err.Error())
	}
}

func TestLogout(t *testing.T) {
	m, kv, events := setupTestManager(t)
	ctx := context.Background()

	_, err := m.Login(ctx, "reader", "pw")
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx))

	assert.Nil(t, m.Current())
	_, err = kv.Get(ctx, CurrentUserKey)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, m.Logout(ctx), "logout twice is fine")
	require.Len(t, *events, 2)
	assert.Equal(t, SignedOut, (*events)[1].Kind)
}

func TestSwitchUser_EmitsSignOutFirst(t *testing.T) {
	m, _, events := setupTestManager(t)
	ctx := context.Background()

	a, err := m.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	b, err := m.Login(ctx, "bob", "pw")
	require.NoError(t, err)

	require.Len(t, *events, 3)
	assert.Equal(t, Event{Kind: SignedOut, User: *a}, (*events)[1])
	assert.Equal(t, Event{Kind: SignedIn, User: *b}, (*events)[2])
}

func TestRestore(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()

	first := New(kv, nil)
	u, err := first.Login(ctx, "reader", "pw")
	require.NoError(t, err)

	second := New(kv, nil)
	var got []Event
	second.Subscribe(func(e Event) { got = append(got, e) })

	restored, err := second.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, u.ID, restored.ID)
	assert.Equal(t, u.ID, second.Current().ID)
	require.Len(t, got, 1)
	assert.Equal(t, SignedIn, got[0].Kind)
}

func TestRestore_NothingPersisted(t *testing.T) {
	m, _, events := setupTestManager(t)

	u, err := m.Restore(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, u)
	assert.Empty(t, *events)
}

func TestRestore_CorruptRecord(t *testing.T) {
	m, kv, _ := setupTestManager(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, CurrentUserKey, []byte("not json")))

	u, err := m.Restore(ctx)
	assert.NoError(t, err)
	assert.Nil(t, u)

	_, err = kv.Get(ctx, CurrentUserKey)
	assert.ErrorIs(t, err, store.ErrNotFound, "bad record is discarded")
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	m, _, _ := setupTestManager(t)
	_, err := m.Login(context.Background(), "reader", "pw")
	require.NoError(t, err)

	m.Current().Username = "mallory"
	assert.Equal(t, "reader", m.Current().Username)
}
