package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	session "github.com/educenter/go-session"
)

func TestSynchronizerWritesSecondaryParentID(t *testing.T) {
	gateway := &MockGateway{}
	store := session.NewMemoryStore()
	m := newManager(gateway, store)
	defer m.Close()

	parent := testUser(session.RoleParent)
	parent.Parent.SecondaryParentID = "usr-301"

	gateway.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(&session.AuthPayload{User: parent, AccessToken: "tok-1"}, nil).Once()

	_, ok := m.Login(context.Background(), validCreds(), false)
	require.True(t, ok)

	secondary, err := store.Get(context.Background(), session.KeySecondaryParentID)
	require.NoError(t, err)
	assert.Equal(t, "usr-301", secondary)
}

func TestSynchronizerSkipsSecondaryIDForNonParents(t *testing.T) {
	gateway := &MockGateway{}
	store := session.NewMemoryStore()
	m := newManager(gateway, store)
	defer m.Close()

	gateway.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(authPayload(session.RoleTeacher, "tok-1"), nil).Once()

	_, ok := m.Login(context.Background(), validCreds(), false)
	require.True(t, ok)

	secondary, err := store.Get(context.Background(), session.KeySecondaryParentID)
	require.NoError(t, err)
	assert.Empty(t, secondary)
}

func TestSynchronizerDoesNotPurgeBeforeFirstLogin(t *testing.T) {
	gateway := &MockGateway{}
	store := session.NewMemoryStore()

	// Keys left behind by a prior process; the session was never marked
	// active in this one, but the marker gates purging, not in-memory
	// history.
	require.NoError(t, store.Set(context.Background(), session.KeyCredential, "tok-old"))
	require.NoError(t, store.Set(context.Background(), session.KeyUserSnapshot, `{"id":"usr-100"}`))

	m := newManager(gateway, store)
	defer m.Close()

	// An unauthenticated settle without the active marker must not wipe
	// storage.
	gateway.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, session.ErrUnauthorized).Once()
	_, ok := m.Login(context.Background(), validCreds(), false)
	require.False(t, ok)

	cred, err := store.Get(context.Background(), session.KeyCredential)
	require.NoError(t, err)
	assert.Equal(t, "tok-old", cred)
}

func TestSynchronizerPurgesAfterActiveSessionEnds(t *testing.T) {
	gateway := &MockGateway{}
	store := session.NewMemoryStore()
	m := newManager(gateway, store)
	defer m.Close()

	gateway.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(authPayload(session.RoleStudent, "tok-1"), nil).Once()
	gateway.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, session.ErrUnauthorized).Once()

	_, ok := m.Login(context.Background(), validCreds(), false)
	require.True(t, ok)

	marker, err := store.Get(context.Background(), session.KeySessionActive)
	require.NoError(t, err)
	require.NotEmpty(t, marker)

	// A failed re-login drops the session; with the marker set, storage is
	// purged.
	_, ok = m.Login(context.Background(), validCreds(), false)
	require.False(t, ok)

	for _, key := range []string{session.KeyCredential, session.KeyUserSnapshot, session.KeySessionActive} {
		val, err := store.Get(context.Background(), key)
		require.NoError(t, err)
		assert.Empty(t, val, "key %s should be purged", key)
	}
}

func TestSessionRoundTripThroughStore(t *testing.T) {
	gateway := &MockGateway{}
	store := session.NewMemoryStore()

	first := newManager(gateway, store)
	parent := testUser(session.RoleParent)
	gateway.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(&session.AuthPayload{User: parent, AccessToken: "tok-1"}, nil).Once()

	_, ok := first.Login(context.Background(), validCreds(), false)
	require.True(t, ok)
	first.Close()

	// A second manager over the same store restores the identical session.
	second := newManager(&MockGateway{}, store)
	defer second.Close()
	second.Bootstrap(context.Background())

	st := second.State()
	require.True(t, st.Authenticated)
	assert.Equal(t, "tok-1", st.Credential)
	assert.Equal(t, parent.ID, st.User.ID)
	assert.Equal(t, parent.Role, st.User.Role)
	assert.Equal(t, parent.Parent.Capabilities, st.User.Parent.Capabilities)
}
