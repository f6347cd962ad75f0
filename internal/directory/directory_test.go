package directory

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/trapthemouse/server/internal/identity"
	"github.com/trapthemouse/server/internal/wire"
)

type fakeStore struct {
	nextID uint32
	users  map[uint32]identity.Identity
	byKey  map[string]uint32
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[uint32]identity.Identity{}, byKey: map[string]uint32{}}
}

func (f *fakeStore) Add(_ context.Context, name, endpoint string) (identity.Identity, error) {
	key := name + "|" + endpoint
	if id, ok := f.byKey[key]; ok {
		u := f.users[id]
		u.Connected = true
		f.users[id] = u
		return u, nil
	}
	f.nextID++
	u := identity.Identity{ID: f.nextID, Name: name, Endpoint: endpoint, Connected: true}
	f.users[u.ID] = u
	f.byKey[key] = u.ID
	return u, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uint32) (identity.Identity, error) {
	u, ok := f.users[id]
	if !ok {
		return identity.Identity{}, identity.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) Rename(_ context.Context, id uint32, newName string) error {
	u, ok := f.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	u.Name = newName
	f.users[id] = u
	return nil
}

func (f *fakeStore) ToggleConnected(_ context.Context, id uint32, connected bool) error {
	u, ok := f.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	u.Connected = connected
	f.users[id] = u
	return nil
}

func (f *fakeStore) IsConnected(_ context.Context, id uint32) (bool, error) {
	u, ok := f.users[id]
	if !ok {
		return false, identity.ErrNotFound
	}
	return u.Connected, nil
}

func discardLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestDirectory(t *testing.T) (*Directory, *fakeStore) {
	store := newFakeStore()
	d, err := New("127.0.0.1:0", store, discardLog())
	require.NoError(t, err)
	return d, store
}

func TestConnectNeverRejectsOnNameLength(t *testing.T) {
	d, _ := newTestDirectory(t)
	_, err := d.Connect(context.Background(), "a", "127.0.0.1:1")
	require.Nil(t, err)
}

func TestConnectThenGetLobbiesEmpty(t *testing.T) {
	d, _ := newTestDirectory(t)
	result, err := d.Connect(context.Background(), "Alice", "127.0.0.1:1")
	require.Nil(t, err)
	require.NotZero(t, result.UserID)

	lobbies, err := d.GetLobbies(context.Background(), result.UserID, 0, 10)
	require.Nil(t, err)
	require.Empty(t, lobbies.Lobbies)
}

func TestGetLobbiesRejectsNotConnected(t *testing.T) {
	d, _ := newTestDirectory(t)
	_, err := d.GetLobbies(context.Background(), 999, 0, 1)
	require.NotNil(t, err)
	require.Equal(t, "invalid id", err.WireMessage())
}

func TestGetLobbiesRejectsLargeOffset(t *testing.T) {
	d, _ := newTestDirectory(t)
	result, err := d.Connect(context.Background(), "Alice", "127.0.0.1:1")
	require.Nil(t, err)

	_, err = d.GetLobbies(context.Background(), result.UserID, 0, 11)
	require.NotNil(t, err)
	require.Equal(t, "offset can be at most 10", err.WireMessage())
}

func TestCreateLobbyRegistersAndIsListedByGetLobbies(t *testing.T) {
	d, _ := newTestDirectory(t)
	user, err := d.Connect(context.Background(), "Alice", "127.0.0.1:1")
	require.Nil(t, err)

	created, err := d.CreateLobby(context.Background(), user.UserID, "")
	require.Nil(t, err)
	require.Equal(t, uint16(0), created.Addr.ID)
	require.Contains(t, created.Addr.Endpoint, "127.0.0.1:")

	defer func() {
		d.mu.Lock()
		for _, e := range d.lobbies {
			e.srv.Stop()
		}
		d.mu.Unlock()
	}()

	lobbies, err := d.GetLobbies(context.Background(), user.UserID, 0, 10)
	require.Nil(t, err)
	require.Len(t, lobbies.Lobbies, 1)
	require.Equal(t, created.Addr.ID, lobbies.Lobbies[0].ID)
}

func TestCreateLobbyDefaultsName(t *testing.T) {
	d, _ := newTestDirectory(t)
	user, err := d.Connect(context.Background(), "Alice", "127.0.0.1:1")
	require.Nil(t, err)

	created, err := d.CreateLobby(context.Background(), user.UserID, "")
	require.Nil(t, err)
	defer func() {
		d.mu.Lock()
		for _, e := range d.lobbies {
			e.srv.Stop()
		}
		d.mu.Unlock()
	}()

	respTag, payload, reqErr := wire.Request(created.Addr.Endpoint, wire.TagGetLobbyState, nil)
	require.NoError(t, reqErr)
	require.Equal(t, wire.TagSuccess, respTag)

	state, decErr := wire.UnmarshalGetLobbyStateResult(payload)
	require.NoError(t, decErr)
	require.Equal(t, "Lobby 0", state.Name)
}

func TestReconnectWithSameNameAndEndpointResumesIdentity(t *testing.T) {
	d, _ := newTestDirectory(t)
	first, err := d.Connect(context.Background(), "Alice", "127.0.0.1:1")
	require.Nil(t, err)

	disErr := d.Disconnect(context.Background(), first.UserID)
	require.Nil(t, disErr)

	second, err := d.Connect(context.Background(), "Alice", "127.0.0.1:1")
	require.Nil(t, err)
	require.Equal(t, first.UserID, second.UserID)
}

func TestGCDropsStoppedLobbies(t *testing.T) {
	d, _ := newTestDirectory(t)
	user, err := d.Connect(context.Background(), "Alice", "127.0.0.1:1")
	require.Nil(t, err)

	created, err := d.CreateLobby(context.Background(), user.UserID, "")
	require.Nil(t, err)

	d.mu.Lock()
	d.lobbies[0].srv.Stop()
	d.mu.Unlock()

	time.Sleep(50 * time.Millisecond)

	lobbies, err := d.GetLobbies(context.Background(), user.UserID, 0, 10)
	require.Nil(t, err)
	require.Empty(t, lobbies.Lobbies)
	_ = created
}
