// Package directory implements the top-level process-wide server (§4.4):
// the well-known entry point clients Connect to, and the registry of
// lobbies it spawns on CreateLobby.
package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/trapthemouse/server/internal/identity"
	"github.com/trapthemouse/server/internal/lobby"
	"github.com/trapthemouse/server/internal/rpcserver"
	"github.com/trapthemouse/server/internal/wire"
)

// lobbyEntry is one row of the directory's lobby registry: the running
// sub-server plus enough to answer GetLobbies without asking it anything.
type lobbyEntry struct {
	id   uint16
	addr string
	srv  *rpcserver.Server
	lob  *lobby.Lobby
}

// IdentityStore is the slice of identity.Store the directory needs.
// Defined here rather than depending on *identity.Store directly so the
// directory's handlers can be tested against a fake without a live
// database; its method set is a superset of lobby.IdentityReader, so a
// Directory can hand its store straight to a spawned lobby.New.
type IdentityStore interface {
	Add(ctx context.Context, name, endpoint string) (identity.Identity, error)
	GetByID(ctx context.Context, id uint32) (identity.Identity, error)
	Rename(ctx context.Context, id uint32, newName string) error
	ToggleConnected(ctx context.Context, id uint32, connected bool) error
	IsConnected(ctx context.Context, id uint32) (bool, error)
}

// Directory is the (server, identity store, lobby registry) triple the
// teacher's ServerState generalizes into for this spec.
type Directory struct {
	*rpcserver.Server

	Identity IdentityStore
	Log      *logrus.Logger

	mu      sync.Mutex
	nextID  uint16
	lobbies []*lobbyEntry
}

// New binds addr and prepares an empty lobby registry.
func New(addr string, store IdentityStore, log *logrus.Logger) (*Directory, error) {
	srv, err := rpcserver.New("directory", addr, log)
	if err != nil {
		return nil, err
	}
	return &Directory{Server: srv, Identity: store, Log: log}, nil
}

// Connect registers (name, notifyEndpoint) with the identity store and
// answers with the user id the client uses on every later call (§6). Per
// the store's reconnect policy, reusing a (name, endpoint) pair that was
// used before silently resumes that identity rather than failing.
func (d *Directory) Connect(ctx context.Context, name, notifyEndpoint string) (wire.ConnectResult, *wire.ServerError) {
	ident, err := d.Identity.Add(ctx, name, notifyEndpoint)
	if err != nil {
		return wire.ConnectResult{}, wire.Internal(err)
	}
	return wire.ConnectResult{UserID: ident.ID}, nil
}

// Disconnect marks userID as no longer connected. It does not forget the
// identity — a later Connect with the same (name, endpoint) resumes it.
func (d *Directory) Disconnect(ctx context.Context, userID uint32) *wire.ServerError {
	if err := d.requireConnected(ctx, userID); err != nil {
		return err
	}
	if err := d.Identity.ToggleConnected(ctx, userID, false); err != nil {
		return wire.Internal(err)
	}
	return nil
}

// ChangeName updates userID's display name. The new name must be 2 to 255
// bytes long; Connect applies no such check to the initial name.
func (d *Directory) ChangeName(ctx context.Context, userID uint32, name string) *wire.ServerError {
	if err := d.requireConnected(ctx, userID); err != nil {
		return err
	}
	if len(name) < 2 || len(name) > 255 {
		return wire.Api("username must be between 2 and 255 characters")
	}
	if err := d.Identity.Rename(ctx, userID, name); err != nil {
		return wire.Internal(err)
	}
	return nil
}

// CreateLobby spawns a new lobby sub-server on an ephemeral port and
// registers it. The caller must already be connected.
func (d *Directory) CreateLobby(ctx context.Context, userID uint32, name string) (wire.CreateLobbyResult, *wire.ServerError) {
	if err := d.requireConnected(ctx, userID); err != nil {
		return wire.CreateLobbyResult{}, err
	}

	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("Lobby %d", id)
	}

	lob, err := lobby.New(id, name, d.Identity, d.Log)
	if err != nil {
		return wire.CreateLobbyResult{}, wire.Internal(err)
	}
	lob.Server.Workers = d.Workers
	addr := lob.Addr().String()

	go lob.Start(lob.Dispatcher())

	d.Log.WithFields(logrus.Fields{"lobby_id": id, "addr": addr}).Info("directory: lobby started")

	d.mu.Lock()
	d.gcLocked()
	d.lobbies = append(d.lobbies, &lobbyEntry{id: id, addr: addr, srv: lob.Server, lob: lob})
	d.mu.Unlock()

	return wire.CreateLobbyResult{Addr: wire.LobbyAddr{ID: id, Endpoint: addr}}, nil
}

// GetLobbies answers a paginated slice of the lobby registry (§6), dropping
// any lobby whose server has since stopped before paginating. Garbage
// collection runs lazily here and in CreateLobby, never on a timer.
func (d *Directory) GetLobbies(ctx context.Context, userID, start, offset uint32) (wire.GetLobbiesResult, *wire.ServerError) {
	if err := d.requireConnected(ctx, userID); err != nil {
		return wire.GetLobbiesResult{}, err
	}
	if offset > 10 {
		return wire.GetLobbiesResult{}, wire.Api("offset can be at most 10")
	}
	if start > start+offset {
		return wire.GetLobbiesResult{}, wire.Api("invalid range")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.gcLocked()

	s := int(start)
	if s > len(d.lobbies) {
		s = len(d.lobbies)
	}
	e := s + int(offset)
	if e > len(d.lobbies) {
		e = len(d.lobbies)
	}

	out := make([]wire.LobbyAddr, 0, e-s)
	for _, entry := range d.lobbies[s:e] {
		out = append(out, wire.LobbyAddr{ID: entry.id, Endpoint: entry.addr})
	}
	return wire.GetLobbiesResult{Lobbies: out}, nil
}

// gcLocked drops registry entries whose server has stopped running. Since
// every lobby runs as a goroutine inside this same process, checking its
// RunningFlag directly is enough — no round trip to the lobby is needed to
// tell whether it's still alive. Caller must hold mu.
func (d *Directory) gcLocked() {
	alive := d.lobbies[:0]
	for _, entry := range d.lobbies {
		if entry.srv.Running.Get() {
			alive = append(alive, entry)
		} else {
			d.Log.WithField("lobby_id", entry.id).Info("directory: reaped closed lobby")
		}
	}
	d.lobbies = alive
}

func (d *Directory) requireConnected(ctx context.Context, userID uint32) *wire.ServerError {
	connected, err := d.Identity.IsConnected(ctx, userID)
	if err != nil {
		if err == identity.ErrNotFound {
			return wire.Api("invalid id")
		}
		return wire.Internal(err)
	}
	if !connected {
		return wire.ApiNotConnected()
	}
	return nil
}

// Shutdown stops the directory and every lobby it spawned.
func (d *Directory) Shutdown() {
	d.mu.Lock()
	entries := append([]*lobbyEntry(nil), d.lobbies...)
	d.mu.Unlock()

	for _, entry := range entries {
		entry.srv.Shutdown()
	}
	d.Server.Shutdown()
}
