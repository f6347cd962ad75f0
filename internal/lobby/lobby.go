// Package lobby implements one lobby's membership roster, chat, and game
// session (§4.5), the sub-server the directory spawns per CreateLobby call.
package lobby

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/trapthemouse/server/internal/game"
	"github.com/trapthemouse/server/internal/identity"
	"github.com/trapthemouse/server/internal/rpcserver"
	"github.com/trapthemouse/server/internal/wire"
)

// Member is one roster entry: a connected identity plus the role it holds
// in this lobby and the endpoint the lobby pushes notifications to.
type Member struct {
	ID       uint32
	Role     wire.Role
	Name     string
	Endpoint string
}

func (m Member) short() wire.MemberShort {
	return wire.MemberShort{ID: m.ID, Role: m.Role, Name: m.Name}
}

// IdentityReader is the slice of identity.Store a lobby needs: who a user
// id is, and whether it's currently connected. Defined here (rather than
// depending on *identity.Store directly) so lobby logic can be tested
// against a fake without a live database.
type IdentityReader interface {
	GetByID(ctx context.Context, id uint32) (identity.Identity, error)
	IsConnected(ctx context.Context, id uint32) (bool, error)
}

// Lobby is the (server, roster, game) triple every lobby instance owns. It
// embeds *rpcserver.Server the way the teacher embeds its server core into
// higher-level components.
type Lobby struct {
	*rpcserver.Server

	ID       uint16
	Name     string
	Identity IdentityReader
	Log      *logrus.Logger

	rosterMu sync.Mutex
	roster   []*Member

	gameMu sync.Mutex
	state  *game.State
}

// New constructs a lobby bound to an ephemeral port. The caller is
// responsible for running Start(lobby.Dispatcher()) on a new goroutine.
func New(id uint16, name string, store IdentityReader, log *logrus.Logger) (*Lobby, error) {
	srv, err := rpcserver.New("lobby", "127.0.0.1:0", log)
	if err != nil {
		return nil, err
	}
	l := &Lobby{
		Server:   srv,
		ID:       id,
		Name:     name,
		Identity: store,
		Log:      log,
	}
	return l, nil
}

// memberIndex returns the roster index of id, or -1. Caller must hold
// rosterMu.
func (l *Lobby) memberIndex(id uint32) int {
	for i, m := range l.roster {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (l *Lobby) rosterShort() []wire.MemberShort {
	out := make([]wire.MemberShort, len(l.roster))
	for i, m := range l.roster {
		out[i] = m.short()
	}
	return out
}

// requireConnected checks the caller's identity is currently connected,
// translating identity.Store errors into the §7 ServerError taxonomy.
func (l *Lobby) requireConnected(ctx context.Context, userID uint32) *wire.ServerError {
	connected, err := l.Identity.IsConnected(ctx, userID)
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

// GetLobbyState answers an unauthenticated status probe (§6): name, member
// count, and whether a game is in progress. No identity check — this is
// the one read exposed before joining.
func (l *Lobby) GetLobbyState() wire.GetLobbyStateResult {
	l.rosterMu.Lock()
	count := len(l.roster)
	l.rosterMu.Unlock()

	l.gameMu.Lock()
	going := l.state != nil
	l.gameMu.Unlock()

	return wire.GetLobbyStateResult{Name: l.Name, UserCount: uint32(count), GameGoing: going}
}

// assignRole returns the role a newly joining member takes: first in is
// Host, second is Player, everyone after is Spectator.
func assignRole(count int) wire.Role {
	switch count {
	case 0:
		return wire.RoleHost
	case 1:
		return wire.RolePlayer
	default:
		return wire.RoleSpectator
	}
}
