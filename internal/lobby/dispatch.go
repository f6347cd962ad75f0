package lobby

import (
	"context"
	"net"
	"time"

	"github.com/trapthemouse/server/internal/game"
	"github.com/trapthemouse/server/internal/middleware"
	"github.com/trapthemouse/server/internal/rpcserver"
	"github.com/trapthemouse/server/internal/wire"
)

// dispatcher implements rpcserver.Dispatcher for one Lobby: it owns the
// decode step so a malformed frame becomes an Error response instead of an
// accept-loop panic.
type dispatcher struct {
	lobby *Lobby
}

// Dispatcher returns the rpcserver.Dispatcher that routes connections
// accepted on this lobby's listener to its handlers.
func (l *Lobby) Dispatcher() rpcserver.Dispatcher {
	return dispatcher{lobby: l}
}

func (d dispatcher) Dispatch(conn net.Conn) rpcserver.Request {
	return request{lobby: d.lobby, conn: conn}
}

type request struct {
	lobby *Lobby
	conn  net.Conn
}

func (r request) Execute() {
	cid := middleware.CorrelationID()
	middleware.LogConnect(r.lobby.Log, cid, r.conn)
	defer r.conn.Close()

	tag, payload, err := wire.Recv(r.conn)
	if err != nil {
		middleware.LogDisconnect(r.lobby.Log, cid, r.conn, err)
		return // peer gone before a full frame arrived; nothing to answer
	}

	start := time.Now()
	resultPayload, svcErr := r.lobby.handle(context.Background(), tag, payload)
	middleware.LogRequest(r.lobby.Log, cid, r.conn, tag, start, svcErr)
	if svcErr != nil {
		_ = wire.RespondError(r.conn, svcErr)
		return
	}
	_ = wire.RespondSuccess(r.conn, resultPayload)
}

// handle decodes args for tag, invokes the matching handler, and marshals
// its result. Centralizing the switch here keeps every handler function
// focused on domain logic instead of wire plumbing.
func (l *Lobby) handle(ctx context.Context, tag wire.Tag, payload []byte) ([]byte, *wire.ServerError) {
	switch tag {
	case wire.TagPing:
		args, err := wire.UnmarshalPingArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		return wire.PingResult{Msg: args.Msg}.Marshal(), nil

	case wire.TagGetLobbyState:
		return l.GetLobbyState().Marshal(), nil

	case wire.TagJoinLobby:
		args, err := wire.UnmarshalJoinLobbyArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		result, svcErr := l.JoinLobby(ctx, args.UserID)
		if svcErr != nil {
			return nil, svcErr
		}
		return result.Marshal(), nil

	case wire.TagLeaveLobby:
		args, err := wire.UnmarshalUserIDArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		if svcErr := l.LeaveLobby(ctx, args.UserID); svcErr != nil {
			return nil, svcErr
		}
		return nil, nil

	case wire.TagCloseLobby:
		args, err := wire.UnmarshalUserIDArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		if svcErr := l.CloseLobby(ctx, args.UserID); svcErr != nil {
			return nil, svcErr
		}
		return nil, nil

	case wire.TagMakeHost:
		args, err := wire.UnmarshalMakeHostArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		if svcErr := l.MakeHost(ctx, args.UserID, args.NewHostID); svcErr != nil {
			return nil, svcErr
		}
		return nil, nil

	case wire.TagBecomeRole:
		args, err := wire.UnmarshalBecomeRoleArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		if svcErr := l.BecomeRole(ctx, args.UserID, args.Role); svcErr != nil {
			return nil, svcErr
		}
		return nil, nil

	case wire.TagChangedName:
		args, err := wire.UnmarshalUserIDArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		if svcErr := l.ChangedName(ctx, args.UserID); svcErr != nil {
			return nil, svcErr
		}
		return nil, nil

	case wire.TagSendMessage:
		args, err := wire.UnmarshalSendMessageArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		if svcErr := l.SendMessage(ctx, args.UserID, args.Text); svcErr != nil {
			return nil, svcErr
		}
		return nil, nil

	case wire.TagStartGame:
		args, err := wire.UnmarshalUserIDArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		if svcErr := l.StartGame(ctx, args.UserID); svcErr != nil {
			return nil, svcErr
		}
		return nil, nil

	case wire.TagMakeMove:
		args, err := wire.UnmarshalMakeMoveArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		move := game.Pos{Row: int(args.Row), Col: int(args.Col)}
		if svcErr := l.MakeMove(ctx, args.UserID, move); svcErr != nil {
			return nil, svcErr
		}
		return nil, nil

	default:
		return nil, wire.Api("invalid request")
	}
}
