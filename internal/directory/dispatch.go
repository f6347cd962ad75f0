package directory

import (
	"context"
	"net"
	"time"

	"github.com/trapthemouse/server/internal/middleware"
	"github.com/trapthemouse/server/internal/rpcserver"
	"github.com/trapthemouse/server/internal/wire"
)

type dispatcher struct {
	dir *Directory
}

// Dispatcher returns the rpcserver.Dispatcher that routes connections
// accepted on the directory's listener to its handlers.
func (d *Directory) Dispatcher() rpcserver.Dispatcher {
	return dispatcher{dir: d}
}

func (d dispatcher) Dispatch(conn net.Conn) rpcserver.Request {
	return request{dir: d.dir, conn: conn}
}

type request struct {
	dir  *Directory
	conn net.Conn
}

func (r request) Execute() {
	cid := middleware.CorrelationID()
	middleware.LogConnect(r.dir.Log, cid, r.conn)
	defer r.conn.Close()

	tag, payload, err := wire.Recv(r.conn)
	if err != nil {
		middleware.LogDisconnect(r.dir.Log, cid, r.conn, err)
		return
	}

	start := time.Now()
	resultPayload, svcErr := r.dir.handle(context.Background(), tag, payload)
	middleware.LogRequest(r.dir.Log, cid, r.conn, tag, start, svcErr)
	if svcErr != nil {
		_ = wire.RespondError(r.conn, svcErr)
		return
	}
	_ = wire.RespondSuccess(r.conn, resultPayload)
}

func (d *Directory) handle(ctx context.Context, tag wire.Tag, payload []byte) ([]byte, *wire.ServerError) {
	switch tag {
	case wire.TagPing:
		args, err := wire.UnmarshalPingArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		return wire.PingResult{Msg: args.Msg}.Marshal(), nil

	case wire.TagConnect:
		args, err := wire.UnmarshalConnectArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		result, svcErr := d.Connect(ctx, args.Name, args.NotifyEndpoint)
		if svcErr != nil {
			return nil, svcErr
		}
		return result.Marshal(), nil

	case wire.TagDisconnect:
		args, err := wire.UnmarshalDisconnectArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		if svcErr := d.Disconnect(ctx, args.UserID); svcErr != nil {
			return nil, svcErr
		}
		return nil, nil

	case wire.TagChangeName:
		args, err := wire.UnmarshalChangeNameArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		if svcErr := d.ChangeName(ctx, args.UserID, args.Name); svcErr != nil {
			return nil, svcErr
		}
		return nil, nil

	case wire.TagCreateLobby:
		args, err := wire.UnmarshalCreateLobbyArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		result, svcErr := d.CreateLobby(ctx, args.UserID, args.Name)
		if svcErr != nil {
			return nil, svcErr
		}
		return result.Marshal(), nil

	case wire.TagGetLobbies:
		args, err := wire.UnmarshalGetLobbiesArgs(payload)
		if err != nil {
			return nil, wire.Api("invalid data")
		}
		result, svcErr := d.GetLobbies(ctx, args.UserID, args.Start, args.Offset)
		if svcErr != nil {
			return nil, svcErr
		}
		return result.Marshal(), nil

	default:
		return nil, wire.Api("invalid request")
	}
}
