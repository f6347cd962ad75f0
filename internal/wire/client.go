package wire

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// DialTimeout bounds how long Request waits to establish the outbound
// connection before reporting the target as offline.
const DialTimeout = 3 * time.Second

// Request connects to addr, sends one frame carrying tag+payload, reads
// exactly one response frame, then closes the connection. On Success it
// returns the response tag and the raw, still-encoded result payload for
// the caller to unmarshal; on Error it returns *ErrRemote carrying the
// server-supplied message. A refused connection is reported as *ErrOffline so
// callers can distinguish "server offline" from "server answered with an
// error" (§4.1).
func Request(addr string, tag Tag, payload []byte) (Tag, []byte, error) {
	conn, err := net.DialTimeout("tcp", addr, DialTimeout)
	if err != nil {
		return 0, nil, &ErrOffline{Addr: addr, Err: err}
	}
	defer conn.Close()

	if err := Send(conn, tag, payload); err != nil {
		return 0, nil, fmt.Errorf("wire: send to %s: %w", addr, err)
	}

	respTag, respPayload, err := Recv(conn)
	if err != nil {
		return 0, nil, fmt.Errorf("wire: recv from %s: %w", addr, err)
	}

	if respTag == TagError {
		dec := NewDecoder(respPayload)
		msg := dec.Str()
		if dec.Err() != nil {
			msg = "internal error"
		}
		return respTag, nil, &ErrRemote{Message: msg}
	}

	return respTag, respPayload, nil
}

// IsOffline reports whether err indicates the remote end never accepted
// the connection, as opposed to answering with a decoded error.
func IsOffline(err error) bool {
	var offline *ErrOffline
	return errors.As(err, &offline)
}
