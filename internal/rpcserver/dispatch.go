package rpcserver

import "net"

// Request owns one accepted connection (§4.2). Execute runs on a worker: it
// reads the request frame, runs the handler, writes the response back on
// the connection it owns, then closes it.
type Request interface {
	Execute()
}

// Dispatcher builds the Request object responsible for answering a freshly
// accepted connection. Dispatch runs on the accept loop and reads nothing
// from the connection; the frame is read and decoded later, inside
// Execute on a worker. Implementations (directory.Dispatcher,
// lobby.Dispatcher) own the decode step so a malformed frame can be turned
// into an Api("invalid data")/Api("invalid request") response without the
// accept loop knowing about method-specific argument shapes.
type Dispatcher interface {
	Dispatch(conn net.Conn) Request
}

// exitRequest is the no-op pushed once per worker at shutdown so a worker
// parked in WorkQueue.Pop is guaranteed to wake up and observe the cleared
// running flag even if WakeAll's broadcast raced the check.
type exitRequest struct{}

func (exitRequest) Execute() {}
