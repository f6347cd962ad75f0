// Package middleware carries the teacher's request-logging conventions over
// to a raw-TCP RPC server: there is no http.Handler chain to wrap, so the
// middleware takes the shape of a pair of log calls bracketing one request's
// lifetime instead of a http.HandlerFunc decorator.
package middleware

import (
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trapthemouse/server/internal/wire"
)

// CorrelationID mints a per-request trace id, attached to every log line for
// one accept-read-dispatch-respond cycle. Domain ids in this service are
// uint32/uint16, not UUIDs, so this repurposes the teacher's pervasive
// uuid.UUID usage purely as a log correlation token.
func CorrelationID() string {
	return uuid.NewString()
}

// LogRequest logs one finished RPC request: the tag it dispatched on, how
// long it took, the remote address, and the error it returned, if any.
func LogRequest(logger *logrus.Logger, cid string, conn net.Conn, tag wire.Tag, start time.Time, svcErr *wire.ServerError) {
	fields := logrus.Fields{
		"cid":      cid,
		"tag":      tag.String(),
		"duration": time.Since(start),
		"remote":   conn.RemoteAddr(),
	}
	if svcErr != nil {
		fields["error"] = svcErr.Error()
		if svcErr.WireMessage() == "internal error" {
			logger.WithFields(fields).Error("rpc request failed")
			return
		}
		logger.WithFields(fields).Warn("rpc request failed")
		return
	}
	logger.WithFields(fields).Info("rpc request")
}

// LogConnect logs a newly accepted connection before its request is read.
func LogConnect(logger *logrus.Logger, cid string, conn net.Conn) {
	logger.WithFields(logrus.Fields{"cid": cid, "remote": conn.RemoteAddr()}).Debug("connection accepted")
}

// LogDisconnect logs a connection being closed, recording the read/write
// error that ended it, if the close wasn't clean.
func LogDisconnect(logger *logrus.Logger, cid string, conn net.Conn, err error) {
	fields := logrus.Fields{"cid": cid, "remote": conn.RemoteAddr()}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Debug("connection closed")
}
