package lobby

import (
	"github.com/trapthemouse/server/internal/wire"
)

// fanOut pushes tag/payload to every current roster member as an
// individual short-lived outbound request (§4.5). A member that doesn't
// answer is dropped from the roster; if the dropped member held the Host
// role, the next reachable member in roster order is promoted and the
// survivors are told about it. If the host is lost and nobody answers at
// all, fanOut reports InternalShutDown so the caller can stop this lobby's
// server — there is no one left to serve.
//
// Caller must hold rosterMu.
func (l *Lobby) fanOut(tag wire.Tag, payload []byte) *wire.ServerError {
	alive := make([]*Member, 0, len(l.roster))
	var removed []uint32
	var newHost *Member
	hostLost := false

	for _, m := range l.roster {
		if _, _, err := wire.Request(m.Endpoint, tag, payload); err != nil {
			l.Log.WithFields(logFields(m)).WithError(err).Warn("lobby: member unreachable during broadcast")
			removed = append(removed, m.ID)
			if m.Role == wire.RoleHost {
				hostLost = true
			}
			continue
		}
		alive = append(alive, m)
		if newHost == nil {
			newHost = m
		}
	}

	l.roster = alive

	if hostLost && newHost == nil {
		return wire.InternalShutDown()
	}
	if hostLost {
		newHost.Role = wire.RoleHost
	}

	if len(removed) == 0 && !hostLost {
		return nil
	}

	// Second wave: tell survivors who dropped and who the new host is.
	// Best-effort — if this also fails for someone, the next broadcast's
	// fanOut call will clean them up in turn.
	for _, id := range removed {
		notif := wire.PlayerLeftArgs{UserID: id}.Marshal()
		l.broadcastBestEffort(wire.TagPlayerLeft, notif)
	}
	if hostLost {
		notif := wire.PlayerUpdatedArgs{Member: newHost.short()}.Marshal()
		l.broadcastBestEffort(wire.TagPlayerUpdated, notif)
	}

	return nil
}

// broadcastBestEffort sends tag/payload to every current member without
// mutating the roster on failure — used for the second-wave notifications
// fanOut itself emits, so one slow follow-up message can't recursively
// reshuffle the host mid-broadcast.
func (l *Lobby) broadcastBestEffort(tag wire.Tag, payload []byte) {
	for _, m := range l.roster {
		_, _, _ = wire.Request(m.Endpoint, tag, payload)
	}
}

func logFields(m *Member) map[string]any {
	return map[string]any{"member_id": m.ID, "member_name": m.Name}
}
