package lobby

import (
	"context"

	"github.com/trapthemouse/server/internal/game"
	"github.com/trapthemouse/server/internal/wire"
)

// JoinLobby adds userID to the roster as Host/Player/Spectator depending on
// how many members are already present, announces the new member to
// everyone already there, then answers with the full roster and any game
// in progress (§6).
func (l *Lobby) JoinLobby(ctx context.Context, userID uint32) (wire.JoinLobbyResult, *wire.ServerError) {
	if err := l.requireConnected(ctx, userID); err != nil {
		return wire.JoinLobbyResult{}, err
	}

	ident, idErr := l.Identity.GetByID(ctx, userID)
	if idErr != nil {
		return wire.JoinLobbyResult{}, wire.Internal(idErr)
	}

	// Snapshot any game in progress before touching the roster, so the lock
	// order here (gameMu then rosterMu) matches StartGame/MakeMove/MakeHost/
	// BecomeRole and can't deadlock against them.
	var hasGame bool
	var gameSnapshot wire.GameStateWire
	l.gameMu.Lock()
	if l.state != nil {
		hasGame = true
		gameSnapshot = toWireState(l.state)
	}
	l.gameMu.Unlock()

	l.rosterMu.Lock()
	defer l.rosterMu.Unlock()

	if l.memberIndex(userID) != -1 {
		return wire.JoinLobbyResult{}, wire.Api("you are already connected to this lobby")
	}

	newMember := &Member{
		ID:       userID,
		Role:     assignRole(len(l.roster)),
		Name:     ident.Name,
		Endpoint: ident.Endpoint,
	}

	// A shutdown signal here just means every pre-existing member was
	// unreachable; the joiner is about to become the lobby's only member,
	// so there's no need to stop the server over it.
	notif := wire.PlayerJoinedArgs{Member: newMember.short()}.Marshal()
	l.fanOut(wire.TagPlayerJoined, notif)

	l.roster = append(l.roster, newMember)

	result := wire.JoinLobbyResult{
		Name:    l.Name,
		Members: l.rosterShort(),
		HasGame: hasGame,
		Game:    gameSnapshot,
	}

	return result, nil
}

// LeaveLobby removes userID from the roster. If the leaver was host, the
// next member in roster order is promoted and told about it.
func (l *Lobby) LeaveLobby(ctx context.Context, userID uint32) *wire.ServerError {
	if err := l.requireConnected(ctx, userID); err != nil {
		return err
	}

	l.rosterMu.Lock()
	defer l.rosterMu.Unlock()

	idx := l.memberIndex(userID)
	if idx == -1 {
		return wire.Api("you are not connected to this lobby")
	}

	leaver := l.roster[idx]
	l.roster = append(l.roster[:idx], l.roster[idx+1:]...)

	var newHost *Member
	if leaver.Role == wire.RoleHost && len(l.roster) > 0 {
		newHost = l.roster[0]
		newHost.Role = wire.RoleHost
	}

	notif := wire.PlayerLeftArgs{UserID: userID}.Marshal()
	if err := l.fanOut(wire.TagPlayerLeft, notif); err != nil && err.IsShutdown() {
		l.Server.Stop()
		return nil
	}

	if newHost != nil {
		hostNotif := wire.PlayerUpdatedArgs{Member: newHost.short()}.Marshal()
		if err := l.fanOut(wire.TagPlayerUpdated, hostNotif); err != nil && err.IsShutdown() {
			l.Server.Stop()
		}
	}

	return nil
}

// CloseLobby lets the current host tear the lobby down outright: every
// member is told it's closing, then the server stops accepting work. Stop
// (not Shutdown) is used deliberately — this handler runs on one of the
// lobby's own worker goroutines, and Shutdown would deadlock waiting for
// that same worker to finish.
func (l *Lobby) CloseLobby(ctx context.Context, userID uint32) *wire.ServerError {
	if err := l.requireConnected(ctx, userID); err != nil {
		return err
	}

	l.rosterMu.Lock()
	defer l.rosterMu.Unlock()

	idx := l.memberIndex(userID)
	if idx == -1 {
		return wire.Api("you are not connected to this lobby")
	}
	if l.roster[idx].Role != wire.RoleHost {
		return wire.Api("you are not the host")
	}

	l.broadcastBestEffort(wire.TagLobbyClosing, nil)
	l.Server.Stop()
	return nil
}

// MakeHost transfers the Host role from userID to newHostID, swapping
// newHostID's prior role onto userID. Rejected while a game is in progress
// (§4.5): the Host/Player roles are fixed as devil/angel for the duration.
func (l *Lobby) MakeHost(ctx context.Context, userID, newHostID uint32) *wire.ServerError {
	if err := l.requireConnected(ctx, userID); err != nil {
		return err
	}

	l.gameMu.Lock()
	defer l.gameMu.Unlock()
	if l.state != nil {
		return wire.Api("cannot change roles while a game is going on")
	}

	l.rosterMu.Lock()
	defer l.rosterMu.Unlock()

	hostIdx := l.memberIndex(userID)
	if hostIdx == -1 {
		return wire.Api("you are not connected to this lobby")
	}
	if l.roster[hostIdx].Role != wire.RoleHost {
		return wire.Api("you are not the host")
	}

	targetIdx := l.memberIndex(newHostID)
	if targetIdx == -1 {
		return wire.Api("user is not connected to this lobby")
	}

	oldHostNewRole := l.roster[targetIdx].Role
	l.roster[targetIdx].Role = wire.RoleHost
	l.roster[hostIdx].Role = oldHostNewRole

	l.fanOutBestEffortUpdate(l.roster[targetIdx])
	l.fanOutBestEffortUpdate(l.roster[hostIdx])
	return nil
}

// BecomeRole lets a non-host member switch between Player and Spectator.
// At most one Player may exist at a time. Rejected while a game is in
// progress (§4.5/§7): the angel and devil are fixed for the duration.
func (l *Lobby) BecomeRole(ctx context.Context, userID uint32, newRole wire.Role) *wire.ServerError {
	if err := l.requireConnected(ctx, userID); err != nil {
		return err
	}

	l.gameMu.Lock()
	defer l.gameMu.Unlock()
	if l.state != nil {
		return wire.Api("cannot change roles while a game is going on")
	}

	l.rosterMu.Lock()
	defer l.rosterMu.Unlock()

	idx := l.memberIndex(userID)
	if idx == -1 {
		return wire.Api("you are not connected to this lobby")
	}
	member := l.roster[idx]

	if member.Role == wire.RoleHost {
		return wire.Api("you need to make someone else host")
	}
	if member.Role == newRole {
		return wire.Api("you already have this role")
	}
	if newRole == wire.RoleHost {
		return wire.Api("you cannot become host")
	}
	if newRole == wire.RolePlayer {
		for _, m := range l.roster {
			if m.Role == wire.RolePlayer {
				return wire.Api("cannot become player")
			}
		}
	}

	member.Role = newRole
	l.fanOutBestEffortUpdate(member)
	return nil
}

// ChangedName tells the lobby that userID's display name changed
// (directory.ChangeName already persisted it); the roster copy and every
// member are updated to match.
func (l *Lobby) ChangedName(ctx context.Context, userID uint32) *wire.ServerError {
	if err := l.requireConnected(ctx, userID); err != nil {
		return err
	}

	ident, idErr := l.Identity.GetByID(ctx, userID)
	if idErr != nil {
		return wire.Internal(idErr)
	}

	l.rosterMu.Lock()
	defer l.rosterMu.Unlock()

	idx := l.memberIndex(userID)
	if idx == -1 {
		return wire.Api("you are not connected to this lobby")
	}
	l.roster[idx].Name = ident.Name
	l.fanOutBestEffortUpdate(l.roster[idx])
	return nil
}

// SendMessage validates and relays a chat line to every member (§4.5).
func (l *Lobby) SendMessage(ctx context.Context, userID uint32, text string) *wire.ServerError {
	if err := l.requireConnected(ctx, userID); err != nil {
		return err
	}
	if len(text) == 0 || len(text) > 256 {
		return wire.Api("message length should be between 1 and 256 characters")
	}

	ident, idErr := l.Identity.GetByID(ctx, userID)
	if idErr != nil {
		return wire.Internal(idErr)
	}

	l.rosterMu.Lock()
	defer l.rosterMu.Unlock()

	notif := wire.MessageArgs{AuthorName: ident.Name, Text: text}.Marshal()
	if err := l.fanOut(wire.TagMessage, notif); err != nil && err.IsShutdown() {
		l.Server.Stop()
	}
	return nil
}

// StartGame begins a new game with the current Host as devil and the
// current Player as angel (§4.6). Only the host may start it, and not while
// another game is still in progress; once a game ends a new one may start.
func (l *Lobby) StartGame(ctx context.Context, userID uint32) *wire.ServerError {
	if err := l.requireConnected(ctx, userID); err != nil {
		return err
	}

	l.gameMu.Lock()
	defer l.gameMu.Unlock()
	if l.state != nil {
		return wire.Api("game is already started")
	}

	l.rosterMu.Lock()
	var angel, devil uint32
	for _, m := range l.roster {
		switch m.Role {
		case wire.RoleHost:
			devil = m.ID
		case wire.RolePlayer:
			angel = m.ID
		}
	}
	if devil != userID {
		l.rosterMu.Unlock()
		return wire.Api("you are not the host")
	}

	state := game.New(angel, devil)
	notif := wire.GameStartedArgs{Game: toWireState(state)}.Marshal()
	if err := l.fanOut(wire.TagGameStarted, notif); err != nil && err.IsShutdown() {
		l.Server.Stop()
	}
	l.rosterMu.Unlock()

	l.state = state
	return nil
}

// MakeMove applies userID's move, broadcasts the resulting update, ends the
// game on a win, and — when the angel side is computer-controlled (Angel
// == 0) — immediately plays the computer's reply before returning, so a
// human devil never waits on a second round trip for the angel's response.
// The reply is a fresh FindEscapeStep from the angel's current position;
// the escape search run for the devil's move's win check is not reused.
func (l *Lobby) MakeMove(ctx context.Context, userID uint32, move game.Pos) *wire.ServerError {
	if err := l.requireConnected(ctx, userID); err != nil {
		return err
	}

	l.gameMu.Lock()
	defer l.gameMu.Unlock()

	if l.state == nil {
		return wire.Api("game is not started yet")
	}
	s := l.state

	if userID != s.Angel && userID != s.Devil {
		return wire.Api("you are not playing")
	}

	update, mErr := l.applyMoveLocked(s, userID, move)
	if mErr != nil {
		return mErr
	}
	l.broadcastGameUpdate(update)

	for s.Angel == 0 && !s.Turn && l.state != nil {
		step := s.FindEscapeStep()
		if step == nil {
			break
		}
		computerUpdate := s.ApplyAngelMove(*step)
		l.broadcastGameUpdate(computerUpdate)
		if computerUpdate.DevilWon || computerUpdate.AngelWon {
			l.state = nil
			break
		}
	}

	return nil
}

func (l *Lobby) applyMoveLocked(s *game.State, userID uint32, move game.Pos) (game.Update, *wire.ServerError) {
	if s.Turn {
		if userID != s.Devil {
			return game.Update{}, wire.Api("it's not your turn")
		}
		if !s.ValidDevilMove(move) {
			return game.Update{}, wire.Api("invalid move")
		}
		update := s.ApplyDevilMove(move)
		if update.DevilWon || update.AngelWon {
			l.state = nil
		}
		return update, nil
	}

	if userID != s.Angel {
		return game.Update{}, wire.Api("it's not your turn")
	}
	if !s.ValidAngelMove(move) {
		return game.Update{}, wire.Api("invalid move")
	}
	update := s.ApplyAngelMove(move)
	if update.DevilWon || update.AngelWon {
		l.state = nil
	}
	return update, nil
}

func (l *Lobby) broadcastGameUpdate(update game.Update) {
	notif := wire.GameUpdatedArgs{
		DevilWon: update.DevilWon,
		AngelWon: update.AngelWon,
		Turn:     update.Turn,
		MoveRow:  int32(update.Move.Row),
		MoveCol:  int32(update.Move.Col),
	}.Marshal()

	l.rosterMu.Lock()
	if err := l.fanOut(wire.TagGameUpdated, notif); err != nil && err.IsShutdown() {
		l.Server.Stop()
	}
	l.rosterMu.Unlock()
}

// fanOutBestEffortUpdate announces m's current role/name to the whole
// roster. Caller must hold rosterMu.
func (l *Lobby) fanOutBestEffortUpdate(m *Member) {
	notif := wire.PlayerUpdatedArgs{Member: m.short()}.Marshal()
	if err := l.fanOut(wire.TagPlayerUpdated, notif); err != nil && err.IsShutdown() {
		l.Server.Stop()
	}
}

func toWireState(s *game.State) wire.GameStateWire {
	blocked := make([]bool, game.GridSize*game.GridSize)
	for i := 0; i < game.GridSize; i++ {
		for j := 0; j < game.GridSize; j++ {
			blocked[i*game.GridSize+j] = s.Grid[i][j]
		}
	}
	return wire.GameStateWire{
		Angel:    s.Angel,
		Devil:    s.Devil,
		AngelRow: int32(s.AngelPos.Row),
		AngelCol: int32(s.AngelPos.Col),
		Turn:     s.Turn,
		GridSize: game.GridSize,
		Blocked:  blocked,
	}
}
