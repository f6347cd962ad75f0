// Package wire implements the framed binary protocol shared by the directory
// server and every lobby: a fixed 12-byte header followed by a
// little-endian, length-prefixed payload. See Header and Codec.
package wire

// Tag identifies the method or notification carried by one frame. The tag
// set is closed: any value not listed here is rejected by a server's
// dispatcher with Api("invalid request").
type Tag uint64

const (
	TagPing Tag = iota + 1
	TagConnect
	TagDisconnect
	TagChangeName
	TagCreateLobby
	TagGetLobbies
	TagGetLobbyState
	TagJoinLobby
	TagLeaveLobby
	TagCloseLobby
	TagMakeHost
	TagBecomeRole
	TagSendMessage
	TagChangedName
	TagStartGame
	TagMakeMove

	// Notification tags, sent server -> client on a short-lived outbound
	// connection. The response to these is ignored by the sender.
	TagPlayerJoined
	TagPlayerLeft
	TagPlayerUpdated
	TagMessage
	TagGameStarted
	TagGameUpdated
	TagLobbyClosing

	// Wire-level response tags wrapping every result.
	TagSuccess
	TagError
)

func (t Tag) String() string {
	switch t {
	case TagPing:
		return "Ping"
	case TagConnect:
		return "Connect"
	case TagDisconnect:
		return "Disconnect"
	case TagChangeName:
		return "ChangeName"
	case TagCreateLobby:
		return "CreateLobby"
	case TagGetLobbies:
		return "GetLobbies"
	case TagGetLobbyState:
		return "GetLobbyState"
	case TagJoinLobby:
		return "JoinLobby"
	case TagLeaveLobby:
		return "LeaveLobby"
	case TagCloseLobby:
		return "CloseLobby"
	case TagMakeHost:
		return "MakeHost"
	case TagBecomeRole:
		return "BecomeRole"
	case TagSendMessage:
		return "SendMessage"
	case TagChangedName:
		return "ChangedName"
	case TagStartGame:
		return "StartGame"
	case TagMakeMove:
		return "MakeMove"
	case TagPlayerJoined:
		return "PlayerJoined"
	case TagPlayerLeft:
		return "PlayerLeft"
	case TagPlayerUpdated:
		return "PlayerUpdated"
	case TagMessage:
		return "Message"
	case TagGameStarted:
		return "GameStarted"
	case TagGameUpdated:
		return "GameUpdated"
	case TagLobbyClosing:
		return "LobbyClosing"
	case TagSuccess:
		return "Success"
	case TagError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Role is a lobby member's position: at most one Host and one Player per
// lobby, everyone else is a Spectator.
type Role uint8

const (
	RoleHost Role = iota
	RolePlayer
	RoleSpectator
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "Host"
	case RolePlayer:
		return "Player"
	case RoleSpectator:
		return "Spectator"
	default:
		return "Unknown"
	}
}
