package wire

// This file defines the argument/result tuples for every method in §6 and
// the notification payloads of §4.5/§4.6, plus their wire codec. Every
// tuple's Marshal/Unmarshal pair walks its fields in the exact order listed
// in the method signature table — the scheme is intentionally dumb: fixed
// width integers, then length-prefixed strings/sequences, no padding.

// LobbyAddr identifies one lobby's listener.
type LobbyAddr struct {
	ID       uint16
	Endpoint string
}

func (a LobbyAddr) Marshal(e *Encoder) {
	e.U16(a.ID)
	e.Addr(a.Endpoint)
}

func DecodeLobbyAddr(d *Decoder) LobbyAddr {
	id := d.U16()
	addr := d.Addr()
	return LobbyAddr{ID: id, Endpoint: addr}
}

// MemberShort is the public roster view — no notification endpoint leaks.
type MemberShort struct {
	ID   uint32
	Role Role
	Name string
}

func (m MemberShort) Marshal(e *Encoder) {
	e.U32(m.ID)
	e.U8(uint8(m.Role))
	e.Str(m.Name)
}

func DecodeMemberShort(d *Decoder) MemberShort {
	id := d.U32()
	role := Role(d.U8())
	name := d.Str()
	return MemberShort{ID: id, Role: role, Name: name}
}

// GameStateWire is the wire rendition of game.State (C6), kept free of any
// game-package import so the wire package has no domain dependency.
type GameStateWire struct {
	Angel    uint32 // 0 == computer
	Devil    uint32
	AngelRow int32
	AngelCol int32
	Turn     bool // true == devil to move
	GridSize uint16
	Blocked  []bool // row-major, GridSize*GridSize entries
}

func (g GameStateWire) Marshal(e *Encoder) {
	e.U32(g.Angel)
	e.U32(g.Devil)
	e.I32(g.AngelRow)
	e.I32(g.AngelCol)
	e.Bool(g.Turn)
	e.U16(g.GridSize)
	for _, b := range g.Blocked {
		e.Bool(b)
	}
}

func DecodeGameStateWire(d *Decoder) GameStateWire {
	g := GameStateWire{}
	g.Angel = d.U32()
	g.Devil = d.U32()
	g.AngelRow = d.I32()
	g.AngelCol = d.I32()
	g.Turn = d.Bool()
	g.GridSize = d.U16()
	n := int(g.GridSize) * int(g.GridSize)
	g.Blocked = make([]bool, n)
	for i := 0; i < n; i++ {
		g.Blocked[i] = d.Bool()
	}
	return g
}

// ---- Ping ----

type PingArgs struct{ Msg string }

func (a PingArgs) Marshal() []byte {
	e := NewEncoder()
	e.Str(a.Msg)
	return e.Bytes()
}

func UnmarshalPingArgs(payload []byte) (PingArgs, error) {
	d := NewDecoder(payload)
	msg := d.Str()
	return PingArgs{Msg: msg}, d.Err()
}

type PingResult struct{ Msg string }

func (r PingResult) Marshal() []byte {
	e := NewEncoder()
	e.Str(r.Msg)
	return e.Bytes()
}

func UnmarshalPingResult(payload []byte) (PingResult, error) {
	d := NewDecoder(payload)
	msg := d.Str()
	return PingResult{Msg: msg}, d.Err()
}

// ---- Connect ----

type ConnectArgs struct {
	Name           string
	NotifyEndpoint string
}

func (a ConnectArgs) Marshal() []byte {
	e := NewEncoder()
	e.Str(a.Name)
	e.Addr(a.NotifyEndpoint)
	return e.Bytes()
}

func UnmarshalConnectArgs(payload []byte) (ConnectArgs, error) {
	d := NewDecoder(payload)
	name := d.Str()
	addr := d.Addr()
	return ConnectArgs{Name: name, NotifyEndpoint: addr}, d.Err()
}

type ConnectResult struct{ UserID uint32 }

func (r ConnectResult) Marshal() []byte {
	e := NewEncoder()
	e.U32(r.UserID)
	return e.Bytes()
}

func UnmarshalConnectResult(payload []byte) (ConnectResult, error) {
	d := NewDecoder(payload)
	id := d.U32()
	return ConnectResult{UserID: id}, d.Err()
}

// ---- Disconnect ----

type DisconnectArgs struct{ UserID uint32 }

func (a DisconnectArgs) Marshal() []byte {
	e := NewEncoder()
	e.U32(a.UserID)
	return e.Bytes()
}

func UnmarshalDisconnectArgs(payload []byte) (DisconnectArgs, error) {
	d := NewDecoder(payload)
	id := d.U32()
	return DisconnectArgs{UserID: id}, d.Err()
}

// ---- ChangeName ----

type ChangeNameArgs struct {
	UserID uint32
	Name   string
}

func (a ChangeNameArgs) Marshal() []byte {
	e := NewEncoder()
	e.U32(a.UserID)
	e.Str(a.Name)
	return e.Bytes()
}

func UnmarshalChangeNameArgs(payload []byte) (ChangeNameArgs, error) {
	d := NewDecoder(payload)
	id := d.U32()
	name := d.Str()
	return ChangeNameArgs{UserID: id, Name: name}, d.Err()
}

// ---- CreateLobby ----

type CreateLobbyArgs struct {
	UserID uint32
	Name   string
}

func (a CreateLobbyArgs) Marshal() []byte {
	e := NewEncoder()
	e.U32(a.UserID)
	e.Str(a.Name)
	return e.Bytes()
}

func UnmarshalCreateLobbyArgs(payload []byte) (CreateLobbyArgs, error) {
	d := NewDecoder(payload)
	id := d.U32()
	name := d.Str()
	return CreateLobbyArgs{UserID: id, Name: name}, d.Err()
}

type CreateLobbyResult struct{ Addr LobbyAddr }

func (r CreateLobbyResult) Marshal() []byte {
	e := NewEncoder()
	r.Addr.Marshal(e)
	return e.Bytes()
}

func UnmarshalCreateLobbyResult(payload []byte) (CreateLobbyResult, error) {
	d := NewDecoder(payload)
	addr := DecodeLobbyAddr(d)
	return CreateLobbyResult{Addr: addr}, d.Err()
}

// ---- GetLobbies ----

type GetLobbiesArgs struct {
	UserID uint32
	Start  uint32
	Offset uint32
}

func (a GetLobbiesArgs) Marshal() []byte {
	e := NewEncoder()
	e.U32(a.UserID)
	e.U32(a.Start)
	e.U32(a.Offset)
	return e.Bytes()
}

func UnmarshalGetLobbiesArgs(payload []byte) (GetLobbiesArgs, error) {
	d := NewDecoder(payload)
	id := d.U32()
	start := d.U32()
	offset := d.U32()
	return GetLobbiesArgs{UserID: id, Start: start, Offset: offset}, d.Err()
}

type GetLobbiesResult struct{ Lobbies []LobbyAddr }

func (r GetLobbiesResult) Marshal() []byte {
	e := NewEncoder()
	e.U32(uint32(len(r.Lobbies)))
	for _, l := range r.Lobbies {
		l.Marshal(e)
	}
	return e.Bytes()
}

func UnmarshalGetLobbiesResult(payload []byte) (GetLobbiesResult, error) {
	d := NewDecoder(payload)
	n := d.U32()
	out := make([]LobbyAddr, 0, n)
	for i := uint32(0); i < n && d.Err() == nil; i++ {
		out = append(out, DecodeLobbyAddr(d))
	}
	return GetLobbiesResult{Lobbies: out}, d.Err()
}

// ---- GetLobbyState ----

type GetLobbyStateResult struct {
	Name      string
	UserCount uint32
	GameGoing bool
}

func (r GetLobbyStateResult) Marshal() []byte {
	e := NewEncoder()
	e.Str(r.Name)
	e.U32(r.UserCount)
	e.Bool(r.GameGoing)
	return e.Bytes()
}

func UnmarshalGetLobbyStateResult(payload []byte) (GetLobbyStateResult, error) {
	d := NewDecoder(payload)
	name := d.Str()
	count := d.U32()
	going := d.Bool()
	return GetLobbyStateResult{Name: name, UserCount: count, GameGoing: going}, d.Err()
}

// ---- JoinLobby ----

type JoinLobbyArgs struct{ UserID uint32 }

func (a JoinLobbyArgs) Marshal() []byte {
	e := NewEncoder()
	e.U32(a.UserID)
	return e.Bytes()
}

func UnmarshalJoinLobbyArgs(payload []byte) (JoinLobbyArgs, error) {
	d := NewDecoder(payload)
	id := d.U32()
	return JoinLobbyArgs{UserID: id}, d.Err()
}

type JoinLobbyResult struct {
	Name    string
	Members []MemberShort
	HasGame bool
	Game    GameStateWire
}

func (r JoinLobbyResult) Marshal() []byte {
	e := NewEncoder()
	e.Str(r.Name)
	e.U32(uint32(len(r.Members)))
	for _, m := range r.Members {
		m.Marshal(e)
	}
	e.Bool(r.HasGame)
	if r.HasGame {
		r.Game.Marshal(e)
	}
	return e.Bytes()
}

func UnmarshalJoinLobbyResult(payload []byte) (JoinLobbyResult, error) {
	d := NewDecoder(payload)
	name := d.Str()
	n := d.U32()
	members := make([]MemberShort, 0, n)
	for i := uint32(0); i < n && d.Err() == nil; i++ {
		members = append(members, DecodeMemberShort(d))
	}
	hasGame := d.Bool()
	var game GameStateWire
	if hasGame {
		game = DecodeGameStateWire(d)
	}
	return JoinLobbyResult{Name: name, Members: members, HasGame: hasGame, Game: game}, d.Err()
}

// ---- LeaveLobby / CloseLobby ----

type UserIDArgs struct{ UserID uint32 }

func (a UserIDArgs) Marshal() []byte {
	e := NewEncoder()
	e.U32(a.UserID)
	return e.Bytes()
}

func UnmarshalUserIDArgs(payload []byte) (UserIDArgs, error) {
	d := NewDecoder(payload)
	id := d.U32()
	return UserIDArgs{UserID: id}, d.Err()
}

// ---- MakeHost ----

type MakeHostArgs struct {
	UserID    uint32
	NewHostID uint32
}

func (a MakeHostArgs) Marshal() []byte {
	e := NewEncoder()
	e.U32(a.UserID)
	e.U32(a.NewHostID)
	return e.Bytes()
}

func UnmarshalMakeHostArgs(payload []byte) (MakeHostArgs, error) {
	d := NewDecoder(payload)
	id := d.U32()
	target := d.U32()
	return MakeHostArgs{UserID: id, NewHostID: target}, d.Err()
}

// ---- BecomeRole ----

type BecomeRoleArgs struct {
	UserID uint32
	Role   Role
}

func (a BecomeRoleArgs) Marshal() []byte {
	e := NewEncoder()
	e.U32(a.UserID)
	e.U8(uint8(a.Role))
	return e.Bytes()
}

func UnmarshalBecomeRoleArgs(payload []byte) (BecomeRoleArgs, error) {
	d := NewDecoder(payload)
	id := d.U32()
	role := Role(d.U8())
	return BecomeRoleArgs{UserID: id, Role: role}, d.Err()
}

// ---- SendMessage ----

type SendMessageArgs struct {
	UserID uint32
	Text   string
}

func (a SendMessageArgs) Marshal() []byte {
	e := NewEncoder()
	e.U32(a.UserID)
	e.Str(a.Text)
	return e.Bytes()
}

func UnmarshalSendMessageArgs(payload []byte) (SendMessageArgs, error) {
	d := NewDecoder(payload)
	id := d.U32()
	text := d.Str()
	return SendMessageArgs{UserID: id, Text: text}, d.Err()
}

// ---- MakeMove ----

type MakeMoveArgs struct {
	UserID uint32
	Row    int32
	Col    int32
}

func (a MakeMoveArgs) Marshal() []byte {
	e := NewEncoder()
	e.U32(a.UserID)
	e.I32(a.Row)
	e.I32(a.Col)
	return e.Bytes()
}

func UnmarshalMakeMoveArgs(payload []byte) (MakeMoveArgs, error) {
	d := NewDecoder(payload)
	id := d.U32()
	row := d.I32()
	col := d.I32()
	return MakeMoveArgs{UserID: id, Row: row, Col: col}, d.Err()
}

// ---- Notifications ----

type PlayerJoinedArgs struct{ Member MemberShort }

func (a PlayerJoinedArgs) Marshal() []byte {
	e := NewEncoder()
	a.Member.Marshal(e)
	return e.Bytes()
}

func UnmarshalPlayerJoinedArgs(payload []byte) (PlayerJoinedArgs, error) {
	d := NewDecoder(payload)
	m := DecodeMemberShort(d)
	return PlayerJoinedArgs{Member: m}, d.Err()
}

type PlayerLeftArgs struct{ UserID uint32 }

func (a PlayerLeftArgs) Marshal() []byte {
	e := NewEncoder()
	e.U32(a.UserID)
	return e.Bytes()
}

func UnmarshalPlayerLeftArgs(payload []byte) (PlayerLeftArgs, error) {
	d := NewDecoder(payload)
	id := d.U32()
	return PlayerLeftArgs{UserID: id}, d.Err()
}

type PlayerUpdatedArgs struct{ Member MemberShort }

func (a PlayerUpdatedArgs) Marshal() []byte {
	e := NewEncoder()
	a.Member.Marshal(e)
	return e.Bytes()
}

func UnmarshalPlayerUpdatedArgs(payload []byte) (PlayerUpdatedArgs, error) {
	d := NewDecoder(payload)
	m := DecodeMemberShort(d)
	return PlayerUpdatedArgs{Member: m}, d.Err()
}

type MessageArgs struct {
	AuthorName string
	Text       string
}

func (a MessageArgs) Marshal() []byte {
	e := NewEncoder()
	e.Str(a.AuthorName)
	e.Str(a.Text)
	return e.Bytes()
}

func UnmarshalMessageArgs(payload []byte) (MessageArgs, error) {
	d := NewDecoder(payload)
	author := d.Str()
	text := d.Str()
	return MessageArgs{AuthorName: author, Text: text}, d.Err()
}

type GameStartedArgs struct{ Game GameStateWire }

func (a GameStartedArgs) Marshal() []byte {
	e := NewEncoder()
	a.Game.Marshal(e)
	return e.Bytes()
}

func UnmarshalGameStartedArgs(payload []byte) (GameStartedArgs, error) {
	d := NewDecoder(payload)
	g := DecodeGameStateWire(d)
	return GameStartedArgs{Game: g}, d.Err()
}

type GameUpdatedArgs struct {
	DevilWon bool
	AngelWon bool
	Turn     bool
	MoveRow  int32
	MoveCol  int32
}

func (a GameUpdatedArgs) Marshal() []byte {
	e := NewEncoder()
	e.Bool(a.DevilWon)
	e.Bool(a.AngelWon)
	e.Bool(a.Turn)
	e.I32(a.MoveRow)
	e.I32(a.MoveCol)
	return e.Bytes()
}

func UnmarshalGameUpdatedArgs(payload []byte) (GameUpdatedArgs, error) {
	d := NewDecoder(payload)
	devilWon := d.Bool()
	angelWon := d.Bool()
	turn := d.Bool()
	row := d.I32()
	col := d.I32()
	return GameUpdatedArgs{DevilWon: devilWon, AngelWon: angelWon, Turn: turn, MoveRow: row, MoveCol: col}, d.Err()
}
