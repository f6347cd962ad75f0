// Package game implements the Angel vs Devil hex-grid escape game (§4.6).
// The grid is GridSize x GridSize using offset coordinates; parity of the
// row determines which of the two neighbor-offset tables applies.
package game

import (
	"math/rand"
)

// GridSize is the board's side length. Positions are (row, col) pairs in
// [0, GridSize).
const GridSize = 11

// offset is a (dRow, dCol) neighbor displacement.
type offset struct {
	dr, dc int
}

// neighborTables holds the two parity-dependent neighbor offset sets for a
// hex grid in offset coordinates: row parity picks which table applies.
var neighborTables = [2][6]offset{
	{{-1, 0}, {0, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}},
	{{-1, 0}, {-1, 1}, {0, 1}, {1, 1}, {1, 0}, {0, -1}},
}

// Pos is a grid coordinate.
type Pos struct {
	Row, Col int
}

// State is one in-progress (or just-started) game between an angel and a
// devil. Angel is 0 when the angel side is computer-controlled.
type State struct {
	Angel    uint32
	Devil    uint32
	AngelPos Pos
	Turn     bool // false: angel to move, true: devil to move
	Grid     [GridSize][GridSize]bool
}

// Update describes the effect of one applied move, mirroring the wire
// notification sent to every lobby member after MakeMove.
type Update struct {
	DevilWon bool
	AngelWon bool
	Turn     bool
	Move     Pos
}

// New builds a fresh game: the angel starts in the center tile, and every
// tile outside the center row and center column is independently blocked
// with 12% probability. The center row/column is left entirely open,
// matching the original blocking
// condition (row != centerRow && col != centerCol) rather than merely
// excluding the single center tile.
func New(angel, devil uint32) *State {
	center := GridSize / 2
	s := &State{
		Angel:    angel,
		Devil:    devil,
		AngelPos: Pos{Row: center, Col: center},
		Turn:     true,
	}
	for i := 0; i < GridSize; i++ {
		for j := 0; j < GridSize; j++ {
			if i != center && j != center {
				s.Grid[i][j] = rand.Intn(100) < 12
			}
		}
	}
	return s
}

// Contains reports whether pos lies on the board.
func (s *State) Contains(pos Pos) bool {
	return pos.Row >= 0 && pos.Row < GridSize && pos.Col >= 0 && pos.Col < GridSize
}

func (s *State) neighbors(pos Pos) []Pos {
	table := neighborTables[pos.Row%2]
	out := make([]Pos, 0, 6)
	for _, off := range table {
		n := Pos{Row: pos.Row + off.dr, Col: pos.Col + off.dc}
		if s.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// ValidAngelMove reports whether the angel may move to pos this turn: pos
// must be on the board, unblocked, and adjacent to the angel's current tile
// under its row's neighbor table.
func (s *State) ValidAngelMove(pos Pos) bool {
	if !s.Contains(pos) || s.Grid[pos.Row][pos.Col] {
		return false
	}
	for _, n := range s.neighbors(s.AngelPos) {
		if n == pos {
			return true
		}
	}
	return false
}

// ValidDevilMove reports whether the devil may block pos this turn: any
// unblocked tile other than the angel's current position.
func (s *State) ValidDevilMove(pos Pos) bool {
	if !s.Contains(pos) {
		return false
	}
	return !s.Grid[pos.Row][pos.Col] && pos != s.AngelPos
}

// reachedBorder reports whether pos sits on the outer ring of the grid.
func (s *State) reachedBorder(pos Pos) bool {
	return pos.Row == 0 || pos.Row == GridSize-1 || pos.Col == 0 || pos.Col == GridSize-1
}

// AngelWon reports whether the angel has reached the border.
func (s *State) AngelWon() bool {
	return s.reachedBorder(s.AngelPos)
}

// DevilWon reports whether the angel has no path left to the border. The
// devil wins exactly when FindEscapeStep finds none.
func (s *State) DevilWon() bool {
	if s.reachedBorder(s.AngelPos) {
		return false
	}
	return s.FindEscapeStep() == nil
}

// ApplyDevilMove blocks pos (already validated by the caller) and flips the
// turn to the angel.
func (s *State) ApplyDevilMove(pos Pos) Update {
	s.Grid[pos.Row][pos.Col] = true
	return s.finishMove(pos)
}

// ApplyAngelMove moves the angel to pos (already validated by the caller)
// and flips the turn to the devil.
func (s *State) ApplyAngelMove(pos Pos) Update {
	s.AngelPos = pos
	return s.finishMove(pos)
}

func (s *State) finishMove(move Pos) Update {
	u := Update{
		DevilWon: s.DevilWon(),
		AngelWon: s.AngelWon(),
		Turn:     s.Turn,
		Move:     move,
	}
	s.Turn = !s.Turn
	return u
}

// FindEscapeStep returns the angel's next step along a shortest unblocked
// path to the border, or nil if no such path exists. When the angel has
// already reached the border it returns the current position. The search
// is a BFS from the angel's position, enqueueing each tile's neighbors in
// shuffled order and recording each tile's distance, then a walk backward
// from the first border tile dequeued, one hop at a time, taking the first
// neighbor in neighbor-table order whose distance is exactly one less —
// this is how the original implementation finds a path without storing
// full parent pointers. The randomness comes from the shuffled BFS order;
// the backward walk itself is deterministic.
func (s *State) FindEscapeStep() *Pos {
	if s.reachedBorder(s.AngelPos) {
		p := s.AngelPos
		return &p
	}

	var dist [GridSize][GridSize]int
	queue := []Pos{s.AngelPos}
	dist[s.AngelPos.Row][s.AngelPos.Col] = 1

	var borderTile *Pos
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]

		if s.reachedBorder(pos) {
			p := pos
			borderTile = &p
			break
		}

		table := neighborTables[pos.Row%2]
		order := rand.Perm(len(table))
		for _, idx := range order {
			off := table[idx]
			n := Pos{Row: pos.Row + off.dr, Col: pos.Col + off.dc}
			if s.Contains(n) && !s.Grid[n.Row][n.Col] && dist[n.Row][n.Col] == 0 {
				queue = append(queue, n)
				dist[n.Row][n.Col] = dist[pos.Row][pos.Col] + 1
			}
		}
	}

	if borderTile == nil {
		return nil
	}

	path := []Pos{*borderTile}
	pos := *borderTile
	for pos != s.AngelPos {
		found := false
		for _, off := range neighborTables[pos.Row%2] {
			n := Pos{Row: pos.Row + off.dr, Col: pos.Col + off.dc}
			if s.Contains(n) && !s.Grid[n.Row][n.Col] && dist[pos.Row][pos.Col] == dist[n.Row][n.Col]+1 {
				path = append(path, n)
				found = true
				break
			}
		}
		if !found {
			return nil
		}
		pos = path[len(path)-1]
	}

	if len(path) < 2 {
		return nil
	}
	step := path[len(path)-2]
	return &step
}
