package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func emptyState() *State {
	return &State{AngelPos: Pos{Row: GridSize / 2, Col: GridSize / 2}, Turn: true}
}

func TestNewPlacesAngelAtCenter(t *testing.T) {
	s := New(1, 2)
	require.Equal(t, Pos{Row: GridSize / 2, Col: GridSize / 2}, s.AngelPos)
	require.True(t, s.Turn)
}

func TestNewNeverBlocksCenterRowOrColumn(t *testing.T) {
	s := New(1, 2)
	center := GridSize / 2
	for i := 0; i < GridSize; i++ {
		require.False(t, s.Grid[center][i])
		require.False(t, s.Grid[i][center])
	}
}

func TestContains(t *testing.T) {
	s := emptyState()
	require.True(t, s.Contains(Pos{Row: 0, Col: 0}))
	require.True(t, s.Contains(Pos{Row: GridSize - 1, Col: GridSize - 1}))
	require.False(t, s.Contains(Pos{Row: -1, Col: 0}))
	require.False(t, s.Contains(Pos{Row: 0, Col: GridSize}))
}

func TestValidAngelMoveRejectsBlockedAndNonAdjacent(t *testing.T) {
	s := emptyState()
	far := Pos{Row: 0, Col: 0}
	require.False(t, s.ValidAngelMove(far))

	blocked := s.neighbors(s.AngelPos)[0]
	s.Grid[blocked.Row][blocked.Col] = true
	require.False(t, s.ValidAngelMove(blocked))
}

func TestValidAngelMoveAcceptsOpenNeighbor(t *testing.T) {
	s := emptyState()
	n := s.neighbors(s.AngelPos)[0]
	require.True(t, s.ValidAngelMove(n))
}

func TestValidDevilMoveRejectsAngelTile(t *testing.T) {
	s := emptyState()
	require.False(t, s.ValidDevilMove(s.AngelPos))
}

func TestAngelWonAtBorder(t *testing.T) {
	s := emptyState()
	s.AngelPos = Pos{Row: 0, Col: 3}
	require.True(t, s.AngelWon())
}

func TestAngelNotWonInCenter(t *testing.T) {
	s := emptyState()
	require.False(t, s.AngelWon())
}

func TestFindEscapeStepOnOpenBoard(t *testing.T) {
	s := emptyState()
	step := s.FindEscapeStep()
	require.NotNil(t, step)
	require.True(t, s.Contains(*step))
	require.NotEqual(t, s.AngelPos, *step)
}

func TestFindEscapeStepReturnsCurrentPosWhenAtBorder(t *testing.T) {
	s := emptyState()
	s.AngelPos = Pos{Row: 0, Col: 5}
	step := s.FindEscapeStep()
	require.NotNil(t, step)
	require.Equal(t, s.AngelPos, *step)
}

func TestFindEscapeStepNilWhenFullyBoxedIn(t *testing.T) {
	s := emptyState()
	for _, n := range s.neighbors(s.AngelPos) {
		s.Grid[n.Row][n.Col] = true
	}
	require.Nil(t, s.FindEscapeStep())
}

func TestDevilWonWhenNoEscape(t *testing.T) {
	s := emptyState()
	for _, n := range s.neighbors(s.AngelPos) {
		s.Grid[n.Row][n.Col] = true
	}
	require.True(t, s.DevilWon())
}

func TestApplyAngelMoveFlipsTurn(t *testing.T) {
	s := emptyState()
	n := s.neighbors(s.AngelPos)[0]
	s.Turn = false
	update := s.ApplyAngelMove(n)
	require.Equal(t, n, s.AngelPos)
	require.True(t, s.Turn)
	require.Equal(t, n, update.Move)
}

func TestApplyDevilMoveBlocksTileAndFlipsTurn(t *testing.T) {
	s := emptyState()
	s.Turn = true
	n := s.neighbors(s.AngelPos)[0]
	update := s.ApplyDevilMove(n)
	require.True(t, s.Grid[n.Row][n.Col])
	require.False(t, s.Turn)
	require.Equal(t, n, update.Move)
}
