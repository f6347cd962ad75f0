package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// isUniqueViolation and the ErrNotFound sentinel are the only logic in this
// package tested here, since the rest needs a live database connection. No
// test in this repository runs against a real pgxpool.Pool: the directory
// and lobby tests use in-memory fakes of the store, so Add's reconnect
// fallthrough and migrate are not exercised by any test.

type fakeSQLStateErr struct{ state string }

func (e fakeSQLStateErr) Error() string   { return "pg error" }
func (e fakeSQLStateErr) SQLState() string { return e.state }

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, isUniqueViolation(fakeSQLStateErr{state: "23505"}))
	require.False(t, isUniqueViolation(fakeSQLStateErr{state: "23503"}))
	require.False(t, isUniqueViolation(errors.New("boom")))
}

func TestErrNotFoundIsDistinct(t *testing.T) {
	require.ErrorIs(t, ErrNotFound, ErrNotFound)
	require.False(t, errors.Is(ErrNotFound, errors.New("not found")))
}
