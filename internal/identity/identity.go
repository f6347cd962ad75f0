// Package identity implements the identity store (§4.3): the record of every
// known (name, endpoint) pair a client has connected with, and whether that
// pair is currently connected.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Identity is one (name, endpoint) pair tracked by the store.
type Identity struct {
	ID        uint32
	Name      string
	Endpoint  string
	Connected bool
}

// ErrNotFound is returned by GetByID/GetByKey when no matching row exists.
var ErrNotFound = errors.New("identity: not found")

// Store wraps a pooled connection to the identity database. The schema is a
// single table keyed by the unique pair (name, endpoint), matching the
// original single-file db.db design (§C, Supplemented Feature 2) expressed
// here against a DSN-configured pgxpool.Pool rather than SQLite, per the
// pooled-relational-access idiom this codebase otherwise uses for state
// (see Open Question O1 in DESIGN.md for the reasoning).
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and ensures the identities table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("identity: connect: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS identities (
	id         SERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	endpoint   TEXT NOT NULL,
	connected  BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (name, endpoint)
)`)
	if err != nil {
		return fmt.Errorf("identity: migrate: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// GetByID looks up an identity by its primary key.
func (s *Store) GetByID(ctx context.Context, id uint32) (Identity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, endpoint, connected FROM identities WHERE id = $1`, id)
	return scanIdentity(row)
}

// GetByKey looks up an identity by its unique (name, endpoint) pair.
func (s *Store) GetByKey(ctx context.Context, name, endpoint string) (Identity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, endpoint, connected FROM identities WHERE name = $1 AND endpoint = $2`,
		name, endpoint)
	return scanIdentity(row)
}

func scanIdentity(row pgx.Row) (Identity, error) {
	var ident Identity
	if err := row.Scan(&ident.ID, &ident.Name, &ident.Endpoint, &ident.Connected); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, fmt.Errorf("identity: scan: %w", err)
	}
	return ident, nil
}

// Add registers (name, endpoint) as connected. Per §4.3's reconnect policy,
// a duplicate key is not an error: a client reconnecting with a name and
// endpoint it used before should resume its old identity rather than fail.
// In that case Add fetches the existing row and marks it connected.
func (s *Store) Add(ctx context.Context, name, endpoint string) (Identity, error) {
	var id uint32
	err := s.pool.QueryRow(ctx,
		`INSERT INTO identities (name, endpoint, connected) VALUES ($1, $2, TRUE)
		 RETURNING id`, name, endpoint).Scan(&id)
	if err == nil {
		return Identity{ID: id, Name: name, Endpoint: endpoint, Connected: true}, nil
	}

	if !isUniqueViolation(err) {
		return Identity{}, fmt.Errorf("identity: add: %w", err)
	}

	existing, getErr := s.GetByKey(ctx, name, endpoint)
	if getErr != nil {
		return Identity{}, fmt.Errorf("identity: add: reconnect lookup: %w", getErr)
	}
	if err := s.setConnected(ctx, existing.ID, true); err != nil {
		return Identity{}, err
	}
	existing.Connected = true
	return existing, nil
}

// Rename updates the display name attached to id.
func (s *Store) Rename(ctx context.Context, id uint32, newName string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE identities SET name = $1 WHERE id = $2`, newName, id)
	if err != nil {
		return fmt.Errorf("identity: rename: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes an identity outright. No handler calls it: Disconnect
// uses ToggleConnected instead, since §4.3 specifies identities persist
// across reconnects.
func (s *Store) Remove(ctx context.Context, id uint32) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("identity: remove: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleConnected flips the connected flag for id to the given value.
func (s *Store) ToggleConnected(ctx context.Context, id uint32, connected bool) error {
	return s.setConnected(ctx, id, connected)
}

func (s *Store) setConnected(ctx context.Context, id uint32, connected bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE identities SET connected = $1 WHERE id = $2`, connected, id)
	if err != nil {
		return fmt.Errorf("identity: set connected: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IsConnected reports whether id is currently marked connected.
func (s *Store) IsConnected(ctx context.Context, id uint32) (bool, error) {
	ident, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return ident.Connected, nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
