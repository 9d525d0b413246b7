// Package store persists IRVersion chains.
//
// A chain is append-only: version 1 has no parent and every later version
// points at its predecessor. Stores enforce the at-most-one-writer contract
// with an optimistic check on Put: a version whose number is not exactly
// head+1 is rejected with STORE_CONFLICT and nothing is written. Four
// backends are provided: in-memory, file, redis and mongo.
package store

import (
	"context"

	"github.com/archivis/archivis/pkg/ir"
)

// Store persists and retrieves diagram version chains.
type Store interface {
	// Put appends a version to its diagram's chain. The version number
	// must be exactly one past the current head (or 1 for a new chain);
	// anything else fails with STORE_CONFLICT and writes nothing.
	Put(ctx context.Context, v ir.Version) error

	// Get retrieves one version. Fails with NOT_FOUND if absent.
	Get(ctx context.Context, diagramID string, version int) (ir.Version, error)

	// Head retrieves the latest version of a diagram.
	Head(ctx context.Context, diagramID string) (ir.Version, error)

	// History returns the full chain in ascending version order.
	History(ctx context.Context, diagramID string) ([]ir.Version, error)

	// Delete removes a diagram and its whole chain. Deleting an absent
	// diagram is not an error.
	Delete(ctx context.Context, diagramID string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
