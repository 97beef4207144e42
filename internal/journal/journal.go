// Package journal keeps a hash-chained audit trail of accepted token
// transactions.
//
// The chain begins with a genesis entry whose Hash equals GenesisHash (64 hex
// zeros). Every later entry stores the hash of its predecessor, so an edit to
// any recorded transfer or mint is detectable via Verify.
//
// The journal mirrors the ledger; it is never read back to rebuild balances.
// Each entry carries the ledger Seq of its transaction inside the hashed
// fields. Entry order matches Seq order as long as appends are made by one
// writer that holds its ledger lock across the mutation and the append, as
// session.Controller does. CheckMirror tests that property.
//
//   - MemoryJournal: in-process, the default.
//   - PostgresJournal: an optional durable copy for auditors.
package journal

import (
	"context"
	"errors"

	"github.com/jmerrifield20/edutoken/internal/token"
)

var (
	// ErrEntryNotFound is returned by Get for an index outside the chain and
	// by Lookup for an unknown transaction ID.
	ErrEntryNotFound = errors.New("journal entry not found")

	// ErrNotMirrored is returned by CheckMirror.
	ErrNotMirrored = errors.New("journal does not mirror the ledger")
)

// Journal is the append-only audit log of token transactions.
type Journal interface {
	// Append chains a new entry for tx onto the tip.
	Append(ctx context.Context, tx token.Transaction) (*Entry, error)

	// Get returns the entry at the given zero-based index.
	Get(ctx context.Context, index int) (*Entry, error)

	// Lookup returns the entry recording the transaction with the given ID.
	Lookup(ctx context.Context, txID string) (*Entry, error)

	// Tail returns up to n of the newest non-genesis entries, oldest first.
	Tail(ctx context.Context, n int) ([]*Entry, error)

	// Len returns the number of entries, genesis included.
	Len(ctx context.Context) (int, error)

	// Verify walks the chain and checks hash consistency.
	Verify(ctx context.Context) error

	// Root returns the hash of the most recent entry.
	Root(ctx context.Context) (string, error)
}
