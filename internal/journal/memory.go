package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmerrifield20/edutoken/internal/token"
)

// MemoryJournal is an in-memory, thread-safe Journal.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemory creates a MemoryJournal holding only the genesis entry.
func NewMemory() *MemoryJournal {
	return &MemoryJournal{entries: []*Entry{genesisEntry()}}
}

// Append implements Journal.
func (j *MemoryJournal) Append(_ context.Context, tx token.Transaction) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	prev := j.entries[len(j.entries)-1]
	entry := newEntry(len(j.entries), prev.Hash, tx)
	j.entries = append(j.entries, entry)
	return entry, nil
}

// Get implements Journal.
func (j *MemoryJournal) Get(_ context.Context, index int) (*Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if index < 0 || index >= len(j.entries) {
		return nil, fmt.Errorf("%w: index %d", ErrEntryNotFound, index)
	}
	cp := *j.entries[index]
	return &cp, nil
}

// Lookup implements Journal.
func (j *MemoryJournal) Lookup(_ context.Context, txID string) (*Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	for i := len(j.entries) - 1; i > 0; i-- {
		if j.entries[i].TxID == txID {
			cp := *j.entries[i]
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: tx %s", ErrEntryNotFound, txID)
}

// Tail implements Journal.
func (j *MemoryJournal) Tail(_ context.Context, n int) ([]*Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if n <= 0 {
		return nil, nil
	}
	if limit := len(j.entries) - 1; n > limit {
		n = limit
	}
	out := make([]*Entry, 0, n)
	for _, e := range j.entries[len(j.entries)-n:] {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// Len implements Journal.
func (j *MemoryJournal) Len(_ context.Context) (int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries), nil
}

// Verify implements Journal.
func (j *MemoryJournal) Verify(_ context.Context) error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var prev *Entry
	for _, curr := range j.entries {
		if err := verifyLink(prev, curr); err != nil {
			return err
		}
		prev = curr
	}
	return nil
}

// Root implements Journal.
func (j *MemoryJournal) Root(_ context.Context) (string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.entries[len(j.entries)-1].Hash, nil
}
