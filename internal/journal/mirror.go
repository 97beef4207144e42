package journal

import (
	"context"
	"fmt"

	"github.com/jmerrifield20/edutoken/internal/token"
)

// CheckMirror reports whether the newest len(history) entries of j record
// history, in order. Older entries are ignored: a durable journal keeps the
// chain of earlier processes while the in-memory ledger starts empty.
func CheckMirror(ctx context.Context, j Journal, history []token.Transaction) error {
	n, err := j.Len(ctx)
	if err != nil {
		return err
	}
	if recorded := n - 1; recorded < len(history) {
		return fmt.Errorf("%w: %d transactions but %d entries", ErrNotMirrored, len(history), recorded)
	}

	tail, err := j.Tail(ctx, len(history))
	if err != nil {
		return err
	}
	if len(tail) != len(history) {
		return fmt.Errorf("%w: tail holds %d of %d transactions", ErrNotMirrored, len(tail), len(history))
	}
	for i, tx := range history {
		if err := matches(tail[i], tx); err != nil {
			return fmt.Errorf("%w: entry %d: %v", ErrNotMirrored, tail[i].Index, err)
		}
	}
	return nil
}

func matches(e *Entry, tx token.Transaction) error {
	switch {
	case e.TxID != tx.ID.String():
		return fmt.Errorf("tx id %s, ledger has %s", e.TxID, tx.ID)
	case e.Seq != tx.Seq:
		return fmt.Errorf("seq %d, ledger has %d", e.Seq, tx.Seq)
	case e.TxType != tx.Type || e.From != tx.From || e.To != tx.To || e.Amount != tx.Amount:
		return fmt.Errorf("records %s %s->%s %d, ledger has %s %s->%s %d",
			e.TxType, e.From, e.To, e.Amount, tx.Type, tx.From, tx.To, tx.Amount)
	}
	return nil
}
