package journal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmerrifield20/edutoken/internal/journal"
	"github.com/jmerrifield20/edutoken/internal/token"
)

var ctx = context.Background()

func transferTx(from, to string, amount int64) token.Transaction {
	return token.Transaction{
		ID:        uuid.New(),
		Type:      token.TxTransfer,
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
}

func TestNewMemory_genesisEntry(t *testing.T) {
	j := journal.NewMemory()

	n, err := j.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 genesis entry, got %d", n)
	}

	entry, err := j.Get(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if entry.TxType != "genesis" {
		t.Errorf("expected tx_type 'genesis', got %q", entry.TxType)
	}
	if entry.Hash != journal.GenesisHash {
		t.Errorf("genesis hash: got %q, want GenesisHash", entry.Hash)
	}
}

func TestAppend_chainsCorrectly(t *testing.T) {
	j := journal.NewMemory()

	e1, err := j.Append(ctx, transferTx("admin", "user1", 50000))
	if err != nil {
		t.Fatal(err)
	}
	e2, err := j.Append(ctx, token.Transaction{
		ID: uuid.New(), Type: token.TxMint, From: token.SystemSender, To: "user2", Amount: 500, Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if e1.PrevHash != journal.GenesisHash {
		t.Errorf("first entry should chain from genesis, got %q", e1.PrevHash)
	}
	if e2.PrevHash != e1.Hash {
		t.Errorf("chain broken: e2.PrevHash=%q, want e1.Hash=%q", e2.PrevHash, e1.Hash)
	}
	if e2.TxType != token.TxMint || e2.From != token.SystemSender || e2.Amount != 500 {
		t.Errorf("unexpected mint entry: %+v", e2)
	}

	n, _ := j.Len(ctx)
	if n != 3 {
		t.Errorf("expected 3 entries, got %d", n)
	}
}

func TestVerify_valid(t *testing.T) {
	j := journal.NewMemory()
	_, _ = j.Append(ctx, transferTx("admin", "user1", 1))
	_, _ = j.Append(ctx, transferTx("user1", "user2", 1))

	if err := j.Verify(ctx); err != nil {
		t.Errorf("Verify() failed on valid chain: %v", err)
	}
}

func TestVerify_genesisOnlyChain(t *testing.T) {
	if err := journal.NewMemory().Verify(ctx); err != nil {
		t.Errorf("Verify() on genesis-only chain should pass: %v", err)
	}
}

func TestRoot_returnsLastHash(t *testing.T) {
	j := journal.NewMemory()

	root, _ := j.Root(ctx)
	if root != journal.GenesisHash {
		t.Errorf("Root() on genesis-only: got %q, want GenesisHash", root)
	}

	e, _ := j.Append(ctx, transferTx("admin", "user1", 10))
	root, err := j.Root(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if root != e.Hash {
		t.Errorf("Root(): got %q, want %q", root, e.Hash)
	}
}

func TestGet_outOfRange(t *testing.T) {
	j := journal.NewMemory()
	for _, idx := range []int{-1, 1, 99} {
		if _, err := j.Get(ctx, idx); !errors.Is(err, journal.ErrEntryNotFound) {
			t.Errorf("Get(%d): expected ErrEntryNotFound, got %v", idx, err)
		}
	}
}

func TestGet_returnsCopy(t *testing.T) {
	j := journal.NewMemory()
	_, _ = j.Append(ctx, transferTx("admin", "user1", 10))

	e, _ := j.Get(ctx, 1)
	e.Amount = 999999

	if err := j.Verify(ctx); err != nil {
		t.Errorf("mutating a returned entry must not affect the chain: %v", err)
	}
}

func TestLookup(t *testing.T) {
	j := journal.NewMemory()
	tx := transferTx("admin", "user1", 10)
	_, _ = j.Append(ctx, transferTx("admin", "user2", 5))
	_, _ = j.Append(ctx, tx)

	e, err := j.Lookup(ctx, tx.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if e.Index != 2 || e.Amount != 10 {
		t.Errorf("unexpected entry: %+v", e)
	}

	for _, id := range []string{uuid.NewString(), ""} {
		if _, err := j.Lookup(ctx, id); !errors.Is(err, journal.ErrEntryNotFound) {
			t.Errorf("Lookup(%q): expected ErrEntryNotFound, got %v", id, err)
		}
	}
}

func TestTail(t *testing.T) {
	j := journal.NewMemory()
	if tail, _ := j.Tail(ctx, 5); len(tail) != 0 {
		t.Errorf("genesis-only tail should be empty, got %d", len(tail))
	}

	for i := int64(1); i <= 4; i++ {
		_, _ = j.Append(ctx, transferTx("admin", "user1", i))
	}

	tail, err := j.Tail(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 || tail[0].Amount != 3 || tail[1].Amount != 4 {
		t.Errorf("expected entries 3,4 oldest first, got %+v", tail)
	}
	if tail, _ := j.Tail(ctx, 99); len(tail) != 4 || tail[0].Index != 1 {
		t.Errorf("oversized tail should stop before genesis, got %d entries", len(tail))
	}
	if tail, _ := j.Tail(ctx, 0); tail != nil {
		t.Errorf("Tail(0) should be nil")
	}
}

func TestCheckMirror(t *testing.T) {
	ledger := token.MustNew("EduCoin", "EDU", 1000, "admin")
	j := journal.NewMemory()

	// entries left by an earlier process are ignored
	_, _ = j.Append(ctx, transferTx("admin", "old", 1))

	for _, to := range []string{"user1", "user2"} {
		res := ledger.Transfer("admin", to, 100)
		if _, err := j.Append(ctx, *res.Transaction); err != nil {
			t.Fatal(err)
		}
	}
	if err := journal.CheckMirror(ctx, j, ledger.TransactionHistory()); err != nil {
		t.Fatalf("CheckMirror: %v", err)
	}

	// ledger ahead of the journal
	ledger.Transfer("admin", "user3", 1)
	if err := journal.CheckMirror(ctx, j, ledger.TransactionHistory()); !errors.Is(err, journal.ErrNotMirrored) {
		t.Errorf("expected ErrNotMirrored, got %v", err)
	}

	// journal holds a different transaction in that slot
	_, _ = j.Append(ctx, transferTx("admin", "user3", 1))
	if err := journal.CheckMirror(ctx, j, ledger.TransactionHistory()); !errors.Is(err, journal.ErrNotMirrored) {
		t.Errorf("expected ErrNotMirrored for a mismatched entry, got %v", err)
	}
}
