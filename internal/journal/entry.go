package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jmerrifield20/edutoken/internal/token"
)

// GenesisHash is the fixed hash of entry 0. The chain is anchored on this
// constant rather than on a computed value.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// actionGenesis is the TxType stored on entry 0.
const actionGenesis token.TxType = "genesis"

// stampPrecision is the finest timestamp resolution that survives a
// round trip through Postgres timestamptz. Entries are truncated to it
// before hashing.
const stampPrecision = time.Microsecond

// Entry is one link of the journal chain.
type Entry struct {
	Index     int          `json:"index"`
	Seq       int          `json:"seq"` // ledger sequence; -1 on genesis
	Timestamp time.Time    `json:"timestamp"`
	TxID      string       `json:"tx_id,omitempty"`
	TxType    token.TxType `json:"tx_type"`
	From      string       `json:"from,omitempty"`
	To        string       `json:"to,omitempty"`
	Amount    int64        `json:"amount"`
	PrevHash  string       `json:"prev_hash"`
	Hash      string       `json:"hash"`
}

func genesisEntry() *Entry {
	return &Entry{
		Index:     0,
		Seq:       -1,
		Timestamp: time.Now().UTC().Truncate(stampPrecision),
		TxType:    actionGenesis,
		PrevHash:  GenesisHash,
		Hash:      GenesisHash,
	}
}

// newEntry builds the entry for tx at index, chained to prevHash.
func newEntry(index int, prevHash string, tx token.Transaction) *Entry {
	e := &Entry{
		Index:     index,
		Seq:       tx.Seq,
		Timestamp: tx.Timestamp.UTC().Truncate(stampPrecision),
		TxID:      tx.ID.String(),
		TxType:    tx.Type,
		From:      tx.From,
		To:        tx.To,
		Amount:    tx.Amount,
		PrevHash:  prevHash,
	}
	e.Hash = hashEntry(e)
	return e
}

// hashEntry must never be called on the genesis entry.
func hashEntry(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%s|%s|%s|%s|%s|%d|%s",
		e.Index, e.Seq, e.Timestamp.Format(time.RFC3339Nano),
		e.TxID, e.TxType, e.From, e.To, e.Amount, e.PrevHash,
	)
	return hex.EncodeToString(h.Sum(nil))
}

// verifyLink checks curr against its predecessor. prev is nil for index 0.
func verifyLink(prev, curr *Entry) error {
	if prev == nil {
		if curr.Hash != GenesisHash {
			return fmt.Errorf("genesis entry has wrong hash: got %q", curr.Hash)
		}
		return nil
	}
	if curr.PrevHash != prev.Hash {
		return fmt.Errorf("hash chain broken at index %d", curr.Index)
	}
	if curr.Hash != hashEntry(curr) {
		return fmt.Errorf("entry %d has invalid hash", curr.Index)
	}
	return nil
}
