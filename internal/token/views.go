package token

import "sort"

// Recent returns up to n of the latest transactions, newest first. Ordering
// follows the recorded sequence, never the timestamps. n <= 0 returns nil.
func (t *FungibleToken) Recent(n int) []Transaction {
	if n <= 0 {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n > len(t.history) {
		n = len(t.history)
	}
	out := make([]Transaction, 0, n)
	for i := len(t.history) - 1; i >= len(t.history)-n; i-- {
		out = append(out, t.history[i])
	}
	return out
}

// Holders returns one explorer row per known identity, sorted by balance
// descending and then by identity so the order is stable.
func (t *FungibleToken) Holders() []Holder {
	t.mu.RLock()
	supply := t.totalSupply
	rows := make([]Holder, 0, len(t.balances))
	for id, bal := range t.balances {
		rows = append(rows, Holder{UserID: id, Balance: bal})
	}
	t.mu.RUnlock()

	for i := range rows {
		if supply > 0 {
			rows[i].Share = float64(rows[i].Balance) / float64(supply) * 100
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Balance != rows[j].Balance {
			return rows[i].Balance > rows[j].Balance
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows
}
