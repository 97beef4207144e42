package token_test

import (
	"testing"

	"github.com/jmerrifield20/edutoken/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecent(t *testing.T) {
	tok := newEduCoin(t)
	assert.Empty(t, tok.Recent(10))

	for i := int64(1); i <= 12; i++ {
		require.True(t, tok.Transfer("admin", "user1", i).Success)
	}

	recent := tok.Recent(10)
	require.Len(t, recent, 10)
	assert.Equal(t, int64(12), recent[0].Amount, "newest first")
	assert.Equal(t, int64(3), recent[9].Amount)

	assert.Len(t, tok.Recent(100), 12)
	assert.Nil(t, tok.Recent(0))
}

func TestHolders_sortedWithShare(t *testing.T) {
	tok := newEduCoin(t)
	require.True(t, tok.Transfer("admin", "user1", 50_000).Success)
	require.True(t, tok.Transfer("admin", "user2", 25_000).Success)
	require.True(t, tok.Transfer("admin", "user3", 25_000).Success)

	rows := tok.Holders()
	require.Len(t, rows, 4)

	assert.Equal(t, "admin", rows[0].UserID)
	assert.InDelta(t, 90.0, rows[0].Share, 1e-9)
	assert.Equal(t, "user1", rows[1].UserID)
	assert.InDelta(t, 5.0, rows[1].Share, 1e-9)
	// equal balances fall back to identity order
	assert.Equal(t, "user2", rows[2].UserID)
	assert.Equal(t, "user3", rows[3].UserID)
}

func TestHolders_zeroSupply(t *testing.T) {
	tok := token.MustNew("Zero", "ZRO", 0, "admin")
	rows := tok.Holders()
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].Share)
}
