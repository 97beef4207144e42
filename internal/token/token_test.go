package token_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/jmerrifield20/edutoken/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEduCoin(t *testing.T) *token.FungibleToken {
	t.Helper()
	tok, err := token.New("EduCoin", "EDU", 1_000_000, "admin")
	require.NoError(t, err)
	return tok
}

func sumBalances(tok *token.FungibleToken) int64 {
	var sum int64
	for _, b := range tok.AllBalances() {
		sum += b
	}
	return sum
}

func TestNew(t *testing.T) {
	t.Run("credits creator", func(t *testing.T) {
		tok := newEduCoin(t)
		assert.Equal(t, int64(1_000_000), tok.Balance("admin"))
		assert.Equal(t, int64(1_000_000), tok.TotalSupply())
		assert.Empty(t, tok.TransactionHistory())
		assert.Equal(t, token.TokenInfo{
			Name:         "EduCoin",
			Symbol:       "EDU",
			TotalSupply:  1_000_000,
			CreatorID:    "admin",
			TotalHolders: 1,
		}, tok.Info())
	})

	t.Run("zero supply accepted", func(t *testing.T) {
		tok, err := token.New("Zero", "ZRO", 0, "admin")
		require.NoError(t, err)
		assert.Equal(t, int64(0), tok.TotalSupply())
		assert.Equal(t, 1, tok.Info().TotalHolders)
	})

	t.Run("negative supply rejected", func(t *testing.T) {
		_, err := token.New("Bad", "BAD", -1, "admin")
		require.ErrorIs(t, err, token.ErrNegativeSupply)
	})
}

func TestBalance_unknownIdentityIsZero(t *testing.T) {
	tok := newEduCoin(t)
	assert.Equal(t, int64(0), tok.Balance("nobody"))
	_, known := tok.AllBalances()["nobody"]
	assert.False(t, known, "reading a balance must not create the key")
}

func TestTransfer(t *testing.T) {
	tok := newEduCoin(t)

	res := tok.Transfer("admin", "user1", 50_000)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Successfully transferred 50000 EDU to user1", res.Message)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, token.TxTransfer, res.Transaction.Type)
	assert.Equal(t, "admin", res.Transaction.From)
	assert.Equal(t, "user1", res.Transaction.To)
	assert.Equal(t, int64(50_000), res.Transaction.Amount)
	assert.False(t, res.Transaction.Timestamp.IsZero())

	assert.Equal(t, int64(950_000), tok.Balance("admin"))
	assert.Equal(t, int64(50_000), tok.Balance("user1"))
	assert.Equal(t, int64(1_000_000), tok.TotalSupply())
	assert.Len(t, tok.TransactionHistory(), 1)
}

func TestTransfer_rejections(t *testing.T) {
	cases := []struct {
		name   string
		from   string
		to     string
		amount int64
		want   string
	}{
		{"zero amount", "admin", "user1", 0, token.MsgAmountNotPositive},
		{"negative amount", "admin", "user1", -5, token.MsgAmountNotPositive},
		{"self transfer", "admin", "admin", 10, token.MsgSelfTransfer},
		{"amount checked before self", "admin", "admin", 0, token.MsgAmountNotPositive},
		{"insufficient", "user1", "user2", 1, token.MsgInsufficient},
		{"over balance", "admin", "user1", 1_000_001, token.MsgInsufficient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok := newEduCoin(t)
			before := tok.AllBalances()

			res := tok.Transfer(tc.from, tc.to, tc.amount)
			assert.False(t, res.Success)
			assert.Equal(t, tc.want, res.Message)
			assert.Nil(t, res.Transaction)

			assert.Equal(t, before, tok.AllBalances())
			assert.Equal(t, int64(1_000_000), tok.TotalSupply())
			assert.Empty(t, tok.TransactionHistory())
		})
	}
}

func TestMint(t *testing.T) {
	tok := newEduCoin(t)

	res := tok.Mint("admin", "user9", 500)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Successfully minted 500 EDU to user9", res.Message)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, token.TxMint, res.Transaction.Type)
	assert.Equal(t, token.SystemSender, res.Transaction.From)
	assert.Equal(t, int64(1_000_500), tok.TotalSupply())
	assert.Equal(t, int64(500), tok.Balance("user9"))
	assert.Equal(t, 2, tok.Info().TotalHolders)
}

func TestMint_rejections(t *testing.T) {
	cases := []struct {
		name      string
		requester string
		amount    int64
		want      string
	}{
		{"not creator", "user1", 100, token.MsgNotCreator},
		{"authorization checked first", "user1", -1, token.MsgNotCreator},
		{"zero amount", "admin", 0, token.MsgAmountNotPositive},
		{"negative amount", "admin", -100, token.MsgAmountNotPositive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok := newEduCoin(t)
			res := tok.Mint(tc.requester, "user1", tc.amount)
			assert.False(t, res.Success)
			assert.Equal(t, tc.want, res.Message)
			assert.Equal(t, int64(1_000_000), tok.TotalSupply())
			assert.Equal(t, int64(0), tok.Balance("user1"))
			assert.Empty(t, tok.TransactionHistory())
		})
	}
}

func TestEduCoinScenario(t *testing.T) {
	tok := newEduCoin(t)

	require.True(t, tok.Transfer("admin", "user1", 50_000).Success)
	assert.Equal(t, int64(950_000), tok.Balance("admin"))
	assert.Equal(t, int64(50_000), tok.Balance("user1"))

	require.True(t, tok.Transfer("admin", "user2", 25_000).Success)
	assert.Equal(t, int64(925_000), tok.Balance("admin"))

	res := tok.Transfer("user1", "user2", 999_999)
	assert.False(t, res.Success)
	assert.Equal(t, token.MsgInsufficient, res.Message)
	assert.Equal(t, int64(50_000), tok.Balance("user1"))
	assert.Equal(t, int64(25_000), tok.Balance("user2"))

	res = tok.Mint("user1", "user1", 100)
	assert.False(t, res.Success)
	assert.Equal(t, token.MsgNotCreator, res.Message)

	require.True(t, tok.Mint("admin", "user2", 500).Success)
	assert.Equal(t, int64(1_000_500), tok.TotalSupply())
	assert.Equal(t, int64(25_500), tok.Balance("user2"))

	history := tok.TransactionHistory()
	require.Len(t, history, 3)
	assert.Equal(t, []token.TxType{token.TxTransfer, token.TxTransfer, token.TxMint},
		[]token.TxType{history[0].Type, history[1].Type, history[2].Type})
}

func TestZeroBalanceHolderIsKept(t *testing.T) {
	tok := newEduCoin(t)
	require.True(t, tok.Transfer("admin", "user1", 10).Success)
	require.True(t, tok.Transfer("user1", "user2", 10).Success)

	bal, ok := tok.AllBalances()["user1"]
	assert.True(t, ok)
	assert.Equal(t, int64(0), bal)
	assert.Equal(t, 3, tok.Info().TotalHolders)
}

func TestRandomOperations_preserveInvariants(t *testing.T) {
	tok := newEduCoin(t)
	rng := rand.New(rand.NewSource(42))
	ids := []string{"admin", "user1", "user2", "user3", "user4"}

	accepted := 0
	for i := 0; i < 2000; i++ {
		from := ids[rng.Intn(len(ids))]
		to := ids[rng.Intn(len(ids))]
		amount := rng.Int63n(200_000) - 1_000

		supplyBefore := tok.TotalSupply()
		pairBefore := tok.Balance(from) + tok.Balance(to)
		toBefore := tok.Balance(to)
		historyBefore := len(tok.TransactionHistory())

		var res token.Result
		if rng.Intn(5) == 0 {
			res = tok.Mint(from, to, amount)
			if res.Success {
				assert.Equal(t, supplyBefore+amount, tok.TotalSupply())
				assert.Equal(t, toBefore+amount, tok.Balance(to))
			}
		} else {
			res = tok.Transfer(from, to, amount)
			assert.Equal(t, pairBefore, tok.Balance(from)+tok.Balance(to))
			assert.Equal(t, supplyBefore, tok.TotalSupply())
		}

		if res.Success {
			accepted++
			assert.Len(t, tok.TransactionHistory(), historyBefore+1)
		} else {
			assert.Len(t, tok.TransactionHistory(), historyBefore)
		}

		require.Equal(t, tok.TotalSupply(), sumBalances(tok), "iteration %d", i)
		require.NoError(t, tok.CheckInvariants())
		for id, b := range tok.AllBalances() {
			require.GreaterOrEqual(t, b, int64(0), "negative balance for %s", id)
		}
	}
	assert.Len(t, tok.TransactionHistory(), accepted)
}

func TestConcurrentTransfers(t *testing.T) {
	tok := newEduCoin(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user%d", i%5)
			tok.Transfer("admin", user, 100)
			tok.Transfer(user, "admin", 50)
			_ = tok.Holders()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, tok.TotalSupply(), sumBalances(tok))
	assert.Len(t, tok.TransactionHistory(), 100)

	for i, tx := range tok.TransactionHistory() {
		assert.Equal(t, i, tx.Seq)
	}
}
