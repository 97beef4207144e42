package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckInvariants_detectsCorruption(t *testing.T) {
	tok := MustNew("EduCoin", "EDU", 100, "admin")
	assert.NoError(t, tok.CheckInvariants())

	tok.balances["ghost"] = 5
	assert.ErrorContains(t, tok.CheckInvariants(), "total supply is 100")

	delete(tok.balances, "ghost")
	tok.balances["admin"] = 105
	tok.balances["debtor"] = -5
	assert.ErrorContains(t, tok.CheckInvariants(), "negative balance")
}
