package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// balanceBook records native value owed to accounts: seller proceeds,
// claimed winnings, and settlement remainders. In native payment mode the
// host attaches payment value to each call, so incoming funds are fresh
// value; outgoing value leaves only through withdraw.
type balanceBook struct {
	balances map[common.Address]uint64
}

func newBalanceBook() *balanceBook {
	return &balanceBook{balances: make(map[common.Address]uint64)}
}

func (b *balanceBook) credit(account common.Address, amount uint64) {
	b.balances[account] += amount
}

func (b *balanceBook) debit(account common.Address, amount uint64) error {
	if b.balances[account] < amount {
		return domain.ErrInsufficientBalance
	}
	b.balances[account] -= amount
	return nil
}

func (b *balanceBook) balanceOf(account common.Address) uint64 {
	return b.balances[account]
}
