package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// creditLedger holds the fungible credit balances: a one-time grant per
// account plus standard transfer/allowance semantics. Not safe for concurrent
// use; the Engine serializes all access.
type creditLedger struct {
	balances   map[common.Address]uint64
	allowances map[common.Address]map[common.Address]uint64
	claimed    map[common.Address]bool
	supply     uint64
}

func newCreditLedger() *creditLedger {
	return &creditLedger{
		balances:   make(map[common.Address]uint64),
		allowances: make(map[common.Address]map[common.Address]uint64),
		claimed:    make(map[common.Address]bool),
	}
}

// grant mints the fixed grant amount to account, at most once per account.
func (c *creditLedger) grant(account common.Address, amount uint64) error {
	if c.claimed[account] {
		return domain.ErrAlreadyClaimed
	}
	c.claimed[account] = true
	c.balances[account] += amount
	c.supply += amount
	return nil
}

// checkBalance verifies from can cover amount without mutating anything.
func (c *creditLedger) checkBalance(from common.Address, amount uint64) error {
	if c.balances[from] < amount {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// checkAllowance verifies spender may move amount on behalf of owner.
func (c *creditLedger) checkAllowance(owner, spender common.Address, amount uint64) error {
	if c.allowances[owner][spender] < amount {
		return domain.ErrInsufficientAllowance
	}
	return nil
}

// transfer debits from and credits to atomically.
func (c *creditLedger) transfer(from, to common.Address, amount uint64) error {
	if err := c.checkBalance(from, amount); err != nil {
		return err
	}
	c.balances[from] -= amount
	c.balances[to] += amount
	return nil
}

// approve sets (overwrites) the allowance owner grants to spender.
func (c *creditLedger) approve(owner, spender common.Address, amount uint64) {
	m := c.allowances[owner]
	if m == nil {
		m = make(map[common.Address]uint64)
		c.allowances[owner] = m
	}
	m[spender] = amount
}

// transferFrom moves amount from -> to on behalf of spender, consuming the
// allowance. The allowance is never auto-refilled.
func (c *creditLedger) transferFrom(spender, from, to common.Address, amount uint64) error {
	if err := c.checkAllowance(from, spender, amount); err != nil {
		return err
	}
	if err := c.checkBalance(from, amount); err != nil {
		return err
	}
	c.allowances[from][spender] -= amount
	c.balances[from] -= amount
	c.balances[to] += amount
	return nil
}

func (c *creditLedger) balanceOf(account common.Address) uint64 {
	return c.balances[account]
}

func (c *creditLedger) allowanceOf(owner, spender common.Address) uint64 {
	return c.allowances[owner][spender]
}
