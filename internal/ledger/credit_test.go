package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/domain"
)

func TestGrantOncePerAccount(t *testing.T) {
	e, _ := newTestEngine(PaymentNative)
	a := addr(1)

	ev, err := e.Grant(a)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCreditGranted, ev.Kind)
	assert.Equal(t, uint64(testGrantAmount), e.CreditBalance(a))
	assert.Equal(t, uint64(testGrantAmount), e.CreditTotalSupply())

	_, err = e.Grant(a)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	assert.Equal(t, uint64(testGrantAmount), e.CreditBalance(a))
}

func TestCreditTransfer(t *testing.T) {
	e, _ := newTestEngine(PaymentNative)
	a, b := addr(1), addr(2)
	_, err := e.Grant(a)
	require.NoError(t, err)

	_, err = e.CreditTransfer(a, b, testGrantAmount+1)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = e.CreditTransfer(a, b, 400)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), e.CreditBalance(a))
	assert.Equal(t, uint64(400), e.CreditBalance(b))
	assert.Equal(t, uint64(testGrantAmount), e.CreditTotalSupply())
}

func TestCreditTransferFromConsumesAllowance(t *testing.T) {
	e, _ := newTestEngine(PaymentNative)
	owner, spender, dest := addr(1), addr(2), addr(3)
	_, err := e.Grant(owner)
	require.NoError(t, err)

	_, err = e.CreditTransferFrom(spender, owner, dest, 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientAllowance)

	_, err = e.CreditApprove(owner, spender, 300)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), e.CreditAllowance(owner, spender))

	ev, err := e.CreditTransferFrom(spender, owner, dest, 200)
	require.NoError(t, err)
	payload := ev.Payload.(domain.CreditTransferredPayload)
	require.NotNil(t, payload.Spender)
	assert.Equal(t, spender, *payload.Spender)

	assert.Equal(t, uint64(100), e.CreditAllowance(owner, spender))
	assert.Equal(t, uint64(200), e.CreditBalance(dest))

	_, err = e.CreditTransferFrom(spender, owner, dest, 200)
	assert.ErrorIs(t, err, domain.ErrInsufficientAllowance)
}

func TestCreditApproveOverwrites(t *testing.T) {
	e, _ := newTestEngine(PaymentNative)
	owner, spender := addr(1), addr(2)

	_, err := e.CreditApprove(owner, spender, 300)
	require.NoError(t, err)
	_, err = e.CreditApprove(owner, spender, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), e.CreditAllowance(owner, spender))
}

func TestTransferFromChecksBalanceAfterAllowance(t *testing.T) {
	e, _ := newTestEngine(PaymentNative)
	owner, spender, dest := addr(1), addr(2), addr(3)

	// allowance exceeds the owner's (empty) balance
	_, err := e.CreditApprove(owner, spender, 500)
	require.NoError(t, err)
	_, err = e.CreditTransferFrom(spender, owner, dest, 500)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// nothing was consumed by the failed attempt
	assert.Equal(t, uint64(500), e.CreditAllowance(owner, spender))
}
