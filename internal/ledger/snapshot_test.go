package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator, seller := addr(1), addr(2)

	_, err := e.Grant(seller)
	require.NoError(t, err)
	_, err = e.CreditApprove(seller, addr(7), 40)
	require.NoError(t, err)
	_, err = e.CreateProject(creator, "t", []string{"a", "b"}, clk.t.Add(time.Hour), 1000)
	require.NoError(t, err)
	_, err = e.BuyTicket(seller, 1, 0, testTicketPrice)
	require.NoError(t, err)
	_, err = e.ListTicket(seller, 1, 250)
	require.NoError(t, err)
	_, err = e.SetApprovalForAll(seller, addr(8), true)
	require.NoError(t, err)

	seq, state, err := e.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, e.HeadSeq(), seq)

	restored := New(Config{
		TicketPrice: testTicketPrice,
		GrantAmount: testGrantAmount,
		PaymentMode: PaymentNative,
		Now:         clk.now,
	})
	require.NoError(t, restored.Restore(state))

	assert.Equal(t, seq, restored.HeadSeq())
	assert.Equal(t, uint64(testGrantAmount), restored.CreditBalance(seller))
	assert.Equal(t, uint64(40), restored.CreditAllowance(seller, addr(7)))
	assert.Equal(t, e.CreditTotalSupply(), restored.CreditTotalSupply())

	proj, err := restored.GetProject(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1100), proj.PoolBalance)
	assert.Equal(t, []uint64{1, 0}, proj.OptionTicketCounts)

	owner, err := restored.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, EscrowAccount, owner)

	ids, prices := restored.GetOrderBook(1, 0)
	assert.Equal(t, []uint64{1}, ids)
	assert.Equal(t, []uint64{250}, prices)
}

// The restored engine must behave identically, not just read identically:
// derived indexes and id counters continue where the snapshot left off.
func TestSnapshotRestoreContinuesOperation(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator, seller, buyer := addr(1), addr(2), addr(3)

	_, err := e.CreateProject(creator, "t", []string{"a", "b"}, clk.t.Add(time.Hour), 1000)
	require.NoError(t, err)
	_, err = e.BuyTicket(seller, 1, 0, testTicketPrice)
	require.NoError(t, err)
	_, err = e.ListTicket(seller, 1, 250)
	require.NoError(t, err)

	seq, state, err := e.Snapshot()
	require.NoError(t, err)

	restored := New(Config{
		TicketPrice: testTicketPrice,
		GrantAmount: testGrantAmount,
		PaymentMode: PaymentNative,
		Now:         clk.now,
	})
	require.NoError(t, restored.Restore(state))

	// the active-order index survived: double listing still rejected
	_, err = restored.ListTicket(seller, 1, 300)
	assert.ErrorIs(t, err, domain.ErrAlreadyListed)

	ev, err := restored.BuyFromOrderBook(buyer, 1, 250)
	require.NoError(t, err)
	assert.Equal(t, seq+1, ev.Seq)
	assert.Equal(t, uint64(250), restored.NativeBalance(seller))

	// fresh ids continue from the snapshot counters
	ev, err = restored.BuyTicket(buyer, 1, 1, testTicketPrice)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ev.Payload.(domain.TicketPurchasedPayload).TicketID)

	orders := restored.UserOrders(seller)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderFilled, orders[0].Status)
}

func TestRestoreRejectsCorruptState(t *testing.T) {
	e, _ := newTestEngine(PaymentNative)
	err := e.Restore([]byte("{not json"))
	require.Error(t, err)
}
