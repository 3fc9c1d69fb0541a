package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// journalScenario drives a lifecycle covering every event kind and returns
// the committed events in order.
func journalScenario(t *testing.T, e *Engine, clk *fakeClock) []domain.Event {
	t.Helper()
	creator, alice, bob, carol := addr(1), addr(2), addr(3), addr(4)
	var events []domain.Event
	commit := func(ev domain.Event, err error) {
		require.NoError(t, err)
		events = append(events, ev)
	}

	commit(e.Grant(alice))
	commit(e.CreditTransfer(alice, bob, 50))
	commit(e.CreditApprove(alice, carol, 200))
	commit(e.CreditTransferFrom(carol, alice, carol, 120))

	commit(e.CreateProject(creator, "cup final", []string{"home", "away"}, clk.t.Add(time.Hour), 600))
	commit(e.BuyTicket(alice, 1, 0, testTicketPrice))
	commit(e.BuyTicket(bob, 1, 1, testTicketPrice))

	commit(e.ApproveTicket(alice, 1, carol))
	commit(e.TransferTicket(carol, 1, carol))
	commit(e.SetApprovalForAll(bob, carol, true))

	commit(e.ListTicket(carol, 1, 250))
	commit(e.CancelOrder(carol, 1))
	commit(e.ListTicket(carol, 1, 300))
	commit(e.BuyFromOrderBook(bob, 2, 300))

	clk.advance(2 * time.Hour)
	commit(e.SettleProject(creator, 1, 0))
	commit(e.ClaimWinnings(bob, 1))
	commit(e.Withdraw(bob, 100))

	return events
}

func TestReplayRebuildsIdenticalState(t *testing.T) {
	src, clk := newTestEngine(PaymentNative)
	events := journalScenario(t, src, clk)

	dst, _ := newTestEngine(PaymentNative)
	require.NoError(t, dst.Replay(events))

	assert.Equal(t, src.HeadSeq(), dst.HeadSeq())

	srcSeq, srcState, err := src.Snapshot()
	require.NoError(t, err)
	dstSeq, dstState, err := dst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, srcSeq, dstSeq)
	assert.JSONEq(t, string(srcState), string(dstState))
}

func TestReplaySkipsEventsCoveredBySnapshot(t *testing.T) {
	src, clk := newTestEngine(PaymentNative)
	events := journalScenario(t, src, clk)

	// Snapshot mid-journal, restore, then replay the whole journal: events at
	// or below the snapshot head are skipped, the tail is applied.
	cut := 7
	mid, _ := newTestEngine(PaymentNative)
	require.NoError(t, mid.Replay(events[:cut]))
	_, state, err := mid.Snapshot()
	require.NoError(t, err)

	dst, _ := newTestEngine(PaymentNative)
	require.NoError(t, dst.Restore(state))
	require.NoError(t, dst.Replay(events))

	assert.Equal(t, src.HeadSeq(), dst.HeadSeq())
	_, srcState, err := src.Snapshot()
	require.NoError(t, err)
	_, dstState, err := dst.Snapshot()
	require.NoError(t, err)
	assert.JSONEq(t, string(srcState), string(dstState))
}

func TestReplayRejectsGaps(t *testing.T) {
	src, clk := newTestEngine(PaymentNative)
	events := journalScenario(t, src, clk)

	dst, _ := newTestEngine(PaymentNative)
	err := dst.Replay(events[2:])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replay gap")
}

func TestReplayCreditMode(t *testing.T) {
	src, clk := newTestEngine(PaymentCredit)
	creator, buyer := addr(1), addr(2)
	var events []domain.Event
	commit := func(ev domain.Event, err error) {
		require.NoError(t, err)
		events = append(events, ev)
	}

	commit(src.Grant(creator))
	commit(src.Grant(buyer))
	commit(src.CreditApprove(creator, PlatformAccount, 600))
	commit(src.CreditApprove(buyer, PlatformAccount, testTicketPrice))
	commit(src.CreateProject(creator, "t", []string{"a", "b"}, clk.t.Add(time.Hour), 600))
	commit(src.BuyTicket(buyer, 1, 0, testTicketPrice))
	clk.advance(2 * time.Hour)
	commit(src.SettleProject(creator, 1, 0))
	commit(src.ClaimWinnings(buyer, 1))

	dst, _ := newTestEngine(PaymentCredit)
	require.NoError(t, dst.Replay(events))

	assert.Equal(t, src.CreditBalance(buyer), dst.CreditBalance(buyer))
	assert.Equal(t, src.CreditBalance(creator), dst.CreditBalance(creator))
	assert.Equal(t, src.CreditTotalSupply(), dst.CreditTotalSupply())
}

func TestReplayRejectsGrantAmountMismatch(t *testing.T) {
	src, _ := newTestEngine(PaymentNative)
	alice := addr(2)
	ev, err := src.Grant(alice)
	require.NoError(t, err)

	// A journal recorded under one grant_amount must not rebuild different
	// balances on an engine configured with another.
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	dst := New(Config{
		TicketPrice: testTicketPrice,
		GrantAmount: testGrantAmount / 2,
		PaymentMode: PaymentNative,
		Now:         clk.now,
	})

	err = dst.Replay([]domain.Event{ev})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journaled grant")
	assert.Zero(t, dst.CreditBalance(alice))
	assert.Zero(t, dst.HeadSeq())
}
