package ledger

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/domain"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func addr(b byte) common.Address {
	var a common.Address
	a[common.AddressLength-1] = b
	return a
}

const (
	testTicketPrice = 100
	testGrantAmount = 1000
)

func newTestEngine(mode PaymentMode) (*Engine, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	e := New(Config{
		TicketPrice: testTicketPrice,
		GrantAmount: testGrantAmount,
		PaymentMode: mode,
		Now:         clk.now,
	})
	return e, clk
}

func TestCreateProjectValidation(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator := addr(1)
	deadline := clk.t.Add(time.Hour)

	_, err := e.CreateProject(creator, "t", []string{"only"}, deadline, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidOptions)

	_, err = e.CreateProject(creator, "t", []string{"a", "b"}, clk.t, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidDeadline)

	_, err = e.CreateProject(creator, "t", []string{"a", "b"}, deadline, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidEscrow)

	ev, err := e.CreateProject(creator, "t", []string{"a", "b"}, deadline, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.EventProjectCreated, ev.Kind)
	assert.Equal(t, uint64(1), ev.Seq)

	proj, err := e.GetProject(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), proj.PoolBalance)
	assert.Equal(t, domain.ProjectOpen, proj.State)
	assert.Equal(t, -1, proj.WinningOption)
}

func TestBuyTicketGrowsPool(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator, buyer := addr(1), addr(2)
	deadline := clk.t.Add(time.Hour)

	_, err := e.CreateProject(creator, "t", []string{"a", "b"}, deadline, 10*testTicketPrice)
	require.NoError(t, err)

	ev, err := e.BuyTicket(buyer, 1, 0, testTicketPrice)
	require.NoError(t, err)
	payload := ev.Payload.(domain.TicketPurchasedPayload)
	assert.Equal(t, uint64(1), payload.TicketID)

	proj, err := e.GetProject(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(11*testTicketPrice), proj.PoolBalance)
	assert.Equal(t, []uint64{1, 0}, proj.OptionTicketCounts)

	owner, err := e.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, buyer, owner)
}

func TestBuyTicketValidation(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator, buyer := addr(1), addr(2)
	deadline := clk.t.Add(time.Hour)

	_, err := e.CreateProject(creator, "t", []string{"a", "b"}, deadline, 10)
	require.NoError(t, err)

	_, err = e.BuyTicket(buyer, 99, 0, testTicketPrice)
	assert.ErrorIs(t, err, domain.ErrUnknownProject)

	_, err = e.BuyTicket(buyer, 1, 2, testTicketPrice)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	_, err = e.BuyTicket(buyer, 1, 0, testTicketPrice-1)
	assert.ErrorIs(t, err, domain.ErrWrongPayment)

	clk.advance(time.Hour)
	_, err = e.BuyTicket(buyer, 1, 0, testTicketPrice)
	assert.ErrorIs(t, err, domain.ErrProjectExpired)
}

func TestSettleProject(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator := addr(1)
	deadline := clk.t.Add(time.Hour)

	_, err := e.CreateProject(creator, "t", []string{"a", "b"}, deadline, 1000)
	require.NoError(t, err)
	// three winners, one loser, pool 1000 + 4*100 = 1400
	for _, b := range []byte{2, 3, 4} {
		_, err = e.BuyTicket(addr(b), 1, 0, testTicketPrice)
		require.NoError(t, err)
	}
	_, err = e.BuyTicket(addr(5), 1, 1, testTicketPrice)
	require.NoError(t, err)

	_, err = e.SettleProject(creator, 1, 0)
	assert.ErrorIs(t, err, domain.ErrNotYetExpired)

	clk.advance(2 * time.Hour)

	_, err = e.SettleProject(addr(9), 1, 0)
	assert.ErrorIs(t, err, domain.ErrNotCreator)

	_, err = e.SettleProject(creator, 1, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	ev, err := e.SettleProject(creator, 1, 0)
	require.NoError(t, err)
	payload := ev.Payload.(domain.ProjectSettledPayload)
	// 1400 / 3 = 466 share, remainder 2 to the creator
	assert.Equal(t, uint64(3), payload.WinningTickets)
	assert.Equal(t, uint64(466), payload.WinnerShare)
	assert.Equal(t, uint64(2), payload.Remainder)
	assert.Equal(t, uint64(2), e.NativeBalance(creator))

	_, err = e.SettleProject(creator, 1, 0)
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)
}

func TestSettleNoWinnersPaysCreator(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator := addr(1)

	_, err := e.CreateProject(creator, "t", []string{"a", "b"}, clk.t.Add(time.Hour), 500)
	require.NoError(t, err)
	_, err = e.BuyTicket(addr(2), 1, 1, testTicketPrice)
	require.NoError(t, err)

	clk.advance(2 * time.Hour)
	_, err = e.SettleProject(creator, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, uint64(600), e.NativeBalance(creator))
	proj, err := e.GetProject(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), proj.PoolBalance)
}

func TestClaimWinnings(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator, w1, w2, loser := addr(1), addr(2), addr(3), addr(4)

	_, err := e.CreateProject(creator, "t", []string{"a", "b"}, clk.t.Add(time.Hour), 1000)
	require.NoError(t, err)
	_, err = e.BuyTicket(w1, 1, 0, testTicketPrice)
	require.NoError(t, err)
	_, err = e.BuyTicket(w2, 1, 0, testTicketPrice)
	require.NoError(t, err)
	_, err = e.BuyTicket(loser, 1, 1, testTicketPrice)
	require.NoError(t, err)

	_, err = e.ClaimWinnings(w1, 1)
	assert.ErrorIs(t, err, domain.ErrProjectNotSettled)

	clk.advance(2 * time.Hour)
	// pool 1300, 2 winners: share 650, remainder 0
	_, err = e.SettleProject(creator, 1, 0)
	require.NoError(t, err)

	_, err = e.ClaimWinnings(loser, 3)
	assert.ErrorIs(t, err, domain.ErrNotWinningTicket)

	_, err = e.ClaimWinnings(w2, 1)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	ev, err := e.ClaimWinnings(w1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(650), ev.Payload.(domain.WinningsClaimedPayload).Amount)
	assert.Equal(t, uint64(650), e.NativeBalance(w1))

	_, err = e.ClaimWinnings(w1, 1)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	// claim order never changes the amount
	_, err = e.ClaimWinnings(w2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(650), e.NativeBalance(w2))

	proj, err := e.GetProject(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), proj.PoolBalance)
}

func TestClaimFollowsTicketOwnership(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator, buyer, holder := addr(1), addr(2), addr(3)

	_, err := e.CreateProject(creator, "t", []string{"a", "b"}, clk.t.Add(time.Hour), 900)
	require.NoError(t, err)
	_, err = e.BuyTicket(buyer, 1, 0, testTicketPrice)
	require.NoError(t, err)
	_, err = e.TransferTicket(buyer, 1, holder)
	require.NoError(t, err)

	clk.advance(2 * time.Hour)
	_, err = e.SettleProject(creator, 1, 0)
	require.NoError(t, err)

	_, err = e.ClaimWinnings(buyer, 1)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	_, err = e.ClaimWinnings(holder, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), e.NativeBalance(holder))
}

func TestCreditModePayments(t *testing.T) {
	e, clk := newTestEngine(PaymentCredit)
	creator, buyer := addr(1), addr(2)

	_, err := e.Grant(creator)
	require.NoError(t, err)
	_, err = e.Grant(buyer)
	require.NoError(t, err)

	// no allowance to the platform yet
	_, err = e.CreateProject(creator, "t", []string{"a", "b"}, clk.t.Add(time.Hour), 500)
	assert.ErrorIs(t, err, domain.ErrInsufficientAllowance)

	_, err = e.CreditApprove(creator, PlatformAccount, 500)
	require.NoError(t, err)
	_, err = e.CreateProject(creator, "t", []string{"a", "b"}, clk.t.Add(time.Hour), 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(testGrantAmount-500), e.CreditBalance(creator))

	_, err = e.CreditApprove(buyer, PlatformAccount, testTicketPrice)
	require.NoError(t, err)
	_, err = e.BuyTicket(buyer, 1, 0, testTicketPrice)
	require.NoError(t, err)
	assert.Equal(t, uint64(testGrantAmount-testTicketPrice), e.CreditBalance(buyer))
	assert.Equal(t, uint64(600), e.CreditBalance(PlatformAccount))

	clk.advance(2 * time.Hour)
	_, err = e.SettleProject(creator, 1, 0)
	require.NoError(t, err)
	_, err = e.ClaimWinnings(buyer, 1)
	require.NoError(t, err)

	// winnings paid in credits, platform custody fully drained
	assert.Equal(t, uint64(testGrantAmount+500), e.CreditBalance(buyer))
	assert.Equal(t, uint64(0), e.CreditBalance(PlatformAccount))
	assert.Equal(t, uint64(2*testGrantAmount), e.CreditTotalSupply())
}

func TestWithdraw(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator := addr(1)

	_, err := e.CreateProject(creator, "t", []string{"a", "b"}, clk.t.Add(time.Hour), 300)
	require.NoError(t, err)
	clk.advance(2 * time.Hour)
	_, err = e.SettleProject(creator, 1, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(300), e.NativeBalance(creator))

	_, err = e.Withdraw(creator, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = e.Withdraw(creator, 400)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = e.Withdraw(creator, 300)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), e.NativeBalance(creator))
}

func TestEventSequenceIsMonotonic(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator, buyer := addr(1), addr(2)

	ev1, err := e.CreateProject(creator, "t", []string{"a", "b"}, clk.t.Add(time.Hour), 10)
	require.NoError(t, err)
	// failed operations emit nothing and burn no sequence numbers
	_, err = e.BuyTicket(buyer, 1, 0, testTicketPrice-1)
	require.Error(t, err)
	ev2, err := e.BuyTicket(buyer, 1, 0, testTicketPrice)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), ev1.Seq)
	assert.Equal(t, uint64(2), ev2.Seq)
	assert.Equal(t, uint64(2), e.HeadSeq())
	assert.NotEqual(t, ev1.ID, ev2.ID)
}

func TestProjectReads(t *testing.T) {
	e, clk := newTestEngine(PaymentNative)
	creator := addr(1)

	_, err := e.CreateProject(creator, "t", []string{"yes", "no"}, clk.t.Add(time.Hour), 10)
	require.NoError(t, err)
	_, err = e.CreateProject(creator, "u", []string{"a", "b", "c"}, clk.t.Add(time.Hour), 10)
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 2}, e.ListProjectIDs())

	opts, err := e.ProjectOptions(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, opts)

	_, err = e.OptionTicketCount(2, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	n, err := e.OptionTicketCount(1, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}
