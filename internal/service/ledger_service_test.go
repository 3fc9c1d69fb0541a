package service

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/domain"
	"github.com/alanyoungcy/betledger/internal/ledger"
)

type fakeEventStore struct {
	appended []domain.Event
	failWith error
}

func (f *fakeEventStore) Append(_ context.Context, ev domain.Event) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.appended = append(f.appended, ev)
	return nil
}

func (f *fakeEventStore) ListAfter(context.Context, uint64, int) ([]domain.Event, error) {
	return nil, nil
}

func (f *fakeEventStore) ListBefore(context.Context, time.Time) ([]domain.Event, error) {
	return nil, nil
}

func (f *fakeEventStore) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeEventStore) LastSeq(context.Context) (uint64, error) {
	return 0, nil
}

type fakeBus struct {
	published [][]byte
	streamed  [][]byte
}

func (f *fakeBus) Publish(_ context.Context, _ string, payload []byte) error {
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (f *fakeBus) StreamAppend(_ context.Context, _ string, payload []byte) error {
	f.streamed = append(f.streamed, payload)
	return nil
}

func (f *fakeBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

type fakeBook struct {
	segments    map[string]domain.OrderBookSegment
	invalidated []string
}

func newFakeBook() *fakeBook {
	return &fakeBook{segments: make(map[string]domain.OrderBookSegment)}
}

func bookKey(projectID uint64, optionIndex int) string {
	return fmt.Sprintf("%d:%d", projectID, optionIndex)
}

func (f *fakeBook) SetSegment(_ context.Context, seg domain.OrderBookSegment) error {
	f.segments[bookKey(seg.ProjectID, seg.OptionIndex)] = seg
	return nil
}

func (f *fakeBook) GetSegment(_ context.Context, projectID uint64, optionIndex int) (domain.OrderBookSegment, error) {
	seg, ok := f.segments[bookKey(projectID, optionIndex)]
	if !ok {
		return domain.OrderBookSegment{}, domain.ErrNotFound
	}
	return seg, nil
}

func (f *fakeBook) InvalidateSegment(_ context.Context, projectID uint64, optionIndex int) error {
	key := bookKey(projectID, optionIndex)
	delete(f.segments, key)
	f.invalidated = append(f.invalidated, key)
	return nil
}

type fakeLimiter struct {
	allowed bool
	calls   int
}

func (f *fakeLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	f.calls++
	return f.allowed, nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Notify(_ context.Context, event, _, _ string) error {
	f.events = append(f.events, event)
	return nil
}

func testAddr(b byte) common.Address {
	var a common.Address
	a[common.AddressLength-1] = b
	return a
}

type serviceFixture struct {
	svc      *LedgerService
	events   *fakeEventStore
	bus      *fakeBus
	book     *fakeBook
	limiter  *fakeLimiter
	notifier *fakeNotifier
	clock    time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		events:   &fakeEventStore{},
		bus:      &fakeBus{},
		book:     newFakeBook(),
		limiter:  &fakeLimiter{allowed: true},
		notifier: &fakeNotifier{},
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	engine := ledger.New(ledger.Config{
		TicketPrice: 100,
		GrantAmount: 1000,
		PaymentMode: ledger.PaymentNative,
		Now:         func() time.Time { return f.clock },
	})
	f.svc = NewLedgerService(
		engine, f.events, f.bus, f.book, f.limiter, f.notifier,
		10, time.Second, slog.Default(),
	)
	return f
}

func (f *serviceFixture) openMarket(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.CreateProject(ctx, testAddr(1), "t", []string{"a", "b"}, f.clock.Add(time.Hour), 1000)
	require.NoError(t, err)
	_, err = f.svc.BuyTicket(ctx, testAddr(2), 1, 0, 100)
	require.NoError(t, err)
}

func TestCommitJournalsAndFansOut(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	ev, err := f.svc.CreateProject(ctx, testAddr(1), "t", []string{"a", "b"}, f.clock.Add(time.Hour), 1000)
	require.NoError(t, err)

	require.Len(t, f.events.appended, 1)
	assert.Equal(t, ev.Seq, f.events.appended[0].Seq)
	assert.Len(t, f.bus.published, 1)
	assert.Len(t, f.bus.streamed, 1)
}

func TestFailedOperationLeavesNoTrace(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateProject(ctx, testAddr(1), "t", []string{"only"}, f.clock.Add(time.Hour), 1000)
	assert.ErrorIs(t, err, domain.ErrInvalidOptions)
	assert.Empty(t, f.events.appended)
	assert.Empty(t, f.bus.published)
}

func TestRateLimitedMutationNeverReachesEngine(t *testing.T) {
	f := newServiceFixture(t)
	f.limiter.allowed = false
	ctx := context.Background()

	_, err := f.svc.CreateProject(ctx, testAddr(1), "t", []string{"a", "b"}, f.clock.Add(time.Hour), 1000)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Empty(t, f.svc.ListProjectIDs())
	assert.Empty(t, f.events.appended)
}

func TestJournalFailureDoesNotFailCommit(t *testing.T) {
	f := newServiceFixture(t)
	f.events.failWith = context.DeadlineExceeded
	ctx := context.Background()

	_, err := f.svc.CreateProject(ctx, testAddr(1), "t", []string{"a", "b"}, f.clock.Add(time.Hour), 1000)
	require.NoError(t, err)
	assert.Len(t, f.svc.ListProjectIDs(), 1)
}

func TestOrderBookSegmentCachesOnMiss(t *testing.T) {
	f := newServiceFixture(t)
	f.openMarket(t)
	ctx := context.Background()

	_, err := f.svc.ListTicket(ctx, testAddr(2), 1, 250)
	require.NoError(t, err)

	seg, err := f.svc.OrderBookSegment(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, seg.OrderIDs)
	assert.Equal(t, []uint64{250}, seg.Prices)

	// second read hits the cache entry written by the first
	cached, err := f.book.GetSegment(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, seg.OrderIDs, cached.OrderIDs)
}

func TestOrderLifecycleInvalidatesSegment(t *testing.T) {
	f := newServiceFixture(t)
	f.openMarket(t)
	ctx := context.Background()

	_, err := f.svc.ListTicket(ctx, testAddr(2), 1, 250)
	require.NoError(t, err)
	_, err = f.svc.OrderBookSegment(ctx, 1, 0)
	require.NoError(t, err)

	_, err = f.svc.BuyOrder(ctx, testAddr(3), 1, 250)
	require.NoError(t, err)

	// the fill dropped the cached segment; the next read rebuilds it empty
	assert.Contains(t, f.book.invalidated, bookKey(1, 0))
	seg, err := f.svc.OrderBookSegment(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, seg.OrderIDs)
}

func TestNotifierReceivesSettlementAndFills(t *testing.T) {
	f := newServiceFixture(t)
	f.openMarket(t)
	ctx := context.Background()

	_, err := f.svc.ListTicket(ctx, testAddr(2), 1, 250)
	require.NoError(t, err)
	_, err = f.svc.BuyOrder(ctx, testAddr(3), 1, 250)
	require.NoError(t, err)

	f.clock = f.clock.Add(2 * time.Hour)
	_, err = f.svc.SettleProject(ctx, testAddr(1), 1, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		string(domain.EventOrderFilled),
		string(domain.EventProjectSettled),
	}, f.notifier.events)
}
