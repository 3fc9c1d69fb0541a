package s3blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// memBlobStore is an in-memory BlobWriter + BlobReader.
type memBlobStore struct {
	objects map[string][]byte

	// existsMissing makes Exists report false for every key, simulating an
	// upload that never landed.
	existsMissing bool
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte)}
}

func (m *memBlobStore) Put(_ context.Context, path string, data io.Reader, _ string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.objects[path] = buf
	return nil
}

func (m *memBlobStore) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return m.Put(ctx, path, data, "")
}

func (m *memBlobStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	buf, ok := m.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (m *memBlobStore) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo
	for path, buf := range m.objects {
		if strings.HasPrefix(path, prefix) {
			infos = append(infos, domain.BlobInfo{Path: path, Size: int64(len(buf))})
		}
	}
	return infos, nil
}

func (m *memBlobStore) Exists(_ context.Context, path string) (bool, error) {
	if m.existsMissing {
		return false, nil
	}
	_, ok := m.objects[path]
	return ok, nil
}

// memJournal is an in-memory EventJournal.
type memJournal struct {
	events []domain.Event
}

func (j *memJournal) ListBefore(_ context.Context, before time.Time) ([]domain.Event, error) {
	var out []domain.Event
	for _, ev := range j.events {
		if ev.Time.Before(before) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (j *memJournal) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	var kept []domain.Event
	var deleted int64
	for _, ev := range j.events {
		if ev.Time.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, ev)
	}
	j.events = kept
	return deleted, nil
}

func journalEvent(seq uint64, at time.Time) domain.Event {
	return domain.Event{
		ID:    uuid.New(),
		Seq:   seq,
		Kind:  domain.EventWithdrawal,
		Actor: common.HexToAddress("0x01"),
		Time:  at,
		Payload: domain.WithdrawalPayload{
			Account: common.HexToAddress("0x01"),
			Amount:  seq,
		},
	}
}

func TestArchiveEventsKeepsEveryBatch(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	journal := &memJournal{}
	for seq := uint64(1); seq <= 6; seq++ {
		journal.events = append(journal.events, journalEvent(seq, base.Add(time.Duration(seq)*time.Hour)))
	}

	store := newMemBlobStore()
	archiver := NewEventArchiver(store, store, journal)
	ctx := context.Background()

	// First run archives seq 1-3.
	n, err := archiver.ArchiveEvents(ctx, base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, journal.events, 3)

	// Second run within the same month archives seq 4-6. Both batches must
	// survive: the journal is the system of record and the first batch's
	// rows are already gone from it.
	n, err = archiver.ArchiveEvents(ctx, base.Add(7*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Empty(t, journal.events)

	infos, err := store.List(ctx, "archive/events/2026-08/")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	total := 0
	for _, info := range infos {
		rc, err := store.Get(ctx, info.Path)
		require.NoError(t, err)
		buf, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		total += bytes.Count(buf, []byte("\n"))
	}
	assert.Equal(t, 6, total, "every archived event must be retrievable")
}

func TestArchiveEventsKeyCarriesSeqRange(t *testing.T) {
	cutoff := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	path := archivePath("events", cutoff, 120, 540)
	assert.Equal(t, "archive/events/2026-08/2026-08-30T00-00-00Z_seq120-540.jsonl", path)
}

func TestArchiveEventsNoRowsIsANoOp(t *testing.T) {
	store := newMemBlobStore()
	archiver := NewEventArchiver(store, store, &memJournal{})

	n, err := archiver.ArchiveEvents(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.objects)
}

func TestArchiveEventsKeepsJournalOnFailedVerify(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	journal := &memJournal{events: []domain.Event{journalEvent(1, base)}}

	store := newMemBlobStore()
	store.existsMissing = true
	archiver := NewEventArchiver(store, store, journal)

	_, err := archiver.ArchiveEvents(context.Background(), base.Add(time.Hour))
	require.ErrorContains(t, err, "object missing after upload")
	assert.Len(t, journal.events, 1, "rows stay in the journal until the upload is verified")
}
