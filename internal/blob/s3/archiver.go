package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// EventJournal is the narrow store surface the archiver needs: read the
// events older than the cutoff, and delete them once the upload is verified.
type EventJournal interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Event, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// EventArchiver implements domain.Archiver by serializing aged-out journal
// events to JSONL and uploading them to blob storage. Events leave the
// primary journal only after the uploaded object is confirmed to exist.
type EventArchiver struct {
	writer  domain.BlobWriter
	reader  domain.BlobReader
	journal EventJournal
}

// NewEventArchiver creates a new EventArchiver.
func NewEventArchiver(writer domain.BlobWriter, reader domain.BlobReader, journal EventJournal) *EventArchiver {
	return &EventArchiver{
		writer:  writer,
		reader:  reader,
		journal: journal,
	}
}

// ArchiveEvents uploads every journaled event older than the cutoff to a
// batch object keyed by the cutoff time and the archived sequence range,
// verifies the object landed, and then deletes the archived rows from the
// journal. Returns the number of archived events.
func (a *EventArchiver) ArchiveEvents(ctx context.Context, before time.Time) (int64, error) {
	events, err := a.journal.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive events query: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(events)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive events marshal: %w", err)
	}

	path := archivePath("events", before, events[0].Seq, events[len(events)-1].Seq)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive events upload: %w", err)
	}

	// Never delete journal rows on the strength of an unverified upload.
	ok, err := a.reader.Exists(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive events verify %s: %w", path, err)
	}
	if !ok {
		return 0, fmt.Errorf("s3blob: archive events verify %s: object missing after upload", path)
	}

	deleted, err := a.journal.DeleteBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive events delete: %w", err)
	}
	if deleted != int64(len(events)) {
		// Rows written between list and delete would be newer than the
		// cutoff, so a mismatch means concurrent pruning. Surface it.
		return deleted, fmt.Errorf("s3blob: archive events: uploaded %d but deleted %d", len(events), deleted)
	}
	return deleted, nil
}

// archivePath builds the blob key for one archive batch. The journal is the
// system of record, so every batch must land under a distinct key: the key
// carries the cutoff timestamp and the archived sequence range, and batches
// from successive runs never collide.
//
//	archive/events/2026-08/2026-08-30T00-00-00Z_seq120-540.jsonl
func archivePath(kind string, before time.Time, firstSeq, lastSeq uint64) string {
	cutoff := before.UTC().Format("2006-01-02T15-04-05Z")
	return fmt.Sprintf("archive/%s/%s/%s_seq%d-%d.jsonl",
		kind, before.UTC().Format("2006-01"), cutoff, firstSeq, lastSeq)
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*EventArchiver)(nil)
