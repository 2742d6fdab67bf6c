package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/dto"
	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/internal/repo/memory"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
	"golang.org/x/sync/errgroup"
)

var jpegBytes = []byte("\xFF\xD8\xFF\xE0\x00\x10JFIF\x00fake jpeg body")

type fixture struct {
	blobs   *memory.BlobRepo
	records *memory.RecordRepo
	outbox  *memory.OutboxRepo
	uc      *UseCase
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		blobs:   memory.NewBlobRepo("http://blobs.test"),
		records: memory.NewRecordRepo(),
		outbox:  memory.NewOutboxRepo(),
	}
	f.uc = New(f.blobs, f.records, f.outbox, memory.NewTransactor(), logger.NewWithWriter("error", io.Discard), opts...)

	return f
}

func TestIngestCreatesPendingRecordAndEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, Clock(func() time.Time { return at }))

	record, err := f.uc.Ingest(context.Background(), "dog.jpg", "image/jpeg", jpegBytes)
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}

	if record.ImageKey != "uploads/dog.jpg" {
		t.Errorf("Expected key uploads/dog.jpg, got %s", record.ImageKey)
	}
	if record.Status != entity.Pending || record.Caption != "" {
		t.Errorf("Expected pending record without caption, got %+v", record)
	}
	if !record.UploadedAt.Equal(at) {
		t.Errorf("Expected uploaded_at %s, got %s", at, record.UploadedAt)
	}
	if record.Size != int64(len(jpegBytes)) {
		t.Errorf("Expected size %d, got %d", len(jpegBytes), record.Size)
	}

	stored, err := f.blobs.Get(context.Background(), "uploads/dog.jpg")
	if err != nil || string(stored) != string(jpegBytes) {
		t.Errorf("Expected original blob to be stored, err=%v", err)
	}

	events := f.outbox.Events()
	if len(events) != 1 {
		t.Fatalf("Expected 1 outbox event, got %d", len(events))
	}
	if events[0].AggregateKey != "uploads/dog.jpg" || events[0].Status != entity.Pending {
		t.Errorf("Unexpected event %+v", events[0])
	}

	var payload dto.CaptionRequested
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil {
		t.Fatalf("Bad payload: %s", err)
	}
	if payload.ImageKey != "uploads/dog.jpg" || payload.ContentType != "image/jpeg" {
		t.Errorf("Unexpected payload %+v", payload)
	}
}

func TestIngestEmptyFile(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Ingest(context.Background(), "empty.png", "image/png", nil)
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}

	if f.records.Len() != 0 {
		t.Errorf("Expected zero records, got %d", f.records.Len())
	}
	if f.blobs.Puts() != 0 {
		t.Errorf("Expected zero blob writes, got %d", f.blobs.Puts())
	}
	if len(f.outbox.Events()) != 0 {
		t.Error("Expected no outbox events")
	}
}

func TestIngestTooLarge(t *testing.T) {
	f := newFixture(t, MaxFileSize(8))

	_, err := f.uc.Ingest(context.Background(), "big.jpg", "image/jpeg", jpegBytes)
	if !errors.Is(err, ErrFileTooLarge) || !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("Expected ErrFileTooLarge, got %v", err)
	}
	if f.blobs.Puts() != 0 {
		t.Errorf("Expected zero blob writes, got %d", f.blobs.Puts())
	}
}

func TestIngestUnsafeFilename(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Ingest(context.Background(), "../..", "image/jpeg", jpegBytes)
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}
	if f.blobs.Puts() != 0 || f.records.Len() != 0 {
		t.Error("Expected no partial state")
	}
}

func TestIngestTraversalIsStripped(t *testing.T) {
	f := newFixture(t)

	record, err := f.uc.Ingest(context.Background(), "../../etc/cat.png", "image/png", jpegBytes)
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	if record.ImageKey != "uploads/cat.png" {
		t.Errorf("Expected uploads/cat.png, got %s", record.ImageKey)
	}
}

func TestIngestSniffsContentType(t *testing.T) {
	f := newFixture(t)

	record, err := f.uc.Ingest(context.Background(), "photo", "", jpegBytes)
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	if record.ContentType != "image/jpeg" {
		t.Errorf("Expected sniffed image/jpeg, got %s", record.ContentType)
	}
	if got := f.blobs.ContentType(record.ImageKey); got != "image/jpeg" {
		t.Errorf("Expected blob content type image/jpeg, got %s", got)
	}
}

func TestIngestStorageFailure(t *testing.T) {
	f := newFixture(t)
	f.blobs.PutErr = errors.New("s3 down")

	_, err := f.uc.Ingest(context.Background(), "dog.jpg", "image/jpeg", jpegBytes)
	if !errors.Is(err, errs.ErrStorage) {
		t.Fatalf("Expected ErrStorage, got %v", err)
	}
	if f.records.Len() != 0 || len(f.outbox.Events()) != 0 {
		t.Error("Expected no record and no event after a failed blob write")
	}
}

func TestIngestPersistenceFailureKeepsBlob(t *testing.T) {
	f := newFixture(t)
	f.records.Err = errors.New("db down")

	_, err := f.uc.Ingest(context.Background(), "dog.jpg", "image/jpeg", jpegBytes)
	if !errors.Is(err, errs.ErrPersistence) {
		t.Fatalf("Expected ErrPersistence, got %v", err)
	}
	if ok, _ := f.blobs.Exists(context.Background(), "uploads/dog.jpg"); !ok {
		t.Error("Expected blob to stay in place")
	}
	if len(f.outbox.Events()) != 0 {
		t.Error("Expected no outbox event")
	}
}

func TestIngestCollisionLastWriterWins(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, Clock(func() time.Time { return now }))

	first, err := f.uc.Ingest(context.Background(), "cat.png", "image/png", []byte("first"))
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	second, err := f.uc.Ingest(context.Background(), "cat.png", "image/png", []byte("second"))
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}

	if f.records.Len() != 1 {
		t.Errorf("Expected one record for a colliding key, got %d", f.records.Len())
	}
	if second.Seq <= first.Seq {
		t.Errorf("Expected re-upload to get a newer seq, got %d <= %d", second.Seq, first.Seq)
	}

	data, _ := f.blobs.Get(context.Background(), "uploads/cat.png")
	if string(data) != "second" {
		t.Errorf("Expected latest bytes, got %q", data)
	}
}

func TestIngestUniqueKeys(t *testing.T) {
	f := newFixture(t, UniqueKeys(true))

	a, err := f.uc.Ingest(context.Background(), "cat.png", "image/png", []byte("a"))
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	b, err := f.uc.Ingest(context.Background(), "cat.png", "image/png", []byte("b"))
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}

	if a.ImageKey == b.ImageKey {
		t.Errorf("Expected distinct keys, got %s twice", a.ImageKey)
	}
	if !strings.HasSuffix(a.ImageKey, "-cat.png") || !strings.HasPrefix(a.ImageKey, entity.UploadsPrefix) {
		t.Errorf("Unexpected key shape %s", a.ImageKey)
	}
	if f.records.Len() != 2 {
		t.Errorf("Expected 2 records, got %d", f.records.Len())
	}
}

func TestIngestConcurrentDistinctNames(t *testing.T) {
	const n = 32
	f := newFixture(t)

	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			_, err := f.uc.Ingest(context.Background(), fmt.Sprintf("photo-%02d.jpg", i), "image/jpeg", jpegBytes)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Unexpected error %s", err)
	}

	if got := f.records.Len(); got != n {
		t.Errorf("Expected %d records, got %d", n, got)
	}
	if got := f.blobs.Puts(); got != n {
		t.Errorf("Expected %d blobs, got %d", n, got)
	}

	events := f.outbox.Events()
	if len(events) != n {
		t.Fatalf("Expected %d outbox events, got %d", n, len(events))
	}

	seqs := map[int64]string{}
	keys := map[string]bool{}
	for _, e := range events {
		keys[e.AggregateKey] = true

		record, err := f.records.GetByKey(context.Background(), e.AggregateKey)
		if err != nil {
			t.Fatalf("Missing record for %s: %s", e.AggregateKey, err)
		}
		if other, dup := seqs[record.Seq]; dup {
			t.Errorf("Seq %d shared by %s and %s", record.Seq, other, record.ImageKey)
		}
		seqs[record.Seq] = record.ImageKey

		stored, err := f.blobs.Get(context.Background(), record.ImageKey)
		if err != nil || string(stored) != string(jpegBytes) {
			t.Errorf("Expected blob for %s, err=%v", record.ImageKey, err)
		}
	}
	if len(keys) != n {
		t.Errorf("Expected %d distinct event keys, got %d", n, len(keys))
	}
}
