package gallery

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/internal/infrastructure/processor"
	"github.com/andreyxaxa/Image-Captioner/internal/repo/memory"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase/enrichment"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase/ingest"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
)

type captioner string

func (c captioner) GenerateCaption(context.Context, []byte, string) (string, error) {
	return string(c), nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.NRGBA{R: 200, A: 255}}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func seed(t *testing.T, records *memory.RecordRepo, key string, status entity.Status, at time.Time) {
	t.Helper()

	err := records.Upsert(context.Background(), &entity.UploadRecord{ImageKey: key, Status: status, UploadedAt: at})
	if err != nil {
		t.Fatal(err)
	}
}

func TestListNewestFirst(t *testing.T) {
	records := memory.NewRecordRepo()
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed(t, records, "uploads/a.png", entity.Pending, t1)
	seed(t, records, "uploads/c.png", entity.Pending, t1.Add(2*time.Minute))
	seed(t, records, "uploads/b.png", entity.Pending, t1.Add(time.Minute))

	items, err := New(records, memory.NewBlobRepo("http://blobs.test")).List(context.Background(), 0)
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}

	want := []string{"uploads/c.png", "uploads/b.png", "uploads/a.png"}
	if len(items) != len(want) {
		t.Fatalf("Expected %d items, got %d", len(want), len(items))
	}
	for i, key := range want {
		if items[i].ImageKey != key {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ImageKey, key)
		}
	}
}

func TestListSameTimestampUsesInsertionOrder(t *testing.T) {
	records := memory.NewRecordRepo()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed(t, records, "uploads/first.png", entity.Pending, at)
	seed(t, records, "uploads/second.png", entity.Pending, at)

	items, err := New(records, memory.NewBlobRepo("")).List(context.Background(), 0)
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	if items[0].ImageKey != "uploads/second.png" {
		t.Errorf("Expected later insert first, got %s", items[0].ImageKey)
	}
}

func TestListPlaceholders(t *testing.T) {
	records := memory.NewRecordRepo()
	blobs := memory.NewBlobRepo("http://blobs.test")
	at := time.Now()

	seed(t, records, "uploads/pending.png", entity.Pending, at)
	seed(t, records, "uploads/failed.png", entity.Failed, at.Add(time.Second))
	seed(t, records, "uploads/ready.png", entity.Pending, at.Add(2*time.Second))
	ready, err := records.GetByKey(context.Background(), "uploads/ready.png")
	if err != nil {
		t.Fatal(err)
	}
	if err := records.MarkReady(context.Background(), "uploads/ready.png", ready.Seq, "A red square"); err != nil {
		t.Fatal(err)
	}

	items, err := New(records, blobs).List(context.Background(), 0)
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}

	tests := []struct {
		key, caption, thumb string
	}{
		{"uploads/ready.png", "A red square", "http://blobs.test/thumbnails/ready.png"},
		{"uploads/failed.png", DefaultFailedText, "http://blobs.test/thumbnails/failed.png"},
		{"uploads/pending.png", DefaultPendingText, "http://blobs.test/thumbnails/pending.png"},
	}
	for i, tt := range tests {
		if items[i].ImageKey != tt.key || items[i].Caption != tt.caption || items[i].ThumbnailURL != tt.thumb {
			t.Errorf("items[%d] = %+v, want %+v", i, items[i], tt)
		}
		if items[i].ImageURL != "http://blobs.test/"+tt.key {
			t.Errorf("items[%d].ImageURL = %s", i, items[i].ImageURL)
		}
	}
}

func TestListCustomPlaceholders(t *testing.T) {
	records := memory.NewRecordRepo()
	seed(t, records, "uploads/x.png", entity.Pending, time.Now())

	items, err := New(records, memory.NewBlobRepo(""), Placeholders("Working on it", "")).List(context.Background(), 0)
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	if items[0].Caption != "Working on it" {
		t.Errorf("Expected custom placeholder, got %s", items[0].Caption)
	}
}

func TestListLimit(t *testing.T) {
	records := memory.NewRecordRepo()
	at := time.Now()
	for i, key := range []string{"uploads/1.png", "uploads/2.png", "uploads/3.png"} {
		seed(t, records, key, entity.Pending, at.Add(time.Duration(i)*time.Second))
	}

	items, err := New(records, memory.NewBlobRepo("")).List(context.Background(), 2)
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	if len(items) != 2 || items[0].ImageKey != "uploads/3.png" {
		t.Errorf("Unexpected items %+v", items)
	}
}

func TestListPersistenceError(t *testing.T) {
	records := memory.NewRecordRepo()
	records.Err = errors.New("db down")

	items, err := New(records, memory.NewBlobRepo("")).List(context.Background(), 0)
	if !errors.Is(err, errs.ErrPersistence) {
		t.Fatalf("Expected ErrPersistence, got %v", err)
	}
	if items != nil {
		t.Error("Expected no items rather than an empty gallery")
	}
}

func TestIngestEnrichList(t *testing.T) {
	ctx := context.Background()
	l := logger.NewWithWriter("error", io.Discard)
	blobs := memory.NewBlobRepo("http://blobs.test")
	records := memory.NewRecordRepo()

	in := ingest.New(blobs, records, memory.NewOutboxRepo(), memory.NewTransactor(), l)
	en := enrichment.New(blobs, records, captioner("A dog running in a park"), processor.New(), l)
	gal := New(records, blobs)

	// older upload already in the gallery
	data := testPNG(t)

	if _, err := in.Ingest(ctx, "cat.png", "image/png", data); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	if _, err := in.Ingest(ctx, "dog.png", "", data); err != nil {
		t.Fatalf("Unexpected error %s", err)
	}

	items, err := gal.List(ctx, 0)
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	if items[0].ImageKey != "uploads/dog.png" || items[0].Caption != DefaultPendingText {
		t.Errorf("Expected new upload first with pending placeholder, got %+v", items[0])
	}

	status, err := en.Enrich(ctx, "uploads/dog.png")
	if err != nil || status != entity.Ready {
		t.Fatalf("Expected ready, got %s, %v", status, err)
	}

	items, err = gal.List(ctx, 0)
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	if items[0].Caption != "A dog running in a park" || items[0].Status != entity.Ready {
		t.Errorf("Expected caption after enrichment, got %+v", items[0])
	}
	if items[0].ThumbnailURL != "http://blobs.test/thumbnails/dog.png" {
		t.Errorf("Unexpected thumbnail url %s", items[0].ThumbnailURL)
	}
	if ok, _ := blobs.Exists(ctx, "thumbnails/dog.png"); !ok {
		t.Error("Expected thumbnail blob")
	}
	if items[1].ImageKey != "uploads/cat.png" || items[1].Caption != DefaultPendingText {
		t.Errorf("Expected older upload untouched, got %+v", items[1])
	}
}
