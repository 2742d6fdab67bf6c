package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
)

type RecordRepo struct {
	mu      sync.Mutex
	records map[string]*entity.UploadRecord
	seq     int64

	// Err, when set, fails every call as an unreachable database would.
	Err error
}

func NewRecordRepo() *RecordRepo {
	return &RecordRepo{records: make(map[string]*entity.UploadRecord)}
}

func (r *RecordRepo) Upsert(_ context.Context, record *entity.UploadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return fmt.Errorf("memory.RecordRepo - Upsert: %w", r.Err)
	}

	r.seq++
	record.Seq = r.seq
	record.EnrichedAt = nil

	stored := *record
	r.records[record.ImageKey] = &stored

	return nil
}

func (r *RecordRepo) GetByKey(_ context.Context, imageKey string) (*entity.UploadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, fmt.Errorf("memory.RecordRepo - GetByKey: %w", r.Err)
	}

	record, ok := r.records[imageKey]
	if !ok {
		return nil, fmt.Errorf("memory.RecordRepo - GetByKey: %w", errs.ErrRecordNotFound)
	}

	cp := *record

	return &cp, nil
}

func (r *RecordRepo) MarkReady(_ context.Context, imageKey string, seq int64, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return fmt.Errorf("memory.RecordRepo - MarkReady: %w", r.Err)
	}

	record, err := r.current(imageKey, seq)
	if err != nil {
		return fmt.Errorf("memory.RecordRepo - MarkReady: %w", err)
	}

	now := time.Now()
	record.Caption = caption
	record.Status = entity.Ready
	record.FailureReason = ""
	record.EnrichedAt = &now

	return nil
}

func (r *RecordRepo) MarkFailed(_ context.Context, imageKey string, seq int64, reason string) (entity.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return "", fmt.Errorf("memory.RecordRepo - MarkFailed: %w", r.Err)
	}

	record, err := r.current(imageKey, seq)
	if err != nil {
		return "", fmt.Errorf("memory.RecordRepo - MarkFailed: %w", err)
	}
	if record.Status == entity.Ready {
		return entity.Ready, nil
	}

	now := time.Now()
	record.Status = entity.Failed
	record.FailureReason = reason
	record.EnrichedAt = &now

	return entity.Failed, nil
}

// current returns the stored record if it still belongs to the upload seq.
func (r *RecordRepo) current(imageKey string, seq int64) (*entity.UploadRecord, error) {
	record, ok := r.records[imageKey]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}
	if record.Seq != seq {
		return nil, errs.ErrSuperseded
	}

	return record, nil
}

func (r *RecordRepo) ListNewestFirst(_ context.Context, limit int) ([]*entity.UploadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, fmt.Errorf("memory.RecordRepo - ListNewestFirst: %w", r.Err)
	}

	records := make([]*entity.UploadRecord, 0, len(r.records))
	for _, record := range r.records {
		cp := *record
		records = append(records, &cp)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].UploadedAt.Equal(records[j].UploadedAt) {
			return records[i].UploadedAt.After(records[j].UploadedAt)
		}
		return records[i].Seq > records[j].Seq
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

func (r *RecordRepo) ListPendingBefore(_ context.Context, t time.Time, limit int) ([]*entity.UploadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, fmt.Errorf("memory.RecordRepo - ListPendingBefore: %w", r.Err)
	}

	var records []*entity.UploadRecord
	for _, record := range r.records {
		if record.Status == entity.Pending && record.UploadedAt.Before(t) {
			cp := *record
			records = append(records, &cp)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].UploadedAt.Equal(records[j].UploadedAt) {
			return records[i].UploadedAt.Before(records[j].UploadedAt)
		}
		return records[i].Seq < records[j].Seq
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// Len reports how many distinct records exist.
func (r *RecordRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.records)
}
