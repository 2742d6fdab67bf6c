package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/pkg/postgres"
	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	captionsTable = "captions"

	// Columns
	imageKeyColumn      = "image_key"
	captionColumn       = "caption"
	statusColumn        = "status"
	failureReasonColumn = "failure_reason"
	contentTypeColumn   = "content_type"
	sizeColumn          = "size"
	uploadedAtColumn    = "uploaded_at"
	seqColumn           = "seq"
	enrichedAtColumn    = "enriched_at"
)

// A colliding ingest overwrites the previous upload and moves it to the top.
const upsertSuffix = `ON CONFLICT (image_key) DO UPDATE SET
	caption = EXCLUDED.caption,
	status = EXCLUDED.status,
	failure_reason = EXCLUDED.failure_reason,
	content_type = EXCLUDED.content_type,
	size = EXCLUDED.size,
	uploaded_at = EXCLUDED.uploaded_at,
	seq = nextval('captions_seq'),
	enriched_at = NULL
RETURNING seq`

var recordColumns = []string{
	imageKeyColumn,
	captionColumn,
	statusColumn,
	failureReasonColumn,
	contentTypeColumn,
	sizeColumn,
	uploadedAtColumn,
	seqColumn,
	enrichedAtColumn,
}

type RecordRepo struct {
	*postgres.Postgres
}

func NewRecordRepo(pg *postgres.Postgres) *RecordRepo {
	return &RecordRepo{pg}
}

func (r *RecordRepo) Upsert(ctx context.Context, record *entity.UploadRecord) error {
	sql, args, err := r.Builder.
		Insert(captionsTable).
		Columns(
			imageKeyColumn,
			captionColumn,
			statusColumn,
			failureReasonColumn,
			contentTypeColumn,
			sizeColumn,
			uploadedAtColumn,
		).
		Values(
			record.ImageKey,
			record.Caption,
			record.Status,
			record.FailureReason,
			record.ContentType,
			record.Size,
			record.UploadedAt,
		).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("RecordRepo - Upsert - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	err = executor.QueryRow(ctx, sql, args...).Scan(&record.Seq)
	if err != nil {
		return fmt.Errorf("RecordRepo - Upsert - executor.QueryRow: %w", err)
	}

	return nil
}

func (r *RecordRepo) GetByKey(ctx context.Context, imageKey string) (*entity.UploadRecord, error) {
	sql, args, err := r.Builder.
		Select(recordColumns...).
		From(captionsTable).
		Where(squirrel.Eq{imageKeyColumn: imageKey}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("RecordRepo - GetByKey - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	record, err := scanRecord(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("RecordRepo - GetByKey: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("RecordRepo - GetByKey - executor.QueryRow: %w", err)
	}

	return record, nil
}

func (r *RecordRepo) MarkReady(ctx context.Context, imageKey string, seq int64, caption string) error {
	sql, args, err := r.Builder.
		Update(captionsTable).
		Set(captionColumn, caption).
		Set(statusColumn, entity.Ready).
		Set(failureReasonColumn, "").
		Set(enrichedAtColumn, time.Now()).
		Where(squirrel.Eq{imageKeyColumn: imageKey, seqColumn: seq}).
		ToSql()
	if err != nil {
		return fmt.Errorf("RecordRepo - MarkReady - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("RecordRepo - MarkReady - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// missing or re-uploaded
		if _, err := r.GetByKey(ctx, imageKey); err != nil {
			return fmt.Errorf("RecordRepo - MarkReady - r.GetByKey: %w", err)
		}

		return fmt.Errorf("RecordRepo - MarkReady: %w", errs.ErrSuperseded)
	}

	return nil
}

// MarkFailed never downgrades a READY record: a late failing duplicate leaves
// the earlier successful outcome visible.
func (r *RecordRepo) MarkFailed(ctx context.Context, imageKey string, seq int64, reason string) (entity.Status, error) {
	sql, args, err := r.Builder.
		Update(captionsTable).
		Set(statusColumn, entity.Failed).
		Set(failureReasonColumn, reason).
		Set(enrichedAtColumn, time.Now()).
		Where(squirrel.And{
			squirrel.Eq{imageKeyColumn: imageKey, seqColumn: seq},
			squirrel.NotEq{statusColumn: string(entity.Ready)},
		}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("RecordRepo - MarkFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return "", fmt.Errorf("RecordRepo - MarkFailed - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return entity.Failed, nil
	}

	// missing, re-uploaded or already ready
	current, err := r.GetByKey(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("RecordRepo - MarkFailed - r.GetByKey: %w", err)
	}
	if current.Seq != seq {
		return "", fmt.Errorf("RecordRepo - MarkFailed: %w", errs.ErrSuperseded)
	}

	return current.Status, nil
}

func (r *RecordRepo) ListNewestFirst(ctx context.Context, limit int) ([]*entity.UploadRecord, error) {
	builder := r.Builder.
		Select(recordColumns...).
		From(captionsTable).
		OrderBy(uploadedAtColumn+" DESC", seqColumn+" DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("RecordRepo - ListNewestFirst - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("RecordRepo - ListNewestFirst - executor.Query: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.UploadRecord, 0, max(limit, 16))
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("RecordRepo - ListNewestFirst - rows.Scan: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecordRepo - ListNewestFirst - rows.Err: %w", err)
	}

	return records, nil
}

func scanRecord(row pgx.Row) (*entity.UploadRecord, error) {
	var record entity.UploadRecord
	err := row.Scan(
		&record.ImageKey,
		&record.Caption,
		&record.Status,
		&record.FailureReason,
		&record.ContentType,
		&record.Size,
		&record.UploadedAt,
		&record.Seq,
		&record.EnrichedAt,
	)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *RecordRepo) ListPendingBefore(ctx context.Context, t time.Time, limit int) ([]*entity.UploadRecord, error) {
	sql, args, err := r.Builder.
		Select(recordColumns...).
		From(captionsTable).
		Where(squirrel.And{
			squirrel.Eq{statusColumn: string(entity.Pending)},
			squirrel.Lt{uploadedAtColumn: t},
		}).
		OrderBy(uploadedAtColumn+" ASC", seqColumn+" ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("RecordRepo - ListPendingBefore - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("RecordRepo - ListPendingBefore - executor.Query: %w", err)
	}
	defer rows.Close()

	var records []*entity.UploadRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("RecordRepo - ListPendingBefore - rows.Scan: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecordRepo - ListPendingBefore - rows.Err: %w", err)
	}

	return records, nil
}
