package entity

import "time"

// Failure reasons stored on FAILED records.
const (
	ReasonBlobUnavailable = "blob_unavailable"
	ReasonCaptionFailed   = "caption_failed"
	ReasonThumbnailFailed = "thumbnail_failed"
)

type UploadRecord struct {
	ImageKey      string `json:"image_key"`
	Caption       string `json:"caption"`
	Status        Status `json:"status"` // pending, ready, failed
	FailureReason string `json:"failure_reason,omitempty"`

	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`

	UploadedAt time.Time  `json:"uploaded_at"`
	Seq        int64      `json:"-"`
	EnrichedAt *time.Time `json:"enriched_at,omitempty"`
}

// ThumbnailKey is the deterministic key of the record's derived thumbnail.
func (r *UploadRecord) ThumbnailKey() string {
	return ThumbnailKey(r.ImageKey)
}
