package entity

import "time"

type GalleryItem struct {
	ImageKey     string    `json:"image_key"`
	ImageURL     string    `json:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Caption      string    `json:"caption"`
	Status       Status    `json:"status"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
