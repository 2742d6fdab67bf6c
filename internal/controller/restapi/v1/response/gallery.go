package response

import "github.com/andreyxaxa/Image-Captioner/internal/entity"

type Upload struct {
	ImageKey    string `json:"image_key"`
	Status      string `json:"status"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	UploadedAt  string `json:"uploaded_at"`
}

type Gallery struct {
	Items []entity.GalleryItem `json:"items"`
	Count int                  `json:"count"`
}
