package v1

import (
	"github.com/andreyxaxa/Image-Captioner/internal/usecase"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

// NewGalleryRoutes registers the HTML page and form upload on root and the
// JSON API on apiV1Group.
func NewGalleryRoutes(root, apiV1Group fiber.Router, ing usecase.IngestUseCase, gal usecase.GalleryUseCase, l logger.Interface) {
	r := &V1{ing: ing, gal: gal, logger: l}

	{
		// UI
		root.Get("/", r.showGallery)
		root.Post("/upload", r.uploadForm)

		// API
		apiV1Group.Post("/upload", r.upload)
		apiV1Group.Get("/gallery", r.listGallery)
	}
}
