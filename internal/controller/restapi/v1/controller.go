package v1

import (
	"github.com/andreyxaxa/Image-Captioner/internal/usecase"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
)

type V1 struct {
	ing    usecase.IngestUseCase
	gal    usecase.GalleryUseCase
	logger logger.Interface
}
