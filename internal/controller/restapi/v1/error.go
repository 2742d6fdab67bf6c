package v1

import (
	"errors"
	"net/http"

	"github.com/andreyxaxa/Image-Captioner/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase/ingest"
	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}

// ingestStatus maps an ingest error to an HTTP status and a user facing message.
func ingestStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ingest.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "file too large"
	case errors.Is(err, ingest.ErrEmptyFile):
		return http.StatusBadRequest, "file is empty"
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, "invalid file name"
	case errors.Is(err, errs.ErrStorage):
		return http.StatusBadGateway, "cannot store image, try again"
	case errors.Is(err, errs.ErrPersistence):
		return http.StatusServiceUnavailable, "cannot save upload, try again"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
