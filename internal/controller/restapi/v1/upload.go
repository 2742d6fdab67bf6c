package v1

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/andreyxaxa/Image-Captioner/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Image-Captioner/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/gofiber/fiber/v2"
)

type uploadError struct {
	code int
	msg  string
}

// ingestForm validates the multipart "file" field and hands it to ingest.
func (r *V1) ingestForm(ctx *fiber.Ctx) (*entity.UploadRecord, *uploadError) {
	file, err := ctx.FormFile("file")
	if err != nil {
		return nil, &uploadError{http.StatusBadRequest, "file is required"}
	}

	// 1. валидация размера
	if file.Size == 0 {
		return nil, &uploadError{http.StatusBadRequest, "file is empty"}
	}
	if file.Size > validate.MaxFileSize {
		return nil, &uploadError{http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file size cant be more than %d bytes", validate.MaxFileSize)}
	}

	// 2. валидация content type и расширения
	contentType := file.Header.Get(fiber.HeaderContentType)
	if contentType != "" && contentType != "application/octet-stream" && !validate.AllowedContentTypes[contentType] {
		return nil, &uploadError{http.StatusUnsupportedMediaType, "unsupported file type. Allowed: jpeg, png, gif, bmp, tiff"}
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != "" && !validate.AllowedExtensions[ext] {
		return nil, &uploadError{http.StatusUnsupportedMediaType, "unsupported file extension"}
	}

	// 3. чтение файла
	data, err := readFile(file)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - ingestForm")

		return nil, &uploadError{http.StatusInternalServerError, "problems with opening the file"}
	}

	// 4. загружаем
	record, err := r.ing.Ingest(ctx.UserContext(), file.Filename, contentType, data)
	if err != nil {
		code, msg := ingestStatus(err)
		if code >= http.StatusInternalServerError {
			r.logger.Error(err, "restapi - v1 - ingestForm")
		}

		return nil, &uploadError{code, msg}
	}

	return record, nil
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("readFile - file.Open: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("readFile - io.ReadAll: %w", err)
	}

	return data, nil
}

// uploadForm serves the HTML form: success redirects back to the gallery.
func (r *V1) uploadForm(ctx *fiber.Ctx) error {
	_, uerr := r.ingestForm(ctx)
	if uerr != nil {
		return r.renderGallery(ctx, uerr.code, uerr.msg)
	}

	return ctx.Redirect("/", http.StatusSeeOther)
}

func (r *V1) upload(ctx *fiber.Ctx) error {
	record, uerr := r.ingestForm(ctx)
	if uerr != nil {
		return errorResponse(ctx, uerr.code, uerr.msg)
	}

	resp := response.Upload{
		ImageKey:    record.ImageKey,
		Status:      string(record.Status),
		ContentType: record.ContentType,
		Size:        record.Size,
		UploadedAt:  record.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	return ctx.Status(http.StatusAccepted).JSON(resp)
}
