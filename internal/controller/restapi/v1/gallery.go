package v1

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/andreyxaxa/Image-Captioner/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Image-Captioner/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/gofiber/fiber/v2"
)

const galleryUnavailable = "cannot load gallery"

var (
	//go:embed web/index.html
	webFiles embed.FS

	galleryTmpl = template.Must(template.ParseFS(webFiles, "web/index.html"))
)

type galleryPage struct {
	Items []entity.GalleryItem
	Error string
}

func (r *V1) showGallery(ctx *fiber.Ctx) error {
	return r.renderGallery(ctx, http.StatusOK, "")
}

// renderGallery writes the page with an optional error banner. A failed
// gallery read is shown as an error, never as an empty gallery.
func (r *V1) renderGallery(ctx *fiber.Ctx, code int, banner string) error {
	items, err := r.gal.List(ctx.UserContext(), 0)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - renderGallery")

		code, banner = http.StatusServiceUnavailable, galleryUnavailable
	}

	var buf bytes.Buffer
	err = galleryTmpl.Execute(&buf, galleryPage{Items: items, Error: banner})
	if err != nil {
		r.logger.Error(err, "restapi - v1 - renderGallery - galleryTmpl.Execute")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with load UI")
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return ctx.Status(code).Send(buf.Bytes())
}

func (r *V1) listGallery(ctx *fiber.Ctx) error {
	limit := 0
	if s := ctx.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > validate.MaxGalleryLimit {
			return errorResponse(ctx, http.StatusBadRequest, "limit must be between 0 and "+strconv.Itoa(validate.MaxGalleryLimit))
		}
		limit = n
	}

	items, err := r.gal.List(ctx.UserContext(), limit)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - listGallery")

		return errorResponse(ctx, http.StatusServiceUnavailable, galleryUnavailable)
	}

	return ctx.Status(http.StatusOK).JSON(response.Gallery{Items: items, Count: len(items)})
}
