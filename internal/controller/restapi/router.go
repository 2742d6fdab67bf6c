package restapi

import (
	"context"
	"net/http"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/controller/restapi/middleware"
	v1 "github.com/andreyxaxa/Image-Captioner/internal/controller/restapi/v1"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const _readyTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	MetricsEnabled bool
	Ready          Pinger // nil skips the readiness check
}

func NewRouter(app *fiber.App, opts Options, ing usecase.IngestUseCase, gal usecase.GalleryUseCase, l logger.Interface) {
	app.Use(recover.New())

	// Metrics
	if opts.MetricsEnabled {
		app.Use(middleware.Metrics())
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Probes
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(http.StatusOK)
	})
	app.Get("/readyz", func(ctx *fiber.Ctx) error {
		if opts.Ready == nil {
			return ctx.SendStatus(http.StatusOK)
		}

		pingCtx, cancel := context.WithTimeout(ctx.UserContext(), _readyTimeout)
		defer cancel()

		if err := opts.Ready.Ping(pingCtx); err != nil {
			l.Error(err, "restapi - readyz")

			return ctx.SendStatus(http.StatusServiceUnavailable)
		}

		return ctx.SendStatus(http.StatusOK)
	})

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewGalleryRoutes(app, apiV1Group, ing, gal, l)
	}
}
