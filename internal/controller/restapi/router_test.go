package restapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andreyxaxa/Image-Captioner/internal/repo/memory"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase/gallery"
	"github.com/andreyxaxa/Image-Captioner/internal/usecase/ingest"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newApp(opts Options) *fiber.App {
	l := logger.NewWithWriter("error", io.Discard)
	blobs, records := memory.NewBlobRepo(""), memory.NewRecordRepo()

	app := fiber.New()
	NewRouter(app, opts,
		ingest.New(blobs, records, memory.NewOutboxRepo(), memory.NewTransactor(), l),
		gallery.New(records, blobs),
		l,
	)

	return app
}

func status(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)

	return resp.StatusCode, string(b)
}

func TestProbes(t *testing.T) {
	app := newApp(Options{Ready: pinger{}})
	if code, _ := status(t, app, "/healthz"); code != http.StatusOK {
		t.Errorf("healthz = %d", code)
	}
	if code, _ := status(t, app, "/readyz"); code != http.StatusOK {
		t.Errorf("readyz = %d", code)
	}

	down := newApp(Options{Ready: pinger{err: errors.New("db down")}})
	if code, _ := status(t, down, "/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("readyz with db down = %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newApp(Options{MetricsEnabled: true})

	status(t, app, "/v1/gallery")

	code, body := status(t, app, "/metrics")
	if code != http.StatusOK {
		t.Fatalf("metrics = %d", code)
	}
	if !strings.Contains(body, "captioner_http_requests_total") {
		t.Error("Expected http request counter in metrics output")
	}
}

func TestMetricsDisabled(t *testing.T) {
	app := newApp(Options{})
	if code, _ := status(t, app, "/metrics"); code != http.StatusNotFound {
		t.Errorf("Expected 404 without metrics, got %d", code)
	}
}
