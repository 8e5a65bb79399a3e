package backend

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jo-hoe/cartoonize/internal/core"
	"github.com/labstack/echo/v4"
)

func newTestAPI(t *testing.T) (*echo.Echo, *core.CoreService) {
	t.Helper()

	cfg := core.DefaultConfig()
	cfg.Database = core.Database{Type: "sqlite", ConnectionString: ":memory:"}
	cfg.UploadDir = t.TempDir()

	coreService, err := core.NewCoreService(cfg)
	if err != nil {
		t.Fatalf("NewCoreService error: %v", err)
	}

	e := echo.New()
	NewAPIService(coreService).SetRoutes(e)
	return e, coreService
}

func TestProbe(t *testing.T) {
	e, coreService := newTestAPI(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ProbePath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if err := coreService.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ProbePath, nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after close, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e, coreService := newTestAPI(t)
	t.Cleanup(func() { _ = coreService.Close() })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected default collectors in metrics output")
	}
}
