package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/uploads/*", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	before := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/uploads/*", "200"))

	req := httptest.NewRequest(http.MethodGet, "/uploads/abc/photo.png", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	after := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/uploads/*", "200"))
	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestMiddleware_RecordsErrorStatus(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad")
	})

	before := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/boom", "400"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	after := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/boom", "400"))
	if after-before != 1 {
		t.Errorf("expected 400 counter to increase by 1, got %v", after-before)
	}
}

func TestRecordFilter(t *testing.T) {
	okBefore := testutil.ToFloat64(FilterApplications.WithLabelValues("grayscale", "success"))
	errBefore := testutil.ToFloat64(FilterApplications.WithLabelValues("grayscale", "error"))

	RecordFilter("grayscale", 10*time.Millisecond, nil)
	RecordFilter("grayscale", 10*time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(FilterApplications.WithLabelValues("grayscale", "success")) - okBefore; got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(FilterApplications.WithLabelValues("grayscale", "error")) - errBefore; got != 1 {
		t.Errorf("expected 1 error, got %v", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	RecordFilter("cartoon", time.Millisecond, nil)

	e := echo.New()
	e.GET("/metrics", Handler())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "filter_applications_total") {
		t.Error("expected filter_applications_total in output")
	}
}
