package backend

import (
	"log/slog"
	"net/http"

	"github.com/jo-hoe/cartoonize/internal/core"
	"github.com/jo-hoe/cartoonize/internal/metrics"
	"github.com/labstack/echo/v4"
)

const (
	ProbePath   = "/probe"
	MetricsPath = "/metrics"
)

// APIService serves the operational endpoints next to the web pages.
type APIService struct {
	coreService *core.CoreService
}

func NewAPIService(coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET(ProbePath, s.probeHandler)
	e.GET(MetricsPath, metrics.Handler())
}

func (s *APIService) probeHandler(ctx echo.Context) error {
	if err := s.coreService.Ready(ctx.Request().Context()); err != nil {
		slog.Warn("probeHandler: not ready", "status", http.StatusServiceUnavailable, "error", err)
		return ctx.String(http.StatusServiceUnavailable, "Database unavailable")
	}
	return ctx.String(http.StatusOK, "Cartoonize service is running")
}
