package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, route, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, route, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// FilterApplications counts filter runs by filter and result (success, error).
	FilterApplications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_applications_total",
			Help: "Total number of image filter applications by filter and result",
		},
		[]string{"filter", "result"},
	)

	// FilterDuration tracks how long a filter takes to run.
	FilterDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filter_duration_seconds",
			Help:    "Image filter duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"filter"},
	)
)

var initOnce sync.Once

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, FilterApplications, FilterDuration)
	})
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordFilter records one filter application.
func RecordFilter(filter string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	FilterApplications.WithLabelValues(filter, result).Inc()
	FilterDuration.WithLabelValues(filter).Observe(duration.Seconds())
}

// Middleware records every request except scrapes of /metrics. The route
// template is used as the path label to keep cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if ctx.Request().URL.Path == "/metrics" {
				return next(ctx)
			}

			start := time.Now()
			err := next(ctx)

			path := ctx.Path()
			if path == "" {
				path = "unmatched"
			}
			RecordRequest(ctx.Request().Method, path, responseStatus(ctx, err), time.Since(start))
			return err
		}
	}
}

// Handler exposes the default registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

func responseStatus(ctx echo.Context, err error) int {
	if err == nil {
		return ctx.Response().Status
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}
