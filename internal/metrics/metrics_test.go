// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/oliverandrich/chatroom-api/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndExpose(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	collector.Record(http.MethodGet, http.StatusOK, 5*time.Millisecond)
	collector.Record(http.MethodGet, http.StatusOK, 7*time.Millisecond)
	collector.Record(http.MethodPost, http.StatusNotFound, time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	metrics.Handler(registry).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `chatroom_http_requests_total{method="GET",status="200"} 2`)
	assert.Contains(t, body, `chatroom_http_requests_total{method="POST",status="404"} 1`)
	assert.Contains(t, body, "chatroom_http_request_duration_seconds_count 3")
}

func TestMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	e := echo.New()
	e.Use(metrics.Middleware(collector))
	e.GET("/ping", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	metrics.Handler(registry).ServeHTTP(metricsRec, req)
	assert.Contains(t, metricsRec.Body.String(),
		`chatroom_http_requests_total{method="GET",status="200"} 1`)
}
