package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	loader "github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-media-dashboard/internal/server"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

func TestTelemetry_ExportsCustomCounters(t *testing.T) {
	tel, cleanup, err := server.NewTelemetry(log.DefaultLogger)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	counter, err := server.ProvideMeter(tel).Int64Counter("dashboard_test_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(tel.PrometheusRegistry, promhttp.HandlerOpts{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "dashboard_test_total"), body)
}

func TestNewMetricsServer_DisabledWithoutAddr(t *testing.T) {
	tel, cleanup, err := server.NewTelemetry(log.DefaultLogger)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	require.Nil(t, server.NewMetricsServer(loader.MetricsConfig{}, tel, log.DefaultLogger))
	require.NotNil(t, server.NewMetricsServer(loader.MetricsConfig{Addr: "127.0.0.1:0"}, tel, log.DefaultLogger))
}

func TestProvideMeter_NilTelemetry(t *testing.T) {
	require.NotNil(t, server.ProvideMeter(nil))
}
