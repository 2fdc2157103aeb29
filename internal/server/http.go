package server

import (
	stdhttp "net/http"

	loader "github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/config_loader"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMetricsServer 构造暴露 /metrics 与 /healthz 的 HTTP Server。
// 未配置监听地址时返回 nil，调用方据此跳过启动。
func NewMetricsServer(c loader.MetricsConfig, t *Telemetry, logger log.Logger) *http.Server {
	if c.Addr == "" || t == nil {
		return nil
	}
	srv := http.NewServer(
		http.Address(c.Addr),
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	)

	srv.Handle("/metrics", promhttp.HandlerFor(t.PrometheusRegistry, promhttp.HandlerOpts{}))
	srv.Handle("/healthz", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
	}))
	return srv
}
