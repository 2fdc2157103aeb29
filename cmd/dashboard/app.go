package main

import (
	"context"
	"os"

	loader "github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-media-dashboard/internal/repositories"
	"github.com/bionicotaku/lingo-media-dashboard/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// app 聚合 CLI 命令需要的服务。
type app struct {
	resources *services.ResourceService
	uploads   *services.UploadService
	progress  *repositories.ProgressChannel
	metrics   *khttp.Server
	log       *log.Helper
}

func newApp(resources *services.ResourceService, uploads *services.UploadService, progress *repositories.ProgressChannel, metrics *khttp.Server, logger log.Logger) *app {
	return &app{
		resources: resources,
		uploads:   uploads,
		progress:  progress,
		metrics:   metrics,
		log:       log.NewHelper(logger),
	}
}

// serveMetrics 在配置了监听地址时运行指标端点，直到 ctx 结束。
func (a *app) serveMetrics(ctx context.Context) error {
	if a.metrics == nil {
		return nil
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.metrics.Start(ctx)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return a.metrics.Stop(context.Background())
	}
}

// options 为全局命令行参数。
type options struct {
	confPath string
	endpoint string
	logLevel string
}

// build 加载配置并通过 Wire 组装依赖。
func (o *options) build() (*app, func(), error) {
	if o.endpoint != "" {
		if err := os.Setenv("DASHBOARD_API_ENDPOINT", o.endpoint); err != nil {
			return nil, nil, err
		}
	}
	bundle, err := loader.Build(loader.Params{ConfPath: o.confPath, Optional: o.confPath == ""})
	if err != nil {
		return nil, nil, err
	}
	if Name != "" {
		bundle.Service.Name = Name
		bundle.Log.Service = Name
	}
	if Version != "" {
		bundle.Service.Version = Version
		bundle.Log.Version = Version
	}
	if o.logLevel != "" {
		bundle.Log.Level = o.logLevel
	}
	return wireApp(bundle)
}
