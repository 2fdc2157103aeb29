// Package api 封装对媒体后端 REST API 的访问：带 Bearer 认证的 kratos HTTP 客户端，
// 以及按资源类型划分的类型化门面 ResourceClient。
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	loader "github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-media-dashboard/internal/server"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	kmetrics "github.com/go-kratos/kratos/v2/middleware/metrics"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"golang.org/x/oauth2"
)

// NewHTTPClient builds the shared kratos HTTP client for the dashboard API with common middlewares applied.
// The Bearer token is attached by an oauth2 transport; requests are sent without it when no token is configured.
func NewHTTPClient(cfg loader.APIConfig, tel *server.Telemetry, logger log.Logger) (*khttp.Client, func(), error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, nil, errors.New("api: endpoint is required")
	}
	// Invoke 只使用 scheme 与 host，端点中的路径前缀会被静默丢弃。
	parsed, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("api: parse endpoint: %w", err)
	}
	if parsed.Path != "" && parsed.Path != "/" {
		return nil, nil, fmt.Errorf("api: endpoint must not contain a path, got %q", parsed.Path)
	}
	helper := log.NewHelper(logger)

	base := http.DefaultTransport.(*http.Transport).Clone()
	var transport http.RoundTripper = base
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			Base:   base,
		}
	} else {
		helper.Warn("api token not configured; requests will be sent unauthenticated")
	}

	mws := []middleware.Middleware{
		recovery.Recovery(),
		logging.Client(logger),
	}
	if tel != nil {
		mws = append(mws, kmetrics.Client(
			kmetrics.WithRequests(tel.RequestCounter),
			kmetrics.WithSeconds(tel.SecondsHistogram),
		))
	}

	opts := []khttp.ClientOption{
		khttp.WithEndpoint(cfg.Endpoint),
		khttp.WithTimeout(cfg.Timeout),
		khttp.WithTransport(transport),
		khttp.WithMiddleware(mws...),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, khttp.WithUserAgent(cfg.UserAgent))
	}
	if strings.HasPrefix(strings.ToLower(cfg.Endpoint), "https://") {
		base.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		opts = append(opts, khttp.WithTLSConfig(base.TLSClientConfig))
	}

	client, err := khttp.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			helper.Errorf("close api client: %v", err)
		}
		base.CloseIdleConnections()
	}
	return client, cleanup, nil
}
