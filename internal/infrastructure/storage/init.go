package storage

import (
	"net/http"

	loader "github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/gcs"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProvideHTTPUploader 根据上传配置构造 HTTPUploader；Timeout 为 0 表示不限时。
func ProvideHTTPUploader(cfg loader.UploadConfig, logger log.Logger) *HTTPUploader {
	return NewHTTPUploader(&http.Client{Timeout: cfg.Timeout}, logger)
}

// ProvideGCSUploader 构造延迟初始化的 GCS 上传器。
func ProvideGCSUploader(cfg loader.UploadConfig, logger log.Logger) *gcs.Uploader {
	return gcs.NewUploader(logger,
		gcs.WithCredentialsFile(cfg.GCSCredentials),
		gcs.WithEndpoint(cfg.GCSEndpoint),
		gcs.WithChunkSize(cfg.ChunkSize),
	)
}

// ProvideTransport 组装 Transport，并在清理时关闭 GCS 客户端。
func ProvideTransport(httpUploader *HTTPUploader, gcsUploader *gcs.Uploader, logger log.Logger) (*Transport, func()) {
	t := NewTransport(httpUploader, gcsUploader)
	return t, func() {
		if err := t.Close(); err != nil {
			log.NewHelper(logger).Warnf("close storage transport: %v", err)
		}
	}
}

// ProviderSet bundles upload transport providers for Wire.
var ProviderSet = wire.NewSet(ProvideHTTPUploader, ProvideGCSUploader, ProvideTransport)
