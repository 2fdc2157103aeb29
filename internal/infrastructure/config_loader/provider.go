package loader

import (
	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/logger"

	"github.com/google/wire"
)

// ProviderSet exposes configuration-derived dependencies for Wire graphs.
var ProviderSet = wire.NewSet(
	ProvideServiceMetadata,
	ProvideAPIConfig,
	ProvidePollingConfig,
	ProvideUploadConfig,
	ProvideMetricsConfig,
	ProvideLoggerConfig,
)

// ProvideServiceMetadata returns the resolved ServiceMetadata from the bundle.
func ProvideServiceMetadata(b *Bundle) ServiceMetadata {
	if b == nil {
		return ServiceMetadata{}
	}
	return b.Service
}

// ProvideAPIConfig exposes backend API settings.
func ProvideAPIConfig(b *Bundle) APIConfig {
	if b == nil {
		return APIConfig{}
	}
	return b.API
}

// ProvidePollingConfig exposes per-kind polling intervals.
func ProvidePollingConfig(b *Bundle) PollingConfig {
	if b == nil {
		return PollingConfig{}
	}
	return b.Polling
}

// ProvideUploadConfig exposes object upload settings.
func ProvideUploadConfig(b *Bundle) UploadConfig {
	if b == nil {
		return UploadConfig{}
	}
	return b.Upload
}

// ProvideMetricsConfig exposes the metrics listener settings.
func ProvideMetricsConfig(b *Bundle) MetricsConfig {
	if b == nil {
		return MetricsConfig{}
	}
	return b.Metrics
}

// ProvideLoggerConfig converts the bundle into logger.Config.
func ProvideLoggerConfig(b *Bundle) logger.Config {
	if b == nil {
		return logger.Config{}
	}
	return b.Log
}
