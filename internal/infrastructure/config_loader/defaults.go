package loader

import "time"

const (
	// defaultConfPath is the fallback configuration directory when no overrides are provided.
	defaultConfPath = "configs"
	// defaultEnvironment is used when APP_ENV is missing.
	defaultEnvironment = "development"
	// defaultServiceName labels logs and metrics when SERVICE_NAME is unset.
	defaultServiceName = "media-dashboard"
	// defaultServiceVersion is used when SERVICE_VERSION is unset.
	defaultServiceVersion = "dev"

	defaultAPITimeout      = 10 * time.Second
	defaultUserAgent       = "lingo-media-dashboard"
	defaultLogLevel        = "info"
	defaultUploadChunkSize = 8 << 20
)

// defaultPollIntervals 为各资源类型的轮询间隔：视频转码较慢，文档/缩略图/字幕较快。
var defaultPollIntervals = map[string]time.Duration{
	"videos":          60 * time.Second,
	"documents":       10 * time.Second,
	"thumbnails":      10 * time.Second,
	"timedtexttracks": 10 * time.Second,
}
