package loader

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/logger"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/joho/godotenv"
)

const (
	envConfPath       = "CONF_PATH"
	envServiceName    = "SERVICE_NAME"
	envServiceVersion = "SERVICE_VERSION"
	envAppEnv         = "APP_ENV"
	envAPIEndpoint    = "DASHBOARD_API_ENDPOINT"
	envAPIToken       = "DASHBOARD_TOKEN"
	envLogLevel       = "DASHBOARD_LOG_LEVEL"
	envMetricsAddr    = "DASHBOARD_METRICS_ADDR"
)

var envFileNames = []string{".env.local", ".env"}

// Params 包含构造配置 Bundle 所需的运行时输入参数。
type Params struct {
	ConfPath string // 配置文件路径（可为空，使用默认值）
	// Optional 为 true 时配置文件缺失不视为错误，仅使用默认值与环境变量。
	Optional bool
}

// ServiceMetadata 保存服务标识信息，供日志和指标使用。
type ServiceMetadata struct {
	Name        string
	Version     string
	Environment string
	InstanceID  string
}

// APIConfig 描述后端 API 访问参数。
type APIConfig struct {
	Endpoint  string
	Token     string
	Timeout   time.Duration
	UserAgent string
}

// PollingConfig 描述各资源类型的固定轮询间隔。
type PollingConfig struct {
	Intervals map[po.ResourceKind]time.Duration
}

// Interval 返回指定类型的轮询间隔。
func (p PollingConfig) Interval(kind po.ResourceKind) time.Duration {
	if d, ok := p.Intervals[kind]; ok && d > 0 {
		return d
	}
	return defaultPollIntervals[string(kind)]
}

// UploadConfig 描述直传参数。
type UploadConfig struct {
	Timeout        time.Duration
	ChunkSize      int
	GCSCredentials string
	GCSEndpoint    string
}

// MetricsConfig 描述 Prometheus 指标暴露参数，Addr 为空时不启动监听。
type MetricsConfig struct {
	Addr string
}

// Bundle 聚合强类型的配置片段，供下游 Wire 注入使用。
type Bundle struct {
	Service ServiceMetadata
	API     APIConfig
	Polling PollingConfig
	Upload  UploadConfig
	Metrics MetricsConfig
	Log     logger.Config
}

// BuildError 捕获配置构建过程中的上下文错误信息。
type BuildError struct {
	Stage string
	Path  string
	Err   error
}

// Error 实现 error 接口，提供包含上下文的错误信息。
func (e BuildError) Error() string {
	if e.Stage == "" {
		return e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("config %s at %q: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Stage, e.Err)
}

// Unwrap 暴露底层错误，支持 errors.Is/As 链式查询。
func (e BuildError) Unwrap() error {
	return e.Err
}

// LoggerConfig 将服务元信息与日志级别转换为 logger.Config。
func (m ServiceMetadata) LoggerConfig(level string) logger.Config {
	return logger.Config{
		Service: m.Name,
		Version: m.Version,
		HostID:  m.InstanceID,
		Env:     m.Environment,
		Level:   level,
	}
}

// fileConfig 为 YAML 文件的原始结构，时长以字符串表示（如 "10s"）。
type fileConfig struct {
	API struct {
		Endpoint  string `json:"endpoint"`
		Token     string `json:"token"`
		Timeout   string `json:"timeout"`
		UserAgent string `json:"user_agent"`
	} `json:"api"`
	Polling struct {
		Intervals map[string]string `json:"intervals"`
	} `json:"polling"`
	Upload struct {
		Timeout        string `json:"timeout"`
		ChunkSize      int    `json:"chunk_size"`
		GCSCredentials string `json:"gcs_credentials"`
		GCSEndpoint    string `json:"gcs_endpoint"`
	} `json:"upload"`
	Log struct {
		Level string `json:"level"`
	} `json:"log"`
	Metrics struct {
		Addr string `json:"addr"`
	} `json:"metrics"`
}

// Build 从配置文件构建 Bundle。
//
// 流程：
// 1. 解析配置路径（显式参数 > CONF_PATH > configs）
// 2. best-effort 加载 .env / .env.local
// 3. 读取 YAML 并应用环境变量覆盖
// 4. 转换为强类型配置并校验
func Build(params Params) (*Bundle, error) {
	confPath := ResolveConfPath(params.ConfPath)
	loadEnvFiles(confPath)

	raw, err := loadFile(confPath, params.Optional)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(raw)

	bundle, err := toBundle(raw)
	if err != nil {
		return nil, BuildError{Stage: "convert", Path: confPath, Err: err}
	}
	if err := validate(bundle); err != nil {
		return nil, BuildError{Stage: "validate", Path: confPath, Err: err}
	}
	return bundle, nil
}

// ResolveConfPath 应用回退规则确定要加载的配置目录/文件路径。
// 优先级：显式传入路径 > CONF_PATH 环境变量 > 默认路径。
func ResolveConfPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(envConfPath); env != "" {
		return env
	}
	return defaultConfPath
}

// loadFile 使用 Kratos config 读取 YAML/JSON 文件。
// 错误阶段："load" 文件读取失败，"scan" 解析失败。
func loadFile(confPath string, optional bool) (*fileConfig, error) {
	raw := &fileConfig{}
	if _, err := os.Stat(confPath); err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return nil, BuildError{Stage: "load", Path: confPath, Err: err}
	}

	c := config.New(config.WithSource(file.NewSource(confPath)))
	if err := c.Load(); err != nil {
		return nil, BuildError{Stage: "load", Path: confPath, Err: err}
	}
	defer c.Close()

	if err := c.Scan(raw); err != nil {
		return nil, BuildError{Stage: "scan", Path: confPath, Err: err}
	}
	return raw, nil
}

// applyEnvOverrides 应用环境变量覆盖配置文件中的字段，环境变量为空时保留原值。
// Token 一般只通过 DASHBOARD_TOKEN 注入，不写入配置文件。
func applyEnvOverrides(raw *fileConfig) {
	if raw == nil {
		return
	}
	if endpoint := os.Getenv(envAPIEndpoint); endpoint != "" {
		raw.API.Endpoint = endpoint
	}
	if token := os.Getenv(envAPIToken); token != "" {
		raw.API.Token = token
	}
	if level := os.Getenv(envLogLevel); level != "" {
		raw.Log.Level = level
	}
	if addr := os.Getenv(envMetricsAddr); addr != "" {
		raw.Metrics.Addr = addr
	}
}

func toBundle(raw *fileConfig) (*Bundle, error) {
	apiTimeout, err := parseDuration(raw.API.Timeout, defaultAPITimeout)
	if err != nil {
		return nil, fmt.Errorf("api.timeout: %w", err)
	}
	uploadTimeout, err := parseDuration(raw.Upload.Timeout, 0)
	if err != nil {
		return nil, fmt.Errorf("upload.timeout: %w", err)
	}

	intervals := make(map[po.ResourceKind]time.Duration, len(defaultPollIntervals))
	for kind, d := range defaultPollIntervals {
		intervals[po.ResourceKind(kind)] = d
	}
	for name, value := range raw.Polling.Intervals {
		kind, err := po.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("polling.intervals: %w", err)
		}
		d, err := parseDuration(value, 0)
		if err != nil {
			return nil, fmt.Errorf("polling.intervals.%s: %w", name, err)
		}
		if d > 0 {
			intervals[kind] = d
		}
	}

	chunkSize := raw.Upload.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultUploadChunkSize
	}
	meta := buildServiceMetadata()
	level := firstNonEmpty(raw.Log.Level, defaultLogLevel)

	return &Bundle{
		Service: meta,
		API: APIConfig{
			Endpoint:  strings.TrimRight(strings.TrimSpace(raw.API.Endpoint), "/"),
			Token:     strings.TrimSpace(raw.API.Token),
			Timeout:   apiTimeout,
			UserAgent: firstNonEmpty(raw.API.UserAgent, defaultUserAgent),
		},
		Polling: PollingConfig{Intervals: intervals},
		Upload: UploadConfig{
			Timeout:        uploadTimeout,
			ChunkSize:      chunkSize,
			GCSCredentials: raw.Upload.GCSCredentials,
			GCSEndpoint:    raw.Upload.GCSEndpoint,
		},
		Metrics: MetricsConfig{Addr: strings.TrimSpace(raw.Metrics.Addr)},
		Log:     meta.LoggerConfig(level),
	}, nil
}

func validate(b *Bundle) error {
	if b.API.Endpoint == "" {
		return fmt.Errorf("api.endpoint is required (set %s)", envAPIEndpoint)
	}
	parsed, err := url.Parse(b.API.Endpoint)
	if err != nil {
		return fmt.Errorf("api.endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.endpoint must use http or https, got %q", b.API.Endpoint)
	}
	if parsed.Path != "" && parsed.Path != "/" {
		return fmt.Errorf("api.endpoint must not contain a path, got %q", parsed.Path)
	}
	if b.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	return nil
}

// buildServiceMetadata 构建服务元信息：环境变量优先，缺省回退到默认值。
func buildServiceMetadata() ServiceMetadata {
	host, _ := os.Hostname()
	return ServiceMetadata{
		Name:        firstNonEmpty(os.Getenv(envServiceName), defaultServiceName),
		Version:     firstNonEmpty(os.Getenv(envServiceVersion), defaultServiceVersion),
		Environment: firstNonEmpty(os.Getenv(envAppEnv), defaultEnvironment),
		InstanceID:  host,
	}
}

// loadEnvFiles best-effort 加载配置相关的 .env 文件，失败时忽略以保持幂等。
func loadEnvFiles(confPath string) {
	files := envFileCandidates(confPath)
	if len(files) == 0 {
		return
	}
	_ = godotenv.Load(files...)
}

// envFileCandidates 依次在配置目录与当前工作目录中查找 .env.local、.env。
// godotenv 不覆盖已存在的变量，因此列表越靠前优先级越高。
func envFileCandidates(confPath string) []string {
	seen := make(map[string]struct{})
	var files []string
	for _, dir := range orderedDirs(confPath) {
		for _, name := range envFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			files = append(files, candidate)
			seen[candidate] = struct{}{}
		}
	}
	return files
}

// orderedDirs 返回 confPath 所在目录与当前工作目录（去重）。
func orderedDirs(confPath string) []string {
	var dirs []string
	appendUnique := func(path string) {
		if path == "" {
			return
		}
		clean := filepath.Clean(path)
		for _, existing := range dirs {
			if existing == clean {
				return
			}
		}
		dirs = append(dirs, clean)
	}

	if confPath != "" {
		if info, err := os.Stat(confPath); err == nil {
			if info.IsDir() {
				appendUnique(confPath)
			} else {
				appendUnique(filepath.Dir(confPath))
			}
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		appendUnique(cwd)
	}
	return dirs
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", value)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
