package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/api"
	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/reporting"
	"github.com/bionicotaku/lingo-media-dashboard/internal/metadata"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/vo"
	"github.com/bionicotaku/lingo-media-dashboard/internal/repositories"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultUploadMimetype = "application/octet-stream"

// UploadTarget 抽象某一资源类型在上传前的两步交互：确认对象存在、申请直传目标。
type UploadTarget interface {
	Describe(ctx context.Context, id string) (*po.Descriptor, error)
	InitiateUpload(ctx context.Context, id string, in po.InitiateUploadInput) (*po.UploadPolicy, error)
}

// UploadTargets 按资源类型索引 UploadTarget。
type UploadTargets map[po.ResourceKind]UploadTarget

// UploadTransport 将文件字节发送到直传目标，发送过程中回调 (已发送, 总量)。
type UploadTransport interface {
	Upload(ctx context.Context, policy *po.UploadPolicy, file po.UploadFile, onProgress func(sent, total int64)) error
}

// ProgressTracker 为上传会话维护进度条目，由 repositories.ProgressChannel 实现。
type ProgressTracker interface {
	Begin(id string)
	Clear(id string)
	Sink(id string) repositories.ProgressSink
}

// StatusSetter 接收上传状态变化。
type StatusSetter interface {
	SetStatus(status vo.UploadStatus)
}

// StatusSetterFunc 适配普通函数为 StatusSetter。
type StatusSetterFunc func(status vo.UploadStatus)

// SetStatus 实现 StatusSetter。
func (f StatusSetterFunc) SetStatus(status vo.UploadStatus) {
	if f != nil {
		f(status)
	}
}

// UploadRequest 描述一次上传。Status 与 Observer 均可为空。
type UploadRequest struct {
	Kind     po.ResourceKind
	ID       string
	File     po.UploadFile
	Status   StatusSetter
	Observer repositories.ProgressSink
}

// UploadService 驱动单个对象完成 描述 → 申请策略 → 直传 的流程。
//
// 结果只通过状态回调、进度通道与返回值传达；不读写 ResourceStore，
// 上传成功后的处理状态跟踪由调用方另行启动轮询。
type UploadService struct {
	targets   UploadTargets
	transport UploadTransport
	progress  ProgressTracker
	reporter  reporting.Reporter
	log       *log.Helper
	metrics   *uploadMetrics
	now       func() time.Time
}

// NewUploadService 创建 UploadService。
func NewUploadService(targets UploadTargets, transport UploadTransport, progress ProgressTracker, reporter reporting.Reporter, meter metric.Meter, logger log.Logger) (*UploadService, error) {
	switch {
	case len(targets) == 0:
		return nil, errors.New("upload service: targets are required")
	case transport == nil:
		return nil, errors.New("upload service: transport is required")
	case progress == nil:
		return nil, errors.New("upload service: progress tracker is required")
	}
	if reporter == nil {
		reporter = reporting.ReporterFunc(nil)
	}
	helper := log.NewHelper(logger)
	return &UploadService{
		targets:   targets,
		transport: transport,
		progress:  progress,
		reporter:  reporter,
		log:       helper,
		metrics:   newUploadMetrics(meter, helper),
		now:       time.Now,
	}, nil
}

// ProvideUploadTargets 以 API 客户端构造全部类型的 UploadTarget。
func ProvideUploadTargets(clients *api.Clients) UploadTargets {
	return UploadTargets{
		po.KindVideos:          clients.Videos,
		po.KindThumbnails:      clients.Thumbnails,
		po.KindDocuments:       clients.Documents,
		po.KindTimedTextTracks: clients.TimedTextTracks,
	}
}

// Upload 执行一次上传并返回最终状态。错误不会越过边界：不可恢复的失败上报一次后以状态返回。
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) vo.UploadStatus {
	ctx = metadata.Inject(ctx, metadata.SessionMetadata{
		Kind:       string(req.Kind),
		ResourceID: req.ID,
		Token:      uuid.New(),
	})
	started := s.now()
	status := s.run(ctx, req)
	s.metrics.record(ctx, req.Kind, status, req.File.Size, s.now().Sub(started))
	return status
}

func (s *UploadService) run(ctx context.Context, req UploadRequest) vo.UploadStatus {
	setStatus := func(status vo.UploadStatus) vo.UploadStatus {
		if req.Status != nil {
			req.Status.SetStatus(status)
		}
		return status
	}

	target, ok := s.targets[req.Kind]
	if !ok || req.ID == "" || req.File.Body == nil {
		s.reporter.Report(ctx, kerrors.BadRequest(vo.ErrorReasonInvalidArgument.String(),
			fmt.Sprintf("invalid upload request: kind=%q id=%q", req.Kind, req.ID)))
		return setStatus(vo.UploadStatusError)
	}

	descriptor, err := target.Describe(ctx, req.ID)
	if err != nil {
		if kerrors.IsNotFound(err) {
			s.log.WithContext(ctx).Warnf("upload target not found: kind=%s id=%s", req.Kind, req.ID)
			return setStatus(vo.UploadStatusNotFoundError)
		}
		s.reportUnlessCancelled(ctx, err)
		return setStatus(vo.UploadStatusError)
	}

	mimetype := req.File.ContentType
	if mimetype == "" {
		mimetype = defaultUploadMimetype
	}
	policy, err := target.InitiateUpload(ctx, descriptor.ID, po.InitiateUploadInput{
		Filename: req.File.Name,
		Mimetype: mimetype,
	})
	if err != nil {
		if isCancellation(ctx, err) {
			return setStatus(vo.UploadStatusError)
		}
		s.reporter.Report(ctx, err)
		return setStatus(vo.UploadStatusPolicyError)
	}

	setStatus(vo.UploadStatusUploading)
	s.progress.Begin(req.ID)
	sink := s.progress.Sink(req.ID)
	onProgress := func(sent, total int64) {
		if total <= 0 {
			return
		}
		percent := int(sent * 100 / total)
		sink.OnProgress(percent)
		if req.Observer != nil {
			req.Observer.OnProgress(percent)
		}
	}

	if err := s.transport.Upload(ctx, policy, req.File, onProgress); err != nil {
		s.progress.Clear(req.ID)
		s.log.WithContext(ctx).Warnf("upload transport failed: kind=%s id=%s err=%v", req.Kind, req.ID, err)
		s.reportUnlessCancelled(ctx, err)
		return setStatus(vo.UploadStatusError)
	}

	s.progress.Clear(req.ID)
	s.log.WithContext(ctx).Infof("upload finished: kind=%s id=%s bytes=%d", req.Kind, req.ID, req.File.Size)
	return setStatus(vo.UploadStatusSuccess)
}

func (s *UploadService) reportUnlessCancelled(ctx context.Context, err error) {
	if isCancellation(ctx, err) {
		s.log.WithContext(ctx).Warnf("upload cancelled: %v", err)
		return
	}
	s.reporter.Report(ctx, err)
}

func isCancellation(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)
}

type uploadMetrics struct {
	outcomes metric.Int64Counter
	bytes    metric.Int64Counter
	duration metric.Float64Histogram
	enabled  bool
}

const (
	metricNameUploadOutcome  = "dashboard_upload_total"
	metricNameUploadBytes    = "dashboard_upload_bytes_total"
	metricNameUploadDuration = "dashboard_upload_duration_ms"
)

func newUploadMetrics(meter metric.Meter, helper *log.Helper) *uploadMetrics {
	m := &uploadMetrics{}
	if meter == nil {
		return m
	}
	var err error
	if m.outcomes, err = meter.Int64Counter(metricNameUploadOutcome,
		metric.WithDescription("Number of uploads by final status")); err != nil {
		helper.Warnf("upload metrics: register outcome counter: %v", err)
		return m
	}
	if m.bytes, err = meter.Int64Counter(metricNameUploadBytes,
		metric.WithDescription("Bytes sent by successful uploads"), metric.WithUnit("By")); err != nil {
		helper.Warnf("upload metrics: register bytes counter: %v", err)
	}
	if m.duration, err = meter.Float64Histogram(metricNameUploadDuration,
		metric.WithDescription("Upload duration from describe to final status"), metric.WithUnit("ms")); err != nil {
		helper.Warnf("upload metrics: register duration histogram: %v", err)
	}
	m.enabled = true
	return m
}

func (m *uploadMetrics) record(ctx context.Context, kind po.ResourceKind, status vo.UploadStatus, size int64, elapsed time.Duration) {
	if m == nil || !m.enabled {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("status", string(status)),
	)
	m.outcomes.Add(ctx, 1, attrs)
	if m.bytes != nil && status == vo.UploadStatusSuccess && size > 0 {
		m.bytes.Add(ctx, size, metric.WithAttributes(attribute.String("kind", string(kind))))
	}
	if m.duration != nil {
		m.duration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	}
}
