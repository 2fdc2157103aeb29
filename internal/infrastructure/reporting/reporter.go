// Package reporting 提供统一的错误上报出口，轮询与上传失败都经由此处记录。
package reporting

import (
	"context"
	"errors"
	"sync"

	"github.com/bionicotaku/lingo-media-dashboard/internal/metadata"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const metricNameReportedErrors = "dashboard_reported_errors_total"

// Reporter 接收需要上报的错误。实现必须是并发安全的。
type Reporter interface {
	Report(ctx context.Context, err error)
}

// ReporterFunc 适配普通函数为 Reporter。
type ReporterFunc func(ctx context.Context, err error)

// Report 实现 Reporter。
func (f ReporterFunc) Report(ctx context.Context, err error) {
	if f != nil {
		f(ctx, err)
	}
}

// LogReporter 将错误写入结构化日志并累加计数器。
type LogReporter struct {
	log     *log.Helper
	counter metric.Int64Counter
}

// NewLogReporter 构造 LogReporter；meter 为空时仅记录日志。
func NewLogReporter(logger log.Logger, meter metric.Meter) *LogReporter {
	helper := log.NewHelper(logger)
	r := &LogReporter{log: helper}
	if meter == nil {
		return r
	}
	counter, err := meter.Int64Counter(metricNameReportedErrors,
		metric.WithDescription("Number of errors reported by polling and upload sessions"))
	if err != nil {
		helper.Warnf("reporting metrics: register counter: %v", err)
		return r
	}
	r.counter = counter
	return r
}

// Report 记录错误。会话信息（kind/id/token）从 Context 中读取。
func (r *LogReporter) Report(ctx context.Context, err error) {
	if r == nil || err == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	meta, _ := metadata.FromContext(ctx)
	reason := reasonOf(err)

	r.log.WithContext(ctx).Errorw(
		"msg", "dashboard error reported",
		"kind", meta.Kind,
		"resource_id", meta.ResourceID,
		"reason", reason,
		"error", err,
	)
	if r.counter != nil {
		r.counter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", meta.Kind),
			attribute.String("reason", reason),
		))
	}
}

func reasonOf(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if se := kerrors.FromError(err); se != nil && se.Reason != "" {
		return se.Reason
	}
	return "unknown"
}

// Recorder 在内存中收集上报的错误，用于测试与 CLI 汇总。
type Recorder struct {
	mu   sync.Mutex
	errs []error
}

// Report 实现 Reporter。
func (r *Recorder) Report(_ context.Context, err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// Errors 返回已记录错误的副本。
func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Len 返回已记录的错误数量。
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

// Tee 将错误同时分发给多个 Reporter。
func Tee(reporters ...Reporter) Reporter {
	return ReporterFunc(func(ctx context.Context, err error) {
		for _, r := range reporters {
			if r != nil {
				r.Report(ctx, err)
			}
		}
	})
}
