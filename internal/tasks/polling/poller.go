// Package polling 实现按固定间隔拉取资源状态的轮询器：结果写入 ResourceStore，
// 到达终态、拉取失败或调用方取消时停止。每个 (kind, id) 同时至多一个会话。
package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/reporting"
	"github.com/bionicotaku/lingo-media-dashboard/internal/metadata"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
	"github.com/bionicotaku/lingo-media-dashboard/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/metric"
)

// FetchFunc 拉取资源的最新快照。
type FetchFunc[T any] func(ctx context.Context, id string) (T, error)

// TerminalFunc 判断快照是否处于终态。
type TerminalFunc[T any] func(value T) bool

// Params 注入 Poller 所需依赖。
type Params[T any] struct {
	Kind       po.ResourceKind
	Store      *repositories.ResourceStore[T]
	Fetch      FetchFunc[T]
	IsTerminal TerminalFunc[T]
	Interval   time.Duration
	Reporter   reporting.Reporter
	Logger     log.Logger
	Meter      metric.Meter
}

// Option 定义可选配置。
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock 替换时钟，测试中注入 clockwork.FakeClock。
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// Poller 管理某一资源类型的轮询会话，间隔在实例生命周期内固定。
type Poller[T any] struct {
	kind       po.ResourceKind
	store      *repositories.ResourceStore[T]
	fetch      FetchFunc[T]
	isTerminal TerminalFunc[T]
	interval   time.Duration
	reporter   reporting.Reporter
	clock      clockwork.Clock
	log        *log.Helper
	metrics    *pollMetrics

	mu       sync.Mutex
	sessions map[string]*session[T]
	closed   bool

	// afterRelease 在 release 放开 mu 之后调用，测试用它插入并发的 Start。
	afterRelease func()
}

// NewPoller 构造 Poller。
func NewPoller[T any](p Params[T], opts ...Option) (*Poller[T], error) {
	if p.Kind == "" {
		return nil, errors.New("polling: kind is required")
	}
	if p.Store == nil {
		return nil, errors.New("polling: store is required")
	}
	if p.Fetch == nil {
		return nil, errors.New("polling: fetch func is required")
	}
	if p.IsTerminal == nil {
		return nil, errors.New("polling: terminal predicate is required")
	}
	if p.Interval <= 0 {
		return nil, fmt.Errorf("polling: interval must be positive, got %s", p.Interval)
	}
	if p.Logger == nil {
		p.Logger = log.DefaultLogger
	}
	if p.Reporter == nil {
		p.Reporter = reporting.ReporterFunc(nil)
	}

	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	helper := log.NewHelper(p.Logger)
	return &Poller[T]{
		kind:       p.Kind,
		store:      p.Store,
		fetch:      p.Fetch,
		isTerminal: p.IsTerminal,
		interval:   p.Interval,
		reporter:   p.Reporter,
		clock:      o.clock,
		log:        helper,
		metrics:    newPollMetrics(p.Meter, string(p.Kind), helper),
		sessions:   make(map[string]*session[T]),
	}, nil
}

// Kind 返回轮询的资源类型。
func (p *Poller[T]) Kind() po.ResourceKind {
	return p.kind
}

// Interval 返回固定轮询间隔。
func (p *Poller[T]) Interval() time.Duration {
	return p.interval
}

// Start 为 id 开启（或复用）轮询会话，返回的 Handle 用于观察与取消。
//
// 首次拉取发生在一个间隔之后，调用方此时通常已持有最新快照。
// 若 Store 中已缓存的快照处于终态，则不会启动会话，Handle 直接处于 Terminal。
// ctx 结束等同于调用 Handle.Release。
func (p *Poller[T]) Start(ctx context.Context, id string) *Handle {
	if cached, ok := p.store.Get(p.kind, id); ok && p.isTerminal(cached) {
		return newFinishedHandle(StateTerminal, nil)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return newFinishedHandle(StateCancelled, nil)
	}
	s, ok := p.sessions[id]
	if ok && s.stopping() {
		ok = false
	}
	if !ok {
		s = newSession(p, id)
		p.sessions[id] = s
	}
	s.refs++
	p.mu.Unlock()

	if !ok {
		p.metrics.sessionDelta(s.ctx, 1)
		go s.run()
	}
	return newHandle(ctx, s)
}

// Active 返回仍在运行的会话数量。
func (p *Poller[T]) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Close 取消全部会话并拒绝新的 Start，用于登出或进程退出。
func (p *Poller[T]) Close() {
	p.mu.Lock()
	p.closed = true
	sessions := make([]*session[T], 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
	}
	for _, s := range sessions {
		<-s.done
	}
}

// release 递减引用计数，归零时取消会话。
// 取消在 mu 内完成，之后的 Start 一定看到 stopping 并新建会话。
func (p *Poller[T]) release(s *session[T]) {
	p.mu.Lock()
	s.refs--
	if s.refs <= 0 {
		s.cancel()
	}
	p.mu.Unlock()
	if p.afterRelease != nil {
		p.afterRelease()
	}
}

// checkTransition 在快照状态相对缓存倒退时记录告警，写入仍以新快照为准。
func (p *Poller[T]) checkTransition(ctx context.Context, id string, next T) {
	prev, ok := p.store.Get(p.kind, id)
	if !ok {
		return
	}
	from, okFrom := any(prev).(po.Uploadable)
	to, okTo := any(next).(po.Uploadable)
	if !okFrom || !okTo {
		return
	}
	if !po.CanTransition(from.State(), to.State()) {
		p.log.WithContext(ctx).Warnf("unexpected upload state transition: kind=%s id=%s from=%s to=%s", p.kind, id, from.State(), to.State())
	}
}

// forget 在会话结束后将其移出注册表，之后的 Start 会创建新会话。
func (p *Poller[T]) forget(s *session[T]) {
	p.mu.Lock()
	if current, ok := p.sessions[s.id]; ok && current == s {
		delete(p.sessions, s.id)
	}
	p.mu.Unlock()
}

func (p *Poller[T]) sessionContext(id string, token uuid.UUID) (context.Context, context.CancelFunc) {
	ctx := metadata.Inject(context.Background(), metadata.SessionMetadata{
		Kind:       string(p.kind),
		ResourceID: id,
		Token:      token,
	})
	return context.WithCancel(ctx)
}
