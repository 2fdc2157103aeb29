package polling

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// session 为单个 (kind, id) 的轮询循环。refs 由 Poller.mu 保护。
type session[T any] struct {
	poller *Poller[T]
	id     string
	token  uuid.UUID
	ctx    context.Context
	stop   context.CancelFunc
	refs   int

	cancelled atomic.Bool
	state     atomic.Int32
	fetches   atomic.Int64

	errMu sync.Mutex
	err   error
	done  chan struct{}
}

func newSession[T any](p *Poller[T], id string) *session[T] {
	token := uuid.New()
	ctx, stop := p.sessionContext(id, token)
	s := &session[T]{
		poller: p,
		id:     id,
		token:  token,
		ctx:    ctx,
		stop:   stop,
		done:   make(chan struct{}),
	}
	s.state.Store(int32(StateIdle))
	return s
}

// run 为会话主循环：等待一个间隔后拉取，非终态则重新计时。
func (s *session[T]) run() {
	p := s.poller
	defer func() {
		p.forget(s)
		p.metrics.sessionDelta(context.Background(), -1)
		close(s.done)
	}()

	for {
		s.state.Store(int32(StateScheduled))
		timer := p.clock.NewTimer(p.interval)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			s.finish(StateCancelled, nil)
			return
		case <-timer.Chan():
		}
		if s.cancelled.Load() {
			s.finish(StateCancelled, nil)
			return
		}

		s.state.Store(int32(StateFetching))
		seq := p.store.NextSequence(p.kind, s.id)
		s.fetches.Add(1)
		p.metrics.recordFetch(s.ctx)
		value, err := p.fetch(s.ctx, s.id)

		// 取消后到达的响应一律丢弃：不写 Store，不上报。
		if s.cancelled.Load() {
			s.finish(StateCancelled, nil)
			return
		}
		if err != nil {
			s.fail(err)
			return
		}
		p.checkTransition(s.ctx, s.id, value)
		if !p.store.Set(p.kind, s.id, value, seq) {
			p.log.WithContext(s.ctx).Debugf("discard stale poll response: kind=%s id=%s seq=%d", p.kind, s.id, seq)
		}

		if p.isTerminal(value) {
			p.log.WithContext(s.ctx).Infof("poll reached terminal state: kind=%s id=%s fetches=%d", p.kind, s.id, s.fetches.Load())
			s.finish(StateTerminal, nil)
			return
		}
	}
}

// fail 上报一次错误后停止，不自动重试。
func (s *session[T]) fail(err error) {
	p := s.poller
	p.metrics.recordFailure(s.ctx)
	p.log.WithContext(s.ctx).Warnf("poll fetch failed, stopping: kind=%s id=%s err=%v", p.kind, s.id, err)
	p.reporter.Report(s.ctx, err)
	s.finish(StateFailed, err)
}

func (s *session[T]) finish(state State, err error) {
	s.errMu.Lock()
	s.err = err
	s.errMu.Unlock()
	s.state.Store(int32(state))
	s.stop()
}

// cancel 标记会话取消。已发出的请求随 Context 中止，其结果在到达时被忽略。
func (s *session[T]) cancel() {
	s.cancelled.Store(true)
	s.stop()
}

func (s *session[T]) stopping() bool {
	return s.cancelled.Load() || State(s.state.Load()).IsFinal()
}

func (s *session[T]) snapshot() sessionView {
	s.errMu.Lock()
	err := s.err
	s.errMu.Unlock()
	return sessionView{
		state:   State(s.state.Load()),
		err:     err,
		fetches: int(s.fetches.Load()),
		token:   s.token,
	}
}

func (s *session[T]) doneChan() <-chan struct{} { return s.done }
func (s *session[T]) releaseRef()              { s.poller.release(s) }

type sessionView struct {
	state   State
	err     error
	fetches int
	token   uuid.UUID
}

// sessionRef 抹去类型参数，使 Handle 不必是泛型。
type sessionRef interface {
	snapshot() sessionView
	doneChan() <-chan struct{}
	releaseRef()
}

// Handle 是调用方持有的会话引用。所有引用都 Release 后会话被取消。
type Handle struct {
	ref      sessionRef
	once     sync.Once
	mu       sync.Mutex
	stopWait func() bool

	// 未启动会话时的固定结果。
	fixed sessionView
	done  chan struct{}
}

func newHandle[T any](ctx context.Context, s *session[T]) *Handle {
	h := &Handle{ref: s}
	if ctx != nil && ctx.Done() != nil {
		h.mu.Lock()
		h.stopWait = context.AfterFunc(ctx, h.Release)
		h.mu.Unlock()
	}
	return h
}

func newFinishedHandle(state State, err error) *Handle {
	done := make(chan struct{})
	close(done)
	return &Handle{fixed: sessionView{state: state, err: err}, done: done}
}

// Release 释放该引用，可重复调用。
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.mu.Lock()
		stop := h.stopWait
		h.mu.Unlock()
		if stop != nil {
			stop()
		}
		if h.ref != nil {
			h.ref.releaseRef()
		}
	})
}

// Done 在会话结束（任意吸收态）时关闭。
func (h *Handle) Done() <-chan struct{} {
	if h.ref == nil {
		return h.done
	}
	return h.ref.doneChan()
}

// State 返回会话当前状态。
func (h *Handle) State() State {
	return h.view().state
}

// Err 返回导致会话失败的错误；非 Failed 状态为 nil。
func (h *Handle) Err() error {
	return h.view().err
}

// Fetches 返回会话已发出的拉取次数。
func (h *Handle) Fetches() int {
	return h.view().fetches
}

// Token 返回会话令牌；共享同一会话的 Handle 令牌相同。
func (h *Handle) Token() uuid.UUID {
	return h.view().token
}

// Wait 阻塞直到会话结束或 ctx 结束。
func (h *Handle) Wait(ctx context.Context) (State, error) {
	select {
	case <-h.Done():
		v := h.view()
		return v.state, v.err
	case <-ctx.Done():
		return h.State(), ctx.Err()
	}
}

func (h *Handle) view() sessionView {
	if h.ref == nil {
		return h.fixed
	}
	return h.ref.snapshot()
}
