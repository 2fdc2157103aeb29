package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
	"github.com/bionicotaku/lingo-media-dashboard/internal/tasks/polling"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <kind> <id> [id...]",
		Short: "Poll resources until they reach a terminal state",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(context.Background())
			defer cancel()

			a := current()
			out := &syncWriter{w: cmd.OutOrStdout()}
			return a.withMetrics(ctx, func(ctx context.Context) error {
				g, gctx := errgroup.WithContext(ctx)
				for _, id := range args[1:] {
					g.Go(func() error {
						return a.watch(gctx, out, kind, id)
					})
				}
				return g.Wait()
			})
		},
	}
}

// withMetrics 在 fn 运行期间提供指标端点。
func (a *app) withMetrics(ctx context.Context, fn func(ctx context.Context) error) error {
	metricsCtx, stop := context.WithCancel(ctx)
	var mg errgroup.Group
	mg.Go(func() error { return a.serveMetrics(metricsCtx) })

	err := fn(ctx)
	stop()
	if merr := mg.Wait(); err == nil {
		err = merr
	}
	return err
}

// watch 打印资源的每次状态变化，直到轮询会话结束。中断视为正常退出。
func (a *app) watch(ctx context.Context, out io.Writer, kind po.ResourceKind, id string) error {
	unsubscribe, err := a.resources.Subscribe(kind, id, func(value po.Uploadable) {
		fmt.Fprintln(out, describeState(kind, value))
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	// 未缓存时 Watch 会先拉取一次，结果经订阅者输出；已缓存的快照只在这里输出一次。
	if value, ok := a.resources.Cached(kind, id); ok {
		fmt.Fprintln(out, describeState(kind, value))
	}

	handle, err := a.resources.Watch(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("watch %s/%s: %w", kind, id, err)
	}
	defer handle.Release()

	state, err := handle.Wait(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		return err
	case state == polling.StateFailed:
		return fmt.Errorf("watch %s/%s: %w", kind, id, handle.Err())
	}
	a.log.Debugf("watch finished: kind=%s id=%s state=%s fetches=%d", kind, id, state, handle.Fetches())
	return nil
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
