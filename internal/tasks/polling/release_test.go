package polling

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
	"github.com/bionicotaku/lingo-media-dashboard/internal/repositories"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// 最后一个引用释放后紧接着的 Start 必须拿到仍在运行的新会话，而不是复用即将取消的旧会话。
func TestPoller_StartRightAfterLastReleaseGetsLiveSession(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	p, err := NewPoller(Params[*po.Document]{
		Kind:  po.KindDocuments,
		Store: repositories.NewResourceStore[*po.Document](),
		Fetch: func(_ context.Context, id string) (*po.Document, error) {
			calls.Add(1)
			return &po.Document{UploadableBase: po.UploadableBase{ID: id, UploadState: po.UploadStateProcessing}}, nil
		},
		IsTerminal: UploadTerminal[*po.Document],
		Interval:   10 * time.Second,
	}, WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(p.Close)

	first := p.Start(context.Background(), "44")

	var second *Handle
	p.afterRelease = func() {
		p.afterRelease = nil
		second = p.Start(context.Background(), "44")
	}
	first.Release()
	require.NotNil(t, second)
	defer second.Release()

	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("released session did not stop, state=%s", first.State())
	}
	require.Equal(t, StateCancelled, first.State())
	require.NotEqual(t, first.Token(), second.Token())
	require.False(t, second.State().IsFinal())
	require.Equal(t, 1, p.Active())

	clock.BlockUntil(1)
	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.False(t, second.State().IsFinal())
}
