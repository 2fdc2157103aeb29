package repositories_test

import (
	"sync"
	"testing"

	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
	"github.com/bionicotaku/lingo-media-dashboard/internal/repositories"

	"github.com/stretchr/testify/require"
)

func newDocument(id string, state po.UploadState) *po.Document {
	return &po.Document{
		UploadableBase: po.UploadableBase{ID: id, UploadState: state},
		Title:          "foo.pdf",
	}
}

func TestResourceStore_GetMissing(t *testing.T) {
	store := repositories.NewResourceStore[*po.Document]()
	doc, ok := store.Get(po.KindDocuments, "44")
	require.False(t, ok)
	require.Nil(t, doc)
	require.Zero(t, store.LastSequence(po.KindDocuments, "44"))
}

func TestResourceStore_StaleWriteIsNoop(t *testing.T) {
	older := newDocument("44", po.UploadStateProcessing)
	newer := newDocument("44", po.UploadStateReady)

	inOrder := repositories.NewResourceStore[*po.Document]()
	require.True(t, inOrder.Set(po.KindDocuments, "44", older, 1))
	require.True(t, inOrder.Set(po.KindDocuments, "44", newer, 2))

	reversed := repositories.NewResourceStore[*po.Document]()
	require.True(t, reversed.Set(po.KindDocuments, "44", newer, 2))
	require.False(t, reversed.Set(po.KindDocuments, "44", older, 1))

	a, _ := inOrder.Get(po.KindDocuments, "44")
	b, _ := reversed.Get(po.KindDocuments, "44")
	require.Equal(t, a, b)
	require.Equal(t, po.UploadStateReady, b.UploadState)
	require.Equal(t, uint64(2), reversed.LastSequence(po.KindDocuments, "44"))
}

func TestResourceStore_EqualSequenceReplaces(t *testing.T) {
	store := repositories.NewResourceStore[*po.Document]()
	require.True(t, store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateProcessing), 3))
	require.True(t, store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateReady), 3))

	doc, ok := store.Get(po.KindDocuments, "44")
	require.True(t, ok)
	require.Equal(t, po.UploadStateReady, doc.UploadState)
}

func TestResourceStore_KeysAreIndependent(t *testing.T) {
	store := repositories.NewResourceStore[*po.Document]()
	require.True(t, store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateReady), 5))
	require.True(t, store.Set(po.KindDocuments, "45", newDocument("45", po.UploadStatePending), 1))

	_, ok := store.Get(po.KindThumbnails, "44")
	require.False(t, ok)
	doc, ok := store.Get(po.KindDocuments, "45")
	require.True(t, ok)
	require.Equal(t, po.UploadStatePending, doc.UploadState)
}

func TestResourceStore_NextSequenceOrdersOverlappingRequests(t *testing.T) {
	store := repositories.NewResourceStore[*po.Document]()

	slow := store.NextSequence(po.KindDocuments, "44")
	fast := store.NextSequence(po.KindDocuments, "44")
	require.Greater(t, fast, slow)

	require.True(t, store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateReady), fast))
	require.False(t, store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateProcessing), slow))

	doc, _ := store.Get(po.KindDocuments, "44")
	require.Equal(t, po.UploadStateReady, doc.UploadState)

	// 直接写入更大的序号后，后续签发的序号仍然更大。
	require.True(t, store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateReady), 10))
	require.Equal(t, uint64(11), store.NextSequence(po.KindDocuments, "44"))
}

func TestResourceStore_SubscribeReceivesAcceptedUpdates(t *testing.T) {
	store := repositories.NewResourceStore[*po.Document]()

	var seen []po.UploadState
	unsubscribe := store.Subscribe(po.KindDocuments, "44", func(key repositories.ResourceKey, value *po.Document) {
		require.Equal(t, repositories.ResourceKey{Kind: po.KindDocuments, ID: "44"}, key)
		// 通知时 Get 已可见最新值。
		current, ok := store.Get(po.KindDocuments, "44")
		require.True(t, ok)
		require.Same(t, value, current)
		seen = append(seen, value.UploadState)
	})

	store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateProcessing), 2)
	store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateUploading), 1)
	store.Set(po.KindDocuments, "45", newDocument("45", po.UploadStateReady), 1)
	store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateReady), 3)

	unsubscribe()
	unsubscribe()
	store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateReady), 4)

	require.Equal(t, []po.UploadState{po.UploadStateProcessing, po.UploadStateReady}, seen)
}

func TestResourceStore_Reset(t *testing.T) {
	store := repositories.NewResourceStore[*po.Document]()
	calls := 0
	store.Subscribe(po.KindDocuments, "44", func(repositories.ResourceKey, *po.Document) { calls++ })
	store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateReady), 7)
	require.Equal(t, 1, calls)

	store.Reset()
	_, ok := store.Get(po.KindDocuments, "44")
	require.False(t, ok)
	require.Zero(t, store.LastSequence(po.KindDocuments, "44"))

	store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateReady), 1)
	require.Equal(t, 1, calls)
}

func TestResourceStore_ConcurrentWritersKeepHighestSequence(t *testing.T) {
	store := repositories.NewResourceStore[*po.Document]()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			store.Set(po.KindDocuments, "44", newDocument("44", po.UploadStateProcessing), seq)
		}(uint64(i))
	}
	wg.Wait()

	require.Equal(t, uint64(50), store.LastSequence(po.KindDocuments, "44"))
}

func TestStoreRegistry_LookupAndSubscribe(t *testing.T) {
	registry := repositories.NewStoreRegistry()

	var states []po.UploadState
	unsubscribe, err := registry.SubscribeAny(po.KindVideos, "43", func(value po.Uploadable) {
		states = append(states, value.State())
	})
	require.NoError(t, err)
	defer unsubscribe()

	video := &po.Video{UploadableBase: po.UploadableBase{ID: "43", UploadState: po.UploadStateProcessing}}
	registry.Videos.Set(po.KindVideos, "43", video, 1)

	value, ok, err := registry.Lookup(po.KindVideos, "43")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "43", value.ResourceID())
	require.Equal(t, []po.UploadState{po.UploadStateProcessing}, states)

	_, _, err = registry.Lookup(po.ResourceKind("playlists"), "1")
	require.Error(t, err)

	registry.Reset()
	_, ok, err = registry.Lookup(po.KindVideos, "43")
	require.NoError(t, err)
	require.False(t, ok)
}
