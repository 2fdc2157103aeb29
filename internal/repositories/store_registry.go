package repositories

import (
	"fmt"

	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
)

// StoreRegistry 聚合每种资源的类型化缓存，进程启动时创建一次，仅在登出时 Reset。
type StoreRegistry struct {
	Videos          *ResourceStore[*po.Video]
	Thumbnails      *ResourceStore[*po.Thumbnail]
	Documents       *ResourceStore[*po.Document]
	TimedTextTracks *ResourceStore[*po.TimedTextTrack]
}

// NewStoreRegistry 创建全部资源缓存。
func NewStoreRegistry() *StoreRegistry {
	return &StoreRegistry{
		Videos:          NewResourceStore[*po.Video](),
		Thumbnails:      NewResourceStore[*po.Thumbnail](),
		Documents:       NewResourceStore[*po.Document](),
		TimedTextTracks: NewResourceStore[*po.TimedTextTrack](),
	}
}

// Lookup 以公共视图读取任意类型的缓存快照。
func (r *StoreRegistry) Lookup(kind po.ResourceKind, id string) (po.Uploadable, bool, error) {
	switch kind {
	case po.KindVideos:
		return lookup(r.Videos, kind, id)
	case po.KindThumbnails:
		return lookup(r.Thumbnails, kind, id)
	case po.KindDocuments:
		return lookup(r.Documents, kind, id)
	case po.KindTimedTextTracks:
		return lookup(r.TimedTextTracks, kind, id)
	default:
		return nil, false, fmt.Errorf("store registry: unknown kind %q", kind)
	}
}

// SubscribeAny 以公共视图订阅任意类型资源的更新。
func (r *StoreRegistry) SubscribeAny(kind po.ResourceKind, id string, listener func(po.Uploadable)) (func(), error) {
	switch kind {
	case po.KindVideos:
		return subscribeAny(r.Videos, kind, id, listener), nil
	case po.KindThumbnails:
		return subscribeAny(r.Thumbnails, kind, id, listener), nil
	case po.KindDocuments:
		return subscribeAny(r.Documents, kind, id, listener), nil
	case po.KindTimedTextTracks:
		return subscribeAny(r.TimedTextTracks, kind, id, listener), nil
	default:
		return nil, fmt.Errorf("store registry: unknown kind %q", kind)
	}
}

// Reset 清空所有缓存。
func (r *StoreRegistry) Reset() {
	r.Videos.Reset()
	r.Thumbnails.Reset()
	r.Documents.Reset()
	r.TimedTextTracks.Reset()
}

func lookup[T po.Uploadable](store *ResourceStore[T], kind po.ResourceKind, id string) (po.Uploadable, bool, error) {
	value, ok := store.Get(kind, id)
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

func subscribeAny[T po.Uploadable](store *ResourceStore[T], kind po.ResourceKind, id string, listener func(po.Uploadable)) func() {
	return store.Subscribe(kind, id, func(_ ResourceKey, value T) {
		listener(value)
	})
}
