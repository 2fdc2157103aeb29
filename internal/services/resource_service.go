package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/api"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/vo"
	"github.com/bionicotaku/lingo-media-dashboard/internal/repositories"
	"github.com/bionicotaku/lingo-media-dashboard/internal/tasks/polling"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// PollStarter 按类型开启轮询会话，由 polling.Pollers 实现。
type PollStarter interface {
	Start(ctx context.Context, kind po.ResourceKind, id string) (*polling.Handle, error)
}

// resourceBinding 抹去类型参数，统一四种资源的拉取与创建。
type resourceBinding interface {
	refresh(ctx context.Context, id string) (po.Uploadable, error)
	create(ctx context.Context, payload any) (po.Uploadable, error)
}

type binding[T po.Uploadable] struct {
	kind   po.ResourceKind
	client *api.ResourceClient[T]
	store  *repositories.ResourceStore[T]
}

// refresh 拉取快照并写入 Store；序号在请求发出前领取，较慢的旧响应不会覆盖新结果。
func (b binding[T]) refresh(ctx context.Context, id string) (po.Uploadable, error) {
	seq := b.store.NextSequence(b.kind, id)
	value, err := b.client.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b.store.Set(b.kind, id, value, seq)
	current, _ := b.store.Get(b.kind, id)
	return current, nil
}

func (b binding[T]) create(ctx context.Context, payload any) (po.Uploadable, error) {
	value, err := b.client.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	id := value.ResourceID()
	b.store.Set(b.kind, id, value, b.store.NextSequence(b.kind, id))
	return value, nil
}

// ResourceService 提供读取、创建与跟踪资源的用例，是 CLI 与缓存/轮询之间的门面。
type ResourceService struct {
	bindings map[po.ResourceKind]resourceBinding
	stores   *repositories.StoreRegistry
	pollers  PollStarter
	log      *log.Helper
}

// NewResourceService 创建 ResourceService。
func NewResourceService(clients *api.Clients, stores *repositories.StoreRegistry, pollers PollStarter, logger log.Logger) (*ResourceService, error) {
	switch {
	case clients == nil:
		return nil, errors.New("resource service: clients are required")
	case stores == nil:
		return nil, errors.New("resource service: stores are required")
	case pollers == nil:
		return nil, errors.New("resource service: pollers are required")
	}
	return &ResourceService{
		bindings: map[po.ResourceKind]resourceBinding{
			po.KindVideos:          binding[*po.Video]{kind: po.KindVideos, client: clients.Videos, store: stores.Videos},
			po.KindThumbnails:      binding[*po.Thumbnail]{kind: po.KindThumbnails, client: clients.Thumbnails, store: stores.Thumbnails},
			po.KindDocuments:       binding[*po.Document]{kind: po.KindDocuments, client: clients.Documents, store: stores.Documents},
			po.KindTimedTextTracks: binding[*po.TimedTextTrack]{kind: po.KindTimedTextTracks, client: clients.TimedTextTracks, store: stores.TimedTextTracks},
		},
		stores:  stores,
		pollers: pollers,
		log:     log.NewHelper(logger),
	}, nil
}

// Refresh 立即拉取一次资源并更新缓存。
func (s *ResourceService) Refresh(ctx context.Context, kind po.ResourceKind, id string) (po.Uploadable, error) {
	b, err := s.binding(kind)
	if err != nil {
		return nil, err
	}
	return b.refresh(ctx, id)
}

// Create 创建资源（如为视频新建缩略图或字幕轨道）并写入缓存。
func (s *ResourceService) Create(ctx context.Context, kind po.ResourceKind, payload any) (po.Uploadable, error) {
	b, err := s.binding(kind)
	if err != nil {
		return nil, err
	}
	return b.create(ctx, payload)
}

// Cached 返回缓存中的快照。
func (s *ResourceService) Cached(kind po.ResourceKind, id string) (po.Uploadable, bool) {
	value, ok, err := s.stores.Lookup(kind, id)
	if err != nil {
		return nil, false
	}
	return value, ok
}

// Subscribe 订阅缓存更新。
func (s *ResourceService) Subscribe(kind po.ResourceKind, id string, listener func(po.Uploadable)) (func(), error) {
	return s.stores.SubscribeAny(kind, id, listener)
}

// Watch 确保缓存中有快照后开启轮询：未缓存时先同步拉取一次，已是终态则不再轮询。
func (s *ResourceService) Watch(ctx context.Context, kind po.ResourceKind, id string) (*polling.Handle, error) {
	if _, ok := s.Cached(kind, id); !ok {
		if _, err := s.Refresh(ctx, kind, id); err != nil {
			return nil, err
		}
	}
	return s.pollers.Start(ctx, kind, id)
}

func (s *ResourceService) binding(kind po.ResourceKind) (resourceBinding, error) {
	b, ok := s.bindings[kind]
	if !ok {
		return nil, kerrors.BadRequest(vo.ErrorReasonInvalidArgument.String(), fmt.Sprintf("unsupported resource kind %q", kind))
	}
	return b, nil
}
