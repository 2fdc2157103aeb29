package polling

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/api"
	loader "github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/reporting"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
	"github.com/bionicotaku/lingo-media-dashboard/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"go.opentelemetry.io/otel/metric"
)

// ProviderSet exposes the per-kind pollers for Wire.
var ProviderSet = wire.NewSet(NewPollers)

// UploadTerminal 以 upload_state 判断终态（ready 或 error）。
func UploadTerminal[T po.Uploadable](value T) bool {
	return po.IsTerminalState(value.State())
}

// Pollers 聚合四种资源类型的 Poller，间隔来自配置。
type Pollers struct {
	Videos          *Poller[*po.Video]
	Thumbnails      *Poller[*po.Thumbnail]
	Documents       *Poller[*po.Document]
	TimedTextTracks *Poller[*po.TimedTextTrack]
}

// NewPollers 基于 API 客户端与 Store 构造全部 Poller。
func NewPollers(cfg loader.PollingConfig, stores *repositories.StoreRegistry, clients *api.Clients, reporter reporting.Reporter, meter metric.Meter, logger log.Logger) (*Pollers, func(), error) {
	if stores == nil || clients == nil {
		return nil, nil, fmt.Errorf("polling: stores and clients are required")
	}
	videos, err := NewPoller(Params[*po.Video]{
		Kind: po.KindVideos, Store: stores.Videos, Fetch: clients.Videos.Get, IsTerminal: UploadTerminal[*po.Video],
		Interval: cfg.Interval(po.KindVideos), Reporter: reporter, Logger: logger, Meter: meter,
	})
	if err != nil {
		return nil, nil, err
	}
	thumbnails, err := NewPoller(Params[*po.Thumbnail]{
		Kind: po.KindThumbnails, Store: stores.Thumbnails, Fetch: clients.Thumbnails.Get, IsTerminal: UploadTerminal[*po.Thumbnail],
		Interval: cfg.Interval(po.KindThumbnails), Reporter: reporter, Logger: logger, Meter: meter,
	})
	if err != nil {
		return nil, nil, err
	}
	documents, err := NewPoller(Params[*po.Document]{
		Kind: po.KindDocuments, Store: stores.Documents, Fetch: clients.Documents.Get, IsTerminal: UploadTerminal[*po.Document],
		Interval: cfg.Interval(po.KindDocuments), Reporter: reporter, Logger: logger, Meter: meter,
	})
	if err != nil {
		return nil, nil, err
	}
	tracks, err := NewPoller(Params[*po.TimedTextTrack]{
		Kind: po.KindTimedTextTracks, Store: stores.TimedTextTracks, Fetch: clients.TimedTextTracks.Get, IsTerminal: UploadTerminal[*po.TimedTextTrack],
		Interval: cfg.Interval(po.KindTimedTextTracks), Reporter: reporter, Logger: logger, Meter: meter,
	})
	if err != nil {
		return nil, nil, err
	}

	p := &Pollers{Videos: videos, Thumbnails: thumbnails, Documents: documents, TimedTextTracks: tracks}
	return p, p.Close, nil
}

// Start 按类型分派到对应 Poller。
func (p *Pollers) Start(ctx context.Context, kind po.ResourceKind, id string) (*Handle, error) {
	switch kind {
	case po.KindVideos:
		return p.Videos.Start(ctx, id), nil
	case po.KindThumbnails:
		return p.Thumbnails.Start(ctx, id), nil
	case po.KindDocuments:
		return p.Documents.Start(ctx, id), nil
	case po.KindTimedTextTracks:
		return p.TimedTextTracks.Start(ctx, id), nil
	default:
		return nil, fmt.Errorf("polling: unsupported kind %q", kind)
	}
}

// Close 取消全部 Poller 的会话。
func (p *Pollers) Close() {
	if p == nil {
		return
	}
	p.Videos.Close()
	p.Thumbnails.Close()
	p.Documents.Close()
	p.TimedTextTracks.Close()
}
