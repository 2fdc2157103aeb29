package api

import (
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// Clients 聚合四种资源类型的 ResourceClient。
type Clients struct {
	Videos          *ResourceClient[*po.Video]
	Thumbnails      *ResourceClient[*po.Thumbnail]
	Documents       *ResourceClient[*po.Document]
	TimedTextTracks *ResourceClient[*po.TimedTextTrack]
}

// NewClients 基于共享的 HTTP 客户端构造全部资源门面。
func NewClients(client *khttp.Client, logger log.Logger) *Clients {
	return &Clients{
		Videos:          NewResourceClient[*po.Video](client, po.KindVideos, logger),
		Thumbnails:      NewResourceClient[*po.Thumbnail](client, po.KindThumbnails, logger),
		Documents:       NewResourceClient[*po.Document](client, po.KindDocuments, logger),
		TimedTextTracks: NewResourceClient[*po.TimedTextTrack](client, po.KindTimedTextTracks, logger),
	}
}

// ProviderSet bundles the API client providers for Wire.
var ProviderSet = wire.NewSet(NewHTTPClient, NewClients)
