package storage

import (
	"context"

	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/gcs"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
)

// Transport 根据目标地址选择上传方式：gs:// 走 GCS 客户端，其余走 HTTP。
type Transport struct {
	http *HTTPUploader
	gcs  *gcs.Uploader
}

// NewTransport 组合 HTTP 与 GCS 上传器；gcsUploader 可为空，此时 gs:// 目标直接报错。
func NewTransport(httpUploader *HTTPUploader, gcsUploader *gcs.Uploader) *Transport {
	return &Transport{http: httpUploader, gcs: gcsUploader}
}

// Upload 实现上传编排使用的传输接口。
func (t *Transport) Upload(ctx context.Context, policy *po.UploadPolicy, file po.UploadFile, onProgress func(sent, total int64)) error {
	if policy.IsGCSObject() {
		if t.gcs == nil {
			return errGCSDisabled
		}
		return t.gcs.Upload(ctx, policy, file, onProgress)
	}
	return t.http.Upload(ctx, policy, file, onProgress)
}

// Close 释放 GCS 客户端。
func (t *Transport) Close() error {
	if t == nil || t.gcs == nil {
		return nil
	}
	return t.gcs.Close()
}
