// Package gcs 提供与 Google Cloud Storage 交互的基础设施封装。
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"

	"cloud.google.com/go/storage"
	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// ProgressFunc 接收已发送字节数与总字节数。
type ProgressFunc func(sent, total int64)

// Uploader 将文件写入 gs://bucket/object 目标，storage.Client 在首次上传时才创建。
type Uploader struct {
	credentialsFile string
	endpoint        string
	chunkSize       int
	log             *log.Helper

	once    sync.Once
	client  *storage.Client
	initErr error
}

// Option 定义可选配置。
type Option func(*Uploader)

// WithCredentialsFile 指定 service account JSON；为空时使用 Application Default Credentials。
func WithCredentialsFile(path string) Option {
	return func(u *Uploader) {
		u.credentialsFile = path
	}
}

// WithEndpoint 覆盖 Storage API 地址（如本地模拟器），同时禁用认证。
func WithEndpoint(endpoint string) Option {
	return func(u *Uploader) {
		u.endpoint = endpoint
	}
}

// WithChunkSize 设置分块大小；0 表示单请求上传。
func WithChunkSize(size int) Option {
	return func(u *Uploader) {
		if size >= 0 {
			u.chunkSize = size
		}
	}
}

// WithClient 注入现成的 storage.Client（测试友好）。
func WithClient(client *storage.Client) Option {
	return func(u *Uploader) {
		if client != nil {
			u.client = client
			u.once.Do(func() {})
		}
	}
}

// NewUploader 创建 Uploader。
func NewUploader(logger log.Logger, opts ...Option) *Uploader {
	u := &Uploader{
		chunkSize: googleDefaultChunkSize,
		log:       log.NewHelper(logger),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

const googleDefaultChunkSize = 16 << 20

// Upload 将 file 写入 policy 指向的对象，写入过程中回调 onProgress。
// 写入失败时取消 Context 以放弃未提交的对象，避免生成半截文件。
func (u *Uploader) Upload(ctx context.Context, policy *po.UploadPolicy, file po.UploadFile, onProgress ProgressFunc) error {
	bucket, object, ok := policy.GCSLocation()
	if !ok {
		return fmt.Errorf("gcs: invalid destination %q", policyURL(policy))
	}
	if file.Body == nil {
		return errors.New("gcs: file body is required")
	}
	client, err := u.storageClient(ctx)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := client.Bucket(bucket).Object(object).NewWriter(writeCtx)
	w.ChunkSize = u.chunkSize
	if file.ContentType != "" {
		w.ContentType = file.ContentType
	}
	if onProgress != nil {
		total := file.Size
		w.ProgressFunc = func(sent int64) {
			onProgress(sent, total)
		}
	}

	if _, err := io.Copy(w, file.Body); err != nil {
		cancel()
		_ = w.Close()
		u.log.WithContext(ctx).Warnf("gcs upload aborted: bucket=%s object=%s err=%v", bucket, object, err)
		return fmt.Errorf("gcs: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: commit object: %w", err)
	}
	if onProgress != nil && file.Size > 0 {
		onProgress(file.Size, file.Size)
	}
	return nil
}

// Close 释放底层 storage.Client。
func (u *Uploader) Close() error {
	if u == nil || u.client == nil {
		return nil
	}
	return u.client.Close()
}

func (u *Uploader) storageClient(ctx context.Context) (*storage.Client, error) {
	u.once.Do(func() {
		opts, err := u.clientOptions(ctx)
		if err != nil {
			u.initErr = err
			return
		}
		u.client, u.initErr = storage.NewClient(ctx, opts...)
		if u.initErr != nil {
			u.initErr = fmt.Errorf("gcs: init storage client: %w", u.initErr)
		}
	})
	return u.client, u.initErr
}

func (u *Uploader) clientOptions(ctx context.Context) ([]option.ClientOption, error) {
	if u.endpoint != "" {
		return []option.ClientOption{
			option.WithEndpoint(u.endpoint),
			option.WithoutAuthentication(),
		}, nil
	}
	if u.credentialsFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(u.credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("gcs: read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, storage.ScopeReadWrite)
	if err != nil {
		return nil, fmt.Errorf("gcs: parse credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

func policyURL(p *po.UploadPolicy) string {
	if p == nil {
		return ""
	}
	return p.URL
}
