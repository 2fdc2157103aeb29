package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/vo"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// ErrEmptyResponse 表示后端返回 2xx 但响应体为空。
var ErrEmptyResponse = errors.New("api: empty response body")

// ResourceClient 是某一资源类型的类型化 API 门面。
type ResourceClient[T po.Uploadable] struct {
	client *khttp.Client
	kind   po.ResourceKind
	log    *log.Helper
}

// NewResourceClient 构造指定类型的 ResourceClient。
func NewResourceClient[T po.Uploadable](client *khttp.Client, kind po.ResourceKind, logger log.Logger) *ResourceClient[T] {
	return &ResourceClient[T]{
		client: client,
		kind:   kind,
		log:    log.NewHelper(logger),
	}
}

// Kind 返回该客户端对应的资源类型。
func (c *ResourceClient[T]) Kind() po.ResourceKind {
	return c.kind
}

// Get 调用 GET /api/{kind}/{id}/ 拉取完整快照。非 2xx 视为失败，404 映射为 RESOURCE_NOT_FOUND。
func (c *ResourceClient[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	reply := new(T)
	if err := c.invoke(ctx, http.MethodGet, c.objectPath(id, ""), nil, reply); err != nil {
		return zero, c.classify(err, id, vo.ErrorReasonResourceFetchFailed)
	}
	if isNilUploadable(*reply) {
		return zero, c.classify(ErrEmptyResponse, id, vo.ErrorReasonResourceFetchFailed)
	}
	return *reply, nil
}

// Describe 拉取对象的精简描述，供上传前确认对象仍存在。
func (c *ResourceClient[T]) Describe(ctx context.Context, id string) (*po.Descriptor, error) {
	reply := &po.Descriptor{}
	if err := c.invoke(ctx, http.MethodGet, c.objectPath(id, ""), nil, reply); err != nil {
		return nil, c.classify(err, id, vo.ErrorReasonResourceFetchFailed)
	}
	if reply.ID == "" {
		reply.ID = id
	}
	return reply, nil
}

// InitiateUpload 调用 POST /api/{kind}/{id}/initiate-upload/ 申请直传目标。
func (c *ResourceClient[T]) InitiateUpload(ctx context.Context, id string, in po.InitiateUploadInput) (*po.UploadPolicy, error) {
	reply := &po.UploadPolicy{}
	if err := c.invoke(ctx, http.MethodPost, c.objectPath(id, "initiate-upload"), &in, reply); err != nil {
		return nil, c.classify(err, id, vo.ErrorReasonUploadPolicyRejected)
	}
	if strings.TrimSpace(reply.URL) == "" {
		return nil, kerrors.BadRequest(vo.ErrorReasonUploadPolicyRejected.String(), "upload policy has no destination url")
	}
	return reply, nil
}

// Create 调用 POST /api/{kind}/ 创建新对象，payload 按类型不同（如缩略图需要 video id）。
func (c *ResourceClient[T]) Create(ctx context.Context, payload any) (T, error) {
	var zero T
	reply := new(T)
	path := fmt.Sprintf("/api/%s/", c.kind)
	if err := c.invoke(ctx, http.MethodPost, path, payload, reply); err != nil {
		return zero, c.classify(err, "", vo.ErrorReasonResourceFetchFailed)
	}
	if isNilUploadable(*reply) {
		return zero, c.classify(ErrEmptyResponse, "", vo.ErrorReasonResourceFetchFailed)
	}
	return *reply, nil
}

func (c *ResourceClient[T]) invoke(ctx context.Context, method, path string, args, reply any) error {
	if c == nil || c.client == nil {
		return errors.New("api: client is not initialized")
	}
	return c.client.Invoke(ctx, method, path, args, reply)
}

func (c *ResourceClient[T]) objectPath(id, action string) string {
	path := fmt.Sprintf("/api/%s/%s/", c.kind, url.PathEscape(id))
	if action != "" {
		path += action + "/"
	}
	return path
}

// classify 将传输层错误归类为带 Reason 的 kratos 错误；Context 取消原样返回。
func (c *ResourceClient[T]) classify(err error, id string, fallback vo.ErrorReason) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if kerrors.IsNotFound(err) {
		return kerrors.NotFound(vo.ErrorReasonResourceNotFound.String(),
			fmt.Sprintf("%s %s not found", c.kind, id)).WithCause(err)
	}
	code := int(kerrors.Code(err))
	if code <= 0 {
		code = http.StatusInternalServerError
	}
	return kerrors.New(code, fallback.String(),
		fmt.Sprintf("%s %s: request failed", c.kind, id)).WithCause(err)
}

// isNilUploadable 判断泛型指针是否为空（如 "null" 响应体）。
func isNilUploadable[T po.Uploadable](v T) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return true
	}
	return v.ResourceID() == ""
}
