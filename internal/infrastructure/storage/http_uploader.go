// Package storage 负责把本地文件直传到 initiate-upload 返回的目标地址，并按字节回报进度。
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/vo"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// ProgressFunc 接收已发送字节数与总字节数。
type ProgressFunc func(sent, total int64)

// HTTPUploader 以 PUT 原始字节或 S3 风格 multipart POST 上传文件。
type HTTPUploader struct {
	client *http.Client
	log    *log.Helper
}

// NewHTTPUploader 创建 HTTPUploader；client 为空时使用 http.DefaultClient。
func NewHTTPUploader(client *http.Client, logger log.Logger) *HTTPUploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPUploader{client: client, log: log.NewHelper(logger)}
}

// Upload 将 file 发送到 policy.URL。Fields 非空时走表单上传，否则按 Method（默认 PUT）发送原始字节。
func (u *HTTPUploader) Upload(ctx context.Context, policy *po.UploadPolicy, file po.UploadFile, onProgress ProgressFunc) error {
	if policy == nil || strings.TrimSpace(policy.URL) == "" {
		return errors.New("storage: upload destination is required")
	}
	if file.Body == nil {
		return errors.New("storage: file body is required")
	}

	body := &countingReader{r: file.Body, total: file.Size, onProgress: onProgress}
	var (
		req *http.Request
		err error
	)
	if len(policy.Fields) > 0 {
		req, err = newFormRequest(ctx, policy, file, body)
	} else {
		req, err = newRawRequest(ctx, policy, file, body)
	}
	if err != nil {
		return err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return kerrors.ServiceUnavailable(vo.ErrorReasonTransportFailed.String(), "upload request failed").WithCause(err)
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		u.log.WithContext(ctx).Warnf("upload rejected by storage: status=%d body=%s", resp.StatusCode, bytes.TrimSpace(snippet))
		return kerrors.New(resp.StatusCode, vo.ErrorReasonTransportFailed.String(),
			fmt.Sprintf("storage responded %d", resp.StatusCode))
	}
	return nil
}

func newRawRequest(ctx context.Context, policy *po.UploadPolicy, file po.UploadFile, body io.Reader) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(policy.Method))
	if method == "" {
		method = http.MethodPut
	}
	req, err := http.NewRequestWithContext(ctx, method, policy.URL, body)
	if err != nil {
		return nil, fmt.Errorf("storage: build request: %w", err)
	}
	if file.Size > 0 {
		req.ContentLength = file.Size
	}
	if file.ContentType != "" {
		req.Header.Set("Content-Type", file.ContentType)
	}
	for k, v := range policy.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// newFormRequest 预先渲染 multipart 头尾，使请求带有准确的 Content-Length（S3 表单上传要求）。
func newFormRequest(ctx context.Context, policy *po.UploadPolicy, file po.UploadFile, body io.Reader) (*http.Request, error) {
	if file.Size < 0 {
		return nil, errors.New("storage: form upload requires a known file size")
	}
	var head bytes.Buffer
	mw := multipart.NewWriter(&head)

	keys := make([]string, 0, len(policy.Fields))
	for k := range policy.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, policy.Fields[k]); err != nil {
			return nil, fmt.Errorf("storage: write form field: %w", err)
		}
	}
	if file.ContentType != "" {
		if _, exists := policy.Fields["Content-Type"]; !exists {
			if err := mw.WriteField("Content-Type", file.ContentType); err != nil {
				return nil, fmt.Errorf("storage: write form field: %w", err)
			}
		}
	}

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	if file.ContentType != "" {
		partHeader.Set("Content-Type", file.ContentType)
	}
	if _, err := mw.CreatePart(partHeader); err != nil {
		return nil, fmt.Errorf("storage: create file part: %w", err)
	}
	prefix := append([]byte(nil), head.Bytes()...)

	head.Reset()
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("storage: close form: %w", err)
	}
	suffix := append([]byte(nil), head.Bytes()...)

	method := strings.ToUpper(strings.TrimSpace(policy.Method))
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, policy.URL,
		io.MultiReader(bytes.NewReader(prefix), body, bytes.NewReader(suffix)))
	if err != nil {
		return nil, fmt.Errorf("storage: build request: %w", err)
	}
	req.ContentLength = int64(len(prefix)) + file.Size + int64(len(suffix))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range policy.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// countingReader 在每次读取后回报累计字节数。
type countingReader struct {
	r          io.Reader
	sent       int64
	total      int64
	onProgress ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		if c.onProgress != nil {
			c.onProgress(c.sent, c.total)
		}
	}
	return n, err
}
