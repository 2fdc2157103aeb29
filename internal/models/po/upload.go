package po

import (
	"io"
	"net/url"
	"strings"
)

// UploadPolicy 描述 initiate-upload 返回的直传目标。
// Fields 非空时按 S3 表单策略以 multipart POST 上传，否则以 Method（默认 PUT）直接写入原始字节。
type UploadPolicy struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// IsGCSObject 判断目标是否为 gs://bucket/object 形式。
func (p *UploadPolicy) IsGCSObject() bool {
	return p != nil && strings.HasPrefix(strings.ToLower(p.URL), "gs://")
}

// GCSLocation 拆分 gs:// 目标为 bucket 与对象名。
func (p *UploadPolicy) GCSLocation() (bucket, object string, ok bool) {
	if !p.IsGCSObject() {
		return "", "", false
	}
	parsed, err := url.Parse(p.URL)
	if err != nil || parsed.Host == "" {
		return "", "", false
	}
	object = strings.TrimPrefix(parsed.Path, "/")
	if object == "" {
		return "", "", false
	}
	return parsed.Host, object, true
}

// InitiateUploadInput 为 initiate-upload 请求体。
type InitiateUploadInput struct {
	Filename string `json:"filename"`
	Mimetype string `json:"mimetype"`
}

// UploadFile 描述待上传文件。Body 仅被读取一次。
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}
