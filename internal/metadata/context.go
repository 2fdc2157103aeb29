// Package metadata 提供轮询/上传会话信息在 Context 中的存取工具，供任务、服务与日志共享。
package metadata

import (
	"context"

	"github.com/google/uuid"
)

// SessionMetadata 描述当前 Context 所属的轮询或上传会话。
type SessionMetadata struct {
	Kind       string
	ResourceID string
	Token      uuid.UUID
}

// IsZero 判断 Metadata 是否为空。
func (m SessionMetadata) IsZero() bool {
	return m.Kind == "" &&
		m.ResourceID == "" &&
		m.Token == uuid.Nil
}

// TokenString 返回会话令牌字符串，未设置时为空串。
func (m SessionMetadata) TokenString() string {
	if m.Token == uuid.Nil {
		return ""
	}
	return m.Token.String()
}

type ctxKey struct{}

// Inject 将 SessionMetadata 注入 Context。
func Inject(ctx context.Context, meta SessionMetadata) context.Context {
	if meta.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, meta)
}

// FromContext 读取上游注入的 SessionMetadata。
func FromContext(ctx context.Context) (SessionMetadata, bool) {
	if ctx == nil {
		return SessionMetadata{}, false
	}
	meta, ok := ctx.Value(ctxKey{}).(SessionMetadata)
	return meta, ok
}
