// Package po 定义与后端 API 对齐的资源对象（Plain Objects），由 Repository 层缓存。
// 每次成功拉取的响应整体替换缓存条目，不做字段级合并。
package po

import (
	"fmt"
	"strings"
)

// ResourceKind 表示资源类型，取值与后端 API 路径段一致（/api/{kind}/）。
type ResourceKind string

// 资源类型常量定义
const (
	KindVideos          ResourceKind = "videos"
	KindThumbnails      ResourceKind = "thumbnails"
	KindDocuments       ResourceKind = "documents"
	KindTimedTextTracks ResourceKind = "timedtexttracks"
)

// AllKinds 按固定顺序列出全部资源类型。
var AllKinds = []ResourceKind{KindVideos, KindThumbnails, KindDocuments, KindTimedTextTracks}

// ParseKind 解析资源类型，大小写不敏感，兼容单数写法。
func ParseKind(value string) (ResourceKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "videos", "video":
		return KindVideos, nil
	case "thumbnails", "thumbnail":
		return KindThumbnails, nil
	case "documents", "document":
		return KindDocuments, nil
	case "timedtexttracks", "timedtexttrack", "timed_text_tracks":
		return KindTimedTextTracks, nil
	default:
		return "", fmt.Errorf("unknown resource kind %q", value)
	}
}

// UploadState 表示对象的上传/处理状态。
type UploadState string

// 上传状态常量定义
const (
	UploadStatePending    UploadState = "pending"    // 记录已创建，尚未上传
	UploadStateUploading  UploadState = "uploading"  // 文件上传中
	UploadStateProcessing UploadState = "processing" // 后端转码/处理中
	UploadStateReady      UploadState = "ready"      // 可展示/可播放
	UploadStateError      UploadState = "error"      // 上传或处理失败
)

// rank 用于判断状态推进方向；error 单独处理。
var stateRank = map[UploadState]int{
	UploadStatePending:    0,
	UploadStateUploading:  1,
	UploadStateProcessing: 2,
	UploadStateReady:      3,
}

// IsTerminalState 判断轮询是否应在该状态停止。
func IsTerminalState(state UploadState) bool {
	return state == UploadStateReady || state == UploadStateError
}

// CanTransition 判断 from → to 是否为合法推进：只能向前，error 仅可由 uploading/processing 到达。
// 相同状态视为合法（轮询期间的重复快照）。
func CanTransition(from, to UploadState) bool {
	if from == to {
		return true
	}
	if to == UploadStateError {
		return from == UploadStateUploading || from == UploadStateProcessing
	}
	fromRank, okFrom := stateRank[from]
	toRank, okTo := stateRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

// Uploadable 是所有可上传对象的公共视图。
type Uploadable interface {
	ResourceID() string
	State() UploadState
	ReadyToShow() bool
}

// UploadableBase 聚合各类资源共享的字段，嵌入到具体类型中。
type UploadableBase struct {
	ID            string      `json:"id"`
	UploadState   UploadState `json:"upload_state"`
	IsReadyToShow bool        `json:"is_ready_to_show"`
	ActiveStamp   *string     `json:"active_stamp,omitempty"`
}

// ResourceID 返回对象 ID。
func (b *UploadableBase) ResourceID() string {
	if b == nil {
		return ""
	}
	return b.ID
}

// State 返回当前上传状态。
func (b *UploadableBase) State() UploadState {
	if b == nil {
		return ""
	}
	return b.UploadState
}

// ReadyToShow 返回 is_ready_to_show。
func (b *UploadableBase) ReadyToShow() bool {
	return b != nil && b.IsReadyToShow
}

// Descriptor 是上传编排所需的最小对象描述，适用于任意资源类型。
type Descriptor struct {
	UploadableBase
	Title    string        `json:"title,omitempty"`
	Filename string        `json:"filename,omitempty"`
	Mode     TimedTextMode `json:"mode,omitempty"`
	Language string        `json:"language,omitempty"`
}
