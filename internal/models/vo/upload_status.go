// Package vo 定义面向调用方的视图对象，用于向上层传递编排结果。
package vo

// UploadStatus 表示一次上传编排的对外状态，空值表示尚未开始。
type UploadStatus string

// 上传编排状态
const (
	UploadStatusNotFoundError UploadStatus = "not_found_error" // 目标对象已不存在
	UploadStatusPolicyError   UploadStatus = "policy_error"    // 后端拒绝签发上传策略
	UploadStatusUploading     UploadStatus = "uploading"       // 字节传输中
	UploadStatusSuccess       UploadStatus = "success"         // 字节已送达，处理状态交由轮询跟踪
	UploadStatusError         UploadStatus = "upload_error"    // 传输失败
)

// IsTerminal 判断编排是否已结束。
func (s UploadStatus) IsTerminal() bool {
	switch s {
	case UploadStatusNotFoundError, UploadStatusPolicyError, UploadStatusSuccess, UploadStatusError:
		return true
	default:
		return false
	}
}

// IsError 判断是否为失败终态。
func (s UploadStatus) IsError() bool {
	return s == UploadStatusNotFoundError || s == UploadStatusPolicyError || s == UploadStatusError
}
