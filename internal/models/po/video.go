package po

// VideoURLs 描述视频各清晰度/清单地址，键为分辨率（"144"、"720"...）。
type VideoURLs struct {
	Manifests  map[string]string `json:"manifests,omitempty"`  // dash/hls 清单
	MP4        map[string]string `json:"mp4,omitempty"`        // 各分辨率 mp4
	Thumbnails map[string]string `json:"thumbnails,omitempty"` // 默认缩略图
}

// Video 表示 /api/videos/{id}/ 返回的视频资源。
type Video struct {
	UploadableBase

	Title           string            `json:"title"`
	Description     string            `json:"description"`
	ShowDownload    bool              `json:"show_download"`
	IsReadyToPlay   bool              `json:"is_ready_to_play"`
	URLs            *VideoURLs        `json:"urls,omitempty"`
	Thumbnail       *Thumbnail        `json:"thumbnail,omitempty"`
	TimedTextTracks []*TimedTextTrack `json:"timed_text_tracks,omitempty"`
}

// ReadyToShow 视频以 is_ready_to_play 为准，兼容旧字段 is_ready_to_show。
func (v *Video) ReadyToShow() bool {
	if v == nil {
		return false
	}
	return v.IsReadyToPlay || v.IsReadyToShow
}

// PlayableDespiteError 处理失败但旧版本仍可播放（重新上传失败的情形）。
func (v *Video) PlayableDespiteError() bool {
	return v != nil && v.UploadState == UploadStateError && v.IsReadyToPlay
}
