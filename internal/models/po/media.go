package po

// Thumbnail 表示视频缩略图资源。
type Thumbnail struct {
	UploadableBase

	URLs  map[string]string `json:"urls,omitempty"`
	Video string            `json:"video,omitempty"`
}

// Document 表示文档资源。
type Document struct {
	UploadableBase

	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Extension    string `json:"extension,omitempty"`
	Filename     string `json:"filename,omitempty"`
	URL          string `json:"url,omitempty"`
	ShowDownload bool   `json:"show_download"`
}

// TimedTextMode 表示字幕轨道类型。
type TimedTextMode string

// 字幕轨道类型
const (
	TimedTextSubtitle         TimedTextMode = "st"
	TimedTextTranscript       TimedTextMode = "ts"
	TimedTextClosedCaptioning TimedTextMode = "cc"
)

// TimedTextTrack 表示字幕/转写/隐藏字幕轨道。
type TimedTextTrack struct {
	UploadableBase

	Language string        `json:"language"`
	Mode     TimedTextMode `json:"mode"`
	URL      string        `json:"url,omitempty"`
	Video    string        `json:"video,omitempty"`
}
