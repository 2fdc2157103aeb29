package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"

	"github.com/gabriel-vasile/mimetype"
)

var errGCSDisabled = errors.New("storage: gs:// destinations require a gcs uploader")

// OpenFile 打开本地文件并探测 MIME 类型。调用方负责调用返回的 close 函数。
func OpenFile(path string) (po.UploadFile, func() error, error) {
	info, err := os.Stat(path)
	if err != nil {
		return po.UploadFile{}, nil, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return po.UploadFile{}, nil, fmt.Errorf("storage: %s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return po.UploadFile{}, nil, fmt.Errorf("storage: detect mimetype: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return po.UploadFile{}, nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	return po.UploadFile{
		Name:        filepath.Base(path),
		ContentType: baseMediaType(mt.String()),
		Size:        info.Size(),
		Body:        f,
	}, f.Close, nil
}

// baseMediaType 去掉 charset 等参数，initiate-upload 只接受裸类型。
func baseMediaType(value string) string {
	base, _, _ := strings.Cut(value, ";")
	return strings.TrimSpace(base)
}
