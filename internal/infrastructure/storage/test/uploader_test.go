package storage_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/storage"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/vo"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

type progressLog struct {
	mu   sync.Mutex
	sent []int64
	tot  []int64
}

func (p *progressLog) record(sent, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sent)
	p.tot = append(p.tot, total)
}

func newUploader() *storage.HTTPUploader {
	return storage.NewHTTPUploader(nil, log.NewStdLogger(io.Discard))
}

func TestHTTPUploader_PutRawBytes(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 64*1024)
	var (
		gotMethod, gotType, gotCustom string
		gotBody                       []byte
		gotLength                     int64
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotCustom = r.Header.Get("x-goog-meta-owner")
		gotLength = r.ContentLength
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	progress := &progressLog{}
	err := newUploader().Upload(context.Background(), &po.UploadPolicy{
		URL:     srv.URL + "/bucket/object",
		Headers: map[string]string{"x-goog-meta-owner": "44"},
	}, po.UploadFile{
		Name:        "clip.mp4",
		ContentType: "video/mp4",
		Size:        int64(len(payload)),
		Body:        bytes.NewReader(payload),
	}, progress.record)
	require.NoError(t, err)

	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "video/mp4", gotType)
	require.Equal(t, "44", gotCustom)
	require.Equal(t, int64(len(payload)), gotLength)
	require.Equal(t, payload, gotBody)

	require.NotEmpty(t, progress.sent)
	for i := 1; i < len(progress.sent); i++ {
		require.Greater(t, progress.sent[i], progress.sent[i-1])
	}
	require.Equal(t, int64(len(payload)), progress.sent[len(progress.sent)-1])
	require.Equal(t, int64(len(payload)), progress.tot[0])
}

func TestHTTPUploader_FormPost(t *testing.T) {
	content := "%PDF-1.4 document body"
	var (
		fields   map[string]string
		fileBody string
		fileName string
		length   int64
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		length = r.ContentLength
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		fileBody, fileName = string(data), header.Filename
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newUploader().Upload(context.Background(), &po.UploadPolicy{
		URL:    srv.URL,
		Fields: map[string]string{"key": "tmp/44/document/1", "policy": "abc"},
	}, po.UploadFile{
		Name:        "foo.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
	}, nil)
	require.NoError(t, err)

	require.Equal(t, "tmp/44/document/1", fields["key"])
	require.Equal(t, "abc", fields["policy"])
	require.Equal(t, "application/pdf", fields["Content-Type"])
	require.Equal(t, content, fileBody)
	require.Equal(t, "foo.pdf", fileName)
	require.Greater(t, length, int64(len(content)))
}

func TestHTTPUploader_RejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("<Error>AccessDenied</Error>"))
	}))
	defer srv.Close()

	err := newUploader().Upload(context.Background(), &po.UploadPolicy{URL: srv.URL}, po.UploadFile{
		Size: 3,
		Body: strings.NewReader("abc"),
	}, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, kerrors.Code(err))
	require.Equal(t, vo.ErrorReasonTransportFailed.String(), kerrors.Reason(err))
}

func TestHTTPUploader_ValidatesInput(t *testing.T) {
	u := newUploader()
	require.Error(t, u.Upload(context.Background(), nil, po.UploadFile{Body: strings.NewReader("x")}, nil))
	require.Error(t, u.Upload(context.Background(), &po.UploadPolicy{URL: "http://localhost"}, po.UploadFile{}, nil))
}

func TestTransport_GCSWithoutUploader(t *testing.T) {
	tr := storage.NewTransport(newUploader(), nil)
	err := tr.Upload(context.Background(), &po.UploadPolicy{URL: "gs://bucket/object"}, po.UploadFile{
		Body: strings.NewReader("x"),
	}, nil)
	require.Error(t, err)
	require.NoError(t, tr.Close())
}

func TestOpenFile_DetectsMimetype(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text notes\n"), 0o600))

	file, closeFn, err := storage.OpenFile(path)
	require.NoError(t, err)
	defer closeFn()

	require.Equal(t, "notes.txt", file.Name)
	require.Equal(t, "text/plain", file.ContentType)
	require.Equal(t, int64(17), file.Size)

	data, err := io.ReadAll(file.Body)
	require.NoError(t, err)
	require.Equal(t, "plain text notes\n", string(data))
}

func TestOpenFile_Errors(t *testing.T) {
	_, _, err := storage.OpenFile(filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)

	_, _, err = storage.OpenFile(t.TempDir())
	require.Error(t, err)
}
