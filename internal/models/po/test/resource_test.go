package po_test

import (
	"encoding/json"
	"testing"

	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"

	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	cases := map[string]po.ResourceKind{
		"videos":          po.KindVideos,
		"Video":           po.KindVideos,
		"thumbnail":       po.KindThumbnails,
		" documents ":     po.KindDocuments,
		"timedtexttracks": po.KindTimedTextTracks,
	}
	for input, want := range cases {
		got, err := po.ParseKind(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got)
	}

	_, err := po.ParseKind("playlists")
	require.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	require.True(t, po.CanTransition(po.UploadStatePending, po.UploadStateUploading))
	require.True(t, po.CanTransition(po.UploadStateUploading, po.UploadStateReady))
	require.True(t, po.CanTransition(po.UploadStateProcessing, po.UploadStateProcessing))
	require.True(t, po.CanTransition(po.UploadStateUploading, po.UploadStateError))
	require.True(t, po.CanTransition(po.UploadStateProcessing, po.UploadStateError))

	require.False(t, po.CanTransition(po.UploadStateReady, po.UploadStateProcessing))
	require.False(t, po.CanTransition(po.UploadStatePending, po.UploadStateError))
	require.False(t, po.CanTransition(po.UploadStateError, po.UploadStateReady))
}

func TestIsTerminalState(t *testing.T) {
	require.True(t, po.IsTerminalState(po.UploadStateReady))
	require.True(t, po.IsTerminalState(po.UploadStateError))
	require.False(t, po.IsTerminalState(po.UploadStateProcessing))
	require.False(t, po.IsTerminalState(po.UploadStatePending))
}

func TestDecodeDocument(t *testing.T) {
	payload := `{
		"id": "44",
		"upload_state": "processing",
		"is_ready_to_show": false,
		"title": "foo.pdf",
		"filename": "bar_foo.pdf",
		"extension": "pdf",
		"url": "https://example.com/document/44",
		"show_download": true
	}`
	var doc po.Document
	require.NoError(t, json.Unmarshal([]byte(payload), &doc))
	require.Equal(t, "44", doc.ResourceID())
	require.Equal(t, po.UploadStateProcessing, doc.State())
	require.False(t, doc.ReadyToShow())
	require.Equal(t, "bar_foo.pdf", doc.Filename)
}

func TestVideoPlayableDespiteError(t *testing.T) {
	video := &po.Video{
		UploadableBase: po.UploadableBase{ID: "43", UploadState: po.UploadStateError},
		IsReadyToPlay:  true,
	}
	require.True(t, video.PlayableDespiteError())
	require.True(t, video.ReadyToShow())

	video.IsReadyToPlay = false
	require.False(t, video.PlayableDespiteError())
}

func TestUploadPolicyGCSLocation(t *testing.T) {
	policy := &po.UploadPolicy{URL: "gs://media-bucket/tmp/videos/43/source"}
	bucket, object, ok := policy.GCSLocation()
	require.True(t, ok)
	require.Equal(t, "media-bucket", bucket)
	require.Equal(t, "tmp/videos/43/source", object)

	_, _, ok = (&po.UploadPolicy{URL: "https://s3.example.com/bucket"}).GCSLocation()
	require.False(t, ok)
	_, _, ok = (&po.UploadPolicy{URL: "gs://bucket-only"}).GCSLocation()
	require.False(t, ok)
}
