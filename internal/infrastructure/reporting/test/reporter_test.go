package reporting_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/reporting"
	"github.com/bionicotaku/lingo-media-dashboard/internal/metadata"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestLogReporter_WritesSessionFields(t *testing.T) {
	var buf bytes.Buffer
	r := reporting.NewLogReporter(log.NewStdLogger(&buf), noop.NewMeterProvider().Meter("test"))

	ctx := metadata.Inject(context.Background(), metadata.SessionMetadata{Kind: "documents", ResourceID: "44"})
	r.Report(ctx, kerrors.NotFound("RESOURCE_NOT_FOUND", "missing"))

	out := buf.String()
	require.Contains(t, out, "kind=documents")
	require.Contains(t, out, "resource_id=44")
	require.Contains(t, out, "reason=RESOURCE_NOT_FOUND")
}

func TestLogReporter_IgnoresNilError(t *testing.T) {
	var buf bytes.Buffer
	r := reporting.NewLogReporter(log.NewStdLogger(&buf), nil)
	r.Report(context.Background(), nil)
	require.Empty(t, buf.String())
}

func TestRecorderAndTee(t *testing.T) {
	a, b := &reporting.Recorder{}, &reporting.Recorder{}
	tee := reporting.Tee(a, nil, b)

	tee.Report(context.Background(), errors.New("boom"))
	tee.Report(context.Background(), nil)

	require.Equal(t, 1, a.Len())
	require.Equal(t, 1, b.Len())
	require.EqualError(t, a.Errors()[0], "boom")
}
