package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bionicotaku/lingo-media-dashboard/internal/infrastructure/storage"
	"github.com/bionicotaku/lingo-media-dashboard/internal/models/vo"
	"github.com/bionicotaku/lingo-media-dashboard/internal/repositories"
	"github.com/bionicotaku/lingo-media-dashboard/internal/services"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

func newUploadCmd(current func() *app) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "upload <kind> <id> <file>",
		Short: "Upload a local file to an existing resource",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, path := args[1], args[2]

			file, closeFile, err := storage.OpenFile(path)
			if err != nil {
				return err
			}
			defer func() { _ = closeFile() }()

			ctx, cancel := signalContext(context.Background())
			defer cancel()
			// 中断只取消本次传输，服务端对象保持原状。
			stopWarn := context.AfterFunc(ctx, func() {
				current().log.Warnf("upload interrupted: kind=%s id=%s", kind, id)
			})
			defer stopWarn()

			a := current()
			out := &syncWriter{w: cmd.OutOrStdout()}
			unsubscribe := a.progress.Subscribe(id, progressPrinter(out, interval))
			defer unsubscribe()

			status := a.uploads.Upload(ctx, services.UploadRequest{
				Kind: kind,
				ID:   id,
				File: file,
				Status: services.StatusSetterFunc(func(status vo.UploadStatus) {
					fmt.Fprintf(out, "%s/%s upload=%s\n", kind, id, status)
				}),
			})
			if status.IsError() {
				return fmt.Errorf("upload %s/%s: %s", kind, id, status)
			}
			if !watch {
				return nil
			}
			return a.withMetrics(ctx, func(ctx context.Context) error {
				return a.watch(ctx, out, kind, id)
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "poll the resource until processing settles")
	cmd.Flags().DurationVar(&interval, "progress-interval", 500*time.Millisecond, "minimum interval between progress lines")
	return cmd
}

// progressPrinter 节流打印进度，0% 与 100% 总是输出。
func progressPrinter(out io.Writer, interval time.Duration) repositories.ProgressListener {
	throttle := rate.Sometimes{Interval: interval}
	return func(update repositories.ProgressUpdate) {
		if update.Cleared {
			return
		}
		line := func() { fmt.Fprintf(out, "%s progress=%d%%\n", update.ID, update.Percent) }
		if update.Percent == 0 || update.Percent == 100 {
			line()
			return
		}
		throttle.Do(line)
	}
}
