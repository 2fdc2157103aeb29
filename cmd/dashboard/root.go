package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/bionicotaku/lingo-media-dashboard/internal/models/po"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	opts := &options{}
	var (
		current *app
		cleanup func()
	)

	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Media dashboard client",
		Long:          "Command line client that uploads media to the dashboard API and tracks processing state until it settles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, c, err := opts.build()
			if err != nil {
				return fmt.Errorf("init dashboard: %w", err)
			}
			current, cleanup = a, c
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if cleanup != nil {
				cleanup()
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.confPath, "conf", "c", "", "config path, eg: -c configs/config.yaml")
	root.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "API endpoint, overrides DASHBOARD_API_ENDPOINT")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	appFn := func() *app { return current }
	root.AddCommand(
		newGetCmd(appFn),
		newCreateCmd(appFn),
		newWatchCmd(appFn),
		newUploadCmd(appFn),
	)
	return root
}

// signalContext 返回在 SIGINT/SIGTERM 时取消的 Context。
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func parseKind(value string) (po.ResourceKind, error) {
	kind, err := po.ParseKind(value)
	if err != nil {
		return "", fmt.Errorf("invalid kind %q: %w", value, err)
	}
	return kind, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describeState 生成一行资源状态摘要。
func describeState(kind po.ResourceKind, value po.Uploadable) string {
	state := string(value.State())
	if video, ok := value.(*po.Video); ok && video.PlayableDespiteError() {
		state += " (still playable)"
	}
	return fmt.Sprintf("%s/%s state=%s ready=%t", kind, value.ResourceID(), state, value.ReadyToShow())
}
