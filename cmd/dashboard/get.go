package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newGetCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Fetch a resource and print it as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(context.Background())
			defer cancel()

			value, err := current().resources.Refresh(ctx, kind, args[1])
			if err != nil {
				return fmt.Errorf("get %s/%s: %w", kind, args[1], err)
			}
			return printJSON(cmd.OutOrStdout(), value)
		},
	}
}

func newCreateCmd(current func() *app) *cobra.Command {
	var (
		video    string
		title    string
		language string
		mode     string
	)
	cmd := &cobra.Command{
		Use:   "create <kind>",
		Short: "Create a resource (thumbnail, timed text track, document, video)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			payload := map[string]string{}
			for key, value := range map[string]string{"video": video, "title": title, "language": language, "mode": mode} {
				if value != "" {
					payload[key] = value
				}
			}
			ctx, cancel := signalContext(context.Background())
			defer cancel()

			value, err := current().resources.Create(ctx, kind, payload)
			if err != nil {
				return fmt.Errorf("create %s: %w", kind, err)
			}
			return printJSON(cmd.OutOrStdout(), value)
		},
	}
	cmd.Flags().StringVar(&video, "video", "", "parent video id (thumbnails, timed text tracks)")
	cmd.Flags().StringVar(&title, "title", "", "title (videos, documents)")
	cmd.Flags().StringVar(&language, "language", "", "language code (timed text tracks)")
	cmd.Flags().StringVar(&mode, "mode", "", "timed text mode: st, ts or cc")
	return cmd
}
