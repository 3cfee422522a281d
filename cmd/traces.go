package cmd

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"presence-sync/core/config"
	"presence-sync/core/storage"

	"github.com/spf13/cobra"
)

var tracesPrefix string

// tracesCmd lists the recorded traces available in the storage bucket.
var tracesCmd = &cobra.Command{
	Use:   "traces",
	Short: "List recorded traces in storage",
	Long:  `Lists the YAML and JSON trace objects stored under a prefix of the configured bucket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}

		prefix := tracesPrefix
		if prefix == "" {
			prefix = cfg.Storage.Prefix
		}

		_, err = listTraces(ctx, client, cfg.Storage.Bucket, prefix, cmd.OutOrStdout())
		return err
	},
}

func init() {
	tracesCmd.Flags().StringVar(&tracesPrefix, "prefix", "", "Object prefix to list (defaults to storage.prefix)")
	RootCmd.AddCommand(tracesCmd)
}

// listTraces writes one trace object name per line and returns how many were found.
func listTraces(ctx context.Context, client storage.Client, bucket, prefix string, out io.Writer) (int, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return 0, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		return 0, fmt.Errorf("bucket %s does not exist", bucket)
	}

	keys, err := storage.ListKeys(ctx, client, bucket, prefix)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, key := range keys {
		if !isTraceObject(key) {
			continue
		}
		fmt.Fprintln(out, key)
		count++
	}
	return count, nil
}

func isTraceObject(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
