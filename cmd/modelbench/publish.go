package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"modelbench/internal/publish"
)

var (
	publishDir    string
	publishBucket string
	publishPrefix string
)

// publishCmd uploads generated datasets to S3
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload generated dataset partitions to S3",
	Long: `Walks the local output directory and uploads every partition file
to the configured bucket, preserving the directory layout the
generators wrote so the platform's connectors can resolve the
date-based prefixes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if publishBucket != "" {
			cfg.Storage.Bucket = publishBucket
		}
		if err := cfg.ValidateStorage(); err != nil {
			return err
		}

		prefix := publishPrefix
		if prefix == "" {
			prefix = cfg.Storage.Prefix
		}

		publisher, err := publish.New(publish.Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			UseSSL:          cfg.Storage.UseSSL,
			Bucket:          cfg.Storage.Bucket,
			Prefix:          prefix,
			Concurrency:     cfg.Generate.Concurrency,
		}, logger)
		if err != nil {
			return err
		}

		stats, err := publisher.Sync(cmd.Context(), publishDir)
		if err != nil {
			return err
		}
		logger.Info("Publish complete",
			zap.Int("files", stats.Files), zap.Int64("bytes", stats.Bytes))
		fmt.Printf("Uploaded %d file(s) to s3://%s/%s\n", stats.Files, cfg.Storage.Bucket, prefix)
		return nil
	},
}

func init() {
	f := publishCmd.Flags()
	f.StringVarP(&publishDir, "dir", "d", "data", "Local directory to upload")
	f.StringVar(&publishBucket, "bucket", "", "Destination bucket (default: storage.bucket)")
	f.StringVar(&publishPrefix, "prefix", "", "Object key prefix (default: storage.prefix)")
}
