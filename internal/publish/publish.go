// Package publish uploads locally generated dataset partitions to S3 so
// the platform's connectors can read them.
package publish

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config describes the destination bucket.
type Config struct {
	Endpoint        string // host:port; s3.amazonaws.com for AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Bucket          string
	Prefix          string // object key prefix, may be empty
	Concurrency     int
}

// Publisher uploads dataset files to object storage.
type Publisher struct {
	client *minio.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a Publisher against the configured endpoint.
func New(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &Publisher{client: client, cfg: cfg, logger: logger}, nil
}

// Stats summarizes one sync run.
type Stats struct {
	Files int
	Bytes int64
}

// Sync walks baseDir and uploads every regular file to
// <prefix>/<relative path>, preserving the partition layout the
// generators wrote. Uploads run concurrently up to the configured limit.
func (p *Publisher) Sync(ctx context.Context, baseDir string) (*Stats, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", baseDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", baseDir)
	}

	type upload struct {
		path string
		key  string
		size int64
	}
	var uploads []upload

	err = filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if p.cfg.Prefix != "" {
			key = strings.TrimSuffix(p.cfg.Prefix, "/") + "/" + key
		}
		uploads = append(uploads, upload{path: path, key: key, size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", baseDir, err)
	}

	p.logger.Info("Publishing dataset files",
		zap.String("bucket", p.cfg.Bucket), zap.String("prefix", p.cfg.Prefix),
		zap.Int("files", len(uploads)))

	stats := &Stats{}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for _, u := range uploads {
		g.Go(func() error {
			_, err := p.client.FPutObject(ctx, p.cfg.Bucket, u.key, u.path, minio.PutObjectOptions{
				ContentType: contentType(u.path),
			})
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", u.key, err)
			}
			p.logger.Debug("Uploaded", zap.String("key", u.key), zap.Int64("bytes", u.size))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Files = len(uploads)
	for _, u := range uploads {
		stats.Bytes += u.size
	}
	return stats, nil
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".parquet":
		return "application/octet-stream"
	default:
		return "application/octet-stream"
	}
}
