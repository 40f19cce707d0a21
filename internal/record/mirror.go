package record

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob" // GCS driver
	_ "gocloud.dev/blob/s3blob"  // S3 driver

	"github.com/stakewerk/snsctl/internal/logging"
)

// MirrorConfig selects the blob backend artifacts are mirrored to.
type MirrorConfig struct {
	Backend   string // "local" | "gcs" | "s3"
	Bucket    string
	Prefix    string
	Region    string
	LocalPath string
}

// Mirror copies deployment artifacts to a blob bucket.
type Mirror struct {
	bucket *blob.Bucket
	prefix string
	log    *slog.Logger
}

// NewMirror opens the configured blob backend.
func NewMirror(ctx context.Context, cfg MirrorConfig) (*Mirror, error) {
	var (
		bucket *blob.Bucket
		err    error
	)

	switch cfg.Backend {
	case "local":
		if cfg.LocalPath == "" {
			return nil, fmt.Errorf("local mirror requires a path")
		}
		bucket, err = fileblob.OpenBucket(cfg.LocalPath, &fileblob.Options{CreateDir: true})
		if err != nil {
			return nil, fmt.Errorf("open local bucket %s: %w", cfg.LocalPath, err)
		}
	case "gcs":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("gcs mirror requires a bucket")
		}
		bucket, err = blob.OpenBucket(ctx, fmt.Sprintf("gs://%s", cfg.Bucket))
		if err != nil {
			return nil, fmt.Errorf("open GCS bucket %s: %w", cfg.Bucket, err)
		}
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 mirror requires a bucket")
		}
		url := fmt.Sprintf("s3://%s", cfg.Bucket)
		if cfg.Region != "" {
			url += "?region=" + cfg.Region
		}
		bucket, err = blob.OpenBucket(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("open S3 bucket %s: %w", cfg.Bucket, err)
		}
	default:
		return nil, fmt.Errorf("unknown mirror backend: %s", cfg.Backend)
	}

	return &Mirror{
		bucket: bucket,
		prefix: cfg.Prefix,
		log:    logging.Component("mirror"),
	}, nil
}

// Upload copies one local file to the bucket under name.
func (m *Mirror) Upload(ctx context.Context, localPath, name string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	key := name
	if m.prefix != "" {
		key = path.Join(m.prefix, name)
	}

	w, err := m.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", key, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("write data to %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", key, err)
	}

	m.log.Debug("artifact mirrored", "key", key)
	return nil
}

// Close releases the bucket connection.
func (m *Mirror) Close() error {
	if m.bucket != nil {
		return m.bucket.Close()
	}
	return nil
}
