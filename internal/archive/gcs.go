package archive

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCS uploads artifacts to a Google Cloud Storage bucket. Authentication
// uses Application Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// NewGCS creates the client and verifies the bucket is reachable, failing
// fast on misconfiguration.
func NewGCS(ctx context.Context, bucket string, logger *zap.Logger) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close gcs client after failed bucket check", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check gcs bucket %q: %w", bucket, err)
	}
	return &GCS{client: client, bucket: bucket, logger: logger}, nil
}

// Save uploads one artifact. Close must be called on the writer to finalize
// the upload, so a close failure is a save failure.
func (g *GCS) Save(ctx context.Context, objectName string, data []byte) error {
	w := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/html; charset=utf-8"
	if _, err := w.Write(data); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			g.logger.Warn("close gcs writer after failed write", zap.Error(closeErr))
		}
		return fmt.Errorf("write gcs object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gcs object %s: %w", objectName, err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}
