package sink

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
)

// GCS stores objects in a Google Cloud Storage bucket under a prefix.
// Object writes are atomic: an object becomes visible only when its writer
// is closed successfully.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ Sink = (*GCS)(nil)

// NewGCS creates a GCS sink using application default credentials.
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

// Put uploads data as bucket/prefix/key.
func (g *GCS) Put(ctx context.Context, key string, data []byte, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	name := g.objectName(key)

	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to upload gs://%s/%s: %w", g.bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", g.bucket, name, err)
	}
	return nil
}

func (g *GCS) objectName(key string) string {
	if g.prefix == "" {
		return key
	}
	return path.Join(g.prefix, key)
}

// Location returns the gs:// URL of the root.
func (g *GCS) Location() string {
	if g.prefix == "" {
		return "gs://" + g.bucket
	}
	return "gs://" + g.bucket + "/" + g.prefix
}

// Close closes the storage client.
func (g *GCS) Close() error {
	return g.client.Close()
}
