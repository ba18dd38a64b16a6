// Package sink stores encoded tiles under a root location.
package sink

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Sink stores objects addressed by slash-separated keys relative to a root.
type Sink interface {
	// Put stores data at key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Location returns a human-readable root (a path or URL) for logging.
	Location() string

	// Close releases any resources held by the sink.
	Close() error
}

// New returns a sink for root: "gs://bucket/prefix" roots use Google Cloud
// Storage, anything else is a local directory.
func New(ctx context.Context, root string) (Sink, error) {
	if strings.HasPrefix(root, "gs://") {
		bucket, prefix, err := ParseGCSURL(root)
		if err != nil {
			return nil, err
		}
		return NewGCS(ctx, bucket, prefix)
	}
	if root == "" {
		return nil, fmt.Errorf("output root is empty")
	}
	return NewLocal(root), nil
}

// ParseGCSURL splits "gs://bucket/prefix" into bucket and prefix.
func ParseGCSURL(raw string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(raw, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// URL: %q", raw)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", raw)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// cleanKey validates a relative object key.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid key %q", key)
		}
	}
	return path.Clean(key), nil
}
