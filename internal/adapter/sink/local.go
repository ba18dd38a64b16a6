package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local stores objects as files under a directory.
type Local struct {
	root string
}

var _ Sink = (*Local)(nil)

// NewLocal creates a sink rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

// Put writes data to a temporary file next to the target and renames it into
// place, so readers never observe a partially written tile.
func (l *Local) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	target := filepath.Join(l.root, filepath.FromSlash(key))
	dir := filepath.Dir(target)
	//nolint:gosec // G301: Output tiles are meant to be world-readable.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	//nolint:gosec // G302: Output tiles are meant to be world-readable.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return fmt.Errorf("failed to move %s into place: %w", target, err)
	}
	return nil
}

// Location returns the root directory.
func (l *Local) Location() string {
	if abs, err := filepath.Abs(l.root); err == nil {
		return abs
	}
	return l.root
}

// Close is a no-op for local sinks.
func (l *Local) Close() error {
	return nil
}
