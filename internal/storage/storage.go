package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appconfig "s3site/internal/config"
)

var (
	// ErrTransport marks a failed request against the object store backend.
	ErrTransport = errors.New("object store request failed")
	// ErrLocalRead marks a local file that could not be opened for upload.
	ErrLocalRead = errors.New("local file unreadable")
	// ErrInvalidKey marks an object key that cannot be written.
	ErrInvalidKey = errors.New("invalid object key")
)

// ObjectStore is the bucket as seen by the syncer.
type ObjectStore interface {
	// PutFile writes the contents of localPath to key, replacing any existing object.
	PutFile(ctx context.Context, localPath, key, contentType string) error
	// DeleteObject removes key. Removing a key that does not exist succeeds.
	DeleteObject(ctx context.Context, key string) error
	// ListKeys returns every key in the store, sorted.
	ListKeys(ctx context.Context) ([]string, error)
}

// NewFromConfig builds the ObjectStore selected by cfg.Backend.
func NewFromConfig(ctx context.Context, cfg appconfig.S3Config) (ObjectStore, error) {
	switch cfg.Backend {
	case appconfig.BackendLocal:
		return NewLocalClient(cfg.LocalDir), nil
	case appconfig.BackendMinio:
		return NewMinioClient(cfg)
	case "", appconfig.BackendS3:
		return NewS3Client(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func transportError(op, key string, err error) error {
	if key == "" {
		return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrTransport, op, key, err)
}

func localReadError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrLocalRead, path, err)
}

// validateKey rejects keys that would escape the prefix or map to no object.
func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: %q is absolute", ErrInvalidKey, key)
	}
	for _, segment := range strings.Split(key, "/") {
		switch segment {
		case "", ".", "..":
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// normalizePrefix cleans a configured key prefix and guarantees a trailing slash.
func normalizePrefix(prefix string) (string, error) {
	p := strings.TrimSpace(strings.ReplaceAll(prefix, "\\", "/"))
	if p == "" {
		return "", nil
	}
	if strings.HasPrefix(p, "/") {
		return "", errors.New("s3 prefix must be relative")
	}

	parts := make([]string, 0)
	for _, segment := range strings.Split(p, "/") {
		switch segment {
		case "":
			continue
		case ".", "..":
			return "", errors.New("s3 prefix must not contain . or .. segments")
		}
		parts = append(parts, segment)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, "/") + "/", nil
}
