package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalClient mirrors the bucket into a directory. Content types are not persisted.
type LocalClient struct {
	rootDir string
}

func NewLocalClient(rootDir string) *LocalClient {
	return &LocalClient{rootDir: rootDir}
}

func (c *LocalClient) PutFile(ctx context.Context, localPath, key, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := c.objectPath(key)
	if err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return localReadError(localPath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return transportError("put object", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".put-*")
	if err != nil {
		return transportError("put object", key, err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return transportError("put object", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return transportError("put object", key, err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		_ = os.Remove(tmpPath)
		return transportError("put object", key, err)
	}
	return nil
}

func (c *LocalClient) DeleteObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, pathErr := c.objectPath(key)
	if pathErr != nil {
		return pathErr
	}
	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return transportError("delete object", key, err)
	}
	return nil
}

func (c *LocalClient) ListKeys(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(c.rootDir); err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, transportError("list objects", "", err)
	}

	keys := make([]string, 0)
	err := filepath.WalkDir(c.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}

		rel, err := filepath.Rel(c.rootDir, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, transportError("list objects", "", err)
	}

	sort.Strings(keys)
	return keys, nil
}

func (c *LocalClient) objectPath(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrInvalidKey
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return filepath.Join(c.rootDir, cleaned), nil
}
