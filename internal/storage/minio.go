package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	appconfig "s3site/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// MinioClient stores site objects on an S3-compatible host through minio-go.
type MinioClient struct {
	api    minioAPI
	bucket string
	prefix string
}

func NewMinioClient(cfg appconfig.S3Config) (*MinioClient, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if err := validateEndpoint(cfg.Endpoint); err != nil {
		return nil, err
	}
	u, _ := url.Parse(cfg.Endpoint)
	prefix, err := normalizePrefix(cfg.Prefix)
	if err != nil {
		return nil, err
	}

	creds := credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
		})
	}

	client, err := minio.New(u.Host, &minio.Options{
		Creds:  creds,
		Secure: u.Scheme == "https",
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioClient{api: client, bucket: bucket, prefix: prefix}, nil
}

func (c *MinioClient) PutFile(ctx context.Context, localPath, key, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return localReadError(localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return localReadError(localPath, err)
	}
	if info.IsDir() {
		return localReadError(localPath, errors.New("is a directory"))
	}

	_, err = c.api.PutObject(ctx, c.bucket, c.prefix+key, f, info.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return transportError("put object", key, err)
	}
	return nil
}

func (c *MinioClient) DeleteObject(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	err := c.api.RemoveObject(ctx, c.bucket, c.prefix+key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return transportError("delete object", key, err)
	}
	return nil
}

func (c *MinioClient) ListKeys(ctx context.Context) ([]string, error) {
	// Cancelling stops the listing goroutine when we return early on an error.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make([]string, 0)
	objects := c.api.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    c.prefix,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, transportError("list objects", "", obj.Err)
		}
		key := strings.TrimPrefix(obj.Key, c.prefix)
		if key == "" || !strings.HasPrefix(obj.Key, c.prefix) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
