package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	appconfig "s3site/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

const (
	defaultDeleteTimeout   = 30 * time.Second
	defaultListPageTimeout = 30 * time.Second
)

type objectUploader interface {
	UploadObject(ctx context.Context, input *transfermanager.UploadObjectInput, optFns ...func(*transfermanager.Options)) (*transfermanager.UploadObjectOutput, error)
}

type s3API interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type listObjectsV2Paginator interface {
	HasMorePages() bool
	NextPage(ctx context.Context, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type awsListObjectsV2Paginator struct {
	inner *s3.ListObjectsV2Paginator
}

func (p *awsListObjectsV2Paginator) HasMorePages() bool {
	return p.inner != nil && p.inner.HasMorePages()
}

func (p *awsListObjectsV2Paginator) NextPage(ctx context.Context, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if p.inner == nil {
		return nil, errors.New("s3 paginator is not configured")
	}
	return p.inner.NextPage(ctx, optFns...)
}

func newAWSListObjectsV2Paginator(client s3.ListObjectsV2APIClient, input *s3.ListObjectsV2Input) listObjectsV2Paginator {
	return &awsListObjectsV2Paginator{inner: s3.NewListObjectsV2Paginator(client, input)}
}

// S3Client stores site objects in an S3 bucket, optionally under a key prefix.
type S3Client struct {
	uploader objectUploader
	api      s3API
	bucket   string
	prefix   string

	deleteTimeout             time.Duration
	listPageTimeout           time.Duration
	newListObjectsV2Paginator func(s3.ListObjectsV2APIClient, *s3.ListObjectsV2Input) listObjectsV2Paginator
}

// NewS3Client builds a client from cfg. Static credentials are used when both the access
// key and secret are set; otherwise the SDK default credential chain applies.
func NewS3Client(ctx context.Context, cfg appconfig.S3Config) (*S3Client, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		return nil, errors.New("s3 region is required")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint != "" {
		if err := validateEndpoint(endpoint); err != nil {
			return nil, err
		}
	}
	prefix, err := normalizePrefix(cfg.Prefix)
	if err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		uploader:                  transfermanager.New(client),
		api:                       client,
		bucket:                    bucket,
		prefix:                    prefix,
		deleteTimeout:             defaultDeleteTimeout,
		listPageTimeout:           defaultListPageTimeout,
		newListObjectsV2Paginator: newAWSListObjectsV2Paginator,
	}, nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return errors.New("s3 endpoint must be a valid http(s) URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("s3 endpoint must use http or https")
	}
	return nil
}

func (c *S3Client) PutFile(ctx context.Context, localPath, key, contentType string) error {
	if c.uploader == nil {
		return errors.New("s3 uploader is not configured")
	}
	objectKey, err := c.prefixedKey(key)
	if err != nil {
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

	input := &transfermanager.UploadObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(objectKey),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := c.uploader.UploadObject(ctx, input); err != nil {
		return transportError("put object", key, err)
	}
	return nil
}

func (c *S3Client) DeleteObject(ctx context.Context, key string) error {
	if c.api == nil {
		return errors.New("s3 api client is not configured")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	deleteCtx, cancel := c.withTimeout(ctx, c.deleteTimeout)
	defer cancel()

	_, err := c.api.DeleteObject(deleteCtx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.prefix + key),
	})
	if err != nil && !isNotFound(err) {
		return transportError("delete object", key, err)
	}
	return nil
}

// ListKeys returns every key under the prefix with the prefix removed.
func (c *S3Client) ListKeys(ctx context.Context) ([]string, error) {
	if c.api == nil {
		return nil, errors.New("s3 api client is not configured")
	}
	if c.newListObjectsV2Paginator == nil {
		return nil, errors.New("s3 paginator factory is not configured")
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	}
	if c.prefix != "" {
		input.Prefix = aws.String(c.prefix)
	}
	paginator := c.newListObjectsV2Paginator(c.api, input)
	if paginator == nil {
		return nil, errors.New("s3 paginator is not configured")
	}

	keys := make([]string, 0)
	for paginator.HasMorePages() {
		page, err := c.nextPage(ctx, paginator)
		if err != nil {
			return nil, transportError("list objects", "", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			key := *obj.Key
			if !strings.HasPrefix(key, c.prefix) {
				continue
			}
			key = strings.TrimPrefix(key, c.prefix)
			if key == "" {
				continue
			}
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

func (c *S3Client) nextPage(ctx context.Context, paginator listObjectsV2Paginator) (*s3.ListObjectsV2Output, error) {
	pageCtx, cancel := c.withTimeout(ctx, c.listPageTimeout)
	defer cancel()
	return paginator.NextPage(pageCtx)
}

func (c *S3Client) prefixedKey(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return c.prefix + key, nil
}

func (c *S3Client) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}
