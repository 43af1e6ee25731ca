package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/storage"
)

const publicReadACL = "public-read"

type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// Client stores objects in an S3 compatible bucket (AWS S3 or MinIO).
type Client struct {
	api     objectAPI
	bucket  string
	baseURL string
	logg    *logger.Logger
}

// NewClient connects to the endpoint and makes sure the bucket exists.
func NewClient(ctx context.Context, cfg config.S3Config, logg *logger.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client for %s: %w", cfg.Endpoint, err)
	}

	if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		exists, existsErr := mc.BucketExists(ctx, cfg.Bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("making bucket %s: %w", cfg.Bucket, errors.Join(err, existsErr))
		}
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = mc.EndpointURL().String() + "/" + cfg.Bucket
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"bucket": cfg.Bucket, "endpoint": cfg.Endpoint}), "s3 storage ready")
	}

	return newClient(mc, cfg.Bucket, baseURL, logg), nil
}

func newClient(api objectAPI, bucket, baseURL string, logg *logger.Logger) *Client {
	return &Client{
		api:     api,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		logg:    logg,
	}
}

// Put uploads data under key and returns its public URL.
func (c *Client) Put(ctx context.Context, key string, data []byte, opts storage.PutOptions) (storage.Object, error) {
	if len(data) == 0 {
		return storage.Object{}, storage.ErrEmptyObject
	}
	putOpts := minio.PutObjectOptions{ContentType: opts.ContentType}
	if opts.PublicRead {
		putOpts.UserMetadata = map[string]string{"x-amz-acl": publicReadACL}
	}

	info, err := c.api.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), putOpts)
	if err != nil {
		return storage.Object{}, fmt.Errorf("uploading %s to %s: %w", key, c.bucket, err)
	}
	if c.logg != nil {
		c.logg.Debug(c.logg.WithFields(ctx, map[string]any{"key": info.Key, "size": info.Size}), "s3 object stored")
	}

	return storage.Object{
		Bucket: c.bucket,
		Key:    key,
		URL:    c.baseURL + "/" + key,
	}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", c.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", c.bucket)
	}
	return nil
}
