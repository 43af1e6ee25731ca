package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storagev1 "google.golang.org/api/storage/v1"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/storage"
)

const (
	publicHost      = "https://storage.googleapis.com"
	publicReadACL   = "publicRead"
	photoCacheValue = "public, max-age=31536000"
)

// Client uploads objects to a single Cloud Storage bucket through the JSON API.
type Client struct {
	svc     *storagev1.Service
	bucket  string
	baseURL string
}

// NewClient authenticates with inline JSON credentials, a credentials file, or the
// ambient application default credentials, in that order.
func NewClient(ctx context.Context, cfg config.GCSConfig, logg *logger.Logger, extra ...option.ClientOption) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	opts := []option.ClientOption{option.WithScopes(storagev1.DevstorageReadWriteScope)}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, extra...)

	svc, err := storagev1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs service: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs storage ready")
	}

	return &Client{
		svc:     svc,
		bucket:  cfg.BucketName,
		baseURL: publicHost + "/" + cfg.BucketName,
	}, nil
}

// Put uploads data under key. PublicRead applies the publicRead predefined ACL.
func (c *Client) Put(ctx context.Context, key string, data []byte, opts storage.PutOptions) (storage.Object, error) {
	if len(data) == 0 {
		return storage.Object{}, storage.ErrEmptyObject
	}
	obj := &storagev1.Object{
		Name:         key,
		ContentType:  opts.ContentType,
		CacheControl: photoCacheValue,
	}
	call := c.svc.Objects.Insert(c.bucket, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(opts.ContentType)).
		Context(ctx)
	if opts.PublicRead {
		call = call.PredefinedAcl(publicReadACL)
	}
	if _, err := call.Do(); err != nil {
		return storage.Object{}, fmt.Errorf("uploading %s to %s: %w", key, c.bucket, err)
	}
	return storage.Object{
		Bucket: c.bucket,
		Key:    key,
		URL:    c.baseURL + "/" + escapeKey(key),
	}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.svc.Buckets.Get(c.bucket).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gcs bucket %s: %w", c.bucket, err)
	}
	return nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
