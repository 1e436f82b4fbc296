package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// COSConfig holds COS-specific configuration.
type COSConfig struct {
	Bucket    string
	Region    string
	SecretID  string
	SecretKey string
	Domain    string // default "myqcloud.com"
	Scheme    string // default "https"
}

func (c COSConfig) withDefaults() COSConfig {
	if c.Domain == "" {
		c.Domain = "myqcloud.com"
	}
	if c.Scheme == "" {
		c.Scheme = "https"
	}
	return c
}

func (c COSConfig) bucketHost() string {
	return fmt.Sprintf("%s.cos.%s.%s", c.Bucket, c.Region, c.Domain)
}

// COSStorage implements Storage for Tencent Cloud COS.
type COSStorage struct {
	client *cos.Client
	cfg    COSConfig
}

// NewCOSStorage creates a new COSStorage instance.
func NewCOSStorage(cfg *COSConfig) (*COSStorage, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("bucket and region are required for COS storage")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("credentials are required for COS storage")
	}
	c := cfg.withDefaults()

	bucketURL, err := url.Parse(c.Scheme + "://" + c.bucketHost())
	if err != nil {
		return nil, fmt.Errorf("failed to parse bucket URL: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketURL}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  c.SecretID,
			SecretKey: c.SecretKey,
		},
	})
	return &COSStorage{client: client, cfg: c}, nil
}

// Upload stores reader under key with a content type matching the key suffix.
func (s *COSStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	opts := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{ContentType: ContentType(key)},
	}
	if _, err := s.client.Object.Put(ctx, key, reader, opts); err != nil {
		return storageError("upload", key, err)
	}
	return nil
}

// Download opens the object at key.
func (s *COSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.Object.Get(ctx, key, nil)
	switch {
	case cos.IsNotFoundError(err):
		return nil, notFound(key)
	case err != nil:
		return nil, storageError("download", key, err)
	}
	return resp.Body, nil
}

// Delete removes the object at key.
func (s *COSStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.Object.Delete(ctx, key, nil)
	if err != nil && !cos.IsNotFoundError(err) {
		return storageError("delete", key, err)
	}
	return nil
}

// Exists reports whether key holds an object.
func (s *COSStorage) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.Object.IsExist(ctx, key)
	if err != nil {
		return false, storageError("stat", key, err)
	}
	return ok, nil
}

// GetURL returns the public URL for key.
func (s *COSStorage) GetURL(key string) string {
	return (&url.URL{Scheme: s.cfg.Scheme, Host: s.cfg.bucketHost(), Path: "/" + key}).String()
}
