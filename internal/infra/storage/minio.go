package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"k8s.io/klog/v2"

	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	scheme     string
}

// New connects to an S3-compatible endpoint and makes sure the bucket exists. scheme is the
// prefix used for returned locators, "gs" when the endpoint is GCS interoperability.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey, scheme string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		klog.Infof("[Storage] bucket %s not found, creating", bucket)
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	if scheme == "" {
		scheme = "gs"
	}
	return &Store{client: cli, bucketName: bucket, region: region, scheme: scheme}, nil
}

// Put streams r into the bucket under name. size may be -1 when unknown.
func (s *Store) Put(ctx context.Context, r io.Reader, size int64, name, contentType string) (documents.Locator, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.client.PutObject(ctx, s.bucketName, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", name, err)
	}
	klog.V(6).Infof("[Storage] stored %s (%d bytes)", name, info.Size)
	return FormatLocator(s.scheme, s.bucketName, name), nil
}

// Open reads an object back. Only locators in the configured bucket are served.
func (s *Store) Open(ctx context.Context, loc documents.Locator) (io.ReadCloser, error) {
	_, bucket, key, err := ParseLocator(loc)
	if err != nil {
		return nil, err
	}
	if bucket != s.bucketName {
		return nil, fmt.Errorf("locator %s is outside bucket %s", loc, s.bucketName)
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller starts reading
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	return obj, nil
}

// Check implements middleware.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucketName)
	}
	return nil
}

func FormatLocator(scheme, bucket, key string) documents.Locator {
	return documents.Locator(fmt.Sprintf("%s://%s/%s", scheme, bucket, key))
}

// ParseLocator splits scheme://bucket/key.
func ParseLocator(loc documents.Locator) (scheme, bucket, key string, err error) {
	scheme, rest, ok := strings.Cut(string(loc), "://")
	if !ok || scheme == "" {
		return "", "", "", documents.Invalid("invalid locator %q", loc)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", "", documents.Invalid("invalid locator %q", loc)
	}
	return scheme, bucket, key, nil
}
