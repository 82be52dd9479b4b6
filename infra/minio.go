package infra

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/cinevault/cinevault/config"
)

// MinioClient is the asset store: every movie keeps two objects under
// the movies/<id>/ prefix, the full file and its thumbnail.
type MinioClient struct {
	Client   *minio.Client
	Bucket   string
	Endpoint string
}

func InitMinioClient(cfg *config.EnvConfig) *MinioClient {
	endpoint := cfg.Minio.Endpoint
	if endpoint == "" {
		panic("MinIO endpoint is not configured")
	}

	rootUser := cfg.Minio.RootUser
	if rootUser == "" {
		panic("MinIO root user is not configured")
	}

	rootPassword := cfg.Minio.RootPassword
	if rootPassword == "" {
		panic("MinIO root password is not configured")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(rootUser, rootPassword, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	mc := &MinioClient{
		Client:   client,
		Bucket:   cfg.Minio.Bucket,
		Endpoint: endpoint,
	}

	if err := mc.EnsureBucket(context.Background(), cfg.Minio.Bucket); err != nil {
		panic(fmt.Sprintf("Failed to ensure MinIO bucket: %v", err))
	}

	return mc
}

// EnsureBucket creates the bucket if it doesn't exist
func (m *MinioClient) EnsureBucket(ctx context.Context, bucketName string) error {
	exists, err := m.Client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		if err := m.Client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// progressReader counts bytes as they pass through to the transport and
// reports them to an advisory callback. Consumers must not rely on it
// for correctness.
type progressReader struct {
	reader      io.Reader
	total       int64
	transferred int64
	report      func(transferred, total int64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	if n > 0 {
		p.transferred += int64(n)
		if p.report != nil {
			p.report(p.transferred, p.total)
		}
	}
	return n, err
}

// PutObject writes a blob under the given key. Key collisions silently
// overwrite; the caller is responsible for uniqueness. Any transport
// failure surfaces immediately, there is no retry or resumption.
func (m *MinioClient) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string, report func(transferred, total int64)) error {
	if key == "" {
		return fmt.Errorf("object key cannot be empty")
	}

	src := reader
	if report != nil {
		src = &progressReader{reader: reader, total: size, report: report}
	}

	_, err := m.Client.PutObject(ctx, m.Bucket, key, src, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return nil
}

// ResolveURL issues a presigned access URL for an existing key. The
// object is stat'ed first so an absent key fails clearly instead of
// yielding a URL that 404s later.
func (m *MinioClient) ResolveURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}

	if _, err := m.Client.StatObject(ctx, m.Bucket, key, minio.StatObjectOptions{}); err != nil {
		return "", fmt.Errorf("object %s not found: %w", key, err)
	}

	presigned, err := m.Client.PresignedGetObject(ctx, m.Bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign URL for %s: %w", key, err)
	}

	return presigned.String(), nil
}

// ObjectExists reports whether a key is present in the bucket.
func (m *MinioClient) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := m.Client.StatObject(ctx, m.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return true, nil
}

// RemovePrefix deletes all objects under the given prefix. Used by the
// reconcile worker to sweep orphaned upload artifacts.
func (m *MinioClient) RemovePrefix(ctx context.Context, prefix string) error {
	objectCh := m.Client.ListObjects(ctx, m.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	objectsToDelete := make(chan minio.ObjectInfo)

	go func() {
		defer close(objectsToDelete)
		for obj := range objectCh {
			if obj.Err != nil {
				continue
			}
			objectsToDelete <- obj
		}
	}()

	errorCh := m.Client.RemoveObjects(ctx, m.Bucket, objectsToDelete, minio.RemoveObjectsOptions{})

	for err := range errorCh {
		if err.Err != nil {
			return fmt.Errorf("failed to remove object %s: %w", err.ObjectName, err.Err)
		}
	}

	return nil
}
