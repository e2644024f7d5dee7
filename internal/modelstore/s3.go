package modelstore

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/holocron/embedder/internal/config"
)

// S3Source reads model files mirrored into an S3-compatible bucket under
// {prefix}/{repo}/{file}.
type S3Source struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Source connects to the configured endpoint. Empty credentials use anonymous access.
func NewS3Source(cfg config.S3Config) (*S3Source, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &S3Source{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Name identifies the source in logs and errors.
func (s *S3Source) Name() string { return "s3" }

// ObjectKey returns the bucket key for file in repo.
func (s *S3Source) ObjectKey(repo, file string) string {
	return path.Join(s.prefix, repo, file)
}

// Open fetches the object. Stat is issued up front so a missing key fails here
// rather than on the first read.
func (s *S3Source) Open(ctx context.Context, repo, file string) (io.ReadCloser, int64, error) {
	key := s.ObjectKey(repo, file)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, s.mapError(key, err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, 0, s.mapError(key, err)
	}
	return obj, info.Size, nil
}

func (s *S3Source) mapError(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, key)
	}
	return fmt.Errorf("s3 get %s: %w", key, err)
}
