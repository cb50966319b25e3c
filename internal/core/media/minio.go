package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinIO keeps uploads as objects in one bucket; URLs keep the same
// public-relative form as the local store and are served through the API.
type MinIO struct {
	client *minio.Client
	bucket string
	prefix string
	log    *zap.Logger
}

// NewMinIO uses the Endpoint, credential, Bucket, Region and UseSSL fields of o.
// A non-empty Region skips the bucket location lookup.
func NewMinIO(o Opts, l *zap.Logger) (*MinIO, error) {
	client, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
		Region: o.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client for %s: %w", o.Endpoint, err)
	}
	l.Info("minio media store", zap.String("endpoint", o.Endpoint), zap.String("bucket", o.Bucket), zap.Bool("ssl", o.UseSSL))
	return &MinIO{client: client, bucket: o.Bucket, prefix: o.Prefix, log: l}, nil
}

func (s *MinIO) Prefix() string { return s.prefix }

func (s *MinIO) Prepare(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		s.log.Error("make bucket failed", zap.String("bucket", s.bucket), zap.Error(err))
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *MinIO) Save(ctx context.Context, r io.Reader, size int64, originalName string) (string, error) {
	key := UniqueName(originalName)
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  mime.TypeByExtension(filepath.Ext(key)),
		UserMetadata: map[string]string{"original-filename": SanitizeName(originalName)},
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	s.log.Debug("media saved", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return join(s.prefix, key), nil
}

func (s *MinIO) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, 0, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, err
	}
	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, err
	}
	return obj, st.Size, nil
}

func (s *MinIO) Delete(ctx context.Context, url string) error {
	key, err := objectName(s.prefix, url)
	if err != nil {
		s.log.Warn("refusing to delete media outside upload prefix", zap.String("url", url))
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		s.log.Error("media delete failed", zap.String("key", key), zap.Error(err))
		return err
	}
	s.log.Info("media deleted", zap.String("key", key))
	return nil
}

func (s *MinIO) List(ctx context.Context) ([]Object, error) {
	var out []Object
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, Object{URL: join(s.prefix, obj.Key), Size: obj.Size, ModTime: obj.LastModified})
	}
	return out, nil
}
