package storage

import (
	"bytes"
	"context"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/port"
)

// R2Storage talks to a Cloudflare R2 bucket through the S3-compatible API.
type R2Storage struct {
	client r2Client
	bucket string
}

// compile-time check: *R2Storage must satisfy port.Storage
var _ port.Storage = (*R2Storage)(nil)

// NewR2Storage builds a client for https://{endpoint} with static v4 creds.
func NewR2Storage(endpoint, accessKey, secretKey, bucket string) (*R2Storage, error) {
	log.Println("initialising R2 client...")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: true,
		Region: "auto",
	})
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return &R2Storage{client: client, bucket: bucket}, nil
}

func (s *R2Storage) SaveFile(ctx context.Context, key string, data []byte, contentType, cacheControl string, metadata map[string]string) error {
	log.Printf("saving object %q into bucket %q...", key, s.bucket)

	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	}
	if len(metadata) > 0 {
		opts.UserMetadata = metadata
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return mapStorageErr(err)
	}
	return nil
}

func (s *R2Storage) GetFile(ctx context.Context, key string) ([]byte, error) {
	log.Printf("getting object %q from bucket %q...", key, s.bucket)

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer func() {
		if err := obj.Close(); err != nil {
			log.Printf("failed to close reader for object %q", key)
		}
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return data, nil
}

func (s *R2Storage) StatFile(ctx context.Context, key string) (port.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return port.ObjectInfo{}, mapStorageErr(err)
	}
	return port.ObjectInfo{
		Key:          info.Key,
		SizeBytes:    info.Size,
		LastModified: info.LastModified,
	}, nil
}

func (s *R2Storage) ListByPrefix(ctx context.Context, prefix string) ([]port.ObjectInfo, error) {
	log.Printf("listing objects under %q in bucket %q...", prefix, s.bucket)

	var out []port.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, mapStorageErr(obj.Err)
		}
		out = append(out, port.ObjectInfo{
			Key:          obj.Key,
			SizeBytes:    obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

func (s *R2Storage) RemoveFile(ctx context.Context, key string) error {
	log.Printf("removing object %q from bucket %q...", key, s.bucket)

	return mapStorageErr(s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}))
}

func (s *R2Storage) RemoveFiles(ctx context.Context, keys []string) (removed, failed int) {
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)

	failedKeys := map[string]bool{}
	for rErr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rErr.Err != nil {
			log.Printf("failed to remove object %q: %v", rErr.ObjectName, rErr.Err)
			failedKeys[rErr.ObjectName] = true
		}
	}
	failed = len(failedKeys)
	return len(keys) - failed, failed
}

func (s *R2Storage) VerifyBucket(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return mapStorageErr(err)
	}
	if !ok {
		return model.ErrBucketNotFound
	}
	return nil
}
