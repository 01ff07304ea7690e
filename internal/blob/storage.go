// Package blob wraps the S3-compatible object store that holds uploaded
// images referenced from note content.
package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage is the object-storage client for the image bucket.
type Storage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base under which objects are served, e.g.
	// http://host/storage/v1/object. Objects appear at
	// <PublicURL>/public/<bucket>/<key>.
	PublicURL string
}

func New(opts Options) (*Storage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &Storage{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
	}, nil
}

// EnsureBucket creates the image bucket if it does not exist yet.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	return nil
}

// Upload stores an object under key, overwriting any previous object with
// the same key, and returns its public URL.
func (s *Storage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.URLFor(key), nil
}

// Remove deletes the named objects in one bulk call. Missing keys are not
// an error.
func (s *Storage) Remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	objects := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objects <- minio.ObjectInfo{Key: key}
	}
	close(objects)

	for result := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if result.Err != nil {
			return fmt.Errorf("remove %s: %w", result.ObjectName, result.Err)
		}
	}
	return nil
}

// URLFor returns the public URL an uploaded object is served from.
func (s *Storage) URLFor(key string) string {
	return s.publicURL + "/public/" + s.bucket + "/" + key
}

// FileName derives the storage key from a public object URL. URLs that do
// not point into this bucket yield "".
func (s *Storage) FileName(url string) string {
	return FileNameFromURL(url, s.bucket)
}

// FileNameFromURL extracts the storage key from a public URL by taking the
// path segment after the fixed "/public/<bucket>/" marker.
func FileNameFromURL(url, bucket string) string {
	if url == "" {
		return ""
	}
	marker := "/public/" + bucket + "/"
	_, after, found := strings.Cut(url, marker)
	if !found {
		return ""
	}
	return after
}
