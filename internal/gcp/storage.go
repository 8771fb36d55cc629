package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// BlobStore is a bucket-scoped view of Cloud Storage used by watermark jobs.
type BlobStore struct {
	bucket        *storage.BucketHandle
	bucketName    string
	uploadTimeout time.Duration
}

// NewBlobStore returns a BlobStore for bucketName. A zero uploadTimeout means no
// per-upload deadline beyond the caller's context.
func NewBlobStore(client *storage.Client, bucketName string, uploadTimeout time.Duration) *BlobStore {
	return &BlobStore{
		bucket:        client.Bucket(bucketName),
		bucketName:    bucketName,
		uploadTimeout: uploadTimeout,
	}
}

// URI returns the gs:// location of object in this bucket.
func (b *BlobStore) URI(object string) string {
	return fmt.Sprintf("gs://%s/%s", b.bucketName, object)
}

// Exists probes the object's metadata. Any failure, not only a missing object,
// is reported as "does not exist".
func (b *BlobStore) Exists(ctx context.Context, object string) bool {
	_, err := b.bucket.Object(object).Attrs(ctx)
	if err == nil {
		return true
	}

	var gerr *googleapi.Error
	switch {
	case errors.Is(err, storage.ErrObjectNotExist):
		slog.Info("Source object does not exist.", "gcsObject", b.URI(object))
	case errors.As(err, &gerr):
		slog.Warn("Existence probe rejected.", "gcsObject", b.URI(object), "code", gerr.Code, "error", err)
	default:
		slog.Warn("Existence probe failed.", "gcsObject", b.URI(object), "error", err)
	}
	return false
}

// Fetch reads the whole object into memory.
func (b *BlobStore) Fetch(ctx context.Context, object string) ([]byte, error) {
	r, err := b.bucket.Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for %s: %w", b.URI(object), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %s: %w", b.URI(object), err)
	}
	return data, nil
}

// Upload writes data to object, replacing any existing content, and returns the
// object's gs:// location.
func (b *BlobStore) Upload(ctx context.Context, data []byte, object string) (string, error) {
	writeCtx := ctx
	if b.uploadTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, b.uploadTimeout)
		defer cancel()
	}

	w := b.bucket.Object(object).NewWriter(writeCtx)
	w.ContentType = "application/pdf"

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write to GCS object %s: %w", b.URI(object), err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize GCS write for %s: %w", b.URI(object), err)
	}
	return b.URI(object), nil
}

// List returns the names of all objects under prefix, in listing order.
func (b *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	it := b.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", b.bucketName, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}
