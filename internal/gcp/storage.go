package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrObjectNotFound is returned when a gs:// object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ErrObjectTooLarge is returned by Read when an object exceeds the byte limit.
var ErrObjectTooLarge = errors.New("object exceeds maximum size")

// NewStorageClient creates a Cloud Storage client. A non-empty endpoint
// targets an emulator without credentials.
func NewStorageClient(ctx context.Context, endpoint string) (*storage.Client, error) {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// ObjectURI names a Cloud Storage object.
type ObjectURI struct {
	Bucket string
	Object string
}

func (u ObjectURI) String() string {
	return "gs://" + u.Bucket + "/" + u.Object
}

// IsURI reports whether s uses the gs:// scheme.
func IsURI(s string) bool {
	return strings.HasPrefix(s, "gs://")
}

// ParseURI splits gs://bucket/path/to/object.
func ParseURI(uri string) (ObjectURI, error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return ObjectURI{}, fmt.Errorf("not a gs:// URI: %q", uri)
	}
	bucket, object, _ := strings.Cut(rest, "/")
	if bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return ObjectURI{}, fmt.Errorf("gs:// URI must name a bucket and an object: %q", uri)
	}
	return ObjectURI{Bucket: bucket, Object: object}, nil
}

// ObjectInfo is the metadata needed to validate an object before reading it.
type ObjectInfo struct {
	URI         ObjectURI
	ContentType string
	Size        int64
}

// ObjectStore reads objects. GCSStore is the Cloud Storage
// implementation.
type ObjectStore interface {
	Stat(ctx context.Context, uri ObjectURI) (*ObjectInfo, error)
	Read(ctx context.Context, uri ObjectURI, maxBytes int64) ([]byte, error)
}

// GCSStore implements ObjectStore on a storage client.
type GCSStore struct {
	client *storage.Client
}

func NewGCSStore(client *storage.Client) *GCSStore {
	return &GCSStore{client: client}
}

func (s *GCSStore) Stat(ctx context.Context, uri ObjectURI) (*ObjectInfo, error) {
	attrs, err := s.client.Bucket(uri.Bucket).Object(uri.Object).Attrs(ctx)
	if err != nil {
		return nil, objectError(uri, "stat", err)
	}
	return &ObjectInfo{URI: uri, ContentType: attrs.ContentType, Size: attrs.Size}, nil
}

// Read downloads an object; maxBytes <= 0 disables the limit.
func (s *GCSStore) Read(ctx context.Context, uri ObjectURI, maxBytes int64) ([]byte, error) {
	reader, err := s.client.Bucket(uri.Bucket).Object(uri.Object).NewReader(ctx)
	if err != nil {
		return nil, objectError(uri, "open", err)
	}
	defer reader.Close()

	var src io.Reader = reader
	if maxBytes > 0 {
		src = io.LimitReader(reader, maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s (max %d bytes)", ErrObjectTooLarge, uri, maxBytes)
	}
	return data, nil
}

func objectError(uri ObjectURI, op string, err error) error {
	var gerr *googleapi.Error
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) ||
		(errors.As(err, &gerr) && gerr.Code == 404) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, uri)
	}
	return fmt.Errorf("failed to %s %s: %w", op, uri, err)
}
