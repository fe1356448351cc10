package gcp

import (
	"errors"
	"fmt"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestParseURI(t *testing.T) {
	uri, err := ParseURI("gs://grants-inbox/2024/form one.pdf")
	require.NoError(t, err)
	assert.Equal(t, ObjectURI{Bucket: "grants-inbox", Object: "2024/form one.pdf"}, uri)
	assert.Equal(t, "gs://grants-inbox/2024/form one.pdf", uri.String())

	for _, bad := range []string{"", "s3://b/o", "gs://", "gs://bucket", "gs://bucket/", "gs:///object", "gs://bucket/dir/"} {
		_, err := ParseURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsURI(t *testing.T) {
	assert.True(t, IsURI("gs://b/o"))
	assert.False(t, IsURI("./gs/b/o"))
}

func TestObjectError(t *testing.T) {
	uri := ObjectURI{Bucket: "b", Object: "o"}

	assert.ErrorIs(t, objectError(uri, "stat", storage.ErrObjectNotExist), ErrObjectNotFound)
	assert.ErrorIs(t, objectError(uri, "stat", fmt.Errorf("wrapped: %w", storage.ErrBucketNotExist)), ErrObjectNotFound)
	assert.ErrorIs(t, objectError(uri, "open", &googleapi.Error{Code: 404}), ErrObjectNotFound)

	other := errors.New("permission denied")
	err := objectError(uri, "open", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
	assert.Contains(t, err.Error(), "gs://b/o")
}
