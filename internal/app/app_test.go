package app

import (
	"context"
	"sync"
	"testing"

	"github.com/Lllllllleong/docpipeline/internal/config"
	"github.com/Lllllllleong/docpipeline/internal/extractor"
	"github.com/Lllllllleong/docpipeline/internal/gcp"
	"github.com/Lllllllleong/docpipeline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryStore) Stat(_ context.Context, uri gcp.ObjectURI) (*gcp.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[uri.String()]
	if !ok {
		return nil, gcp.ErrObjectNotFound
	}
	return &gcp.ObjectInfo{URI: uri, Size: int64(len(data))}, nil
}

func (m *memoryStore) Read(_ context.Context, uri gcp.ObjectURI, _ int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[uri.String()]
	if !ok {
		return nil, gcp.ErrObjectNotFound
	}
	return data, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Tokenizer.Enabled = false
	return New(context.Background(), cfg, nil, Options{})
}

func TestNewWiresLimitsAndPipeline(t *testing.T) {
	a := newTestApp(t)
	defer a.Close()

	assert.Nil(t, a.Store)
	assert.Equal(t, a.Config.Server.MaxBatchFiles, a.Limits.MaxBatchFiles)
	assert.True(t, a.Limits.Supported(extractor.MediaTypePDF))
	assert.False(t, a.Limits.Supported("image/png"))
	assert.NotNil(t, a.Server().Handler())

	doc, err := a.Pipeline.ProcessDocument(context.Background(),
		models.NewDocumentInput("a.txt", extractor.MediaTypeText, []byte("hello there")), nil)
	require.NoError(t, err)
	assert.Nil(t, doc.TokenizedData)
}
