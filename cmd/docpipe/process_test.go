package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Lllllllleong/docpipeline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsStorage(t *testing.T) {
	assert.False(t, needsStorage([]string{"a.pdf", "/tmp/b.txt"}))
	assert.True(t, needsStorage([]string{"a.pdf", "gs://bucket/b.pdf"}))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	docs := []*models.ProcessedDocument{
		{OriginalName: "a.pdf", ID: "a-pdf-1", WordCount: 12, PageCount: 2,
			TokenizedData: &models.TokenizationResult{TokenCount: 15}},
		{OriginalName: "b.txt", ID: "b-txt-1", WordCount: 3, Warnings: []string{"Tokenization unavailable: tokenization is disabled"}},
	}
	failures := []models.DocumentFailure{{FileName: "c.doc", Code: "UNSUPPORTED_FORMAT", Message: "legacy Word"}}

	printSummary(&buf, docs, failures)

	out := buf.String()
	assert.Contains(t, out, "a-pdf-1")
	assert.Contains(t, out, "15")
	assert.Contains(t, out, "warning: b.txt: Tokenization unavailable")
	assert.Contains(t, out, "failed: c.doc: UNSUPPORTED_FORMAT legacy Word")
}

func TestProcessCommand(t *testing.T) {
	t.Setenv("TOKENIZE_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("HELLO WORLD:\nvalue one"), 0o644))

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"--env-file", filepath.Join(dir, "missing.env"), "process", "-q", "--json", src})

	require.NoError(t, root.Execute())

	assert.Contains(t, stdout.String(), `"normalizedText": "HELLO WORLD: value one"`)
	assert.Contains(t, stdout.String(), `"failures": []`)
}

func TestProcessCommandReportsFailures(t *testing.T) {
	t.Setenv("TOKENIZE_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	src := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"--env-file", filepath.Join(dir, "missing.env"), "process", "-q", src})

	err := root.Execute()

	require.Error(t, err)
	assert.Contains(t, stdout.String(), "failed: scan.png: UNSUPPORTED_FORMAT")
}
