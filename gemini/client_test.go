package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestMimeTypeFor(t *testing.T) {
	cases := map[string]string{
		"docs/guide.md":    "text/markdown",
		"notes.TXT":        "text/plain",
		"report.pdf":       "application/pdf",
		"page.html":        "text/html",
		"data.json":        "application/json",
		"archive.unknown":  "text/plain",
		"no_extension_doc": "text/plain",
	}
	for path, want := range cases {
		assert.Equal(t, want, mimeTypeFor(path), "path %q", path)
	}
}
