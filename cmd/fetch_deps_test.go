package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalConditions(t *testing.T) {
	vars := map[string]string{
		"PYTHON_VERSION": "3.12.4",
		"darwin":         "true",
		"arm64":          "true",
	}

	tests := []struct {
		name        string
		meta        depSpec
		selected    bool
		expandedURL string
	}{
		{
			name:        "no conditions",
			meta:        depSpec{URL: "https://example.org/upx.zip"},
			selected:    true,
			expandedURL: "https://example.org/upx.zip",
		},
		{
			name:        "url placeholders",
			meta:        depSpec{URL: "https://example.org/python-{PYTHON_VERSION}.tar.gz"},
			selected:    true,
			expandedURL: "https://example.org/python-3.12.4.tar.gz",
		},
		{
			name:        "unknown placeholder expands to nothing",
			meta:        depSpec{URL: "https://example.org/{NOPE}file.zip"},
			selected:    true,
			expandedURL: "https://example.org/file.zip",
		},
		{
			name:     "if condition met",
			meta:     depSpec{URL: "u", Condition: "darwin,arm64"},
			selected: true,
		},
		{
			name:     "if condition unmet",
			meta:     depSpec{URL: "u", Condition: "windows"},
			selected: false,
		},
		{
			name:     "ifNot rejects",
			meta:     depSpec{URL: "u", Rejections: "darwin"},
			selected: false,
		},
		{
			name:     "ifNot passes",
			meta:     depSpec{URL: "u", Rejections: "windows"},
			selected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := tt.meta
			assert.Equal(t, tt.selected, evalConditions(&meta, vars))
			if tt.expandedURL != "" {
				assert.Equal(t, tt.expandedURL, meta.URL)
			}
		})
	}
}

func TestDepUpToDate(t *testing.T) {
	root := t.TempDir()
	meta := depSpec{
		URL:    "https://example.org/python.tar.gz",
		Dest:   ".python",
		Sha256: "cafe",
	}

	destPath := filepath.Join(root, meta.Dest)
	_, err := os.Stat(destPath)
	destExists := err == nil
	assert.False(t, depUpToDate(meta, depStamp(meta), destExists),
		"a matching stamp without the destination must not skip")

	require.NoError(t, os.MkdirAll(destPath, 0700))
	_, err = os.Stat(destPath)
	destExists = err == nil

	assert.True(t, depUpToDate(meta, depStamp(meta), destExists))
	assert.False(t, depUpToDate(meta, "", destExists), "unrecorded deps are downloaded")

	// a changed pin invalidates the recorded stamp
	recorded := depStamp(meta)
	meta.Sha256 = "beef"
	assert.False(t, depUpToDate(meta, recorded, destExists))

	meta.Sha256 = "cafe"
	meta.URL = "https://example.org/python-new.tar.gz"
	assert.False(t, depUpToDate(meta, recorded, destExists))
}

func TestOpenExtractorDest(t *testing.T) {
	destPath := t.TempDir()
	ds := depSpec{Strip: 1}

	handle, dest, err := openExtractorDest(destPath, "python-dist/bin/python3", ds)
	require.NoError(t, err)
	require.NotNil(t, handle)
	handle.Close()

	assert.Equal(t, filepath.Join(destPath, "bin", "python3"), dest)
	_, err = os.Stat(dest)
	assert.NoError(t, err, "the stripped entry must be created below the destination")

	// an entry that strips down to the destination itself is skipped
	handle, dest, err = openExtractorDest(destPath, "python-dist", ds)
	require.NoError(t, err)
	assert.Nil(t, handle)
	assert.Equal(t, "/", dest)
}
