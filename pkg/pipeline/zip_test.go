package pipeline

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listZip(path string) ([]string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	return names, nil
}

func TestZipDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.exe"), []byte("MZ"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "data.txt"), []byte("payload"), 0600))

	dest := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, ZipDirectory(dir, dest))

	names, err := listZip(dest)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app.exe", "sub/data.txt"}, names)

	reader, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "sub/data.txt" {
			continue
		}

		handle, err := file.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(handle)
		handle.Close()
		require.NoError(t, err)
		assert.Equal(t, "payload", string(content))
	}
}

func TestZipDirectoryMissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.zip")
	err := ZipDirectory(filepath.Join(t.TempDir(), "missing"), dest)
	assert.Error(t, err)
}
