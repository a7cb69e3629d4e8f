package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "FindDiffTool", cfg.Name)
	assert.Equal(t, "main.py", cfg.Entry)
	assert.Equal(t, "version.txt", cfg.VersionFile)
	assert.Equal(t, "requirements.txt", cfg.Requirements)
	assert.NotEmpty(t, cfg.BundlerVersion)
}

func TestLoadConfigOverrides(t *testing.T) {
	root := t.TempDir()
	content := `
name: DemoTool
entry: app.py
bundler_version: "6.2.0"
extra_args:
  - --hidden-import
  - PySide6.QtSvg
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFile), []byte(content), 0600))

	cfg, err := LoadConfig(root)
	require.NoError(t, err)

	assert.Equal(t, "DemoTool", cfg.Name)
	assert.Equal(t, "app.py", cfg.Entry)
	assert.Equal(t, "6.2.0", cfg.BundlerVersion)
	assert.Equal(t, []string{"--hidden-import", "PySide6.QtSvg"}, cfg.ExtraArgs)
	// untouched fields keep their defaults
	assert.Equal(t, "version.txt", cfg.VersionFile)
	assert.Equal(t, "requirements.txt", cfg.Requirements)
}

func TestLoadConfigMalformed(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFile), []byte("name: [unclosed"), 0600))

	_, err := LoadConfig(root)
	require.Error(t, err)
}

func TestConfigVersion(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
		wantErr  bool
	}{
		{name: "plain", content: "1.4.2\n", expected: "1.4.2"},
		{name: "extra lines", content: "2.0.0\nchangelog notes\n", expected: "2.0.0"},
		{name: "whitespace", content: "  3.1.0  \n", expected: "3.1.0"},
		{name: "empty", content: "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			cfg := DefaultConfig()
			require.NoError(t, os.WriteFile(filepath.Join(root, cfg.VersionFile), []byte(tt.content), 0600))

			version, err := cfg.Version(root)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, version)
		})
	}
}

func TestConfigVersionMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	_, err := cfg.Version(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), cfg.VersionFile)
}
