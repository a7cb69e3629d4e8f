// Package pipeline implements the packaging pipelines that replaced the old
// package.sh / package-win.ps1 scripts. The pipelines build their steps as
// buildsys tasks so they share the shell runtime, the skip semantics and the
// logging of the regular task runner.
package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the name of the packaging config at the project root.
const ConfigFile = "package.yml"

// Config describes how the editor is packaged. All fields have defaults, the
// config file only has to override what differs.
type Config struct {
	// Name is the bundle / product name.
	Name string `yaml:"name"`
	// BundleID is the macOS bundle identifier.
	BundleID string `yaml:"bundle_id"`
	// Entry is the Python entry point handed to the bundler.
	Entry string `yaml:"entry"`
	// IconMac and IconWin are optional; a missing icon file is skipped.
	IconMac string `yaml:"icon_mac"`
	IconWin string `yaml:"icon_win"`
	// VersionFile is a plain text file whose first line is the version.
	VersionFile string `yaml:"version_file"`
	// Requirements is the pip requirements file installed into the build venv.
	Requirements string `yaml:"requirements"`
	// BundlerVersion pins the PyInstaller release used for builds.
	BundlerVersion string `yaml:"bundler_version"`
	// Python is the interpreter used to create the build venvs.
	Python string `yaml:"python"`
	// Formatter is the formatter module invoked by `tool fmt`.
	Formatter string `yaml:"formatter"`
	// ExtraArgs are appended to every bundler invocation.
	ExtraArgs []string `yaml:"extra_args"`
}

// DefaultConfig returns the built-in defaults used when package.yml is absent.
func DefaultConfig() Config {
	return Config{
		Name:           "FindDiffTool",
		BundleID:       "com.cyasts.finddifftool",
		Entry:          "main.py",
		IconMac:        "assets/icon.icns",
		IconWin:        "assets/icon.ico",
		VersionFile:    "version.txt",
		Requirements:   "requirements.txt",
		BundlerVersion: "6.10.0",
		Python:         "python3",
		Formatter:      "black",
	}
}

// LoadConfig reads package.yml from the project root. A missing file yields
// the defaults, a malformed file is an error.
func LoadConfig(projectRoot string) (Config, error) {
	cfg := DefaultConfig()

	content, err := os.ReadFile(filepath.Join(projectRoot, ConfigFile))
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, eris.Wrapf(err, "failed to read %s", ConfigFile)
	}

	overrides := Config{}
	err = yaml.Unmarshal(content, &overrides)
	if err != nil {
		return cfg, eris.Wrapf(err, "failed to parse %s", ConfigFile)
	}

	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	merge(&cfg.Name, overrides.Name)
	merge(&cfg.BundleID, overrides.BundleID)
	merge(&cfg.Entry, overrides.Entry)
	merge(&cfg.IconMac, overrides.IconMac)
	merge(&cfg.IconWin, overrides.IconWin)
	merge(&cfg.VersionFile, overrides.VersionFile)
	merge(&cfg.Requirements, overrides.Requirements)
	merge(&cfg.BundlerVersion, overrides.BundlerVersion)
	merge(&cfg.Python, overrides.Python)
	merge(&cfg.Formatter, overrides.Formatter)
	if len(overrides.ExtraArgs) > 0 {
		cfg.ExtraArgs = overrides.ExtraArgs
	}

	return cfg, nil
}

// Version reads the first line of the configured version file.
func (c Config) Version(projectRoot string) (string, error) {
	content, err := os.ReadFile(filepath.Join(projectRoot, c.VersionFile))
	if err != nil {
		return "", eris.Wrapf(err, "failed to read version file %s", c.VersionFile)
	}

	version, _, _ := strings.Cut(string(content), "\n")
	version = strings.TrimSpace(version)
	if version == "" {
		return "", eris.Errorf("version file %s is empty", c.VersionFile)
	}

	return version, nil
}
