package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyasts/FindDiffTool/pkg/buildsys"
)

func testContext() context.Context {
	logger := zerolog.Nop()
	return buildsys.WithLogger(context.Background(), &logger)
}

// newTestPackager creates a packager over a temp project with a version file
// in place.
func newTestPackager(t *testing.T) *Packager {
	t.Helper()

	root := t.TempDir()
	cfg := DefaultConfig()
	require.NoError(t, os.WriteFile(filepath.Join(root, cfg.VersionFile), []byte("1.2.3\n"), 0600))

	return New(root, cfg)
}

// fakeBundleRunner records the executed tasks and creates the expected .app
// bundle for every successful bundle step. Architectures listed in failing
// report a build failure instead.
func fakeBundleRunner(t *testing.T, p *Packager, executed *[]string, failing map[string]bool) taskRunner {
	t.Helper()

	return func(ctx context.Context, projectRoot string, task *buildsys.Task, tasks buildsys.TaskList, dryRun, force bool) error {
		*executed = append(*executed, task.Short)

		arch, isBundle := strings.CutPrefix(task.Short, "bundle-mac-")
		if !isBundle {
			return nil
		}

		if failing[arch] {
			return eris.Errorf("simulated build failure for %s", arch)
		}

		return os.MkdirAll(p.macBundlePath(arch), 0700)
	}
}

func TestParseMacTarget(t *testing.T) {
	tests := []struct {
		target    string
		arches    []string
		universal bool
		wantErr   bool
	}{
		{target: TargetMacArm64, arches: []string{"arm64"}},
		{target: TargetMacX86, arches: []string{"x86_64"}},
		{target: TargetMacAll, arches: []string{"arm64", "x86_64"}},
		{target: TargetMacUniversal, universal: true},
		{target: "mac-ppc", wantErr: true},
		{target: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			arches, universal, err := ParseMacTarget(tt.target)
			if tt.wantErr {
				require.Error(t, err)

				var usageErr *UsageError
				assert.True(t, eris.As(err, &usageErr), "expected a usage error")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.arches, arches)
			assert.Equal(t, tt.universal, universal)
		})
	}
}

func TestPackageMacSingleArch(t *testing.T) {
	p := newTestPackager(t)
	executed := []string{}
	p.runTask = fakeBundleRunner(t, p, &executed, nil)

	err := p.PackageMac(testContext(), TargetMacArm64)
	require.NoError(t, err)

	assert.Equal(t, []string{"bundle-mac-arm64", "dmg-arm64"}, executed)
}

func TestPackageMacAll(t *testing.T) {
	p := newTestPackager(t)
	executed := []string{}
	p.runTask = fakeBundleRunner(t, p, &executed, nil)

	err := p.PackageMac(testContext(), TargetMacAll)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"bundle-mac-arm64", "dmg-arm64",
		"bundle-mac-x86_64", "dmg-x86_64",
	}, executed)
}

func TestPackageMacUniversalFallback(t *testing.T) {
	p := newTestPackager(t)
	executed := []string{}
	p.runTask = fakeBundleRunner(t, p, &executed, map[string]bool{archUniversal: true})

	err := p.PackageMac(testContext(), TargetMacUniversal)
	require.NoError(t, err, "the fallback builds must rescue a failed universal build")

	assert.Equal(t, []string{
		"bundle-mac-universal2",
		"bundle-mac-arm64", "dmg-arm64",
		"bundle-mac-x86_64", "dmg-x86_64",
	}, executed)
}

func TestPackageMacUniversalSuccessSkipsFallback(t *testing.T) {
	p := newTestPackager(t)
	executed := []string{}
	p.runTask = fakeBundleRunner(t, p, &executed, nil)

	err := p.PackageMac(testContext(), TargetMacUniversal)
	require.NoError(t, err)

	assert.Equal(t, []string{"bundle-mac-universal2", "dmg-universal2"}, executed)
}

func TestPackageMacUniversalFallbackExhausted(t *testing.T) {
	p := newTestPackager(t)
	executed := []string{}
	p.runTask = fakeBundleRunner(t, p, &executed, map[string]bool{
		archUniversal: true,
		"arm64":       true,
	})

	err := p.PackageMac(testContext(), TargetMacUniversal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback build for arm64 failed")
	assert.Contains(t, executed, "bundle-mac-universal2")
	assert.Contains(t, executed, "bundle-mac-arm64")
}

func TestPackageMacMissingBundle(t *testing.T) {
	p := newTestPackager(t)

	// the runner reports success but never produces the bundle
	p.runTask = func(ctx context.Context, projectRoot string, task *buildsys.Task, tasks buildsys.TaskList, dryRun, force bool) error {
		return nil
	}

	err := p.PackageMac(testContext(), TargetMacArm64)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing after the build")
}

func TestPackageMacMissingVersionFile(t *testing.T) {
	p := New(t.TempDir(), DefaultConfig())

	err := p.PackageMac(testContext(), TargetMacArm64)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version file")
}

func TestMacBundleArgs(t *testing.T) {
	p := newTestPackager(t)

	args := p.macBundleArgs("arm64")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-m PyInstaller")
	assert.Contains(t, joined, "--target-architecture arm64")
	assert.Contains(t, joined, "--name FindDiffTool")
	assert.NotContains(t, joined, "--icon", "missing icon files are skipped")
	assert.Equal(t, p.cfg.Entry, args[len(args)-1])
}

func TestMacBundleArgsWithIcon(t *testing.T) {
	p := newTestPackager(t)

	iconPath := filepath.Join(p.root, p.cfg.IconMac)
	require.NoError(t, os.MkdirAll(filepath.Dir(iconPath), 0700))
	require.NoError(t, os.WriteFile(iconPath, []byte("icns"), 0600))

	args := p.macBundleArgs("x86_64")
	assert.Contains(t, strings.Join(args, " "), "--icon "+p.cfg.IconMac)
}

func TestVenvSetupIsIdempotent(t *testing.T) {
	p := newTestPackager(t)

	venv, _, err := p.setupTasks("arm64")
	require.NoError(t, err)

	// The skip check is what keeps an existing venv from being recreated on
	// re-runs, so it has to point at the venv directory itself.
	require.Equal(t, []string{p.venvName("arm64")}, venv.SkipIfExists)

	// With the venv directory in place the real runner skips the task.
	require.NoError(t, os.MkdirAll(filepath.Join(p.root, p.venvName("arm64")), 0700))

	venv.Cmds = []buildsys.TaskCmd{buildsys.ScriptCmd{TaskName: venv.Short, Content: "echo recreated > venv-ran.txt"}}
	err = buildsys.RunTask(testContext(), p.root, venv, buildsys.TaskList{venv.Short: venv}, false, false)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(p.root, "venv-ran.txt"))
	assert.True(t, os.IsNotExist(err), "existing venv must not be recreated")
}
