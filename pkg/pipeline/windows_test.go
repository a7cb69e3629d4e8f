package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyasts/FindDiffTool/pkg/buildsys"
)

func writeEntryFile(t *testing.T, p *Packager) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(p.root, p.cfg.Entry), []byte("print('hi')\n"), 0600))
}

// fakeWinRunner records executed tasks and fills the dist/windows output
// directory for the bundle step.
func fakeWinRunner(p *Packager, executed *[]string, name string) taskRunner {
	return func(ctx context.Context, projectRoot string, task *buildsys.Task, tasks buildsys.TaskList, dryRun, force bool) error {
		*executed = append(*executed, task.Short)

		if task.Short == "bundle-"+winArch {
			outDir := filepath.Join(p.root, "dist", "windows", name)
			err := os.MkdirAll(outDir, 0700)
			if err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(outDir, name+".exe"), []byte("MZ"), 0600)
		}
		return nil
	}
}

func TestPackageWindows(t *testing.T) {
	p := newTestPackager(t)
	writeEntryFile(t, p)

	executed := []string{}
	p.runTask = fakeWinRunner(p, &executed, p.cfg.Name)

	err := p.PackageWindows(testContext(), "", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"bundle-win64"}, executed)

	archive := filepath.Join(p.root, "dist", "FindDiffTool-1.2.3-win64.zip")
	_, err = os.Stat(archive)
	require.NoError(t, err, "the distribution archive must exist")

	names, err := listZip(archive)
	require.NoError(t, err)
	assert.Contains(t, names, "FindDiffTool.exe")
}

func TestPackageWindowsNameOverride(t *testing.T) {
	p := newTestPackager(t)
	writeEntryFile(t, p)

	executed := []string{}
	p.runTask = fakeWinRunner(p, &executed, "CustomName")

	err := p.PackageWindows(testContext(), "CustomName", "")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(p.root, "dist", "CustomName-1.2.3-win64.zip"))
	assert.NoError(t, err)
}

func TestPackageWindowsMissingEntry(t *testing.T) {
	p := newTestPackager(t)

	ran := false
	p.runTask = func(ctx context.Context, projectRoot string, task *buildsys.Task, tasks buildsys.TaskList, dryRun, force bool) error {
		ran = true
		return nil
	}

	err := p.PackageWindows(testContext(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry file")
	assert.Contains(t, err.Error(), p.cfg.Entry)
	assert.False(t, ran, "no task may run when the entry file is missing")
}

func TestPackageWindowsMissingOutput(t *testing.T) {
	p := newTestPackager(t)
	writeEntryFile(t, p)

	// reports success without producing the output directory
	p.runTask = func(ctx context.Context, projectRoot string, task *buildsys.Task, tasks buildsys.TaskList, dryRun, force bool) error {
		return nil
	}

	err := p.PackageWindows(testContext(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing after the build")
}

func TestWinBundleArgsIconHandling(t *testing.T) {
	p := newTestPackager(t)

	withIcon := strings.Join(p.winBundleArgs("FindDiffTool", "assets/icon.ico"), " ")
	assert.Contains(t, withIcon, "--icon assets/icon.ico")

	withoutIcon := strings.Join(p.winBundleArgs("FindDiffTool", ""), " ")
	assert.NotContains(t, withoutIcon, "--icon")
}

func TestPackageWindowsMissingIconIsTolerated(t *testing.T) {
	p := newTestPackager(t)
	writeEntryFile(t, p)

	executed := []string{}
	p.runTask = fakeWinRunner(p, &executed, p.cfg.Name)

	// the icon path does not exist on disk
	err := p.PackageWindows(testContext(), "", "does/not/exist.ico")
	require.NoError(t, err)
	assert.Equal(t, []string{"bundle-win64"}, executed)
}
