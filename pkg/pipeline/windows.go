package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/cyasts/FindDiffTool/pkg/buildsys"
)

const winArch = "win64"

// PackageWindows builds the Windows distribution. The name and icon overrides
// correspond to the -Name and -IconPath parameters of the old PowerShell
// script: a missing entry file aborts with an explicit message while a
// missing icon is tolerated and skipped.
func (p *Packager) PackageWindows(ctx context.Context, nameOverride, iconOverride string) error {
	name := p.cfg.Name
	if nameOverride != "" {
		name = nameOverride
	}

	_, err := os.Stat(filepath.Join(p.root, p.cfg.Entry))
	if err != nil {
		return eris.Errorf("entry file %s not found in %s", p.cfg.Entry, p.root)
	}

	version, err := p.cfg.Version(p.root)
	if err != nil {
		return err
	}

	icon := p.cfg.IconWin
	if iconOverride != "" {
		icon = iconOverride
	}
	if icon != "" {
		_, err = os.Stat(filepath.Join(p.root, icon))
		if err != nil {
			buildsys.Logger(ctx).Debug().Str("icon", icon).Msg("icon not found, building without one")
			icon = ""
		}
	}

	venv, deps, err := p.setupTasks(winArch)
	if err != nil {
		return err
	}

	bundleCmd, err := buildsys.Command(p.winBundleArgs(name, icon)...)
	if err != nil {
		return err
	}

	bundle := &buildsys.Task{
		Short: "bundle-" + winArch,
		Desc:  "Build the Windows bundle",
		Base:  p.root,
		Deps:  []string{deps.Short},
		Cmds:  []buildsys.TaskCmd{bundleCmd},
	}

	err = p.run(ctx, bundle, taskListOf(venv, deps, bundle))
	if err != nil {
		return eris.Wrap(err, "bundle step failed")
	}

	outputDir := filepath.Join(p.root, "dist", "windows", name)
	err = p.verifyOutput(outputDir, "check the PyInstaller output above")
	if err != nil {
		return err
	}

	if p.dryRun {
		return nil
	}

	archivePath := filepath.Join(p.root, "dist", fmt.Sprintf("%s-%s-%s.zip", name, version, winArch))
	err = ZipDirectory(outputDir, archivePath)
	if err != nil {
		return eris.Wrapf(err, "failed to create archive %s", archivePath)
	}

	return nil
}

func (p *Packager) winBundleArgs(name, icon string) []string {
	args := []string{
		p.venvPython(winArch), "-m", "PyInstaller",
		"--noconfirm", "--clean", "--windowed",
		"--name", name,
		"--distpath", filepath.Join("dist", "windows"),
		"--workpath", filepath.Join("build", "windows"),
		"--specpath", filepath.Join("build", "windows"),
	}

	if icon != "" {
		args = append(args, "--icon", icon)
	}

	args = append(args, p.cfg.ExtraArgs...)
	args = append(args, p.cfg.Entry)
	return args
}
