package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/cyasts/FindDiffTool/pkg/buildsys"
)

// macOS build targets accepted by `tool package-mac`.
const (
	TargetMacArm64     = "mac-arm64"
	TargetMacX86       = "mac-x86_64"
	TargetMacAll       = "mac-all"
	TargetMacUniversal = "mac-universal"
)

// archUniversal is the PyInstaller name for a combined arm64 + x86_64 build.
const archUniversal = "universal2"

// UsageError marks an invocation error. The CLI maps it to exit status 2.
type UsageError struct {
	Target string
}

func (e *UsageError) Error() string {
	expected := fmt.Sprintf("expected one of %s, %s, %s or %s",
		TargetMacArm64, TargetMacX86, TargetMacAll, TargetMacUniversal)
	if e.Target == "" {
		return "missing target, " + expected
	}
	return fmt.Sprintf("unknown target %q, %s", e.Target, expected)
}

// ParseMacTarget maps a target argument to the PyInstaller architectures to
// build. The universal target is returned separately because it has its own
// fallback behavior.
func ParseMacTarget(target string) (arches []string, universal bool, err error) {
	switch target {
	case TargetMacArm64:
		return []string{"arm64"}, false, nil
	case TargetMacX86:
		return []string{"x86_64"}, false, nil
	case TargetMacAll:
		return []string{"arm64", "x86_64"}, false, nil
	case TargetMacUniversal:
		return nil, true, nil
	default:
		return nil, false, &UsageError{Target: target}
	}
}

// PackageMac builds the .app bundle and disk image for the given target. A
// failing universal build falls back to two separate per-architecture builds
// and only reports failure if the fallback fails as well.
func (p *Packager) PackageMac(ctx context.Context, target string) error {
	arches, universal, err := ParseMacTarget(target)
	if err != nil {
		return err
	}

	version, err := p.cfg.Version(p.root)
	if err != nil {
		return err
	}

	if universal {
		err = p.buildMacArch(ctx, archUniversal, version)
		if err == nil {
			return nil
		}

		buildsys.Logger(ctx).Warn().Err(err).
			Msg("universal build failed, falling back to separate builds per architecture")

		for _, arch := range []string{"arm64", "x86_64"} {
			err = p.buildMacArch(ctx, arch, version)
			if err != nil {
				return eris.Wrapf(err, "fallback build for %s failed", arch)
			}
		}
		return nil
	}

	for _, arch := range arches {
		err = p.buildMacArch(ctx, arch, version)
		if err != nil {
			return err
		}
	}
	return nil
}

// buildMacArch runs the venv -> deps -> bundle -> dmg pipeline for one
// architecture and verifies the expected .app bundle in between.
func (p *Packager) buildMacArch(ctx context.Context, arch, version string) error {
	venv, deps, err := p.setupTasks(arch)
	if err != nil {
		return err
	}

	bundleCmd, err := buildsys.Command(p.macBundleArgs(arch)...)
	if err != nil {
		return err
	}

	bundle := &buildsys.Task{
		Short: "bundle-mac-" + arch,
		Desc:  fmt.Sprintf("Build the macOS %s bundle", arch),
		Base:  p.root,
		Deps:  []string{deps.Short},
		Cmds:  []buildsys.TaskCmd{bundleCmd},
	}

	err = p.run(ctx, bundle, taskListOf(venv, deps, bundle))
	if err != nil {
		return eris.Wrapf(err, "bundle step for %s failed", arch)
	}

	bundlePath := p.macBundlePath(arch)
	err = p.verifyOutput(bundlePath, "check the PyInstaller output above")
	if err != nil {
		return err
	}

	dmgPath := filepath.Join(p.root, "dist", fmt.Sprintf("%s-%s-%s.dmg", p.cfg.Name, version, arch))
	dmgCmd, err := buildsys.Command("hdiutil", "create", "-volname", p.cfg.Name,
		"-srcfolder", bundlePath, "-ov", "-format", "UDZO", dmgPath)
	if err != nil {
		return err
	}

	dmg := &buildsys.Task{
		Short: "dmg-" + arch,
		Desc:  fmt.Sprintf("Create the %s disk image", arch),
		Base:  p.root,
		Cmds:  []buildsys.TaskCmd{dmgCmd},
	}

	err = p.run(ctx, dmg, taskListOf(dmg))
	if err != nil {
		return eris.Wrapf(err, "disk image step for %s failed", arch)
	}

	return nil
}

func (p *Packager) macBundlePath(arch string) string {
	return filepath.Join(p.root, "dist", arch, p.cfg.Name+".app")
}

// macBundleArgs builds the PyInstaller invocation for the given architecture.
// The icon is only passed when the file actually exists.
func (p *Packager) macBundleArgs(arch string) []string {
	args := []string{
		p.venvPython(arch), "-m", "PyInstaller",
		"--noconfirm", "--clean", "--windowed",
		"--name", p.cfg.Name,
		"--osx-bundle-identifier", p.cfg.BundleID,
		"--target-architecture", arch,
		"--distpath", filepath.Join("dist", arch),
		"--workpath", filepath.Join("build", arch),
		"--specpath", filepath.Join("build", arch),
	}

	if p.cfg.IconMac != "" {
		_, err := os.Stat(filepath.Join(p.root, p.cfg.IconMac))
		if err == nil {
			args = append(args, "--icon", p.cfg.IconMac)
		}
	}

	args = append(args, p.cfg.ExtraArgs...)
	args = append(args, p.cfg.Entry)
	return args
}
