package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"

	"github.com/cyasts/FindDiffTool/pkg/buildsys"
)

// taskRunner matches buildsys.RunTask and exists so tests can intercept task
// execution.
type taskRunner func(ctx context.Context, projectRoot string, task *buildsys.Task, tasks buildsys.TaskList, dryRun, force bool) error

// Packager drives the packaging pipelines for one project checkout.
type Packager struct {
	root    string
	cfg     Config
	dryRun  bool
	force   bool
	runTask taskRunner
}

// New creates a Packager rooted at the given project directory.
func New(projectRoot string, cfg Config) *Packager {
	return &Packager{
		root:    projectRoot,
		cfg:     cfg,
		runTask: buildsys.RunTask,
	}
}

// SetDryRun only prints the commands the pipelines would run.
func (p *Packager) SetDryRun(dryRun bool) {
	p.dryRun = dryRun
}

// SetForce reruns every step even if its skip checks pass.
func (p *Packager) SetForce(force bool) {
	p.force = force
}

func (p *Packager) venvName(arch string) string {
	return ".venv-build-" + arch
}

func (p *Packager) venvPython(arch string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(p.venvName(arch), "Scripts", "python.exe")
	}

	return filepath.Join(p.venvName(arch), "bin", "python")
}

// setupTasks returns the venv and dependency tasks shared by all bundle
// pipelines. The venv task carries a skip_if_exists check on the venv
// directory which makes environment setup idempotent: an existing venv is
// reused, never recreated.
func (p *Packager) setupTasks(arch string) (*buildsys.Task, *buildsys.Task, error) {
	venvCmd, err := buildsys.Command(p.cfg.Python, "-m", "venv", p.venvName(arch))
	if err != nil {
		return nil, nil, err
	}

	venv := &buildsys.Task{
		Short:        "venv-" + arch,
		Desc:         fmt.Sprintf("Create the %s build environment", arch),
		Base:         p.root,
		SkipIfExists: []string{p.venvName(arch)},
		Cmds:         []buildsys.TaskCmd{venvCmd},
	}

	python := p.venvPython(arch)
	pipUpgrade, err := buildsys.Command(python, "-m", "pip", "install", "--upgrade", "pip")
	if err != nil {
		return nil, nil, err
	}

	pipReqs, err := buildsys.Command(python, "-m", "pip", "install", "-r", p.cfg.Requirements)
	if err != nil {
		return nil, nil, err
	}

	pipBundler, err := buildsys.Command(python, "-m", "pip", "install", "pyinstaller=="+p.cfg.BundlerVersion)
	if err != nil {
		return nil, nil, err
	}

	deps := &buildsys.Task{
		Short: "deps-" + arch,
		Desc:  fmt.Sprintf("Install the %s build dependencies", arch),
		Base:  p.root,
		Deps:  []string{venv.Short},
		Cmds:  []buildsys.TaskCmd{pipUpgrade, pipReqs, pipBundler},
	}

	return venv, deps, nil
}

func (p *Packager) run(ctx context.Context, task *buildsys.Task, tasks buildsys.TaskList) error {
	return p.runTask(ctx, p.root, task, tasks, p.dryRun, p.force)
}

func taskListOf(tasks ...*buildsys.Task) buildsys.TaskList {
	list := buildsys.TaskList{}
	for _, task := range tasks {
		list[task.Short] = task
	}

	return list
}

func (p *Packager) verifyOutput(path, hint string) error {
	if p.dryRun {
		return nil
	}

	_, err := os.Stat(path)
	if err != nil {
		rel, relErr := filepath.Rel(p.root, path)
		if relErr != nil {
			rel = path
		}
		return eris.Errorf("expected output %s is missing after the build, %s", rel, hint)
	}

	return nil
}
