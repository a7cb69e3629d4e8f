package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/cyasts/FindDiffTool/pkg/buildsys"
)

// FormatFiles is the fixed list of editor sources passed to the formatter,
// matching the old fmt.cmd script.
var FormatFiles = []string{
	"ai.py",
	"ai_client.py",
	"banana.py",
	"circle_provider.py",
	"editor.py",
	"gemini.py",
	"graphics.py",
	"main.py",
	"models.py",
	"scenes.py",
	"utils.py",
}

// Format runs the configured formatter over the fixed source file list.
func (p *Packager) Format(ctx context.Context) error {
	args := append([]string{p.cfg.Formatter}, FormatFiles...)
	fmtCmd, err := buildsys.Command(args...)
	if err != nil {
		return err
	}

	task := &buildsys.Task{
		Short: "fmt",
		Desc:  "Format the editor sources",
		Base:  p.root,
		Cmds:  []buildsys.TaskCmd{fmtCmd},
	}

	err = p.run(ctx, task, taskListOf(task))
	if err != nil {
		return eris.Wrap(err, "formatter failed")
	}

	return nil
}
