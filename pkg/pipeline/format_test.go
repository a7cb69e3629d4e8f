package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyasts/FindDiffTool/pkg/buildsys"
)

func TestFormat(t *testing.T) {
	p := newTestPackager(t)

	var captured *buildsys.Task
	p.runTask = func(ctx context.Context, projectRoot string, task *buildsys.Task, tasks buildsys.TaskList, dryRun, force bool) error {
		captured = task
		return nil
	}

	err := p.Format(testContext())
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "fmt", captured.Short)
	require.Len(t, captured.Cmds, 1)

	script := captured.Cmds[0].(buildsys.ScriptCmd).Content
	assert.Contains(t, script, p.cfg.Formatter)
	for _, file := range FormatFiles {
		assert.Contains(t, script, file)
	}
}

func TestFormatReportsFailure(t *testing.T) {
	p := newTestPackager(t)

	p.runTask = func(ctx context.Context, projectRoot string, task *buildsys.Task, tasks buildsys.TaskList, dryRun, force bool) error {
		return assert.AnError
	}

	err := p.Format(testContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "formatter failed")
}
