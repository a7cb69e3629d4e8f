package buildsys

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellTask(short, base string, cmds ...string) *Task {
	task := &Task{
		Short: short,
		Base:  base,
		Env:   map[string]string{},
	}

	for idx, cmd := range cmds {
		task.Cmds = append(task.Cmds, ScriptCmd{TaskName: short, Content: cmd, Index: idx})
	}

	return task
}

func TestRunTaskExecutesCommands(t *testing.T) {
	root := t.TempDir()
	task := shellTask("write", root, "echo hello > out.txt")
	tasks := TaskList{task.Short: task}

	err := RunTask(testContext(), root, task, tasks, false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

func TestRunTaskDryRun(t *testing.T) {
	root := t.TempDir()
	task := shellTask("write", root, "echo hello > out.txt")
	tasks := TaskList{task.Short: task}

	err := RunTask(testContext(), root, task, tasks, true, false)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "out.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunTaskRunsDepsFirst(t *testing.T) {
	root := t.TempDir()
	first := shellTask("first", root, "echo first >> order.txt")
	second := shellTask("second", root, "echo second >> order.txt")
	second.Deps = []string{"first"}

	tasks := TaskList{first.Short: first, second.Short: second}

	err := RunTask(testContext(), root, second, tasks, false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "order.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(content))
}

func TestRunTaskRunsSharedDepOnce(t *testing.T) {
	root := t.TempDir()
	base := shellTask("base", root, "echo base >> order.txt")
	left := shellTask("left", root, "echo left >> order.txt")
	left.Deps = []string{"base"}
	right := shellTask("right", root, "echo right >> order.txt")
	right.Deps = []string{"base", "left"}

	tasks := TaskList{base.Short: base, left.Short: left, right.Short: right}

	err := RunTask(testContext(), root, right, tasks, false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "order.txt"))
	require.NoError(t, err)
	assert.Equal(t, "base\nleft\nright\n", string(content))
}

func TestRunTaskDetectsRecursion(t *testing.T) {
	root := t.TempDir()
	task := shellTask("loop", root, "echo nope > loop.txt")
	task.Deps = []string{"loop"}
	tasks := TaskList{task.Short: task}

	err := RunTask(testContext(), root, task, tasks, false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursively")
}

func TestRunTaskMissingDep(t *testing.T) {
	root := t.TempDir()
	task := shellTask("broken", root, "echo nope > out.txt")
	task.Deps = []string{"ghost"}
	tasks := TaskList{task.Short: task}

	err := RunTask(testContext(), root, task, tasks, false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestRunTaskSkipIfExists(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "marker"), []byte("x"), 0600))

	task := shellTask("skipped", root, "echo nope > out.txt")
	task.SkipIfExists = []string{"marker"}
	tasks := TaskList{task.Short: task}

	err := RunTask(testContext(), root, task, tasks, false, false)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "out.txt"))
	assert.True(t, os.IsNotExist(err), "task should have been skipped")
}

func TestRunTaskSkipIfExistsForce(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "marker"), []byte("x"), 0600))

	task := shellTask("forced", root, "echo yes > out.txt")
	task.SkipIfExists = []string{"marker"}
	tasks := TaskList{task.Short: task}

	err := RunTask(testContext(), root, task, tasks, false, true)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "out.txt"))
	assert.NoError(t, err, "force should override the skip check")
}

func TestRunTaskUpToDateOutputs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "input.txt"), []byte("in"), 0600))
	// make the output newer than the input
	require.NoError(t, os.WriteFile(filepath.Join(root, "output.txt"), []byte("out"), 0600))
	older := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "input.txt"), older, older))

	task := shellTask("gen", root, "echo regenerated > output.txt")
	task.Inputs = []string{"input.txt"}
	task.Outputs = []string{"output.txt"}
	tasks := TaskList{task.Short: task}

	err := RunTask(testContext(), root, task, tasks, false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "output.txt"))
	require.NoError(t, err)
	assert.Equal(t, "out", string(content), "up-to-date output should not be regenerated")
}

func TestRunTaskSubTasks(t *testing.T) {
	root := t.TempDir()
	inner := shellTask("inner", root, "echo inner >> order.txt")
	outer := shellTask("outer", root)
	outer.Cmds = []TaskCmd{
		TaskRef{Task: inner},
		ScriptCmd{TaskName: "outer", Content: "echo outer >> order.txt", Index: 1},
	}

	tasks := TaskList{inner.Short: inner, outer.Short: outer}

	err := RunTask(testContext(), root, outer, tasks, false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "order.txt"))
	require.NoError(t, err)
	assert.Equal(t, "inner\nouter\n", string(content))
}
