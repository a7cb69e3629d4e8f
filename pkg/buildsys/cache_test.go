package buildsys

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundtrip(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(root, ".task-cache")

	task := shellTask("build", root, "echo build")
	task.Desc = "build everything"
	task.Deps = []string{"deps"}
	task.SkipIfExists = []string{"dist"}

	options := map[string]string{"mode": "release"}
	list := TaskList{task.Short: task}

	require.NoError(t, WriteCache(cachePath, options, list))

	readOptions, readList, err := ReadCache(cachePath)
	require.NoError(t, err)

	assert.Equal(t, options, readOptions)
	require.Contains(t, readList, "build")
	restored := readList["build"]
	assert.Equal(t, task.Desc, restored.Desc)
	assert.Equal(t, task.Deps, restored.Deps)
	assert.Equal(t, task.SkipIfExists, restored.SkipIfExists)
	require.Len(t, restored.Cmds, 1)
	assert.Equal(t, "echo build", restored.Cmds[0].(ScriptCmd).Content)
}

func TestReadCacheMissingFile(t *testing.T) {
	_, _, err := ReadCache(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
