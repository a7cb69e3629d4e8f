package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cyasts/FindDiffTool/pkg/buildsys"
)

const taskCacheName = ".task-cache"

var taskCmd = &cobra.Command{
	Use:   "task [name=value...] [tasks...]",
	Short: "Runs tasks from the nearest tasks.star file",
	Long: `This command parses the first tasks.star file it finds and executes the
given tasks. Without arguments it lists the available tasks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		taskArgs := make([]string, 0)
		options := make(map[string]string)
		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}

		for _, part := range args {
			pos := strings.Index(part, "=")
			if pos > -1 {
				options[part[:pos]] = part[pos+1:]
			} else {
				taskArgs = append(taskArgs, part)
			}
		}

		ctx := logContext()
		logger := buildsys.Logger(ctx)

		// search the next tasks.star file
		wd, err := os.Getwd()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to retrieve the current working directory")
		}

		path := wd
		var taskPath string
		for {
			taskPath = filepath.Join(path, "tasks.star")
			_, err := os.Stat(taskPath)
			if err == nil {
				break
			}
			if !eris.Is(err, os.ErrNotExist) {
				logger.Fatal().Err(err).Msgf("Failed to check %s", taskPath)
			}

			parent := filepath.Dir(path)
			if parent == path {
				logger.Fatal().Msg("No tasks.star file found")
			}

			path = parent
		}

		taskPath, err = filepath.Rel(wd, taskPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to simplify path")
		}

		projectRoot := filepath.Dir(taskPath)
		taskList, err := loadTasks(ctx, taskPath, projectRoot, options)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to parse tasks")
		}

		for _, name := range taskArgs {
			task, ok := taskList[name]
			if !ok {
				logger.Fatal().Msgf("Task %s not found", name)
			}

			err = buildsys.RunTask(ctx, projectRoot, task, taskList, dryRun, force)
			if err != nil {
				logger.Fatal().Err(err).Msgf("Failed task %s:", name)
			}
		}

		if len(taskArgs) == 0 {
			printTaskList(taskList)
		}

		return nil
	},
}

// loadTasks parses the task file, going through the gob cache when the file
// hasn't changed since the cache was written with the same options.
func loadTasks(ctx context.Context, taskPath, projectRoot string, options map[string]string) (buildsys.TaskList, error) {
	cachePath := filepath.Join(projectRoot, taskCacheName)

	scriptInfo, err := os.Stat(taskPath)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to check %s", taskPath)
	}

	cacheInfo, err := os.Stat(cachePath)
	if err == nil && cacheInfo.ModTime().After(scriptInfo.ModTime()) {
		cachedOptions, taskList, err := buildsys.ReadCache(cachePath)
		if err == nil && reflect.DeepEqual(cachedOptions, options) {
			return taskList, nil
		}
	}

	taskList, _, err := buildsys.Parse(ctx, taskPath, projectRoot, options)
	if err != nil {
		return nil, err
	}

	err = buildsys.WriteCache(cachePath, options, taskList)
	if err != nil {
		buildsys.Logger(ctx).Warn().Err(err).Msg("Failed to write the task cache")
	}

	return taskList, nil
}

func printTaskList(taskList buildsys.TaskList) {
	fmt.Println("Available tasks:")
	maxNameLen := 0
	sortedNames := make([]string, 0)
	for _, task := range taskList {
		nameLen := len(task.Short)
		if nameLen > maxNameLen {
			maxNameLen = nameLen
		}

		sortedNames = append(sortedNames, task.Short)
	}

	sort.Strings(sortedNames)

	lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxNameLen+3)
	for _, name := range sortedNames {
		fmt.Printf(lineFmt, name+":", taskList[name].Desc)
	}
}

func init() {
	taskCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	taskCmd.Flags().BoolP("force", "f", false, "force build; always execute the passed steps even if they don't have to run")
	rootCmd.AddCommand(taskCmd)
}
