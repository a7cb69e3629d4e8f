// Package cmd implements the `tool` CLI that replaced the old packaging and
// formatting scripts (package.sh, package-win.ps1, fmt.cmd).
package cmd

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cyasts/FindDiffTool/pkg/buildsys"
	"github.com/cyasts/FindDiffTool/pkg/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "tool",
	Short: "Build tools for FindDiffTool",
	Long: `This command bundles the tools that are used to build and package
FindDiffTool. This includes the macOS and Windows packaging pipelines, the
source formatter and a small task runner for everything else.`,
}

// logContext returns a context carrying a console logger, used by every
// command that drives the task runner.
func logContext() context.Context {
	logger := zerolog.New(NewConsoleWriter())
	return buildsys.WithLogger(context.Background(), &logger)
}

// Execute runs the CLI. Usage errors (such as an unknown packaging target)
// exit with status 2, every other failure exits with status 1.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var usageErr *pipeline.UsageError
	if eris.As(err, &usageErr) {
		os.Exit(2)
	}

	os.Exit(1)
}
