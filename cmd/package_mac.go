package cmd

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cyasts/FindDiffTool/pkg"
	"github.com/cyasts/FindDiffTool/pkg/pipeline"
)

var packageMacCmd = &cobra.Command{
	Use:   "package-mac {mac-arm64|mac-x86_64|mac-all|mac-universal}",
	Short: "Builds the macOS .app bundle and disk image",
	Long: `Builds the application bundle for the given CPU architecture and wraps it
in a compressed disk image. mac-all builds both architectures separately,
mac-universal builds a single universal binary and falls back to two
separate builds if the universal build fails.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			_ = cmd.Usage()
			return &pipeline.UsageError{Target: ""}
		}

		packager, err := newPackager(cmd)
		if err != nil {
			return err
		}

		err = packager.PackageMac(logContext(), args[0])

		var usageErr *pipeline.UsageError
		if eris.As(err, &usageErr) {
			_ = cmd.Usage()
		}
		return err
	},
}

// newPackager builds a Packager from the project config and the shared
// dry/force flags.
func newPackager(cmd *cobra.Command) (*pipeline.Packager, error) {
	root, err := pkg.GetProjectRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := pipeline.LoadConfig(root)
	if err != nil {
		return nil, err
	}

	packager := pipeline.New(root, cfg)

	dryRun, err := cmd.Flags().GetBool("dry")
	if err != nil {
		return nil, err
	}
	packager.SetDryRun(dryRun)

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return nil, err
	}
	packager.SetForce(force)

	return packager, nil
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	cmd.Flags().BoolP("force", "f", false, "always execute every step even if it doesn't have to run")
}

func init() {
	addPipelineFlags(packageMacCmd)
	rootCmd.AddCommand(packageMacCmd)
}
