package cmd

import (
	"github.com/spf13/cobra"
)

var packageWinCmd = &cobra.Command{
	Use:   "package-win",
	Short: "Builds the Windows application bundle",
	Long: `Builds the Windows application directory with the pinned bundler and packs
it into a zip archive. A missing icon is skipped, a missing entry file
aborts the build.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		packager, err := newPackager(cmd)
		if err != nil {
			return err
		}

		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return err
		}

		icon, err := cmd.Flags().GetString("icon")
		if err != nil {
			return err
		}

		return packager.PackageWindows(logContext(), name, icon)
	},
}

func init() {
	packageWinCmd.Flags().String("name", "", "override the bundle name from package.yml")
	packageWinCmd.Flags().String("icon", "", "override the icon path from package.yml")
	addPipelineFlags(packageWinCmd)
	rootCmd.AddCommand(packageWinCmd)
}
