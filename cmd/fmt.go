package cmd

import (
	"github.com/spf13/cobra"
)

var fmtCmd = &cobra.Command{
	Use:          "fmt",
	Short:        "Formats the editor sources",
	Long:         `Runs the configured formatter over the editor's Python sources.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		packager, err := newPackager(cmd)
		if err != nil {
			return err
		}

		return packager.Format(logContext())
	},
}

func init() {
	addPipelineFlags(fmtCmd)
	rootCmd.AddCommand(fmtCmd)
}
