package cmd

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cyasts/FindDiffTool/pkg/respack"
)

var packResCmd = &cobra.Command{
	Use:   "pack-res archive_name content_directory",
	Short: "Packs a resource directory into a compressed .frp archive",
	Long: `Recursively packs the given directory (level scenes, images, ...) into an
FRP resource archive that ships inside the application bundles.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return eris.New("Expected 2 arguments!")
		}

		writer, err := respack.NewWriter(args[0])
		if err != nil {
			return err
		}

		err = packDirectory(writer, args[1])
		if err != nil {
			return err
		}

		return writer.Close()
	},
}

func init() {
	rootCmd.AddCommand(packResCmd)
}

func packDirectory(writer *respack.Writer, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrapf(err, "Failed to read dir %s", dir)
	}

	// stable archive layout regardless of readdir order
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		itemPath := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			writer.OpenDirectory(entry.Name())
			err = packDirectory(writer, itemPath)
			if err != nil {
				return err
			}

			err = writer.CloseDirectory()
			if err != nil {
				return err
			}
		} else {
			f, err := os.Open(itemPath)
			if err != nil {
				return eris.Wrapf(err, "Failed to open file %s", itemPath)
			}

			err = writer.WriteFile(entry.Name(), f)
			if err != nil {
				f.Close()
				return eris.Wrapf(err, "Failed to pack file %s", itemPath)
			}
			f.Close()
		}
	}

	return nil
}
