package pipeline

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// ZipDirectory packs the contents of dir into a zip archive at dest. Entries
// are stored relative to dir with forward slashes so the archive unpacks the
// same way everywhere.
func ZipDirectory(dir, dest string) error {
	handle, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", dest)
	}
	defer handle.Close()

	writer := zip.NewWriter(handle)

	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		info, err := entry.Info()
		if err != nil {
			return eris.Wrapf(err, "failed to stat %s", path)
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return eris.Wrapf(err, "failed to build header for %s", path)
		}

		header.Name = filepath.ToSlash(relPath)
		header.Method = zip.Deflate

		entryWriter, err := writer.CreateHeader(header)
		if err != nil {
			return eris.Wrapf(err, "failed to add %s to the archive", relPath)
		}

		source, err := os.Open(path)
		if err != nil {
			return eris.Wrapf(err, "failed to open %s", path)
		}
		defer source.Close()

		_, err = io.Copy(entryWriter, source)
		if err != nil {
			return eris.Wrapf(err, "failed to compress %s", relPath)
		}

		return nil
	})
	if err != nil {
		writer.Close()
		return err
	}

	err = writer.Close()
	if err != nil {
		return eris.Wrapf(err, "failed to finalize %s", dest)
	}

	return nil
}
