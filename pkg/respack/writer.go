// Package respack reads and writes FRP archives, the compressed resource
// packs that ship the editor's level scenes and images inside the bundles.
//
// An FRP file starts with a 16 byte header (magic "FRP1", format version,
// entry table offset), followed by the brotli-compressed file bodies and a
// trailing entry table.
package respack

import (
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
)

const (
	formatVersion = 1
	headerSize    = 16
)

var magic = [4]byte{'F', 'R', 'P', '1'}

const (
	entryDir  = 0
	entryFile = 1
)

type packedFile struct {
	offset  int64
	size    int64
	decSize int64
}

type packedFolder struct {
	folders map[string]*packedFolder
	files   map[string]*packedFile
}

func newFolder() *packedFolder {
	return &packedFolder{
		folders: map[string]*packedFolder{},
		files:   map[string]*packedFile{},
	}
}

// Writer writes FRP archives.
type Writer struct {
	hdl      *os.File
	root     *packedFolder
	dirStack []*packedFolder
	current  *packedFolder
	buffer   []byte
}

// NewWriter creates the archive file and prepares it for writing.
func NewWriter(filename string) (*Writer, error) {
	hdl, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	_, err = hdl.Seek(headerSize, io.SeekStart)
	if err != nil {
		hdl.Close()
		return nil, err
	}

	root := newFolder()
	return &Writer{
		hdl:      hdl,
		root:     root,
		dirStack: []*packedFolder{root},
		current:  root,
		buffer:   make([]byte, 4096),
	}, nil
}

// OpenDirectory creates a new directory entry. Anything created until the
// next CloseDirectory() call is placed inside this directory.
func (w *Writer) OpenDirectory(dirname string) {
	dir := newFolder()
	w.current.folders[dirname] = dir
	w.dirStack = append(w.dirStack, dir)
	w.current = dir
}

// CloseDirectory closes the directory that was last opened.
func (w *Writer) CloseDirectory() error {
	stackLen := len(w.dirStack)
	if stackLen < 2 {
		return eris.New("no directory left on stack")
	}

	w.dirStack = w.dirStack[:stackLen-1]
	w.current = w.dirStack[stackLen-2]
	return nil
}

// WriteFile compresses the reader's contents into a new file entry in the
// current archive directory.
func (w *Writer) WriteFile(filename string, reader io.Reader) error {
	offset, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	brw := brotli.NewWriterLevel(w.hdl, brotli.BestCompression)
	decSize, err := io.CopyBuffer(brw, reader, w.buffer)
	if err != nil {
		return err
	}

	err = brw.Close()
	if err != nil {
		return err
	}

	newPos, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	w.current.files[filename] = &packedFile{
		offset:  offset,
		size:    newPos - offset,
		decSize: decSize,
	}
	return nil
}

// Close writes the entry table and the header and closes the archive.
func (w *Writer) Close() error {
	if len(w.dirStack) != 1 {
		w.hdl.Close()
		return eris.New("open directories left over")
	}

	tableOffset, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		w.hdl.Close()
		return err
	}

	err = writeFolderEntries(w.hdl, w.root)
	if err != nil {
		w.hdl.Close()
		return err
	}

	header := make([]byte, headerSize)
	copy(header[:4], magic[:])
	binary.LittleEndian.PutUint32(header[4:8], formatVersion)
	binary.LittleEndian.PutUint64(header[8:16], uint64(tableOffset))

	_, err = w.hdl.Seek(0, io.SeekStart)
	if err != nil {
		w.hdl.Close()
		return err
	}

	_, err = w.hdl.Write(header)
	if err != nil {
		w.hdl.Close()
		return err
	}

	return w.hdl.Close()
}

// writeFolderEntries serializes one folder: a child count followed by the
// child entries, recursing into sub-folders. Entries are written in sorted
// order so identical input produces byte-identical archives.
func writeFolderEntries(hdl *os.File, folder *packedFolder) error {
	scratch := make([]byte, 8)

	binary.LittleEndian.PutUint32(scratch[:4], uint32(len(folder.folders)+len(folder.files)))
	_, err := hdl.Write(scratch[:4])
	if err != nil {
		return err
	}

	for _, name := range sortedKeys(folder.folders) {
		err = writeEntryName(hdl, scratch, entryDir, name)
		if err != nil {
			return err
		}

		err = writeFolderEntries(hdl, folder.folders[name])
		if err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(folder.files) {
		file := folder.files[name]

		err = writeEntryName(hdl, scratch, entryFile, name)
		if err != nil {
			return err
		}

		binary.LittleEndian.PutUint64(scratch, uint64(file.offset))
		_, err = hdl.Write(scratch)
		if err != nil {
			return err
		}

		binary.LittleEndian.PutUint64(scratch, uint64(file.size))
		_, err = hdl.Write(scratch)
		if err != nil {
			return err
		}

		binary.LittleEndian.PutUint64(scratch, uint64(file.decSize))
		_, err = hdl.Write(scratch)
		if err != nil {
			return err
		}
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func writeEntryName(hdl *os.File, scratch []byte, kind byte, name string) error {
	scratch[0] = kind
	binary.LittleEndian.PutUint16(scratch[1:3], uint16(len(name)))
	_, err := hdl.Write(scratch[:3])
	if err != nil {
		return err
	}

	_, err = hdl.WriteString(name)
	return err
}
