package respack

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
)

// Reader opens FRP archives. It is mainly used by the pack-res verification
// step and by tests; the editor itself ships its own loader.
type Reader struct {
	hdl  *os.File
	root *packedFolder
}

// OpenReader opens the given archive and parses its entry table.
func OpenReader(filename string) (*Reader, error) {
	hdl, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	header := make([]byte, headerSize)
	_, err = io.ReadFull(hdl, header)
	if err != nil {
		hdl.Close()
		return nil, eris.Wrapf(err, "failed to read header of %s", filename)
	}

	if !bytes.Equal(header[:4], magic[:]) {
		hdl.Close()
		return nil, eris.Errorf("%s is not an FRP archive", filename)
	}

	version := binary.LittleEndian.Uint32(header[4:8])
	if version != formatVersion {
		hdl.Close()
		return nil, eris.Errorf("unsupported archive version %d in %s", version, filename)
	}

	tableOffset := binary.LittleEndian.Uint64(header[8:16])
	_, err = hdl.Seek(int64(tableOffset), io.SeekStart)
	if err != nil {
		hdl.Close()
		return nil, err
	}

	root, err := readFolderEntries(hdl)
	if err != nil {
		hdl.Close()
		return nil, eris.Wrapf(err, "failed to parse entry table of %s", filename)
	}

	return &Reader{hdl: hdl, root: root}, nil
}

func readFolderEntries(hdl *os.File) (*packedFolder, error) {
	scratch := make([]byte, 8)

	_, err := io.ReadFull(hdl, scratch[:4])
	if err != nil {
		return nil, err
	}
	children := binary.LittleEndian.Uint32(scratch[:4])

	folder := newFolder()
	for idx := uint32(0); idx < children; idx++ {
		_, err = io.ReadFull(hdl, scratch[:3])
		if err != nil {
			return nil, err
		}

		kind := scratch[0]
		nameLen := binary.LittleEndian.Uint16(scratch[1:3])
		nameBuf := make([]byte, nameLen)
		_, err = io.ReadFull(hdl, nameBuf)
		if err != nil {
			return nil, err
		}
		name := string(nameBuf)

		switch kind {
		case entryDir:
			sub, err := readFolderEntries(hdl)
			if err != nil {
				return nil, err
			}
			folder.folders[name] = sub
		case entryFile:
			file := new(packedFile)
			for _, field := range []*int64{&file.offset, &file.size, &file.decSize} {
				_, err = io.ReadFull(hdl, scratch)
				if err != nil {
					return nil, err
				}
				*field = int64(binary.LittleEndian.Uint64(scratch))
			}
			folder.files[name] = file
		default:
			return nil, eris.Errorf("unknown entry kind %d", kind)
		}
	}

	return folder, nil
}

// List returns the slash-separated paths of all files in the archive, sorted.
func (r *Reader) List() []string {
	var result []string
	var walk func(folder *packedFolder, prefix string)
	walk = func(folder *packedFolder, prefix string) {
		for name, sub := range folder.folders {
			walk(sub, prefix+name+"/")
		}
		for name := range folder.files {
			result = append(result, prefix+name)
		}
	}

	walk(r.root, "")
	sort.Strings(result)
	return result
}

// ReadFile decompresses the file at the given slash-separated path.
func (r *Reader) ReadFile(path string) ([]byte, error) {
	parts := strings.Split(path, "/")
	folder := r.root
	for _, part := range parts[:len(parts)-1] {
		sub, ok := folder.folders[part]
		if !ok {
			return nil, eris.Errorf("%s not found in archive", path)
		}
		folder = sub
	}

	file, ok := folder.files[parts[len(parts)-1]]
	if !ok {
		return nil, eris.Errorf("%s not found in archive", path)
	}

	section := io.NewSectionReader(r.hdl, file.offset, file.size)
	content, err := io.ReadAll(brotli.NewReader(section))
	if err != nil {
		return nil, eris.Wrapf(err, "failed to decompress %s", path)
	}

	if int64(len(content)) != file.decSize {
		return nil, eris.Errorf("%s decompressed to %d bytes, expected %d", path, len(content), file.decSize)
	}

	return content, nil
}

// Close closes the underlying archive file.
func (r *Reader) Close() error {
	return r.hdl.Close()
}
