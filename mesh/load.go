package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/soypat/levelset"
)

// ErrUnsupportedFormat is wrapped by the *levelset.IOError Load returns for
// unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// Load reads the mesh at path. The format is chosen by the file extension:
// .obj, .off or .stl (ASCII or binary). Sources that cannot be opened or
// parsed return a *levelset.IOError; faces that are not triangles return a
// *levelset.TopologyError.
func Load(path string) (*Mesh, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var read func(io.Reader) (*Mesh, error)
	switch ext {
	case ".obj":
		read = ReadOBJ
	case ".off":
		read = ReadOFF
	case ".stl":
		read = ReadSTL
	default:
		return nil, &levelset.IOError{Op: "open", Path: path, Err: fmt.Errorf("%w %q", ErrUnsupportedFormat, ext)}
	}
	fp, err := os.Open(path)
	if err != nil {
		return nil, &levelset.IOError{Op: "open", Path: path, Err: err}
	}
	defer fp.Close()
	m, err := read(bufio.NewReader(fp))
	var ioErr *levelset.IOError
	if errors.As(err, &ioErr) && ioErr.Path == "" {
		ioErr.Path = path
	}
	return m, err
}

func readErrorf(format string, args ...any) error {
	return &levelset.IOError{Op: "read", Err: fmt.Errorf(format, args...)}
}
