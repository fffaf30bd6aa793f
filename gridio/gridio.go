// Package gridio reads and writes level-set grids in a compact binary
// container. A container holds one or more named grids. Leaf values may be
// stored densely or with inactive voxels suppressed, and the payload may be
// compressed with zlib or zstd.
package gridio

import (
	"bytes"
	"errors"
	"os"
	"strings"

	"github.com/soypat/levelset"
)

// Ext is the file extension of grid containers.
const Ext = ".lsv"

// Compression selects how grid payloads are stored. Flags may be combined
// except CompressZip and CompressZstd which are mutually exclusive.
type Compression uint8

const (
	CompressNone Compression = 0
	// CompressZip compresses the payload with zlib.
	CompressZip Compression = 1 << 0
	// CompressActiveMask omits inactive leaf values that are plus or minus
	// the background, storing only their sign.
	CompressActiveMask Compression = 1 << 1
	// CompressZstd compresses the payload with zstd.
	CompressZstd Compression = 1 << 2
)

// DefaultCompression is used by the volume converter.
const DefaultCompression = CompressZip | CompressActiveMask

func (c Compression) String() string {
	if c == CompressNone {
		return "none"
	}
	var parts []string
	if c&CompressZip != 0 {
		parts = append(parts, "zip")
	}
	if c&CompressZstd != 0 {
		parts = append(parts, "zstd")
	}
	if c&CompressActiveMask != 0 {
		parts = append(parts, "active-mask")
	}
	if c&^(CompressZip|CompressZstd|CompressActiveMask) != 0 {
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, "+")
}

// ParseCompression parses a compression name as used by the command line
// and configuration files: none, zip, zstd, optionally followed by
// "+active-mask". The bare names zip and zstd imply the active mask.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return DefaultCompression, nil
	case "none":
		return CompressNone, nil
	case "active-mask":
		return CompressActiveMask, nil
	case "zip", "zip+active-mask":
		return CompressZip | CompressActiveMask, nil
	case "zstd", "zstd+active-mask":
		return CompressZstd | CompressActiveMask, nil
	case "zip-dense":
		return CompressZip, nil
	case "zstd-dense":
		return CompressZstd, nil
	}
	return 0, &levelset.ConfigurationError{Msg: "unknown compression " + s}
}

func (c Compression) validate() error {
	if c&CompressZip != 0 && c&CompressZstd != 0 {
		return &levelset.ConfigurationError{Msg: "zip and zstd compression are mutually exclusive"}
	}
	if c&^(CompressZip|CompressZstd|CompressActiveMask) != 0 {
		return &levelset.ConfigurationError{Msg: "unknown compression flags " + c.String()}
	}
	return nil
}

// ErrFormat is returned when a container is malformed or corrupt.
var ErrFormat = errors.New("gridio: malformed container")

// FileName returns name with Ext appended unless it already ends in Ext.
func FileName(name string) string {
	if strings.HasSuffix(name, Ext) {
		return name
	}
	return name + Ext
}

// Write writes g to a container file derived from name with FileName and
// returns the path written.
func Write(name string, g *levelset.Grid, comp Compression) (string, error) {
	return WriteGrids(name, []*levelset.Grid{g}, comp)
}

// WriteGrids writes grids to a single container file derived from name with
// FileName and returns the path written. The file is only created once the
// container has been fully encoded.
func WriteGrids(name string, grids []*levelset.Grid, comp Compression) (string, error) {
	path := FileName(name)
	var buf bytes.Buffer
	if err := Encode(&buf, grids, comp); err != nil {
		return path, err
	}
	fp, err := os.Create(path)
	if err != nil {
		return path, &levelset.IOError{Op: "open", Path: path, Err: err}
	}
	_, err = buf.WriteTo(fp)
	if cerr := fp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return path, &levelset.IOError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

// Read reads the first grid of the container at path.
func Read(path string) (*levelset.Grid, error) {
	grids, err := ReadGrids(path)
	if err != nil {
		return nil, err
	}
	if len(grids) == 0 {
		return nil, &levelset.IOError{Op: "read", Path: path, Err: errors.New("container holds no grids")}
	}
	return grids[0], nil
}

// ReadGrids reads every grid of the container at path.
func ReadGrids(path string) ([]*levelset.Grid, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, &levelset.IOError{Op: "open", Path: path, Err: err}
	}
	defer fp.Close()
	grids, err := Decode(fp)
	if err != nil {
		return nil, &levelset.IOError{Op: "read", Path: path, Err: err}
	}
	return grids, nil
}
