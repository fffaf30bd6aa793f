// Package volume drives the conversion of a mesh file into a narrow-band
// level set and back into a polygonal surface, writing both to disk.
package volume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/soypat/levelset"
	"github.com/soypat/levelset/gridio"
	"github.com/soypat/levelset/mesh"
	"github.com/soypat/levelset/render"
)

// Object is a mesh file converted to a level-set grid. The surface is
// extracted from the grid on first use.
type Object struct {
	path string
	cfg  Config
	log  Logger
	mesh *mesh.Mesh
	grid *levelset.Grid
	surf *levelset.Surface
}

// New loads the mesh at meshPath and converts it to a level set with the
// parameters in cfg.
func New(meshPath string, cfg Config) (*Object, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Object{path: meshPath, cfg: cfg, log: cfg.Logger}
	if o.log == nil {
		o.log = nopLogger{}
	}
	tlog := NewTimeLog(o.log)
	m, err := mesh.Load(meshPath)
	if err != nil {
		return nil, err
	}
	tlog.Debugf("loaded %s: %d vertices, %d triangles", meshPath, len(m.Vertices), len(m.Triangles))
	if cfg.Normalize {
		center, scale := m.Normalization()
		m = m.Normalized()
		o.log.Debugf("normalized mesh about %v with scale %g", center, scale)
	}
	xform, err := levelset.NewLinearTransform(cfg.VoxelSize)
	if err != nil {
		return nil, err
	}
	grid, err := levelset.MeshToLevelSet(xform, m.Vertices, m.Triangles, cfg.HalfWidth)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", meshPath, err)
	}
	grid.SetName(cfg.GridName)
	o.mesh, o.grid = m, grid
	tlog.Infof("built level set of %s with %s leaves", filepath.Base(meshPath), humanize.Comma(int64(grid.LeafCount())))
	return o, nil
}

// Mesh returns the mesh the grid was built from.
func (o *Object) Mesh() *mesh.Mesh { return o.mesh }

// Grid returns the level-set grid.
func (o *Object) Grid() *levelset.Grid { return o.grid }

// Extract returns the surface of the grid at the configured isovalue.
func (o *Object) Extract() (levelset.Surface, error) {
	if o.surf != nil {
		return *o.surf, nil
	}
	tlog := NewTimeLog(o.log)
	surf, err := levelset.VolumeToMeshParms(o.grid, levelset.ExtractParms{
		Isovalue: o.cfg.Isovalue,
		NoMerge:  o.cfg.NoMerge,
	})
	if err != nil {
		return surf, err
	}
	o.surf = &surf
	tlog.Infof("extracted %d quads and %d triangles", len(surf.Quads), len(surf.Triangles))
	return surf, nil
}

// WriteGrid writes the grid to a container named name, with the container
// extension appended if missing, and returns the path written.
func (o *Object) WriteGrid(name string) (string, error) {
	path, err := gridio.Write(name, o.grid, o.cfg.compression())
	if err != nil {
		o.log.Errorf("writing grid: %v", err)
		return path, err
	}
	o.log.Infof("wrote grid %q to %s", o.grid.Name(), path)
	return path, nil
}

// MeshOutputPath returns the path SaveAsMesh writes to: the input mesh path
// with its extension replaced by the configured suffix.
func (o *Object) MeshOutputPath() string {
	return strings.TrimSuffix(o.path, filepath.Ext(o.path)) + o.cfg.MeshSuffix
}

// SaveAsMesh extracts the surface and writes it next to the input mesh at
// MeshOutputPath, returning the path written.
func (o *Object) SaveAsMesh() (string, error) {
	path := o.MeshOutputPath()
	return path, o.SaveMesh(path)
}

// SaveMesh extracts the surface and writes it to path. The format is chosen
// by extension: .obj, .stl or .glb.
func (o *Object) SaveMesh(path string) error {
	surf, err := o.Extract()
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		err = render.CreateOBJ(path, surf)
	case ".stl":
		err = render.CreateSTL(path, render.NewSurfaceRenderer(surf))
	case ".glb":
		err = createGLB(path, surf)
	default:
		err = &levelset.IOError{Op: "write", Path: path, Err: fmt.Errorf("unsupported mesh format %q", ext)}
	}
	if err != nil {
		o.log.Errorf("saving mesh: %v", err)
		return err
	}
	o.log.Infof("wrote surface to %s", path)
	return nil
}

func createGLB(path string, surf levelset.Surface) error {
	fp, err := os.Create(path)
	if err != nil {
		return &levelset.IOError{Op: "open", Path: path, Err: err}
	}
	err = render.WriteGLB(fp, surf)
	if cerr := fp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &levelset.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Stats summarizes an Object.
type Stats struct {
	Vertices, Triangles int // input mesh
	Leaves, Tiles       int
	Active, Inactive    int // leaf voxels
	// Surface counts, zero until the surface is extracted.
	Points, Quads, SurfaceTriangles int
}

// Stats returns counts describing the mesh, grid and extracted surface.
func (o *Object) Stats() Stats {
	s := Stats{
		Vertices:  len(o.mesh.Vertices),
		Triangles: len(o.mesh.Triangles),
	}
	s.Leaves, s.Tiles, s.Active, s.Inactive = GridStats(o.grid)
	if o.surf != nil {
		s.Points = len(o.surf.Points)
		s.Quads = len(o.surf.Quads)
		s.SurfaceTriangles = len(o.surf.Triangles)
	}
	return s
}

// GridStats returns the leaf, inside tile, active and inactive leaf voxel
// counts of g.
func GridStats(g *levelset.Grid) (leaves, tiles, active, inactive int) {
	return g.LeafCount(), g.TileCount(), g.ActiveLeafVoxelCount(), g.InactiveLeafVoxelCount()
}

func (s Stats) String() string {
	c := func(n int) string { return humanize.Comma(int64(n)) }
	str := fmt.Sprintf("mesh: %s vertices, %s triangles\ngrid: %s leaves, %s inside tiles, %s active and %s inactive voxels",
		c(s.Vertices), c(s.Triangles), c(s.Leaves), c(s.Tiles), c(s.Active), c(s.Inactive))
	if s.Points > 0 {
		str += fmt.Sprintf("\nsurface: %s points, %s quads, %s triangles", c(s.Points), c(s.Quads), c(s.SurfaceTriangles))
	}
	return str
}
