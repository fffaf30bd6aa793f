package levelset

import (
	"iter"
	"slices"
)

// GridClass describes how the values of a grid are interpreted.
type GridClass uint8

const (
	ClassUnknown GridClass = iota
	ClassLevelSet
	ClassFogVolume
)

func (c GridClass) String() string {
	switch c {
	case ClassLevelSet:
		return "level set"
	case ClassFogVolume:
		return "fog volume"
	}
	return "unknown"
}

// Grid is a sparse volume of float32 values. Voxels are stored in leaves
// of LeafDim^3 voxels; regions without a leaf read as -Background if they were
// recorded as inside tiles and +Background otherwise.
type Grid struct {
	name       string
	class      GridClass
	background float32
	xform      *Transform
	leaves     map[Coord]*Leaf
	tiles      map[Coord]struct{}
}

// NewGrid returns an empty grid with the given background value.
func NewGrid(background float32) *Grid {
	return &Grid{
		background: background,
		leaves:     make(map[Coord]*Leaf),
		tiles:      make(map[Coord]struct{}),
	}
}

func (g *Grid) Name() string          { return g.name }
func (g *Grid) SetName(name string)   { g.name = name }
func (g *Grid) Class() GridClass      { return g.class }
func (g *Grid) SetClass(c GridClass)  { g.class = c }
func (g *Grid) Background() float32   { return g.background }
func (g *Grid) Transform() *Transform { return g.xform }

// SetTransform attaches the voxel to world transform. Stored values are
// distances in world units so the transform can only be set while the grid
// holds no leaves or tiles.
func (g *Grid) SetTransform(t *Transform) error {
	if len(g.leaves) != 0 || len(g.tiles) != 0 {
		return configErrorf("cannot change transform of populated grid %q", g.name)
	}
	g.xform = t
	return nil
}

// Leaf returns the leaf with the given origin or nil.
func (g *Grid) Leaf(origin Coord) *Leaf { return g.leaves[origin] }

// TouchLeaf returns the leaf containing c, allocating it filled with
// inactive voxels if it does not exist. A newly allocated leaf takes the
// value of the region it replaces.
func (g *Grid) TouchLeaf(c Coord) *Leaf {
	origin := c.LeafOrigin()
	if l := g.leaves[origin]; l != nil {
		return l
	}
	fill := g.background
	if _, inside := g.tiles[origin]; inside {
		fill = -fill
		delete(g.tiles, origin)
	}
	l := newLeaf(origin, fill)
	g.leaves[origin] = l
	return l
}

// SetTileInside records the leaf-sized region at origin as entirely inside.
// It is a no-op if a leaf already occupies the region.
func (g *Grid) SetTileInside(origin Coord) {
	origin = origin.LeafOrigin()
	if g.leaves[origin] == nil {
		g.tiles[origin] = struct{}{}
	}
}

// IsTileInside reports whether the region at origin is an inside tile.
func (g *Grid) IsTileInside(origin Coord) bool {
	_, ok := g.tiles[origin.LeafOrigin()]
	return ok
}

// Value returns the value at c.
func (g *Grid) Value(c Coord) float32 {
	origin := c.LeafOrigin()
	if l := g.leaves[origin]; l != nil {
		return l.values[offset(c)]
	}
	if _, inside := g.tiles[origin]; inside {
		return -g.background
	}
	return g.background
}

// IsActive reports whether the voxel at c is stored as active.
func (g *Grid) IsActive(c Coord) bool {
	l := g.leaves[c.LeafOrigin()]
	return l != nil && l.IsOn(offset(c))
}

// SetValueOn sets the value at c and marks it active.
func (g *Grid) SetValueOn(c Coord, v float32) { g.TouchLeaf(c).SetValueOn(offset(c), v) }

// SetValueOff sets the value at c and marks it inactive.
func (g *Grid) SetValueOff(c Coord, v float32) { g.TouchLeaf(c).SetValueOff(offset(c), v) }

// LeafCount returns the number of allocated leaves.
func (g *Grid) LeafCount() int { return len(g.leaves) }

// TileCount returns the number of recorded inside tiles.
func (g *Grid) TileCount() int { return len(g.tiles) }

// ActiveLeafVoxelCount returns the number of active voxels over all leaves.
func (g *Grid) ActiveLeafVoxelCount() int {
	n := 0
	for _, l := range g.leaves {
		n += l.ActiveCount()
	}
	return n
}

// InactiveLeafVoxelCount returns the number of inactive voxels over all leaves.
func (g *Grid) InactiveLeafVoxelCount() int {
	return g.LeafCount()*LeafVoxels - g.ActiveLeafVoxelCount()
}

// Leaves returns the grid's leaves ordered by origin.
func (g *Grid) Leaves() iter.Seq[*Leaf] {
	return func(yield func(*Leaf) bool) {
		for _, origin := range g.leafOrigins() {
			if !yield(g.leaves[origin]) {
				return
			}
		}
	}
}

// InsideTiles returns the origins of the recorded inside tiles in order.
func (g *Grid) InsideTiles() iter.Seq[Coord] {
	return func(yield func(Coord) bool) {
		for _, origin := range sortedKeys(g.tiles) {
			if !yield(origin) {
				return
			}
		}
	}
}

// IndexBounds returns the inclusive index-space bounds of all allocated
// leaves. ok is false if the grid has no leaves.
func (g *Grid) IndexBounds() (min, max Coord, ok bool) {
	for origin := range g.leaves {
		end := origin.AddScalar(LeafDim - 1)
		if !ok {
			min, max, ok = origin, end, true
			continue
		}
		for i := 0; i < 3; i++ {
			min[i] = minInt(min[i], origin[i])
			max[i] = maxInt(max[i], end[i])
		}
	}
	return min, max, ok
}

func (g *Grid) leafOrigins() []Coord {
	origins := make([]Coord, 0, len(g.leaves))
	for origin := range g.leaves {
		origins = append(origins, origin)
	}
	slices.SortFunc(origins, compareCoord)
	return origins
}

func sortedKeys(m map[Coord]struct{}) []Coord {
	keys := make([]Coord, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareCoord)
	return keys
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
