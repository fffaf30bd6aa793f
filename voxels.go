package levelset

import "iter"

// Voxel is a single stored value of a grid.
type Voxel struct {
	Coord  Coord // Voxel coordinate, or tile origin when Level is 1.
	Value  float32
	Active bool
	// Level is 0 for leaf voxels and 1 for leaf-sized tiles.
	Level int
}

// ActiveVoxels returns the active leaf voxels of g, ordered by leaf origin
// and then by offset within the leaf.
func (g *Grid) ActiveVoxels() iter.Seq[Voxel] {
	return g.leafVoxels(func(on bool) bool { return on })
}

// InactiveVoxels returns the inactive leaf voxels of g in the same order
// as ActiveVoxels. Tiles are not included.
func (g *Grid) InactiveVoxels() iter.Seq[Voxel] {
	return g.leafVoxels(func(on bool) bool { return !on })
}

// AllValues returns every leaf voxel followed by every inside tile.
func (g *Grid) AllValues() iter.Seq[Voxel] {
	return func(yield func(Voxel) bool) {
		for v := range g.leafVoxels(func(bool) bool { return true }) {
			if !yield(v) {
				return
			}
		}
		for origin := range g.InsideTiles() {
			if !yield(Voxel{Coord: origin, Value: -g.background, Level: 1}) {
				return
			}
		}
	}
}

func (g *Grid) leafVoxels(keep func(on bool) bool) iter.Seq[Voxel] {
	return func(yield func(Voxel) bool) {
		for l := range g.Leaves() {
			for i := 0; i < LeafVoxels; i++ {
				on := l.IsOn(i)
				if !keep(on) {
					continue
				}
				if !yield(Voxel{Coord: l.Coord(i), Value: l.values[i], Active: on}) {
					return
				}
			}
		}
	}
}
