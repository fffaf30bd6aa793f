package levelset

import "gonum.org/v1/gonum/spatial/r3"

// Coord is an integer voxel coordinate in index space.
type Coord [3]int

// Add adds two coordinates. Return v = a + b.
func (a Coord) Add(b Coord) Coord {
	return Coord{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Sub subtracts two coordinates. Return v = a - b.
func (a Coord) Sub(b Coord) Coord {
	return Coord{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// AddScalar adds a scalar to each component of the coordinate.
func (a Coord) AddScalar(b int) Coord {
	return Coord{a[0] + b, a[1] + b, a[2] + b}
}

// Vec converts the coordinate to an r3.Vec in index space.
func (a Coord) Vec() r3.Vec {
	return r3.Vec{X: float64(a[0]), Y: float64(a[1]), Z: float64(a[2])}
}

// LeafOrigin returns the origin of the leaf that contains a.
func (a Coord) LeafOrigin() Coord {
	const m = ^(LeafDim - 1)
	return Coord{a[0] & m, a[1] & m, a[2] & m}
}

// less orders coordinates lexicographically by x, then y, then z.
func (a Coord) less(b Coord) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	if a[1] != b[1] {
		return a[1] < b[1]
	}
	return a[2] < b[2]
}

func compareCoord(a, b Coord) int {
	switch {
	case a.less(b):
		return -1
	case b.less(a):
		return 1
	}
	return 0
}

// unit returns the unit coordinate along axis.
func unit(axis int) Coord {
	var c Coord
	c[axis] = 1
	return c
}

// floorCoord returns the coordinate of the voxel at or below v.
func floorCoord(v r3.Vec) Coord {
	return Coord{floorInt(v.X), floorInt(v.Y), floorInt(v.Z)}
}

func ceilCoord(v r3.Vec) Coord {
	return Coord{ceilInt(v.X), ceilInt(v.Y), ceilInt(v.Z)}
}
