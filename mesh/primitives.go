package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box returns the closed axis aligned box spanning min to max as 8 vertices
// and 12 outward facing triangles.
func Box(min, max r3.Vec) *Mesh {
	v := make([]r3.Vec, 8)
	for i := range v {
		p := min
		if i&1 != 0 {
			p.X = max.X
		}
		if i&2 != 0 {
			p.Y = max.Y
		}
		if i&4 != 0 {
			p.Z = max.Z
		}
		v[i] = p
	}
	return &Mesh{
		Vertices: v,
		Triangles: [][3]int{
			{0, 2, 3}, {0, 3, 1}, // -Z
			{4, 5, 7}, {4, 7, 6}, // +Z
			{0, 1, 5}, {0, 5, 4}, // -Y
			{2, 6, 7}, {2, 7, 3}, // +Y
			{0, 4, 6}, {0, 6, 2}, // -X
			{1, 3, 7}, {1, 7, 5}, // +X
		},
	}
}

// Icosphere returns a sphere approximated by a subdivided icosahedron.
// Each subdivision splits every triangle into four.
func Icosphere(center r3.Vec, radius float64, subdivisions int) *Mesh {
	t := (1 + math.Sqrt(5)) / 2
	verts := []r3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	tris := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	for i := range verts {
		verts[i] = r3.Unit(verts[i])
	}
	for s := 0; s < subdivisions; s++ {
		mid := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if i, ok := mid[key]; ok {
				return i
			}
			verts = append(verts, r3.Unit(r3.Add(verts[a], verts[b])))
			mid[key] = len(verts) - 1
			return len(verts) - 1
		}
		next := make([][3]int, 0, 4*len(tris))
		for _, tri := range tris {
			a := midpoint(tri[0], tri[1])
			b := midpoint(tri[1], tri[2])
			c := midpoint(tri[2], tri[0])
			next = append(next,
				[3]int{tri[0], a, c}, [3]int{tri[1], b, a},
				[3]int{tri[2], c, b}, [3]int{a, b, c})
		}
		tris = next
	}
	for i := range verts {
		verts[i] = r3.Add(center, r3.Scale(radius, verts[i]))
	}
	return &Mesh{Vertices: verts, Triangles: tris}
}
