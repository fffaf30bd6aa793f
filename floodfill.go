package levelset

// floodTiles classifies every leaf-sized region without a leaf inside the
// padded leaf bounds of g. Regions are grouped into 6-connected components;
// a component takes the sign of the leaf voxel it touches and inside
// components are recorded as tiles.
func floodTiles(g *Grid) {
	min, max, ok := g.IndexBounds()
	if !ok {
		return
	}
	var lo, dims [3]int
	for i := range lo {
		lo[i] = min[i]>>leafLog2 - 1
		dims[i] = max[i]>>leafLog2 + 1 - lo[i] + 1
	}
	index := func(t [3]int) int {
		return ((t[0]-lo[0])*dims[1]+(t[1]-lo[1]))*dims[2] + (t[2] - lo[2])
	}
	inBox := func(t [3]int) bool {
		for i := range t {
			if t[i] < lo[i] || t[i] >= lo[i]+dims[i] {
				return false
			}
		}
		return true
	}
	origin := func(t [3]int) Coord {
		return Coord{t[0] << leafLog2, t[1] << leafLog2, t[2] << leafLog2}
	}

	visited := make([]bool, dims[0]*dims[1]*dims[2])
	var component, queue [][3]int
	for x := lo[0]; x < lo[0]+dims[0]; x++ {
		for y := lo[1]; y < lo[1]+dims[1]; y++ {
			for z := lo[2]; z < lo[2]+dims[2]; z++ {
				seed := [3]int{x, y, z}
				if visited[index(seed)] || g.leaves[origin(seed)] != nil {
					continue
				}
				visited[index(seed)] = true
				component = component[:0]
				queue = append(queue[:0], seed)
				var sign float32
				for len(queue) > 0 {
					t := queue[len(queue)-1]
					queue = queue[:len(queue)-1]
					component = append(component, t)
					for axis := 0; axis < 3; axis++ {
						for _, dir := range [2]int{-1, 1} {
							n := t
							n[axis] += dir
							if !inBox(n) || visited[index(n)] {
								continue
							}
							if l := g.leaves[origin(n)]; l != nil {
								if sign == 0 {
									sign = faceValue(l, axis, dir)
								}
								continue
							}
							visited[index(n)] = true
							queue = append(queue, n)
						}
					}
				}
				if sign < 0 {
					for _, t := range component {
						g.tiles[origin(t)] = struct{}{}
					}
				}
			}
		}
	}
}

// faceValue returns a value of leaf l on the face it shares with a region
// that lies in direction -dir along axis from the leaf. It never returns 0.
func faceValue(l *Leaf, axis, dir int) float32 {
	var c Coord
	if dir < 0 {
		c[axis] = LeafDim - 1
	}
	v := l.values[offset(l.origin.Add(c))]
	if v < 0 {
		return -1
	}
	return 1
}
