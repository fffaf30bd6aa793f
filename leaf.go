package levelset

import "math/bits"

const (
	leafLog2 = 3
	// LeafDim is the number of voxels along each edge of a leaf.
	LeafDim = 1 << leafLog2
	// LeafVoxels is the number of voxels in a leaf.
	LeafVoxels = LeafDim * LeafDim * LeafDim
)

// Leaf is a dense 8x8x8 block of voxel values with a per-voxel active mask.
// Voxels are addressed by a linear offset in [0, LeafVoxels).
type Leaf struct {
	origin Coord
	values [LeafVoxels]float32
	mask   [LeafVoxels / 64]uint64
}

func newLeaf(origin Coord, fill float32) *Leaf {
	l := &Leaf{origin: origin}
	for i := range l.values {
		l.values[i] = fill
	}
	return l
}

// Origin returns the index coordinate of the leaf's minimum corner.
func (l *Leaf) Origin() Coord { return l.origin }

// Value returns the value stored at offset i.
func (l *Leaf) Value(i int) float32 { return l.values[i] }

// IsOn reports whether the voxel at offset i is active.
func (l *Leaf) IsOn(i int) bool { return l.mask[i>>6]&(1<<(i&63)) != 0 }

// SetValueOn stores v at offset i and marks the voxel active.
func (l *Leaf) SetValueOn(i int, v float32) {
	l.values[i] = v
	l.mask[i>>6] |= 1 << (i & 63)
}

// SetValueOff stores v at offset i and marks the voxel inactive.
func (l *Leaf) SetValueOff(i int, v float32) {
	l.values[i] = v
	l.mask[i>>6] &^= 1 << (i & 63)
}

// ActiveCount returns the number of active voxels in the leaf.
func (l *Leaf) ActiveCount() int {
	n := 0
	for _, w := range l.mask {
		n += bits.OnesCount64(w)
	}
	return n
}

// Coord returns the global coordinate of the voxel at offset i.
func (l *Leaf) Coord(i int) Coord {
	return Coord{
		l.origin[0] + (i>>(2*leafLog2))&(LeafDim-1),
		l.origin[1] + (i>>leafLog2)&(LeafDim-1),
		l.origin[2] + i&(LeafDim-1),
	}
}

// Mask returns a copy of the active mask words.
func (l *Leaf) Mask() [LeafVoxels / 64]uint64 { return l.mask }

// offset returns the linear leaf offset of global coordinate c.
func offset(c Coord) int {
	return (c[0]&(LeafDim-1))<<(2*leafLog2) | (c[1]&(LeafDim-1))<<leafLog2 | c[2]&(LeafDim-1)
}
