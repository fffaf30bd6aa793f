package levelset_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/soypat/levelset"
	"github.com/soypat/levelset/internal/d3"
	"github.com/soypat/levelset/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const halfWidth = 3

// unitCubeGrid builds the unit cube [0,1]³ with 0.1 voxels whose lattice is
// offset by half a voxel so the cube faces fall between voxel centres.
func unitCubeGrid(t testing.TB) *levelset.Grid {
	t.Helper()
	xform, err := levelset.NewTransform(0.1, r3.Vec{X: -0.05, Y: -0.05, Z: -0.05})
	if err != nil {
		t.Fatal(err)
	}
	cube := mesh.Box(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	grid, err := levelset.MeshToLevelSet(xform, cube.Vertices, cube.Triangles, halfWidth)
	if err != nil {
		t.Fatal(err)
	}
	return grid
}

func sphereGrid(t testing.TB, voxel float64) (*mesh.Mesh, *levelset.Grid) {
	t.Helper()
	xform, err := levelset.NewLinearTransform(voxel)
	if err != nil {
		t.Fatal(err)
	}
	sphere := mesh.Icosphere(r3.Vec{X: 0.1, Y: -0.2, Z: 0.05}, 0.5, 3)
	grid, err := levelset.MeshToLevelSet(xform, sphere.Vertices, sphere.Triangles, halfWidth)
	if err != nil {
		t.Fatal(err)
	}
	return sphere, grid
}

// meshDistance returns the unsigned distance from p to the closest triangle.
func meshDistance(p r3.Vec, pts []r3.Vec, tris [][3]int) float64 {
	best := math.Inf(1)
	for _, t := range tris {
		cp, _ := d3.Triangle{pts[t[0]], pts[t[1]], pts[t[2]]}.Closest(p)
		best = math.Min(best, r3.Norm(r3.Sub(p, cp)))
	}
	return best
}

func TestMeshToLevelSetErrors(t *testing.T) {
	cube := mesh.Box(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	xform, _ := levelset.NewLinearTransform(0.1)
	var cfgErr *levelset.ConfigurationError
	if _, err := levelset.MeshToLevelSet(nil, cube.Vertices, cube.Triangles, 3); !errors.As(err, &cfgErr) {
		t.Errorf("nil transform: got %v, want ConfigurationError", err)
	}
	if _, err := levelset.MeshToLevelSet(xform, cube.Vertices, cube.Triangles, 0.5); !errors.As(err, &cfgErr) {
		t.Errorf("half width 0.5: got %v, want ConfigurationError", err)
	}
	bad := append([][3]int{}, cube.Triangles...)
	bad[4] = [3]int{0, 1, 8}
	var topoErr *levelset.TopologyError
	_, err := levelset.MeshToLevelSet(xform, cube.Vertices, bad, 3)
	if !errors.As(err, &topoErr) {
		t.Fatalf("bad index: got %v, want TopologyError", err)
	}
	if topoErr.Face != 4 {
		t.Errorf("got face %d, want 4", topoErr.Face)
	}
	if _, err := levelset.NewLinearTransform(0); !errors.As(err, &cfgErr) {
		t.Errorf("zero voxel size: got %v, want ConfigurationError", err)
	}
}

func TestGridMetadata(t *testing.T) {
	grid := unitCubeGrid(t)
	if grid.Class() != levelset.ClassLevelSet {
		t.Errorf("got class %v, want level set", grid.Class())
	}
	if want := float32(halfWidth * 0.1); grid.Background() != want {
		t.Errorf("got background %v, want %v", grid.Background(), want)
	}
	if grid.Transform().VoxelSize() != 0.1 {
		t.Errorf("got voxel size %v", grid.Transform().VoxelSize())
	}
	if grid.LeafCount() == 0 || grid.ActiveLeafVoxelCount() == 0 {
		t.Fatal("empty grid for unit cube")
	}
}

func TestSignConsistency(t *testing.T) {
	xform, _ := levelset.NewLinearTransform(0.1)
	cube := mesh.Box(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	grid, err := levelset.MeshToLevelSet(xform, cube.Vertices, cube.Triangles, halfWidth)
	if err != nil {
		t.Fatal(err)
	}
	center := grid.Value(xform.WorldToCoord(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}))
	if center >= 0 {
		t.Errorf("centroid value %v not inside", center)
	}
	if got := grid.Evaluate(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}); got >= 0 {
		t.Errorf("interpolated centroid value %v not inside", got)
	}
	for _, far := range []r3.Vec{{X: 5, Y: 5, Z: 5}, {X: -3, Y: 0.5, Z: 0.5}, {X: 0.5, Y: 0.5, Z: 2}} {
		if v := grid.Value(xform.WorldToCoord(far)); v <= 0 {
			t.Errorf("far point %v has value %v, want outside", far, v)
		}
	}
	// Voxels just inside a face.
	if v := grid.Value(xform.WorldToCoord(r3.Vec{X: 0.1, Y: 0.5, Z: 0.5})); v >= 0 {
		t.Errorf("voxel next to face has value %v, want inside", v)
	}
	// Leaves are 8 voxel aligned, the band reaches 3 voxels past the faces.
	bounds := grid.Bounds()
	if bounds.Min.X > -0.3 || bounds.Max.X < 1.3 {
		t.Errorf("grid bounds %v do not cover the narrow band", bounds)
	}
}

func TestNarrowBand(t *testing.T) {
	for _, grid := range []*levelset.Grid{unitCubeGrid(t), func() *levelset.Grid { _, g := sphereGrid(t, 0.05); return g }()} {
		bg := grid.Background()
		for v := range grid.ActiveVoxels() {
			if !v.Active || v.Level != 0 {
				t.Fatalf("active sequence yielded %+v", v)
			}
			if v.Value > bg || v.Value < -bg {
				t.Fatalf("active voxel %v value %v exceeds background %v", v.Coord, v.Value, bg)
			}
		}
		for v := range grid.InactiveVoxels() {
			if v.Active {
				t.Fatalf("inactive sequence yielded active voxel %v", v.Coord)
			}
			if v.Value != bg && v.Value != -bg {
				t.Fatalf("inactive voxel %v value %v, want ±%v", v.Coord, v.Value, bg)
			}
		}
	}
}

func TestDistanceAccuracy(t *testing.T) {
	sphere, grid := sphereGrid(t, 0.05)
	xform := grid.Transform()
	center := r3.Vec{X: 0.1, Y: -0.2, Z: 0.05}
	n := 0
	for v := range grid.ActiveVoxels() {
		n++
		if n%7 != 0 {
			continue // Sample to keep the brute force search short.
		}
		p := xform.CoordToWorld(v.Coord)
		want := meshDistance(p, sphere.Vertices, sphere.Triangles)
		if got := math.Abs(float64(v.Value)); math.Abs(got-want) > 1e-5 {
			t.Fatalf("voxel %v: got distance %v, want %v", v.Coord, got, want)
		}
		if want < 0.01 {
			continue
		}
		inside := r3.Norm(r3.Sub(p, center)) < 0.5 && want > 0.02
		if inside && v.Value > 0 {
			t.Fatalf("voxel %v at %v should be inside, got %v", v.Coord, p, v.Value)
		}
		if r3.Norm(r3.Sub(p, center)) > 0.5 && v.Value < 0 {
			t.Fatalf("voxel %v at %v should be outside, got %v", v.Coord, p, v.Value)
		}
	}
	if n == 0 {
		t.Fatal("no active voxels")
	}
	if got := grid.Value(xform.WorldToCoord(center)); got != -grid.Background() {
		t.Errorf("sphere center value %v, want %v", got, -grid.Background())
	}
}

func TestInsideTiles(t *testing.T) {
	_, grid := sphereGrid(t, 0.02)
	if grid.TileCount() == 0 {
		t.Fatal("expected inside tiles for a sphere 50 voxels across")
	}
	xform := grid.Transform()
	center := r3.Vec{X: 0.1, Y: -0.2, Z: 0.05}
	half := levelset.Coord{levelset.LeafDim / 2, levelset.LeafDim / 2, levelset.LeafDim / 2}
	for origin := range grid.InsideTiles() {
		if grid.Leaf(origin) != nil {
			t.Fatalf("tile %v overlaps a leaf", origin)
		}
		p := xform.CoordToWorld(origin.Add(half))
		if r3.Norm(r3.Sub(p, center)) >= 0.5 {
			t.Fatalf("inside tile %v centred at %v lies outside the sphere", origin, p)
		}
		if v := grid.Value(origin); v != -grid.Background() {
			t.Fatalf("inside tile %v reads %v", origin, v)
		}
	}
}

func TestClassifierPartition(t *testing.T) {
	grid := unitCubeGrid(t)
	seen := make(map[levelset.Coord]bool)
	active := 0
	for v := range grid.ActiveVoxels() {
		seen[v.Coord] = true
		active++
	}
	inactive := 0
	for v := range grid.InactiveVoxels() {
		if seen[v.Coord] {
			t.Fatalf("voxel %v yielded as active and inactive", v.Coord)
		}
		inactive++
	}
	if active != grid.ActiveLeafVoxelCount() {
		t.Errorf("active sequence length %d, count %d", active, grid.ActiveLeafVoxelCount())
	}
	if inactive != grid.InactiveLeafVoxelCount() {
		t.Errorf("inactive sequence length %d, count %d", inactive, grid.InactiveLeafVoxelCount())
	}
	if active+inactive != grid.LeafCount()*levelset.LeafVoxels {
		t.Errorf("active %d + inactive %d != %d leaves * %d", active, inactive, grid.LeafCount(), levelset.LeafVoxels)
	}
	all, tiles := 0, 0
	for v := range grid.AllValues() {
		all++
		if v.Level == 1 {
			tiles++
		}
	}
	if all != active+inactive+grid.TileCount() || tiles != grid.TileCount() {
		t.Errorf("all values yielded %d (%d tiles), want %d (%d tiles)", all, tiles, active+inactive+grid.TileCount(), grid.TileCount())
	}
	// Sequences restart from the beginning.
	again := 0
	for range grid.ActiveVoxels() {
		again++
	}
	if again != active {
		t.Errorf("second traversal yielded %d, want %d", again, active)
	}
	// Early termination.
	for range grid.AllValues() {
		break
	}
}

func TestUnitCubeScenario(t *testing.T) {
	grid := unitCubeGrid(t)
	surf, err := levelset.VolumeToMesh(grid, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(surf.Quads) != 6 || len(surf.Triangles) != 0 {
		t.Fatalf("got %d quads and %d triangles, want 6 quads and no triangles", len(surf.Quads), len(surf.Triangles))
	}
	if len(surf.Points) != 8 {
		t.Fatalf("got %d points, want 8", len(surf.Points))
	}
	cube := mesh.Box(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	for _, corner := range cube.Vertices {
		best := math.Inf(1)
		for _, p := range surf.Points {
			best = math.Min(best, r3.Norm(r3.Sub(p, corner)))
		}
		if best > 0.1 {
			t.Errorf("corner %v has no vertex within 0.1 (closest %v)", corner, best)
		}
	}
	center := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	for _, q := range surf.Quads {
		// Reversed winding faces outward.
		p := [4]r3.Vec{surf.Points[q[3]], surf.Points[q[2]], surf.Points[q[1]], surf.Points[q[0]]}
		n := r3.Cross(r3.Sub(p[1], p[0]), r3.Sub(p[2], p[0]))
		c := r3.Scale(0.25, r3.Add(r3.Add(p[0], p[1]), r3.Add(p[2], p[3])))
		if r3.Dot(n, r3.Sub(c, center)) <= 0 {
			t.Errorf("quad %v faces inward", q)
		}
		for _, v := range p {
			if math.Abs(r3.Dot(r3.Unit(n), r3.Sub(v, c))) > 1e-9 {
				t.Errorf("quad %v is not planar", q)
			}
		}
	}
}

// Off a lattice that centres the cube faces between voxels the crossings near
// cube edges interpolate across the edge, so faces no longer collapse into
// six quads. The surface must still be closed and hug the cube.
func TestUnitCubeOffsetLattice(t *testing.T) {
	const voxel = 0.1
	xform, err := levelset.NewTransform(voxel, r3.Vec{X: 0.013, Y: 0.027, Z: 0.041})
	if err != nil {
		t.Fatal(err)
	}
	cube := mesh.Box(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	grid, err := levelset.MeshToLevelSet(xform, cube.Vertices, cube.Triangles, halfWidth)
	if err != nil {
		t.Fatal(err)
	}
	surf, err := levelset.VolumeToMesh(grid, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(surf.Quads) < 6 {
		t.Fatalf("got %d quads, want at least 6", len(surf.Quads))
	}
	checkClosed(t, surf)
	for i, p := range surf.Points {
		if d := meshDistance(p, cube.Vertices, cube.Triangles); d > voxel*math.Sqrt(3) {
			t.Errorf("point %d at %v is %v from the cube", i, p, d)
		}
	}
}

func TestUnitCubeNoMerge(t *testing.T) {
	grid := unitCubeGrid(t)
	surf, err := levelset.VolumeToMeshParms(grid, levelset.ExtractParms{NoMerge: true})
	if err != nil {
		t.Fatal(err)
	}
	// Ten crossing edges along each face direction.
	if len(surf.Quads) != 6*10*10 || len(surf.Triangles) != 0 {
		t.Errorf("got %d quads and %d triangles, want 600 quads", len(surf.Quads), len(surf.Triangles))
	}
	if want := 6*11*11 - 12*11 + 8; len(surf.Points) != want {
		t.Errorf("got %d points, want %d", len(surf.Points), want)
	}
	checkClosed(t, surf)
}

func TestExtractionIdempotent(t *testing.T) {
	_, grid := sphereGrid(t, 0.05)
	a, err := levelset.VolumeToMesh(grid, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := levelset.VolumeToMesh(grid, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("extraction of the same grid differs between calls")
	}
}

func TestSphereRoundTrip(t *testing.T) {
	const voxel = 0.05
	sphere, grid := sphereGrid(t, voxel)
	surf, err := levelset.VolumeToMesh(grid, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(surf.Quads) == 0 {
		t.Fatal("no quads extracted")
	}
	checkClosed(t, surf)
	for i, p := range surf.Points {
		if d := meshDistance(p, sphere.Vertices, sphere.Triangles); d > voxel {
			t.Fatalf("output vertex %d at %v is %v from the input mesh", i, p, d)
		}
	}
	tris := surf.Triangulate()
	for i, p := range sphere.Vertices {
		if d := meshDistance(p, surf.Points, tris); d > voxel {
			t.Fatalf("input vertex %d at %v is %v from the output mesh", i, p, d)
		}
	}
}

func TestIsovalueRange(t *testing.T) {
	grid := unitCubeGrid(t)
	bg := float64(grid.Background())
	var cfgErr *levelset.ConfigurationError
	for _, iso := range []float64{bg, -bg, 2 * bg, math.NaN()} {
		if _, err := levelset.VolumeToMesh(grid, iso); !errors.As(err, &cfgErr) {
			t.Errorf("isovalue %v: got %v, want ConfigurationError", iso, err)
		}
	}
	if _, err := levelset.VolumeToMesh(levelset.NewGrid(1), 0); !errors.As(err, &cfgErr) {
		t.Errorf("grid without transform: got %v, want ConfigurationError", err)
	}
	// A shrunken cube is still a closed surface.
	surf, err := levelset.VolumeToMesh(grid, -0.1)
	if err != nil {
		t.Fatal(err)
	}
	checkClosed(t, surf)
}

func TestDegenerateTrianglesSkipped(t *testing.T) {
	xform, _ := levelset.NewTransform(0.1, r3.Vec{X: -0.05, Y: -0.05, Z: -0.05})
	cube := mesh.Box(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	tris := append([][3]int{{0, 0, 7}, {0, 7, 7}}, cube.Triangles...)
	grid, err := levelset.MeshToLevelSet(xform, cube.Vertices, tris, halfWidth)
	if err != nil {
		t.Fatal(err)
	}
	want := unitCubeGrid(t)
	var got, exp []levelset.Voxel
	for v := range grid.AllValues() {
		got = append(got, v)
	}
	for v := range want.AllValues() {
		exp = append(exp, v)
	}
	if !reflect.DeepEqual(got, exp) {
		t.Error("degenerate triangles changed the grid")
	}
}

func TestEmptyMesh(t *testing.T) {
	xform, _ := levelset.NewLinearTransform(0.1)
	grid, err := levelset.MeshToLevelSet(xform, nil, nil, halfWidth)
	if err != nil {
		t.Fatal(err)
	}
	if grid.LeafCount() != 0 || grid.TileCount() != 0 {
		t.Fatalf("got %d leaves and %d tiles for empty mesh", grid.LeafCount(), grid.TileCount())
	}
	surf, err := levelset.VolumeToMesh(grid, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(surf.Points)+len(surf.Quads)+len(surf.Triangles) != 0 {
		t.Errorf("non-empty surface %+v from empty grid", surf)
	}
}

// checkClosed verifies every directed edge is used once and its reverse
// exactly once, so the surface is closed and consistently oriented.
func checkClosed(t *testing.T, s levelset.Surface) {
	t.Helper()
	edges := make(map[[2]int]int)
	add := func(face []int) {
		for k := range face {
			edges[[2]int{face[k], face[(k+1)%len(face)]}]++
		}
	}
	for _, q := range s.Quads {
		add(q[:])
	}
	for _, tri := range s.Triangles {
		add(tri[:])
	}
	for e, n := range edges {
		if n != 1 {
			t.Fatalf("directed edge %v used %d times", e, n)
		}
		if edges[[2]int{e[1], e[0]}] != 1 {
			t.Fatalf("edge %v has no opposite", e)
		}
	}
}

func BenchmarkMeshToLevelSet(b *testing.B) {
	sphere := mesh.Icosphere(r3.Vec{}, 0.5, 4)
	xform, _ := levelset.NewLinearTransform(0.02)
	for i := 0; i < b.N; i++ {
		levelset.MeshToLevelSet(xform, sphere.Vertices, sphere.Triangles, halfWidth)
	}
}

func BenchmarkVolumeToMesh(b *testing.B) {
	_, grid := sphereGrid(b, 0.02)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		levelset.VolumeToMesh(grid, 0)
	}
}
