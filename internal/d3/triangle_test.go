package d3

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestTriangleClosest(t *testing.T) {
	tri := Triangle{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	for _, test := range []struct {
		p       r3.Vec
		want    r3.Vec
		feature Feature
	}{
		{p: r3.Vec{X: 0.25, Y: 0.25, Z: 1}, want: r3.Vec{X: 0.25, Y: 0.25}, feature: FeatureFace},
		{p: r3.Vec{X: -1, Y: -1, Z: 0.5}, want: r3.Vec{}, feature: FeatureV0},
		{p: r3.Vec{X: 2, Y: -0.5}, want: r3.Vec{X: 1}, feature: FeatureV1},
		{p: r3.Vec{X: -0.5, Y: 3}, want: r3.Vec{Y: 1}, feature: FeatureV2},
		{p: r3.Vec{X: 0.5, Y: -1}, want: r3.Vec{X: 0.5}, feature: FeatureE01},
		{p: r3.Vec{X: 1, Y: 1, Z: -2}, want: r3.Vec{X: 0.5, Y: 0.5}, feature: FeatureE12},
		{p: r3.Vec{X: -3, Y: 0.5}, want: r3.Vec{Y: 0.5}, feature: FeatureE20},
	} {
		got, f := tri.Closest(test.p)
		if !EqualWithin(got, test.want, 1e-12) {
			t.Errorf("closest to %v: got %v, want %v", test.p, got, test.want)
		}
		if f != test.feature {
			t.Errorf("feature for %v: got %d, want %d", test.p, f, test.feature)
		}
	}
}

func TestTriangleDegenerate(t *testing.T) {
	good := Triangle{{}, {X: 1}, {Y: 1}}
	if good.Degenerate(1e-12) {
		t.Error("unit right triangle reported degenerate")
	}
	line := Triangle{{}, {X: 1}, {X: 2}}
	if !line.Degenerate(1e-12) {
		t.Error("collinear triangle not reported degenerate")
	}
	point := Triangle{{X: 1}, {X: 1}, {X: 1}}
	if !point.Degenerate(1e-12) {
		t.Error("point triangle not reported degenerate")
	}
}

func TestLinearTransform(t *testing.T) {
	origin := r3.Vec{X: 1, Y: -2, Z: 0.5}
	fwd := Linear(0.25, origin)
	inv := LinearInv(0.25, origin)
	p := r3.Vec{X: 4, Y: 8, Z: -12}
	w := fwd.Transform(p)
	want := r3.Vec{X: 2, Y: 0, Z: -2.5}
	if !EqualWithin(w, want, 1e-12) {
		t.Fatalf("got %v, want %v", w, want)
	}
	if back := inv.Transform(w); !EqualWithin(back, p, 1e-12) {
		t.Errorf("inverse got %v, want %v", back, p)
	}
	if fwd != Linear(0.25, origin) {
		t.Error("Linear not deterministic")
	}
	if (Linear(1, r3.Vec{}) != Transform{}) {
		t.Error("unit voxel at the origin should be the identity")
	}
}
