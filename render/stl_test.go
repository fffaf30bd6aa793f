package render_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/levelset/render"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSTLCreateWriteRead(t *testing.T) {
	const tol = 1e-6
	path := filepath.Join(t.TempDir(), "cube.stl")
	err := render.CreateSTL(path, render.NewSurfaceRenderer(cubeSurface()))
	if err != nil {
		t.Fatal(err)
	}
	bfile, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	model, err := render.RenderAll(render.NewSurfaceRenderer(cubeSurface()))
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	err = render.WriteSTL(&b, model)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 84+50*12 {
		t.Fatalf("got %d STL bytes, want %d", b.Len(), 84+50*12)
	}
	if b.String() != string(bfile) {
		t.Fatal("WriteSTL and CreateSTL output mismatch")
	}
	got, err := render.ReadSTL(&b)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(model) {
		t.Fatalf("read %d triangles, want %d", len(got), len(model))
	}
	for i := range got {
		for j := 0; j < 3; j++ {
			if r3.Norm(r3.Sub(got[i].V[j], model[i].V[j])) > tol {
				t.Errorf("triangle %d vertex %d: got %v, want %v", i, j, got[i].V[j], model[i].V[j])
			}
		}
	}
}

func TestReadSTLNormalMismatch(t *testing.T) {
	model, err := render.RenderAll(render.NewSurfaceRenderer(cubeSurface()))
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	err = render.WriteSTL(&b, model)
	if err != nil {
		t.Fatal(err)
	}
	// Cube normals are axis aligned so a diagonal stored normal never matches.
	data := b.Bytes()
	binary.LittleEndian.PutUint32(data[84:], math.Float32bits(0.6))
	binary.LittleEndian.PutUint32(data[88:], math.Float32bits(0.8))
	binary.LittleEndian.PutUint32(data[92:], 0)
	got, err := render.ReadSTL(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected normal mismatch error")
	}
	if len(got) != len(model) {
		t.Fatalf("read %d triangles alongside mismatch, want %d", len(got), len(model))
	}
}

func BenchmarkWriteSTL(b *testing.B) {
	model, _ := render.RenderAll(render.NewSurfaceRenderer(cubeSurface()))
	var buf bytes.Buffer
	for i := 0; i < b.N; i++ {
		buf.Reset()
		render.WriteSTL(&buf, model)
	}
}
