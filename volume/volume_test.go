package volume_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soypat/levelset"
	"github.com/soypat/levelset/gridio"
	"github.com/soypat/levelset/mesh"
	"github.com/soypat/levelset/volume"
	"gonum.org/v1/gonum/spatial/r3"
)

// writeCube writes a unit cube offset by half a voxel of size 0.1 so its
// faces lie between voxel centers.
func writeCube(t *testing.T, dir string) string {
	t.Helper()
	cube := mesh.Box(r3.Vec{X: 0.05, Y: 0.05, Z: 0.05}, r3.Vec{X: 1.05, Y: 1.05, Z: 1.05})
	var b strings.Builder
	for _, v := range cube.Vertices {
		fmt.Fprintf(&b, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, f := range cube.Triangles {
		fmt.Fprintf(&b, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1)
	}
	path := filepath.Join(dir, "cube.obj")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func cubeConfig() volume.Config {
	cfg := volume.DefaultConfig()
	cfg.VoxelSize = 0.1
	return cfg
}

func TestPipeline(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	cfg := cubeConfig()
	cfg.Logger = volume.NewStdLogger(&logs, volume.DebugMode)
	obj, err := volume.New(writeCube(t, dir), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if obj.Grid().Name() != "mesh_grid" {
		t.Errorf("got grid name %q", obj.Grid().Name())
	}
	path, err := obj.SaveAsMesh()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "cube_merge.obj"); path != want {
		t.Errorf("got mesh path %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#output from volume grid\n#vertices: 8\n#quad: 6\n#tris: 0\n") {
		t.Errorf("unexpected OBJ header:\n%s", data)
	}
	stats := obj.Stats()
	if stats.Quads != 6 || stats.Points != 8 || stats.Vertices != 8 || stats.Triangles != 12 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.Active+stats.Inactive != stats.Leaves*levelset.LeafVoxels {
		t.Errorf("voxel counts do not partition leaves: %+v", stats)
	}
	if !strings.Contains(stats.String(), "6 quads") {
		t.Errorf("stats string missing surface counts: %s", stats)
	}

	gridPath, err := obj.WriteGrid(filepath.Join(dir, "cube"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(gridPath) != gridio.Ext {
		t.Errorf("grid path %q lacks container extension", gridPath)
	}
	g, err := gridio.Read(gridPath)
	if err != nil {
		t.Fatal(err)
	}
	if g.Name() != "mesh_grid" || g.LeafCount() != stats.Leaves || g.ActiveLeafVoxelCount() != stats.Active {
		t.Errorf("grid read back differs: %q with %d leaves", g.Name(), g.LeafCount())
	}
	if !strings.Contains(logs.String(), " INFO ") || !strings.Contains(logs.String(), " DEBUG ") {
		t.Errorf("expected info and debug messages, got:\n%s", logs.String())
	}
}

func TestSaveMeshFormats(t *testing.T) {
	dir := t.TempDir()
	obj, err := volume.New(writeCube(t, dir), cubeConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"out.obj", "out.stl", "out.glb"} {
		path := filepath.Join(dir, name)
		if err := obj.SaveMesh(path); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	var ioErr *levelset.IOError
	if err := obj.SaveMesh(filepath.Join(dir, "out.ply")); !errors.As(err, &ioErr) {
		t.Errorf("want IOError for unsupported format, got %v", err)
	}
}

func TestNewErrors(t *testing.T) {
	dir := t.TempDir()
	var ioErr *levelset.IOError
	_, err := volume.New(filepath.Join(dir, "missing.obj"), cubeConfig())
	if !errors.As(err, &ioErr) {
		t.Errorf("want IOError for missing mesh, got %v", err)
	}

	quad := filepath.Join(dir, "quad.obj")
	os.WriteFile(quad, []byte("v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"), 0o644)
	var topoErr *levelset.TopologyError
	_, err = volume.New(quad, cubeConfig())
	if !errors.As(err, &topoErr) {
		t.Errorf("want TopologyError for quad face, got %v", err)
	}

	cfg := cubeConfig()
	cfg.HalfWidth = 0.5
	var cfgErr *levelset.ConfigurationError
	_, err = volume.New(writeCube(t, dir), cfg)
	if !errors.As(err, &cfgErr) {
		t.Errorf("want ConfigurationError for half width, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	dir := t.TempDir()
	cfg := cubeConfig()
	cfg.Normalize = true
	obj, err := volume.New(writeCube(t, dir), cfg)
	if err != nil {
		t.Fatal(err)
	}
	b := obj.Mesh().Bounds()
	if r3.Norm(r3.Add(b.Min, b.Max)) > 1e-12 {
		t.Errorf("normalized mesh not centered: %v", b)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.toml")
	os.WriteFile(path, []byte(`
voxel_size = 0.05
half_width = 4.0
compression = "zstd"
no_merge = true

[log]
logfile = "conv.log"
max_log_size = 10
`), 0o644)
	cfg, err := volume.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VoxelSize != 0.05 || cfg.HalfWidth != 4 || !cfg.NoMerge || cfg.Compression != "zstd" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.GridName != "mesh_grid" || cfg.MeshSuffix != "_merge.obj" {
		t.Errorf("defaults not kept: %+v", cfg)
	}
	if cfg.Log.Logfile != "conv.log" || cfg.Log.MaxSize != 10 {
		t.Errorf("log section not decoded: %+v", cfg.Log)
	}

	os.WriteFile(path, []byte("voxel_sise = 0.05\n"), 0o644)
	var cfgErr *levelset.ConfigurationError
	if _, err := volume.LoadConfig(path); !errors.As(err, &cfgErr) {
		t.Errorf("want ConfigurationError for unknown key, got %v", err)
	}
	os.WriteFile(path, []byte("compression = \"lz4\"\n"), 0o644)
	if _, err := volume.LoadConfig(path); !errors.As(err, &cfgErr) {
		t.Errorf("want ConfigurationError for bad compression, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	for _, test := range []struct {
		name string
		mod  func(*volume.Config)
	}{
		{"zero voxel", func(c *volume.Config) { c.VoxelSize = 0 }},
		{"small half width", func(c *volume.Config) { c.HalfWidth = 0.9 }},
		{"iso outside band", func(c *volume.Config) { c.Isovalue = 1 }},
		{"empty suffix", func(c *volume.Config) { c.MeshSuffix = "" }},
	} {
		cfg := volume.DefaultConfig()
		test.mod(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: want error", test.name)
		}
	}
	if err := volume.DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLogger(t *testing.T) {
	var b bytes.Buffer
	l := volume.NewStdLogger(&b, volume.WarningMode)
	l.Infof("hidden %d", 1)
	l.Warningf("shown %d", 2)
	if strings.Contains(b.String(), "hidden") || !strings.Contains(b.String(), " WARNING shown 2") {
		t.Errorf("unexpected log output %q", b.String())
	}

	path := filepath.Join(t.TempDir(), "out.log")
	fl, closer := volume.LogConfig{Logfile: path}.Logger(nil)
	volume.NewTimeLog(fl).Infof("converted")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), " INFO converted: ") {
		t.Errorf("unexpected log file content %q", data)
	}
}
