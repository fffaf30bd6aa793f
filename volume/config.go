package volume

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/soypat/levelset"
	"github.com/soypat/levelset/gridio"
)

// Config holds the conversion parameters of an Object. Config files are TOML
// documents whose keys match the toml tags below; absent keys keep their
// DefaultConfig value.
type Config struct {
	// VoxelSize is the world size of a voxel edge.
	VoxelSize float64 `toml:"voxel_size"`
	// HalfWidth of the narrow band in voxels.
	HalfWidth float64 `toml:"half_width"`
	Isovalue  float64 `toml:"isovalue"`
	// Normalize scales and centers the input mesh to fit a unit cube
	// around the origin before conversion.
	Normalize bool `toml:"normalize"`
	// NoMerge disables coplanar quad merging during extraction.
	NoMerge bool `toml:"no_merge"`
	// GridName is the name stored for the grid in containers.
	GridName string `toml:"grid_name"`
	// MeshSuffix replaces the input mesh extension in SaveAsMesh output.
	MeshSuffix string `toml:"mesh_suffix"`
	// Compression of grid containers as accepted by gridio.ParseCompression.
	Compression string    `toml:"compression"`
	Log         LogConfig `toml:"log"`

	// Logger receives progress messages. Nil discards them.
	Logger Logger `toml:"-"`
}

// DefaultConfig returns the default conversion parameters.
func DefaultConfig() Config {
	return Config{
		VoxelSize:   0.008,
		HalfWidth:   3,
		GridName:    "mesh_grid",
		MeshSuffix:  "_merge.obj",
		Compression: "zip",
	}
}

// LoadConfig decodes the TOML file at path over DefaultConfig. Unknown keys
// are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, &levelset.IOError{Op: "read", Path: path, Err: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, &levelset.ConfigurationError{Msg: fmt.Sprintf("%s: unknown keys %s", path, strings.Join(keys, ", "))}
	}
	return cfg, cfg.Validate()
}

// Validate checks the parameters for consistency.
func (c Config) Validate() error {
	switch {
	case !(c.VoxelSize > 0) || math.IsInf(c.VoxelSize, 0):
		return &levelset.ConfigurationError{Msg: fmt.Sprintf("voxel size must be positive and finite, got %g", c.VoxelSize)}
	case !(c.HalfWidth >= 1) || math.IsInf(c.HalfWidth, 0):
		return &levelset.ConfigurationError{Msg: fmt.Sprintf("half width must be at least one voxel, got %g", c.HalfWidth)}
	case math.Abs(c.Isovalue) >= c.HalfWidth*c.VoxelSize || math.IsNaN(c.Isovalue):
		return &levelset.ConfigurationError{Msg: fmt.Sprintf("isovalue %g outside narrow band of width %g", c.Isovalue, c.HalfWidth*c.VoxelSize)}
	case c.MeshSuffix == "":
		return &levelset.ConfigurationError{Msg: "empty mesh suffix"}
	}
	_, err := gridio.ParseCompression(c.Compression)
	return err
}

func (c Config) compression() gridio.Compression {
	comp, err := gridio.ParseCompression(c.Compression)
	if err != nil {
		return gridio.DefaultCompression
	}
	return comp
}
