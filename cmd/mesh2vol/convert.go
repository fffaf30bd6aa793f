package main

import (
	"fmt"
	"os"

	"github.com/soypat/levelset/preview"
	"github.com/soypat/levelset/volume"
	"github.com/spf13/cobra"
)

var convertFlags struct {
	config  string
	grid    string
	output  string
	preview string
	logfile string
	verbose bool
}

var convertCmd = &cobra.Command{
	Use:   "convert [mesh]",
	Short: "Convert a mesh to a level set and write the extracted surface",
	Long: `Convert loads a closed triangle mesh, builds a narrow-band level set from it and
writes the extracted surface next to the input as <name>_merge.obj. Use --grid to
also write the level set container and --output to choose another surface path
(.obj, .stl or .glb).`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	def := volume.DefaultConfig()
	f := convertCmd.Flags()
	f.Float64("voxel-size", def.VoxelSize, "world size of a voxel edge")
	f.Float64("half-width", def.HalfWidth, "narrow band half width in voxels")
	f.Float64("iso", def.Isovalue, "isovalue of the extracted surface")
	f.Bool("normalize", def.Normalize, "center the mesh and scale it to a unit cube first")
	f.Bool("no-merge", def.NoMerge, "do not merge coplanar quads")
	f.String("compression", def.Compression, "grid container compression: none, zip or zstd")
	f.StringVar(&convertFlags.config, "config", "", "TOML configuration file; flags take precedence")
	f.StringVar(&convertFlags.grid, "grid", "", "write the level set to this container name")
	f.StringVarP(&convertFlags.output, "output", "o", "", "surface output path instead of <mesh>_merge.obj")
	f.StringVar(&convertFlags.preview, "preview", "", "write a shaded PNG of the surface to this path")
	f.StringVar(&convertFlags.logfile, "log", "", "append log messages to this rotating log file")
	f.BoolVarP(&convertFlags.verbose, "verbose", "v", false, "log debug messages")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := convertConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer := cfg.Log.Logger(os.Stderr)
	defer closer.Close()
	cfg.Logger = logger

	obj, err := volume.New(args[0], cfg)
	if err != nil {
		return err
	}
	out := convertFlags.output
	if out == "" {
		out, err = obj.SaveAsMesh()
	} else {
		err = obj.SaveMesh(out)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	if convertFlags.grid != "" {
		path, err := obj.WriteGrid(convertFlags.grid)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	}
	if convertFlags.preview != "" {
		surf, err := obj.Extract()
		if err != nil {
			return err
		}
		if err := preview.CreateSurfacePNG(convertFlags.preview, surf, preview.DefaultView); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), obj.Stats())
	return nil
}

// convertConfig returns the configuration file values, or the defaults, with
// explicitly set flags applied on top.
func convertConfig(cmd *cobra.Command) (volume.Config, error) {
	cfg := volume.DefaultConfig()
	if convertFlags.config != "" {
		var err error
		cfg, err = volume.LoadConfig(convertFlags.config)
		if err != nil {
			return cfg, err
		}
	}
	f := cmd.Flags()
	var err error
	set := func(name string, fn func() error) {
		if err == nil && f.Changed(name) {
			err = fn()
		}
	}
	set("voxel-size", func() (e error) { cfg.VoxelSize, e = f.GetFloat64("voxel-size"); return e })
	set("half-width", func() (e error) { cfg.HalfWidth, e = f.GetFloat64("half-width"); return e })
	set("iso", func() (e error) { cfg.Isovalue, e = f.GetFloat64("iso"); return e })
	set("normalize", func() (e error) { cfg.Normalize, e = f.GetBool("normalize"); return e })
	set("no-merge", func() (e error) { cfg.NoMerge, e = f.GetBool("no-merge"); return e })
	set("compression", func() (e error) { cfg.Compression, e = f.GetString("compression"); return e })
	if err != nil {
		return cfg, err
	}
	if convertFlags.logfile != "" {
		cfg.Log.Logfile = convertFlags.logfile
	}
	if convertFlags.verbose {
		cfg.Log.Verbose = true
	}
	return cfg, cfg.Validate()
}
