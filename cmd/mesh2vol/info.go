package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/soypat/levelset"
	"github.com/soypat/levelset/gridio"
	"github.com/soypat/levelset/preview"
	"github.com/soypat/levelset/volume"
	"github.com/spf13/cobra"
)

// leafBytes is the storage of one leaf: values and active mask.
const leafBytes = levelset.LeafVoxels*4 + levelset.LeafVoxels/8

var infoFlags struct {
	slice string
	axis  int
	index int
}

var infoCmd = &cobra.Command{
	Use:   "info [grid.lsv]",
	Short: "Display information about the grids of a level set container",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	f := infoCmd.Flags()
	f.StringVar(&infoFlags.slice, "slice", "", "write a PNG heat map of a slice of the first grid to this path")
	f.IntVar(&infoFlags.axis, "axis", 2, "slice normal axis: 0, 1 or 2")
	f.IntVar(&infoFlags.index, "index", 0, "slice voxel index along the axis")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]
	fi, err := os.Stat(filename)
	if err != nil {
		return &levelset.IOError{Op: "open", Path: filename, Err: err}
	}
	grids, err := gridio.ReadGrids(filename)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "File: %s (%s)\n", filename, humanize.Bytes(uint64(fi.Size())))
	for _, g := range grids {
		leaves, tiles, active, inactive := volume.GridStats(g)
		fmt.Fprintf(w, "\nGrid %q (%s)\n", g.Name(), g.Class())
		if xf := g.Transform(); xf != nil {
			fmt.Fprintf(w, "  Voxel size: %g\n", xf.VoxelSize())
			fmt.Fprintf(w, "  Origin:     %v\n", xf.Origin())
		}
		fmt.Fprintf(w, "  Background: %g\n", g.Background())
		if min, max, ok := g.IndexBounds(); ok {
			fmt.Fprintf(w, "  Index bounds: %v to %v\n", min, max)
		}
		fmt.Fprintf(w, "  Leaves:          %s\n", humanize.Comma(int64(leaves)))
		fmt.Fprintf(w, "  Inside tiles:    %s\n", humanize.Comma(int64(tiles)))
		fmt.Fprintf(w, "  Active voxels:   %s\n", humanize.Comma(int64(active)))
		fmt.Fprintf(w, "  Inactive voxels: %s\n", humanize.Comma(int64(inactive)))
		fmt.Fprintf(w, "  Leaf memory:     %s\n", humanize.Bytes(uint64(leaves)*leafBytes))
	}
	if infoFlags.slice == "" || len(grids) == 0 {
		return nil
	}
	fp, err := os.Create(infoFlags.slice)
	if err != nil {
		return &levelset.IOError{Op: "open", Path: infoFlags.slice, Err: err}
	}
	defer fp.Close()
	err = preview.SlicePNG(fp, grids[0], preview.SliceParms{Axis: infoFlags.axis, Index: infoFlags.index})
	if err != nil {
		return err
	}
	return fp.Close()
}
