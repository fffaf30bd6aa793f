// Command mesh2vol converts closed triangle meshes into narrow-band level-set
// volumes and extracts polygonal surfaces from them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mesh2vol",
	Short: "Convert triangle meshes to narrow-band level sets and back",
	Long: `mesh2vol builds a sparse signed distance volume from a closed triangle mesh
(.obj, .off or .stl), extracts a quad dominant surface from it and writes the
surface and optionally the volume to disk.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
