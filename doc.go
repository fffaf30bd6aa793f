// Package levelset converts closed triangle meshes into sparse narrow-band
// signed distance grids and extracts polygonal surfaces back out of them.
//
// Distances are negative inside the surface and positive outside. Only voxels
// within half-width voxels of the surface are stored as active; everything
// else reads as plus or minus the grid background value.
package levelset
