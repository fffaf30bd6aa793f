// Package preview draws diagnostic images of grids and extracted surfaces.
package preview

import (
	"errors"
	"fmt"
	"io"

	"github.com/soypat/levelset"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SliceParms configures SlicePNG.
type SliceParms struct {
	// Axis normal to the slice: 0 for x, 1 for y, 2 for z.
	Axis int
	// Index is the voxel index of the slice along Axis.
	Index int
	// Width and Height of the image in points. Zero selects 400.
	Width, Height vg.Length
}

// SlicePNG draws the grid values on an axis aligned slice as a heat map
// encoded as PNG. Blue is inside and red is outside, saturating at the
// background value.
func SlicePNG(w io.Writer, g *levelset.Grid, parms SliceParms) error {
	if parms.Axis < 0 || parms.Axis > 2 {
		return &levelset.ConfigurationError{Msg: fmt.Sprintf("slice axis %d out of range", parms.Axis)}
	}
	min, max, ok := g.IndexBounds()
	if !ok {
		return errors.New("preview: grid has no leaves")
	}
	if parms.Width == 0 {
		parms.Width = 400
	}
	if parms.Height == 0 {
		parms.Height = 400
	}
	s := gridSlice{g: g, axis: parms.Axis, index: parms.Index}
	s.u, s.v = (parms.Axis+1)%3, (parms.Axis+2)%3
	// One voxel of margin so the band edge shows background.
	s.min = min.AddScalar(-1)
	s.max = max.AddScalar(1)

	bg := float64(g.Background())
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-bg)
	cm.SetMax(bg)
	cm.SetConvergePoint(0)
	hm := plotter.NewHeatMap(s, cm.Palette(255))
	hm.Min, hm.Max = -bg, bg
	hm.Underflow = hm.Palette.Colors()[0]
	hm.Overflow = hm.Palette.Colors()[len(hm.Palette.Colors())-1]
	hm.Rasterized = true

	p := plot.New()
	axisNames := "xyz"
	p.Title.Text = fmt.Sprintf("%s %c=%d", g.Name(), axisNames[parms.Axis], parms.Index)
	p.X.Label.Text = string(axisNames[s.u])
	p.Y.Label.Text = string(axisNames[s.v])
	p.Add(hm)
	wt, err := p.WriterTo(parms.Width, parms.Height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// gridSlice adapts a plane of grid voxels to plotter.GridXYZ. Columns run
// along axis u and rows along axis v.
type gridSlice struct {
	g          *levelset.Grid
	axis, u, v int
	index      int
	min, max   levelset.Coord
}

func (s gridSlice) Dims() (c, r int) {
	return s.max[s.u] - s.min[s.u] + 1, s.max[s.v] - s.min[s.v] + 1
}

func (s gridSlice) Z(c, r int) float64 {
	var at levelset.Coord
	at[s.axis] = s.index
	at[s.u] = s.min[s.u] + c
	at[s.v] = s.min[s.v] + r
	return float64(s.g.Value(at))
}

func (s gridSlice) X(c int) float64 { return s.coord(s.u, s.min[s.u]+c) }
func (s gridSlice) Y(r int) float64 { return s.coord(s.v, s.min[s.v]+r) }

// coord returns the world coordinate of index i along axis when the grid has
// a transform and the index otherwise.
func (s gridSlice) coord(axis, i int) float64 {
	xf := s.g.Transform()
	if xf == nil {
		return float64(i)
	}
	var c levelset.Coord
	c[axis] = i
	w := xf.CoordToWorld(c)
	return [3]float64{w.X, w.Y, w.Z}[axis]
}
