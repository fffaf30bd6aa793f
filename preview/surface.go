package preview

import (
	"errors"
	"image"
	"image/png"
	"io"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/levelset"
	"github.com/soypat/levelset/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// View positions the camera for SurfacePNG. The surface is scaled to fit
// a bi-unit cube centered at the origin before drawing.
type View struct {
	// what position (point) to look at
	LookAt r3.Vec
	// which way is up (direction)
	Up r3.Vec
	// where the camera/eye located at (point)
	Eye       r3.Vec
	Near, Far float64
	// Image dimensions in pixels.
	Width, Height int
}

// DefaultView is an isometric view of the bi-unit cube.
var DefaultView = View{
	Up:     r3.Vec{Z: 1},
	Eye:    d3.Elem(2.4),
	Near:   1,
	Far:    10,
	Width:  640,
	Height: 480,
}

// SurfacePNG draws a shaded image of s as seen from view and encodes it as PNG.
func SurfacePNG(w io.Writer, s levelset.Surface, view View) error {
	img, err := drawSurface(s, view)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// CreateSurfacePNG is like SurfacePNG but writes to a file at path.
func CreateSurfacePNG(path string, s levelset.Surface, view View) error {
	img, err := drawSurface(s, view)
	if err != nil {
		return err
	}
	if err := fauxgl.SavePNG(path, img); err != nil {
		return &levelset.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func drawSurface(s levelset.Surface, view View) (image.Image, error) {
	faces := s.Triangulate()
	if len(faces) == 0 {
		return nil, errors.New("preview: empty surface")
	}
	if view.Width <= 0 || view.Height <= 0 {
		return nil, &levelset.ConfigurationError{Msg: "preview image dimensions must be positive"}
	}
	const (
		scale = 2  // supersampling
		fovy  = 30 // vertical field of view in degrees
	)
	tris := make([]*fauxgl.Triangle, len(faces))
	for i, f := range faces {
		// Stored faces wind into the solid; reverse for outward normals.
		tris[i] = fauxgl.NewTriangleForPoints(fv(s.Points[f[2]]), fv(s.Points[f[1]]), fv(s.Points[f[0]]))
	}
	mesh := fauxgl.NewTriangleMesh(tris)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()

	var (
		eye    = fv(view.Eye)
		center = fv(view.LookAt)
		up     = fv(view.Up)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
		color  = fauxgl.HexColor("#468966")
	)
	context := fauxgl.NewContext(view.Width*scale, view.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)
	// downsample image for antialiasing
	return resize.Resize(uint(view.Width), uint(view.Height), context.Image(), resize.Bilinear), nil
}

func fv(v r3.Vec) fauxgl.Vector { return fauxgl.V(v.X, v.Y, v.Z) }
