package render

import (
	"errors"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/soypat/levelset"
	"gonum.org/v1/gonum/spatial/r3"
)

// WriteGLB writes the triangulated surface s as a binary glTF document
// holding a single mesh with smooth vertex normals.
func WriteGLB(w io.Writer, s levelset.Surface) error {
	faces := s.Triangulate()
	if len(faces) == 0 {
		return errors.New("empty surface")
	}
	positions := make([][3]float32, len(s.Points))
	for i, p := range s.Points {
		positions[i] = f32From3(p)
	}
	indices := make([]uint32, 0, 3*len(faces))
	acc := make([]r3.Vec, len(s.Points))
	for _, f := range faces {
		// Reverse winding so faces are counter-clockwise seen from outside.
		indices = append(indices, uint32(f[2]), uint32(f[1]), uint32(f[0]))
		n := r3.Triangle{s.Points[f[2]], s.Points[f[1]], s.Points[f[0]]}.Normal()
		for _, vi := range f {
			acc[vi] = r3.Add(acc[vi], n)
		}
	}
	normals := make([][3]float32, len(acc))
	for i, n := range acc {
		if l := r3.Norm(n); l > 0 {
			normals[i] = f32From3(r3.Scale(1/l, n))
		}
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "levelset"
	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, normals)
	indicesAccessor := modeler.WriteIndices(doc, indices)
	prim := &gltf.Primitive{
		Attributes: gltf.PrimitiveAttributes{
			gltf.POSITION: posAccessor,
			gltf.NORMAL:   normalAccessor,
		},
		Indices:  gltf.Index(indicesAccessor),
		Material: gltf.Index(0),
	}
	pbr := &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float64{0.8, 0.8, 0.8, 1}, MetallicFactor: gltf.Float(0), RoughnessFactor: gltf.Float(1)}
	doc.Materials = []*gltf.Material{{PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque}}
	doc.Meshes = []*gltf.Mesh{{Name: "surface", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return enc.Encode(doc)
}
