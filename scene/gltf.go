package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// GLTFDecoder reads .gltf and .glb files. Every primitive of every mesh
// becomes one scene mesh, in document order. Strips and fans are
// triangulated; points and lines are kept as short faces.
type GLTFDecoder struct{}

func (GLTFDecoder) DecodeFile(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read gltf %q", path)
	}
	return FromGLTF(doc)
}

func FromGLTF(doc *gltf.Document) (*Scene, error) {
	s := &Scene{Meshes: make([]*Mesh, 0, len(doc.Meshes))}
	for iMesh, mesh := range doc.Meshes {
		for iPrimitive, primitive := range mesh.Primitives {
			m, err := primitiveMesh(doc, primitive)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %d %q primitive %d", iMesh, mesh.Name, iPrimitive)
			}
			m.Name = mesh.Name
			s.Meshes = append(s.Meshes, m)
		}
	}
	return s, nil
}

func primitiveMesh(doc *gltf.Document, primitive *gltf.Primitive) (*Mesh, error) {
	positionAccessor, ok := primitive.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	if int(positionAccessor) >= len(doc.Accessors) {
		return nil, errors.Errorf("POSITION accessor %d out of range", positionAccessor)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[positionAccessor], nil)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read mesh vertices")
	}

	m := &Mesh{Positions: toVec3(positions)}

	if normalAccessor, ok := primitive.Attributes["NORMAL"]; ok {
		if int(normalAccessor) >= len(doc.Accessors) {
			return nil, errors.Errorf("NORMAL accessor %d out of range", normalAccessor)
		}
		normals, err := modeler.ReadNormal(doc, doc.Accessors[normalAccessor], nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read mesh normals")
		}
		m.Normals = toVec3(normals)
	}

	var indices []uint32
	if primitive.Indices != nil {
		if int(*primitive.Indices) >= len(doc.Accessors) {
			return nil, errors.Errorf("indices accessor %d out of range", *primitive.Indices)
		}
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*primitive.Indices], nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read mesh indices")
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	m.Faces = faces(primitive.Mode, indices)
	return m, nil
}

func toVec3(in [][3]float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(in))
	for i, v := range in {
		out[i] = mgl32.Vec3(v)
	}
	return out
}

func faces(mode gltf.PrimitiveMode, idx []uint32) [][]uint32 {
	result := make([][]uint32, 0, len(idx)/3)
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(idx); i++ {
			if i%2 == 0 {
				result = append(result, []uint32{idx[i], idx[i+1], idx[i+2]})
			} else {
				result = append(result, []uint32{idx[i], idx[i+2], idx[i+1]})
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 0; i+2 < len(idx); i++ {
			result = append(result, []uint32{idx[i+1], idx[i+2], idx[0]})
		}
	case gltf.PrimitivePoints:
		for i := range idx {
			result = append(result, []uint32{idx[i]})
		}
	case gltf.PrimitiveLines, gltf.PrimitiveLineStrip, gltf.PrimitiveLineLoop:
		result = append(result, chunk(idx, 2)...)
	default:
		result = append(result, chunk(idx, 3)...)
	}
	return result
}

// chunk splits idx into faces of n, the trailing face may be shorter
func chunk(idx []uint32, n int) [][]uint32 {
	result := make([][]uint32, 0, (len(idx)+n-1)/n)
	for i := 0; i < len(idx); i += n {
		end := i + n
		if end > len(idx) {
			end = len(idx)
		}
		result = append(result, append([]uint32(nil), idx[i:end]...))
	}
	return result
}
