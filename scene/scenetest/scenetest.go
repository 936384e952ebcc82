// Package scenetest builds small glTF fixtures for tests.
package scenetest

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type Primitive struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	Indices   []uint32
	Mode      gltf.PrimitiveMode
}

func Triangle() Primitive {
	return Primitive{
		Name:      "tri",
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2},
	}
}

func Quad() Primitive {
	return Primitive{
		Name:      "quad",
		Positions: [][3]float32{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2, 2, 3, 0},
	}
}

// Document puts every primitive into its own mesh.
func Document(prims ...Primitive) *gltf.Document {
	doc := gltf.NewDocument()
	for _, p := range prims {
		attributes := map[string]uint32{
			"POSITION": modeler.WritePosition(doc, p.Positions),
		}
		if p.Normals != nil {
			attributes["NORMAL"] = modeler.WriteNormal(doc, p.Normals)
		}
		primitive := &gltf.Primitive{Attributes: attributes, Mode: p.Mode}
		if p.Indices != nil {
			indices := modeler.WriteIndices(doc, p.Indices)
			primitive.Indices = &indices
		}
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       p.Name,
			Primitives: []*gltf.Primitive{primitive},
		})
	}
	return doc
}

// WriteGLB writes doc as a binary glTF, creating missing parent directories.
func WriteGLB(path string, doc *gltf.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := gltf.NewEncoder(f)
	encoder.AsBinary = true
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrapf(err, "Failed to encode %q", path)
	}
	return f.Close()
}
