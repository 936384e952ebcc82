// Package scene describes decoded 3-D scene files. Only mesh geometry is kept.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	// Normals is either empty or the same length as Positions
	Normals []mgl32.Vec3
	// Faces hold vertex indices. Triangulated decoders produce faces of 3.
	Faces [][]uint32
}

type Scene struct {
	Meshes []*Mesh
}

// Decoder turns a scene file on disk into its mesh list.
type Decoder interface {
	DecodeFile(path string) (*Scene, error)
}
