// Package hmsh converts decoded scenes into the .hmsh binary mesh format.
//
// Layout, little endian, no header or version:
//
//	vertexCount uint32
//	indexCount  uint32
//	vertexCount * { pos [3]float32, norm [3]float32 }
//	indexCount  * uint32
package hmsh

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/hyperbola_tools/scene"
)

const Extension = ".hmsh"

const VertexSize = 6 * 4

var (
	ErrEmptyScene      = errors.New("scene has no meshes")
	ErrMissingNormals  = errors.New("mesh normal count differs from vertex count")
	ErrNotTriangulated = errors.New("mesh face is not a triangle")
	ErrIndexOutOfRange = errors.New("face index out of vertex range")
	ErrTruncated       = errors.New("truncated hmsh data")
)

type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

type Mesh struct {
	VertexCount uint32
	IndexCount  uint32
	Vertices    []Vertex
	Indices     []uint32
}

type header struct {
	VertexCount uint32
	IndexCount  uint32
}

// FromScene builds a Mesh from the first mesh of s.
func FromScene(s *scene.Scene) (*Mesh, error) {
	if s == nil || len(s.Meshes) == 0 {
		return nil, ErrEmptyScene
	}
	src := s.Meshes[0]
	if len(src.Normals) != len(src.Positions) {
		return nil, errors.Wrapf(ErrMissingNormals, "%d normals for %d vertices", len(src.Normals), len(src.Positions))
	}

	m := &Mesh{
		VertexCount: uint32(len(src.Positions)),
		IndexCount:  uint32(len(src.Faces) * 3),
		Vertices:    make([]Vertex, len(src.Positions)),
		Indices:     make([]uint32, 0, len(src.Faces)*3),
	}
	for i := range src.Positions {
		m.Vertices[i] = Vertex{Position: src.Positions[i], Normal: src.Normals[i]}
	}
	for iFace, face := range src.Faces {
		if len(face) != 3 {
			return nil, errors.Wrapf(ErrNotTriangulated, "face %d has %d indices", iFace, len(face))
		}
		for _, index := range face {
			if index >= m.VertexCount {
				return nil, errors.Wrapf(ErrIndexOutOfRange, "face %d index %d, %d vertices", iFace, index, m.VertexCount)
			}
		}
		m.Indices = append(m.Indices, face...)
	}
	return m, nil
}

// Triangles returns the face count.
func (m *Mesh) Triangles() int {
	return int(m.IndexCount / 3)
}

// Size returns the encoded size in bytes.
func (m *Mesh) Size() int64 {
	return 8 + int64(m.VertexCount)*VertexSize + int64(m.IndexCount)*4
}

func (m *Mesh) validate() error {
	if uint32(len(m.Vertices)) != m.VertexCount {
		return errors.Errorf("vertex count %d, have %d vertices", m.VertexCount, len(m.Vertices))
	}
	if uint32(len(m.Indices)) != m.IndexCount {
		return errors.Errorf("index count %d, have %d indices", m.IndexCount, len(m.Indices))
	}
	return nil
}

func (m *Mesh) Write(w io.Writer) error {
	if err := m.validate(); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header{m.VertexCount, m.IndexCount}); err != nil {
		return errors.Wrapf(err, "Failed to write header")
	}
	if err := binary.Write(w, binary.LittleEndian, m.Vertices); err != nil {
		return errors.Wrapf(err, "Failed to write vertices")
	}
	if err := binary.Write(w, binary.LittleEndian, m.Indices); err != nil {
		return errors.Wrapf(err, "Failed to write indices")
	}
	return nil
}

func Read(r io.Reader) (*Mesh, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, truncated(err, "header")
	}
	vertices, err := readChunked[Vertex](r, h.VertexCount)
	if err != nil {
		return nil, truncated(err, "vertices")
	}
	indices, err := readChunked[uint32](r, h.IndexCount)
	if err != nil {
		return nil, truncated(err, "indices")
	}
	return &Mesh{
		VertexCount: h.VertexCount,
		IndexCount:  h.IndexCount,
		Vertices:    vertices,
		Indices:     indices,
	}, nil
}

// readChunk bounds allocation ahead of data actually read, counts come
// from an untrusted header.
const readChunk = 4096

func readChunked[T any](r io.Reader, n uint32) ([]T, error) {
	result := make([]T, 0, min(n, readChunk))
	buf := make([]T, min(n, readChunk))
	for remaining := n; remaining > 0; {
		count := min(remaining, readChunk)
		if err := binary.Read(r, binary.LittleEndian, buf[:count]); err != nil {
			return nil, err
		}
		result = append(result, buf[:count]...)
		remaining -= count
	}
	return result, nil
}

func truncated(err error, what string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrapf(ErrTruncated, "reading %s", what)
	}
	return errors.Wrapf(err, "Failed to read %s", what)
}

// Encode writes m to a new file at path. A partially written file is removed.
func Encode(path string, m *Mesh) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	w := bufio.NewWriter(f)
	if err := m.Write(w); err != nil {
		return err
	}
	return w.Flush()
}

func Decode(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 8 {
		return nil, errors.Wrapf(ErrTruncated, "%q is %d bytes", path, len(data))
	}
	vertexCount := binary.LittleEndian.Uint32(data[0:4])
	indexCount := binary.LittleEndian.Uint32(data[4:8])
	if want := 8 + int64(vertexCount)*VertexSize + int64(indexCount)*4; int64(len(data)) < want {
		return nil, errors.Wrapf(ErrTruncated, "%q is %d bytes, header wants %d", path, len(data), want)
	}
	return Read(bytes.NewReader(data))
}
