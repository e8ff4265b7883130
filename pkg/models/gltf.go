package models

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder for embedded images
	_ "image/png"  // Register PNG decoder for embedded images
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/softrender/pkg/logging"
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/texture"
)

// GLTFLoader loads .gltf and .glb files into a Mesh.
type GLTFLoader struct {
	// SmoothNormals generates per-vertex normals when the file has none.
	SmoothNormals bool
	// LoadTexture decodes the first image in the document into Mesh.Texture.
	LoadTexture bool
}

// NewGLTFLoader creates a loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		SmoothNormals: false,
		LoadTexture:   true,
	}
}

// LoadGLTF loads a glTF or GLB file with default options.
func LoadGLTF(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load reads every triangle primitive of every mesh in the document into a
// single Mesh. Positions, texture coordinates and normals share one index per
// vertex, as in glTF.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	if l.SmoothNormals && len(mesh.Normals) == 0 {
		mesh.CalculateSmoothNormals()
	}
	if l.LoadTexture {
		tex, err := firstImage(doc, filepath.Dir(path))
		if err != nil {
			logging.Logger().Warn("gltf texture skipped", "path", path, "err", err)
		}
		mesh.Texture = tex
	}

	mesh.CalculateBounds()
	return mesh, nil
}

func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			logging.Logger().Debug("gltf primitive skipped", "mesh", m.Name, "mode", prim.Mode)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		base := len(mesh.Positions)
		hasNormals := len(normals) == len(positions) && len(mesh.Normals) == base
		hasUVs := len(uvs) == len(positions) && len(mesh.TexCoords) == base

		for i, p := range positions {
			mesh.Positions = append(mesh.Positions, math3d.V3(float64(p[0]), float64(p[1]), float64(p[2])))
			if hasNormals {
				n := normals[i]
				mesh.Normals = append(mesh.Normals, math3d.V3(float64(n[0]), float64(n[1]), float64(n[2])))
			}
			if hasUVs {
				// glTF puts V=0 at the top of the image; meshes here use V=0 at the bottom.
				mesh.TexCoords = append(mesh.TexCoords, math3d.V2(float64(uvs[i][0]), 1-float64(uvs[i][1])))
			}
		}

		var indices []uint32
		if prim.Indices != nil {
			if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			corners := []int{base + int(indices[i]), base + int(indices[i+1]), base + int(indices[i+2])}
			f := Face{VertexIndices: corners}
			if hasUVs {
				f.TextureIndices = corners
			}
			if hasNormals {
				f.NormalIndices = corners
			}
			mesh.Faces = append(mesh.Faces, f)
		}
	}
	return nil
}

// firstImage decodes the first image of the document, whether it lives in a
// buffer view, a data URI or a file next to the document.
func firstImage(doc *gltf.Document, dir string) (*texture.Texture, error) {
	if len(doc.Images) == 0 {
		return nil, nil
	}
	img := doc.Images[0]

	var data []byte
	var err error
	switch {
	case img.BufferView != nil:
		data, err = modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
	case img.IsEmbeddedResource():
		data, err = img.MarshalData()
	case img.URI != "":
		data, err = os.ReadFile(filepath.Join(dir, img.URI))
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return texture.FromImage(decoded), nil
}
