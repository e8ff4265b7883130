// Package assets maps file extensions to mesh and image formats and performs
// the matching load or save.
package assets

import (
	"path/filepath"
	"strings"
)

// MeshFormat identifies a mesh file format.
type MeshFormat int

const (
	MeshUnknown MeshFormat = iota
	MeshOBJ
	MeshGLTF
)

func (f MeshFormat) String() string {
	switch f {
	case MeshOBJ:
		return "obj"
	case MeshGLTF:
		return "gltf"
	default:
		return "unknown"
	}
}

// ImageFormat identifies an image file format.
type ImageFormat int

const (
	ImageUnknown ImageFormat = iota
	ImageTGA
	ImagePNG
	ImageJPEG
	ImageBMP
	ImageTIFF
	ImageWebP
)

func (f ImageFormat) String() string {
	switch f {
	case ImageTGA:
		return "tga"
	case ImagePNG:
		return "png"
	case ImageJPEG:
		return "jpeg"
	case ImageBMP:
		return "bmp"
	case ImageTIFF:
		return "tiff"
	case ImageWebP:
		return "webp"
	default:
		return "unknown"
	}
}

// Registry maps lower-case extensions (with the leading dot) to formats. It
// is built once and handed to whatever needs to load or save files; there is
// no package-level registry.
type Registry struct {
	meshes map[string]MeshFormat
	images map[string]ImageFormat
}

// NewRegistry returns a registry with every built-in format registered.
func NewRegistry() *Registry {
	return &Registry{
		meshes: map[string]MeshFormat{
			".obj":  MeshOBJ,
			".gltf": MeshGLTF,
			".glb":  MeshGLTF,
		},
		images: map[string]ImageFormat{
			".tga":  ImageTGA,
			".png":  ImagePNG,
			".jpg":  ImageJPEG,
			".jpeg": ImageJPEG,
			".bmp":  ImageBMP,
			".tif":  ImageTIFF,
			".tiff": ImageTIFF,
			".webp": ImageWebP,
		},
	}
}

// RegisterMesh maps ext to f, replacing any previous mapping.
func (r *Registry) RegisterMesh(ext string, f MeshFormat) {
	r.meshes[normalizeExt(ext)] = f
}

// RegisterImage maps ext to f, replacing any previous mapping.
func (r *Registry) RegisterImage(ext string, f ImageFormat) {
	r.images[normalizeExt(ext)] = f
}

// MeshFormatOf returns the mesh format registered for path's extension.
func (r *Registry) MeshFormatOf(path string) MeshFormat {
	return r.meshes[normalizeExt(filepath.Ext(path))]
}

// ImageFormatOf returns the image format registered for path's extension.
func (r *Registry) ImageFormatOf(path string) ImageFormat {
	return r.images[normalizeExt(filepath.Ext(path))]
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
