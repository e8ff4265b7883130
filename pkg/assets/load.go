package assets

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/taigrr/softrender/pkg/logging"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/texture"
	"github.com/taigrr/softrender/pkg/tga"
)

// MeshOptions tunes mesh loading.
type MeshOptions struct {
	// SmoothNormals generates per-vertex normals for meshes without any.
	SmoothNormals bool
}

// LoadMesh reads the mesh at path using the format registered for its
// extension. Errors are *LoadError.
func (r *Registry) LoadMesh(path string, opts MeshOptions) (*models.Mesh, error) {
	format := r.MeshFormatOf(path)

	var mesh *models.Mesh
	var err error
	switch format {
	case MeshOBJ:
		mesh, err = models.LoadOBJ(path)
		if err == nil && opts.SmoothNormals && len(mesh.Normals) == 0 {
			mesh.CalculateSmoothNormals()
		}
	case MeshGLTF:
		loader := models.NewGLTFLoader()
		loader.SmoothNormals = opts.SmoothNormals
		mesh, err = loader.Load(path)
	default:
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, wrap(path, statErr)
		}
		return nil, unsupported(path, filepath.Ext(path))
	}
	if err != nil {
		return nil, wrap(path, err)
	}

	logging.Logger().Info("mesh loaded",
		"path", path,
		"format", format,
		"positions", len(mesh.Positions),
		"faces", len(mesh.Faces),
		"textured", mesh.Texture != nil,
	)
	return mesh, nil
}

// LoadTexture reads the image at path. The registered extension decides the
// decoder; unknown extensions are sniffed from the file contents. Errors are
// *LoadError.
func (r *Registry) LoadTexture(path string) (*texture.Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap(path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	format := r.ImageFormatOf(path)
	if format == ImageUnknown {
		format = sniff(br)
		logging.Logger().Debug("sniffed image format", "path", path, "format", format)
	}

	tex, err := decode(br, format)
	if err != nil {
		if format == ImageUnknown {
			return nil, unsupported(path, filepath.Ext(path))
		}
		return nil, wrap(path, fmt.Errorf("decode %s: %w", format, err))
	}

	logging.Logger().Info("texture loaded", "path", path, "format", format, "width", tex.Width, "height", tex.Height)
	return tex, nil
}

// sniff peeks at the header and matches it against known signatures. TGA has
// no signature and is never detected this way.
func sniff(br *bufio.Reader) ImageFormat {
	head, _ := br.Peek(262)
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return ImageUnknown
	}
	switch kind.Extension {
	case "png":
		return ImagePNG
	case "jpg":
		return ImageJPEG
	case "bmp":
		return ImageBMP
	case "tif":
		return ImageTIFF
	case "webp":
		return ImageWebP
	}
	return ImageUnknown
}

func decode(r io.Reader, format ImageFormat) (*texture.Texture, error) {
	var img image.Image
	var err error
	switch format {
	case ImageTGA:
		return tga.Decode(r)
	case ImagePNG:
		img, err = png.Decode(r)
	case ImageJPEG:
		img, err = jpeg.Decode(r)
	case ImageBMP:
		img, err = bmp.Decode(r)
	case ImageTIFF:
		img, err = tiff.Decode(r)
	case ImageWebP:
		img, err = webp.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, format)
	}
	if err != nil {
		return nil, err
	}
	return texture.FromImage(img), nil
}

// SaveOptions tunes image output.
type SaveOptions struct {
	// RLE selects run-length encoding for TGA output.
	RLE bool
	// JPEGQuality is used for JPEG output; zero means jpeg.DefaultQuality.
	JPEGQuality int
}

// SaveImage writes tex to path in the format registered for its extension.
// Parent directories are created as needed. Errors are *LoadError.
func (r *Registry) SaveImage(path string, tex *texture.Texture, opts SaveOptions) (err error) {
	format := r.ImageFormatOf(path)
	if format == ImageUnknown || format == ImageWebP {
		return unsupported(path, filepath.Ext(path))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return wrap(path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return wrap(path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = wrap(path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := encode(w, tex, format, opts); err != nil {
		return wrap(path, err)
	}
	if err := w.Flush(); err != nil {
		return wrap(path, err)
	}

	logging.Logger().Info("image saved", "path", path, "format", format, "width", tex.Width, "height", tex.Height)
	return nil
}

func encode(w io.Writer, tex *texture.Texture, format ImageFormat, opts SaveOptions) error {
	switch format {
	case ImageTGA:
		if opts.RLE {
			return tga.EncodeRLE(w, tex)
		}
		return tga.Encode(w, tex)
	case ImagePNG:
		return png.Encode(w, tex.ToImage())
	case ImageJPEG:
		q := opts.JPEGQuality
		if q == 0 {
			q = jpeg.DefaultQuality
		}
		return jpeg.Encode(w, tex.ToImage(), &jpeg.Options{Quality: q})
	case ImageBMP:
		return bmp.Encode(w, tex.ToImage())
	case ImageTIFF:
		return tiff.Encode(w, tex.ToImage(), &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %s", ErrUnsupported, format)
}
