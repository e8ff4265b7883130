package app

import (
	"path/filepath"

	"github.com/taigrr/softrender/pkg/assets"
	"github.com/taigrr/softrender/pkg/texture"
)

const testTextureSize = 256

// GenerateTestTextures writes two checkerboards and a gradient as TGA files
// into dir and returns their paths.
func GenerateTestTextures(dir string, registry *assets.Registry) ([]string, error) {
	if registry == nil {
		registry = assets.NewRegistry()
	}

	textures := []struct {
		name string
		tex  *texture.Texture
	}{
		{"checker_32.tga", texture.Checkerboard(testTextureSize, testTextureSize, 32)},
		{"checker_16.tga", texture.Checkerboard(testTextureSize, testTextureSize, 16)},
		{"gradient.tga", texture.Gradient(testTextureSize, testTextureSize)},
	}

	paths := make([]string, 0, len(textures))
	for _, t := range textures {
		path := filepath.Join(dir, t.name)
		if err := registry.SaveImage(path, t.tex, assets.SaveOptions{}); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
