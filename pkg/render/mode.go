package render

import (
	"fmt"
	"strings"
)

// RenderMode selects how Render draws faces.
type RenderMode int

const (
	// Wireframe draws every polygon edge with Bresenham lines.
	Wireframe RenderMode = iota
	// Solid fills triangles with flat white, lit once per triangle.
	Solid
	// Textured samples the texture, lit once per triangle.
	Textured
	// TexturedShaded samples the texture with per-pixel interpolated
	// ambient, diffuse and specular light.
	TexturedShaded
	// Colorful fills each triangle with a random opaque color.
	Colorful
)

var modeNames = [...]string{
	Wireframe:      "wireframe",
	Solid:          "solid",
	Textured:       "textured",
	TexturedShaded: "shaded",
	Colorful:       "colorful",
}

func (m RenderMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("RenderMode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseRenderMode maps a mode name to its RenderMode. Matching ignores case;
// "textured_shaded" is accepted as an alias of "shaded".
func ParseRenderMode(s string) (RenderMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "textured_shaded" || name == "textured-shaded" {
		return TexturedShaded, nil
	}
	for i, n := range modeNames {
		if n == name {
			return RenderMode(i), nil
		}
	}
	return Wireframe, fmt.Errorf("unknown render mode %q", s)
}
