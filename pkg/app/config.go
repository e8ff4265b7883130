// Package app ties loading, rendering and saving together behind a small
// Application type driven by a Config.
package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/render"
	"github.com/taigrr/softrender/pkg/texture"
)

// ErrInvalidConfig wraps every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config describes one rendering job. Zero values of optional fields mean
// "use the default".
type Config struct {
	Model   string `toml:"model" yaml:"model"`
	Texture string `toml:"texture" yaml:"texture"`
	Output  string `toml:"output" yaml:"output"`

	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	Mode   string `toml:"mode" yaml:"mode"`

	Camera []float64 `toml:"camera" yaml:"camera"`
	Target []float64 `toml:"target" yaml:"target"`
	Light  []float64 `toml:"light" yaml:"light"`

	Background string `toml:"background" yaml:"background"`
	LineColor  string `toml:"line_color" yaml:"line_color"`

	// Seed makes colorful mode reproducible when set.
	Seed *uint64 `toml:"seed" yaml:"seed"`
	// Fit rescales the mesh so its largest side has this length. 0 disables.
	Fit           float64 `toml:"fit" yaml:"fit"`
	SmoothNormals bool    `toml:"smooth_normals" yaml:"smooth_normals"`
	CullBackfaces bool    `toml:"cull_backfaces" yaml:"cull_backfaces"`

	RLE         bool `toml:"rle" yaml:"rle"`
	JPEGQuality int  `toml:"jpeg_quality" yaml:"jpeg_quality"`

	// Frames > 1 renders a turntable sequence orbiting OrbitDegrees.
	Frames       int     `toml:"frames" yaml:"frames"`
	OrbitDegrees float64 `toml:"orbit_degrees" yaml:"orbit_degrees"`
}

// DefaultConfig returns the settings used when nothing else is given.
func DefaultConfig() Config {
	return Config{
		Output:       "output.tga",
		Width:        800,
		Height:       600,
		Mode:         render.Wireframe.String(),
		Camera:       []float64{0, 0, 5},
		Target:       []float64{0, 0, 0},
		Light:        []float64{1, 1, 1},
		Background:   "#000000",
		LineColor:    "#ff0000",
		Frames:       1,
		OrbitDegrees: 360,
	}
}

// LoadConfig decodes the TOML or YAML file at path over cfg, so keys absent
// from the file keep their current values. The format follows the extension.
func LoadConfig(path string, cfg *Config) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand config path: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
	default:
		return fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// ExpandPaths replaces a leading ~ in every path field with the home
// directory.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.Model, &c.Texture, &c.Output} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate reports the first problem that would stop the job from running.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: no model given", ErrInvalidConfig)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: no output path given", ErrInvalidConfig)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d must be positive", ErrInvalidConfig, c.Width, c.Height)
	}
	if _, err := render.ParseRenderMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	vectors := []struct {
		name string
		v    []float64
	}{
		{"camera", c.Camera},
		{"target", c.Target},
		{"light", c.Light},
	}
	for _, f := range vectors {
		if len(f.v) != 3 {
			return fmt.Errorf("%w: %s needs 3 components, got %d", ErrInvalidConfig, f.name, len(f.v))
		}
	}
	if vec(c.Camera) == vec(c.Target) {
		return fmt.Errorf("%w: camera and target coincide", ErrInvalidConfig)
	}
	colors := []struct {
		name string
		s    string
	}{
		{"background", c.Background},
		{"line color", c.LineColor},
	}
	for _, f := range colors {
		if _, err := ParseColor(f.s); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, f.name, err)
		}
	}
	if c.Fit < 0 {
		return fmt.Errorf("%w: fit %v must not be negative", ErrInvalidConfig, c.Fit)
	}
	if c.Frames < 1 {
		return fmt.Errorf("%w: frames %d must be at least 1", ErrInvalidConfig, c.Frames)
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg quality %d not in [0, 100]", ErrInvalidConfig, c.JPEGQuality)
	}
	return nil
}

func vec(v []float64) math3d.Vec3 {
	if len(v) != 3 {
		return math3d.Vec3{}
	}
	return math3d.V3(v[0], v[1], v[2])
}

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa" into a packed ARGB
// color. Colors without an alpha component are opaque.
func ParseColor(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	alpha := uint8(255)
	if len(s) == 9 && s[0] == '#' {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("color %q: bad alpha: %w", s, err)
		}
		alpha = uint8(a)
		s = s[:7]
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return texture.Pack(r, g, b, alpha), nil
}

// ParseVec3 parses "x,y,z" into the three components Config stores.
func ParseVec3(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("vector %q: want x,y,z", s)
	}
	out := make([]float64, 3)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("vector %q: %w", s, err)
		}
		out[i] = f
	}
	return out, nil
}
