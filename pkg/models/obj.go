package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/softrender/pkg/logging"
	"github.com/taigrr/softrender/pkg/math3d"
)

// ErrSyntax is returned for OBJ records that cannot be parsed.
var ErrSyntax = errors.New("obj syntax error")

// LoadOBJ reads a Wavefront OBJ file.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseOBJ(f, filepath.Base(path))
}

// ParseOBJ reads OBJ records from r. Only v, vt, vn and f are interpreted;
// other records (groups, materials, smoothing) are ignored. Face indices are
// 1-based in the file (negative values count back from the latest element)
// and 0-based in the returned mesh.
func ParseOBJ(r io.Reader, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	p := objParser{mesh: mesh}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		p.line++
		if err := p.parseLine(sc.Text()); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, p.line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if len(mesh.Positions) == 0 || len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("%s: %w: %d positions, %d faces", name, ErrNoGeometry, len(mesh.Positions), len(mesh.Faces))
	}

	mesh.CalculateBounds()
	logging.Logger().Debug("parsed obj",
		"name", name,
		"positions", len(mesh.Positions),
		"texcoords", len(mesh.TexCoords),
		"normals", len(mesh.Normals),
		"faces", len(mesh.Faces),
		"skipped", p.skipped,
	)
	return mesh, nil
}

type objParser struct {
	mesh    *Mesh
	line    int
	skipped int
}

func (p *objParser) parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "v":
		v, err := parseFloats(fields[1:], 3, 3)
		if err != nil {
			return fmt.Errorf("vertex: %w", err)
		}
		p.mesh.Positions = append(p.mesh.Positions, math3d.V3(v[0], v[1], v[2]))
	case "vt":
		v, err := parseFloats(fields[1:], 1, 2)
		if err != nil {
			return fmt.Errorf("texcoord: %w", err)
		}
		p.mesh.TexCoords = append(p.mesh.TexCoords, math3d.V2(v[0], v[1]))
	case "vn":
		v, err := parseFloats(fields[1:], 3, 3)
		if err != nil {
			return fmt.Errorf("normal: %w", err)
		}
		p.mesh.Normals = append(p.mesh.Normals, math3d.V3(v[0], v[1], v[2]))
	case "f":
		face, err := p.parseFace(fields[1:])
		if err != nil {
			return fmt.Errorf("face: %w", err)
		}
		if len(face.VertexIndices) < 3 {
			p.skipped++
			return nil
		}
		p.mesh.Faces = append(p.mesh.Faces, face)
	}
	return nil
}

// parseFloats parses at least min values and returns exactly want values,
// padding missing trailing ones with zero. Extra values (w, vertex colors)
// are ignored.
func parseFloats(fields []string, minCount, want int) ([]float64, error) {
	if len(fields) < minCount {
		return nil, fmt.Errorf("%w: want %d values, got %d", ErrSyntax, minCount, len(fields))
	}
	out := make([]float64, want)
	for i := 0; i < want && i < len(fields); i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrSyntax, fields[i])
		}
		out[i] = f
	}
	return out, nil
}

func (p *objParser) parseFace(corners []string) (Face, error) {
	var f Face
	hasUV, hasNormal := true, true

	for _, c := range corners {
		parts := strings.Split(c, "/")
		if len(parts) > 3 || parts[0] == "" {
			return Face{}, fmt.Errorf("%w: corner %q", ErrSyntax, c)
		}

		vi, err := resolveIndex(parts[0], len(p.mesh.Positions))
		if err != nil {
			return Face{}, err
		}
		f.VertexIndices = append(f.VertexIndices, vi)

		if len(parts) > 1 && parts[1] != "" {
			ti, err := resolveIndex(parts[1], len(p.mesh.TexCoords))
			if err != nil {
				return Face{}, err
			}
			f.TextureIndices = append(f.TextureIndices, ti)
		} else {
			hasUV = false
		}

		if len(parts) > 2 && parts[2] != "" {
			ni, err := resolveIndex(parts[2], len(p.mesh.Normals))
			if err != nil {
				return Face{}, err
			}
			f.NormalIndices = append(f.NormalIndices, ni)
		} else {
			hasNormal = false
		}
	}

	// Attribute lists are all-or-nothing per face.
	if !hasUV {
		f.TextureIndices = nil
	}
	if !hasNormal {
		f.NormalIndices = nil
	}
	return f, nil
}

// resolveIndex converts a 1-based or negative OBJ index into a 0-based one
// against the n elements read so far.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrSyntax, s)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += n
	default:
		return 0, fmt.Errorf("%w: index 0", ErrIndexRange)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %s with %d defined", ErrIndexRange, s, n)
	}
	return i, nil
}
