package app

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/render"
)

func TestFrameName(t *testing.T) {
	tests := []struct {
		path string
		i    int
		want string
	}{
		{"out.tga", 0, "out_000.tga"},
		{"renders/spin.png", 7, "renders/spin_007.png"},
		{"noext", 12, "noext_012"},
		{"a.b/c.tga", 1000, "a.b/c_1000.tga"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, FrameName(tc.path, tc.i))
		})
	}
}

func TestOrbitAngles(t *testing.T) {
	angles := OrbitAngles(24, 360)
	require.Len(t, angles, 24)

	assert.Zero(t, angles[0])
	assert.InDelta(t, 2*math.Pi, angles[23], 1e-12)
	for i := 1; i < len(angles); i++ {
		assert.GreaterOrEqual(t, angles[i], angles[i-1], "critically damped orbit never turns back")
	}

	assert.Equal(t, []float64{math3d.Radians(90)}, OrbitAngles(1, 90))
	assert.Nil(t, OrbitAngles(0, 90))
}

func TestRenderTurntable(t *testing.T) {
	cfg := testConfig(t, render.Wireframe)
	cfg.Output = filepath.Join(t.TempDir(), "spin.tga")
	cfg.Frames = 4
	cfg.OrbitDegrees = 180

	a, err := New(cfg, nil)
	require.NoError(t, err)

	paths, err := a.Run()
	require.NoError(t, err)
	require.Len(t, paths, 4)
	for i, p := range paths {
		assert.Equal(t, FrameName(cfg.Output, i), p)
		assert.FileExists(t, p)
	}

	assert.Equal(t, math3d.V3(0, 0, 4), a.Rasterizer().Camera().Position())
	assert.Equal(t, math3d.Identity(), a.Rasterizer().ModelMatrix(), "model matrix is restored")
}

func TestTurntableMatrix(t *testing.T) {
	pivot := math3d.V3(1, 0, 0)

	tests := []struct {
		name  string
		angle float64
		in    math3d.Vec3
		want  math3d.Vec3
	}{
		{"no turn", 0, math3d.V3(1, 2, 1), math3d.V3(1, 2, 1)},
		{"pivot is fixed", math.Pi / 3, math3d.V3(1, 5, 0), math3d.V3(1, 5, 0)},
		// Spinning the model -90 degrees about Y moves +Z to -X around the pivot.
		{"quarter turn", math.Pi / 2, math3d.V3(1, 0, 1), math3d.V3(0, 0, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TurntableMatrix(math3d.Identity(), pivot, tc.angle).MulPoint(tc.in)
			assert.InDelta(t, tc.want.X, got.X, 1e-12)
			assert.InDelta(t, tc.want.Y, got.Y, 1e-12)
			assert.InDelta(t, tc.want.Z, got.Z, 1e-12)
		})
	}

	scaled := TurntableMatrix(math3d.ScaleUniform(2), math3d.Vec3{}, 0).MulPoint(math3d.V3(1, 1, 1))
	assert.Equal(t, math3d.V3(2, 2, 2), scaled, "base transform applies first")
}
