package app

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/softrender/pkg/logging"
	"github.com/taigrr/softrender/pkg/math3d"
)

// Spring parameters for the orbit. Damping 1 is critically damped, so the
// camera eases in without overshooting the final angle.
const (
	orbitFrequency = 6.0
	orbitDamping   = 1.0
)

// FrameName returns the path of frame i of a sequence based on path:
// "out/spin.tga" becomes "out/spin_007.tga".
func FrameName(path string, i int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%03d%s", strings.TrimSuffix(path, ext), i, ext)
}

// OrbitAngles returns the azimuth offsets, in radians, of a frames-long orbit
// of degrees. The offsets follow a harmonica spring from 0 toward the goal
// and the last one is exactly the goal.
func OrbitAngles(frames int, degrees float64) []float64 {
	if frames <= 0 {
		return nil
	}
	goal := math3d.Radians(degrees)
	if frames == 1 {
		return []float64{goal}
	}

	spring := harmonica.NewSpring(harmonica.FPS(frames), orbitFrequency, orbitDamping)
	angles := make([]float64, frames)
	pos, vel := 0.0, 0.0
	for i := range frames - 1 {
		angles[i] = pos
		pos, vel = spring.Update(pos, vel, goal)
	}
	angles[frames-1] = goal
	return angles
}

// TurntableMatrix returns base followed by a rotation of angle radians about
// the vertical axis through pivot. A positive angle turns the model the
// opposite way to a camera orbiting by the same angle.
func TurntableMatrix(base math3d.Mat4, pivot math3d.Vec3, angle float64) math3d.Mat4 {
	spin := math3d.Translate(pivot).
		Mul(math3d.RotateY(-angle)).
		Mul(math3d.Translate(pivot.Negate()))
	return spin.Mul(base)
}

// RenderTurntable renders frames images while spinning the model about the
// vertical axis through the camera target. The camera and light stay fixed,
// so the model turns under the light. Frame i is saved as
// FrameName(output, i). The model matrix is restored afterwards.
func (a *Application) RenderTurntable(output string, frames int, degrees float64) ([]string, error) {
	base := a.raster.ModelMatrix()
	pivot := a.raster.Camera().Target()
	defer a.raster.SetModelMatrix(base)

	paths := make([]string, 0, frames)
	for i, angle := range OrbitAngles(frames, degrees) {
		a.raster.SetModelMatrix(TurntableMatrix(base, pivot, angle))

		if _, err := a.Render(); err != nil {
			return paths, err
		}
		path := FrameName(output, i)
		if err := a.SaveImage(path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
		logging.Logger().Debug("turntable frame", "frame", i, "degrees", angle*180/math.Pi, "path", path)
	}
	return paths, nil
}
